// Package taxonomy implements the immutable domain-term lookup used by topic
// extraction.  A taxonomy maps surface terms ("bst", "binary search tree") to
// their canonical family ("tree"), category, and category weight multiplier.
// It is built once at engine construction and never mutated afterwards; all
// lookups are read-only and safe for concurrent use.
package taxonomy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prepwise/interview-intel/pkg/errors"
	"github.com/prepwise/interview-intel/pkg/types/insight"
)

// ─────────────────────────────────────────────────────────────────────────────
// Definition inputs
// ─────────────────────────────────────────────────────────────────────────────

// FamilyDef groups synonym terms under one canonical term.  The canonical
// term is always matchable itself, whether or not it is repeated in Terms.
type FamilyDef struct {
	Canonical string
	Terms     []string
}

// CategoryDef declares one category's weight multiplier and its term families.
type CategoryDef struct {
	Category   insight.Category
	Multiplier float64
	Families   []FamilyDef
}

// ─────────────────────────────────────────────────────────────────────────────
// Lookup entry
// ─────────────────────────────────────────────────────────────────────────────

// Entry is the resolved taxonomy record for a single surface term.  When a
// term appears in families of more than one category, the entry carries the
// maximum applicable multiplier and the category that supplies it; ties go to
// the lexicographically smaller category name so resolution is deterministic.
type Entry struct {
	// Term is the normalized surface form this entry was resolved for.
	Term string

	// Canonical is the normalized canonical term of the winning family.
	Canonical string

	// Category is the category of the winning family.
	Category insight.Category

	// Multiplier is the importance weight applied during extraction.
	Multiplier float64
}

// ─────────────────────────────────────────────────────────────────────────────
// Taxonomy
// ─────────────────────────────────────────────────────────────────────────────

// Taxonomy is the immutable term lookup table.
type Taxonomy struct {
	entries        map[string]Entry
	multipliers    map[insight.Category]float64
	families       map[string]familyView
	categories     []insight.Category
	terms          []string
	maxPhraseWords int
}

// familyView is the resolved, sorted view of one family.
type familyView struct {
	canonical string
	category  insight.Category
	terms     []string
}

// Family is the exported read-only view of one term family, used by callers
// that enumerate the taxonomy (for example the CLI taxonomy command).
type Family struct {
	Canonical string
	Category  insight.Category
	Terms     []string
}

// membership records one family a term belongs to, before resolution.
type membership struct {
	canonical  string
	category   insight.Category
	multiplier float64
}

// New builds a Taxonomy from category definitions, enforcing:
//   - at least one category with at least one family term must be defined.
//   - every multiplier must be positive.
//   - a category declared twice must declare the same multiplier.
//   - a term may appear in at most one family per category; the same term in
//     two families of one category is ambiguous and rejected.
//
// Terms are normalized (lowercased, whitespace collapsed) at build time so
// lookups against normalizer output need no further processing.
func New(defs []CategoryDef) (*Taxonomy, error) {
	if len(defs) == 0 {
		return nil, errors.New(errors.ErrCodeTaxonomyMissing, "no taxonomy categories defined")
	}

	multipliers := make(map[insight.Category]float64)
	memberships := make(map[string][]membership)
	families := make(map[string]familyView)

	for _, def := range defs {
		if !def.Category.Valid() {
			return nil, errors.Taxonomy(fmt.Sprintf("unknown category %q", def.Category))
		}
		if def.Multiplier <= 0 {
			return nil, errors.Taxonomy(fmt.Sprintf(
				"category %s: multiplier must be positive, got %g", def.Category, def.Multiplier))
		}
		if prev, ok := multipliers[def.Category]; ok && prev != def.Multiplier {
			return nil, errors.Taxonomy(fmt.Sprintf(
				"category %s declared twice with conflicting multipliers %g and %g",
				def.Category, prev, def.Multiplier))
		}
		multipliers[def.Category] = def.Multiplier

		// seenInCategory guards against one term landing in two families of
		// the same category, which would make family assignment ambiguous.
		seenInCategory := make(map[string]string)

		for _, fam := range def.Families {
			canonical := NormalizeTerm(fam.Canonical)
			if canonical == "" {
				return nil, errors.Taxonomy(fmt.Sprintf(
					"category %s: family canonical term must not be empty", def.Category))
			}

			famKey := familyKey(def.Category, canonical)
			if _, ok := families[famKey]; ok {
				return nil, errors.Taxonomy(fmt.Sprintf(
					"category %s: family %q declared twice", def.Category, canonical))
			}

			termSet := make(map[string]struct{}, len(fam.Terms)+1)
			termSet[canonical] = struct{}{}
			for _, raw := range fam.Terms {
				term := NormalizeTerm(raw)
				if term == "" {
					return nil, errors.Taxonomy(fmt.Sprintf(
						"category %s family %q: empty term", def.Category, canonical))
				}
				termSet[term] = struct{}{}
			}

			sorted := make([]string, 0, len(termSet))
			for term := range termSet {
				if owner, dup := seenInCategory[term]; dup && owner != canonical {
					return nil, errors.Taxonomy(fmt.Sprintf(
						"category %s: term %q belongs to both %q and %q",
						def.Category, term, owner, canonical))
				}
				seenInCategory[term] = canonical
				sorted = append(sorted, term)
				memberships[term] = append(memberships[term], membership{
					canonical:  canonical,
					category:   def.Category,
					multiplier: def.Multiplier,
				})
			}
			sort.Strings(sorted)

			families[famKey] = familyView{
				canonical: canonical,
				category:  def.Category,
				terms:     sorted,
			}
		}
	}

	if len(memberships) == 0 {
		return nil, errors.New(errors.ErrCodeTaxonomyMissing, "taxonomy defines no terms")
	}

	t := &Taxonomy{
		entries:     make(map[string]Entry, len(memberships)),
		multipliers: multipliers,
		families:    families,
	}

	for term, list := range memberships {
		t.entries[term] = resolve(term, list)
		t.terms = append(t.terms, term)
		if n := len(strings.Fields(term)); n > t.maxPhraseWords {
			t.maxPhraseWords = n
		}
	}
	sort.Strings(t.terms)

	for cat := range multipliers {
		t.categories = append(t.categories, cat)
	}
	sort.Slice(t.categories, func(i, j int) bool {
		return t.categories[i] < t.categories[j]
	})

	return t, nil
}

// resolve picks the winning membership for a term that may belong to several
// categories: highest multiplier first, then lexicographic category order.
func resolve(term string, list []membership) Entry {
	best := list[0]
	for _, m := range list[1:] {
		if m.multiplier > best.multiplier ||
			(m.multiplier == best.multiplier && m.category < best.category) {
			best = m
		}
	}
	return Entry{
		Term:       term,
		Canonical:  best.canonical,
		Category:   best.category,
		Multiplier: best.multiplier,
	}
}

func familyKey(cat insight.Category, canonical string) string {
	return string(cat) + "\x00" + canonical
}

// ─────────────────────────────────────────────────────────────────────────────
// Lookups
// ─────────────────────────────────────────────────────────────────────────────

// Lookup returns the resolved entry for a term.  The input is normalized
// before lookup, so callers may pass raw surface forms.
func (t *Taxonomy) Lookup(term string) (Entry, bool) {
	e, ok := t.entries[NormalizeTerm(term)]
	return e, ok
}

// MultiplierFor returns the weight multiplier of a category, or 1.0 for
// categories the taxonomy does not define.
func (t *Taxonomy) MultiplierFor(cat insight.Category) float64 {
	if m, ok := t.multipliers[cat]; ok {
		return m
	}
	return 1.0
}

// MaxPhraseWords returns the word length of the longest term, which bounds
// the n-gram window the extractor scans with.
func (t *Taxonomy) MaxPhraseWords() int {
	return t.maxPhraseWords
}

// Terms returns every matchable term in sorted order.
func (t *Taxonomy) Terms() []string {
	out := make([]string, len(t.terms))
	copy(out, t.terms)
	return out
}

// Size returns the number of distinct matchable terms.
func (t *Taxonomy) Size() int {
	return len(t.terms)
}

// Categories returns the defined categories in sorted order.
func (t *Taxonomy) Categories() []insight.Category {
	out := make([]insight.Category, len(t.categories))
	copy(out, t.categories)
	return out
}

// FamiliesIn returns the families of one category sorted by canonical term.
func (t *Taxonomy) FamiliesIn(cat insight.Category) []Family {
	var out []Family
	for _, fv := range t.families {
		if fv.category != cat {
			continue
		}
		terms := make([]string, len(fv.terms))
		copy(terms, fv.terms)
		out = append(out, Family{
			Canonical: fv.canonical,
			Category:  fv.category,
			Terms:     terms,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Canonical < out[j].Canonical })
	return out
}

// NormalizeTerm lowercases a term and collapses internal whitespace, the same
// shape the text normalizer emits for token phrases.
func NormalizeTerm(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}
