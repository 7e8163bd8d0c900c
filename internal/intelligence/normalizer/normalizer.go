// Package normalizer converts raw interview-experience text into the ordered
// token sequences the extraction pipeline consumes.  Normalization is lossy
// and one-way: markup and URLs are stripped, unicode is NFKC-folded, text is
// lowercased, stopwords and sub-minimum tokens are dropped.  Taxonomy phrases
// must pass through NormalizePhrase so that phrase matching and document
// tokenization apply identical filtering.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/prepwise/interview-intel/pkg/types/insight"
)

// ---------------------------------------------------------------------------
// Normalizer interface
// ---------------------------------------------------------------------------

// Normalizer cleans and tokenizes experience records.  Implementations never
// fail: empty or malformed input yields an empty token sequence.
type Normalizer interface {
	// Normalize converts one record into its tokenized document form.
	Normalize(rec insight.ExperienceRecord) insight.NormalizedDocument

	// NormalizeBatch converts records in order; output length equals input
	// length.
	NormalizeBatch(recs []insight.ExperienceRecord) []insight.NormalizedDocument

	// Tokenize runs the full cleaning pipeline over free text.
	Tokenize(text string) []string

	// NormalizePhrase tokenizes a taxonomy phrase with the same filtering as
	// document text, so phrase keys align with token streams.
	NormalizePhrase(phrase string) []string
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Config holds the tunable parameters of the text normalizer.
type Config struct {
	// MinTokenLength drops tokens with fewer runes unless whitelisted.
	MinTokenLength int

	// ExtraStopwords extends the built-in stopword set.
	ExtraStopwords []string

	// ExtraKeepTerms extends the built-in whitelist exempt from stopword and
	// length filtering.
	ExtraKeepTerms []string
}

const defaultMinTokenLength = 2

// ---------------------------------------------------------------------------
// Cleaning patterns
// ---------------------------------------------------------------------------

var (
	// reURL matches http(s) and www URLs up to the next whitespace.
	reURL = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)

	// reMarkupTag matches HTML/XML tags such as <p> and </div>.
	reMarkupTag = regexp.MustCompile(`<[^<>]{0,256}>`)

	// reEntity matches HTML entities such as &amp; and &#39;.
	reEntity = regexp.MustCompile(`&[a-zA-Z]{2,8};|&#\d{1,6};`)

	// reProtected matches technical terms whose punctuation must survive
	// tokenization.  Longest alternatives first so asp.net wins over .net.
	reProtected = regexp.MustCompile(`asp\.net|node\.js|c\+\+|[cf]#|\.net`)
)

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type textNormalizer struct {
	minTokenLength int
	stopwords      map[string]struct{}
	keep           map[string]struct{}
}

// New builds a Normalizer from cfg, merging the built-in stopword set and
// technical whitelist with any configured extras.
func New(cfg Config) Normalizer {
	n := &textNormalizer{
		minTokenLength: cfg.MinTokenLength,
		stopwords:      make(map[string]struct{}, len(builtinStopwords)+len(cfg.ExtraStopwords)),
		keep:           make(map[string]struct{}, len(builtinKeepTerms)+len(cfg.ExtraKeepTerms)),
	}
	if n.minTokenLength < 1 {
		n.minTokenLength = defaultMinTokenLength
	}

	for _, w := range builtinStopwords {
		n.stopwords[w] = struct{}{}
	}
	for _, w := range cfg.ExtraStopwords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			n.stopwords[w] = struct{}{}
		}
	}
	for _, w := range builtinKeepTerms {
		n.keep[w] = struct{}{}
	}
	for _, w := range cfg.ExtraKeepTerms {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			n.keep[w] = struct{}{}
		}
	}
	return n
}

// Normalize tokenizes the record's role line and raw text together, the role
// often naming the round ("SDE II system design loop") when the body does not.
func (n *textNormalizer) Normalize(rec insight.ExperienceRecord) insight.NormalizedDocument {
	text := rec.RawText
	if rec.Role != "" {
		text = rec.Role + ". " + rec.RawText
	}
	return insight.NormalizedDocument{
		Tokens:  n.Tokenize(text),
		Company: strings.TrimSpace(rec.Company),
		Date:    rec.Date,
		Outcome: insight.ParseOutcome(string(rec.Outcome)),
	}
}

func (n *textNormalizer) NormalizeBatch(recs []insight.ExperienceRecord) []insight.NormalizedDocument {
	docs := make([]insight.NormalizedDocument, len(recs))
	for i, rec := range recs {
		docs[i] = n.Normalize(rec)
	}
	return docs
}

// Tokenize runs the full pipeline:
//  1. Unicode NFKC folding and lowercasing.
//  2. Markup tag, HTML entity, and URL stripping.
//  3. Technical-span protection (c++, c#, node.js, ...).
//  4. Splitting the remainder on non-alphanumeric runes.
//  5. Stopword, whitelist, and minimum-length filtering.
func (n *textNormalizer) Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	cleaned := strings.ToLower(norm.NFKC.String(text))
	cleaned = reMarkupTag.ReplaceAllString(cleaned, " ")
	cleaned = reURL.ReplaceAllString(cleaned, " ")
	cleaned = reEntity.ReplaceAllString(cleaned, " ")

	raw := splitProtected(cleaned)

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, ok := n.keep[tok]; ok {
			tokens = append(tokens, tok)
			continue
		}
		if _, ok := n.stopwords[tok]; ok {
			continue
		}
		if utf8.RuneCountInString(tok) < n.minTokenLength {
			continue
		}
		tokens = append(tokens, tok)
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// NormalizePhrase applies the document pipeline to a taxonomy phrase, so
// "divide and conquer" and the filtered token stream drop the same words.
func (n *textNormalizer) NormalizePhrase(phrase string) []string {
	return n.Tokenize(phrase)
}

// ---------------------------------------------------------------------------
// Raw tokenization
// ---------------------------------------------------------------------------

// splitProtected emits protected technical spans as whole tokens and splits
// everything between them on non-alphanumeric runes.
func splitProtected(text string) []string {
	var tokens []string
	pos := 0
	for _, loc := range reProtected.FindAllStringIndex(text, -1) {
		if loc[0] < pos || !standalone(text, loc[0], loc[1]) {
			continue
		}
		tokens = appendWordTokens(tokens, text[pos:loc[0]])
		tokens = append(tokens, text[loc[0]:loc[1]])
		pos = loc[1]
	}
	return appendWordTokens(tokens, text[pos:])
}

// standalone reports whether the [start,end) span is not embedded in a
// larger alphanumeric run, so "c#" in "abc#" is not protected.
func standalone(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isTokenRune(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isTokenRune(r) {
			return false
		}
	}
	return true
}

// appendWordTokens splits s on non-alphanumeric runes and appends each run.
func appendWordTokens(tokens []string, s string) []string {
	start := -1
	for i, r := range s {
		if isTokenRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Ensure interface compliance at compile time.
var _ Normalizer = (*textNormalizer)(nil)
