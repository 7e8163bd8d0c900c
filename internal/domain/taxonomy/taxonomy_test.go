package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/interview-intel/pkg/errors"
	"github.com/prepwise/interview-intel/pkg/types/insight"
)

func testDefs() []CategoryDef {
	return []CategoryDef{
		{
			Category:   insight.CategorySystemDesign,
			Multiplier: 1.6,
			Families: []FamilyDef{
				{Canonical: "system design", Terms: []string{"system design", "hld"}},
				{Canonical: "caching", Terms: []string{"cache", "redis"}},
			},
		},
		{
			Category:   insight.CategoryDataStructures,
			Multiplier: 1.5,
			Families: []FamilyDef{
				{Canonical: "tree", Terms: []string{"tree", "bst", "binary search tree"}},
			},
		},
	}
}

func TestNew_BuildsLookup(t *testing.T) {
	t.Parallel()

	tax, err := New(testDefs())
	require.NoError(t, err)

	e, ok := tax.Lookup("bst")
	require.True(t, ok)
	assert.Equal(t, "bst", e.Term)
	assert.Equal(t, "tree", e.Canonical)
	assert.Equal(t, insight.CategoryDataStructures, e.Category)
	assert.Equal(t, 1.5, e.Multiplier)

	assert.Equal(t, 8, tax.Size())
	assert.Equal(t, 3, tax.MaxPhraseWords())
}

func TestNew_EmptyDefs(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTaxonomyMissing))
}

func TestNew_RejectsNonPositiveMultiplier(t *testing.T) {
	t.Parallel()

	defs := testDefs()
	defs[0].Multiplier = 0

	_, err := New(defs)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTaxonomyInvalid))
	assert.Contains(t, err.Error(), "multiplier must be positive")
}

func TestNew_RejectsUnknownCategory(t *testing.T) {
	t.Parallel()

	defs := testDefs()
	defs[0].Category = insight.Category("astrology")

	_, err := New(defs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestNew_RejectsConflictingMultipliers(t *testing.T) {
	t.Parallel()

	defs := append(testDefs(), CategoryDef{
		Category:   insight.CategorySystemDesign,
		Multiplier: 2.0,
		Families: []FamilyDef{
			{Canonical: "sharding", Terms: []string{"sharding"}},
		},
	})

	_, err := New(defs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicting multipliers")
}

func TestNew_MergesRepeatedCategory(t *testing.T) {
	t.Parallel()

	defs := append(testDefs(), CategoryDef{
		Category:   insight.CategorySystemDesign,
		Multiplier: 1.6,
		Families: []FamilyDef{
			{Canonical: "sharding", Terms: []string{"sharding", "partitioning"}},
		},
	})

	tax, err := New(defs)
	require.NoError(t, err)

	e, ok := tax.Lookup("partitioning")
	require.True(t, ok)
	assert.Equal(t, "sharding", e.Canonical)
	assert.Len(t, tax.FamiliesIn(insight.CategorySystemDesign), 3)
}

func TestNew_RejectsDuplicateTermWithinCategory(t *testing.T) {
	t.Parallel()

	defs := []CategoryDef{
		{
			Category:   insight.CategoryAlgorithms,
			Multiplier: 1.4,
			Families: []FamilyDef{
				{Canonical: "sorting", Terms: []string{"sort", "merge sort"}},
				{Canonical: "searching", Terms: []string{"sort", "binary search"}},
			},
		},
	}

	_, err := New(defs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `term "sort" belongs to both`)
}

func TestNew_RejectsDuplicateFamily(t *testing.T) {
	t.Parallel()

	defs := []CategoryDef{
		{
			Category:   insight.CategoryAlgorithms,
			Multiplier: 1.4,
			Families: []FamilyDef{
				{Canonical: "sorting", Terms: []string{"sort"}},
				{Canonical: "Sorting", Terms: []string{"quick sort"}},
			},
		},
	}

	_, err := New(defs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared twice")
}

func TestNew_CrossCategoryTermTakesMaxMultiplier(t *testing.T) {
	t.Parallel()

	defs := []CategoryDef{
		{
			Category:   insight.CategoryTechnologies,
			Multiplier: 1.1,
			Families: []FamilyDef{
				{Canonical: "databases", Terms: []string{"mysql", "postgresql"}},
			},
		},
		{
			Category:   insight.CategorySystemDesign,
			Multiplier: 1.6,
			Families: []FamilyDef{
				{Canonical: "database design", Terms: []string{"mysql", "sharding"}},
			},
		},
	}

	tax, err := New(defs)
	require.NoError(t, err)

	e, ok := tax.Lookup("mysql")
	require.True(t, ok)
	assert.Equal(t, insight.CategorySystemDesign, e.Category)
	assert.Equal(t, "database design", e.Canonical)
	assert.Equal(t, 1.6, e.Multiplier)

	// The single-category term is untouched by resolution.
	e, ok = tax.Lookup("postgresql")
	require.True(t, ok)
	assert.Equal(t, insight.CategoryTechnologies, e.Category)
}

func TestNew_CanonicalAlwaysMatchable(t *testing.T) {
	t.Parallel()

	defs := []CategoryDef{
		{
			Category:   insight.CategoryConcepts,
			Multiplier: 1.2,
			Families: []FamilyDef{
				{Canonical: "concurrency", Terms: []string{"mutex", "semaphore"}},
			},
		},
	}

	tax, err := New(defs)
	require.NoError(t, err)

	e, ok := tax.Lookup("concurrency")
	require.True(t, ok)
	assert.Equal(t, "concurrency", e.Canonical)
}

func TestLookup_NormalizesInput(t *testing.T) {
	t.Parallel()

	tax, err := New(testDefs())
	require.NoError(t, err)

	e, ok := tax.Lookup("  Binary   SEARCH  Tree ")
	require.True(t, ok)
	assert.Equal(t, "binary search tree", e.Term)
	assert.Equal(t, "tree", e.Canonical)

	_, ok = tax.Lookup("quantum annealing")
	assert.False(t, ok)
}

func TestMultiplierFor(t *testing.T) {
	t.Parallel()

	tax, err := New(testDefs())
	require.NoError(t, err)

	assert.Equal(t, 1.6, tax.MultiplierFor(insight.CategorySystemDesign))
	assert.Equal(t, 1.0, tax.MultiplierFor(insight.CategoryOther))
	assert.Equal(t, 1.0, tax.MultiplierFor(insight.CategoryBehavioral))
}

func TestAccessors_ReturnCopies(t *testing.T) {
	t.Parallel()

	tax, err := New(testDefs())
	require.NoError(t, err)

	terms := tax.Terms()
	require.NotEmpty(t, terms)
	terms[0] = "mutated"

	fresh := tax.Terms()
	assert.NotEqual(t, "mutated", fresh[0])
	assert.IsIncreasing(t, fresh)

	cats := tax.Categories()
	require.Len(t, cats, 2)
	assert.Equal(t, insight.CategoryDataStructures, cats[0])
	assert.Equal(t, insight.CategorySystemDesign, cats[1])
}

func TestFamiliesIn_SortedByCanonical(t *testing.T) {
	t.Parallel()

	tax, err := New(testDefs())
	require.NoError(t, err)

	fams := tax.FamiliesIn(insight.CategorySystemDesign)
	require.Len(t, fams, 2)
	assert.Equal(t, "caching", fams[0].Canonical)
	assert.Equal(t, "system design", fams[1].Canonical)
	assert.Contains(t, fams[0].Terms, "redis")

	assert.Empty(t, tax.FamiliesIn(insight.CategoryBehavioral))
}

func TestNormalizeTerm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"System Design", "system design"},
		{"  load   balancer  ", "load balancer"},
		{"BST", "bst"},
		{"\tdynamic\nprogramming", "dynamic programming"},
		{"   ", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeTerm(tc.in), "input %q", tc.in)
	}
}
