package achievability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spigell/scholarpath/internal/scholarship"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		category scholarship.Category
		size     float64
		tier     Tier
		months   int
	}{
		{name: "gpa small", category: scholarship.CategoryAcademic, size: 0.15, tier: Easy, months: 4},
		{name: "gpa boundary", category: scholarship.CategoryAcademic, size: 0.2, tier: Easy, months: 4},
		{name: "gpa medium", category: scholarship.CategoryAcademic, size: 0.4, tier: Moderate, months: 8},
		{name: "gpa large", category: scholarship.CategoryAcademic, size: 0.6, tier: LongTerm, months: 16},
		{name: "act large", category: scholarship.CategoryAcademic, size: 6, tier: LongTerm, months: 12},
		{name: "sat small", category: scholarship.CategoryAcademic, size: 40, tier: Easy, months: 3},
		{name: "sat medium", category: scholarship.CategoryAcademic, size: 120, tier: Moderate, months: 6},
		{name: "sat large", category: scholarship.CategoryAcademic, size: 300, tier: LongTerm, months: 12},
		{name: "leadership count", category: scholarship.CategoryExperience, size: 2, tier: Moderate, months: 6},
		{name: "volunteer 30h", category: scholarship.CategoryExperience, size: 30, tier: Easy, months: 3},
		{name: "volunteer 80h", category: scholarship.CategoryExperience, size: 80, tier: Moderate, months: 6},
		{name: "volunteer 120h", category: scholarship.CategoryExperience, size: 120, tier: LongTerm, months: 8},
		{name: "volunteer capped", category: scholarship.CategoryExperience, size: 400, tier: LongTerm, months: 12},
		{name: "major", category: scholarship.CategoryMajor, size: 1, tier: LongTerm, months: 24},
		{name: "financial", category: scholarship.CategoryFinancial, size: 0, tier: LongTerm, months: 24},
		{name: "unknown category", category: scholarship.Category("OTHER"), size: 1, tier: Moderate, months: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Classify(tt.category, tt.size)
			assert.Equal(t, tt.tier, got.Tier)
			assert.Equal(t, tt.months, got.TimelineMonths)
		})
	}
}

func TestLookupExplicitScale(t *testing.T) {
	// A 5 hour volunteer gap is EASY when the scale is known, even though
	// Classify would read it as a leadership count.
	assert.Equal(t, Easy, Lookup(ScaleVolunteerHours, 5).Tier)
	assert.Equal(t, Moderate, Classify(scholarship.CategoryExperience, 5).Tier)

	assert.Equal(t, Easy, Lookup(ScaleACT, 2).Tier)
	assert.Equal(t, Moderate, Lookup(ScaleACT, 4).Tier)
	assert.Equal(t, fallback, Lookup(Scale("UNKNOWN"), 1))
}

func TestCustomTable(t *testing.T) {
	table := Table{
		ScaleGPA: {{MaxSize: 1, Tier: Easy, Months: 1}},
	}
	assert.Equal(t, Estimate{Tier: Easy, TimelineMonths: 1}, table.Lookup(ScaleGPA, 0.9))
	assert.Equal(t, fallback, table.Lookup(ScaleGPA, 1.5))
}

func TestTierRank(t *testing.T) {
	assert.Less(t, Easy.Rank(), Moderate.Rank())
	assert.Less(t, Moderate.Rank(), LongTerm.Rank())
	for _, tier := range Tiers {
		assert.NotEqual(t, "Unclassified", tier.Label())
		assert.NotEqual(t, "gray", tier.Color())
	}
}

func TestNotActionableDescription(t *testing.T) {
	got := Classify(scholarship.CategoryDemographic, 0)
	assert.Equal(t, notActionable, got.Description)
}

func TestBandEdgeToleratesFloatNoise(t *testing.T) {
	assert.Equal(t, Easy, Lookup(ScaleGPA, 3.5-3.3).Tier)
}
