package gaps

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/scholarpath/internal/achievability"
	"github.com/spigell/scholarpath/internal/eligibility"
	"github.com/spigell/scholarpath/internal/scholarship"
)

func analyzerProfile() *scholarship.Profile {
	return &scholarship.Profile{
		StudentID:            "student-1",
		GPA:                  3.3,
		SAT:                  1250,
		State:                "TX",
		Major:                "Biology",
		VolunteerHours:       20,
		CompletionPercentage: 90,
	}
}

func award(id string, amount float64, mutate func(c *scholarship.EligibilityCriteria)) *scholarship.Scholarship {
	c := scholarship.OpenCriteria()
	if mutate != nil {
		mutate(c)
	}
	return &scholarship.Scholarship{ID: id, Name: id, Amount: amount, Criteria: c}
}

func TestFindReachScholarships(t *testing.T) {
	catalog := scholarship.NewCatalog(
		award("small", 1000, func(c *scholarship.EligibilityCriteria) { c.Academic.MinGPA = 3.5 }),
		award("eligible", 10000, nil),
		award("gpa", 20000, func(c *scholarship.EligibilityCriteria) { c.Academic.MinGPA = 3.5 }),
		award("demographic", 30000, func(c *scholarship.EligibilityCriteria) {
			c.Academic.MinGPA = 3.5
			c.Demographic.States = []string{"CA"}
		}),
		award("major", 8000, func(c *scholarship.EligibilityCriteria) { c.Major.Majors = []string{"Nursing"} }),
	)

	reach, err := NewAnalyzer(eligibility.New(), Config{}).FindReachScholarships(analyzerProfile(), catalog)
	require.NoError(t, err)

	ids := make([]string, 0, len(reach))
	for _, r := range reach {
		ids = append(ids, r.Scholarship.ID)
	}
	assert.Equal(t, []string{"gpa", "major"}, ids)
}

func TestFindReachScholarshipsCapsCandidates(t *testing.T) {
	items := make([]*scholarship.Scholarship, 0, 10)
	for i := 0; i < 10; i++ {
		items = append(items, award(fmt.Sprintf("s%02d", i), float64(5000+i*1000), func(c *scholarship.EligibilityCriteria) {
			c.Academic.MinGPA = 3.9
		}))
	}

	a := NewAnalyzer(eligibility.New(), Config{MaxCandidates: 3})
	reach, err := a.FindReachScholarships(analyzerProfile(), scholarship.NewCatalog(items...))
	require.NoError(t, err)

	require.Len(t, reach, 3)
	assert.Equal(t, "s09", reach[0].Scholarship.ID)
	assert.Equal(t, "s07", reach[2].Scholarship.ID)
}

func TestCompareProfileToRequirementsDropsUnquantifiable(t *testing.T) {
	s := award("mixed", 12000, func(c *scholarship.EligibilityCriteria) {
		c.Academic.MinGPA = 3.5
		c.Academic.MinSAT = 1300
		c.Major.Majors = []string{"Nursing"}
		c.Experience.MinVolunteerHours = 150
		c.Special.FirstGeneration = true
	})
	a := NewAnalyzer(eligibility.New(), Config{})
	reach, err := a.FindReachScholarships(analyzerProfile(), scholarship.NewCatalog(s))
	require.NoError(t, err)
	require.Len(t, reach, 1)

	gaps := a.CompareProfileToRequirements(reach[0])

	require.Len(t, gaps, 3)
	assert.Equal(t, RequirementGPA, gaps[0].Requirement)
	assert.InDelta(t, 0.2, gaps[0].GapSize, 1e-9)
	assert.Equal(t, achievability.Easy, gaps[0].Achievability)
	assert.Equal(t, 4, gaps[0].TimelineMonths)

	assert.Equal(t, RequirementSAT, gaps[1].Requirement)
	assert.Equal(t, 50.0, gaps[1].GapSize)
	assert.Equal(t, achievability.Easy, gaps[1].Achievability)

	assert.Equal(t, RequirementVolunteerHours, gaps[2].Requirement)
	assert.Equal(t, 130.0, gaps[2].GapSize)
	assert.Equal(t, achievability.LongTerm, gaps[2].Achievability)
	assert.Equal(t, 9, gaps[2].TimelineMonths)

	for _, g := range gaps {
		assert.Equal(t, []string{"mixed"}, g.AffectedScholarshipIDs)
		assert.Equal(t, 12000.0, g.FundingBlocked)
		assert.Equal(t, 1, g.ScholarshipsAffected)
		assert.NotEmpty(t, g.Impact)
	}
}

func TestAnalyzeAggregatesAcrossScholarships(t *testing.T) {
	catalog := scholarship.NewCatalog(
		award("a", 10000, func(c *scholarship.EligibilityCriteria) { c.Academic.MinGPA = 3.5 }),
		award("b", 15000, func(c *scholarship.EligibilityCriteria) { c.Academic.MinGPA = 3.5 }),
		award("c", 40000, func(c *scholarship.EligibilityCriteria) { c.Experience.MinLeadershipRoles = 2 }),
	)

	gaps, err := NewAnalyzer(nil, Config{}).Analyze(analyzerProfile(), catalog)
	require.NoError(t, err)

	require.Len(t, gaps, 2)
	assert.Equal(t, RequirementLeadership, gaps[0].Requirement)
	assert.Equal(t, achievability.Moderate, gaps[0].Achievability)
	assert.Equal(t, RequirementGPA, gaps[1].Requirement)
	assert.Equal(t, 2, gaps[1].ScholarshipsAffected)
	assert.Equal(t, 25000.0, gaps[1].FundingBlocked)
	assert.Equal(t, []string{"b", "a"}, gaps[1].AffectedScholarshipIDs)
	assert.Contains(t, gaps[1].Impact, "2 scholarships worth $25,000")

	for _, g := range gaps {
		assert.NotEmpty(t, g.AffectedScholarshipIDs)
		assert.Contains(t, achievability.Tiers, g.Achievability)
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	catalog := scholarship.NewCatalog(
		award("a", 10000, func(c *scholarship.EligibilityCriteria) { c.Academic.MinGPA = 3.7 }),
		award("b", 9000, func(c *scholarship.EligibilityCriteria) { c.Experience.MinVolunteerHours = 60 }),
	)
	a := NewAnalyzer(eligibility.New(), Config{})

	first, err := a.Analyze(analyzerProfile(), catalog)
	require.NoError(t, err)
	second, err := a.Analyze(analyzerProfile(), catalog)
	require.NoError(t, err)

	assert.True(t, reflect.DeepEqual(first, second))
}

func TestAnalyzeValidationError(t *testing.T) {
	broken := &scholarship.Scholarship{ID: "broken", Amount: 9000}
	_, err := NewAnalyzer(nil, Config{}).Analyze(analyzerProfile(), scholarship.NewCatalog(broken))
	assert.ErrorIs(t, err, scholarship.ErrValidation)
}

func TestAnalyzeGPAJustBelowMinimum(t *testing.T) {
	p := analyzerProfile()
	p.GPA, p.GPAScale = 4.12, 5
	catalog := scholarship.NewCatalog(award("merit", 10000, func(c *scholarship.EligibilityCriteria) { c.Academic.MinGPA = 3.3 }))

	found, err := NewAnalyzer(nil, Config{}).Analyze(p, catalog)
	require.NoError(t, err)

	require.Len(t, found, 1)
	g := found[0]
	assert.Equal(t, RequirementGPA, g.Requirement)
	assert.InDelta(t, 0.01, g.GapSize, 1e-9)
	assert.InDelta(t, 3.29, g.CurrentValue, 1e-9)
	assert.InDelta(t, 3.3, g.TargetValue, 1e-9)
	assert.Equal(t, achievability.Easy, g.Achievability)
	assert.Equal(t, []string{"merit"}, g.AffectedScholarshipIDs)
}

// Gaps are classified on the scale of the failed criterion, not a scale
// guessed from the category and size.
func TestAnalyzeClassifiesOnCriterionScale(t *testing.T) {
	catalog := scholarship.NewCatalog(
		award("service", 9000, func(c *scholarship.EligibilityCriteria) { c.Experience.MinVolunteerHours = 28 }),
		award("captain", 8000, func(c *scholarship.EligibilityCriteria) { c.Experience.MinLeadershipRoles = 1 }),
	)

	found, err := NewAnalyzer(nil, Config{}).Analyze(analyzerProfile(), catalog)
	require.NoError(t, err)
	require.Len(t, found, 2)

	byRequirement := map[string]Gap{}
	for _, g := range found {
		byRequirement[g.Requirement] = g
	}

	hours := byRequirement[RequirementVolunteerHours]
	assert.Equal(t, 8.0, hours.GapSize)
	assert.Equal(t, achievability.ScaleVolunteerHours, hours.Scale)
	assert.Equal(t, achievability.Easy, hours.Achievability)
	assert.Equal(t, 3, hours.TimelineMonths)

	// Size alone would read 8 as leadership roles.
	inferred := achievability.Classify(scholarship.CategoryExperience, 8)
	assert.Equal(t, achievability.Moderate, inferred.Tier)
	assert.Equal(t, 6, inferred.TimelineMonths)

	roles := byRequirement[RequirementLeadership]
	assert.Equal(t, 1.0, roles.GapSize)
	assert.Equal(t, achievability.Moderate, roles.Achievability)
	assert.Equal(t, 6, roles.TimelineMonths)
}
