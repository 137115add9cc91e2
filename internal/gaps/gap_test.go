package gaps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/scholarpath/internal/achievability"
	"github.com/spigell/scholarpath/internal/scholarship"
)

func gpaGap(target, funding float64, ids ...string) Gap {
	return Gap{
		Category:               scholarship.CategoryAcademic,
		Requirement:            RequirementGPA,
		Scale:                  achievability.ScaleGPA,
		CurrentValue:           3.2,
		TargetValue:            target,
		GapSize:                target - 3.2,
		ScholarshipsAffected:   len(ids),
		FundingBlocked:         funding,
		Achievability:          achievability.Moderate,
		AffectedScholarshipIDs: ids,
	}
}

func TestAggregateSumsSameKey(t *testing.T) {
	in := []Gap{
		gpaGap(3.5, 10000, "s1"),
		gpaGap(3.5, 15000, "s2"),
	}

	out := Aggregate(in)

	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].ScholarshipsAffected)
	assert.Equal(t, 25000.0, out[0].FundingBlocked)
	assert.Equal(t, []string{"s1", "s2"}, out[0].AffectedScholarshipIDs)
}

func TestAggregateKeepsDistinctKeys(t *testing.T) {
	volunteer := Gap{
		Category:               scholarship.CategoryExperience,
		Requirement:            RequirementVolunteerHours,
		TargetValue:            100,
		ScholarshipsAffected:   1,
		FundingBlocked:         8000,
		AffectedScholarshipIDs: []string{"s1"},
	}
	in := []Gap{
		gpaGap(3.5, 10000, "s1"),
		gpaGap(3.7, 20000, "s3"),
		volunteer,
		gpaGap(3.5, 5000, "s4"),
		volunteer,
	}

	out := Aggregate(in)

	require.Len(t, out, 3)
	assert.Equal(t, 3.5, out[0].TargetValue)
	assert.Equal(t, 15000.0, out[0].FundingBlocked)
	assert.Equal(t, 3.7, out[1].TargetValue)
	assert.Equal(t, RequirementVolunteerHours, out[2].Requirement)
	assert.Equal(t, 16000.0, out[2].FundingBlocked)
	assert.Equal(t, []string{"s1", "s1"}, out[2].AffectedScholarshipIDs, "duplicate IDs are kept")
	assert.Equal(t, []string{"s1"}, in[0].AffectedScholarshipIDs, "input must not be mutated")
}

func TestPrioritizeTotalOrder(t *testing.T) {
	moderate := gpaGap(3.5, 20000, "a")
	moderate.Achievability = achievability.Moderate
	easy := gpaGap(3.4, 20000, "b")
	easy.Achievability = achievability.Easy
	wide := gpaGap(3.6, 20000, "c", "d")
	wide.Achievability = achievability.LongTerm
	rich := gpaGap(3.9, 50000, "e")
	rich.Achievability = achievability.LongTerm

	out := Prioritize([]Gap{moderate, easy, wide, rich})

	targets := []float64{out[0].TargetValue, out[1].TargetValue, out[2].TargetValue, out[3].TargetValue}
	assert.Equal(t, []float64{3.9, 3.6, 3.4, 3.5}, targets)

	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1], out[i]
		ordered := prev.FundingBlocked > cur.FundingBlocked ||
			(prev.FundingBlocked == cur.FundingBlocked && prev.ScholarshipsAffected > cur.ScholarshipsAffected) ||
			(prev.FundingBlocked == cur.FundingBlocked && prev.ScholarshipsAffected == cur.ScholarshipsAffected &&
				prev.Achievability.Rank() <= cur.Achievability.Rank())
		assert.True(t, ordered, "pair %d out of order", i)
	}
}

func TestCalculateImpactSummaryUnion(t *testing.T) {
	first := gpaGap(3.5, 50000, "s1", "s2", "s3", "s4", "s5")
	first.Achievability = achievability.Easy
	second := gpaGap(3.8, 30000, "s4", "s5", "s6")
	second.Achievability = achievability.LongTerm

	summary := CalculateImpactSummary([]Gap{first, second})

	assert.Equal(t, 6, summary.ScholarshipsUnlockable)
	assert.Equal(t, 2, summary.TotalGaps)
	assert.Equal(t, TierCounts{Easy: 1, LongTerm: 1}, summary.ByAchievability)
}

// Funding of a scholarship blocked by two gaps is counted for each gap while the
// unlockable count deduplicates by ID.
func TestCalculateImpactSummaryCountsSharedFundingPerGap(t *testing.T) {
	gpa := gpaGap(3.5, 10000, "s1")
	volunteer := Gap{
		Category:               scholarship.CategoryExperience,
		Requirement:            RequirementVolunteerHours,
		TargetValue:            100,
		ScholarshipsAffected:   1,
		FundingBlocked:         10000,
		Achievability:          achievability.Moderate,
		AffectedScholarshipIDs: []string{"s1"},
	}

	summary := CalculateImpactSummary([]Gap{gpa, volunteer})

	assert.Equal(t, 1, summary.ScholarshipsUnlockable)
	assert.Equal(t, 20000.0, summary.PotentialFunding)
	assert.Equal(t, 20000.0, summary.AverageAward)
}

func TestCalculateImpactSummaryEmpty(t *testing.T) {
	assert.Equal(t, ImpactSummary{}, CalculateImpactSummary(nil))
}

func TestImpactSentence(t *testing.T) {
	g := gpaGap(3.5, 25000, "s1", "s2")
	got := ImpactSentence(g)
	assert.Equal(t, "Reaching Minimum GPA 3.50 (currently 3.20) would unlock 2 scholarships worth $25,000", got)

	single := gpaGap(3.5, 1234567, "s1")
	assert.Contains(t, ImpactSentence(single), "1 scholarship worth $1,234,567")
}

func TestLongTermOnly(t *testing.T) {
	easy := gpaGap(3.3, 1000, "s1", "s2")
	easy.Achievability = achievability.Easy
	long := gpaGap(3.9, 1000, "s2", "s3")
	long.Achievability = achievability.LongTerm

	assert.Equal(t, []string{"s3"}, LongTermOnly([]Gap{easy, long}))
}
