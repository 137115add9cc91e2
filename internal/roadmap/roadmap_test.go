package roadmap

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/scholarpath/internal/achievability"
	"github.com/spigell/scholarpath/internal/gaps"
	"github.com/spigell/scholarpath/internal/scholarship"
)

var fixedNow = time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func gap(requirement string, category scholarship.Category, tier achievability.Tier, months int, funding float64) gaps.Gap {
	return gaps.Gap{
		Category:               category,
		Requirement:            requirement,
		CurrentValue:           1,
		TargetValue:            3,
		GapSize:                2,
		FundingBlocked:         funding,
		ScholarshipsAffected:   1,
		Achievability:          tier,
		TimelineMonths:         months,
		AffectedScholarshipIDs: []string{"s1"},
	}
}

func TestGenerateBucketsAndSequence(t *testing.T) {
	in := []gaps.Gap{
		gap(gaps.RequirementVolunteerHours, scholarship.CategoryExperience, achievability.LongTerm, 9, 30000),
		gap(gaps.RequirementGPA, scholarship.CategoryAcademic, achievability.Moderate, 8, 50000),
		gap(gaps.RequirementSAT, scholarship.CategoryAcademic, achievability.Easy, 3, 50000),
		gap(gaps.RequirementLeadership, scholarship.CategoryExperience, achievability.Moderate, 6, 10000),
	}

	rm := NewGenerator(clock).Generate(in)

	assert.Len(t, rm.Easy, 1)
	assert.Len(t, rm.Moderate, 2)
	assert.Len(t, rm.LongTerm, 1)
	require.Len(t, rm.RecommendedSequence, 4)

	order := make([]string, 0, 4)
	for _, r := range rm.RecommendedSequence {
		order = append(order, r.Gap.Requirement)
	}
	assert.Equal(t, []string{gaps.RequirementSAT, gaps.RequirementGPA, gaps.RequirementVolunteerHours, gaps.RequirementLeadership}, order)

	assert.Equal(t, 8+9, rm.TotalTimelineMonths)
	assert.Empty(t, rm.Diagnostics)
}

func TestGenerateEmpty(t *testing.T) {
	rm := NewGenerator(clock).Generate(nil)
	assert.Equal(t, 0, rm.TotalTimelineMonths)
	assert.NotNil(t, rm.RecommendedSequence)
	assert.Empty(t, rm.Diagnostics)
}

func TestRecommendPatterns(t *testing.T) {
	tests := []struct {
		requirement string
		category    scholarship.Category
		contains    string
		hasDeps     bool
	}{
		{requirement: gaps.RequirementGPA, category: scholarship.CategoryAcademic, contains: "Raise your GPA"},
		{requirement: gaps.RequirementSAT, category: scholarship.CategoryAcademic, contains: "SAT score"},
		{requirement: gaps.RequirementACT, category: scholarship.CategoryAcademic, contains: "ACT composite"},
		{requirement: gaps.RequirementVolunteerHours, category: scholarship.CategoryExperience, contains: "volunteer hours"},
		{requirement: gaps.RequirementLeadership, category: scholarship.CategoryExperience, contains: "leadership roles", hasDeps: true},
		{requirement: "Essay quality", category: scholarship.CategorySpecial, contains: "Close the essay quality gap"},
	}

	for _, tt := range tests {
		t.Run(tt.requirement, func(t *testing.T) {
			t.Parallel()
			rec := Recommend(gap(tt.requirement, tt.category, achievability.Moderate, 6, 1000), fixedNow)
			assert.Contains(t, rec.Recommendation, tt.contains)
			assert.NotEmpty(t, rec.Steps)
			assert.Equal(t, tt.hasDeps, len(rec.Dependencies) > 0)
			assert.Equal(t, "6 months", rec.Timeline)
			assert.Equal(t, time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC), rec.TargetDate)
		})
	}
}

func TestDiagnostics(t *testing.T) {
	var in []gaps.Gap
	for i := 0; i < 11; i++ {
		tier := achievability.Easy
		if i < 4 {
			tier = achievability.LongTerm
		}
		in = append(in, gap(fmt.Sprintf("Requirement %d", i), scholarship.CategoryAcademic, tier, 3, float64(i)))
	}

	rm := NewGenerator(clock).Generate(in)

	require.Len(t, rm.Diagnostics, 2)
	assert.Equal(t, CodeTooManyLongTermGoals, rm.Diagnostics[0].Code)
	assert.Equal(t, CodeTooManyGaps, rm.Diagnostics[1].Code)
	assert.Equal(t, SeverityWarning, rm.Diagnostics[1].Severity)
	assert.Len(t, rm.RecommendedSequence, 11, "roadmap is still produced")
}

func TestTimelineLabel(t *testing.T) {
	assert.Equal(t, "1 month", TimelineLabel(1))
	assert.Equal(t, "12 months", TimelineLabel(12))
}
