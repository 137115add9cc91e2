// Package strength computes the 0-100 profile strength score.
package strength

import (
	"math"

	"github.com/spigell/scholarpath/internal/scholarship"
)

const (
	weightAcademic     = 0.35
	weightExperience   = 0.25
	weightLeadership   = 0.25
	weightDemographics = 0.15
)

// Breakdown holds the four rounded sub-scores.
type Breakdown struct {
	Academic     int `json:"academic"`
	Experience   int `json:"experience"`
	Leadership   int `json:"leadership"`
	Demographics int `json:"demographics"`
}

// Score is the completeness-adjusted overall strength and its breakdown.
type Score struct {
	Overall   int       `json:"overall"`
	Breakdown Breakdown `json:"breakdown"`
}

// AcademicParts exposes the unrounded academic components.
type AcademicParts struct {
	GPA       float64
	TestScore float64
	ClassRank float64
	Awards    float64
}

func (a AcademicParts) Total() float64 {
	return math.Min(100, a.GPA+a.TestScore+a.ClassRank+a.Awards)
}

// Calculate scores the profile. Missing fields contribute zero.
func Calculate(p *scholarship.Profile) Score {
	if p == nil {
		return Score{}
	}

	academic := Academic(p).Total()
	experience := Experience(p)
	leadership := Leadership(p)
	demographics := Demographics(p)

	weighted := academic*weightAcademic +
		experience*weightExperience +
		leadership*weightLeadership +
		demographics*weightDemographics
	completion := clamp(p.CompletionPercentage, 0, 100) / 100

	return Score{
		Overall: int(math.Round(clamp(weighted*completion, 0, 100))),
		Breakdown: Breakdown{
			Academic:     int(math.Round(academic)),
			Experience:   int(math.Round(experience)),
			Leadership:   int(math.Round(leadership)),
			Demographics: int(math.Round(demographics)),
		},
	}
}

// Academic splits the academic score into its components.
// The higher of the normalized SAT and ACT counts.
func Academic(p *scholarship.Profile) AcademicParts {
	var parts AcademicParts

	parts.GPA = math.Min(40, p.NormalizedGPA()/scholarship.DefaultGPAScale*40)

	sat := 0.0
	if p.SAT > 0 {
		sat = clamp(float64(p.SAT-400)/1200*30, 0, 30)
	}
	act := 0.0
	if p.ACT > 0 {
		act = clamp(float64(p.ACT-1)/35*30, 0, 30)
	}
	parts.TestScore = math.Max(sat, act)

	if p.ClassRank > 0 && p.ClassSize > 0 {
		parts.ClassRank = clamp((1-float64(p.ClassRank)/float64(p.ClassSize))*20, 0, 20)
	}

	parts.Awards = float64(min(5, len(p.Awards)) * 2)

	return parts
}

func Experience(p *scholarship.Profile) float64 {
	extracurricular := math.Min(40, float64(len(p.Extracurriculars)*8))
	work := math.Min(30, float64(len(p.WorkExperience)*15))
	return math.Min(100, extracurricular+volunteerScore(p.VolunteerHours)+work)
}

func volunteerScore(hours int) float64 {
	switch {
	case hours <= 0:
		return 0
	case hours < 50:
		return float64(hours) / 50 * 10
	case hours < 100:
		return 10
	case hours < 200:
		return 20
	default:
		return 30
	}
}

func Leadership(p *scholarship.Profile) float64 {
	switch n := len(p.LeadershipRoles); {
	case n <= 0:
		return 0
	case n == 1:
		return 50
	case n == 2:
		return 75
	default:
		return 100
	}
}

func Demographics(p *scholarship.Profile) float64 {
	score := 0.0
	if p.FirstGeneration {
		score += 40
	}
	switch p.FinancialNeed {
	case scholarship.NeedModerate:
		score += 10
	case scholarship.NeedHigh:
		score += 20
	case scholarship.NeedVeryHigh:
		score += 30
	}
	if p.HasMilitaryAffiliation() {
		score += 15
	}
	if p.Disability {
		score += 15
	}
	return math.Min(100, score)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
