// Package matching scores how well a profile fits a scholarship and how worthwhile
// applying to it is.
package matching

import (
	"math"
	"strings"

	"github.com/spigell/scholarpath/internal/eligibility"
	"github.com/spigell/scholarpath/internal/scholarship"
)

// Dimension weights sum to 1.0.
const (
	WeightAcademic    = 0.30
	WeightMajor       = 0.20
	WeightDemographic = 0.15
	WeightExperience  = 0.15
	WeightFinancial   = 0.10
	WeightSpecial     = 0.10
)

const (
	// neutralFit is the score of a dimension the scholarship sets no requirement on.
	neutralFit            = 75.0
	relatedMajorFit       = 60.0
	defaultAcceptanceRate = 0.10
	competitionPenalty    = 0.6
	ineligiblePenalty     = 0.3
)

// SuccessTier buckets the estimated success probability.
type SuccessTier string

const (
	StrongMatch      SuccessTier = "STRONG_MATCH"
	CompetitiveMatch SuccessTier = "COMPETITIVE_MATCH"
	Reach            SuccessTier = "REACH"
	LongShot         SuccessTier = "LONG_SHOT"
)

func (t SuccessTier) Label() string {
	switch t {
	case StrongMatch:
		return "Strong match"
	case CompetitiveMatch:
		return "Competitive"
	case Reach:
		return "Reach"
	case LongShot:
		return "Long shot"
	}
	return "Unknown"
}

// EffortLevel buckets the application workload.
type EffortLevel string

const (
	EffortLow    EffortLevel = "LOW"
	EffortMedium EffortLevel = "MEDIUM"
	EffortHigh   EffortLevel = "HIGH"
)

func (l EffortLevel) divisor() float64 {
	switch l {
	case EffortLow:
		return 1
	case EffortMedium:
		return 1.5
	case EffortHigh:
		return 2.5
	}
	return 1.5
}

// ValueTier buckets the strategic value score.
type ValueTier string

const (
	BestBet     ValueTier = "BEST_BET"
	HighValue   ValueTier = "HIGH_VALUE"
	MediumValue ValueTier = "MEDIUM_VALUE"
	LowValue    ValueTier = "LOW_VALUE"
)

func (t ValueTier) Label() string {
	switch t {
	case BestBet:
		return "Best bet"
	case HighValue:
		return "High value"
	case MediumValue:
		return "Medium value"
	case LowValue:
		return "Low value"
	}
	return "Unknown"
}

// Dimensions holds the six 0-100 fit scores.
type Dimensions struct {
	Academic    float64 `json:"academic"`
	Major       float64 `json:"major"`
	Demographic float64 `json:"demographic"`
	Experience  float64 `json:"experience"`
	Financial   float64 `json:"financial"`
	Special     float64 `json:"special"`
}

func (d Dimensions) weighted() float64 {
	return d.Academic*WeightAcademic +
		d.Major*WeightMajor +
		d.Demographic*WeightDemographic +
		d.Experience*WeightExperience +
		d.Financial*WeightFinancial +
		d.Special*WeightSpecial
}

// Effort is the application workload derived from stated requirements.
type Effort struct {
	Level           EffortLevel `json:"level"`
	Points          int         `json:"points"`
	Essays          int         `json:"essays"`
	Recommendations int         `json:"recommendations"`
	Documents       int         `json:"documents"`
}

// Score is the full match assessment of one scholarship. Every field is
// recomputed on each call.
type Score struct {
	ScholarshipID      string      `json:"scholarshipId"`
	Overall            int         `json:"overall"`
	Dimensions         Dimensions  `json:"dimensions"`
	Eligible           bool        `json:"eligible"`
	CompetitionFactor  float64     `json:"competitionFactor"`
	SuccessProbability float64     `json:"successProbability"`
	SuccessTier        SuccessTier `json:"successTier"`
	Effort             Effort      `json:"effort"`
	StrategicValue     float64     `json:"strategicValue"`
	StrategicValueTier ValueTier   `json:"strategicValueTier"`
}

// Scorer computes match scores on top of an eligibility checker.
type Scorer struct {
	checker eligibility.Checker
}

func New(checker eligibility.Checker) *Scorer {
	if checker == nil {
		checker = eligibility.New()
	}
	return &Scorer{checker: checker}
}

// Score evaluates one scholarship against the profile.
func (s *Scorer) Score(p *scholarship.Profile, sch *scholarship.Scholarship) (*Score, error) {
	res, err := s.checker.Evaluate(p, sch, eligibility.Options{EarlyExit: false})
	if err != nil {
		return nil, err
	}

	dims := Dimensions{
		Academic:    academicFit(p, sch.Criteria.Academic),
		Major:       majorFit(p, sch.Criteria.Major),
		Demographic: proportionFit(demographicCount(sch.Criteria.Demographic), failures(res, scholarship.CategoryDemographic)),
		Experience:  experienceFit(p, sch.Criteria.Experience),
		Financial:   proportionFit(financialCount(sch.Criteria.Financial), failures(res, scholarship.CategoryFinancial)),
		Special:     proportionFit(specialCount(sch.Criteria.Special), failures(res, scholarship.CategorySpecial)),
	}
	overall := math.Round(clamp(dims.weighted(), 0, 100))

	competition := CompetitionFactor(sch)
	probability := overall * (1 - competitionPenalty*competition)
	if !res.Eligible {
		probability *= ineligiblePenalty
	}
	probability = round(clamp(probability, 0, 100), 1)

	effort := EffortFor(sch.Requirements)
	value := StrategicValue(sch.Amount, probability, effort.Level)

	return &Score{
		ScholarshipID:      sch.ID,
		Overall:            int(overall),
		Dimensions:         dims,
		Eligible:           res.Eligible,
		CompetitionFactor:  round(competition, 3),
		SuccessProbability: probability,
		SuccessTier:        SuccessTierFor(probability),
		Effort:             effort,
		StrategicValue:     value,
		StrategicValueTier: ValueTierFor(value),
	}, nil
}

// AcceptanceRate prefers the published rate, then awards over applicants, then a default.
func AcceptanceRate(sch *scholarship.Scholarship) float64 {
	if sch.AcceptanceRate > 0 && sch.AcceptanceRate <= 1 {
		return sch.AcceptanceRate
	}
	if sch.AwardsCount > 0 && sch.ApplicantEst > 0 {
		return math.Min(1, float64(sch.AwardsCount)/float64(sch.ApplicantEst))
	}
	return defaultAcceptanceRate
}

// CompetitionFactor is 0 for an uncontested award and approaches 1 as it gets selective.
func CompetitionFactor(sch *scholarship.Scholarship) float64 {
	return clamp(1-AcceptanceRate(sch), 0, 1)
}

func SuccessTierFor(probability float64) SuccessTier {
	switch {
	case probability >= 70:
		return StrongMatch
	case probability >= 50:
		return CompetitiveMatch
	case probability >= 30:
		return Reach
	default:
		return LongShot
	}
}

// EffortFor weighs essays 3, recommendations 2 and documents 1.
func EffortFor(r scholarship.ApplicationRequirements) Effort {
	e := Effort{
		Essays:          r.Essays,
		Recommendations: r.Recommendations,
		Documents:       len(r.Documents),
	}
	e.Points = e.Essays*3 + e.Recommendations*2 + e.Documents
	switch {
	case e.Points <= 3:
		e.Level = EffortLow
	case e.Points <= 8:
		e.Level = EffortMedium
	default:
		e.Level = EffortHigh
	}
	return e
}

// StrategicValue is an ROI proxy on a 0-10 scale.
func StrategicValue(amount, probability float64, level EffortLevel) float64 {
	v := (amount / 1000) * (probability / 100) / level.divisor()
	return round(clamp(v, 0, 10), 2)
}

func ValueTierFor(value float64) ValueTier {
	switch {
	case value >= 5:
		return BestBet
	case value >= 3:
		return HighValue
	case value >= 1.5:
		return MediumValue
	default:
		return LowValue
	}
}

func academicFit(p *scholarship.Profile, c *scholarship.AcademicCriteria) float64 {
	var parts []float64
	if c.MinGPA > 0 {
		parts = append(parts, ratio(p.NormalizedGPA(), c.MinGPA))
	}
	if c.MinSAT > 0 || c.MinACT > 0 {
		test := 0.0
		if c.MinSAT > 0 {
			test = math.Max(test, ratio(float64(p.SAT), float64(c.MinSAT)))
		}
		if c.MinACT > 0 {
			test = math.Max(test, ratio(float64(p.ACT), float64(c.MinACT)))
		}
		parts = append(parts, test)
	}
	if c.MaxClassRankPercent > 0 {
		rank := 0.0
		if p.ClassRank > 0 && p.ClassSize > 0 {
			pct := float64(p.ClassRank) / float64(p.ClassSize) * 100
			rank = ratio(c.MaxClassRankPercent, pct)
		}
		parts = append(parts, rank)
	}
	if len(c.GraduationYears) > 0 {
		grad := 0.0
		for _, y := range c.GraduationYears {
			if y == p.GraduationYear {
				grad = 100
				break
			}
		}
		parts = append(parts, grad)
	}
	return average(parts)
}

func majorFit(p *scholarship.Profile, c *scholarship.MajorCriteria) float64 {
	if len(c.Majors) == 0 && len(c.Fields) == 0 {
		return neutralFit
	}
	major := strings.ToLower(strings.TrimSpace(p.Major))
	field := strings.ToLower(strings.TrimSpace(p.FieldOfStudy))
	for _, m := range c.Majors {
		if major != "" && strings.EqualFold(strings.TrimSpace(m), major) {
			return 100
		}
	}
	for _, f := range c.Fields {
		if field != "" && strings.EqualFold(strings.TrimSpace(f), field) {
			return relatedMajorFit
		}
	}
	for _, m := range c.Majors {
		m = strings.ToLower(strings.TrimSpace(m))
		if major != "" && m != "" && (strings.Contains(major, m) || strings.Contains(m, major)) {
			return relatedMajorFit
		}
	}
	return 0
}

func experienceFit(p *scholarship.Profile, c *scholarship.ExperienceCriteria) float64 {
	var parts []float64
	if c.MinVolunteerHours > 0 {
		parts = append(parts, ratio(float64(p.VolunteerHours), float64(c.MinVolunteerHours)))
	}
	if c.MinLeadershipRoles > 0 {
		parts = append(parts, ratio(float64(len(p.LeadershipRoles)), float64(c.MinLeadershipRoles)))
	}
	if c.MinExtracurriculars > 0 {
		parts = append(parts, ratio(float64(len(p.Extracurriculars)), float64(c.MinExtracurriculars)))
	}
	if c.MinWorkExperience > 0 {
		parts = append(parts, ratio(float64(len(p.WorkExperience)), float64(c.MinWorkExperience)))
	}
	return average(parts)
}

func proportionFit(required, failed int) float64 {
	if required == 0 {
		return neutralFit
	}
	met := required - failed
	if met < 0 {
		met = 0
	}
	return float64(met) / float64(required) * 100
}

func failures(res *eligibility.Result, dim scholarship.Category) int {
	n := 0
	for _, fc := range res.FailedCriteria {
		if fc.Dimension == dim {
			n++
		}
	}
	return n
}

func demographicCount(c *scholarship.DemographicCriteria) int {
	return countNonEmpty(len(c.Genders), len(c.Ethnicities), len(c.States), len(c.Cities), len(c.ZipCodes), len(c.Citizenship))
}

func financialCount(c *scholarship.FinancialCriteria) int {
	n := countNonEmpty(len(c.NeedLevels))
	if c.RequirePell {
		n++
	}
	if c.MaxEFC > 0 {
		n++
	}
	return n
}

func specialCount(c *scholarship.SpecialCriteria) int {
	n := 0
	for _, required := range []bool{c.FirstGeneration, c.Military, c.Disability} {
		if required {
			n++
		}
	}
	return n
}

func countNonEmpty(lengths ...int) int {
	n := 0
	for _, l := range lengths {
		if l > 0 {
			n++
		}
	}
	return n
}

func ratio(actual, required float64) float64 {
	if required <= 0 {
		return 100
	}
	return clamp(actual/required*100, 0, 100)
}

func average(parts []float64) float64 {
	if len(parts) == 0 {
		return neutralFit
	}
	sum := 0.0
	for _, p := range parts {
		sum += p
	}
	return sum / float64(len(parts))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
