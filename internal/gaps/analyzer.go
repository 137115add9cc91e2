package gaps

import (
	"math"

	"github.com/spigell/scholarpath/internal/achievability"
	"github.com/spigell/scholarpath/internal/eligibility"
	"github.com/spigell/scholarpath/internal/scholarship"
)

const (
	DefaultHighValueThreshold = 5000.0
	DefaultMaxCandidates      = 200
)

// Config tunes the reach search.
type Config struct {
	HighValueThreshold float64
	MaxCandidates      int
	Table              achievability.Table
}

func (c Config) withDefaults() Config {
	if c.HighValueThreshold <= 0 {
		c.HighValueThreshold = DefaultHighValueThreshold
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = DefaultMaxCandidates
	}
	if c.Table == nil {
		c.Table = achievability.DefaultTable
	}
	return c
}

// Reach is a high-value scholarship with its full failure set.
type Reach struct {
	Scholarship *scholarship.Scholarship
	Result      *eligibility.Result
}

// Analyzer finds gaps using an injected eligibility checker.
type Analyzer struct {
	checker eligibility.Checker
	cfg     Config
}

func NewAnalyzer(checker eligibility.Checker, cfg Config) *Analyzer {
	if checker == nil {
		checker = eligibility.New()
	}
	return &Analyzer{checker: checker, cfg: cfg.withDefaults()}
}

// FindReachScholarships keeps the top high-value scholarships that fail on at
// least one actionable criterion and on no demographic one.
func (a *Analyzer) FindReachScholarships(p *scholarship.Profile, c *scholarship.Catalog) ([]Reach, error) {
	candidates := c.Filter(func(s *scholarship.Scholarship) bool {
		return s.Amount >= a.cfg.HighValueThreshold
	}).SortedByAmount()
	if len(candidates) > a.cfg.MaxCandidates {
		candidates = candidates[:a.cfg.MaxCandidates]
	}

	var reach []Reach
	for _, s := range candidates {
		res, err := a.checker.Evaluate(p, s, eligibility.Options{EarlyExit: false})
		if err != nil {
			return nil, err
		}
		if res.Eligible || res.HasFailureIn(scholarship.CategoryDemographic) {
			continue
		}
		reach = append(reach, Reach{Scholarship: s, Result: res})
	}
	return reach, nil
}

// CompareProfileToRequirements converts the quantifiable failures of one reach
// scholarship into gaps. Failures that cannot be sized are skipped.
func (a *Analyzer) CompareProfileToRequirements(r Reach) []Gap {
	var out []Gap
	for _, fc := range r.Result.FailedCriteria {
		g := a.gapFor(fc)
		if g == nil {
			continue
		}
		a.CalculateGapImpact(g, []*scholarship.Scholarship{r.Scholarship})
		out = append(out, *g)
	}
	return out
}

// CalculateGapImpact fills counts, funding and the impact sentence from the
// scholarships the gap blocks.
func (a *Analyzer) CalculateGapImpact(g *Gap, affected []*scholarship.Scholarship) {
	g.ScholarshipsAffected = len(affected)
	g.FundingBlocked = 0
	g.AffectedScholarshipIDs = make([]string, 0, len(affected))
	for _, s := range affected {
		g.FundingBlocked += s.Amount
		g.AffectedScholarshipIDs = append(g.AffectedScholarshipIDs, s.ID)
	}
	g.Impact = ImpactSentence(*g)
}

// Analyze runs the whole pipeline and returns prioritized, aggregated gaps.
func (a *Analyzer) Analyze(p *scholarship.Profile, c *scholarship.Catalog) ([]Gap, error) {
	reach, err := a.FindReachScholarships(p, c)
	if err != nil {
		return nil, err
	}

	var raw []Gap
	for _, r := range reach {
		raw = append(raw, a.CompareProfileToRequirements(r)...)
	}

	merged := Aggregate(raw)
	for i := range merged {
		merged[i].Impact = ImpactSentence(merged[i])
	}
	return Prioritize(merged), nil
}

func (a *Analyzer) gapFor(fc eligibility.FailedCriterion) *Gap {
	if !fc.Numeric {
		return nil
	}

	g := &Gap{
		Category:     fc.Dimension,
		Field:        fc.Criterion,
		CurrentValue: fc.ActualValue,
		TargetValue:  fc.RequiredValue,
	}
	switch fc.Criterion {
	case eligibility.CriterionMinGPA:
		g.Requirement = RequirementGPA
		g.Scale = achievability.ScaleGPA
		g.CurrentValue = floorTo(fc.ActualValue, 2)
	case eligibility.CriterionMinSAT:
		g.Requirement = RequirementSAT
		g.Scale = achievability.ScaleSAT
	case eligibility.CriterionMinACT:
		g.Requirement = RequirementACT
		g.Scale = achievability.ScaleACT
	case eligibility.CriterionVolunteerHours:
		g.Requirement = RequirementVolunteerHours
		g.Scale = achievability.ScaleVolunteerHours
	case eligibility.CriterionLeadershipRoles:
		g.Requirement = RequirementLeadership
		g.Scale = achievability.ScaleLeadership
	default:
		return nil
	}

	// Sized from the raw value so a failed criterion never rounds to zero.
	g.GapSize = ceilTo(fc.RequiredValue-fc.ActualValue, 2)
	if g.GapSize <= 0 {
		return nil
	}

	est := a.cfg.Table.Lookup(g.Scale, g.GapSize)
	g.Achievability = est.Tier
	g.TimelineMonths = est.TimelineMonths
	g.AchievabilityNote = est.Description
	return g
}

const roundingSlack = 1e-9

func ceilTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Ceil(v*pow-roundingSlack) / pow
}

func floorTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Floor(v*pow+roundingSlack) / pow
}
