// Package projection simulates a profile after closing gaps or applying
// hypothetical changes and compares it with the current one.
package projection

import (
	"fmt"
	"sort"

	"github.com/spigell/scholarpath/internal/eligibility"
	"github.com/spigell/scholarpath/internal/gaps"
	"github.com/spigell/scholarpath/internal/scholarship"
	"github.com/spigell/scholarpath/internal/strength"
)

// Changes is a hypothetical change set. Nil fields are left untouched. GPA is on
// a 4.0 scale; counts replace the length of the matching activity list.
type Changes struct {
	GPA              *float64 `json:"gpa,omitempty"`
	SAT              *int     `json:"sat,omitempty"`
	ACT              *int     `json:"act,omitempty"`
	VolunteerHours   *int     `json:"volunteerHours,omitempty"`
	LeadershipRoles  *int     `json:"leadershipRoles,omitempty"`
	Extracurriculars *int     `json:"extracurriculars,omitempty"`
	WorkExperience   *int     `json:"workExperience,omitempty"`
}

// Empty reports whether the change set changes nothing.
func (c Changes) Empty() bool {
	return c.GPA == nil && c.SAT == nil && c.ACT == nil && c.VolunteerHours == nil &&
		c.LeadershipRoles == nil && c.Extracurriculars == nil && c.WorkExperience == nil
}

// Projection is a before and after comparison.
type Projection struct {
	CurrentStrength    int                `json:"currentStrength"`
	ProjectedStrength  int                `json:"projectedStrength"`
	StrengthDelta      int                `json:"strengthDelta"`
	CurrentBreakdown   strength.Breakdown `json:"currentBreakdown"`
	ProjectedBreakdown strength.Breakdown `json:"projectedBreakdown"`
	BreakdownDelta     strength.Breakdown `json:"breakdownDelta"`
	CurrentMatches     int                `json:"currentMatches"`
	ProjectedMatches   int                `json:"projectedMatches"`
	MatchesDelta       int                `json:"matchesDelta"`
	CurrentFunding     float64            `json:"currentFunding"`
	ProjectedFunding   float64            `json:"projectedFunding"`
	FundingDelta       float64            `json:"fundingDelta"`
	// UnlockedIDs are scholarships matched only by the projected profile.
	UnlockedIDs []string `json:"unlockedIds"`
}

// Projector recomputes strength and eligibility with an injected checker.
type Projector struct {
	checker eligibility.Checker
}

func New(checker eligibility.Checker) *Projector {
	if checker == nil {
		checker = eligibility.New()
	}
	return &Projector{checker: checker}
}

// ChangesFromGaps collapses gaps into a change set using the highest target per field.
func ChangesFromGaps(in []gaps.Gap) Changes {
	var c Changes
	for _, g := range in {
		target := g.TargetValue
		switch g.Field {
		case eligibility.CriterionMinGPA:
			if c.GPA == nil || target > *c.GPA {
				v := target
				c.GPA = &v
			}
		case eligibility.CriterionMinSAT:
			c.SAT = maxInt(c.SAT, target)
		case eligibility.CriterionMinACT:
			c.ACT = maxInt(c.ACT, target)
		case eligibility.CriterionVolunteerHours:
			c.VolunteerHours = maxInt(c.VolunteerHours, target)
		case eligibility.CriterionLeadershipRoles:
			c.LeadershipRoles = maxInt(c.LeadershipRoles, target)
		case eligibility.CriterionExtracurriculars:
			c.Extracurriculars = maxInt(c.Extracurriculars, target)
		case eligibility.CriterionWorkExperience:
			c.WorkExperience = maxInt(c.WorkExperience, target)
		}
	}
	return c
}

// Apply returns a modified clone of the profile.
func Apply(p *scholarship.Profile, c Changes) *scholarship.Profile {
	out := p.Clone()
	if out == nil {
		return nil
	}
	if c.GPA != nil {
		out.GPA = *c.GPA
		out.GPAScale = scholarship.DefaultGPAScale
	}
	if c.SAT != nil {
		out.SAT = *c.SAT
	}
	if c.ACT != nil {
		out.ACT = *c.ACT
	}
	if c.VolunteerHours != nil {
		out.VolunteerHours = *c.VolunteerHours
	}
	if c.LeadershipRoles != nil {
		out.LeadershipRoles = resize(out.LeadershipRoles, *c.LeadershipRoles, "Planned leadership role")
	}
	if c.Extracurriculars != nil {
		out.Extracurriculars = resize(out.Extracurriculars, *c.Extracurriculars, "Planned activity")
	}
	if c.WorkExperience != nil {
		out.WorkExperience = resize(out.WorkExperience, *c.WorkExperience, "Planned work experience")
	}
	return out
}

// ProjectGaps applies every gap target and compares the result with the profile.
func (p *Projector) ProjectGaps(profile *scholarship.Profile, in []gaps.Gap, c *scholarship.Catalog) (*Projection, error) {
	return p.ProjectChanges(profile, ChangesFromGaps(in), c)
}

// ProjectChanges applies a hypothetical change set. It shares the recomputation
// path with ProjectGaps so both stay consistent.
func (p *Projector) ProjectChanges(profile *scholarship.Profile, changes Changes, c *scholarship.Catalog) (*Projection, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return p.compare(profile, Apply(profile, changes), c)
}

func (p *Projector) compare(current, projected *scholarship.Profile, c *scholarship.Catalog) (*Projection, error) {
	currentMatched, err := eligibility.MatchCatalog(p.checker, current, c)
	if err != nil {
		return nil, fmt.Errorf("matching current profile: %w", err)
	}
	projectedMatched, err := eligibility.MatchCatalog(p.checker, projected, c)
	if err != nil {
		return nil, fmt.Errorf("matching projected profile: %w", err)
	}

	before := strength.Calculate(current)
	after := strength.Calculate(projected)

	proj := &Projection{
		CurrentStrength:    before.Overall,
		ProjectedStrength:  after.Overall,
		StrengthDelta:      after.Overall - before.Overall,
		CurrentBreakdown:   before.Breakdown,
		ProjectedBreakdown: after.Breakdown,
		BreakdownDelta: strength.Breakdown{
			Academic:     after.Breakdown.Academic - before.Breakdown.Academic,
			Experience:   after.Breakdown.Experience - before.Breakdown.Experience,
			Leadership:   after.Breakdown.Leadership - before.Breakdown.Leadership,
			Demographics: after.Breakdown.Demographics - before.Breakdown.Demographics,
		},
		CurrentMatches:   len(currentMatched),
		ProjectedMatches: len(projectedMatched),
		CurrentFunding:   funding(currentMatched),
		ProjectedFunding: funding(projectedMatched),
		UnlockedIDs:      unlocked(currentMatched, projectedMatched),
	}
	proj.MatchesDelta = proj.ProjectedMatches - proj.CurrentMatches
	proj.FundingDelta = proj.ProjectedFunding - proj.CurrentFunding
	return proj, nil
}

func funding(matched []*scholarship.Scholarship) float64 {
	total := 0.0
	for _, s := range matched {
		total += s.Amount
	}
	return total
}

func unlocked(before, after []*scholarship.Scholarship) []string {
	had := make(map[string]struct{}, len(before))
	for _, s := range before {
		had[s.ID] = struct{}{}
	}
	ids := []string{}
	for _, s := range after {
		if _, ok := had[s.ID]; !ok {
			ids = append(ids, s.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func resize(list []scholarship.Activity, n int, name string) []scholarship.Activity {
	if n < 0 {
		n = 0
	}
	if len(list) >= n {
		return list[:n]
	}
	for i := len(list); i < n; i++ {
		list = append(list, scholarship.Activity{Name: fmt.Sprintf("%s %d", name, i+1), Synthetic: true})
	}
	return list
}

func maxInt(cur *int, target float64) *int {
	v := int(target)
	if float64(v) < target {
		v++
	}
	if cur != nil && *cur >= v {
		return cur
	}
	return &v
}
