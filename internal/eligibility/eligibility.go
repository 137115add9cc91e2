// Package eligibility decides hard pass/fail of a profile against a scholarship's
// stated criteria, one dimension at a time.
package eligibility

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spigell/scholarpath/internal/scholarship"
)

// Criterion names reported in FailedCriterion.Criterion.
const (
	CriterionMinGPA           = "minGpa"
	CriterionMinSAT           = "minSat"
	CriterionMinACT           = "minAct"
	CriterionClassRank        = "classRank"
	CriterionGraduationYear   = "graduationYear"
	CriterionGender           = "gender"
	CriterionEthnicity        = "ethnicity"
	CriterionState            = "state"
	CriterionCity             = "city"
	CriterionZip              = "zipCode"
	CriterionCitizenship      = "citizenship"
	CriterionMajor            = "major"
	CriterionVolunteerHours   = "volunteerHours"
	CriterionLeadershipRoles  = "leadershipRoles"
	CriterionExtracurriculars = "extracurriculars"
	CriterionWorkExperience   = "workExperience"
	CriterionFinancialNeed    = "financialNeed"
	CriterionPell             = "pellEligible"
	CriterionEFC              = "maxEfc"
	CriterionFirstGeneration  = "firstGeneration"
	CriterionMilitary         = "militaryAffiliation"
	CriterionDisability       = "disability"
)

const notProvided = "not provided"

// Options tune a single evaluation.
type Options struct {
	// EarlyExit stops at the first failed criterion.
	EarlyExit bool
}

// FailedCriterion describes one requirement the profile does not meet.
// RequiredValue and ActualValue are set for numeric criteria only.
type FailedCriterion struct {
	Dimension     scholarship.Category `json:"dimension"`
	Criterion     string               `json:"criterion"`
	Required      string               `json:"required"`
	Actual        string               `json:"actual"`
	Numeric       bool                 `json:"numeric,omitempty"`
	RequiredValue float64              `json:"requiredValue,omitempty"`
	ActualValue   float64              `json:"actualValue,omitempty"`
}

// Result is the outcome of one evaluation.
type Result struct {
	Eligible       bool              `json:"eligible"`
	FailedCriteria []FailedCriterion `json:"failedCriteria"`
}

// HasFailureIn reports whether any failed criterion belongs to the dimension.
func (r *Result) HasFailureIn(dim scholarship.Category) bool {
	for _, fc := range r.FailedCriteria {
		if fc.Dimension == dim {
			return true
		}
	}
	return false
}

// Checker is the capability consumed by the gap analyzer and the projector.
type Checker interface {
	Evaluate(p *scholarship.Profile, s *scholarship.Scholarship, opts Options) (*Result, error)
}

// Filter is the stateless default Checker.
type Filter struct{}

func New() *Filter {
	return &Filter{}
}

// Evaluate compares the profile with every dimension of the scholarship criteria.
// A nil profile or a scholarship missing a dimension is a *scholarship.ValidationError.
func (f *Filter) Evaluate(p *scholarship.Profile, s *scholarship.Scholarship, opts Options) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	e := &evaluation{profile: p, earlyExit: opts.EarlyExit}
	c := s.Criteria
	checks := []func(){
		func() { e.academic(c.Academic) },
		func() { e.demographic(c.Demographic) },
		func() { e.major(c.Major) },
		func() { e.experience(c.Experience) },
		func() { e.financial(c.Financial) },
		func() { e.special(c.Special) },
	}
	for _, check := range checks {
		check()
		if e.stop() {
			break
		}
	}

	return &Result{
		Eligible:       len(e.failed) == 0,
		FailedCriteria: e.failed,
	}, nil
}

// MatchCatalog returns the scholarships of the catalog the profile is eligible for.
func MatchCatalog(checker Checker, p *scholarship.Profile, c *scholarship.Catalog) ([]*scholarship.Scholarship, error) {
	var matched []*scholarship.Scholarship
	if c == nil {
		return matched, nil
	}
	for _, s := range c.Items {
		res, err := checker.Evaluate(p, s, Options{EarlyExit: true})
		if err != nil {
			return nil, err
		}
		if res.Eligible {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

type evaluation struct {
	profile   *scholarship.Profile
	earlyExit bool
	failed    []FailedCriterion
}

func (e *evaluation) stop() bool {
	return e.earlyExit && len(e.failed) > 0
}

func (e *evaluation) fail(fc FailedCriterion) {
	if e.stop() {
		return
	}
	e.failed = append(e.failed, fc)
}

func (e *evaluation) failNumeric(dim scholarship.Category, criterion string, required, actual float64, format string) {
	actualText := notProvided
	if actual > 0 {
		// Truncated to cents so a shortfall never prints as the requirement.
		actualText = fmt.Sprintf(format, math.Floor(actual*100+1e-9)/100)
	}
	e.fail(FailedCriterion{
		Dimension:     dim,
		Criterion:     criterion,
		Required:      fmt.Sprintf(format, required),
		Actual:        actualText,
		Numeric:       true,
		RequiredValue: required,
		ActualValue:   actual,
	})
}

func (e *evaluation) academic(c *scholarship.AcademicCriteria) {
	p := e.profile
	dim := scholarship.CategoryAcademic

	if c.MinGPA > 0 {
		gpa := p.NormalizedGPA()
		if gpa < c.MinGPA {
			e.failNumeric(dim, CriterionMinGPA, c.MinGPA, gpa, "%.2f")
		}
	}

	// Either test satisfies the requirement when both are accepted.
	satOK := c.MinSAT > 0 && p.SAT >= c.MinSAT
	actOK := c.MinACT > 0 && p.ACT >= c.MinACT
	if !satOK && !actOK {
		if c.MinSAT > 0 {
			e.failNumeric(dim, CriterionMinSAT, float64(c.MinSAT), float64(p.SAT), "%.0f")
		}
		if c.MinACT > 0 {
			e.failNumeric(dim, CriterionMinACT, float64(c.MinACT), float64(p.ACT), "%.0f")
		}
	}

	if c.MaxClassRankPercent > 0 {
		if p.ClassRank <= 0 || p.ClassSize <= 0 {
			e.fail(FailedCriterion{
				Dimension: dim,
				Criterion: CriterionClassRank,
				Required:  fmt.Sprintf("top %.0f%%", c.MaxClassRankPercent),
				Actual:    notProvided,
			})
		} else if pct := float64(p.ClassRank) / float64(p.ClassSize) * 100; pct > c.MaxClassRankPercent {
			e.fail(FailedCriterion{
				Dimension: dim,
				Criterion: CriterionClassRank,
				Required:  fmt.Sprintf("top %.0f%%", c.MaxClassRankPercent),
				Actual:    fmt.Sprintf("top %.1f%%", pct),
			})
		}
	}

	if len(c.GraduationYears) > 0 && !containsInt(c.GraduationYears, p.GraduationYear) {
		e.fail(FailedCriterion{
			Dimension: dim,
			Criterion: CriterionGraduationYear,
			Required:  joinInts(c.GraduationYears),
			Actual:    orNotProvided(intText(p.GraduationYear)),
		})
	}
}

func (e *evaluation) demographic(c *scholarship.DemographicCriteria) {
	p := e.profile
	e.oneOf(scholarship.CategoryDemographic, CriterionGender, c.Genders, p.Gender)

	if len(c.Ethnicities) > 0 && !overlaps(c.Ethnicities, p.Ethnicity) {
		e.fail(FailedCriterion{
			Dimension: scholarship.CategoryDemographic,
			Criterion: CriterionEthnicity,
			Required:  strings.Join(c.Ethnicities, ", "),
			Actual:    orNotProvided(strings.Join(p.Ethnicity, ", ")),
		})
	}

	e.oneOf(scholarship.CategoryDemographic, CriterionState, c.States, p.State)
	e.oneOf(scholarship.CategoryDemographic, CriterionCity, c.Cities, p.City)
	e.oneOf(scholarship.CategoryDemographic, CriterionZip, c.ZipCodes, p.Zip)
	e.oneOf(scholarship.CategoryDemographic, CriterionCitizenship, c.Citizenship, p.Citizenship)
}

func (e *evaluation) major(c *scholarship.MajorCriteria) {
	if len(c.Majors) == 0 && len(c.Fields) == 0 {
		return
	}
	p := e.profile
	if containsFold(c.Majors, p.Major) || containsFold(c.Fields, p.FieldOfStudy) {
		return
	}
	required := append(append([]string(nil), c.Majors...), c.Fields...)
	e.fail(FailedCriterion{
		Dimension: scholarship.CategoryMajor,
		Criterion: CriterionMajor,
		Required:  strings.Join(required, ", "),
		Actual:    orNotProvided(p.Major),
	})
}

func (e *evaluation) experience(c *scholarship.ExperienceCriteria) {
	p := e.profile
	dim := scholarship.CategoryExperience
	if c.MinVolunteerHours > 0 && p.VolunteerHours < c.MinVolunteerHours {
		e.failNumeric(dim, CriterionVolunteerHours, float64(c.MinVolunteerHours), float64(p.VolunteerHours), "%.0f")
	}
	if c.MinLeadershipRoles > 0 && len(p.LeadershipRoles) < c.MinLeadershipRoles {
		e.failNumeric(dim, CriterionLeadershipRoles, float64(c.MinLeadershipRoles), float64(len(p.LeadershipRoles)), "%.0f")
	}
	if c.MinExtracurriculars > 0 && len(p.Extracurriculars) < c.MinExtracurriculars {
		e.failNumeric(dim, CriterionExtracurriculars, float64(c.MinExtracurriculars), float64(len(p.Extracurriculars)), "%.0f")
	}
	if c.MinWorkExperience > 0 && len(p.WorkExperience) < c.MinWorkExperience {
		e.failNumeric(dim, CriterionWorkExperience, float64(c.MinWorkExperience), float64(len(p.WorkExperience)), "%.0f")
	}
}

func (e *evaluation) financial(c *scholarship.FinancialCriteria) {
	p := e.profile
	dim := scholarship.CategoryFinancial
	if len(c.NeedLevels) > 0 && !containsNeed(c.NeedLevels, p.FinancialNeed) {
		levels := make([]string, 0, len(c.NeedLevels))
		for _, l := range c.NeedLevels {
			levels = append(levels, string(l))
		}
		e.fail(FailedCriterion{
			Dimension: dim,
			Criterion: CriterionFinancialNeed,
			Required:  strings.Join(levels, ", "),
			Actual:    orNotProvided(string(p.FinancialNeed)),
		})
	}
	if c.RequirePell && !p.PellEligible {
		e.fail(FailedCriterion{Dimension: dim, Criterion: CriterionPell, Required: "true", Actual: "false"})
	}
	if c.MaxEFC > 0 && p.EFCMin > c.MaxEFC {
		e.failNumeric(dim, CriterionEFC, c.MaxEFC, p.EFCMin, "%.0f")
	}
}

func (e *evaluation) special(c *scholarship.SpecialCriteria) {
	p := e.profile
	dim := scholarship.CategorySpecial
	if c.FirstGeneration && !p.FirstGeneration {
		e.fail(FailedCriterion{Dimension: dim, Criterion: CriterionFirstGeneration, Required: "true", Actual: "false"})
	}
	if c.Military && !p.HasMilitaryAffiliation() {
		e.fail(FailedCriterion{Dimension: dim, Criterion: CriterionMilitary, Required: "any affiliation", Actual: orNotProvided(p.MilitaryAffiliation)})
	}
	if c.Disability && !p.Disability {
		e.fail(FailedCriterion{Dimension: dim, Criterion: CriterionDisability, Required: "true", Actual: "false"})
	}
}

func (e *evaluation) oneOf(dim scholarship.Category, criterion string, allowed []string, actual string) {
	if len(allowed) == 0 || containsFold(allowed, actual) {
		return
	}
	e.fail(FailedCriterion{
		Dimension: dim,
		Criterion: criterion,
		Required:  strings.Join(allowed, ", "),
		Actual:    orNotProvided(actual),
	})
}

func containsFold(list []string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}

func overlaps(allowed, actual []string) bool {
	for _, a := range actual {
		if containsFold(allowed, a) {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsNeed(list []scholarship.FinancialNeed, v scholarship.FinancialNeed) bool {
	for _, item := range list {
		if scholarship.ParseFinancialNeed(string(item)) == v && v != scholarship.NeedUnknown {
			return true
		}
	}
	return false
}

func joinInts(list []int) string {
	parts := make([]string, 0, len(list))
	for _, v := range list {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ", ")
}

func intText(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return notProvided
	}
	return s
}
