package scholarship

import "time"

// Scholarship is an immutable catalog record.
type Scholarship struct {
	ID           string    `json:"id" mapstructure:"id"`
	Name         string    `json:"name" mapstructure:"name"`
	Provider     string    `json:"provider,omitempty" mapstructure:"provider"`
	URL          string    `json:"url,omitempty" mapstructure:"url"`
	Amount       float64   `json:"amount" mapstructure:"amount"`
	Deadline     time.Time `json:"deadline,omitempty" mapstructure:"deadline"`
	Renewable    bool      `json:"renewable,omitempty" mapstructure:"renewable"`
	AwardsCount  int       `json:"awardsCount,omitempty" mapstructure:"awardsCount"`
	ApplicantEst int       `json:"estimatedApplicants,omitempty" mapstructure:"estimatedApplicants"`
	// AcceptanceRate is a 0..1 fraction when the provider publishes one.
	AcceptanceRate float64 `json:"acceptanceRate,omitempty" mapstructure:"acceptanceRate"`

	Requirements ApplicationRequirements `json:"requirements" mapstructure:"requirements"`
	Criteria     *EligibilityCriteria    `json:"eligibilityCriteria" mapstructure:"eligibilityCriteria"`
}

// ApplicationRequirements are the materials an application needs.
type ApplicationRequirements struct {
	Essays          int      `json:"essays,omitempty" mapstructure:"essays"`
	Recommendations int      `json:"recommendations,omitempty" mapstructure:"recommendations"`
	Documents       []string `json:"documents,omitempty" mapstructure:"documents"`
	Interview       bool     `json:"interview,omitempty" mapstructure:"interview"`
}

// EligibilityCriteria holds one block per dimension. All six blocks must be
// present; an empty block means "no requirement" for that dimension.
type EligibilityCriteria struct {
	Academic    *AcademicCriteria    `json:"academic" mapstructure:"academic"`
	Demographic *DemographicCriteria `json:"demographic" mapstructure:"demographic"`
	Major       *MajorCriteria       `json:"major" mapstructure:"major"`
	Experience  *ExperienceCriteria  `json:"experience" mapstructure:"experience"`
	Financial   *FinancialCriteria   `json:"financial" mapstructure:"financial"`
	Special     *SpecialCriteria     `json:"special" mapstructure:"special"`
}

type AcademicCriteria struct {
	MinGPA float64 `json:"minGpa,omitempty" mapstructure:"minGpa"`
	MinSAT int     `json:"minSat,omitempty" mapstructure:"minSat"`
	MinACT int     `json:"minAct,omitempty" mapstructure:"minAct"`
	// MaxClassRankPercent requires the student to be within the top N percent of the class.
	MaxClassRankPercent float64 `json:"maxClassRankPercent,omitempty" mapstructure:"maxClassRankPercent"`
	GraduationYears     []int   `json:"graduationYears,omitempty" mapstructure:"graduationYears"`
}

type DemographicCriteria struct {
	Genders     []string `json:"genders,omitempty" mapstructure:"genders"`
	Ethnicities []string `json:"ethnicities,omitempty" mapstructure:"ethnicities"`
	States      []string `json:"states,omitempty" mapstructure:"states"`
	Cities      []string `json:"cities,omitempty" mapstructure:"cities"`
	ZipCodes    []string `json:"zipCodes,omitempty" mapstructure:"zipCodes"`
	Citizenship []string `json:"citizenship,omitempty" mapstructure:"citizenship"`
}

type MajorCriteria struct {
	Majors []string `json:"majors,omitempty" mapstructure:"majors"`
	Fields []string `json:"fields,omitempty" mapstructure:"fields"`
}

type ExperienceCriteria struct {
	MinVolunteerHours   int `json:"minVolunteerHours,omitempty" mapstructure:"minVolunteerHours"`
	MinLeadershipRoles  int `json:"minLeadershipRoles,omitempty" mapstructure:"minLeadershipRoles"`
	MinExtracurriculars int `json:"minExtracurriculars,omitempty" mapstructure:"minExtracurriculars"`
	MinWorkExperience   int `json:"minWorkExperience,omitempty" mapstructure:"minWorkExperience"`
}

type FinancialCriteria struct {
	NeedLevels  []FinancialNeed `json:"needLevels,omitempty" mapstructure:"needLevels"`
	RequirePell bool            `json:"requirePell,omitempty" mapstructure:"requirePell"`
	MaxEFC      float64         `json:"maxEfc,omitempty" mapstructure:"maxEfc"`
}

type SpecialCriteria struct {
	FirstGeneration bool `json:"firstGeneration,omitempty" mapstructure:"firstGeneration"`
	Military        bool `json:"military,omitempty" mapstructure:"military"`
	Disability      bool `json:"disability,omitempty" mapstructure:"disability"`
}

// Validate checks that every dimension the eligibility filter reads is present.
func (s *Scholarship) Validate() error {
	if s == nil {
		return &ValidationError{Record: RecordScholarship, Reason: "scholarship is required"}
	}
	if s.Criteria == nil {
		return &ValidationError{Record: RecordScholarship, ID: s.ID, Field: "eligibilityCriteria", Reason: "missing"}
	}
	var missing []string
	c := s.Criteria
	if c.Academic == nil {
		missing = append(missing, "academic")
	}
	if c.Demographic == nil {
		missing = append(missing, "demographic")
	}
	if c.Major == nil {
		missing = append(missing, "major")
	}
	if c.Experience == nil {
		missing = append(missing, "experience")
	}
	if c.Financial == nil {
		missing = append(missing, "financial")
	}
	if c.Special == nil {
		missing = append(missing, "special")
	}
	if len(missing) > 0 {
		return &ValidationError{
			Record:  RecordScholarship,
			ID:      s.ID,
			Field:   "eligibilityCriteria",
			Reason:  "missing dimension",
			Details: missing,
		}
	}
	return nil
}

// OpenCriteria returns a criteria block with every dimension present and no requirement set.
func OpenCriteria() *EligibilityCriteria {
	return &EligibilityCriteria{
		Academic:    &AcademicCriteria{},
		Demographic: &DemographicCriteria{},
		Major:       &MajorCriteria{},
		Experience:  &ExperienceCriteria{},
		Financial:   &FinancialCriteria{},
		Special:     &SpecialCriteria{},
	}
}
