package scholarship

import (
	"strings"
)

const DefaultGPAScale = 4.0

// Profile is a student's profile record as read from the persistence collaborator.
// Zero values mean "not provided".
type Profile struct {
	StudentID string `json:"studentId" mapstructure:"studentId"`

	// academic
	GPA            float64 `json:"gpa,omitempty" mapstructure:"gpa"`
	GPAScale       float64 `json:"gpaScale,omitempty" mapstructure:"gpaScale"`
	SAT            int     `json:"sat,omitempty" mapstructure:"sat"`
	ACT            int     `json:"act,omitempty" mapstructure:"act"`
	ClassRank      int     `json:"classRank,omitempty" mapstructure:"classRank"`
	ClassSize      int     `json:"classSize,omitempty" mapstructure:"classSize"`
	GraduationYear int     `json:"graduationYear,omitempty" mapstructure:"graduationYear"`

	// demographic
	Gender      string   `json:"gender,omitempty" mapstructure:"gender"`
	Ethnicity   []string `json:"ethnicity,omitempty" mapstructure:"ethnicity"`
	State       string   `json:"state,omitempty" mapstructure:"state"`
	City        string   `json:"city,omitempty" mapstructure:"city"`
	Zip         string   `json:"zip,omitempty" mapstructure:"zip"`
	Citizenship string   `json:"citizenship,omitempty" mapstructure:"citizenship"`

	// financial
	FinancialNeed FinancialNeed `json:"financialNeed,omitempty" mapstructure:"financialNeed"`
	PellEligible  bool          `json:"pellEligible,omitempty" mapstructure:"pellEligible"`
	EFCMin        float64       `json:"efcMin,omitempty" mapstructure:"efcMin"`
	EFCMax        float64       `json:"efcMax,omitempty" mapstructure:"efcMax"`

	// major
	Major        string `json:"major,omitempty" mapstructure:"major"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty" mapstructure:"fieldOfStudy"`

	// experience
	Extracurriculars []Activity `json:"extracurriculars,omitempty" mapstructure:"extracurriculars"`
	VolunteerHours   int        `json:"volunteerHours,omitempty" mapstructure:"volunteerHours"`
	WorkExperience   []Activity `json:"workExperience,omitempty" mapstructure:"workExperience"`
	LeadershipRoles  []Activity `json:"leadershipRoles,omitempty" mapstructure:"leadershipRoles"`
	Awards           []Activity `json:"awards,omitempty" mapstructure:"awards"`

	// special circumstances
	FirstGeneration     bool   `json:"firstGeneration,omitempty" mapstructure:"firstGeneration"`
	MilitaryAffiliation string `json:"militaryAffiliation,omitempty" mapstructure:"militaryAffiliation"`
	Disability          bool   `json:"disability,omitempty" mapstructure:"disability"`

	CompletionPercentage float64 `json:"completionPercentage" mapstructure:"completionPercentage"`
}

// Activity is one entry of an experience list (club, job, role, award).
type Activity struct {
	Name         string `json:"name" mapstructure:"name"`
	Organization string `json:"organization,omitempty" mapstructure:"organization"`
	Synthetic    bool   `json:"synthetic,omitempty" mapstructure:"synthetic"`
}

// NormalizedGPA returns the GPA on a 4.0 scale.
func (p *Profile) NormalizedGPA() float64 {
	if p.GPA <= 0 {
		return 0
	}
	scale := p.GPAScale
	if scale <= 0 {
		scale = DefaultGPAScale
	}
	return p.GPA / scale * DefaultGPAScale
}

// HasMilitaryAffiliation treats an empty value and "None" as no affiliation.
func (p *Profile) HasMilitaryAffiliation() bool {
	v := strings.TrimSpace(p.MilitaryAffiliation)
	return v != "" && !strings.EqualFold(v, "none")
}

// Clone returns a deep copy so callers can mutate it freely.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Ethnicity = append([]string(nil), p.Ethnicity...)
	c.Extracurriculars = append([]Activity(nil), p.Extracurriculars...)
	c.WorkExperience = append([]Activity(nil), p.WorkExperience...)
	c.LeadershipRoles = append([]Activity(nil), p.LeadershipRoles...)
	c.Awards = append([]Activity(nil), p.Awards...)
	return &c
}

// Validate reports corrupt profile records. Missing optional fields are fine.
func (p *Profile) Validate() error {
	if p == nil {
		return &ValidationError{Record: RecordProfile, Reason: "profile is required"}
	}
	if p.CompletionPercentage < 0 || p.CompletionPercentage > 100 {
		return &ValidationError{Record: RecordProfile, ID: p.StudentID, Field: "completionPercentage", Reason: "must be within 0..100"}
	}
	if p.GPAScale < 0 {
		return &ValidationError{Record: RecordProfile, ID: p.StudentID, Field: "gpaScale", Reason: "must not be negative"}
	}
	if p.ClassSize > 0 && p.ClassRank > p.ClassSize {
		return &ValidationError{Record: RecordProfile, ID: p.StudentID, Field: "classRank", Reason: "rank exceeds class size"}
	}
	return nil
}
