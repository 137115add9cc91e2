// Package achievability classifies how long closing a gap is expected to take.
// All thresholds live in a single table so they can be tuned and tested as data.
package achievability

import (
	"math"

	"github.com/spigell/scholarpath/internal/scholarship"
)

// Tier is the closed set of achievability classes.
type Tier string

const (
	Easy     Tier = "EASY"
	Moderate Tier = "MODERATE"
	LongTerm Tier = "LONG_TERM"
)

// Tiers lists every tier in ascending difficulty.
var Tiers = []Tier{Easy, Moderate, LongTerm}

// Rank orders tiers from easiest to hardest. Unknown tiers sort last.
func (t Tier) Rank() int {
	switch t {
	case Easy:
		return 0
	case Moderate:
		return 1
	case LongTerm:
		return 2
	}
	return 3
}

func (t Tier) Label() string {
	switch t {
	case Easy:
		return "Quick win"
	case Moderate:
		return "Medium-term goal"
	case LongTerm:
		return "Long-term goal"
	}
	return "Unclassified"
}

func (t Tier) Color() string {
	switch t {
	case Easy:
		return "green"
	case Moderate:
		return "yellow"
	case LongTerm:
		return "red"
	}
	return "gray"
}

// Scale is the unit a gap is measured in.
type Scale string

const (
	ScaleGPA            Scale = "GPA"
	ScaleSAT            Scale = "SAT"
	ScaleACT            Scale = "ACT"
	ScaleLeadership     Scale = "LEADERSHIP_ROLES"
	ScaleVolunteerHours Scale = "VOLUNTEER_HOURS"
	ScaleNotActionable  Scale = "NOT_ACTIONABLE"
)

// Band is one row of a scale's threshold list. Bands are checked in order and the
// first with size <= MaxSize wins. When HoursPerMonth is set the timeline is
// derived from the size and capped by MaxMonths instead of using Months.
type Band struct {
	MaxSize       float64
	Tier          Tier
	Months        int
	HoursPerMonth float64
	MaxMonths     int
	Description   string
}

// Table maps every scale to its ordered bands.
type Table map[Scale][]Band

// Estimate is the classification of a single gap.
type Estimate struct {
	Tier           Tier   `json:"category"`
	TimelineMonths int    `json:"timelineMonths"`
	Description    string `json:"description"`
}

const notActionable = "Not typically actionable"

// epsilon absorbs float noise such as 3.5-3.3 landing just above a band edge.
const epsilon = 1e-9

var fallback = Estimate{Tier: Moderate, TimelineMonths: 6, Description: "Estimated timeline"}

// DefaultTable holds the stock thresholds.
var DefaultTable = Table{
	ScaleGPA: {
		{MaxSize: 0.2, Tier: Easy, Months: 4, Description: "Achievable within a semester"},
		{MaxSize: 0.5, Tier: Moderate, Months: 8, Description: "Requires sustained improvement over two semesters"},
		{MaxSize: math.Inf(1), Tier: LongTerm, Months: 16, Description: "Requires consistent improvement over multiple years"},
	},
	ScaleACT: {
		{MaxSize: 2, Tier: Easy, Months: 3, Description: "Achievable with focused test prep"},
		{MaxSize: 5, Tier: Moderate, Months: 6, Description: "Requires a structured prep course and a retake"},
		{MaxSize: math.Inf(1), Tier: LongTerm, Months: 12, Description: "Requires extended preparation and multiple retakes"},
	},
	ScaleSAT: {
		{MaxSize: 50, Tier: Easy, Months: 3, Description: "Achievable with focused test prep"},
		{MaxSize: 150, Tier: Moderate, Months: 6, Description: "Requires a structured prep course and a retake"},
		{MaxSize: math.Inf(1), Tier: LongTerm, Months: 12, Description: "Requires extended preparation and multiple retakes"},
	},
	ScaleLeadership: {
		{MaxSize: math.Inf(1), Tier: Moderate, Months: 6, Description: "Leadership roles open up over a school term"},
	},
	ScaleVolunteerHours: {
		{MaxSize: 50, Tier: Easy, Months: 3, Description: "About 4 hours per week"},
		{MaxSize: 100, Tier: Moderate, Months: 6, Description: "About 4 hours per week"},
		{MaxSize: math.Inf(1), Tier: LongTerm, HoursPerMonth: 16, MaxMonths: 12, Description: "About 4 hours per week over a longer period"},
	},
	ScaleNotActionable: {
		{MaxSize: math.Inf(1), Tier: LongTerm, Months: 24, Description: notActionable},
	},
}

// Lookup classifies a gap measured on a known scale.
func (t Table) Lookup(scale Scale, size float64) Estimate {
	bands, ok := t[scale]
	if !ok {
		return fallback
	}
	size = math.Abs(size)
	for _, b := range bands {
		if size > b.MaxSize+epsilon {
			continue
		}
		months := b.Months
		if b.HoursPerMonth > 0 {
			months = int(math.Ceil(size / b.HoursPerMonth))
			if b.MaxMonths > 0 && months > b.MaxMonths {
				months = b.MaxMonths
			}
		}
		return Estimate{Tier: b.Tier, TimelineMonths: months, Description: b.Description}
	}
	return fallback
}

// Classify infers the scale from the category and the size of the gap.
func (t Table) Classify(category scholarship.Category, size float64) Estimate {
	scale, ok := ScaleFor(category, size)
	if !ok {
		return fallback
	}
	return t.Lookup(scale, size)
}

// ScaleFor infers the measuring scale. Academic sizes up to 4.0 are GPA points,
// up to 35 ACT points and SAT points above that. Experience sizes up to 10 are
// leadership-role counts and volunteer hours above that.
func ScaleFor(category scholarship.Category, size float64) (Scale, bool) {
	size = math.Abs(size)
	switch category {
	case scholarship.CategoryAcademic:
		switch {
		case size <= 4.0:
			return ScaleGPA, true
		case size <= 35:
			return ScaleACT, true
		default:
			return ScaleSAT, true
		}
	case scholarship.CategoryExperience:
		if size <= 10 {
			return ScaleLeadership, true
		}
		return ScaleVolunteerHours, true
	case scholarship.CategoryMajor, scholarship.CategoryFinancial, scholarship.CategorySpecial, scholarship.CategoryDemographic:
		return ScaleNotActionable, true
	}
	return "", false
}

// Classify uses DefaultTable.
func Classify(category scholarship.Category, size float64) Estimate {
	return DefaultTable.Classify(category, size)
}

// Lookup uses DefaultTable.
func Lookup(scale Scale, size float64) Estimate {
	return DefaultTable.Lookup(scale, size)
}
