package scholarship

import "strings"

// Category is one of the six criteria dimensions shared by eligibility checks and gaps.
type Category string

const (
	CategoryAcademic    Category = "ACADEMIC"
	CategoryDemographic Category = "DEMOGRAPHIC"
	CategoryMajor       Category = "MAJOR"
	CategoryExperience  Category = "EXPERIENCE"
	CategoryFinancial   Category = "FINANCIAL"
	CategorySpecial     Category = "SPECIAL"
)

// Categories lists every dimension in evaluation order.
var Categories = []Category{
	CategoryAcademic,
	CategoryDemographic,
	CategoryMajor,
	CategoryExperience,
	CategoryFinancial,
	CategorySpecial,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryAcademic, CategoryDemographic, CategoryMajor, CategoryExperience, CategoryFinancial, CategorySpecial:
		return true
	}
	return false
}

// Actionable reports whether a student can change their standing in this dimension.
func (c Category) Actionable() bool {
	return c != CategoryDemographic
}

func (c Category) Label() string {
	switch c {
	case CategoryAcademic:
		return "Academic"
	case CategoryDemographic:
		return "Demographic"
	case CategoryMajor:
		return "Major / field of study"
	case CategoryExperience:
		return "Experience"
	case CategoryFinancial:
		return "Financial"
	case CategorySpecial:
		return "Special circumstances"
	}
	return "Unknown"
}

func (c Category) Icon() string {
	switch c {
	case CategoryAcademic:
		return "graduation-cap"
	case CategoryDemographic:
		return "users"
	case CategoryMajor:
		return "book"
	case CategoryExperience:
		return "briefcase"
	case CategoryFinancial:
		return "wallet"
	case CategorySpecial:
		return "star"
	}
	return "circle"
}

// FinancialNeed is the self-reported need tier of a student.
type FinancialNeed string

const (
	NeedUnknown  FinancialNeed = ""
	NeedLow      FinancialNeed = "LOW"
	NeedModerate FinancialNeed = "MODERATE"
	NeedHigh     FinancialNeed = "HIGH"
	NeedVeryHigh FinancialNeed = "VERY_HIGH"
)

// Rank orders need tiers; unknown need ranks below LOW.
func (n FinancialNeed) Rank() int {
	switch n {
	case NeedLow:
		return 1
	case NeedModerate:
		return 2
	case NeedHigh:
		return 3
	case NeedVeryHigh:
		return 4
	}
	return 0
}

// ParseFinancialNeed accepts any casing and "very high" spelled with a space or dash.
func ParseFinancialNeed(s string) FinancialNeed {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	switch FinancialNeed(s) {
	case NeedLow, NeedModerate, NeedHigh, NeedVeryHigh:
		return FinancialNeed(s)
	}
	return NeedUnknown
}
