// Package gaps finds reach scholarships and turns their failed criteria into
// quantified, aggregated and prioritized gaps.
package gaps

import (
	"fmt"
	"sort"

	"github.com/spigell/scholarpath/internal/achievability"
	"github.com/spigell/scholarpath/internal/scholarship"
	"github.com/spigell/scholarpath/internal/utils"
)

// Requirement labels. The roadmap matches on substrings of these.
const (
	RequirementGPA            = "Minimum GPA"
	RequirementSAT            = "Minimum SAT score"
	RequirementACT            = "Minimum ACT score"
	RequirementVolunteerHours = "Volunteer hours"
	RequirementLeadership     = "Leadership roles"
)

// Gap is one quantified, unmet requirement.
type Gap struct {
	Category    scholarship.Category `json:"category"`
	Requirement string               `json:"requirement"`
	// Field is the eligibility criterion the gap was derived from.
	Field                  string              `json:"field"`
	Scale                  achievability.Scale `json:"scale"`
	CurrentValue           float64             `json:"currentValue"`
	TargetValue            float64             `json:"targetValue"`
	GapSize                float64             `json:"gapSize"`
	Impact                 string              `json:"impact"`
	ScholarshipsAffected   int                 `json:"scholarshipsAffected"`
	FundingBlocked         float64             `json:"fundingBlocked"`
	Achievability          achievability.Tier  `json:"achievability"`
	TimelineMonths         int                 `json:"timelineMonths"`
	AchievabilityNote      string              `json:"achievabilityNote,omitempty"`
	AffectedScholarshipIDs []string            `json:"affectedScholarshipIds"`
}

// Key identifies gaps that describe the same requirement.
func (g Gap) Key() string {
	return fmt.Sprintf("%s|%s|%g", g.Category, g.Requirement, g.TargetValue)
}

// FormatValue renders a value in the gap's unit.
func (g Gap) FormatValue(v float64) string {
	if g.Scale == achievability.ScaleGPA {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.0f", v)
}

// ImpactSentence describes what closing the gap unlocks.
func ImpactSentence(g Gap) string {
	noun := "scholarships"
	if g.ScholarshipsAffected == 1 {
		noun = "scholarship"
	}
	return fmt.Sprintf("Reaching %s %s (currently %s) would unlock %d %s worth %s",
		g.Requirement, g.FormatValue(g.TargetValue), g.FormatValue(g.CurrentValue),
		g.ScholarshipsAffected, noun, utils.Money(g.FundingBlocked))
}

// Aggregate merges gaps sharing (category, requirement, target). Counts and funding
// are summed and affected IDs concatenated without deduplication. The first
// occurrence of a key fixes its position in the output.
func Aggregate(in []Gap) []Gap {
	out := make([]Gap, 0, len(in))
	index := make(map[string]int, len(in))
	for _, g := range in {
		key := g.Key()
		i, ok := index[key]
		if !ok {
			g.AffectedScholarshipIDs = append([]string(nil), g.AffectedScholarshipIDs...)
			index[key] = len(out)
			out = append(out, g)
			continue
		}
		merged := &out[i]
		merged.ScholarshipsAffected += g.ScholarshipsAffected
		merged.FundingBlocked += g.FundingBlocked
		merged.AffectedScholarshipIDs = append(merged.AffectedScholarshipIDs, g.AffectedScholarshipIDs...)
	}
	return out
}

// Prioritize returns a copy ordered by funding blocked, then scholarships
// affected, then achievability from easiest to hardest.
func Prioritize(in []Gap) []Gap {
	out := append([]Gap(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i], out[j])
	})
	return out
}

// Less is the priority order shared with the roadmap sequence.
func Less(a, b Gap) bool {
	if a.FundingBlocked != b.FundingBlocked {
		return a.FundingBlocked > b.FundingBlocked
	}
	if a.ScholarshipsAffected != b.ScholarshipsAffected {
		return a.ScholarshipsAffected > b.ScholarshipsAffected
	}
	return a.Achievability.Rank() < b.Achievability.Rank()
}

// TierCounts counts gaps per achievability tier.
type TierCounts struct {
	Easy     int `json:"easy"`
	Moderate int `json:"moderate"`
	LongTerm int `json:"longTerm"`
}

func (c *TierCounts) add(t achievability.Tier) {
	switch t {
	case achievability.Easy:
		c.Easy++
	case achievability.Moderate:
		c.Moderate++
	case achievability.LongTerm:
		c.LongTerm++
	}
}

// ImpactSummary rolls gaps up for the dashboard headline.
type ImpactSummary struct {
	ScholarshipsUnlockable int        `json:"scholarshipsUnlockable"`
	PotentialFunding       float64    `json:"potentialFunding"`
	AverageAward           float64    `json:"averageAward"`
	TotalGaps              int        `json:"totalGaps"`
	ByAchievability        TierCounts `json:"byAchievability"`
}

// CalculateImpactSummary counts unique scholarships across all gaps. Potential
// funding sums every gap's funding independently, so a scholarship blocked by
// several gaps is counted once per gap.
func CalculateImpactSummary(gaps []Gap) ImpactSummary {
	unique := make(map[string]struct{})
	summary := ImpactSummary{TotalGaps: len(gaps)}
	for _, g := range gaps {
		for _, id := range g.AffectedScholarshipIDs {
			unique[id] = struct{}{}
		}
		summary.PotentialFunding += g.FundingBlocked
		summary.ByAchievability.add(g.Achievability)
	}
	summary.ScholarshipsUnlockable = len(unique)
	if summary.ScholarshipsUnlockable > 0 {
		summary.AverageAward = summary.PotentialFunding / float64(summary.ScholarshipsUnlockable)
	}
	return summary
}

// LongTermOnly returns IDs of scholarships whose every gap is LONG_TERM, sorted.
func LongTermOnly(gaps []Gap) []string {
	longTerm := make(map[string]bool)
	for _, g := range gaps {
		for _, id := range g.AffectedScholarshipIDs {
			only, seen := longTerm[id]
			if !seen {
				only = true
			}
			longTerm[id] = only && g.Achievability == achievability.LongTerm
		}
	}
	ids := make([]string, 0, len(longTerm))
	for id, only := range longTerm {
		if only {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
