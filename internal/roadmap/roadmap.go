// Package roadmap turns prioritized gaps into a sequenced improvement plan.
package roadmap

import (
	"fmt"
	"sort"
	"time"

	"github.com/spigell/scholarpath/internal/achievability"
	"github.com/spigell/scholarpath/internal/gaps"
)

const (
	maxLongTermGoals = 3
	maxGaps          = 10
)

// Diagnostic codes.
const (
	CodeTooManyLongTermGoals = "TOO_MANY_LONG_TERM_GOALS"
	CodeTooManyGaps          = "TOO_MANY_GAPS"
)

const SeverityWarning = "warning"

// Diagnostic is a non-fatal feasibility concern attached to a roadmap.
type Diagnostic struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Recommendation wraps exactly one gap.
type Recommendation struct {
	Gap            gaps.Gap   `json:"gap"`
	Recommendation string     `json:"recommendation"`
	Steps          []string   `json:"steps"`
	Timeline       string     `json:"timeline"`
	TargetDate     time.Time  `json:"targetDate"`
	Resources      []Resource `json:"resources"`
	Dependencies   []string   `json:"dependencies,omitempty"`
}

// Roadmap is the bucketed and sequenced plan.
type Roadmap struct {
	Easy                []Recommendation `json:"easy"`
	Moderate            []Recommendation `json:"moderate"`
	LongTerm            []Recommendation `json:"longTerm"`
	TotalTimelineMonths int              `json:"totalTimelineMonths"`
	RecommendedSequence []Recommendation `json:"recommendedSequence"`
	Diagnostics         []Diagnostic     `json:"diagnostics"`
}

// Generator builds roadmaps relative to an injected clock.
type Generator struct {
	now func() time.Time
}

func NewGenerator(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

// Generate produces one recommendation per gap.
func (g *Generator) Generate(in []gaps.Gap) *Roadmap {
	now := g.now()
	rm := &Roadmap{
		Easy:                []Recommendation{},
		Moderate:            []Recommendation{},
		LongTerm:            []Recommendation{},
		RecommendedSequence: []Recommendation{},
		Diagnostics:         []Diagnostic{},
	}

	var easyMax, moderateMax, longTermMax int
	for _, gap := range in {
		rec := Recommend(gap, now)
		switch gap.Achievability {
		case achievability.Easy:
			rm.Easy = append(rm.Easy, rec)
			easyMax = max(easyMax, gap.TimelineMonths)
		case achievability.LongTerm:
			rm.LongTerm = append(rm.LongTerm, rec)
			longTermMax = max(longTermMax, gap.TimelineMonths)
		default:
			rm.Moderate = append(rm.Moderate, rec)
			moderateMax = max(moderateMax, gap.TimelineMonths)
		}
		rm.RecommendedSequence = append(rm.RecommendedSequence, rec)
	}

	sort.SliceStable(rm.RecommendedSequence, func(i, j int) bool {
		return gaps.Less(rm.RecommendedSequence[i].Gap, rm.RecommendedSequence[j].Gap)
	})

	// Easy and moderate work run in parallel; long-term work is added on top.
	rm.TotalTimelineMonths = max(easyMax, moderateMax) + longTermMax

	if n := len(rm.LongTerm); n > maxLongTermGoals {
		rm.Diagnostics = append(rm.Diagnostics, Diagnostic{
			Code:     CodeTooManyLongTermGoals,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%d long-term goals planned; consider focusing on the top %d", n, maxLongTermGoals),
		})
	}
	if n := len(in); n > maxGaps {
		rm.Diagnostics = append(rm.Diagnostics, Diagnostic{
			Code:     CodeTooManyGaps,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%d gaps identified; the plan may be hard to follow", n),
		})
	}

	return rm
}

// Recommend builds the recommendation for a single gap.
func Recommend(gap gaps.Gap, now time.Time) Recommendation {
	text, steps := defaultAdvice(gap)
	var resources []Resource
	var deps []string
	if p, ok := match(gap); ok {
		text, steps = p.advice(gap)
		resources = append(resources, p.resources...)
		deps = append(deps, p.dependencies...)
	}
	if resources == nil {
		resources = []Resource{}
	}

	return Recommendation{
		Gap:            gap,
		Recommendation: text,
		Steps:          steps,
		Timeline:       TimelineLabel(gap.TimelineMonths),
		TargetDate:     now.AddDate(0, gap.TimelineMonths, 0),
		Resources:      resources,
		Dependencies:   deps,
	}
}

func TimelineLabel(months int) string {
	if months == 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", months)
}
