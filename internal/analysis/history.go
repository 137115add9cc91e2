package analysis

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/gaps"
	"github.com/spigell/scholarpath/internal/logger"
)

// GapChange tracks a gap present in both analyses.
type GapChange struct {
	Gap          gaps.Gap `json:"gap"`
	PreviousSize float64  `json:"previousSize"`
	CurrentSize  float64  `json:"currentSize"`
	SizeDelta    float64  `json:"sizeDelta"`
}

// Comparison is the diff between a stored analysis and a fresh one.
type Comparison struct {
	PreviousAnalyzedAt time.Time   `json:"previousAnalyzedAt"`
	CurrentAnalyzedAt  time.Time   `json:"currentAnalyzedAt"`
	ClosedGaps         []gaps.Gap  `json:"closedGaps"`
	NewGaps            []gaps.Gap  `json:"newGaps"`
	PersistingGaps     []GapChange `json:"persistingGaps"`
	StrengthDelta      int         `json:"strengthDelta"`
	MatchesDelta       int         `json:"matchesDelta"`
	FundingDelta       float64     `json:"fundingDelta"`
}

// CompareToHistory diffs two analyses of the same student. Gaps are matched on
// their aggregation key. Strength, matches and funding deltas compare the
// current (pre-projection) side of both projections.
func (s *Service) CompareToHistory(previous, current *Analysis) (*Comparison, error) {
	if previous == nil {
		return nil, fmt.Errorf("previous: %w", ErrMissingAnalysis)
	}
	if current == nil {
		return nil, fmt.Errorf("current: %w", ErrMissingAnalysis)
	}

	cmp := &Comparison{
		PreviousAnalyzedAt: previous.AnalyzedAt,
		CurrentAnalyzedAt:  current.AnalyzedAt,
		ClosedGaps:         []gaps.Gap{},
		NewGaps:            []gaps.Gap{},
		PersistingGaps:     []GapChange{},
	}

	before := make(map[string]gaps.Gap, len(previous.Gaps))
	for _, g := range previous.Gaps {
		before[g.Key()] = g
	}
	seen := make(map[string]struct{}, len(current.Gaps))
	for _, g := range current.Gaps {
		key := g.Key()
		seen[key] = struct{}{}
		old, ok := before[key]
		if !ok {
			cmp.NewGaps = append(cmp.NewGaps, g)
			continue
		}
		cmp.PersistingGaps = append(cmp.PersistingGaps, GapChange{
			Gap:          g,
			PreviousSize: old.GapSize,
			CurrentSize:  g.GapSize,
			SizeDelta:    g.GapSize - old.GapSize,
		})
	}
	for _, g := range previous.Gaps {
		if _, ok := seen[g.Key()]; !ok {
			cmp.ClosedGaps = append(cmp.ClosedGaps, g)
		}
	}

	if previous.Projection != nil && current.Projection != nil {
		cmp.StrengthDelta = current.Projection.CurrentStrength - previous.Projection.CurrentStrength
		cmp.MatchesDelta = current.Projection.CurrentMatches - previous.Projection.CurrentMatches
		cmp.FundingDelta = current.Projection.CurrentFunding - previous.Projection.CurrentFunding
	}

	s.logger.Info("history compared",
		append(logger.StudentFields(current.StudentID),
			zap.Int("closed", len(cmp.ClosedGaps)),
			zap.Int("new", len(cmp.NewGaps)),
			zap.Int("persisting", len(cmp.PersistingGaps)),
		)...,
	)
	return cmp, nil
}
