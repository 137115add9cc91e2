// Package analysis exposes the scholarship matching and gap analysis operations
// to callers such as the CLI and the HTTP adapter.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/eligibility"
	"github.com/spigell/scholarpath/internal/gaps"
	"github.com/spigell/scholarpath/internal/logger"
	"github.com/spigell/scholarpath/internal/matching"
	"github.com/spigell/scholarpath/internal/projection"
	"github.com/spigell/scholarpath/internal/roadmap"
	"github.com/spigell/scholarpath/internal/scholarship"
	"github.com/spigell/scholarpath/internal/strength"
)

// ErrMissingAnalysis is returned when a history comparison lacks one side.
var ErrMissingAnalysis = errors.New("analysis is required")

// Analysis is the result of AnalyzeGaps.
type Analysis struct {
	StudentID     string                 `json:"studentId"`
	Gaps          []gaps.Gap             `json:"gaps"`
	Roadmap       *roadmap.Roadmap       `json:"roadmap"`
	Projection    *projection.Projection `json:"projection"`
	ImpactSummary gaps.ImpactSummary     `json:"impactSummary"`
	AnalyzedAt    time.Time              `json:"analyzedAt"`
}

// Simulation is the result of Simulate.
type Simulation struct {
	ProjectedStrength    int                    `json:"projectedStrength"`
	ScholarshipsUnlocked int                    `json:"scholarshipsUnlocked"`
	UnlockedIDs          []string               `json:"unlockedIds"`
	FundingIncrease      float64                `json:"fundingIncrease"`
	DimensionalChanges   strength.Breakdown     `json:"dimensionalChanges"`
	Projection           *projection.Projection `json:"projection"`
}

// Options configure a Service. Zero values fall back to defaults.
type Options struct {
	Logger  *zap.Logger
	Clock   func() time.Time
	Checker eligibility.Checker
	Gaps    gaps.Config
}

// Service wires the computation packages together around one eligibility checker.
type Service struct {
	logger    *zap.Logger
	now       func() time.Time
	checker   eligibility.Checker
	scorer    *matching.Scorer
	analyzer  *gaps.Analyzer
	roadmaps  *roadmap.Generator
	projector *projection.Projector
}

func NewService(opts Options) *Service {
	log := logger.WithFields(opts.Logger)
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	checker := opts.Checker
	if checker == nil {
		checker = eligibility.New()
	}

	return &Service{
		logger:    log,
		now:       now,
		checker:   checker,
		scorer:    matching.New(checker),
		analyzer:  gaps.NewAnalyzer(checker, opts.Gaps),
		roadmaps:  roadmap.NewGenerator(now),
		projector: projection.New(checker),
	}
}

// ScoreMatch scores one scholarship.
func (s *Service) ScoreMatch(p *scholarship.Profile, sch *scholarship.Scholarship) (*matching.Score, error) {
	score, err := s.scorer.Score(p, sch)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("match scored",
		append(logger.StudentFields(p.StudentID),
			zap.String("scholarship_id", sch.ID),
			zap.Int("overall", score.Overall),
			zap.String("success_tier", string(score.SuccessTier)),
			zap.String("strategic_value_tier", string(score.StrategicValueTier)),
		)...,
	)
	return score, nil
}

// ScoreCatalog scores every scholarship and orders them by strategic value,
// then overall score, then ID.
func (s *Service) ScoreCatalog(ctx context.Context, p *scholarship.Profile, c *scholarship.Catalog) ([]*matching.Score, error) {
	scores := make([]*matching.Score, 0, c.Len())
	if c == nil {
		return scores, nil
	}
	for _, sch := range c.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, err := s.scorer.Score(p, sch)
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].StrategicValue != scores[j].StrategicValue {
			return scores[i].StrategicValue > scores[j].StrategicValue
		}
		if scores[i].Overall != scores[j].Overall {
			return scores[i].Overall > scores[j].Overall
		}
		return scores[i].ScholarshipID < scores[j].ScholarshipID
	})
	s.logger.Info("catalog scored", append(logger.StudentFields(p.StudentID), zap.Int("scholarships", len(scores)))...)
	return scores, nil
}

// FilterEligibility runs the hard filter for one scholarship.
func (s *Service) FilterEligibility(p *scholarship.Profile, sch *scholarship.Scholarship, opts eligibility.Options) (*eligibility.Result, error) {
	return s.checker.Evaluate(p, sch, opts)
}

// AnalyzeGaps finds gaps, builds the roadmap and projects closing all of them.
func (s *Service) AnalyzeGaps(ctx context.Context, p *scholarship.Profile, c *scholarship.Catalog) (*Analysis, error) {
	started := time.Now()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	log := s.logger.With(logger.StudentFields(p.StudentID)...)

	found, err := s.analyzer.Analyze(p, c)
	if err != nil {
		return nil, fmt.Errorf("analyzing gaps: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rm := s.roadmaps.Generate(found)
	for _, d := range rm.Diagnostics {
		log.Warn("roadmap diagnostic", zap.String("code", d.Code), zap.String("message", d.Message))
	}

	proj, err := s.projector.ProjectGaps(p, found, c)
	if err != nil {
		return nil, fmt.Errorf("projecting profile: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if found == nil {
		found = []gaps.Gap{}
	}
	result := &Analysis{
		StudentID:     p.StudentID,
		Gaps:          found,
		Roadmap:       rm,
		Projection:    proj,
		ImpactSummary: gaps.CalculateImpactSummary(found),
		AnalyzedAt:    s.now(),
	}

	log.Info("gap analysis completed",
		zap.Int("catalog", c.Len()),
		zap.Int("gaps", len(found)),
		zap.Int("unlockable", result.ImpactSummary.ScholarshipsUnlockable),
		zap.Int("total_timeline_months", rm.TotalTimelineMonths),
		zap.Duration("took", time.Since(started)),
	)
	return result, nil
}

// Simulate applies a hypothetical change set.
func (s *Service) Simulate(ctx context.Context, p *scholarship.Profile, changes projection.Changes, c *scholarship.Catalog) (*Simulation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	proj, err := s.projector.ProjectChanges(p, changes, c)
	if err != nil {
		return nil, fmt.Errorf("projecting changes: %w", err)
	}

	sim := &Simulation{
		ProjectedStrength:    proj.ProjectedStrength,
		ScholarshipsUnlocked: len(proj.UnlockedIDs),
		UnlockedIDs:          proj.UnlockedIDs,
		FundingIncrease:      proj.FundingDelta,
		DimensionalChanges:   proj.BreakdownDelta,
		Projection:           proj,
	}
	s.logger.Info("simulation completed",
		append(logger.StudentFields(p.StudentID),
			zap.Int("projected_strength", sim.ProjectedStrength),
			zap.Int("unlocked", sim.ScholarshipsUnlocked),
			zap.Float64("funding_increase", sim.FundingIncrease),
		)...,
	)
	return sim, nil
}
