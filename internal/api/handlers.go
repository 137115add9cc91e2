package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/analysis"
	"github.com/spigell/scholarpath/internal/eligibility"
	"github.com/spigell/scholarpath/internal/history"
	"github.com/spigell/scholarpath/internal/projection"
	"github.com/spigell/scholarpath/internal/scholarship"
)

type matchRequest struct {
	Profile     *scholarship.Profile     `json:"profile"`
	Scholarship *scholarship.Scholarship `json:"scholarship"`
}

type eligibilityRequest struct {
	Profile     *scholarship.Profile     `json:"profile"`
	Scholarship *scholarship.Scholarship `json:"scholarship"`
	EarlyExit   bool                     `json:"earlyExit"`
}

// catalogRequest evaluates the profile against the inline catalog when given,
// otherwise against the configured source.
type catalogRequest struct {
	Profile *scholarship.Profile `json:"profile"`
	Catalog *scholarship.Catalog `json:"catalog,omitempty"`
	Save    bool                 `json:"save"`
}

type simulateRequest struct {
	Profile *scholarship.Profile `json:"profile"`
	Catalog *scholarship.Catalog `json:"catalog,omitempty"`
	Changes projection.Changes   `json:"changes"`
}

// compareRequest diffs two analyses. A missing previous side is loaded from
// history. A missing current side is computed from the profile.
type compareRequest struct {
	StudentID string               `json:"studentId"`
	Previous  *analysis.Analysis   `json:"previous,omitempty"`
	Current   *analysis.Analysis   `json:"current,omitempty"`
	Profile   *scholarship.Profile `json:"profile,omitempty"`
}

func (s *Server) scoreMatch(c *gin.Context) {
	var req matchRequest
	if !s.bind(c, &req) {
		return
	}
	if err := req.Profile.Validate(); err != nil {
		s.fail(c, err)
		return
	}
	score, err := s.svc.ScoreMatch(req.Profile, req.Scholarship)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}

func (s *Server) scoreCatalog(c *gin.Context) {
	var req catalogRequest
	if !s.bind(c, &req) {
		return
	}
	if err := req.Profile.Validate(); err != nil {
		s.fail(c, err)
		return
	}
	cat, ok := s.resolveCatalog(c, req.Catalog)
	if !ok {
		return
	}
	scores, err := s.svc.ScoreCatalog(c.Request.Context(), req.Profile, cat)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"studentId": req.Profile.StudentID, "scores": scores})
}

func (s *Server) filterEligibility(c *gin.Context) {
	var req eligibilityRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.svc.FilterEligibility(req.Profile, req.Scholarship, eligibility.Options{EarlyExit: req.EarlyExit})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) analyzeGaps(c *gin.Context) {
	var req catalogRequest
	if !s.bind(c, &req) {
		return
	}
	cat, ok := s.resolveCatalog(c, req.Catalog)
	if !ok {
		return
	}
	result, err := s.svc.AnalyzeGaps(c.Request.Context(), req.Profile, cat)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.gapsFound.Observe(float64(len(result.Gaps)))
	s.metrics.unlockable.Observe(float64(result.ImpactSummary.ScholarshipsUnlockable))

	if req.Save {
		if err := s.history.Save(c.Request.Context(), history.NewRecord(result)); err != nil {
			s.fail(c, err)
			return
		}
		s.metrics.historySaved.Inc()
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) simulate(c *gin.Context) {
	var req simulateRequest
	if !s.bind(c, &req) {
		return
	}
	if err := req.Profile.Validate(); err != nil {
		s.fail(c, err)
		return
	}
	cat, ok := s.resolveCatalog(c, req.Catalog)
	if !ok {
		return
	}
	sim, err := s.svc.Simulate(c.Request.Context(), req.Profile, req.Changes, cat)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sim)
}

func (s *Server) compareToHistory(c *gin.Context) {
	var req compareRequest
	if !s.bind(c, &req) {
		return
	}
	ctx := c.Request.Context()

	current := req.Current
	if current == nil && req.Profile != nil {
		cat, ok := s.resolveCatalog(c, nil)
		if !ok {
			return
		}
		fresh, err := s.svc.AnalyzeGaps(ctx, req.Profile, cat)
		if err != nil {
			s.fail(c, err)
			return
		}
		current = fresh
	}

	previous := req.Previous
	if previous == nil {
		studentID := req.StudentID
		if studentID == "" && current != nil {
			studentID = current.StudentID
		}
		if studentID != "" {
			records, err := s.history.Latest(ctx, studentID, 1)
			if err != nil {
				s.fail(c, err)
				return
			}
			if len(records) > 0 {
				previous = records[0].Analysis
			}
		}
	}

	cmp, err := s.svc.CompareToHistory(previous, current)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func (s *Server) resolveCatalog(c *gin.Context, inline *scholarship.Catalog) (*scholarship.Catalog, bool) {
	if inline != nil {
		if err := inline.Validate(); err != nil {
			s.fail(c, err)
			return nil, false
		}
		return inline, true
	}
	cat, err := s.catalog(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to load catalog", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
		return nil, false
	}
	return cat, true
}

func (s *Server) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": []string{err.Error()}})
		return false
	}
	return true
}

func (s *Server) fail(c *gin.Context, err error) {
	var verr *scholarship.ValidationError
	switch {
	case errors.As(err, &verr):
		details := verr.Details
		if details == nil {
			details = []string{}
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field, "details": details})
	case errors.Is(err, analysis.ErrMissingAnalysis):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
