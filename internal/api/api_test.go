package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/analysis"
	"github.com/spigell/scholarpath/internal/eligibility"
	"github.com/spigell/scholarpath/internal/history"
	"github.com/spigell/scholarpath/internal/matching"
	"github.com/spigell/scholarpath/internal/scholarship"
)

var analyzedAt = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func testProfile() *scholarship.Profile {
	return &scholarship.Profile{
		StudentID:            "student-42",
		GPA:                  3.3,
		SAT:                  1280,
		State:                "OH",
		Major:                "Engineering",
		VolunteerHours:       40,
		FinancialNeed:        scholarship.NeedModerate,
		CompletionPercentage: 85,
	}
}

func award(id string, amount float64, mutate func(c *scholarship.EligibilityCriteria)) *scholarship.Scholarship {
	c := scholarship.OpenCriteria()
	if mutate != nil {
		mutate(c)
	}
	return &scholarship.Scholarship{ID: id, Name: id, Amount: amount, Criteria: c}
}

func testCatalog() *scholarship.Catalog {
	return scholarship.NewCatalog(
		award("local", 2000, nil),
		award("merit", 20000, func(c *scholarship.EligibilityCriteria) { c.Academic.MinGPA = 3.5 }),
		award("test", 8000, func(c *scholarship.EligibilityCriteria) { c.Academic.MinSAT = 1350 }),
	)
}

func newTestServer(t *testing.T, store history.Store, source CatalogSource) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if source == nil {
		source = func(context.Context) (*scholarship.Catalog, error) { return testCatalog(), nil }
	}
	svc := analysis.NewService(analysis.Options{
		Logger:  zap.NewNop(),
		Clock:   func() time.Time { return analyzedAt },
		Checker: eligibility.New(),
	})
	srv, err := New(Options{
		Logger:   zap.NewNop(),
		Service:  svc,
		Catalog:  source,
		History:  store,
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return srv, srv.Router()
}

func post(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Service: analysis.NewService(analysis.Options{})})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	_, r := newTestServer(t, nil, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestScoreMatch(t *testing.T) {
	_, r := newTestServer(t, nil, nil)

	w := post(t, r, "/v1/match", matchRequest{Profile: testProfile(), Scholarship: award("local", 2000, nil)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var score matching.Score
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &score))
	assert.Equal(t, "local", score.ScholarshipID)
	assert.True(t, score.Eligible)
}

func TestScoreMatchRejectsIncompleteCriteria(t *testing.T) {
	_, r := newTestServer(t, nil, nil)

	broken := award("broken", 1000, nil)
	broken.Criteria.Special = nil
	w := post(t, r, "/v1/match", matchRequest{Profile: testProfile(), Scholarship: broken})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error   string   `json:"error"`
		Field   string   `json:"field"`
		Details []string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "eligibilityCriteria", body.Field)
	assert.Equal(t, []string{"special"}, body.Details)
}

func TestScoreMatchMissingProfile(t *testing.T) {
	_, r := newTestServer(t, nil, nil)

	w := post(t, r, "/v1/match", matchRequest{Scholarship: award("local", 2000, nil)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMalformedBody(t *testing.T) {
	_, r := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/gaps", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestScoreCatalogOrdersByStrategicValue(t *testing.T) {
	_, r := newTestServer(t, nil, nil)

	w := post(t, r, "/v1/match/catalog", catalogRequest{Profile: testProfile()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		StudentID string            `json:"studentId"`
		Scores    []*matching.Score `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "student-42", body.StudentID)
	require.Len(t, body.Scores, 3)
	for i := 1; i < len(body.Scores); i++ {
		assert.GreaterOrEqual(t, body.Scores[i-1].StrategicValue, body.Scores[i].StrategicValue)
	}
}

func TestFilterEligibility(t *testing.T) {
	_, r := newTestServer(t, nil, nil)

	strict := award("strict", 5000, func(c *scholarship.EligibilityCriteria) {
		c.Academic.MinGPA = 3.9
		c.Academic.MinSAT = 1500
	})

	w := post(t, r, "/v1/eligibility", eligibilityRequest{Profile: testProfile(), Scholarship: strict})
	require.Equal(t, http.StatusOK, w.Code)
	var full eligibility.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &full))
	assert.False(t, full.Eligible)
	assert.Len(t, full.FailedCriteria, 2)

	w = post(t, r, "/v1/eligibility", eligibilityRequest{Profile: testProfile(), Scholarship: strict, EarlyExit: true})
	require.Equal(t, http.StatusOK, w.Code)
	var early eligibility.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &early))
	assert.Len(t, early.FailedCriteria, 1)
}

func TestAnalyzeGapsSavesToHistory(t *testing.T) {
	store, err := history.NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)
	srv, r := newTestServer(t, store, nil)

	w := post(t, r, "/v1/gaps", catalogRequest{Profile: testProfile(), Save: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got analysis.Analysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "student-42", got.StudentID)
	assert.Len(t, got.Gaps, 2)

	records, err := store.Latest(context.Background(), "student-42", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Analysis.Gaps, 2)

	mfs, err := srv.registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(mfs))
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "scholarpath_history_records_saved_total")
	assert.Contains(t, names, "scholarpath_http_requests_total")
}

func TestAnalyzeGapsInlineCatalog(t *testing.T) {
	failing := func(context.Context) (*scholarship.Catalog, error) { return nil, errors.New("upstream down") }
	_, r := newTestServer(t, nil, failing)

	w := post(t, r, "/v1/gaps", catalogRequest{Profile: testProfile(), Catalog: scholarship.NewCatalog(award("local", 2000, nil))})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = post(t, r, "/v1/gaps", catalogRequest{Profile: testProfile()})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSimulate(t *testing.T) {
	_, r := newTestServer(t, nil, nil)

	gpa := 3.6
	w := post(t, r, "/v1/simulate", map[string]any{
		"profile": testProfile(),
		"changes": map[string]any{"gpa": gpa},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sim analysis.Simulation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sim))
	assert.Equal(t, 1, sim.ScholarshipsUnlocked)
	assert.Equal(t, []string{"merit"}, sim.UnlockedIDs)
	assert.Equal(t, 20000.0, sim.FundingIncrease)
}

func TestCompareToHistory(t *testing.T) {
	store, err := history.NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)
	_, r := newTestServer(t, store, nil)

	w := post(t, r, "/v1/gaps", catalogRequest{Profile: testProfile(), Save: true})
	require.Equal(t, http.StatusOK, w.Code)

	improved := testProfile()
	improved.GPA = 3.6
	w = post(t, r, "/v1/history/compare", compareRequest{Profile: improved})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cmp analysis.Comparison
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cmp))
	require.Len(t, cmp.ClosedGaps, 1)
	assert.Empty(t, cmp.NewGaps)
	assert.Len(t, cmp.PersistingGaps, 1)
	assert.Equal(t, 1, cmp.MatchesDelta)
}

func TestCompareToHistoryWithoutPrevious(t *testing.T) {
	_, r := newTestServer(t, nil, nil)

	w := post(t, r, "/v1/history/compare", compareRequest{Profile: testProfile()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, err := New(Options{
		Service:           analysis.NewService(analysis.Options{}),
		Catalog:           func(context.Context) (*scholarship.Catalog, error) { return testCatalog(), nil },
		RequestsPerMinute: 1,
	})
	require.NoError(t, err)
	r := srv.Router()

	first := post(t, r, "/v1/match", matchRequest{Profile: testProfile(), Scholarship: award("local", 2000, nil)})
	assert.Equal(t, http.StatusOK, first.Code)

	second := post(t, r, "/v1/match", matchRequest{Profile: testProfile(), Scholarship: award("local", 2000, nil)})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, err := New(Options{
		Service:        analysis.NewService(analysis.Options{}),
		Catalog:        func(context.Context) (*scholarship.Catalog, error) { return testCatalog(), nil },
		AllowedOrigins: []string{"https://counselor.example.org"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://counselor.example.org")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, "https://counselor.example.org", w.Header().Get("Access-Control-Allow-Origin"))
}
