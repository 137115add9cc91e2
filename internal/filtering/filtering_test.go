package filtering

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/spigell/scholarpath/internal/catalog"
	"github.com/spigell/scholarpath/internal/scholarship"
)

var now = time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

func testCatalog() *scholarship.Catalog {
	return scholarship.NewCatalog(
		&scholarship.Scholarship{ID: "expired", Provider: "Acme", Amount: 5000, Deadline: now.AddDate(0, 0, -1), Criteria: scholarship.OpenCriteria()},
		&scholarship.Scholarship{ID: "open", Provider: "Acme", Amount: 500, Deadline: now.AddDate(0, 1, 0), Criteria: scholarship.OpenCriteria()},
		&scholarship.Scholarship{ID: "rolling", Provider: "Globex", Amount: 2500, Criteria: scholarship.OpenCriteria()},
		&scholarship.Scholarship{ID: "applied", Provider: "Initech", Amount: 8000, Criteria: scholarship.OpenCriteria()},
	)
}

func writeList(t *testing.T, ids ...string) string {
	t.Helper()
	items := make([]*scholarship.Scholarship, 0, len(ids))
	for _, id := range ids {
		items = append(items, &scholarship.Scholarship{ID: id})
	}
	path := filepath.Join(t.TempDir(), "list.json")
	require.NoError(t, catalog.ExclusionsFrom(items, "test", now).ToFile(path))
	return path
}

func deps(t *testing.T) Deps {
	return Deps{Logger: zaptest.NewLogger(t), Clock: func() time.Time { return now }}
}

func TestRunDefaultPipeline(t *testing.T) {
	cfg := &Config{
		SkipExpired:       true,
		MinAmount:         1000,
		ExcludedProviders: []string{"globex"},
		AppliedFile:       writeList(t, "applied"),
	}

	in := testCatalog()
	out, steps, err := Run(context.Background(), cfg, deps(t), Default(), in)
	require.NoError(t, err)

	assert.Empty(t, out.IDs())
	assert.Equal(t, 4, in.Len(), "input catalog must not be modified")
	assert.Equal(t, []Step{
		{Name: "deadline", Initial: 4, Dropped: 1, Left: 3},
		{Name: "minimum_amount", Initial: 3, Dropped: 1, Left: 2},
		{Name: "providers", Initial: 2, Dropped: 1, Left: 1},
		{Name: "exclude_file", Initial: 1, Dropped: 0, Left: 1},
		{Name: "applied_history", Initial: 1, Dropped: 1, Left: 0},
	}, steps)
}

func TestDeadlineDisabledWithoutSkipExpired(t *testing.T) {
	filters := Default()
	out, steps, err := Run(context.Background(), &Config{}, deps(t), filters, testCatalog())
	require.NoError(t, err)

	assert.Equal(t, []string{"expired", "open", "rolling", "applied"}, out.IDs())
	assert.Len(t, steps, 4)

	status := Describe(filters)[0]
	assert.Equal(t, "deadline", status.Name)
	assert.False(t, status.Enabled)
	assert.Equal(t, "skip-expired is off", status.Reason)
}

func TestExcludeFile(t *testing.T) {
	cfg := &Config{ExcludeFile: writeList(t, "open", "unknown")}
	out, steps, err := Run(context.Background(), cfg, Deps{}, []Filter{NewExcludeFile()}, testCatalog())
	require.NoError(t, err)
	assert.Equal(t, []string{"expired", "rolling", "applied"}, out.IDs())
	assert.Equal(t, 1, steps[0].Dropped)
}

func TestExcludeFileMissingIsEmpty(t *testing.T) {
	cfg := &Config{ExcludeFile: filepath.Join(t.TempDir(), "absent.json")}
	out, _, err := Run(context.Background(), cfg, Deps{}, []Filter{NewExcludeFile()}, testCatalog())
	require.NoError(t, err)
	assert.Equal(t, 4, out.Len())
}

func TestDisableByName(t *testing.T) {
	filters := Default()
	DisableByName(filters, "applied_history", "forced")

	cfg := &Config{AppliedFile: writeList(t, "applied")}
	out, steps, err := Run(context.Background(), cfg, Deps{Logger: zap.NewNop()}, filters, testCatalog())
	require.NoError(t, err)
	assert.Contains(t, out.IDs(), "applied")
	for _, s := range steps {
		assert.NotEqual(t, "applied_history", s.Name)
	}

	statuses := Describe(filters)
	last := statuses[len(statuses)-1]
	assert.False(t, last.Enabled)
	assert.Equal(t, "forced", last.Reason)
}

func TestRunValidationError(t *testing.T) {
	_, _, err := Run(context.Background(), &Config{MinAmount: -5}, Deps{}, Default(), testCatalog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum_amount")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Run(ctx, &Config{}, Deps{}, Default(), testCatalog())
	assert.ErrorIs(t, err, context.Canceled)
}
