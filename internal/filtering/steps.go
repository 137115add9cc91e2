package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/catalog"
	"github.com/spigell/scholarpath/internal/scholarship"
)

type deadlineFilter struct {
	toggle
}

// NewDeadline creates a filter that removes scholarships whose deadline passed.
// Scholarships without a deadline are kept.
func NewDeadline() Filter {
	return &deadlineFilter{}
}

func (f *deadlineFilter) Name() string { return "deadline" }

func (f *deadlineFilter) Validate(cfg *Config) error {
	if cfg != nil && !cfg.SkipExpired {
		f.Disable("skip-expired is off")
	}
	return nil
}

func (f *deadlineFilter) Apply(_ context.Context, deps Deps, c *scholarship.Catalog) (*scholarship.Catalog, Step, error) {
	initial := c.Len()
	now := deps.now()

	var expired []string
	kept := c.Filter(func(s *scholarship.Scholarship) bool {
		if !s.Deadline.IsZero() && s.Deadline.Before(now) {
			expired = append(expired, s.ID)
			return false
		}
		return true
	})
	if deps.Logger != nil && len(expired) > 0 {
		deps.Logger.Info("excluding scholarships with passed deadline",
			zap.Strings("excluded_scholarships", expired),
			zap.Int("scholarships_left", kept.Len()),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(expired), Left: kept.Len()}, nil
}

func (f *deadlineFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type minimumAmountFilter struct {
	toggle
	min float64
}

// NewMinimumAmount creates a filter that removes awards below the configured amount.
func NewMinimumAmount() Filter {
	return &minimumAmountFilter{}
}

func (f *minimumAmountFilter) Name() string { return "minimum_amount" }

func (f *minimumAmountFilter) Validate(cfg *Config) error {
	f.min = 0
	if cfg != nil {
		f.min = cfg.MinAmount
	}
	if f.min < 0 {
		return fmt.Errorf("minimum amount must not be negative: %g", f.min)
	}
	return nil
}

func (f *minimumAmountFilter) Apply(_ context.Context, deps Deps, c *scholarship.Catalog) (*scholarship.Catalog, Step, error) {
	initial := c.Len()
	if f.min == 0 {
		return c, Step{Initial: initial, Left: initial}, nil
	}
	kept := c.Filter(func(s *scholarship.Scholarship) bool { return s.Amount >= f.min })
	if deps.Logger != nil && kept.Len() < initial {
		deps.Logger.Info("excluding small awards",
			zap.Float64("min_amount", f.min),
			zap.Int("scholarships_left", kept.Len()),
		)
	}
	return kept, Step{Initial: initial, Dropped: initial - kept.Len(), Left: kept.Len()}, nil
}

func (f *minimumAmountFilter) Status() Status {
	details := map[string]string{}
	if f.min > 0 {
		details["min_amount"] = strconv.FormatFloat(f.min, 'f', 0, 64)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type providersFilter struct {
	toggle
	providers []string
}

// NewProviders creates a filter that removes scholarships by providers configured in the config.
func NewProviders() Filter {
	return &providersFilter{}
}

func (f *providersFilter) Name() string { return "providers" }

func (f *providersFilter) Validate(cfg *Config) error {
	f.providers = nil
	if cfg != nil {
		f.providers = append(f.providers, cfg.ExcludedProviders...)
	}
	return nil
}

func (f *providersFilter) Apply(_ context.Context, deps Deps, c *scholarship.Catalog) (*scholarship.Catalog, Step, error) {
	initial := c.Len()
	if len(f.providers) == 0 {
		return c, Step{Initial: initial, Left: initial}, nil
	}

	var excluded []string
	kept := c.Filter(func(s *scholarship.Scholarship) bool {
		for _, p := range f.providers {
			if strings.EqualFold(strings.TrimSpace(p), s.Provider) {
				excluded = append(excluded, s.ID)
				return false
			}
		}
		return true
	})
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding scholarships by providers",
			zap.Strings("excluded_providers", f.providers),
			zap.Strings("excluded_scholarships", excluded),
			zap.Int("scholarships_left", kept.Len()),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(excluded), Left: kept.Len()}, nil
}

func (f *providersFilter) Status() Status {
	details := map[string]string{}
	if len(f.providers) > 0 {
		details["providers"] = strings.Join(f.providers, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

// listFilter drops scholarships listed in an exclusions file.
type listFilter struct {
	toggle
	name    string
	message string
	path    string
	pathOf  func(*Config) string
}

// NewExcludeFile creates a filter that removes scholarships contained in the exclude file.
func NewExcludeFile() Filter {
	return &listFilter{
		name:    "exclude_file",
		message: "excluding scholarships based on exclude file",
		pathOf:  func(cfg *Config) string { return cfg.ExcludeFile },
	}
}

// NewAppliedHistory creates a filter that removes scholarships the student already applied to.
func NewAppliedHistory() Filter {
	return &listFilter{
		name:    "applied_history",
		message: "excluding scholarships already applied to",
		pathOf:  func(cfg *Config) string { return cfg.AppliedFile },
	}
}

func (f *listFilter) Name() string { return f.name }

func (f *listFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(f.pathOf(cfg))
	}
	return nil
}

func (f *listFilter) Apply(_ context.Context, deps Deps, c *scholarship.Catalog) (*scholarship.Catalog, Step, error) {
	initial := c.Len()
	if f.path == "" {
		return c, Step{Initial: initial, Left: initial}, nil
	}

	listed, err := catalog.ReadExclusions(f.path)
	if err != nil {
		return c, Step{}, fmt.Errorf("reading %s: %w", f.path, err)
	}

	kept := c.Filter(func(*scholarship.Scholarship) bool { return true })
	removed := kept.Exclude(listed.IDs())
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info(f.message,
			zap.String("path", f.path),
			zap.Strings("excluded_scholarships", removed),
			zap.Int("scholarships_left", kept.Len()),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(removed), Left: kept.Len()}, nil
}

func (f *listFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
