package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/ai"
	"github.com/spigell/scholarpath/internal/ai/gemini"
	"github.com/spigell/scholarpath/internal/analysis"
	"github.com/spigell/scholarpath/internal/catalog"
	"github.com/spigell/scholarpath/internal/eligibility"
	"github.com/spigell/scholarpath/internal/filtering"
	"github.com/spigell/scholarpath/internal/gaps"
	"github.com/spigell/scholarpath/internal/logger"
	"github.com/spigell/scholarpath/internal/scholarship"
	"github.com/spigell/scholarpath/internal/secrets"
)

// env is the common startup state of every analysis command.
type env struct {
	ctx     context.Context
	logger  *zap.Logger
	config  *Config
	service *analysis.Service
}

// setup builds the logger, config and analysis service. Logs go to stderr so
// stdout carries only the JSON report.
func setup(ctx context.Context) *env {
	lg, err := logger.NewStderr(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		lg.Fatal("getting a config", zap.Error(err))
	}

	lg.Debug("starting", zap.String("app", app), zap.String("version", version))

	return &env{
		ctx:     ctx,
		logger:  lg,
		config:  config,
		service: newService(config, lg),
	}
}

func newService(config *Config, lg *zap.Logger) *analysis.Service {
	return analysis.NewService(analysis.Options{
		Logger:  lg,
		Checker: eligibility.New(),
		Gaps: gaps.Config{
			HighValueThreshold: config.Analysis.HighValueThreshold,
			MaxCandidates:      config.Analysis.MaxReachCandidates,
		},
	})
}

// loadProfile reads the profile from the configured file, or from the catalog
// API when only a student ID is given.
func loadProfile(ctx context.Context, config *Config, lg *zap.Logger, studentID string) (*scholarship.Profile, error) {
	if config.Profile != "" {
		return catalog.LoadProfileFile(config.Profile)
	}
	if studentID != "" && config.Catalog.URL != "" {
		client, err := newCatalogClient(config, lg)
		if err != nil {
			return nil, err
		}
		return client.FetchProfile(ctx, studentID)
	}
	return nil, errors.New("profile is required (set profile or pass --student with catalog.url)")
}

// loadCatalog reads the catalog and runs the pre-filter pipeline over it.
func loadCatalog(ctx context.Context, config *Config, lg *zap.Logger) (*scholarship.Catalog, []filtering.Step, error) {
	c, err := readCatalog(ctx, config, lg)
	if err != nil {
		return nil, nil, err
	}
	lg.Info("catalog loaded", zap.Int("count", c.Len()))

	steps := filtering.Default()
	if config.ExcludeFile == "" {
		filtering.DisableByName(steps, "exclude_file", "exclude-file is not set")
	}
	if config.AppliedFile == "" {
		filtering.DisableByName(steps, "applied_history", "applied-file is not set")
	}
	if config.MinAmount == 0 {
		filtering.DisableByName(steps, "minimum_amount", "min-amount is not set")
	}
	if len(config.ExcludedProviders) == 0 {
		filtering.DisableByName(steps, "providers", "excluded-providers is not set")
	}

	filtered, report, err := filtering.Run(ctx, &filtering.Config{
		ExcludeFile:       config.ExcludeFile,
		AppliedFile:       config.AppliedFile,
		SkipExpired:       config.SkipExpired,
		MinAmount:         config.MinAmount,
		ExcludedProviders: config.ExcludedProviders,
	}, filtering.Deps{Logger: lg}, steps, c)
	if err != nil {
		return nil, nil, fmt.Errorf("filtering catalog: %w", err)
	}

	return filtered, report, nil
}

func readCatalog(ctx context.Context, config *Config, lg *zap.Logger) (*scholarship.Catalog, error) {
	cc := config.Catalog
	switch {
	case cc.File != "":
		return catalog.LoadCatalogFile(cc.File)
	case cc.URL != "":
		client, err := newCatalogClient(config, lg)
		if err != nil {
			return nil, err
		}
		return client.FetchCatalog(ctx, &catalog.Query{State: cc.State, PerPage: cc.PerPage})
	default:
		return nil, errors.New("catalog is required (set catalog.file or catalog.url)")
	}
}

func newCatalogClient(config *Config, lg *zap.Logger) (*catalog.Client, error) {
	cc := config.Catalog
	token := ""
	if cc.Token != "" || cc.TokenFile != "" || os.Getenv(envPrefix+"_CATALOG_TOKEN") != "" {
		var err error
		token, err = secrets.Load(secrets.Source{
			Name:  "catalog token",
			Value: cc.Token,
			File:  cc.TokenFile,
			Env:   envPrefix + "_CATALOG_TOKEN",
		})
		if err != nil {
			return nil, err
		}
	}
	return catalog.NewClient(lg, cc.URL, token), nil
}

// newAdvisor returns nil when the advisor is disabled.
func newAdvisor(ctx context.Context, cfg *AIConfig, lg *zap.Logger) (ai.Advisor, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	aiLogger := logger.WithAIFields(lg, gemini.Provider, cfg.Gemini.Model)
	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, aiLogger)
	if err != nil {
		return nil, err
	}

	advisor := gemini.NewAdvisor(generator, cfg.Gemini.MaxLogLength, aiLogger)
	if p := cfg.Gemini.Prompt; p != nil {
		advisor.SetPromptOverrides(gemini.PromptOverrides{
			Tone:             p.Tone,
			ExtraCriteria:    p.ExtraCriteria,
			UserInstructions: p.UserInstructions,
		})
	}
	return advisor, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// dumpToTmpFile writes v as JSON into a new temp file and returns its path.
func dumpToTmpFile(pattern string, v any) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
