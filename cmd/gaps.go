package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/ai"
	"github.com/spigell/scholarpath/internal/analysis"
	"github.com/spigell/scholarpath/internal/catalog"
	"github.com/spigell/scholarpath/internal/filtering"
	"github.com/spigell/scholarpath/internal/gaps"
	"github.com/spigell/scholarpath/internal/history"
	"github.com/spigell/scholarpath/internal/logger"
	"github.com/spigell/scholarpath/internal/scholarship"
)

const reasonLongTermOnly = "blocked only by long-term gaps"

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Find the gaps between the profile and high-value scholarships and build a roadmap",
	Run: func(cmd *cobra.Command, _ []string) {
		runGaps(cmd)
	},
}

func init() {
	rootCmd.AddCommand(gapsCmd)

	gapsCmd.Flags().String("student", "", "student id to fetch from the catalog api when no profile file is set")
	gapsCmd.Flags().Bool("ai", false, "ask the ai advisor for a short summary of the roadmap")
	gapsCmd.Flags().Bool("dump", false, "also write the analysis to a temp file")
	gapsCmd.Flags().Bool("no-save", false, "do not save the analysis to history")
	gapsCmd.Flags().Bool("exclude-unreachable", false, "append scholarships blocked only by long-term gaps to the exclude file")
}

type gapsReport struct {
	Filters  []filtering.Step   `json:"filters"`
	Analysis *analysis.Analysis `json:"analysis"`
	Advice   *ai.Advice         `json:"advice,omitempty"`
}

func runGaps(cmd *cobra.Command) {
	e := setup(context.Background())
	studentID, _ := cmd.Flags().GetString("student")

	profile, err := loadProfile(e.ctx, e.config, e.logger, studentID)
	if err != nil {
		e.logger.Fatal("loading profile", zap.Error(err))
	}
	log := e.logger.With(logger.StudentFields(profile.StudentID)...)

	c, steps, err := loadCatalog(e.ctx, e.config, log)
	if err != nil {
		log.Fatal("loading catalog", zap.Error(err))
	}

	result, err := e.service.AnalyzeGaps(e.ctx, profile, c)
	if err != nil {
		log.Fatal("analyzing gaps", zap.Error(err))
	}
	report := gapsReport{Filters: steps, Analysis: result}

	if noSave, _ := cmd.Flags().GetBool("no-save"); !noSave {
		saveHistory(e, result, log)
	}

	if useAI, _ := cmd.Flags().GetBool("ai"); useAI || (e.config.AI != nil && e.config.AI.Enabled) {
		report.Advice = advise(e, result, log)
	}

	if exclude, _ := cmd.Flags().GetBool("exclude-unreachable"); exclude {
		if err := excludeUnreachable(e.config.ExcludeFile, c, result.Gaps, log); err != nil {
			log.Fatal("updating exclude file", zap.Error(err))
		}
	}

	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		path, err := dumpToTmpFile("scholarpath-analysis-*.json", report)
		if err != nil {
			log.Fatal("dumping analysis", zap.Error(err))
		}
		log.Info("analysis dumped", zap.String("path", path))
	}

	if err := printJSON(report); err != nil {
		log.Fatal("printing report", zap.Error(err))
	}
}

func saveHistory(e *env, result *analysis.Analysis, log *zap.Logger) {
	store, err := history.Open(e.ctx, e.config.History, log)
	if err != nil {
		log.Warn("history is unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	record := history.NewRecord(result)
	if err := store.Save(e.ctx, record); err != nil {
		log.Warn("saving analysis to history", zap.Error(err))
		return
	}
	log.Debug("analysis saved", zap.String("record_id", record.ID), zap.String("driver", e.config.History.Driver))
}

// advise never fails the command. Advisor errors are logged and the report
// goes out without advice.
func advise(e *env, result *analysis.Analysis, log *zap.Logger) *ai.Advice {
	cfg := e.config.AI
	if cfg == nil {
		cfg = &AIConfig{}
	}
	enabled := *cfg
	enabled.Enabled = true

	advisor, err := newAdvisor(e.ctx, &enabled, log)
	if err != nil {
		log.Warn("skipping ai advisor", zap.Error(err))
		return nil
	}

	ctx, cancel := withTimeout(e.ctx, cfg.Timeout)
	defer cancel()

	advice, err := advisor.Advise(ctx, result)
	if err != nil {
		log.Warn("ai advisor failed", zap.Error(err))
		return nil
	}
	return advice
}

func excludeUnreachable(path string, c *scholarship.Catalog, found []gaps.Gap, log *zap.Logger) error {
	if path == "" {
		log.Warn("exclude-file is not set, nothing to update")
		return nil
	}

	ids := gaps.LongTermOnly(found)
	if len(ids) == 0 {
		log.Info("no scholarships blocked only by long-term gaps")
		return nil
	}

	items := make([]*scholarship.Scholarship, 0, len(ids))
	for _, id := range ids {
		if s := c.FindByID(id); s != nil {
			items = append(items, s)
		}
	}

	excluded, err := catalog.ReadExclusions(path)
	if err != nil {
		return err
	}
	added := excluded.Append(catalog.ExclusionsFrom(items, reasonLongTermOnly, time.Now()))
	if err := excluded.ToFile(path); err != nil {
		return err
	}

	log.Info("exclude file updated", zap.String("path", path), zap.Int("added", added), zap.Strings("scholarships", ids))
	return nil
}
