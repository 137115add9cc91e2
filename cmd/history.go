package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/history"
	"github.com/spigell/scholarpath/internal/logger"
)

var historyCmd = &cobra.Command{
	Use:   "history <student-id>",
	Short: "Compare the two latest saved analyses of a student",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		compareHistory(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Bool("list", false, "list saved analyses instead of comparing")
	historyCmd.Flags().Int("limit", 10, "how many analyses to list")
}

type historyEntry struct {
	ID         string `json:"id"`
	AnalyzedAt string `json:"analyzedAt"`
	Gaps       int    `json:"gaps"`
	Strength   int    `json:"strength"`
}

func compareHistory(cmd *cobra.Command, studentID string) {
	e := setup(context.Background())
	log := e.logger.With(logger.StudentFields(studentID)...)

	store, err := history.Open(e.ctx, e.config.History, log)
	if err != nil {
		log.Fatal("opening history", zap.Error(err))
	}
	defer store.Close()

	if list, _ := cmd.Flags().GetBool("list"); list {
		limit, _ := cmd.Flags().GetInt("limit")
		records, err := store.Latest(e.ctx, studentID, limit)
		if err != nil {
			log.Fatal("reading history", zap.Error(err))
		}
		entries := make([]historyEntry, 0, len(records))
		for _, r := range records {
			entry := historyEntry{ID: r.ID, AnalyzedAt: r.AnalyzedAt.Format("2006-01-02 15:04"), Gaps: len(r.Analysis.Gaps)}
			if r.Analysis.Projection != nil {
				entry.Strength = r.Analysis.Projection.CurrentStrength
			}
			entries = append(entries, entry)
		}
		if err := printJSON(entries); err != nil {
			log.Fatal("printing report", zap.Error(err))
		}
		return
	}

	records, err := store.Latest(e.ctx, studentID, 2)
	if err != nil {
		log.Fatal("reading history", zap.Error(err))
	}
	if len(records) < 2 {
		log.Fatal("need two saved analyses to compare", zap.Int("found", len(records)), zap.String("driver", e.config.History.Driver))
	}

	// Latest is newest first.
	cmp, err := e.service.CompareToHistory(records[1].Analysis, records[0].Analysis)
	if err != nil {
		log.Fatal("comparing analyses", zap.Error(err))
	}

	log.Info("compared analyses",
		zap.Int("closed", len(cmp.ClosedGaps)),
		zap.Int("new", len(cmp.NewGaps)),
		zap.Int("strength_delta", cmp.StrengthDelta),
	)
	if err := printJSON(cmp); err != nil {
		log.Fatal("printing report", zap.Error(err))
	}
}
