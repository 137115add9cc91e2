package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/eligibility"
	"github.com/spigell/scholarpath/internal/logger"
	"github.com/spigell/scholarpath/internal/matching"
)

var matchCmd = &cobra.Command{
	Use:   "match [scholarship-id]",
	Short: "Score the catalog against the profile, ordered by strategic value",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		match(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("student", "", "student id to fetch from the catalog api when no profile file is set")
	matchCmd.Flags().Bool("eligible-only", false, "print only scholarships the profile is eligible for")
	matchCmd.Flags().Bool("early-exit", false, "with a scholarship id, stop the eligibility check at the first failed criterion")
}

type matchReport struct {
	StudentID string              `json:"studentId"`
	Scores    []*matching.Score   `json:"scores,omitempty"`
	Score     *matching.Score     `json:"score,omitempty"`
	Result    *eligibility.Result `json:"eligibility,omitempty"`
}

func match(cmd *cobra.Command, args []string) {
	e := setup(context.Background())
	studentID, _ := cmd.Flags().GetString("student")

	profile, err := loadProfile(e.ctx, e.config, e.logger, studentID)
	if err != nil {
		e.logger.Fatal("loading profile", zap.Error(err))
	}
	log := e.logger.With(logger.StudentFields(profile.StudentID)...)

	c, _, err := loadCatalog(e.ctx, e.config, log)
	if err != nil {
		log.Fatal("loading catalog", zap.Error(err))
	}

	report := matchReport{StudentID: profile.StudentID}

	if len(args) == 1 {
		sch := c.FindByID(args[0])
		if sch == nil {
			log.Fatal("scholarship not found in catalog", zap.String(logger.FieldScholarship, args[0]))
		}
		earlyExit, _ := cmd.Flags().GetBool("early-exit")
		if report.Result, err = e.service.FilterEligibility(profile, sch, eligibility.Options{EarlyExit: earlyExit}); err != nil {
			log.Fatal("checking eligibility", zap.Error(err))
		}
		if report.Score, err = e.service.ScoreMatch(profile, sch); err != nil {
			log.Fatal("scoring match", zap.Error(err))
		}
	} else {
		scores, err := e.service.ScoreCatalog(e.ctx, profile, c)
		if err != nil {
			log.Fatal("scoring catalog", zap.Error(err))
		}
		if eligibleOnly, _ := cmd.Flags().GetBool("eligible-only"); eligibleOnly {
			kept := scores[:0]
			for _, s := range scores {
				if s.Eligible {
					kept = append(kept, s)
				}
			}
			scores = kept
		}
		report.Scores = scores
		log.Info("scored scholarships", zap.Int("count", len(scores)))
	}

	if err := printJSON(report); err != nil {
		log.Fatal("printing report", zap.Error(err))
	}
}
