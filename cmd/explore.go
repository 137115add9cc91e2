package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/analysis"
	"github.com/spigell/scholarpath/internal/logger"
	"github.com/spigell/scholarpath/internal/projection"
	"github.com/spigell/scholarpath/internal/scholarship"
	"github.com/spigell/scholarpath/internal/utils"
)

const (
	PromptSimulate = "Simulate current changes"
	PromptReset    = "Reset changes"
	PromptRoadmap  = "Show roadmap"
	PromptDone     = "Done"
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Interactively try what-if changes against the catalog",
	Run: func(cmd *cobra.Command, _ []string) {
		explore(cmd)
	},
}

func init() {
	rootCmd.AddCommand(exploreCmd)

	exploreCmd.Flags().String("student", "", "student id to fetch from the catalog api when no profile file is set")
}

// explorer keeps the accumulated change set between prompts.
type explorer struct {
	svc     *analysis.Service
	profile *scholarship.Profile
	catalog *scholarship.Catalog
	changes projection.Changes
	logger  *zap.Logger
}

func explore(cmd *cobra.Command) {
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

	x := &explorer{svc: e.service, profile: profile, catalog: c, logger: log}

	items := append(append([]string{}, changeFields...), PromptSimulate, PromptRoadmap, PromptReset, PromptDone)
	for {
		sel := promptui.Select{
			Label: "Adjust a field or pick an action",
			Items: items,
			Size:  len(items),
		}
		_, action, err := sel.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return
			}
			log.Fatal("exiting", zap.Error(err))
		}

		if err := x.handle(e.ctx, action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			log.Error("action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

var errExit = errors.New("exit requested")

func (x *explorer) handle(ctx context.Context, action string) error {
	switch action {
	case PromptDone:
		return errExit
	case PromptReset:
		x.changes = projection.Changes{}
		x.logger.Info("changes reset")
		return nil
	case PromptSimulate:
		if x.changes.Empty() {
			x.logger.Info("no changes yet, pick a field first")
			return nil
		}
		sim, err := x.svc.Simulate(ctx, x.profile, x.changes, x.catalog)
		if err != nil {
			return err
		}
		fmt.Println(simulationSummary(sim))
		for _, id := range sim.UnlockedIDs {
			if s := x.catalog.FindByID(id); s != nil {
				fmt.Printf("  + %s (%s)\n", s.Name, utils.Money(s.Amount))
			}
		}
		return nil
	case PromptRoadmap:
		result, err := x.svc.AnalyzeGaps(ctx, projection.Apply(x.profile, x.changes), x.catalog)
		if err != nil {
			return err
		}
		for i, r := range result.Roadmap.RecommendedSequence {
			fmt.Printf("%d. [%s] %s (%s)\n", i+1, r.Gap.Achievability.Label(), r.Recommendation, r.Timeline)
		}
		return nil
	}

	value := promptui.Prompt{
		Label: action,
		Validate: func(input string) error {
			var probe projection.Changes
			return setChange(&probe, action, input)
		},
	}
	input, err := value.Run()
	if err != nil {
		return err
	}
	return setChange(&x.changes, action, input)
}

func simulationSummary(sim *analysis.Simulation) string {
	return fmt.Sprintf("strength %d -> %d, matches %+d (%d unlocked), funding %s",
		sim.Projection.CurrentStrength, sim.ProjectedStrength, sim.Projection.MatchesDelta,
		sim.ScholarshipsUnlocked, utils.SignedMoney(sim.FundingIncrease))
}
