package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/logger"
	"github.com/spigell/scholarpath/internal/projection"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Project the profile after hypothetical changes",
	Example: `  scholarpath simulate --set gpa=3.7 --set volunteerHours=120
  scholarpath simulate --set sat=1400 --set leadershipRoles=2`,
	Run: func(cmd *cobra.Command, _ []string) {
		simulate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().String("student", "", "student id to fetch from the catalog api when no profile file is set")
	simulateCmd.Flags().StringArray("set", nil, "field=value change, repeatable. Fields: "+strings.Join(changeFields, ", "))
}

var changeFields = []string{"gpa", "sat", "act", "volunteerHours", "leadershipRoles", "extracurriculars", "workExperience"}

func simulate(cmd *cobra.Command) {
	e := setup(context.Background())
	studentID, _ := cmd.Flags().GetString("student")
	sets, _ := cmd.Flags().GetStringArray("set")

	changes, err := parseChanges(sets)
	if err != nil {
		e.logger.Fatal("parsing changes", zap.Error(err))
	}
	if changes.Empty() {
		e.logger.Fatal("at least one --set is required")
	}

	profile, err := loadProfile(e.ctx, e.config, e.logger, studentID)
	if err != nil {
		e.logger.Fatal("loading profile", zap.Error(err))
	}
	log := e.logger.With(logger.StudentFields(profile.StudentID)...)

	c, _, err := loadCatalog(e.ctx, e.config, log)
	if err != nil {
		log.Fatal("loading catalog", zap.Error(err))
	}

	sim, err := e.service.Simulate(e.ctx, profile, changes, c)
	if err != nil {
		log.Fatal("simulating changes", zap.Error(err))
	}

	if err := printJSON(sim); err != nil {
		log.Fatal("printing report", zap.Error(err))
	}
}

// parseChanges turns field=value pairs into a change set. Later pairs win.
func parseChanges(pairs []string) (projection.Changes, error) {
	var changes projection.Changes
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return changes, fmt.Errorf("expected field=value, got %q", pair)
		}
		if err := setChange(&changes, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return changes, err
		}
	}
	return changes, nil
}

func setChange(c *projection.Changes, field, value string) error {
	var target **int
	switch strings.ToLower(field) {
	case "gpa":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v < 0 {
			return fmt.Errorf("gpa: invalid value %q", value)
		}
		c.GPA = &v
		return nil
	case "sat":
		target = &c.SAT
	case "act":
		target = &c.ACT
	case "volunteerhours":
		target = &c.VolunteerHours
	case "leadershiproles":
		target = &c.LeadershipRoles
	case "extracurriculars":
		target = &c.Extracurriculars
	case "workexperience":
		target = &c.WorkExperience
	default:
		return fmt.Errorf("unknown field %q (known: %s)", field, strings.Join(changeFields, ", "))
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("%s: invalid value %q", field, value)
	}
	*target = &n
	return nil
}
