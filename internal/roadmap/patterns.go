package roadmap

import (
	"fmt"
	"strings"

	"github.com/spigell/scholarpath/internal/gaps"
	"github.com/spigell/scholarpath/internal/scholarship"
)

// Resource is a curated link attached to a recommendation.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type pattern struct {
	category     scholarship.Category
	contains     string
	advice       func(g gaps.Gap) (string, []string)
	resources    []Resource
	dependencies []string
}

func (p pattern) matches(g gaps.Gap) bool {
	return g.Category == p.category && strings.Contains(strings.ToLower(g.Requirement), strings.ToLower(p.contains))
}

var patterns = []pattern{
	{
		category: scholarship.CategoryAcademic,
		contains: "GPA",
		advice: func(g gaps.Gap) (string, []string) {
			return fmt.Sprintf("Raise your GPA from %s to %s", g.FormatValue(g.CurrentValue), g.FormatValue(g.TargetValue)),
				[]string{
					"Identify the courses with the most room for improvement",
					"Meet with teachers to agree on a grade improvement plan",
					"Schedule weekly tutoring or study group sessions",
					"Track assignment grades every two weeks",
				}
		},
		resources: []Resource{
			{Title: "Khan Academy", URL: "https://www.khanacademy.org"},
			{Title: "Study skills guide", URL: "https://bigfuture.collegeboard.org/plan-for-college/get-started/study-skills"},
		},
	},
	{
		category: scholarship.CategoryAcademic,
		contains: "SAT",
		advice: func(g gaps.Gap) (string, []string) {
			return fmt.Sprintf("Improve your SAT score by %s points to reach %s", g.FormatValue(g.GapSize), g.FormatValue(g.TargetValue)),
				[]string{
					"Take a full-length practice test to find weak sections",
					"Follow a personalized practice plan three times a week",
					"Retake a practice test every month to measure progress",
					"Register for the next official test date",
				}
		},
		resources: []Resource{
			{Title: "Official SAT practice", URL: "https://satsuite.collegeboard.org/sat/practice-preparation"},
			{Title: "Khan Academy SAT prep", URL: "https://www.khanacademy.org/test-prep/sat"},
		},
	},
	{
		category: scholarship.CategoryAcademic,
		contains: "ACT",
		advice: func(g gaps.Gap) (string, []string) {
			return fmt.Sprintf("Improve your ACT composite by %s points to reach %s", g.FormatValue(g.GapSize), g.FormatValue(g.TargetValue)),
				[]string{
					"Take a timed practice ACT to set a baseline",
					"Focus practice on the two lowest-scoring sections",
					"Work through one timed section per week",
					"Register for the next official test date",
				}
		},
		resources: []Resource{
			{Title: "ACT Academy", URL: "https://www.act.org/content/act/en/products-and-services/the-act/test-preparation.html"},
		},
	},
	{
		category: scholarship.CategoryExperience,
		contains: "Volunteer",
		advice: func(g gaps.Gap) (string, []string) {
			return fmt.Sprintf("Log %s more volunteer hours", g.FormatValue(g.GapSize)),
				[]string{
					"Pick a cause related to your intended major",
					"Commit to a regular schedule of about 4 hours per week",
					"Record hours with a supervisor signature after each session",
				}
		},
		resources: []Resource{
			{Title: "VolunteerMatch", URL: "https://www.volunteermatch.org"},
			{Title: "DoSomething", URL: "https://www.dosomething.org"},
		},
	},
	{
		category: scholarship.CategoryExperience,
		contains: "Leadership",
		advice: func(g gaps.Gap) (string, []string) {
			roles := "role"
			if g.GapSize != 1 {
				roles = "roles"
			}
			return fmt.Sprintf("Take on %s more leadership %s", g.FormatValue(g.GapSize), roles),
				[]string{
					"Talk to club advisors about open officer positions",
					"Volunteer to lead a project or event within a current activity",
					"Run for an officer position in the next election cycle",
				}
		},
		resources: []Resource{
			{Title: "Student leadership ideas", URL: "https://www.nshss.org/blog/student-leadership"},
		},
		dependencies: []string{"Requires active membership in a club or organization"},
	},
}

func defaultAdvice(g gaps.Gap) (string, []string) {
	return fmt.Sprintf("Close the %s gap: reach %s (currently %s)", strings.ToLower(g.Requirement), g.FormatValue(g.TargetValue), g.FormatValue(g.CurrentValue)),
		[]string{
			"Review the requirement with a school counselor",
			"Break the target into monthly milestones",
			"Check progress at the end of every month",
		}
}

func match(g gaps.Gap) (pattern, bool) {
	for _, p := range patterns {
		if p.matches(g) {
			return p, true
		}
	}
	return pattern{}, false
}
