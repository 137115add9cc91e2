// Package ai describes the optional advisor that turns a finished gap analysis
// into a short personalised summary.
package ai

import (
	"context"

	"github.com/spigell/scholarpath/internal/analysis"
)

// Advice is the advisor's reply. Raw keeps the unparsed model output.
type Advice struct {
	Summary       string   `json:"summary"`
	Focus         []string `json:"focus"`
	Encouragement string   `json:"encouragement"`
	Raw           string   `json:"-"`
}

type Advisor interface {
	Advise(ctx context.Context, a *analysis.Analysis) (*Advice, error)
}
