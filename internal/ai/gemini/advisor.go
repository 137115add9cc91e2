package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/ai"
	"github.com/spigell/scholarpath/internal/analysis"
	"github.com/spigell/scholarpath/internal/logger"
	"github.com/spigell/scholarpath/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength     = 200
	defaultTone             = "Friendly"
	maxUserInstructionRunes = 400
	maxFocusItems           = 3
)

// PromptOverrides customise the system prompt. Every value is sanitised
// before it reaches the model.
type PromptOverrides struct {
	Tone             string
	ExtraCriteria    string
	UserInstructions string
}

// Advisor asks Gemini to summarise a gap analysis for the student.
type Advisor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
	overrides PromptOverrides
}

func NewAdvisor(generator contentGenerator, maxLogLength int, log *zap.Logger) *Advisor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	model := ""
	if generator != nil {
		model = generator.Model()
	}
	return &Advisor{
		generator: generator,
		logger:    logger.WithAIFields(log, Provider, model),
		maxLogLen: maxLogLength,
	}
}

func (a *Advisor) SetPromptOverrides(o PromptOverrides) {
	a.overrides = o
}

func (a *Advisor) Advise(ctx context.Context, result *analysis.Analysis) (*ai.Advice, error) {
	if a.generator == nil {
		return nil, errors.New("gemini generator is not configured")
	}
	if result == nil {
		return nil, analysis.ErrMissingAnalysis
	}

	payload, err := json.MarshalIndent(briefFrom(result), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal analysis payload: %w", err)
	}

	system := buildPrompt(a.overrides)
	message := string(payload)
	log := a.logger.With(logger.StudentFields(result.StudentID)...)

	log.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(system)+utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, system, message)
	if err != nil {
		return nil, err
	}

	log.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	advice, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}
	advice.Raw = raw
	return advice, nil
}

// brief is the subset of an analysis the model needs.
type brief struct {
	StudentID           string      `json:"studentId"`
	ScholarshipsBlocked int         `json:"scholarshipsUnlockable"`
	PotentialFunding    float64     `json:"potentialFunding"`
	TotalTimelineMonths int         `json:"totalTimelineMonths"`
	CurrentStrength     int         `json:"currentStrength"`
	ProjectedStrength   int         `json:"projectedStrength"`
	Steps               []briefStep `json:"recommendedSequence"`
	Warnings            []string    `json:"warnings,omitempty"`
}

type briefStep struct {
	Requirement    string  `json:"requirement"`
	Current        string  `json:"current"`
	Target         string  `json:"target"`
	Achievability  string  `json:"achievability"`
	Timeline       string  `json:"timeline"`
	FundingBlocked float64 `json:"fundingBlocked"`
	Recommendation string  `json:"recommendation"`
}

func briefFrom(a *analysis.Analysis) brief {
	b := brief{
		StudentID:           a.StudentID,
		ScholarshipsBlocked: a.ImpactSummary.ScholarshipsUnlockable,
		PotentialFunding:    a.ImpactSummary.PotentialFunding,
	}
	if a.Projection != nil {
		b.CurrentStrength = a.Projection.CurrentStrength
		b.ProjectedStrength = a.Projection.ProjectedStrength
	}
	if a.Roadmap == nil {
		return b
	}
	b.TotalTimelineMonths = a.Roadmap.TotalTimelineMonths
	for _, rec := range a.Roadmap.RecommendedSequence {
		b.Steps = append(b.Steps, briefStep{
			Requirement:    rec.Gap.Requirement,
			Current:        rec.Gap.FormatValue(rec.Gap.CurrentValue),
			Target:         rec.Gap.FormatValue(rec.Gap.TargetValue),
			Achievability:  string(rec.Gap.Achievability),
			Timeline:       rec.Timeline,
			FundingBlocked: rec.Gap.FundingBlocked,
			Recommendation: rec.Recommendation,
		})
	}
	for _, d := range a.Roadmap.Diagnostics {
		b.Warnings = append(b.Warnings, d.Message)
	}
	return b
}

func buildPrompt(o PromptOverrides) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Tone: {{TONE}}\nAdditional criteria: {{CRITERIA}}\n{{USER_INSTRUCTIONS}}\n\nRespond with JSON: summary, focus, encouragement."
	}
	tone := singleLine(o.Tone)
	if tone == "" {
		tone = defaultTone
	}
	criteria := singleLine(o.ExtraCriteria)
	if criteria == "" {
		criteria = "none"
	}

	prompt := strings.ReplaceAll(template, "{{TONE}}", tone)
	prompt = strings.ReplaceAll(prompt, "{{CRITERIA}}", criteria)
	prompt = strings.ReplaceAll(prompt, "{{USER_INSTRUCTIONS}}", userInstructions(o.UserInstructions))
	return prompt
}

// neutralize stops user text from imitating prompt section markers.
func neutralize(s string) string {
	return strings.NewReplacer("[", "(", "]", ")", "{{", "(", "}}", ")").Replace(s)
}

func singleLine(s string) string {
	return strings.Join(strings.FieldsFunc(neutralize(s), unicode.IsSpace), " ")
}

func userInstructions(s string) string {
	var lines []string
	for _, line := range strings.Split(neutralize(s), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		if runes := []rune(line); len(runes) > maxUserInstructionRunes {
			line = string(runes[:maxUserInstructionRunes])
		}
		lines = append(lines, "  - "+line)
	}
	if len(lines) == 0 {
		return "  - none"
	}
	return strings.Join(lines, "\n")
}

func parseResponse(raw string) (*ai.Advice, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	advice := &ai.Advice{
		Summary:       coerceString(data["summary"]),
		Focus:         coerceList(data["focus"]),
		Encouragement: coerceString(data["encouragement"]),
	}
	if advice.Summary == "" {
		return nil, errors.New("gemini response has no summary")
	}
	if len(advice.Focus) > maxFocusItems {
		advice.Focus = advice.Focus[:maxFocusItems]
	}
	return advice, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceList(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
	}
	return nil
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
