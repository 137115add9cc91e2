package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// scriptedChats hands out one reply per chat, in order.
type scriptedChats struct {
	mu      sync.Mutex
	replies []scriptedReply
	opened  []*scriptedChat
}

type scriptedReply struct {
	text string
	err  error
}

type scriptedChat struct {
	model  string
	config *genai.GenerateContentConfig
	reply  scriptedReply
	sent   []string
}

func (c *scriptedChat) SendMessage(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	for _, p := range parts {
		c.sent = append(c.sent, p.Text)
	}
	if c.reply.err != nil {
		return nil, c.reply.err
	}
	var out []*genai.Part
	for _, line := range strings.Split(c.reply.text, "|") {
		out = append(out, &genai.Part{Text: line})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: out}}},
	}, nil
}

func (s *scriptedChats) Create(_ context.Context, model string, config *genai.GenerateContentConfig, _ []*genai.Content) (chatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		return nil, errors.New("no scripted reply left")
	}
	chat := &scriptedChat{model: model, config: config, reply: s.replies[0]}
	s.replies = s.replies[1:]
	s.opened = append(s.opened, chat)
	return chat, nil
}

func script(replies ...scriptedReply) *scriptedChats {
	return &scriptedChats{replies: replies}
}

func fail(code int, status, message string) scriptedReply {
	return scriptedReply{err: genai.APIError{Code: code, Status: status, Message: message}}
}

func stubSleep(t *testing.T, fn func(context.Context, time.Duration) error) {
	t.Helper()
	original := sleep
	sleep = fn
	t.Cleanup(func() { sleep = original })
}

func TestGeneratorRetries(t *testing.T) {
	const brief = `{"studentId":"student-42","gaps":2}`

	tests := []struct {
		name       string
		replies    []scriptedReply
		maxRetries int
		wantText   string
		wantErr    bool
		wantChats  int
		wantWaits  []time.Duration
	}{
		{
			name:       "server error then success",
			replies:    []scriptedReply{fail(http.StatusInternalServerError, "INTERNAL", ""), {text: `{"summary":"ok"}`}},
			maxRetries: 2,
			wantText:   `{"summary":"ok"}`,
			wantChats:  2,
			wantWaits:  []time.Duration{2 * time.Second},
		},
		{
			name:       "retries exhausted",
			replies:    []scriptedReply{fail(http.StatusBadGateway, "", ""), fail(http.StatusBadGateway, "", "")},
			maxRetries: 2,
			wantErr:    true,
			wantChats:  2,
			wantWaits:  []time.Duration{2 * time.Second},
		},
		{
			name:       "quota delay too long",
			replies:    []scriptedReply{fail(http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "quota exhausted, retry after 60 seconds")},
			maxRetries: 3,
			wantErr:    true,
			wantChats:  1,
		},
		{
			name: "short quota delay from details",
			replies: []scriptedReply{
				{err: genai.APIError{Code: http.StatusTooManyRequests, Details: []map[string]any{{"retryDelay": "7s"}}}},
				{text: "first|second"},
			},
			maxRetries: 3,
			wantText:   "first\nsecond",
			wantChats:  2,
			wantWaits:  []time.Duration{7 * time.Second},
		},
		{
			name:       "client error is final",
			replies:    []scriptedReply{fail(http.StatusBadRequest, "INVALID_ARGUMENT", "")},
			maxRetries: 3,
			wantErr:    true,
			wantChats:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var waits []time.Duration
			stubSleep(t, func(_ context.Context, d time.Duration) error {
				waits = append(waits, d)
				return nil
			})

			chats := script(tt.replies...)
			g := &Generator{chats: chats, model: "gemini-2.5-flash", maxRetries: tt.maxRetries, logger: zap.NewNop()}

			got, err := g.GenerateContent(context.Background(), "You are a scholarship advisor.", brief)
			if tt.wantErr != (err != nil) {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.wantText {
				t.Fatalf("expected %q, got %q", tt.wantText, got)
			}
			if len(chats.opened) != tt.wantChats {
				t.Fatalf("expected %d chats, got %d", tt.wantChats, len(chats.opened))
			}
			if len(waits) != len(tt.wantWaits) {
				t.Fatalf("expected waits %v, got %v", tt.wantWaits, waits)
			}
			for i := range waits {
				if waits[i] != tt.wantWaits[i] {
					t.Fatalf("expected waits %v, got %v", tt.wantWaits, waits)
				}
			}
		})
	}
}

func TestGeneratorRequestShape(t *testing.T) {
	chats := script(scriptedReply{text: `{"summary":"ok"}`}, scriptedReply{text: `{"summary":"ok"}`})
	g := &Generator{chats: chats, model: "gemini-2.5-pro", maxRetries: 1, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "  advisor prompt \n", "  roadmap brief "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.GenerateContent(context.Background(), "", "roadmap brief"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	withSystem, withoutSystem := chats.opened[0], chats.opened[1]
	if withSystem.model != "gemini-2.5-pro" {
		t.Fatalf("unexpected model: %q", withSystem.model)
	}
	if withSystem.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json response type, got %q", withSystem.config.ResponseMIMEType)
	}
	if withSystem.config.SystemInstruction == nil || withSystem.config.SystemInstruction.Parts[0].Text != "advisor prompt" {
		t.Fatalf("expected trimmed system instruction, got %+v", withSystem.config.SystemInstruction)
	}
	if len(withSystem.sent) != 1 || withSystem.sent[0] != "roadmap brief" {
		t.Fatalf("unexpected message: %+v", withSystem.sent)
	}
	if withoutSystem.config.SystemInstruction != nil {
		t.Fatal("expected no system instruction for an empty system prompt")
	}
}

func TestGeneratorStopsWhenContextCancelledDuringBackoff(t *testing.T) {
	stubSleep(t, func(context.Context, time.Duration) error { return context.Canceled })

	chats := script(fail(http.StatusServiceUnavailable, "UNAVAILABLE", ""), scriptedReply{text: "never"})
	g := &Generator{chats: chats, model: "gemini-2.5-pro", maxRetries: 3, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "sys", "brief"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if len(chats.opened) != 1 {
		t.Fatalf("expected a single chat, got %d", len(chats.opened))
	}
}

func TestGeneratorRejectsEmptyInput(t *testing.T) {
	var nilGen *Generator
	if _, err := nilGen.GenerateContent(context.Background(), "sys", "brief"); err == nil {
		t.Fatal("expected error for nil generator")
	}

	g := &Generator{chats: script(), model: "gemini-2.5-pro", logger: zap.NewNop()}
	if _, err := g.GenerateContent(context.Background(), "sys", "   "); err == nil {
		t.Fatal("expected error for blank message")
	}
	if g.Model() != "gemini-2.5-pro" {
		t.Fatalf("unexpected model: %q", g.Model())
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), "  ", "", 0, nil); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		attempt   int
		wantDelay time.Duration
		wantRetry bool
	}{
		{name: "backoff first", err: genai.APIError{Code: http.StatusBadGateway}, attempt: 0, wantDelay: 2 * time.Second, wantRetry: true},
		{name: "backoff third", err: genai.APIError{Code: http.StatusGatewayTimeout}, attempt: 2, wantDelay: 8 * time.Second, wantRetry: true},
		{name: "message delay", err: genai.APIError{Code: http.StatusTooManyRequests, Message: "Please retry in 12.5s."}, wantDelay: 12500 * time.Millisecond, wantRetry: true},
		{name: "not found", err: genai.APIError{Code: http.StatusNotFound}},
		{name: "plain error", err: errors.New("dial tcp: refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, retry := retryDelay(tt.err, tt.attempt)
			if retry != tt.wantRetry {
				t.Fatalf("expected retry=%v, got %v", tt.wantRetry, retry)
			}
			if retry && got != tt.wantDelay {
				t.Fatalf("expected %v, got %v", tt.wantDelay, got)
			}
		})
	}
}
