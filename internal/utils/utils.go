package utils

import (
	"context"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var sleep = time.Sleep

// WaitFor sleeps for d or until ctx is done.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// TruncateForLog shortens s to limit runes, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

var printer = message.NewPrinter(language.English)

// Money renders an amount as whole dollars with thousands separators.
func Money(amount float64) string {
	return printer.Sprintf("$%.0f", amount)
}

// SignedMoney renders a funding delta with an explicit sign, e.g. "+$5,000".
func SignedMoney(delta float64) string {
	switch {
	case math.Round(delta) > 0:
		return "+" + Money(delta)
	case math.Round(delta) < 0:
		return "-" + Money(-delta)
	default:
		return Money(0)
	}
}
