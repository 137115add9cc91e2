package scholarship

import (
	"errors"
	"fmt"
	"strings"
)

const (
	RecordProfile     = "profile"
	RecordScholarship = "scholarship"
	RecordCatalog     = "catalog"
)

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation error")

// ValidationError signals a malformed upstream record. It is never used for
// ordinary missing optional fields.
type ValidationError struct {
	Record  string
	ID      string
	Field   string
	Reason  string
	Details []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid ")
	b.WriteString(e.Record)
	if e.ID != "" {
		fmt.Fprintf(&b, " %q", e.ID)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if len(e.Details) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Details, "; "))
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
