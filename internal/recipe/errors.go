package recipe

import (
	"fmt"
	"strings"
)

// Reason classifies an IngestError.
type Reason string

const (
	ReasonMissingField   Reason = "missing field"
	ReasonTypeMismatch   Reason = "type mismatch"
	ReasonMixedFields    Reason = "mixed named and positional fields"
	ReasonBadComponent   Reason = "malformed component"
	ReasonUnexpectedType Reason = "unexpected type literal"
	ReasonComponentCount Reason = "unsupported component count"
)

const maxContext = 160

// IngestError reports why a record could not be turned into a recipe.
// Recipe is empty when the failure happened before the name was known; in
// that case Context carries a rendering of the whole raw object.
type IngestError struct {
	Recipe  string
	Context string
	Field   string
	Reason  Reason
	Detail  string
	Raw     string
}

func (e *IngestError) Error() string {
	var b strings.Builder
	if e.Recipe != "" {
		fmt.Fprintf(&b, "recipe %q", e.Recipe)
	} else {
		fmt.Fprintf(&b, "recipe %s", truncate(e.Context))
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Raw != "" {
		fmt.Fprintf(&b, " (%s)", truncate(e.Raw))
	}
	return b.String()
}

func truncate(s string) string {
	if len(s) <= maxContext {
		return s
	}
	return s[:maxContext] + "..."
}
