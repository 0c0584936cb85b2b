package integration_test

import (
	"context"
	"strings"
	"testing"

	"prodplan/internal/audit"
)

// requireAuditEvents checks that every wanted event type was logged, and
// that each started event has a matching finished event from the same run.
func requireAuditEvents(t *testing.T, dbPath string, want []string) {
	t.Helper()
	events, err := audit.ReadEvents(context.Background(), dbPath, "")
	if err != nil {
		t.Fatalf("read audit events: %v", err)
	}

	types := make(map[string]int)
	runs := make(map[string]map[string]bool)
	for _, e := range events {
		types[e.Type]++
		if runs[e.RunID] == nil {
			runs[e.RunID] = make(map[string]bool)
		}
		runs[e.RunID][e.Type] = true
	}
	for _, eventType := range want {
		if types[eventType] == 0 {
			t.Fatalf("missing audit event %s in %s", eventType, dbPath)
		}
	}
	for runID, seen := range runs {
		for eventType := range seen {
			base, ok := strings.CutSuffix(eventType, "_started")
			if ok && !seen[base+"_finished"] {
				t.Fatalf("run %s logged %s without %s_finished", runID, eventType, base)
			}
		}
	}
}
