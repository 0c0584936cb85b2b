package planner

import (
	"fmt"
	"math"
	"strings"
)

// Request is a planning request: produce Target at Rate per time unit.
type Request struct {
	Target string
	Rate   float64
}

func ValidateRequest(req Request) error {
	if strings.TrimSpace(req.Target) == "" {
		return fmt.Errorf("target item is required")
	}
	if math.IsNaN(req.Rate) || math.IsInf(req.Rate, 0) {
		return fmt.Errorf("target rate must be a finite number")
	}
	if req.Rate <= 0 {
		return fmt.Errorf("target rate must be positive, got %g", req.Rate)
	}
	return nil
}

func ValidatePlan(plan *Plan) error {
	if plan == nil {
		return fmt.Errorf("plan is required")
	}
	if err := ValidateRequest(Request{Target: plan.Target, Rate: plan.TargetRate}); err != nil {
		return err
	}
	if len(plan.Entries) == 0 {
		return fmt.Errorf("plan must include at least one entry")
	}
	if plan.Entries[0].Item != plan.Target {
		return fmt.Errorf("plan must start with its target %q, got %q", plan.Target, plan.Entries[0].Item)
	}
	seen := make(map[string]struct{}, len(plan.Entries))
	for idx, e := range plan.Entries {
		if err := validateEntry(e); err != nil {
			return fmt.Errorf("plan entry %d: %w", idx, err)
		}
		if _, dup := seen[e.Item]; dup {
			return fmt.Errorf("plan entry %d: duplicate item %q", idx, e.Item)
		}
		seen[e.Item] = struct{}{}
	}
	return nil
}

func validateEntry(e Entry) error {
	if strings.TrimSpace(e.Item) == "" {
		return fmt.Errorf("item is required")
	}
	if math.IsNaN(e.Rate) || math.IsInf(e.Rate, 0) || e.Rate < 0 {
		return fmt.Errorf("rate must be a finite non-negative number")
	}
	if e.CycleTime != nil && (math.IsNaN(*e.CycleTime) || *e.CycleTime < 0) {
		return fmt.Errorf("cycle_time must be non-negative")
	}
	return nil
}
