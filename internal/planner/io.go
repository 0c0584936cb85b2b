package planner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PlanFileName is the artifact name used when a plan path is a directory.
const PlanFileName = "plan.json"

// WritePlan validates plan and writes it as indented JSON. The file is
// replaced atomically so a reader never sees a partial plan.
func WritePlan(path string, plan *Plan) error {
	if err := ValidatePlan(plan); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure plan dir: %w", err)
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plan json: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".plan-*.json")
	if err != nil {
		return fmt.Errorf("create plan temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write plan: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod plan: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// LoadPlan reads and validates a plan written by WritePlan. path may name
// the plan file or a directory holding PlanFileName.
func LoadPlan(path string) (*Plan, error) {
	resolved, err := ResolvePlanPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	plan := new(Plan)
	if err := json.Unmarshal(data, plan); err != nil {
		return nil, fmt.Errorf("parse plan json %s: %w", resolved, err)
	}
	if err := ValidatePlan(plan); err != nil {
		return nil, fmt.Errorf("%s: %w", resolved, err)
	}
	plan.reindex()
	return plan, nil
}

func ResolvePlanPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("plan path is required")
	}
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "", fmt.Errorf("stat plan path: %w", err)
	case info.IsDir():
		return filepath.Join(path, PlanFileName), nil
	default:
		return path, nil
	}
}
