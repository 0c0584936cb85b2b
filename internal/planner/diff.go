package planner

import (
	"bytes"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders both plans as tables with opts and returns a unified diff
// labelled with fromName and toName. It is empty when the reports match.
func Diff(a, b *Plan, fromName, toName string, opts ReportOptions) (string, error) {
	opts.Format = FormatTable
	var left, right bytes.Buffer
	if err := RenderReport(&left, a, opts); err != nil {
		return "", fmt.Errorf("render %s: %w", fromName, err)
	}
	if err := RenderReport(&right, b, opts); err != nil {
		return "", fmt.Errorf("render %s: %w", toName, err)
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(left.String()),
		B:        difflib.SplitLines(right.String()),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff plans: %w", err)
	}
	return text, nil
}
