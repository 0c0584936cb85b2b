package planner

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"prodplan/internal/machines"
	"prodplan/internal/quantity"
)

// Format selects how a report is written.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// SupportedFormats lists the accepted --format values.
func SupportedFormats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatYAML)}
}

// ParseFormat accepts a format name case-insensitively. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (supported: %s)", s, strings.Join(SupportedFormats(), ", "))
	}
}

// DefaultTimeScale turns per-second rates into per-minute figures.
const DefaultTimeScale = 60

type ReportOptions struct {
	Format Format
	// TimeScale multiplies rates for the scaled column. Zero means DefaultTimeScale.
	TimeScale float64
	// Machine, when set, adds machine counts and power draw for crafted items.
	Machine *machines.Machine
	// Titles renders item names as title-cased words.
	Titles bool
}

func (o ReportOptions) scale() float64 {
	if o.TimeScale <= 0 {
		return DefaultTimeScale
	}
	return o.TimeScale
}

// CraftedRow is one crafted item in a report.
type CraftedRow struct {
	Item       string  `json:"item" yaml:"item"`
	CycleTime  float64 `json:"cycle_time" yaml:"cycle_time"`
	Rate       float64 `json:"rate" yaml:"rate"`
	Scaled     float64 `json:"scaled_rate" yaml:"scaled_rate"`
	Concurrent float64 `json:"concurrent" yaml:"concurrent"`
	Machines   float64 `json:"machines,omitempty" yaml:"machines,omitempty"`
	Built      int     `json:"built,omitempty" yaml:"built,omitempty"`
	Watts      int64   `json:"watts,omitempty" yaml:"watts,omitempty"`
}

// FlowRow is one raw input in a report.
type FlowRow struct {
	Item   string  `json:"item" yaml:"item"`
	Rate   float64 `json:"rate" yaml:"rate"`
	Scaled float64 `json:"scaled_rate" yaml:"scaled_rate"`
}

// Report is the rendered form of a plan.
type Report struct {
	Target     string         `json:"target" yaml:"target"`
	TargetRate float64        `json:"target_rate" yaml:"target_rate"`
	TimeScale  float64        `json:"time_scale" yaml:"time_scale"`
	Machine    string         `json:"machine,omitempty" yaml:"machine,omitempty"`
	Crafted    []CraftedRow   `json:"crafted" yaml:"crafted"`
	Raw        []FlowRow      `json:"raw" yaml:"raw"`
	Total      *machines.Load `json:"total,omitempty" yaml:"total,omitempty"`
}

// BuildReport splits plan into crafted and raw rows, keeping plan order.
func BuildReport(plan *Plan, opts ReportOptions) Report {
	scale := opts.scale()
	r := Report{
		Target:     plan.Target,
		TargetRate: plan.TargetRate,
		TimeScale:  scale,
		Crafted:    []CraftedRow{},
		Raw:        []FlowRow{},
	}
	var total machines.Load
	if opts.Machine != nil {
		r.Machine = opts.Machine.Name
	}
	for _, e := range plan.Entries {
		if e.Raw() {
			r.Raw = append(r.Raw, FlowRow{Item: e.Item, Rate: e.Rate, Scaled: e.Scaled(scale)})
			continue
		}
		row := CraftedRow{
			Item:       e.Item,
			CycleTime:  *e.CycleTime,
			Rate:       e.Rate,
			Scaled:     e.Scaled(scale),
			Concurrent: e.Concurrent(),
		}
		if opts.Machine != nil {
			row.Machines = opts.Machine.Count(row.Concurrent)
			load := opts.Machine.LoadFor(row.Machines)
			row.Built = load.Machines
			row.Watts = load.Watts
			total = total.Add(load)
		}
		r.Crafted = append(r.Crafted, row)
	}
	if opts.Machine != nil {
		r.Total = &total
	}
	return r
}

// RenderReport writes plan to w in opts.Format.
func RenderReport(w io.Writer, plan *Plan, opts ReportOptions) error {
	if plan == nil {
		return fmt.Errorf("plan is required")
	}
	report := BuildReport(plan, opts)
	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report yaml: %w", err)
		}
		return enc.Close()
	case FormatTable, "":
		return renderTable(w, report, opts.Titles)
	default:
		return fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

func renderTable(w io.Writer, r Report, titles bool) error {
	name := func(item string) string { return item }
	if titles {
		caser := cases.Title(language.English)
		name = func(item string) string {
			return caser.String(strings.ReplaceAll(item, "-", " "))
		}
	}
	unit := scaleUnit(r.TimeScale)

	fmt.Fprintf(w, "Assemble plan for %s at %s/s:\n", name(r.Target), num(r.TargetRate))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "ITEM\tCYCLE\tRATE\t" + strings.ToUpper(unit) + "\tCONCURRENT"
	if r.Machine != "" {
		header += "\tMACHINES\tBUILT\tPOWER"
	}
	fmt.Fprintln(tw, header)
	for _, row := range r.Crafted {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s",
			name(row.Item), num(row.CycleTime), num(row.Rate), num(row.Scaled), num(row.Concurrent))
		if r.Machine != "" {
			line += fmt.Sprintf("\t%s\t%d\t%s", num(row.Machines), row.Built, quantity.SI(float64(row.Watts), 1, "W"))
		}
		fmt.Fprintln(tw, line)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if r.Total != nil {
		fmt.Fprintf(w, "Total on %s: %d machines, %s, pollution %s\n",
			r.Machine, r.Total.Machines, quantity.SI(float64(r.Total.Watts), 1, "W"), num(r.Total.Pollution))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Components flow rate:")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tRATE\t"+strings.ToUpper(unit))
	for _, row := range r.Raw {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name(row.Item), num(row.Rate), num(row.Scaled))
	}
	return tw.Flush()
}

func scaleUnit(scale float64) string {
	switch scale {
	case 1:
		return "per sec"
	case 60:
		return "per min"
	case 3600:
		return "per hour"
	default:
		return "x" + num(scale)
	}
}

func num(v float64) string {
	return quantity.Format(v, 3)
}
