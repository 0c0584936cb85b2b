package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"prodplan/internal/audit"
	"prodplan/internal/graph"
	"prodplan/internal/machines"
	"prodplan/internal/planner"
	"prodplan/internal/quantity"
)

func dataFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "data",
		Usage: "Flat recipe file to plan from (default: <workspace>/data/recipes.tsv)",
	}
}

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:  "graph",
		Usage: "Print the dependency graph of an item",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "target",
				Aliases:  []string{"t"},
				Usage:    "Item to expand",
				Required: true,
			},
			dataFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			dataPath, err := s.path(cmd.String("data"), s.ws.RecipesPath)
			if err != nil {
				return fmt.Errorf("resolve --data: %w", err)
			}
			data, err := s.loadTable(dataPath)
			if err != nil {
				return err
			}
			g := graph.Build(data.Table, cmd.String("target"))
			fmt.Fprintln(s.out, "Components:")
			for _, v := range g.SortedVertices() {
				fmt.Fprintf(s.out, "    %s\n", v)
			}
			fmt.Fprintln(s.out, "Edges:")
			for _, e := range g.Edges {
				fmt.Fprintf(s.out, "    %s --%s--> %s\n", e.From, quantity.Format(e.Weight, 4), e.To)
			}
			return nil
		},
	}
}

func planCmd() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Compute the production plan for a target rate",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "target",
				Aliases:  []string{"t"},
				Usage:    "Item to produce",
				Required: true,
			},
			&cli.FloatFlag{
				Name:     "rate",
				Aliases:  []string{"r"},
				Usage:    "Units of target per second",
				Required: true,
			},
			dataFlag(),
			&cli.StringFlag{
				Name:  "machine",
				Usage: "Crafting machine used for machine counts (default: report.machine from config)",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: string(planner.FormatTable),
				Usage: fmt.Sprintf("Output format (supported values: %s)", strings.Join(planner.SupportedFormats(), ", ")),
			},
			&cli.FloatFlag{
				Name:  "time-scale",
				Usage: "Multiplier for the scaled rate column (default: report.time_scale from config)",
			},
			&cli.BoolFlag{
				Name:  "titles",
				Usage: "Render item names as title-cased words",
			},
			&cli.StringFlag{
				Name:  "json",
				Usage: "Also write the plan as JSON to this path",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Also write the plan as JSON under <workspace>/plans",
			},
		},
		Action: runPlan,
	}
}

func runPlan(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	format, err := planner.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	opts, err := reportOptions(s, cmd)
	if err != nil {
		return err
	}
	opts.Format = format

	dataPath, err := s.path(cmd.String("data"), s.ws.RecipesPath)
	if err != nil {
		return fmt.Errorf("resolve --data: %w", err)
	}
	var jsonPath string
	switch {
	case cmd.String("json") != "":
		if jsonPath, err = s.ws.ResolvePath(cmd.String("json")); err != nil {
			return fmt.Errorf("resolve --json: %w", err)
		}
	case cmd.Bool("save"):
		jsonPath = s.ws.PlanPath(cmd.String("target"))
	}

	req := planner.Request{Target: cmd.String("target"), Rate: cmd.Float("rate")}
	s.event(ctx, audit.PlanStarted, map[string]any{
		"target": req.Target,
		"rate":   req.Rate,
		"data":   dataPath,
	})
	plan, finishErr := computePlan(s, dataPath, req)
	if finishErr == nil && jsonPath != "" {
		finishErr = planner.WritePlan(jsonPath, plan)
	}
	finishPayload := map[string]any{
		"target": req.Target,
		"rate":   req.Rate,
	}
	if plan != nil {
		finishPayload["entries"] = len(plan.Entries)
		finishPayload["raw"] = len(plan.Raw())
	}
	if jsonPath != "" {
		finishPayload["plan_path"] = jsonPath
	}
	if finishErr != nil {
		finishPayload["error"] = finishErr.Error()
		var cycle *planner.CycleError
		if errors.As(finishErr, &cycle) {
			finishPayload["unresolved"] = cycle.Unresolved
		}
	}
	s.event(ctx, audit.PlanFinished, finishPayload)
	if finishErr != nil {
		return finishErr
	}

	if err := planner.RenderReport(s.out, plan, opts); err != nil {
		return err
	}
	if jsonPath != "" {
		fmt.Fprintf(s.errOut, "Wrote plan: %s\n", jsonPath)
	}
	return nil
}

func computePlan(s *session, dataPath string, req planner.Request) (*planner.Plan, error) {
	if err := planner.ValidateRequest(req); err != nil {
		return nil, err
	}
	data, err := s.loadTable(dataPath)
	if err != nil {
		return nil, err
	}
	plan, _, err := planner.Generate(data.Table, req)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", req.Target, err)
	}
	return plan, nil
}

// reportOptions merges report flags over the configured report settings.
func reportOptions(s *session, cmd *cli.Command) (planner.ReportOptions, error) {
	opts := planner.ReportOptions{
		TimeScale: s.cfg.Report.TimeScale,
		Titles:    s.cfg.Report.Titles || cmd.Bool("titles"),
	}
	if cmd.IsSet("time-scale") {
		if ts := cmd.Float("time-scale"); ts > 0 {
			opts.TimeScale = ts
		} else {
			return opts, fmt.Errorf("--time-scale must be positive")
		}
	}
	name := s.cfg.Report.Machine
	if cmd.IsSet("machine") {
		name = cmd.String("machine")
	}
	if name == "" {
		return opts, nil
	}
	catalog, err := s.cfg.Catalog()
	if err != nil {
		return opts, err
	}
	m, err := catalog.Crafter(name)
	if err != nil {
		return opts, err
	}
	opts.Machine = &m
	return opts, nil
}

func diffCmd() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Compare two saved plans",
		ArgsUsage: "<plan-a> <plan-b>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "machine",
				Usage: "Crafting machine used for machine counts (default: report.machine from config)",
			},
			&cli.FloatFlag{
				Name:  "time-scale",
				Usage: "Multiplier for the scaled rate column (default: report.time_scale from config)",
			},
			&cli.BoolFlag{
				Name:  "titles",
				Usage: "Render item names as title-cased words",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("diff requires two plan paths")
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			opts, err := reportOptions(s, cmd)
			if err != nil {
				return err
			}
			var plans [2]*planner.Plan
			var names [2]string
			for i := range plans {
				path, err := s.ws.ResolvePath(cmd.Args().Get(i))
				if err != nil {
					return err
				}
				if plans[i], err = planner.LoadPlan(path); err != nil {
					return err
				}
				names[i] = cmd.Args().Get(i)
			}
			diff, err := planner.Diff(plans[0], plans[1], names[0], names[1], opts)
			if err != nil {
				return err
			}
			if diff == "" {
				fmt.Fprintln(s.out, "Plans are identical.")
				return nil
			}
			fmt.Fprint(s.out, diff)
			return nil
		},
	}
}

func machinesCmd() *cli.Command {
	return &cli.Command{
		Name:  "machines",
		Usage: "List the machine catalog, including configured overrides",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Value: string(planner.FormatTable),
				Usage: fmt.Sprintf("Output format (supported values: %s)", strings.Join(planner.SupportedFormats(), ", ")),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			format, err := planner.ParseFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			catalog, err := s.cfg.Catalog()
			if err != nil {
				return err
			}
			return machines.Render(s.out, catalog, string(format))
		},
	}
}
