package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"prodplan/internal/audit"
	"prodplan/internal/flatfile"
	"prodplan/internal/ingest"
	"prodplan/internal/recipedb"
	"prodplan/internal/watch"
)

func ingestCmd() *cli.Command {
	return &cli.Command{
		Name:   "ingest",
		Usage:  "Extract recipes from source documents into the flat file and recipe DB",
		Flags:  ingestFlags(),
		Action: runIngest,
	}
}

func runIngest(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	p, err := resolveIngestPaths(s, cmd)
	if err != nil {
		return err
	}
	summary, err := auditedIngest(ctx, s, p, nil)
	if err != nil {
		return err
	}
	printIngest(s, p, summary)
	return nil
}

// ingestFlags are shared by ingest and watch.
func ingestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "sources",
			Usage: "Directory of recipe source documents (default: <workspace>/prototypes)",
		},
		&cli.StringFlag{
			Name:  "pattern",
			Value: ingest.DefaultPattern,
			Usage: "Glob for source documents within --sources",
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "Flat recipe file to write (default: <workspace>/data/recipes.tsv)",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "Recipe SQLite DB to write (default: <workspace>/data/recipes.sqlite)",
		},
		&cli.StringFlag{
			Name:  "metrics",
			Usage: "Prometheus textfile to write (default: <workspace>/metrics/prodplan.prom)",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Documents processed in parallel (default: number of CPUs)",
		},
	}
}

func resolveIngestPaths(s *session, cmd *cli.Command) (ingestPaths, error) {
	if err := s.ws.EnsureDirs(); err != nil {
		return ingestPaths{}, err
	}
	p := ingestPaths{
		pattern: cmd.String("pattern"),
		workers: int(cmd.Int("workers")),
	}
	var err error
	if p.sources, err = s.path(cmd.String("sources"), s.ws.SourcesDir); err != nil {
		return p, fmt.Errorf("resolve --sources: %w", err)
	}
	if p.out, err = s.path(cmd.String("out"), s.ws.RecipesPath); err != nil {
		return p, fmt.Errorf("resolve --out: %w", err)
	}
	if p.db, err = s.path(cmd.String("db"), s.ws.RecipeDBPath); err != nil {
		return p, fmt.Errorf("resolve --db: %w", err)
	}
	if p.metrics, err = s.path(cmd.String("metrics"), s.ws.MetricsPath); err != nil {
		return p, fmt.Errorf("resolve --metrics: %w", err)
	}
	return p, nil
}

// auditedIngest runs one ingest between a started and finished audit event.
// changed lists the source files that triggered a watch ingest.
func auditedIngest(ctx context.Context, s *session, p ingestPaths, changed []string) (*ingestSummary, error) {
	startPayload := map[string]any{
		"sources": p.sources,
		"pattern": p.pattern,
		"out":     p.out,
		"db":      p.db,
	}
	if changed != nil {
		startPayload["trigger"] = "watch"
		startPayload["changed"] = changed
	}
	s.event(ctx, audit.IngestStarted, startPayload)
	started := time.Now()
	summary, finishErr := ingestInto(ctx, s, p)
	finishPayload := map[string]any{
		"sources":     p.sources,
		"duration_ms": time.Since(started).Milliseconds(),
	}
	if summary != nil {
		finishPayload["documents"] = summary.result.Documents
		finishPayload["recipes"] = len(summary.result.Recipes)
		finishPayload["failures"] = len(summary.result.Failures)
		finishPayload["written"] = summary.stats.Written
	}
	if finishErr != nil {
		finishPayload["error"] = finishErr.Error()
	}
	s.event(ctx, audit.IngestFinished, finishPayload)
	if finishErr != nil {
		return nil, finishErr
	}
	return summary, nil
}

func printIngest(s *session, p ingestPaths, summary *ingestSummary) {
	res := summary.result
	for _, f := range res.Failures {
		fmt.Fprintf(s.errOut, "skipped: %s\n", f.Error())
	}
	fmt.Fprintf(s.out, "Documents: %d\n", res.Documents)
	fmt.Fprintf(s.out, "Total: %d\n", res.Total)
	fmt.Fprintln(s.out, "Categories:")
	for _, c := range res.Categories {
		fmt.Fprintf(s.out, "\t%s\n", c)
	}
	fmt.Fprintf(s.out, "Wrote %d recipes to %s (%d multi-product, %d unrepresentable kept in %s)\n",
		summary.stats.Written, p.out, summary.stats.MultiProduct, summary.stats.Unrepresentable, p.db)
	if n := len(res.Failures); n > 0 {
		fmt.Fprintf(s.out, "Failures: %d\n", n)
	}
}

type ingestPaths struct {
	sources string
	pattern string
	out     string
	db      string
	metrics string
	workers int
}

type ingestSummary struct {
	result *ingest.Result
	stats  flatfile.EncodeStats
}

func ingestInto(ctx context.Context, s *session, p ingestPaths) (*ingestSummary, error) {
	snap, err := watch.Scan(p.sources, p.pattern)
	if err != nil {
		return nil, err
	}
	docs, err := ingest.LoadDir(p.sources, p.pattern)
	if err != nil {
		return nil, err
	}
	res, err := ingest.Run(ctx, docs, ingest.Options{
		Workers:  p.workers,
		Defaults: s.cfg.RecipeDefaults(),
	})
	if err != nil {
		return nil, err
	}
	if len(res.Recipes) == 0 && len(res.Failures) > 0 {
		return &ingestSummary{result: res}, fmt.Errorf("no recipes ingested: %d failures, first: %v", len(res.Failures), res.Failures[0])
	}

	recipes := res.Sorted()
	stats, err := flatfile.WriteFile(p.out, recipes)
	if err != nil {
		return nil, err
	}

	store, err := recipedb.Open(p.db)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	if err := store.ReplaceAll(ctx, recipes); err != nil {
		return nil, err
	}
	if err := store.SetMeta(ctx, recipedb.MetaRunID, s.audit.RunID); err != nil {
		return nil, err
	}
	if err := watch.Save(ctx, store, recipedb.MetaSources, snap); err != nil {
		return nil, err
	}

	if err := ingest.WriteMetrics(p.metrics); err != nil {
		fmt.Fprintln(s.errOut, "metrics export failed:", err)
	}
	return &ingestSummary{result: res, stats: stats}, nil
}
