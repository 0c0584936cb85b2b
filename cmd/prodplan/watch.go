package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"prodplan/internal/recipedb"
	"prodplan/internal/watch"
)

const defaultWatchInterval = 30 * time.Second

func watchCmd() *cli.Command {
	flags := append(ingestFlags(),
		&cli.DurationFlag{
			Name:  "interval",
			Value: defaultWatchInterval,
			Usage: "How often to poll the source documents",
		},
		&cli.BoolFlag{
			Name:  "once",
			Usage: "Check once and exit",
		},
	)
	return &cli.Command{
		Name:   "watch",
		Usage:  "Re-ingest whenever recipe source documents change",
		Flags:  flags,
		Action: runWatch,
	}
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	p, err := resolveIngestPaths(s, cmd)
	if err != nil {
		return err
	}
	interval := cmd.Duration("interval")
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	if cmd.Bool("once") {
		return watchTick(ctx, s, p)
	}

	fmt.Fprintf(s.errOut, "Watching %s every %s\n", p.sources, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		// The snapshot is only saved after a successful ingest, so a failed
		// one is reported and retried on every tick until it succeeds.
		if err := watchTick(ctx, s, p); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(s.errOut, "ingest failed:", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// watchTick re-ingests if the sources differ from the last successful ingest.
func watchTick(ctx context.Context, s *session, p ingestPaths) error {
	cur, err := watch.Scan(p.sources, p.pattern)
	if err != nil {
		return err
	}
	prev, err := loadSourceState(ctx, p.db)
	if err != nil {
		return err
	}
	changed := watch.Changes(prev, cur)
	if len(changed) == 0 {
		slog.Debug("sources unchanged", "sources", p.sources)
		return nil
	}

	fmt.Fprintf(s.out, "%s: %d source files changed\n", time.Now().Format(time.RFC3339), len(changed))
	for _, path := range changed {
		fmt.Fprintf(s.out, "\t%s\n", path)
	}
	summary, err := auditedIngest(ctx, s, p, changed)
	if err != nil {
		return err
	}
	printIngest(s, p, summary)
	return nil
}

func loadSourceState(ctx context.Context, dbPath string) (watch.Snapshot, error) {
	store, err := recipedb.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return watch.Load(ctx, store, recipedb.MetaSources)
}
