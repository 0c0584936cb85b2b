package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"prodplan/internal/audit"
	"prodplan/internal/config"
	"prodplan/internal/flatfile"
	"prodplan/internal/logging"
	"prodplan/internal/workspace"
)

const appName = "prodplan"

// overridden during build with ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    appName,
		Usage:   "Extract game recipes and plan production chains",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "workspace",
				Aliases: []string{"w"},
				Value:   ".",
				Usage:   "Path to workspace root",
				Sources: cli.EnvVars("PRODPLAN_WORKSPACE"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to config file (default: <workspace>/" + workspace.ConfigFileName + ")",
				Sources: cli.EnvVars("PRODPLAN_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars(logging.EnvLevel),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(appName, version, cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			initCmd(),
			ingestCmd(),
			graphCmd(),
			planCmd(),
			diffCmd(),
			machinesCmd(),
			watchCmd(),
			recipesCmd(),
		},
	}
}

// session is the state shared by commands that work inside a workspace.
type session struct {
	ws     *workspace.Workspace
	cfg    *config.Config
	audit  *audit.Logger
	out    io.Writer
	errOut io.Writer
}

func openSession(cmd *cli.Command) (*session, error) {
	root := strings.TrimSpace(cmd.String("workspace"))
	if root == "" {
		return nil, fmt.Errorf("--workspace is required")
	}
	ws, err := workspace.Resolve(root)
	if err != nil {
		return nil, err
	}

	cfgPath := ws.ConfigPath
	if p := cmd.String("config"); p != "" {
		if cfgPath, err = ws.ResolvePath(p); err != nil {
			return nil, fmt.Errorf("resolve --config: %w", err)
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if cmd.String("log-level") == "" && cfg.LogLevel != "" {
		logging.SetDefaultStructuredLoggerWithLevel(appName, version, cfg.LogLevel)
	}

	s := &session{
		ws:     ws,
		cfg:    cfg,
		audit:  audit.NewLogger(ws.AuditDBPath),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	if root := cmd.Root(); root != nil {
		if root.Writer != nil {
			s.out = root.Writer
		}
		if root.ErrWriter != nil {
			s.errOut = root.ErrWriter
		}
	}
	slog.Debug("session opened", "workspace", ws.Root, "config", cfgPath, "run_id", s.audit.RunID)
	return s, nil
}

// event records an audit event. Audit failures are reported but never fail
// the command.
func (s *session) event(ctx context.Context, eventType string, payload map[string]any) {
	if err := s.audit.LogEvent(ctx, "cli", eventType, payload); err != nil {
		fmt.Fprintln(s.errOut, "audit log failed:", err)
	}
}

// path resolves a flag value against the workspace, falling back to def.
func (s *session) path(value, def string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return def, nil
	}
	return s.ws.ResolvePath(value)
}

// loadTable reads the flat recipe file and reports skipped lines as warnings.
func (s *session) loadTable(path string) (*flatfile.Result, error) {
	res, err := flatfile.ReadFile(path, s.cfg.Factors())
	if err != nil {
		return nil, fmt.Errorf("%w (run '%s ingest' first?)", err, appName)
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintf(s.errOut, "warning: %s: %s\n", path, d)
	}
	return res, nil
}
