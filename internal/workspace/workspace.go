// Package workspace fixes where prodplan reads source documents and writes
// its outputs, relative to one root directory.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigFileName is the configuration file at the workspace root.
const ConfigFileName = "prodplan.yaml"

// Directory names below the root.
const (
	SourcesDirName = "prototypes"
	DataDirName    = "data"
	PlansDirName   = "plans"
	AuditDirName   = "audit"
	MetricsDirName = "metrics"
)

// Workspace holds the absolute paths of one workspace. Source documents go
// in; flat recipe data, the recipe snapshot, plans, audit events and metrics
// come out.
type Workspace struct {
	Root         string
	SourcesDir   string
	DataDir      string
	RecipesPath  string
	RecipeDBPath string
	PlansDir     string
	AuditDir     string
	AuditDBPath  string
	MetricsDir   string
	MetricsPath  string
	ConfigPath   string
}

func newWorkspace(root string) *Workspace {
	data := filepath.Join(root, DataDirName)
	audit := filepath.Join(root, AuditDirName)
	metrics := filepath.Join(root, MetricsDirName)
	return &Workspace{
		Root:         root,
		SourcesDir:   filepath.Join(root, SourcesDirName),
		DataDir:      data,
		RecipesPath:  filepath.Join(data, "recipes.tsv"),
		RecipeDBPath: filepath.Join(data, "recipes.sqlite"),
		PlansDir:     filepath.Join(root, PlansDirName),
		AuditDir:     audit,
		AuditDBPath:  filepath.Join(audit, "audit.sqlite"),
		MetricsDir:   metrics,
		MetricsPath:  filepath.Join(metrics, "prodplan.prom"),
		ConfigPath:   filepath.Join(root, ConfigFileName),
	}
}

// Resolve opens an existing workspace. root may be relative or start
// with ~/.
func Resolve(root string) (*Workspace, error) {
	abs, err := ResolveRoot(root)
	if err != nil {
		return nil, err
	}
	switch info, err := os.Stat(abs); {
	case err != nil:
		return nil, fmt.Errorf("workspace root: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("workspace root is not a directory: %s", abs)
	}
	return newWorkspace(abs), nil
}

// Create makes the root and every standard directory, then resolves it.
func Create(root string) (*Workspace, error) {
	abs, err := ResolveRoot(root)
	if err != nil {
		return nil, err
	}
	ws := newWorkspace(abs)
	if err := ws.EnsureDirs(); err != nil {
		return nil, err
	}
	return ws, nil
}

// ResolveRoot returns the absolute root without requiring it to exist.
func ResolveRoot(root string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", fmt.Errorf("workspace root is required")
	}
	expanded, err := expandHome(root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve workspace: %w", err)
	}
	return abs, nil
}

// EnsureDirs creates the standard workspace directories.
func (w *Workspace) EnsureDirs() error {
	if w == nil {
		return fmt.Errorf("workspace is nil")
	}
	for _, dir := range []string{w.SourcesDir, w.DataDir, w.PlansDir, w.AuditDir, w.MetricsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure %s: %w", dir, err)
		}
	}
	return nil
}

// ResolvePath makes path absolute, relative to the workspace root. An empty
// path stays empty.
func (w *Workspace) ResolvePath(path string) (string, error) {
	if w == nil {
		return "", fmt.Errorf("workspace is nil")
	}
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	expanded, err := expandHome(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(w.Root, expanded)
	}
	return filepath.Clean(expanded), nil
}

// PlanPath returns where a saved plan for target lives.
func (w *Workspace) PlanPath(target string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, target)
	return filepath.Join(w.PlansDir, name+".json")
}

func expandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok {
		return path, nil
	}
	if rest != "" && !strings.HasPrefix(rest, "/") {
		return "", fmt.Errorf("unsupported home expansion: %s", path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, rest), nil
}
