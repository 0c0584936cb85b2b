// Package harness builds the prodplan binary and runs it against fixture
// workspaces for the integration smoke tests.
package harness

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

// Version is stamped into the binary built for tests.
const Version = "v0.0.0-integration"

var repoRoot = sync.OnceValues(func() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("runtime.Caller failed")
	}
	root := filepath.Dir(filepath.Dir(filepath.Dir(file)))
	if _, err := os.Stat(filepath.Join(root, "go.mod")); err != nil {
		return "", fmt.Errorf("verify repo root: %w", err)
	}
	return root, nil
})

var binary = sync.OnceValues(func() (string, error) {
	root, err := repoRoot()
	if err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp("", "prodplan-bin-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	out := filepath.Join(dir, "prodplan")

	cmd := exec.Command("go", "build",
		"-ldflags", "-X main.version="+Version,
		"-o", out, "./cmd/prodplan")
	cmd.Dir = root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("go build failed: %w\nstderr:\n%s", err, stderr.String())
	}
	return out, nil
})

// RepoRoot returns the repository root for the current module.
func RepoRoot(t *testing.T) string {
	t.Helper()
	root, err := repoRoot()
	if err != nil {
		t.Fatalf("resolve repo root: %v", err)
	}
	return root
}

// BuildBinary compiles the prodplan CLI once per test run and returns the path.
func BuildBinary(t *testing.T) string {
	t.Helper()
	path, err := binary()
	if err != nil {
		t.Fatalf("build prodplan binary: %v", err)
	}
	return path
}
