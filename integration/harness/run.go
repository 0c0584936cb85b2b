package harness

import (
	"bytes"
	"os"
	"os/exec"
	"sort"
	"strings"
	"testing"
)

// Result is the outcome of one CLI invocation.
type Result struct {
	Stdout string
	Stderr string
	Code   int
}

// Binary runs the built CLI from a fixed working directory.
type Binary struct {
	Path string
	Dir  string
	Env  map[string]string
}

// NewBinary builds the CLI and runs it from a fresh temp dir.
func NewBinary(t *testing.T) *Binary {
	t.Helper()
	return &Binary{Path: BuildBinary(t), Dir: t.TempDir()}
}

// Run executes the CLI and returns its output and exit code.
func (b *Binary) Run(t *testing.T, args ...string) Result {
	t.Helper()

	cmd := exec.Command(b.Path, args...)
	cmd.Dir = b.Dir
	if len(b.Env) > 0 {
		cmd.Env = mergeEnv(b.Env)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := Result{}
	if err := cmd.Run(); err != nil {
		ee, ok := err.(*exec.ExitError)
		if !ok {
			t.Fatalf("run %s: %v", b.Path, err)
		}
		res.Code = ee.ExitCode()
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res
}

// MustRun is Run that fails the test on a non-zero exit.
func (b *Binary) MustRun(t *testing.T, args ...string) Result {
	t.Helper()
	res := b.Run(t, args...)
	if res.Code != 0 {
		t.Fatalf("prodplan %s exit code %d\nstdout:\n%s\nstderr:\n%s",
			strings.Join(args, " "), res.Code, res.Stdout, res.Stderr)
	}
	return res
}

func mergeEnv(overrides map[string]string) []string {
	env := make(map[string]string, len(overrides))
	for _, entry := range os.Environ() {
		key, val, _ := strings.Cut(entry, "=")
		env[key] = val
	}
	for k, v := range overrides {
		env[k] = v
	}

	merged := make([]string, 0, len(env))
	for k, v := range env {
		merged = append(merged, k+"="+v)
	}
	sort.Strings(merged)
	return merged
}
