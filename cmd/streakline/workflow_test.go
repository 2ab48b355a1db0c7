package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// buildBinary returns STREAKLINE_BIN when set, otherwise builds the command into its
// own temp dir, apart from the HOME handed to isolatedEnv.
func buildBinary(t *testing.T) string {
	t.Helper()
	if bin := os.Getenv("STREAKLINE_BIN"); bin != "" {
		return bin
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not found and STREAKLINE_BIN not set")
	}
	bin := filepath.Join(t.TempDir(), "streakline")
	build := exec.Command(goBin, "build", "-o", bin, ".")
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build streakline: %v\nOutput: %s", err, out)
	}
	return bin
}

func isolatedEnv(tempDir string) []string {
	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "HOME=") || strings.HasPrefix(e, "XDG_CONFIG_HOME=") || strings.HasPrefix(e, "STREAKLINE_") {
			continue
		}
		env = append(env, e)
	}
	return append(env,
		fmt.Sprintf("HOME=%s", tempDir),
		fmt.Sprintf("XDG_CONFIG_HOME=%s", tempDir),
		fmt.Sprintf("STREAKLINE_CONFIG=%s", filepath.Join(tempDir, "streakline", "streakline.db")),
		"STREAKLINE_TIMEZONE=UTC",
	)
}

func TestEndToEndWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end workflow in short mode")
	}

	tempDir := t.TempDir()
	cliPath := buildBinary(t)
	env := isolatedEnv(tempDir)

	run := func(args ...string) string {
		t.Helper()
		return runCmd(t, cliPath, tempDir, env, args...)
	}

	out := run("init")
	if !strings.Contains(out, "Initialized streakline storage") {
		t.Fatalf("unexpected init output: %s", out)
	}

	out = run("habit", "add", "Read", "--target", "20", "--units", "pages")
	if !strings.Contains(out, "Added habit: Read (id 1)") {
		t.Fatalf("unexpected habit add output: %s", out)
	}

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	run("complete", "1", "--at", yesterday)
	run("complete", "1")

	var streak struct {
		CurrentStreak int `json:"current_streak"`
		LongestStreak int `json:"longest_streak"`
	}
	if err := json.Unmarshal([]byte(run("streak", "show", "1", "-o", "json")), &streak); err != nil {
		t.Fatalf("streak output is not JSON: %v", err)
	}
	if streak.CurrentStreak != 2 || streak.LongestStreak != 2 {
		t.Errorf("expected streak 2/2, got %d/%d", streak.CurrentStreak, streak.LongestStreak)
	}

	var completions []map[string]any
	if err := json.Unmarshal([]byte(run("completions", "list", "1", "-o", "json")), &completions); err != nil {
		t.Fatalf("completions output is not JSON: %v", err)
	}
	if len(completions) != 2 {
		t.Errorf("expected 2 completions, got %d", len(completions))
	}

	if out := run("backup", "create"); !strings.Contains(out, "Backup created") {
		t.Errorf("unexpected backup output: %s", out)
	}
	if out := run("doctor"); !strings.Contains(out, "All diagnostics passed!") {
		t.Errorf("doctor reported problems: %s", out)
	}

	run("habit", "archive", "1")
	if out := run("habit", "list"); !strings.Contains(out, "No habits found.") {
		t.Errorf("archived habit still listed: %s", out)
	}
}

func TestUnknownHabitExitsNonZero(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end workflow in short mode")
	}

	tempDir := t.TempDir()
	cliPath := buildBinary(t)
	env := isolatedEnv(tempDir)
	runCmd(t, cliPath, tempDir, env, "init")

	cmd := exec.Command(cliPath, "streak", "show", "42")
	cmd.Env = env
	cmd.Dir = tempDir
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure for unknown habit, got output: %s", out)
	}
	if !strings.Contains(string(out), "not found") {
		t.Errorf("expected not found error, got: %s", out)
	}
}

func runCmd(t *testing.T, path, dir string, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command(path, args...)
	cmd.Env = env
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = string(ee.Stderr)
		}
		t.Fatalf("Command %s %v failed: %v\nOutput: %s\nStderr: %s", path, args, err, out, stderr)
	}
	return string(out)
}
