package sandbox

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/mosaibah/askdocs/config"
)

func shRunner(t *testing.T, timeout time.Duration) *Runner {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r, err := NewRunner(config.SandboxConfig{
		Enabled:     true,
		Interpreter: "sh",
		Timeout:     timeout,
		WorkDir:     t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func TestRunCapturesOutput(t *testing.T) {
	r := shRunner(t, 5*time.Second)
	res, err := r.Run(context.Background(), "echo hello from the sandbox")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(res.Output, "hello from the sandbox") {
		t.Fatalf("missing output, got %q", res.Output)
	}
}

func TestRunEnforcesTimeout(t *testing.T) {
	r := shRunner(t, 500*time.Millisecond)
	res, err := r.Run(context.Background(), "sleep 30")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !res.TimedOut {
		t.Fatal("result must be marked timed out")
	}
}

func TestRunReportsExitCode(t *testing.T) {
	r := shRunner(t, 5*time.Second)
	res, err := r.Run(context.Background(), "exit 3")
	if err == nil {
		t.Fatal("expected failure for nonzero exit")
	}
	if res.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", res.ExitCode)
	}
}

func TestRunScrubsEnvironment(t *testing.T) {
	t.Setenv("ASKDOCS_SECRET", "do-not-leak")
	r := shRunner(t, 5*time.Second)
	res, err := r.Run(context.Background(), "echo secret=$ASKDOCS_SECRET")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Contains(res.Output, "do-not-leak") {
		t.Fatal("parent environment leaked into the sandbox")
	}
}

func TestDisabledSandboxRefusesConstruction(t *testing.T) {
	if _, err := NewRunner(config.SandboxConfig{Enabled: false}); err == nil {
		t.Fatal("expected error when disabled")
	}
}
