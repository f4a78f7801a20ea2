// Package sandbox executes short code snippets in a separate process
// with a bounded lifetime, a scratch working directory and a scrubbed
// environment. Submitted code never runs inside this process.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mosaibah/askdocs/config"
)

// Result carries the interpreter's combined output.
type Result struct {
	Output   string
	ExitCode int
	TimedOut bool
}

// Runner executes snippets through a configured interpreter binary.
type Runner struct {
	interpreter string
	timeout     time.Duration
	maxOutput   int
	workDir     string
}

func NewRunner(cfg config.SandboxConfig) (*Runner, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("sandbox: disabled by configuration")
	}
	interpreter := cfg.Interpreter
	if interpreter == "" {
		interpreter = "python3"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	maxOutput := cfg.MaxOutput
	if maxOutput <= 0 {
		maxOutput = 64 * 1024
	}
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "askdocs-sandbox")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("sandbox workdir: %w", err)
	}
	return &Runner{interpreter: interpreter, timeout: timeout, maxOutput: maxOutput, workDir: workDir}, nil
}

// Run writes code to a scratch file and executes it. The interpreter
// sees only PATH, HOME pointed at the scratch dir, and a wall-clock
// deadline; nothing from the parent environment leaks through.
func (r *Runner) Run(ctx context.Context, code string) (Result, error) {
	scratch := filepath.Join(r.workDir, uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return Result{}, fmt.Errorf("sandbox scratch: %w", err)
	}
	defer os.RemoveAll(scratch)

	script := filepath.Join(scratch, "snippet")
	if err := os.WriteFile(script, []byte(code), 0o600); err != nil {
		return Result{}, fmt.Errorf("sandbox write: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.interpreter, script)
	cmd.Dir = scratch
	cmd.Env = []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + scratch,
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()

	out := buf.Bytes()
	if len(out) > r.maxOutput {
		out = append(out[:r.maxOutput], []byte("\n[output truncated]")...)
	}
	res := Result{Output: string(out)}

	if ctx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		return res, fmt.Errorf("sandbox: execution exceeded %s", r.timeout)
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, fmt.Errorf("sandbox: interpreter exited %d", res.ExitCode)
		}
		return res, fmt.Errorf("sandbox: %w", err)
	}
	return res, nil
}
