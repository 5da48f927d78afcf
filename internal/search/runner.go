package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/standardbeagle/colorgrep/internal/config"
	"github.com/standardbeagle/colorgrep/internal/debug"
	cgerrors "github.com/standardbeagle/colorgrep/internal/errors"
	"github.com/standardbeagle/colorgrep/internal/render"
)

// Outcome is everything one search produced.
type Outcome struct {
	HTML       string          `json:"html"`
	HasResults bool            `json:"hasResults"`
	ExitCode   int             `json:"exitCode"`
	Stderr     string          `json:"stderr,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
	Stats      render.Stats    `json:"stats"`
	Duration   time.Duration   `json:"duration"`
	Document   render.Document `json:"-"`
}

// Runner executes searches with one configuration. It holds no per-search
// state, so one Runner can serve concurrent searches.
type Runner struct {
	cfg *config.Config
}

// NewRunner creates a runner for cfg
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg}
}

// ResolveBinary locates the configured search tool.
//
// A bare name is looked up on PATH. A relative path with a separator is
// taken relative to the directory of the config file that named it.
func ResolveBinary(binary, configDir string) (string, error) {
	if binary == "" {
		binary = config.DefaultBinary
	}

	if strings.ContainsAny(binary, `/\`) {
		if !filepath.IsAbs(binary) && configDir != "" {
			binary = filepath.Join(configDir, binary)
		}
		info, err := os.Stat(binary)
		if err != nil {
			return "", cgerrors.NewToolError(binary, -1, "", err)
		}
		if info.IsDir() {
			return "", cgerrors.NewToolError(binary, -1, "", fmt.Errorf("%s is a directory", binary))
		}
		return binary, nil
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return "", cgerrors.NewToolError(binary, -1, "", err)
	}
	return path, nil
}

// workDir is where the tool runs and what displayed paths are relative to
func (r *Runner) workDir(req Request) string {
	if root := req.workspaceRoot(r.cfg); root != "" {
		return root
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// Run executes req and classifies the result.
//
// The returned Outcome always carries displayable markup, including for
// failures. The error is non-nil when the tool could not run, exited with
// an error status, or hit the configured timeout.
func (r *Runner) Run(ctx context.Context, req Request, isDark bool) (Outcome, error) {
	start := time.Now()
	args, warnings := BuildArgs(req, r.cfg)
	outcome := Outcome{Warnings: warnings}

	binary, err := ResolveBinary(r.cfg.Tool.Binary, r.cfg.ConfigDir)
	if err != nil {
		debug.LogSearch("cannot resolve search tool: %v\n", err)
		outcome.ExitCode = -1
		outcome.HTML = errorDiv(err.Error())
		outcome.Duration = time.Since(start)
		return outcome, err
	}

	timeout := r.cfg.Timeout()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cwd := r.workDir(req)
	stdout := &cappedBuffer{max: r.cfg.Tool.MaxOutputBytes}
	var stderr bytes.Buffer

	cmd := exec.CommandContext(runCtx, binary, args...)
	cmd.Dir = cwd
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	debug.LogSearch("running %s %q in %s\n", binary, args, cwd)
	runErr := cmd.Run()
	outcome.Duration = time.Since(start)

	if stdout.truncated {
		outcome.Warnings = append(outcome.Warnings,
			fmt.Sprintf("output truncated after %d bytes", stdout.max))
	}

	out := stdout.String()
	outcome.Stderr = strings.TrimRight(stderr.String(), "\n")
	outcome.HasResults = strings.TrimSpace(out) != ""
	outcome.ExitCode = exitCode(runErr)

	var html strings.Builder
	if out != "" {
		outcome.Document = render.Build(out, cwd, isDark, cwd)
		outcome.Stats = outcome.Document.Stats()
		html.WriteString(render.HTML(outcome.Document))
	}
	if outcome.Stderr != "" {
		html.WriteString(errorDiv(outcome.Stderr))
	}

	var resultErr error
	switch {
	case runErr != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		resultErr = cgerrors.NewTimeoutError(binary, timeout)
		html.WriteString(errorDiv(fmt.Sprintf("Search timed out after %d seconds", int(timeout.Seconds()))))
	case runErr != nil && ctx.Err() != nil:
		resultErr = cgerrors.NewToolError(binary, outcome.ExitCode, outcome.Stderr, ctx.Err())
		if html.Len() == 0 {
			html.WriteString(errorDiv("Search canceled"))
		}
	case runErr != nil && outcome.ExitCode == 1 && outcome.Stderr == "":
		// no matches is exit status 1 with nothing on stderr, not a failure
		if out == "" {
			html.Reset()
			html.WriteString(render.StatusMarkup(render.StatusNoMatches, ""))
		}
	case runErr != nil:
		resultErr = cgerrors.NewToolError(binary, outcome.ExitCode, outcome.Stderr, runErr)
		if html.Len() == 0 {
			html.WriteString(errorDiv("Search command failed"))
		}
	}

	outcome.HTML = html.String()
	debug.LogSearch("search %q finished: exit=%d files=%d matches=%d in %s\n",
		req.Text, outcome.ExitCode, outcome.Stats.Files, outcome.Stats.Matches, outcome.Duration)
	return outcome, resultErr
}

func errorDiv(message string) string {
	return `<div class="error">` + render.EscapeHTML(message) + `</div>`
}

// exitCode extracts the process exit status; -1 when there is none
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// cappedBuffer keeps at most max bytes and silently discards the rest so
// the tool never blocks or fails on a full pipe.
type cappedBuffer struct {
	buf       bytes.Buffer
	max       int64
	truncated bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if c.max <= 0 {
		return c.buf.Write(p)
	}
	remaining := c.max - int64(c.buf.Len())
	if remaining <= 0 {
		c.truncated = true
		return len(p), nil
	}
	if int64(len(p)) > remaining {
		c.buf.Write(p[:remaining])
		c.truncated = true
		return len(p), nil
	}
	return c.buf.Write(p)
}

func (c *cappedBuffer) String() string {
	return c.buf.String()
}
