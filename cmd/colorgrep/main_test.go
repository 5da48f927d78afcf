package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/colorgrep/internal/config"
	"github.com/standardbeagle/colorgrep/internal/search"
	"github.com/standardbeagle/colorgrep/internal/server"
	"github.com/standardbeagle/colorgrep/internal/session"
)

const matchStream = `{"type":"begin","data":{"path":{"text":"src/a.go"}}}
{"type":"match","data":{"path":{"text":"src/a.go"},"lines":{"text":"func hello() {}\n"},"line_number":3,"submatches":[{"match":{"text":"hello"},"start":5,"end":10}]}}
{"type":"end","data":{"path":{"text":"src/a.go"}}}
`

// setupProject creates a workspace whose config points at a fake search
// tool, with HOME and the history directory isolated per test.
func setupProject(t *testing.T, toolBody string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))

	tool := filepath.Join(t.TempDir(), "fake-rg")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"+toolBody+"\n"), 0755))

	kdl := fmt.Sprintf("tool {\n    binary %q\n}\n", tool)
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte(kdl), 0644))
	return root
}

func matchingTool() string {
	return "cat <<'EOF'\n" + matchStream + "EOF"
}

// runApp runs the CLI in-process and returns what it wrote to stdout
func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"colorgrep"}, args...))
	return stdout.String(), err
}

func TestSearchCommand_TerminalOutput(t *testing.T) {
	root := setupProject(t, matchingTool())

	out, err := runApp(t, "", "-r", root, "search", "hello")
	require.NoError(t, err)
	assert.Equal(t, "src/a.go\n3:func hello() {}\n", out)
}

func TestSearchCommand_Formats(t *testing.T) {
	root := setupProject(t, matchingTool())

	out, err := runApp(t, "", "-r", root, "search", "--html", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, `data-file="src/a.go"`)

	out, err = runApp(t, "", "-r", root, "search", "--json", "hello")
	require.NoError(t, err)
	var outcome search.Outcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.True(t, outcome.HasResults)
	assert.Equal(t, 1, outcome.Stats.Matches)
	assert.Equal(t, 0, outcome.ExitCode)

	_, err = runApp(t, "", "-r", root, "search", "--html", "--json", "hello")
	assert.Error(t, err)
}

func TestSearchCommand_NoMatches(t *testing.T) {
	root := setupProject(t, "exit 1")

	out, err := runApp(t, "", "-r", root, "search", "absent")
	require.NoError(t, err)
	assert.Equal(t, "No matches found\n", out)
}

func TestSearchCommand_ToolFailure(t *testing.T) {
	root := setupProject(t, "echo 'regex parse error' >&2; exit 2")

	_, err := runApp(t, "", "-r", root, "search", "-E", "(")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regex parse error")
}

func TestSearchCommand_RequiresText(t *testing.T) {
	root := setupProject(t, matchingTool())

	_, err := runApp(t, "", "-r", root, "search")
	assert.Error(t, err)
}

func TestSearchCommand_PassesOptions(t *testing.T) {
	root := setupProject(t, `printf '%s\n' "$@" > args.txt; exit 1`)

	_, err := runApp(t, "", "-r", root, "search", "-i", "-w", "-g", "*.go", "-p", "src", "needle")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "args.txt"))
	require.NoError(t, err)
	args := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Contains(t, args, "--ignore-case")
	assert.Contains(t, args, "--word-regexp")
	assert.Contains(t, args, "--fixed-strings")
	assert.Equal(t, []string{"--", "needle", "src/"}, args[len(args)-3:])
}

func TestHistoryCommands(t *testing.T) {
	root := setupProject(t, "exit 1")

	for _, text := range []string{"alpha", "beta", "alphabet"} {
		_, err := runApp(t, "", "-r", root, "search", text)
		require.NoError(t, err)
	}
	_, err := runApp(t, "", "-r", root, "search", "--no-history", "gamma")
	require.NoError(t, err)

	out, err := runApp(t, "", "-r", root, "history", "list")
	require.NoError(t, err)
	assert.Equal(t, "alphabet\nbeta\nalpha\n", out)

	out, err = runApp(t, "", "-r", root, "history", "suggest", "alp")
	require.NoError(t, err)
	assert.Equal(t, "alphabet\nalpha\n", out)

	_, err = runApp(t, "", "-r", root, "history", "delete", "beta")
	require.NoError(t, err)
	out, err = runApp(t, "", "-r", root, "history", "list")
	require.NoError(t, err)
	assert.Equal(t, "alphabet\nalpha\n", out)

	_, err = runApp(t, "", "-r", root, "history", "clear")
	require.NoError(t, err)
	out, err = runApp(t, "", "-r", root, "history", "list")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRenderCommand(t *testing.T) {
	root := setupProject(t, "exit 1")

	out, err := runApp(t, matchStream, "-r", root, "render")
	require.NoError(t, err)
	assert.Equal(t, "src/a.go\n3:func hello() {}\n", out)

	out, err = runApp(t, "", "-r", root, "render")
	require.NoError(t, err)
	assert.Equal(t, "No results found\n", out)

	out, err = runApp(t, matchStream, "-r", root, "render", "--html")
	require.NoError(t, err)
	assert.Contains(t, out, "filename-group")
}

func TestArgsCommands(t *testing.T) {
	root := setupProject(t, "exit 1")

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"shell quotes", []string{"args", "shell", `a "b c" d`}, "\"a\"\n\"b c\"\n\"d\"\n"},
		{"csv", []string{"args", "csv", "*.go, *.md,,"}, "\"*.go\"\n\"*.md\"\n"},
		{"pattern marks directories", []string{"args", "pattern", "src"}, "\"src/\"\n"},
		{"blank pattern", []string{"args", "pattern", ""}, "\".\"\n"},
		{"multi pattern", []string{"args", "pattern", "--multi", "src main.go"}, "\"src/\"\n\"main.go\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runApp(t, "", append([]string{"-r", root}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestConfigCommands(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := t.TempDir()

	_, err := runApp(t, "", "-r", root, "config", "init")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(root, config.FileName))

	_, err = runApp(t, "", "-r", root, "config", "init")
	assert.Error(t, err)
	_, err = runApp(t, "", "-r", root, "config", "init", "--force")
	require.NoError(t, err)

	out, err := runApp(t, "", "-r", root, "--light", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `binary "rg"`)
	assert.Contains(t, out, `theme "light"`)
	assert.Contains(t, out, fmt.Sprintf("root %q", root))

	out, err = runApp(t, "", "-r", root, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte(`tool { context_lines 99 }`), 0644))
	out, err = runApp(t, "", "-r", root, "config", "validate")
	assert.Error(t, err)
	assert.Contains(t, out, "validation failed")
}

func TestOpenCommandPrint(t *testing.T) {
	root := setupProject(t, "exit 1")

	out, err := runApp(t, "", "-r", root, "open", "--print", "src/a.go", "3")
	require.NoError(t, err)
	assert.Equal(t, "code --goto "+filepath.Join(root, "src/a.go")+":3:1\n", out)

	_, err = runApp(t, "", "-r", root, "open", "--print", "src/a.go", "zero")
	assert.Error(t, err)
}

func TestThemeFlagsAreExclusive(t *testing.T) {
	root := setupProject(t, "exit 1")

	_, err := runApp(t, "", "-r", root, "--dark", "--light", "config", "show")
	assert.Error(t, err)
}

func TestResolveDark(t *testing.T) {
	cfg := config.Default("/work")
	cfg.Display.Theme = config.ThemeLight
	assert.False(t, resolveDark(cfg))
	cfg.Display.Theme = config.ThemeDark
	assert.True(t, resolveDark(cfg))
}

func TestServeAndShutdown(t *testing.T) {
	root := setupProject(t, "exit 1")
	socket := filepath.Join(os.TempDir(), fmt.Sprintf("cg-cli-%s.sock", session.KeyString(root)[:10]))
	kdl, err := os.ReadFile(filepath.Join(root, config.FileName))
	require.NoError(t, err)
	kdl = append(kdl, []byte(fmt.Sprintf("server {\n    socket %q\n}\n", socket))...)
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), kdl, 0644))

	served := make(chan error, 1)
	go func() {
		var out bytes.Buffer
		app := newApp()
		app.Writer = &out
		served <- app.Run([]string{"colorgrep", "-r", root, "serve"})
	}()

	client := server.NewClientWithSocket(socket)
	require.NoError(t, client.WaitForReady(5*time.Second))

	ping, err := client.Ping()
	require.NoError(t, err)
	assert.Equal(t, root, ping.Root)

	out, err := runApp(t, "", "-r", root, "shutdown")
	require.NoError(t, err)
	assert.Contains(t, out, "shut down successfully")

	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after shutdown")
	}
	assert.NoFileExists(t, socket)
}
