package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "rg", cfg.Tool.Binary)
	assert.Equal(t, 30000, cfg.Tool.TimeoutMs)
	assert.Equal(t, 2, cfg.Tool.ContextLines)
	assert.Equal(t, int64(DefaultMaxOutputBytes), cfg.Tool.MaxOutputBytes)
	assert.Equal(t, ThemeDark, cfg.Display.Theme)
	assert.Equal(t, "code --goto {target}", cfg.Editor.Command)
	assert.Equal(t, 300, cfg.History.MaxEntries)
	assert.Equal(t, 0.7, cfg.History.SuggestThreshold)
	assert.Empty(t, cfg.Exclude)
}

func TestParseKDL_FullConfig(t *testing.T) {
	kdlContent := `
project {
    root "/work/space"
}

tool {
    binary "/opt/bin/rg"; timeout_ms 5000; context_lines 4
    max_output "2MB"
    args "--hidden" "--max-columns=300"
}

display {
    theme "Light"
}

editor {
    command "vim +{line} {file}"
}

history {
    max_entries 50
    dir "/tmp/hist"
    suggest_threshold 0.85
}

server {
    socket "/tmp/cg.sock"
}

exclude "**/.git/**" "**/node_modules/**"
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "/work/space", cfg.Project.Root)
	assert.Equal(t, "/opt/bin/rg", cfg.Tool.Binary)
	assert.Equal(t, 5000, cfg.Tool.TimeoutMs)
	assert.Equal(t, 4, cfg.Tool.ContextLines)
	assert.Equal(t, int64(2*1024*1024), cfg.Tool.MaxOutputBytes)
	assert.Equal(t, []string{"--hidden", "--max-columns=300"}, cfg.Tool.ExtraArgs)
	assert.Equal(t, ThemeLight, cfg.Display.Theme)
	assert.Equal(t, "vim +{line} {file}", cfg.Editor.Command)
	assert.Equal(t, 50, cfg.History.MaxEntries)
	assert.Equal(t, "/tmp/hist", cfg.History.Dir)
	assert.Equal(t, 0.85, cfg.History.SuggestThreshold)
	assert.Equal(t, "/tmp/cg.sock", cfg.Server.Socket)
	assert.Equal(t, []string{"**/.git/**", "**/node_modules/**"}, cfg.Exclude)
}

func TestParseKDL_IntegerToFloat(t *testing.T) {
	cfg, err := parseKDL(`history { suggest_threshold 1 }`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.History.SuggestThreshold)
}

func TestParseKDL_ExcludeBlockFormat(t *testing.T) {
	kdlContent := `
exclude {
    "**/dist/**"
    "**/build/**"
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	assert.Equal(t, []string{"**/dist/**", "**/build/**"}, cfg.Exclude)
}

func TestParseKDL_RelativeRoot(t *testing.T) {
	cfg := Default("/ignored")
	require.NoError(t, applyKDL(cfg, `project { root "sub/dir" }`, "/base"))
	assert.Equal(t, filepath.Clean("/base/sub/dir"), cfg.Project.Root)
}

func TestParseKDL_Invalid(t *testing.T) {
	_, err := parseKDL(`tool { binary "rg"`)
	assert.Error(t, err)

	_, err = parseKDL(`tool { max_output "lots" }`)
	assert.Error(t, err)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{"10", 10, false},
		{"10B", 10, false},
		{"4KB", 4096, false},
		{"2mb", 2 * 1024 * 1024, false},
		{" 1GB ", 1024 * 1024 * 1024, false},
		{"MB", 0, true},
		{"ten", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	cfg := Default("/work")
	cfg.Tool.ExtraArgs = []string{"--hidden"}
	cfg.Editor.Command = `code --goto "{target}"`
	cfg.History.SuggestThreshold = 0.55
	cfg.Exclude = []string{"**/vendor/**"}

	parsed := Default("/elsewhere")
	require.NoError(t, applyKDL(parsed, Format(cfg), "/"))

	assert.Equal(t, cfg.Project, parsed.Project)
	assert.Equal(t, cfg.Tool, parsed.Tool)
	assert.Equal(t, cfg.Display, parsed.Display)
	assert.Equal(t, cfg.Editor, parsed.Editor)
	assert.Equal(t, cfg.History, parsed.History)
	assert.Equal(t, cfg.Exclude, parsed.Exclude)
}

func TestApplyKDLFile_Missing(t *testing.T) {
	cfg := Default("/work")
	found, err := ApplyKDLFile(cfg, filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, cfg.ConfigDir)
}

func TestApplyKDLFile_SetsConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`tool { binary "./bin/rg" }`), 0644))

	cfg := Default(dir)
	found, err := ApplyKDLFile(cfg, path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, dir, cfg.ConfigDir)
	assert.Equal(t, "./bin/rg", cfg.Tool.Binary)
}
