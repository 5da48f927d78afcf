package config

import (
	"os"
	"path/filepath"
	"time"

	cgerrors "github.com/standardbeagle/colorgrep/internal/errors"
)

// FileName is the per-project and global configuration file name
const FileName = ".colorgrep.kdl"

// Defaults shared by code and configuration parsing
const (
	DefaultBinary           = "rg"
	DefaultTimeoutMs        = 30000
	DefaultContextLines     = 2
	DefaultMaxOutputBytes   = 64 * 1024 * 1024
	DefaultTheme            = ThemeDark
	DefaultEditorCommand    = "code --goto {target}"
	DefaultMaxHistory       = 300
	DefaultSuggestThreshold = 0.7
)

// Theme values accepted by display.theme
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto"
)

type Config struct {
	Version int
	Project Project
	Tool    Tool
	Display Display
	Editor  Editor
	History History
	Server  Server
	// Exclude globs are passed to the search tool as negated -g patterns
	Exclude []string
	// ConfigDir is the directory of the last config file applied, used to
	// resolve a relative tool binary path
	ConfigDir string
}

type Project struct {
	Root string
}

type Tool struct {
	Binary         string // search tool executable, looked up on PATH when bare
	TimeoutMs      int    // per-search deadline
	ContextLines   int    // lines of context requested around each match
	MaxOutputBytes int64  // stdout beyond this is dropped
	ExtraArgs      []string
}

type Display struct {
	Theme string // dark, light or auto
}

type Editor struct {
	Command string // template with {file} {line} {col} {target} placeholders
}

type History struct {
	MaxEntries       int
	Dir              string // empty means the per-user state directory
	SuggestThreshold float64
}

type Server struct {
	Socket string // empty means a per-workspace socket in the temp dir
}

// Default returns the built-in configuration rooted at root.
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Tool: Tool{
			Binary:         DefaultBinary,
			TimeoutMs:      DefaultTimeoutMs,
			ContextLines:   DefaultContextLines,
			MaxOutputBytes: DefaultMaxOutputBytes,
		},
		Display: Display{Theme: DefaultTheme},
		Editor:  Editor{Command: DefaultEditorCommand},
		History: History{
			MaxEntries:       DefaultMaxHistory,
			SuggestThreshold: DefaultSuggestThreshold,
		},
		Exclude: []string{},
	}
}

// Timeout returns the per-search deadline.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Tool.TimeoutMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot builds the effective configuration for rootDir.
//
// Layers, lowest first: built-in defaults, ~/.colorgrep.kdl, then either
// the explicit file at path or <rootDir>/.colorgrep.kdl. Later layers
// override scalar settings; exclude lists accumulate.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}
	absDir, err := filepath.Abs(searchDir)
	if err != nil {
		absDir = searchDir
	}

	cfg := Default(absDir)

	// Step 1: global base config from the home directory (if exists)
	if homeDir, err := os.UserHomeDir(); err == nil && filepath.Clean(homeDir) != filepath.Clean(absDir) {
		if _, err := ApplyKDLFile(cfg, filepath.Join(homeDir, FileName)); err != nil {
			return nil, err
		}
		// the global file never moves the project root
		cfg.Project.Root = absDir
	}

	// Step 2: explicit config file or project config
	projectFile := filepath.Join(absDir, FileName)
	if path != "" {
		projectFile = path
	}
	found, err := ApplyKDLFile(cfg, projectFile)
	if err != nil {
		return nil, err
	}
	if path != "" && !found {
		return nil, cgerrors.NewFileError("read", path, os.ErrNotExist)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeExcludes appends project patterns to base patterns, dropping duplicates
func mergeExcludes(base, project []string) []string {
	seen := make(map[string]bool, len(base)+len(project))
	merged := make([]string, 0, len(base)+len(project))
	for _, list := range [][]string{base, project} {
		for _, pattern := range list {
			if pattern == "" || seen[pattern] {
				continue
			}
			seen[pattern] = true
			merged = append(merged, pattern)
		}
	}
	return merged
}
