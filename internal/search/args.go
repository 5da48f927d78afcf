// Package search runs the external search tool for a panel request and
// turns whatever it produced into result markup.
package search

import (
	"strconv"

	"github.com/standardbeagle/colorgrep/internal/argparse"
	"github.com/standardbeagle/colorgrep/internal/config"
)

// Options are the per-search toggles shown in the panel.
type Options struct {
	IgnoreCase bool `json:"ignoreCase"`
	WholeWord  bool `json:"wholeWord"`
	Regex      bool `json:"regex"`
}

// Request is one search as entered by the user.
type Request struct {
	Text string
	// FilePattern is a comma separated list of globs
	FilePattern string
	// Path is a comma separated list of files or directories
	Path      string
	Options   Options
	HistoryID int
	// Root is the workspace searched and displayed against; empty means
	// the configured project root
	Root string
}

func (req Request) workspaceRoot(cfg *config.Config) string {
	if req.Root != "" {
		return req.Root
	}
	return cfg.Project.Root
}

// BuildArgs returns the tool argv (without the binary) for req, plus
// warnings about glob patterns the tool will probably reject.
//
// Every path the user listed is searched. The search text follows "--" so
// a pattern starting with "-" is never taken for a flag.
func BuildArgs(req Request, cfg *config.Config) ([]string, []string) {
	args := []string{
		"--json",
		"--line-number",
		"-C", strconv.Itoa(cfg.Tool.ContextLines),
	}

	if req.Options.IgnoreCase {
		args = append(args, "--ignore-case")
	}
	if req.Options.WholeWord {
		args = append(args, "--word-regexp")
	}
	if !req.Options.Regex {
		args = append(args, "--fixed-strings")
	}

	args = append(args, cfg.Tool.ExtraArgs...)

	globs := argparse.ParseCSVInput(req.FilePattern)
	for _, glob := range globs {
		args = append(args, "-g", glob)
	}
	for _, exclude := range cfg.Exclude {
		args = append(args, "-g", "!"+exclude)
	}
	warnings := argparse.ValidateGlobs(globs)

	args = append(args, "--", req.Text)
	args = append(args, searchPaths(req.Path, req.workspaceRoot(cfg))...)
	return args, warnings
}

// searchPaths expands the comma separated path input. Each entry is one
// path even when it contains spaces; directories get a trailing "/".
func searchPaths(input, workspaceRoot string) []string {
	var paths []string
	for _, token := range argparse.ParseCSVInput(input) {
		paths = append(paths, argparse.ProcessFilePattern(token, workspaceRoot, false)...)
	}
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}
