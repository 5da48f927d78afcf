package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/colorgrep/internal/argparse"
	"github.com/standardbeagle/colorgrep/internal/debug"
	cgerrors "github.com/standardbeagle/colorgrep/internal/errors"
	"github.com/standardbeagle/colorgrep/internal/history"
	"github.com/standardbeagle/colorgrep/internal/render"
	"github.com/standardbeagle/colorgrep/internal/search"
)

func newSearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search the workspace and print grouped results",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "glob",
				Aliases: []string{"g"},
				Usage:   "Comma separated file globs, e.g. \"*.go, *.md\"",
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Comma separated files or directories to search",
			},
			&cli.BoolFlag{
				Name:    "ignore-case",
				Aliases: []string{"i"},
				Usage:   "Case insensitive search",
			},
			&cli.BoolFlag{
				Name:    "word-regexp",
				Aliases: []string{"w"},
				Usage:   "Match whole words only",
			},
			&cli.BoolFlag{
				Name:    "regex",
				Aliases: []string{"E"},
				Usage:   "Interpret text as a regular expression",
			},
			&cli.BoolFlag{
				Name:  "html",
				Usage: "Print panel markup instead of terminal text",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the search outcome as JSON",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record the search in history",
			},
		},
		Action: searchCommand,
	}
}

func searchCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("search text is required")
	}
	if c.Bool("html") && c.Bool("json") {
		return fmt.Errorf("--html and --json are mutually exclusive")
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	if !c.Bool("no-history") {
		if store, err := history.Open(cfg); err != nil {
			debug.LogHistory("history unavailable: %v\n", err)
		} else if _, err := store.Add(text); err != nil {
			debug.LogHistory("cannot record %q: %v\n", text, err)
		}
	}

	isDark := resolveDark(cfg)
	outcome, runErr := search.NewRunner(cfg).Run(c.Context, search.Request{
		Text:        text,
		FilePattern: c.String("glob"),
		Path:        c.String("path"),
		Options: search.Options{
			IgnoreCase: c.Bool("ignore-case"),
			WholeWord:  c.Bool("word-regexp"),
			Regex:      c.Bool("regex"),
		},
	}, isDark)

	w := c.App.Writer
	for _, warning := range outcome.Warnings {
		fmt.Fprintf(c.App.ErrWriter, "Warning: %s\n", warning)
	}

	switch {
	case c.Bool("json"):
		if err := writeOutcomeJSON(w, outcome); err != nil {
			return err
		}
	case c.Bool("html"):
		fmt.Fprintln(w, outcome.HTML)
	default:
		doc := outcome.Document
		if len(doc.Nodes) == 0 && runErr == nil {
			doc = render.Document{IsDark: isDark, Nodes: []render.Node{&render.StatusNode{Status: render.StatusNoMatches}}}
		}
		if err := render.Terminal(doc, w); err != nil {
			return err
		}
		if outcome.Stderr != "" {
			fmt.Fprintln(c.App.ErrWriter, outcome.Stderr)
		}
	}

	if runErr != nil {
		return cgerrors.NewSearchError(text, runErr)
	}
	return nil
}

func writeOutcomeJSON(w io.Writer, outcome search.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}

func newRenderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Render ripgrep --json output read from stdin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "search-path",
				Usage: "Directory the search ran in (default: workspace root)",
			},
			&cli.StringFlag{
				Name:  "base-dir",
				Usage: "Directory displayed paths are relative to (default: workspace root)",
			},
			&cli.BoolFlag{
				Name:  "html",
				Usage: "Print panel markup instead of terminal text",
			},
		},
		Action: renderCommand,
	}
}

func renderCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	raw, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	searchPath := c.String("search-path")
	if searchPath == "" {
		searchPath = cfg.Project.Root
	}
	baseDir := c.String("base-dir")
	if baseDir == "" {
		baseDir = cfg.Project.Root
	}

	doc := render.Build(string(raw), searchPath, resolveDark(cfg), baseDir)
	if c.Bool("html") {
		fmt.Fprintln(c.App.Writer, render.HTML(doc))
	} else if err := render.Terminal(doc, c.App.Writer); err != nil {
		return err
	}

	if status := doc.Status(); status != nil && status.Status == render.StatusError {
		return fmt.Errorf("error parsing search results: %s", status.Message)
	}
	return nil
}

func newArgsCommand() *cli.Command {
	return &cli.Command{
		Name:  "args",
		Usage: "Show how panel inputs are tokenized",
		Subcommands: []*cli.Command{
			{
				Name:      "shell",
				Usage:     "Split input like a shell, honoring double quotes",
				ArgsUsage: "<input>",
				Action: func(c *cli.Context) error {
					return printTokens(c, argparse.ParseShellArguments(c.Args().First()))
				},
			},
			{
				Name:      "csv",
				Usage:     "Split comma separated input",
				ArgsUsage: "<input>",
				Action: func(c *cli.Context) error {
					return printTokens(c, argparse.ParseCSVInput(c.Args().First()))
				},
			},
			{
				Name:      "pattern",
				Usage:     "Expand a path pattern into search tool arguments",
				ArgsUsage: "<input>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "multi",
						Usage: "Treat the input as several shell-style tokens",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}
					return printTokens(c, argparse.ProcessFilePattern(c.Args().First(), cfg.Project.Root, c.Bool("multi")))
				},
			},
		},
	}
}

// printTokens writes one token per line, quoted so blanks stay visible
func printTokens(c *cli.Context, tokens []string) error {
	for _, token := range tokens {
		if _, err := fmt.Fprintf(c.App.Writer, "%q\n", token); err != nil {
			return err
		}
	}
	return nil
}
