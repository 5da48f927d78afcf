package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/colorgrep/internal/config"
	"github.com/standardbeagle/colorgrep/internal/debug"
	"github.com/standardbeagle/colorgrep/internal/version"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	rootDir := c.String("root")

	if rootDir != "" {
		absRoot, err := filepath.Abs(rootDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootDir, err)
		}
		rootDir = absRoot
	}

	cfg, err := config.LoadWithRoot(configPath, rootDir)
	if err != nil {
		if configPath == "" {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if rootDir != "" {
		cfg.Project.Root = rootDir
	}
	switch {
	case c.Bool("dark"):
		cfg.Display.Theme = config.ThemeDark
	case c.Bool("light"):
		cfg.Display.Theme = config.ThemeLight
	}
	return cfg, nil
}

// resolveDark turns the configured theme into a dark/light decision.
// "auto" asks the terminal.
func resolveDark(cfg *config.Config) bool {
	switch cfg.Display.Theme {
	case config.ThemeLight:
		return false
	case config.ThemeAuto:
		return lipgloss.HasDarkBackground()
	default:
		return true
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "colorgrep",
		Usage:                  "Search a workspace with ripgrep and show colorized, clickable results",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file (default: <root>/" + config.FileName + ")",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Workspace root directory",
			},
			&cli.BoolFlag{
				Name:  "dark",
				Usage: "Use dark theme colors",
			},
			&cli.BoolFlag{
				Name:  "light",
				Usage: "Use light theme colors",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("dark") && c.Bool("light") {
				return fmt.Errorf("--dark and --light are mutually exclusive")
			}
			return nil
		},
		Commands: []*cli.Command{
			newSearchCommand(),
			newRenderCommand(),
			newArgsCommand(),
			newHistoryCommand(),
			newOpenCommand(),
			{
				Name:   "serve",
				Usage:  "Run the panel server for the workspace",
				Action: serveCommand,
			},
			{
				Name:  "shutdown",
				Usage: "Stop the panel server for the workspace",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Stop without waiting for running searches",
					},
				},
				Action: shutdownCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Serve search tools over MCP on stdio",
				Action: mcpCommand,
			},
			newConfigCommand(),
		},
	}
}

func main() {
	if debug.IsDebugEnabled() && os.Getenv("COLORGREP_DEBUG_FILE") != "" {
		if path, err := debug.InitDebugLogFile(); err == nil {
			fmt.Fprintf(os.Stderr, "Debug log: %s\n", path)
		}
	}

	err := newApp().Run(os.Args)
	debug.CloseDebugLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
