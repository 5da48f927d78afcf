package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/colorgrep/internal/config"
	"github.com/standardbeagle/colorgrep/internal/search"
)

func newConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:    "init",
				Aliases: []string{"i"},
				Usage:   "Write a configuration file with the default settings",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: <root>/" + config.FileName + ")",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite existing configuration file",
					},
				},
				Action: configInitCommand,
			},
			{
				Name:    "show",
				Aliases: []string{"s"},
				Usage:   "Show the effective configuration",
				Action:  configShowCommand,
			},
			{
				Name:    "validate",
				Aliases: []string{"v"},
				Usage:   "Validate configuration files",
				Action:  configValidateCommand,
			},
		},
	}
}

func configInitCommand(c *cli.Context) error {
	root := c.String("root")
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}

	output := c.String("output")
	if output == "" {
		output = filepath.Join(absRoot, config.FileName)
	}

	if !c.Bool("force") {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", output)
		}
	}

	cfg := config.Default(".")
	if err := os.WriteFile(output, []byte(config.Format(cfg)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Configuration file created: %s\n", output)
	return nil
}

func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, config.Format(cfg))
	return nil
}

func configValidateCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		fmt.Fprintf(c.App.Writer, "Configuration validation failed: %v\n", err)
		return err
	}

	var warnings []string
	if cfg.Tool.TimeoutMs < 1000 {
		warnings = append(warnings, "tool.timeout_ms is below one second, searches in large trees may time out")
	}
	if _, err := search.ResolveBinary(cfg.Tool.Binary, cfg.ConfigDir); err != nil {
		warnings = append(warnings, fmt.Sprintf("search tool not found: %v", err))
	}

	fmt.Fprintln(c.App.Writer, "Configuration is valid")
	for _, w := range warnings {
		fmt.Fprintf(c.App.Writer, "Warning: %s\n", w)
	}
	return nil
}
