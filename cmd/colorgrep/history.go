package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/colorgrep/internal/history"
)

func newHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect and edit search history",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Print history, most recent first",
				Action: historyListCommand,
			},
			{
				Name:      "delete",
				Usage:     "Remove one entry",
				ArgsUsage: "<text>",
				Action:    historyDeleteCommand,
			},
			{
				Name:   "clear",
				Usage:  "Remove every entry",
				Action: historyClearCommand,
			},
			{
				Name:      "suggest",
				Usage:     "Suggest entries for a prefix",
				ArgsUsage: "<prefix>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of suggestions",
						Value:   history.DefaultSuggestLimit,
					},
				},
				Action: historySuggestCommand,
			},
		},
	}
}

func openHistory(c *cli.Context) (*history.Store, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

func printLines(c *cli.Context, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(c.App.Writer, line)
	}
}

func historyListCommand(c *cli.Context) error {
	store, err := openHistory(c)
	if err != nil {
		return err
	}
	printLines(c, store.Entries())
	return nil
}

func historyDeleteCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if text == "" {
		return fmt.Errorf("text to delete is required")
	}
	store, err := openHistory(c)
	if err != nil {
		return err
	}
	if _, err := store.Delete(text); err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	return nil
}

func historyClearCommand(c *cli.Context) error {
	store, err := openHistory(c)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "History cleared: %s\n", store.Path())
	return nil
}

func historySuggestCommand(c *cli.Context) error {
	store, err := openHistory(c)
	if err != nil {
		return err
	}
	printLines(c, store.Suggest(strings.Join(c.Args().Slice(), " "), c.Int("limit")))
	return nil
}
