package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/colorgrep/internal/debug"
	"github.com/standardbeagle/colorgrep/internal/editor"
	"github.com/standardbeagle/colorgrep/internal/history"
	"github.com/standardbeagle/colorgrep/internal/mcp"
	"github.com/standardbeagle/colorgrep/internal/server"
	"github.com/standardbeagle/colorgrep/internal/version"
)

// serveCommand runs the panel server until a signal or a shutdown request
func serveCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	srv := server.NewPanelServer(cfg, store, resolveDark(cfg))
	socketPath := srv.SocketPath()

	if server.NewClientWithSocket(socketPath).IsServerRunning() {
		return fmt.Errorf("a server is already running on %s", socketPath)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Panel server started (%s)\n", version.FullInfo())
	fmt.Fprintf(w, "Socket: %s\n", socketPath)
	fmt.Fprintf(w, "Root: %s\n", cfg.Project.Root)
	fmt.Fprintf(w, "\nUse 'colorgrep shutdown' to stop the server\n")

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		srv.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(w, "\nReceived signal, shutting down...")
	case <-done:
		fmt.Fprintln(w, "Server shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	fmt.Fprintln(w, "Server shut down cleanly")
	return nil
}

// shutdownCommand asks the running server for the workspace to stop
func shutdownCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	client := server.NewClientWithSocket(server.SocketPathFor(cfg))
	if !client.IsServerRunning() {
		return fmt.Errorf("no server is running for root: %s", cfg.Project.Root)
	}

	if err := client.Shutdown(c.Bool("force")); err != nil {
		return err
	}

	deadline := time.Now().Add(2 * time.Second)
	for client.IsServerRunning() {
		if time.Now().After(deadline) {
			return fmt.Errorf("server did not shut down")
		}
		time.Sleep(50 * time.Millisecond)
	}

	fmt.Fprintln(c.App.Writer, "Server shut down successfully")
	return nil
}

// mcpCommand serves the search tools over stdio until the client disconnects
func mcpCommand(c *cli.Context) error {
	debug.SetMCPMode(true)

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	logger := mcp.NewDiagnosticLogger(true)
	defer logger.Close()

	store, err := history.Open(cfg)
	if err != nil {
		logger.Errorf("history unavailable: %v", err)
	}
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := mcp.NewServer(cfg, store, resolveDark(cfg), logger)
	defer srv.Shutdown(context.Background())

	if err := srv.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

func newOpenCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open a file in the configured editor at a line",
		ArgsUsage: "<file> <line>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "print",
				Usage: "Print the editor command instead of running it",
			},
		},
		Action: openCommand,
	}
}

// openCommand takes the 1-based line number printed in results
func openCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("file is required")
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	file := c.Args().Get(0)
	if !filepath.IsAbs(file) {
		file = filepath.Join(cfg.Project.Root, file)
	}

	line := 1
	if c.NArg() > 1 {
		line, err = strconv.Atoi(c.Args().Get(1))
		if err != nil || line < 1 {
			return fmt.Errorf("invalid line number %q", c.Args().Get(1))
		}
	}

	if c.Bool("print") {
		argv, err := editor.Command(file, line-1, cfg.Editor.Command)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, strings.Join(argv, " "))
		return nil
	}
	return editor.Open(file, line-1, cfg.Editor.Command)
}
