// Package editor opens a search result in the user's editor.
package editor

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/standardbeagle/colorgrep/internal/argparse"
	"github.com/standardbeagle/colorgrep/internal/config"
	"github.com/standardbeagle/colorgrep/internal/debug"
	cgerrors "github.com/standardbeagle/colorgrep/internal/errors"
)

// Command expands template for filePath at a zero-based line. Supported
// placeholders: {file}, {line} (one-based), {col} and {target}, which is
// file:line:col. A template without placeholders gets the target appended.
func Command(filePath string, zeroBasedLine int, template string) ([]string, error) {
	if template == "" {
		template = config.DefaultEditorCommand
	}
	if zeroBasedLine < 0 {
		return nil, fmt.Errorf("invalid line number %d", zeroBasedLine)
	}

	line := strconv.Itoa(zeroBasedLine + 1)
	col := "1"
	replacer := strings.NewReplacer(
		"{file}", filePath,
		"{line}", line,
		"{col}", col,
		"{target}", filePath+":"+line+":"+col,
	)

	tokens := argparse.ParseShellArguments(template)
	if len(tokens) == 0 {
		return nil, errors.New("empty editor command")
	}

	substituted := false
	argv := make([]string, len(tokens))
	for i, token := range tokens {
		argv[i] = replacer.Replace(token)
		if argv[i] != token {
			substituted = true
		}
	}
	if !substituted {
		argv = append(argv, filePath+":"+line+":"+col)
	}
	return argv, nil
}

// Open starts the editor without waiting for it to exit.
func Open(filePath string, zeroBasedLine int, template string) error {
	argv, err := Command(filePath, zeroBasedLine, template)
	if err != nil {
		return err
	}

	binary, err := exec.LookPath(argv[0])
	if err != nil {
		return cgerrors.NewToolError(argv[0], -1, "", err)
	}

	cmd := exec.Command(binary, argv[1:]...)
	if err := cmd.Start(); err != nil {
		return cgerrors.NewToolError(argv[0], -1, "", err)
	}
	debug.Log("EDITOR", "started %q (pid %d)\n", argv, cmd.Process.Pid)

	// reap the child
	go func() { _ = cmd.Wait() }()
	return nil
}
