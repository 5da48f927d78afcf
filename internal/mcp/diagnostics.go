package mcp

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DiagnosticLogger handles all diagnostic output for the MCP server.
// In MCP mode everything goes to a file: stdout carries the protocol and
// stderr is often captured by the client.
type DiagnosticLogger struct {
	mu       sync.Mutex
	file     *os.File
	logger   *log.Logger
	filePath string
	isMCP    bool // true when running as MCP server
}

// NewDiagnosticLogger creates a logger that writes to a file instead of stderr
// when isMCP is set.
func NewDiagnosticLogger(isMCP bool) *DiagnosticLogger {
	dl := &DiagnosticLogger{
		isMCP: isMCP,
	}

	if !isMCP {
		dl.logger = log.New(os.Stderr, "[MCP] ", log.LstdFlags)
		return dl
	}

	logDir := filepath.Join(os.TempDir(), "colorgrep-mcp-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		// Fallback: use home directory
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		logDir = filepath.Join(homeDir, ".colorgrep-mcp-logs")
		if err := os.MkdirAll(logDir, 0755); err != nil {
			dl.logger = log.New(io.Discard, "", 0)
			return dl
		}
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("mcp-%s-%d.log", timestamp, os.Getpid()))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// If file creation fails, disable logging rather than breaking MCP
		dl.logger = log.New(io.Discard, "", 0)
		return dl
	}

	dl.file = file
	dl.filePath = logPath
	dl.logger = log.New(file, "[MCP] ", log.LstdFlags|log.Lshortfile)
	return dl
}

// NewWriterLogger logs to w; used by tests
func NewWriterLogger(w io.Writer) *DiagnosticLogger {
	return &DiagnosticLogger{logger: log.New(w, "[MCP] ", 0)}
}

// Printf logs a diagnostic message. In MCP mode, goes to file. In CLI mode, goes to stderr.
func (dl *DiagnosticLogger) Printf(format string, v ...interface{}) {
	if dl == nil || dl.logger == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.logger.Printf(format, v...)
}

// Errorf logs an error. In MCP mode, goes to file. Never to stderr.
func (dl *DiagnosticLogger) Errorf(format string, v ...interface{}) {
	if dl == nil || dl.logger == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.logger.Printf("ERROR: "+format, v...)
}

// Close closes the log file if it's open.
func (dl *DiagnosticLogger) Close() error {
	if dl == nil {
		return nil
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.file != nil {
		return dl.file.Close()
	}
	return nil
}

// GetLogPath returns the path to the diagnostic log file (if MCP mode)
func (dl *DiagnosticLogger) GetLogPath() string {
	if dl == nil {
		return ""
	}
	return dl.filePath
}

// NoOpLogger is used to suppress all logging
var NoOpLogger = &DiagnosticLogger{
	logger: log.New(io.Discard, "", 0),
}
