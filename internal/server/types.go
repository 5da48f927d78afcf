package server

import "encoding/json"

// Request/response types for the panel endpoints. /message bodies are
// protocol messages and are not listed here.

// OpenRequest attaches a panel to a workspace
type OpenRequest struct {
	Root   string `json:"root,omitempty"` // Empty means the server's workspace
	IsDark bool   `json:"is_dark"`
}

// OpenResponse carries the session key and the messages the panel should
// apply: initial data for a new session, a focus request for an existing
// one.
type OpenResponse struct {
	Session  string            `json:"session"`
	Created  bool              `json:"created"`
	Messages []json.RawMessage `json:"messages"`
}

// ThemeRequest reports a color theme change
type ThemeRequest struct {
	Session string `json:"session,omitempty"`
	IsDark  bool   `json:"is_dark"`
}

// CloseRequest detaches a panel
type CloseRequest struct {
	Session string `json:"session"`
}

// CloseResponse confirms a session was closed
type CloseResponse struct {
	Success bool `json:"success"`
}

// ShutdownRequest requests server shutdown
type ShutdownRequest struct {
	Force bool `json:"force,omitempty"`
}

// ShutdownResponse confirms shutdown
type ShutdownResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// PingResponse confirms server is alive
type PingResponse struct {
	Uptime   float64 `json:"uptime_seconds"`
	Version  string  `json:"version"`
	BuildID  string  `json:"build_id,omitempty"`
	Root     string  `json:"root"`
	Sessions int     `json:"sessions"`
}
