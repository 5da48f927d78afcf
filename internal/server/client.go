package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/standardbeagle/colorgrep/internal/protocol"
)

// Client talks to a PanelServer over its unix socket
type Client struct {
	httpClient *http.Client
	socketPath string
}

// NewClientWithSocket creates a client for the server listening on socketPath
func NewClientWithSocket(socketPath string) *Client {
	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
		Timeout: 60 * time.Second,
	}

	return &Client{
		httpClient: httpClient,
		socketPath: socketPath,
	}
}

// NewClientForRoot creates a client for the default socket of a workspace
func NewClientForRoot(root string) *Client {
	return NewClientWithSocket(SocketPathForRoot(root))
}

// SocketPath returns the socket this client dials
func (c *Client) SocketPath() string {
	return c.socketPath
}

// IsServerRunning checks if the server is accessible
func (c *Client) IsServerRunning() bool {
	_, err := c.Ping()
	return err == nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://unix"+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func (c *Client) postJSON(path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := c.post(context.Background(), path, body)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error: %s", bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Ping sends a health check to the server
func (c *Client) Ping() (*PingResponse, error) {
	var ping PingResponse
	if err := c.postJSON("/ping", nil, &ping); err != nil {
		return nil, fmt.Errorf("failed to ping server: %w", err)
	}
	return &ping, nil
}

// Open attaches a panel to root (the server's workspace when empty)
func (c *Client) Open(root string, isDark bool) (*OpenResponse, []protocol.Outbound, error) {
	var resp OpenResponse
	if err := c.postJSON("/open", OpenRequest{Root: root, IsDark: isDark}, &resp); err != nil {
		return nil, nil, err
	}
	msgs := make([]protocol.Outbound, 0, len(resp.Messages))
	for _, raw := range resp.Messages {
		msg, err := protocol.DecodeOutbound(raw)
		if err != nil {
			return nil, nil, err
		}
		msgs = append(msgs, msg)
	}
	return &resp, msgs, nil
}

// Send posts one panel message and returns the server's replies. A
// rejected message still returns the server's error message alongside a
// non-nil error.
func (c *Client) Send(ctx context.Context, sessionKey string, msg protocol.Inbound) ([]protocol.Outbound, error) {
	body, err := protocol.EncodeInbound(msg)
	if err != nil {
		return nil, err
	}
	return c.SendRaw(ctx, sessionKey, body)
}

// SendRaw posts an already encoded panel message.
func (c *Client) SendRaw(ctx context.Context, sessionKey string, body []byte) ([]protocol.Outbound, error) {
	path := "/message"
	if sessionKey != "" {
		path += "?session=" + url.QueryEscape(sessionKey)
	}

	resp, err := c.post(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	msgs, decodeErr := protocol.DecodeAll(data)
	if resp.StatusCode != http.StatusOK {
		reason := string(bytes.TrimSpace(data))
		if decodeErr == nil && len(msgs) > 0 {
			if e, ok := msgs[0].(protocol.Error); ok {
				reason = e.Message
			}
		}
		return msgs, fmt.Errorf("server rejected message (%d): %s", resp.StatusCode, reason)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return msgs, nil
}

// SetTheme reports a theme change for a session
func (c *Client) SetTheme(sessionKey string, isDark bool) error {
	return c.postJSON("/theme", ThemeRequest{Session: sessionKey, IsDark: isDark}, nil)
}

// Close detaches a panel session; it reports whether the session existed
func (c *Client) Close(sessionKey string) (bool, error) {
	var resp CloseResponse
	if err := c.postJSON("/close", CloseRequest{Session: sessionKey}, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// Shutdown requests the server to shut down
func (c *Client) Shutdown(force bool) error {
	var resp ShutdownResponse
	if err := c.postJSON("/shutdown", ShutdownRequest{Force: force}, &resp); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("shutdown failed: %s", resp.Message)
	}
	return nil
}

// WaitForReady waits until the server answers or timeout
func (c *Client) WaitForReady(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if c.IsServerRunning() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for server at %s", c.socketPath)
		case <-ticker.C:
		}
	}
}
