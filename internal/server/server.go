package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/standardbeagle/colorgrep/internal/config"
	"github.com/standardbeagle/colorgrep/internal/debug"
	"github.com/standardbeagle/colorgrep/internal/editor"
	cgerrors "github.com/standardbeagle/colorgrep/internal/errors"
	"github.com/standardbeagle/colorgrep/internal/history"
	"github.com/standardbeagle/colorgrep/internal/protocol"
	"github.com/standardbeagle/colorgrep/internal/search"
	"github.com/standardbeagle/colorgrep/internal/session"
	"github.com/standardbeagle/colorgrep/internal/version"
)

// maxMessageBytes bounds a single inbound message
const maxMessageBytes = 1 << 20

// PanelServer answers results panels over a unix socket. Each panel
// message is handled independently, so searches from different panels run
// concurrently.
type PanelServer struct {
	cfg      *config.Config
	runner   *search.Runner
	history  *history.Store
	registry *session.Registry
	isDark   bool

	// OpenFile starts the editor; replaced in tests
	OpenFile func(filePath string, zeroBasedLine int, template string) error

	// BuildIDOverride replaces the reported build ID; used in tests
	BuildIDOverride string

	listener     net.Listener
	server       *http.Server
	// requestCtx is the parent of every request context; cancelRequests
	// stops running searches
	requestCtx     context.Context
	cancelRequests context.CancelFunc
	startTime    time.Time
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	watchCancel  context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	running      bool
	socketPath   string // Custom socket path (empty uses the per-workspace default)
}

// NewPanelServer creates a server for cfg's workspace. Panels that do not
// say otherwise start with isDark.
func NewPanelServer(cfg *config.Config, store *history.Store, isDark bool) *PanelServer {
	requestCtx, cancel := context.WithCancel(context.Background())
	return &PanelServer{
		cfg:            cfg,
		runner:         search.NewRunner(cfg),
		history:        store,
		registry:       session.NewRegistry(store),
		isDark:         isDark,
		OpenFile:       editor.Open,
		startTime:      time.Now(),
		shutdownChan:   make(chan struct{}),
		requestCtx:     requestCtx,
		cancelRequests: cancel,
	}
}

// SocketPathForRoot returns the per-workspace socket path. Different roots
// get different sockets so several servers can run side by side.
func SocketPathForRoot(root string) string {
	return filepath.Join(os.TempDir(), "colorgrep-"+session.KeyString(root)+".sock")
}

// SocketPathFor returns the configured socket, or the per-workspace default
func SocketPathFor(cfg *config.Config) string {
	if cfg.Server.Socket != "" {
		return cfg.Server.Socket
	}
	return SocketPathForRoot(cfg.Project.Root)
}

// SetSocketPath sets a custom socket path for this server (used for testing)
func (s *PanelServer) SetSocketPath(path string) {
	s.socketPath = path
}

// SocketPath returns the socket path this server is using
func (s *PanelServer) SocketPath() string {
	if s.socketPath != "" {
		return s.socketPath
	}
	return SocketPathFor(s.cfg)
}

// Registry exposes the live panel sessions
func (s *PanelServer) Registry() *session.Registry {
	return s.registry
}

// Start begins listening for panel connections
func (s *PanelServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.mu.Unlock()

	socketPath := s.SocketPath()
	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("failed to create socket: %w", err)
	}
	s.listener = listener
	os.Chmod(socketPath, 0600)

	mux := http.NewServeMux()
	s.registerHandlers(mux)
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.requestCtx },
	}

	if s.history != nil {
		watchCtx, cancel := context.WithCancel(context.Background())
		s.watchCancel = cancel
		if err := s.history.Watch(watchCtx, func(entries []string) {
			debug.LogServer("history changed on disk (%d entries)\n", len(entries))
		}); err != nil {
			debug.LogServer("history watch unavailable: %v\n", err)
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			debug.LogServer("Server error: %v\n", err)
		}
	}()

	debug.LogServer("Panel server started on %s (pid: %d)\n", socketPath, os.Getpid())
	debug.LogServer("Project root: %s\n", s.cfg.Project.Root)
	return nil
}

// registerHandlers sets up the panel endpoints
func (s *PanelServer) registerHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST /open", s.handleOpen)
	mux.HandleFunc("POST /message", s.handleMessage)
	mux.HandleFunc("POST /theme", s.handleTheme)
	mux.HandleFunc("POST /close", s.handleClose)
	mux.HandleFunc("POST /shutdown", s.handleShutdown)
	mux.HandleFunc("POST /ping", s.handlePing)
}

// sessionFor resolves the session named by key, or the server's own
// workspace when key is empty.
func (s *PanelServer) sessionFor(key string) (*session.Session, error) {
	if key == "" {
		sess, _ := s.registry.Open(s.cfg.Project.Root, s.isDark)
		return sess, nil
	}
	id, err := strconv.ParseUint(key, 16, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid session %q", key)
	}
	sess, ok := s.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("unknown session %q", key)
	}
	return sess, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeMessages sends outbound protocol messages as a JSON array
func writeMessages(w http.ResponseWriter, status int, msgs []protocol.Outbound) {
	data, err := protocol.EncodeAll(msgs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

// handleOpen attaches a panel to a workspace session
func (s *PanelServer) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	root := req.Root
	if root == "" {
		root = s.cfg.Project.Root
	}
	sess, created := s.registry.Open(root, req.IsDark)

	var msgs []protocol.Outbound
	if created {
		msgs = s.initialData(sess)
	} else {
		msgs = []protocol.Outbound{protocol.FocusSearchInput{}}
	}

	raws := make([]json.RawMessage, 0, len(msgs))
	for _, msg := range msgs {
		raw, err := protocol.Encode(msg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		raws = append(raws, raw)
	}

	writeJSON(w, http.StatusOK, OpenResponse{
		Session:  fmt.Sprintf("%016x", sess.Key),
		Created:  created,
		Messages: raws,
	})
}

// handleMessage runs one panel message. Malformed messages get an error
// message back with status 400.
func (s *PanelServer) handleMessage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFor(r.URL.Query().Get("session"))
	if err != nil {
		writeMessages(w, http.StatusNotFound, []protocol.Outbound{protocol.Error{Message: err.Error()}})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		writeMessages(w, http.StatusBadRequest, []protocol.Outbound{protocol.Error{Message: err.Error()}})
		return
	}

	msg, err := protocol.Decode(body)
	if err != nil {
		debug.LogServer("rejected message: %v\n", err)
		writeMessages(w, http.StatusBadRequest, []protocol.Outbound{protocol.Error{Message: err.Error()}})
		return
	}

	writeMessages(w, http.StatusOK, s.Handle(r.Context(), sess, msg))
}

// handleTheme records a theme change and echoes it as themeInfo
func (s *PanelServer) handleTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess, err := s.sessionFor(req.Session)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	sess.SetDark(req.IsDark)
	writeMessages(w, http.StatusOK, []protocol.Outbound{protocol.ThemeInfo{IsDark: req.IsDark}})
}

// handleClose detaches a panel
func (s *PanelServer) handleClose(w http.ResponseWriter, r *http.Request) {
	var req CloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseUint(req.Session, 16, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid session %q", req.Session), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, CloseResponse{Success: s.registry.Close(id)})
}

// handleShutdown asks the server to stop. A forced shutdown cancels
// running searches instead of waiting for them.
func (s *PanelServer) handleShutdown(w http.ResponseWriter, r *http.Request) {
	var req ShutdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Allow empty body
		req = ShutdownRequest{}
	}

	message := "Server shutting down"
	if req.Force {
		message = "Server shutting down, running searches canceled"
	}
	writeJSON(w, http.StatusOK, ShutdownResponse{
		Success: true,
		Message: message,
	})

	if req.Force {
		debug.LogServer("forced shutdown, canceling running searches\n")
		s.cancelRequests()
	}

	// Trigger shutdown after response is sent
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.shutdownOnce.Do(func() { close(s.shutdownChan) })
	}()
}

// handlePing responds to health check requests
func (s *PanelServer) handlePing(w http.ResponseWriter, r *http.Request) {
	buildID := version.BuildID()
	if s.BuildIDOverride != "" {
		buildID = s.BuildIDOverride
	}
	writeJSON(w, http.StatusOK, PingResponse{
		Uptime:   time.Since(s.startTime).Seconds(),
		Version:  version.Version,
		BuildID:  buildID,
		Root:     s.cfg.Project.Root,
		Sessions: s.registry.Len(),
	})
}

// Wait blocks until a client asks the server to shut down
func (s *PanelServer) Wait() {
	<-s.shutdownChan
}

// Shutdown waits for running searches until ctx is done, then cancels
// whatever is left.
func (s *PanelServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	var errs []error
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
			s.cancelRequests()
			s.server.Close()
		}
	}
	s.cancelRequests()
	s.wg.Wait()

	if s.watchCancel != nil {
		s.watchCancel()
		s.history.Close()
	}

	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("close listener: %w", err))
		}
	}
	if err := os.Remove(s.SocketPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, cgerrors.NewFileError("remove", s.SocketPath(), err))
	}

	if err := cgerrors.NewMultiError(errs).ErrorOrNil(); err != nil {
		return err
	}
	debug.LogServer("Panel server shut down cleanly\n")
	return nil
}
