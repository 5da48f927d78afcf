// Package session tracks one live panel per workspace.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/colorgrep/internal/debug"
	"github.com/standardbeagle/colorgrep/internal/history"
)

// Key identifies a workspace. An empty root means the process working
// directory.
func Key(workspaceRoot string) uint64 {
	return xxhash.Sum64String(normalizeRoot(workspaceRoot))
}

// KeyString is Key formatted for file names
func KeyString(workspaceRoot string) string {
	return fmt.Sprintf("%016x", Key(workspaceRoot))
}

func normalizeRoot(root string) string {
	if root == "" {
		if cwd, err := os.Getwd(); err == nil {
			root = cwd
		}
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return filepath.Clean(root)
}

// Session is the state behind one panel.
type Session struct {
	Key     uint64
	Root    string
	History *history.Store

	mu     sync.RWMutex
	isDark bool
}

// IsDark reports the current theme
func (s *Session) IsDark() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isDark
}

// SetDark records a theme change
func (s *Session) SetDark(isDark bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isDark = isDark
}

// BaseDir is the directory result paths are shown relative to.
func (s *Session) BaseDir() string {
	return s.Root
}

// Registry hands out sessions by workspace. Opening a workspace that
// already has a session returns the existing one.
type Registry struct {
	mu       sync.Mutex
	sessions map[uint64]*Session
	history  *history.Store
}

// NewRegistry creates a registry whose sessions share store.
func NewRegistry(store *history.Store) *Registry {
	return &Registry{
		sessions: make(map[uint64]*Session),
		history:  store,
	}
}

// Open returns the session for root, creating it when needed. created
// reports whether a new session was made; an existing session keeps its
// theme.
func (r *Registry) Open(root string, isDark bool) (*Session, bool) {
	root = normalizeRoot(root)
	key := xxhash.Sum64String(root)

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[key]; ok {
		debug.LogServer("reusing session %016x for %s\n", key, root)
		return s, false
	}

	s := &Session{
		Key:     key,
		Root:    root,
		History: r.history,
		isDark:  isDark,
	}
	r.sessions[key] = s
	debug.LogServer("opened session %016x for %s\n", key, root)
	return s, true
}

// Get looks a session up by key
func (r *Registry) Get(key uint64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

// Close forgets a session. It reports whether one existed.
func (r *Registry) Close(key uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[key]; !ok {
		return false
	}
	delete(r.sessions, key)
	debug.LogServer("closed session %016x\n", key)
	return true
}

// Len returns the number of open sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
