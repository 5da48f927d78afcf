// Package history keeps the list of recent searches shared by every panel
// and command line session of one user.
package history

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/colorgrep/internal/config"
	"github.com/standardbeagle/colorgrep/internal/debug"
	cgerrors "github.com/standardbeagle/colorgrep/internal/errors"
)

const (
	// FileName is the history file inside the state directory
	FileName = "history.toml"

	// Version is the on-disk format version. Files with any other version
	// are treated as empty.
	Version = 1

	// MaxEntries bounds the stored list regardless of configuration
	MaxEntries = config.DefaultMaxHistory
)

// Data is the persisted form of the history.
type Data struct {
	Version  int      `toml:"version"`
	Searches []string `toml:"searches"`
}

// Store is a most-recent-first list of search texts backed by a TOML file.
type Store struct {
	mu        sync.Mutex
	dir       string
	max       int
	threshold float64
	entries   []string

	wg sync.WaitGroup
}

// DefaultDir returns $XDG_STATE_HOME/colorgrep, falling back to
// ~/.local/state/colorgrep.
func DefaultDir() (string, error) {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "colorgrep"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate history directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "colorgrep"), nil
}

// New creates a store in dir (DefaultDir when empty) and loads whatever is
// already there. maxEntries is capped at MaxEntries.
func New(dir string, maxEntries int, threshold float64) (*Store, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cgerrors.NewFileError("mkdir", dir, err)
	}
	if maxEntries > MaxEntries {
		debug.LogHistory("max entries %d capped at %d\n", maxEntries, MaxEntries)
	}
	if maxEntries <= 0 || maxEntries > MaxEntries {
		maxEntries = MaxEntries
	}
	if threshold <= 0 {
		threshold = config.DefaultSuggestThreshold
	}

	s := &Store{dir: dir, max: maxEntries, threshold: threshold}
	s.Load()
	return s, nil
}

// Open creates a store from the history section of cfg.
func Open(cfg *config.Config) (*Store, error) {
	return New(cfg.History.Dir, cfg.History.MaxEntries, cfg.History.SuggestThreshold)
}

// Path returns the history file location
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Load rereads the file. A missing, unreadable or foreign-version file
// yields an empty history.
func (s *Store) Load() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.read()
	return clone(s.entries)
}

// read parses the file. Callers hold s.mu so a reload never races a save.
func (s *Store) read() []string {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			debug.LogHistory("cannot read %s: %v\n", s.Path(), err)
		}
		return []string{}
	}

	var stored Data
	if err := toml.Unmarshal(data, &stored); err != nil {
		debug.LogHistory("ignoring malformed history %s: %v\n", s.Path(), err)
		return []string{}
	}
	if stored.Version != Version {
		debug.LogHistory("ignoring history version %d (want %d)\n", stored.Version, Version)
		return []string{}
	}

	entries := make([]string, 0, len(stored.Searches))
	seen := make(map[string]bool, len(stored.Searches))
	for _, search := range stored.Searches {
		if strings.TrimSpace(search) == "" || seen[search] {
			continue
		}
		seen[search] = true
		entries = append(entries, search)
	}
	if len(entries) > s.max {
		entries = entries[:s.max]
	}
	return entries
}

// Entries returns the in-memory history without touching the file
func (s *Store) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.entries)
}

// Add moves text to the front of the history and saves it. Blank text is
// ignored.
func (s *Store) Add(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return s.Entries(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]string, 0, len(s.entries)+1)
	entries = append(entries, text)
	for _, existing := range s.entries {
		if existing != text {
			entries = append(entries, existing)
		}
	}
	if len(entries) > s.max {
		entries = entries[:s.max]
	}
	s.entries = entries
	return clone(s.entries), s.save()
}

// Delete removes text from the history and saves it.
func (s *Store) Delete(text string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]string, 0, len(s.entries))
	for _, existing := range s.entries {
		if existing != text {
			entries = append(entries, existing)
		}
	}
	s.entries = entries
	return clone(s.entries), s.save()
}

// Clear empties the history.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = []string{}
	return s.save()
}

// save writes the entries through a temp file so readers never see a
// partial file. Callers hold s.mu.
func (s *Store) save() error {
	data, err := toml.Marshal(Data{Version: Version, Searches: s.entries})
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".history-*.toml")
	if err != nil {
		return cgerrors.NewFileError("create", s.dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return cgerrors.NewFileError("write", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return cgerrors.NewFileError("close", tmpName, err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		os.Remove(tmpName)
		return cgerrors.NewFileError("rename", s.Path(), err)
	}

	debug.LogHistory("saved %d entries to %s\n", len(s.entries), s.Path())
	return nil
}

// Close waits for watch goroutines started by Watch to exit. Cancel their
// context first.
func (s *Store) Close() {
	s.wg.Wait()
}

func clone(entries []string) []string {
	out := make([]string, len(entries))
	copy(out, entries)
	return out
}
