package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/colorgrep/internal/config"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), 0, 0)
	require.NoError(t, err)
	return s
}

func TestAddMovesToFront(t *testing.T) {
	s := newStore(t)

	for _, text := range []string{"alpha", "beta", "gamma", "beta"} {
		_, err := s.Add(text)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"beta", "gamma", "alpha"}, s.Entries())
}

func TestAddIgnoresBlank(t *testing.T) {
	s := newStore(t)
	entries, err := s.Add("   ")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoFileExists(t, s.Path())
}

func TestAddCapsEntries(t *testing.T) {
	s, err := New(t.TempDir(), 5, 0)
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		_, err := s.Add(fmt.Sprintf("search %d", i))
		require.NoError(t, err)
	}

	entries := s.Entries()
	require.Len(t, entries, 5)
	assert.Equal(t, "search 7", entries[0])
	assert.Equal(t, "search 3", entries[4])
}

func TestMaxEntriesIsBounded(t *testing.T) {
	s, err := New(t.TempDir(), 100000, 0)
	require.NoError(t, err)
	assert.Equal(t, MaxEntries, s.max)
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 0, 0)
	require.NoError(t, err)

	_, err = s.Add("first")
	require.NoError(t, err)
	_, err = s.Add("second")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	var stored Data
	require.NoError(t, toml.Unmarshal(data, &stored))
	assert.Equal(t, Version, stored.Version)
	assert.Equal(t, []string{"second", "first"}, stored.Searches)

	reopened, err := New(dir, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, reopened.Entries())

	// no temp files left behind
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDeleteAndClear(t *testing.T) {
	s := newStore(t)
	for _, text := range []string{"a", "b", "c"} {
		_, err := s.Add(text)
		require.NoError(t, err)
	}

	entries, err := s.Delete("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, entries)

	entries, err = s.Delete("missing")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, entries)

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Entries())
	assert.Empty(t, s.Load())
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"version mismatch", "version = 2\nsearches = [\"old\"]\n"},
		{"missing version", "searches = [\"old\"]\n"},
		{"malformed", "version = [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(tt.content), 0o644))

			s, err := New(dir, 0, 0)
			require.NoError(t, err)
			assert.Empty(t, s.Entries())
		})
	}
}

func TestLoadDedupesStoredEntries(t *testing.T) {
	dir := t.TempDir()
	content := "version = 1\nsearches = [\"a\", \"b\", \"a\", \"\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	s, err := New(dir, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, s.Entries())
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/state", "colorgrep"), dir)

	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", "/home/someone")
	dir, err = DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/someone", ".local", "state", "colorgrep"), dir)
}

func TestOpenFromConfig(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.History.Dir = t.TempDir()
	cfg.History.MaxEntries = 3

	s, err := Open(cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.History.Dir, FileName), s.Path())
	assert.Equal(t, 3, s.max)
}

func TestSuggest(t *testing.T) {
	s := newStore(t)
	// added oldest first so the history reads newest first
	for _, text := range []string{"handleRequest", "parseConfig", "HandleResponse", "renderMatch", "handler"} {
		_, err := s.Add(text)
		require.NoError(t, err)
	}

	t.Run("prefix matches keep history order", func(t *testing.T) {
		got := s.Suggest("hand", 10)
		require.GreaterOrEqual(t, len(got), 3)
		assert.Equal(t, []string{"handler", "HandleResponse", "handleRequest"}, got[:3])
	})

	t.Run("fuzzy matches follow", func(t *testing.T) {
		got := s.Suggest("parseConfg", 10)
		assert.Contains(t, got, "parseConfig")
		assert.NotContains(t, got, "renderMatch")
	})

	t.Run("limit", func(t *testing.T) {
		assert.Len(t, s.Suggest("hand", 2), 2)
	})

	t.Run("empty prefix returns recent", func(t *testing.T) {
		assert.Equal(t, []string{"handler", "renderMatch"}, s.Suggest("", 2))
	})

	t.Run("nothing similar", func(t *testing.T) {
		assert.Empty(t, s.Suggest("zzzzzz", 10))
	})
}
