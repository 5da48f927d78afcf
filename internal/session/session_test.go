package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/colorgrep/internal/history"
)

func TestKey(t *testing.T) {
	root := t.TempDir()

	assert.Equal(t, Key(root), Key(root+string(filepath.Separator)))
	assert.Equal(t, Key(root), Key(filepath.Join(root, "sub", "..")))
	assert.NotEqual(t, Key(root), Key(filepath.Join(root, "sub")))
	assert.Len(t, KeyString(root), 16)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, Key(cwd), Key(""))
}

func TestRegistryReusesSessionPerWorkspace(t *testing.T) {
	store, err := history.New(t.TempDir(), 0, 0)
	require.NoError(t, err)
	reg := NewRegistry(store)

	root := t.TempDir()
	first, created := reg.Open(root, true)
	require.True(t, created)
	assert.True(t, first.IsDark())
	assert.Same(t, store, first.History)

	again, created := reg.Open(root+"/", false)
	assert.False(t, created)
	assert.Same(t, first, again)
	assert.True(t, again.IsDark(), "existing session keeps its theme")

	other, created := reg.Open(t.TempDir(), false)
	assert.True(t, created)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, reg.Len())

	got, ok := reg.Get(first.Key)
	require.True(t, ok)
	assert.Same(t, first, got)

	assert.True(t, reg.Close(first.Key))
	assert.False(t, reg.Close(first.Key))
	assert.Equal(t, 1, reg.Len())

	_, ok = reg.Get(first.Key)
	assert.False(t, ok)
}

func TestSessionThemeAndBaseDir(t *testing.T) {
	reg := NewRegistry(nil)
	root := t.TempDir()
	s, _ := reg.Open(root+"/sub/..", false)

	assert.False(t, s.IsDark())
	s.SetDark(true)
	assert.True(t, s.IsDark())
	assert.Equal(t, root, s.Root)
	assert.Equal(t, root, s.BaseDir())
}

func TestRegistryConcurrentOpen(t *testing.T) {
	reg := NewRegistry(nil)
	root := t.TempDir()

	var g errgroup.Group
	sessions := make([]*Session, 32)
	for i := range sessions {
		g.Go(func() error {
			s, _ := reg.Open(root, i%2 == 0)
			sessions[i] = s
			s.SetDark(i%2 == 1)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, reg.Len())
	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
	}
}
