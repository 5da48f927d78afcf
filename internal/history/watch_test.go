package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatchSeesOtherWriters(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	watched, err := New(dir, 0, 0)
	require.NoError(t, err)
	writer, err := New(dir, 0, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []string, 16)
	require.NoError(t, watched.Watch(ctx, func(entries []string) {
		changes <- entries
	}))

	_, err = writer.Add("from another session")
	require.NoError(t, err)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case entries := <-changes:
			if len(entries) == 1 && entries[0] == "from another session" {
				assert.Equal(t, entries, watched.Entries())
				cancel()
				watched.Close()
				return
			}
		case <-deadline:
			cancel()
			watched.Close()
			t.Fatal("watcher never reported the change")
		}
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Watch(ctx, nil))

	cancel()
	s.Close()
}
