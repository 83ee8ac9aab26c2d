package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "faq.jsonl")
	w := New(corpus, 0)

	tests := []struct {
		name string
		file string
		op   fsnotify.Op
		want bool
	}{
		{"create", corpus, fsnotify.Create, true},
		{"write", corpus, fsnotify.Write, true},
		{"write and chmod", corpus, fsnotify.Write | fsnotify.Chmod, true},
		{"chmod only", corpus, fsnotify.Chmod, false},
		{"remove", corpus, fsnotify.Remove, false},
		{"rename away", corpus, fsnotify.Rename, false},
		{"other file", filepath.Join(dir, "notes.txt"), fsnotify.Write, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.handleFsEvent(fsnotify.Event{Name: tt.file, Op: tt.op}))
		})
	}
}

func TestWatch_ReportsWrite(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "faq.jsonl")
	require.NoError(t, os.WriteFile(corpus, []byte("{}\n"), 0600))

	w := New(corpus, 20*time.Millisecond)
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := w.Watch(ctx)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(corpus, []byte("{}\n{}\n"), 0600)
	}()

	select {
	case path := <-changes:
		assert.Equal(t, corpus, path)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
	}
}

func TestWatch_ReportsReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "faq.jsonl")
	require.NoError(t, os.WriteFile(corpus, []byte("{}\n"), 0600))

	w := New(corpus, 20*time.Millisecond)
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := w.Watch(ctx)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		tmp := filepath.Join(dir, "faq.jsonl.tmp")
		_ = os.WriteFile(tmp, []byte("{}\n{}\n"), 0600)
		_ = os.Rename(tmp, corpus)
	}()

	select {
	case path := <-changes:
		assert.Equal(t, corpus, path)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
	}
}

func TestWatch_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "faq.jsonl")

	w := New(corpus, 200*time.Millisecond)
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := w.Watch(ctx)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(corpus, []byte{byte('0' + i)}, 0600))
	}

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
	}
	select {
	case <-changes:
		t.Fatal("expected a single notification for the burst")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "faq.jsonl"), 0)
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())

	changes, err := w.Watch(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-changes:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel did not close after context cancellation")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	w := New("/non/existent/path/faq.jsonl", 0)

	changes, err := w.Watch(context.Background())
	assert.Error(t, err)
	assert.Nil(t, changes)
}

func TestWatch_AfterClose(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "faq.jsonl"), 0)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	changes, err := w.Watch(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.Nil(t, changes)
}
