package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDir(t *testing.T) {
	dir := t.TempDir()
	data := testPNG(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	p := newTestPipeline(t, &fakeEngine{text: pizzaText})

	var mu sync.Mutex
	var got []string
	err := p.ProcessDir(context.Background(), dir, 2, func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		require.NoError(t, r.Err)
		require.NotNil(t, r.Receipt)
		got = append(got, filepath.Base(r.Path))
	})
	require.NoError(t, err)

	sort.Strings(got)
	assert.Equal(t, []string{"a.png", "b.png"}, got, "unsupported extensions are skipped")
}

func TestWatchProcessesNewFile(t *testing.T) {
	dir := t.TempDir()
	p := newTestPipeline(t, &fakeEngine{text: pizzaText})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	results := make(chan Result, 4)
	done := make(chan error, 1)
	go func() {
		done <- p.Watch(ctx, dir, 2, func(r Result) { results <- r })
	}()

	// let the watcher register before the file lands
	time.Sleep(150 * time.Millisecond)
	path := filepath.Join(dir, "dropped.png")
	require.NoError(t, os.WriteFile(path, testPNG(t), 0o644))

	select {
	case res := <-results:
		require.NoError(t, res.Err)
		assert.Equal(t, path, res.Path)
		require.NotNil(t, res.Receipt)
		require.NotNil(t, res.Receipt.RestaurantName)
		assert.Equal(t, "Joe's Pizza", *res.Receipt.RestaurantName)
	case <-time.After(5 * time.Second):
		t.Fatal("dropped file was never processed")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}

	// the debounce map must emit each settled file once
	select {
	case res := <-results:
		t.Fatalf("unexpected second result for %s", res.Path)
	default:
	}
}
