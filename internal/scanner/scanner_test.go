package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavesd/internal/catalog"
)

func writeSilence(t *testing.T, path string, d time.Duration) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	format := beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(format.SampleRate.N(d)), format))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeSilence(t, filepath.Join(root, "b", "two.wav"), 2*time.Second)
	writeSilence(t, filepath.Join(root, "a", "one.wav"), time.Second)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.mp3"), []byte("not audio"), 0o644))

	var calls atomic.Int64
	items, skipped, err := Scan(t.Context(), []string{root}, Options{
		Workers:  2,
		Progress: func(Progress) { calls.Add(1) },
	})
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	assert.Equal(t, int64(3), calls.Load())
	require.Len(t, items, 2)

	one := filepath.Join(root, "a", "one.wav")
	assert.Equal(t, one, items[0].Locator)
	assert.Equal(t, ItemID(one), items[0].ID)
	assert.Equal(t, catalog.UnknownTitle, items[0].Title)
	assert.Equal(t, time.Second, items[0].Duration)
	assert.Nil(t, items[0].AlbumID)
	assert.Equal(t, 2*time.Second, items[1].Duration)
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeSilence(t, filepath.Join(root, "one.wav"), time.Second)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, _, err := Scan(ctx, []string{root}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImport(t *testing.T) {
	root := t.TempDir()
	writeSilence(t, filepath.Join(root, "one.wav"), time.Second)
	store := catalog.NewMock()

	stats, err := Import(t.Context(), store, []string{root, filepath.Join(root, "missing")}, Options{})
	require.NoError(t, err)
	assert.Equal(t, Stats{Found: 1, Imported: 1}, stats)

	items, err := store.ScanAll(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, time.Second, items[0].Duration)

	// Importing again replaces rows instead of duplicating them.
	_, err = Import(t.Context(), store, []string{root}, Options{})
	require.NoError(t, err)
	items, err = store.ScanAll(t.Context())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestImport_KeepsPlayCountAndFavorite(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "one.wav")
	writeSilence(t, path, time.Second)
	store, err := catalog.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = Import(t.Context(), store, []string{root}, Options{})
	require.NoError(t, err)
	id := ItemID(path)
	require.NoError(t, store.IncrementPlayCount(t.Context(), id))
	require.NoError(t, store.SetFavorite(t.Context(), id, true))

	_, err = Import(t.Context(), store, []string{root}, Options{})
	require.NoError(t, err)

	it, err := store.GetByID(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, it.PlayCount)
	assert.True(t, it.Favorite)
}

func TestImport_Empty(t *testing.T) {
	stats, err := Import(t.Context(), catalog.NewMock(), []string{t.TempDir()}, Options{})
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestItemID(t *testing.T) {
	a := ItemID("/music/a.mp3")
	assert.Positive(t, a)
	assert.Equal(t, a, ItemID("/music/a.mp3"))
	assert.NotEqual(t, a, ItemID("/music/b.mp3"))
}

func TestWatch_ReimportsOnNewFile(t *testing.T) {
	root := t.TempDir()
	store := catalog.NewMock()
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	imports := make(chan Stats, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, store, []string{root}, 50*time.Millisecond, Options{}, func(s Stats, err error) {
			if err == nil {
				imports <- s
			}
		})
	}()

	// Give the watcher time to register the root.
	time.Sleep(100 * time.Millisecond)
	writeSilence(t, filepath.Join(root, "new.wav"), time.Second)

	select {
	case s := <-imports:
		assert.Equal(t, 1, s.Imported)
	case <-time.After(5 * time.Second):
		t.Fatal("no import after file creation")
	}

	items, err := store.ScanAll(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, filepath.Join(root, "new.wav"), items[0].Locator)

	cancel()
	require.NoError(t, <-done)
}

func TestWatch_MissingRoot(t *testing.T) {
	err := Watch(t.Context(), catalog.NewMock(), []string{filepath.Join(t.TempDir(), "missing")}, 0, Options{}, nil)
	require.Error(t, err)
}
