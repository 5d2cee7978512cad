// Package scanner populates the catalog from music files on disk.
package scanner

import (
	"context"
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/dhowden/tag"

	"github.com/llehouerou/wavesd/internal/catalog"
	"github.com/llehouerou/wavesd/internal/errmsg"
	"github.com/llehouerou/wavesd/internal/logging"
	"github.com/llehouerou/wavesd/internal/player"
)

const defaultWorkers = 8

// Progress reports how many discovered files were read.
type Progress struct {
	Current int
	Total   int
}

// Options tunes a scan.
type Options struct {
	Workers  int
	Progress func(p Progress) // optional, called from worker goroutines
	Logger   *log.Logger
}

// Stats summarizes an import.
type Stats struct {
	Found    int
	Imported int
	Skipped  int
}

// Scan walks roots and reads every playable file into a catalog item.
// Unreadable directories and files are skipped. Items are ordered by locator.
func Scan(ctx context.Context, roots []string, opts Options) ([]catalog.Item, int, error) {
	logger := logging.Component(opts.Logger, "scanner")
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	paths := discover(roots)
	total := len(paths)

	workCh := make(chan string)
	resultCh := make(chan catalog.Item, workers)
	var processed, skipped atomic.Int64

	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for path := range workCh {
				item, err := readItem(path)
				if err != nil {
					logger.Debug("skipping file", "path", path, "err", err)
					skipped.Add(1)
				} else {
					resultCh <- item
				}
				n := int(processed.Add(1))
				if opts.Progress != nil {
					opts.Progress(Progress{Current: n, Total: total})
				}
			}
		})
	}

	go func() {
		defer close(workCh)
		for _, p := range paths {
			select {
			case workCh <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	items := make([]catalog.Item, 0, total)
	for item := range resultCh {
		items = append(items, item)
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	slices.SortFunc(items, func(a, b catalog.Item) int {
		return strings.Compare(a.Locator, b.Locator)
	})
	return items, int(skipped.Load()), nil
}

// Import scans roots and upserts the result into store in one transaction.
func Import(ctx context.Context, store catalog.Store, roots []string, opts Options) (Stats, error) {
	items, skipped, err := Scan(ctx, roots, opts)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Found: len(items) + skipped, Skipped: skipped}
	if len(items) == 0 {
		return stats, nil
	}
	if err := store.InsertOrReplaceAll(ctx, items); err != nil {
		logging.Component(opts.Logger, "scanner").Error(errmsg.Format(errmsg.OpCatalogPopulate, err))
		return stats, err
	}
	stats.Imported = len(items)
	return stats, nil
}

// discover walks roots and returns every playable file path.
func discover(roots []string) []string {
	var paths []string
	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			// Skip any walk errors - intentionally continuing to scan other paths
			if walkErr != nil {
				return nil //nolint:nilerr // intentionally skipping errors
			}
			if d.IsDir() || !player.IsSupported(path) {
				return nil
			}
			paths = append(paths, path)
			return nil
		})
	}
	return paths
}

// readItem builds an item from a file's tags and decoded length. Files
// without tags still import, titled Unknown.
func readItem(path string) (catalog.Item, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return catalog.Item{}, err
	}
	duration, err := player.Probe(abs)
	if err != nil {
		return catalog.Item{}, err
	}

	item := catalog.Item{
		ID:       ItemID(abs),
		Locator:  abs,
		Title:    catalog.UnknownTitle,
		Duration: duration,
	}

	f, err := os.Open(abs)
	if err != nil {
		return catalog.Item{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return item, nil //nolint:nilerr // untagged files are still playable
	}
	if m.Title() != "" {
		item.Title = m.Title()
	}
	item.Artist = m.Artist()
	if album := m.Album(); album != "" {
		albumArtist := m.AlbumArtist()
		if albumArtist == "" {
			albumArtist = m.Artist()
		}
		id := hash63(albumArtist + "\x00" + album)
		item.AlbumID = &id
	}
	return item, nil
}

// ItemID derives a stable positive catalog ID from a file path.
func ItemID(path string) int64 {
	return hash63(path)
}

func hash63(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	id := int64(h.Sum64() & (1<<63 - 1)) //nolint:gosec // masked to 63 bits
	if id == 0 {
		id = 1
	}
	return id
}
