package artwork

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	_ "image/jpeg" // JPEG decoder for album art
	"image/png"
	"os"
	"path/filepath"

	"github.com/dhowden/tag"
	"github.com/nfnt/resize"
)

// ErrNoArtwork is returned when an item has neither embedded nor sidecar art.
var ErrNoArtwork = errors.New("no artwork")

// Loader produces square-bounded PNG thumbnails in a cache directory.
type Loader struct {
	cacheDir string
	size     uint
}

// NewLoader creates a loader writing thumbnails of at most size pixels.
func NewLoader(cacheDir string, size int) *Loader {
	return &Loader{cacheDir: cacheDir, size: uint(max(size, 1))} //nolint:gosec // size is clamped by config
}

// Load returns a thumbnail path for the track at path. Embedded pictures win
// over cover files in the directory. Results are cached per source file.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	out := l.cachePath(path)
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}

	data, err := embedded(path)
	if err != nil || data == nil {
		cover := FindAlbumArt(path)
		if cover == "" {
			return "", ErrNoArtwork
		}
		if data, err = os.ReadFile(cover); err != nil {
			return "", err
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode artwork: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	thumb := resize.Thumbnail(l.size, l.size, img, resize.Lanczos3)
	if err := writePNG(out, thumb); err != nil {
		return "", err
	}
	return out, nil
}

func (l *Loader) cachePath(path string) string {
	h := fnv.New64a()
	h.Write([]byte(path))
	return filepath.Join(l.cacheDir, fmt.Sprintf("%x-%d.png", h.Sum64(), l.size))
}

// embedded returns the picture stored in the file's tags, if any.
func embedded(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}
	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		return pic.Data, nil
	}
	return nil, nil
}

// writePNG writes atomically so concurrent loads never see partial files.
func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".thumb-*")
	if err != nil {
		return err
	}
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
