package artwork

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestFindAlbumArt(t *testing.T) {
	dir := t.TempDir()
	coverPath := filepath.Join(dir, "cover.jpg")
	if err := os.WriteFile(coverPath, []byte("fake"), 0o600); err != nil {
		t.Fatal(err)
	}

	got := FindAlbumArt(filepath.Join(dir, "track.mp3"))
	if got != coverPath {
		t.Errorf("FindAlbumArt() = %q, want %q", got, coverPath)
	}
}

func TestFindAlbumArt_NotFound(t *testing.T) {
	got := FindAlbumArt(filepath.Join(t.TempDir(), "track.mp3"))
	if got != "" {
		t.Errorf("FindAlbumArt() = %q, want empty string", got)
	}
}

func TestFindAlbumArt_Priority(t *testing.T) {
	dir := t.TempDir()

	folderPath := filepath.Join(dir, "folder.jpg")
	if err := os.WriteFile(folderPath, []byte("fake"), 0o600); err != nil {
		t.Fatal(err)
	}
	coverPath := filepath.Join(dir, "cover.jpg")
	if err := os.WriteFile(coverPath, []byte("fake"), 0o600); err != nil {
		t.Fatal(err)
	}

	got := FindAlbumArt(filepath.Join(dir, "track.mp3"))
	if got != coverPath {
		t.Errorf("FindAlbumArt() = %q, want %q (higher priority)", got, coverPath)
	}
}

func writeCover(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoader_ThumbnailsSidecarCover(t *testing.T) {
	music := t.TempDir()
	cache := t.TempDir()
	writeCover(t, filepath.Join(music, "cover.png"), 400, 200)

	// Not a real audio file: tag reading fails and the sidecar is used.
	track := filepath.Join(music, "track.mp3")
	if err := os.WriteFile(track, []byte("not audio"), 0o600); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(cache, 64)
	out, err := l.Load(context.Background(), track)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 64 || cfg.Height != 32 {
		t.Errorf("thumbnail = %dx%d, want 64x32", cfg.Width, cfg.Height)
	}

	// Second load hits the cache even after the cover disappears.
	os.Remove(filepath.Join(music, "cover.png"))
	again, err := l.Load(context.Background(), track)
	if err != nil || again != out {
		t.Errorf("cached Load() = (%q, %v), want (%q, nil)", again, err, out)
	}
}

func TestLoader_NoArtwork(t *testing.T) {
	track := filepath.Join(t.TempDir(), "track.mp3")
	if err := os.WriteFile(track, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader(t.TempDir(), 64).Load(context.Background(), track)
	if !errors.Is(err, ErrNoArtwork) {
		t.Errorf("Load() error = %v, want ErrNoArtwork", err)
	}
}
