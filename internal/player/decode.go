package player

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// ErrUnsupportedFormat is returned for locators with no decoder.
var ErrUnsupportedFormat = errors.New("unsupported format")

// SupportedExtensions lists the file extensions the engine can decode.
var SupportedExtensions = []string{".mp3", ".flac", ".wav", ".ogg", ".oga"}

// IsSupported reports whether path has a decodable extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// LocatorPath turns a locator (plain path or file:// URI) into a file path.
func LocatorPath(locator string) (string, error) {
	if !strings.Contains(locator, "://") {
		return locator, nil
	}
	u, err := url.Parse(locator)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedFormat, u.Scheme)
	}
	return u.Path, nil
}

type decoded struct {
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
}

func (d *decoded) close() {
	if d.streamer != nil {
		d.streamer.Close()
	}
	if d.file != nil {
		d.file.Close()
	}
}

// decode opens locator and picks a decoder from its extension.
func decode(locator string) (*decoded, error) {
	path, err := LocatorPath(locator)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !IsSupported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, err
	}

	return &decoded{file: f, streamer: streamer, format: format}, nil
}

// Probe returns the playing time of locator by opening its decoder.
func Probe(locator string) (time.Duration, error) {
	d, err := decode(locator)
	if err != nil {
		return 0, err
	}
	defer d.close()

	n := d.streamer.Len()
	if n <= 0 {
		return 0, nil
	}
	return d.format.SampleRate.D(n), nil
}
