//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpPlayCountIncrement,
			err:      nil,
			expected: "",
		},
		{
			name:     "play count operation",
			op:       OpPlayCountIncrement,
			err:      errors.New("database is locked"),
			expected: "Failed to increment play count: database is locked",
		},
		{
			name:     "catalog populate operation",
			op:       OpCatalogPopulate,
			err:      errors.New("disk full"),
			expected: "Failed to populate catalog: disk full",
		},
		{
			name:     "playback operation",
			op:       OpPlaybackStart,
			err:      errors.New("no audio device"),
			expected: "Failed to start playback: no audio device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpItemResolve,
			context:  "42",
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with context",
			op:       OpItemResolve,
			context:  "42",
			err:      errors.New("not found"),
			expected: "Failed to resolve catalog item '42': not found",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpNotify,
			context:  "",
			err:      errors.New("no session bus"),
			expected: "Failed to post notification: no session bus",
		},
		{
			name:     "artwork with path context",
			op:       OpArtworkLoad,
			context:  "/music/a.flac",
			err:      errors.New("no picture"),
			expected: "Failed to load artwork '/music/a.flac': no picture",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestOpConstants(t *testing.T) {
	ops := []Op{
		OpCatalogOpen, OpCatalogPopulate, OpCatalogScan, OpItemResolve, OpFavoriteToggle,
		OpPlayCountIncrement, OpNowPlaying,
		OpQueueSubmit, OpPlaybackStart, OpPlaybackSeek, OpEngineRelease,
		OpSessionStart, OpSessionRelease,
		OpNotify, OpNotifyClose, OpArtworkLoad, OpForegroundStart, OpForegroundStop,
		OpInitialize, OpTeardown,
	}

	testErr := errors.New("test error")

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			if op == "" {
				t.Error("Op constant should not be empty")
			}

			expected := "Failed to " + string(op) + ": test error"
			if result := Format(op, testErr); result != expected {
				t.Errorf("Format = %q, want %q", result, expected)
			}
		})
	}
}
