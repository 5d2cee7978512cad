// Package errmsg provides consistent error formatting for log and CLI messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Catalog operations
	OpCatalogOpen     Op = "open catalog"
	OpCatalogPopulate Op = "populate catalog"
	OpCatalogScan     Op = "scan catalog"
	OpItemResolve     Op = "resolve catalog item"
	OpFavoriteToggle  Op = "update favorite"

	// Play counts
	OpPlayCountIncrement Op = "increment play count"
	OpNowPlaying         Op = "forward now playing"

	// Playback operations
	OpQueueSubmit   Op = "submit queue"
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"
	OpEngineRelease Op = "release playback engine"

	// Session surface
	OpSessionStart   Op = "start media session"
	OpSessionRelease Op = "release media session"

	// Notifications
	OpNotify          Op = "post notification"
	OpNotifyClose     Op = "close notification"
	OpArtworkLoad     Op = "load artwork"
	OpForegroundStart Op = "enter foreground"
	OpForegroundStop  Op = "leave foreground"

	// Initialization
	OpInitialize Op = "initialize session"
	OpTeardown   Op = "tear down session"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
