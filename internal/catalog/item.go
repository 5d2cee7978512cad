// Package catalog is the durable store of playable items.
package catalog

import (
	"strconv"
	"time"
)

// UnknownTitle replaces missing titles so items always have display text.
const UnknownTitle = "Unknown"

// Item is one playable row of the catalog.
type Item struct {
	ID        int64
	Locator   string // file path or file:// URI
	Title     string
	Artist    string // optional
	Duration  time.Duration
	AlbumID   *int64 // optional grouping key
	Favorite  bool
	PlayCount int
}

// MediaID returns the identifier the playback engine uses for this item.
func (it Item) MediaID() string {
	return FormatID(it.ID)
}

// DisplayTitle returns the title, falling back to UnknownTitle.
func (it Item) DisplayTitle() string {
	if it.Title == "" {
		return UnknownTitle
	}
	return it.Title
}

// FormatID formats a catalog ID as an engine media ID.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseID parses an engine media ID back to a catalog ID.
func ParseID(mediaID string) (int64, bool) {
	v, err := strconv.ParseInt(mediaID, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func normalize(it Item) Item {
	it.Title = it.DisplayTitle()
	if it.PlayCount < 0 {
		it.PlayCount = 0
	}
	if it.Duration < 0 {
		it.Duration = 0
	}
	return it
}
