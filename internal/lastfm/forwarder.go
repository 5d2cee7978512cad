package lastfm

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/wavesd/internal/catalog"
	"github.com/llehouerou/wavesd/internal/errmsg"
	"github.com/llehouerou/wavesd/internal/logging"
	"github.com/llehouerou/wavesd/internal/playcount"
)

// NowPlayer is the Last.fm call the forwarder needs.
type NowPlayer interface {
	NowPlaying(item catalog.Item) error
}

// Forwarder reports credited plays to Last.fm as now playing.
type Forwarder struct {
	client NowPlayer
	store  catalog.Store
	logger *log.Logger
}

// NewForwarder creates a forwarder reading item details from store.
func NewForwarder(client NowPlayer, store catalog.Store, logger *log.Logger) *Forwarder {
	return &Forwarder{
		client: client,
		store:  store,
		logger: logging.Component(logger, "lastfm"),
	}
}

// Credit is a playcount.Hook. Failures are logged and dropped.
func (f *Forwarder) Credit(ctx context.Context, c playcount.Credit) {
	item, err := f.store.GetByID(ctx, c.ID)
	if err != nil {
		f.logger.Debug(errmsg.FormatWith(errmsg.OpItemResolve, c.MediaID, err))
		return
	}
	// Last.fm rejects tracks without an artist.
	if item.Artist == "" {
		return
	}

	if err := f.client.NowPlaying(*item); err != nil {
		f.logger.Warn(errmsg.FormatWith(errmsg.OpNowPlaying, item.DisplayTitle(), err))
	}
}
