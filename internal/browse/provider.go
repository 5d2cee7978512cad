// Package browse exposes the catalog as a browsable tree of playable items.
package browse

import (
	"context"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/wavesd/internal/catalog"
	"github.com/llehouerou/wavesd/internal/errmsg"
	"github.com/llehouerou/wavesd/internal/logging"
)

// RootID is the id of the tree root.
const RootID = "root"

// Descriptor describes one node of the browsing tree.
type Descriptor struct {
	ID       string
	Title    string
	Subtitle string
	Locator  string
	Playable bool
}

// Provider lists catalog items under the root node. Every other node is a
// leaf with no children.
type Provider struct {
	store  catalog.Store
	logger *log.Logger
}

// New creates a provider over store.
func New(store catalog.Store, logger *log.Logger) *Provider {
	return &Provider{
		store:  store,
		logger: logging.Component(logger, "browse"),
	}
}

// Root returns the root node id.
func (p *Provider) Root() string {
	return RootID
}

// ListChildren returns immediately; the result resolves from a background
// scan. Unknown nodes resolve to an empty list. Cancelling ctx resolves the
// result with the context error.
func (p *Provider) ListChildren(ctx context.Context, node string) *Result {
	r := newResult()
	if node != RootID {
		r.resolve([]Descriptor{}, nil)
		return r
	}

	go func() {
		items, err := p.store.ScanAll(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Warn(errmsg.Format(errmsg.OpCatalogScan, err))
			}
			r.resolve(nil, err)
			return
		}
		r.resolve(describe(items), nil)
	}()
	go func() {
		select {
		case <-ctx.Done():
			r.resolve(nil, ctx.Err())
		case <-r.done:
		}
	}()
	return r
}

// WatchChildren emits the child list of node now and after every catalog
// change until ctx is done. The channel is closed when watching stops.
func (p *Provider) WatchChildren(ctx context.Context, node string) <-chan []Descriptor {
	out := make(chan []Descriptor, 1)
	if node != RootID {
		out <- []Descriptor{}
		close(out)
		return out
	}

	scans := p.store.Watch(ctx)
	go func() {
		defer close(out)
		for items := range scans {
			select {
			case out <- describe(items):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// describe maps catalog rows to playable leaves ordered by title.
func describe(items []catalog.Item) []Descriptor {
	out := make([]Descriptor, 0, len(items))
	for i := range items {
		it := &items[i]
		out = append(out, Descriptor{
			ID:       it.MediaID(),
			Title:    it.DisplayTitle(),
			Subtitle: it.Artist,
			Locator:  it.Locator,
			Playable: true,
		})
	}
	slices.SortStableFunc(out, func(a, b Descriptor) int {
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})
	return out
}
