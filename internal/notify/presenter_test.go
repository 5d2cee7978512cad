package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavesd/internal/catalog"
	"github.com/llehouerou/wavesd/internal/playback"
	"github.com/llehouerou/wavesd/internal/player"
)

type fakeHost struct {
	mu       sync.Mutex
	starts   int
	stops    []bool
	stopSelf int
}

func (h *fakeHost) StartForeground() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts++
	return nil
}

func (h *fakeHost) StopForeground(remove bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stops = append(h.stops, remove)
}

func (h *fakeHost) StopSelf() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopSelf++
}

func (h *fakeHost) counts() (starts int, stops []bool, stopSelf int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.starts, append([]bool(nil), h.stops...), h.stopSelf
}

type fakeArtwork struct {
	mu    sync.Mutex
	calls []string
	icon  string
	err   error
}

func (a *fakeArtwork) Load(_ context.Context, path string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, path)
	return a.icon, a.err
}

func (a *fakeArtwork) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

var itemA = catalog.Item{ID: 1, Locator: "/music/a.mp3", Title: "Alpha", Artist: "Ann"}

func newTestPresenter(t *testing.T, art ArtworkLoader, items ...catalog.Item) (*Presenter, *Mock, *fakeHost) {
	t.Helper()
	store := catalog.NewMock(items...)
	n := NewMock()
	h := &fakeHost{}
	p := NewPresenter(PresenterConfig{
		Notifier: n,
		Host:     h,
		Resolve: func(ctx context.Context, id string) (*catalog.Item, error) {
			return catalog.Lookup(ctx, store, id, 250*time.Millisecond)
		},
		Artwork: art,
	})
	return p, n, h
}

func step(prev, cur player.Event) playback.Transition {
	return playback.Transition{Previous: prev, Current: cur}
}

func TestPresenter_IdleToForegroundWithItemTitle(t *testing.T) {
	p, n, h := newTestPresenter(t, nil, itemA)

	p.HandleTransition(step(player.Event{}, player.Event{IsPlaying: true, CurrentItemID: "1"}))

	assert.Equal(t, StateForeground, p.State())
	starts, _, _ := h.counts()
	assert.Equal(t, 1, starts)

	last, ok := n.Last()
	require.True(t, ok)
	assert.Equal(t, "Alpha", last.Title)
	assert.Equal(t, "Ann", last.Body)
	assert.Equal(t, PlaceholderIcon, last.Icon)
	assert.True(t, last.Resident)
	assert.Equal(t, PlaybackChannel.ID, last.ChannelID)
	assert.Equal(t, "wavesd", last.DefaultAction)
}

func TestPresenter_MissingItemFallsBackToPlaying(t *testing.T) {
	p, n, _ := newTestPresenter(t, nil)

	p.HandleTransition(step(player.Event{}, player.Event{IsPlaying: true, CurrentItemID: "99"}))

	last, ok := n.Last()
	require.True(t, ok)
	assert.Equal(t, FallbackTitle, last.Title)
	assert.Empty(t, last.Body)
	assert.Equal(t, StateForeground, p.State())
}

func TestPresenter_RetriesFailedLookupWhenPlaybackStarts(t *testing.T) {
	n := NewMock()
	var mu sync.Mutex
	calls := 0
	p := NewPresenter(PresenterConfig{
		Notifier: n,
		Host:     &fakeHost{},
		Resolve: func(context.Context, string) (*catalog.Item, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 1 {
				return nil, catalog.ErrResolveTimeout
			}
			item := itemA
			return &item, nil
		},
	})
	playing := player.Event{IsPlaying: true, CurrentItemID: "1"}
	paused := player.Event{CurrentItemID: "1"}

	p.HandleTransition(step(player.Event{}, playing))
	last, _ := n.Last()
	assert.Equal(t, FallbackTitle, last.Title)

	// A pause is not a start edge: the failure stays cached.
	p.HandleTransition(step(playing, paused))
	assert.Equal(t, 1, calls)

	p.HandleTransition(step(paused, playing))
	assert.Equal(t, 2, calls)
	last, _ = n.Last()
	assert.Equal(t, "Alpha", last.Title)

	// A resolved item is not looked up again.
	p.HandleTransition(step(playing, paused))
	p.HandleTransition(step(paused, playing))
	assert.Equal(t, 2, calls)
}

func TestPresenter_IdleWaitsForPlayback(t *testing.T) {
	p, n, h := newTestPresenter(t, nil, itemA)

	p.HandleTransition(step(player.Event{}, player.Event{}))
	p.HandleTransition(step(player.Event{}, player.Event{CurrentItemID: "1"}))

	assert.Equal(t, StateIdle, p.State())
	assert.Empty(t, n.Sent())
	starts, _, _ := h.counts()
	assert.Zero(t, starts)
}

func TestPresenter_IdleToBackgroundOnFault(t *testing.T) {
	p, n, h := newTestPresenter(t, nil, itemA)

	p.HandleTransition(step(player.Event{}, player.Event{CurrentItemID: "1", Err: errors.New("decode")}))

	assert.Equal(t, StateBackground, p.State())
	starts, _, _ := h.counts()
	assert.Zero(t, starts)
	last, ok := n.Last()
	require.True(t, ok)
	assert.Equal(t, StoppedTitle, last.Title)
	assert.False(t, last.Resident)
}

func TestPresenter_PauseAndResume(t *testing.T) {
	p, n, h := newTestPresenter(t, nil, itemA)
	playing := player.Event{IsPlaying: true, CurrentItemID: "1"}
	paused := player.Event{CurrentItemID: "1"}

	p.HandleTransition(step(player.Event{}, playing))
	p.HandleTransition(step(playing, paused))

	assert.Equal(t, StateBackground, p.State())
	_, stops, _ := h.counts()
	assert.Equal(t, []bool{false}, stops)
	last, _ := n.Last()
	assert.Equal(t, "Alpha", last.Title)
	assert.False(t, last.Resident)
	assert.Equal(t, NotificationID, last.ReplacesID)

	p.HandleTransition(step(paused, playing))
	assert.Equal(t, StateForeground, p.State())
	starts, _, _ := h.counts()
	assert.Equal(t, 2, starts)
}

func TestPresenter_IdenticalContentNotReposted(t *testing.T) {
	p, n, _ := newTestPresenter(t, nil, itemA)
	playing := player.Event{IsPlaying: true, CurrentItemID: "1"}

	p.HandleTransition(step(player.Event{}, playing))
	p.HandleTransition(step(playing, playing))

	assert.Len(t, n.Sent(), 1)
}

func TestPresenter_FaultShowsStopped(t *testing.T) {
	p, n, h := newTestPresenter(t, nil, itemA)
	playing := player.Event{IsPlaying: true, CurrentItemID: "1"}

	p.HandleTransition(step(player.Event{}, playing))
	p.HandleTransition(step(playing, player.Event{CurrentItemID: "1", Err: errors.New("boom")}))

	last, _ := n.Last()
	assert.Equal(t, StoppedTitle, last.Title)
	assert.Equal(t, "Alpha", last.Body)
	assert.False(t, last.Resident)
	assert.Equal(t, StateBackground, p.State())
	_, stops, _ := h.counts()
	assert.Equal(t, []bool{false}, stops)
}

func TestPresenter_LeaveForeground(t *testing.T) {
	p, _, h := newTestPresenter(t, nil, itemA)

	p.LeaveForeground()
	assert.Equal(t, StateIdle, p.State())

	p.HandleTransition(step(player.Event{}, player.Event{IsPlaying: true, CurrentItemID: "1"}))
	p.LeaveForeground()

	assert.Equal(t, StateBackground, p.State())
	_, stops, _ := h.counts()
	assert.Equal(t, []bool{false}, stops)
}

func TestPresenter_NotifyFailureIsSwallowed(t *testing.T) {
	p, n, _ := newTestPresenter(t, nil, itemA)
	n.NotifyErr = errors.New("no server")

	p.HandleTransition(step(player.Event{}, player.Event{IsPlaying: true, CurrentItemID: "1"}))

	assert.Equal(t, StateForeground, p.State())
	assert.Empty(t, n.Sent())
}

func TestPresenter_Detach(t *testing.T) {
	p, n, h := newTestPresenter(t, nil, itemA)
	playing := player.Event{IsPlaying: true, CurrentItemID: "1"}

	p.HandleTransition(step(player.Event{}, playing))
	p.Detach()
	p.Detach()

	assert.Equal(t, []uint32{NotificationID}, n.Closed())
	_, stops, _ := h.counts()
	assert.Equal(t, []bool{true}, stops)

	sent := len(n.Sent())
	p.HandleTransition(step(playing, player.Event{CurrentItemID: "1"}))
	assert.Len(t, n.Sent(), sent)
}

func TestPresenter_DismissalCancels(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p, n, h := newTestPresenter(t, nil, itemA)
		playing := player.Event{IsPlaying: true, CurrentItemID: "1"}
		p.HandleTransition(step(player.Event{}, playing))

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		done := make(chan struct{})
		go func() {
			p.Run(ctx)
			close(done)
		}()

		// Dismissing some other notification is ignored.
		n.Dismiss(NotificationID + 1)
		synctest.Wait()
		assert.Equal(t, StateForeground, p.State())

		n.Dismiss(NotificationID)
		<-done

		assert.Equal(t, StateCancelled, p.State())
		_, stops, stopSelf := h.counts()
		assert.Equal(t, []bool{true}, stops)
		assert.Equal(t, 1, stopSelf)

		// Cancelled is terminal.
		sent := len(n.Sent())
		p.HandleTransition(step(playing, player.Event{CurrentItemID: "1"}))
		assert.Len(t, n.Sent(), sent)
		assert.Equal(t, StateCancelled, p.State())

		// Teardown after dismissal does not close the notification again.
		p.Detach()
		assert.Empty(t, n.Closed())
	})
}

func TestPresenter_RunStopsOnContext(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p, _, h := newTestPresenter(t, nil)
		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan struct{})
		go func() {
			p.Run(ctx)
			close(done)
		}()
		cancel()
		<-done
		_, _, stopSelf := h.counts()
		assert.Zero(t, stopSelf)
	})
}

func TestPresenter_ArtworkRebuildsOnce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		art := &fakeArtwork{icon: "/cache/alpha.png"}
		p, n, _ := newTestPresenter(t, art, itemA)
		playing := player.Event{IsPlaying: true, CurrentItemID: "1"}

		p.HandleTransition(step(player.Event{}, playing))
		synctest.Wait()
		p.HandleTransition(step(playing, player.Event{CurrentItemID: "1"}))
		synctest.Wait()

		assert.Equal(t, 1, art.callCount())
		sent := n.Sent()
		require.Len(t, sent, 3)
		assert.Equal(t, PlaceholderIcon, sent[0].Icon)
		assert.Equal(t, "/cache/alpha.png", sent[1].Icon)
		assert.True(t, sent[1].Resident)
		assert.Equal(t, "/cache/alpha.png", sent[2].Icon)
		assert.False(t, sent[2].Resident)

		// Later builds reuse the resolved icon without loading again.
		p.HandleTransition(step(player.Event{CurrentItemID: "1"}, playing))
		synctest.Wait()
		assert.Equal(t, 1, art.callCount())
		last, _ := n.Last()
		assert.Equal(t, "/cache/alpha.png", last.Icon)
		assert.True(t, last.Resident)
	})
}

func TestPresenter_ArtworkMissingKeepsPlaceholder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		art := &fakeArtwork{err: errors.New("no artwork")}
		p, n, _ := newTestPresenter(t, art, itemA)

		p.HandleTransition(step(player.Event{}, player.Event{IsPlaying: true, CurrentItemID: "1"}))
		synctest.Wait()

		assert.Len(t, n.Sent(), 1)
		p.HandleTransition(step(player.Event{}, player.Event{CurrentItemID: "1"}))
		synctest.Wait()
		assert.Equal(t, 1, art.callCount())
		last, _ := n.Last()
		assert.Equal(t, PlaceholderIcon, last.Icon)
	})
}

func TestPresenter_RegisterChannel(t *testing.T) {
	p, n, _ := newTestPresenter(t, nil)
	require.NoError(t, p.RegisterChannel())
	require.NoError(t, p.RegisterChannel())
	assert.Equal(t, []Channel{PlaybackChannel}, n.Channels())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "foreground", StateForeground.String())
	assert.Equal(t, "background", StateBackground.String())
	assert.Equal(t, "cancelled", StateCancelled.String())
}
