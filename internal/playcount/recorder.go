// Package playcount credits catalog items with a play when the engine
// starts playing them.
package playcount

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/wavesd/internal/catalog"
	"github.com/llehouerou/wavesd/internal/errmsg"
	"github.com/llehouerou/wavesd/internal/logging"
	"github.com/llehouerou/wavesd/internal/playback"
)

// Credit describes one recorded play.
type Credit struct {
	MediaID string
	ID      int64
	At      time.Time
}

// Hook is called after a play was written to the catalog.
type Hook func(ctx context.Context, c Credit)

// Recorder increments play counts at most once per item per continuous run.
// A run ends when a different item is credited; pausing does not end it.
// Besides the not-playing to playing edge, an item change while playing
// (auto-advance to the next queue entry) also credits the new item.
type Recorder struct {
	store  catalog.Store
	logger *log.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	lastCredited string
	hooks        []Hook
	closed       bool
}

// New creates a recorder whose writes run under ctx.
func New(ctx context.Context, store catalog.Store, logger *log.Logger) *Recorder {
	ctx, cancel := context.WithCancel(ctx)
	return &Recorder{
		store:  store,
		logger: logging.Component(logger, "playcount"),
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnCredit registers a hook run after every successful increment.
func (r *Recorder) OnCredit(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

// HandleTransition credits the current item when it is playing and was not
// the last item credited.
func (r *Recorder) HandleTransition(t playback.Transition) {
	cur := t.Current
	if !cur.IsPlaying || cur.CurrentItemID == "" {
		return
	}
	if !t.Started() && !t.ItemChanged() {
		return
	}

	r.mu.Lock()
	if r.closed || cur.CurrentItemID == r.lastCredited {
		r.mu.Unlock()
		return
	}
	r.lastCredited = cur.CurrentItemID
	hooks := append([]Hook(nil), r.hooks...)
	r.wg.Add(1)
	r.mu.Unlock()

	id, ok := catalog.ParseID(cur.CurrentItemID)
	if !ok {
		r.wg.Done()
		r.logger.Warn(errmsg.FormatWith(errmsg.OpPlayCountIncrement, cur.CurrentItemID, catalog.ErrInvalidMediaID))
		return
	}

	credit := Credit{MediaID: cur.CurrentItemID, ID: id, At: r.now()}
	go r.increment(credit, hooks)
}

func (r *Recorder) increment(c Credit, hooks []Hook) {
	defer r.wg.Done()

	if err := r.store.IncrementPlayCount(r.ctx, c.ID); err != nil {
		r.logger.Warn(errmsg.FormatWith(errmsg.OpPlayCountIncrement, c.MediaID, err))
		return
	}
	r.logger.Debug("play credited", "item", c.MediaID)

	for _, h := range hooks {
		h(r.ctx, c)
	}
}

// Close stops accepting credits and waits up to grace for in-flight writes,
// then cancels them. It reports whether every write finished in time.
func (r *Recorder) Close(grace time.Duration) bool {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	defer r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		r.logger.Warn("in-flight play counts abandoned", "grace", grace)
		return false
	}
}
