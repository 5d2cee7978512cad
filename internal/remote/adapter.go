// Package remote translates session-control commands from remote
// controllers into engine calls and mirrors engine state back to them.
package remote

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/wavesd/internal/errmsg"
	"github.com/llehouerou/wavesd/internal/logging"
	"github.com/llehouerou/wavesd/internal/playback"
	"github.com/llehouerou/wavesd/internal/player"
)

// Engine is the non-owning engine surface the adapter may drive. It has no
// Release: the session manager owns the engine's lifetime.
type Engine interface {
	SetPlayWhenReady(playWhenReady bool)
	Stop()
	SeekTo(pos time.Duration)
	Position() time.Duration
	Duration() time.Duration
	Current() *player.Entry
	State() player.State
}

// Foreground is told to leave the foreground state when playback stops.
type Foreground interface {
	LeaveForeground()
}

// Publisher exposes metadata to remote controllers.
type Publisher interface {
	Publish(md Metadata)
	Close() error
}

// Metadata is the session state mirrored to remote controllers. It is
// never authoritative; the engine is.
type Metadata struct {
	ItemID   string
	Locator  string
	Title    string
	Artist   string
	Position time.Duration
	Duration time.Duration
	Playing  bool
	Active   bool
}

// Status returns the transport state for remote surfaces.
func (m Metadata) Status() playback.State {
	switch {
	case m.Playing:
		return playback.StatePlaying
	case m.Active && m.ItemID != "":
		return playback.StatePaused
	default:
		return playback.StateStopped
	}
}

// Config wires an Adapter.
type Config struct {
	Engine     Engine
	Foreground Foreground
	Publisher  Publisher
	// Dispatch runs a command on the session's control loop. Commands run
	// inline when nil.
	Dispatch func(fn func())
	Logger   *log.Logger
}

// Adapter is the session protocol adapter.
type Adapter struct {
	mu        sync.Mutex
	engine    Engine
	fg        Foreground
	publisher Publisher
	dispatch  func(fn func())
	logger    *log.Logger

	active   bool
	last     Metadata
	released bool
}

// New creates an adapter. Engine is required. The session starts active
// and stays so until Stop, an engine fault or Release.
func New(cfg Config) *Adapter {
	return &Adapter{
		engine:    cfg.Engine,
		fg:        cfg.Foreground,
		publisher: cfg.Publisher,
		dispatch:  cfg.Dispatch,
		logger:    logging.Component(cfg.Logger, "remote"),
		active:    true,
	}
}

// SetPublisher attaches the remote surface. Passing nil detaches it.
func (a *Adapter) SetPublisher(p Publisher) {
	a.mu.Lock()
	a.publisher = p
	md := a.last
	a.mu.Unlock()

	if p != nil {
		p.Publish(md)
	}
}

func (a *Adapter) run(fn func()) {
	if a.dispatch != nil {
		a.dispatch(fn)
		return
	}
	fn()
}

// live reports whether the session still accepts commands.
func (a *Adapter) live() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.released
}

// Play sets play-when-ready on the engine.
func (a *Adapter) Play() {
	a.run(func() {
		if !a.live() {
			return
		}
		a.logger.Debug("command", "op", "play")
		a.setActive(true)
		a.engine.SetPlayWhenReady(true)
	})
}

// Pause clears play-when-ready on the engine.
func (a *Adapter) Pause() {
	a.run(func() {
		if !a.live() {
			return
		}
		a.logger.Debug("command", "op", "pause")
		a.engine.SetPlayWhenReady(false)
	})
}

// PlayPause toggles between Play and Pause based on engine state.
func (a *Adapter) PlayPause() {
	a.run(func() {
		if !a.live() {
			return
		}
		if a.engine.State().CanPause() {
			a.engine.SetPlayWhenReady(false)
			return
		}
		a.setActive(true)
		a.engine.SetPlayWhenReady(true)
	})
}

// Stop stops the engine, drops the foreground state and marks the session
// inactive.
func (a *Adapter) Stop() {
	a.run(func() {
		if !a.live() {
			return
		}
		a.logger.Debug("command", "op", "stop")
		a.engine.Stop()
		if a.fg != nil {
			a.fg.LeaveForeground()
		}
		a.setActive(false)
		a.republish()
	})
}

// SeekTo seeks to pos clamped to [0, duration]. When the duration is unknown
// only the lower bound applies.
func (a *Adapter) SeekTo(pos time.Duration) {
	a.run(func() {
		if !a.live() {
			return
		}
		a.seekClamped(pos)
	})
}

// Seek moves by offset relative to the current position.
func (a *Adapter) Seek(offset time.Duration) {
	a.run(func() {
		if !a.live() {
			return
		}
		a.seekClamped(a.engine.Position() + offset)
	})
}

func (a *Adapter) seekClamped(pos time.Duration) {
	pos = ClampPosition(pos, a.duration())
	a.logger.Debug("command", "op", "seek", "position", pos)
	a.engine.SeekTo(pos)
}

func (a *Adapter) duration() time.Duration {
	if d := a.engine.Duration(); d > 0 {
		return d
	}
	if cur := a.engine.Current(); cur != nil {
		return cur.Duration
	}
	return 0
}

// ClampPosition bounds pos to [0, duration]; a non-positive duration means
// unknown and leaves the upper bound open.
func ClampPosition(pos, duration time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	if duration > 0 && pos > duration {
		return duration
	}
	return pos
}

// Position returns the engine's current position.
func (a *Adapter) Position() time.Duration {
	return a.engine.Position()
}

// Metadata returns the last published metadata.
func (a *Adapter) Metadata() Metadata {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Active reports whether the session is active.
func (a *Adapter) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

func (a *Adapter) setActive(active bool) {
	a.mu.Lock()
	a.active = active
	a.mu.Unlock()
}

// HandleTransition mirrors an engine transition to the remote surface.
func (a *Adapter) HandleTransition(t playback.Transition) {
	if !a.live() {
		return
	}

	switch {
	case t.Faulted():
		a.logger.Warn("engine fault, session inactive", "err", t.Current.Err)
		a.setActive(false)
	case t.Current.IsPlaying:
		a.setActive(true)
	}

	a.publish(t.Current)
}

func (a *Adapter) republish() {
	a.mu.Lock()
	md := a.last
	a.mu.Unlock()
	md.Playing = false
	md.Active = a.Active()
	a.store(md)
}

func (a *Adapter) publish(ev player.Event) {
	md := Metadata{
		ItemID:   ev.CurrentItemID,
		Position: ev.Position,
		Playing:  ev.IsPlaying,
		Active:   a.Active(),
	}
	if cur := a.engine.Current(); cur != nil && cur.ItemID == ev.CurrentItemID {
		md.Locator = cur.Locator
		md.Title = cur.Title
		md.Artist = cur.Artist
		md.Duration = cur.Duration
	}
	if d := a.engine.Duration(); d > 0 {
		md.Duration = d
	}
	a.store(md)
}

func (a *Adapter) store(md Metadata) {
	a.mu.Lock()
	a.last = md
	p := a.publisher
	a.mu.Unlock()

	if p != nil {
		p.Publish(md)
	}
}

// Release marks the session inactive and closes the remote surface. Later
// commands and transitions are ignored. Safe to call more than once.
func (a *Adapter) Release() {
	a.mu.Lock()
	if a.released {
		a.mu.Unlock()
		return
	}
	a.released = true
	a.active = false
	p := a.publisher
	a.publisher = nil
	a.mu.Unlock()

	if p != nil {
		if err := p.Close(); err != nil {
			a.logger.Warn(errmsg.Format(errmsg.OpSessionRelease, err))
		}
	}
}
