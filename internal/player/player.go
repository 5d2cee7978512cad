package player

import (
	"errors"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// SampleRate is the rate the speaker is opened at; streams are resampled to it.
const SampleRate = beep.SampleRate(44100)

const resampleQuality = 4

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(SampleRate, SampleRate.N(time.Second/10))
	})
	return speakerErr
}

// ErrEmptyQueue is returned by SetQueue for an empty or out-of-range queue.
var ErrEmptyQueue = errors.New("empty queue or start out of range")

// Player is the beep-backed engine. It plays a queue of entries back to
// back and advances automatically when an entry ends.
type Player struct {
	mu sync.Mutex

	entries       []Entry
	index         int
	playWhenReady bool
	completed     bool

	cur    *decoded
	ctrl   *beep.Ctrl
	volume *effects.Volume
	gen    int // identifies the stream a finished signal belongs to

	volumeLevel float64
	muted       bool

	events   *emitter
	finished chan int
	done     chan struct{}
	released bool
}

// New creates an idle engine.
func New() *Player {
	p := &Player{
		volumeLevel: 1.0,
		events:      newEmitter(),
		finished:    make(chan int, 8),
		done:        make(chan struct{}),
	}
	go p.advanceLoop()
	return p
}

func (p *Player) Events() <-chan Event {
	return p.events.out
}

func (p *Player) SetQueue(entries []Entry, start int) error {
	if len(entries) == 0 || start < 0 || start >= len(entries) {
		return ErrEmptyQueue
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil
	}

	p.closeStream()
	p.entries = append([]Entry(nil), entries...)
	p.index = start
	p.completed = false
	p.emitLocked(nil)
	return nil
}

func (p *Player) Prepare() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released || len(p.entries) == 0 {
		return nil
	}
	if p.cur != nil {
		return nil
	}
	return p.openLocked()
}

// openLocked decodes the selected entry and hands it to the speaker.
func (p *Player) openLocked() error {
	entry := p.entries[p.index]

	d, err := decode(entry.Locator)
	if err != nil {
		return p.faultLocked("open", entry.Locator, err)
	}

	if err := initSpeaker(); err != nil {
		d.close()
		return p.faultLocked("open audio device", "", err)
	}

	var s beep.Streamer = d.streamer
	if d.format.SampleRate != SampleRate {
		s = beep.Resample(resampleQuality, d.format.SampleRate, SampleRate, s)
	}

	p.gen++
	gen := p.gen
	p.cur = d
	p.completed = false
	p.ctrl = &beep.Ctrl{Streamer: s, Paused: !p.playWhenReady}
	p.volume = &effects.Volume{
		Streamer: p.ctrl,
		Base:     2,
		Volume:   p.levelToVolume(p.volumeLevel),
		Silent:   p.muted,
	}

	// The callback runs under the speaker lock and must only signal.
	speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
		select {
		case p.finished <- gen:
		default:
		}
	})))

	p.emitLocked(nil)
	return nil
}

func (p *Player) faultLocked(op, locator string, err error) error {
	p.closeStream()
	p.playWhenReady = false
	fault := &EngineFault{Op: op, Locator: locator, Err: err}
	p.emitLocked(fault)
	return fault
}

func (p *Player) Play() { p.SetPlayWhenReady(true) }

func (p *Player) Pause() { p.SetPlayWhenReady(false) }

func (p *Player) SetPlayWhenReady(playWhenReady bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released || p.playWhenReady == playWhenReady {
		return
	}

	p.playWhenReady = playWhenReady
	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = !playWhenReady
		speaker.Unlock()
	}
	p.emitLocked(nil)
}

// Stop halts playback and unloads the current entry. The queue is kept;
// Prepare reloads the selected entry.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}

	wasActive := p.cur != nil || p.playWhenReady
	p.closeStream()
	p.playWhenReady = false
	if wasActive {
		p.emitLocked(nil)
	}
}

// SeekTo moves to an absolute position, clamped to the current stream.
func (p *Player) SeekTo(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur == nil {
		return
	}

	n := p.cur.format.SampleRate.N(pos)
	last := p.cur.streamer.Len() - 1
	n = max(min(n, last), 0)

	speaker.Lock()
	err := p.cur.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		p.faultLocked("seek", p.entries[p.index].Locator, err)
		return
	}
	p.emitLocked(nil)
}

func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *Player) positionLocked() time.Duration {
	if p.cur == nil {
		return 0
	}
	speaker.Lock()
	pos := p.cur.format.SampleRate.D(p.cur.streamer.Position())
	speaker.Unlock()
	return pos
}

func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur != nil {
		return p.cur.format.SampleRate.D(p.cur.streamer.Len())
	}
	if len(p.entries) > 0 {
		return p.entries[p.index].Duration
	}
	return 0
}

func (p *Player) Current() *Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) == 0 {
		return nil
	}
	e := p.entries[p.index]
	return &e
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Player) stateLocked() State {
	switch {
	case p.cur == nil:
		return Stopped
	case p.playWhenReady:
		return Playing
	default:
		return Paused
	}
}

// Release stops playback, closes the event stream and stops the advance
// goroutine. Safe to call more than once.
func (p *Player) Release() {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return
	}
	p.released = true
	p.closeStream()
	p.entries = nil
	p.mu.Unlock()

	close(p.done)
	p.events.close()
}

// advanceLoop moves to the next entry when the speaker finishes one.
func (p *Player) advanceLoop() {
	for {
		select {
		case <-p.done:
			return
		case gen := <-p.finished:
			p.onFinished(gen)
		}
	}
}

func (p *Player) onFinished(gen int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released || gen != p.gen || p.cur == nil {
		return
	}

	p.closeStream()
	if p.index+1 < len(p.entries) {
		p.index++
		_ = p.openLocked() // failures are emitted as faults
		return
	}

	p.completed = true
	p.playWhenReady = false
	p.emitLocked(nil)
}

func (p *Player) closeStream() {
	if p.cur == nil {
		return
	}
	speaker.Clear()
	p.cur.close()
	p.cur = nil
	p.ctrl = nil
	p.volume = nil
	p.gen++
}

func (p *Player) emitLocked(err error) {
	ev := Event{
		IsPlaying: p.cur != nil && p.playWhenReady,
		Completed: p.completed,
		Position:  p.positionLocked(),
		Err:       err,
	}
	if len(p.entries) > 0 {
		ev.CurrentItemID = p.entries[p.index].ItemID
	}
	p.events.emit(ev)
}
