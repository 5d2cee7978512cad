// Package session owns the playback session: the engine, the components
// reacting to its events and the control loop they share.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/llehouerou/wavesd/internal/browse"
	"github.com/llehouerou/wavesd/internal/catalog"
	"github.com/llehouerou/wavesd/internal/errmsg"
	"github.com/llehouerou/wavesd/internal/inhibit"
	"github.com/llehouerou/wavesd/internal/logging"
	"github.com/llehouerou/wavesd/internal/notify"
	"github.com/llehouerou/wavesd/internal/playback"
	"github.com/llehouerou/wavesd/internal/playcount"
	"github.com/llehouerou/wavesd/internal/player"
	"github.com/llehouerou/wavesd/internal/remote"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultResolveTimeout = 250 * time.Millisecond
	DefaultShutdownGrace  = 2 * time.Second
)

const postBufferSize = 64

// Config holds the session's injected dependencies. Only Store is required.
type Config struct {
	Store catalog.Store

	// NewEngine creates the playback engine. Defaults to the audio device.
	NewEngine func() (player.Interface, error)
	// NewPublisher attaches a remote control surface to the adapter.
	NewPublisher func(cmds *remote.Adapter) (remote.Publisher, error)

	Notifier  notify.Notifier      // defaults to a stub
	Artwork   notify.ArtworkLoader // optional
	Channel   notify.Channel       // defaults to notify.PlaybackChannel
	Inhibitor inhibit.Inhibitor    // defaults to inhibit.Noop

	// OnCredit hooks run after each recorded play.
	OnCredit []playcount.Hook

	ResolveTimeout time.Duration
	ShutdownGrace  time.Duration

	Logger *log.Logger
}

// Manager is the session manager. It exclusively owns the engine and the
// remote session; components only get non-owning views of them.
type Manager struct {
	cfg    Config
	id     string
	logger *log.Logger

	mu          sync.Mutex
	initialized bool
	tornDown    bool

	engine    player.Interface
	bus       *playback.Bus
	adapter   *remote.Adapter
	presenter *notify.Presenter
	recorder  *playcount.Recorder
	browser   *browse.Provider
	notifier  notify.Notifier
	inhibitor inhibit.Inhibitor

	ctx      context.Context
	cancel   context.CancelFunc
	posts    chan func()
	loopDone chan struct{}

	teardownOnce sync.Once
	done         chan struct{}
}

// New creates an uninitialized manager.
func New(cfg Config) *Manager {
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = DefaultResolveTimeout
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = DefaultShutdownGrace
	}
	if cfg.NewEngine == nil {
		cfg.NewEngine = func() (player.Interface, error) { return player.New(), nil }
	}

	id := uuid.NewString()
	return &Manager{
		cfg:    cfg,
		id:     id,
		logger: logging.Component(cfg.Logger, "session").With("session", id),
		posts:  make(chan func(), postBufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the session id.
func (m *Manager) ID() string {
	return m.id
}

// Initialize builds the engine and its components and starts the control
// loop. Calling it again while initialized is a no-op. A missing store is
// fatal and leaves the session untouched.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tornDown {
		return ErrTornDown
	}
	if m.initialized {
		return nil
	}
	if m.cfg.Store == nil {
		return fmt.Errorf("%s: %w", errmsg.OpInitialize, ErrNoStore)
	}

	engine, err := m.cfg.NewEngine()
	if err != nil {
		return fmt.Errorf("%s: create engine: %w", errmsg.OpInitialize, err)
	}

	m.ctx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	m.engine = engine
	m.notifier = m.cfg.Notifier
	if m.notifier == nil {
		m.notifier = notify.NewStub()
	}
	m.inhibitor = m.cfg.Inhibitor
	if m.inhibitor == nil {
		m.inhibitor = &inhibit.Noop{}
	}

	store := m.cfg.Store
	timeout := m.cfg.ResolveTimeout
	m.presenter = notify.NewPresenter(notify.PresenterConfig{
		Notifier: m.notifier,
		Host: &host{
			inhibitor: m.inhibitor,
			stop:      m.Teardown,
			logger:    m.logger,
		},
		Resolve: func(ctx context.Context, mediaID string) (*catalog.Item, error) {
			return catalog.Lookup(ctx, store, mediaID, timeout)
		},
		Artwork: m.cfg.Artwork,
		Channel: m.cfg.Channel,
		Logger:  m.cfg.Logger,
	})

	m.recorder = playcount.New(m.ctx, store, m.cfg.Logger)
	for _, h := range m.cfg.OnCredit {
		m.recorder.OnCredit(h)
	}

	m.adapter = remote.New(remote.Config{
		Engine:     engine,
		Foreground: m.presenter,
		Dispatch:   m.post,
		Logger:     m.cfg.Logger,
	})

	m.browser = browse.New(store, m.cfg.Logger)
	m.bus = playback.NewBus(m.presenter, m.recorder, m.adapter)

	if err := m.presenter.RegisterChannel(); err != nil {
		m.logger.Warn(errmsg.Format(errmsg.OpNotify, err))
	}
	if m.cfg.NewPublisher != nil {
		pub, err := m.cfg.NewPublisher(m.adapter)
		if err != nil {
			m.logger.Warn(errmsg.Format(errmsg.OpSessionStart, err))
		} else {
			m.adapter.SetPublisher(pub)
		}
	}

	m.loopDone = make(chan struct{})
	go m.loop(engine.Events())
	go m.presenter.Run(m.ctx)

	m.initialized = true
	m.logger.Info("session initialized")
	return nil
}

// loop serializes engine events and posted commands.
func (m *Manager) loop(events <-chan player.Event) {
	defer close(m.loopDone)
	for {
		select {
		case <-m.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.bus.Publish(ev)
		case fn := <-m.posts:
			fn()
		}
	}
}

// post queues fn on the control loop. It is dropped once the session is
// shutting down.
func (m *Manager) post(fn func()) {
	select {
	case m.posts <- fn:
	case <-m.ctx.Done():
	}
}

// SubmitQueue replaces the engine queue with items and starts playing
// items[startIndex]. It returns once the control loop ran the submission
// or ctx is done.
func (m *Manager) SubmitQueue(ctx context.Context, items []catalog.Item, startIndex int) error {
	if len(items) == 0 || startIndex < 0 || startIndex >= len(items) {
		return &InvalidQueueError{Len: len(items), StartIndex: startIndex}
	}

	m.mu.Lock()
	if !m.initialized || m.tornDown {
		m.mu.Unlock()
		return ErrNotInitialized
	}
	engine := m.engine
	loopCtx := m.ctx
	m.mu.Unlock()

	entries := make([]player.Entry, len(items))
	for i := range items {
		it := &items[i]
		entries[i] = player.Entry{
			Locator:  it.Locator,
			ItemID:   it.MediaID(),
			Title:    it.DisplayTitle(),
			Artist:   it.Artist,
			Duration: it.Duration,
		}
	}

	result := make(chan error, 1)
	submit := func() {
		if err := engine.SetQueue(entries, startIndex); err != nil {
			result <- err
			return
		}
		// Open failures reach the components as a faulted event.
		if err := engine.Prepare(); err != nil {
			m.logger.Debug(errmsg.Format(errmsg.OpPlaybackStart, err))
		}
		engine.Play()
		result <- nil
	}

	select {
	case m.posts <- submit:
	case <-loopCtx.Done():
		return ErrNotInitialized
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-loopCtx.Done():
		return ErrNotInitialized
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a subscription to engine transitions.
func (m *Manager) Subscribe() (*playback.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return nil, ErrNotInitialized
	}
	return m.bus.Subscribe(), nil
}

// Browser returns the browsing tree over the session's catalog, or nil
// before Initialize.
func (m *Manager) Browser() *browse.Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser
}

// Commands returns the session control surface, or nil before Initialize.
func (m *Manager) Commands() *remote.Adapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adapter
}

// NotificationState returns the presenter state. Idle before Initialize.
func (m *Manager) NotificationState() notify.State {
	m.mu.Lock()
	p := m.presenter
	m.mu.Unlock()
	if p == nil {
		return notify.StateIdle
	}
	return p.State()
}

// Done is closed when teardown has completed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Teardown releases everything the session owns. It is safe before
// Initialize, idempotent and never panics.
func (m *Manager) Teardown() {
	m.teardownOnce.Do(func() {
		defer close(m.done)

		m.mu.Lock()
		m.tornDown = true
		initialized := m.initialized
		m.initialized = false
		m.mu.Unlock()
		if !initialized {
			return
		}

		m.step("unsubscribe", m.bus.Close)
		m.step("detach notification", m.presenter.Detach)
		m.step("release session", m.adapter.Release)
		m.step("release engine", m.engine.Release)
		m.step("flush play counts", func() { m.recorder.Close(m.cfg.ShutdownGrace) })
		m.step("stop control loop", m.stopLoop)
		m.step("release inhibitor", func() {
			if err := m.inhibitor.Release(); err != nil {
				m.logger.Warn(errmsg.Format(errmsg.OpForegroundStop, err))
			}
		})
		m.step("stop notifier", func() {
			if err := m.notifier.Shutdown(); err != nil {
				m.logger.Warn(errmsg.Format(errmsg.OpNotifyClose, err))
			}
		})

		m.logger.Info("session torn down")
	})
}

// step runs one teardown step, logging a panic instead of propagating it.
func (m *Manager) step(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error(errmsg.FormatWith(errmsg.OpTeardown, name, fmt.Errorf("panic: %v", r)))
		}
	}()
	fn()
}

// stopLoop cancels background work and waits boundedly for the loop.
func (m *Manager) stopLoop() {
	m.cancel()
	timer := time.NewTimer(m.cfg.ShutdownGrace)
	defer timer.Stop()
	select {
	case <-m.loopDone:
	case <-timer.C:
		m.logger.Warn("control loop did not stop in time")
	}
}
