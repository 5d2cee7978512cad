package notify

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/wavesd/internal/catalog"
	"github.com/llehouerou/wavesd/internal/errmsg"
	"github.com/llehouerou/wavesd/internal/logging"
	"github.com/llehouerou/wavesd/internal/playback"
	"github.com/llehouerou/wavesd/internal/player"
)

// Content shown when the item cannot be resolved or playback failed.
const (
	FallbackTitle   = "Playing"
	StoppedTitle    = "Playback stopped"
	PlaceholderIcon = "audio-x-generic"
)

// PlaybackChannel is the default channel for the playback notification.
var PlaybackChannel = Channel{
	ID:         "music_playback_channel",
	Name:       "Music playback",
	Importance: UrgencyLow,
}

// State is the presenter's foreground state.
type State int

const (
	StateIdle State = iota
	StateForeground
	StateBackground
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateForeground:
		return "foreground"
	case StateBackground:
		return "background"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Host is the process the notification keeps alive.
type Host interface {
	// StartForeground promotes the host while playback is ongoing.
	StartForeground() error
	// StopForeground demotes the host. remove also drops the notification.
	StopForeground(remove bool)
	// StopSelf asks the host to shut the session down.
	StopSelf()
}

// Resolver looks up the catalog item behind an engine media ID.
type Resolver func(ctx context.Context, mediaID string) (*catalog.Item, error)

// ArtworkLoader produces an icon path for a track file.
type ArtworkLoader interface {
	Load(ctx context.Context, path string) (string, error)
}

// Descriptor is the rendered content of the playback notification.
type Descriptor struct {
	ItemID   string
	Title    string
	Subtitle string
	Icon     string
	Target   string
	Ongoing  bool
}

// PresenterConfig wires a Presenter. Notifier, Host and Resolve are required.
type PresenterConfig struct {
	Notifier Notifier
	Host     Host
	Resolve  Resolver
	Artwork  ArtworkLoader // optional
	Channel  Channel       // defaults to PlaybackChannel
	Target   string        // tap target, defaults to "wavesd"
	Logger   *log.Logger
}

// Presenter keeps one live notification in sync with engine transitions
// and drives the host's foreground state.
type Presenter struct {
	notifier Notifier
	host     Host
	resolve  Resolver
	artwork  ArtworkLoader
	channel  Channel
	target   string
	logger   *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State
	id       uint32
	desc     Descriptor
	posted   bool
	detached bool

	itemID string
	item   *catalog.Item
	art    map[string]string // itemID -> icon, "" when none was found
	loads  map[string]bool
}

// NewPresenter creates a presenter in the Idle state.
func NewPresenter(cfg PresenterConfig) *Presenter {
	ch := cfg.Channel
	if ch.ID == "" {
		ch = PlaybackChannel
	}
	target := cfg.Target
	if target == "" {
		target = "wavesd"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Presenter{
		notifier: cfg.Notifier,
		host:     cfg.Host,
		resolve:  cfg.Resolve,
		artwork:  cfg.Artwork,
		channel:  ch,
		target:   target,
		logger:   logging.Component(cfg.Logger, "notify"),
		ctx:      ctx,
		cancel:   cancel,
		art:      make(map[string]string),
		loads:    make(map[string]bool),
	}
}

// RegisterChannel declares the playback channel with the notifier.
func (p *Presenter) RegisterChannel() error {
	return p.notifier.RegisterChannel(p.channel)
}

// State returns the current foreground state.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Descriptor returns the last posted content.
func (p *Presenter) Descriptor() Descriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.desc
}

// HandleTransition recomputes the notification for an engine transition.
func (p *Presenter) HandleTransition(t playback.Transition) {
	ev := t.Current

	var item *catalog.Item
	if ev.CurrentItemID != "" {
		item = p.lookup(ev.CurrentItemID, t.Started())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.detached || p.state == StateCancelled {
		return
	}

	// Nothing is shown before playback first starts or fails.
	if p.state == StateIdle && !ev.IsPlaying && !t.Faulted() {
		return
	}

	var desc Descriptor
	switch {
	case t.Faulted():
		desc = p.describe(ev.CurrentItemID, item, false)
		desc.Subtitle = ""
		if item != nil {
			desc.Subtitle = item.DisplayTitle()
		}
		desc.Title = StoppedTitle
	case ev.CurrentItemID != "":
		desc = p.describe(ev.CurrentItemID, item, ev.IsPlaying)
	default:
		// Nothing selected anymore: keep the last content, no longer ongoing.
		desc = p.desc
		desc.Ongoing = false
	}

	p.renderLocked(desc)
	p.moveLocked(desc.Ongoing)

	if item != nil && !t.Faulted() {
		p.loadArtworkLocked(ev.CurrentItemID, item)
	}
}

// lookup resolves an item once per item change. A failed resolution yields
// nil and is retried when the item changes or playback starts again.
func (p *Presenter) lookup(mediaID string, started bool) *catalog.Item {
	p.mu.Lock()
	if p.itemID == mediaID && (p.item != nil || !started) {
		item := p.item
		p.mu.Unlock()
		return item
	}
	p.mu.Unlock()

	item, err := p.resolve(p.ctx, mediaID)
	if err != nil {
		p.logger.Debug(errmsg.FormatWith(errmsg.OpItemResolve, mediaID, err))
		item = nil
	}

	p.mu.Lock()
	p.itemID = mediaID
	p.item = item
	p.mu.Unlock()
	return item
}

func (p *Presenter) describe(itemID string, item *catalog.Item, ongoing bool) Descriptor {
	desc := Descriptor{
		ItemID:  itemID,
		Title:   FallbackTitle,
		Icon:    PlaceholderIcon,
		Target:  p.target,
		Ongoing: ongoing,
	}
	if item != nil {
		desc.Title = item.DisplayTitle()
		desc.Subtitle = item.Artist
	}
	if icon := p.art[itemID]; icon != "" {
		desc.Icon = icon
	}
	return desc
}

// moveLocked applies the foreground state machine.
func (p *Presenter) moveLocked(ongoing bool) {
	switch p.state {
	case StateIdle, StateBackground:
		if ongoing {
			if err := p.host.StartForeground(); err != nil {
				p.logger.Warn(errmsg.Format(errmsg.OpForegroundStart, err))
			}
			p.state = StateForeground
		} else {
			p.state = StateBackground
		}
	case StateForeground:
		if !ongoing {
			p.host.StopForeground(false)
			p.state = StateBackground
		}
	case StateCancelled:
	}
}

// renderLocked posts desc, replacing the live notification. Identical
// content is not reposted.
func (p *Presenter) renderLocked(desc Descriptor) {
	if p.posted && desc == p.desc {
		return
	}

	timeout := int32(-1)
	if desc.Ongoing {
		timeout = 0
	}
	id, err := p.notifier.Notify(Notification{
		Title:         desc.Title,
		Body:          desc.Subtitle,
		Icon:          desc.Icon,
		Timeout:       timeout,
		ReplacesID:    p.id,
		Urgency:       p.channel.Importance,
		Resident:      desc.Ongoing,
		ChannelID:     p.channel.ID,
		DefaultAction: desc.Target,
	})
	if err != nil {
		p.logger.Warn(errmsg.Format(errmsg.OpNotify, err))
		return
	}
	if id != 0 {
		p.id = id
	}
	p.desc = desc
	p.posted = true
}

// loadArtworkLocked starts at most one artwork load per item. When it
// resolves for the item still shown, the notification is rebuilt once.
func (p *Presenter) loadArtworkLocked(itemID string, item *catalog.Item) {
	if p.artwork == nil || p.loads[itemID] {
		return
	}
	if _, done := p.art[itemID]; done {
		return
	}
	path, err := player.LocatorPath(item.Locator)
	if err != nil {
		p.art[itemID] = ""
		return
	}
	p.loads[itemID] = true

	go func() {
		icon, err := p.artwork.Load(p.ctx, path)
		if err != nil {
			p.logger.Debug(errmsg.FormatWith(errmsg.OpArtworkLoad, path, err))
			icon = ""
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.loads, itemID)
		p.art[itemID] = icon
		if icon == "" || p.detached || p.state == StateCancelled || p.desc.ItemID != itemID {
			return
		}
		desc := p.desc
		desc.Icon = icon
		p.renderLocked(desc)
	}()
}

// LeaveForeground demotes the host without removing the notification.
func (p *Presenter) LeaveForeground() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateForeground {
		return
	}
	p.host.StopForeground(false)
	p.state = StateBackground
}

// Run watches for user dismissal until ctx is done. Dismissing the live
// notification cancels the presenter and stops the host.
func (p *Presenter) Run(ctx context.Context) {
	dismissed := p.notifier.Dismissed()
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-dismissed:
			if !ok {
				return
			}
			if p.dismiss(id) {
				p.host.StopSelf()
				return
			}
		}
	}
}

func (p *Presenter) dismiss(id uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.posted || id != p.id || p.state == StateCancelled || p.detached {
		return false
	}
	p.logger.Info("notification dismissed")
	if p.state == StateForeground {
		p.host.StopForeground(true)
	}
	p.state = StateCancelled
	p.cancel()
	return true
}

// Detach closes the notification, leaves the foreground and ignores later
// transitions. Safe to call more than once.
func (p *Presenter) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.detached {
		return
	}
	p.detached = true
	p.cancel()

	if p.state == StateForeground {
		p.host.StopForeground(true)
		p.state = StateBackground
	}
	if p.posted && p.state != StateCancelled {
		if err := p.notifier.Close(p.id); err != nil {
			p.logger.Warn(errmsg.Format(errmsg.OpNotifyClose, err))
		}
	}
}
