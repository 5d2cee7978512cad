//go:build linux

// Package mpris exposes the playback session to desktop controllers over
// the MPRIS D-Bus interface.
package mpris

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/wavesd/internal/artwork"
	"github.com/llehouerou/wavesd/internal/logging"
	"github.com/llehouerou/wavesd/internal/playback"
	"github.com/llehouerou/wavesd/internal/player"
	"github.com/llehouerou/wavesd/internal/remote"
)

// Commands is the control surface MPRIS calls are forwarded to.
type Commands interface {
	Play()
	Pause()
	PlayPause()
	Stop()
	SeekTo(pos time.Duration)
	Seek(offset time.Duration)
	Position() time.Duration
}

// Server publishes session metadata over MPRIS and forwards commands.
type Server struct {
	name   string
	server *server.Server
	state  *sessionState
	logger *log.Logger

	// property change signals
	onTitle  func()
	onStatus func()
}

// sessionState holds the last published metadata for D-Bus property reads.
type sessionState struct {
	mu sync.RWMutex
	md remote.Metadata
}

func (s *sessionState) get() remote.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.md
}

func (s *sessionState) set(md remote.Metadata) remote.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.md
	s.md = md
	return prev
}

// New creates and starts an MPRIS server named org.mpris.MediaPlayer2.<name>.
func New(name string, cmds Commands, logger *log.Logger) (*Server, error) {
	if cmds == nil {
		return nil, fmt.Errorf("mpris: nil commands")
	}

	s := &Server{
		name:   name,
		state:  &sessionState{},
		logger: logging.Component(logger, "mpris"),
	}

	root := &rootAdapter{identity: name}
	pl := &playerAdapter{cmds: cmds, state: s.state}

	s.server = server.NewServer(name, root, pl)
	ev := events.NewEventHandler(s.server)
	s.onTitle = func() { ev.Player.OnTitle() }
	s.onStatus = func() { ev.Player.OnPlayPause() }

	// Start the server in background
	go func() {
		if err := s.server.Listen(); err != nil {
			s.logger.Warn("mpris listen", "err", err)
		}
	}()

	return s, nil
}

// Publish stores md and signals changed properties to listeners.
func (s *Server) Publish(md remote.Metadata) {
	prev := s.state.set(md)

	if prev.ItemID != md.ItemID || prev.Title != md.Title || prev.Duration != md.Duration {
		s.onTitle()
	}
	if prev.Status() != md.Status() {
		s.onStatus()
	}
}

// Close stops the server and releases D-Bus resources.
func (s *Server) Close() error {
	return s.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct {
	identity string
}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - the session manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return r.identity, nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/wav"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	cmds  Commands
	state *sessionState
}

func (p *playerAdapter) Next() error {
	return nil // Queue navigation is not part of the session surface
}

func (p *playerAdapter) Previous() error {
	return nil
}

func (p *playerAdapter) Pause() error {
	p.cmds.Pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.cmds.PlayPause()
	return nil
}

func (p *playerAdapter) Stop() error {
	p.cmds.Stop()
	return nil
}

func (p *playerAdapter) Play() error {
	p.cmds.Play()
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	p.cmds.Seek(time.Duration(offset) * time.Microsecond)
	return nil
}

func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	// Stale requests for a previous track are ignored per MPRIS.
	if md := p.state.get(); trackID != "" && trackID != formatTrackID(md.ItemID) {
		return nil
	}
	p.cmds.SeekTo(time.Duration(position) * time.Microsecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	return playbackStatus(p.state.get().Status()), nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	return buildMetadata(p.state.get()), nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	return p.cmds.Position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.state.get().ItemID != "", nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return p.state.get().Status().IsActive(), nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.state.get().Duration > 0, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

func playbackStatus(s playback.State) types.PlaybackStatus {
	switch s {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying
	case playback.StatePaused:
		return types.PlaybackStatusPaused
	case playback.StateStopped:
		return types.PlaybackStatusStopped
	}
	return types.PlaybackStatusStopped
}

func buildMetadata(md remote.Metadata) types.Metadata {
	if md.ItemID == "" {
		return types.Metadata{}
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(md.ItemID)),
		Length:  types.Microseconds(md.Duration.Microseconds()),
		Title:   md.Title,
	}
	if md.Artist != "" {
		meta.Artist = []string{md.Artist}
	}

	if path, err := player.LocatorPath(md.Locator); err == nil && path != "" {
		if artPath := artwork.FindAlbumArt(path); artPath != "" {
			meta.ArtUrl = "file://" + artPath
		}
	}

	return meta
}

func formatTrackID(itemID string) string {
	return "/org/mpris/MediaPlayer2/Track/" + itemID
}
