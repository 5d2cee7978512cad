package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/llehouerou/wavesd/internal/artwork"
	"github.com/llehouerou/wavesd/internal/catalog"
	"github.com/llehouerou/wavesd/internal/errmsg"
	"github.com/llehouerou/wavesd/internal/inhibit"
	"github.com/llehouerou/wavesd/internal/lastfm"
	"github.com/llehouerou/wavesd/internal/logging"
	"github.com/llehouerou/wavesd/internal/mpris"
	"github.com/llehouerou/wavesd/internal/notify"
	"github.com/llehouerou/wavesd/internal/playback"
	"github.com/llehouerou/wavesd/internal/playcount"
	"github.com/llehouerou/wavesd/internal/player"
	"github.com/llehouerou/wavesd/internal/remote"
	"github.com/llehouerou/wavesd/internal/session"
	"github.com/llehouerou/wavesd/internal/stderr"
)

const appName = "wavesd"

// ErrEmptyCatalog is returned by play when there is nothing to queue.
var ErrEmptyCatalog = errors.New("catalog is empty, run 'wavesd import DIR' first")

func newPlayCommand(opts *options) *cobra.Command {
	var (
		start     int
		favorites bool
		volume    float64
	)

	cmd := &cobra.Command{
		Use:   "play [ID...]",
		Short: "Play tracks (default: the whole catalog) until stopped",
		Long: `Play the given catalog items, or the whole catalog ordered by title.

The session runs until the queue ends, the notification is dismissed,
or the process receives SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.logOut == os.Stderr {
				if orig, err := stderr.Start(); err == nil {
					defer stderr.Stop()
					opts.logger = logging.New(orig, opts.level())
					stderr.Forward(opts.logger)
				}
			}

			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			items, err := selectItems(ctx, store, args, favorites)
			if err != nil {
				return err
			}

			sc := opts.sessionConfig(store)
			if !cmd.Flags().Changed("volume") {
				volume = opts.cfg.GetSessionConfig().Volume
			}
			sc.NewEngine = func() (player.Interface, error) {
				p := player.New()
				p.SetVolume(volume)
				return p, nil
			}

			m := session.New(sc)
			if err := m.Initialize(ctx); err != nil {
				return err
			}
			defer m.Teardown()

			sub, err := m.Subscribe()
			if err != nil {
				return err
			}
			if err := m.SubmitQueue(ctx, items, start); err != nil {
				return err
			}
			opts.logger.Info("playing", "tracks", len(items), "session", m.ID())

			return watch(ctx, cmd.OutOrStdout(), m, sub)
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "queue index to start from")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "queue favorites only")
	cmd.Flags().Float64Var(&volume, "volume", 1, "output volume from 0 to 1 (default: session.volume)")
	return cmd
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// selectItems resolves ids, or the whole catalog when none are given.
func selectItems(ctx context.Context, store catalog.Store, ids []string, favorites bool) ([]catalog.Item, error) {
	var items []catalog.Item
	if len(ids) == 0 {
		all, err := store.ScanAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errmsg.OpCatalogScan, err)
		}
		items = all
	} else {
		for _, id := range ids {
			n, ok := catalog.ParseID(id)
			if !ok {
				return nil, &catalog.ItemResolutionError{MediaID: id, Err: catalog.ErrInvalidMediaID}
			}
			item, err := store.GetByID(ctx, n)
			if err != nil {
				return nil, &catalog.ItemResolutionError{MediaID: id, Err: err}
			}
			items = append(items, *item)
		}
	}

	if favorites {
		items = lo.Filter(items, func(it catalog.Item, _ int) bool { return it.Favorite })
	}
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}
	return items, nil
}

// sessionConfig wires the production components from the configuration.
func (o *options) sessionConfig(store catalog.Store) session.Config {
	cfg := o.cfg
	scfg := cfg.GetSessionConfig()
	ncfg := cfg.GetNotificationConfig()

	sc := session.Config{
		Store: store,
		Channel: notify.Channel{
			ID:         ncfg.ChannelID,
			Name:       ncfg.ChannelName,
			Importance: notify.UrgencyLow,
		},
		ResolveTimeout: scfg.ResolveTimeout,
		ShutdownGrace:  scfg.ShutdownGrace,
		Logger:         o.logger,
	}

	sc.Notifier = notify.NewStub()
	if cfg.NotificationsEnabled() {
		n, err := notify.New(appName)
		if err != nil {
			o.logger.Warn(errmsg.Format(errmsg.OpNotify, err))
		} else {
			sc.Notifier = n
		}
	}
	if cfg.ArtworkEnabled() {
		sc.Artwork = artwork.NewLoader(cfg.ArtworkCacheDir(), ncfg.ArtworkSize)
	}
	if cfg.InhibitEnabled() {
		sc.Inhibitor = inhibit.New(appName)
	}
	if cfg.MPRISEnabled() {
		name, logger := cfg.MPRISName(), o.logger
		sc.NewPublisher = func(cmds *remote.Adapter) (remote.Publisher, error) {
			s, err := mpris.New(name, cmds, logger)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	if cfg.HasLastfmConfig() {
		client := lastfm.NewClient(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret, cfg.Lastfm.SessionKey)
		fwd := lastfm.NewForwarder(client, store, o.logger)
		sc.OnCredit = []playcount.Hook{fwd.Credit}
	}
	return sc
}

// watch prints a status line per transition until the queue completes, the
// session ends or ctx is done.
func watch(ctx context.Context, out io.Writer, m *session.Manager, sub *playback.Subscription) error {
	cmds := m.Commands()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.Done():
			return nil
		case <-sub.Done:
			return nil
		case ev := <-sub.Error:
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%s %s: %v", ev.Operation, ev.ItemID, ev.Err)))
		case t := <-sub.Transitions:
			if t.Current.Completed {
				fmt.Fprintln(out, dimStyle.Render("queue finished"))
				return nil
			}
			if t.StateChanged() || t.ItemChanged() {
				fmt.Fprintln(out, statusLine(cmds.Metadata()))
			}
		}
	}
}

func statusLine(md remote.Metadata) string {
	icon := "■"
	switch md.Status() {
	case playback.StatePlaying:
		icon = "▶"
	case playback.StatePaused:
		icon = "⏸"
	case playback.StateStopped:
	}
	title := md.Title
	if title == "" {
		title = notify.FallbackTitle
	}
	line := icon + " " + titleStyle.Render(title)
	if md.Artist != "" {
		line += " " + artistStyle.Render(md.Artist)
	}
	if md.Duration > 0 {
		line += " " + dimStyle.Render(formatDuration(md.Duration))
	}
	return line
}
