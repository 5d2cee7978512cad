// Package cli implements the wavesd command line.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/llehouerou/wavesd/internal/catalog"
	"github.com/llehouerou/wavesd/internal/config"
	"github.com/llehouerou/wavesd/internal/errmsg"
	"github.com/llehouerou/wavesd/internal/logging"
)

// Version information (set via ldflags during build)
var version = "dev"

// options are the flags shared by every command.
type options struct {
	dbPath   string
	logLevel string

	cfg    *config.Config
	logger *log.Logger
	logOut io.Writer
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "wavesd",
		Short: "Background music playback session",
		Long: `wavesd plays music from a local catalog in the background.

It keeps a desktop notification and an MPRIS media session in sync with
playback, and counts plays per track.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "catalog database path (default: XDG data dir)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newPlayCommand(opts),
		newBrowseCommand(opts),
		newImportCommand(opts),
		newStatsCommand(opts),
		newFavoriteCommand(opts),
		newLastfmCommand(opts),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		return 1
	}
	return 0
}

func (o *options) load(logOut io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if o.dbPath != "" {
		cfg.Database = o.dbPath
	}
	if o.logOut == nil {
		o.logOut = logOut
	}
	o.cfg = cfg
	o.logger = logging.New(o.logOut, o.level())
	return nil
}

// level returns the flag level, falling back to the configured one.
func (o *options) level() string {
	if o.logLevel != "" {
		return o.logLevel
	}
	return o.cfg.Log.Level
}

// openStore opens the configured catalog.
func (o *options) openStore() (*catalog.SQLite, error) {
	path, err := o.cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	store, err := catalog.Open(path)
	if err != nil {
		o.logger.Error(errmsg.FormatWith(errmsg.OpCatalogOpen, path, err))
		return nil, err
	}
	return store, nil
}

// Main is the process entry point.
func Main() {
	os.Exit(Execute())
}
