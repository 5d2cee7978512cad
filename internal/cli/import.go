package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/wavesd/internal/errmsg"
	"github.com/llehouerou/wavesd/internal/scanner"
)

func newImportCommand(opts *options) *cobra.Command {
	var (
		workers int
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "import DIR...",
		Short: "Add the music files under DIR to the catalog",
		Long: `Add the music files under DIR to the catalog.

With --watch, the command keeps running and imports again whenever music
files under DIR change.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			sopts := scanner.Options{
				Workers: workers,
				Logger:  opts.logger,
			}
			stats, err := scanner.Import(cmd.Context(), store, args, sopts)
			if err != nil {
				return fmt.Errorf("%s: %w", errmsg.OpCatalogPopulate, err)
			}
			printImport(out, stats)
			if !watch {
				return nil
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			fmt.Fprintln(out, dimStyle.Render("Watching for changes, press Ctrl+C to stop."))
			return scanner.Watch(ctx, store, args, scanner.DefaultDebounce, sopts, func(s scanner.Stats, err error) {
				if err == nil {
					printImport(out, s)
				}
			})
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel file readers (default 8)")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep importing when files change")
	return cmd
}

func printImport(out io.Writer, stats scanner.Stats) {
	fmt.Fprintf(out, "Imported %s tracks (%s skipped)\n",
		humanize.Comma(int64(stats.Imported)), humanize.Comma(int64(stats.Skipped)))
}
