package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/llehouerou/wavesd/internal/catalog"
	"github.com/llehouerou/wavesd/internal/errmsg"
)

func newStatsCommand(opts *options) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog size and the most played tracks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.ScanAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", errmsg.OpCatalogScan, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderStats(items, top))
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of most played tracks to list")
	return cmd
}

func renderStats(items []catalog.Item, top int) string {
	plays := lo.SumBy(items, func(it catalog.Item) int { return it.PlayCount })
	favorites := lo.CountBy(items, func(it catalog.Item) bool { return it.Favorite })
	var length time.Duration
	for i := range items {
		length += items[i].Duration
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s tracks, %s favorites, %s plays\n",
		humanize.Comma(int64(len(items))), humanize.Comma(int64(favorites)), humanize.Comma(int64(plays)))
	fmt.Fprintf(&b, "Total length %s\n", formatDuration(length))

	played := lo.Filter(items, func(it catalog.Item, _ int) bool { return it.PlayCount > 0 })
	if len(played) == 0 || top <= 0 {
		return b.String()
	}
	slices.SortStableFunc(played, func(a, b catalog.Item) int {
		return cmp.Compare(b.PlayCount, a.PlayCount)
	})
	played = played[:min(top, len(played))]

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("Most played")
	t.AppendHeader(table.Row{"", "Plays", "Title", "Artist"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	for i := range played {
		it := &played[i]
		mark := ""
		if it.Favorite {
			mark = "♥"
		}
		t.AppendRow(table.Row{mark, humanize.Comma(int64(it.PlayCount)), truncate(it.DisplayTitle(), titleWidth), it.Artist})
	}

	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}
