package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llehouerou/wavesd/internal/browse"
)

const titleWidth = 40

func newBrowseCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [node]",
		Short: "List the children of a browse node (default: root)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node := browse.RootID
			if len(args) == 1 {
				node = args[0]
			}

			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			provider := browse.New(store, opts.logger)
			items, err := provider.ListChildren(cmd.Context(), node).Wait(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, dimStyle.Render("(empty)"))
				return nil
			}
			width := columnWidth(out, titleWidth)
			for _, d := range items {
				fmt.Fprintln(out, renderDescriptor(d, width))
			}
			return nil
		},
	}
}

func renderDescriptor(d browse.Descriptor, width int) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render(pad(d.ID, 20)))
	b.WriteString(" ")
	b.WriteString(titleStyle.Render(pad(truncate(d.Title, width), width)))
	if d.Subtitle != "" {
		b.WriteString(" ")
		b.WriteString(artistStyle.Render(d.Subtitle))
	}
	return strings.TrimRight(b.String(), " ")
}
