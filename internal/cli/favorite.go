package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llehouerou/wavesd/internal/catalog"
	"github.com/llehouerou/wavesd/internal/errmsg"
)

func newFavoriteCommand(opts *options) *cobra.Command {
	var off bool

	cmd := &cobra.Command{
		Use:   "favorite ID",
		Short: "Mark a track as favorite (--off to unmark)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := catalog.ParseID(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", catalog.ErrInvalidMediaID, args[0])
			}

			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SetFavorite(cmd.Context(), id, !off); err != nil {
				return fmt.Errorf("%s %s: %w", errmsg.OpFavoriteToggle, args[0], err)
			}
			item, err := store.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			state := "favorite"
			if off {
				state = "not favorite"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", item.DisplayTitle(), state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "remove the favorite mark")
	return cmd
}
