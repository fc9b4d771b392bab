package transcriptcmder

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/leonia/cmd/leonia/cmdutil"
	"github.com/papercomputeco/leonia/pkg/cliui"
	"github.com/papercomputeco/leonia/pkg/storage"
)

const listLongDesc string = `List recorded chat sessions, most recent first.

A footer counts stored conversations and their branch tips. A tip is a turn
nothing has followed yet; resuming from an earlier turn adds one. With
--tips, every tip is listed with the number of turns leading to it.

Examples:
  leonia transcript list
  leonia transcript list --tips`

const listShortDesc string = "List recorded chat sessions, most recent first"

func newListCmd() *cobra.Command {
	var tips bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := cmdutil.Load(cmd, cmdutil.StorageFlags...)
			if err != nil {
				return err
			}
			return runList(cmd.Context(), cmd.OutOrStdout(), settings, tips)
		},
	}

	cmdutil.AddFlags(cmd, cmdutil.StorageFlags...)
	cmd.Flags().BoolVar(&tips, "tips", false, "List every branch tip with its turn count")

	return cmd
}

func runList(ctx context.Context, w io.Writer, settings *cmdutil.Settings, tips bool) error {
	driver, err := settings.OpenStorage(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	sessions, err := storage.Sessions(ctx, driver)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render("No recorded sessions."))
		return nil
	}

	for _, s := range sessions {
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			cliui.KeyStyle.Render(s.ID),
			cliui.ValueStyle.Render(s.Configuration),
			cliui.DimStyle.Render(fmt.Sprintf("%d turns", s.Turns)),
			cliui.DimStyle.Render(s.UpdatedAt.Local().Format(time.DateTime)),
		)
	}

	return listTips(ctx, w, driver, tips)
}

// listTips prints the conversation and branch tip counts, and with verbose
// one line per tip.
func listTips(ctx context.Context, w io.Writer, driver storage.Driver, verbose bool) error {
	roots, err := driver.Roots(ctx)
	if err != nil {
		return fmt.Errorf("listing conversation roots: %w", err)
	}
	leaves, err := driver.Leaves(ctx)
	if err != nil {
		return fmt.Errorf("listing branch tips: %w", err)
	}

	fmt.Fprintf(w, "\n  %s\n", cliui.DimStyle.Render(
		fmt.Sprintf("%d conversations, %d branch tips", len(roots), len(leaves))))

	if !verbose {
		return nil
	}

	for _, leaf := range leaves {
		depth, err := driver.Depth(ctx, leaf.Hash)
		if err != nil {
			return fmt.Errorf("measuring %s: %w", leaf.Hash, err)
		}
		fmt.Fprintf(w, "  %s  %s  %s  %s\n",
			cliui.KeyStyle.Render(shortHash(leaf.Hash)),
			cliui.ValueStyle.Render(leaf.Bucket.Session),
			cliui.DimStyle.Render(fmt.Sprintf("%d turns", depth+1)),
			cliui.DimStyle.Render(leaf.CreatedAt.Local().Format(time.DateTime)),
		)
	}

	return nil
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
