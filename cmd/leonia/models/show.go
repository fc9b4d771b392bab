package modelscmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/leonia/cmd/leonia/cmdutil"
	"github.com/papercomputeco/leonia/pkg/cliui"
	"github.com/papercomputeco/leonia/pkg/config"
)

const showLongDesc string = `Show the parameters of a model configuration.

Without a name, shows the selected configuration (model.name).

Examples:
  leonia models show
  leonia models show oasst_sft_7_stablelm_7b_epoch_3`

const showShortDesc string = "Show a model configuration"

var showFlags = []string{config.FlagModel, config.FlagCatalog}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cmdutil.Load(cmd, showFlags...)
			if err != nil {
				return err
			}

			name := settings.GetString("model.name")
			if len(args) == 1 {
				name = args[0]
			}
			return runShow(cmd.OutOrStdout(), settings, name)
		},
	}

	cmdutil.AddFlags(cmd, showFlags...)

	return cmd
}

func runShow(w io.Writer, settings *cmdutil.Settings, name string) error {
	registry, err := settings.Registry()
	if err != nil {
		return err
	}

	conf, err := registry.Get(name)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n  %s\n\n", cliui.KeyStyle.Render(conf.Name))
	for line := range strings.Lines(conf.Describe()) {
		key, value, _ := strings.Cut(strings.TrimRight(line, "\n"), ": ")
		fmt.Fprintf(w, "  %s %s\n", cliui.DimStyle.Render(key+":"), cliui.ValueStyle.Render(value))
	}
	fmt.Fprintln(w)

	return nil
}
