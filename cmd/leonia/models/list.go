package modelscmder

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/leonia/cmd/leonia/cmdutil"
	"github.com/papercomputeco/leonia/pkg/cliui"
	"github.com/papercomputeco/leonia/pkg/completion"
	"github.com/papercomputeco/leonia/pkg/config"
	"github.com/papercomputeco/leonia/pkg/modelconf"
)

const listLongDesc string = `List the model configurations in the registry.

The selected configuration (model.name) is marked with "*". When the
completion backend can report its local models, configurations whose model
is missing there are marked "(not downloaded)".

Examples:
  leonia models list
  leonia models list --offline`

const listShortDesc string = "List model configurations"

// availabilityTimeout bounds the backend model listing.
const availabilityTimeout = 5 * time.Second

var listFlags = append([]string{config.FlagModel, config.FlagCatalog}, cmdutil.CompletionFlags...)

func newListCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := cmdutil.Load(cmd, listFlags...)
			if err != nil {
				return err
			}
			return runList(cmd.Context(), cmd.OutOrStdout(), settings, offline)
		},
	}

	cmdutil.AddFlags(cmd, listFlags...)
	cmd.Flags().BoolVar(&offline, "offline", false, "Do not ask the completion backend which models it has")

	return cmd
}

func runList(ctx context.Context, w io.Writer, settings *cmdutil.Settings, offline bool) error {
	registry, err := settings.Registry()
	if err != nil {
		return err
	}

	var available []string
	checked := false
	if !offline {
		available, checked = backendModels(ctx, w, settings)
	}

	selected := settings.GetString("model.name")
	for _, name := range registry.Names() {
		conf, err := registry.Get(name)
		if err != nil {
			return err
		}

		marker := " "
		if modelconf.SameName(name, selected) {
			marker = cliui.SuccessMark
		}

		line := fmt.Sprintf("%s %s", marker, cliui.KeyStyle.Render(name))
		if conf.Requirements != "" {
			line += " " + cliui.DimStyle.Render(conf.Requirements)
		}
		if checked && !hasModel(available, conf.BackendModel()) {
			line += " " + cliui.WarnStyle.Render("(not downloaded)")
		}
		fmt.Fprintln(w, line)
	}

	return nil
}

// backendModels asks the completion backend for its local models. The second
// result is false when the backend cannot list models or the call failed.
func backendModels(ctx context.Context, w io.Writer, settings *cmdutil.Settings) ([]string, bool) {
	svc, err := settings.CompletionService()
	if err != nil {
		fmt.Fprintf(w, "  %s %v\n", cliui.FailMark, err)
		return nil, false
	}
	defer svc.Close()

	lister, ok := svc.(completion.Lister)
	if !ok {
		return nil, false
	}

	var models []string
	err = cliui.Step(w, "Checking backend models", func() error {
		ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
		defer cancel()

		var err error
		models, err = lister.Models(ctx)
		return err
	})
	if err != nil {
		fmt.Fprintf(w, "    %s\n\n",
			cliui.DimStyle.Render(fmt.Sprintf("could not list backend models: %v", err)))
		return nil, false
	}
	fmt.Fprintln(w)
	return models, true
}

// hasModel matches model against backend names, treating an untagged name as
// ":latest".
func hasModel(available []string, model string) bool {
	return slices.ContainsFunc(available, func(name string) bool {
		return strings.EqualFold(name, model) ||
			strings.EqualFold(strings.TrimSuffix(name, ":latest"), model)
	})
}
