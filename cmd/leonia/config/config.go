// Package configcmder provides the config command for managing persistent
// leonia configuration stored in the .leonia/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/leonia/pkg/cliui"
	"github.com/papercomputeco/leonia/pkg/config"
)

const configLongDesc string = `Manage persistent leonia configuration.

Configuration is stored as config.toml in the .leonia/ directory and provides
default values for command flags. LEONIA_* environment variables override the
file, and CLI flags always take precedence over both.

Keys use dotted notation matching the TOML section structure:
  model.name, model.catalog,
  completion.provider, completion.target, completion.api_key,
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  events.provider, events.brokers, events.topic,
  chat.bot_name, chat.log_file

Use subcommands to get, set, or list configuration values:
  leonia config set <key> <value>    Set a configuration value
  leonia config get <key>            Get a configuration value
  leonia config list                 List all configuration values

Examples:
  leonia config set model.name PYTHIA_3B_DEDUPED_SFT_R1
  leonia config set events.brokers kafka-1:9092,kafka-2:9092
  leonia config get completion.target
  leonia config list`

const configShortDesc string = "Manage persistent leonia configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// validKeysCompletion completes the first argument with config keys.
func validKeysCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// printTarget reports which config file a command reads or writes.
func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}
