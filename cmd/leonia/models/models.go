// Package modelscmder provides the models command for inspecting the model
// configuration registry.
package modelscmder

import (
	"github.com/spf13/cobra"
)

const modelsLongDesc string = `Inspect the model configurations leonia can chat with.

The registry is the built-in catalog merged with the TOML catalog named by
--catalog (or model.catalog in config.toml).

Examples:
  leonia models list
  leonia models show PYTHIA_3B_DEDUPED_SFT_R1`

const modelsShortDesc string = "Inspect model configurations"

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())

	return cmd
}
