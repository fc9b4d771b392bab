// Package leoniacmder
package leoniacmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/leonia/cmd/leonia/chat"
	configcmder "github.com/papercomputeco/leonia/cmd/leonia/config"
	initcmder "github.com/papercomputeco/leonia/cmd/leonia/init"
	modelscmder "github.com/papercomputeco/leonia/cmd/leonia/models"
	transcriptcmder "github.com/papercomputeco/leonia/cmd/leonia/transcript"
	versioncmder "github.com/papercomputeco/leonia/cmd/version"
)

const leoniaLongDesc string = `Leonia is a terminal chat client for instruction-tuned text completion models.

Replies are generated a few tokens at a time and cut at the next turn
marker, so the conversation stays on your terms. Every turn is recorded
in a content-addressed transcript store.

Get started:
  leonia init              Create a local .leonia/ directory
  leonia models list       See the available model configurations
  leonia chat              Start chatting
  leonia chat --resume     Continue the last conversation`

const leoniaShortDesc string = "Leonia - chat with completion models"

func NewLeoniaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "leonia",
		Short:        leoniaShortDesc,
		Long:         leoniaLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .leonia/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(transcriptcmder.NewTranscriptCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
