// Package transcriptcmder provides the transcript command for browsing chat
// sessions recorded in the transcript store.
package transcriptcmder

import (
	"github.com/spf13/cobra"
)

const transcriptLongDesc string = `Browse recorded chat sessions.

Every committed turn of "leonia chat" is stored as a node in a
content-addressed conversation DAG. Use these subcommands to list sessions
and read them back.

Examples:
  leonia transcript list
  leonia transcript show
  leonia transcript show 5f0c7e1a-...`

const transcriptShortDesc string = "Browse recorded chat sessions"

func NewTranscriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: transcriptShortDesc,
		Long:  transcriptLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())

	return cmd
}
