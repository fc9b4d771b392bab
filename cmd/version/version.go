// Package versioncmder
package versioncmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/leonia/pkg/cliui"
	"github.com/papercomputeco/leonia/pkg/modelconf"
	"github.com/papercomputeco/leonia/pkg/utils"
)

type VersionCommander struct {
	short bool
}

func NewVersionCmd() *cobra.Command {
	cmder := &VersionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version of this CLI and the number of built-in model configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&cmder.short, "short", false, "Print only the version")

	return cmd
}

func (c *VersionCommander) run(w io.Writer) error {
	if c.short {
		fmt.Fprintln(w, utils.Version)
		return nil
	}

	fmt.Fprintf(w, "%s %s\n", cliui.KeyStyle.Render("Version:"), utils.Version)
	fmt.Fprintf(w, "%s %s\n", cliui.KeyStyle.Render("Sha:"), utils.Sha)
	fmt.Fprintf(w, "%s %s\n", cliui.KeyStyle.Render("Built at:"), utils.Buildtime)
	fmt.Fprintf(w, "%s %d\n", cliui.KeyStyle.Render("Models:"), len(modelconf.NewBuiltinRegistry().Names()))
	return nil
}
