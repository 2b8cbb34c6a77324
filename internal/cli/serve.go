package cli

import (
	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/syllabus-pulse/internal/server"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with background sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()
			return server.Run(cmd.Context(), a)
		},
	}
}
