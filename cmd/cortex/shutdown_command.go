package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShutdownCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Ask the daemon to shut down gracefully",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}

			var resp struct {
				Status string `json:"status"`
			}
			if err := newAPIClient(address).postJSON(cmd.Context(), "/shutdown", nil, &resp); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Shutdown requested")
			return nil
		},
	}
}
