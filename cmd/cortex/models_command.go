package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Show currently loaded models",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}

			var resp struct {
				Models []string `json:"models"`
				Count  int      `json:"count"`
			}
			if err := newAPIClient(address).getJSON(cmd.Context(), "/models", &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(resp.Models) == 0 {
				fmt.Fprintln(out, "No models loaded")
				return nil
			}
			for _, name := range resp.Models {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}
