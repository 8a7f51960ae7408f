package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newInteractCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "interact <message>",
		Short: "Send a message to the reasoning loop",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return errors.New("message is required")
			}

			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}

			var resp struct {
				Status   string `json:"status"`
				ActionID string `json:"action_id"`
			}
			body := map[string]string{"message": message}
			if err := newAPIClient(address).postJSON(cmd.Context(), "/interact", body, &resp); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Queued interaction %s\n", resp.ActionID)
			return nil
		},
	}
}
