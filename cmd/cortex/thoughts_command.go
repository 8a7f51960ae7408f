package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cortex/internal/agent"
)

func newThoughtsCommand(ctx *commandContext) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "thoughts",
		Short: "Show recent autonomous thoughts",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}

			var resp struct {
				Thoughts []agent.Thought `json:"thoughts"`
				Count    int             `json:"count"`
			}
			path := fmt.Sprintf("/thoughts?count=%d", count)
			if err := newAPIClient(address).getJSON(cmd.Context(), path, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(resp.Thoughts) == 0 {
				fmt.Fprintln(out, "No thoughts recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(resp.Thoughts))
			for _, thought := range resp.Thoughts {
				rows = append(rows, []string{
					fmt.Sprintf("%d", thought.Cycle),
					thought.Timestamp.Local().Format(time.RFC3339),
					thought.Text,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Cycle", "Time", "Thought"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 10, "Number of thoughts to show")
	return cmd
}
