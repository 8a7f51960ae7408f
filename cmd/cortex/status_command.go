package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cortex/internal/status"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}

			var snap status.Snapshot
			if err := newAPIClient(address).getJSON(cmd.Context(), "/status", &snap); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			rows := [][]string{
				{"Name", snap.Name},
				{"State", renderState(snap.State, colorize)},
				{"Uptime", formatUptime(snap.UptimeSeconds)},
				{"Cycles", fmt.Sprintf("%d", snap.Cycles)},
				{"Activity", fmt.Sprintf("%.3f", snap.ActivityScore)},
			}
			if snap.LastThought != "" {
				rows = append(rows, []string{"Last thought", snap.LastThought})
			}
			if snap.LastAction.Kind != "" {
				rows = append(rows, []string{"Last action", snap.LastAction.Kind})
			}
			for name, alive := range snap.Components {
				state := "stopped"
				if alive {
					state = "running"
				}
				rows = append(rows, []string{"Component " + name, state})
			}

			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}

func renderState(state status.State, colorize bool) string {
	if !colorize {
		return string(state)
	}
	switch state {
	case status.StateRunning:
		return ansiGreen + string(state) + ansiReset
	case status.StateShuttingDown:
		return ansiYellow + string(state) + ansiReset
	case status.StateStopped:
		return ansiRed + string(state) + ansiReset
	default:
		return string(state)
	}
}

func formatUptime(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	return d.Truncate(time.Second).String()
}
