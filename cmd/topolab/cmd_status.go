package main

import (
	"github.com/spf13/cobra"

	"github.com/topolab-net/topolab/pkg/cli"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show live device state",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLab()
			if err != nil {
				return err
			}

			table := cli.NewTable("DEVICE", "KIND", "WIRING", "STATE")
			for _, row := range l.Status() {
				state := row.State
				switch state {
				case "running":
					state = green(state)
				case "paused":
					state = yellow(state)
				case "unknown":
					state = red(state)
				}
				table.Row(row.Name, string(row.Kind), row.Mode.String(), state)
			}
			table.Flush()
			return nil
		},
	}
}
