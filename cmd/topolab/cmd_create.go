package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Bring the topology up",
		Long: `Create (or reuse) every device and link in the descriptor and start
the whole graph. Re-running create on a live topology is a no-op: existing
containers are reported as already running.

  topolab create -t topology.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLab()
			if err != nil {
				return err
			}

			fmt.Printf("Creating topology %s...\n", l.Config.Prefix)
			if err := l.Create(); err != nil {
				return fmt.Errorf("topology %s partially created: %w", l.Config.Prefix, err)
			}
			fmt.Printf("%s Topology %s up (%d devices, %d links)\n",
				green("✓"), l.Config.Prefix, len(l.Devices), len(l.Links))
			return nil
		},
	}
}
