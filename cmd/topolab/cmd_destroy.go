package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDestroyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Tear the topology down",
		Long: `Kill every device, prune the topology's labeled runtime objects, and
revert host-side networking changes. Safe when nothing is running and safe
to call twice.

  topolab destroy -t topology.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLab()
			if err != nil {
				return err
			}

			fmt.Printf("Destroying topology %s...\n", l.Config.Prefix)
			if err := l.Destroy(); err != nil {
				return fmt.Errorf("topology %s partially destroyed: %w", l.Config.Prefix, err)
			}
			fmt.Printf("%s Topology %s destroyed\n", green("✓"), l.Config.Prefix)
			return nil
		},
	}
}
