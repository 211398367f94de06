package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save running configs",
		Long: `Fetch each device's running configuration and write it to a file named
after the device in the config directory. Devices without a config command
are skipped.

  topolab save -t topology.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLab()
			if err != nil {
				return err
			}

			if err := l.Save(); err != nil {
				return fmt.Errorf("topology %s: not all configs saved: %w", l.Config.Prefix, err)
			}
			fmt.Printf("%s Configs saved to %s\n", green("✓"), l.Config.ConfigDir)
			return nil
		},
	}
}

func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Pack saved configs into a tarball",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLab()
			if err != nil {
				return err
			}

			out, err := l.Archive()
			if err != nil {
				return err
			}
			fmt.Printf("%s Archived to %s\n", green("✓"), out)
			return nil
		},
	}
}
