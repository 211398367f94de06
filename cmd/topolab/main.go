// Topolab — container network-emulation topologies on a single host
//
// topolab reads a declarative topology descriptor (devices and the links
// between their interfaces), materializes each device as a Docker
// container and each link as either a managed network or a hand-wired
// kernel veth pair, and brings the whole graph up or down as a unit.
//
// Usage:
//
//	topolab create -t <topology.yml>     Bring the topology up
//	topolab destroy -t <topology.yml>    Tear the topology down
//	topolab save -t <topology.yml>       Save running configs
//	topolab archive -t <topology.yml>    Pack saved configs into a tarball
//	topolab status -t <topology.yml>     Show live device state
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/topolab-net/topolab/pkg/util"
	"github.com/topolab-net/topolab/pkg/version"
)

var (
	topoFile string
	verbose  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "topolab",
	Short:             "Container network-emulation topologies on a single host",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Topolab materializes a YAML topology of devices and links as Docker
containers wired together by managed networks or kernel veth pairs.

  topolab create -t topology.yml`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("info")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&topoFile, "topology", "t", "", "topology descriptor file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newCreateCmd(),
		newDestroyCmd(),
		newSaveCmd(),
		newArchiveCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("topolab", version.Info())
		},
	}
}
