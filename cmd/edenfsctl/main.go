package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/edenfs-io/edenfs/pkg/eden"
)

func rootMain(command *cobra.Command, arguments []string) {
	if rootConfiguration.version {
		println(eden.Version)
		return
	}
	command.Help()
}

var rootCommand = &cobra.Command{
	Use:   "edenfsctl",
	Short: "edenfsctl inspects and manipulates an EdenFS-style checkout's on-disk object-graph state.",
	Run:   rootMain,
}

var rootConfiguration struct {
	help    bool
	version bool
}

func init() {
	flags := rootCommand.Flags()
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.BoolVarP(&rootConfiguration.version, "version", "V", false, "Show version information")

	cobra.EnableCommandSorting = false
	cobra.MousetrapHelpText = ""

	rootCommand.AddCommand(
		snapshotCommand,
		configCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
