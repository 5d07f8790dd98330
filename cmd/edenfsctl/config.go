package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	edencmd "github.com/edenfs-io/edenfs/cmd"
	"github.com/edenfs-io/edenfs/pkg/config"
)

func configShowMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("expected exactly one repository config file path")
	}

	cfg, err := config.LoadRepositoryConfig(arguments[0])
	if err != nil {
		return errors.Wrap(err, "unable to load repository config")
	}

	fmt.Printf("path:                  %s\n", cfg.Path)
	fmt.Printf("type:                  %s\n", cfg.Type)
	fmt.Printf("case-sensitive:        %t\n", cfg.CaseSensitive)
	fmt.Printf("protocol:              %s\n", cfg.Protocol)
	fmt.Printf("require-utf8-path:     %t\n", cfg.RequireUTF8Path)
	fmt.Printf("enable-tree-overlay:   %t\n", cfg.EnableTreeOverlay)
	fmt.Printf("use-write-back-cache:  %t\n", cfg.UseWriteBackCache)
	fmt.Printf("guid:                  %s\n", cfg.GUID)
	return nil
}

func configClientMapMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("expected exactly one client directory map file path")
	}

	result, err := config.ParseClientDirectoryMap(arguments[0])
	if err != nil {
		return errors.Wrap(err, "unable to parse client directory map")
	}
	for client, directory := range result {
		fmt.Printf("%s -> %s\n", client, directory)
	}
	return nil
}

var configShowCommand = &cobra.Command{
	Use:   "show <repository-config-path>",
	Short: "Parse and print a mount's TOML repository config, with defaults applied",
	Run:   edencmd.Mainify(configShowMain),
}

var configClientMapCommand = &cobra.Command{
	Use:   "client-map <client-directory-map-path>",
	Short: "Parse and print a JSONC client directory map",
	Run:   edencmd.Mainify(configClientMapMain),
}

var configCommand = &cobra.Command{
	Use:   "config",
	Short: "Inspect a mount's on-disk configuration",
}

func init() {
	configCommand.AddCommand(
		configShowCommand,
		configClientMapCommand,
	)
}
