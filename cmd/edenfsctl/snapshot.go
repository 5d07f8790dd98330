package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	edencmd "github.com/edenfs-io/edenfs/cmd"
	"github.com/edenfs-io/edenfs/pkg/model"
	"github.com/edenfs-io/edenfs/pkg/snapshot"
)

func snapshotShowMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("expected exactly one SNAPSHOT file path")
	}

	parent, err := snapshot.ReadParentCommit(arguments[0])
	if err != nil {
		return errors.Wrap(err, "unable to read SNAPSHOT file")
	}

	switch {
	case parent.InProgress != nil:
		fmt.Printf("checkout in progress (pid %d): %s -> %s\n",
			parent.InProgress.Pid, parent.InProgress.From, parent.InProgress.To)
	case parent.Steady != nil:
		fmt.Printf("working copy parent: %s\n", parent.Steady.Parent)
		fmt.Printf("checked out:         %s\n", parent.Steady.CheckedOut)
	default:
		fmt.Println("no parent commit recorded")
	}
	return nil
}

func snapshotSetParentMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return errors.New("expected a SNAPSHOT file path and a root ID")
	}
	return errors.Wrap(
		snapshot.SetWorkingCopyParent(arguments[0], model.RootId(arguments[1])),
		"unable to set working copy parent",
	)
}

func snapshotSetCheckedOutMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return errors.New("expected a SNAPSHOT file path and a root ID")
	}
	return errors.Wrap(
		snapshot.SetCheckedOutCommit(arguments[0], model.RootId(arguments[1])),
		"unable to set checked-out commit",
	)
}

var snapshotShowCommand = &cobra.Command{
	Use:   "show <snapshot-path>",
	Short: "Print the parent commit state recorded in a SNAPSHOT file",
	Run:   edencmd.Mainify(snapshotShowMain),
}

var snapshotSetParentCommand = &cobra.Command{
	Use:   "set-parent <snapshot-path> <root-id>",
	Short: "Record a new working copy parent without changing the checked-out commit",
	Run:   edencmd.Mainify(snapshotSetParentMain),
}

var snapshotSetCheckedOutCommand = &cobra.Command{
	Use:   "set-checked-out <snapshot-path> <root-id>",
	Short: "Record a new steady-state checked-out commit",
	Run:   edencmd.Mainify(snapshotSetCheckedOutMain),
}

var snapshotCommand = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect and manipulate a checkout's SNAPSHOT file",
}

func init() {
	snapshotCommand.AddCommand(
		snapshotShowCommand,
		snapshotSetParentCommand,
		snapshotSetCheckedOutCommand,
	)
}
