package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "montaz",
		Short: "Staffing coverage tools for montaz-workers",
		Long: `Offline companion to the worker manager.

Evaluates staffing coverage from a file or straight from the project database,
and inspects the activity registry the workers validate their input against.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCoverageCmd(), newRegistryCmd())
	return root
}
