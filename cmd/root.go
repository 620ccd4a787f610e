package cmd

import (
	"github.com/spf13/cobra"
)

// Execute runs the root command.
func Execute() error {
	var root = &cobra.Command{Use: "hummingbird"}

	root.AddCommand(serveCMD())
	return root.Execute()
}
