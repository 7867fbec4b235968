package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relkit/relkit/internal/config"
)

var sampleConfigCmd = &cobra.Command{
	Use:   "sample-config",
	Short: "Print an annotated sample configuration file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(config.Sample)
	},
}

func init() {
	rootCmd.AddCommand(sampleConfigCmd)
}
