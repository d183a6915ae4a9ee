package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of leadwatch",
		Long:  `All software has versions. This is leadwatch's.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("leadwatch version %s\n", rootCmd.Version)
		},
	}
}
