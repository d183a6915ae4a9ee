package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newToolsCmd() *cobra.Command {
	var locationName string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the remote tool catalog",
		Long:  `Lists every tool the CRM's MCP endpoint exposes for the location, across all catalog pages.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loc, err := loadLocation(locationName)
			if err != nil {
				return err
			}
			client := newProtocolClient(cfg, loc)
			defer client.Close()

			cursor := ""
			total := 0
			for {
				page, err := client.ListTools(cmd.Context(), cursor)
				if err != nil {
					return err
				}
				for _, tool := range page.Tools {
					total++
					if tool.Description != "" {
						fmt.Printf("%s\n    %s\n", tool.Name, tool.Description)
					} else {
						fmt.Println(tool.Name)
					}
				}
				if page.NextCursor == "" {
					break
				}
				cursor = page.NextCursor
			}
			fmt.Printf("\n%d tool(s)\n", total)
			return nil
		},
	}

	cmd.Flags().StringVarP(&locationName, "location", "l", "", "location name or alias (default: first configured)")
	return cmd
}
