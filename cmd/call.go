package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newCallCmd() *cobra.Command {
	var locationName string
	var argsJSON string

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke one remote tool ad hoc",
		Long: `Invokes a named tool on the CRM's MCP endpoint with JSON arguments and
prints the raw result payload. Calls are billed; the rate limiter applies.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs := map[string]interface{}{}
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &toolArgs); err != nil {
					return fmt.Errorf("parsing --args: %w", err)
				}
			}

			cfg, loc, err := loadLocation(locationName)
			if err != nil {
				return err
			}
			service, client := newService(cfg, loc)
			defer client.Close()

			result, err := service.CallRaw(cmd.Context(), args[0], toolArgs)
			if err != nil {
				return err
			}
			if text := result.FirstText(); text != "" {
				fmt.Println(text)
				return nil
			}
			raw, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(raw))
			return nil
		},
	}

	cmd.Flags().StringVarP(&locationName, "location", "l", "", "location name or alias (default: first configured)")
	cmd.Flags().StringVarP(&argsJSON, "args", "a", "", "tool arguments as a JSON object")
	return cmd
}
