package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadwatch/leadwatch/internal/config"
	"github.com/leadwatch/leadwatch/internal/monitor"
)

func newMonitorCmd() *cobra.Command {
	var locationName string
	var asJSON bool
	var all bool

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the monitoring check battery",
		Long: `Runs the read-only check battery (stale leads, missed follow-ups,
pipeline bottlenecks, slow responses) against one location, or every
configured location with --all, and prints the summary. With --json the
full report is emitted for external formatters.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			locations := cfg.Locations
			if !all {
				loc := locations[0]
				if locationName != "" {
					found, ok := cfg.LocationByName(locationName)
					if !ok {
						return fmt.Errorf("location %q is not configured", locationName)
					}
					loc = found
				}
				locations = []config.Location{loc}
			}

			reports := make([]*monitor.Report, 0, len(locations))
			for _, loc := range locations {
				service, client := newService(cfg, loc)
				engine := monitor.New(service, loc.Name, loc.Thresholds)
				report := engine.Run(cmd.Context())
				client.Close()
				reports = append(reports, report)
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				if len(reports) == 1 {
					return encoder.Encode(reports[0])
				}
				return encoder.Encode(reports)
			}
			for i, report := range reports {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				fmt.Fprint(cmd.OutOrStdout(), report.Summary)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&locationName, "location", "l", "", "location name or alias (default: first configured)")
	cmd.Flags().BoolVar(&all, "all", false, "run against every configured location")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the full report as JSON")
	return cmd
}
