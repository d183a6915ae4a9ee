package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadwatch/leadwatch/internal/ratelimit"
)

func newLimitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "limits",
		Short: "Show the per-location rate limits leadwatch enforces",
		Long: `Prints the admission-control windows applied before every remote call.
Counters live per process run, so this shows the configured caps rather
than server-side usage.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Burst window: %d calls per %s\n", ratelimit.DefaultBurstLimit, ratelimit.DefaultBurstWindow)
			fmt.Printf("Daily quota:  %d calls\n", ratelimit.DefaultDailyLimit)
		},
	}
}
