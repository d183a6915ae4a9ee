package monitor

import (
	"fmt"
	"strings"
)

// Human labels for the summary, keyed by check name.
var checkLabels = map[string]string{
	CheckStaleLeads:     "Stale leads",
	CheckMissedFollowUp: "Missed follow-ups",
	CheckBottlenecks:    "Pipeline bottlenecks",
	CheckSlowResponses:  "Slow responses",
}

// FormatSummary renders the deterministic human-readable summary: one
// line per check in fixed order, then a total-issues tally and an
// overall verdict. Errored checks show an error marker and are excluded
// from the tally.
func FormatSummary(report *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CRM health: %s (%s)\n", report.Location, report.Timestamp.UTC().Format("2006-01-02 15:04 UTC"))

	total := 0
	errored := 0
	for _, check := range checkOrder {
		finding, ok := report.Checks[check]
		label := checkLabels[check]
		switch {
		case !ok:
			continue
		case finding.Error != "":
			errored++
			fmt.Fprintf(&b, "⚠️ Error in %s: %s\n", label, finding.Error)
		case finding.Count == 0:
			fmt.Fprintf(&b, "✅ %s: 0\n", label)
		default:
			total += finding.Count
			line := fmt.Sprintf("%s: %d", label, finding.Count)
			if finding.Threshold != "" {
				line += fmt.Sprintf(" (threshold %s)", finding.Threshold)
			}
			if finding.HasMore {
				line += " (sample capped, true count may be higher)"
			}
			fmt.Fprintf(&b, "🔔 %s\n", line)
		}
	}

	fmt.Fprintf(&b, "Total issues: %d\n", total)
	switch {
	case total == 0 && errored == 0:
		b.WriteString("✅ All clear\n")
	case total == 0:
		b.WriteString("✅ No issues found, but some checks failed\n")
	default:
		fmt.Fprintf(&b, "🔔 %d issue(s) need attention\n", total)
	}
	return b.String()
}
