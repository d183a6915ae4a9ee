package monitor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reportWith(findings ...Finding) *Report {
	report := &Report{
		RunID:     "run-1",
		Timestamp: testNow,
		Location:  "acme-dental",
		Checks:    map[string]Finding{},
	}
	for _, f := range findings {
		report.Checks[f.Check] = f
	}
	return report
}

func TestFormatSummary_AllClear(t *testing.T) {
	report := reportWith(
		Finding{Check: CheckStaleLeads},
		Finding{Check: CheckMissedFollowUp},
		Finding{Check: CheckBottlenecks},
		Finding{Check: CheckSlowResponses},
	)

	summary := FormatSummary(report)

	assert.Contains(t, summary, "CRM health: acme-dental (2026-08-27 12:00 UTC)")
	assert.Contains(t, summary, "Total issues: 0")
	assert.Contains(t, summary, "✅ All clear")
	assert.NotContains(t, summary, "🔔")
}

func TestFormatSummary_TotalIgnoresErroredChecks(t *testing.T) {
	report := reportWith(
		Finding{Check: CheckStaleLeads, Count: 3, Threshold: "48h"},
		Finding{Check: CheckMissedFollowUp, Error: "tasks unavailable"},
		Finding{Check: CheckBottlenecks, Count: 2, Threshold: "7d"},
		Finding{Check: CheckSlowResponses},
	)

	summary := FormatSummary(report)

	assert.Contains(t, summary, "🔔 Stale leads: 3 (threshold 48h)")
	assert.Contains(t, summary, "⚠️ Error in Missed follow-ups: tasks unavailable")
	assert.Contains(t, summary, "Total issues: 5")
	assert.Contains(t, summary, "🔔 5 issue(s) need attention")
}

func TestFormatSummary_ErrorsOnlyStillReadsAsNoIssues(t *testing.T) {
	report := reportWith(
		Finding{Check: CheckStaleLeads, Error: "contacts unavailable"},
		Finding{Check: CheckMissedFollowUp},
		Finding{Check: CheckBottlenecks},
		Finding{Check: CheckSlowResponses},
	)

	summary := FormatSummary(report)

	assert.Contains(t, summary, "Total issues: 0")
	assert.Contains(t, summary, "✅ No issues found, but some checks failed")
}

func TestFormatSummary_CappedSampleIsCalledOut(t *testing.T) {
	report := reportWith(
		Finding{Check: CheckStaleLeads, Count: 20, Threshold: "48h", HasMore: true},
	)

	summary := FormatSummary(report)
	assert.Contains(t, summary, "sample capped, true count may be higher")
}

func TestFormatSummary_ChecksRenderInFixedOrder(t *testing.T) {
	report := reportWith(
		Finding{Check: CheckSlowResponses, Count: 1, Threshold: "30m"},
		Finding{Check: CheckStaleLeads, Count: 1, Threshold: "48h"},
	)

	summary := FormatSummary(report)
	stale := strings.Index(summary, "Stale leads")
	slow := strings.Index(summary, "Slow responses")
	assert.Greater(t, slow, stale)
}
