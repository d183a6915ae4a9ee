package monitor

import "time"

// Check names, also the keys of Report.Checks.
const (
	CheckStaleLeads     = "staleLeads"
	CheckMissedFollowUp = "missedFollowUps"
	CheckBottlenecks    = "pipelineBottlenecks"
	CheckSlowResponses  = "slowResponses"
)

// checkOrder fixes the rendering order of the summary.
var checkOrder = []string{CheckStaleLeads, CheckMissedFollowUp, CheckBottlenecks, CheckSlowResponses}

// Skip records one contact a best-effort loop passed over and why, so a
// partial result still says what it is missing.
type Skip struct {
	ContactID string `json:"contactId"`
	Reason    string `json:"reason"`
}

// Finding is the immutable result of one check. A failed check carries
// Error and nothing else meaningful; the summary excludes it from the
// issue tally.
type Finding struct {
	Check     string      `json:"check"`
	Count     int         `json:"count"`
	Items     interface{} `json:"items,omitempty"`
	Threshold string      `json:"threshold,omitempty"`
	HasMore   bool        `json:"hasMore,omitempty"`
	Skipped   []Skip      `json:"skipped,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// StaleLead is a contact with no recent touch.
type StaleLead struct {
	ContactID string    `json:"contactId"`
	Name      string    `json:"name"`
	LastTouch time.Time `json:"lastTouch"`
	IdleHours int       `json:"idleHours"`
}

// OverdueTask is an incomplete task past its due date.
type OverdueTask struct {
	ContactID    string    `json:"contactId"`
	TaskID       string    `json:"taskId"`
	Title        string    `json:"title"`
	DueDate      time.Time `json:"dueDate"`
	OverdueHours int       `json:"overdueHours"`
}

// StageBottleneck aggregates the opportunities stuck in one stage.
type StageBottleneck struct {
	Pipeline   string  `json:"pipeline"`
	Stage      string  `json:"stage"`
	Count      int     `json:"count"`
	TotalValue float64 `json:"totalValue"`
}

// SlowResponse is a conversation whose first reply took too long.
type SlowResponse struct {
	ContactID      string    `json:"contactId"`
	FirstInbound   time.Time `json:"firstInbound"`
	FirstReply     time.Time `json:"firstReply"`
	ElapsedMinutes int       `json:"elapsedMinutes"`
}

// Report is the aggregate of one monitoring run: all findings plus the
// rendered summary. It is the sole artifact handed to external
// notification and formatting collaborators.
type Report struct {
	RunID     string             `json:"runId"`
	Timestamp time.Time          `json:"timestamp"`
	Location  string             `json:"location"`
	Checks    map[string]Finding `json:"checks"`
	Summary   string             `json:"summary"`
}
