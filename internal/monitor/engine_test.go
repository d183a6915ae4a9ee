package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadwatch/leadwatch/internal/actions"
)

func TestRun_ProducesAllFourChecks(t *testing.T) {
	fake := &fakeActions{
		contacts:      []actions.Contact{{ID: "c1", LastActivity: hoursAgo(60)}},
		tasks:         map[string][]actions.Task{},
		opportunities: map[string][]actions.Opportunity{},
		history:       map[string][]actions.Message{},
	}
	engine := newTestEngine(fake)

	report := engine.Run(context.Background())

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, testNow, report.Timestamp)
	assert.Equal(t, "acme-dental", report.Location)
	require.Len(t, report.Checks, 4)
	for _, check := range checkOrder {
		assert.Contains(t, report.Checks, check)
	}
	assert.Equal(t, 1, report.Checks[CheckStaleLeads].Count)
	assert.NotEmpty(t, report.Summary)
}

func TestRun_OneFailingCheckDoesNotDropTheOthers(t *testing.T) {
	fake := &fakeActions{
		contacts:      []actions.Contact{{ID: "c1", LastActivity: hoursAgo(60)}},
		tasks:         map[string][]actions.Task{},
		pipelinesErr:  errors.New("pipelines endpoint down"),
		opportunities: map[string][]actions.Opportunity{},
		history:       map[string][]actions.Message{},
	}
	engine := newTestEngine(fake)

	report := engine.Run(context.Background())

	bottlenecks := report.Checks[CheckBottlenecks]
	assert.Contains(t, bottlenecks.Error, "pipelines endpoint down")
	assert.Equal(t, 1, report.Checks[CheckStaleLeads].Count, "healthy checks still report")
	assert.Empty(t, report.Checks[CheckMissedFollowUp].Error)
	assert.Empty(t, report.Checks[CheckSlowResponses].Error)
}

func TestRun_DistinctRunIDs(t *testing.T) {
	fake := &fakeActions{}
	engine := newTestEngine(fake)

	first := engine.Run(context.Background())
	second := engine.Run(context.Background())
	assert.NotEqual(t, first.RunID, second.RunID)
}
