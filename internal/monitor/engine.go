// Package monitor runs a fixed battery of read-only checks against the
// action façade and condenses the findings into one Report. Checks run
// concurrently and settle independently: one check failing becomes data
// in its Finding, never a reason to drop the others' results. That
// availability-over-completeness trade-off is deliberate.
//
// Sample sizes are bounded: every fetch is a billed tool call, so
// results are a lower bound on true counts, not an exhaustive audit.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leadwatch/leadwatch/internal/actions"
	"github.com/leadwatch/leadwatch/internal/config"
	"github.com/leadwatch/leadwatch/pkg/logging"
)

const subsystem = "monitor"

// Bounded sample sizes, a credit-conservation policy.
const (
	contactSampleSize   = 20
	pipelineSampleSize  = 5
	opportunityPageSize = 100
	messageHistorySize  = 20
)

// Actions is the slice of the façade the checks read through.
type Actions interface {
	SearchContacts(ctx context.Context, query string, limit int) ([]actions.Contact, error)
	GetTasks(ctx context.Context, contactID string) ([]actions.Task, error)
	GetPipelines(ctx context.Context) ([]actions.Pipeline, error)
	SearchOpportunities(ctx context.Context, pipelineID string, limit int) ([]actions.Opportunity, error)
	ConversationHistory(ctx context.Context, contactID string, limit int) ([]actions.Message, error)
}

// Engine runs the check battery for one location.
type Engine struct {
	actions    Actions
	location   string
	thresholds config.Thresholds

	now func() time.Time
}

// New creates an engine over one location's façade.
func New(svc Actions, location string, thresholds config.Thresholds) *Engine {
	return &Engine{
		actions:    svc,
		location:   location,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Run executes all checks concurrently, waits for every one to settle,
// and renders the summary. The façade's rate limiter is the only shared
// mutable state among the checks.
func (e *Engine) Run(ctx context.Context) *Report {
	started := e.now()
	logging.Info(subsystem, "running %d checks for %s", len(checkOrder), e.location)

	checks := []func(context.Context) Finding{
		e.checkStaleLeads,
		e.checkMissedFollowUps,
		e.checkPipelineBottlenecks,
		e.checkSlowResponses,
	}

	findings := make([]Finding, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func(i int, check func(context.Context) Finding) {
			defer wg.Done()
			findings[i] = check(ctx)
		}(i, check)
	}
	wg.Wait()

	report := &Report{
		RunID:     uuid.NewString(),
		Timestamp: started,
		Location:  e.location,
		Checks:    make(map[string]Finding, len(findings)),
	}
	for _, finding := range findings {
		report.Checks[finding.Check] = finding
	}
	report.Summary = FormatSummary(report)

	logging.Info(subsystem, "run %s finished in %s", report.RunID, e.now().Sub(started))
	return report
}

// failed builds the Finding for a check that could not complete.
func failed(check string, err error) Finding {
	logging.Error(subsystem, err, "check %s failed", check)
	return Finding{Check: check, Error: err.Error()}
}
