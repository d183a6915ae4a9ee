package monitor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/leadwatch/leadwatch/internal/actions"
)

// checkStaleLeads flags contacts whose most recent touch (lastActivity,
// dateUpdated or dateAdded, whichever is latest) predates the configured
// hour threshold.
func (e *Engine) checkStaleLeads(ctx context.Context) Finding {
	threshold := time.Duration(e.thresholds.StaleLeadHours) * time.Hour
	cutoff := e.now().Add(-threshold)

	contacts, err := e.actions.SearchContacts(ctx, "", contactSampleSize)
	if err != nil {
		return failed(CheckStaleLeads, err)
	}

	items := []StaleLead{}
	for _, contact := range contacts {
		lastTouch := contact.LastTouch()
		if lastTouch.IsZero() || !lastTouch.Before(cutoff) {
			continue
		}
		items = append(items, StaleLead{
			ContactID: contact.ID,
			Name:      contact.DisplayName(),
			LastTouch: lastTouch,
			IdleHours: int(e.now().Sub(lastTouch).Hours()),
		})
	}

	return Finding{
		Check:     CheckStaleLeads,
		Count:     len(items),
		Items:     items,
		Threshold: fmt.Sprintf("%dh", e.thresholds.StaleLeadHours),
		HasMore:   len(contacts) == contactSampleSize,
	}
}

// checkMissedFollowUps flags incomplete tasks whose due date has passed.
// A contact whose task fetch fails is skipped with a recorded reason
// rather than aborting the check: partial results beat no results.
func (e *Engine) checkMissedFollowUps(ctx context.Context) Finding {
	now := e.now()

	contacts, err := e.actions.SearchContacts(ctx, "", contactSampleSize)
	if err != nil {
		return failed(CheckMissedFollowUp, err)
	}

	items := []OverdueTask{}
	var skipped []Skip
	for _, contact := range contacts {
		tasks, err := e.actions.GetTasks(ctx, contact.ID)
		if err != nil {
			skipped = append(skipped, Skip{ContactID: contact.ID, Reason: err.Error()})
			continue
		}
		for _, task := range tasks {
			if task.Completed || task.DueDate == nil || !task.DueDate.Before(now) {
				continue
			}
			items = append(items, OverdueTask{
				ContactID:    contact.ID,
				TaskID:       task.ID,
				Title:        task.Title,
				DueDate:      *task.DueDate,
				OverdueHours: int(now.Sub(*task.DueDate).Hours()),
			})
		}
	}

	return Finding{
		Check:   CheckMissedFollowUp,
		Count:   len(items),
		Items:   items,
		Skipped: skipped,
		HasMore: len(contacts) == contactSampleSize,
	}
}

// checkPipelineBottlenecks groups opportunities that have sat in their
// stage past the day threshold, by stage name, with per-stage count and
// summed monetary value.
func (e *Engine) checkPipelineBottlenecks(ctx context.Context) Finding {
	threshold := time.Duration(e.thresholds.StuckOpportunityDays) * 24 * time.Hour
	cutoff := e.now().Add(-threshold)

	pipelines, err := e.actions.GetPipelines(ctx)
	if err != nil {
		return failed(CheckBottlenecks, err)
	}
	if len(pipelines) > pipelineSampleSize {
		pipelines = pipelines[:pipelineSampleSize]
	}

	byStage := make(map[string]*StageBottleneck)
	stuck := 0
	for _, pipeline := range pipelines {
		opportunities, err := e.actions.SearchOpportunities(ctx, pipeline.ID, opportunityPageSize)
		if err != nil {
			return failed(CheckBottlenecks, err)
		}
		for _, opp := range opportunities {
			age := opp.StageAge()
			if age.IsZero() || !age.Before(cutoff) {
				continue
			}
			stuck++
			stage := pipeline.StageName(opp.PipelineStageID)
			key := pipeline.Name + "/" + stage
			entry, ok := byStage[key]
			if !ok {
				entry = &StageBottleneck{Pipeline: pipeline.Name, Stage: stage}
				byStage[key] = entry
			}
			entry.Count++
			entry.TotalValue += opp.Value()
		}
	}

	items := []StageBottleneck{}
	for _, entry := range byStage {
		items = append(items, *entry)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Pipeline != items[j].Pipeline {
			return items[i].Pipeline < items[j].Pipeline
		}
		return items[i].Stage < items[j].Stage
	})

	return Finding{
		Check:     CheckBottlenecks,
		Count:     stuck,
		Items:     items,
		Threshold: fmt.Sprintf("%dd", e.thresholds.StuckOpportunityDays),
	}
}

// checkSlowResponses measures the gap between the first inbound message
// and the first outbound message strictly after it. Contacts with fewer
// than two usable messages, no inbound, no reply, or a failed fetch are
// skipped with a recorded reason.
func (e *Engine) checkSlowResponses(ctx context.Context) Finding {
	threshold := time.Duration(e.thresholds.ResponseTimeMinutes) * time.Minute

	contacts, err := e.actions.SearchContacts(ctx, "", contactSampleSize)
	if err != nil {
		return failed(CheckSlowResponses, err)
	}

	items := []SlowResponse{}
	var skipped []Skip
	for _, contact := range contacts {
		messages, err := e.actions.ConversationHistory(ctx, contact.ID, messageHistorySize)
		if err != nil {
			skipped = append(skipped, Skip{ContactID: contact.ID, Reason: err.Error()})
			continue
		}
		if len(messages) < 2 {
			skipped = append(skipped, Skip{ContactID: contact.ID, Reason: "fewer than two messages"})
			continue
		}

		ordered := make([]timedMessage, 0, len(messages))
		for _, msg := range messages {
			if msg.DateAdded == nil {
				continue
			}
			ordered = append(ordered, timedMessage{at: *msg.DateAdded, direction: msg.Direction})
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].at.Before(ordered[j].at) })

		inbound, reply, ok := firstExchange(ordered)
		if !ok {
			skipped = append(skipped, Skip{ContactID: contact.ID, Reason: "no inbound/reply pair"})
			continue
		}
		if elapsed := reply.Sub(inbound); elapsed > threshold {
			items = append(items, SlowResponse{
				ContactID:      contact.ID,
				FirstInbound:   inbound,
				FirstReply:     reply,
				ElapsedMinutes: int(elapsed.Minutes()),
			})
		}
	}

	return Finding{
		Check:     CheckSlowResponses,
		Count:     len(items),
		Items:     items,
		Threshold: fmt.Sprintf("%dm", e.thresholds.ResponseTimeMinutes),
		Skipped:   skipped,
		HasMore:   len(contacts) == contactSampleSize,
	}
}

type timedMessage struct {
	at        time.Time
	direction string
}

// firstExchange finds the first inbound message and the first outbound
// message strictly after it.
func firstExchange(ordered []timedMessage) (inbound, reply time.Time, ok bool) {
	seenInbound := false
	for _, msg := range ordered {
		switch {
		case !seenInbound && msg.direction == actions.DirectionInbound:
			inbound = msg.at
			seenInbound = true
		case seenInbound && msg.direction == actions.DirectionOutbound && msg.at.After(inbound):
			return inbound, msg.at, true
		}
	}
	return time.Time{}, time.Time{}, false
}
