package actions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leadwatch/leadwatch/internal/mcp"
	"github.com/leadwatch/leadwatch/internal/ratelimit"
	"github.com/leadwatch/leadwatch/internal/retry"
	"github.com/leadwatch/leadwatch/pkg/logging"
)

const subsystem = "actions"

// ToolClient is the slice of the protocol client this package consumes.
type ToolClient interface {
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error)
}

// Service binds a protocol client and a rate limiter to one location's
// credentials. The client auto-initializes its session on first use, so
// the service only sequences admission, retry and decoding.
type Service struct {
	client  ToolClient
	limiter *ratelimit.Limiter
	policy  *retry.Policy
}

// NewService wires the façade. A nil policy gets the default retry
// policy over the protocol error taxonomy.
func NewService(client ToolClient, limiter *ratelimit.Limiter, policy *retry.Policy) *Service {
	if policy == nil {
		policy = retry.NewPolicy(retry.DefaultMaxRetries, retry.DefaultBaseDelay, mcp.IsTransient)
	}
	return &Service{client: client, limiter: limiter, policy: policy}
}

// call is the single chokepoint for remote calls: rate-limit admission,
// then the tool call through the retry policy.
func (s *Service) call(ctx context.Context, tool string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	var result *mcp.CallToolResult
	err := s.policy.Do(ctx, tool, func(ctx context.Context) error {
		res, err := s.client.CallTool(ctx, tool, args)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// callInto performs a call and decodes the JSON document embedded in the
// result's text content into v.
func (s *Service) callInto(ctx context.Context, tool string, args map[string]interface{}, v interface{}) error {
	result, err := s.call(ctx, tool, args)
	if err != nil {
		return err
	}
	return decodePayload(tool, result, v)
}

// decodePayload unwraps a tool result: the server embeds the API
// response as a JSON document inside the first text content block.
func decodePayload(tool string, result *mcp.CallToolResult, v interface{}) error {
	text := result.FirstText()
	if result.IsError {
		return fmt.Errorf("%s returned an error result: %s", tool, text)
	}
	if text == "" {
		return fmt.Errorf("%s returned no text content", tool)
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", tool, err)
	}
	return nil
}

// Wire envelopes for the tool payloads the façade decodes.
type contactsPayload struct {
	Contacts []Contact `json:"contacts"`
}

type contactPayload struct {
	Contact *Contact `json:"contact"`
}

type tasksPayload struct {
	Tasks []Task `json:"tasks"`
}

type pipelinesPayload struct {
	Pipelines []Pipeline `json:"pipelines"`
}

type opportunitiesPayload struct {
	Opportunities []Opportunity `json:"opportunities"`
}

type conversationsPayload struct {
	Conversations []Conversation `json:"conversations"`
}

// SearchContacts fetches up to limit contacts matching query. An empty
// query returns the location's most recent contacts.
func (s *Service) SearchContacts(ctx context.Context, query string, limit int) ([]Contact, error) {
	args := map[string]interface{}{}
	if query != "" {
		args["query"] = query
	}
	if limit > 0 {
		args["limit"] = limit
	}
	var payload contactsPayload
	if err := s.callInto(ctx, ToolGetContacts, args, &payload); err != nil {
		return nil, err
	}
	return payload.Contacts, nil
}

// GetContact fetches one contact by id.
func (s *Service) GetContact(ctx context.Context, contactID string) (*Contact, error) {
	var payload contactPayload
	err := s.callInto(ctx, ToolGetContact, map[string]interface{}{"contactId": contactID}, &payload)
	if err != nil {
		return nil, err
	}
	if payload.Contact == nil {
		return nil, fmt.Errorf("contact %s not found", contactID)
	}
	return payload.Contact, nil
}

// UpsertContact creates or updates a contact keyed on email/phone. Safe
// to retry: the CRM treats it as at-most-once-effective.
func (s *Service) UpsertContact(ctx context.Context, fields map[string]interface{}) (*mcp.CallToolResult, error) {
	return s.call(ctx, ToolUpsertContact, fields)
}

// UpdateContact applies fields to an existing contact.
func (s *Service) UpdateContact(ctx context.Context, contactID string, fields map[string]interface{}) (*mcp.CallToolResult, error) {
	args := map[string]interface{}{"contactId": contactID}
	for k, val := range fields {
		args[k] = val
	}
	return s.call(ctx, ToolUpdateContact, args)
}

// GetTasks fetches all tasks for one contact.
func (s *Service) GetTasks(ctx context.Context, contactID string) ([]Task, error) {
	var payload tasksPayload
	err := s.callInto(ctx, ToolGetAllTasks, map[string]interface{}{"contactId": contactID}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Tasks, nil
}

// AddTags applies tags to each contact in turn. The protocol has no bulk
// tag primitive, so this issues one call per contact and records a
// per-item outcome in input order; partial failure is never collapsed
// into total success.
func (s *Service) AddTags(ctx context.Context, contactIDs []string, tags []string) []BatchResult {
	return s.batchTag(ctx, ToolAddTags, contactIDs, tags)
}

// RemoveTags removes tags from each contact in turn, with the same
// per-item outcome contract as AddTags.
func (s *Service) RemoveTags(ctx context.Context, contactIDs []string, tags []string) []BatchResult {
	return s.batchTag(ctx, ToolRemoveTags, contactIDs, tags)
}

func (s *Service) batchTag(ctx context.Context, tool string, contactIDs []string, tags []string) []BatchResult {
	results := make([]BatchResult, 0, len(contactIDs))
	for _, contactID := range contactIDs {
		_, err := s.call(ctx, tool, map[string]interface{}{
			"contactId": contactID,
			"tags":      tags,
		})
		if err != nil {
			logging.Warn(subsystem, "%s failed for contact %s: %v", tool, contactID, err)
		}
		results = append(results, BatchResult{ContactID: contactID, Err: err})
	}
	return results
}

// CallRaw invokes any tool in the catalog and returns the raw result,
// for ad hoc invocations from the CLI.
func (s *Service) CallRaw(ctx context.Context, tool string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return s.call(ctx, tool, args)
}

// ListCalendarEvents is an opaque passthrough to the calendar tool
// family.
func (s *Service) ListCalendarEvents(ctx context.Context, calendarID, startTime, endTime string) (*mcp.CallToolResult, error) {
	return s.call(ctx, ToolGetCalendarEvents, map[string]interface{}{
		"calendarId": calendarID,
		"startTime":  startTime,
		"endTime":    endTime,
	})
}

// ListTransactions is an opaque passthrough to the payments tool family.
func (s *Service) ListTransactions(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return s.call(ctx, ToolListTransactions, args)
}

// Usage exposes the limiter snapshot for the CLI.
func (s *Service) Usage() ratelimit.Usage {
	return s.limiter.Snapshot()
}
