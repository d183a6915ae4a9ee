package actions

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadwatch/leadwatch/internal/mcp"
	"github.com/leadwatch/leadwatch/internal/ratelimit"
	"github.com/leadwatch/leadwatch/internal/retry"
)

// fakeClient scripts tool responses and records every call.
type fakeClient struct {
	mu       sync.Mutex
	calls    []recordedCall
	handlers map[string]func(args map[string]interface{}) (*mcp.CallToolResult, error)
}

type recordedCall struct {
	tool string
	args map[string]interface{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: map[string]func(map[string]interface{}) (*mcp.CallToolResult, error){}}
}

func (f *fakeClient) on(tool string, handler func(args map[string]interface{}) (*mcp.CallToolResult, error)) {
	f.handlers[tool] = handler
}

func (f *fakeClient) onText(tool, payload string) {
	f.on(tool, func(map[string]interface{}) (*mcp.CallToolResult, error) {
		return textResult(payload), nil
	})
}

func (f *fakeClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{tool: name, args: args})
	handler := f.handlers[name]
	f.mu.Unlock()
	if handler == nil {
		return nil, fmt.Errorf("unscripted tool %s", name)
	}
	return handler(args)
}

func (f *fakeClient) callCount(tool string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.tool == tool {
			n++
		}
	}
	return n
}

func textResult(payload string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: "text", Text: payload}}}
}

func newTestService(client *fakeClient) *Service {
	limiter := ratelimit.New(100, 10*time.Second, 10000)
	// No sleeping in unit tests: zero-delay retries.
	policy := retry.NewPolicy(retry.DefaultMaxRetries, time.Nanosecond, mcp.IsTransient)
	return NewService(client, limiter, policy)
}

func TestSearchContacts_DecodesPayload(t *testing.T) {
	client := newFakeClient()
	client.onText(ToolGetContacts, `{"contacts":[{"id":"c1","firstName":"Ada"},{"id":"c2","email":"x@y.z"}]}`)
	service := newTestService(client)

	contacts, err := service.SearchContacts(context.Background(), "ada", 20)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "c1", contacts[0].ID)
	assert.Equal(t, "Ada", contacts[0].DisplayName())
	assert.Equal(t, "x@y.z", contacts[1].DisplayName())

	require.Len(t, client.calls, 1)
	assert.Equal(t, "ada", client.calls[0].args["query"])
	assert.Equal(t, 20, client.calls[0].args["limit"])
}

func TestCall_RetriesTransientFailures(t *testing.T) {
	client := newFakeClient()
	failures := 0
	client.on(ToolGetContacts, func(map[string]interface{}) (*mcp.CallToolResult, error) {
		if failures < 2 {
			failures++
			return nil, &mcp.TransportError{StatusCode: 503, Body: "busy"}
		}
		return textResult(`{"contacts":[]}`), nil
	})
	service := newTestService(client)

	contacts, err := service.SearchContacts(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, contacts)
	assert.Equal(t, 3, client.callCount(ToolGetContacts))
}

func TestCall_DoesNotRetryProtocolErrors(t *testing.T) {
	client := newFakeClient()
	client.on(ToolGetContacts, func(map[string]interface{}) (*mcp.CallToolResult, error) {
		return nil, &mcp.ProtocolError{Method: ToolGetContacts, Code: -32602, Message: "bad params"}
	})
	service := newTestService(client)

	_, err := service.SearchContacts(context.Background(), "", 0)
	var pe *mcp.ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, client.callCount(ToolGetContacts))
}

func TestCall_DailyQuotaFailsFast(t *testing.T) {
	client := newFakeClient()
	client.onText(ToolGetContacts, `{"contacts":[]}`)
	limiter := ratelimit.New(100, 10*time.Second, 1)
	service := NewService(client, limiter, retry.NewPolicy(0, time.Nanosecond, mcp.IsTransient))

	_, err := service.SearchContacts(context.Background(), "", 0)
	require.NoError(t, err)

	_, err = service.SearchContacts(context.Background(), "", 0)
	var quotaErr *ratelimit.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 1, client.callCount(ToolGetContacts), "no call goes out once the quota is exhausted")
}

func TestCall_ErrorResultSurfaces(t *testing.T) {
	client := newFakeClient()
	client.on(ToolGetContacts, func(map[string]interface{}) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.ContentBlock{{Type: "text", Text: "location mismatch"}},
		}, nil
	})
	service := newTestService(client)

	_, err := service.SearchContacts(context.Background(), "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "location mismatch")
}

func TestBatchTag_PerItemOutcomesInInputOrder(t *testing.T) {
	client := newFakeClient()
	client.on(ToolAddTags, func(args map[string]interface{}) (*mcp.CallToolResult, error) {
		if args["contactId"] == "c2" {
			return nil, &mcp.ProtocolError{Method: ToolAddTags, Code: -32000, Message: "contact not found"}
		}
		return textResult(`{"succeded":true}`), nil
	})
	service := newTestService(client)

	results := service.AddTags(context.Background(), []string{"c1", "c2", "c3"}, []string{"hot-lead"})

	require.Len(t, results, 3)
	assert.Equal(t, "c1", results[0].ContactID)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "c2", results[1].ContactID)
	assert.Error(t, results[1].Err, "partial failure must not be masked")
	assert.Equal(t, "c3", results[2].ContactID)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 3, client.callCount(ToolAddTags), "one call per identifier")
}

func TestRemoveTags_UsesRemoveTool(t *testing.T) {
	client := newFakeClient()
	client.onText(ToolRemoveTags, `{}`)
	service := newTestService(client)

	results := service.RemoveTags(context.Background(), []string{"c1"}, []string{"cold"})
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, 1, client.callCount(ToolRemoveTags))
}

func TestContact_LastTouchPrefersLatest(t *testing.T) {
	added := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	activity := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	contact := Contact{DateAdded: &added, DateUpdated: &updated, LastActivity: &activity}
	assert.Equal(t, updated, contact.LastTouch())

	assert.True(t, Contact{}.LastTouch().IsZero())
}

func TestGetTasks_DecodesPayload(t *testing.T) {
	client := newFakeClient()
	client.onText(ToolGetAllTasks, `{"tasks":[{"id":"t1","title":"Call back","completed":false,"dueDate":"2026-08-01T10:00:00.000Z"}]}`)
	service := newTestService(client)

	tasks, err := service.GetTasks(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Call back", tasks[0].Title)
	require.NotNil(t, tasks[0].DueDate)
	assert.Equal(t, 2026, tasks[0].DueDate.Year())
}
