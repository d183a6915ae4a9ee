package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/leadwatch/leadwatch/pkg/logging"
)

const subsystem = "mcp"

// Wire-level constants for the CRM's MCP endpoint.
const (
	ProtocolVersion = "2025-03-26"

	headerProtocolVersion = "MCP-Protocol-Version"
	headerSessionID       = "Mcp-Session-Id"
	headerLocationID      = "locationId"

	methodInitialize  = "initialize"
	methodInitialized = "notifications/initialized"
	methodListTools   = "tools/list"
	methodCallTool    = "tools/call"
)

const defaultCallTimeout = 30 * time.Second

// State is the client lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateClosed
)

// String makes State satisfy the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config carries the connection identity for one client. Token and
// LocationID arrive fully resolved; credential indirection is handled
// upstream by the config loader.
type Config struct {
	Endpoint      string
	Token         string
	LocationID    string
	ClientName    string
	ClientVersion string

	// CallTimeout bounds each outbound request. It applies per attempt,
	// not cumulatively across retries. Zero means the default.
	CallTimeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client speaks the tool-calling protocol to one CRM location. At most
// one session is live per instance; Close tears it down and a later
// operation re-initializes.
type Client struct {
	cfg        Config
	httpClient *http.Client
	timeout    time.Duration

	mu           sync.Mutex
	state        State
	sessionID    string
	serverInfo   Implementation
	capabilities map[string]interface{}
	nextID       int64

	// initDone is closed when the in-flight handshake settles; initErr
	// holds its outcome. Concurrent first-time callers wait on it so the
	// handshake runs once, never once per caller.
	initDone chan struct{}
	initErr  error
}

// NewClient creates a client for the given connection identity.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Client{cfg: cfg, httpClient: httpClient, timeout: timeout}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the server-issued session token, if one was captured.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// ServerInfo returns the server identity captured during the handshake.
func (c *Client) ServerInfo() Implementation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverInfo
}

// Capabilities returns the capability set captured during the handshake.
func (c *Client) Capabilities() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capabilities
}

// Initialize performs the protocol handshake: it sends the initialize
// request, captures the session id header and server identity, then
// fires the initialized notification best-effort. A failed handshake
// returns the client to Uninitialized. While a handshake is in flight,
// concurrent callers block and share its outcome instead of racing a
// second one onto the wire.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateReady:
		c.mu.Unlock()
		return nil
	case StateInitializing:
		done := c.initDone
		c.mu.Unlock()
		return c.awaitHandshake(ctx, done)
	}
	c.state = StateInitializing
	c.initDone = make(chan struct{})
	c.mu.Unlock()

	params := map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"capabilities":    map[string]interface{}{},
		"clientInfo": Implementation{
			Name:    c.cfg.ClientName,
			Version: c.cfg.ClientVersion,
		},
	}

	msg, err := c.request(ctx, methodInitialize, params)
	if err != nil {
		return c.failHandshake(&HandshakeError{Reason: "initialize request failed", Err: err})
	}
	if msg.Error != nil {
		return c.failHandshake(&HandshakeError{Reason: fmt.Sprintf("server rejected handshake: %s (code %d)", msg.Error.Message, msg.Error.Code)})
	}

	var result InitializeResult
	if len(msg.Result) > 0 {
		if err := unmarshalResult(msg.Result, &result); err != nil {
			return c.failHandshake(&HandshakeError{Reason: "malformed initialize result", Err: err})
		}
	}

	c.mu.Lock()
	c.serverInfo = result.ServerInfo
	c.capabilities = result.Capabilities
	c.state = StateReady
	c.initErr = nil
	close(c.initDone)
	c.mu.Unlock()

	logging.Debug(subsystem, "session established with %s %s", result.ServerInfo.Name, result.ServerInfo.Version)

	// The initialized notification is best effort; the session works
	// without it, so a failure here is logged and swallowed.
	if err := c.notify(ctx, methodInitialized, map[string]interface{}{}); err != nil {
		logging.Debug(subsystem, "initialized notification failed: %v", err)
	}
	return nil
}

// failHandshake records a failed handshake, releases any waiters, and
// returns the client to Uninitialized so a later call may retry.
func (c *Client) failHandshake(err *HandshakeError) error {
	c.mu.Lock()
	c.state = StateUninitialized
	c.initErr = err
	close(c.initDone)
	c.mu.Unlock()
	return err
}

// awaitHandshake blocks until the in-flight handshake settles and
// reports its outcome, or until the caller's context is done.
func (c *Client) awaitHandshake(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateReady {
		return nil
	}
	return c.initErr
}

// ListTools fetches one page of the remote tool catalog, initializing
// the session first if needed.
func (c *Client) ListTools(ctx context.Context, cursor string) (*ListToolsResult, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	params := map[string]interface{}{}
	if cursor != "" {
		params["cursor"] = cursor
	}
	msg, err := c.request(ctx, methodListTools, params)
	if err != nil {
		return nil, err
	}
	if msg.Error != nil {
		return nil, &ProtocolError{Method: methodListTools, Code: msg.Error.Code, Message: msg.Error.Message}
	}
	var result ListToolsResult
	if err := unmarshalResult(msg.Result, &result); err != nil {
		return nil, fmt.Errorf("decoding tools/list result: %w", err)
	}
	return &result, nil
}

// CallTool invokes one named remote operation, initializing the session
// first if needed. The returned payload is raw: JSON embedded in text
// content is left for the caller to decode.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*CallToolResult, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	msg, err := c.request(ctx, methodCallTool, params)
	if err != nil {
		var pe *ProtocolError
		if errors.As(err, &pe) {
			// Name the failing tool, not the generic method.
			return nil, &ProtocolError{Method: name, Code: pe.Code, Message: pe.Message}
		}
		return nil, err
	}
	if msg.Error != nil {
		return nil, &ProtocolError{Method: name, Code: msg.Error.Code, Message: msg.Error.Message}
	}
	var result CallToolResult
	if err := unmarshalResult(msg.Result, &result); err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", name, err)
	}
	return &result, nil
}

// Close resets the session identity and capabilities unconditionally.
// It is idempotent and does not signal the server; a later operation on
// the same instance re-initializes from scratch.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = ""
	c.serverInfo = Implementation{}
	c.capabilities = nil
	c.state = StateClosed
}

// ensureReady is the auto-initialize guard at the top of every public
// operation: an explicit state transition, not a hidden side effect.
func (c *Client) ensureReady(ctx context.Context) error {
	c.mu.Lock()
	ready := c.state == StateReady
	c.mu.Unlock()
	if ready {
		return nil
	}
	return c.Initialize(ctx)
}

// request sends one id-carrying envelope and returns the correlated
// response message.
func (c *Client) request(ctx context.Context, method string, params interface{}) (*Message, error) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.mu.Unlock()

	body, err := EncodeRequest(method, params, &id)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", method, err)
	}
	messages, err := c.post(ctx, method, body)
	if err != nil {
		return nil, err
	}
	return c.correlate(method, id, messages)
}

// notify sends one envelope without an id and ignores the response body.
func (c *Client) notify(ctx context.Context, method string, params interface{}) error {
	body, err := EncodeRequest(method, params, nil)
	if err != nil {
		return fmt.Errorf("encoding %s notification: %w", method, err)
	}
	_, err = c.post(ctx, method, body)
	return err
}

// post performs one HTTP round trip under the per-call timeout and
// decodes the response by content type: JSON directly, event streams
// through the SSE decoder.
func (c *Client) post(ctx context.Context, method string, body []byte) ([]Message, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	req.Header.Set(headerProtocolVersion, ProtocolVersion)
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	if c.cfg.LocationID != "" {
		req.Header.Set(headerLocationID, c.cfg.LocationID)
	}
	if session := c.SessionID(); session != "" {
		req.Header.Set(headerSessionID, session)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, &TimeoutError{Method: method, Budget: c.timeout}
		}
		return nil, err
	}
	defer resp.Body.Close()

	// A session header on any response sticks until Close; its absence
	// never clears a previously captured one.
	if session := resp.Header.Get(headerSessionID); session != "" {
		c.mu.Lock()
		c.sessionID = session
		c.mu.Unlock()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	switch contentType {
	case "text/event-stream":
		messages := DecodeStream(resp.Body)
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, &TimeoutError{Method: method, Budget: c.timeout}
		}
		return messages, nil
	default:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
				return nil, &TimeoutError{Method: method, Budget: c.timeout}
			}
			return nil, err
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decoding %s response: %w", method, err)
		}
		return []Message{msg}, nil
	}
}

// correlate picks the response matching the request id from a possibly
// multiplexed stream. A streamed response may interleave notifications
// before the terminal result, so the last matching message wins. When
// nothing matches, the last id-carrying message is accepted as a legacy
// leniency inherited from the server's observed behavior; an id-free
// stream is a correlation failure.
func (c *Client) correlate(method string, id int64, messages []Message) (*Message, error) {
	var matched, fallback *Message
	for i := range messages {
		msg := &messages[i]
		if msg.ID == nil {
			continue
		}
		fallback = msg
		if *msg.ID == id {
			matched = msg
		}
	}
	if matched != nil {
		return matched, nil
	}
	if fallback != nil {
		logging.Warn(subsystem, "%s: no response with id %d, accepting id %d", method, id, *fallback.ID)
		return fallback, nil
	}
	return nil, &ProtocolError{Method: method, Code: ErrCodeInternalError, Message: fmt.Sprintf("no response correlated with request id %d", id)}
}
