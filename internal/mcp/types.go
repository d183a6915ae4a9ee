package mcp

import "encoding/json"

// JSONRPCVersion is the only protocol version accepted on the wire.
const JSONRPCVersion = "2.0"

// Request represents a request that expects a response.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Notification represents a notification which does not expect a response.
type Notification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Message represents any JSON-RPC message received from the server.
// Responses carry ID plus Result or Error; notifications carry Method
// and no ID.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject represents an error response in JSON-RPC.
type ErrorObject struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// EncodeRequest builds the wire form of one JSON-RPC envelope. A nil id
// produces a notification envelope (no id field at all).
func EncodeRequest(method string, params interface{}, id *int64) ([]byte, error) {
	if id == nil {
		return json.Marshal(Notification{JSONRPC: JSONRPCVersion, Method: method, Params: params})
	}
	return json.Marshal(Request{JSONRPC: JSONRPCVersion, ID: *id, Method: method, Params: params})
}

// Implementation identifies one side of the protocol handshake.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the server's half of the handshake.
type InitializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      Implementation         `json:"serverInfo"`
	Instructions    string                 `json:"instructions,omitempty"`
}

// Tool describes one remote operation in the server's catalog.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ListToolsResult is one page of the tool catalog.
type ListToolsResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// ContentBlock is one entry in a tool result. The CRM server only emits
// text blocks, whose Text is itself a JSON document.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CallToolResult is the raw payload of a tools/call response. Decoding
// the JSON embedded in the text content is the caller's concern.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// unmarshalResult decodes a result payload, tolerating an absent one.
func unmarshalResult(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// FirstText returns the text of the first text content block, or "" if
// the result carries none.
func (r *CallToolResult) FirstText() string {
	for _, block := range r.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}
