// Package mcp implements the client side of the CRM's Model Context
// Protocol endpoint: JSON-RPC 2.0 over HTTP POST, with responses arriving
// either as plain JSON or as a server-sent-event stream.
//
// The package is split into three layers:
//
//   - the wire codec (types.go, sse.go): envelope encoding and SSE frame
//     demultiplexing, with no knowledge of protocol semantics
//   - the protocol client (client.go): session lifecycle, request/response
//     correlation by id, and the typed operations the rest of leadwatch uses
//     (Initialize, ListTools, CallTool)
//   - the error taxonomy (errors.go) shared by both
//
// A Client holds at most one live session. Operations auto-initialize on
// first use, so callers only deal with ListTools and CallTool.
package mcp
