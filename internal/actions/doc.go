// Package actions maps domain-level CRM operations (search contacts,
// tag, move pipeline stage, send message, fetch conversation) onto MCP
// tool calls for one location.
//
// Every operation follows the same path: acquire a rate-limit slot, then
// invoke the tool through the retry policy. Results come back as the
// payload the server embedded in the tool result's text content, decoded
// into this package's domain shapes; passthrough operations return the
// raw result untouched.
//
// Derived operations (PipelineOverview, ConversationHistory) compose
// several calls and tolerate partial data rather than failing the whole
// aggregate.
package actions
