package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRequest_RoundTrip(t *testing.T) {
	id := int64(12)
	params := map[string]interface{}{
		"name":      "contacts_get-contacts",
		"arguments": map[string]interface{}{"limit": float64(20)},
	}

	body, err := EncodeRequest("tools/call", params, &id)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(body, &decoded))

	assert.Equal(t, JSONRPCVersion, decoded.JSONRPC)
	assert.Equal(t, "tools/call", decoded.Method)
	require.NotNil(t, decoded.ID)
	assert.Equal(t, id, *decoded.ID)

	var decodedParams map[string]interface{}
	require.NoError(t, json.Unmarshal(decoded.Params, &decodedParams))
	assert.Equal(t, params, decodedParams)
}

func TestEncodeRequest_NotificationOmitsID(t *testing.T) {
	body, err := EncodeRequest("notifications/initialized", map[string]interface{}{}, nil)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &raw))
	_, hasID := raw["id"]
	assert.False(t, hasID, "notification envelope must not carry an id field")
	assert.Equal(t, "notifications/initialized", raw["method"])
}

func TestCallToolResult_FirstText(t *testing.T) {
	result := &CallToolResult{Content: []ContentBlock{
		{Type: "image"},
		{Type: "text", Text: `{"contacts":[]}`},
		{Type: "text", Text: "second"},
	}}
	assert.Equal(t, `{"contacts":[]}`, result.FirstText())

	assert.Equal(t, "", (&CallToolResult{}).FirstText())
}
