package actions

import (
	"context"
	"encoding/json"

	"github.com/leadwatch/leadwatch/internal/mcp"
)

// GetConversations fetches the conversation threads for one contact.
func (s *Service) GetConversations(ctx context.Context, contactID string) ([]Conversation, error) {
	var payload conversationsPayload
	err := s.callInto(ctx, ToolSearchConversation, map[string]interface{}{"contactId": contactID}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Conversations, nil
}

// messagesPayload tolerates both layouts the endpoint emits: messages
// nested under a paging wrapper, or a flat list.
type messagesPayload struct {
	Messages []Message
}

func (p *messagesPayload) UnmarshalJSON(data []byte) error {
	var nested struct {
		Messages struct {
			Messages []Message `json:"messages"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(data, &nested); err == nil && nested.Messages.Messages != nil {
		p.Messages = nested.Messages.Messages
		return nil
	}
	var flat struct {
		Messages []Message `json:"messages"`
	}
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	p.Messages = flat.Messages
	return nil
}

// GetMessages fetches up to limit messages of one conversation.
func (s *Service) GetMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	args := map[string]interface{}{"conversationId": conversationID}
	if limit > 0 {
		args["limit"] = limit
	}
	var payload messagesPayload
	if err := s.callInto(ctx, ToolGetMessages, args, &payload); err != nil {
		return nil, err
	}
	return payload.Messages, nil
}

// ConversationHistory returns the messages of the contact's first
// conversation. A contact without conversations yields an empty list,
// not an error.
func (s *Service) ConversationHistory(ctx context.Context, contactID string, limit int) ([]Message, error) {
	conversations, err := s.GetConversations(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if len(conversations) == 0 {
		return []Message{}, nil
	}
	return s.GetMessages(ctx, conversations[0].ID, limit)
}

// SendMessage sends an outbound message of the given type (SMS, Email)
// to a contact.
func (s *Service) SendMessage(ctx context.Context, contactID, messageType, body string) (*mcp.CallToolResult, error) {
	return s.call(ctx, ToolSendMessage, map[string]interface{}{
		"contactId": contactID,
		"type":      messageType,
		"message":   body,
	})
}
