package chat

import (
	"agency-hub/internal/model"
	apperrors "agency-hub/pkg/errors"
)

// Chat is the client visible state of one support conversation.
type Chat struct {
	ID                   string              `json:"id"`
	UserID               string              `json:"user_id"`
	Messages             []model.ChatMessage `json:"messages"`
	Status               model.ChatStatus    `json:"status"`
	Provider             model.ChatProvider  `json:"provider"`
	ConversationID       string              `json:"conversation_id,omitempty"`
	OdieID               int64               `json:"odie_id,omitempty"`
	SupportInteractionID string              `json:"support_interaction_id,omitempty"`
}

var transitions = map[model.ChatStatus][]model.ChatStatus{
	model.ChatLoading:  {model.ChatLoaded, model.ChatClosed},
	model.ChatLoaded:   {model.ChatSending, model.ChatTransfer, model.ChatClosed},
	model.ChatSending:  {model.ChatSending, model.ChatLoaded, model.ChatClosed},
	model.ChatTransfer: {model.ChatLoaded, model.ChatClosed},
	model.ChatClosed:   {},
}

func canTransition(from, to model.ChatStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (c *Chat) setStatus(to model.ChatStatus) error {
	if c.Status == to && to != model.ChatSending {
		return nil
	}
	if !canTransition(c.Status, to) {
		return &apperrors.ErrInvalidStateTransition{From: string(c.Status), To: string(to)}
	}
	c.Status = to
	return nil
}

// upsert merges an authoritative message into the list. A message carrying the
// temporary id of an optimistic entry replaces it in place; a message whose
// external id is already known is dropped. Reports whether anything changed.
func (c *Chat) upsert(msg model.ChatMessage) bool {
	for i := range c.Messages {
		existing := &c.Messages[i]
		if msg.InternalMessageID != "" && existing.InternalMessageID == msg.InternalMessageID {
			if msg.CreatedAt.IsZero() {
				msg.CreatedAt = existing.CreatedAt
			}
			*existing = msg
			return true
		}
		if msg.ExternalID != "" && existing.ExternalID == msg.ExternalID {
			return false
		}
	}
	c.Messages = append(c.Messages, msg)
	return true
}

func (c *Chat) hasSatisfactionRating() bool {
	for _, m := range c.Messages {
		if m.Type == model.MessageSatisfactionRating {
			return true
		}
	}
	return false
}

func (c *Chat) snapshot() Chat {
	cp := *c
	cp.Messages = make([]model.ChatMessage, len(c.Messages))
	copy(cp.Messages, c.Messages)
	return cp
}
