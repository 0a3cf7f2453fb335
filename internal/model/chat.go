package model

import "time"

type ChatStatus string

const (
	ChatLoading  ChatStatus = "loading"
	ChatSending  ChatStatus = "sending"
	ChatLoaded   ChatStatus = "loaded"
	ChatTransfer ChatStatus = "transfer"
	ChatClosed   ChatStatus = "closed"
)

type ChatProvider string

const (
	ProviderOdie    ChatProvider = "odie"
	ProviderZendesk ChatProvider = "zendesk"
)

type MessageRole string

const (
	RoleUser     MessageRole = "user"
	RoleBot      MessageRole = "bot"
	RoleBusiness MessageRole = "business" // human agent
)

type MessageType string

const (
	MessageText               MessageType = "message"
	MessageError              MessageType = "error"
	MessageIntroduction       MessageType = "introduction"
	MessageSatisfactionRating MessageType = "satisfaction-rating"
)

type MessageFlags struct {
	ForwardToHumanSupport bool `json:"forward_to_human_support,omitempty"`
	ShowContactSupportMsg bool `json:"show_contact_support_msg,omitempty"`
	IsErrorMessage        bool `json:"is_error_message,omitempty"`
}

type MessageContext struct {
	Flags MessageFlags `json:"flags"`
	// ClientID is the tab that produced the message.
	ClientID string `json:"client_id,omitempty"`
}

type ChatMessage struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	ChatID string `gorm:"size:64;index;not null" json:"chat_id"`
	// UserID is the owner of the chat the message belongs to.
	UserID string `gorm:"size:64;index" json:"-"`
	// InternalMessageID is the temporary id assigned before the server copy exists.
	InternalMessageID string         `gorm:"size:64;index" json:"internal_message_id,omitempty"`
	ExternalID        string         `gorm:"size:64;index" json:"message_id,omitempty"`
	Role              MessageRole    `gorm:"size:16;not null" json:"role"`
	Type              MessageType    `gorm:"size:32;not null" json:"type"`
	Content           string         `gorm:"type:text" json:"content"`
	Context           MessageContext `gorm:"serializer:json" json:"context"`
	CreatedAt         time.Time      `json:"created_at"`
}

type InteractionStatus string

const (
	InteractionOpen     InteractionStatus = "open"
	InteractionResolved InteractionStatus = "resolved"
	InteractionSolved   InteractionStatus = "solved"
	InteractionClosed   InteractionStatus = "closed"
)

func (s InteractionStatus) Valid() bool {
	switch s {
	case InteractionOpen, InteractionResolved, InteractionSolved, InteractionClosed:
		return true
	}
	return false
}

// Ended reports whether the interaction no longer accepts messages.
func (s InteractionStatus) Ended() bool {
	return s == InteractionSolved || s == InteractionClosed
}

type InteractionEvent struct {
	Provider       ChatProvider `json:"provider"`
	ConversationID string       `json:"conversation_id"`
	At             time.Time    `json:"at"`
}

type SupportInteraction struct {
	ID        string             `gorm:"primaryKey;size:64;not null" json:"uuid"`
	UserID    string             `gorm:"size:64;index;not null" json:"user_id"`
	Status    InteractionStatus  `gorm:"size:16;index;not null" json:"status"`
	Events    []InteractionEvent `gorm:"serializer:json" json:"events"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
