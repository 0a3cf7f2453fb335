package chat

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"agency-hub/internal/client"
	"agency-hub/internal/model"
	apperrors "agency-hub/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RateLimitMessage      = "You've sent a lot of messages in a short time. Please wait a moment before trying again."
	ErrorMessage          = "Sorry, something went wrong on our side. Please try again, or reach out to our support team."
	TransferFailedMessage = "We couldn't connect you to a Happiness Engineer right now. Please try again in a few minutes."
)

// HistoryStore persists message history. Nothing else about a chat outlives the process.
type HistoryStore interface {
	// Append stores msg, replacing a stored message with the same internal id.
	Append(ctx context.Context, msg *model.ChatMessage) error
	ListByChat(ctx context.Context, chatID string) ([]*model.ChatMessage, error)
}

// TransferFunc is told when a chat moved to live chat.
type TransferFunc func(ctx context.Context, chat Chat)

type session struct {
	mu   sync.Mutex
	chat Chat

	// send bookkeeping: only the latest send may settle the status
	seq      uint64
	cancel   context.CancelFunc
	preSend  model.ChatStatus
	creating bool
}

// Broker drives the chat state machine between the AI assistant and live chat.
type Broker struct {
	mu       sync.RWMutex
	sessions map[string]*session

	assistant client.OdieClient
	liveChat  client.LiveChatClient
	history   HistoryStore
	hub       *Hub
	logger    *zap.Logger

	onTransfer TransferFunc
	now        func() time.Time
}

type Option func(*Broker)

func WithTransferHook(fn TransferFunc) Option {
	return func(b *Broker) { b.onTransfer = fn }
}

func WithClock(now func() time.Time) Option {
	return func(b *Broker) { b.now = now }
}

func NewBroker(
	assistant client.OdieClient,
	liveChat client.LiveChatClient,
	history HistoryStore,
	hub *Hub,
	logger *zap.Logger,
	opts ...Option,
) *Broker {
	b := &Broker{
		sessions:  make(map[string]*session),
		assistant: assistant,
		liveChat:  liveChat,
		history:   history,
		hub:       hub,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open registers a chat and loads its history. A chat whose history holds a
// satisfaction rating opens closed.
func (b *Broker) Open(ctx context.Context, chatID, userID, interactionID string) (Chat, error) {
	s := &session{chat: Chat{
		ID:                   chatID,
		UserID:               userID,
		Status:               model.ChatLoading,
		Provider:             model.ProviderOdie,
		SupportInteractionID: interactionID,
	}}

	b.mu.Lock()
	if _, exists := b.sessions[chatID]; exists {
		b.mu.Unlock()
		return Chat{}, &apperrors.ErrConflict{Message: "chat already open: " + chatID}
	}
	b.sessions[chatID] = s
	b.mu.Unlock()

	msgs, err := b.history.ListByChat(ctx, chatID)
	if err != nil {
		b.mu.Lock()
		delete(b.sessions, chatID)
		b.mu.Unlock()
		return Chat{}, err
	}

	for _, m := range msgs {
		if m.UserID != "" && m.UserID != userID {
			b.mu.Lock()
			delete(b.sessions, chatID)
			b.mu.Unlock()
			return Chat{}, &apperrors.ErrNotFound{Resource: "chat", ID: chatID}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		s.chat.upsert(*m)
	}
	if s.chat.hasSatisfactionRating() {
		s.chat.Status = model.ChatClosed
	} else {
		s.chat.Status = model.ChatLoaded
	}
	return s.chat.snapshot(), nil
}

func (b *Broker) session(chatID string) (*session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.sessions[chatID]
	if !ok {
		return nil, &apperrors.ErrNotFound{Resource: "chat", ID: chatID}
	}
	return s, nil
}

func (b *Broker) Get(chatID string) (Chat, error) {
	s, err := b.session(chatID)
	if err != nil {
		return Chat{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.snapshot(), nil
}

// ChatsForInteraction lists the open chats tied to a support interaction.
func (b *Broker) ChatsForInteraction(interactionID string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var ids []string
	for id, s := range b.sessions {
		s.mu.Lock()
		if s.chat.SupportInteractionID == interactionID {
			ids = append(ids, id)
		}
		s.mu.Unlock()
	}
	return ids
}

// Forget drops the in-memory state of a chat, for example when every tab navigated away.
func (b *Broker) Forget(chatID string) {
	b.mu.Lock()
	s, ok := b.sessions[chatID]
	delete(b.sessions, chatID)
	b.mu.Unlock()

	if ok {
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
		}
		s.mu.Unlock()
	}
}

func isAbort(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Send posts a user message. The message is inserted optimistically under a
// temporary id and broadcast before the provider answers. A newer Send on the
// same chat cancels the one in flight.
func (b *Broker) Send(ctx context.Context, chatID, clientID, text string) (Chat, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Chat{}, &apperrors.ErrValidation{Message: "message is empty"}
	}

	s, err := b.session(chatID)
	if err != nil {
		return Chat{}, err
	}

	s.mu.Lock()
	switch s.chat.Status {
	case model.ChatLoaded:
		s.preSend = model.ChatLoaded
	case model.ChatSending:
		// superseding: keep preSend of the first send in the chain
	case model.ChatTransfer:
		s.mu.Unlock()
		return Chat{}, &apperrors.ErrConflict{Message: "chat is being transferred to live chat"}
	default:
		from := s.chat.Status
		s.mu.Unlock()
		return Chat{}, &apperrors.ErrInvalidStateTransition{From: string(from), To: string(model.ChatSending)}
	}

	if s.cancel != nil {
		s.cancel()
	}
	sendCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.seq++
	seq := s.seq
	s.cancel = cancel

	userMsg := model.ChatMessage{
		ChatID:            chatID,
		InternalMessageID: uuid.NewString(),
		Role:              model.RoleUser,
		Type:              model.MessageText,
		Content:           text,
		Context:           model.MessageContext{ClientID: clientID},
		CreatedAt:         b.now(),
	}
	s.chat.Messages = append(s.chat.Messages, userMsg)
	_ = s.chat.setStatus(model.ChatSending)
	provider := s.chat.Provider
	odieID := s.chat.OdieID
	conversationID := s.chat.ConversationID
	s.mu.Unlock()

	b.persist(ctx, s, &userMsg)
	b.hub.Publish(Event{Type: EventMessage, ChatID: chatID, Origin: clientID, Message: &userMsg})
	b.publishStatus(s)

	if provider == model.ProviderZendesk {
		err = b.sendLiveChat(sendCtx, s, seq, conversationID, userMsg)
	} else {
		err = b.sendAssistant(sendCtx, ctx, s, seq, odieID, userMsg)
	}

	s.mu.Lock()
	if s.seq == seq {
		s.cancel = nil
	}
	snap := s.chat.snapshot()
	s.mu.Unlock()

	return snap, err
}

// settle moves a finished send back to loaded, unless a newer send owns the status.
func (s *session) settle(seq uint64) {
	if s.seq == seq && s.chat.Status == model.ChatSending {
		_ = s.chat.setStatus(model.ChatLoaded)
	}
}

// restore undoes a cancelled send without touching a newer send.
func (s *session) restore(seq uint64) {
	if s.seq == seq && s.chat.Status == model.ChatSending {
		s.chat.Status = s.preSend
	}
}

func (b *Broker) sendLiveChat(ctx context.Context, s *session, seq uint64, conversationID string, userMsg model.ChatMessage) error {
	extID, err := b.liveChat.SendMessage(ctx, conversationID, &client.LiveChatMessage{
		Text:            userMsg.Content,
		ClientMessageID: userMsg.InternalMessageID,
	})

	s.mu.Lock()
	if err != nil {
		if isAbort(err) {
			s.restore(seq)
			s.mu.Unlock()
			b.publishStatus(s)
			return nil
		}
		s.settle(seq)
		rateLimited := client.IsRateLimited(err)
		if !rateLimited && s.seq != seq {
			// a newer send owns the chat and reports its own outcome
			s.mu.Unlock()
			b.logger.Warn("superseded live chat send failed", zap.String("chat_id", userMsg.ChatID), zap.Error(err))
			return nil
		}
		var errMsg model.ChatMessage
		if rateLimited {
			errMsg = b.errorMessage(s.chat.ID, RateLimitMessage, false)
		} else {
			errMsg = b.errorMessage(s.chat.ID, ErrorMessage, true)
		}
		s.chat.Messages = append(s.chat.Messages, errMsg)
		s.mu.Unlock()

		b.logger.Error("live chat send failed", zap.String("chat_id", userMsg.ChatID), zap.Error(err))
		b.emit(context.Background(), s, errMsg)
		b.publishStatus(s)
		return nil
	}

	if extID != "" {
		confirmed := userMsg
		confirmed.ExternalID = extID
		s.chat.upsert(confirmed)
	}
	s.settle(seq)
	s.mu.Unlock()

	b.publishStatus(s)
	return nil
}

func (b *Broker) sendAssistant(sendCtx, reqCtx context.Context, s *session, seq uint64, odieID int64, userMsg model.ChatMessage) error {
	resp, err := b.assistant.SendMessage(sendCtx, &client.OdieSendRequest{
		OdieID:  odieID,
		Message: userMsg.Content,
	})
	if err != nil {
		return b.handleAssistantError(reqCtx, s, seq, err)
	}

	var (
		botMsgs []model.ChatMessage
		forward bool
	)

	s.mu.Lock()
	if resp.ChatID != 0 {
		s.chat.OdieID = resp.ChatID
	}
	for _, m := range resp.Messages {
		msgType := model.MessageType(m.Type)
		if msgType == "" {
			msgType = model.MessageText
		}
		botMsg := model.ChatMessage{
			ChatID:     s.chat.ID,
			ExternalID: strconv.FormatInt(m.MessageID, 10),
			Role:       model.RoleBot,
			Type:       msgType,
			Content:    m.Content,
			Context:    m.Context,
			CreatedAt:  b.now(),
		}
		if s.chat.upsert(botMsg) {
			botMsgs = append(botMsgs, botMsg)
		}
		forward = forward || m.Context.Flags.ForwardToHumanSupport
	}
	s.settle(seq)
	latest := s.seq == seq
	s.mu.Unlock()

	for i := range botMsgs {
		b.emit(reqCtx, s, botMsgs[i])
	}
	b.publishStatus(s)

	if forward && latest && b.canEscalate(reqCtx, s) {
		if err := b.escalate(reqCtx, s); err != nil {
			b.logger.Warn("escalation after bot hand-off failed", zap.String("chat_id", s.chat.ID), zap.Error(err))
		}
	}
	return nil
}

func (b *Broker) handleAssistantError(ctx context.Context, s *session, seq uint64, err error) error {
	switch {
	case isAbort(err):
		s.mu.Lock()
		s.restore(seq)
		s.mu.Unlock()
		b.publishStatus(s)
		return nil

	case client.IsRateLimited(err):
		s.mu.Lock()
		s.settle(seq)
		msg := b.errorMessage(s.chat.ID, RateLimitMessage, false)
		s.chat.Messages = append(s.chat.Messages, msg)
		s.mu.Unlock()

		b.emit(ctx, s, msg)
		b.publishStatus(s)
		return nil
	}

	b.logger.Error("assistant send failed", zap.String("chat_id", s.chat.ID), zap.Error(err))

	s.mu.Lock()
	s.settle(seq)
	latest := s.seq == seq
	s.mu.Unlock()
	b.publishStatus(s)

	if !latest {
		return nil
	}

	if b.isEligible(ctx, s) {
		// a failed escalation appends its own message
		_ = b.escalate(ctx, s)
		return nil
	}

	s.mu.Lock()
	msg := b.errorMessage(s.chat.ID, ErrorMessage, true)
	s.chat.Messages = append(s.chat.Messages, msg)
	s.mu.Unlock()
	b.emit(ctx, s, msg)
	return nil
}

func (b *Broker) isEligible(ctx context.Context, s *session) bool {
	eligible, err := b.liveChat.IsEligible(ctx, s.chat.UserID)
	if err != nil {
		b.logger.Warn("support eligibility check failed", zap.String("user_id", s.chat.UserID), zap.Error(err))
		return false
	}
	return eligible
}

func (b *Broker) canEscalate(ctx context.Context, s *session) bool {
	if !b.isEligible(ctx, s) {
		return false
	}
	available, err := b.liveChat.IsAvailable(ctx)
	if err != nil {
		b.logger.Warn("live chat availability check failed", zap.Error(err))
		return false
	}
	return available
}

// Escalate hands the chat to a human agent on request, for example from the
// contact support buttons shown with an error message.
func (b *Broker) Escalate(ctx context.Context, chatID string) (Chat, error) {
	s, err := b.session(chatID)
	if err != nil {
		return Chat{}, err
	}
	err = b.escalate(ctx, s)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.snapshot(), err
}

// escalate creates the live chat conversation. Only one creation may be pending per chat.
func (b *Broker) escalate(ctx context.Context, s *session) error {
	s.mu.Lock()
	if s.chat.Provider == model.ProviderZendesk {
		s.mu.Unlock()
		return nil
	}
	if s.creating || s.chat.Status == model.ChatTransfer {
		s.mu.Unlock()
		return &apperrors.ErrConflict{Message: "live chat transfer already in progress"}
	}
	if err := s.chat.setStatus(model.ChatTransfer); err != nil {
		s.mu.Unlock()
		return err
	}
	s.creating = true
	req := &client.CreateConversationRequest{
		UserID:               s.chat.UserID,
		SupportInteractionID: s.chat.SupportInteractionID,
		Metadata: map[string]string{
			"chat_id": s.chat.ID,
			"odie_id": strconv.FormatInt(s.chat.OdieID, 10),
		},
	}
	s.mu.Unlock()
	b.publishStatus(s)

	conversationID, err := b.liveChat.CreateConversation(ctx, req)

	s.mu.Lock()
	s.creating = false
	if s.chat.Status != model.ChatTransfer {
		// closed while we were waiting
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		_ = s.chat.setStatus(model.ChatLoaded)
		msg := b.errorMessage(s.chat.ID, TransferFailedMessage, true)
		s.chat.Messages = append(s.chat.Messages, msg)
		s.mu.Unlock()

		b.logger.Error("live chat conversation creation failed", zap.String("chat_id", s.chat.ID), zap.Error(err))
		b.emit(ctx, s, msg)
		b.publishStatus(s)
		return err
	}

	s.chat.Provider = model.ProviderZendesk
	s.chat.ConversationID = conversationID
	_ = s.chat.setStatus(model.ChatLoaded)
	snap := s.chat.snapshot()
	s.mu.Unlock()

	b.logger.Info("chat transferred to live chat",
		zap.String("chat_id", snap.ID),
		zap.String("conversation_id", conversationID),
	)
	b.publishStatus(s)
	if b.onTransfer != nil {
		b.onTransfer(ctx, snap)
	}
	return nil
}

// Receive applies a message that came from the server side (agent replies or
// echoes of our own messages). Echoes replace their optimistic copy.
func (b *Broker) Receive(ctx context.Context, chatID string, msg model.ChatMessage) (Chat, error) {
	s, err := b.session(chatID)
	if err != nil {
		return Chat{}, err
	}

	msg.ChatID = chatID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = b.now()
	}
	if msg.Type == "" {
		msg.Type = model.MessageText
	}

	s.mu.Lock()
	if s.chat.Status == model.ChatClosed {
		snap := s.chat.snapshot()
		s.mu.Unlock()
		return snap, nil
	}
	changed := s.chat.upsert(msg)
	closed := false
	if msg.Type == model.MessageSatisfactionRating {
		_ = s.chat.setStatus(model.ChatClosed)
		closed = true
	}
	snap := s.chat.snapshot()
	s.mu.Unlock()

	if changed {
		b.emit(ctx, s, msg)
	}
	if closed {
		b.publishStatus(s)
	}
	return snap, nil
}

// Close ends the chat, for example once the support interaction is solved.
func (b *Broker) Close(chatID string) (Chat, error) {
	s, err := b.session(chatID)
	if err != nil {
		return Chat{}, err
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	_ = s.chat.setStatus(model.ChatClosed)
	snap := s.chat.snapshot()
	s.mu.Unlock()

	b.publishStatus(s)
	return snap, nil
}

// SetInteractionStatus closes the chat when its support interaction ended.
func (b *Broker) SetInteractionStatus(chatID string, status model.InteractionStatus) (Chat, error) {
	if status.Ended() {
		return b.Close(chatID)
	}
	return b.Get(chatID)
}

func (b *Broker) errorMessage(chatID, content string, contactSupport bool) model.ChatMessage {
	return model.ChatMessage{
		ChatID:            chatID,
		InternalMessageID: uuid.NewString(),
		Role:              model.RoleBot,
		Type:              model.MessageError,
		Content:           content,
		Context: model.MessageContext{Flags: model.MessageFlags{
			IsErrorMessage:        true,
			ShowContactSupportMsg: contactSupport,
		}},
		CreatedAt: b.now(),
	}
}

func (b *Broker) persist(ctx context.Context, s *session, msg *model.ChatMessage) {
	// history is best effort; the live state is authoritative for open tabs
	cp := *msg
	cp.UserID = s.chat.UserID
	if err := b.history.Append(context.WithoutCancel(ctx), &cp); err != nil {
		b.logger.Error("failed to persist chat message",
			zap.String("chat_id", msg.ChatID),
			zap.Error(err),
		)
	}
}

func (b *Broker) emit(ctx context.Context, s *session, msg model.ChatMessage) {
	b.persist(ctx, s, &msg)
	b.hub.Publish(Event{Type: EventMessage, ChatID: msg.ChatID, Message: &msg})
}

func (b *Broker) publishStatus(s *session) {
	s.mu.Lock()
	ev := Event{Type: EventStatus, ChatID: s.chat.ID, Status: s.chat.Status, Provider: s.chat.Provider}
	s.mu.Unlock()
	b.hub.Publish(ev)
}
