package chat

import (
	"sync"

	"agency-hub/internal/model"

	"go.uber.org/zap"
)

type EventType string

const (
	EventMessage EventType = "message"
	EventStatus  EventType = "status"
)

// Event is fanned out to every open tab of a chat.
type Event struct {
	Type     EventType          `json:"type"`
	ChatID   string             `json:"chat_id"`
	Origin   string             `json:"origin,omitempty"`
	Message  *model.ChatMessage `json:"message,omitempty"`
	Status   model.ChatStatus   `json:"status,omitempty"`
	Provider model.ChatProvider `json:"provider,omitempty"`
}

// Hub is an in-process broadcast channel keyed by chat id. Subscribers never
// receive events they published themselves, matched on client id.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	logger *zap.Logger
}

type Subscription struct {
	ClientID string
	chatID   string
	ch       chan Event
	hub      *Hub
	once     sync.Once
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

func (h *Hub) Subscribe(chatID, clientID string) *Subscription {
	sub := &Subscription{
		ClientID: clientID,
		chatID:   chatID,
		ch:       make(chan Event, h.buffer),
		hub:      h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[chatID] == nil {
		h.subs[chatID] = make(map[*Subscription]struct{})
	}
	h.subs[chatID][sub] = struct{}{}
	return sub
}

// Events is closed once the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		delete(h.subs[s.chatID], s)
		if len(h.subs[s.chatID]) == 0 {
			delete(h.subs, s.chatID)
		}
		h.mu.Unlock()
		close(s.ch)
	})
}

// Publish never blocks: a subscriber with a full buffer misses the event.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[ev.ChatID] {
		if ev.Origin != "" && sub.ClientID == ev.Origin {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.logger.Warn("dropping chat event for slow subscriber",
				zap.String("chat_id", ev.ChatID),
				zap.String("client_id", sub.ClientID),
			)
		}
	}
}

func (h *Hub) Subscribers(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[chatID])
}
