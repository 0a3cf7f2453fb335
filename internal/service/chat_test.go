package service

import (
	"context"
	"testing"

	"agency-hub/internal/chat"
	"agency-hub/internal/client"
	"agency-hub/internal/dto"
	"agency-hub/internal/model"
	"agency-hub/internal/repository"
	apperrors "agency-hub/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubOdie struct{}

func (stubOdie) SendMessage(ctx context.Context, req *client.OdieSendRequest) (*client.OdieSendResponse, error) {
	return &client.OdieSendResponse{
		ChatID: 77,
		Messages: []client.OdieMessage{{
			MessageID: 1,
			Type:      "message",
			Content:   "Let me get you a human.",
			Context:   model.MessageContext{Flags: model.MessageFlags{ForwardToHumanSupport: true}},
		}},
	}, nil
}

type stubLiveChat struct{}

func (stubLiveChat) IsEligible(ctx context.Context, userID string) (bool, error) { return true, nil }
func (stubLiveChat) IsAvailable(ctx context.Context) (bool, error)               { return true, nil }
func (stubLiveChat) CreateConversation(ctx context.Context, req *client.CreateConversationRequest) (string, error) {
	return "conv-9", nil
}
func (stubLiveChat) SendMessage(ctx context.Context, conversationID string, msg *client.LiveChatMessage) (string, error) {
	return "lc-1", nil
}

type chatFixture struct {
	chats        ChatService
	interactions SupportInteractionService
	interRepo    repository.SupportInteractionRepository
	messageRepo  repository.ChatMessageRepository
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	return newChatFixtureOn(t, newTestDB(t))
}

// newChatFixtureOn builds a fresh broker over db, the way a restarted process would.
func newChatFixtureOn(t *testing.T, db *gorm.DB) *chatFixture {
	t.Helper()
	logger := zap.NewNop()
	messageRepo := repository.NewChatMessageRepository(db)

	interRepo := repository.NewSupportInteractionRepository(db)
	hub := chat.NewHub(16, logger)
	broker := chat.NewBroker(
		stubOdie{},
		stubLiveChat{},
		messageRepo,
		hub,
		logger,
		chat.WithTransferHook(RecordTransfer(interRepo, logger)),
	)
	chats := NewChatService(broker, hub, interRepo, repository.NewWebhookEventRepository(db), logger)

	return &chatFixture{
		chats:        chats,
		interactions: NewSupportInteractionService(interRepo, logger, chats.InteractionStatusChanged),
		interRepo:    interRepo,
		messageRepo:  messageRepo,
	}
}

func TestChatService_SendTransfersAndRecordsEvent(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	interaction, err := f.interactions.Create(ctx, "user-1", "")
	require.NoError(t, err)

	c, err := f.chats.Open(ctx, "user-1", "", interaction.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ChatLoaded, c.Status)

	c, err = f.chats.Send(ctx, "user-1", c.ID, "tab-a", "my site is down")
	require.NoError(t, err)
	assert.Equal(t, model.ProviderZendesk, c.Provider)
	assert.Equal(t, "conv-9", c.ConversationID)

	stored, err := f.interRepo.Get(ctx, interaction.ID)
	require.NoError(t, err)
	require.Len(t, stored.Events, 2)
	assert.Equal(t, model.ProviderOdie, stored.Events[0].Provider)
	assert.Equal(t, model.ProviderZendesk, stored.Events[1].Provider)
	assert.Equal(t, "conv-9", stored.Events[1].ConversationID)
}

func TestChatService_OwnershipAndResume(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	c, err := f.chats.Open(ctx, "user-1", "", "")
	require.NoError(t, err)

	var notFound *apperrors.ErrNotFound
	_, err = f.chats.Get(ctx, "user-2", c.ID)
	assert.ErrorAs(t, err, &notFound)
	_, err = f.chats.Send(ctx, "user-2", c.ID, "tab-a", "hi")
	assert.ErrorAs(t, err, &notFound)
	_, err = f.chats.Open(ctx, "user-2", c.ID, "")
	assert.ErrorAs(t, err, &notFound)

	resumed, err := f.chats.Open(ctx, "user-1", c.ID, "")
	require.NoError(t, err)
	assert.Equal(t, c.ID, resumed.ID)
}

func TestChatService_ResumeAfterRestartKeepsOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	before := newChatFixtureOn(t, db)
	c, err := before.chats.Open(ctx, "user-1", "", "")
	require.NoError(t, err)
	_, err = before.chats.Send(ctx, "user-1", c.ID, "tab-a", "my secret account details")
	require.NoError(t, err)

	after := newChatFixtureOn(t, db)
	var notFound *apperrors.ErrNotFound
	_, err = after.chats.Open(ctx, "user-2", c.ID, "")
	require.ErrorAs(t, err, &notFound)

	resumed, err := after.chats.Open(ctx, "user-1", c.ID, "")
	require.NoError(t, err)
	require.NotEmpty(t, resumed.Messages)
	assert.Equal(t, "my secret account details", resumed.Messages[0].Content)
}

func TestChatService_EchoKeepsOneHistoryRow(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	c, err := f.chats.Open(ctx, "user-1", "", "")
	require.NoError(t, err)
	_, err = f.chats.Escalate(ctx, "user-1", c.ID)
	require.NoError(t, err)

	c, err = f.chats.Send(ctx, "user-1", c.ID, "tab-a", "still there?")
	require.NoError(t, err)
	userMsg := c.Messages[len(c.Messages)-1]

	_, err = f.chats.Receive(ctx, c.ID, &dto.IncomingMessage{
		EventID:           "evt-echo",
		MessageID:         userMsg.ExternalID,
		InternalMessageID: userMsg.InternalMessageID,
		Role:              model.RoleUser,
		Type:              model.MessageText,
		Content:           "still there?",
	})
	require.NoError(t, err)

	rows, err := f.messageRepo.ListByChat(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "lc-1", rows[0].ExternalID)
	assert.Equal(t, "user-1", rows[0].UserID)
}

func TestChatService_ReceiveDeduplicatesDeliveries(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	c, err := f.chats.Open(ctx, "user-1", "", "")
	require.NoError(t, err)

	msg := &dto.IncomingMessage{EventID: "evt-1", MessageID: "m-1", Content: "Hi, I'm Sam."}
	c, err = f.chats.Receive(ctx, c.ID, msg)
	require.NoError(t, err)
	require.Len(t, c.Messages, 1)
	assert.Equal(t, model.RoleBusiness, c.Messages[0].Role)

	c, err = f.chats.Receive(ctx, c.ID, msg)
	require.NoError(t, err)
	assert.Len(t, c.Messages, 1)

	_, err = f.chats.Receive(ctx, "unknown", msg)
	var notFound *apperrors.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestSupportInteraction_SolvedClosesChats(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	interaction, err := f.interactions.Create(ctx, "user-1", model.ProviderOdie)
	require.NoError(t, err)
	c, err := f.chats.Open(ctx, "user-1", "", interaction.ID)
	require.NoError(t, err)

	updated, err := f.interactions.UpdateStatus(ctx, "user-1", interaction.ID, model.InteractionSolved)
	require.NoError(t, err)
	assert.Equal(t, model.InteractionSolved, updated.Status)

	c, err = f.chats.Get(ctx, "user-1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ChatClosed, c.Status)

	var transition *apperrors.ErrInvalidStateTransition
	_, err = f.interactions.UpdateStatus(ctx, "user-1", interaction.ID, model.InteractionOpen)
	assert.ErrorAs(t, err, &transition)
}

func TestSupportInteraction_Validation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	var validation *apperrors.ErrValidation
	_, err := f.interactions.Create(ctx, "user-1", "carrier-pigeon")
	assert.ErrorAs(t, err, &validation)

	interaction, err := f.interactions.Create(ctx, "user-1", "")
	require.NoError(t, err)

	_, err = f.interactions.UpdateStatus(ctx, "user-1", interaction.ID, "paused")
	assert.ErrorAs(t, err, &validation)

	var notFound *apperrors.ErrNotFound
	_, err = f.interactions.Get(ctx, "user-2", interaction.ID)
	assert.ErrorAs(t, err, &notFound)
}
