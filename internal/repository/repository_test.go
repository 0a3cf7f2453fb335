package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"agency-hub/internal/client"
	"agency-hub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, client.Migrate(db))
	return db
}

func TestProductRepository_SeedIsIdempotent(t *testing.T) {
	repo := NewProductRepository(newTestDB(t))
	ctx := context.Background()

	products := []model.Product{
		{
			ProductID: 1, Slug: "jetpack-scan", FamilySlug: "jetpack-scan", Currency: "USD", Amount: 500,
			TierMonthlyPrices: []model.PriceTier{{Units: 1, Price: 500}, {Units: 10, Price: 400}},
		},
		{ProductID: 2, Slug: "jetpack-backup-t1", FamilySlug: "jetpack-backup", Currency: "USD", Amount: 1000},
	}
	require.NoError(t, repo.Seed(ctx, products))

	products[0].Amount = 600
	require.NoError(t, repo.Seed(ctx, products))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	scan, err := repo.FindBySlug(ctx, "jetpack-scan")
	require.NoError(t, err)
	assert.Equal(t, int64(600), scan.Amount)
	assert.Len(t, scan.TierMonthlyPrices, 2)

	byID, err := repo.FindByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "jetpack-backup-t1", byID.Slug)

	many, err := repo.FindManyBySlug(ctx, []string{"jetpack-scan", "missing"})
	require.NoError(t, err)
	assert.Len(t, many, 1)

	_, err = repo.FindBySlug(ctx, "missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestCartRepository(t *testing.T) {
	repo := NewCartRepository(newTestDB(t))
	ctx := context.Background()

	raw, err := repo.Get(ctx, "sess-1", model.MarketplaceRegular)
	require.NoError(t, err)
	assert.Empty(t, raw)

	require.NoError(t, repo.Save(ctx, "sess-1", model.MarketplaceRegular, "a:1::"))
	require.NoError(t, repo.Save(ctx, "sess-1", model.MarketplaceRegular, "a:2::"))
	require.NoError(t, repo.Save(ctx, "sess-1", model.MarketplaceReferral, "b:1::"))

	raw, err = repo.Get(ctx, "sess-1", model.MarketplaceRegular)
	require.NoError(t, err)
	assert.Equal(t, "a:2::", raw)

	require.NoError(t, repo.Delete(ctx, nil, "sess-1", model.MarketplaceRegular))
	raw, err = repo.Get(ctx, "sess-1", model.MarketplaceRegular)
	require.NoError(t, err)
	assert.Empty(t, raw)

	raw, err = repo.Get(ctx, "sess-1", model.MarketplaceReferral)
	require.NoError(t, err)
	assert.Equal(t, "b:1::", raw)
}

func TestPreferenceRepository(t *testing.T) {
	repo := NewPreferenceRepository(newTestDB(t))
	ctx := context.Background()

	term, err := repo.GetTermPricing(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.TermMonthly, term)

	require.NoError(t, repo.SetTermPricing(ctx, "user-1", model.TermYearly))
	require.NoError(t, repo.SetTermPricing(ctx, "user-1", model.TermYearly))

	term, err = repo.GetTermPricing(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.TermYearly, term)
}

func TestOrderRepository_Transaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.Create(ctx, tx, &model.Order{OrderID: "tx-1", Status: "PAID", UserID: "user-1", Amount: 1500, Currency: "USD"}); err != nil {
			return err
		}
		return repo.CreateOrderItems(ctx, tx, []*model.OrderItem{
			{OrderID: "tx-1", ProductID: 1, Slug: "jetpack-scan", Quantity: 1, Amount: 500, SiteURLs: []string{"https://a.example"}},
			{OrderID: "tx-1", ProductID: 2, Slug: "jetpack-backup-t1", Quantity: 1, Amount: 1000},
		})
	})
	require.NoError(t, err)

	// a failed transaction leaves nothing behind
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := repo.Create(ctx, tx, &model.Order{OrderID: "tx-2", Status: "PAID", UserID: "user-1", Amount: 1, Currency: "USD"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	orders, err := repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 1)

	items, err := repo.GetOrderItems(ctx, "tx-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, []string{"https://a.example"}, items[0].SiteURLs)

	_, err = repo.FindByOrderID(ctx, "tx-2")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestReferralRepository(t *testing.T) {
	repo := NewReferralRepository(newTestDB(t))
	ctx := context.Background()

	issued := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &model.Referral{ID: "ref-1", AgencyID: "agency-1", ClientEmail: "a@example.com"}))
	require.NoError(t, repo.AddPurchase(ctx, &model.Purchase{
		ReferralID:  "ref-1",
		ProductID:   1,
		Quantity:    1,
		Status:      model.PurchaseActive,
		License:     model.License{Key: "key-1", IssuedAt: issued},
		Commissions: &model.Commissions{CurrentQuarter: 3.5},
	}))

	referral, err := repo.Get(ctx, "agency-1", "ref-1")
	require.NoError(t, err)
	require.Len(t, referral.Purchases, 1)
	assert.Equal(t, "key-1", referral.Purchases[0].License.Key)
	assert.True(t, issued.Equal(referral.Purchases[0].License.IssuedAt))
	assert.Nil(t, referral.Purchases[0].License.RevokedAt)
	require.NotNil(t, referral.Purchases[0].Commissions)
	assert.Equal(t, 3.5, referral.Purchases[0].Commissions.CurrentQuarter)

	_, err = repo.Get(ctx, "agency-2", "ref-1")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	list, err := repo.ListByAgency(ctx, "agency-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestChatMessageRepository(t *testing.T) {
	repo := NewChatMessageRepository(newTestDB(t))
	ctx := context.Background()

	for _, content := range []string{"first", "second"} {
		require.NoError(t, repo.Append(ctx, &model.ChatMessage{
			ChatID:  "chat-1",
			Role:    model.RoleUser,
			Type:    model.MessageText,
			Content: content,
			Context: model.MessageContext{Flags: model.MessageFlags{IsErrorMessage: content == "second"}},
		}))
	}
	require.NoError(t, repo.Append(ctx, &model.ChatMessage{ChatID: "chat-2", Role: model.RoleBot, Type: model.MessageText}))

	msgs, err := repo.ListByChat(ctx, "chat-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.True(t, msgs[1].Context.Flags.IsErrorMessage)
}

func TestChatMessageRepository_AppendReplacesSameInternalID(t *testing.T) {
	repo := NewChatMessageRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, &model.ChatMessage{
		ChatID:            "chat-1",
		UserID:            "user-1",
		InternalMessageID: "tmp-1",
		Role:              model.RoleUser,
		Type:              model.MessageText,
		Content:           "hello",
	}))
	require.NoError(t, repo.Append(ctx, &model.ChatMessage{ChatID: "chat-1", Role: model.RoleBot, Type: model.MessageText, Content: "hi"}))
	require.NoError(t, repo.Append(ctx, &model.ChatMessage{
		ChatID:            "chat-1",
		UserID:            "user-1",
		InternalMessageID: "tmp-1",
		ExternalID:        "ext-1",
		Role:              model.RoleUser,
		Type:              model.MessageText,
		Content:           "hello",
	}))

	msgs, err := repo.ListByChat(ctx, "chat-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "ext-1", msgs[0].ExternalID)
	assert.Equal(t, "user-1", msgs[0].UserID)
	assert.Equal(t, "hi", msgs[1].Content)
}

func TestSupportInteractionRepository(t *testing.T) {
	repo := NewSupportInteractionRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.SupportInteraction{ID: "si-1", UserID: "user-1", Status: model.InteractionOpen}))
	require.NoError(t, repo.AddEvent(ctx, "si-1", model.InteractionEvent{Provider: model.ProviderZendesk, ConversationID: "conv-1"}))
	require.NoError(t, repo.UpdateStatus(ctx, "si-1", model.InteractionResolved))

	interaction, err := repo.Get(ctx, "si-1")
	require.NoError(t, err)
	assert.Equal(t, model.InteractionResolved, interaction.Status)
	require.Len(t, interaction.Events, 1)
	assert.Equal(t, "conv-1", interaction.Events[0].ConversationID)

	assert.True(t, errors.Is(repo.UpdateStatus(ctx, "missing", model.InteractionClosed), gorm.ErrRecordNotFound))
	assert.True(t, errors.Is(repo.AddEvent(ctx, "missing", model.InteractionEvent{}), gorm.ErrRecordNotFound))
}

func TestWebhookEventRepository(t *testing.T) {
	repo := NewWebhookEventRepository(newTestDB(t))
	ctx := context.Background()

	fresh, err := repo.MarkProcessed(ctx, "evt-1", "chat.message")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = repo.MarkProcessed(ctx, "evt-1", "chat.message")
	require.NoError(t, err)
	assert.False(t, fresh)

	exists, err := repo.Exists(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "evt-2")
	require.NoError(t, err)
	assert.False(t, exists)
}
