package service

import (
	"context"
	"errors"
	"testing"

	"agency-hub/internal/cart"
	"agency-hub/internal/model"
	"agency-hub/internal/repository"
	apperrors "agency-hub/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type cartFixture struct {
	svc       CartService
	braintree *fakeBraintree
	cartRepo  repository.CartRepository
	prefRepo  repository.PreferenceRepository
	orderRepo repository.OrderRepository
}

func newCartFixture(t *testing.T) (*cartFixture, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	f := &cartFixture{
		braintree: &fakeBraintree{},
		cartRepo:  repository.NewCartRepository(db),
		prefRepo:  repository.NewPreferenceRepository(db),
		orderRepo: repository.NewOrderRepository(db),
	}
	f.svc = NewCartService(db, f.braintree, f.cartRepo, seedProducts(t, db), f.prefRepo, f.orderRepo, zap.NewNop())
	return f, db
}

func TestCartService_AddUpdateRemove(t *testing.T) {
	f, _ := newCartFixture(t)
	ctx := context.Background()

	items, err := f.svc.Add(ctx, "sess-1", model.MarketplaceRegular, cart.Item{
		Slug:     "jetpack-backup-t1",
		Quantity: 1,
		SiteURLs: []string{"https://a.example", "https://b.example:8080/path"},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)

	// the stored cart string round-trips
	items, err = f.svc.Get(ctx, "sess-1", model.MarketplaceRegular)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"https://a.example", "https://b.example:8080/path"}, items[0].SiteURLs)

	// modes keep separate carts
	other, err := f.svc.Get(ctx, "sess-1", model.MarketplaceReferral)
	require.NoError(t, err)
	assert.Empty(t, other)

	items, err = f.svc.UpdateQuantity(ctx, "sess-1", model.MarketplaceRegular, "jetpack-backup-t1", "", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, items[0].Quantity)

	items, err = f.svc.Remove(ctx, "sess-1", model.MarketplaceRegular, "jetpack-backup-t1", "")
	require.NoError(t, err)
	assert.Empty(t, items)

	raw, err := f.cartRepo.Get(ctx, "sess-1", model.MarketplaceRegular)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestCartService_AddUnknownProduct(t *testing.T) {
	f, _ := newCartFixture(t)
	_, err := f.svc.Add(context.Background(), "sess-1", model.MarketplaceRegular, cart.Item{Slug: "nope", Quantity: 1})
	var notFound *apperrors.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestCartService_InvalidSession(t *testing.T) {
	f, _ := newCartFixture(t)
	var validation *apperrors.ErrValidation

	_, err := f.svc.Get(context.Background(), "", model.MarketplaceRegular)
	assert.ErrorAs(t, err, &validation)

	_, err = f.svc.Get(context.Background(), "sess-1", "wholesale")
	assert.ErrorAs(t, err, &validation)
}

func TestCartService_CorruptCartIsDiscarded(t *testing.T) {
	f, _ := newCartFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cartRepo.Save(ctx, "sess-1", model.MarketplaceRegular, "slug-only"))

	items, err := f.svc.Get(ctx, "sess-1", model.MarketplaceRegular)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartService_Quote(t *testing.T) {
	f, _ := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "sess-1", model.MarketplaceReferral, cart.Item{Slug: "jetpack-backup-t1", Quantity: 5})
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, "sess-1", model.MarketplaceReferral, cart.Item{Slug: "wpcom-hosting-business", Quantity: 5, LicenseID: "lic-1"})
	require.NoError(t, err)

	quote, err := f.svc.Quote(ctx, "user-1", "sess-1", model.MarketplaceReferral)
	require.NoError(t, err)

	require.Len(t, quote.Lines, 2)
	assert.Equal(t, "USD", quote.Currency)
	assert.True(t, quote.Lines[0].Bundled)
	assert.Equal(t, int64(2010), quote.Lines[0].ProductID)
	assert.Equal(t, "lic-1", quote.Lines[1].LicenseID)
	assert.Equal(t, int64(5000+20000), quote.Subtotal)
	assert.Equal(t, int64(4000+15000), quote.Total)
}

func TestCartService_Checkout(t *testing.T) {
	f, _ := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "sess-1", model.MarketplaceRegular, cart.Item{Slug: "jetpack-backup-t1", Quantity: 1, SiteURLs: []string{"https://a.example"}})
	require.NoError(t, err)

	resp, err := f.svc.Checkout(ctx, "user-1", "sess-1", model.MarketplaceRegular, "fake-valid-nonce")
	require.NoError(t, err)

	assert.Equal(t, "bt-tx-1", resp.OrderID)
	assert.Equal(t, "10.00", resp.Amount)
	require.Len(t, f.braintree.charged, 1)
	assert.Equal(t, "10.00", f.braintree.charged[0].StringFixed(2))

	order, items, err := f.svc.GetOrder(ctx, "user-1", "bt-tx-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), order.Amount)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"https://a.example"}, items[0].SiteURLs)

	remaining, err := f.svc.Get(ctx, "sess-1", model.MarketplaceRegular)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, _, err = f.svc.GetOrder(ctx, "someone-else", "bt-tx-1")
	var notFound *apperrors.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestCartService_CheckoutDeclinedKeepsCart(t *testing.T) {
	f, _ := newCartFixture(t)
	ctx := context.Background()
	f.braintree.err = errors.New("processor declined")

	_, err := f.svc.Add(ctx, "sess-1", model.MarketplaceRegular, cart.Item{Slug: "jetpack-backup-t1", Quantity: 1})
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, "user-1", "sess-1", model.MarketplaceRegular, "fake-nonce")
	require.Error(t, err)

	items, err := f.svc.Get(ctx, "sess-1", model.MarketplaceRegular)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	orders, err := f.svc.ListOrders(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCartService_CheckoutEmptyCart(t *testing.T) {
	f, _ := newCartFixture(t)
	_, err := f.svc.Checkout(context.Background(), "user-1", "sess-1", model.MarketplaceRegular, "nonce")
	var validation *apperrors.ErrValidation
	assert.ErrorAs(t, err, &validation)
	assert.Empty(t, f.braintree.charged)
}
