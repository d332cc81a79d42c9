package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/set-night/boostbot/internal/domain"
	"github.com/set-night/boostbot/internal/repository/memory"
	"github.com/set-night/boostbot/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServices(t *testing.T) (*memory.Store, *service.BalanceService, *service.CatalogService, *service.OrderService) {
	t.Helper()
	store := memory.NewStore()
	catalog := service.NewCatalogService(store)
	require.NoError(t, catalog.Load(context.Background(), domain.DefaultCatalog()))
	return store, service.NewBalanceService(store), catalog, service.NewOrderService(store, catalog)
}

func TestCreditRejectsNonPositive(t *testing.T) {
	_, balances, _, _ := newServices(t)
	ctx := context.Background()

	_, err := balances.Credit(ctx, 1, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = balances.Credit(ctx, 1, decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = balances.Credit(ctx, 1, decimal.RequireFromString("0.001"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	balance, err := balances.Credit(ctx, 1, decimal.RequireFromString("50.005"))
	require.NoError(t, err)
	assert.Equal(t, "50.01", balance.StringFixed(2))
}

func TestBalanceLinearizablePerUser(t *testing.T) {
	_, balances, _, _ := newServices(t)
	ctx := context.Background()

	deltas := []string{"10", "-3.25", "7.10", "-1", "2.15"}
	const rounds = 40

	var wg sync.WaitGroup
	for r := 0; r < rounds; r++ {
		for _, d := range deltas {
			wg.Add(1)
			go func(d decimal.Decimal) {
				defer wg.Done()
				// a debit may run before the credits covering it
				for {
					_, err := balances.AdjustBalance(ctx, 1, d, "test")
					if err == nil {
						return
					}
				}
			}(decimal.RequireFromString(d))
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = balances.AdjustBalance(ctx, 2, decimal.NewFromInt(1), "other user")
		}()
	}
	wg.Wait()

	b1, err := balances.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "600.00", b1.StringFixed(2))

	b2, err := balances.GetBalance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "40.00", b2.StringFixed(2))
}

func TestQuote(t *testing.T) {
	_, _, catalog, _ := newServices(t)

	cost, err := catalog.Quote(domain.ServiceTikTokLike, 3000)
	require.NoError(t, err)
	assert.Equal(t, "4.50", cost.StringFixed(2))

	cost, err = catalog.Quote(domain.ServiceTelegramView, 1)
	require.NoError(t, err)
	assert.Equal(t, "0.01", cost.StringFixed(2), "fractions of a cent round up")

	_, err = catalog.Quote("facebook_like", 1000)
	assert.ErrorIs(t, err, domain.ErrServiceNotFound)
	_, err = catalog.Quote(domain.ServiceTikTokLike, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestSetPriceRoundTrip(t *testing.T) {
	store, _, catalog, _ := newServices(t)
	ctx := context.Background()

	require.NoError(t, catalog.SetPrice(ctx, domain.ServiceTikTokLike, decimal.RequireFromString("2.00")))

	cost, err := catalog.Quote(domain.ServiceTikTokLike, 1000)
	require.NoError(t, err)
	assert.Equal(t, "2.00", cost.StringFixed(2))

	// survives a reload from the store
	reloaded := service.NewCatalogService(store)
	require.NoError(t, reloaded.Load(ctx, domain.DefaultCatalog()))
	price, err := reloaded.GetPrice(domain.ServiceTikTokLike)
	require.NoError(t, err)
	assert.Equal(t, "2.00", price.StringFixed(2))

	assert.ErrorIs(t, catalog.SetPrice(ctx, domain.ServiceTikTokLike, decimal.Zero), domain.ErrInvalidAmount)
	assert.ErrorIs(t, catalog.SetPrice(ctx, "unknown", decimal.NewFromInt(1)), domain.ErrServiceNotFound)
}

func TestListByPlatform(t *testing.T) {
	_, _, catalog, _ := newServices(t)

	telegram := catalog.ListByPlatform(domain.PlatformTelegram)
	require.Len(t, telegram, 2)
	assert.Equal(t, domain.ServiceTelegramSubscriber, telegram[0].ID)
	assert.Equal(t, domain.ServiceTelegramView, telegram[1].ID)
	assert.Len(t, catalog.List(), 8)
}

func TestPlaceOrder(t *testing.T) {
	_, balances, _, orders := newServices(t)
	ctx := context.Background()
	cost := decimal.RequireFromString("4.50")

	_, _, err := orders.Place(ctx, 1, domain.ServiceTikTokLike, 3000, "https://tiktok.com/@x", cost)
	var ibe *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &ibe)
	assert.Equal(t, "4.50", ibe.Shortfall().StringFixed(2))

	_, err = balances.Credit(ctx, 1, decimal.NewFromInt(10))
	require.NoError(t, err)

	order, balance, err := orders.Place(ctx, 1, domain.ServiceTikTokLike, 3000, "https://tiktok.com/@x", cost)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "5.50", balance.StringFixed(2))

	_, _, err = orders.Place(ctx, 1, "unknown", 3000, "https://tiktok.com/@x", cost)
	assert.ErrorIs(t, err, domain.ErrServiceNotFound)
	_, _, err = orders.Place(ctx, 1, domain.ServiceTikTokLike, 0, "https://tiktok.com/@x", cost)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestConcurrentOrdersNeverOverdraw(t *testing.T) {
	_, balances, _, orders := newServices(t)
	ctx := context.Background()
	_, err := balances.Credit(ctx, 1, decimal.NewFromInt(10))
	require.NoError(t, err)

	cost := decimal.RequireFromString("4.50")
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		placed int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, balance, err := orders.Place(ctx, 1, domain.ServiceTikTokLike, 3000, "https://tiktok.com/@x", cost)
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
				return
			}
			assert.False(t, balance.IsNegative())
			mu.Lock()
			placed++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, placed)
	balance, err := balances.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "1.00", balance.StringFixed(2))

	list, err := orders.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCompleteIsIdempotent(t *testing.T) {
	_, balances, _, orders := newServices(t)
	ctx := context.Background()
	_, _ = balances.Credit(ctx, 1, decimal.NewFromInt(10))
	order, _, err := orders.Place(ctx, 1, domain.ServiceTikTokView, 1000, "https://tiktok.com/@x", decimal.RequireFromString("0.50"))
	require.NoError(t, err)

	completed, changed, err := orders.Complete(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, completed.IsCompleted())

	again, changed, err := orders.Complete(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, again.IsCompleted())

	_, _, err = orders.SetStatus(ctx, order.ID, domain.OrderStatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	_, _, err = orders.Complete(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestRelay(t *testing.T) {
	store := memory.NewStore()
	relay := service.NewRelayService(store)
	ctx := context.Background()

	require.NoError(t, relay.Record(ctx, 42, 1001))
	userID, err := relay.Resolve(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	_, err = relay.Resolve(ctx, 1002)
	assert.ErrorIs(t, err, domain.ErrMappingNotFound)

	n, err := relay.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = relay.Resolve(ctx, 1001)
	assert.NoError(t, err)
}
