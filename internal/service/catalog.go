package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/set-night/boostbot/internal/config"
	"github.com/set-night/boostbot/internal/domain"
	"github.com/shopspring/decimal"
)

// CatalogService keeps the price list in memory and writes changes through
// to the store.
type CatalogService struct {
	store CatalogStore

	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store, prices: make(map[string]decimal.Decimal)}
}

// Load seeds missing services and fills the cache from the store.
func (c *CatalogService) Load(ctx context.Context, seed []domain.Service) error {
	if err := c.store.SeedServices(ctx, seed); err != nil {
		return fmt.Errorf("seed services: %w", err)
	}
	services, err := c.store.ListServices(ctx)
	if err != nil {
		return fmt.Errorf("list services: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(services))
	for _, svc := range services {
		prices[svc.ID] = svc.PricePerThousand
	}

	c.mu.Lock()
	c.prices = prices
	c.mu.Unlock()
	return nil
}

func (c *CatalogService) GetPrice(serviceID string) (decimal.Decimal, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	price, ok := c.prices[serviceID]
	if !ok {
		return decimal.Zero, domain.ErrServiceNotFound
	}
	return price, nil
}

// SetPrice persists the new price first and updates the cache only on success.
func (c *CatalogService) SetPrice(ctx context.Context, serviceID string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return domain.ErrInvalidAmount
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.prices[serviceID]; !ok {
		return domain.ErrServiceNotFound
	}
	if err := c.store.UpdateServicePrice(ctx, serviceID, price); err != nil {
		return fmt.Errorf("update service price: %w", err)
	}
	c.prices[serviceID] = price
	return nil
}

// List returns the catalog ordered by service id.
func (c *CatalogService) List() []domain.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()

	services := make([]domain.Service, 0, len(c.prices))
	for id, price := range c.prices {
		services = append(services, domain.Service{ID: id, PricePerThousand: price})
	}
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services
}

// ListByPlatform returns the services of one platform ordered by id.
func (c *CatalogService) ListByPlatform(p domain.Platform) []domain.Service {
	var out []domain.Service
	for _, svc := range c.List() {
		if svc.Platform() == p {
			out = append(out, svc)
		}
	}
	return out
}

// Quote prices quantity units of serviceID, rounding up to the cent.
func (c *CatalogService) Quote(serviceID string, quantity int64) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, domain.ErrInvalidQuantity
	}
	price, err := c.GetPrice(serviceID)
	if err != nil {
		return decimal.Zero, err
	}
	return Cost(price, quantity), nil
}

// Cost is price per thousand units times quantity, rounded up to 2 places.
func Cost(pricePerThousand decimal.Decimal, quantity int64) decimal.Decimal {
	return pricePerThousand.
		Mul(decimal.NewFromInt(quantity)).
		Div(decimal.NewFromInt(config.PriceUnit)).
		RoundCeil(2)
}
