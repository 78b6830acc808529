package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/domain/order"
	"github.com/akulagin/fulfillment/internal/metrics"
)

type OrderRepository interface {
	ListOpen(ctx context.Context) ([]*order.Order, error)
}

// OrderCache keeps open (non-terminal) orders in memory for the read path.
// Terminal orders are evicted on Set.
type OrderCache struct {
	mu     sync.RWMutex
	cache  map[uuid.UUID]*order.Order
	repo   OrderRepository
	logger *zap.Logger
}

func NewOrderCache(repo OrderRepository, logger *zap.Logger) *OrderCache {
	return &OrderCache{
		cache:  make(map[uuid.UUID]*order.Order),
		repo:   repo,
		logger: logger,
	}
}

func (c *OrderCache) LoadInitialData(ctx context.Context) error {
	orders, err := c.repo.ListOpen(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range orders {
		copied := *o
		c.cache[o.ID] = &copied
	}
	metrics.OrderCacheItems.Set(float64(len(c.cache)))
	c.logger.Info("order cache warmed", zap.Int("orders", len(c.cache)))
	return nil
}

func (c *OrderCache) Get(orderID uuid.UUID) (*order.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, found := c.cache[orderID]
	if !found {
		return nil, false
	}
	copied := *o
	return &copied, true
}

func (c *OrderCache) Set(o *order.Order) {
	if o.Status.Terminal() {
		c.Delete(o.ID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *o
	c.cache[o.ID] = &copied
	metrics.OrderCacheItems.Set(float64(len(c.cache)))
}

func (c *OrderCache) Delete(orderID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.cache[orderID]; found {
		delete(c.cache, orderID)
		metrics.OrderCacheItems.Set(float64(len(c.cache)))
	}
}
