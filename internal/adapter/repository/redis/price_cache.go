package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iho/stockroyale/internal/domain"
)

// PriceCache implements usecase.PriceCache using Redis.
type PriceCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type cachedPrice struct {
	StockID      string          `json:"stock_id"`
	SharesTraded int64           `json:"shares_traded"`
	Price        decimal.Decimal `json:"price"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewPriceCache creates a new PriceCache. Entries expire after ttl.
func NewPriceCache(client *redis.Client, ttl time.Duration) *PriceCache {
	return &PriceCache{
		client: client,
		prefix: "price:",
		ttl:    ttl,
	}
}

// Get returns the cached price, or nil on a miss.
func (c *PriceCache) Get(ctx context.Context, stockID string) (*domain.AveragePrice, error) {
	raw, err := c.client.Get(ctx, c.prefix+stockID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cp cachedPrice
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, err
	}

	return &domain.AveragePrice{
		StockID:      cp.StockID,
		SharesTraded: cp.SharesTraded,
		Price:        cp.Price,
		UpdatedAt:    cp.UpdatedAt,
	}, nil
}

// Set stores a price with the cache TTL.
func (c *PriceCache) Set(ctx context.Context, price *domain.AveragePrice) error {
	raw, err := json.Marshal(cachedPrice{
		StockID:      price.StockID,
		SharesTraded: price.SharesTraded,
		Price:        price.Price,
		UpdatedAt:    price.UpdatedAt,
	})
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.prefix+price.StockID, raw, c.ttl).Err()
}

// Invalidate removes a cached price.
func (c *PriceCache) Invalidate(ctx context.Context, stockID string) error {
	return c.client.Del(ctx, c.prefix+stockID).Err()
}
