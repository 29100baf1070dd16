package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/demandcast/backend-go/internal/config"
	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

const (
	forecastListKeyPrefix = "forecast:list"
	forecastScanBatchSize = 100
)

// ForecastPage is a cached page of stored forecasts.
type ForecastPage struct {
	Items []domain.Forecast `json:"items"`
	Total int               `json:"total"`
}

// ForecastCache caches stored-forecast list reads.
type ForecastCache interface {
	GetList(ctx context.Context, filter domain.ForecastFilter) (*ForecastPage, bool, error)
	SetList(ctx context.Context, filter domain.ForecastFilter, page *ForecastPage) error
	// InvalidateProduct drops cached pages for one product and the unfiltered pages.
	InvalidateProduct(ctx context.Context, productID int64) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, err := dialRedis(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    forecastTTL(cfg),
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetList(ctx context.Context, filter domain.ForecastFilter) (*ForecastPage, bool, error) {
	key := buildForecastListKey(filter)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var page ForecastPage
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, false, fmt.Errorf("decode forecast list cache: %w", err)
	}

	return &page, true, nil
}

func (c *redisForecastCache) SetList(ctx context.Context, filter domain.ForecastFilter, page *ForecastPage) error {
	key := buildForecastListKey(filter)
	payload, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode forecast list cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateProduct(ctx context.Context, productID int64) error {
	if err := unlinkPrefix(ctx, c.client, productKeyPrefix(productID), forecastScanBatchSize); err != nil {
		return err
	}
	return unlinkPrefix(ctx, c.client, forecastListKeyPrefix+":all:", forecastScanBatchSize)
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return unlinkPrefix(ctx, c.client, forecastListKeyPrefix, forecastScanBatchSize)
}

func (n *noopForecastCache) GetList(ctx context.Context, filter domain.ForecastFilter) (*ForecastPage, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetList(ctx context.Context, filter domain.ForecastFilter, page *ForecastPage) error {
	return nil
}

func (n *noopForecastCache) InvalidateProduct(ctx context.Context, productID int64) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildForecastListKey(filter domain.ForecastFilter) string {
	scope := forecastListKeyPrefix + ":all:"
	if filter.ProductID != nil {
		scope = productKeyPrefix(*filter.ProductID)
	}
	return fmt.Sprintf("%spage=%d:size=%d", scope, filter.Page, filter.PageSize)
}

func productKeyPrefix(productID int64) string {
	return forecastListKeyPrefix + ":product=" + strconv.FormatInt(productID, 10) + ":"
}
