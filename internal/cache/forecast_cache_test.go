package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/backend-go/internal/config"
	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

func TestBuildForecastListKey(t *testing.T) {
	id := int64(42)

	all := buildForecastListKey(domain.ForecastFilter{Page: 1, PageSize: 50})
	scoped := buildForecastListKey(domain.ForecastFilter{ProductID: &id, Page: 2, PageSize: 10})

	assert.Equal(t, "forecast:list:all:page=1:size=50", all)
	assert.Equal(t, "forecast:list:product=42:page=2:size=10", scoped)
	assert.True(t, strings.HasPrefix(scoped, productKeyPrefix(id)))
	assert.False(t, strings.HasPrefix(all, productKeyPrefix(id)))
}

func TestProductKeyPrefixDoesNotCollide(t *testing.T) {
	// product 4 must not match keys for product 42
	assert.False(t, strings.HasPrefix(productKeyPrefix(42), productKeyPrefix(4)))
}

func TestNewForecastCacheDisabledIsNoop(t *testing.T) {
	c, err := NewForecastCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	page, ok, err := c.GetList(ctx, domain.ForecastFilter{})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, page)
	assert.NoError(t, c.SetList(ctx, domain.ForecastFilter{}, &ForecastPage{}))
	assert.NoError(t, c.InvalidateProduct(ctx, 1))
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions(config.CacheConfig{RedisURL: "redis://:secret@cache:6380/2"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = redisOptions(config.CacheConfig{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	_, err = redisOptions(config.CacheConfig{RedisURL: "://bad"})
	assert.Error(t, err)
}

func TestForecastTTL(t *testing.T) {
	assert.Equal(t, defaultForecastTTL, forecastTTL(config.CacheConfig{}))
	assert.Equal(t, 90*time.Second, forecastTTL(config.CacheConfig{ForecastTTLSeconds: 90}))
}
