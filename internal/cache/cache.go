// Package cache keeps read-mostly listing data in redis. Every call goes
// through a circuit breaker so an unavailable redis degrades to cache misses
// instead of slowing every request down.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/xtrntr/ihome/internal/models"
)

const (
	areaKey  = "area_info"
	indexKey = "home_page_data"

	AreaTTL        = time.Hour
	HouseDetailTTL = 2 * time.Hour
	IndexTTL       = 2 * time.Hour
)

func houseKey(houseID int) string {
	return fmt.Sprintf("house_info_%d", houseID)
}

// Cache is a redis-backed cache for areas, house details and the home index
type Cache struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
	logger *logrus.Logger
}

// NewClient creates a redis client; connections are made lazily
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// New wraps client with a circuit breaker that opens after three consecutive
// failures and probes again after breakerTimeout
func New(client *redis.Client, breakerTimeout time.Duration, logger *logrus.Logger) *Cache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Cache{
		client: client,
		cb:     newBreaker("redis", breakerTimeout, logger),
		logger: logger,
	}
}

func newBreaker(name string, timeout time.Duration, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		Interval:    0,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("Circuit breaker changed state")
		},
		// a missing key is an answer, not a failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
	})
}

// Close closes the redis client
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks that redis answers
func (c *Cache) Ping(ctx context.Context) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Ping(ctx).Err()
	})
	return err
}

// get decodes the JSON value under key into dst. A missing key reports
// found == false without an error.
func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, key).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(v.([]byte), dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, key, data, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) del(ctx context.Context, keys ...string) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to delete %v: %w", keys, err)
	}
	return nil
}

// GetHouseDetail returns the cached detail of a house
func (c *Cache) GetHouseDetail(ctx context.Context, houseID int) (*models.HouseDetail, bool, error) {
	var d models.HouseDetail
	ok, err := c.get(ctx, houseKey(houseID), &d)
	if !ok || err != nil {
		return nil, false, err
	}
	return &d, true, nil
}

// SetHouseDetail caches the detail of a house
func (c *Cache) SetHouseDetail(ctx context.Context, d *models.HouseDetail) error {
	return c.set(ctx, houseKey(d.ID), d, HouseDetailTTL)
}

// Invalidate drops the cached detail of a house and the home index it may
// appear in
func (c *Cache) Invalidate(ctx context.Context, houseID int) error {
	return c.del(ctx, houseKey(houseID), indexKey)
}

// GetAreas returns the cached area list
func (c *Cache) GetAreas(ctx context.Context) ([]models.Area, bool, error) {
	var areas []models.Area
	ok, err := c.get(ctx, areaKey, &areas)
	return areas, ok, err
}

// SetAreas caches the area list
func (c *Cache) SetAreas(ctx context.Context, areas []models.Area) error {
	return c.set(ctx, areaKey, areas, AreaTTL)
}

// GetIndex returns the cached home page houses
func (c *Cache) GetIndex(ctx context.Context) ([]models.House, bool, error) {
	var houses []models.House
	ok, err := c.get(ctx, indexKey, &houses)
	return houses, ok, err
}

// SetIndex caches the home page houses
func (c *Cache) SetIndex(ctx context.Context, houses []models.House) error {
	return c.set(ctx, indexKey, houses, IndexTTL)
}
