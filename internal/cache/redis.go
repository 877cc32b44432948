package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/Domenick1991/flightticket/config"
	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	flightsKey    = "cache:flights"
	flightsGenKey = "cache:flights:gen"
	citiesKey     = "cache:cities"
)

// RedisCache keeps read-mostly listings. A miss is reported as (nil, nil).
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg config.RedisConfig, ttl time.Duration) *RedisCache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), ttl)
}

func NewWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// GetFlights returns the cached listing for the current generation together
// with that generation. Callers that miss pass the generation back to
// SetFlights, so a listing read before an invalidation is never served after it.
func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, int64, error) {
	gen, err := c.flightsGeneration(ctx)
	if err != nil {
		return nil, 0, err
	}

	var flights []domain.Flight
	ok, err := c.get(ctx, flightsGenerationKey(gen), &flights)
	if err != nil || !ok {
		return nil, gen, err
	}
	return flights, gen, nil
}

// SetFlights stores the listing under generation gen. After an invalidation
// that key is no longer read and expires with the TTL.
func (c *RedisCache) SetFlights(ctx context.Context, gen int64, flights []domain.Flight) error {
	return c.set(ctx, flightsGenerationKey(gen), flights)
}

// InvalidateFlights moves readers to a new generation.
func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Incr(ctx, flightsGenKey).Err()
}

func (c *RedisCache) flightsGeneration(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, flightsGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func flightsGenerationKey(gen int64) string {
	return flightsKey + ":" + strconv.FormatInt(gen, 10)
}

func (c *RedisCache) GetCities(ctx context.Context) ([]domain.City, error) {
	var cities []domain.City
	ok, err := c.get(ctx, citiesKey, &cities)
	if err != nil || !ok {
		return nil, err
	}
	return cities, nil
}

func (c *RedisCache) SetCities(ctx context.Context, cities []domain.City) error {
	return c.set(ctx, citiesKey, cities)
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}
