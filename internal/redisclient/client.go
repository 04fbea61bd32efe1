package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"checkout-service/internal/models"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/set_cart_item.lua
var setCartItemScript string

const catalogKey = "catalog:products"

var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrUnknownToken = errors.New("unknown auth token")
)

type Client struct {
	rdb        *redis.Client
	cartScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewWithRedis(rdb), nil
}

// NewWithRedis wraps an existing connection
func NewWithRedis(rdb *redis.Client) *Client {
	return &Client{
		rdb:        rdb,
		cartScript: redis.NewScript(setCartItemScript),
	}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

// GetCart returns the user's cart, empty when none is stored
func (c *Client) GetCart(ctx context.Context, userID string) (models.Cart, error) {
	raw, err := c.rdb.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	cart := models.Cart{}
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return cart, nil
}

// SaveCart replaces the user's cart. An empty cart removes the key.
func (c *Client) SaveCart(ctx context.Context, userID string, cart models.Cart) error {
	if cart.Count() == 0 {
		return c.ClearCart(ctx, userID)
	}

	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cartKey(userID), raw, 0).Err()
}

// SetCartItem atomically sets one variant's quantity using Lua script.
// A quantity of zero or less removes the variant.
func (c *Client) SetCartItem(ctx context.Context, userID, productID, size string, quantity int) error {
	_, err := c.cartScript.Run(ctx, c.rdb, []string{cartKey(userID)}, productID, size, quantity).Result()
	if err != nil {
		return fmt.Errorf("set cart item script failed: %w", err)
	}
	return nil
}

// ClearCart removes the user's cart
func (c *Client) ClearCart(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, cartKey(userID)).Err()
}

// StoreToken binds an auth token to a user id
func (c *Client) StoreToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("auth:%s", token), userID, ttl).Err()
}

// UserForToken resolves an auth token to the user id it was issued for
func (c *Client) UserForToken(ctx context.Context, token string) (string, error) {
	userID, err := c.rdb.Get(ctx, fmt.Sprintf("auth:%s", token)).Result()
	if errors.Is(err, redis.Nil) || (err == nil && userID == "") {
		return "", ErrUnknownToken
	}
	return userID, err
}

// GetCachedProducts returns the cached catalog or ErrCacheMiss
func (c *Client) GetCachedProducts(ctx context.Context) ([]models.Product, error) {
	raw, err := c.rdb.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode cached catalog: %w", err)
	}
	return products, nil
}

// CacheProducts stores the catalog with TTL
func (c *Client) CacheProducts(ctx context.Context, products []models.Product, ttl time.Duration) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, catalogKey, raw, ttl).Err()
}

// InvalidateProducts drops the cached catalog
func (c *Client) InvalidateProducts(ctx context.Context) error {
	return c.rdb.Del(ctx, catalogKey).Err()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
