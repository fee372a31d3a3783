package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client provides profile-scoped Redis operations for local storefront state.
// All keys and channels are automatically namespaced with the profile name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
//
// Two processes mutating the same profile's guest cart race at the storage
// layer: each mutation is a single atomic hash write and the last write wins.
// No cross-process lock is taken.
type Client struct {
	rdb     *redis.Client
	profile string
}

// NewClient creates a new storefront state client for the specified profile.
// The client automatically namespaces all keys and channels with the profile name.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - profile: storefront profile identifier (must not be empty)
//
// Returns an error if profile is empty.
func NewClient(redisOpts *redis.Options, profile string) (*Client, error) {
	if profile == "" {
		return nil, fmt.Errorf("profile name cannot be empty")
	}

	return &Client{
		rdb:     redis.NewClient(redisOpts),
		profile: profile,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
// Returns an error if Redis is not reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// AddGuestItem adds quantity of a variant to the guest cart. If an entry for
// the variant already exists its quantity increases by qty; otherwise a new
// entry is appended. Publishes the updated cart snapshot after the write.
func (c *Client) AddGuestItem(ctx context.Context, variantID string, qty int) error {
	if variantID == "" {
		return fmt.Errorf("variant ID cannot be empty")
	}
	if qty <= 0 {
		return fmt.Errorf("quantity must be > 0, got %d", qty)
	}

	key := GuestCartKey(c.profile)

	rec := guestRecord{Quantity: qty, AddedAtMs: time.Now().UnixMilli()}
	existing, err := c.rdb.HGet(ctx, key, variantID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read guest cart entry: %w", err)
	}
	if err == nil {
		prev, decodeErr := decodeGuestRecord(existing)
		if decodeErr != nil {
			return decodeErr
		}
		rec.Quantity = prev.Quantity + qty
		rec.AddedAtMs = prev.AddedAtMs
	}

	value, err := encodeGuestRecord(rec)
	if err != nil {
		return err
	}
	if err := c.rdb.HSet(ctx, key, variantID, value).Err(); err != nil {
		return fmt.Errorf("failed to write guest cart entry: %w", err)
	}

	return c.publishGuestCart(ctx)
}

// UpdateGuestItem overwrites the quantity of an existing guest cart entry
// (not summed). A qty <= 0 removes the entry. Updating a variant that is not
// in the cart is a no-op — no new entry is created.
func (c *Client) UpdateGuestItem(ctx context.Context, variantID string, qty int) error {
	if variantID == "" {
		return fmt.Errorf("variant ID cannot be empty")
	}

	key := GuestCartKey(c.profile)

	existing, err := c.rdb.HGet(ctx, key, variantID).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read guest cart entry: %w", err)
	}

	if qty <= 0 {
		if err := c.rdb.HDel(ctx, key, variantID).Err(); err != nil {
			return fmt.Errorf("failed to remove guest cart entry: %w", err)
		}
		return c.publishGuestCart(ctx)
	}

	prev, err := decodeGuestRecord(existing)
	if err != nil {
		return err
	}
	value, err := encodeGuestRecord(guestRecord{Quantity: qty, AddedAtMs: prev.AddedAtMs})
	if err != nil {
		return err
	}
	if err := c.rdb.HSet(ctx, key, variantID, value).Err(); err != nil {
		return fmt.Errorf("failed to update guest cart entry: %w", err)
	}

	return c.publishGuestCart(ctx)
}

// RemoveGuestItem removes a variant from the guest cart.
// Removing a variant that is not in the cart is a no-op.
func (c *Client) RemoveGuestItem(ctx context.Context, variantID string) error {
	if variantID == "" {
		return fmt.Errorf("variant ID cannot be empty")
	}

	key := GuestCartKey(c.profile)
	if err := c.rdb.HDel(ctx, key, variantID).Err(); err != nil {
		return fmt.Errorf("failed to remove guest cart entry: %w", err)
	}

	return c.publishGuestCart(ctx)
}

// ClearGuestCart removes all entries from the guest cart.
func (c *Client) ClearGuestCart(ctx context.Context) error {
	key := GuestCartKey(c.profile)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear guest cart: %w", err)
	}

	return c.publishGuestCart(ctx)
}

// GuestItems retrieves all guest cart entries in insertion order.
// Returns an empty slice if the cart is empty (not an error).
func (c *Client) GuestItems(ctx context.Context) ([]GuestCartItem, error) {
	key := GuestCartKey(c.profile)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}

	type ordered struct {
		item    GuestCartItem
		addedAt int64
	}
	entries := make([]ordered, 0, len(hashData))
	for variantID, value := range hashData {
		rec, err := decodeGuestRecord(value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ordered{
			item:    GuestCartItem{ProductVariantID: variantID, Quantity: rec.Quantity},
			addedAt: rec.AddedAtMs,
		})
	}

	// Insertion order, variant ID as tie-breaker for same-millisecond adds
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].addedAt != entries[j].addedAt {
			return entries[i].addedAt < entries[j].addedAt
		}
		return entries[i].item.ProductVariantID < entries[j].item.ProductVariantID
	})

	items := make([]GuestCartItem, len(entries))
	for i, e := range entries {
		items[i] = e.item
	}
	return items, nil
}

// SaveSession persists the auth session for this profile.
// The full session is replaced on every save.
func (c *Client) SaveSession(ctx context.Context, s *Session) error {
	if s == nil {
		return fmt.Errorf("session cannot be nil")
	}

	key := SessionKey(c.profile)
	if err := c.rdb.HSet(ctx, key, SessionToHash(s)).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession retrieves the persisted auth session.
// Returns (nil, redis.Nil) if no session is stored.
// Use IsNotFound() to check for not-found errors.
func (c *Client) LoadSession(ctx context.Context) (*Session, error) {
	key := SessionKey(c.profile)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	return HashToSession(hashData), nil
}

// ClearSession removes the persisted auth session.
func (c *Client) ClearSession(ctx context.Context) error {
	key := SessionKey(c.profile)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// publishGuestCart publishes the full guest cart snapshot to the profile's
// cart events channel after a successful mutation.
func (c *Client) publishGuestCart(ctx context.Context) error {
	items, err := c.GuestItems(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal guest cart for event: %w", err)
	}

	channel := GuestCartEventsChannel(c.profile)
	if err := c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish guest cart event: %w", err)
	}
	return nil
}

// CartSubscription represents an active Pub/Sub subscription to guest cart
// change events. Caller must call Close() when done to clean up resources.
// Each event is the full cart snapshot after a mutation.
type CartSubscription struct {
	events <-chan []GuestCartItem
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of cart snapshots.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *CartSubscription) Events() <-chan []GuestCartItem {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors include JSON unmarshaling failures and other non-fatal issues.
// The subscription continues after errors - messages are skipped.
func (s *CartSubscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *CartSubscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeGuestCartEvents subscribes to guest cart change events for this
// profile. Returns a CartSubscription that delivers full cart snapshots.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Events are delivered on a buffered channel (size 10) to prevent blocking.
// If the subscriber is too slow, events may be dropped by Redis Pub/Sub
// (at-most-once delivery).
func (c *Client) SubscribeGuestCartEvents(ctx context.Context) (*CartSubscription, error) {
	channel := GuestCartEventsChannel(c.profile)
	pubsub := c.rdb.Subscribe(ctx, channel)

	eventsChan := make(chan []GuestCartItem, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var items []GuestCartItem
				if err := json.Unmarshal([]byte(msg.Payload), &items); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal guest cart event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- items:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &CartSubscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
// Use this to check if LoadSession returned "not found".
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
