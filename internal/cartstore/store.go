// Package cartstore mirrors the authenticated, server-owned cart. Every
// remote mutation follows one pattern: mark loading, perform the call, and on
// success replace the whole cart snapshot from the response. A failed call
// records a human-readable message and leaves the last known-good snapshot
// untouched - partial updates never happen.
package cartstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/aethershop/aether/internal/api"
	"github.com/aethershop/aether/pkg/storefront"
)

// Store is the client-side view of the authenticated cart. It is safe for
// concurrent use.
//
// Overlapping requests are guarded by a generation counter: each issued
// request takes the next generation, and a response is applied only while its
// generation is still the latest. A slow early response can therefore never
// overwrite the result of a later mutation.
type Store struct {
	api *api.Client
	log *logrus.Entry

	mu         sync.Mutex
	cart       *storefront.Cart
	loading    bool
	errMsg     string
	generation uint64
}

// New creates a cart store over the API client.
func New(apiClient *api.Client, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.New()
	}
	return &Store{
		api: apiClient,
		log: log.WithField("component", "cartstore"),
	}
}

// Cart returns a copy of the last known-good cart, or nil before the first
// successful fetch.
func (s *Store) Cart() *storefront.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return nil
	}
	clone := *s.cart
	clone.Items = append([]storefront.CartItem{}, s.cart.Items...)
	return &clone
}

// Loading reports whether a request is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the message recorded by the last failed operation, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Reset drops all cart state, for use on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
	s.loading = false
	s.errMsg = ""
	s.generation++
}

// Fetch loads the server cart.
func (s *Store) Fetch(ctx context.Context) error {
	return s.run("Failed to load cart", func() (*storefront.Cart, error) {
		return s.api.GetCart(ctx)
	})
}

// Add adds a variant to the cart.
func (s *Store) Add(ctx context.Context, variantID string, qty int) error {
	return s.run("Failed to add item to cart", func() (*storefront.Cart, error) {
		return s.api.AddItem(ctx, api.AddItemRequest{ProductVariantID: variantID, Quantity: qty})
	})
}

// Update changes a cart item's quantity.
func (s *Store) Update(ctx context.Context, itemID string, qty int) error {
	return s.run("Failed to update cart item", func() (*storefront.Cart, error) {
		return s.api.UpdateItem(ctx, itemID, api.UpdateItemRequest{Quantity: qty})
	})
}

// Set changes a cart item's quantity, removing the line when qty drops to
// zero or below. The API rejects zero-quantity updates, so removal goes
// through the delete endpoint, matching the guest cart's update semantics.
func (s *Store) Set(ctx context.Context, itemID string, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, itemID)
	}
	return s.Update(ctx, itemID, qty)
}

// Remove deletes a cart item.
func (s *Store) Remove(ctx context.Context, itemID string) error {
	return s.run("Failed to remove item from cart", func() (*storefront.Cart, error) {
		return s.api.RemoveItem(ctx, itemID)
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	return s.run("Failed to clear cart", func() (*storefront.Cart, error) {
		return s.api.ClearCart(ctx)
	})
}

// Merge folds guest cart items into the server cart.
func (s *Store) Merge(ctx context.Context, items []storefront.GuestCartItem) error {
	return s.run("Failed to merge cart", func() (*storefront.Cart, error) {
		return s.api.MergeCart(ctx, api.MergeRequest{Items: items})
	})
}

// run executes one remote cart operation under the loading/error/generation
// discipline.
func (s *Store) run(label string, call func() (*storefront.Cart, error)) error {
	gen := s.begin()
	cart, err := call()
	s.finish(gen, label, cart, err)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	return nil
}

// begin marks the store loading and issues the next request generation.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.loading = true
	s.errMsg = ""
	return s.generation
}

// finish applies a response if its request is still the latest. Stale
// responses are discarded entirely - they neither replace the cart nor clear
// the loading flag the newer request owns.
func (s *Store) finish(gen uint64, label string, cart *storefront.Cart, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.log.WithField("generation", gen).Debug("discarding stale cart response")
		return
	}

	s.loading = false
	if err != nil {
		s.errMsg = label
		s.log.WithError(err).Warn(label)
		return
	}
	s.cart = cart
}
