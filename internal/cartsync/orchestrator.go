// Package cartsync coordinates the hand-off between the guest cart and the
// authenticated server cart across auth transitions. The two carts are never
// merged in memory; the only bridge is the server's one-shot merge endpoint.
package cartsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/aethershop/aether/internal/cartstore"
	"github.com/aethershop/aether/pkg/storefront"
)

// Orchestrator runs the session's cart sync state machine:
//
//	guest -> authenticated, not yet synced: merge the guest cart into the
//	server cart, replace the local snapshot with the response, then clear
//	the guest cart. An empty guest cart skips the merge and loads instead.
//
//	already authenticated at startup, not yet synced: load-only, no merge,
//	no guest cart mutation.
//
//	authenticated -> guest: drop cart state and reset the synced flag so a
//	later login triggers a fresh sync.
//
// Sync runs at most once per authentication transition; repeated calls while
// synced are no-ops.
type Orchestrator struct {
	guest *storefront.Client
	cart  *cartstore.Store
	log   *logrus.Entry

	mu     sync.Mutex
	synced bool
}

// New creates an orchestrator over the guest cart client and the server cart
// store.
func New(guest *storefront.Client, cart *cartstore.Store, log *logrus.Logger) *Orchestrator {
	if log == nil {
		log = logrus.New()
	}
	return &Orchestrator{
		guest: guest,
		cart:  cart,
		log:   log.WithField("component", "cartsync"),
	}
}

// Synced reports whether a sync has completed for the current authenticated
// session.
func (o *Orchestrator) Synced() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.synced
}

// HandleAuthChange advances the state machine after an auth transition.
// Call with authenticated=true after login or session restore, and false
// after logout.
//
// The synced flag is only set once a sync fully succeeds, so a failed merge
// or load can be retried by calling again.
func (o *Orchestrator) HandleAuthChange(ctx context.Context, authenticated bool) error {
	o.mu.Lock()
	if !authenticated {
		// Logout: drop the server cart mirror and allow the next login to sync
		o.synced = false
		o.mu.Unlock()
		o.cart.Reset()
		o.log.Debug("auth cleared, cart sync reset")
		return nil
	}
	if o.synced {
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	if err := o.sync(ctx); err != nil {
		return err
	}

	o.mu.Lock()
	o.synced = true
	o.mu.Unlock()
	return nil
}

// sync performs the merge-or-load step of a login transition.
func (o *Orchestrator) sync(ctx context.Context) error {
	items, err := o.guest.GuestItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to read guest cart for sync: %w", err)
	}

	if len(items) == 0 {
		if err := o.cart.Fetch(ctx); err != nil {
			return fmt.Errorf("cart load failed: %w", err)
		}
		o.log.Debug("guest cart empty, loaded server cart")
		return nil
	}

	if err := o.cart.Merge(ctx, items); err != nil {
		return fmt.Errorf("cart merge failed: %w", err)
	}

	// Guest cart is cleared only after the server accepted the merge, so a
	// failed merge never loses guest items.
	if err := o.guest.ClearGuestCart(ctx); err != nil {
		return fmt.Errorf("failed to clear guest cart after merge: %w", err)
	}

	o.log.WithField("items", len(items)).Info("guest cart merged into server cart")
	return nil
}
