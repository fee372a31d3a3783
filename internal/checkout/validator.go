// Package checkout implements the pre-order safety net: stock validation of
// the current line items against the server, and the four-step checkout flow
// (address, shipping, payment, review) that ends in order placement.
package checkout

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/aethershop/aether/internal/api"
	"github.com/aethershop/aether/pkg/storefront"
)

// SuggestedAction is the remediation offered for a failed line item.
type SuggestedAction string

const (
	// ActionRemove suggests dropping the line entirely (nothing available)
	ActionRemove SuggestedAction = "remove"

	// ActionAdjust suggests lowering the quantity to what is available
	ActionAdjust SuggestedAction = "adjust_quantity"
)

// ItemError is a stock validation failure with its suggested remediation.
type ItemError struct {
	storefront.StockError
	Action      SuggestedAction
	AdjustedQty int // Meaningful only when Action == ActionAdjust
}

// Result is the outcome of one validation call. The happy contract path
// always yields a Result - server or network failures surface as
// Valid=false with the message recorded on the validator, never as a panic
// or an unhandled error in the caller.
type Result struct {
	Valid  bool
	Errors []ItemError
}

// Validator posts line items to the stock validation endpoint and keeps the
// typed per-item errors for UI consumption. Safe for concurrent use;
// overlapping calls are guarded by a request generation counter so only the
// most recently issued call's outcome is kept.
type Validator struct {
	api *api.Client
	log *logrus.Entry

	mu         sync.Mutex
	errors     []ItemError
	errMsg     string
	loading    bool
	generation uint64
}

// NewValidator creates a stock validator over the API client.
func NewValidator(apiClient *api.Client, log *logrus.Logger) *Validator {
	if log == nil {
		log = logrus.New()
	}
	return &Validator{
		api: apiClient,
		log: log.WithField("component", "checkout"),
	}
}

// Validate checks the line items against current availability.
func (v *Validator) Validate(ctx context.Context, items []api.ValidationItem) Result {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	v.loading = true
	v.errMsg = ""
	v.mu.Unlock()

	resp, err := v.api.ValidateStock(ctx, items)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.generation {
		v.log.Debug("discarding stale validation response")
		return Result{Valid: false}
	}
	v.loading = false

	if err != nil {
		v.errMsg = "Stock validation failed"
		v.errors = nil
		v.log.WithError(err).Warn("stock validation request failed")
		return Result{Valid: false, Errors: []ItemError{}}
	}

	itemErrors := make([]ItemError, len(resp.Errors))
	for i, stockErr := range resp.Errors {
		itemErrors[i] = withSuggestion(stockErr)
	}
	v.errors = itemErrors

	return Result{Valid: resp.Valid, Errors: itemErrors}
}

// Errors returns the per-item errors recorded by the last validation.
func (v *Validator) Errors() []ItemError {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]ItemError{}, v.errors...)
}

// Err returns the message recorded by the last failed request, or "".
func (v *Validator) Err() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errMsg
}

// Loading reports whether a validation request is in flight.
func (v *Validator) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// ClearErrors resets both the per-item error list and the request error
// message. Call after any cart mutation, since the verdict no longer matches
// the cart.
func (v *Validator) ClearErrors() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = nil
	v.errMsg = ""
}

// withSuggestion attaches the remediation for a stock error: adjust down when
// some stock remains, remove when nothing can be fulfilled.
func withSuggestion(stockErr storefront.StockError) ItemError {
	item := ItemError{StockError: stockErr}
	if stockErr.Reason == storefront.StockErrorInsufficientStock && stockErr.AvailableQty > 0 {
		item.Action = ActionAdjust
		item.AdjustedQty = stockErr.AvailableQty
		return item
	}
	item.Action = ActionRemove
	return item
}

// ItemsFromCart converts a cart snapshot into validation line items.
func ItemsFromCart(cart *storefront.Cart) []api.ValidationItem {
	if cart == nil {
		return nil
	}
	items := make([]api.ValidationItem, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = api.ValidationItem{
			ProductID: item.Product.ID,
			VariantID: item.ProductVariant.ID,
			Quantity:  item.Quantity,
		}
	}
	return items
}
