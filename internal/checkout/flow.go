package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/aethershop/aether/internal/api"
	"github.com/aethershop/aether/internal/pricing"
	"github.com/aethershop/aether/pkg/storefront"
)

// Step is a stage of the checkout wizard.
type Step string

const (
	StepAddress  Step = "address"
	StepShipping Step = "shipping"
	StepPayment  Step = "payment"
	StepReview   Step = "review"
)

// Validate checks if the Step is a valid enum value.
func (s Step) Validate() error {
	switch s {
	case StepAddress, StepShipping, StepPayment, StepReview:
		return nil
	default:
		return fmt.Errorf("unknown checkout step: %q", s)
	}
}

// Flow is the four-step checkout state machine. Steps advance strictly in
// order; Back rewinds one step while keeping earlier choices. Totals produced
// by Preview are client-side previews only - the server recomputes everything
// at placement.
//
// A Flow is not safe for concurrent use beyond its internal bookkeeping; it
// models a single shopper's wizard.
type Flow struct {
	api    *api.Client
	policy pricing.Policy

	mu       sync.Mutex
	step     Step
	address  *storefront.Address
	shipping *storefront.ShippingMethod
	payment  string
	voucher  *storefront.AppliedVoucher
}

// NewFlow starts a checkout at the address step.
func NewFlow(apiClient *api.Client, policy pricing.Policy) *Flow {
	return &Flow{
		api:    apiClient,
		policy: policy,
		step:   StepAddress,
	}
}

// Step returns the wizard's current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// SelectAddress records the delivery address and advances to shipping.
func (f *Flow) SelectAddress(addr storefront.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepAddress {
		return fmt.Errorf("cannot select address at step %q", f.step)
	}
	if addr.ID == "" {
		return fmt.Errorf("address has no ID")
	}
	f.address = &addr
	f.step = StepShipping
	return nil
}

// SelectShipping records the delivery method and advances to payment.
func (f *Flow) SelectShipping(method storefront.ShippingMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepShipping {
		return fmt.Errorf("cannot select shipping at step %q", f.step)
	}
	if method.ID == "" {
		return fmt.Errorf("shipping method has no ID")
	}
	f.shipping = &method
	f.step = StepPayment
	return nil
}

// SelectPayment records the payment method and advances to review.
func (f *Flow) SelectPayment(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepPayment {
		return fmt.Errorf("cannot select payment at step %q", f.step)
	}
	if method == "" {
		return fmt.Errorf("payment method cannot be empty")
	}
	f.payment = method
	f.step = StepReview
	return nil
}

// Back rewinds the wizard one step. At the address step it is a no-op.
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.step {
	case StepShipping:
		f.step = StepAddress
	case StepPayment:
		f.step = StepShipping
	case StepReview:
		f.step = StepPayment
	}
}

// ApplyVoucher validates a voucher code against the API and keeps the
// accepted discount for the preview and the final order.
func (f *Flow) ApplyVoucher(ctx context.Context, code string, subtotal float64) error {
	voucher, err := f.api.ValidateVoucher(ctx, api.VoucherRequest{Code: code, Subtotal: subtotal})
	if err != nil {
		return fmt.Errorf("voucher %q rejected: %w", code, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.voucher = voucher
	return nil
}

// Voucher returns the currently applied voucher, or nil.
func (f *Flow) Voucher() *storefront.AppliedVoucher {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.voucher
}

// Preview prices the order as currently configured. The pricing policy's
// flat delivery fee is replaced by the selected shipping method's fee once
// one is chosen; free delivery above the threshold still applies.
func (f *Flow) Preview(subtotal float64) (pricing.Summary, error) {
	f.mu.Lock()
	policy := f.policy
	if f.shipping != nil {
		policy.DeliveryFee = f.shipping.Fee
	}
	discount := 0.0
	if f.voucher != nil {
		discount = f.voucher.Discount
	}
	f.mu.Unlock()

	return policy.Quote(subtotal, discount)
}

// PlaceOrder submits the order. Only valid at the review step; on success the
// flow is spent and must not be reused.
func (f *Flow) PlaceOrder(ctx context.Context) (*storefront.Order, error) {
	f.mu.Lock()
	if f.step != StepReview {
		f.mu.Unlock()
		return nil, fmt.Errorf("cannot place order at step %q", f.step)
	}
	req := api.CreateOrderRequest{
		AddressID:        f.address.ID,
		ShippingMethodID: f.shipping.ID,
		PaymentMethod:    f.payment,
	}
	if f.voucher != nil {
		req.VoucherCode = f.voucher.Code
	}
	f.mu.Unlock()

	order, err := f.api.CreateOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("order placement failed: %w", err)
	}
	return order, nil
}
