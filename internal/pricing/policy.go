// Package pricing computes client-side order summary previews. The server is
// authoritative at order placement; these figures exist so the cart and
// checkout screens show the same numbers from one configurable policy instead
// of two diverging formulas.
package pricing

import (
	"fmt"
	"math"
)

// Policy holds the parameters of the pricing preview.
type Policy struct {
	TaxRate               float64 // Fraction of the taxable amount, e.g. 0.085
	DeliveryFee           float64 // Flat fee below the free-delivery threshold
	FreeDeliveryThreshold float64 // Subtotal at or above which delivery is free
}

// Summary is a priced cart preview, every figure rounded to cents.
type Summary struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Tax      float64 `json:"tax"`
	Delivery float64 `json:"delivery"`
	Total    float64 `json:"total"`
}

// DefaultPolicy returns the storefront's standard rates: 8.5% tax, 4.99
// delivery, free delivery from 50 up.
func DefaultPolicy() Policy {
	return Policy{
		TaxRate:               0.085,
		DeliveryFee:           4.99,
		FreeDeliveryThreshold: 50,
	}
}

// Validate checks the policy parameters for sane ranges.
func (p Policy) Validate() error {
	if p.TaxRate < 0 || p.TaxRate >= 1 {
		return fmt.Errorf("tax rate must be in [0, 1), got %v", p.TaxRate)
	}
	if p.DeliveryFee < 0 {
		return fmt.Errorf("delivery fee cannot be negative, got %v", p.DeliveryFee)
	}
	if p.FreeDeliveryThreshold < 0 {
		return fmt.Errorf("free delivery threshold cannot be negative, got %v", p.FreeDeliveryThreshold)
	}
	return nil
}

// Quote prices a cart preview. Tax applies to the subtotal net of discount;
// the free-delivery threshold is evaluated against the gross subtotal, so a
// voucher never removes free delivery the shopper already earned.
func (p Policy) Quote(subtotal, discount float64) (Summary, error) {
	if subtotal < 0 {
		return Summary{}, fmt.Errorf("subtotal cannot be negative, got %v", subtotal)
	}
	if discount < 0 {
		return Summary{}, fmt.Errorf("discount cannot be negative, got %v", discount)
	}
	if discount > subtotal {
		discount = subtotal
	}

	taxable := subtotal - discount
	tax := roundCents(taxable * p.TaxRate)

	delivery := p.DeliveryFee
	if subtotal == 0 || subtotal >= p.FreeDeliveryThreshold {
		// Nothing to deliver, or the shopper earned free delivery
		delivery = 0
	}

	return Summary{
		Subtotal: roundCents(subtotal),
		Discount: roundCents(discount),
		Tax:      tax,
		Delivery: delivery,
		Total:    roundCents(taxable + tax + delivery),
	}, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
