package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aethershop/aether/internal/checkout"
	"github.com/aethershop/aether/internal/pricing"
	"github.com/aethershop/aether/pkg/storefront"
)

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title when including suggestions", func(t *testing.T) {
		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title for multiple suggestions", func(t *testing.T) {
		err := Error("Test Error", "Explanation", []string{
			"First option",
			"Second option",
		})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})
}

func TestFormatCart(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		assert.Equal(t, "Your cart is empty.\n", FormatCart(nil))
		assert.Equal(t, "Your cart is empty.\n", FormatCart(&storefront.Cart{}))
	})

	t.Run("renders lines and subtotal", func(t *testing.T) {
		cart := &storefront.Cart{
			ItemCount: 2,
			Subtotal:  59.98,
			Items: []storefront.CartItem{
				{
					Quantity:      2,
					PriceSnapshot: 29.99,
					Subtotal:      59.98,
					Product:       storefront.Product{Name: "Trail Jacket"},
					ProductVariant: storefront.ProductVariant{
						Attributes: map[string]string{"size": "M", "color": "black"},
					},
				},
			},
		}
		out := FormatCart(cart)
		assert.Contains(t, out, "Trail Jacket")
		assert.Contains(t, out, "color: black, size: M")
		assert.Contains(t, out, "$29.99")
		assert.Contains(t, out, "2 item(s), subtotal $59.98")
	})
}

func TestFormatGuestCart(t *testing.T) {
	out := FormatGuestCart([]storefront.GuestCartItem{
		{ProductVariantID: "variant-1", Quantity: 3},
		{ProductVariantID: "variant-2", Quantity: 1},
	})
	assert.Contains(t, out, "variant-1")
	assert.Contains(t, out, "4 item(s)")
	assert.Contains(t, out, "sign in")
}

func TestFormatSummary(t *testing.T) {
	t.Run("free delivery", func(t *testing.T) {
		out := FormatSummary(pricing.Summary{Subtotal: 60, Tax: 5.10, Total: 65.10})
		assert.Contains(t, out, "FREE")
		assert.Contains(t, out, "$65.10")
		assert.NotContains(t, out, "Discount")
	})

	t.Run("paid delivery with discount", func(t *testing.T) {
		out := FormatSummary(pricing.Summary{Subtotal: 30, Discount: 5, Tax: 2.13, Delivery: 4.99, Total: 32.12})
		assert.Contains(t, out, "-$5.00")
		assert.Contains(t, out, "$4.99")
	})
}

func TestFormatStockError(t *testing.T) {
	t.Run("insufficient stock suggests adjust", func(t *testing.T) {
		out := FormatStockError(checkout.ItemError{
			StockError: storefront.StockError{
				ProductName:  "Trail Jacket",
				RequestedQty: 10,
				AvailableQty: 5,
				Reason:       storefront.StockErrorInsufficientStock,
			},
			Action:      checkout.ActionAdjust,
			AdjustedQty: 5,
		})
		assert.Contains(t, out, "only 5 of 10 available")
		assert.Contains(t, out, "reduce quantity to 5")
	})

	t.Run("out of stock suggests remove", func(t *testing.T) {
		out := FormatStockError(checkout.ItemError{
			StockError: storefront.StockError{
				ProductName: "Trail Jacket",
				Reason:      storefront.StockErrorOutOfStock,
			},
			Action: checkout.ActionRemove,
		})
		assert.Contains(t, out, "out of stock")
		assert.Contains(t, out, "remove it from your cart")
	})

	t.Run("inactive product", func(t *testing.T) {
		out := FormatStockError(checkout.ItemError{
			StockError: storefront.StockError{
				ProductName: "Trail Jacket",
				Reason:      storefront.StockErrorProductInactive,
			},
			Action: checkout.ActionRemove,
		})
		assert.Contains(t, out, "no longer available")
	})
}

func TestFormatVariants(t *testing.T) {
	out := FormatVariants([]storefront.ProductVariant{
		{SKU: "TJ-M-BLK", Attributes: map[string]string{"size": "M"}, FinalPrice: 29.99, IsActive: true, IsInStock: true, StockQuantity: 8},
		{SKU: "TJ-L-BLK", Attributes: map[string]string{"size": "L"}, FinalPrice: 29.99, IsActive: true},
		{SKU: "TJ-S-BLK", Attributes: map[string]string{"size": "S"}, FinalPrice: 29.99},
	})
	assert.Contains(t, out, "TJ-M-BLK")
	assert.Contains(t, out, "8")
	assert.Contains(t, out, "out of stock")
	assert.Contains(t, out, "inactive")
}
