package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteStandardRates(t *testing.T) {
	policy := DefaultPolicy()

	t.Run("below free delivery threshold", func(t *testing.T) {
		summary, err := policy.Quote(30, 0)
		require.NoError(t, err)
		assert.Equal(t, 30.0, summary.Subtotal)
		assert.Equal(t, 2.55, summary.Tax)
		assert.Equal(t, 4.99, summary.Delivery)
		assert.Equal(t, 37.54, summary.Total)
	})

	t.Run("at or above free delivery threshold", func(t *testing.T) {
		summary, err := policy.Quote(60, 0)
		require.NoError(t, err)
		assert.Equal(t, 5.10, summary.Tax)
		assert.Equal(t, 0.0, summary.Delivery)
		assert.Equal(t, 65.10, summary.Total)
	})

	t.Run("threshold boundary is inclusive", func(t *testing.T) {
		summary, err := policy.Quote(50, 0)
		require.NoError(t, err)
		assert.Equal(t, 0.0, summary.Delivery)
	})

	t.Run("empty cart", func(t *testing.T) {
		summary, err := policy.Quote(0, 0)
		require.NoError(t, err)
		// Zero subtotal clears the threshold, so no delivery fee sneaks in
		assert.Equal(t, Summary{}, summary)
	})
}

func TestQuoteDiscount(t *testing.T) {
	policy := DefaultPolicy()

	t.Run("tax applies net of discount", func(t *testing.T) {
		summary, err := policy.Quote(40, 10)
		require.NoError(t, err)
		assert.Equal(t, 10.0, summary.Discount)
		assert.Equal(t, 2.55, summary.Tax) // 30 * 0.085
		assert.Equal(t, 4.99, summary.Delivery)
		assert.Equal(t, 37.54, summary.Total)
	})

	t.Run("delivery threshold uses gross subtotal", func(t *testing.T) {
		summary, err := policy.Quote(60, 20)
		require.NoError(t, err)
		assert.Equal(t, 0.0, summary.Delivery)
	})

	t.Run("discount capped at subtotal", func(t *testing.T) {
		summary, err := policy.Quote(10, 25)
		require.NoError(t, err)
		assert.Equal(t, 10.0, summary.Discount)
		assert.Equal(t, 0.0, summary.Tax)
	})

	t.Run("negative discount rejected", func(t *testing.T) {
		_, err := policy.Quote(10, -1)
		assert.Error(t, err)
	})

	t.Run("negative subtotal rejected", func(t *testing.T) {
		_, err := policy.Quote(-1, 0)
		assert.Error(t, err)
	})
}

func TestQuoteRounding(t *testing.T) {
	policy := DefaultPolicy()

	// 19.99 * 0.085 = 1.69915 -> 1.70
	summary, err := policy.Quote(19.99, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.70, summary.Tax)
	assert.Equal(t, 26.68, summary.Total)
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	assert.Error(t, Policy{TaxRate: -0.1}.Validate())
	assert.Error(t, Policy{TaxRate: 1}.Validate())
	assert.Error(t, Policy{TaxRate: 0.1, DeliveryFee: -1}.Validate())
	assert.Error(t, Policy{TaxRate: 0.1, FreeDeliveryThreshold: -5}.Validate())
}
