package storefront

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// variant builds a purchasable test variant with the given attributes.
func variant(id string, attrs map[string]string) ProductVariant {
	return ProductVariant{
		ID:            id,
		SKU:           "SKU-" + id,
		Attributes:    attrs,
		StockQuantity: 10,
		FinalPrice:    49.90,
		IsActive:      true,
		IsInStock:     true,
	}
}

// sizeColorVariants covers all size x color combinations, with M/black out of
// stock.
func sizeColorVariants() []ProductVariant {
	outOfStock := variant("v-m-black", map[string]string{"size": "M", "color": "black"})
	outOfStock.StockQuantity = 0
	outOfStock.IsInStock = false

	return []ProductVariant{
		variant("v-s-black", map[string]string{"size": "S", "color": "black"}),
		variant("v-s-white", map[string]string{"size": "S", "color": "white"}),
		outOfStock,
		variant("v-m-white", map[string]string{"size": "M", "color": "white"}),
	}
}

func TestNewVariantSelector(t *testing.T) {
	t.Run("collects sorted facet union", func(t *testing.T) {
		sel, err := NewVariantSelector(sizeColorVariants())
		require.NoError(t, err)
		assert.Equal(t, []string{"color", "size"}, sel.Facets())
	})

	t.Run("rejects empty variant list", func(t *testing.T) {
		_, err := NewVariantSelector(nil)
		assert.Error(t, err)
	})

	t.Run("rejects mismatched attribute keys", func(t *testing.T) {
		variants := []ProductVariant{
			variant("v1", map[string]string{"size": "S", "color": "black"}),
			variant("v2", map[string]string{"size": "M"}),
		}
		_, err := NewVariantSelector(variants)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "v2")
	})
}

func TestOptionsProgressiveNarrowing(t *testing.T) {
	sel, err := NewVariantSelector(sizeColorVariants())
	require.NoError(t, err)

	t.Run("out of stock option stays visible but unavailable", func(t *testing.T) {
		require.NoError(t, sel.Select("size", "M"))

		options, err := sel.Options("color")
		require.NoError(t, err)
		assert.Equal(t, []FacetOption{
			{Value: "black", IsAvailable: false},
			{Value: "white", IsAvailable: true},
		}, options)
	})

	t.Run("facet ignores its own selection", func(t *testing.T) {
		// size=M is selected; size options must still show both sizes
		options, err := sel.Options("size")
		require.NoError(t, err)
		assert.Equal(t, []FacetOption{
			{Value: "M", IsAvailable: true},
			{Value: "S", IsAvailable: true},
		}, options)
	})

	t.Run("other facet narrows candidates", func(t *testing.T) {
		require.NoError(t, sel.Select("color", "black"))

		options, err := sel.Options("size")
		require.NoError(t, err)
		// S/black is purchasable, M/black is not
		assert.Equal(t, []FacetOption{
			{Value: "M", IsAvailable: false},
			{Value: "S", IsAvailable: true},
		}, options)
	})

	t.Run("unknown facet errors", func(t *testing.T) {
		_, err := sel.Options("material")
		assert.Error(t, err)
	})
}

func TestAvailabilityUnionSemantics(t *testing.T) {
	// Two variants share color=black; one is purchasable, one is not.
	// The black option must be available - any purchasable match wins.
	dead := variant("v-m-black", map[string]string{"size": "M", "color": "black"})
	dead.IsActive = false

	variants := []ProductVariant{
		dead,
		variant("v-s-black", map[string]string{"size": "S", "color": "black"}),
	}
	sel, err := NewVariantSelector(variants)
	require.NoError(t, err)

	options, err := sel.Options("color")
	require.NoError(t, err)
	assert.Equal(t, []FacetOption{{Value: "black", IsAvailable: true}}, options)
}

func TestResolved(t *testing.T) {
	sel, err := NewVariantSelector(sizeColorVariants())
	require.NoError(t, err)

	t.Run("nil while incomplete", func(t *testing.T) {
		assert.Nil(t, sel.Resolved())

		require.NoError(t, sel.Select("size", "S"))
		assert.Nil(t, sel.Resolved())
	})

	t.Run("resolves exact match once complete", func(t *testing.T) {
		require.NoError(t, sel.Select("color", "white"))

		resolved := sel.Resolved()
		require.NotNil(t, resolved)
		assert.Equal(t, "v-s-white", resolved.ID)
	})

	t.Run("nil when selection matches no variant", func(t *testing.T) {
		require.NoError(t, sel.Select("color", "magenta"))
		assert.Nil(t, sel.Resolved())
	})

	t.Run("deselect reverts to unresolved", func(t *testing.T) {
		sel.Deselect("color")
		assert.Nil(t, sel.Resolved())
	})

	t.Run("reset clears all selections", func(t *testing.T) {
		sel.Reset()
		assert.Empty(t, sel.Selected())
	})

	t.Run("select rejects unknown facet", func(t *testing.T) {
		err := sel.Select("material", "cotton")
		assert.Error(t, err)
	})
}

func TestStockErrorReasonValidate(t *testing.T) {
	for _, reason := range []StockErrorReason{
		StockErrorOutOfStock, StockErrorInsufficientStock, StockErrorProductInactive,
	} {
		assert.NoError(t, reason.Validate())
	}
	assert.Error(t, StockErrorReason("sold_out").Validate())
}

func TestGuestCartItemValidate(t *testing.T) {
	assert.NoError(t, (&GuestCartItem{ProductVariantID: "V1", Quantity: 1}).Validate())
	assert.Error(t, (&GuestCartItem{ProductVariantID: "", Quantity: 1}).Validate())
	assert.Error(t, (&GuestCartItem{ProductVariantID: "V1", Quantity: 0}).Validate())
}
