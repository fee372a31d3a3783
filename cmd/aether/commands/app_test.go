package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aethershop/aether/internal/api/apitest"
	"github.com/aethershop/aether/pkg/storefront"
)

// setupEnv starts miniredis and a fake API, points the package's config flag
// at a matching config file, and returns the seeded shopper's user ID.
func setupEnv(t *testing.T) (*apitest.Server, string) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	server := apitest.NewServer()
	t.Cleanup(server.Close)
	server.SeedProduct(storefront.Product{
		ID:       "p-1",
		Name:     "Canvas Tote",
		IsActive: true,
		Variants: []storefront.ProductVariant{
			{ID: "v-1", SKU: "TOTE-NAT", Attributes: map[string]string{"color": "natural"},
				StockQuantity: 10, FinalPrice: 24.00, IsActive: true, IsInStock: true},
		},
	})
	userID := server.SeedUser("shopper@example.com", "hunter2")

	cfgFile := filepath.Join(t.TempDir(), "aether.yml")
	cfg := fmt.Sprintf("api_base_url: %s\nredis_addr: %s\nlog_level: error\n", server.URL(), mr.Addr())
	require.NoError(t, os.WriteFile(cfgFile, []byte(cfg), 0o644))

	prevConfig := configPath
	configPath = cfgFile
	t.Cleanup(func() { configPath = prevConfig })

	return server, userID
}

func TestLoginSyncsCartThroughAuthListener(t *testing.T) {
	server, userID := setupEnv(t)
	ctx := context.Background()

	app, err := newApp(ctx)
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.local.AddGuestItem(ctx, "v-1", 2))

	// Login alone must merge and load the cart; no explicit sync call.
	require.NoError(t, app.auth.Login(ctx, "shopper@example.com", "hunter2"))

	cart := app.cart.Cart()
	require.NotNil(t, cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	serverCart := server.CartFor(userID)
	require.Len(t, serverCart.Items, 1)

	guestItems, err := app.local.GuestItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, guestItems, "guest cart should be cleared after the merge")
}

func TestCartSetZeroRemovesAuthenticatedLine(t *testing.T) {
	server, userID := setupEnv(t)
	ctx := context.Background()

	app, err := newApp(ctx)
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.auth.Login(ctx, "shopper@example.com", "hunter2"))
	require.NoError(t, app.cart.Add(ctx, "v-1", 3))
	itemID := app.cart.Cart().Items[0].ID

	prevQty := cartSetQty
	cartSetQty = 0
	t.Cleanup(func() { cartSetQty = prevQty })

	require.NoError(t, runCartSet(cartSetCmd, []string{itemID}))

	serverCart := server.CartFor(userID)
	assert.Empty(t, serverCart.Items, "setting quantity to 0 should remove the line")
}

func TestCheckoutPlaceReportsValidationFailure(t *testing.T) {
	server, _ := setupEnv(t)
	ctx := context.Background()

	app, err := newApp(ctx)
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.auth.Login(ctx, "shopper@example.com", "hunter2"))
	require.NoError(t, app.cart.Add(ctx, "v-1", 1))

	server.InjectFailure("POST", "/api/cart/validate", http.StatusInternalServerError, "boom")

	err = runCheckoutPlace(checkoutPlaceCmd, nil)
	require.Error(t, err)
	assert.Equal(t, "stock validation failed", err.Error(),
		"an unreachable validation endpoint is not a stock problem")
}
