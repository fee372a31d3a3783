package api

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aethershop/aether/internal/api/apitest"
	"github.com/aethershop/aether/pkg/storefront"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// setupClient starts a fake API with one seeded product and account, and
// returns a client logged in as that account.
func setupClient(t *testing.T) (*Client, *apitest.Server) {
	server := apitest.NewServer()
	t.Cleanup(server.Close)

	server.SeedProduct(storefront.Product{
		ID:       "p-1",
		Name:     "Oversized Tee",
		IsActive: true,
		Variants: []storefront.ProductVariant{
			{
				ID:            "v-1",
				SKU:           "TEE-S-BLK",
				Attributes:    map[string]string{"size": "S", "color": "black"},
				StockQuantity: 5,
				FinalPrice:    29.90,
				IsActive:      true,
				IsInStock:     true,
			},
			{
				ID:         "v-2",
				SKU:        "TEE-M-BLK",
				Attributes: map[string]string{"size": "M", "color": "black"},
				FinalPrice: 29.90,
				IsActive:   true,
			},
		},
	})
	server.SeedUser("shopper@example.com", "hunter2")

	client, err := NewClient(server.URL(), testLogger())
	require.NoError(t, err)
	return client, server
}

func login(t *testing.T, client *Client) *AuthResponse {
	resp, err := client.Login(context.Background(), Credentials{
		Email:    "shopper@example.com",
		Password: "hunter2",
	})
	require.NoError(t, err)
	client.SetToken(resp.AccessToken)
	return resp
}

func TestNewClient(t *testing.T) {
	t.Run("defaults base URL", func(t *testing.T) {
		client, err := NewClient("", testLogger())
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL, client.baseURL)
	})

	t.Run("rejects malformed base URL", func(t *testing.T) {
		_, err := NewClient("localhost:8089", testLogger())
		assert.Error(t, err)
	})

	t.Run("strips trailing slash", func(t *testing.T) {
		client, err := NewClient("http://shop.example.com/", testLogger())
		require.NoError(t, err)
		assert.Equal(t, "http://shop.example.com", client.baseURL)
	})
}

func TestLogin(t *testing.T) {
	client, _ := setupClient(t)

	t.Run("returns token pair", func(t *testing.T) {
		resp := login(t, client)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, "shopper@example.com", resp.User.Email)
	})

	t.Run("bad credentials yield APIError with server message", func(t *testing.T) {
		_, err := client.Login(context.Background(), Credentials{
			Email:    "shopper@example.com",
			Password: "wrong",
		})
		require.Error(t, err)

		apiErr, ok := IsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "invalid credentials", apiErr.Message)
	})
}

func TestMe(t *testing.T) {
	client, _ := setupClient(t)

	t.Run("without token", func(t *testing.T) {
		_, err := client.Me(context.Background())
		apiErr, ok := IsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})

	t.Run("with token", func(t *testing.T) {
		login(t, client)
		user, err := client.Me(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "shopper@example.com", user.Email)
	})
}

func TestCartLifecycle(t *testing.T) {
	client, _ := setupClient(t)
	login(t, client)
	ctx := context.Background()

	cart, err := client.GetCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart, err = client.AddItem(ctx, AddItemRequest{ProductVariantID: "v-1", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 29.90, cart.Items[0].PriceSnapshot)
	assert.Equal(t, 59.80, cart.Subtotal)
	assert.Equal(t, 2, cart.ItemCount)

	itemID := cart.Items[0].ID
	cart, err = client.UpdateItem(ctx, itemID, UpdateItemRequest{Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	cart, err = client.RemoveItem(ctx, itemID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = client.AddItem(ctx, AddItemRequest{ProductVariantID: "v-1", Quantity: 1})
	require.NoError(t, err)
	cart, err = client.ClearCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.ItemCount)
}

func TestMergeCart(t *testing.T) {
	client, _ := setupClient(t)
	login(t, client)
	ctx := context.Background()

	cart, err := client.MergeCart(ctx, MergeRequest{Items: []storefront.GuestCartItem{
		{ProductVariantID: "v-1", Quantity: 2},
		{ProductVariantID: "v-2", Quantity: 1},
	}})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.ItemCount)
}

func TestValidateStock(t *testing.T) {
	client, server := setupClient(t)
	login(t, client)
	ctx := context.Background()

	t.Run("all satisfiable", func(t *testing.T) {
		resp, err := client.ValidateStock(ctx, []ValidationItem{
			{ProductID: "p-1", VariantID: "v-1", Quantity: 2},
		})
		require.NoError(t, err)
		assert.True(t, resp.Valid)
		assert.Empty(t, resp.Errors)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		resp, err := client.ValidateStock(ctx, []ValidationItem{
			{ProductID: "p-1", VariantID: "v-1", Quantity: 10},
		})
		require.NoError(t, err)
		assert.False(t, resp.Valid)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, storefront.StockErrorInsufficientStock, resp.Errors[0].Reason)
		assert.Equal(t, 5, resp.Errors[0].AvailableQty)
	})

	t.Run("out of stock", func(t *testing.T) {
		server.SetStock("p-1", "v-1", 0)
		resp, err := client.ValidateStock(ctx, []ValidationItem{
			{ProductID: "p-1", VariantID: "v-1", Quantity: 1},
		})
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, storefront.StockErrorOutOfStock, resp.Errors[0].Reason)
		assert.Equal(t, 0, resp.Errors[0].AvailableQty)
	})
}

func TestProducts(t *testing.T) {
	client, _ := setupClient(t)
	ctx := context.Background()

	list, err := client.ListProducts(ctx, ListProductsOptions{Page: 1, PerPage: 20})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "Oversized Tee", list.Products[0].Name)

	product, err := client.GetProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Len(t, product.Variants, 2)

	_, err = client.GetProduct(ctx, "missing")
	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestCheckoutEndpoints(t *testing.T) {
	client, server := setupClient(t)
	login(t, client)
	ctx := context.Background()
	server.SeedVoucher("WELCOME10", 10)

	addr, err := client.CreateAddress(ctx, storefront.Address{
		Label: "home", Recipient: "A. Shopper", Line1: "1 Vapor Lane", City: "Arles", PostalCode: "13200", Country: "FR",
	})
	require.NoError(t, err)
	require.NotEmpty(t, addr.ID)

	addrs, err := client.ListAddresses(ctx)
	require.NoError(t, err)
	assert.Len(t, addrs, 1)

	methods, err := client.ShippingMethods(ctx, addr.ID)
	require.NoError(t, err)
	require.NotEmpty(t, methods)

	voucher, err := client.ValidateVoucher(ctx, VoucherRequest{Code: "WELCOME10", Subtotal: 59.80})
	require.NoError(t, err)
	assert.Equal(t, 10.0, voucher.Discount)

	_, err = client.ValidateVoucher(ctx, VoucherRequest{Code: "NOPE", Subtotal: 59.80})
	assert.Error(t, err)

	_, err = client.AddItem(ctx, AddItemRequest{ProductVariantID: "v-1", Quantity: 2})
	require.NoError(t, err)

	order, err := client.CreateOrder(ctx, CreateOrderRequest{
		AddressID:        addr.ID,
		ShippingMethodID: methods[0].ID,
		PaymentMethod:    "card",
		VoucherCode:      "WELCOME10",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.OrderNumber)
	require.Len(t, order.Items, 1)

	// Placing the order consumed the cart
	cart, err := client.GetCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	orders, err := client.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	got, err := client.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestErrorMessageFallsBackToStatusText(t *testing.T) {
	client, server := setupClient(t)
	server.InjectFailure(http.MethodGet, "/api/products", http.StatusInternalServerError, "")

	_, err := client.ListProducts(context.Background(), ListProductsOptions{})
	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), apiErr.Message)
}

func TestNetworkFailureIsNotAPIError(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:1", testLogger())
	require.NoError(t, err)

	_, err = client.GetCart(context.Background())
	require.Error(t, err)
	_, ok := IsAPIError(err)
	assert.False(t, ok)
}
