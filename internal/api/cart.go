package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aethershop/aether/pkg/storefront"
)

// AddItemRequest adds a variant to the authenticated cart.
type AddItemRequest struct {
	ProductVariantID string `json:"product_variant_id"`
	Quantity         int    `json:"quantity"`
}

// UpdateItemRequest changes the quantity of an existing cart item.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// MergeRequest folds a guest cart into the authenticated cart.
type MergeRequest struct {
	Items []storefront.GuestCartItem `json:"items"`
}

// ValidationItem is one line submitted for stock validation.
type ValidationItem struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// ValidationResponse is the server's verdict on a set of line items.
type ValidationResponse struct {
	Valid  bool                    `json:"valid"`
	Errors []storefront.StockError `json:"errors"`
}

// GetCart fetches the authenticated cart. GET /api/cart
func (c *Client) GetCart(ctx context.Context) (*storefront.Cart, error) {
	var out storefront.Cart
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddItem adds a variant to the cart and returns the full updated cart.
// POST /api/cart/items
func (c *Client) AddItem(ctx context.Context, req AddItemRequest) (*storefront.Cart, error) {
	var out storefront.Cart
	if err := c.do(ctx, http.MethodPost, "/api/cart/items", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateItem changes a cart item's quantity and returns the full updated cart.
// PUT /api/cart/items/{id}
func (c *Client) UpdateItem(ctx context.Context, itemID string, req UpdateItemRequest) (*storefront.Cart, error) {
	var out storefront.Cart
	path := fmt.Sprintf("/api/cart/items/%s", itemID)
	if err := c.do(ctx, http.MethodPut, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveItem deletes a cart item and returns the full updated cart.
// DELETE /api/cart/items/{id}
func (c *Client) RemoveItem(ctx context.Context, itemID string) (*storefront.Cart, error) {
	var out storefront.Cart
	path := fmt.Sprintf("/api/cart/items/%s", itemID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearCart empties the authenticated cart. DELETE /api/cart
func (c *Client) ClearCart(ctx context.Context) (*storefront.Cart, error) {
	var out storefront.Cart
	if err := c.do(ctx, http.MethodDelete, "/api/cart", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MergeCart merges guest cart items into the authenticated cart and returns
// the resulting cart. POST /api/cart/merge
func (c *Client) MergeCart(ctx context.Context, req MergeRequest) (*storefront.Cart, error) {
	var out storefront.Cart
	if err := c.do(ctx, http.MethodPost, "/api/cart/merge", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateStock checks the given line items against current availability.
// POST /api/cart/validate
func (c *Client) ValidateStock(ctx context.Context, items []ValidationItem) (*ValidationResponse, error) {
	req := map[string][]ValidationItem{"items": items}
	var out ValidationResponse
	if err := c.do(ctx, http.MethodPost, "/api/cart/validate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
