package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aethershop/aether/pkg/storefront"
)

// CreateOrderRequest places an order from the current authenticated cart.
type CreateOrderRequest struct {
	AddressID        string `json:"address_id"`
	ShippingMethodID string `json:"shipping_method_id"`
	PaymentMethod    string `json:"payment_method"`
	VoucherCode      string `json:"voucher_code,omitempty"`
}

// VoucherRequest asks the API whether a voucher applies to the given subtotal.
type VoucherRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

// ListAddresses fetches the account's saved addresses. GET /api/addresses
func (c *Client) ListAddresses(ctx context.Context) ([]storefront.Address, error) {
	var out []storefront.Address
	if err := c.do(ctx, http.MethodGet, "/api/addresses", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAddress saves a new address. POST /api/addresses
func (c *Client) CreateAddress(ctx context.Context, addr storefront.Address) (*storefront.Address, error) {
	var out storefront.Address
	if err := c.do(ctx, http.MethodPost, "/api/addresses", addr, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ShippingMethods quotes delivery options for an address. GET /api/shipping/methods
func (c *Client) ShippingMethods(ctx context.Context, addressID string) ([]storefront.ShippingMethod, error) {
	var out []storefront.ShippingMethod
	path := fmt.Sprintf("/api/shipping/methods?address_id=%s", addressID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateOrder places an order. POST /api/orders
// The server computes the authoritative totals; the client's numbers are
// previews only.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*storefront.Order, error) {
	var out storefront.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOrders fetches the account's order history. GET /api/orders
func (c *Client) ListOrders(ctx context.Context) ([]storefront.Order, error) {
	var out []storefront.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrder fetches one order. GET /api/orders/{id}
func (c *Client) GetOrder(ctx context.Context, orderID string) (*storefront.Order, error) {
	var out storefront.Order
	path := fmt.Sprintf("/api/orders/%s", orderID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateVoucher checks a voucher code against the current subtotal.
// POST /api/vouchers/validate
func (c *Client) ValidateVoucher(ctx context.Context, req VoucherRequest) (*storefront.AppliedVoucher, error) {
	var out storefront.AppliedVoucher
	if err := c.do(ctx, http.MethodPost, "/api/vouchers/validate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
