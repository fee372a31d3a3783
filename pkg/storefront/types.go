// Package storefront provides type-safe Go definitions and Redis persistence
// for the ÆTHER storefront client engine. Local client state (the guest cart
// and the auth session) lives in Redis, namespaced per profile so multiple
// storefront profiles can safely coexist on a single Redis server; everything
// else (catalog, authenticated cart, orders) is owned by the remote ÆTHER API
// and only mirrored here as typed snapshots.
package storefront

import (
	"fmt"
	"time"
)

// GuestCartItem is a single line in the guest cart: a variant reference and a
// quantity. The guest cart holds at most one entry per variant; adding the
// same variant again accumulates the quantity instead of appending.
type GuestCartItem struct {
	ProductVariantID string `json:"product_variant_id"` // Variant UUID this line refers to
	Quantity         int    `json:"quantity"`           // Always > 0 while the entry exists
}

// Validate checks that the guest cart item is well formed.
func (i *GuestCartItem) Validate() error {
	if i.ProductVariantID == "" {
		return fmt.Errorf("product variant ID cannot be empty")
	}
	if i.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0, got %d", i.Quantity)
	}
	return nil
}

// Cart is the authenticated, server-owned cart. It is replaced wholesale on
// every mutation response from the API — the client never patches it
// field-by-field.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	Subtotal  float64    `json:"subtotal"`
	ItemCount int        `json:"item_count"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is a line in the authenticated cart. PriceSnapshot is captured by
// the server at add-time and is immutable thereafter, regardless of later
// price changes on the product.
type CartItem struct {
	ID             string         `json:"id"`
	Quantity       int            `json:"quantity"`
	PriceSnapshot  float64        `json:"price_snapshot"`
	Subtotal       float64        `json:"subtotal"`
	ProductVariant ProductVariant `json:"product_variant"`
	Product        Product        `json:"product"`
}

// Product is a catalog product as reported by the API.
type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description"`
	BasePrice   float64          `json:"base_price"`
	IsActive    bool             `json:"is_active"`
	Variants    []ProductVariant `json:"variants,omitempty"`
}

// ProductVariant is a purchasable SKU of a product. Attributes is a free-form
// key/value map (e.g. size, color); variants of one product must share the
// same attribute keys for faceted selection to work, which the selector
// enforces at construction.
type ProductVariant struct {
	ID            string            `json:"id"`
	SKU           string            `json:"sku"`
	Attributes    map[string]string `json:"attributes"`
	StockQuantity int               `json:"stock_quantity"`
	FinalPrice    float64           `json:"final_price"`
	IsActive      bool              `json:"is_active"`
	IsInStock     bool              `json:"is_in_stock"`
}

// Purchasable reports whether the variant can currently be bought.
func (v *ProductVariant) Purchasable() bool {
	return v.IsActive && v.IsInStock && v.StockQuantity > 0
}

// StockErrorReason classifies why a requested line item cannot be fulfilled.
type StockErrorReason string

const (
	// StockErrorOutOfStock means the variant has zero available quantity
	StockErrorOutOfStock StockErrorReason = "out_of_stock"

	// StockErrorInsufficientStock means some, but not enough, quantity is available
	StockErrorInsufficientStock StockErrorReason = "insufficient_stock"

	// StockErrorProductInactive means the product has been deactivated
	StockErrorProductInactive StockErrorReason = "product_inactive"
)

// Validate checks if the StockErrorReason is a valid enum value.
func (r StockErrorReason) Validate() error {
	switch r {
	case StockErrorOutOfStock, StockErrorInsufficientStock, StockErrorProductInactive:
		return nil
	default:
		return fmt.Errorf("unknown stock error reason: %q", r)
	}
}

// StockError is a per-item stock validation failure reported by the API.
// Ephemeral: produced by a validation call, cleared on cart mutation or an
// explicit clear.
type StockError struct {
	ProductID    string           `json:"productId"`
	VariantID    string           `json:"variantId"`
	ProductName  string           `json:"productName"`
	RequestedQty int              `json:"requestedQty"`
	AvailableQty int              `json:"availableQty"`
	Reason       StockErrorReason `json:"error"`
}

// Session is the persisted authentication state for a profile.
type Session struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Authenticated reports whether the session carries a usable access token.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}

// Order is a server-origin order record, rendered read-only by the client.
// The client never computes order totals authoritatively; the server is the
// source of truth at placement time.
type Order struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"order_number"`
	Status      string      `json:"status"`
	Items       []OrderItem `json:"items"`
	Subtotal    float64     `json:"subtotal"`
	Tax         float64     `json:"tax"`
	DeliveryFee float64     `json:"delivery_fee"`
	Discount    float64     `json:"discount"`
	Total       float64     `json:"total"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrderItem is a line on a placed order.
type OrderItem struct {
	ID            string  `json:"id"`
	ProductName   string  `json:"product_name"`
	SKU           string  `json:"sku"`
	Quantity      int     `json:"quantity"`
	PriceSnapshot float64 `json:"price_snapshot"`
	Subtotal      float64 `json:"subtotal"`
}

// Address is a shipping or billing address owned by the account.
type Address struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Recipient  string `json:"recipient"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

// ShippingMethod is a delivery option quoted by the API for a checkout.
type ShippingMethod struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Fee         float64 `json:"fee"`
	Estimate    string  `json:"estimate"`
	Description string  `json:"description,omitempty"`
}

// AppliedVoucher is a voucher accepted by the API for the current checkout.
type AppliedVoucher struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}
