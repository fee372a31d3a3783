package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aethershop/aether/pkg/storefront"
)

// ListProductsOptions are the supported catalog query parameters.
// Zero values are omitted from the request.
type ListProductsOptions struct {
	Page     int
	PerPage  int
	Category string
	Search   string
}

// ProductList is one page of catalog results.
type ProductList struct {
	Products []storefront.Product `json:"products"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
}

// ListProducts fetches a catalog page. GET /api/products
func (c *Client) ListProducts(ctx context.Context, opts ListProductsOptions) (*ProductList, error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	if opts.Category != "" {
		query.Set("category", opts.Category)
	}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}

	path := "/api/products"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out ProductList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProduct fetches one product with its variants. GET /api/products/{id}
func (c *Client) GetProduct(ctx context.Context, productID string) (*storefront.Product, error) {
	var out storefront.Product
	path := fmt.Sprintf("/api/products/%s", productID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
