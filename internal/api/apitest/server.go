// Package apitest provides an in-process fake ÆTHER API for tests. It
// implements the storefront endpoints (auth, cart, merge, stock validation,
// products, checkout) over seedable in-memory state, so client-side behavior
// can be exercised without a real backend.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aethershop/aether/pkg/storefront"
)

type account struct {
	user     storefront.Session // UserID + Email reused; tokens unused here
	password string
}

type failure struct {
	status  int
	message string
}

// Server is a fake ÆTHER API backed by in-memory state. All exported methods
// and the HTTP surface are safe for concurrent use.
type Server struct {
	HTTP *httptest.Server

	mu            sync.Mutex
	products      map[string]storefront.Product
	accounts      map[string]*account // email -> account
	accessTokens  map[string]string   // access token -> user ID
	refreshTokens map[string]string   // refresh token -> user ID
	carts         map[string]*storefront.Cart // user ID -> cart
	addresses     map[string][]storefront.Address
	orders        map[string][]storefront.Order
	vouchers      map[string]float64 // code -> discount
	failures      map[string]failure // "METHOD /path" -> one-shot failure

	// Calls counts requests per "METHOD /path", for asserting call behavior
	Calls map[string]int
}

// NewServer starts a fake API. Callers own the returned server and must call
// Close when done.
func NewServer() *Server {
	s := &Server{
		products:      make(map[string]storefront.Product),
		accounts:      make(map[string]*account),
		accessTokens:  make(map[string]string),
		refreshTokens: make(map[string]string),
		carts:         make(map[string]*storefront.Cart),
		addresses:     make(map[string][]storefront.Address),
		orders:        make(map[string][]storefront.Order),
		vouchers:      make(map[string]float64),
		failures:      make(map[string]failure),
		Calls:         make(map[string]int),
	}

	r := mux.NewRouter()
	r.Use(s.bookkeeping)

	r.HandleFunc("/api/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/me", s.handleMe).Methods(http.MethodGet)

	r.HandleFunc("/api/cart", s.handleGetCart).Methods(http.MethodGet)
	r.HandleFunc("/api/cart", s.handleClearCart).Methods(http.MethodDelete)
	r.HandleFunc("/api/cart/items", s.handleAddItem).Methods(http.MethodPost)
	r.HandleFunc("/api/cart/items/{id}", s.handleUpdateItem).Methods(http.MethodPut)
	r.HandleFunc("/api/cart/items/{id}", s.handleRemoveItem).Methods(http.MethodDelete)
	r.HandleFunc("/api/cart/merge", s.handleMerge).Methods(http.MethodPost)
	r.HandleFunc("/api/cart/validate", s.handleValidate).Methods(http.MethodPost)

	r.HandleFunc("/api/products", s.handleListProducts).Methods(http.MethodGet)
	r.HandleFunc("/api/products/{id}", s.handleGetProduct).Methods(http.MethodGet)

	r.HandleFunc("/api/addresses", s.handleListAddresses).Methods(http.MethodGet)
	r.HandleFunc("/api/addresses", s.handleCreateAddress).Methods(http.MethodPost)
	r.HandleFunc("/api/shipping/methods", s.handleShippingMethods).Methods(http.MethodGet)
	r.HandleFunc("/api/orders", s.handleCreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/orders", s.handleListOrders).Methods(http.MethodGet)
	r.HandleFunc("/api/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)
	r.HandleFunc("/api/vouchers/validate", s.handleVoucher).Methods(http.MethodPost)

	s.HTTP = httptest.NewServer(r)
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.HTTP.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.HTTP.Close()
}

// SeedProduct registers a product (with its variants) in the catalog.
func (s *Server) SeedProduct(p storefront.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SeedUser registers an account and returns its user ID.
func (s *Server) SeedUser(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.accounts[email] = &account{
		user:     storefront.Session{UserID: id, Email: email},
		password: password,
	}
	return id
}

// SeedVoucher registers a voucher code with a flat discount.
func (s *Server) SeedVoucher(code string, discount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vouchers[code] = discount
}

// SetStock overrides a variant's stock quantity and in-stock flag.
func (s *Server) SetStock(productID, variantID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return
	}
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			p.Variants[i].StockQuantity = qty
			p.Variants[i].IsInStock = qty > 0
		}
	}
	s.products[productID] = p
}

// InjectFailure makes the next request to "METHOD path" fail with the given
// status and message. The failure is consumed by the first matching request.
func (s *Server) InjectFailure(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// CartFor returns a copy of the user's current cart, for assertions.
func (s *Server) CartFor(userID string) storefront.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.cartFor(userID)
}

// bookkeeping counts calls and applies injected one-shot failures.
func (s *Server) bookkeeping(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.Calls[key]++
		f, failing := s.failures[key]
		if failing {
			delete(s.failures, key)
		}
		s.mu.Unlock()

		if failing {
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// authenticate resolves the bearer token to a user ID.
// Caller must hold s.mu.
func (s *Server) authenticate(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	userID, ok := s.accessTokens[header[len(prefix):]]
	return userID, ok
}

// cartFor returns the user's cart, creating an empty one on first use.
// Caller must hold s.mu.
func (s *Server) cartFor(userID string) *storefront.Cart {
	cart, ok := s.carts[userID]
	if !ok {
		now := time.Now().UTC()
		cart = &storefront.Cart{
			ID:        uuid.New().String(),
			UserID:    userID,
			Items:     []storefront.CartItem{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.carts[userID] = cart
	}
	return cart
}

// findVariant locates a variant and its product.
// Caller must hold s.mu.
func (s *Server) findVariant(variantID string) (storefront.Product, storefront.ProductVariant, bool) {
	for _, p := range s.products {
		for _, v := range p.Variants {
			if v.ID == variantID {
				return p, v, true
			}
		}
	}
	return storefront.Product{}, storefront.ProductVariant{}, false
}

// recalculate refreshes the cart's denormalized totals.
func recalculate(cart *storefront.Cart) {
	subtotal := 0.0
	count := 0
	for i := range cart.Items {
		item := &cart.Items[i]
		item.Subtotal = item.PriceSnapshot * float64(item.Quantity)
		subtotal += item.Subtotal
		count += item.Quantity
	}
	cart.Subtotal = subtotal
	cart.ItemCount = count
	cart.UpdatedAt = time.Now().UTC()
}

// addToCart appends or accumulates a variant line on the cart.
// Caller must hold s.mu. The price snapshot is captured at first add and
// never updated afterwards.
func (s *Server) addToCart(cart *storefront.Cart, variantID string, qty int) error {
	product, variant, ok := s.findVariant(variantID)
	if !ok {
		return fmt.Errorf("variant %s not found", variantID)
	}

	for i := range cart.Items {
		if cart.Items[i].ProductVariant.ID == variantID {
			cart.Items[i].Quantity += qty
			recalculate(cart)
			return nil
		}
	}

	cart.Items = append(cart.Items, storefront.CartItem{
		ID:             uuid.New().String(),
		Quantity:       qty,
		PriceSnapshot:  variant.FinalPrice,
		ProductVariant: variant,
		Product:        product,
	})
	recalculate(cart)
	return nil
}
