package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aethershop/aether/pkg/storefront"
)

type authResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// issueTokens mints a token pair for a user. Caller must hold s.mu.
func (s *Server) issueTokens(userID, email string) authResponse {
	var resp authResponse
	resp.User.ID = userID
	resp.User.Email = email
	resp.AccessToken = uuid.New().String()
	resp.RefreshToken = uuid.New().String()
	s.accessTokens[resp.AccessToken] = userID
	s.refreshTokens[resp.RefreshToken] = userID
	return resp
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	id := uuid.New().String()
	s.accounts[req.Email] = &account{
		user:     storefront.Session{UserID: id, Email: req.Email},
		password: req.Password,
	}
	writeJSON(w, http.StatusCreated, s.issueTokens(id, req.Email))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[req.Email]
	if !ok || acct.password != req.Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, s.issueTokens(acct.user.UserID, req.Email))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.refreshTokens[req.RefreshToken]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	delete(s.refreshTokens, req.RefreshToken)

	var email string
	for _, acct := range s.accounts {
		if acct.user.UserID == userID {
			email = acct.user.Email
		}
	}
	writeJSON(w, http.StatusOK, s.issueTokens(userID, email))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refreshTokens, req.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	for _, acct := range s.accounts {
		if acct.user.UserID == userID {
			writeJSON(w, http.StatusOK, map[string]string{"id": userID, "email": acct.user.Email})
			return
		}
	}
	writeError(w, http.StatusNotFound, "user not found")
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, s.cartFor(userID))
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductVariantID string `json:"product_variant_id"`
		Quantity         int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	cart := s.cartFor(userID)
	if err := s.addToCart(cart, req.ProductVariantID, req.Quantity); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	cart := s.cartFor(userID)
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items[i].Quantity = req.Quantity
			recalculate(cart)
			writeJSON(w, http.StatusOK, cart)
			return
		}
	}
	writeError(w, http.StatusNotFound, "cart item not found")
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	cart := s.cartFor(userID)
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			recalculate(cart)
			writeJSON(w, http.StatusOK, cart)
			return
		}
	}
	writeError(w, http.StatusNotFound, "cart item not found")
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	cart := s.cartFor(userID)
	cart.Items = []storefront.CartItem{}
	recalculate(cart)
	writeJSON(w, http.StatusOK, cart)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []storefront.GuestCartItem `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	cart := s.cartFor(userID)
	for _, item := range req.Items {
		if err := s.addToCart(cart, item.ProductVariantID, item.Quantity); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, cart)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []struct {
			ProductID string `json:"productId"`
			VariantID string `json:"variantId"`
			Quantity  int    `json:"quantity"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	errors := []storefront.StockError{}
	for _, item := range req.Items {
		product, variant, found := s.findVariant(item.VariantID)
		if !found {
			continue
		}
		stockErr := storefront.StockError{
			ProductID:    product.ID,
			VariantID:    variant.ID,
			ProductName:  product.Name,
			RequestedQty: item.Quantity,
			AvailableQty: variant.StockQuantity,
		}
		switch {
		case !product.IsActive || !variant.IsActive:
			stockErr.Reason = storefront.StockErrorProductInactive
			errors = append(errors, stockErr)
		case variant.StockQuantity == 0:
			stockErr.Reason = storefront.StockErrorOutOfStock
			errors = append(errors, stockErr)
		case variant.StockQuantity < item.Quantity:
			stockErr.Reason = storefront.StockErrorInsufficientStock
			errors = append(errors, stockErr)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":  len(errors) == 0,
		"errors": errors,
	})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]storefront.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    len(products),
		"page":     1,
	})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	addrs := s.addresses[userID]
	if addrs == nil {
		addrs = []storefront.Address{}
	}
	writeJSON(w, http.StatusOK, addrs)
}

func (s *Server) handleCreateAddress(w http.ResponseWriter, r *http.Request) {
	var addr storefront.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	addr.ID = uuid.New().String()
	s.addresses[userID] = append(s.addresses[userID], addr)
	writeJSON(w, http.StatusCreated, addr)
}

func (s *Server) handleShippingMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []storefront.ShippingMethod{
		{ID: "standard", Name: "Standard", Fee: 4.99, Estimate: "3-5 days"},
		{ID: "express", Name: "Express", Fee: 12.50, Estimate: "1-2 days"},
	})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AddressID        string `json:"address_id"`
		ShippingMethodID string `json:"shipping_method_id"`
		PaymentMethod    string `json:"payment_method"`
		VoucherCode      string `json:"voucher_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	cart := s.cartFor(userID)
	if len(cart.Items) == 0 {
		writeError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	discount := s.vouchers[req.VoucherCode]
	order := storefront.Order{
		ID:          uuid.New().String(),
		OrderNumber: fmt.Sprintf("ORD-%06d", len(s.orders[userID])+1),
		Status:      "pending",
		Subtotal:    cart.Subtotal,
		Discount:    discount,
		Total:       cart.Subtotal - discount,
		CreatedAt:   time.Now().UTC(),
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, storefront.OrderItem{
			ID:            uuid.New().String(),
			ProductName:   item.Product.Name,
			SKU:           item.ProductVariant.SKU,
			Quantity:      item.Quantity,
			PriceSnapshot: item.PriceSnapshot,
			Subtotal:      item.Subtotal,
		})
	}
	s.orders[userID] = append(s.orders[userID], order)

	// Placing the order consumes the cart
	cart.Items = []storefront.CartItem{}
	recalculate(cart)

	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	orders := s.orders[userID]
	if orders == nil {
		orders = []storefront.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	for _, order := range s.orders[userID] {
		if order.ID == orderID {
			writeJSON(w, http.StatusOK, order)
			return
		}
	}
	writeError(w, http.StatusNotFound, "order not found")
}

func (s *Server) handleVoucher(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string  `json:"code"`
		Subtotal float64 `json:"subtotal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	discount, ok := s.vouchers[req.Code]
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "voucher is not valid")
		return
	}
	writeJSON(w, http.StatusOK, storefront.AppliedVoucher{Code: req.Code, Discount: discount})
}
