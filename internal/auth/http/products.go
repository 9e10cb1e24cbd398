package http

import (
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/aussiebroadwan/till/pkg/authsdk"
)

// Product is a demo catalog entry. The real catalog lives in the POS
// service; these routes exist so clients can exercise permission gating.
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price_cents"`
}

// UpdateProductRequest is the body of PUT /products/{id}.
type UpdateProductRequest struct {
	Name  string `json:"name" validate:"omitempty,max=255"`
	Price *int   `json:"price_cents" validate:"omitempty,gte=0"`
}

// ProductsHandler serves an in-memory product list.
type ProductsHandler struct {
	mu       sync.RWMutex
	products map[string]Product
}

func NewProductsHandler(seed ...Product) *ProductsHandler {
	h := &ProductsHandler{products: make(map[string]Product, len(seed))}
	for _, p := range seed {
		h.products[p.ID] = p
	}
	return h
}

// DemoProducts is the catalog served when nothing else is configured.
func DemoProducts() []Product {
	return []Product{
		{ID: "flat-white", Name: "Flat White", Price: 450},
		{ID: "long-black", Name: "Long Black", Price: 400},
		{ID: "lamington", Name: "Lamington", Price: 350},
	}
}

// HandleList lists products.
//
//	@Summary		List products
//	@Description	Sample route. Requires view_products or edit_products.
//	@Tags			Products
//	@Produce		json
//	@Success		200	{object}	authsdk.Envelope{data=[]Product}	"Products"
//	@Failure		401	{object}	authsdk.Envelope	"Unauthenticated"
//	@Failure		403	{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Security		BearerAuth
//	@Router			/products [get].
func (h *ProductsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	out := make([]Product, 0, len(h.products))
	for _, p := range h.products {
		out = append(out, p)
	}
	h.mu.RUnlock()

	slices.SortFunc(out, func(a, b Product) int { return strings.Compare(a.ID, b.ID) })
	authsdk.Respond(w, http.StatusOK, "Products retrieved.", out)
}

// HandleUpdate edits a product.
//
//	@Summary		Update product
//	@Description	Sample route. Requires edit_products.
//	@Tags			Products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Product ID"
//	@Param			request	body		UpdateProductRequest	true	"Changes"
//	@Success		200		{object}	authsdk.Envelope{data=Product}	"Updated"
//	@Failure		403		{object}	authsdk.Envelope	"InsufficientPermissions"
//	@Failure		404		{object}	authsdk.Envelope	"NotFound"
//	@Security		BearerAuth
//	@Router			/products/{id} [put].
func (h *ProductsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	h.mu.Lock()
	p, ok := h.products[r.PathValue("id")]
	if ok {
		if req.Name != "" {
			p.Name = req.Name
		}
		if req.Price != nil {
			p.Price = *req.Price
		}
		h.products[p.ID] = p
	}
	h.mu.Unlock()

	if !ok {
		authsdk.ErrNotFound.WithMessage("Product not found.").WriteError(w)
		return
	}
	authsdk.Respond(w, http.StatusOK, "Product updated.", p)
}
