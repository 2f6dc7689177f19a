package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rxscan/rxscan/internal/store"
)

// productsHandler lists stored products.
func (s *Server) productsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	products, err := s.store.ListProducts(r.Context(), limit, offset)
	if err != nil {
		s.writeErrorResponse(w, "Failed to list products", http.StatusInternalServerError)
		return
	}
	if products == nil {
		products = []*store.Product{}
	}

	s.writeJSON(w, http.StatusOK, ProductListResponse{Products: products, Count: len(products)})
}

// productHandler fetches or deletes one product by id.
func (s *Server) productHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/products/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := s.store.GetProduct(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			s.writeErrorResponse(w, "Product not found", http.StatusNotFound)
			return
		}
		if err != nil {
			s.writeErrorResponse(w, "Failed to load product", http.StatusInternalServerError)
			return
		}
		s.writeJSON(w, http.StatusOK, product)
	case http.MethodDelete:
		err := s.store.DeleteProduct(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			s.writeErrorResponse(w, "Product not found", http.StatusNotFound)
			return
		}
		if err != nil {
			s.writeErrorResponse(w, "Failed to delete product", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
