package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/domain"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/service"
)

type CatalogHandler struct {
	products   *service.ProductService
	categories *service.CategoryService
	timeout    time.Duration
	logger     *slog.Logger
}

func NewCatalogHandler(products *service.ProductService, categories *service.CategoryService, timeout time.Duration, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{products: products, categories: categories, timeout: timeout, logger: logger}
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.AddProduct)
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
	})
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.AddCategory)
		r.Get("/{id}", h.GetCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})
}

type productDTO struct {
	ID          int     `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	CategoryID  int     `json:"categoryId"`
	Price       float64 `json:"price"`
	Amount      uint    `json:"amount"`
}

type categoryDTO struct {
	ID               int    `json:"id,omitempty"`
	Name             string `json:"name"`
	Image            string `json:"image,omitempty"`
	ParentCategoryID *int   `json:"parentCategoryId,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func productToDTO(p *domain.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Image:       p.Image,
		CategoryID:  p.CategoryID,
		Price:       p.Price,
		Amount:      p.Amount,
	}
}

func categoryToDTO(c *domain.Category) categoryDTO {
	return categoryDTO{ID: c.ID, Name: c.Name, Image: c.Image, ParentCategoryID: c.ParentCategoryID}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	categoryID := 0
	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_category_id", "categoryId must be a positive integer")
			return
		}
		categoryID = id
	}

	products, err := h.products.List(ctx, categoryID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	dtos := make([]productDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, productToDTO(p))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.products.Get(ctx, id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, productToDTO(p))
}

func (h *CatalogHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req productDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	p, err := domain.NewProduct(req.Name, req.CategoryID, req.Price, req.Amount, req.Description, req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product", err.Error())
		return
	}

	added, err := h.products.Add(ctx, p)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, productToDTO(added))
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req productDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	p, err := domain.NewProduct(req.Name, req.CategoryID, req.Price, req.Amount, req.Description, req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product", err.Error())
		return
	}
	p.ID = id

	if err := h.products.Update(ctx, p); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, productToDTO(p))
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	deleted, err := h.products.Delete(ctx, id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "not_found", "no such product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	categories, err := h.categories.List(ctx)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	dtos := make([]categoryDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, categoryToDTO(c))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	c, err := h.categories.Get(ctx, id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categoryToDTO(c))
}

func (h *CatalogHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req categoryDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c, err := domain.NewCategory(req.Name, req.Image, req.ParentCategoryID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_category", err.Error())
		return
	}

	added, err := h.categories.Add(ctx, c)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, categoryToDTO(added))
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req categoryDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c, err := domain.NewCategory(req.Name, req.Image, req.ParentCategoryID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_category", err.Error())
		return
	}
	c.ID = id

	if err := h.categories.Update(ctx, c); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categoryToDTO(c))
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	deleted, err := h.categories.Delete(ctx, id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "not_found", "no such category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *CatalogHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "no such product")
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(w, http.StatusNotFound, "not_found", "no such category")
	default:
		h.logger.Error("catalog request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, code, details string) {
	respondJSON(w, status, errorResponse{Error: code, Details: details})
}
