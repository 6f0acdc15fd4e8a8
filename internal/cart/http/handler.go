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

	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/domain"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/service"
)

type CartHandler struct {
	service *service.CartService
	timeout time.Duration
	logger  *slog.Logger
}

func NewCartHandler(s *service.CartService, timeout time.Duration, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: s, timeout: timeout, logger: logger}
}

func (h *CartHandler) Register(r chi.Router) {
	r.Route("/api/v1/carts/{cartID}", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Delete("/items/{itemID}", h.RemoveItem)
	})
}

type addItemRequestDTO struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	ImageURI     string  `json:"imageUri"`
	ImageAltText string  `json:"imageAltText"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
}

type cartResponseDTO struct {
	ID    string            `json:"id"`
	Items []domain.CartItem `json:"items"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cartID := chi.URLParam(r, "cartID")
	items, err := h.service.GetItems(ctx, cartID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponseDTO{ID: cartID, Items: items})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cartID := chi.URLParam(r, "cartID")

	var req addItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	item, err := domain.NewCartItem(req.ID, req.Name, req.Price, req.Quantity, req.ImageURI, req.ImageAltText)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_item", err.Error())
		return
	}

	if err := h.service.AddItem(ctx, cartID, item); err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cartID := chi.URLParam(r, "cartID")
	itemID, err := strconv.Atoi(chi.URLParam(r, "itemID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item id must be an integer")
		return
	}

	removed, err := h.service.RemoveItem(ctx, cartID, itemID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !removed {
		respondError(w, http.StatusNotFound, "not_found", "no such cart item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "not_found", "no such cart")
	default:
		h.logger.Error("cart request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are already out; nothing left to do.
		return
	}
}

func respondError(w http.ResponseWriter, status int, code, details string) {
	respondJSON(w, status, errorResponse{Error: code, Details: details})
}
