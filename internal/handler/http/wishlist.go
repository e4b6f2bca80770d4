package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/wishlist/internal/domain"
	"github.com/utafrali/wishlist/internal/service"
	apperrors "github.com/utafrali/wishlist/pkg/errors"
	"github.com/utafrali/wishlist/pkg/httputil"
	"github.com/utafrali/wishlist/pkg/validator"
)

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	service *service.WishlistService
	logger  *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc *service.WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request / response DTOs ---

// AddItemRequest is the JSON request body for adding an item to a wishlist.
type AddItemRequest struct {
	UserID string `json:"userId" validate:"required,max=128"`
	ItemID string `json:"itemId" validate:"required,max=128"`
	Name   string `json:"name" validate:"required,max=500"`
}

// Normalize trims surrounding whitespace before validation.
func (r *AddItemRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.ItemID = strings.TrimSpace(r.ItemID)
	r.Name = strings.TrimSpace(r.Name)
}

// AddItemResponse is returned after a successful or idempotent add.
type AddItemResponse struct {
	WishlistID string `json:"wishlistId"`
	ItemID     string `json:"itemId"`
	Name       string `json:"name"`
}

// ItemResponse is one wishlist entry.
type ItemResponse struct {
	ItemID string `json:"itemId"`
	Name   string `json:"name"`
}

// ListItemsResponse holds the items of a wishlist in insertion order.
type ListItemsResponse struct {
	Items []ItemResponse `json:"items"`
}

// ContainsResponse reports whether an item is in the wishlist.
type ContainsResponse struct {
	Exists bool `json:"exists"`
}

// WishlistResponse is the full wishlist of one user.
type WishlistResponse struct {
	WishlistID string         `json:"wishlistId"`
	UserID     string         `json:"userId"`
	Items      []ItemResponse `json:"items"`
}

func toItemResponses(items []domain.WishlistItem) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i, it := range items {
		out[i] = ItemResponse{ItemID: it.ItemID, Name: it.Name}
	}
	return out
}

// --- Handlers ---

// AddItem handles POST /wishlist/item
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	out, err := h.service.AddItem(r.Context(), service.AddItemInput{
		UserID: req.UserID,
		ItemID: req.ItemID,
		Name:   req.Name,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, AddItemResponse{
		WishlistID: out.WishlistID,
		ItemID:     out.ItemID,
		Name:       out.Name,
	})
}

// pathParam returns the decoded value of a route parameter. chi matches on
// r.URL.RawPath when it is set, leaving escapes such as %2F in the value.
func pathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v, nil
	}
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return "", apperrors.InvalidInput(name + " is not a valid path segment")
	}
	return decoded, nil
}

func userAndItem(r *http.Request) (string, string, error) {
	userID, err := pathParam(r, "userId")
	if err != nil {
		return "", "", err
	}
	itemID, err := pathParam(r, "itemId")
	if err != nil {
		return "", "", err
	}
	return userID, itemID, nil
}

// RemoveItem handles DELETE /wishlist/{userId}/items/{itemId}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, itemID, err := userAndItem(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.service.RemoveItem(r.Context(), userID, itemID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListItems handles GET /wishlist/{userId}/items
func (h *WishlistHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID, err := pathParam(r, "userId")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	items, err := h.service.ListItems(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ListItemsResponse{Items: toItemResponses(items)})
}

// ContainsItem handles GET /wishlist/{userId}/items/{itemId}
func (h *WishlistHandler) ContainsItem(w http.ResponseWriter, r *http.Request) {
	userID, itemID, err := userAndItem(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	exists, err := h.service.ContainsItem(r.Context(), userID, itemID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ContainsResponse{Exists: exists})
}

// GetWishlist handles GET /wishlist/{userId}
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	userID, err := pathParam(r, "userId")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	wl, found, err := h.service.FindByOwner(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if !found {
		httputil.WriteError(w, r, domain.ErrWishlistNotFound(userID), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, WishlistResponse{
		WishlistID: wl.ID,
		UserID:     wl.UserID,
		Items:      toItemResponses(wl.Items),
	})
}

// NotFound answers unknown routes with the standard error body.
func (h *WishlistHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusNotFound,
		httputil.NewErrorResponse(r, apperrors.Code(apperrors.ErrNotFound), "route not found"))
}

// MethodNotAllowed answers known routes called with the wrong method.
func (h *WishlistHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusMethodNotAllowed,
		httputil.NewErrorResponse(r, "METHOD_NOT_ALLOWED", "method "+r.Method+" not allowed"))
}
