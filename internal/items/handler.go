package items

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/mzurek/zakupy/internal/auth"
	"github.com/mzurek/zakupy/internal/models"
	"github.com/mzurek/zakupy/internal/store"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ItemStore defines the interface for item persistence. Every method
// scopes its effect to the given user id.
type ItemStore interface {
	ListItems(ctx context.Context, userID string) ([]models.Item, error)
	AddItem(ctx context.Context, userID string, req models.AddItemRequest) (*models.Item, error)
	UpdateItem(ctx context.Context, userID, itemID string, patch models.ItemPatch) error
	DeleteItem(ctx context.Context, userID, itemID string) error
	DeleteChecked(ctx context.Context, userID string) (int64, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
	ReplaceItems(ctx context.Context, userID string, items []models.AddItemRequest) error
}

// Handler holds item HTTP handlers.
type Handler struct {
	store ItemStore
}

func NewHandler(store ItemStore) *Handler {
	return &Handler{store: store}
}

// List returns every item the caller owns, unchecked first, newest
// first within each group.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFrom(r.Context())
	items, err := h.store.ListItems(r.Context(), userID)
	if err != nil {
		log.Printf("list items: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Add validates and inserts a single item, returning the created row.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFrom(r.Context())

	var req models.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.store.AddItem(r.Context(), userID, req)
	if err != nil {
		log.Printf("add item: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// Put dispatches PUT /api/items on its query string: ?id=ID is a
// partial update, ?action=replace overwrites the whole list.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		h.update(w, r, id)
		return
	}
	if r.URL.Query().Get("action") == "replace" {
		h.replace(w, r)
		return
	}
	writeError(w, http.StatusBadRequest, "id or action=replace is required")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, itemID string) {
	userID := auth.UserIDFrom(r.Context())

	var patch models.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if patch.IsEmpty() {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.store.UpdateItem(r.Context(), userID, itemID, patch)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		log.Printf("update item: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item updated"})
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFrom(r.Context())

	var req models.ReplaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	// Validate the whole batch before touching the store. A single bad
	// item rejects the request with no partial effect.
	for i := range req.Items {
		if err := req.Items[i].Validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("item %d: %v", i+1, err))
			return
		}
	}

	if err := h.store.ReplaceItems(r.Context(), userID, req.Items); err != nil {
		log.Printf("replace items: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "list saved"})
}

// Delete dispatches DELETE /api/items on its query string: ?id=ID
// removes one item, ?action=remove_checked sweeps completed items,
// ?action=clear empties the list.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFrom(r.Context())

	if id := r.URL.Query().Get("id"); id != "" {
		err := h.store.DeleteItem(r.Context(), userID, id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		if err != nil {
			log.Printf("delete item: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "item deleted"})
		return
	}

	switch r.URL.Query().Get("action") {
	case "remove_checked":
		count, err := h.store.DeleteChecked(r.Context(), userID)
		if err != nil {
			log.Printf("remove checked: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"count": count})
	case "clear":
		count, err := h.store.DeleteAll(r.Context(), userID)
		if err != nil {
			log.Printf("clear list: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"count": count})
	default:
		writeError(w, http.StatusBadRequest, "id or action is required")
	}
}
