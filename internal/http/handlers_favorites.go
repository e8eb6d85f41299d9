package httpx

import (
	"net/http"

	"github.com/target/bhajan-library/internal/domain/model"
)

// FavoriteHandlers exposes the browser's FavoritesStore.
type FavoriteHandlers struct{}

// List handles GET /api/favorites.
func (h *FavoriteHandlers) List(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	limit, offset := ParseLimitOffset(r, model.DefaultListLimit, model.MaxListLimit)
	WriteResult(w, http.StatusOK, c.Favorites.Fetch(r.Context(), limit, offset))
}

// Count handles GET /api/favorites/count.
func (h *FavoriteHandlers) Count(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Favorites.FetchCount(r.Context()))
}

// Status handles GET /api/favorites/{bhajanID}.
func (h *FavoriteHandlers) Status(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Favorites.IsFavorited(r.Context(), r.PathValue("bhajanID")))
}

// Add handles POST /api/favorites/{bhajanID}.
func (h *FavoriteHandlers) Add(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Favorites.Add(r.Context(), r.PathValue("bhajanID")))
}

// Remove handles DELETE /api/favorites/{bhajanID}.
func (h *FavoriteHandlers) Remove(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Favorites.Remove(r.Context(), r.PathValue("bhajanID")))
}

// Toggle handles POST /api/favorites/{bhajanID}/toggle.
func (h *FavoriteHandlers) Toggle(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Favorites.Toggle(r.Context(), r.PathValue("bhajanID")))
}
