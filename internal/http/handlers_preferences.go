package httpx

import (
	"net/http"

	"github.com/target/bhajan-library/internal/domain/model"
)

// PreferenceHandlers exposes the browser's PreferencesStore.
type PreferenceHandlers struct{}

type updatePreferencesRequest struct {
	ShowMeaning    *bool          `json:"show_meaning,omitempty"`
	EnabledScripts []model.Script `json:"enabled_scripts,omitempty"`
}

// Get handles GET /api/preferences.
func (h *PreferenceHandlers) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteData(w, http.StatusOK, c.Preferences.Preferences())
}

// Update handles PUT /api/preferences. Absent fields keep their value.
func (h *PreferenceHandlers) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req updatePreferencesRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.EnabledScripts != nil {
		if res := c.Preferences.SetEnabledScripts(r.Context(), req.EnabledScripts); !res.Success {
			WriteResult(w, http.StatusOK, res)
			return
		}
	}
	if req.ShowMeaning != nil {
		if res := c.Preferences.SetShowMeaning(r.Context(), *req.ShowMeaning); !res.Success {
			WriteResult(w, http.StatusOK, res)
			return
		}
	}
	WriteData(w, http.StatusOK, c.Preferences.Preferences())
}

// ToggleMeaning handles POST /api/preferences/toggle-meaning.
func (h *PreferenceHandlers) ToggleMeaning(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Preferences.ToggleMeaning(r.Context()))
}

// ToggleScript handles POST /api/preferences/scripts/{script}/toggle.
func (h *PreferenceHandlers) ToggleScript(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Preferences.ToggleScript(r.Context(), model.Script(r.PathValue("script"))))
}

// Reset handles POST /api/preferences/reset.
func (h *PreferenceHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Preferences.ResetToDefaults(r.Context()))
}
