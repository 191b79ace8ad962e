package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleGetSettings answers {} when the user has not saved settings yet.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.deps.Settings.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if b == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, newSettingsResponse(*b))
}

// handleUpsertSettings serves both POST routes. A userId in the path wins
// over the one in the body.
func (s *Server) handleUpsertSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if chi.URLParam(r, "userId") != "" {
		userID, err := pathID(r, "userId")
		if err != nil {
			writeError(w, r, err)
			return
		}
		req.UserID = userID
	}

	saved, err := s.deps.Settings.Upsert(r.Context(), req.toSettings())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettingsResponse(saved))
}
