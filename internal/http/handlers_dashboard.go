package http

import "net/http"

// handleDashboard returns the per-user summary: totals by status,
// outstanding and paid amounts, expenses per category and recent activity.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.deps.Dashboard.Summary(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(summary))
}
