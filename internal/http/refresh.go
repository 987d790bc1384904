package httpserver

import "net/http"

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.refreshMu.TryLock() {
		s.respondError(w, http.StatusConflict, "REFRESH_RUNNING", "A refresh is already running")
		return
	}
	defer s.refreshMu.Unlock()

	report, err := s.refresh.Run(r.Context())
	if err != nil {
		s.logger.WithError(err).WithField("run_id", report.RunID).Error("http: refresh failed")
		s.respondError(w, http.StatusBadGateway, "REFRESH_FAILED", err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}
