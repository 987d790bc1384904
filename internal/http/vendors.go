package httpserver

import "net/http"

type vendorResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := s.repo.Vendors.List(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("http: list vendors failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list vendors")
		return
	}
	items := make([]vendorResponse, 0, len(vendors))
	for _, v := range vendors {
		items = append(items, vendorResponse{ID: v.ID, Name: v.Name})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}
