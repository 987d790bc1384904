package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Clark-Hu/pricewatch/internal/catalog"
	"github.com/Clark-Hu/pricewatch/internal/domain"
	"github.com/Clark-Hu/pricewatch/internal/repository"
)

type movieCreateRequest struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
}

type purchaseRequest struct {
	Date     string           `json:"date" validate:"required,datetime=2006-01-02"`
	Amount   *decimal.Decimal `json:"amount" validate:"required"`
	VendorID int              `json:"vendorId" validate:"required,gt=0"`
}

type movieResponse struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	URL              string            `json:"url"`
	Identifier       string            `json:"identifier"`
	Poster           *string           `json:"poster,omitempty"`
	ReleaseDate      *string           `json:"releaseDate,omitempty"`
	ReleaseYear      *int              `json:"releaseYear,omitempty"`
	RuntimeMinutes   *int              `json:"runtimeMinutes,omitempty"`
	ShortDescription *string           `json:"shortDescription,omitempty"`
	Purchase         *purchaseResponse `json:"purchase,omitempty"`
}

type purchaseResponse struct {
	Date     *string `json:"date"`
	Amount   *string `json:"amount"`
	VendorID *int    `json:"vendorId"`
}

type movieListResponse struct {
	Items []movieResponse `json:"items"`
}

type priceResponse struct {
	VendorID         int    `json:"vendorId"`
	PresentationType string `json:"presentationType"`
	PriceValue       string `json:"priceValue"`
	Date             string `json:"date"`
}

type priceListResponse struct {
	MovieID int64           `json:"movieId"`
	Items   []priceResponse `json:"items"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := s.repo.Movies.List(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("http: list movies failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list movies")
		return
	}

	items := make([]movieResponse, 0, len(movies))
	for _, movie := range movies {
		items = append(items, toMovieResponse(movie, nil))
	}
	s.respondJSON(w, http.StatusOK, movieListResponse{Items: items})
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	movie, err := s.repo.Movies.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.WithError(err).WithField("movie_id", id).Error("http: get movie failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch movie")
		return
	}

	var purchase *domain.Purchase
	p, err := s.repo.Purchases.Get(r.Context(), id)
	switch {
	case err == nil:
		purchase = &p
	case !errors.Is(err, repository.ErrNotFound):
		s.logger.WithError(err).WithField("movie_id", id).Error("http: get purchase failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch movie")
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie, purchase))
}

func (s *Server) handleListPrices(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	if _, err := s.repo.Movies.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.WithError(err).WithField("movie_id", id).Error("http: get movie failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list prices")
		return
	}

	var history []domain.PriceObservation
	if latest, _ := strconv.ParseBool(r.URL.Query().Get("latest")); latest {
		history, err = s.repo.Prices.Latest(r.Context(), id)
	} else {
		history, err = s.repo.Prices.ListByMovie(r.Context(), id)
	}
	if err != nil {
		s.logger.WithError(err).WithField("movie_id", id).Error("http: list prices failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list prices")
		return
	}

	items := make([]priceResponse, 0, len(history))
	for _, o := range history {
		items = append(items, priceResponse{
			VendorID:         o.VendorID,
			PresentationType: string(o.PresentationType),
			PriceValue:       o.PriceValue.StringFixed(2),
			Date:             o.Date.Format(time.DateOnly),
		})
	}
	s.respondJSON(w, http.StatusOK, priceListResponse{MovieID: id, Items: items})
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	var req movieCreateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	movie, err := s.catalog.AddMovie(r.Context(), req.Name, req.URL)
	switch {
	case errors.Is(err, catalog.ErrAlreadyTracked):
		s.respondJSON(w, http.StatusConflict, errorResponse{
			Code:    "ALREADY_TRACKED",
			Message: "Movie url is already tracked",
			Details: toMovieResponse(movie, nil),
		})
		return
	case errors.Is(err, catalog.ErrNoMatch):
		s.respondError(w, http.StatusUnprocessableEntity, "NO_MATCH", "No lookup result matches the url")
		return
	case errors.Is(err, catalog.ErrInvalidInput):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	case err != nil:
		s.logger.WithError(err).WithField("movie", req.Name).Error("http: add movie failed")
		s.respondError(w, http.StatusBadGateway, "LOOKUP_FAILED", "Failed to add movie")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/movies/%d", movie.ID))
	s.respondJSON(w, http.StatusCreated, toMovieResponse(movie, &domain.Purchase{MovieID: movie.ID}))
}

func (s *Server) handleRecordPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var req purchaseRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "date must follow YYYY-MM-DD format")
		return
	}

	p, err := s.catalog.RecordPurchase(r.Context(), catalog.PurchaseInput{
		MovieID:  id,
		Date:     date,
		Amount:   *req.Amount,
		VendorID: req.VendorID,
	})
	switch {
	case errors.Is(err, catalog.ErrMovieNotFound):
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	case errors.Is(err, catalog.ErrUnknownVendor):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "vendorId does not exist")
		return
	case errors.Is(err, catalog.ErrNoPlaceholder):
		s.respondError(w, http.StatusConflict, "NO_PLACEHOLDER", "Movie has no purchase row")
		return
	case errors.Is(err, catalog.ErrInvalidInput):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	case err != nil:
		s.logger.WithError(err).WithField("movie_id", id).Error("http: record purchase failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record purchase")
		return
	}

	s.respondJSON(w, http.StatusOK, toPurchaseResponse(p))
}

func toMovieResponse(movie domain.Movie, purchase *domain.Purchase) movieResponse {
	resp := movieResponse{
		ID:               movie.ID,
		Name:             movie.Name,
		URL:              movie.URL,
		Identifier:       domain.Identifier(movie.Name),
		Poster:           movie.Poster,
		ReleaseYear:      movie.ReleaseYear,
		RuntimeMinutes:   movie.RuntimeMinutes,
		ShortDescription: movie.ShortDescription,
	}
	if movie.ReleaseDate != nil {
		d := movie.ReleaseDate.Format(time.DateOnly)
		resp.ReleaseDate = &d
	}
	if purchase != nil {
		p := toPurchaseResponse(*purchase)
		resp.Purchase = &p
	}
	return resp
}

func toPurchaseResponse(p domain.Purchase) purchaseResponse {
	var resp purchaseResponse
	if p.Date != nil {
		d := p.Date.Format(time.DateOnly)
		resp.Date = &d
	}
	if p.Amount != nil {
		a := p.Amount.StringFixed(2)
		resp.Amount = &a
	}
	resp.VendorID = p.VendorID
	return resp
}

func decodeIDParam(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	if raw == "" {
		return 0, fmt.Errorf("missing id parameter")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id parameter")
	}
	return id, nil
}
