package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

// decodeAndValidate decodes the body into dst and runs struct validation,
// writing the error response itself. It reports whether the handler may continue.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSONBody(w, r, dst); err != nil {
		s.respondDecodeError(w, err)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.respondValidationError(w, err)
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.WithError(err).Warn("http: failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func (s *Server) respondValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}
	fields := make(map[string]string, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
		names = append(names, fe.Field())
	}
	s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "Invalid fields: " + strings.Join(names, ", "),
		Details: fields,
	})
}

func (s *Server) requireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.verifyBearer(r.Header.Get("Authorization")) {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
			return
		}
		next(w, r)
	}
}

func (s *Server) verifyBearer(header string) bool {
	if header == "" || s.cfg.AuthToken == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token == s.cfg.AuthToken
}
