package httpserver

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func FuzzDecodeIDParam(f *testing.F) {
	for _, seed := range []string{"1", "42", "0", "-3", "abc", "9223372036854775808", " 7 "} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		req := httptest.NewRequest("GET", "/movies/x", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", raw)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		id, err := decodeIDParam(req)
		if err == nil && id <= 0 {
			t.Fatalf("decodeIDParam(%q) = %d without error", raw, id)
		}
	})
}
