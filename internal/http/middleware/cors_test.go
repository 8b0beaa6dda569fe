package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodPost, "/api/leads", nil)
	req.Header.Set("Origin", "https://floridaproleads.com")
	rec := httptest.NewRecorder()

	CORS([]string{"https://floridaproleads.com"})(okHandler(&called)).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://floridaproleads.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestCORSDeniesUnknownOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/services", nil)
	req.Header.Set("Origin", "https://unknown.example")
	rec := httptest.NewRecorder()

	CORS([]string{"https://floridaproleads.com"})(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcard(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/services", nil)
	req.Header.Set("Origin", "https://any.example")
	rec := httptest.NewRecorder()

	CORS([]string{" * "})(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, "https://any.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard/leads/abc", nil)
	req.Header.Set("Origin", "https://floridaproleads.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()

	CORS([]string{"https://floridaproleads.com"})(okHandler(&called)).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCORSSubdomainPattern(t *testing.T) {
	handler := CORS([]string{"https://*.floridaproleads.com"})(okHandler(nil))

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "https://roofing.floridaproleads.com", want: true},
		{origin: "https://a.b.floridaproleads.com", want: true},
		{origin: "https://floridaproleads.com", want: false},
		{origin: "http://roofing.floridaproleads.com", want: false},
		{origin: "https://evilfloridaproleads.com", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/site/roofing", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin") == tt.origin
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCORSPreflightFromUnknownOriginIsForbidden(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodOptions, "/api/leads", nil)
	req.Header.Set("Origin", "https://unknown.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	CORS([]string{"https://floridaproleads.com"})(okHandler(&called)).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCORSExposesDownloadHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/leads/export.csv", nil)
	req.Header.Set("Origin", "https://floridaproleads.com")
	rec := httptest.NewRecorder()

	CORS([]string{"https://floridaproleads.com/"})(okHandler(nil)).ServeHTTP(rec, req)

	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}
