package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatusProvider struct {
	status map[string]interface{}
}

func (f *fakeStatusProvider) Status() map[string]interface{} {
	return f.status
}

// Persistence is optional; with no database configured the keeper is
// still fully functional in scan-only mode, so /health must report OK.
func TestHealthOKWithoutDatabase(t *testing.T) {
	server := NewWebServer("8080", &fakeStatusProvider{})

	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, false, body["persistence_enabled"])
	assert.Equal(t, true, body["database_healthy"])
}

func TestStatusEndpointReturnsProviderView(t *testing.T) {
	provider := &fakeStatusProvider{status: map[string]interface{}{
		"pair":       "FerBTC_FerUSD",
		"live_mode":  false,
		"last_cycle": float64(7),
	}}
	server := NewWebServer("8080", provider)

	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, provider.status, body)
}

func TestStatusEndpointWithoutKeeper(t *testing.T) {
	server := NewWebServer("8080", nil)

	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
