package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSuccess(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/genres", nil)
	req = req.WithContext(ContextWithRequestID(req.Context(), "req-1"))
	w := httptest.NewRecorder()

	JSONSuccess(w, req, map[string]string{"name": "Horror"}, PageMeta(2, 20, 41))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
		Meta    map[string]any    `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "Horror", body.Data["name"])
	assert.Equal(t, "req-1", body.Meta["request_id"])
	assert.Equal(t, float64(3), body.Meta["total_pages"])
}

func TestJSONSuccess_NoMeta(t *testing.T) {
	w := httptest.NewRecorder()
	JSONSuccess(w, httptest.NewRequest(http.MethodGet, "/", nil), "ok", nil)

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	_, hasMeta := body["meta"]
	assert.False(t, hasMeta)
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	details := []ErrorDetail{{Field: "email", Message: "email is required"}}

	JSONError(w, httptest.NewRequest(http.MethodPost, "/", nil), http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, "Invalid input", body.Error.Message)
	assert.Equal(t, details, body.Error.Details)
}

func TestJSONSeeOther(t *testing.T) {
	w := httptest.NewRecorder()
	JSONSeeOther(w, httptest.NewRequest(http.MethodPost, "/", nil), "/v1/loans", map[string]string{"due_back": "2026-11-09"})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/v1/loans", w.Header().Get("Location"))
}

func TestPage(t *testing.T) {
	tests := []struct {
		query      string
		page, size int
	}{
		{"", 1, 20},
		{"page=3&page_size=50", 3, 50},
		{"page=0&page_size=500", 1, 20},
		{"page=abc&page_size=-1", 1, 20},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			page, size := Page(httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil))
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.size, size)
		})
	}
}
