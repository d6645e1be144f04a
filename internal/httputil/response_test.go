package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, []int{})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","data":[]}`, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusConflict, "ALREADY_ADDED", "This movie is already in your list.")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"status":"error","error":{"code":"ALREADY_ADDED","message":"This movie is already in your list."}}`, rec.Body.String())
}

func TestWriteJSONWithETag(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSONWithETag(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, []int{1, 2})
	etag := rec.Header().Get("ETag")
	require.Len(t, etag, 18)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("If-None-Match", `"other", `+etag)
	rec = httptest.NewRecorder()
	WriteJSONWithETag(rec, req, http.StatusOK, []int{1, 2})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteJSONWithETag(rec, req, http.StatusOK, []int{1})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
}

func TestReadJSON(t *testing.T) {
	var dst struct {
		ID int `json:"id"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"id":7}`))
	require.NoError(t, ReadJSON(req, &dst))
	assert.Equal(t, 7, dst.ID)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.EqualError(t, ReadJSON(req, &dst), "request body is empty")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"id":`))
	assert.Error(t, ReadJSON(req, &dst))
}
