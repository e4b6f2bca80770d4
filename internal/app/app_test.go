package app

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/wishlist/internal/config"
	pkgconfig "github.com/utafrali/wishlist/pkg/config"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	require.NoError(t, pkgconfig.LoadFrom(cfg, map[string]string{
		"WISHLIST_STORE": "memory",
		"RATE_LIMIT_RPS": "1000",
	}))
	return cfg
}

func TestNewApp_MemoryStoreServesRequests(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := NewApp(memoryConfig(t), logger)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Shutdown()) })

	h := a.Handler()

	req := httptest.NewRequest(http.MethodPost, "/wishlist/item",
		bytes.NewBufferString(`{"userId":"u1","itemId":"i1","name":"Book"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wishlist/u1/items/i1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exists":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"memory"`)
}
