package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error { return nil }

func down(msg string) Checker {
	return func(context.Context) error { return errors.New(msg) }
}

func serveReady(t *testing.T, h *Handler) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec, resp
}

func TestLivenessHandler_AlwaysReturns200(t *testing.T) {
	h := NewHandler()
	h.Register("store", down("unreachable"))

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.Empty(t, resp.Checks)
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		required   map[string]Checker
		optional   map[string]Checker
		wantCode   int
		wantStatus Status
	}{
		{"no checks", nil, nil, http.StatusOK, StatusUp},
		{"all healthy", map[string]Checker{"store": up}, map[string]Checker{"kafka": up}, http.StatusOK, StatusUp},
		{"required down", map[string]Checker{"store": down("connection refused")}, map[string]Checker{"kafka": up}, http.StatusServiceUnavailable, StatusDown},
		{"optional down", map[string]Checker{"store": up}, map[string]Checker{"kafka": down("no brokers")}, http.StatusOK, StatusDegraded},
		{"both down", map[string]Checker{"store": down("x")}, map[string]Checker{"kafka": down("y")}, http.StatusServiceUnavailable, StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			for name, c := range tt.required {
				h.Register(name, c)
			}
			for name, c := range tt.optional {
				h.RegisterOptional(name, c)
			}

			rec, resp := serveReady(t, h)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Len(t, resp.Checks, len(tt.required)+len(tt.optional))
		})
	}
}

func TestReadinessHandler_ReportsErrorAndOptionalFlag(t *testing.T) {
	h := NewHandler()
	h.RegisterOptional("kafka", down("no brokers"))

	_, resp := serveReady(t, h)

	res := resp.Checks["kafka"]
	assert.Equal(t, StatusDown, res.Status)
	assert.True(t, res.Optional)
	assert.Equal(t, "no brokers", res.Error)
	assert.NotEmpty(t, res.Latency)
}

func TestCheck_RunsConcurrently(t *testing.T) {
	h := NewHandler()
	slow := func(ctx context.Context) error {
		select {
		case <-time.After(100 * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h.Register("a", slow)
	h.Register("b", slow)
	h.Register("c", slow)

	start := time.Now()
	resp := h.Check(context.Background())

	assert.Equal(t, StatusUp, resp.Status)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestCheck_HonoursContextDeadline(t *testing.T) {
	h := NewHandler()
	h.Register("store", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	resp := h.Check(ctx)
	assert.Equal(t, StatusDown, resp.Status)
	assert.Contains(t, resp.Checks["store"].Error, "deadline exceeded")
}

func TestRegister_ReplacesExisting(t *testing.T) {
	h := NewHandler()
	h.Register("store", down("old"))
	h.Register("store", up)

	_, resp := serveReady(t, h)
	assert.Equal(t, StatusUp, resp.Status)
}
