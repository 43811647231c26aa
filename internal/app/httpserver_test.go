package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/db/memdb"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestOpsHandler_Healthz(t *testing.T) {
	rec := httptest.NewRecorder()
	opsHandler(memdb.Open()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	rec = httptest.NewRecorder()
	opsHandler(down).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestOpsHandler_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	opsHandler(memdb.Open()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portal_aggregation_runs_total")
}

func TestStartHTTP_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := StartHTTP(ctx, "127.0.0.1:0", memdb.Open(), zap.NewNop())
	cancel()
	<-h.Done()
}
