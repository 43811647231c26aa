package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/metrics"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HTTPServer struct {
	srv  *http.Server
	done chan struct{}
}

// opsHandler serves /healthz (storage ping) and /metrics.
func opsHandler(p Pinger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()
		t0 := time.Now()
		if err := p.Ping(ctx); err != nil {
			http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		metrics.ObserveDBPing(time.Since(t0))
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// StartHTTP serves the ops endpoints until ctx is done, then shuts down gracefully.
func StartHTTP(ctx context.Context, addr string, p Pinger, log *zap.Logger) *HTTPServer {
	srv := &http.Server{Addr: addr, Handler: opsHandler(p), ReadHeaderTimeout: 5 * time.Second}
	h := &HTTPServer{srv: srv, done: make(chan struct{})}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops http server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()

	go func() {
		defer close(h.done)
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return h
}

// Done is closed once the server has shut down.
func (h *HTTPServer) Done() <-chan struct{} { return h.done }
