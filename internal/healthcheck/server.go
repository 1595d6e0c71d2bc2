// Package healthcheck serves the liveness endpoints used by hosting
// platforms to keep the process up.
package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/petasbytes/ellie/internal/metrics"
)

const DefaultListen = "0.0.0.0:10000"

// StatsFunc reports the counters included in /health. It may be nil.
type StatsFunc func() metrics.Snapshot

// Handler returns a mux serving "/" and "/health".
func Handler(stats StatsFunc) http.Handler {
	started := time.Now()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !allowRead(w, r) {
			return
		}
		payload := map[string]any{
			"ok":             true,
			"time":           time.Now().Format(time.RFC3339Nano),
			"uptime_seconds": int64(time.Since(started).Seconds()),
		}
		if stats != nil {
			payload["turns"] = stats()
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_ = json.NewEncoder(w).Encode(payload)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if !allowRead(w, r) {
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func allowRead(w http.ResponseWriter, r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return true
	default:
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
}

// Serve listens on listen and serves Handler(stats) until ctx is done. It
// returns nil after a clean shutdown.
func Serve(ctx context.Context, logger *zap.Logger, listen string, stats StatsFunc) error {
	listen = strings.TrimSpace(listen)
	if listen == "" {
		return errors.New("empty health listen address")
	}
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return err
	}
	return serveListener(ctx, logger, ln, stats)
}

func serveListener(ctx context.Context, logger *zap.Logger, ln net.Listener, stats StatsFunc) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{
		Handler:           Handler(stats),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("health server started", zap.String("addr", ln.Addr().String()), zap.String("health_path", "/health"))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("health server stopped")
	return nil
}
