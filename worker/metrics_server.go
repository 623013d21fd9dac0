package worker

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"sentiment-producer/internal/metrics"
)

// MetricsServer exposes /metrics, /livez and /healthz while the producer runs.
type MetricsServer struct {
	Addr string

	listening chan net.Addr
}

func NewMetricsServer(addr string) *MetricsServer {
	return &MetricsServer{Addr: addr, listening: make(chan net.Addr, 1)}
}

// Listening yields the bound address once the listener is up.
func (s *MetricsServer) Listening() <-chan net.Addr {
	return s.listening
}

func (s *MetricsServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/healthz", healthHandler(ctx))

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if s.listening != nil {
		s.listening <- ln.Addr()
	}
	slog.Info("metrics: listening", "addr", ln.Addr().String())

	errc := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			return err
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// healthHandler reports 503 once ctx is done. ctx is shared with the other
// workers, so a failing producer or a signal flips it until the listener shuts down.
func healthHandler(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if ctx.Err() != nil {
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
