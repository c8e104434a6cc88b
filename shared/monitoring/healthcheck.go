package monitoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

type HealthServer struct {
	monitor *Monitor
	port    string
	logger  *slog.Logger

	mu     sync.Mutex
	server *http.Server
	addr   string
}

func NewHealthServer(monitor *Monitor, port string, logger *slog.Logger) *HealthServer {
	if port == "" {
		port = "8080"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthServer{
		monitor: monitor,
		port:    port,
		logger:  logger,
	}
}

// Handler returns the mux serving /health and /status.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.healthHandler)
	mux.HandleFunc("/status", h.statusHandler)
	return mux
}

// Start listens on the configured port and serves in the background. Listen
// errors are logged.
func (h *HealthServer) Start() {
	ln, err := net.Listen("tcp", ":"+h.port)
	if err != nil {
		h.logger.Error("health server failed to listen", slog.String("port", h.port), slog.Any("err", err))
		return
	}

	srv := &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}
	h.mu.Lock()
	h.server = srv
	h.addr = ln.Addr().String()
	h.mu.Unlock()

	h.logger.Info("health check server starting", slog.String("addr", ln.Addr().String()))
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("health server error", slog.Any("err", err))
		}
	}()
}

// Addr returns the address the server listens on, or "" before Start.
func (h *HealthServer) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addr
}

func (h *HealthServer) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	srv := h.server
	h.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (h *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if h.monitor.IsHealthy() {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK - %s", h.monitor.GetStatusSummary())
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "Service unhealthy - %s", h.monitor.GetStatusSummary())
	}
}

func (h *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, h.monitor.GetStatusSummary())
}
