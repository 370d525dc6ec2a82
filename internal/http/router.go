package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Router wraps the standard library mux; no third-party router needed for
// this surface.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// ServeHTTP tags every request with a request id and logs the access.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	requestID := req.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.New().String()
	}
	w.Header().Set("X-Request-Id", requestID)

	start := time.Now()
	r.mux.ServeHTTP(w, req)
	r.logger.Debug("request handled",
		zap.String("request_id", requestID),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// RegisterLevelRoutes wires the level hierarchy endpoints.
func (r *Router) RegisterLevelRoutes(h *LevelHandler) {
	r.Handle("/api/v1/levels", h.ServeHTTP)
}

// RegisterPlanRoutes wires the maintenance plan endpoints.
func (r *Router) RegisterPlanRoutes(h *PlanHandler) {
	r.Handle("/api/v1/plans", h.ServeHTTP)
	r.Handle("/api/v1/plans/", h.ServeHTTP)
}

// RegisterHealthRoutes wires the liveness endpoint.
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok("ok", "ok"))
	})
}
