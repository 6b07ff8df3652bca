package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/me/prodigy/pkg/model"
)

const healthPingTimeout = 2 * time.Second

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Store     string `json:"store"`
	Triggers  int    `json:"triggers"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	cfg := s.app.Config()

	c := s.app.Container()
	if c == nil {
		respondError(w, reqID, http.StatusServiceUnavailable, &model.APIError{
			Code:    model.ErrUnavailable,
			Message: "no store configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	if err := c.Store.Ping(ctx); err != nil {
		s.logger.Warn("health ping failed", "error", err)
		respondError(w, reqID, http.StatusServiceUnavailable, &model.APIError{
			Code:    model.ErrUnavailable,
			Message: "store unreachable: " + err.Error(),
		})
		return
	}

	respondOK(w, reqID, healthResponse{
		Status:    "healthy",
		Version:   Version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Store:     cfg.Store.Driver,
		Triggers:  len(cfg.Triggers),
	})
}
