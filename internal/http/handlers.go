package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "storage unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

type metricsDTO struct {
	TotalRequests        int64 `json:"total_requests"`
	LastResponseTimeUsec int64 `json:"last_response_time_usec"`
	RateLimitRejected    int64 `json:"rate_limit_rejected"`
	ActiveSessions       int   `json:"active_sessions"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rm := s.limiter.GetMetrics()
	NewJSONResponse().Body(metricsDTO{
		TotalRequests:        tm.TotalRequests,
		LastResponseTimeUsec: tm.LastResponseTimeUsec,
		RateLimitRejected:    rm.Rejected,
		ActiveSessions:       rm.ActiveKeys,
	}).Write(w)
}
