package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady checks the record store and reports limiter and cache state.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.store == nil {
		checks["store"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if err := s.store.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	if s.cache != nil {
		checks["user_cache"] = map[string]any{"entries": s.cache.Size(), "status": "ok"}
	}
	checks["rate_limiter"] = map[string]any{
		"auth_clients":  s.authLimiter.ActiveClients(),
		"write_clients": s.writeLimiter.ActiveClients(),
		"status":        "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	authLimits := s.authLimiter.GetMetrics()
	writeLimits := s.writeLimiter.GetMetrics()

	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, samples ...string) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		for _, sample := range samples {
			fmt.Fprintf(w, "%s\n", sample)
		}
		fmt.Fprintln(w)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests",
		fmt.Sprintf("http_requests_total %d", traceMetrics.TotalRequests))
	metric("http_requests_in_flight", "gauge", "Requests currently being served",
		fmt.Sprintf("http_requests_in_flight %d", traceMetrics.InFlight))
	metric("http_request_errors_total", "counter", "Responses with an error status",
		fmt.Sprintf("http_request_errors_total{class=\"4xx\"} %d", traceMetrics.ClientErrors),
		fmt.Sprintf("http_request_errors_total{class=\"5xx\"} %d", traceMetrics.ServerErrors))
	metric("http_request_duration_seconds_avg", "gauge", "Mean request duration",
		fmt.Sprintf("http_request_duration_seconds_avg %.6f", traceMetrics.AverageResponseTime().Seconds()))

	metric("transactions_changed_total", "counter", "Successful transaction mutations",
		fmt.Sprintf("transactions_changed_total{op=\"create\"} %d", atomic.LoadInt64(&s.appMetrics.transactionsMade)),
		fmt.Sprintf("transactions_changed_total{op=\"update\"} %d", atomic.LoadInt64(&s.appMetrics.transactionsEdited)),
		fmt.Sprintf("transactions_changed_total{op=\"delete\"} %d", atomic.LoadInt64(&s.appMetrics.transactionsGone)))
	metric("auth_events_total", "counter", "Successful logins and registrations",
		fmt.Sprintf("auth_events_total{op=\"login\"} %d", atomic.LoadInt64(&s.appMetrics.logins)),
		fmt.Sprintf("auth_events_total{op=\"register\"} %d", atomic.LoadInt64(&s.appMetrics.registrations)))

	metric("rate_limit_hits_total", "counter", "Total rate limit hits",
		fmt.Sprintf("rate_limit_hits_total{limiter=\"auth\"} %d", authLimits.TotalHits),
		fmt.Sprintf("rate_limit_hits_total{limiter=\"write\"} %d", writeLimits.TotalHits))
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients",
		fmt.Sprintf("active_rate_limit_clients{limiter=\"auth\"} %d", authLimits.ClientCount),
		fmt.Sprintf("active_rate_limit_clients{limiter=\"write\"} %d", writeLimits.ClientCount))
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected",
		fmt.Sprintf("suspicious_requests_total %d", securityMetrics.SuspiciousRequests))
	metric("blocked_requests_total", "counter", "Requests rejected by method",
		fmt.Sprintf("blocked_requests_total %d", securityMetrics.BlockedRequests))

	if s.cache != nil {
		metric("user_cache_entries", "gauge", "Cached user records",
			fmt.Sprintf("user_cache_entries %d", s.cache.Size()))
	}
	metric("uptime_seconds", "gauge", "Application uptime in seconds",
		fmt.Sprintf("uptime_seconds %.0f", time.Since(s.appMetrics.uptime).Seconds()))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "Route not found")
}
