package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"journal/internal/api"
	"journal/internal/core"
	"journal/internal/journal"
	"journal/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady runs every registered dependency check
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	for _, c := range s.checks {
		if err := c.Check(ctx); err != nil {
			checks[c.Name] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "ok"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	snap := s.app.Snapshot()
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_response_time_microseconds_avg Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_microseconds_avg gauge\n")
	fmt.Fprintf(w, "http_response_time_microseconds_avg %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP journal_actions_total Total journal actions attempted\n")
	fmt.Fprintf(w, "# TYPE journal_actions_total counter\n")
	fmt.Fprintf(w, "journal_actions_total %d\n\n", atomic.LoadInt64(&s.appMetrics.actions))

	fmt.Fprintf(w, "# HELP journal_action_errors_total Total journal actions that failed\n")
	fmt.Fprintf(w, "# TYPE journal_action_errors_total counter\n")
	fmt.Fprintf(w, "journal_action_errors_total %d\n\n", atomic.LoadInt64(&s.appMetrics.actionErrors))

	fmt.Fprintf(w, "# HELP journal_reloads_total Total explicit data reloads\n")
	fmt.Fprintf(w, "# TYPE journal_reloads_total counter\n")
	fmt.Fprintf(w, "journal_reloads_total %d\n\n", atomic.LoadInt64(&s.appMetrics.reloads))

	fmt.Fprintf(w, "# HELP journal_cached_entries Cached entries by kind\n")
	fmt.Fprintf(w, "# TYPE journal_cached_entries gauge\n")
	fmt.Fprintf(w, "journal_cached_entries{type=\"transactions\"} %d\n", len(snap.Transactions))
	fmt.Fprintf(w, "journal_cached_entries{type=\"categories\"} %d\n\n", len(snap.Categories))

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP invalid_ip_attempts_total Forwarded addresses that failed to parse\n")
	fmt.Fprintf(w, "# TYPE invalid_ip_attempts_total counter\n")
	fmt.Fprintf(w, "invalid_ip_attempts_total %d\n\n", securityMetrics.InvalidIPAttempts)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}

// actionError turns a failed journal action into a response. Read-only
// refusals show their notice dialog, an expired session goes back to the
// start page, and anything else becomes an error toast that leaves the
// current content in place.
func (s *Server) actionError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	atomic.AddInt64(&s.appMetrics.actionErrors, 1)

	var ro *journal.ReadOnlyError
	switch {
	case errors.As(err, &ro):
		logger.InfoContext(ctx, "Action not available in this mode", log.FieldOperation, op, log.FieldMode, string(s.app.Mode()))
		s.writeTemplate(w, r, NewHTMXResponse(), "dialog-readonly", readOnlyData{
			Action:         capitalize(ro.Action),
			SpreadsheetURL: ro.SpreadsheetURL,
		})
		return
	case errors.Is(err, journal.ErrNotFound):
		NotificationOnly(NotificationError, "That entry is no longer in the list. Refresh and try again.").Write(w)
		return
	case api.IsUnauthorized(err):
		logger.InfoContext(ctx, "Session rejected, logging out", log.FieldOperation, op)
		if lerr := s.app.Logout(ctx); lerr != nil {
			logger.WarnContext(ctx, "Logout failed", log.FieldError, lerr)
		}
		redirectHome(w, r)
		return
	}

	logger.WarnContext(ctx, "Action failed",
		log.FieldOperation, op,
		log.FieldErrorKind, string(api.KindOf(err)),
		log.FieldError, err)
	NotificationOnly(NotificationError, errorMessage(err)).Write(w)
}

// errorMessage is the user-facing text for err.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyTitle):
		return "Please give the entry a title."
	case errors.Is(err, core.ErrEmptyContent):
		return "Please write what happened."
	case errors.Is(err, core.ErrInvalidDate):
		return "The date must look like 2024-01-31."
	case errors.Is(err, journal.ErrEmptyCategoryName):
		return "Please give the category a name."
	case api.IsTimeout(err):
		return "The server did not answer in time. Please try again."
	}
	return api.Message(err)
}
