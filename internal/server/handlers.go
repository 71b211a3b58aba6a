package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bobmcallan/stockmatrix/internal/common"
	"github.com/bobmcallan/stockmatrix/internal/ratelimit"
	"github.com/bobmcallan/stockmatrix/internal/services/analysis"
)

// StockRequest is the body of POST /api/stock
type StockRequest struct {
	Symbol string `json:"symbol"`
	Format string `json:"format"`
}

// handleStock handles POST /api/stock. With an empty format the analysis is
// returned as JSON, otherwise the price history is sent as an attachment.
func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req StockRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	clientID := ClientIP(r, s.app.Config.Limits.TrustProxies)
	result, err := s.app.AnalysisService.Analyze(r.Context(), analysis.Request{
		Symbol:   req.Symbol,
		Format:   req.Format,
		ClientID: clientID,
	})
	s.setRateLimitHeaders(w, clientID)

	if err != nil {
		status := statusForError(err)
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", strconv.Itoa(s.retryAfterSeconds(err, clientID)))
		}
		if status >= 500 {
			s.logger.Error().Str("symbol", req.Symbol).Err(err).Msg("Analysis failed")
		}
		WriteErrorWithCode(w, status, errorMessage(status, err), errorCode(err))
		return
	}

	if result.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}

	if result.Export != nil {
		w.Header().Set("Content-Type", result.Export.ContentType)
		w.Header().Set("Content-Disposition", result.Export.ContentDisposition())
		w.Header().Set("Content-Length", strconv.Itoa(len(result.Export.Body)))
		w.WriteHeader(http.StatusOK)
		w.Write(result.Export.Body)
		return
	}

	WriteJSON(w, http.StatusOK, result.Response)
}

// setRateLimitHeaders reports the caller's per-client window.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, clientID string) {
	limit := s.app.Config.Limits.ClientLimit
	count, resetAt, ok := s.app.Limiter.Status(ratelimit.ClientScope(clientID))
	if !ok {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(limit-count, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// retryAfterSeconds is the time until the rejecting scope's window resets.
// Upstream throttling falls back to one window.
func (s *Server) retryAfterSeconds(err error, clientID string) int {
	window := s.app.Config.Limits.GetWindow()
	scope := ""

	var rle *common.RateLimitError
	if errors.As(err, &rle) {
		switch rle.Scope {
		case "client":
			scope = ratelimit.ClientScope(clientID)
		case "global":
			scope = ratelimit.GlobalScope
		}
	}
	if scope != "" {
		if _, resetAt, ok := s.app.Limiter.Status(scope); ok {
			return max(int(time.Until(resetAt).Seconds()+0.999), 1)
		}
	}
	return max(int(window.Seconds()), 1)
}

// statusForError maps pipeline errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrRateLimited), errors.Is(err, common.ErrUpstreamRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, common.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the machine-readable reason reported alongside the message.
func errorCode(err error) string {
	switch {
	case errors.Is(err, common.ErrValidation):
		return "invalid_request"
	case errors.Is(err, common.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, common.ErrUpstreamRateLimited):
		return "upstream_rate_limited"
	case errors.Is(err, common.ErrUpstreamUnavailable),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "upstream_unavailable"
	case errors.Is(err, common.ErrNoData):
		return "no_data"
	case errors.Is(err, common.ErrInsufficientData):
		return "insufficient_data"
	default:
		return "internal_error"
	}
}

// errorMessage hides internal detail on 500s.
func errorMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}
