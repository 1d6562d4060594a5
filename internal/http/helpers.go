package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"budgetwise/internal/core"
)

// userIDHeader carries the authenticated user's id. Session issuance is an
// upstream concern; by the time a request reaches this API the header is
// trusted.
const userIDHeader = "X-User-ID"

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondError maps domain errors onto HTTP status codes. Anything not in
// the taxonomy is a 500 with a generic body; the detail stays in the logs.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, core.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, core.ErrPermissionDenied):
		status, message = http.StatusForbidden, "permission denied"
	case errors.Is(err, core.ErrBudgetOverlap):
		status, message = http.StatusConflict, "budget overlaps an existing budget for this category"
	case errors.Is(err, core.ErrCategoryInUse):
		status, message = http.StatusConflict, "category has associated transactions"
	case errors.Is(err, core.ErrGoalInactive):
		status, message = http.StatusConflict, "goal is not active"
	case errors.Is(err, core.ErrInsufficientGoal):
		status, message = http.StatusBadRequest, "insufficient funds in savings goal"
	case errors.Is(err, core.ErrInvalidAmount):
		status, message = http.StatusBadRequest, "invalid amount"
	case errors.Is(err, core.ErrInvalidDateRange):
		status, message = http.StatusBadRequest, "invalid date"
	case errors.Is(err, core.ErrEmptyDescription):
		status, message = http.StatusBadRequest, "invalid description"
	case errors.Is(err, core.ErrInvalidType):
		status, message = http.StatusBadRequest, "invalid type"
	case errors.Is(err, errBadBody):
		status, message = http.StatusBadRequest, "invalid request body"
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	respondJSON(w, status, errorResponse{Error: message})
}

// userID extracts the authenticated user from the request header.
func userID(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.Header.Get(userIDHeader))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

// queryInt reads an integer query parameter, falling back on absence or
// garbage. Aggregation endpoints treat bad parameters as defaults rather
// than errors, matching how dashboards poll them.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// clientIP prefers X-Forwarded-For, then X-Real-IP, then the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
