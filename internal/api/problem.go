package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// ProblemDetail is an RFC 7807 error body. Every non-2xx response uses it.
type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	// Code is the oracle error code when the failure came from the service.
	Code     string `json:"code,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func (p *ProblemDetail) Error() string {
	return fmt.Sprintf("%s: %s", p.Title, p.Detail)
}

func writeProblem(w http.ResponseWriter, r *http.Request, p ProblemDetail) {
	p.Type = fmt.Sprintf("about:blank#%d", p.Status)
	if r != nil {
		p.Instance = r.URL.Path
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, ProblemDetail{Title: "Bad Request", Status: http.StatusBadRequest, Detail: detail})
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	if detail == "" {
		detail = "Authentication required"
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="oracle"`)
	writeProblem(w, r, ProblemDetail{Title: "Unauthorized", Status: http.StatusUnauthorized, Detail: detail})
}

func writeForbidden(w http.ResponseWriter, r *http.Request, code, detail string) {
	writeProblem(w, r, ProblemDetail{Title: "Forbidden", Status: http.StatusForbidden, Code: code, Detail: detail})
}

func writeTooManyRequests(w http.ResponseWriter, r *http.Request, retryAfterSecs int) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSecs))
	writeProblem(w, r, ProblemDetail{
		Title:  "Too Many Requests",
		Status: http.StatusTooManyRequests,
		Detail: "Rate limit exceeded. Retry after the specified interval.",
	})
}

// writeInternal logs err and hides it from the client.
func writeInternal(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.ErrorContext(r.Context(), "internal server error", "path", r.URL.Path, "error", err)
	writeProblem(w, r, ProblemDetail{
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: "An unexpected error occurred.",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
