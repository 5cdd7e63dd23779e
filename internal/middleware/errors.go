package middleware

import (
	"encoding/json"
	"net/http"
)

// Problem is a minimal RFC 7807 response used by the middleware chain
// itself. Handler-level errors go through the richer errors package.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Trace  string `json:"trace_id,omitempty"`
}

// Render writes the problem as application/problem+json
func (p *Problem) Render(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	json.NewEncoder(w).Encode(p)
}

// ProblemFromStatus builds a Problem for a bare HTTP status code
func ProblemFromStatus(status int, detail, traceID string) *Problem {
	problem := &Problem{
		Status: status,
		Detail: detail,
		Trace:  traceID,
	}

	switch status {
	case http.StatusBadRequest:
		problem.Type = "/errors/bad-request"
		problem.Title = "Bad Request"
	case http.StatusNotFound:
		problem.Type = "/errors/not-found"
		problem.Title = "Resource Not Found"
	case http.StatusTooManyRequests:
		problem.Type = "/errors/rate-limit"
		problem.Title = "Rate Limit Exceeded"
	case http.StatusGatewayTimeout:
		problem.Type = "/errors/timeout"
		problem.Title = "Request Timeout"
	case http.StatusServiceUnavailable:
		problem.Type = "/errors/service-unavailable"
		problem.Title = "Service Unavailable"
	default:
		problem.Type = "/errors/internal"
		problem.Title = "Internal Server Error"
	}

	return problem
}
