// Package http implements the HTTP handlers of the survey preparation
// service. It is a thin layer between transport and business logic:
// handlers parse and validate requests, delegate to the service layer,
// and shape responses.
//
// # Request Flow
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Pipeline/Estimator
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Handler Structure
//
// Each handler follows this pattern:
//
//	func (h *Handler) HandleSomething(w http.ResponseWriter, r *http.Request) {
//	    // 1. Parse and validate request
//	    req, err := parseRequest(r)
//	    if err != nil {
//	        render.Render(w, r, errors.NewAPIError(...))
//	        return
//	    }
//
//	    // 2. Call service layer
//	    result, err := h.service.DoSomething(r.Context(), req)
//	    if err != nil {
//	        render.Render(w, r, transformError(err))
//	        return
//	    }
//
//	    // 3. Format and send response
//	    render.JSON(w, r, formatResponse(result))
//	}
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/validation_failed",
//	    "title": "validation_failed",
//	    "status": 400,
//	    "detail": "dataset is required",
//	    "instance": "/api/pipeline/run#req-123"
//	}
//
// Service sentinel errors map to stable status codes: unknown datasets
// and runs become 404, state conflicts (cancelling a finished run,
// exporting an incomplete one) become 409, and incomplete schema
// mappings become 422.
//
// # Testing
//
// Handlers are tested with httptest against mocked service interfaces,
// verifying status codes, response envelopes, and error payloads.
package http
