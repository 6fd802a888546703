package runtime

import (
	"net/http"
	"strings"

	jsoncodec "github.com/drblury/webui/internal/runtime/jsoncodec"
	transportpkg "github.com/drblury/webui/transport"
)

// Introspection is the body of GET /api/handlers.
type Introspection struct {
	Title       string                     `json:"title"`
	Connections int                        `json:"connections"`
	Tap         *transportpkg.Capabilities `json:"tap"`
	Resource    ResourceUsage              `json:"resource"`
	Bindings    []BindingInfo              `json:"bindings"`
}

// Introspect snapshots the bindings and connections of the service.
func (s *Service) Introspect() Introspection {
	out := Introspection{
		Title:       s.Conf.Title,
		Connections: s.connections.Len(),
		Resource:    s.resources.Snapshot(),
		Bindings:    s.dispatcher.Bindings(),
	}
	if s.tap != nil {
		caps := s.tapCapabilities
		out.Tap = &caps
	}
	return out
}

func (s *Service) handleGetHandlers(w http.ResponseWriter, r *http.Request) {
	s.applyCORS(w, r, "GET, OPTIONS")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet:
	default:
		w.Header().Set("Allow", "GET, OPTIONS")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := jsoncodec.Encode(w, s.Introspect()); err != nil {
		s.Logger.Error("Failed to encode handlers", err, nil)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// applyCORS sets the CORS headers when the request origin is allowed.
func (s *Service) applyCORS(w http.ResponseWriter, r *http.Request, methods string) {
	if len(s.Conf.CORSAllowedOrigins) == 0 {
		return
	}
	allowed := s.allowedCORSOrigin(r.Header.Get("Origin"))
	if allowed == "" {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", allowed)
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if allowed != "*" {
		w.Header().Add("Vary", "Origin")
	}
}

// allowedCORSOrigin returns the Access-Control-Allow-Origin value for
// requestOrigin, or "" when it is not allowed.
func (s *Service) allowedCORSOrigin(requestOrigin string) string {
	for _, allowed := range s.Conf.CORSAllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if requestOrigin != "" && strings.EqualFold(allowed, requestOrigin) {
			return requestOrigin
		}
	}
	return ""
}
