package server

import (
	"net/http"

	"atsresume/internal/observability"
	"atsresume/internal/workflow"
)

// Handler builds the routed, instrumented handler. om may be nil.
func (s *Server) Handler(om *observability.ObservabilityManager) http.Handler {
	if om != nil {
		s.events = om
	}

	mux := s.setupRoutes()
	if om == nil {
		return mux
	}
	return om.HTTPMiddleware()(mux)
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("GET "+string(workflow.HomeRoute)+"{$}", s.formPageHandler)
	mux.HandleFunc("GET "+string(workflow.FormRoute), s.formPageHandler)
	mux.HandleFunc("POST "+string(workflow.FormRoute),
		s.rateLimitMiddleware(s.requestSizeLimitMiddleware(s.formSubmitHandler)),
	)
	mux.HandleFunc("GET "+string(workflow.ResultsRoute)+"/{id}", s.resultsPageHandler)
	mux.HandleFunc("POST "+string(workflow.ResultsRoute)+"/{id}/download",
		s.rateLimitMiddleware(s.downloadHandler),
	)
	mux.HandleFunc("POST "+string(workflow.ResultsRoute)+"/{id}/back", s.backHandler)

	return mux
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.MaxRequestSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
		}

		next(w, r)
	}
}

func resultsPath(id string) string {
	return string(workflow.ResultsRoute) + "/" + id
}
