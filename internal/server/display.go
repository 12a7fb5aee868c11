package server

import (
	"fmt"
	"io"
	"os"

	"atsresume/internal/utils"
)

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.writeServerInfo(os.Stdout)
}

func (s *Server) writeServerInfo(w io.Writer) {
	s.displayEndpoints(w)
	s.displayRequestLimitInfo(w)
	s.displayRateLimitInfo(w)
	s.displaySessionInfo(w)
}

// displayEndpoints shows available endpoints
func (s *Server) displayEndpoints(w io.Writer) {
	fmt.Fprintf(w, "Open http://%s:%s/ in your browser\n", s.Host, s.Port)
	fmt.Fprintln(w, "Available endpoints:")
	fmt.Fprintln(w, "  GET  /                       - Resume form")
	fmt.Fprintln(w, "  POST /resume-form            - Generate optimized resume")
	fmt.Fprintln(w, "  GET  /results/{id}           - Optimized resume and ATS score")
	fmt.Fprintln(w, "  POST /results/{id}/download  - Download the generated PDF")
	fmt.Fprintln(w, "  GET  /health                 - Health check")
	fmt.Fprintln(w, "  GET  /stats                  - Server statistics")
}

// displayRequestLimitInfo shows upload size limit configuration
func (s *Server) displayRequestLimitInfo(w io.Writer) {
	if s.MaxFileSize > 0 {
		fmt.Fprintf(w, "Upload size limit: %s (request limit %s)\n", utils.FormatMegabytes(s.MaxFileSize), utils.FormatFileSize(s.MaxRequestSize))
	} else {
		fmt.Fprintln(w, "Upload size limit: DISABLED")
		fmt.Fprintln(w, "WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo(w io.Writer) {
	rl := s.rateLimitConfig()
	if rl.Enabled {
		fmt.Fprintf(w, "Rate limiting: ENABLED (%d requests/min per IP, burst: %d)\n",
			rl.RequestsPerMin, rl.BurstCapacity)
	} else {
		fmt.Fprintln(w, "Rate limiting: DISABLED")
	}
}

func (s *Server) displaySessionInfo(w io.Writer) {
	fmt.Fprintf(w, "Results are kept for %s after the last visit\n", s.Sessions.TTL())
}
