package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	atsErrors "atsresume/internal/errors"
	"atsresume/internal/notify"
	"atsresume/internal/resume"
	"atsresume/internal/types"
	"atsresume/internal/upload"
	"atsresume/internal/utils"
	"atsresume/internal/workflow"
)

// Multipart parts above this size spill to temporary files.
const maxMultipartMemory = 8 << 20

// httpNavigator turns controller navigation into HTTP redirects for the
// request being served.
type httpNavigator struct {
	server  *Server
	w       http.ResponseWriter
	r       *http.Request
	flashes *notify.Recorder
}

func (n *httpNavigator) ShowResults(result *workflow.Result) {
	id := n.server.openSession(result, n.flashes)
	http.Redirect(n.w, n.r, resultsPath(id), http.StatusSeeOther)
}

func (n *httpNavigator) Redirect(route workflow.Route) {
	http.Redirect(n.w, n.r, string(route), http.StatusSeeOther)
}

// openSession stores result behind a new id. flashes carries notifications
// over to the results page.
func (s *Server) openSession(result *workflow.Result, flashes *notify.Recorder) string {
	sess := &session{
		view:    types.NewResultView(result.OriginalFileName, result.Resume),
		flashes: flashes,
	}
	sess.results = workflow.NewResultsController(s.Service, nil,
		workflow.WithResultsNotifier(notify.Multi{flashes, notify.LogNotifier{Logger: s.Logger}}),
		workflow.WithResultsEvents(s.events),
		workflow.WithResultsLogger(s.Logger),
	)
	sess.results.Enter(result)

	id := s.Sessions.add(sess)
	s.Logger.Debug("Session opened", "session_id", id, "ats_score", sess.view.ATSScore)
	return id
}

// formPageHandler renders an empty form.
func (s *Server) formPageHandler(w http.ResponseWriter, r *http.Request) {
	state := workflow.NewFormController(nil).State()
	s.render(w, http.StatusOK, s.pages.form, s.newFormPage(state, nil))
}

// formSubmitHandler runs a browser submission through the upload control and
// the form controller. Success redirects to the results page; any failure
// re-renders the form with the entered text and the accepted upload kept.
// The reset action clears the form instead of submitting it.
func (s *Server) formSubmitHandler(w http.ResponseWriter, r *http.Request) {
	flashes := &notify.Recorder{}
	form := workflow.NewFormController(s.Service,
		workflow.WithNavigator(&httpNavigator{server: s, w: w, r: r, flashes: flashes}),
		workflow.WithNotifier(notify.Multi{flashes, notify.LogNotifier{Logger: s.Logger}}),
		workflow.WithEvents(s.events),
		workflow.WithLogger(s.Logger),
	)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.rejectUnreadableForm(w, form, flashes, err)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.Logger.Debug("Failed to remove multipart temp files", "error", err.Error())
		}
	}()

	form.SetJobDescription(r.FormValue(formFieldJobDescription))
	form.SetExtraInfo(r.FormValue(formFieldExtraInfo))

	draftID := r.FormValue(formFieldDraft)
	if r.FormValue(formFieldAction) == actionReset {
		s.resetForm(w, form, draftID)
		return
	}

	picker := upload.NewControl(s.MaxFileSize, form.SetFile)
	var candidates []upload.Candidate
	for _, fh := range r.MultipartForm.File[formFieldResume] {
		if fh.Filename == "" {
			continue
		}
		candidates = append(candidates, upload.CandidateFromMultipart(fh))
	}
	if len(candidates) == 0 {
		if draft := s.Drafts.get(draftID); draft != nil && draft.upload != nil {
			form.SetFile(draft.upload)
		}
	} else if err := picker.Select(candidates); err != nil {
		s.Logger.Debug("Upload rejected", "reason", picker.LastError())
	}

	_, err := form.Submit(r.Context())
	if draftID != "" {
		s.Drafts.remove(draftID)
	}
	if err == nil {
		return
	}

	state := form.State()
	if msg := picker.LastError(); msg != "" && state.Errors[workflow.FieldResume] != "" {
		state.Errors[workflow.FieldResume] = msg
	}
	page := s.newFormPage(state, flashes.Drain())
	if state.File != nil {
		page.DraftID = s.Drafts.add(&session{upload: state.File})
		page.DraftFile = state.File.Describe()
	}
	s.render(w, statusFor(err), s.pages.form, page)
}

// resetForm discards the posted values and any kept upload, then shows the
// empty form.
func (s *Server) resetForm(w http.ResponseWriter, form *workflow.FormController, draftID string) {
	if draftID != "" {
		s.Drafts.remove(draftID)
	}
	if err := form.Reset(); err != nil {
		s.Logger.LogError(err, "Failed to reset form")
	}
	s.render(w, http.StatusOK, s.pages.form, s.newFormPage(form.State(), nil))
}

func (s *Server) rejectUnreadableForm(w http.ResponseWriter, form *workflow.FormController, flashes *notify.Recorder, err error) {
	state := form.State()
	status := http.StatusBadRequest
	message := "The form could not be read. Please try again."

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		status = http.StatusRequestEntityTooLarge
		message = "File is too large"
		if s.MaxFileSize > 0 {
			message = fmt.Sprintf("File is too large (maximum %s)", utils.FormatMegabytes(s.MaxFileSize))
		}
		state.Errors[workflow.FieldResume] = message
	}

	s.Logger.Info("Rejected unreadable form submission", "status", status, "error", err.Error())
	flashes.Notify(notify.Error("Validation Error", message))
	s.render(w, status, s.pages.form, s.newFormPage(state, flashes.Drain()))
}

// statusFor maps a submit failure to the status of the re-rendered form.
func statusFor(err error) int {
	appErr, ok := atsErrors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case atsErrors.ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	case atsErrors.ErrorTypeNetwork:
		if appErr.Code == atsErrors.ErrCodeCircuitOpen {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case atsErrors.ErrorTypeService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// resultsPageHandler renders a stored result. Unknown or expired ids go
// back to the form.
func (s *Server) resultsPageHandler(w http.ResponseWriter, r *http.Request) {
	sess := s.Sessions.get(r.PathValue("id"))
	if sess == nil {
		s.redirectToForm(w, r)
		return
	}
	s.render(w, http.StatusOK, s.pages.results, s.newResultsPage(sess))
}

// backHandler leaves a results page for the form to edit and regenerate.
func (s *Server) backHandler(w http.ResponseWriter, r *http.Request) {
	if s.Sessions.get(r.PathValue("id")) == nil {
		s.redirectToForm(w, r)
		return
	}
	s.resultsNavigation(w, r).Back()
}

// redirectToForm lets an empty results controller apply its navigation guard.
func (s *Server) redirectToForm(w http.ResponseWriter, r *http.Request) {
	s.resultsNavigation(w, r).Enter(nil)
}

// resultsNavigation is a results controller that only navigates, bound to
// one request.
func (s *Server) resultsNavigation(w http.ResponseWriter, r *http.Request) *workflow.ResultsController {
	return workflow.NewResultsController(nil, nil,
		workflow.WithResultsNavigator(&httpNavigator{server: s, w: w, r: r}),
	)
}

// responseSaver streams a downloaded PDF to the browser as an attachment.
type responseSaver struct {
	w       http.ResponseWriter
	written bool
}

func (rs *responseSaver) Save(ctx context.Context, a resume.Artifact) (string, error) {
	name := utils.SanitizeFileName(a.Filename)
	contentType := a.ContentType
	if contentType == "" {
		contentType = resume.ContentTypePDF
	}

	h := rs.w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	h.Set("Content-Length", strconv.Itoa(len(a.Data)))
	rs.written = true

	if _, err := rs.w.Write(a.Data); err != nil {
		return "", atsErrors.NewIOError(atsErrors.ErrCodeFileWriteFailed, "Failed to send the PDF", err).
			WithContext("file_name", name)
	}
	return "response:" + name, nil
}

// downloadHandler fetches the session's PDF and streams it. A failed
// download returns to the results page, where the flash explains it.
func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	sess := s.Sessions.get(r.PathValue("id"))
	if sess == nil {
		s.redirectToForm(w, r)
		return
	}

	saver := &responseSaver{w: w}
	_, err := sess.results.DownloadTo(r.Context(), saver)
	switch {
	case err == nil, saver.written:
		return
	case errors.Is(err, workflow.ErrDownloadInProgress):
		writeErrorResponse(w, "Download in progress", "A download for this resume is already running", http.StatusConflict)
	default:
		http.Redirect(w, r, resultsPath(sess.id), http.StatusSeeOther)
	}
}

// healthHandler reports liveness and the backend circuit breaker state
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "atsresume",
		"version": s.Version,
	}

	status := http.StatusOK
	if s.Breaker != nil {
		response["circuit_breaker"] = s.Breaker.GetStats()
		if !s.Breaker.IsHealthy() {
			response["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	s.writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	rl := s.rateLimitConfig()
	response := map[string]any{
		"service": "atsresume",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_file_size_bytes":    s.MaxFileSize,
		},
		"sessions": map[string]any{
			"active":      s.Sessions.Len(),
			"drafts":      s.Drafts.Len(),
			"ttl_seconds": s.Sessions.TTL().Seconds(),
		},
		"rate_limit_config": map[string]any{
			"enabled":          rl.Enabled,
			"requests_per_min": rl.RequestsPerMin,
			"burst_capacity":   rl.BurstCapacity,
		},
	}

	if rl.Enabled {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.LogError(err, "Failed to encode response")
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	_ = json.NewEncoder(w).Encode(response)
}
