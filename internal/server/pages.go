package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"atsresume/internal/notify"
	"atsresume/internal/resume"
	"atsresume/internal/types"
	"atsresume/internal/utils"
	"atsresume/internal/workflow"
)

//go:embed templates/*.html
var templateFS embed.FS

type pageSet struct {
	form    *template.Template
	results *template.Template
}

func mustParsePages() *pageSet {
	return &pageSet{
		form:    template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/form.html")),
		results: template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/results.html")),
	}
}

// Form field names posted by the browser. They match the backend contract.
const (
	formFieldResume         = resume.FieldResumeFile
	formFieldJobDescription = resume.FieldJobDescription
	formFieldExtraInfo      = resume.FieldExtraInfo
)

// Fields the page adds for itself.
const (
	formFieldDraft  = "draftId"
	formFieldAction = "action"
	actionReset     = "reset"
)

type formPage struct {
	Version        string
	JobDescription string
	ExtraInfo      string
	CharCount      string
	Errors         map[string]string
	Flashes        []notify.Notification
	MaxFileSize    string
	FieldResume    string
	FieldJob       string
	FieldExtra     string
	FieldDraft     string
	Action         string
	ResetAction    string

	// Upload kept from a failed submit
	DraftID   string
	DraftFile string
}

func (s *Server) newFormPage(state workflow.FormState, flashes []notify.Notification) formPage {
	errs := make(map[string]string, len(state.Errors))
	for field, msg := range state.Errors {
		errs[string(field)] = msg
	}

	page := formPage{
		Version:        s.Version,
		JobDescription: state.JobDescription,
		ExtraInfo:      state.ExtraInfo,
		CharCount:      state.CharCount,
		Errors:         errs,
		Flashes:        flashes,
		FieldResume:    formFieldResume,
		FieldJob:       formFieldJobDescription,
		FieldExtra:     formFieldExtraInfo,
		FieldDraft:     formFieldDraft,
		Action:         string(workflow.FormRoute),
		ResetAction:    actionReset,
	}
	if s.MaxFileSize > 0 {
		page.MaxFileSize = utils.FormatMegabytes(s.MaxFileSize)
	}
	return page
}

type resultsPage struct {
	Version        string
	View           types.ResultView
	Flashes        []notify.Notification
	DownloadAction string
	Downloading    bool
	BackAction     string
}

func (s *Server) newResultsPage(sess *session) resultsPage {
	return resultsPage{
		Version:        s.Version,
		View:           sess.view,
		Flashes:        sess.flashes.Drain(),
		DownloadAction: resultsPath(sess.id) + "/download",
		Downloading:    sess.results.Downloading(),
		BackAction:     resultsPath(sess.id) + "/back",
	}
}

// render executes tmpl fully before writing so a template error never
// leaves a half-written page behind.
func (s *Server) render(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.Logger.LogError(err, "Failed to render page", "template", tmpl.Name())
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.Logger.Debug("Failed to write page", "error", err.Error())
	}
}
