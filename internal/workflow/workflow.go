// Package workflow drives the two screens of the résumé optimizer: the form
// that collects a résumé and job description and submits them, and the
// results view that shows the optimized résumé and downloads its PDF.
package workflow

import (
	"context"
	stderrors "errors"

	"atsresume/internal/resume"
)

// Route identifies a screen.
type Route string

const (
	HomeRoute    Route = "/"
	FormRoute    Route = "/resume-form"
	ResultsRoute Route = "/results"
)

// Result is what the form hands to the results view after a successful
// generate. It is read-only once handed off.
type Result struct {
	Resume           *resume.GeneratedResume
	OriginalFileName string
}

// Navigator moves the user between screens.
type Navigator interface {
	ShowResults(result *Result)
	Redirect(route Route)
}

// Generator produces an optimized résumé. *resume.Client implements it.
type Generator interface {
	GenerateResume(ctx context.Context, req resume.GenerateRequest) (*resume.GeneratedResume, error)
}

// Downloader fetches a generated PDF. *resume.Client implements it.
type Downloader interface {
	DownloadPDF(ctx context.Context, pdfPath string) (*resume.Artifact, error)
}

// Events receives business events for metrics.
type Events interface {
	RecordEvent(ctx context.Context, event string, success bool)
}

// Business event names.
const (
	EventResumeGenerated   = "resume_generated"
	EventPDFDownloaded     = "pdf_downloaded"
	EventValidationFailure = "validation_failure"
)

var (
	// ErrSubmitInProgress is returned when a generate is already in flight.
	ErrSubmitInProgress = stderrors.New("a resume is already being generated")
	// ErrDownloadInProgress is returned when a download is already in flight.
	ErrDownloadInProgress = stderrors.New("a download is already in progress")
	// ErrNoResult is returned by results operations before a result was entered.
	ErrNoResult = stderrors.New("no resume to show")
)

type nopNavigator struct{}

func (nopNavigator) ShowResults(*Result) {}
func (nopNavigator) Redirect(Route)      {}

type nopEvents struct{}

func (nopEvents) RecordEvent(context.Context, string, bool) {}
