package workflow

import (
	"context"
	"sync"

	"atsresume/internal/errors"
	"atsresume/internal/notify"
	"atsresume/internal/resume"
)

// Messages shown by the results view.
const (
	MsgDownloadComplete = "Your optimized resume has been downloaded."
	MsgDownloadFailed   = "Failed to download the resume. Please try again."
)

// Saver materializes a downloaded PDF. artifact.Saver implementations fit.
type Saver interface {
	Save(ctx context.Context, a resume.Artifact) (string, error)
}

// ResultsController presents a generated résumé and downloads its PDF.
type ResultsController struct {
	mu          sync.Mutex
	result      *Result
	downloading bool

	downloader Downloader
	saver      Saver
	navigator  Navigator
	notifier   notify.Notifier
	events     Events
	logger     *errors.Logger
}

// ResultsOption configures a ResultsController.
type ResultsOption func(*ResultsController)

func WithResultsNavigator(n Navigator) ResultsOption {
	return func(c *ResultsController) { c.navigator = n }
}

func WithResultsNotifier(n notify.Notifier) ResultsOption {
	return func(c *ResultsController) { c.notifier = n }
}

func WithResultsEvents(e Events) ResultsOption {
	return func(c *ResultsController) { c.events = e }
}

func WithResultsLogger(l *errors.Logger) ResultsOption {
	return func(c *ResultsController) { c.logger = l }
}

// NewResultsController creates a results view that fetches PDFs with d and
// hands them to s.
func NewResultsController(d Downloader, s Saver, opts ...ResultsOption) *ResultsController {
	c := &ResultsController{
		downloader: d,
		saver:      s,
		navigator:  nopNavigator{},
		notifier:   notify.Nop{},
		events:     nopEvents{},
		logger:     errors.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enter shows result. Without a generated résumé it redirects to the form
// and reports false; the controller then stays empty.
func (c *ResultsController) Enter(result *Result) bool {
	if result == nil || result.Resume == nil {
		c.navigator.Redirect(FormRoute)
		return false
	}

	c.mu.Lock()
	c.result = result
	c.mu.Unlock()
	return true
}

// Result returns the entered result, or nil.
func (c *ResultsController) Result() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Sections returns the present sections in display order.
func (c *ResultsController) Sections() []resume.Section {
	r := c.Result()
	if r == nil {
		return nil
	}
	return r.Resume.Sections()
}

// Score returns the clamped ATS score and its tier.
func (c *ResultsController) Score() (int, resume.ScoreTier) {
	r := c.Result()
	if r == nil {
		return 0, resume.TierFor(0)
	}
	score := r.Resume.Score()
	return score, resume.TierFor(score)
}

// Downloading reports whether the download control is disabled.
func (c *ResultsController) Downloading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.downloading
}

// Download fetches the PDF for the current result and saves it with the
// controller's saver. The displayed result is never modified, whatever the
// outcome.
func (c *ResultsController) Download(ctx context.Context) (string, error) {
	return c.DownloadTo(ctx, c.saver)
}

// DownloadTo is Download with an explicit destination, for callers whose
// sink only exists per request.
func (c *ResultsController) DownloadTo(ctx context.Context, saver Saver) (string, error) {
	c.mu.Lock()
	if c.result == nil {
		c.mu.Unlock()
		return "", ErrNoResult
	}
	if c.downloading {
		c.mu.Unlock()
		return "", ErrDownloadInProgress
	}
	c.downloading = true
	pdfPath := c.result.Resume.PDFPath
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.downloading = false
		c.mu.Unlock()
	}()

	location, err := c.fetchAndSave(ctx, pdfPath, saver)
	if err != nil {
		c.logger.LogError(err, "PDF download failed", "pdf_path", pdfPath)
		c.events.RecordEvent(ctx, EventPDFDownloaded, false)
		c.notifier.Notify(notify.Error("Download Failed", MsgDownloadFailed))
		return "", err
	}

	c.logger.Info("PDF downloaded", "pdf_path", pdfPath, "location", location)
	c.events.RecordEvent(ctx, EventPDFDownloaded, true)
	c.notifier.Notify(notify.Success("Download Complete!", MsgDownloadComplete))
	return location, nil
}

func (c *ResultsController) fetchAndSave(ctx context.Context, pdfPath string, saver Saver) (string, error) {
	if saver == nil {
		return "", errors.NewInternalError(errors.ErrCodeInvalidRequest, "no destination for the downloaded PDF", nil)
	}
	artifact, err := c.downloader.DownloadPDF(ctx, pdfPath)
	if err != nil {
		return "", err
	}
	location, err := saver.Save(ctx, *artifact)
	artifact.Data = nil
	return location, err
}

// Back returns to the form to edit and regenerate.
func (c *ResultsController) Back() {
	c.navigator.Redirect(FormRoute)
}
