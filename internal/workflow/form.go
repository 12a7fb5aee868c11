package workflow

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
	"unicode/utf8"

	"atsresume/internal/errors"
	"atsresume/internal/httpclient"
	"atsresume/internal/notify"
	"atsresume/internal/resume"
	"atsresume/internal/upload"
)

// MinJobDescriptionLength is the shortest trimmed job description accepted.
const MinJobDescriptionLength = 50

// Field names a form input that can carry a validation error.
type Field string

const (
	FieldResume         Field = "resume"
	FieldJobDescription Field = "jobDescription"
)

// Messages shown by the form.
const (
	MsgResumeRequired         = "Please upload your resume (PDF format only)"
	MsgJobDescriptionRequired = "Job description is required"
	MsgJobDescriptionTooShort = "Please provide a more detailed job description (at least 50 characters)"
	MsgGenerateFailed         = "Failed to generate resume. Please try again."
)

// Phase is where the form is in its submit cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// FormState is a consistent snapshot of the form for rendering.
type FormState struct {
	Phase          Phase
	File           *upload.File
	JobDescription string
	ExtraInfo      string
	Errors         map[Field]string
	CharCount      string
	Busy           bool
}

// FormController owns the form fields, their errors and the submit cycle.
type FormController struct {
	mu             sync.Mutex
	phase          Phase
	file           *upload.File
	jobDescription string
	extraInfo      string
	fieldErrors    map[Field]string

	generator Generator
	navigator Navigator
	notifier  notify.Notifier
	events    Events
	logger    *errors.Logger
}

// FormOption configures a FormController.
type FormOption func(*FormController)

func WithNavigator(n Navigator) FormOption {
	return func(c *FormController) { c.navigator = n }
}

func WithNotifier(n notify.Notifier) FormOption {
	return func(c *FormController) { c.notifier = n }
}

func WithEvents(e Events) FormOption {
	return func(c *FormController) { c.events = e }
}

func WithLogger(l *errors.Logger) FormOption {
	return func(c *FormController) { c.logger = l }
}

// NewFormController creates an empty form backed by gen.
func NewFormController(gen Generator, opts ...FormOption) *FormController {
	c := &FormController{
		generator:   gen,
		fieldErrors: make(map[Field]string),
		navigator:   nopNavigator{},
		notifier:    notify.Nop{},
		events:      nopEvents{},
		logger:      errors.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetFile replaces the selected résumé. Pass nil to clear it. It matches the
// upload control's change callback.
func (c *FormController) SetFile(f *upload.File) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.file = f
	if f != nil {
		delete(c.fieldErrors, FieldResume)
	}
	c.touch()
}

// SetJobDescription replaces the job description text.
func (c *FormController) SetJobDescription(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.jobDescription = text
	if strings.TrimSpace(text) != "" {
		delete(c.fieldErrors, FieldJobDescription)
	}
	c.touch()
}

// SetExtraInfo replaces the optional extra information.
func (c *FormController) SetExtraInfo(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.extraInfo = text
	c.touch()
}

// touch returns a failed or finished form to idle after an edit.
func (c *FormController) touch() {
	if c.phase == PhaseFailed || c.phase == PhaseSucceeded {
		c.phase = PhaseIdle
	}
}

// Validate checks the current fields, records the errors and returns them.
func (c *FormController) Validate() map[Field]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fieldErrors = validateFields(c.file, c.jobDescription)
	return maps.Clone(c.fieldErrors)
}

func validateFields(file *upload.File, jobDescription string) map[Field]string {
	errs := make(map[Field]string)
	if file == nil {
		errs[FieldResume] = MsgResumeRequired
	}

	trimmed := strings.TrimSpace(jobDescription)
	switch {
	case trimmed == "":
		errs[FieldJobDescription] = MsgJobDescriptionRequired
	case utf8.RuneCountInString(trimmed) < MinJobDescriptionLength:
		errs[FieldJobDescription] = MsgJobDescriptionTooShort
	}
	return errs
}

// Submit validates the form and, when it is valid, sends it to the
// generator. On success the result is handed to the navigator. Validation
// failures never reach the network.
func (c *FormController) Submit(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	if c.phase == PhaseSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmitInProgress
	}

	c.phase = PhaseValidating
	c.fieldErrors = validateFields(c.file, c.jobDescription)
	if len(c.fieldErrors) > 0 {
		fieldErrs := maps.Clone(c.fieldErrors)
		c.phase = PhaseIdle
		c.mu.Unlock()

		c.events.RecordEvent(ctx, EventValidationFailure, false)
		c.notifier.Notify(notify.Error("Validation Error", "Please fix the errors and try again."))
		return nil, validationError(fieldErrs)
	}

	c.phase = PhaseSubmitting
	fileName := c.file.Name
	req := resume.GenerateRequest{
		FileName:       fileName,
		File:           c.file.Reader(),
		JobDescription: c.jobDescription,
		ExtraInfo:      c.extraInfo,
	}
	c.mu.Unlock()

	c.logger.Debug("Submitting resume", "file_name", fileName, "job_description_length", len(req.JobDescription))
	generated, err := c.generator.GenerateResume(ctx, req)

	c.mu.Lock()
	if err != nil {
		c.phase = PhaseFailed
		c.mu.Unlock()

		c.logger.LogError(err, "Resume generation failed", "file_name", fileName)
		c.events.RecordEvent(ctx, EventResumeGenerated, false)
		c.notifier.Notify(notify.Error("Error", generateFailureMessage(err)))
		return nil, err
	}
	c.phase = PhaseSucceeded
	c.mu.Unlock()

	result := &Result{Resume: generated, OriginalFileName: fileName}
	c.logger.Info("Resume generated", "file_name", fileName, "ats_score", generated.Score())
	c.events.RecordEvent(ctx, EventResumeGenerated, true)
	c.navigator.ShowResults(result)
	c.notifier.Notify(notify.Success("Success!", "Your resume has been optimized successfully."))
	return result, nil
}

func generateFailureMessage(err error) string {
	if msg, ok := httpclient.ServerMessage(err); ok {
		return msg
	}
	return MsgGenerateFailed
}

func validationError(fieldErrs map[Field]string) error {
	appErr := errors.NewValidationError(errors.ErrCodeFormInvalid, "Please fix the errors and try again.", nil)
	fields := make(map[string]string, len(fieldErrs))
	for f, msg := range fieldErrs {
		fields[string(f)] = msg
	}
	return appErr.WithContext("fields", fields)
}

// FieldErrors extracts the per-field messages from a Submit validation error.
func FieldErrors(err error) map[Field]string {
	appErr, ok := errors.As(err)
	if !ok || appErr.Code != errors.ErrCodeFormInvalid {
		return nil
	}
	fields, _ := appErr.Context["fields"].(map[string]string)
	out := make(map[Field]string, len(fields))
	for f, msg := range fields {
		out[Field(f)] = msg
	}
	return out
}

// Reset clears every field and error at once. It is refused while a
// generate is in flight.
func (c *FormController) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseSubmitting {
		return ErrSubmitInProgress
	}
	c.file = nil
	c.jobDescription = ""
	c.extraInfo = ""
	c.fieldErrors = make(map[Field]string)
	c.phase = PhaseIdle
	return nil
}

// Busy reports whether the submit control is disabled.
func (c *FormController) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == PhaseSubmitting
}

// Phase returns the current phase.
func (c *FormController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Errors returns the current field errors.
func (c *FormController) Errors() map[Field]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.fieldErrors)
}

// CharCount renders the job description counter, e.g. "12/50 min".
func (c *FormController) CharCount() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return charCount(c.jobDescription)
}

func charCount(text string) string {
	return fmt.Sprintf("%d/%d min", utf8.RuneCountInString(text), MinJobDescriptionLength)
}

// State returns a snapshot of the whole form.
func (c *FormController) State() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FormState{
		Phase:          c.phase,
		File:           c.file,
		JobDescription: c.jobDescription,
		ExtraInfo:      c.extraInfo,
		Errors:         maps.Clone(c.fieldErrors),
		CharCount:      charCount(c.jobDescription),
		Busy:           c.phase == PhaseSubmitting,
	}
}
