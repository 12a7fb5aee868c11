// Package upload implements the single-file PDF picker: drag state,
// acceptance filtering, selection, removal and owner notification.
package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"atsresume/internal/errors"
	"atsresume/internal/utils"

	"github.com/ledongthuc/pdf"
)

const (
	mimePDF = "application/pdf"
	extPDF  = ".pdf"
)

// Messages shown when a candidate is refused.
const (
	MsgOnlyPDF    = "Only PDF files are supported"
	MsgInvalidPDF = "The selected file is not a valid PDF"
)

// File is an accepted PDF held in memory.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Pages       int
	data        []byte
}

// NewFile builds a File directly from bytes without acceptance checks.
func NewFile(name string, data []byte) *File {
	return &File{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: mimePDF,
		Pages:       countPages(data),
		data:        data,
	}
}

// Reader returns a fresh reader over the file contents.
func (f *File) Reader() io.Reader {
	return bytes.NewReader(f.data)
}

// Bytes returns the file contents.
func (f *File) Bytes() []byte {
	return f.data
}

// SizeLabel is the size in megabytes with one decimal.
func (f *File) SizeLabel() string {
	return utils.FormatMegabytes(f.Size)
}

// Describe renders "name (1.2 MB, 2 pages)".
func (f *File) Describe() string {
	switch f.Pages {
	case 0:
		return fmt.Sprintf("%s (%s)", f.Name, f.SizeLabel())
	case 1:
		return fmt.Sprintf("%s (%s, 1 page)", f.Name, f.SizeLabel())
	default:
		return fmt.Sprintf("%s (%s, %d pages)", f.Name, f.SizeLabel(), f.Pages)
	}
}

// Candidate is a file offered for selection, before acceptance.
type Candidate struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// CandidateFromPath offers a file on disk.
func CandidateFromPath(path string) Candidate {
	c := Candidate{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
	if info, err := os.Stat(path); err == nil {
		c.Size = info.Size()
	}
	return c
}

// CandidateFromMultipart offers a browser upload.
func CandidateFromMultipart(fh *multipart.FileHeader) Candidate {
	return Candidate{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// CandidateFromBytes offers an in-memory file.
func CandidateFromBytes(name, contentType string, data []byte) Candidate {
	return Candidate{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Accepts reports whether the candidate passes the PDF filter by extension or declared type.
func (c Candidate) Accepts() bool {
	if utils.HasExtension(c.Name, extPDF) {
		return true
	}
	ct := strings.ToLower(strings.TrimSpace(strings.Split(c.ContentType, ";")[0]))
	return ct == mimePDF
}

// Control tracks the selected file and drag state.
type Control struct {
	mu         sync.Mutex
	selected   *File
	dragActive bool
	lastError  string
	maxSize    int64
	onChange   func(*File)
}

// NewControl creates a control that reports selection changes to onChange.
// maxSize of zero or less disables the size limit.
func NewControl(maxSize int64, onChange func(*File)) *Control {
	return &Control{maxSize: maxSize, onChange: onChange}
}

// DragEnter marks a drag hovering over the drop zone.
func (c *Control) DragEnter() {
	c.mu.Lock()
	c.dragActive = true
	c.mu.Unlock()
}

// DragLeave clears the hover state.
func (c *Control) DragLeave() {
	c.mu.Lock()
	c.dragActive = false
	c.mu.Unlock()
}

// DragActive reports whether a drag is hovering.
func (c *Control) DragActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragActive
}

// Drop ends a drag and selects from the dropped candidates.
func (c *Control) Drop(candidates []Candidate) error {
	c.DragLeave()
	return c.Select(candidates)
}

// Select takes the first candidate that passes the PDF filter, loads it and
// makes it the selection, replacing any previous one. When nothing is
// acceptable the selection is left as it was.
func (c *Control) Select(candidates []Candidate) error {
	for _, cand := range candidates {
		if !cand.Accepts() {
			continue
		}

		file, err := c.load(cand)
		if err != nil {
			c.setError(errors.UserMessage(err, MsgInvalidPDF))
			return err
		}

		c.mu.Lock()
		c.selected = file
		c.lastError = ""
		onChange := c.onChange
		c.mu.Unlock()

		if onChange != nil {
			onChange(file)
		}
		return nil
	}

	if len(candidates) == 0 {
		return nil
	}
	c.setError(MsgOnlyPDF)
	return errors.NewValidationError(errors.ErrCodeInvalidFileType, MsgOnlyPDF, nil).
		WithContext("file_name", candidates[0].Name)
}

// Remove clears the selection and notifies the owner with nil.
func (c *Control) Remove() {
	c.mu.Lock()
	c.selected = nil
	c.lastError = ""
	onChange := c.onChange
	c.mu.Unlock()

	if onChange != nil {
		onChange(nil)
	}
}

// Selected returns the current file, or nil.
func (c *Control) Selected() *File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// LastError is the message from the most recent refused selection.
func (c *Control) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

func (c *Control) setError(msg string) {
	c.mu.Lock()
	c.lastError = msg
	c.mu.Unlock()
}

func (c *Control) load(cand Candidate) (*File, error) {
	if c.maxSize > 0 && cand.Size > c.maxSize {
		return nil, tooLarge(cand.Name, c.maxSize)
	}
	if cand.Open == nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "The selected file could not be read", nil).
			WithContext("file_name", cand.Name)
	}

	rc, err := cand.Open()
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "The selected file could not be read", err).
			WithContext("file_name", cand.Name)
	}
	defer rc.Close()

	var r io.Reader = rc
	if c.maxSize > 0 {
		r = io.LimitReader(rc, c.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "The selected file could not be read", err).
			WithContext("file_name", cand.Name)
	}
	if c.maxSize > 0 && int64(len(data)) > c.maxSize {
		return nil, tooLarge(cand.Name, c.maxSize)
	}

	if http.DetectContentType(data) != mimePDF {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFileType, MsgInvalidPDF, nil).
			WithContext("file_name", cand.Name)
	}

	return &File{
		Name:        utils.SanitizeFileName(cand.Name),
		Size:        int64(len(data)),
		ContentType: mimePDF,
		Pages:       countPages(data),
		data:        data,
	}, nil
}

func tooLarge(name string, limit int64) error {
	return errors.NewValidationError(errors.ErrCodeFileTooLarge,
		fmt.Sprintf("File is too large (maximum %s)", utils.FormatMegabytes(limit)), nil).
		WithContext("file_name", name)
}

// countPages returns the page count, or 0 when the PDF structure cannot be read.
func countPages(data []byte) (pages int) {
	defer func() {
		if recover() != nil {
			pages = 0
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return r.NumPage()
}
