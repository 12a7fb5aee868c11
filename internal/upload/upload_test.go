package upload

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"atsresume/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

type changeRecorder struct {
	calls []*File
}

func (r *changeRecorder) onChange(f *File) {
	r.calls = append(r.calls, f)
}

func TestCandidateAccepts(t *testing.T) {
	tests := []struct {
		name string
		cand Candidate
		want bool
	}{
		{"pdf extension", Candidate{Name: "resume.pdf"}, true},
		{"upper-case extension", Candidate{Name: "RESUME.PDF"}, true},
		{"pdf mime only", Candidate{Name: "blob", ContentType: "application/pdf"}, true},
		{"pdf mime with params", Candidate{Name: "blob", ContentType: "application/pdf; charset=binary"}, true},
		{"docx", Candidate{Name: "resume.docx", ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"}, false},
		{"image", Candidate{Name: "photo.png", ContentType: "image/png"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cand.Accepts())
		})
	}
}

func TestSelectFirstAcceptedCandidate(t *testing.T) {
	pdfOne := readTestdata(t, "one-page.pdf")
	pdfTwo := readTestdata(t, "two-pages.pdf")

	rec := &changeRecorder{}
	ctrl := NewControl(0, rec.onChange)

	err := ctrl.Select([]Candidate{
		CandidateFromBytes("notes.txt", "text/plain", []byte("hello")),
		CandidateFromBytes("two.pdf", "application/pdf", pdfTwo),
		CandidateFromBytes("one.pdf", "application/pdf", pdfOne),
	})
	require.NoError(t, err)

	selected := ctrl.Selected()
	require.NotNil(t, selected)
	assert.Equal(t, "two.pdf", selected.Name)
	assert.Equal(t, int64(len(pdfTwo)), selected.Size)
	assert.Equal(t, 2, selected.Pages)
	assert.Equal(t, pdfTwo, selected.Bytes())
	require.Len(t, rec.calls, 1)
	assert.Same(t, selected, rec.calls[0])
}

func TestSelectReplacesPreviousSelection(t *testing.T) {
	rec := &changeRecorder{}
	ctrl := NewControl(0, rec.onChange)

	require.NoError(t, ctrl.Select([]Candidate{CandidateFromBytes("a.pdf", "", readTestdata(t, "one-page.pdf"))}))
	require.NoError(t, ctrl.Select([]Candidate{CandidateFromBytes("b.pdf", "", readTestdata(t, "two-pages.pdf"))}))

	assert.Equal(t, "b.pdf", ctrl.Selected().Name)
	assert.Len(t, rec.calls, 2)
}

func TestSelectRejectsNonPDF(t *testing.T) {
	rec := &changeRecorder{}
	ctrl := NewControl(0, rec.onChange)
	require.NoError(t, ctrl.Select([]Candidate{CandidateFromBytes("keep.pdf", "", readTestdata(t, "one-page.pdf"))}))

	err := ctrl.Select([]Candidate{CandidateFromBytes("resume.docx", "application/msword", []byte("PK"))})
	require.Error(t, err)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidFileType, appErr.Code)
	assert.Equal(t, MsgOnlyPDF, ctrl.LastError())
	assert.Equal(t, "keep.pdf", ctrl.Selected().Name, "selection unchanged")
	assert.Len(t, rec.calls, 1)
}

func TestSelectRejectsDisguisedFile(t *testing.T) {
	ctrl := NewControl(0, nil)
	err := ctrl.Select([]Candidate{CandidateFromBytes("fake.pdf", "application/pdf", readTestdata(t, "not-a-pdf.pdf"))})
	require.Error(t, err)
	assert.Equal(t, MsgInvalidPDF, ctrl.LastError())
	assert.Nil(t, ctrl.Selected())
}

func TestSelectRejectsOversizedFile(t *testing.T) {
	data := readTestdata(t, "one-page.pdf")
	ctrl := NewControl(int64(len(data)-1), nil)

	err := ctrl.Select([]Candidate{CandidateFromBytes("big.pdf", "", data)})
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeFileTooLarge, appErr.Code)
	assert.Nil(t, ctrl.Selected())
}

func TestSelectEnforcesLimitWhenSizeUnknown(t *testing.T) {
	data := readTestdata(t, "one-page.pdf")
	ctrl := NewControl(100, nil)

	cand := Candidate{
		Name: "stream.pdf",
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
	err := ctrl.Select([]Candidate{cand})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestSelectEmptyDropIsNoop(t *testing.T) {
	ctrl := NewControl(0, nil)
	assert.NoError(t, ctrl.Select(nil))
	assert.Empty(t, ctrl.LastError())
}

func TestRemoveNotifiesNil(t *testing.T) {
	rec := &changeRecorder{}
	ctrl := NewControl(0, rec.onChange)
	require.NoError(t, ctrl.Select([]Candidate{CandidateFromBytes("a.pdf", "", readTestdata(t, "one-page.pdf"))}))

	ctrl.Remove()
	assert.Nil(t, ctrl.Selected())
	require.Len(t, rec.calls, 2)
	assert.Nil(t, rec.calls[1])
}

func TestDragState(t *testing.T) {
	ctrl := NewControl(0, nil)
	assert.False(t, ctrl.DragActive())

	ctrl.DragEnter()
	assert.True(t, ctrl.DragActive())
	ctrl.DragLeave()
	assert.False(t, ctrl.DragActive())

	ctrl.DragEnter()
	require.NoError(t, ctrl.Drop([]Candidate{CandidateFromBytes("a.pdf", "", readTestdata(t, "one-page.pdf"))}))
	assert.False(t, ctrl.DragActive())
	assert.NotNil(t, ctrl.Selected())
}

func TestCandidateFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, readTestdata(t, "one-page.pdf"), 0600))

	cand := CandidateFromPath(path)
	assert.Equal(t, "resume.pdf", cand.Name)
	assert.True(t, cand.Accepts())

	ctrl := NewControl(0, nil)
	require.NoError(t, ctrl.Select([]Candidate{cand}))
	assert.Equal(t, 1, ctrl.Selected().Pages)
}

func TestFileDescribe(t *testing.T) {
	f := &File{Name: "resume.pdf", Size: 1258291, Pages: 2}
	assert.Equal(t, "1.2 MB", f.SizeLabel())
	assert.Equal(t, "resume.pdf (1.2 MB, 2 pages)", f.Describe())

	f.Pages = 1
	assert.Equal(t, "resume.pdf (1.2 MB, 1 page)", f.Describe())

	f.Pages = 0
	assert.Equal(t, "resume.pdf (1.2 MB)", f.Describe())
}

func TestNewFileFromUnreadablePDF(t *testing.T) {
	f := NewFile("x.pdf", []byte("%PDF-1.4 truncated"))
	assert.Equal(t, 0, f.Pages)
	assert.Equal(t, int64(18), f.Size)
}
