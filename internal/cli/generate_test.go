package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"atsresume/internal/common"
	"atsresume/internal/config"
	"atsresume/internal/errors"
	"atsresume/internal/resume"
	"atsresume/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobText = "We are hiring a backend engineer experienced with Go, gRPC and PostgreSQL."

type fakeService struct {
	calls     atomic.Int32
	req       resume.GenerateRequest
	err       error
	pdfPath   string
	downloads atomic.Int32
}

func (f *fakeService) GenerateResume(ctx context.Context, req resume.GenerateRequest) (*resume.GeneratedResume, error) {
	f.calls.Add(1)
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	var r resume.GeneratedResume
	err := json.Unmarshal([]byte(`{
		"atsScore": 72,
		"header": {"name": "Jane Doe", "email": "jane@example.com"},
		"summary": "Backend engineer",
		"experience": [{"title": "SWE", "company": "Acme", "duration": "2020-2024"}],
		"pdfPath": "generated/jane.pdf"
	}`), &r)
	return &r, err
}

func (f *fakeService) DownloadPDF(ctx context.Context, pdfPath string) (*resume.Artifact, error) {
	f.downloads.Add(1)
	f.pdfPath = pdfPath
	return &resume.Artifact{Filename: "optimized-resume-1700000000000.pdf", ContentType: resume.ContentTypePDF, Data: []byte("%PDF-1.7")}, nil
}

func testBackend(svc *fakeService) *backend {
	return &backend{service: svc, events: nopEvents{}, close: func() {}}
}

type nopEvents struct{}

func (nopEvents) RecordEvent(context.Context, string, bool) {}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.MaxFileSize = 10 << 20
	cfg.App.OutputDir = t.TempDir()
	return cfg
}

func resumePDF(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "upload", "testdata", "one-page.pdf"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestGeneratePrintsResult(t *testing.T) {
	svc := &fakeService{}
	var stdout, stderr bytes.Buffer

	err := generate(context.Background(), &stdout, &stderr, testConfig(t), errors.NewNopLogger(), testBackend(svc), generateOptions{
		CommandConfig:  common.CommandConfig{OutputFormat: "text"},
		ResumeFile:     resumePDF(t),
		JobDescription: jobText,
		ExtraInfo:      "Open to relocation",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), svc.calls.Load())
	assert.Equal(t, "resume.pdf", svc.req.FileName)
	assert.Equal(t, "Open to relocation", svc.req.ExtraInfo)
	assert.Contains(t, stdout.String(), "Score: 72/100 (warning)")
	assert.Contains(t, stdout.String(), "name: Jane Doe")
	assert.Contains(t, stderr.String(), "Selected resume.pdf (")
	assert.Contains(t, stderr.String(), "Success!")
	assert.Zero(t, svc.downloads.Load())
}

func TestGenerateReadsJobFileAndDownloads(t *testing.T) {
	svc := &fakeService{}
	cfg := testConfig(t)
	jobFile := filepath.Join(t.TempDir(), "job.txt")
	require.NoError(t, os.WriteFile(jobFile, []byte(jobText+"\n"), 0600))
	report := filepath.Join(t.TempDir(), "report.json")
	target := filepath.Join(t.TempDir(), "out")
	var stdout, stderr bytes.Buffer

	err := generate(context.Background(), &stdout, &stderr, cfg, errors.NewNopLogger(), testBackend(svc), generateOptions{
		CommandConfig: common.CommandConfig{OutputFormat: "json", OutputFile: report},
		ResumeFile:    resumePDF(t),
		JobFile:       jobFile,
		Download:      true,
		Target:        target,
	})
	require.NoError(t, err)

	assert.Equal(t, jobText, svc.req.JobDescription)
	assert.Empty(t, stdout.String(), "report goes to the file")

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"atsScore": 72`)

	assert.Equal(t, "generated/jane.pdf", svc.pdfPath)
	saved := filepath.Join(target, "optimized-resume-1700000000000.pdf")
	pdf, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), pdf)
	assert.Contains(t, stderr.String(), "Saved PDF to "+saved)
	assert.Contains(t, stderr.String(), "Download Complete!")
}

func TestGenerateValidationErrors(t *testing.T) {
	svc := &fakeService{}
	var stderr bytes.Buffer

	err := generate(context.Background(), &bytes.Buffer{}, &stderr, testConfig(t), errors.NewNopLogger(), testBackend(svc), generateOptions{
		CommandConfig:  common.CommandConfig{OutputFormat: "text"},
		JobDescription: "too short",
	})

	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Zero(t, svc.calls.Load())
	assert.Contains(t, stderr.String(), "  jobDescription: "+workflow.MsgJobDescriptionTooShort)
	assert.Contains(t, stderr.String(), "  resume: "+workflow.MsgResumeRequired)
	assert.Less(t, strings.Index(stderr.String(), "jobDescription:"), strings.Index(stderr.String(), "resume:"))
}

func TestGenerateRejectsNonPDF(t *testing.T) {
	svc := &fakeService{}
	path := filepath.Join(t.TempDir(), "resume.docx")
	require.NoError(t, os.WriteFile(path, []byte("PK"), 0600))

	err := generate(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, testConfig(t), errors.NewNopLogger(), testBackend(svc), generateOptions{
		CommandConfig:  common.CommandConfig{OutputFormat: "text"},
		ResumeFile:     path,
		JobDescription: jobText,
	})

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidFileType, appErr.Code)
	assert.Zero(t, svc.calls.Load())
}

func TestGenerateServiceFailure(t *testing.T) {
	svc := &fakeService{err: errors.NewNetworkError(errors.ErrCodeNetworkFailure, "Unable to reach the resume service", nil)}
	var stderr bytes.Buffer

	err := generate(context.Background(), &bytes.Buffer{}, &stderr, testConfig(t), errors.NewNopLogger(), testBackend(svc), generateOptions{
		CommandConfig:  common.CommandConfig{OutputFormat: "text"},
		ResumeFile:     resumePDF(t),
		JobDescription: jobText,
	})

	assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))
	assert.Contains(t, stderr.String(), workflow.MsgGenerateFailed)
}

func TestDownloadCommand(t *testing.T) {
	svc := &fakeService{}
	cfg := testConfig(t)
	target := filepath.Join(t.TempDir(), "mine.pdf")
	var stderr bytes.Buffer

	err := download(context.Background(), &stderr, cfg, errors.NewNopLogger(), testBackend(svc), "generated/jane.pdf", target)
	require.NoError(t, err)

	assert.Equal(t, "generated/jane.pdf", svc.pdfPath)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), data)
	assert.Contains(t, stderr.String(), "Saved PDF to "+target)
}

func TestDownloadCommandRejectsBadTarget(t *testing.T) {
	svc := &fakeService{}
	err := download(context.Background(), &bytes.Buffer{}, testConfig(t), errors.NewNopLogger(), testBackend(svc), "generated/jane.pdf", "s3://")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Zero(t, svc.downloads.Load())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "atsresume version dev")
}
