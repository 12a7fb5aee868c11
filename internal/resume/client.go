package resume

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"atsresume/internal/errors"
	"atsresume/internal/httpclient"
)

// Service routes and multipart field names.
const (
	GeneratePath       = "/api/resumes/generate"
	DownloadPathPrefix = "/api/resumes/download/"

	FieldResumeFile     = "resumeFile"
	FieldJobDescription = "jobDescription"
	FieldExtraInfo      = "extraInfo"

	ContentTypePDF = "application/pdf"
)

// Doer sends a request to the resume service. *httpclient.Client implements it.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

// GenerateRequest is the input of a generate call.
type GenerateRequest struct {
	FileName       string
	File           io.Reader
	JobDescription string
	ExtraInfo      string
}

// Client talks to the resume service's generate and download endpoints.
type Client struct {
	http Doer
	now  func() time.Time
}

// NewClient wraps an HTTP adapter.
func NewClient(d Doer) *Client {
	return &Client{http: d, now: time.Now}
}

// GenerateResume uploads the résumé with the job description and returns the
// optimized résumé. Failures are network or service AppErrors.
func (c *Client) GenerateResume(ctx context.Context, req GenerateRequest) (*GeneratedResume, error) {
	if req.File == nil {
		return nil, errors.NewValidationError(errors.ErrCodeMissingFile, "resume file is required", nil)
	}

	body, contentType, err := encodeGenerateRequest(req)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read resume file", err).
			WithContext("file_name", req.FileName)
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:      http.MethodPost,
		Path:        GeneratePath,
		Body:        body,
		ContentType: contentType,
		Accept:      "application/json",
	})
	if err != nil {
		return nil, err
	}

	return decodeGeneratedResume(resp)
}

// DownloadPDF fetches the PDF the service stored at pdfPath.
func (c *Client) DownloadPDF(ctx context.Context, pdfPath string) (*Artifact, error) {
	if strings.TrimSpace(pdfPath) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "no PDF is available for this resume", nil)
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   DownloadPathPrefix + url.PathEscape(pdfPath),
		Accept: ContentTypePDF,
	})
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = ContentTypePDF
	}
	return &Artifact{
		Filename:    ArtifactFilename(c.now()),
		ContentType: contentType,
		Data:        resp.Body,
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeGenerateRequest builds the multipart body. extraInfo is omitted when blank.
func encodeGenerateRequest(req GenerateRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fileName := req.FileName
	if fileName == "" {
		fileName = "resume.pdf"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FieldResumeFile, quoteEscaper.Replace(fileName)))
	h.Set("Content-Type", ContentTypePDF)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, req.File); err != nil {
		return nil, "", err
	}

	if err := w.WriteField(FieldJobDescription, req.JobDescription); err != nil {
		return nil, "", err
	}
	if extra := strings.TrimSpace(req.ExtraInfo); extra != "" {
		if err := w.WriteField(FieldExtraInfo, extra); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func decodeGeneratedResume(resp *httpclient.Response) (*GeneratedResume, error) {
	invalid := func(cause error) error {
		return errors.NewServiceError(errors.ErrCodeInvalidResponse, "invalid response from resume service", cause).
			WithContext("status_code", resp.StatusCode).
			WithContext("request_id", resp.RequestID)
	}

	if err := ValidateResponse(resp.Body); err != nil {
		return nil, invalid(err)
	}

	var out GeneratedResume
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, invalid(err)
	}
	return &out, nil
}
