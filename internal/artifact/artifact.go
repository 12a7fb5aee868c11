// Package artifact persists downloaded résumé PDFs to their destination.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"atsresume/internal/config"
	"atsresume/internal/errors"
	"atsresume/internal/resume"
	"atsresume/internal/utils"
)

// Saver writes an artifact somewhere and returns where it ended up.
type Saver interface {
	Save(ctx context.Context, a resume.Artifact) (string, error)
}

// DirSaver writes artifacts into a local directory.
type DirSaver struct {
	Dir string
}

// Save writes the PDF with mode 0600, creating the directory when needed.
func (d DirSaver) Save(ctx context.Context, a resume.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileWriteFailed, "failed to prepare output directory", err).
			WithContext("dir", dir)
	}

	path := filepath.Join(dir, utils.SanitizeFileName(a.Filename))
	if err := os.WriteFile(path, a.Data, 0600); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileWriteFailed, "failed to write PDF", err).
			WithContext("path", path)
	}
	return path, nil
}

// FileSaver writes the artifact to an exact path, ignoring its synthesized name.
type FileSaver struct {
	Path string
}

func (f FileSaver) Save(ctx context.Context, a resume.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Dir(f.Path)); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileWriteFailed, "failed to prepare output directory", err).
			WithContext("path", f.Path)
	}
	if err := os.WriteFile(f.Path, a.Data, 0600); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileWriteFailed, "failed to write PDF", err).
			WithContext("path", f.Path)
	}
	return f.Path, nil
}

// Target is a parsed output destination.
type Target struct {
	Scheme string // "file" or "s3"
	Bucket string
	Prefix string
	Path   string
}

// ParseTarget interprets an --output value. "s3://bucket/prefix" selects S3,
// a value ending in ".pdf" names an exact file, anything else is a directory.
func ParseTarget(target string) (Target, error) {
	target = strings.TrimSpace(target)
	if rest, ok := strings.CutPrefix(target, "s3://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Target{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid S3 target %q: bucket is required", target), nil)
		}
		return Target{Scheme: "s3", Bucket: bucket, Prefix: normalizePrefix(prefix)}, nil
	}
	if target == "" {
		target = "."
	}
	return Target{Scheme: "file", Path: target}, nil
}

// NewSaver builds the saver for target. S3 targets load AWS credentials from
// the default chain.
func NewSaver(ctx context.Context, target string, cfg config.S3Config) (Saver, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	if t.Scheme == "s3" {
		return NewS3Saver(ctx, cfg.Region, t.Bucket, t.Prefix, cfg.KMSKeyID)
	}
	if utils.HasExtension(t.Path, ".pdf") {
		return FileSaver{Path: t.Path}, nil
	}
	return DirSaver{Dir: t.Path}, nil
}
