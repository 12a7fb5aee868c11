package common

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"atsresume/internal/errors"
	"atsresume/internal/utils"
)

// StdinPath names standard input wherever a file name is accepted.
const StdinPath = "-"

// FileProcessor reads command inputs and writes reports, turning failures
// into IO errors that name the file.
type FileProcessor struct {
	logger *errors.Logger
	stdin  io.Reader
}

func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &FileProcessor{logger: logger, stdin: os.Stdin}
}

// WithStdin replaces the reader used for StdinPath.
func (fp *FileProcessor) WithStdin(r io.Reader) *FileProcessor {
	fp.stdin = r
	return fp
}

// ReadFile returns the content of filename, or of standard input for
// StdinPath.
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	if filename == StdinPath {
		data, err := io.ReadAll(fp.stdin)
		if err != nil {
			return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "Cannot read standard input", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		return string(data), nil
	case stderrors.Is(err, fs.ErrNotExist):
		return "", errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("File not found: %s", filename), err)
	default:
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
}

// ReadJobDescription loads a job description. Files without a text
// extension are read anyway, with a warning. Trailing line breaks are
// dropped.
func (fp *FileProcessor) ReadJobDescription(filename string) (string, error) {
	if filename != StdinPath {
		if err := utils.ValidateInputFile(filename); err != nil {
			return "", errors.NewValidationError("INVALID_INPUT_FILE",
				fmt.Sprintf("Invalid file %s", filename), err).
				WithContext("file_name", filename)
		}
		if !utils.IsTextFile(filename) {
			fp.logger.Warn("Job description file may not be a text file", "filename", filename)
		}
	}

	content, err := fp.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(content, "\r\n"), nil
}

// WriteFile writes content with mode 0600, creating parent directories.
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if err := utils.EnsureDir(dir); err != nil {
		return errors.NewIOError("DIRECTORY_CREATE_FAILED",
			fmt.Sprintf("Cannot create directory: %s", dir), err)
	}
	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError(errors.ErrCodeFileWriteFailed,
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// ValidateOutputFile checks that filename can receive a report. An empty
// name means standard output.
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}

	if info, err := os.Stat(filename); err == nil && info.IsDir() {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s is a directory", filename), nil)
	}
	if err := utils.EnsureDir(filepath.Dir(filename)); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	return nil
}
