package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
)

// headerWindow is how far into the file the %PDF- marker may appear.
const headerWindow = 1024

var (
	ErrEmpty    = errors.New("file is empty")
	ErrNotPDF   = errors.New("missing %PDF- header")
	ErrTooLarge = errors.New("file too large")
)

// Validator handles PDF input validation
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified size limit
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile checks that path names a readable, non-empty .pdf file within
// the size limit. It does not parse the file.
func (v *Validator) ValidateFile(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", path)
	}

	return v.checkSize(fileInfo.Size())
}

// ValidateBytes checks size limits and the PDF header of in-memory input.
func (v *Validator) ValidateBytes(data []byte) error {
	if err := v.checkSize(int64(len(data))); err != nil {
		return err
	}

	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	if !bytes.Contains(window, []byte("%PDF-")) {
		return &ReadError{Type: ErrorTypeInvalidHeader, Op: "validate", Err: ErrNotPDF}
	}
	return nil
}

func (v *Validator) checkSize(size int64) error {
	if size == 0 {
		return &ReadError{Type: ErrorTypeInvalidHeader, Op: "validate", Err: ErrEmpty}
	}
	if v.maxFileSize > 0 && size > v.maxFileSize {
		return &ReadError{
			Type: ErrorTypeTooLarge,
			Op:   "validate",
			Err:  fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrTooLarge, size, v.maxFileSize),
		}
	}
	return nil
}
