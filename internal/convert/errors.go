package convert

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAwaitingChoice is returned by Resume for state that is not suspended.
	ErrNotAwaitingChoice = errors.New("conversion is not awaiting a choice")
	// ErrUnknownChoice is returned for choices other than image and ocr.
	ErrUnknownChoice = errors.New("unknown choice")
	// ErrNoPages is reported for documents without pages.
	ErrNoPages = errors.New("document has no pages")
	// ErrNoRaster is reported when a page without text has no raster to recognize.
	ErrNoRaster = errors.New("page raster unavailable")
	// ErrNoEngine is reported when OCR is chosen but no engine is configured.
	ErrNoEngine = errors.New("no OCR engine configured")
)

// InvalidInputError reports input that is not a parseable PDF.
type InvalidInputError struct {
	Err error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %v", e.Err)
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// OcrFailure reports an OCR engine that failed to start or to recognize a
// page. Page is 0 when the engine could not be started.
type OcrFailure struct {
	Page int
	Err  error
}

func (e *OcrFailure) Error() string {
	if e.Page == 0 {
		return fmt.Sprintf("ocr: start engine: %v", e.Err)
	}
	return fmt.Sprintf("ocr: page %d: %v", e.Page, e.Err)
}

func (e *OcrFailure) Unwrap() error {
	return e.Err
}

// AssemblyError reports a document builder failure.
type AssemblyError struct {
	Err error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble document: %v", e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// ConversionError is returned for every fatal failure. State is where the
// pipeline was when it failed; the cause is reachable through errors.As.
type ConversionError struct {
	State State
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion failed while %s: %v", e.State, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// WarningKind classifies a non-fatal problem.
type WarningKind string

const (
	WarningImageDecode      WarningKind = "image_decode"
	WarningImageEmbed       WarningKind = "image_embed"
	WarningAnchorUnrepaired WarningKind = "anchor_unrepaired"
	WarningContentRead      WarningKind = "content_read"
)

// Warning is a non-fatal problem met during conversion. Warnings are
// collected and returned with the result.
type Warning struct {
	Page    int         `json:"page"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("page %d: %s: %s", w.Page, w.Kind, w.Message)
}
