package pdf

import "fmt"

// ErrorType categorizes failures reading a PDF
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeInvalidHeader
	ErrorTypeTooLarge
	ErrorTypeCorruptedData
	ErrorTypeMalformedPage
	ErrorTypeInvalidImage
	ErrorTypeResourceNotFound
)

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidHeader:
		return "INVALID_HEADER"
	case ErrorTypeTooLarge:
		return "TOO_LARGE"
	case ErrorTypeCorruptedData:
		return "CORRUPTED_DATA"
	case ErrorTypeMalformedPage:
		return "MALFORMED_PAGE"
	case ErrorTypeInvalidImage:
		return "INVALID_IMAGE"
	case ErrorTypeResourceNotFound:
		return "RESOURCE_NOT_FOUND"
	default:
		return "UNKNOWN"
	}
}

// ReadError is returned for any failure while loading or reading a document.
// Recoverable errors affect a single page element and do not invalidate
// the document.
type ReadError struct {
	Type        ErrorType
	Op          string
	Page        int
	Recoverable bool
	Err         error
}

func (e *ReadError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("[%s] %s page %d: %v", e.Type, e.Op, e.Page, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Type, e.Op, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// panicError converts a recovered panic value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
