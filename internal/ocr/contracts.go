package ocr

import (
	"context"
	"errors"
	"time"
)

// TextExtractor turns a PDF into text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

type Result struct {
	Text      string
	Pages     int
	Method    string // "ocr.space" | "pdf-text" | "pdf-ocr"
	Language  string
	RequestID string
	Duration  time.Duration
	Warnings  []string
}

var (
	// ErrOCRFailed is returned when the service processed the request but
	// reported an error or produced no text.
	ErrOCRFailed = errors.New("ocr failed")
	// ErrNonJSONResponse is returned when the service answered with something
	// other than the expected JSON document.
	ErrNonJSONResponse = errors.New("ocr service returned a non-JSON response")
	// ErrHTTPStatus wraps non-2xx responses.
	ErrHTTPStatus = errors.New("ocr service returned an error status")
)
