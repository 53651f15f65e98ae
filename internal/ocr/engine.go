// Package ocr recognizes text in rendered page rasters.
package ocr

import (
	"context"
	"errors"
	"image"
	"strings"
)

// ErrTerminated is returned by engines used after Terminate.
var ErrTerminated = errors.New("ocr engine terminated")

// Line is one recognized line of text. Box is in raster pixels with the
// origin at the top-left corner.
type Line struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
}

// Result is the text recognized in one raster.
type Result struct {
	Text  string
	Lines []Line
}

// Engine recognizes text in rasters. An engine is acquired once per
// conversion and must be terminated on every exit path.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (Result, error)
	Terminate() error
}

// resultFromLines builds a Result whose Text is the lines joined by newlines.
func resultFromLines(lines []Line) Result {
	texts := make([]string, 0, len(lines))
	for _, l := range lines {
		texts = append(texts, l.Text)
	}
	return Result{Text: strings.Join(texts, "\n"), Lines: lines}
}
