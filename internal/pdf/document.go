// Package pdf reads page content from PDF files: positioned text fragments,
// painted raster images and rendered page rasters.
package pdf

import (
	"bytes"
	"image"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/pdf2docx/internal/layout"
)

// defaultViewport is US Letter, used when a page has no usable MediaBox.
var defaultViewport = layout.Viewport{Width: 612, Height: 792}

// Document is an opened PDF. Text and operators are read through
// ledongthuc/pdf; structure validation and image decoding go through pdfcpu.
// A Document is not safe for concurrent use.
type Document struct {
	reader *lpdf.Reader
	ctx    *model.Context
	pages  int
}

// Open parses PDF bytes. Any failure to parse is reported as a ReadError of
// type ErrorTypeInvalidHeader or ErrorTypeCorruptedData.
func Open(data []byte) (doc *Document, err error) {
	if err := NewValidator(0).ValidateBytes(data); err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &ReadError{Type: ErrorTypeCorruptedData, Op: "parse", Err: err}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &ReadError{Type: ErrorTypeCorruptedData, Op: "count pages", Err: err}
	}

	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &ReadError{Type: ErrorTypeCorruptedData, Op: "open", Err: panicError(r)}
		}
	}()

	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ReadError{Type: ErrorTypeCorruptedData, Op: "open", Err: err}
	}

	return &Document{reader: reader, ctx: ctx, pages: reader.NumPage()}, nil
}

// NumPages returns the number of pages.
func (d *Document) NumPages() int {
	return d.pages
}

// PageContent is everything read from one page, in page space.
type PageContent struct {
	Number    int
	Viewport  layout.Viewport
	Fragments []layout.Fragment
	Images    []PaintedImage
	// Problems holds recoverable errors met while reading the page.
	Problems []error
}

// PaintedImage is one image-paint operation. CTM maps the unit square to
// page space at the time of painting. Pixels is nil when decoding failed;
// the reason is in Err.
type PaintedImage struct {
	Name   string
	CTM    layout.Matrix
	Pixels *image.RGBA
	Err    error
}

// Text joins the page's fragment texts with single spaces.
func (pc *PageContent) Text() string {
	parts := make([]string, 0, len(pc.Fragments))
	for _, f := range pc.Fragments {
		parts = append(parts, f.Text)
	}
	return strings.Join(parts, " ")
}

// Anchor returns the page-space Y of the image origin.
func (pi PaintedImage) Anchor() float64 {
	return pi.CTM[5]
}
