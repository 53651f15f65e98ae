package convert

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/pdf2docx/internal/layout"
	"github.com/a3tai/pdf2docx/internal/pdf"
)

// minTextLength is the trimmed length a page's text must exceed to count
// as having text.
const minTextLength = 10

// Method is how pages without extractable text are handled.
type Method string

const (
	MethodText  Method = "text"
	MethodImage Method = "image"
	MethodOCR   Method = "ocr"
)

// ParseChoice parses the answer to the scanned-pages decision.
func ParseChoice(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodImage:
		return MethodImage, nil
	case MethodOCR:
		return MethodOCR, nil
	default:
		return "", fmt.Errorf("%w %q: want image or ocr", ErrUnknownChoice, s)
	}
}

// HasText reports whether extracted page text is long enough for the page
// to be treated as a text page.
func HasText(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) > minTextLength
}

// PageSource reads page content. Pages are read one at a time, in order.
type PageSource interface {
	NumPages() int
	ReadPage(n int) (*pdf.PageContent, error)
	RenderPage(pc *pdf.PageContent, scale float64) (*image.RGBA, error)
}

// SourceOpener opens PDF bytes as a PageSource.
type SourceOpener func(data []byte) (PageSource, error)

// OpenPDF returns an opener that validates size and opens data with the pdf
// package. A maxSize of 0 disables the size check.
func OpenPDF(maxSize int64) SourceOpener {
	return func(data []byte) (PageSource, error) {
		if err := pdf.NewValidator(maxSize).ValidateBytes(data); err != nil {
			return nil, err
		}
		doc, err := pdf.Open(data)
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
}

// ExtractedPage is one page after extraction. Raster is set only for pages
// without text; RasterScale is the pixels per page unit it was rendered at.
type ExtractedPage struct {
	Number      int                  `json:"number"`
	Viewport    layout.Viewport      `json:"viewport"`
	Fragments   []layout.Fragment    `json:"fragments,omitempty"`
	Text        string               `json:"text"`
	HasText     bool                 `json:"has_text"`
	Images      []layout.RasterImage `json:"images,omitempty"`
	Raster      *layout.RasterImage  `json:"raster,omitempty"`
	RasterScale float64              `json:"raster_scale,omitempty"`
	Recognized  bool                 `json:"recognized,omitempty"`
}

// extract reads every page in order, reporting progress across the
// extraction band.
func (c *Converter) extract(ctx context.Context, src PageSource, r *run, p *progress) error {
	total := src.NumPages()
	if total <= 0 {
		return &InvalidInputError{Err: ErrNoPages}
	}

	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		pc, err := src.ReadPage(n)
		if err != nil {
			return fmt.Errorf("read page %d: %w", n, err)
		}

		page := c.extractPage(src, pc, r)
		r.imagesExtracted += len(page.Images)
		r.pages = append(r.pages, page)
		p.band(0, extractionEnd, n, total)
	}
	return nil
}

// extractPage turns page content into an ExtractedPage: decoded images with
// repaired anchors and, for pages without text, a rendered raster.
func (c *Converter) extractPage(src PageSource, pc *pdf.PageContent, r *run) ExtractedPage {
	page := ExtractedPage{
		Number:    pc.Number,
		Viewport:  pc.Viewport,
		Fragments: pc.Fragments,
		Text:      pc.Text(),
	}
	page.HasText = HasText(page.Text)

	for _, problem := range pc.Problems {
		r.warn(Warning{Page: pc.Number, Kind: WarningContentRead, Message: problem.Error()})
	}

	for _, painted := range pc.Images {
		if painted.Pixels == nil {
			cause := painted.Err
			if cause == nil {
				cause = errors.New("no pixel data")
			}
			r.warn(Warning{Page: pc.Number, Kind: WarningImageDecode, Message: cause.Error()})
			continue
		}
		page.Images = append(page.Images, layout.NewRasterImage(painted.Name, painted.Pixels, painted.Anchor()))
	}

	_, pageHeight := pc.Viewport.Size()
	for _, issue := range layout.RepairImageAnchors(page.Images, page.Fragments, pageHeight, r.imagesExtracted) {
		r.warn(Warning{Page: pc.Number, Kind: WarningAnchorUnrepaired, Message: issue.String()})
	}

	if !page.HasText {
		raster, err := src.RenderPage(pc, c.renderScale)
		if err != nil {
			r.warn(Warning{Page: pc.Number, Kind: WarningContentRead, Message: fmt.Sprintf("render page: %v", err)})
		} else {
			img := layout.NewRasterImage(fmt.Sprintf("page-%d", pc.Number), raster, pageHeight)
			page.Raster = &img
			page.RasterScale = c.renderScale
		}
	}
	return page
}
