package document

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"math"
	"regexp"
	"strings"

	"github.com/a3tai/pdf2docx/internal/layout"
)

const (
	// DefaultFont is used when a fragment carries no font name.
	DefaultFont = "Calibri"
	// DefaultRunSize is the run size, in half-points, for fragments without height.
	DefaultRunSize = 22
	// MaxImageWidth bounds embedded image width in pixels.
	MaxImageWidth = 600

	headingSpacingBefore = 240
	bodySpacingBefore    = 120
	paragraphSpacing     = 120
	imageSpacing         = 200
	scannedSpacingBefore = 400
	scannedSpacingAfter  = 200
)

var (
	subsetPrefix = regexp.MustCompile(`^[A-Z]{6}\+`)
	styleSuffix  = regexp.MustCompile(`(?i)[-,](BoldItalic|BoldOblique|Bold|Italic|Oblique)(MT)?$`)
)

// EmbedError reports an image that could not be embedded.
type EmbedError struct {
	Name string
	Err  error
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("embed image %q: %v", e.Name, e.Err)
}

func (e *EmbedError) Unwrap() error {
	return e.Err
}

// Synthesizer turns ordered layout items into document blocks.
type Synthesizer struct {
	maxImageWidth int
}

// NewSynthesizer creates a synthesizer with the default image width bound.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{maxImageWidth: MaxImageWidth}
}

// Items synthesizes one page's ordered items. Images that fail to embed are
// skipped and their errors returned alongside the blocks.
func (s *Synthesizer) Items(items []layout.ContentItem, pageWidth float64) ([]Block, []error) {
	var blocks []Block
	var errs []error

	for _, item := range items {
		switch item.Kind {
		case layout.ItemText:
			for _, r := range item.Rows {
				if p, ok := s.Paragraph(r, pageWidth); ok {
					blocks = append(blocks, p)
				}
			}
		case layout.ItemTable:
			blocks = append(blocks, s.Table(item.Rows))
		case layout.ItemImage:
			if item.Image == nil {
				continue
			}
			img, err := s.Image(*item.Image)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			blocks = append(blocks, img)
		}
	}
	return blocks, errs
}

// Paragraph builds a paragraph from a text row. It reports false when the
// row is a running page number and should not be emitted.
func (s *Synthesizer) Paragraph(r layout.Row, pageWidth float64) (*Paragraph, bool) {
	if layout.IsPageNumber(r) {
		return nil, false
	}

	class := layout.Classify(r)
	p := &Paragraph{
		Alignment:     layout.InferAlignment(r, pageWidth),
		SpacingBefore: bodySpacingBefore,
		SpacingAfter:  paragraphSpacing,
	}

	switch class {
	case layout.Heading:
		p.Style = StyleHeading
		p.SpacingBefore = headingSpacingBefore
	case layout.BulletItem:
		p.List = ListBullet
	case layout.NumberedItem:
		p.List = ListNumbered
	}

	p.Runs = rowRuns(r, class == layout.Heading)
	if p.List != ListNone {
		p.Runs = stripMarker(p.Runs)
	}
	return p, true
}

// Table builds an equal-width table from rows. Rows shorter than the widest
// one are padded with empty cells.
func (s *Synthesizer) Table(rows []layout.Row) *Table {
	columns := 0
	for _, r := range rows {
		columns = max(columns, r.Len())
	}

	t := &Table{Columns: columns, WidthPercent: 100}
	for _, r := range rows {
		cells := make([]Cell, columns)
		for i, f := range r.Fragments {
			if f.Text == "" {
				continue
			}
			cells[i] = Cell{Runs: []Run{fragmentRun(f, f.Text, false)}}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// Image encodes a raster as PNG, scaled down to the width bound and centered.
func (s *Synthesizer) Image(img layout.RasterImage) (*Image, error) {
	data, err := encodePNG(img)
	if err != nil {
		return nil, &EmbedError{Name: img.Name, Err: err}
	}

	w, h := s.fit(img.Width, img.Height)
	return &Image{
		Name:          img.Name,
		PNG:           data,
		Width:         w,
		Height:        h,
		Alignment:     layout.AlignCenter,
		SpacingBefore: imageSpacing,
		SpacingAfter:  imageSpacing,
	}, nil
}

// ScannedPage embeds a rendered page raster. When the raster cannot be
// embedded, an italic placeholder paragraph is returned together with the error.
func (s *Synthesizer) ScannedPage(number int, first bool, raster layout.RasterImage) (Block, error) {
	before := scannedSpacingBefore
	if first {
		before = 0
	}

	data, err := encodePNG(raster)
	if err != nil {
		placeholder := &Paragraph{
			Runs: []Run{{
				Text:   fmt.Sprintf("[Image from page %d could not be embedded]", number),
				Font:   DefaultFont,
				Size:   DefaultRunSize,
				Italic: true,
			}},
			Alignment:     layout.AlignCenter,
			SpacingBefore: before,
			SpacingAfter:  scannedSpacingAfter,
		}
		return placeholder, &EmbedError{Name: fmt.Sprintf("page-%d", number), Err: err}
	}

	w, h := s.fit(raster.Width, raster.Height)
	return &Image{
		Name:          fmt.Sprintf("page-%d", number),
		PNG:           data,
		Width:         w,
		Height:        h,
		Alignment:     layout.AlignCenter,
		SpacingBefore: before,
		SpacingAfter:  scannedSpacingAfter,
	}, nil
}

// fit scales width and height down, never up, so width stays within bounds.
func (s *Synthesizer) fit(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}
	scale := math.Min(float64(s.maxImageWidth)/float64(width), 1)
	return int(math.Round(float64(width) * scale)), int(math.Round(float64(height) * scale))
}

func encodePNG(img layout.RasterImage) ([]byte, error) {
	if img.Pixels == nil {
		return nil, errors.New("no pixel data")
	}
	if img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", img.Width, img.Height)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.Pixels); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rowRuns emits one run per non-empty fragment. Runs are separated by a
// space unless the fragment ends a line.
func rowRuns(r layout.Row, forceBold bool) []Run {
	last := len(r.Fragments) - 1
	runs := make([]Run, 0, len(r.Fragments))
	for i, f := range r.Fragments {
		if f.Text == "" {
			continue
		}
		text := f.Text
		if !f.EndOfLine && i < last {
			text += " "
		}
		runs = append(runs, fragmentRun(f, text, forceBold))
	}
	return runs
}

func fragmentRun(f layout.Fragment, text string, forceBold bool) Run {
	name := strings.ToLower(f.FontName)
	size := int(math.Round(f.Height * 2))
	if size <= 0 {
		size = DefaultRunSize
	}
	return Run{
		Text:   text,
		Font:   FontFamily(f.FontName),
		Size:   size,
		Bold:   forceBold || strings.Contains(name, "bold"),
		Italic: strings.Contains(name, "italic") || strings.Contains(name, "oblique"),
	}
}

// FontFamily strips subset prefixes and style suffixes from a PDF font name.
func FontFamily(name string) string {
	name = subsetPrefix.ReplaceAllString(name, "")
	name = styleSuffix.ReplaceAllString(name, "")
	if name == "" {
		return DefaultFont
	}
	return name
}

// stripMarker removes the list marker from the leading run, dropping runs
// that held only the marker.
func stripMarker(runs []Run) []Run {
	if len(runs) == 0 {
		return runs
	}
	stripped := layout.StripListMarker(runs[0].Text)
	if strings.TrimSpace(stripped) == "" {
		return runs[1:]
	}
	runs[0].Text = stripped
	return runs
}
