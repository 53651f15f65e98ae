package convert

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/pdf2docx/internal/layout"
	"github.com/a3tai/pdf2docx/internal/logging"
	"github.com/a3tai/pdf2docx/internal/ocr"
)

const (
	// ocrLinePitch separates stacked lines recognized without boxes.
	ocrLinePitch = 14.0
	// ocrCharWidth estimates glyph width, in ems, for lines without boxes.
	ocrCharWidth = 0.5
)

// EngineOpener acquires an OCR engine for one conversion.
type EngineOpener func(ctx context.Context) (ocr.Engine, error)

// TesseractOpener opens a tesseract engine, retrying each recognition up to
// retries additional times.
func TesseractOpener(cfg ocr.TesseractConfig, retries int) EngineOpener {
	return func(context.Context) (ocr.Engine, error) {
		engine, err := ocr.OpenTesseract(cfg)
		if err != nil {
			return nil, err
		}
		return ocr.WithRetry(engine, retries+1, ocrRetryDelay), nil
	}
}

// recognize runs OCR over every page without text. The engine is
// terminated on every return path.
func (c *Converter) recognize(ctx context.Context, r *run, p *progress) (err error) {
	if c.openOCR == nil {
		return &OcrFailure{Err: ErrNoEngine}
	}
	engine, err := c.openOCR(ctx)
	if err != nil {
		return &OcrFailure{Err: err}
	}
	defer func() {
		if terr := engine.Terminate(); terr != nil {
			logging.With(c.logger.Warn()).Add(logging.Err(terr)).Msg("terminate ocr engine")
		}
	}()

	total := r.scannedCount()
	done := 0
	for i := range r.pages {
		page := &r.pages[i]
		if page.HasText {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if page.Raster == nil || page.Raster.Pixels == nil {
			return &OcrFailure{Page: page.Number, Err: ErrNoRaster}
		}

		res, err := engine.Recognize(ctx, page.Raster.Pixels)
		if err != nil {
			return &OcrFailure{Page: page.Number, Err: err}
		}
		page.Fragments = ocrFragments(res, *page)
		page.Text = res.Text
		page.HasText = true
		page.Recognized = true

		done++
		p.band(extractionEnd, ocrEnd, done, total)
		logging.With(c.logger.Debug()).
			Add(logging.Page(page.Number)).
			Add(logging.Int("lines", len(page.Fragments))).
			Msg("page recognized")
	}
	return nil
}

// ocrFragments places recognized lines on the page. Boxes are mapped from
// raster pixels back to page units; lines without boxes are stacked from
// the top of the page.
func ocrFragments(res ocr.Result, page ExtractedPage) []layout.Fragment {
	pageWidth, pageHeight := page.Viewport.Size()
	scale := page.RasterScale
	if scale <= 0 {
		scale = DefaultRenderScale
	}

	lines := res.Lines
	if len(lines) == 0 {
		for _, text := range strings.Split(res.Text, "\n") {
			lines = append(lines, ocr.Line{Text: text})
		}
	}

	frags := make([]layout.Fragment, 0, len(lines))
	stacked := 0
	for _, line := range lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}

		var x, y, w, h float64
		if line.Box.Empty() {
			stacked++
			h = layout.DefaultGlyphHeight
			y = pageHeight - float64(stacked)*ocrLinePitch
			w = min(float64(utf8.RuneCountInString(text))*h*ocrCharWidth, pageWidth)
		} else {
			x = float64(line.Box.Min.X) / scale
			y = pageHeight - float64(line.Box.Max.Y)/scale
			w = float64(line.Box.Dx()) / scale
			h = float64(line.Box.Dy()) / scale
		}

		frags = append(frags, layout.Fragment{
			Text:      text,
			Transform: layout.Matrix{h, 0, 0, h, x, y},
			Width:     w,
			Height:    h,
			EndOfLine: true,
			Direction: layout.LeftToRight,
		})
	}
	return frags
}
