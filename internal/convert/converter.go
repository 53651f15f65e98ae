// Package convert drives a PDF through extraction, the scanned-page
// decision, optional OCR, synthesis and document assembly.
package convert

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/a3tai/pdf2docx/internal/document"
	"github.com/a3tai/pdf2docx/internal/docx"
	"github.com/a3tai/pdf2docx/internal/layout"
	"github.com/a3tai/pdf2docx/internal/logging"
	"github.com/a3tai/pdf2docx/internal/ocr"
	"github.com/a3tai/pdf2docx/internal/pdf"
)

const (
	// DefaultRenderScale is the raster scale for pages without text.
	DefaultRenderScale = pdf.DefaultRenderScale
	// PreviewLength is the number of characters kept in a page preview.
	PreviewLength = 200

	ocrRetryDelay = 200 * time.Millisecond
)

// DocumentBuilder serializes structured content into an office document.
type DocumentBuilder interface {
	Build(content document.Content) ([]byte, error)
}

// Config configures a Converter. Zero values select the defaults.
type Config struct {
	Open         SourceOpener
	OCR          EngineOpener
	Builder      DocumentBuilder
	RenderScale  float64
	RowTolerance float64
	Logger       *bolt.Logger
}

// Converter converts PDF bytes to a Word document. It keeps no state
// between calls and may be shared.
type Converter struct {
	open        SourceOpener
	openOCR     EngineOpener
	builder     DocumentBuilder
	renderScale float64
	tolerance   float64
	logger      *bolt.Logger
	synth       *document.Synthesizer
}

// NewConverter creates a converter from cfg.
func NewConverter(cfg Config) *Converter {
	c := &Converter{
		open:        cfg.Open,
		openOCR:     cfg.OCR,
		builder:     cfg.Builder,
		renderScale: cfg.RenderScale,
		tolerance:   cfg.RowTolerance,
		logger:      cfg.Logger,
		synth:       document.NewSynthesizer(),
	}
	if c.open == nil {
		c.open = OpenPDF(0)
	}
	if c.openOCR == nil {
		c.openOCR = TesseractOpener(ocr.DefaultTesseractConfig(), 0)
	}
	if c.builder == nil {
		c.builder = docx.NewBuilder("")
	}
	if c.renderScale <= 0 {
		c.renderScale = DefaultRenderScale
	}
	if c.tolerance <= 0 {
		c.tolerance = layout.DefaultRowTolerance
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	return c
}

// PageSummary describes one converted page.
type PageSummary struct {
	Number  int    `json:"number"`
	Method  Method `json:"method"`
	Blocks  int    `json:"blocks"`
	Preview string `json:"preview"`
}

// Result is a finished conversion.
type Result struct {
	Bytes     []byte        `json:"-"`
	PageCount int           `json:"page_count"`
	Method    Method        `json:"method"`
	Warnings  []Warning     `json:"warnings,omitempty"`
	Pages     []PageSummary `json:"pages"`
}

// Outcome is the result of Convert: either a finished Result or a Pending
// conversion awaiting the scanned-pages decision.
type Outcome struct {
	Result  *Result
	Pending *Pending
}

// Convert extracts every page of data. When all pages carry text the
// conversion runs to completion; otherwise it suspends and returns the
// pending state with the number of pages lacking text.
func (c *Converter) Convert(ctx context.Context, data []byte, onProgress ProgressFunc) (*Outcome, error) {
	r := &run{logger: c.logger}
	m, err := startMachine(r)
	if err != nil {
		return nil, &ConversionError{State: StateExtracting, Err: err}
	}
	p := newProgress(onProgress)
	p.report(0)

	src, err := c.open(data)
	if err != nil {
		return nil, m.fail(&InvalidInputError{Err: err})
	}
	if err := c.extract(ctx, src, r, p); err != nil {
		return nil, m.fail(err)
	}

	if scanned := r.scannedCount(); scanned > 0 {
		if err := m.send(evScannedFound, StateScannedFound); err != nil {
			return nil, m.fail(err)
		}
		if err := m.send(evAwaitChoice, StateAwaitingChoice); err != nil {
			return nil, m.fail(err)
		}
		logging.With(c.logger.Info()).
			Add(logging.Pages(len(r.pages))).
			Add(logging.Int("scanned", scanned)).
			Msg("scanned pages found, awaiting choice")
		return &Outcome{Pending: r.pending(m.state())}, nil
	}

	if err := m.send(evTextPresent, StateAllTextPresent); err != nil {
		return nil, m.fail(err)
	}
	if err := m.send(evSynthesize, StateSynthesizing); err != nil {
		return nil, m.fail(err)
	}
	r.method = MethodText

	res, err := c.finish(m, p)
	if err != nil {
		return nil, err
	}
	return &Outcome{Result: res}, nil
}

// Resume continues a suspended conversion with the given choice. The
// pending state is not modified and may be resumed again.
func (c *Converter) Resume(ctx context.Context, pending *Pending, choice Method, onProgress ProgressFunc) (*Result, error) {
	if pending == nil || pending.State != StateAwaitingChoice {
		return nil, ErrNotAwaitingChoice
	}
	if choice != MethodImage && choice != MethodOCR {
		return nil, fmt.Errorf("%w %q: want image or ocr", ErrUnknownChoice, choice)
	}

	r := pending.restore(c.logger)
	m, err := restoreMachine(r, StateAwaitingChoice)
	if err != nil {
		return nil, &ConversionError{State: StateAwaitingChoice, Err: err}
	}
	p := newProgress(onProgress)
	p.report(extractionEnd)
	r.method = choice

	switch choice {
	case MethodImage:
		if err := m.send(evChooseImage, StateSynthesizing); err != nil {
			return nil, m.fail(err)
		}
	case MethodOCR:
		if err := m.send(evChooseOCR, StateRunningOCR); err != nil {
			return nil, m.fail(err)
		}
		if err := c.recognize(ctx, r, p); err != nil {
			return nil, m.fail(err)
		}
		if err := m.send(evSynthesize, StateSynthesizing); err != nil {
			return nil, m.fail(err)
		}
	}
	return c.finish(m, p)
}

// finish synthesizes and assembles. The machine must be in synthesizing.
func (c *Converter) finish(m *machine, p *progress) (*Result, error) {
	r := m.run
	content, summaries := c.synthesize(r, p)

	if err := m.send(evAssemble, StateAssembling); err != nil {
		return nil, m.fail(err)
	}
	data, err := c.builder.Build(content)
	if err != nil {
		return nil, m.fail(&AssemblyError{Err: err})
	}
	if err := m.send(evComplete, StateDone); err != nil {
		return nil, m.fail(err)
	}
	p.report(complete)

	paragraphs, tables, images := content.Counts()
	logging.With(c.logger.Info()).
		Add(logging.Pages(len(r.pages))).
		Add(logging.Method(string(r.method))).
		Add(logging.Int("paragraphs", paragraphs)).
		Add(logging.Int("tables", tables)).
		Add(logging.Int("images", images)).
		Add(logging.Int("warnings", len(r.warnings))).
		Add(logging.Bytes(len(data))).
		Msg("conversion complete")

	return &Result{
		Bytes:     data,
		PageCount: len(r.pages),
		Method:    r.method,
		Warnings:  r.warnings,
		Pages:     summaries,
	}, nil
}

// synthesize builds document content page by page across the synthesis band.
func (c *Converter) synthesize(r *run, p *progress) (document.Content, []PageSummary) {
	content := document.Content{Pages: make([]document.Page, 0, len(r.pages))}
	summaries := make([]PageSummary, 0, len(r.pages))

	for i, page := range r.pages {
		blocks, method := c.synthesizePage(r, page, i == 0)
		content.Pages = append(content.Pages, document.Page{Number: page.Number, Blocks: blocks})
		summaries = append(summaries, PageSummary{
			Number:  page.Number,
			Method:  method,
			Blocks:  len(blocks),
			Preview: preview(page.Text),
		})
		p.band(ocrEnd, complete, i+1, len(r.pages))
	}
	return content, summaries
}

func (c *Converter) synthesizePage(r *run, page ExtractedPage, first bool) ([]document.Block, Method) {
	if !page.HasText {
		var raster layout.RasterImage
		if page.Raster != nil {
			raster = *page.Raster
		}
		block, err := c.synth.ScannedPage(page.Number, first, raster)
		if err != nil {
			r.warn(Warning{Page: page.Number, Kind: WarningImageEmbed, Message: err.Error()})
		}
		return []document.Block{block}, MethodImage
	}

	pageWidth, _ := page.Viewport.Size()
	rows := layout.GroupByRow(page.Fragments, c.tolerance)
	items := layout.Order(rows, layout.DetectTables(rows), page.Images)
	blocks, errs := c.synth.Items(items, pageWidth)
	for _, err := range errs {
		r.warn(Warning{Page: page.Number, Kind: WarningImageEmbed, Message: err.Error()})
	}

	method := MethodText
	if page.Recognized {
		method = MethodOCR
	}
	return blocks, method
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewLength {
		return text
	}
	return string([]rune(text)[:PreviewLength])
}
