// Package docx serializes structured document content into a WordprocessingML
// (.docx) package.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/a3tai/pdf2docx/internal/document"
	"github.com/a3tai/pdf2docx/internal/layout"
)

const (
	// EMUPerPixel converts 96 DPI pixels to English Metric Units.
	EMUPerPixel = 9525

	pageWidthTwips  = 12240
	pageHeightTwips = 15840
	marginTwips     = 1440
	textWidthTwips  = pageWidthTwips - 2*marginTwips
	fullWidthPct    = 5000
)

// Builder writes document content as a .docx package.
type Builder struct {
	Title   string
	Creator string
	now     func() time.Time
}

// NewBuilder creates a builder. Title is stored in the package core properties.
func NewBuilder(title string) *Builder {
	return &Builder{Title: title, Creator: "pdf2docx", now: time.Now}
}

type media struct {
	relID string
	path  string
	data  []byte
}

// assembly carries per-build state: embedded media and drawing ids.
type assembly struct {
	media     []media
	drawingID int
}

// Build serializes content into .docx bytes.
func (b *Builder) Build(content document.Content) ([]byte, error) {
	a := &assembly{}

	doc := xDocument{W: nsW, R: nsR, WP: nsWP, A: nsA, Pic: nsPic}
	for _, page := range content.Pages {
		for _, block := range page.Blocks {
			el, err := a.block(block)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", page.Number, err)
			}
			doc.Body.Blocks = append(doc.Body.Blocks, el)
		}
	}
	doc.Body.Sect = xSectPr{
		Size: xPageSize{W: pageWidthTwips, H: pageHeightTwips},
		Margin: xPageMargin{
			Top: marginTwips, Right: marginTwips, Bottom: marginTwips, Left: marginTwips,
			Header: 720, Footer: 720,
		},
	}

	documentXML, err := marshalPart(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	relsXML, err := marshalPart(a.relationships())
	if err != nil {
		return nil, fmt.Errorf("marshal relationships: %w", err)
	}
	coreXML, err := marshalPart(b.coreProperties())
	if err != nil {
		return nil, fmt.Errorf("marshal core properties: %w", err)
	}

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"docProps/core.xml", coreXML},
		{"word/document.xml", documentXML},
		{"word/_rels/document.xml.rels", relsXML},
		{"word/styles.xml", []byte(stylesXML)},
		{"word/numbering.xml", []byte(numberingXML)},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		if err := writePart(zw, p.name, p.data); err != nil {
			return nil, err
		}
	}
	for _, m := range a.media {
		if err := writePart(zw, "word/"+m.path, m.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close package: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func marshalPart(v any) ([]byte, error) {
	out, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func (a *assembly) block(b document.Block) (any, error) {
	switch v := b.(type) {
	case *document.Paragraph:
		return paragraph(v), nil
	case *document.Table:
		return table(v), nil
	case *document.Image:
		return a.image(v)
	default:
		return nil, fmt.Errorf("unsupported block type %T", b)
	}
}

func paragraph(p *document.Paragraph) xParagraph {
	props := &xParaProps{
		Spacing: &xSpacing{Before: p.SpacingBefore, After: p.SpacingAfter},
	}

	style := p.Style
	switch p.List {
	case document.ListBullet:
		props.Num = &xNumPr{Level: xVal{Val: "0"}, ID: xVal{Val: bulletNumID}}
	case document.ListNumbered:
		props.Num = &xNumPr{Level: xVal{Val: "0"}, ID: xVal{Val: numberedNumID}}
	}
	if style == "" && p.List != document.ListNone {
		style = "ListParagraph"
	}
	if style != "" {
		props.Style = &xVal{Val: style}
	}
	if p.Alignment != layout.AlignLeft {
		props.Jc = &xVal{Val: p.Alignment.String()}
	}

	xp := xParagraph{Props: props}
	for _, r := range p.Runs {
		xp.Runs = append(xp.Runs, run(r))
	}
	return xp
}

func run(r document.Run) xRun {
	props := &xRunProps{}
	if r.Font != "" {
		props.Fonts = &xFonts{ASCII: r.Font, HAnsi: r.Font, CS: r.Font}
	}
	if r.Bold {
		props.Bold = &xEmpty{}
	}
	if r.Italic {
		props.Italic = &xEmpty{}
	}
	if r.Size > 0 {
		size := strconv.Itoa(r.Size)
		props.Size = &xVal{Val: size}
		props.SizeCs = &xVal{Val: size}
	}
	return xRun{Props: props, Text: &xText{Space: "preserve", Value: r.Text}}
}

func table(t *document.Table) xTable {
	columns := max(t.Columns, 1)
	pct := t.WidthPercent
	if pct <= 0 {
		pct = 100
	}

	border := xBorder{Val: "single", Size: 4, Color: "auto"}
	xt := xTable{
		Props: xTableProps{
			Width: xWidth{W: pct * fullWidthPct / 100, Type: "pct"},
			Borders: xBorders{
				Top: border, Left: border, Bottom: border, Right: border,
				InsideH: border, InsideV: border,
			},
			Layout: xType{Type: "fixed"},
		},
	}
	for i := 0; i < columns; i++ {
		xt.Grid.Cols = append(xt.Grid.Cols, xGridCol{W: textWidthTwips / columns})
	}

	cellWidth := xWidth{W: fullWidthPct / columns, Type: "pct"}
	for _, cells := range t.Rows {
		var tr xTableRow
		for _, c := range cells {
			p := xParagraph{}
			for _, r := range c.Runs {
				p.Runs = append(p.Runs, run(r))
			}
			tr.Cells = append(tr.Cells, xCell{
				Props:      xCellProps{Width: cellWidth},
				Paragraphs: []xParagraph{p},
			})
		}
		xt.Rows = append(xt.Rows, tr)
	}
	return xt
}

func (a *assembly) image(img *document.Image) (xParagraph, error) {
	if len(img.PNG) == 0 {
		return xParagraph{}, fmt.Errorf("image %q has no data", img.Name)
	}

	a.drawingID++
	id := a.drawingID
	relID := "rId" + strconv.Itoa(id+2)
	name := fmt.Sprintf("image%d.png", id)
	a.media = append(a.media, media{relID: relID, path: "media/" + name, data: img.PNG})

	cx := int64(img.Width) * EMUPerPixel
	cy := int64(img.Height) * EMUPerPixel
	inline := fmt.Sprintf(inlineImageXML, cx, cy, id, name, id, name, relID, cx, cy)

	props := &xParaProps{
		Spacing: &xSpacing{Before: img.SpacingBefore, After: img.SpacingAfter},
	}
	if img.Alignment != layout.AlignLeft {
		props.Jc = &xVal{Val: img.Alignment.String()}
	}
	return xParagraph{
		Props: props,
		Runs:  []xRun{{Drawing: &xDrawing{Inline: inline}}},
	}, nil
}

// relationships lists styles and numbering as rId1 and rId2, then one
// relationship per embedded image.
func (a *assembly) relationships() xRelationships {
	rels := xRelationships{
		Xmlns: nsRel,
		Items: []xRelationship{
			{ID: "rId1", Type: relStyles, Target: "styles.xml"},
			{ID: "rId2", Type: relNumbering, Target: "numbering.xml"},
		},
	}
	for _, m := range a.media {
		rels.Items = append(rels.Items, xRelationship{ID: m.relID, Type: relImage, Target: m.path})
	}
	return rels
}

func (b *Builder) coreProperties() xCoreProperties {
	now := time.Now
	if b.now != nil {
		now = b.now
	}
	return xCoreProperties{
		CP:      "http://schemas.openxmlformats.org/package/2006/metadata/core-properties",
		DC:      "http://purl.org/dc/elements/1.1/",
		DCTerms: "http://purl.org/dc/terms/",
		XSI:     "http://www.w3.org/2001/XMLSchema-instance",
		Title:   b.Title,
		Creator: b.Creator,
		Created: xDate{Type: "dcterms:W3CDTF", Value: now().UTC().Format(time.RFC3339)},
	}
}
