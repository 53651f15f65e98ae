// Package document holds the structured content emitted for each page and
// the synthesizer that builds it from ordered layout items.
package document

import (
	"strings"

	"github.com/a3tai/pdf2docx/internal/layout"
)

// ListKind marks a paragraph as a list item.
type ListKind int

const (
	ListNone ListKind = iota
	ListBullet
	ListNumbered
)

// String returns the list kind name
func (k ListKind) String() string {
	switch k {
	case ListBullet:
		return "bullet"
	case ListNumbered:
		return "numbered"
	default:
		return "none"
	}
}

// StyleHeading is the paragraph style applied to inferred headings.
const StyleHeading = "Heading2"

// Block is one element of a page's flowed content: *Paragraph, *Table or *Image.
type Block interface {
	block()
}

// Run is a span of uniformly styled text. Size is in half-points.
type Run struct {
	Text   string
	Font   string
	Size   int
	Bold   bool
	Italic bool
}

// Paragraph is a flowed text block. Spacing is in twentieths of a point.
type Paragraph struct {
	Runs          []Run
	Style         string
	Alignment     layout.Alignment
	List          ListKind
	SpacingBefore int
	SpacingAfter  int
}

// Text concatenates the paragraph's run texts.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Cell is one table cell.
type Cell struct {
	Runs []Run
}

// Table is a grid with equal-width columns. WidthPercent is relative to the
// available text width.
type Table struct {
	Columns      int
	Rows         [][]Cell
	WidthPercent int
}

// Image is an embedded PNG drawn at Width x Height pixels.
type Image struct {
	Name          string
	PNG           []byte
	Width         int
	Height        int
	Alignment     layout.Alignment
	SpacingBefore int
	SpacingAfter  int
}

func (*Paragraph) block() {}
func (*Table) block()     {}
func (*Image) block()     {}

// Page is the content synthesized for one source page.
type Page struct {
	Number int
	Blocks []Block
}

// Content is the whole document, pages in source order.
type Content struct {
	Pages []Page
}

// Counts tallies block kinds across the document.
func (c Content) Counts() (paragraphs, tables, images int) {
	for _, p := range c.Pages {
		for _, b := range p.Blocks {
			switch b.(type) {
			case *Paragraph:
				paragraphs++
			case *Table:
				tables++
			case *Image:
				images++
			}
		}
	}
	return paragraphs, tables, images
}
