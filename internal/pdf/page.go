package pdf

import (
	"fmt"
	"math"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/a3tai/pdf2docx/internal/layout"
)

const (
	// baselineTolerance is the largest vertical offset between glyphs of one fragment.
	baselineTolerance = 0.5
	// spaceGapRatio is the gap, in ems, above which a space is inserted.
	spaceGapRatio = 0.2
	// breakGapRatio is the gap, in ems, above which a new fragment starts.
	breakGapRatio = 1.0
	// backtrackRatio is how far, in ems, a glyph may step back and stay in the fragment.
	backtrackRatio = 0.25
	// maxParentDepth bounds the walk up the page tree for inherited attributes.
	maxParentDepth = 32
)

// ReadPage reads text fragments and painted images of page n (1-based).
// Failures inside the page are collected in PageContent.Problems; an error
// is returned only when the page itself cannot be located.
func (d *Document) ReadPage(n int) (*PageContent, error) {
	if n < 1 || n > d.pages {
		return nil, &ReadError{
			Type: ErrorTypeMalformedPage,
			Op:   "read",
			Page: n,
			Err:  fmt.Errorf("page out of range 1..%d", d.pages),
		}
	}

	page, err := d.page(n)
	if err != nil {
		return nil, err
	}

	pc := &PageContent{Number: n, Viewport: pageViewport(page.V)}
	toPage := pc.Viewport.Transform()

	glyphs, err := pageGlyphs(page)
	if err != nil {
		pc.Problems = append(pc.Problems, &ReadError{
			Type: ErrorTypeMalformedPage, Op: "read text", Page: n, Recoverable: true, Err: err,
		})
	}
	pc.Fragments = coalesce(glyphs, toPage)

	ops, err := scanImages(page.V)
	if err != nil {
		pc.Problems = append(pc.Problems, &ReadError{
			Type: ErrorTypeMalformedPage, Op: "scan images", Page: n, Recoverable: true, Err: err,
		})
	}
	if len(ops) > 0 {
		pc.Images = d.paintImages(n, ops, toPage)
	}
	return pc, nil
}

func (d *Document) page(n int) (page lpdf.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ReadError{Type: ErrorTypeMalformedPage, Op: "read", Page: n, Err: panicError(r)}
		}
	}()

	page = d.reader.Page(n)
	if page.V.IsNull() {
		return page, &ReadError{Type: ErrorTypeMalformedPage, Op: "read", Page: n, Err: fmt.Errorf("page object is null")}
	}
	return page, nil
}

func pageGlyphs(page lpdf.Page) (glyphs []lpdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			glyphs = nil
			err = panicError(r)
		}
	}()

	if page.V.Key("Contents").IsNull() {
		return nil, nil
	}
	return page.Content().Text, nil
}

// inherited looks key up on the page and then on its ancestors.
func inherited(v lpdf.Value, key string) lpdf.Value {
	for i := 0; i < maxParentDepth && !v.IsNull(); i++ {
		if x := v.Key(key); !x.IsNull() {
			return x
		}
		v = v.Key("Parent")
	}
	return lpdf.Value{}
}

func pageViewport(page lpdf.Value) layout.Viewport {
	vp := defaultViewport

	box := inherited(page, "MediaBox")
	if box.Kind() == lpdf.Array && box.Len() == 4 {
		llx, lly := box.Index(0).Float64(), box.Index(1).Float64()
		urx, ury := box.Index(2).Float64(), box.Index(3).Float64()
		if urx < llx {
			llx, urx = urx, llx
		}
		if ury < lly {
			lly, ury = ury, lly
		}
		if urx-llx > 0 && ury-lly > 0 {
			vp = layout.Viewport{OriginX: llx, OriginY: lly, Width: urx - llx, Height: ury - lly}
		}
	}

	if rot := inherited(page, "Rotate"); rot.Kind() == lpdf.Integer {
		vp.Rotate = int(rot.Int64())
	}
	return vp
}

// glyphRun accumulates consecutive glyphs into one fragment.
type glyphRun struct {
	text strings.Builder
	font string
	size float64
	x, y float64
	end  float64
}

func newGlyphRun(g lpdf.Text) *glyphRun {
	r := &glyphRun{font: g.Font, size: g.FontSize, x: g.X, y: g.Y, end: g.X + g.W}
	r.text.WriteString(g.S)
	return r
}

func (r *glyphRun) em() float64 {
	return math.Max(math.Abs(r.size), 1)
}

// accepts reports whether g continues the run on the same baseline and style.
func (r *glyphRun) accepts(g lpdf.Text) bool {
	if g.Font != r.font || math.Abs(g.FontSize-r.size) > 0.01 {
		return false
	}
	if math.Abs(g.Y-r.y) >= baselineTolerance {
		return false
	}
	gap := g.X - r.end
	return gap >= -backtrackRatio*r.em() && gap <= breakGapRatio*r.em()
}

func (r *glyphRun) add(g lpdf.Text) {
	gap := g.X - r.end
	current := r.text.String()
	if gap > spaceGapRatio*r.em() && !strings.HasSuffix(current, " ") && g.S != " " {
		r.text.WriteByte(' ')
	}
	r.text.WriteString(g.S)
	r.end = math.Max(r.end, g.X+g.W)
}

func (r *glyphRun) fragment(toPage layout.Matrix) layout.Fragment {
	local := layout.Matrix{r.size, 0, 0, r.size, r.x, r.y}
	return layout.Fragment{
		Text:      strings.TrimSpace(r.text.String()),
		Transform: local.Multiply(toPage),
		Width:     r.end - r.x,
		Height:    math.Abs(r.size),
		FontName:  r.font,
		Direction: layout.LeftToRight,
	}
}

// coalesce merges per-glyph text into fragments and marks the last fragment
// of each baseline as ending its line.
func coalesce(glyphs []lpdf.Text, toPage layout.Matrix) []layout.Fragment {
	var frags []layout.Fragment
	var cur *glyphRun

	flush := func() {
		if cur != nil && strings.TrimSpace(cur.text.String()) != "" {
			frags = append(frags, cur.fragment(toPage))
		}
		cur = nil
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		if cur != nil && cur.accepts(g) {
			cur.add(g)
			continue
		}
		flush()
		cur = newGlyphRun(g)
	}
	flush()

	for i := range frags {
		last := i == len(frags)-1
		frags[i].EndOfLine = last || math.Abs(frags[i+1].Y()-frags[i].Y()) >= baselineTolerance
	}
	return frags
}
