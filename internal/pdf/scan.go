package pdf

import (
	lpdf "github.com/ledongthuc/pdf"

	"github.com/a3tai/pdf2docx/internal/layout"
)

// maxFormDepth bounds recursion into nested form XObjects.
const maxFormDepth = 8

// imageOp records one "Do" of an image XObject together with the current
// transformation matrix in unrotated user space.
type imageOp struct {
	name string
	ctm  layout.Matrix
}

// graphicsState threads the transform stack through one content stream.
type graphicsState struct {
	ctm   layout.Matrix
	saved []layout.Matrix
}

func (g *graphicsState) save() {
	g.saved = append(g.saved, g.ctm)
}

// restore pops the last saved matrix. An unbalanced Q leaves the CTM as is.
func (g *graphicsState) restore() {
	if len(g.saved) == 0 {
		return
	}
	g.ctm = g.saved[len(g.saved)-1]
	g.saved = g.saved[:len(g.saved)-1]
}

// concat applies a "cm" operand: CTM' = m x CTM.
func (g *graphicsState) concat(m layout.Matrix) {
	g.ctm = m.Multiply(g.ctm)
}

// scanImages walks the page's content streams in operator order and returns
// every image paint with the CTM in effect when it executed.
func scanImages(page lpdf.Value) (ops []imageOp, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	resources := inherited(page, "Resources")
	contents := page.Key("Contents")
	if contents.IsNull() {
		return nil, nil
	}

	var streams []lpdf.Value
	if contents.Kind() == lpdf.Array {
		for i := 0; i < contents.Len(); i++ {
			streams = append(streams, contents.Index(i))
		}
	} else {
		streams = append(streams, contents)
	}

	// A page's content array is one logical stream, so graphics state
	// carries across its parts.
	gs := &graphicsState{ctm: layout.Identity}
	for _, strm := range streams {
		walk(strm, resources, gs, 0, &ops)
	}
	return ops, nil
}

// walk interprets one content stream. Form XObjects are entered with their
// own graphics state seeded from the form matrix and the current CTM.
func walk(strm, resources lpdf.Value, gs *graphicsState, depth int, ops *[]imageOp) {
	lpdf.Interpret(strm, func(stk *lpdf.Stack, op string) {
		args := make([]lpdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "q":
			gs.save()
		case "Q":
			gs.restore()
		case "cm":
			if len(args) != 6 {
				return
			}
			var m layout.Matrix
			for i := range m {
				m[i] = args[i].Float64()
			}
			gs.concat(m)
		case "Do":
			if len(args) != 1 {
				return
			}
			name := args[0].Name()
			xobj := resources.Key("XObject").Key(name)
			switch xobj.Key("Subtype").Name() {
			case "Image":
				*ops = append(*ops, imageOp{name: name, ctm: gs.ctm})
			case "Form":
				if depth >= maxFormDepth {
					return
				}
				formResources := xobj.Key("Resources")
				if formResources.IsNull() {
					formResources = resources
				}
				inner := &graphicsState{ctm: formMatrix(xobj).Multiply(gs.ctm)}
				walk(xobj, formResources, inner, depth+1, ops)
			}
		}
	})
}

func formMatrix(xobj lpdf.Value) layout.Matrix {
	mv := xobj.Key("Matrix")
	if mv.Kind() != lpdf.Array || mv.Len() != 6 {
		return layout.Identity
	}
	var m layout.Matrix
	for i := range m {
		m[i] = mv.Index(i).Float64()
	}
	return m
}
