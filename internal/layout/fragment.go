// Package layout turns positioned text fragments and painted images into an
// ordered stream of rows, tables and images for one page.
package layout

import (
	"image"
	"math"
)

// Matrix is an affine transform in PDF order: [a b c d e f].
type Matrix [6]float64

// Identity is the identity transform.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Multiply returns the transform that applies m first and then n.
// A PDF "cm" operator therefore updates the current matrix as
// operand.Multiply(current).
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// Apply maps the point (x, y) through m.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Direction is the writing direction of a fragment
type Direction string

const (
	LeftToRight Direction = "ltr"
	RightToLeft Direction = "rtl"
	TopToBottom Direction = "ttb"
)

// Fragment is one run of text as laid out on a page. Transform's (e, f)
// component is the anchor point in page space: origin bottom-left, Y up.
type Fragment struct {
	Text      string    `json:"text"`
	Transform Matrix    `json:"transform"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	FontName  string    `json:"font_name"`
	EndOfLine bool      `json:"end_of_line"`
	Direction Direction `json:"direction,omitempty"`
}

// X returns the horizontal anchor.
func (f Fragment) X() float64 { return f.Transform[4] }

// Y returns the vertical anchor.
func (f Fragment) Y() float64 { return f.Transform[5] }

// RasterImage is a decoded bitmap placed on a page. Y is the vertical
// anchor in page space.
type RasterImage struct {
	Name   string      `json:"name,omitempty"`
	Pixels *image.RGBA `json:"pixels"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Y      float64     `json:"y"`
}

// NewRasterImage wraps pixels, taking its dimensions from the bitmap bounds.
func NewRasterImage(name string, pixels *image.RGBA, y float64) RasterImage {
	b := pixels.Bounds()
	return RasterImage{Name: name, Pixels: pixels, Width: b.Dx(), Height: b.Dy(), Y: y}
}

// Viewport describes a page's unrotated media box and its /Rotate value.
type Viewport struct {
	OriginX float64 `json:"origin_x"`
	OriginY float64 `json:"origin_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Rotate  int     `json:"rotate"`
}

// NormalizedRotation folds Rotate into one of 0, 90, 180 or 270.
func (v Viewport) NormalizedRotation() int {
	r := v.Rotate % 360
	if r < 0 {
		r += 360
	}
	switch {
	case r < 45:
		return 0
	case r < 135:
		return 90
	case r < 225:
		return 180
	case r < 315:
		return 270
	}
	return 0
}

// Size returns the displayed page size after rotation.
func (v Viewport) Size() (width, height float64) {
	switch v.NormalizedRotation() {
	case 90, 270:
		return v.Height, v.Width
	}
	return v.Width, v.Height
}

// Transform maps unrotated user space into displayed page space, keeping
// the origin at the bottom-left corner and Y increasing upward.
func (v Viewport) Transform() Matrix {
	shift := Matrix{1, 0, 0, 1, -v.OriginX, -v.OriginY}
	w, h := v.Width, v.Height
	var rot Matrix
	switch v.NormalizedRotation() {
	case 90:
		rot = Matrix{0, -1, 1, 0, 0, w}
	case 180:
		rot = Matrix{-1, 0, 0, -1, w, h}
	case 270:
		rot = Matrix{0, 1, -1, 0, h, 0}
	default:
		rot = Identity
	}
	return shift.Multiply(rot)
}

func nearlyEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}
