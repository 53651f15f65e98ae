package pdf

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/a3tai/pdf2docx/internal/layout"
)

type decodedImage struct {
	name   string
	pixels *image.RGBA
	err    error
}

// decodeImages extracts and decodes the image XObjects of page n through
// pdfcpu, ordered by object number.
func (d *Document) decodeImages(n int) (images []decodedImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	extracted, err := pdfcpu.ExtractPageImages(d.ctx, n, false)
	if err != nil {
		return nil, err
	}

	objNrs := make([]int, 0, len(extracted))
	for objNr := range extracted {
		objNrs = append(objNrs, objNr)
	}
	sort.Ints(objNrs)

	for _, objNr := range objNrs {
		img := extracted[objNr]
		decoded := decodedImage{name: img.Name}
		if src, _, err := image.Decode(img); err != nil {
			decoded.err = fmt.Errorf("decode %s image %q: %w", img.FileType, img.Name, err)
		} else {
			decoded.pixels = toRGBA(src)
		}
		images = append(images, decoded)
	}
	return images, nil
}

// paintImages pairs image-paint operations with decoded pixels. Operations
// are matched by resource name first and then, for names pdfcpu did not
// report, by order of appearance.
func (d *Document) paintImages(n int, ops []imageOp, toPage layout.Matrix) []PaintedImage {
	decoded, err := d.decodeImages(n)

	byName := make(map[string]int, len(decoded))
	for i, img := range decoded {
		if img.name != "" {
			byName[img.name] = i
		}
	}
	used := make([]bool, len(decoded))
	nextUnused := func() int {
		for i := range decoded {
			if !used[i] {
				return i
			}
		}
		return -1
	}

	painted := make([]PaintedImage, 0, len(ops))
	for _, op := range ops {
		pi := PaintedImage{Name: op.name, CTM: op.ctm.Multiply(toPage)}

		idx, ok := byName[op.name]
		if !ok {
			idx = nextUnused()
		}

		switch {
		case err != nil:
			pi.Err = &ReadError{Type: ErrorTypeInvalidImage, Op: "extract images", Page: n, Recoverable: true, Err: err}
		case idx < 0:
			pi.Err = &ReadError{
				Type: ErrorTypeResourceNotFound, Op: "extract images", Page: n, Recoverable: true,
				Err: fmt.Errorf("no image data for %q", op.name),
			}
		case decoded[idx].err != nil:
			used[idx] = true
			pi.Err = &ReadError{Type: ErrorTypeInvalidImage, Op: "decode image", Page: n, Recoverable: true, Err: decoded[idx].err}
		default:
			used[idx] = true
			pi.Pixels = decoded[idx].pixels
		}
		painted = append(painted, pi)
	}
	return painted
}

// toRGBA converts any decoded image into an RGBA bitmap anchored at (0, 0).
func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
