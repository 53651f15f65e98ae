package pdf

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/f64"
)

const (
	// DefaultRenderScale is the raster scale applied to page units.
	DefaultRenderScale = 1.5
	// maxRasterSide bounds either raster dimension in pixels.
	maxRasterSide    = 10000
	fallbackFontSize = 10.0
)

var (
	fallbackFont     *truetype.Font
	fallbackFontErr  error
	fallbackFontOnce sync.Once
)

func loadFallbackFont() (*truetype.Font, error) {
	fallbackFontOnce.Do(func() {
		fallbackFont, fallbackFontErr = truetype.Parse(goregular.TTF)
	})
	return fallbackFont, fallbackFontErr
}

// RenderPage rasterizes page content read from this document.
func (d *Document) RenderPage(pc *PageContent, scale float64) (*image.RGBA, error) {
	return Rasterize(pc, scale)
}

// Rasterize renders page content at scale: a white canvas, every decoded
// painted image composited through its CTM, then the remaining text drawn
// with a fallback face. The canvas covers the displayed (rotated) page.
func Rasterize(pc *PageContent, scale float64) (*image.RGBA, error) {
	if scale <= 0 {
		scale = DefaultRenderScale
	}
	pageW, pageH := pc.Viewport.Size()
	w := int(math.Ceil(pageW * scale))
	h := int(math.Ceil(pageH * scale))
	if w <= 0 || h <= 0 || w > maxRasterSide || h > maxRasterSide {
		return nil, &ReadError{
			Type: ErrorTypeMalformedPage, Op: "render", Page: pc.Number,
			Err: fmt.Errorf("raster size %dx%d out of bounds", w, h),
		}
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	for _, img := range pc.Images {
		if img.Pixels == nil {
			continue
		}
		paintImage(canvas, img, pageH, scale)
	}

	if err := drawText(canvas, pc, pageH, scale); err != nil {
		return nil, &ReadError{Type: ErrorTypeMalformedPage, Op: "render text", Page: pc.Number, Err: err}
	}
	return canvas, nil
}

// paintImage maps source pixels through the unit square, the CTM and the
// page-to-canvas flip. Source row 0 is the top of the image.
func paintImage(canvas *image.RGBA, img PaintedImage, pageH, scale float64) {
	b := img.Pixels.Bounds()
	sw, sh := float64(b.Dx()), float64(b.Dy())
	if sw == 0 || sh == 0 {
		return
	}
	a, bb, c, d, e, f := img.CTM[0], img.CTM[1], img.CTM[2], img.CTM[3], img.CTM[4], img.CTM[5]
	if a*d-bb*c == 0 {
		return
	}

	m := f64.Aff3{
		scale * a / sw, -scale * c / sh, scale * (c + e),
		-scale * bb / sw, scale * d / sh, scale * (pageH - d - f),
	}
	draw.CatmullRom.Transform(canvas, m, img.Pixels, b, draw.Over, nil)
}

func drawText(canvas *image.RGBA, pc *PageContent, pageH, scale float64) error {
	if len(pc.Fragments) == 0 {
		return nil
	}
	face, err := loadFallbackFont()
	if err != nil {
		return err
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(face)
	ctx.SetClip(canvas.Bounds())
	ctx.SetDst(canvas)
	ctx.SetSrc(image.NewUniform(color.Black))
	ctx.SetHinting(font.HintingNone)

	for _, f := range pc.Fragments {
		size := f.Height
		if size <= 0 {
			size = fallbackFontSize
		}
		ctx.SetFontSize(size * scale)
		pt := freetype.Pt(int(f.X()*scale), int((pageH-f.Y())*scale))
		if _, err := ctx.DrawString(f.Text, pt); err != nil {
			return err
		}
	}
	return nil
}
