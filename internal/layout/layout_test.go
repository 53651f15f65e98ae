package layout

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frag(text string, x, y float64) Fragment {
	return Fragment{
		Text:      text,
		Transform: Matrix{1, 0, 0, 1, x, y},
		Width:     float64(len(text)) * 5,
		Height:    10,
		FontName:  "Helvetica",
	}
}

func row(y float64, xs ...float64) Row {
	r := Row{Y: y}
	for _, x := range xs {
		r.Fragments = append(r.Fragments, frag("cell", x, y))
	}
	return r
}

func TestMatrixMultiply(t *testing.T) {
	scale := Matrix{2, 0, 0, 2, 0, 0}
	translate := Matrix{1, 0, 0, 1, 10, 20}

	// scale first, then translate
	x, y := scale.Multiply(translate).Apply(1, 1)
	assert.Equal(t, 12.0, x)
	assert.Equal(t, 22.0, y)

	// translate first, then scale
	x, y = translate.Multiply(scale).Apply(1, 1)
	assert.Equal(t, 22.0, x)
	assert.Equal(t, 42.0, y)

	assert.Equal(t, scale, scale.Multiply(Identity))
	assert.Equal(t, scale, Identity.Multiply(scale))
}

func TestViewportTransform(t *testing.T) {
	tests := []struct {
		name         string
		rotate       int
		x, y         float64
		wantX, wantY float64
		wantW, wantH float64
	}{
		{"no rotation", 0, 100, 700, 100, 700, 612, 792},
		{"rotate 90", 90, 0, 792, 792, 612, 792, 612},
		{"rotate 180", 180, 100, 700, 512, 92, 612, 792},
		{"rotate 270", 270, 100, 700, 92, 100, 792, 612},
		{"negative rotation", -90, 100, 700, 92, 100, 792, 612},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Viewport{Width: 612, Height: 792, Rotate: tt.rotate}
			x, y := v.Transform().Apply(tt.x, tt.y)
			assert.InDelta(t, tt.wantX, x, 1e-9)
			assert.InDelta(t, tt.wantY, y, 1e-9)

			w, h := v.Size()
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestViewportTransformOrigin(t *testing.T) {
	v := Viewport{OriginX: 10, OriginY: 20, Width: 600, Height: 800}
	x, y := v.Transform().Apply(10, 20)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
}

func TestGroupByRow(t *testing.T) {
	t.Run("within tolerance shares a row", func(t *testing.T) {
		rows := GroupByRow([]Fragment{frag("b", 50, 700), frag("a", 10, 704.9)}, DefaultRowTolerance)
		require.Len(t, rows, 1)
		assert.Equal(t, "a", rows[0].Fragments[0].Text)
		assert.Equal(t, "b", rows[0].Fragments[1].Text)
	})

	t.Run("beyond tolerance splits rows", func(t *testing.T) {
		rows := GroupByRow([]Fragment{frag("low", 10, 600), frag("high", 10, 606)}, DefaultRowTolerance)
		require.Len(t, rows, 2)
		assert.Equal(t, "high", rows[0].Fragments[0].Text)
		assert.Equal(t, "low", rows[1].Fragments[0].Text)
	})

	t.Run("exact tolerance splits rows", func(t *testing.T) {
		rows := GroupByRow([]Fragment{frag("a", 10, 600), frag("b", 10, 605)}, DefaultRowTolerance)
		assert.Len(t, rows, 2)
	})

	t.Run("first bucket wins", func(t *testing.T) {
		frags := []Fragment{frag("a", 10, 100), frag("b", 10, 108), frag("c", 10, 104)}
		rows := GroupByRow(frags, DefaultRowTolerance)
		require.Len(t, rows, 2)
		assert.Equal(t, 108.0, rows[0].Y)
		assert.Equal(t, []string{"b"}, texts(rows[0]))
		assert.Equal(t, []string{"a", "c"}, texts(rows[1]))
	})

	t.Run("default tolerance when unset", func(t *testing.T) {
		rows := GroupByRow([]Fragment{frag("a", 10, 100), frag("b", 20, 103)}, 0)
		assert.Len(t, rows, 1)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, GroupByRow(nil, DefaultRowTolerance))
	})
}

func texts(r Row) []string {
	var out []string
	for _, f := range r.Fragments {
		out = append(out, f.Text)
	}
	return out
}

func TestAlignmentScore(t *testing.T) {
	tests := []struct {
		name string
		a, b Row
		want float64
	}{
		{"identical columns", row(700, 50, 200, 350), row(680, 50, 200, 350), 1},
		{"within tolerance", row(700, 50, 200), row(680, 55, 209), 1},
		{"no shared columns", row(700, 50, 200), row(680, 100, 300), 0},
		{"half aligned", row(700, 50, 200), row(680, 50, 400), 0.5},
		{"empty row", row(700), row(680, 50), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AlignmentScore(tt.a, tt.b, ColumnTolerance), 1e-9)
		})
	}
}

func TestDetectTables(t *testing.T) {
	t.Run("aligned pair forms a table", func(t *testing.T) {
		rows := []Row{row(700, 50, 200, 350), row(680, 50, 200, 350)}
		ranges := DetectTables(rows)
		require.Len(t, ranges, 1)
		assert.Equal(t, TableRange{Start: 0, End: 1, StartY: 700, EndY: 680}, ranges[0])
	})

	t.Run("unaligned pair is prose", func(t *testing.T) {
		rows := []Row{row(700, 50, 200), row(680, 100, 300)}
		assert.Empty(t, DetectTables(rows))
	})

	t.Run("single fragment rows never form tables", func(t *testing.T) {
		rows := []Row{row(700, 50), row(680, 50), row(660, 50)}
		assert.Empty(t, DetectTables(rows))
	})

	t.Run("column counts differing by two are rejected", func(t *testing.T) {
		rows := []Row{row(700, 50, 200), row(680, 50, 200, 350, 500)}
		assert.Empty(t, DetectTables(rows))
	})

	t.Run("ranges close and reopen without overlap", func(t *testing.T) {
		rows := []Row{
			row(700, 50, 200),
			row(680, 50, 200),
			row(660, 50, 200),
			row(640, 120),
			row(620, 300, 400),
			row(600, 300, 400),
		}
		ranges := DetectTables(rows)
		require.Len(t, ranges, 2)
		assert.Equal(t, 0, ranges[0].Start)
		assert.Equal(t, 2, ranges[0].End)
		assert.Equal(t, 4, ranges[1].Start)
		assert.Equal(t, 5, ranges[1].End)
		assert.False(t, ranges[0].Contains(3))
		assert.False(t, ranges[1].Contains(3))
	})
}

func TestOrder(t *testing.T) {
	rows := []Row{
		{Y: 700, Fragments: []Fragment{frag("Title", 50, 700)}},
		row(650, 50, 200, 350),
		row(630, 50, 200, 350),
		{Y: 500, Fragments: []Fragment{frag("Body", 50, 500)}},
	}
	tables := DetectTables(rows)
	images := []RasterImage{{Name: "Im1", Y: 600}}

	items := Order(rows, tables, images)
	require.Len(t, items, 4)

	kinds := []ItemKind{items[0].Kind, items[1].Kind, items[2].Kind, items[3].Kind}
	assert.Equal(t, []ItemKind{ItemText, ItemTable, ItemImage, ItemText}, kinds)
	assert.Equal(t, 640.0, items[1].Y)
	assert.Len(t, items[1].Rows, 2)
	assert.Equal(t, "Im1", items[2].Image.Name)

	again := Order(rows, tables, images)
	assert.Equal(t, items, again)
}

func TestOrderKeepsRowsBetweenTables(t *testing.T) {
	rows := []Row{
		row(700, 50, 200),
		row(680, 50, 200),
		{Y: 640, Fragments: []Fragment{frag("between", 120, 640)}},
		row(620, 300, 400),
		row(600, 300, 400),
	}
	tables := []TableRange{{Start: 0, End: 1}, {Start: 3, End: 4}}

	items := Order(rows, tables, nil)
	require.Len(t, items, 3)
	assert.Equal(t, ItemTable, items[0].Kind)
	assert.Equal(t, ItemText, items[1].Kind)
	assert.Equal(t, "between", items[1].Rows[0].Text())
	assert.Equal(t, ItemTable, items[2].Kind)
}

func TestOrderEqualKeysKeepInsertionOrder(t *testing.T) {
	rows := []Row{{Y: 600, Fragments: []Fragment{frag("text", 50, 600)}}}
	images := []RasterImage{{Name: "Im1", Y: 600}}

	items := Order(rows, nil, images)
	require.Len(t, items, 2)
	assert.Equal(t, ItemImage, items[0].Kind)
	assert.Equal(t, ItemText, items[1].Kind)
}

func TestIsPageNumber(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want bool
	}{
		{"lone number at footer", Row{Y: 30, Fragments: []Fragment{frag("42", 300, 30)}}, true},
		{"number with trailing dots", Row{Y: 400, Fragments: []Fragment{frag("7...", 300, 400)}}, true},
		{"number inside sentence", Row{Y: 30, Fragments: []Fragment{frag("Section 42 Overview", 50, 30)}}, false},
		{"decimal is not a page number", Row{Y: 30, Fragments: []Fragment{frag("4.2", 300, 30)}}, false},
		{"list marker is not a page number", Row{Y: 30, Fragments: []Fragment{frag("3.", 300, 30)}}, false},
		{"two dot leader", Row{Y: 400, Fragments: []Fragment{frag("12..", 300, 400)}}, true},
		{
			"digits split across fragments",
			Row{Y: 30, Fragments: []Fragment{frag("1", 300, 30), frag("2", 305, 30)}},
			true,
		},
		{
			"many numeric fragments high on page",
			Row{Y: 500, Fragments: []Fragment{frag("1", 50, 500), frag("2", 100, 500), frag("3", 150, 500)}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPageNumber(tt.row))
		})
	}
}

func TestClassify(t *testing.T) {
	big := frag("Introduction", 50, 700)
	big.Height = 18

	tests := []struct {
		name string
		text string
		frag *Fragment
		want Class
	}{
		{"large glyphs", "", &big, Heading},
		{"all caps", "OVERVIEW OF RESULTS", nil, Heading},
		{"digits only are not caps", "2024 2025", nil, Body},
		{"bullet", "• first point", nil, BulletItem},
		{"dash bullet", "- second point", nil, BulletItem},
		{"numbered dot", "1. step one", nil, NumberedItem},
		{"numbered paren", "12) step twelve", nil, NumberedItem},
		{"body", "An ordinary sentence.", nil, Body},
		{"number without space", "1.5 liters", nil, Body},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := frag(tt.text, 50, 500)
			if tt.frag != nil {
				f = *tt.frag
			}
			assert.Equal(t, tt.want, Classify(Row{Y: f.Y(), Fragments: []Fragment{f}}))
		})
	}
}

func TestIsHeadingDefaultHeight(t *testing.T) {
	f := frag("plain words", 50, 500)
	f.Height = 0
	assert.False(t, IsHeading(Row{Fragments: []Fragment{f}}))

	t.Run("missing heights fall back per fragment", func(t *testing.T) {
		small := frag("plain", 50, 500)
		small.Height = 0
		large := frag("words", 100, 500)
		large.Height = 20
		r := Row{Fragments: []Fragment{small, large}}
		assert.InDelta(t, 15.5, r.MeanHeight(DefaultGlyphHeight), 1e-9)
		assert.True(t, IsHeading(r))
	})

	t.Run("numbers and dates are not upper case", func(t *testing.T) {
		for _, text := range []string{"2024", "12/03/2024", "1.2.3"} {
			assert.False(t, IsHeading(Row{Fragments: []Fragment{frag(text, 50, 500)}}), text)
		}
		assert.True(t, IsHeading(Row{Fragments: []Fragment{frag("SUMMARY 2024", 50, 500)}}))
	})
}

func TestRowJoined(t *testing.T) {
	r := Row{Fragments: []Fragment{frag(" 1", 50, 30), frag("2 ", 55, 30)}}
	assert.Equal(t, "12", r.Joined())
	assert.Equal(t, "1 2", r.Text())
}

func TestStripListMarker(t *testing.T) {
	assert.Equal(t, "first point", StripListMarker("• first point"))
	assert.Equal(t, "step", StripListMarker("3) step"))
	assert.Equal(t, "", StripListMarker("•"))
	assert.Equal(t, "plain", StripListMarker("plain"))
}

func TestInferAlignment(t *testing.T) {
	const pageWidth = 600.0

	tests := []struct {
		name  string
		x     float64
		width float64
		want  Alignment
	}{
		{"left", 72, 300, AlignLeft},
		{"center", 250, 100, AlignCenter},
		{"right", 450, 100, AlignRight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := frag("text", tt.x, 500)
			f.Width = tt.width
			assert.Equal(t, tt.want, InferAlignment(Row{Fragments: []Fragment{f}}, pageWidth))
		})
	}

	assert.Equal(t, AlignLeft, InferAlignment(Row{}, pageWidth))
}

func TestRepairImageAnchors(t *testing.T) {
	pixels := image.NewRGBA(image.Rect(0, 0, 4, 4))

	t.Run("caption found", func(t *testing.T) {
		images := []RasterImage{NewRasterImage("Im1", pixels, 99999)}
		frags := []Fragment{frag("Figure 1: A chart", 72, 500)}

		issues := RepairImageAnchors(images, frags, 792, 0)
		assert.Empty(t, issues)
		assert.Equal(t, 550.0, images[0].Y)
	})

	t.Run("ordinal counts earlier pages", func(t *testing.T) {
		images := []RasterImage{NewRasterImage("Im1", pixels, -5)}
		frags := []Fragment{frag("Figure 1: wrong", 72, 600), frag("figure 4: right", 72, 300)}

		issues := RepairImageAnchors(images, frags, 792, 3)
		assert.Empty(t, issues)
		assert.Equal(t, 350.0, images[0].Y)
	})

	t.Run("caption split across fragments", func(t *testing.T) {
		images := []RasterImage{NewRasterImage("Im1", pixels, 99999)}
		frags := []Fragment{frag("Figure", 72, 500), frag("1: chart", 110, 500)}

		issues := RepairImageAnchors(images, frags, 792, 0)
		assert.Empty(t, issues)
		assert.Equal(t, 550.0, images[0].Y)
	})

	t.Run("no caption keeps anchor", func(t *testing.T) {
		images := []RasterImage{NewRasterImage("Im1", pixels, 99999)}

		issues := RepairImageAnchors(images, []Fragment{frag("Body text", 72, 500)}, 792, 0)
		require.Len(t, issues, 1)
		assert.Equal(t, 1, issues[0].Ordinal)
		assert.Equal(t, 99999.0, images[0].Y)
		assert.Contains(t, issues[0].String(), "no caption")
	})

	t.Run("in range untouched", func(t *testing.T) {
		images := []RasterImage{NewRasterImage("Im1", pixels, 792.5)}
		issues := RepairImageAnchors(images, nil, 792, 0)
		assert.Empty(t, issues)
		assert.Equal(t, 792.5, images[0].Y)
	})
}
