package layout

import (
	"sort"
	"strings"
)

// DefaultRowTolerance is the vertical distance, in page units, within which
// fragments share a row.
const DefaultRowTolerance = 5.0

// Row is a set of fragments on approximately the same baseline, ordered
// left to right. Y is the representative Y of the bucket: the anchor of
// the first fragment that opened it.
type Row struct {
	Y         float64    `json:"y"`
	Fragments []Fragment `json:"fragments"`
}

// GroupByRow folds fragments into rows. Each fragment joins the first open
// bucket whose representative Y is strictly within tolerance of its own,
// otherwise it opens a new bucket. The result depends on input order when
// several buckets lie within 2*tolerance of each other. Rows are returned
// top of page first.
func GroupByRow(fragments []Fragment, tolerance float64) []Row {
	if tolerance <= 0 {
		tolerance = DefaultRowTolerance
	}

	var rows []Row
	for _, f := range fragments {
		placed := false
		for i := range rows {
			if nearlyEqual(rows[i].Y, f.Y(), tolerance) {
				rows[i].Fragments = append(rows[i].Fragments, f)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, Row{Y: f.Y(), Fragments: []Fragment{f}})
		}
	}

	for i := range rows {
		frags := rows[i].Fragments
		sort.SliceStable(frags, func(a, b int) bool {
			return frags[a].X() < frags[b].X()
		})
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].Y > rows[b].Y
	})
	return rows
}

// Len returns the number of fragments in the row.
func (r Row) Len() int { return len(r.Fragments) }

// Text joins the fragment strings with single spaces.
func (r Row) Text() string {
	parts := make([]string, 0, len(r.Fragments))
	for _, f := range r.Fragments {
		if t := strings.TrimSpace(f.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Joined concatenates the raw fragment strings with no separator and trims
// the result. Digits split across fragments ("1", "2") read as "12".
func (r Row) Joined() string {
	var b strings.Builder
	for _, f := range r.Fragments {
		b.WriteString(f.Text)
	}
	return strings.TrimSpace(b.String())
}

// MeanY is the average vertical anchor of the row's fragments.
func (r Row) MeanY() float64 {
	if len(r.Fragments) == 0 {
		return r.Y
	}
	var sum float64
	for _, f := range r.Fragments {
		sum += f.Y()
	}
	return sum / float64(len(r.Fragments))
}

// MeanX is the average horizontal anchor of the row's fragments.
func (r Row) MeanX() float64 {
	if len(r.Fragments) == 0 {
		return 0
	}
	var sum float64
	for _, f := range r.Fragments {
		sum += f.X()
	}
	return sum / float64(len(r.Fragments))
}

// MeanWidth is the average fragment width.
func (r Row) MeanWidth() float64 {
	if len(r.Fragments) == 0 {
		return 0
	}
	var sum float64
	for _, f := range r.Fragments {
		sum += f.Width
	}
	return sum / float64(len(r.Fragments))
}

// MeanHeight is the average glyph height. Fragments that report no height
// count as fallback.
func (r Row) MeanHeight(fallback float64) float64 {
	if len(r.Fragments) == 0 {
		return fallback
	}
	var sum float64
	for _, f := range r.Fragments {
		if f.Height == 0 {
			sum += fallback
			continue
		}
		sum += f.Height
	}
	return sum / float64(len(r.Fragments))
}
