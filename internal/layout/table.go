package layout

import "math"

const (
	// ColumnTolerance is how far apart, in page units, two anchors may be
	// and still count as the same column.
	ColumnTolerance = 10.0
	// AlignmentThreshold is the minimum alignment score for two rows to be
	// treated as table rows.
	AlignmentThreshold = 0.5
)

// TableRange is a contiguous run of rows classified as one table. Start and
// End are inclusive indexes into the row slice it was detected on.
type TableRange struct {
	Start  int     `json:"start"`
	End    int     `json:"end"`
	StartY float64 `json:"start_y"`
	EndY   float64 `json:"end_y"`
}

// Contains reports whether row index i belongs to the range.
func (t TableRange) Contains(i int) bool {
	return i >= t.Start && i <= t.End
}

// Rows returns the slice of rows covered by the range.
func (t TableRange) Rows(rows []Row) []Row {
	return rows[t.Start : t.End+1]
}

// AlignmentScore counts the fragments of a whose anchor lies within
// tolerance of some anchor in b, divided by the smaller fragment count.
func AlignmentScore(a, b Row, tolerance float64) float64 {
	n := min(len(a.Fragments), len(b.Fragments))
	if n == 0 {
		return 0
	}

	matched := 0
	for _, fa := range a.Fragments {
		for _, fb := range b.Fragments {
			if math.Abs(fa.X()-fb.X()) < tolerance {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(n)
}

// tablePair reports whether two adjacent rows look like consecutive table rows.
func tablePair(a, b Row) bool {
	la, lb := len(a.Fragments), len(b.Fragments)
	if la <= 1 || lb <= 1 {
		return false
	}
	if la-lb > 1 || lb-la > 1 {
		return false
	}
	return AlignmentScore(a, b, ColumnTolerance) >= AlignmentThreshold
}

// DetectTables scans rows, top of page first, and returns the ranges of
// adjacent column-aligned rows. A single aligned pair is enough to form a
// table. Ranges never overlap.
func DetectTables(rows []Row) []TableRange {
	var ranges []TableRange
	open := -1

	closeAt := func(end int) {
		ranges = append(ranges, TableRange{
			Start:  open,
			End:    end,
			StartY: rows[open].Y,
			EndY:   rows[end].Y,
		})
		open = -1
	}

	for i := 0; i+1 < len(rows); i++ {
		if tablePair(rows[i], rows[i+1]) {
			if open < 0 {
				open = i
			}
			continue
		}
		if open >= 0 {
			closeAt(i)
		}
	}
	if open >= 0 {
		closeAt(len(rows) - 1)
	}
	return ranges
}
