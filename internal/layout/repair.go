package layout

import (
	"fmt"
	"regexp"
)

const (
	// AnchorSlack is how far above the page top an anchor may sit before it
	// is considered inconsistent.
	AnchorSlack = 1.0
	// CaptionOffset is the distance above a caption a repaired image is placed at.
	CaptionOffset = 50.0
)

// AnchorIssue describes an image whose out-of-range anchor could not be
// repaired.
type AnchorIssue struct {
	Index   int
	Ordinal int
	Y       float64
}

func (a AnchorIssue) String() string {
	return fmt.Sprintf("image %d (figure %d) anchored at y=%.1f outside the page, no caption found", a.Index, a.Ordinal, a.Y)
}

// AnchorInRange reports whether y lies on a page of the given height.
func AnchorInRange(y, pageHeight float64) bool {
	return y >= 0 && y <= pageHeight+AnchorSlack
}

// RepairImageAnchors re-anchors images whose Y lies outside the page by
// looking for a "Figure N:" caption, N being the image's ordinal across the
// document (imagesBefore counts images on earlier pages). Images are updated
// in place; the ones left unrepaired are returned.
func RepairImageAnchors(images []RasterImage, fragments []Fragment, pageHeight float64, imagesBefore int) []AnchorIssue {
	var issues []AnchorIssue
	var rows []Row

	for i := range images {
		if AnchorInRange(images[i].Y, pageHeight) {
			continue
		}
		ordinal := imagesBefore + i + 1
		caption := regexp.MustCompile(fmt.Sprintf(`(?i)Figure\s+%d:`, ordinal))

		if y, ok := findCaption(caption, fragments); ok {
			images[i].Y = y + CaptionOffset
			continue
		}
		if rows == nil {
			rows = GroupByRow(fragments, DefaultRowTolerance)
		}
		if y, ok := findCaptionRow(caption, rows); ok {
			images[i].Y = y + CaptionOffset
			continue
		}
		issues = append(issues, AnchorIssue{Index: i, Ordinal: ordinal, Y: images[i].Y})
	}
	return issues
}

func findCaption(caption *regexp.Regexp, fragments []Fragment) (float64, bool) {
	for _, f := range fragments {
		if caption.MatchString(f.Text) {
			return f.Y(), true
		}
	}
	return 0, false
}

// findCaptionRow covers captions split across several fragments.
func findCaptionRow(caption *regexp.Regexp, rows []Row) (float64, bool) {
	for _, r := range rows {
		if caption.MatchString(r.Text()) {
			return r.Y, true
		}
	}
	return 0, false
}
