package layout

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Class is the structural role of a text row.
type Class int

const (
	Body Class = iota
	Heading
	BulletItem
	NumberedItem
)

// String returns the class name
func (c Class) String() string {
	switch c {
	case Heading:
		return "heading"
	case BulletItem:
		return "bullet_item"
	case NumberedItem:
		return "numbered_item"
	default:
		return "body"
	}
}

// Alignment is the horizontal alignment inferred for a row.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// String returns the alignment name
func (a Alignment) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

const (
	// DefaultGlyphHeight stands in for a fragment that reports no height.
	DefaultGlyphHeight = 11.0
	// HeadingGlyphHeight is the mean glyph height above which a row is a heading.
	HeadingGlyphHeight = 14.0
	// HeadingMaxChars bounds the length of an all-caps heading.
	HeadingMaxChars = 100
	// FooterBandY is the height of the bottom band where lone numbers are page numbers.
	FooterBandY       = 100.0
	centerMarginRatio = 0.35
)

var (
	pageNumberPattern = regexp.MustCompile(`^\d+(?:\.{2,})?$`)
	bulletPattern     = regexp.MustCompile(`^[•·○●■□▪▫-]\s`)
	numberedPattern   = regexp.MustCompile(`^\d+[.)]\s`)
	listMarkerPattern = regexp.MustCompile(`^\s*(?:[•·○●■□▪▫-]|\d+[.)])\s*`)
)

// IsPageNumber reports whether the row looks like a running page number:
// bare digits, or digits followed by a dot leader, on a short row or near the
// bottom. "3." is a list marker, not a page number.
func IsPageNumber(r Row) bool {
	if !pageNumberPattern.MatchString(r.Joined()) {
		return false
	}
	return r.Len() <= 2 || r.MeanY() < FooterBandY
}

// IsHeading reports whether the row has large glyphs or is a short all-caps line.
func IsHeading(r Row) bool {
	if r.MeanHeight(DefaultGlyphHeight) > HeadingGlyphHeight {
		return true
	}
	text := r.Joined()
	return isUpper(text) && utf8.RuneCountInString(text) < HeadingMaxChars
}

// IsBulletItem reports whether the row starts with a bullet glyph.
func IsBulletItem(r Row) bool {
	return bulletPattern.MatchString(r.Text())
}

// IsNumberedItem reports whether the row starts with "N." or "N)".
func IsNumberedItem(r Row) bool {
	return numberedPattern.MatchString(r.Text())
}

// Classify applies the row predicates in precedence order.
func Classify(r Row) Class {
	switch {
	case IsHeading(r):
		return Heading
	case IsBulletItem(r):
		return BulletItem
	case IsNumberedItem(r):
		return NumberedItem
	default:
		return Body
	}
}

// StripListMarker removes a leading bullet or number marker from s.
func StripListMarker(s string) string {
	return listMarkerPattern.ReplaceAllString(s, "")
}

// InferAlignment derives alignment from the row's margins on a page of the
// given width.
func InferAlignment(r Row, pageWidth float64) Alignment {
	if pageWidth <= 0 || r.Len() == 0 {
		return AlignLeft
	}
	left := r.MeanX()
	right := pageWidth - left - r.MeanWidth()

	if left > pageWidth*centerMarginRatio && right > pageWidth*centerMarginRatio {
		return AlignCenter
	}
	if right < left/2 {
		return AlignRight
	}
	return AlignLeft
}

// isUpper is true when s has at least one cased letter and no lowercase ones.
// Rows with no letters at all, such as "2024" or "12/03/2024", are not
// upper case and so never become headings on case alone.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased && s == strings.ToUpper(s)
}
