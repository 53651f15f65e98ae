package docx

import "encoding/xml"

const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"

	relStyles    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relNumbering = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	relImage     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// Element structs below use prefixed local names so the marshaled output
// carries the conventional w:, wp: and r: prefixes Word expects.

type xDocument struct {
	XMLName xml.Name `xml:"w:document"`
	W       string   `xml:"xmlns:w,attr"`
	R       string   `xml:"xmlns:r,attr"`
	WP      string   `xml:"xmlns:wp,attr"`
	A       string   `xml:"xmlns:a,attr"`
	Pic     string   `xml:"xmlns:pic,attr"`
	Body    xBody    `xml:"w:body"`
}

type xBody struct {
	Blocks []any
	Sect   xSectPr `xml:"w:sectPr"`
}

type xSectPr struct {
	Size   xPageSize   `xml:"w:pgSz"`
	Margin xPageMargin `xml:"w:pgMar"`
}

type xPageSize struct {
	W int `xml:"w:w,attr"`
	H int `xml:"w:h,attr"`
}

type xPageMargin struct {
	Top    int `xml:"w:top,attr"`
	Right  int `xml:"w:right,attr"`
	Bottom int `xml:"w:bottom,attr"`
	Left   int `xml:"w:left,attr"`
	Header int `xml:"w:header,attr"`
	Footer int `xml:"w:footer,attr"`
	Gutter int `xml:"w:gutter,attr"`
}

type xParagraph struct {
	XMLName xml.Name    `xml:"w:p"`
	Props   *xParaProps `xml:"w:pPr,omitempty"`
	Runs    []xRun      `xml:"w:r"`
}

type xParaProps struct {
	Style   *xVal     `xml:"w:pStyle,omitempty"`
	Num     *xNumPr   `xml:"w:numPr,omitempty"`
	Spacing *xSpacing `xml:"w:spacing,omitempty"`
	Jc      *xVal     `xml:"w:jc,omitempty"`
}

type xVal struct {
	Val string `xml:"w:val,attr"`
}

type xNumPr struct {
	Level xVal `xml:"w:ilvl"`
	ID    xVal `xml:"w:numId"`
}

type xSpacing struct {
	Before int `xml:"w:before,attr"`
	After  int `xml:"w:after,attr"`
}

type xRun struct {
	Props   *xRunProps `xml:"w:rPr,omitempty"`
	Text    *xText     `xml:"w:t,omitempty"`
	Drawing *xDrawing  `xml:"w:drawing,omitempty"`
}

type xRunProps struct {
	Fonts  *xFonts `xml:"w:rFonts,omitempty"`
	Bold   *xEmpty `xml:"w:b,omitempty"`
	Italic *xEmpty `xml:"w:i,omitempty"`
	Size   *xVal   `xml:"w:sz,omitempty"`
	SizeCs *xVal   `xml:"w:szCs,omitempty"`
}

type xEmpty struct{}

type xFonts struct {
	ASCII string `xml:"w:ascii,attr"`
	HAnsi string `xml:"w:hAnsi,attr"`
	CS    string `xml:"w:cs,attr"`
}

type xText struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Value string `xml:",chardata"`
}

type xDrawing struct {
	Inline string `xml:",innerxml"`
}

type xTable struct {
	XMLName xml.Name    `xml:"w:tbl"`
	Props   xTableProps `xml:"w:tblPr"`
	Grid    xGrid       `xml:"w:tblGrid"`
	Rows    []xTableRow `xml:"w:tr"`
}

type xTableProps struct {
	Width   xWidth   `xml:"w:tblW"`
	Borders xBorders `xml:"w:tblBorders"`
	Layout  xType    `xml:"w:tblLayout"`
}

type xWidth struct {
	W    int    `xml:"w:w,attr"`
	Type string `xml:"w:type,attr"`
}

type xType struct {
	Type string `xml:"w:type,attr"`
}

type xBorders struct {
	Top     xBorder `xml:"w:top"`
	Left    xBorder `xml:"w:left"`
	Bottom  xBorder `xml:"w:bottom"`
	Right   xBorder `xml:"w:right"`
	InsideH xBorder `xml:"w:insideH"`
	InsideV xBorder `xml:"w:insideV"`
}

type xBorder struct {
	Val   string `xml:"w:val,attr"`
	Size  int    `xml:"w:sz,attr"`
	Space int    `xml:"w:space,attr"`
	Color string `xml:"w:color,attr"`
}

type xGrid struct {
	Cols []xGridCol `xml:"w:gridCol"`
}

type xGridCol struct {
	W int `xml:"w:w,attr"`
}

type xTableRow struct {
	Cells []xCell `xml:"w:tc"`
}

type xCell struct {
	Props      xCellProps   `xml:"w:tcPr"`
	Paragraphs []xParagraph `xml:"w:p"`
}

type xCellProps struct {
	Width xWidth `xml:"w:tcW"`
}

type xRelationships struct {
	XMLName xml.Name        `xml:"Relationships"`
	Xmlns   string          `xml:"xmlns,attr"`
	Items   []xRelationship `xml:"Relationship"`
}

type xRelationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type xCoreProperties struct {
	XMLName xml.Name `xml:"cp:coreProperties"`
	CP      string   `xml:"xmlns:cp,attr"`
	DC      string   `xml:"xmlns:dc,attr"`
	DCTerms string   `xml:"xmlns:dcterms,attr"`
	XSI     string   `xml:"xmlns:xsi,attr"`
	Title   string   `xml:"dc:title,omitempty"`
	Creator string   `xml:"dc:creator"`
	Created xDate    `xml:"dcterms:created"`
}

type xDate struct {
	Type  string `xml:"xsi:type,attr"`
	Value string `xml:",chardata"`
}
