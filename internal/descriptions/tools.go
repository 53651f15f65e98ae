package descriptions

import "sort"

// Tool names exposed by the MCP server.
const (
	ToolConvert = "pdf_to_word"
	ToolResume  = "pdf_to_word_resume"
	ToolInfo    = "pdf_to_word_info"
)

const (
	ConvertDescription = `Rebuild a PDF as an editable Word (.docx) document.

**When to use:** A PDF needs to be edited, reflowed or reused in a word processor.

**What it rebuilds:** Headings, body paragraphs, bulleted and numbered lists, tables detected from
column alignment, and embedded images at their position on the page. Running page numbers are dropped.

**Pages without text:** Scanned pages have no text layer. With scanned=ask (the default) the
conversion stops after extraction and returns a job id with the number of such pages; finish it
with pdf_to_word_resume. With scanned=image the page images are embedded as they are; with
scanned=ocr their text is recognized and laid out like the rest of the document.

**Examples:**
• Convert a report: path="reports/q3.pdf"
• Choose the output: path="contract.pdf" output="drafts/contract.docx"
• Scanned archive: path="scans/letter.pdf" scanned="ocr"`

	ResumeDescription = `Finish a conversion suspended because some pages have no extractable text.

**When to use:** pdf_to_word returned a job id instead of a document.

**Choices:** image embeds each page as a picture and keeps its exact look; ocr recognizes the
text so it can be edited. If OCR fails the job stays available and can be resumed with image.

**Examples:**
• job_id="<id from pdf_to_word>" choice="ocr"
• job_id="<id>" choice="image" output="out/scan.docx"`

	InfoDescription = `Show server configuration, suspended conversions and usage guidance.

**When to use:** Before a first conversion, or to find job ids that are still waiting for a choice.
Suspended jobs are kept in memory; the least recently used are dropped when the store is full.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolConvert: ConvertDescription,
	ToolResume:  ResumeDescription,
	ToolInfo:    InfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
