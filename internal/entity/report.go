package entity

type ResultFormat string

const (
	FormatJSON     ResultFormat = "json"
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatJSON, FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

// Report is the rendered form of a SummaryResult handed to a formatter.
type Report struct {
	Title    string
	Sections []ReportSection
}

type ReportSection struct {
	Heading string
	Body    string
}
