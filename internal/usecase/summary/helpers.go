package summary

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/pkg/validator"
)

const (
	summaryQuery = "Provide a comprehensive summary of the document, giving a complete overview of its content. " +
		"The summary should cover all the main topics, key ideas, and important information presented."

	highlightsQuery = "Extract all the important highlights, key points, and crucial information from the document. " +
		"Ensure that no essential details are missed. Include all the relevant facts, figures, and takeaways."
)

// FixedQuery is one of the questions asked for every upload.
type FixedQuery struct {
	Kind entity.QueryKind
	Text string
}

func FixedQueries() []FixedQuery {
	return []FixedQuery{
		{Kind: entity.QuerySummary, Text: summaryQuery},
		{Kind: entity.QueryHighlights, Text: highlightsQuery},
	}
}

// Preview embeds the PDF inline as a base64 data URL.
func Preview(content []byte) string {
	return fmt.Sprintf(`<iframe src="data:application/pdf;base64,%s" width="400" height="100%%" type="application/pdf" style="height:100vh; width:100%%"></iframe>`,
		base64.StdEncoding.EncodeToString(content))
}

// Report turns a result into titled sections for file export. A failed query
// keeps its section with the error text.
func Report(result *entity.SummaryResult) *entity.Report {
	return &entity.Report{
		Title: result.Filename,
		Sections: []entity.ReportSection{
			reportSection("Summary", result.Summary),
			reportSection("Key Points", result.Highlights),
		},
	}
}

func reportSection(heading string, r entity.QueryResult) entity.ReportSection {
	if r.Failed() {
		msg := "no response"
		if r.Err != nil {
			msg = r.Err.Error()
		}
		return entity.ReportSection{Heading: heading, Body: "Query failed: " + msg}
	}
	return entity.ReportSection{Heading: heading, Body: r.Response.Response}
}

// ReportFilename names the exported report after the uploaded document,
// e.g. "Q3 Plan.PDF" with ".md" gives "Q3_Plan-summary.md".
func ReportFilename(filename, ext string) string {
	name := validator.SanitizeFilename(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" {
		name = "document"
	}
	return name + "-summary" + ext
}
