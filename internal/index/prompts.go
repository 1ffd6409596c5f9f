package index

import "strings"

// summaryQuery produces the per-document summary stored in the index.
const summaryQuery = "Describe what the provided text is about. " +
	"Also describe some of the questions that this text can answer."

const (
	contextPlaceholder = "{context}"
	queryPlaceholder   = "{query}"
)

const treeSummarizeTemplate = "Context information from multiple sources is below.\n" +
	"---------------------\n" +
	contextPlaceholder + "\n" +
	"---------------------\n" +
	"Given the information from multiple sources and not prior knowledge, answer the query.\n" +
	"Query: " + queryPlaceholder + "\n" +
	"Answer: "

const contextSeparator = "\n\n"

func treeSummarizePrompt(query string, texts []string) string {
	return strings.NewReplacer(
		contextPlaceholder, strings.Join(texts, contextSeparator),
		queryPlaceholder, query,
	).Replace(treeSummarizeTemplate)
}

// promptOverhead is the prompt length without any context.
func promptOverhead(query string) int {
	return len(treeSummarizePrompt(query, nil))
}
