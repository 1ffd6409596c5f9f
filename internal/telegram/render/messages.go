package render

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/entity"
)

// MaxMessageLength is the Bot API limit for a single text message.
const MaxMessageLength = 4096

const (
	MsgWelcome = `👋 Hi! Send me a PDF and I will summarize it.

You get back:
• a summary of the whole document
• its key points and figures
• a report file with both`

	MsgHelp = `🤖 Commands:

/start - Show the welcome message
/help - Show this help
/clear - Clear the chat history (indexed documents stay cached)

Send a PDF as a file to get its summary. Sending the same file again reuses the index built the first time.`

	MsgSendPDF = `📄 Send me a PDF file and I will summarize it.`

	MsgIndexing = `⏳ Reading and indexing the document...

Large files can take a few minutes.`

	MsgCached = `⚡ This document is already indexed, asking the questions again...`

	MsgChatCleared = `🧹 Chat cleared. Documents you sent stay indexed for this chat.`

	MsgSummaryHeader    = "📝 Summary of %s"
	MsgHighlightsHeader = "📌 Key points of %s"
	MsgQueryFailed      = "❌ Could not answer this part: %s"

	ErrGeneric         = `❌ Something went wrong. Try again later.`
	ErrUnknownCommand  = `❌ Unknown command. Use /help`
	ErrInvalidFile     = `❌ Only PDF files are supported.`
	ErrFileTooLarge    = `❌ The file is too large.`
	ErrFileOverLimit   = `❌ The file is too large. The limit is %d MB.`
	ErrNoText          = `❌ No text could be extracted from this PDF.`
	ErrNetworkIssue    = `❌ Connection problem. Try again a bit later.`
	ErrServiceFailed   = `❌ An error occurred: %s`
	ErrTimeout         = `❌ The operation took too long. Try again.`
	ErrSessionNotFound = `❌ Session not found. Send the file again.`
	ErrUploadNotFound  = `❌ Could not find the file you uploaded, please check again...`
)

// RenderFileTooLarge formats the size limit in megabytes.
func RenderFileTooLarge(limit int64) string {
	return fmt.Sprintf(ErrFileOverLimit, limit>>20)
}

// RenderSummary turns a result into chat messages: summary first, then key
// points. Long answers are split to fit the message limit.
func RenderSummary(result *entity.SummaryResult) []string {
	var messages []string
	messages = append(messages, renderQuery(fmt.Sprintf(MsgSummaryHeader, result.Filename), result.Summary)...)
	messages = append(messages, renderQuery(fmt.Sprintf(MsgHighlightsHeader, result.Filename), result.Highlights)...)
	return messages
}

func renderQuery(header string, r entity.QueryResult) []string {
	var body string
	if r.Failed() {
		reason := "no response"
		if r.Err != nil {
			reason = r.Err.Error()
		}
		body = fmt.Sprintf(MsgQueryFailed, reason)
	} else {
		body = r.Response.Response
	}

	return Split(header+"\n\n"+body, MaxMessageLength)
}

// Split cuts text into parts of at most limit bytes. Cuts prefer paragraph
// breaks, then line breaks, then spaces, and never split a rune.
func Split(text string, limit int) []string {
	var parts []string
	for len(text) > limit {
		cut := lastBreak(text[:limit])
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}

		part := strings.TrimSpace(text[:cut])
		if part != "" {
			parts = append(parts, part)
		}
		text = strings.TrimLeft(text[cut:], " \n")
	}

	if text = strings.TrimSpace(text); text != "" {
		parts = append(parts, text)
	}

	return parts
}

func lastBreak(s string) int {
	for _, sep := range []string{"\n\n", "\n", " "} {
		if i := strings.LastIndex(s, sep); i > 0 {
			return i
		}
	}
	return -1
}

// ClassifyError analyzes an error and returns an appropriate user-friendly message
func ClassifyError(err error) string {
	if err == nil {
		return ErrGeneric
	}

	switch {
	case errors.Is(err, entity.ErrMissingCredential):
		return "❌ " + config.MissingCredentialMessage
	case errors.Is(err, entity.ErrInvalidExtension), errors.Is(err, entity.ErrInvalidFile):
		return ErrInvalidFile
	case errors.Is(err, entity.ErrFileTooLarge):
		return ErrFileTooLarge
	case errors.Is(err, entity.ErrNoDocuments):
		return ErrNoText
	case errors.Is(err, entity.ErrUploadNotFound):
		return ErrUploadNotFound
	case errors.Is(err, entity.ErrSessionNotFound):
		return ErrSessionNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrTimeout
	case errors.Is(err, entity.ErrParserFailed),
		errors.Is(err, entity.ErrEmbeddingFailed),
		errors.Is(err, entity.ErrLLMFailed),
		errors.Is(err, entity.ErrEmptyResponse):
		return fmt.Sprintf(ErrServiceFailed, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrNetworkIssue
	}

	return ErrGeneric
}
