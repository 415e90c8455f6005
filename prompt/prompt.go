// Package prompt assembles the grounded system instruction sent to the chat
// model, and bounds the conversation history that accompanies it.
package prompt

import (
	"fmt"
	"strings"

	"github.com/devitsoftware/docs-assistant/models"
)

// Document is a retrieved documentation chunk, in ranked order.
type Document struct {
	Title   string
	URL     string
	Content string
}

// ContextBlock concatenates the retrieved chunks into the grounding text
// supplied to the model. Chunks are already bounded by the store's top-K and
// chunk size, so no truncation happens here.
func ContextBlock(docs []Document) string {
	blocks := make([]string, len(docs))
	for i, doc := range docs {
		blocks[i] = fmt.Sprintf("---\nTitle: %s\nURL: %s\n\n%s\n", doc.Title, doc.URL, doc.Content)
	}
	return strings.Join(blocks, "\n")
}

// System renders the system instruction from a template that takes the tenant
// display name and the context block. The default template requires answers to
// come only from the context, and names the tenant in the "not found" fallback.
func System(template, displayName, contextBlock string) string {
	return fmt.Sprintf(template, displayName, contextBlock)
}

// Window returns the last n messages in original order, bounding prompt size
// without attempting summarization. The full history is still used upstream to
// find the question.
func Window(messages []models.ChatMessage, n int) []models.ChatMessage {
	if n <= 0 || len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

// LastUserMessage returns the content of the most recent user message - the
// question the request is asking.
func LastUserMessage(messages []models.ChatMessage) (content string, ok bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.ChatMessageRoleUser {
			return messages[i].Content, true
		}
	}
	return "", false
}
