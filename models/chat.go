package models

type ChatPostRequest struct {
	// Messages is the conversation so far, in order. The last user message is
	// the question to answer.
	Messages []ChatMessage `json:"messages"`

	// Tenant is the documentation namespace to search, e.g. "selecty". Unknown
	// or empty values search all tenants.
	Tenant string `json:"tenant,omitempty"`
}

type ChatMessageRole string

const (
	ChatMessageRoleSystem    ChatMessageRole = "system"
	ChatMessageRoleUser      ChatMessageRole = "user"
	ChatMessageRoleAssistant ChatMessageRole = "assistant"
)

type ChatMessage struct {
	Role    ChatMessageRole `json:"role"`
	Content string          `json:"content"`
}
