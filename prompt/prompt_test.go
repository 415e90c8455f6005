package prompt

import (
	"strings"
	"testing"

	"github.com/devitsoftware/docs-assistant/models"
	"github.com/google/go-cmp/cmp"
)

func TestContextBlock(t *testing.T) {
	t.Run("empty retrieval produces an empty block", func(t *testing.T) {
		if actual := ContextBlock(nil); actual != "" {
			t.Errorf("expected empty context block, got %q", actual)
		}
	})
	t.Run("chunks are delimited and keep ranked order", func(t *testing.T) {
		docs := []Document{
			{Title: "Getting started", URL: "https://docs.example.com/selecty/getting-started", Content: "Install the app."},
			{Title: "Switchers", URL: "https://docs.example.com/selecty/switchers", Content: "Create a switcher."},
		}
		expected := "---\nTitle: Getting started\nURL: https://docs.example.com/selecty/getting-started\n\nInstall the app.\n" +
			"\n" +
			"---\nTitle: Switchers\nURL: https://docs.example.com/selecty/switchers\n\nCreate a switcher.\n"
		if diff := cmp.Diff(expected, ContextBlock(docs)); diff != "" {
			t.Errorf("unexpected context block: %v", diff)
		}
	})
}

func TestSystem(t *testing.T) {
	template := "You answer questions about %s.\n\nContext:\n%s"
	actual := System(template, "Selecty", "some context")
	if !strings.Contains(actual, "questions about Selecty") {
		t.Errorf("expected the display name to be embedded, got %q", actual)
	}
	if !strings.HasSuffix(actual, "Context:\nsome context") {
		t.Errorf("expected the context block to be embedded, got %q", actual)
	}
}

func TestWindow(t *testing.T) {
	makeMessages := func(n int) []models.ChatMessage {
		msgs := make([]models.ChatMessage, n)
		for i := range msgs {
			role := models.ChatMessageRoleUser
			if i%2 == 1 {
				role = models.ChatMessageRoleAssistant
			}
			msgs[i] = models.ChatMessage{Role: role, Content: string(rune('a' + i))}
		}
		return msgs
	}
	tests := []struct {
		name     string
		length   int
		n        int
		expected int
	}{
		{name: "history shorter than the window is unchanged", length: 3, n: 5, expected: 3},
		{name: "history equal to the window is unchanged", length: 5, n: 5, expected: 5},
		{name: "history longer than the window is truncated", length: 8, n: 5, expected: 5},
		{name: "non-positive window keeps everything", length: 4, n: 0, expected: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := makeMessages(tt.length)
			actual := Window(msgs, tt.n)
			if len(actual) != tt.expected {
				t.Fatalf("expected %d messages, got %d", tt.expected, len(actual))
			}
			if diff := cmp.Diff(msgs[tt.length-tt.expected:], actual); diff != "" {
				t.Errorf("expected the most recent messages in original order: %v", diff)
			}
		})
	}
}

func TestLastUserMessage(t *testing.T) {
	t.Run("returns the most recent user message", func(t *testing.T) {
		msgs := []models.ChatMessage{
			{Role: models.ChatMessageRoleUser, Content: "first question"},
			{Role: models.ChatMessageRoleAssistant, Content: "first answer"},
			{Role: models.ChatMessageRoleUser, Content: "second question"},
		}
		content, ok := LastUserMessage(msgs)
		if !ok {
			t.Fatal("expected a user message to be found")
		}
		if content != "second question" {
			t.Errorf("expected the last user message, got %q", content)
		}
	})
	t.Run("reports no user message", func(t *testing.T) {
		msgs := []models.ChatMessage{
			{Role: models.ChatMessageRoleSystem, Content: "instructions"},
			{Role: models.ChatMessageRoleAssistant, Content: "hello"},
		}
		if _, ok := LastUserMessage(msgs); ok {
			t.Error("expected no user message to be found")
		}
	})
}
