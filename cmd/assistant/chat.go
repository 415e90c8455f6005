package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/devitsoftware/docs-assistant/client"
	"github.com/devitsoftware/docs-assistant/models"
	"github.com/devitsoftware/docs-assistant/stream"
)

type ChatCommand struct {
	ServerURL string `help:"The URL of the assistant server." env:"ASSISTANT_URL" default:"http://localhost:9000"`
	Tenant    string `help:"The documentation namespace to ask about, e.g. selecty." env:"TENANT" default:""`
	LogLevel  string `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c ChatCommand) Run(ctx context.Context) (err error) {
	asc := client.New(c.ServerURL)

	var req models.ChatPostRequest
	req.Tenant = c.Tenant

	toLLM := make(chan models.ChatMessage)
	fromLLM := make(chan []models.ChatMessage)
	errors := make(chan error)
	defer close(toLLM)
	defer close(fromLLM)
	defer close(errors)

	go func() {
		for toSend := range toLLM {
			req.Messages = append(req.Messages, toSend)
			msgIndex := len(req.Messages)
			req.Messages = append(req.Messages, models.ChatMessage{
				Role:    models.ChatMessageRoleAssistant,
				Content: "",
			})

			sb := new(strings.Builder)
			frames := stream.Frames{
				TextDelta: func(text string) error {
					sb.WriteString(text)
					req.Messages[msgIndex].Content = sb.String()
					fromLLM <- req.Messages
					return nil
				},
				Sources: func(sources []stream.Source) error {
					sb.WriteString("\n\nSources:")
					for _, source := range sources {
						sb.WriteString(fmt.Sprintf("\n- %s (%s)", source.Metadata.Title, source.URL))
					}
					req.Messages[msgIndex].Content = sb.String()
					fromLLM <- req.Messages
					return nil
				},
				Error: func(message string) error {
					return fmt.Errorf("server error: %s", message)
				},
			}
			if err := asc.ChatPost(ctx, req, frames); err != nil {
				errors <- err
				return
			}
		}
	}()

	p := tea.NewProgram(newChatModel(ctx, toLLM, fromLLM, errors))
	if _, err = p.Run(); err != nil {
		return err
	}
	return nil
}

// Dracula color scheme.
var (
	chatBackground  = lipgloss.Color("#282a36")
	chatCurrentLine = lipgloss.Color("#44475a")
	chatForeground  = lipgloss.Color("#f8f8f2")
	chatCyan        = lipgloss.Color("#8be9fd")
	chatGreen       = lipgloss.Color("#50fa7b")
	chatPink        = lipgloss.Color("#ff79c6")
	chatPurple      = lipgloss.Color("#bd93f9")
	chatRed         = lipgloss.Color("#ff5555")
)

var headerStyle = lipgloss.NewStyle().Background(chatCurrentLine).Foreground(chatPurple).Bold(true).Margin(10).Padding(1).PaddingTop(0)

const header = `Docs Assistant

Ask a question about the documentation. Press esc to quit.`

type chatModel struct {
	viewport viewport.Model
	textarea textarea.Model
	err      error
	ctx      context.Context

	toLLM   chan models.ChatMessage
	fromLLM chan []models.ChatMessage
	errors  chan error
}

func newChatModel(ctx context.Context, toLLM chan models.ChatMessage, fromLLM chan []models.ChatMessage, errors chan error) chatModel {
	ta := textarea.New()
	ta.Placeholder = "Ask a question..."
	ta.Focus()

	ta.Prompt = "┃ "
	ta.CharLimit = 280

	ta.SetHeight(3)

	// Remove cursor line styling
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()

	ta.ShowLineNumbers = false

	vp := viewport.New(80, 20)
	vp.SetContent(headerStyle.Render(header))

	ta.KeyMap.InsertNewline.SetEnabled(false)

	return chatModel{
		ctx:      ctx,
		textarea: ta,
		viewport: vp,
		err:      nil,
		fromLLM:  fromLLM,
		toLLM:    toLLM,
		errors:   errors,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.subscribeToFromLLM(),
		m.subscribeToErrors(),
	)
}

func (m chatModel) subscribeToFromLLM() tea.Cmd {
	return func() tea.Msg {
		select {
		case x := <-m.fromLLM:
			return x
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m chatModel) subscribeToErrors() tea.Cmd {
	return func() tea.Msg {
		select {
		case x := <-m.errors:
			return x
		case <-m.ctx.Done():
			return nil
		}
	}
}

var roleToStyle = map[models.ChatMessageRole]lipgloss.Style{
	models.ChatMessageRoleSystem:    lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).MaxWidth(90).Background(chatBackground).Foreground(chatGreen),
	models.ChatMessageRoleUser:      lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(chatBackground).Foreground(chatPink),
	models.ChatMessageRoleAssistant: lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(chatBackground).Foreground(chatCyan),
}

var errorStyle = lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(chatBackground).Foreground(chatRed)

var roleToIcon = map[models.ChatMessageRole]string{
	models.ChatMessageRoleSystem:    "🤖",
	models.ChatMessageRoleUser:      "🥷",
	models.ChatMessageRoleAssistant: "✨",
}

func formatMessage(msg models.ChatMessage) string {
	style, ok := roleToStyle[msg.Role]
	if !ok {
		return msg.Content
	}
	icon, ok := roleToIcon[msg.Role]
	if !ok {
		icon = "🤷"
	}
	wrapped := wordwrap.String(strings.TrimSpace(icon+" "+msg.Content), 80)
	return style.Render(wrapped)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case error:
		m.err = msg
		return m, m.subscribeToErrors()
	case []models.ChatMessage:
		var sb strings.Builder
		for _, cm := range msg {
			sb.WriteString(formatMessage(cm))
			sb.WriteString("\n")
		}
		m.viewport.SetContent(sb.String())
		m.viewport.GotoBottom()
		return m, m.subscribeToFromLLM()
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - m.textarea.Height() - 3
		m.textarea.SetWidth(msg.Width)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			v := m.textarea.Value()

			if v == "" {
				// Don't send empty messages.
				return m, nil
			}

			m.textarea.Reset()
			m.toLLM <- models.ChatMessage{
				Role:    models.ChatMessageRoleUser,
				Content: v,
			}
			return m, nil
		default:
			// Send all other keypresses to the textarea.
			var cmd tea.Cmd
			m.textarea, cmd = m.textarea.Update(msg)
			return m, cmd
		}

	case cursor.BlinkMsg:
		// Textarea should also process cursor blinks.
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd

	default:
		return m, nil
	}
}

func (m chatModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s\n\n%s",
			m.viewport.View(),
			errorStyle.Render(wordwrap.String(m.err.Error(), 80)),
			m.textarea.View(),
		) + "\n\n"
	}
	return fmt.Sprintf("%s\n\n%s",
		m.viewport.View(),
		m.textarea.View(),
	) + "\n\n"
}
