package tui

import (
	"context"
	"errors"
	"strings"

	"taskchat-backend/internal/model"
	"taskchat-backend/internal/service"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// chatSettledMsg is delivered when a Send returns.
type chatSettledMsg struct {
	err error
}

func sendCmd(conv *service.Conversation, text string) tea.Cmd {
	return func() tea.Msg {
		return chatSettledMsg{err: conv.Send(context.Background(), text)}
	}
}

type chatPane struct {
	conv     *service.Conversation
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	waiting bool
	notice  string
}

func newChatPane(conv *service.Conversation) chatPane {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask something..."
	ti.CharLimit = 2000

	p := chatPane{
		conv:     conv,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
	}
	p.refresh()
	return p
}

// blocked reports whether the input accepts a new message.
func (p chatPane) blocked() bool {
	snapshot := p.conv.Snapshot()
	return p.waiting || snapshot.IsLoading || snapshot.Error != nil
}

func (p *chatPane) focus() tea.Cmd {
	return p.input.Focus()
}

func (p *chatPane) blur() {
	p.input.Blur()
}

func (p chatPane) Update(msg tea.Msg) (chatPane, tea.Cmd) {
	switch msg := msg.(type) {
	case chatSettledMsg:
		p.waiting = false
		p.notice = ""
		switch {
		case errors.Is(msg.err, service.ErrRequestInFlight):
			p.notice = "Still waiting for the previous answer"
		case errors.Is(msg.err, service.ErrConversationFailed):
			p.notice = "Clear the conversation with ctrl+l to continue"
		}
		p.refresh()
		return p, nil

	case spinner.TickMsg:
		if !p.waiting {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		p.refresh()
		return p, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+l":
			p.conv.Clear()
			p.notice = ""
			p.refresh()
			return p, nil
		case "enter":
			text := strings.TrimSpace(p.input.Value())
			if text == "" || p.blocked() {
				return p, nil
			}
			p.input.SetValue("")
			p.waiting = true
			p.notice = ""
			return p, tea.Batch(sendCmd(p.conv, text), p.spinner.Tick)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			p.viewport, cmd = p.viewport.Update(msg)
			return p, cmd
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// refresh re-renders the transcript into the viewport.
func (p *chatPane) refresh() {
	p.viewport.SetContent(renderTranscript(p.conv.Snapshot()))
	p.viewport.GotoBottom()
}

func renderTranscript(snapshot model.ChatSnapshot) string {
	if len(snapshot.Messages) == 0 {
		return mutedStyle.Render("No messages yet.")
	}

	var b strings.Builder
	for i, turn := range snapshot.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if turn.Role == model.RoleUser {
			b.WriteString(userStyle.Render("You"))
		} else {
			b.WriteString(assistantStyle.Render("Assistant"))
		}
		b.WriteString("\n")
		b.WriteString(turn.Content)
	}
	return b.String()
}

func (p *chatPane) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height - 3
	p.input.Width = width - 4
	p.refresh()
}

func (p chatPane) View() string {
	snapshot := p.conv.Snapshot()

	var status string
	switch {
	case snapshot.Error != nil:
		status = errorStyle.Render("✖ "+*snapshot.Error) + " " + helpStyle.Render("ctrl+l clear")
	case p.waiting || snapshot.IsLoading:
		status = p.spinner.View() + " " + mutedStyle.Render("Thinking...")
	case p.notice != "":
		status = pendingStyle.Render(p.notice)
	default:
		status = helpStyle.Render("enter send • ctrl+l clear • pgup/pgdown scroll")
	}

	return p.viewport.View() + "\n" + status + "\n" + p.input.View()
}
