package tui

import (
	"strings"

	"taskchat-backend/internal/service"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type pane int

const (
	todosPane pane = iota
	chatPaneID
)

// App is the root model: a todo pane and a chat pane, switched with tab.
type App struct {
	active pane
	todos  todoPane
	chat   chatPane

	width  int
	height int
}

func NewApp(todos *service.TodoStore, conv *service.Conversation) App {
	return App{
		active: todosPane,
		todos:  newTodoPane(todos),
		chat:   newChatPane(conv),
		width:  80,
		height: 24,
	}
}

// Run starts the program on the alternate screen and blocks until it quits.
func Run(todos *service.TodoStore, conv *service.Conversation) error {
	_, err := tea.NewProgram(NewApp(todos, conv), tea.WithAltScreen()).Run()
	return err
}

func (a App) Init() tea.Cmd {
	return nil
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.resize()
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "tab":
			if a.active == todosPane && a.todos.capturing() {
				break
			}
			return a.switchPane()
		case "esc":
			if a.active == chatPaneID {
				return a, tea.Quit
			}
		}

	case chatSettledMsg, spinner.TickMsg:
		// chat traffic reaches the chat pane whichever pane is active
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	switch a.active {
	case todosPane:
		wasAdding := a.todos.capturing()
		a.todos, cmd = a.todos.Update(msg)
		if wasAdding != a.todos.capturing() {
			a.resize()
		}
	case chatPaneID:
		a.chat, cmd = a.chat.Update(msg)
	}
	return a, cmd
}

func (a App) switchPane() (tea.Model, tea.Cmd) {
	if a.active == todosPane {
		a.active = chatPaneID
		return a, a.chat.focus()
	}
	a.active = todosPane
	a.chat.blur()
	return a, nil
}

func (a *App) resize() {
	// tabs line plus panel border and padding
	innerWidth := a.width - 4
	innerHeight := a.height - 4
	a.todos.SetSize(innerWidth, innerHeight)
	a.chat.SetSize(innerWidth, innerHeight)
}

func (a App) View() string {
	tabs := []string{inactiveTabStyle.Render("Todos"), inactiveTabStyle.Render("Chat")}
	content := a.todos.View()
	if a.active == chatPaneID {
		tabs[1] = activeTabStyle.Render("Chat")
		content = a.chat.View()
	} else {
		tabs[0] = activeTabStyle.Render("Todos")
	}

	header := strings.Join(tabs, "  ") + "  " + helpStyle.Render("tab switch • ctrl+c quit")
	return header + "\n" + panelStyle.Render(content)
}
