package tui

import (
	"context"
	"fmt"
	"io"

	"taskchat-backend/internal/model"
	"taskchat-backend/internal/service"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// todoListItem adapts model.TodoItem to list.Item.
type todoListItem struct {
	model.TodoItem
}

func (i todoListItem) Title() string       { return i.Text }
func (i todoListItem) Description() string { return "" }
func (i todoListItem) FilterValue() string { return i.Text }

type todoDelegate struct{}

func (d todoDelegate) Height() int                               { return 1 }
func (d todoDelegate) Spacing() int                              { return 0 }
func (d todoDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d todoDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoListItem)
	if !ok {
		return
	}

	box := mutedStyle.Render(boxUnchecked)
	text := it.Text
	if it.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s", prefix, box, text)
}

var (
	addKey    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	toggleKey = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	deleteKey = key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete"))
)

type todoPane struct {
	todos *service.TodoStore
	list  list.Model
	input textinput.Model

	adding bool
}

func newTodoPane(todos *service.TodoStore) todoPane {
	l := list.New(nil, todoDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{addKey, toggleKey, deleteKey} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{addKey, toggleKey, deleteKey} }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 200

	p := todoPane{
		todos: todos,
		list:  l,
		input: ti,
	}
	p.refresh()
	return p
}

// refresh reloads the list from the store and rebuilds the header.
func (p *todoPane) refresh() {
	items := p.todos.Items()
	listItems := make([]list.Item, 0, len(items))
	for _, it := range items {
		listItems = append(listItems, todoListItem{it})
	}
	p.list.SetItems(listItems)

	stats := p.todos.Stats()
	p.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		"Todos",
		successStyle.Render("✔"), stats.Completed,
		pendingStyle.Render("•"), stats.Pending,
		accentStyle.Render("Total"), stats.Total,
	)
}

func (p *todoPane) selected() (model.TodoItem, bool) {
	it, ok := p.list.SelectedItem().(todoListItem)
	if !ok {
		return model.TodoItem{}, false
	}
	return it.TodoItem, true
}

// capturing reports whether key presses belong to the text input.
func (p todoPane) capturing() bool {
	return p.adding
}

func (p todoPane) Update(msg tea.Msg) (todoPane, tea.Cmd) {
	ctx := context.Background()

	if p.adding {
		if k, ok := msg.(tea.KeyMsg); ok {
			switch k.String() {
			case "enter":
				// blank text keeps the input open and says nothing
				if _, added := p.todos.Add(ctx, p.input.Value()); !added {
					return p, nil
				}
				p.refresh()
				p.list.Select(0)
				p.stopAdding()
				return p, nil
			case "esc":
				p.stopAdding()
				return p, nil
			}
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, addKey):
			p.adding = true
			p.input.SetValue("")
			return p, p.input.Focus()
		case key.Matches(k, toggleKey):
			if item, ok := p.selected(); ok {
				p.todos.Toggle(ctx, item.ID)
				p.refresh()
			}
			return p, nil
		case key.Matches(k, deleteKey):
			if item, ok := p.selected(); ok {
				p.todos.Delete(ctx, item.ID)
				p.refresh()
			}
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return p, cmd
}

func (p *todoPane) stopAdding() {
	p.adding = false
	p.input.SetValue("")
	p.input.Blur()
}

func (p *todoPane) SetSize(width, height int) {
	if p.adding {
		height -= 3
	}
	p.list.SetSize(width, height)
	p.input.Width = width - 4
}

func (p todoPane) View() string {
	stats := p.todos.Stats()
	content := p.list.View() + "\n" + helpStyle.Render(progressBar(stats.Completed, stats.Total, 20))

	if p.adding {
		content += "\n" + panelStyle.Render("Add new todo\n"+p.input.View())
	}
	return content
}
