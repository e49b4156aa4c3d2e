// Package tui is the interactive items page: a list, an inline add form,
// and the current error, all rendered from item store snapshots.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/itemboard/internal/itemstore"
	"github.com/idilsaglam/itemboard/internal/model"
)

// Store is the part of *itemstore.Store the page needs.
type Store interface {
	State() itemstore.State
	Subscribe(fn func(itemstore.State)) (unsubscribe func())
	FetchItems(ctx context.Context) itemstore.Result[[]model.Item]
	AddItem(ctx context.Context, name string) itemstore.Result[model.Item]
}

// stateMsg carries a store snapshot into the update loop.
type stateMsg itemstore.State

type fetchSettledMsg struct {
	res itemstore.Result[[]model.Item]
}
type addSettledMsg struct{ res itemstore.Result[model.Item] }

// listItem adapts model.Item to bubbles/list.Item
type listItem struct{ it model.Item }

func (i listItem) Title() string       { return i.it.Name }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.it.Name }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)
	line := fmt.Sprintf("%s %s", mutedStyle.Render(bullet), it.it.Name)
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

var (
	submitBind  = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add"))
	refreshBind = key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh"))
)

// Model is the bubbletea model of the items page.
type Model struct {
	store   Store
	apiBase string

	// built once from the program context
	fetch tea.Cmd
	add   func(name string) tea.Cmd

	state   itemstore.State
	list    list.Model
	spinner spinner.Model

	// Add form, always shown and focused
	submitting bool // an add started from the form has not settled
	ti         textinput.Model

	width, height int
}

// New builds the page. ctx is handed to every store call the page makes;
// apiBase is only displayed.
func New(ctx context.Context, store Store, apiBase string) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = "Items"
	l.SetShowHelp(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.SetStatusBarItemName("item", "items")
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{submitBind, refreshBind} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{submitBind, refreshBind} }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New item name"
	ti.CharLimit = 200
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := Model{
		store:   store,
		apiBase: apiBase,
		fetch: func() tea.Msg {
			return fetchSettledMsg{store.FetchItems(ctx)}
		},
		add: func(name string) tea.Cmd {
			return func() tea.Msg { return addSettledMsg{store.AddItem(ctx, name)} }
		},
		list:    l,
		spinner: sp,
		ti:      ti,
		width:   80,
		height:  24,
	}
	m.setState(store.State())
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, store Store, apiBase string) error {
	p := tea.NewProgram(New(ctx, store, apiBase), tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := store.Subscribe(func(s itemstore.State) { p.Send(stateMsg(s)) })
	defer unsubscribe()
	_, err := p.Run()
	return err
}

func (m *Model) setState(s itemstore.State) {
	m.state = s
	li := make([]list.Item, 0, len(s.Items))
	for _, it := range s.Items {
		li = append(li, listItem{it: it})
	}
	m.list.SetItems(li)
}

// Init fetches the list once, on mount.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch, m.spinner.Tick, textinput.Blink)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch x := msg.(type) {
	case stateMsg:
		m.setState(itemstore.State(x))
		return m, nil
	case fetchSettledMsg:
		return m, nil
	case addSettledMsg:
		m.submitting = false
		m.ti.SetValue("")
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width, m.height = x.Width, x.Height
		return m, nil
	case tea.KeyMsg:
		switch x.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+r":
			return m, m.fetch
		case "enter":
			if m.state.Loading || m.submitting {
				return m, nil
			}
			name := strings.TrimSpace(m.ti.Value())
			if name == "" {
				return m, nil
			}
			m.submitting = true
			return m, m.add(name)
		case "up", "down", "pgup", "pgdown", "home", "end":
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	w, h := m.width, m.height
	listHeight := h - 10
	if m.state.HasError() {
		listHeight--
	}
	m.list.SetSize(max(w-4, 10), max(listHeight, 3))

	action := accentStyle.Render("enter: Add")
	if m.state.Loading || m.submitting {
		action = mutedStyle.Render(m.spinner.View() + " …")
	}
	sections := []string{borderStyle.Render("New item  " + action + "\n" + m.ti.View())}

	if m.state.HasError() {
		sections = append(sections, errorStyle.Render("Error: "+m.state.Err))
	}

	if len(m.state.Items) == 0 {
		sections = append(sections, titleStyle.Render("Items"), "", mutedStyle.Render("(no items yet)"))
	} else {
		sections = append(sections, m.list.View())
	}

	sections = append(sections, mutedStyle.Render("API base: "+m.apiBase))
	return panelString(strings.Join(sections, "\n"))
}
