// Package menu provides the start screen of the TUI.
package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui/styles"
)

// Item is one entry of the menu.
type Item struct {
	Label    string
	Hint     string
	Shortcut string
	View     messages.ViewType
	Quit     bool
}

// View lists the screens the user can open.
type View struct {
	styles   *styles.Styles
	summary  string
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the menu.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		items: []Item{
			{Label: "Ask a question", Hint: "grounded answer from the FAQ", Shortcut: "a", View: messages.ViewChat},
			{Label: "Index", Hint: "records, model and build", Shortcut: "i", View: messages.ViewIndex},
			{Label: "Help", Hint: "keys", Shortcut: "?", View: messages.ViewHelp},
			{Label: "Quit", Shortcut: "q", Quit: true},
		},
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor and opens the selected item.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch k := msg.String(); k {
		case "up", "k":
			v.selected = max(v.selected-1, 0)
		case "down", "j":
			v.selected = min(v.selected+1, len(v.items)-1)
		case "enter":
			return v, v.open(v.items[v.selected])
		default:
			for i, item := range v.items {
				if item.Shortcut == k {
					v.selected = i
					return v, v.open(item)
				}
			}
		}
	}
	return v, nil
}

func (v *View) open(item Item) tea.Cmd {
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("faqbot"))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render("Answers from your FAQ"))
	b.WriteString("\n")
	if v.summary != "" {
		b.WriteString(v.styles.Subtitle.Render(v.summary))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, item := range v.items {
		label := "[" + item.Shortcut + "] " + item.Label
		if i == v.selected {
			b.WriteString("> " + v.styles.Selected.Render(label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		if item.Hint != "" {
			b.WriteString("  " + v.styles.Muted.Render(item.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("j/k move  enter open"))
	return b.String()
}

// SetDimensions sets the view size and marks it ready.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// SetSummary sets the index summary shown under the title.
func (v *View) SetSummary(summary string) {
	v.summary = summary
}

// Selected returns the cursor position.
func (v *View) Selected() int {
	return v.selected
}
