// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/faqbot/internal/core/domain"
)

// ContextList displays the context items an answer was grounded on.
type ContextList struct {
	items    []domain.ContextItem
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewContextList creates an empty context list.
func NewContextList(s *styles.Styles) *ContextList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ContextList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles list navigation messages.
func (c *ContextList) Update(msg tea.Msg) (*ContextList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			c.MoveUp()
		case "down", "j":
			c.MoveDown()
		}
	}
	return c, nil
}

// View renders the list.
func (c *ContextList) View() string {
	if len(c.items) == 0 {
		return c.styles.Muted.Render("No context")
	}

	lines := make([]string, 0, len(c.items)+2)
	lines = append(lines, c.styles.Subtitle.Render(fmt.Sprintf("Context (%d)", len(c.items))), "")

	// Each item takes two lines.
	visible := (c.height - 2) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if c.selected >= visible {
		start = c.selected - visible + 1
	}
	end := start + visible
	if end > len(c.items) {
		end = len(c.items)
	}

	for i := start; i < end; i++ {
		lines = append(lines, c.renderItem(i, &c.items[i]))
	}

	return strings.Join(lines, "\n")
}

func (c *ContextList) renderItem(index int, item *domain.ContextItem) string {
	indicator := "  "
	if index == c.selected {
		indicator = "> "
	}

	label := item.RecordID
	score := fmt.Sprintf("%.2f", item.Score)
	if item.Fallback {
		label = "(fallback)"
		score = "-"
	}

	var head string
	if index == c.selected {
		head = c.styles.Selected.Render(indicator+label) + " " + c.styles.Score(item.Score).Render(score)
	} else {
		head = c.styles.Normal.Render(indicator+label) + " " + c.styles.Score(item.Score).Render(score)
	}

	preview := strings.Join(strings.Fields(item.Text), " ")
	maxLen := c.width - 6
	if maxLen < 20 {
		maxLen = 20
	}
	if runes := []rune(preview); len(runes) > maxLen {
		preview = string(runes[:maxLen-3]) + "..."
	}

	return head + "\n" + c.styles.Muted.Render("    "+preview)
}

// SetItems replaces the list contents and resets the selection.
func (c *ContextList) SetItems(items []domain.ContextItem) {
	c.items = items
	c.selected = 0
}

// Items returns the current items.
func (c *ContextList) Items() []domain.ContextItem {
	return c.items
}

// Selected returns the index of the selected item.
func (c *ContextList) Selected() int {
	return c.selected
}

// SelectedItem returns the selected item, or nil if the list is empty.
func (c *ContextList) SelectedItem() *domain.ContextItem {
	if c.selected < 0 || c.selected >= len(c.items) {
		return nil
	}
	return &c.items[c.selected]
}

// MoveUp moves selection up.
func (c *ContextList) MoveUp() {
	if c.selected > 0 {
		c.selected--
	}
}

// MoveDown moves selection down.
func (c *ContextList) MoveDown() {
	if c.selected < len(c.items)-1 {
		c.selected++
	}
}

// SetDimensions sets the component dimensions.
func (c *ContextList) SetDimensions(width, height int) {
	c.width = width
	c.height = height
}

// Count returns the number of items.
func (c *ContextList) Count() int {
	return len(c.items)
}
