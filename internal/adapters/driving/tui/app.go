package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/faqbot/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView *menu.View
	chatView *chat.View

	currentView messages.ViewType
	info        domain.IndexInfo

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	info := ports.Retrieval.Info()

	menuView := menu.NewView(s)
	menuView.SetSummary(summary(info))

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		menuView:    menuView,
		chatView:    chat.NewView(s, keymap.DefaultKeyMap(), ports.Answer, ports.Retrieval.Defaults()),
		currentView: messages.ViewMenu,
		info:        info,
	}, nil
}

// WithContext sets the context for the app and its answer requests.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("faqbot"),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
		case messages.ViewChat:
			a.chatView, cmd = a.chatView.Update(msg)
		case messages.ViewIndex, messages.ViewHelp:
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
		}
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		if msg.View == messages.ViewChat {
			a.chatView.Reset()
			return a, a.chatView.Init()
		}
		return a, nil

	case messages.AnswerReceived, messages.ErrorOccurred:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	if a.currentView == messages.ViewChat {
		a.chatView, cmd = a.chatView.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewIndex:
		return a.viewIndex()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

func (a *App) viewIndex() string {
	m := a.info.Manifest
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Index"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Records:     %d\n", a.info.Rows)
	fmt.Fprintf(&b, "Dimensions:  %d\n", a.info.Dimensions)
	fmt.Fprintf(&b, "Model:       %s\n", m.Model)
	fmt.Fprintf(&b, "Build:       %s\n", m.BuildID)
	if !m.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Created:     %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if m.CorpusPath != "" {
		fmt.Fprintf(&b, "Corpus:      %s\n", m.CorpusPath)
	}
	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back to Menu
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  a, i, ?     Ask, Index, Help
  q           Quit

Ask:
  (type)      Enter a question
  enter       Ask
  esc         Back to Menu

Answer:
  n           New question
  c           Show or hide the retrieved context
  j/k, ↑/↓    Move through context entries

[esc] back to menu`
}

func summary(info domain.IndexInfo) string {
	if info.Manifest.Model == "" {
		return fmt.Sprintf("%d records", info.Rows)
	}
	return fmt.Sprintf("%d records, %s", info.Rows, info.Manifest.Model)
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
}
