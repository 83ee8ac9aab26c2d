// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driving"
	"github.com/custodia-labs/faqbot/internal/logger"
)

// ErrNoAnswerService is reported when the view has no answer service.
var ErrNoAnswerService = errors.New("answer service not configured")

// View is the chat view: a question input, the latest answer, the
// context it was grounded on, and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	contexts  *list.ContextList
	statusbar *status.Bar

	answerService driving.AnswerService
	opts          domain.RetrievalOptions
	ctx           context.Context

	width        int
	height       int
	ready        bool
	err          error
	question     string
	answer       *domain.Answer
	focusInput   bool
	showContexts bool
}

// NewView creates a chat view. opts are the retrieval options used for
// every question.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	answerService driving.AnswerService,
	opts domain.RetrievalOptions,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQuestionInput(s),
		contexts:      list.NewContextList(s),
		statusbar:     status.NewBar(s, km),
		answerService: answerService,
		opts:          opts,
		ctx:           context.Background(),
		width:         80,
		height:        24,
		focusInput:    true,
	}
}

// WithContext sets the context used for answer requests.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			query := v.input.Value()
			if query == "" {
				return v, nil
			}
			v.question = query
			v.focusInput = false
			v.input.Blur()
			v.statusbar.SetState(status.StateThinking)
			return v, v.ask(query)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.NewQuestion):
		v.newQuestion()
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.Contexts):
		v.showContexts = !v.showContexts
		return v, nil
	}

	v.contexts, _ = v.contexts.Update(msg)
	return v, nil
}

// ask runs the answer pipeline off the UI goroutine.
func (v *View) ask(query string) tea.Cmd {
	svc, ctx, opts := v.answerService, v.ctx, v.opts
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoAnswerService}
		}
		answer, err := svc.Ask(ctx, query, opts)
		return messages.AnswerReceived{Query: query, Answer: answer, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	if msg.Err != nil && msg.Answer == nil {
		v.setError(msg.Err)
		return
	}

	answer := *msg.Answer
	if msg.Err != nil {
		logger.Error("chat: generation failed: %v", msg.Err)
		answer.Text = domain.ApologyText
	}

	v.err = nil
	v.answer = &answer
	v.contexts.SetItems(answer.Contexts)
	v.statusbar.SetState(status.StateAnswered)
	v.statusbar.SetAnswer(len(answer.Contexts), answer.UsedFallback)
}

func (v *View) setError(err error) {
	v.err = err
	v.answer = nil
	v.contexts.SetItems(nil)
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) newQuestion() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("faqbot"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.answer != nil {
		sections = append(sections,
			v.styles.Question.Render(v.question),
			v.styles.Answer.Width(v.width-4).Render(v.answer.Text),
			"",
		)
		if v.showContexts {
			sections = append(sections, v.contexts.View(), "")
		}
	}

	sections = append(sections, v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.contexts.SetDimensions(width, height-12)
	v.statusbar.SetWidth(width)
}

// Reset returns the view to an empty question.
func (v *View) Reset() {
	v.newQuestion()
	v.question = ""
	v.answer = nil
	v.err = nil
	v.showContexts = false
	v.contexts.SetItems(nil)
	v.statusbar.Clear()
}

// Query returns the text in the question input.
func (v *View) Query() string {
	return v.input.Value()
}

// Answer returns the latest answer, or nil.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// ContextsVisible reports whether the context panel is shown.
func (v *View) ContextsVisible() bool {
	return v.showContexts
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
