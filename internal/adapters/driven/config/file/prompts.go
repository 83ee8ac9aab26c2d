package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/faqbot/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// errEmptyPrompt marks a prompt file that holds only whitespace.
var errEmptyPrompt = errors.New("prompt file is empty")

// builtinPrompt is a prompt shipped with the binary.
type builtinPrompt struct {
	name    string
	summary string
	text    string
}

// builtinPrompts are written to the prompt directory on first use and
// served whenever the corresponding file is missing or blank.
var builtinPrompts = []builtinPrompt{
	{
		name:    driven.PromptAnswerSystem,
		summary: "System instruction sent with every answer request",
		text: `You are an FAQ assistant.
You must answer ONLY based on information explicitly provided in the CONTEXT
section. If provided information is not sufficient to answer the query, reply exactly:
"I’m sorry, I don’t have that information."
Do not add outside knowledge or speculation.`,
	},
	{
		name:    driven.PromptFallbackContext,
		summary: "Context used when no FAQ entry is similar enough",
		text: `This assistant answers questions from a curated list of frequently asked
questions. The question did not match any entry closely enough. Tell the user
politely that the answer is not in the FAQ and suggest rephrasing the question
or contacting support.`,
	},
}

func defaultPrompt(name string) (string, bool) {
	for _, p := range builtinPrompts {
		if p.name == name {
			return p.text, true
		}
	}
	return "", false
}

// PromptStore serves prompts from <dir>/<name>.txt, falling back to the
// built-in text when a file is missing, unreadable or blank.
//
// Nothing touches the disk until the first Load, which seeds the
// directory with the built-in prompts and a README.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a store rooted at dir.
// If dir is empty, defaults to ~/.faqbot/prompts.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".faqbot", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the prompt called name.
// Only unknown names without a file on disk are an error.
func (s *PromptStore) Load(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid prompt name %q", name)
	}
	s.seedOnce.Do(s.seed)

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	text, err := s.read(name)
	if err != nil {
		builtin, known := defaultPrompt(name)
		if !known {
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
		text = builtin
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cache[name]; ok {
		return existing, nil
	}
	s.cache[name] = text
	return text, nil
}

// Reload drops cached prompts so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func (s *PromptStore) read(name string) (string, error) {
	if s.seedErr != nil {
		return "", s.seedErr
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errEmptyPrompt
	}
	return text, nil
}

// seed creates the directory, any missing built-in prompt files and the
// README. Existing files are left alone.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	for _, p := range builtinPrompts {
		if err := writeIfMissing(s.path(p.name), p.text); err != nil {
			s.seedErr = fmt.Errorf("create default prompt %q: %w", p.name, err)
			return
		}
	}
	if err := writeIfMissing(filepath.Join(s.dir, "README.md"), readme()); err != nil {
		s.seedErr = fmt.Errorf("create prompt README: %w", err)
	}
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return f.Close()
}

func readme() string {
	var b strings.Builder
	b.WriteString("# faqbot Prompts\n\n")
	b.WriteString("This directory contains the prompts faqbot uses when answering questions.\n\n")
	b.WriteString("## Files\n\n")
	for _, p := range builtinPrompts {
		fmt.Fprintf(&b, "- `%s.txt` - %s\n", p.name, p.summary)
	}
	b.WriteString("\nEdit a file to change the behaviour. Changes take effect the next time a\n")
	b.WriteString("command or server starts. Empty or deleted files fall back to the default.\n")
	return b.String()
}
