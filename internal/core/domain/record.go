package domain

import (
	"fmt"
	"strings"
)

// Record is one question/answer fact from the corpus.
// Records are immutable inputs to the index builder.
type Record struct {
	// ID is a stable identifier, unique within a corpus.
	// Uniqueness is the corpus author's responsibility; duplicates
	// are kept as distinct rows.
	ID string `json:"id"`

	// Question is the question text. Required.
	Question string `json:"question"`

	// Answer is the answer text. Required.
	Answer string `json:"answer"`

	// SourceLocator points back to where the record came from (may be empty).
	SourceLocator string `json:"source_locator,omitempty"`
}

// Validate checks the fields the builder depends on.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return fmt.Errorf("%w: record %q has an empty question", ErrCorpusValidation, r.ID)
	}
	if strings.TrimSpace(r.Answer) == "" {
		return fmt.Errorf("%w: record %q has an empty answer", ErrCorpusValidation, r.ID)
	}
	return nil
}

// EmbeddingSubject returns the text that is embedded for this record.
// Both question and answer are included so that queries phrased as
// answers or bare keywords still land near the record.
func (r Record) EmbeddingSubject() string {
	return "Q: " + r.Question + "\nA: " + r.Answer
}

// ContextText formats the record for the generation context.
func (r Record) ContextText() string {
	return "FAQ ID: " + r.ID + "\nQ: " + r.Question + "\nA: " + r.Answer
}
