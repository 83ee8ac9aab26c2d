// Package tui provides an interactive terminal interface for asking the FAQ.
package tui

import (
	"github.com/custodia-labs/faqbot/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Retrieval supplies default options and the index summary.
	Retrieval driving.RetrievalService

	// Answer answers questions.
	Answer driving.AnswerService
}

// NewPorts creates a new Ports aggregate.
func NewPorts(retrieval driving.RetrievalService, answer driving.AnswerService) *Ports {
	return &Ports{Retrieval: retrieval, Answer: answer}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
