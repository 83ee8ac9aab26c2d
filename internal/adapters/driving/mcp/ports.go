package mcp

import (
	"github.com/custodia-labs/faqbot/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Retrieval runs queries against the loaded index.
	Retrieval driving.RetrievalService

	// Answer generates grounded replies. Optional; without it the ask
	// tool is not registered.
	Answer driving.AnswerService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
