package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/logger"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query     string   `json:"query" jsonschema:"the question to find FAQ context for"`
	TopK      int      `json:"top_k,omitempty" jsonschema:"number of nearest records to consider (default from settings)"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum cosine similarity in [-1, 1] (default from settings)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Contexts     []ContextOutput `json:"contexts"`
	UsedFallback bool            `json:"used_fallback"`
	Scores       []float64       `json:"scores"`
}

// ContextOutput is a single context item.
type ContextOutput struct {
	Text     string  `json:"text"`
	RecordID string  `json:"record_id,omitempty"`
	Score    float64 `json:"score"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the FAQ"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer       string    `json:"answer"`
	Similarities []float64 `json:"similarities"`
	UsedFallback bool      `json:"used_fallback"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the FAQ entries most relevant to a question",
	}, s.handleRetrieve)

	if s.ports.Answer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using only the FAQ",
		}, s.handleAsk)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	opts := s.ports.Retrieval.Defaults()
	if input.TopK > 0 {
		opts.TopK = input.TopK
	}
	if input.Threshold != nil {
		opts.Threshold = *input.Threshold
	}

	result, err := s.ports.Retrieval.RetrieveWith(ctx, input.Query, opts)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Contexts:     make([]ContextOutput, len(result.Contexts)),
		UsedFallback: result.UsedFallback,
		Scores:       result.Scores,
	}
	for i, item := range result.Contexts {
		output.Contexts[i] = ContextOutput{
			Text:     item.Text,
			RecordID: item.RecordID,
			Score:    item.Score,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation. Generation failures are
// reported as the apology text rather than a tool error.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answer.Ask(ctx, input.Query, s.ports.Retrieval.Defaults())
	if err != nil {
		if answer == nil {
			return nil, AskOutput{}, err
		}
		logger.Error("mcp ask: generation failed: %v", err)
		answer.Text = domain.ApologyText
	}

	return nil, AskOutput{
		Answer:       answer.Text,
		Similarities: answer.Similarities,
		UsedFallback: answer.UsedFallback,
	}, nil
}
