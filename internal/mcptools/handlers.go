package mcptools

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judge"
)

// JudgeService handles MCP tool calls by delegating to a judge.Service.
type JudgeService struct {
	svc *judge.Service
}

// NewJudgeService creates a JudgeService around svc.
func NewJudgeService(svc *judge.Service) *JudgeService {
	return &JudgeService{svc: svc}
}

// Judge runs one judgment. Failures come back as tool errors carrying the
// same message the HTTP API would return.
func (s *JudgeService) Judge(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input JudgeInput,
) (*mcp.CallToolResult, JudgeOutput, error) {
	v, jerr := s.svc.Judge(ctx, judge.Input{Context: input.Context, Query: input.Query})
	if jerr != nil {
		return nil, JudgeOutput{}, errors.New(jerr.Message)
	}
	return nil, JudgeOutput{
		ID:         v.ID,
		Result:     v.Result,
		Domains:    v.Domains,
		References: v.Snippets,
		Attempts:   v.Attempts,
	}, nil
}

// GetResult returns a stored judgment by ID.
func (s *JudgeService) GetResult(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetResultInput,
) (*mcp.CallToolResult, GetResultOutput, error) {
	rec, jerr := s.svc.Result(ctx, input.ID)
	if jerr != nil {
		return nil, GetResultOutput{}, errors.New(jerr.Message)
	}
	out := GetResultOutput{
		ID:        rec.ID,
		Context:   rec.Context,
		Query:     rec.Query,
		Result:    rec.Result,
		Domains:   rec.Domains,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !rec.ExpiresAt.IsZero() {
		out.ExpiresAt = rec.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return nil, out, nil
}
