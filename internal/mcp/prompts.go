package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"personamcp/internal/persona"
)

// PromptName is the name of a persona's system prompt.
func PromptName(id string) string { return id + "-system" }

func (s *Server) registerPrompt(p *persona.Persona) {
	s.mcpServer.AddPrompt(
		mcp.NewPrompt(PromptName(p.ID()),
			mcp.WithPromptDescription(fmt.Sprintf("Use %s as the session's system instructions, with safety guidelines applied", p.Name())),
			mcp.WithArgument("user", mcp.ArgumentDescription("User name or handle; replaces {{user}}")),
			mcp.WithArgument("char", mcp.ArgumentDescription("Character name; replaces {{char}}")),
		),
		func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			return s.systemPrompt(ctx, p, req.Params.Arguments)
		},
	)
}

// systemPrompt renders the composed prompt as a single user message; MCP
// prompt messages have no system role.
func (s *Server) systemPrompt(ctx context.Context, p *persona.Persona, args map[string]string) (*mcp.GetPromptResult, error) {
	start := time.Now()
	text, err := p.SystemPrompt(ctx, args["user"], args["char"])
	s.logger.LogToolCall(PromptName(p.ID()), start, err)
	if err != nil {
		return nil, err
	}

	return mcp.NewGetPromptResult(
		fmt.Sprintf("System prompt for %s", p.Name()),
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		},
	), nil
}
