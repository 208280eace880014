package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"personamcp/internal/persona"
	"personamcp/internal/worldbook"
)

// toolFunc produces either text, returned as is, or a value rendered as
// indented JSON.
type toolFunc func(ctx context.Context, args map[string]any) (any, error)

func (s *Server) addTool(tool mcp.Tool, fn toolFunc) {
	name := tool.Name
	s.tools[name] = fn
	s.toolOrder = append(s.toolOrder, name)

	s.mcpServer.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.invoke(ctx, name, fn, req.GetArguments()), nil
	})
}

// invoke runs fn and converts the outcome to a tool result. Failures become
// isError results so the client sees them and the session continues.
func (s *Server) invoke(ctx context.Context, name string, fn toolFunc, args map[string]any) *mcp.CallToolResult {
	start := time.Now()

	var text string
	out, err := fn(ctx, args)
	if err == nil {
		text, err = toText(out)
	}

	s.logger.LogToolCall(name, start, err)
	s.metrics.ObserveToolCall(name, start, err)

	if err != nil {
		return mcp.NewToolResultError("error: " + err.Error())
	}
	return mcp.NewToolResultText(text)
}

func toText(v any) (string, error) {
	if text, ok := v.(string); ok {
		return text, nil
	}
	return renderJSON(v)
}

func (s *Server) registerPersonaTools(p *persona.Persona) {
	id := p.ID()
	name := p.Name()

	s.addTool(mcp.NewTool(fmt.Sprintf("get_%s_persona", id),
		mcp.WithDescription(fmt.Sprintf("Get the persona Markdown of %s.", name)),
		mcp.WithReadOnlyHintAnnotation(true),
	), personaTool(p))

	s.addTool(mcp.NewTool(fmt.Sprintf("get_%s_system_prompt", id),
		mcp.WithDescription(fmt.Sprintf("Get the system prompt for %s: safety guidelines plus persona with {{user}} and {{char}} replaced.", name)),
		mcp.WithString("user", mcp.Description("How the user is addressed; replaces {{user}}")),
		mcp.WithString("char", mcp.Description("Character name; replaces {{char}}")),
		mcp.WithReadOnlyHintAnnotation(true),
	), systemPromptTool(p))

	s.addTool(mcp.NewTool(fmt.Sprintf("get_%s_safety_guidelines", id),
		mcp.WithDescription(fmt.Sprintf("Get the safety guidelines that apply to %s.", name)),
		mcp.WithReadOnlyHintAnnotation(true),
	), safetyTool(p))

	if p.Worldbook() == nil {
		return
	}
	s.addWorldbookTools(p, fmt.Sprintf("list_%s_worldbook_entries", id), fmt.Sprintf("get_%s_worldbook_entry", id), fmt.Sprintf("search_%s_worldbook", id))
}

// registerPrimaryAliases exposes the primary persona under unprefixed names.
func (s *Server) registerPrimaryAliases(p *persona.Persona) {
	s.addTool(mcp.NewTool("get_safety_guidelines",
		mcp.WithDescription("Get the shared safety guidelines."),
		mcp.WithReadOnlyHintAnnotation(true),
	), safetyTool(p))

	if p.Worldbook() == nil {
		return
	}
	s.addWorldbookTools(p, "list_worldbook_entries", "get_worldbook_entry", "search_worldbook")
}

func (s *Server) addWorldbookTools(p *persona.Persona, listName, getName, searchName string) {
	engine := p.Worldbook()
	name := p.Name()

	s.addTool(mcp.NewTool(listName,
		mcp.WithDescription(fmt.Sprintf("List summaries of the worldbook entries of %s.", name)),
		mcp.WithReadOnlyHintAnnotation(true),
	), dispatchTool(engine, worldbook.OpListEntries))

	s.addTool(mcp.NewTool(getName,
		mcp.WithDescription(fmt.Sprintf("Get one complete worldbook entry of %s by id.", name)),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id as returned by the listing")),
		mcp.WithReadOnlyHintAnnotation(true),
	), dispatchTool(engine, worldbook.OpGetEntry))

	s.addTool(mcp.NewTool(searchName,
		mcp.WithDescription(fmt.Sprintf("Search the worldbook of %s by case-insensitive text match and return the top_k scored hits.", name)),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for")),
		mcp.WithNumber("top_k", mcp.Description("Maximum number of results"), mcp.DefaultNumber(worldbook.DefaultTopK)),
		mcp.WithReadOnlyHintAnnotation(true),
	), dispatchTool(engine, worldbook.OpSearch))
}

func personaTool(p *persona.Persona) toolFunc {
	return func(ctx context.Context, _ map[string]any) (any, error) {
		return p.Template(ctx)
	}
}

func systemPromptTool(p *persona.Persona) toolFunc {
	return func(ctx context.Context, args map[string]any) (any, error) {
		return p.SystemPrompt(ctx, optionalString(args, "user"), optionalString(args, "char"))
	}
}

func safetyTool(p *persona.Persona) toolFunc {
	return func(ctx context.Context, _ map[string]any) (any, error) {
		return p.Safety(ctx)
	}
}

func dispatchTool(engine *worldbook.Engine, op string) toolFunc {
	return func(ctx context.Context, args map[string]any) (any, error) {
		return worldbook.Dispatch(ctx, engine, op, args)
	}
}

// optionalString returns args[key] when it is a string and "" otherwise.
func optionalString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
