package mcp

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"personamcp/internal/persona"
	"personamcp/internal/worldbook"
)

const (
	uriScheme     = "persona://"
	entryTemplate = uriScheme + "{persona}/worldbook/{entryId}"

	mimeMarkdown = "text/markdown"
	mimeJSON     = "application/json"
)

// PersonaURI addresses a persona's Markdown template.
func PersonaURI(id string) string { return uriScheme + id }

// WorldbookURI addresses a persona's worldbook listing.
func WorldbookURI(id string) string { return uriScheme + id + "/worldbook" }

// EntryURI addresses one worldbook entry.
func EntryURI(id, entryID string) string {
	return WorldbookURI(id) + "/" + url.PathEscape(entryID)
}

func (s *Server) registerResources(p *persona.Persona) {
	desc := fmt.Sprintf("Persona template of %s with {{user}} and {{char}} placeholders", p.Name())
	if d := p.Description(); d != "" {
		desc = d
	}

	s.mcpServer.AddResource(
		mcp.NewResource(PersonaURI(p.ID()), p.Name(),
			mcp.WithResourceDescription(desc),
			mcp.WithMIMEType(mimeMarkdown),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			text, err := p.Template(ctx)
			if err != nil {
				return nil, err
			}
			return textContents(req.Params.URI, mimeMarkdown, text), nil
		},
	)

	if p.Worldbook() == nil {
		return
	}
	s.mcpServer.AddResource(
		mcp.NewResource(WorldbookURI(p.ID()), p.Name()+" worldbook",
			mcp.WithResourceDescription(fmt.Sprintf("Worldbook entry summaries of %s", p.Name())),
			mcp.WithMIMEType(mimeJSON),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			summaries, err := p.Worldbook().ListEntries(ctx)
			if err != nil {
				return nil, err
			}
			text, err := renderJSON(summaries)
			if err != nil {
				return nil, err
			}
			return textContents(req.Params.URI, mimeJSON, text), nil
		},
	)
}

func (s *Server) registerEntryTemplate() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(entryTemplate, "Worldbook entry",
			mcp.WithTemplateDescription("One complete worldbook entry of a persona"),
			mcp.WithTemplateMIMEType(mimeJSON),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			text, err := s.readEntry(ctx, req.Params.URI)
			if err != nil {
				return nil, err
			}
			return textContents(req.Params.URI, mimeJSON, text), nil
		},
	)
}

// readEntry resolves persona://{persona}/worldbook/{entryId}.
func (s *Server) readEntry(ctx context.Context, uri string) (string, error) {
	personaID, entryID, err := parseEntryURI(uri)
	if err != nil {
		return "", err
	}

	p, err := s.registry.Get(personaID)
	if err != nil {
		return "", err
	}
	if p.Worldbook() == nil {
		return "", fmt.Errorf("persona %s has no worldbook", personaID)
	}

	entry, err := p.Worldbook().GetEntry(ctx, entryID)
	if err != nil {
		return "", err
	}
	return renderJSON(entry)
}

func parseEntryURI(uri string) (personaID, entryID string, err error) {
	rest, ok := strings.CutPrefix(uri, uriScheme)
	if !ok {
		return "", "", fmt.Errorf("unsupported resource uri: %s", uri)
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] != "worldbook" || parts[2] == "" {
		return "", "", fmt.Errorf("unsupported resource uri: %s", uri)
	}

	entryID, err = url.PathUnescape(parts[2])
	if err != nil {
		return "", "", fmt.Errorf("%w: entry id in %s: %v", worldbook.ErrMissingArgument, uri, err)
	}
	return parts[0], entryID, nil
}

func textContents(uri, mimeType, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeType,
			Text:     text,
		},
	}
}
