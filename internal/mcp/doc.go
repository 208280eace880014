// Package mcp provides the Model Context Protocol (MCP) server for personamcp using mcp-go.
//
// Every persona in the registry is exposed to AI assistants as a set of
// read-only tools, resources and a prompt. Tool names are derived from the
// persona id:
//
//	get_{id}_persona               persona Markdown as stored
//	get_{id}_system_prompt         safety guidelines + persona, placeholders replaced
//	get_{id}_safety_guidelines     safety guidelines text
//	list_{id}_worldbook_entries    entry summaries
//	get_{id}_worldbook_entry       one full entry by id
//	search_{id}_worldbook          scored text search, top_k defaults to 5
//
// The primary persona additionally answers to list_worldbook_entries,
// get_worldbook_entry, search_worldbook and get_safety_guidelines.
//
// # Resources and prompts
//
//	persona://{id}                          text/markdown template
//	persona://{id}/worldbook                application/json summaries
//	persona://{persona}/worldbook/{entryId} application/json entry (template)
//
// The prompt {id}-system returns the composed system prompt.
//
// # Errors
//
// Tool failures are reported as isError results whose text starts with
// "error: ", so a bad call never ends the session. Successful structured
// results are indented JSON text.
//
// # Transports
//
// The server runs over stdio by default:
//
//	personamcp serve
//
// or over streamable HTTP, with Prometheus metrics alongside:
//
//	personamcp serve --http :8080   # POST /mcp, GET /metrics
//
// # References
//
// - MCP Specification: https://modelcontextprotocol.io/specification
// - mcp-go Library: https://github.com/mark3labs/mcp-go
package mcp
