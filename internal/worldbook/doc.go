// Package worldbook implements the retrieval core behind a persona's
// knowledge base.
//
// A worldbook is a JSON document with an "entries" array. Each entry has a
// unique id, optional keys, comment, tags and chunks:
//
//	{
//	  "meta": {"title": "..."},
//	  "entries": [
//	    {"id": "a", "keys": ["fox"], "comment": "quick fox", "chunks": [{"id": "c1", "text": "..."}]}
//	  ]
//	}
//
// # Components
//
// A Store reads the document through a source.Locator and optionally keeps
// the first successful parse for the life of the process. An Engine answers
// three read-only operations on top of a Store:
//   - ListEntries: summaries in document order
//   - GetEntry: one entry, returned verbatim including unknown fields
//   - Search: case-insensitive substring search scored by a Policy
//
// Dispatch routes loosely typed protocol arguments to an Engine and is the
// single entry point used by the MCP server and the CLI.
//
// # Errors
//
// Every failure wraps one of ErrSourceUnavailable, ErrMalformedDocument,
// ErrEntryNotFound, ErrMissingArgument or ErrUnknownOperation. Use errors.Is
// to classify them.
package worldbook
