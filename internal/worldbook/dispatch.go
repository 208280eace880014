package worldbook

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Operation names understood by Dispatch.
const (
	OpListEntries = "list_entries"
	OpGetEntry    = "get_entry"
	OpSearch      = "search"
)

// Operations lists every operation Dispatch implements.
func Operations() []string {
	return []string{OpListEntries, OpGetEntry, OpSearch}
}

// Dispatch runs op against engine with loosely typed arguments as they
// arrive from a protocol layer:
//
//	list_entries  {}
//	get_entry     {"id": string}
//	search        {"query": string, "top_k"?: number}
//
// The returned value is a []Summary, an Entry or a *SearchResult.
func Dispatch(ctx context.Context, engine *Engine, op string, args map[string]any) (any, error) {
	switch op {
	case OpListEntries:
		return engine.ListEntries(ctx)

	case OpGetEntry:
		id, err := StringArg(args, "id")
		if err != nil {
			return nil, err
		}
		return engine.GetEntry(ctx, id)

	case OpSearch:
		query, err := StringArg(args, "query")
		if err != nil {
			return nil, err
		}
		return engine.Search(ctx, query, TopKArg(args))

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
}

// StringArg returns a required string argument. A missing key or a
// non-string value fails with ErrMissingArgument. The empty string is a
// valid value.
func StringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrMissingArgument, name, v)
	}
	return s, nil
}

// TopKArg reads the optional "top_k" argument. Missing or non-numeric values
// yield DefaultTopK, values below 1 become 1 and fractions truncate toward
// zero.
func TopKArg(args map[string]any) int {
	v, ok := args["top_k"]
	if !ok || v == nil {
		return DefaultTopK
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		return NormalizeTopK(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return DefaultTopK
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return DefaultTopK
		}
		f = parsed
	default:
		return DefaultTopK
	}

	if math.IsNaN(f) {
		return DefaultTopK
	}
	if f < 1 {
		return 1
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	return NormalizeTopK(int(f))
}
