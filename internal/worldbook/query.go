package worldbook

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// DefaultTopK is the number of search results returned when the caller
// does not ask for a specific amount.
const DefaultTopK = 5

// Policy selects how search hits are scored.
type Policy string

const (
	// PolicyEntry scores each entry 1 when the query occurs anywhere in its
	// keys, comment, tags or chunk texts.
	PolicyEntry Policy = "entry"
	// PolicyWeighted scores keys +2 and comment +1 on one entry row, and adds
	// a separate score-3 row for every matching chunk.
	PolicyWeighted Policy = "weighted"
)

// ParsePolicy maps a configuration value to a Policy. Empty selects PolicyEntry.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyEntry, nil
	case PolicyEntry, PolicyWeighted:
		return p, nil
	default:
		return "", fmt.Errorf("unknown search policy %q (want %q or %q)", s, PolicyEntry, PolicyWeighted)
	}
}

// Summary is the listing form of an entry. Keys and ChunkCount are only
// filled in for detailed listings.
type Summary struct {
	ID         string   `json:"id"`
	Comment    string   `json:"comment,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Keys       []string `json:"keys,omitempty"`
	ChunkCount *int     `json:"chunkCount,omitempty"`
}

// Hit is one scored search row. Entry-level hits report ID and Comment;
// weighted hits report EntryID, plus ChunkID and Text for chunk rows.
type Hit struct {
	ID      string `json:"id,omitempty"`
	EntryID string `json:"entryId,omitempty"`
	Comment string `json:"comment,omitempty"`
	ChunkID string `json:"chunkId,omitempty"`
	Text    string `json:"text,omitempty"`
	Score   int    `json:"score"`
}

// Entry returns the id of the entry the hit belongs to.
func (h Hit) Entry() string {
	if h.EntryID != "" {
		return h.EntryID
	}
	return h.ID
}

// SearchResult is the answer to one search call.
type SearchResult struct {
	Query   string `json:"query"`
	Policy  Policy `json:"policy"`
	TopK    int    `json:"top_k"`
	Results []Hit  `json:"results"`
}

// scorer produces every hit for a lowercased query, in document order.
type scorer func(doc *Document, query string) []Hit

var scorers = map[Policy]scorer{
	PolicyEntry:    scoreEntries,
	PolicyWeighted: scoreWeighted,
}

// ListEntries summarizes every entry in document order.
func ListEntries(doc *Document, detailed bool) []Summary {
	out := make([]Summary, 0, len(doc.entries))
	for _, e := range doc.entries {
		s := Summary{
			ID:      e.ID,
			Comment: e.Comment,
			Tags:    slices.Clone(e.Tags),
		}
		if detailed {
			n := len(e.Chunks)
			s.Keys = slices.Clone(e.Keys)
			s.ChunkCount = &n
		}
		out = append(out, s)
	}
	return out
}

// GetEntry returns a copy of the entry with the given id.
func GetEntry(doc *Document, id string) (Entry, error) {
	entry, ok := doc.FindByID(id)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return entry, nil
}

// NormalizeTopK clamps n to at least 1.
func NormalizeTopK(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Search ranks entries against query using policy. Matching is
// case-insensitive literal substring containment; an empty query matches
// everything. Results are sorted by descending score, ties keep document
// order, and at most NormalizeTopK(topK) rows are returned.
func Search(doc *Document, query string, topK int, policy Policy) (*SearchResult, error) {
	score, ok := scorers[policy]
	if !ok {
		return nil, fmt.Errorf("unknown search policy %q", policy)
	}

	topK = NormalizeTopK(topK)
	hits := score(doc, strings.ToLower(query))

	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	return &SearchResult{
		Query:   query,
		Policy:  policy,
		TopK:    topK,
		Results: hits,
	}, nil
}

func scoreEntries(doc *Document, query string) []Hit {
	hits := []Hit{}
	for _, e := range doc.entries {
		if strings.Contains(strings.ToLower(searchBlob(e)), query) {
			hits = append(hits, Hit{ID: e.ID, Comment: e.Comment, Score: 1})
		}
	}
	return hits
}

// searchBlob joins keys, comment, tags and chunk texts, in that order, one per line.
func searchBlob(e Entry) string {
	fields := make([]string, 0, len(e.Keys)+len(e.Tags)+len(e.Chunks)+1)
	fields = append(fields, e.Keys...)
	if e.Comment != "" {
		fields = append(fields, e.Comment)
	}
	fields = append(fields, e.Tags...)
	for _, c := range e.Chunks {
		fields = append(fields, c.Text)
	}
	return strings.Join(fields, "\n")
}

func scoreWeighted(doc *Document, query string) []Hit {
	hits := []Hit{}
	for _, e := range doc.entries {
		entryScore := 0
		if strings.Contains(strings.ToLower(strings.Join(e.Keys, " ")), query) {
			entryScore += 2
		}
		if strings.Contains(strings.ToLower(e.Comment), query) {
			entryScore++
		}
		if entryScore > 0 {
			hits = append(hits, Hit{EntryID: e.ID, Score: entryScore})
		}

		for _, c := range e.Chunks {
			if strings.Contains(strings.ToLower(c.Text), query) {
				hits = append(hits, Hit{EntryID: e.ID, ChunkID: c.ID, Text: c.Text, Score: 3})
			}
		}
	}
	return hits
}
