package worldbook

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Chunk is an addressable piece of an entry's content. Chunk ids are unique
// within their entry only.
type Chunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Entry is one unit of knowledge. Keys, Tags and Chunks may be empty.
//
// An entry decoded from JSON remembers its source object, so fields this
// package does not model survive a round trip through GetEntry.
type Entry struct {
	ID      string   `json:"id"`
	Keys    []string `json:"keys,omitempty"`
	Comment string   `json:"comment,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Chunks  []Chunk  `json:"chunks,omitempty"`

	raw json.RawMessage
}

// entryFields has Entry's JSON shape without its methods.
type entryFields Entry

// UnmarshalJSON decodes the modelled fields and keeps the source object for
// MarshalJSON.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var f entryFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*e = Entry(f)
	e.raw = slices.Clone(json.RawMessage(data))
	return nil
}

// MarshalJSON returns the source object verbatim when there is one.
func (e Entry) MarshalJSON() ([]byte, error) {
	if len(e.raw) > 0 {
		return e.raw, nil
	}
	return json.Marshal(entryFields(e))
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	c := e
	c.Keys = slices.Clone(e.Keys)
	c.Tags = slices.Clone(e.Tags)
	c.Chunks = slices.Clone(e.Chunks)
	c.raw = slices.Clone(e.raw)
	return c
}

// Document is a parsed worldbook. It is immutable: accessors hand out copies.
type Document struct {
	meta    json.RawMessage
	entries []Entry
	index   map[string]int
}

// NewDocument builds a document from entries in order. Entry ids must be
// non-empty and pairwise distinct.
func NewDocument(meta json.RawMessage, entries []Entry) (*Document, error) {
	doc := &Document{
		meta:    slices.Clone(meta),
		entries: make([]Entry, len(entries)),
		index:   make(map[string]int, len(entries)),
	}

	for i, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: entry %d has no id", ErrMalformedDocument, i)
		}
		if prev, dup := doc.index[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate entry id %q at positions %d and %d", ErrMalformedDocument, e.ID, prev, i)
		}
		doc.index[e.ID] = i
		doc.entries[i] = e.Clone()
	}

	return doc, nil
}

// Parse decodes a serialized worldbook. Anything other than a JSON object
// with an "entries" array fails with ErrMalformedDocument.
func Parse(data []byte) (*Document, error) {
	var wire struct {
		Meta    json.RawMessage `json:"meta"`
		Entries *[]Entry        `json:"entries"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &decodeError{cause: err}
	}
	if wire.Entries == nil {
		return nil, fmt.Errorf("%w: missing entries", ErrMalformedDocument)
	}
	return NewDocument(wire.Meta, *wire.Entries)
}

// decodeError reports a document that is not valid worldbook JSON. Its
// message stays neutral; the decoder's own error is kept for logs.
type decodeError struct {
	cause error
}

func (e *decodeError) Error() string {
	return ErrMalformedDocument.Error() + ": expected an object with an entries array"
}

func (e *decodeError) Unwrap() []error {
	return []error{ErrMalformedDocument, e.cause}
}

// Meta returns the opaque metadata blob exactly as loaded.
func (d *Document) Meta() json.RawMessage {
	return slices.Clone(d.meta)
}

// Len returns the number of entries.
func (d *Document) Len() int {
	return len(d.entries)
}

// Entries returns copies of all entries in document order.
func (d *Document) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.Clone()
	}
	return out
}

// FindByID returns the entry with the given id. Absence is reported by ok,
// never by an error.
func (d *Document) FindByID(id string) (entry Entry, ok bool) {
	i, ok := d.index[id]
	if !ok {
		return Entry{}, false
	}
	return d.entries[i].Clone(), true
}
