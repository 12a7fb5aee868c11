package resume

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ContentKind identifies a section content variant.
type ContentKind int

const (
	KindText ContentKind = iota + 1
	KindList
	KindKeyValue
)

func (k ContentKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindKeyValue:
		return "keyvalue"
	default:
		return "unknown"
	}
}

// Content is the closed set of shapes a résumé section can take:
// TextContent, ListContent or KeyValueContent.
type Content interface {
	Kind() ContentKind
	Empty() bool
	sealed()
}

// TextContent is a single block of prose.
type TextContent struct {
	Text string
}

func (TextContent) Kind() ContentKind { return KindText }
func (c TextContent) Empty() bool     { return strings.TrimSpace(c.Text) == "" }
func (TextContent) sealed()           {}

// ListContent is an ordered list of entries.
type ListContent struct {
	Entries []Entry
}

func (ListContent) Kind() ContentKind { return KindList }
func (c ListContent) Empty() bool     { return len(c.Entries) == 0 }
func (ListContent) sealed()           {}

// KeyValueContent is a labelled set of values in the order the service sent them.
type KeyValueContent struct {
	Pairs []KeyValue
}

func (KeyValueContent) Kind() ContentKind { return KindKeyValue }
func (c KeyValueContent) Empty() bool     { return len(c.Pairs) == 0 }
func (KeyValueContent) sealed()           {}

// KeyValue is one labelled value.
type KeyValue struct {
	Key   string
	Value string
}

// Entry is one list item. Scalar items set Text; structured items set the
// projected fields and leave Text empty.
type Entry struct {
	Text        string `json:"-"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
	Details     string `json:"details"`
}

// IsText reports whether the entry is a plain string item.
func (e Entry) IsText() bool {
	return e.Text != ""
}

// Fields returns the non-empty structured fields in display order.
func (e Entry) Fields() []KeyValue {
	var out []KeyValue
	for _, f := range []KeyValue{
		{"title", e.Title},
		{"company", e.Company},
		{"duration", e.Duration},
		{"description", e.Description},
		{"details", e.Details},
	} {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}

// ParseContent decodes raw section JSON into its variant. Absent values
// (missing, null, "", [], {}, false, 0) yield a nil Content and no error.
func ParseContent(raw json.RawMessage) (Content, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var content Content
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("decode text section: %w", err)
		}
		content = TextContent{Text: s}
	case '[':
		entries, err := parseEntries(trimmed)
		if err != nil {
			return nil, err
		}
		content = ListContent{Entries: entries}
	case '{':
		pairs, err := parseOrderedObject(trimmed)
		if err != nil {
			return nil, err
		}
		content = KeyValueContent{Pairs: pairs}
	default:
		// other numbers and true render as their literal text
		if falsyLiteral(trimmed) {
			return nil, nil
		}
		content = TextContent{Text: string(trimmed)}
	}

	if content.Empty() {
		return nil, nil
	}
	return content, nil
}

func falsyLiteral(lit []byte) bool {
	if string(lit) == "false" {
		return true
	}
	n, err := strconv.ParseFloat(string(lit), 64)
	return err == nil && n == 0
}

func parseEntries(raw []byte) ([]Entry, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode list section: %w", err)
	}

	entries := make([]Entry, 0, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		switch {
		case len(item) == 0 || bytes.Equal(item, []byte("null")):
			continue
		case item[0] == '{':
			var fields map[string]json.RawMessage
			if err := json.Unmarshal(item, &fields); err != nil {
				return nil, fmt.Errorf("decode list entry %d: %w", i, err)
			}
			entries = append(entries, Entry{
				Title:       stringify(fields["title"]),
				Company:     stringify(fields["company"]),
				Duration:    stringify(fields["duration"]),
				Description: stringify(fields["description"]),
				Details:     stringify(fields["details"]),
			})
		default:
			if text := stringify(item); text != "" {
				entries = append(entries, Entry{Text: text})
			}
		}
	}
	return entries, nil
}

// parseOrderedObject walks the object with a token decoder so keys keep the
// order they arrived in.
func parseOrderedObject(raw []byte) ([]KeyValue, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode object section: %w", err)
	}

	var pairs []KeyValue
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode object section: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("decode object section: unexpected key %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode object section value %q: %w", key, err)
		}
		pairs = append(pairs, KeyValue{Key: key, Value: stringify(value)})
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode object section: %w", err)
	}
	return pairs, nil
}

// stringify renders a JSON value as display text. Strings are unquoted,
// null and missing values become empty, anything else keeps its compact JSON form.
func stringify(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	if n, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				if s := stringify(item); s != "" {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, ", ")
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
