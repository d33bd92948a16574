// Package org implements a structural document model for Org markup.
//
// It parses plain text into a typed outline tree, serializes the tree back
// to text with round-trip fidelity, and offers traversal, query, and
// mutation operations that preserve structural invariants (heading levels,
// tag sets, property drawers, planning lines, table shape).
//
// Parsing is tolerant: malformed constructs (mismatched block terminators,
// stray planning or clock lines, unterminated drawers) degrade to plain
// text or close implicitly instead of failing, so one bad region never
// corrupts unrelated content. Lookups that find nothing return an explicit
// ok bool rather than an error.
//
// The tree is not safe for concurrent mutation; callers owning a Document
// serialize their own access.
package org

import "strings"

// Document is the root of a parsed Org tree.
type Document struct {
	// Keywords holds the #+KEY: value lines that appear before the first
	// headline, in source order.
	Keywords []Keyword
	// Body holds elements that appear before the first headline.
	Body []Node
	// Children holds the top-level headlines in order.
	Children []*Headline
}

// Keyword is a #+KEY: value line. Keywords before the first headline are
// collected on the Document; keywords inside a section round-trip as body
// nodes.
type Keyword struct {
	Key   string
	Value string
}

func (k Keyword) Type() NodeType { return KeywordNode }

// Get returns the value of the named document keyword. When a keyword
// appears multiple times the last occurrence wins. Key comparison is
// case-insensitive.
func (d *Document) Get(key string) (string, bool) {
	value, ok := "", false
	for _, kw := range d.Keywords {
		if strings.EqualFold(kw.Key, key) {
			value, ok = kw.Value, true
		}
	}
	return value, ok
}

// FileTags returns the tags declared by the #+FILETAGS keyword as an
// ordered, duplicate-free set. Both the ":a:b:" form and plain
// whitespace-separated words are accepted. Absent keyword yields an
// empty, non-nil slice.
func (d *Document) FileTags() []string {
	value, ok := d.Get("FILETAGS")
	if !ok {
		return []string{}
	}
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, ":") {
		return splitTags(value)
	}
	return splitTags(":" + strings.Join(strings.Fields(value), ":") + ":")
}

// Properties returns the accumulated #+PROPERTY: entries as name/value
// pairs in source order. Unlike Get, PROPERTY keywords accumulate rather
// than overwrite; they form the root of property inheritance.
func (d *Document) Properties() []Property {
	var out []Property
	for _, kw := range d.Keywords {
		if !strings.EqualFold(kw.Key, "PROPERTY") {
			continue
		}
		name, value := splitFirstField(kw.Value)
		if name == "" {
			continue
		}
		out = append(out, Property{Name: name, Value: value})
	}
	return out
}

// splitFirstField splits "NAME rest of value" into the first field and the
// remainder.
func splitFirstField(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// Container is a node that owns an ordered sequence of child headlines:
// the Document root or a Headline.
type Container interface {
	// ChildHeadlines returns the direct child headlines in order.
	ChildHeadlines() []*Headline

	children() *[]*Headline
	childLevel() int
}

func (d *Document) ChildHeadlines() []*Headline { return d.Children }
func (d *Document) children() *[]*Headline      { return &d.Children }
func (d *Document) childLevel() int             { return 1 }

// TodoType classifies a TODO keyword as an open or a completed state.
type TodoType string

const (
	TodoTypeNone TodoType = ""
	TodoTypeTodo TodoType = "todo"
	TodoTypeDone TodoType = "done"
)

// doneKeywords are the keywords classified as completed states; every
// other recognized keyword counts as an open state.
var doneKeywords = map[string]struct{}{
	"DONE":      {},
	"CANCELLED": {},
	"CANCELED":  {},
}

// defaultTodoKeywords is the recognition set used by the parser when a
// document does not define its own via #+TODO.
var defaultTodoKeywords = []string{
	"TODO", "NEXT", "WAITING", "HOLD", "DONE", "CANCELLED", "CANCELED",
}

// TodoClass maps a TODO keyword to its type: done-class keywords yield
// TodoTypeDone, any other non-empty keyword TodoTypeTodo, and the empty
// string TodoTypeNone.
func TodoClass(keyword string) TodoType {
	if keyword == "" {
		return TodoTypeNone
	}
	if _, ok := doneKeywords[strings.ToUpper(keyword)]; ok {
		return TodoTypeDone
	}
	return TodoTypeTodo
}
