package org

import "strings"

// NodeType discriminates the closed set of node kinds in a document tree.
type NodeType string

const (
	HeadlineNode  NodeType = "headline"
	ParagraphNode NodeType = "paragraph"
	TableNode     NodeType = "table"
	SrcBlockNode  NodeType = "src-block"
	BlockNode     NodeType = "block"
	DrawerNode    NodeType = "drawer"
	KeywordNode   NodeType = "keyword"
	CommentNode   NodeType = "comment"
	LinkNode      NodeType = "link"
	TimestampNode NodeType = "timestamp"
)

// Node is implemented by every element of the document tree.
type Node interface {
	Type() NodeType
}

// Headline is one outline node: a star-prefixed heading plus everything
// that belongs to its section.
type Headline struct {
	// Level is the number of leading stars, always at least 1.
	Level int
	// Title is the heading text with TODO keyword, priority cookie, and
	// tags stripped.
	Title string
	// TodoKeyword is the state word ("TODO", "DONE", ...) or empty.
	TodoKeyword string
	// TodoType classifies TodoKeyword; it is TodoTypeNone exactly when
	// TodoKeyword is empty.
	TodoType TodoType
	// Priority is the single-letter priority cookie ("A") or empty.
	Priority string
	// Tags is the ordered tag set. It is never nil after parsing and
	// never holds duplicates.
	Tags []string
	// Properties is the :PROPERTIES: drawer, or nil when the headline has
	// none. An empty non-nil drawer is a distinct, preserved state.
	Properties *PropertyDrawer
	// Planning holds the SCHEDULED/DEADLINE/CLOSED timestamps, or nil.
	Planning *Planning
	// Clocks holds the CLOCK: log entries in source order.
	Clocks []ClockEntry
	// Links and Timestamps are the inline elements found in Title.
	Links      []*Link
	Timestamps []*Timestamp
	// Body holds the section content in source order.
	Body []Node
	// Children holds the subordinate headlines.
	Children []*Headline
}

func (h *Headline) Type() NodeType { return HeadlineNode }

func (h *Headline) ChildHeadlines() []*Headline { return h.Children }
func (h *Headline) children() *[]*Headline      { return &h.Children }
func (h *Headline) childLevel() int             { return h.Level + 1 }

// Scheduled returns the SCHEDULED timestamp, or nil.
func (h *Headline) Scheduled() *Timestamp {
	if h.Planning == nil {
		return nil
	}
	return h.Planning.Scheduled
}

// Deadline returns the DEADLINE timestamp, or nil.
func (h *Headline) Deadline() *Timestamp {
	if h.Planning == nil {
		return nil
	}
	return h.Planning.Deadline
}

// Closed returns the CLOSED timestamp, or nil.
func (h *Headline) Closed() *Timestamp {
	if h.Planning == nil {
		return nil
	}
	return h.Planning.Closed
}

// HasTag reports whether tag is in the headline's tag set.
func (h *Headline) HasTag(tag string) bool { return containsTag(h.Tags, tag) }

// Planning holds the timestamps of a planning line.
type Planning struct {
	Scheduled *Timestamp
	Deadline  *Timestamp
	Closed    *Timestamp
}

// Empty reports whether no planning timestamp is set.
func (p *Planning) Empty() bool {
	return p == nil || (p.Scheduled == nil && p.Deadline == nil && p.Closed == nil)
}

// Paragraph is a run of consecutive plain text lines, ended by a blank
// line or any structural construct.
type Paragraph struct {
	// Lines are the source lines verbatim.
	Lines []string
	// Links and Timestamps are the inline elements found in the text.
	Links      []*Link
	Timestamps []*Timestamp
}

func (p *Paragraph) Type() NodeType { return ParagraphNode }

// Text returns the paragraph content as one newline-joined string.
func (p *Paragraph) Text() string { return strings.Join(p.Lines, "\n") }

// Block is a #+BEGIN_<KIND> ... #+END_<KIND> region.
type Block struct {
	// Kind is the upper-cased block kind: "SRC", "EXAMPLE", "QUOTE", ...
	Kind string
	// Language is the language tag of a SRC block ("go", "python").
	Language string
	// Switches holds the remaining header arguments verbatim.
	Switches string
	// Value is the verbatim body of a verbatim block.
	Value string
	// Children holds the parsed content of a greater block.
	Children []Node
}

// Type returns SrcBlockNode for SRC blocks and BlockNode otherwise.
func (b *Block) Type() NodeType {
	if b.Kind == "SRC" {
		return SrcBlockNode
	}
	return BlockNode
}

// Verbatim reports whether the block body is opaque text rather than
// parsed elements.
func (b *Block) Verbatim() bool { return blockVerbatim(b.Kind) }

// Only QUOTE and CENTER parse their content. Everything else, unknown
// kinds included, is verbatim, so an unrecognized fence can never swallow
// structure it should not.
func blockVerbatim(kind string) bool {
	switch kind {
	case "QUOTE", "CENTER":
		return false
	}
	return true
}

// Table is a sequence of | cell | rows, separator rules included.
type Table struct {
	Rows []TableRow
}

func (t *Table) Type() NodeType { return TableNode }

// TableRow is one table row: either data cells or a |---+---| separator.
// A separator row has no cells.
type TableRow struct {
	Separator bool
	Cells     []string
}

// DataRows returns the cell rows with separators skipped.
func (t *Table) DataRows() [][]string {
	var out [][]string
	for _, r := range t.Rows {
		if !r.Separator {
			out = append(out, r.Cells)
		}
	}
	return out
}

// Drawer is a generic :NAME: ... :END: region other than :PROPERTIES:.
// Lines are kept verbatim so unknown drawers such as :LOGBOOK: round-trip
// untouched.
type Drawer struct {
	Name  string
	Lines []string
}

func (d *Drawer) Type() NodeType { return DrawerNode }

// Comment is a # comment line.
type Comment struct {
	Text string
}

func (c Comment) Type() NodeType { return CommentNode }

// Link is an inline [[target][description]] element.
type Link struct {
	// Protocol is the inferred link type; see LinkProtocol.
	Protocol string
	// Path is the raw link target.
	Path string
	// Description is the display text, empty for bare [[target]] links.
	Description string
}

func (l *Link) Type() NodeType { return LinkNode }

// String renders the link in canonical bracket form.
func (l *Link) String() string {
	if l.Description != "" {
		return "[[" + l.Path + "][" + l.Description + "]]"
	}
	return "[[" + l.Path + "]]"
}
