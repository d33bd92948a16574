package org

import "strings"

// Visitor is called for every headline during MapHeadlines. parent is the
// Document for top-level headlines, otherwise the enclosing Headline.
// index is the headline's position among the parent's children at the
// time of the visit.
type Visitor func(h *Headline, parent Container, index int)

// MapHeadlines visits every headline depth-first in pre-order. Visitors
// may mutate the current headline in place; the child count is re-read on
// every step, so edits to the current container's tail are picked up.
func MapHeadlines(d *Document, visit Visitor) {
	mapContainer(d, visit)
}

func mapContainer(c Container, visit Visitor) {
	for i := 0; i < len(c.ChildHeadlines()); i++ {
		h := c.ChildHeadlines()[i]
		visit(h, c, i)
		mapContainer(h, visit)
	}
}

// AllHeadlines returns every headline in pre-order.
func AllHeadlines(d *Document) []*Headline {
	var out []*Headline
	MapHeadlines(d, func(h *Headline, _ Container, _ int) {
		out = append(out, h)
	})
	return out
}

// FilterHeadlines returns the headlines matching keep, in pre-order.
func FilterHeadlines(d *Document, keep func(*Headline) bool) []*Headline {
	var out []*Headline
	MapHeadlines(d, func(h *Headline, _ Container, _ int) {
		if keep(h) {
			out = append(out, h)
		}
	})
	return out
}

// FindHeadline returns the first headline in pre-order matching match.
func FindHeadline(d *Document, match func(*Headline) bool) (*Headline, bool) {
	for _, h := range AllHeadlines(d) {
		if match(h) {
			return h, true
		}
	}
	return nil, false
}

// MapElements visits every node of one kind, descending into headline
// bodies, greater blocks, and the inline links and timestamps of titles
// and paragraphs.
func MapElements(d *Document, kind NodeType, visit func(Node)) {
	visitAll(d, func(n Node) {
		if n.Type() == kind {
			visit(n)
		}
	})
}

// MapElementsIn is MapElements restricted to one headline's subtree: the
// headline itself, its title inlines, its body, and its descendants.
func MapElementsIn(h *Headline, kind NodeType, visit func(Node)) {
	visitHeadline(h, func(n Node) {
		if n.Type() == kind {
			visit(n)
		}
	})
	for _, c := range h.Children {
		MapElementsIn(c, kind, visit)
	}
}

// visitAll walks every node in the tree: document body, headlines, their
// bodies, nested block content, and inline elements.
func visitAll(d *Document, fn func(Node)) {
	walkNodeList(d.Body, fn)
	MapHeadlines(d, func(h *Headline, _ Container, _ int) {
		visitHeadline(h, fn)
	})
}

// visitHeadline walks one headline's own nodes without recursing into
// child headlines.
func visitHeadline(h *Headline, fn func(Node)) {
	fn(h)
	for _, l := range h.Links {
		fn(l)
	}
	for _, ts := range h.Timestamps {
		fn(ts)
	}
	walkNodeList(h.Body, fn)
}

func walkNodeList(nodes []Node, fn func(Node)) {
	for _, n := range nodes {
		fn(n)
		switch t := n.(type) {
		case *Block:
			walkNodeList(t.Children, fn)
		case *Paragraph:
			for _, l := range t.Links {
				fn(l)
			}
			for _, ts := range t.Timestamps {
				fn(ts)
			}
		}
	}
}

// Predicate describes a structural query. Set fields combine with AND;
// only AnyTag is disjunctive within itself. Zero values mean unset.
type Predicate struct {
	// Type restricts matches to one node kind.
	Type NodeType
	// TodoKeyword matches the exact state word.
	TodoKeyword string
	// HasTodo, when non-nil, requires (true) or forbids (false) any TODO
	// state on the headline.
	HasTodo *bool
	// TodoType matches the open/done classification.
	TodoType TodoType
	// Tags must all be present; AnyTag needs at least one present.
	Tags   []string
	AnyTag []string
	// Level matches exactly; MinLevel and MaxLevel bound the range.
	Level    int
	MinLevel int
	MaxLevel int
	// TitleContains is a case-insensitive substring match on the title.
	TitleContains string
	// HasProperty requires the key in the properties drawer, any value.
	HasProperty string
	// Language matches a src block's language tag, case-insensitively.
	Language string
	// Match is an arbitrary extra condition ANDed with the rest.
	Match func(Node) bool
}

// Query returns every node in the document matching p, in pre-order.
// Headline-specific fields silently exclude non-headline nodes, so a
// predicate with Tags set never yields a table.
func Query(d *Document, p Predicate) []Node {
	var out []Node
	visitAll(d, func(n Node) {
		if p.matches(n) {
			out = append(out, n)
		}
	})
	return out
}

// QueryHeadlines runs Query and keeps only the headline matches.
func QueryHeadlines(d *Document, p Predicate) []*Headline {
	var out []*Headline
	for _, n := range Query(d, p) {
		if h, ok := n.(*Headline); ok {
			out = append(out, h)
		}
	}
	return out
}

func (p Predicate) matches(n Node) bool {
	if p.Type != "" && n.Type() != p.Type {
		return false
	}
	h, isHeadline := n.(*Headline)
	if p.needsHeadline() && !isHeadline {
		return false
	}
	if isHeadline && !p.matchesHeadline(h) {
		return false
	}
	if p.Language != "" {
		b, ok := n.(*Block)
		if !ok || b.Kind != "SRC" || !strings.EqualFold(b.Language, p.Language) {
			return false
		}
	}
	if p.Match != nil && !p.Match(n) {
		return false
	}
	return true
}

func (p Predicate) needsHeadline() bool {
	return p.TodoKeyword != "" || p.HasTodo != nil || p.TodoType != TodoTypeNone ||
		len(p.Tags) > 0 || len(p.AnyTag) > 0 || p.Level > 0 || p.MinLevel > 0 ||
		p.MaxLevel > 0 || p.TitleContains != "" || p.HasProperty != ""
}

func (p Predicate) matchesHeadline(h *Headline) bool {
	if p.TodoKeyword != "" && h.TodoKeyword != p.TodoKeyword {
		return false
	}
	if p.HasTodo != nil && *p.HasTodo != (h.TodoType != TodoTypeNone) {
		return false
	}
	if p.TodoType != TodoTypeNone && h.TodoType != p.TodoType {
		return false
	}
	for _, tag := range p.Tags {
		if !containsTag(h.Tags, tag) {
			return false
		}
	}
	if len(p.AnyTag) > 0 {
		found := false
		for _, tag := range p.AnyTag {
			if containsTag(h.Tags, tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if p.Level > 0 && h.Level != p.Level {
		return false
	}
	if p.MinLevel > 0 && h.Level < p.MinLevel {
		return false
	}
	if p.MaxLevel > 0 && h.Level > p.MaxLevel {
		return false
	}
	if p.TitleContains != "" &&
		!strings.Contains(strings.ToLower(h.Title), strings.ToLower(p.TitleContains)) {
		return false
	}
	if p.HasProperty != "" {
		if _, ok := h.Properties.Get(p.HasProperty); !ok {
			return false
		}
	}
	return true
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
