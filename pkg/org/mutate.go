package org

import (
	"sort"

	"github.com/google/uuid"
)

// SetTodo sets the TODO keyword and derives its type, keeping the two
// fields consistent. The empty keyword clears both.
func SetTodo(h *Headline, keyword string) {
	h.TodoKeyword = keyword
	h.TodoType = TodoClass(keyword)
}

// AddTag appends a tag unless it is already present.
func AddTag(h *Headline, tag string) {
	if containsTag(h.Tags, tag) {
		return
	}
	h.Tags = append(h.Tags, tag)
}

// RemoveTag removes a tag, preserving the order of the rest. Removing an
// absent tag is a no-op.
func RemoveTag(h *Headline, tag string) {
	for i, t := range h.Tags {
		if t == tag {
			h.Tags = append(h.Tags[:i], h.Tags[i+1:]...)
			return
		}
	}
}

// SetPriority sets the priority cookie; empty clears it.
func SetPriority(h *Headline, priority string) {
	h.Priority = priority
}

// SetProperty writes a property, creating the drawer on first use.
func SetProperty(h *Headline, name, value string) {
	if h.Properties == nil {
		h.Properties = &PropertyDrawer{}
	}
	h.Properties.Set(name, value)
}

// RemoveProperty deletes a property and reports whether it was present.
// Removing the last property keeps the now-empty drawer; drawer presence
// and drawer absence stay distinct states.
func RemoveProperty(h *Headline, name string) bool {
	if h.Properties == nil {
		return false
	}
	return h.Properties.Delete(name)
}

// SetScheduled sets or clears (nil) the SCHEDULED timestamp. Clearing the
// last planning slot drops the planning line entirely.
func SetScheduled(h *Headline, ts *Timestamp) {
	ensurePlanning(h).Scheduled = ts
	prunePlanning(h)
}

// SetDeadline sets or clears (nil) the DEADLINE timestamp.
func SetDeadline(h *Headline, ts *Timestamp) {
	ensurePlanning(h).Deadline = ts
	prunePlanning(h)
}

// SetClosed sets or clears (nil) the CLOSED timestamp.
func SetClosed(h *Headline, ts *Timestamp) {
	ensurePlanning(h).Closed = ts
	prunePlanning(h)
}

func ensurePlanning(h *Headline) *Planning {
	if h.Planning == nil {
		h.Planning = &Planning{}
	}
	return h.Planning
}

func prunePlanning(h *Headline) {
	if h.Planning.Empty() {
		h.Planning = nil
	}
}

// PromoteHeadline decreases the level of h and every descendant by one.
// A level-1 headline cannot be promoted; the call is a no-op, not an
// error.
func PromoteHeadline(h *Headline) {
	if h.Level <= 1 {
		return
	}
	shiftLevel(h, -1)
}

// DemoteHeadline increases the level of h and every descendant by one.
func DemoteHeadline(h *Headline) {
	shiftLevel(h, 1)
}

func shiftLevel(h *Headline, delta int) {
	h.Level += delta
	for _, c := range h.Children {
		shiftLevel(c, delta)
	}
}

// HeadlineOption configures a headline built by NewHeadline.
type HeadlineOption func(*Headline)

// WithTodo sets the initial TODO keyword.
func WithTodo(keyword string) HeadlineOption {
	return func(h *Headline) { SetTodo(h, keyword) }
}

// WithPriority sets the initial priority cookie.
func WithPriority(priority string) HeadlineOption {
	return func(h *Headline) { h.Priority = priority }
}

// WithTags sets the initial tag set.
func WithTags(tags ...string) HeadlineOption {
	return func(h *Headline) {
		for _, t := range tags {
			AddTag(h, t)
		}
	}
}

// NewHeadline builds a detached headline. Levels below 1 are clamped to 1,
// and the title is scanned for inline links and timestamps.
func NewHeadline(title string, level int, opts ...HeadlineOption) *Headline {
	if level < 1 {
		level = 1
	}
	h := &Headline{Level: level, Title: title, Tags: []string{}}
	h.Links, h.Timestamps = scanInline(title)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InsertHeadline attaches h to the container at index, appending by
// default. The subtree's levels are rewritten relative to the container,
// so a level-4 branch inserted under a level-1 headline becomes level 2.
// Out-of-range indexes clamp to the valid range.
func InsertHeadline(c Container, h *Headline, index ...int) {
	setLevels(h, c.childLevel())
	kids := c.children()
	at := len(*kids)
	if len(index) > 0 {
		at = index[0]
		if at < 0 {
			at = 0
		}
		if at > len(*kids) {
			at = len(*kids)
		}
	}
	*kids = append(*kids, nil)
	copy((*kids)[at+1:], (*kids)[at:])
	(*kids)[at] = h
}

func setLevels(h *Headline, level int) {
	h.Level = level
	for _, c := range h.Children {
		setLevels(c, level+1)
	}
}

// DeleteHeadline removes target from wherever it sits under root and
// returns it with its subtree intact. The bool is false when target is
// not in the tree. Matching is by identity; the tree keeps no parent
// pointers.
func DeleteHeadline(root *Document, target *Headline) (*Headline, bool) {
	parent, ok := FindParent(root, target)
	if !ok {
		return nil, false
	}
	kids := parent.children()
	for i, h := range *kids {
		if h == target {
			*kids = append((*kids)[:i], (*kids)[i+1:]...)
			return target, true
		}
	}
	return nil, false
}

// DeleteHeadlineAt removes the child at index from the container. The
// bool is false when the index is out of range.
func DeleteHeadlineAt(c Container, index int) (*Headline, bool) {
	kids := c.children()
	if index < 0 || index >= len(*kids) {
		return nil, false
	}
	h := (*kids)[index]
	*kids = append((*kids)[:index], (*kids)[index+1:]...)
	return h, true
}

// CopyHeadline returns a deep copy sharing no mutable state with the
// original.
func CopyHeadline(h *Headline) *Headline {
	clone := *h
	clone.Tags = make([]string, len(h.Tags))
	copy(clone.Tags, h.Tags)
	if h.Properties != nil {
		props := make([]Property, len(h.Properties.Properties))
		copy(props, h.Properties.Properties)
		clone.Properties = &PropertyDrawer{Properties: props}
	}
	if h.Planning != nil {
		clone.Planning = &Planning{
			Scheduled: copyTimestamp(h.Planning.Scheduled),
			Deadline:  copyTimestamp(h.Planning.Deadline),
			Closed:    copyTimestamp(h.Planning.Closed),
		}
	}
	clone.Clocks = make([]ClockEntry, len(h.Clocks))
	for i, c := range h.Clocks {
		clone.Clocks[i] = ClockEntry{
			Start:    copyTimestamp(c.Start),
			End:      copyTimestamp(c.End),
			Duration: c.Duration,
		}
	}
	clone.Links = copyLinks(h.Links)
	clone.Timestamps = copyTimestamps(h.Timestamps)
	clone.Body = copyNodes(h.Body)
	clone.Children = make([]*Headline, len(h.Children))
	for i, c := range h.Children {
		clone.Children[i] = CopyHeadline(c)
	}
	return &clone
}

func copyTimestamp(t *Timestamp) *Timestamp {
	if t == nil {
		return nil
	}
	c := *t
	if t.Repeater != nil {
		r := *t.Repeater
		c.Repeater = &r
	}
	return &c
}

func copyLinks(links []*Link) []*Link {
	out := make([]*Link, len(links))
	for i, l := range links {
		c := *l
		out[i] = &c
	}
	return out
}

func copyTimestamps(stamps []*Timestamp) []*Timestamp {
	out := make([]*Timestamp, len(stamps))
	for i, t := range stamps {
		out[i] = copyTimestamp(t)
	}
	return out
}

func copyNodes(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = copyNode(n)
	}
	return out
}

func copyNode(n Node) Node {
	switch t := n.(type) {
	case *Headline:
		return CopyHeadline(t)
	case *Paragraph:
		c := &Paragraph{Lines: append([]string(nil), t.Lines...)}
		c.Links = copyLinks(t.Links)
		c.Timestamps = copyTimestamps(t.Timestamps)
		return c
	case *Table:
		c := &Table{Rows: make([]TableRow, len(t.Rows))}
		for i, r := range t.Rows {
			c.Rows[i] = TableRow{
				Separator: r.Separator,
				Cells:     append([]string(nil), r.Cells...),
			}
		}
		return c
	case *Block:
		c := &Block{Kind: t.Kind, Language: t.Language, Switches: t.Switches, Value: t.Value}
		c.Children = copyNodes(t.Children)
		return c
	case *Drawer:
		return &Drawer{Name: t.Name, Lines: append([]string(nil), t.Lines...)}
	case *Link:
		c := *t
		return &c
	case *Timestamp:
		return copyTimestamp(t)
	default:
		// Keyword and Comment are value types already.
		return n
	}
}

// FindParent locates the container that directly owns target: the
// Document for top-level headlines, otherwise the enclosing headline.
func FindParent(root *Document, target *Headline) (Container, bool) {
	var found Container
	MapHeadlines(root, func(h *Headline, parent Container, _ int) {
		if h == target && found == nil {
			found = parent
		}
	})
	if found == nil {
		return nil, false
	}
	return found, true
}

// HeadlinePath returns the chain of headlines from the top level down to
// target, target included.
func HeadlinePath(root *Document, target *Headline) ([]*Headline, bool) {
	var walk func(c Container, trail []*Headline) ([]*Headline, bool)
	walk = func(c Container, trail []*Headline) ([]*Headline, bool) {
		for _, h := range c.ChildHeadlines() {
			next := append(append([]*Headline{}, trail...), h)
			if h == target {
				return next, true
			}
			if path, ok := walk(h, next); ok {
				return path, true
			}
		}
		return nil, false
	}
	return walk(root, nil)
}

// SortChildren stably sorts the container's direct children.
func SortChildren(c Container, less func(a, b *Headline) bool) {
	kids := *c.children()
	sort.SliceStable(kids, func(i, j int) bool { return less(kids[i], kids[j]) })
}

// EnsureID returns the headline's :ID: property, assigning a fresh UUID
// first when absent, so the headline gains a stable identity across
// structural edits.
func EnsureID(h *Headline) string {
	if id, ok := h.Properties.Get("ID"); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	SetProperty(h, "ID", id)
	return id
}
