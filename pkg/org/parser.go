package org

import (
	"regexp"
	"strings"
)

// parser holds the transient state of one parse.
type parser struct {
	lines []string
	doc   *Document
	// todo is the TODO keyword recognition table for this parse, seeded
	// with the defaults and extended by #+TODO keywords.
	todo map[string]TodoType
}

// Parse parses Org text into a Document. Parsing is total: malformed
// constructs degrade to plain text rather than producing an error, and
// unterminated regions close implicitly at the next headline or EOF.
func Parse(data []byte) *Document { return ParseString(string(data)) }

// ParseString is Parse for a string input.
func ParseString(text string) *Document {
	p := &parser{
		lines: splitLines(text),
		doc:   &Document{},
		todo:  defaultTodoTable(),
	}
	p.run()
	return p.doc
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	// A trailing newline yields one empty trailing element; dropping it
	// keeps each entry meaning a real source line.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func defaultTodoTable() map[string]TodoType {
	table := make(map[string]TodoType, len(defaultTodoKeywords))
	for _, kw := range defaultTodoKeywords {
		table[kw] = TodoClass(kw)
	}
	return table
}

func (p *parser) run() {
	// Prelude: everything before the first headline. Keywords found here
	// collect on the document itself.
	i, body, _ := p.parseNodes(0, nil, true, "")
	p.doc.Body = body

	// Outline: each headline attaches to the nearest open headline with a
	// smaller level. Skipped levels keep their stars as written.
	var stack []*Headline
	for i < len(p.lines) {
		ln := classifyLine(p.lines[i])
		h := p.parseHeadlineLine(ln.matches)
		for len(stack) > 0 && stack[len(stack)-1].Level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			p.doc.Children = append(p.doc.Children, h)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, h)
		}
		stack = append(stack, h)
		i++
		i, h.Body, _ = p.parseNodes(i, h, false, "")
	}
}

// parseHeadlineLine builds a Headline from the classifier's submatches:
// stars, then an optional TODO keyword, an optional [#X] priority cookie,
// the title, and an optional trailing :tag: block.
func (p *parser) parseHeadlineLine(m []string) *Headline {
	h := &Headline{Level: len(m[1]), Tags: []string{}}
	rest := strings.TrimSpace(m[2])

	if tm := tagsRe.FindStringSubmatch(rest); tm != nil {
		rest = tm[1]
		h.Tags = splitTags(tm[2])
	} else if allTagsRe.MatchString(rest) {
		h.Tags = splitTags(rest)
		rest = ""
	}

	word := rest
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		word = rest[:i]
	}
	if cls, ok := p.todo[word]; ok {
		h.TodoKeyword = word
		h.TodoType = cls
		rest = strings.TrimSpace(rest[len(word):])
	}

	if pm := priorityRe.FindStringSubmatch(rest); pm != nil {
		h.Priority = pm[1]
		rest = rest[len(pm[0]):]
	}

	h.Title = strings.TrimSpace(rest)
	h.Links, h.Timestamps = scanInline(h.Title)
	return h
}

// splitTags splits a ":a:b:" token into an ordered, duplicate-free set.
func splitTags(token string) []string {
	parts := strings.Split(strings.Trim(token, ":"), ":")
	tags := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, t := range parts {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}

// applyTodoKeywords extends the recognition table from a #+TODO value such
// as "TODO NEXT(n) | DONE CANCELLED". Keywords after the bar are done
// states; without a bar the last keyword is.
func (p *parser) applyTodoKeywords(value string) {
	fields := strings.Fields(value)
	bar := -1
	for i, f := range fields {
		if f == "|" {
			bar = i
		}
	}
	for i, f := range fields {
		if f == "|" {
			continue
		}
		if j := strings.IndexByte(f, '('); j > 0 {
			f = f[:j]
		}
		if f == "" {
			continue
		}
		cls := TodoTypeTodo
		if (bar >= 0 && i > bar) || (bar < 0 && i == len(fields)-1) {
			cls = TodoTypeDone
		}
		p.todo[f] = cls
	}
}

// parseNodes parses body elements starting at line i until the next
// headline, EOF, or (when endKind is non-empty) the matching
// #+END_<endKind> line of an enclosing greater block. owner, when
// non-nil, receives structured metadata: planning lines, the first
// :PROPERTIES: drawer, and clock entries. docLevel lifts keywords onto
// the document. The returned bool reports whether the end line was seen
// and consumed.
func (p *parser) parseNodes(i int, owner *Headline, docLevel bool, endKind string) (int, []Node, bool) {
	var nodes []Node
	var para []string

	flush := func() {
		if len(para) == 0 {
			return
		}
		nodes = append(nodes, newParagraph(para))
		para = nil
	}

	// Planning lines count only while nothing but planning or the
	// properties drawer has followed the headline.
	planningOK := owner != nil

	for i < len(p.lines) {
		ln := classifyLine(p.lines[i])
		switch ln.kind {
		case lineBlank:
			flush()
			planningOK = false
			i++

		case lineHeadline:
			flush()
			return i, nodes, false

		case lineBlockBegin:
			flush()
			planningOK = false
			var node Node
			i, node = p.parseBlock(i, ln)
			nodes = append(nodes, node)

		case lineBlockEnd:
			if endKind != "" && strings.EqualFold(ln.matches[1], endKind) {
				flush()
				return i + 1, nodes, true
			}
			// Stray terminator with no open block: plain text.
			para = append(para, ln.raw)
			planningOK = false
			i++

		case lineKeyword:
			flush()
			planningOK = false
			key := ln.matches[1]
			value := strings.TrimSpace(ln.matches[2])
			if strings.EqualFold(key, "TODO") || strings.EqualFold(key, "SEQ_TODO") ||
				strings.EqualFold(key, "TYP_TODO") {
				p.applyTodoKeywords(value)
			}
			kw := Keyword{Key: key, Value: value}
			if docLevel {
				p.doc.Keywords = append(p.doc.Keywords, kw)
			} else {
				nodes = append(nodes, kw)
			}
			i++

		case lineComment:
			flush()
			planningOK = false
			nodes = append(nodes, Comment{Text: ln.matches[1]})
			i++

		case linePlanning:
			if owner != nil && planningOK && p.parsePlanningLine(owner, ln.raw) {
				i++
				continue
			}
			// Out of position or nothing parseable on it: prose.
			para = append(para, ln.raw)
			planningOK = false
			i++

		case lineClock:
			if owner != nil {
				if entry, ok := parseClockLine(ln.matches[1]); ok {
					flush()
					owner.Clocks = append(owner.Clocks, entry)
					i++
					continue
				}
			}
			para = append(para, ln.raw)
			planningOK = false
			i++

		case lineDrawerBegin:
			flush()
			var gotProperties bool
			i, gotProperties = p.parseDrawer(i, ln, owner, &nodes)
			if !gotProperties {
				planningOK = false
			}

		case lineDrawerEnd:
			para = append(para, ln.raw)
			planningOK = false
			i++

		case lineTableRow, lineTableSep:
			flush()
			planningOK = false
			var table *Table
			i, table = p.parseTable(i)
			nodes = append(nodes, table)

		default:
			para = append(para, ln.raw)
			planningOK = false
			i++
		}
	}
	flush()
	return i, nodes, false
}

func newParagraph(lines []string) *Paragraph {
	para := &Paragraph{Lines: append([]string(nil), lines...)}
	para.Links, para.Timestamps = scanInline(para.Text())
	return para
}

// parseBlock consumes a #+BEGIN_<KIND> region starting at i. Verbatim
// kinds capture every line untouched until the matching #+END; greater
// kinds parse their content recursively. Unterminated regions close
// implicitly at EOF, greater ones also at the next headline.
func (p *parser) parseBlock(i int, begin line) (int, Node) {
	kind := strings.ToUpper(begin.matches[1])
	args := strings.TrimSpace(begin.matches[2])
	block := &Block{Kind: kind}
	if kind == "SRC" {
		block.Language, block.Switches = splitFirstField(args)
	} else {
		block.Switches = args
	}
	i++

	if blockVerbatim(kind) {
		var body []string
		for i < len(p.lines) {
			if end := blockEndRe.FindStringSubmatch(p.lines[i]); end != nil && strings.EqualFold(end[1], kind) {
				i++
				break
			}
			body = append(body, p.lines[i])
			i++
		}
		block.Value = strings.Join(body, "\n")
		return i, block
	}

	i, children, _ := p.parseNodes(i, nil, false, kind)
	block.Children = children
	return i, block
}

var propertyLineRe = regexp.MustCompile(`^\s*:([^:\s]+):(?:\s+(.*?))?\s*$`)

// parseDrawer consumes a :NAME: ... :END: region. The first :PROPERTIES:
// drawer directly under a headline becomes its structured Properties;
// anything else is kept verbatim as a generic Drawer node. The second
// return reports whether the drawer became the owner's properties.
func (p *parser) parseDrawer(i int, begin line, owner *Headline, nodes *[]Node) (int, bool) {
	name := begin.matches[1]
	i++
	var body []string
	for i < len(p.lines) {
		ln := classifyLine(p.lines[i])
		if ln.kind == lineDrawerEnd {
			i++
			break
		}
		if ln.kind == lineHeadline {
			// Unterminated drawer: close implicitly, leave the headline
			// for the caller.
			break
		}
		body = append(body, p.lines[i])
		i++
	}
	if strings.EqualFold(name, "PROPERTIES") && owner != nil && owner.Properties == nil {
		owner.Properties = parsePropertyLines(body)
		return i, true
	}
	*nodes = append(*nodes, &Drawer{Name: name, Lines: body})
	return i, false
}

// parsePropertyLines parses :KEY: value pairs preserving order. Lines that
// do not look like properties are skipped.
func parsePropertyLines(lines []string) *PropertyDrawer {
	drawer := &PropertyDrawer{}
	for _, raw := range lines {
		m := propertyLineRe.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		drawer.Set(m[1], strings.TrimSpace(m[2]))
	}
	return drawer
}

// parseTable consumes consecutive table lines starting at i.
func (p *parser) parseTable(i int) (int, *Table) {
	table := &Table{}
	for i < len(p.lines) {
		ln := classifyLine(p.lines[i])
		switch ln.kind {
		case lineTableSep:
			table.Rows = append(table.Rows, TableRow{Separator: true})
		case lineTableRow:
			table.Rows = append(table.Rows, TableRow{Cells: splitTableCells(ln.raw)})
		default:
			return i, table
		}
		i++
	}
	return i, table
}

// splitTableCells splits "| a | b |" into trimmed cell values. Padding is
// not preserved; the serializer re-pads uniformly.
func splitTableCells(raw string) []string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")
	parts := strings.Split(s, "|")
	cells := make([]string, len(parts))
	for i, c := range parts {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// parsePlanningLine extracts every SCHEDULED/DEADLINE/CLOSED item on the
// line and reports whether at least one parsed. Items whose timestamp is
// malformed are dropped without aborting the others.
func (p *parser) parsePlanningLine(h *Headline, raw string) bool {
	locs := planningItemRe.FindAllStringSubmatchIndex(raw, -1)
	parsed := false
	for idx, loc := range locs {
		keyword := raw[loc[2]:loc[3]]
		start := loc[1]
		end := len(raw)
		if idx+1 < len(locs) {
			end = locs[idx+1][0]
		}
		ts, ok := ParseTimestamp(strings.TrimSpace(raw[start:end]))
		if !ok {
			continue
		}
		if h.Planning == nil {
			h.Planning = &Planning{}
		}
		switch keyword {
		case "SCHEDULED":
			h.Planning.Scheduled = ts
		case "DEADLINE":
			h.Planning.Deadline = ts
		case "CLOSED":
			h.Planning.Closed = ts
		}
		parsed = true
	}
	return parsed
}

var clockBodyRe = regexp.MustCompile(`^(\[[^\]]*\])(?:--(\[[^\]]*\])\s*=>\s*(\d+:\d{2}))?$`)

// parseClockLine parses the text after "CLOCK:". Closed entries carry
// "[start]--[end] => H:MM"; a running clock is just "[start]".
func parseClockLine(body string) (ClockEntry, bool) {
	m := clockBodyRe.FindStringSubmatch(strings.TrimSpace(body))
	if m == nil {
		return ClockEntry{}, false
	}
	start, ok := ParseTimestamp(m[1])
	if !ok {
		return ClockEntry{}, false
	}
	entry := ClockEntry{Start: start}
	if m[2] != "" {
		end, ok := ParseTimestamp(m[2])
		if !ok {
			return ClockEntry{}, false
		}
		entry.End = end
		entry.Duration = m[3]
	}
	return entry, true
}
