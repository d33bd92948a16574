package org

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// String renders the document back to Org text. Every supported construct
// survives a parse/serialize round trip: TODO keywords, priorities, tags,
// property drawers, planning lines, clock logs, tables, and block fences.
// Table cell padding and fence casing are normalized, nothing else is.
func (d *Document) String() string {
	var w strings.Builder
	for _, kw := range d.Keywords {
		writeKeyword(&w, kw)
	}
	if len(d.Keywords) > 0 && (len(d.Body) > 0 || len(d.Children) > 0) {
		w.WriteString("\n")
	}
	writeNodes(&w, d.Body)
	for _, h := range d.Children {
		writeHeadline(&w, h)
	}
	return w.String()
}

func writeHeadline(w *strings.Builder, h *Headline) {
	line := strings.Repeat("*", h.Level)
	if h.TodoKeyword != "" {
		line += " " + h.TodoKeyword
	}
	if h.Priority != "" {
		line += " [#" + h.Priority + "]"
	}
	if h.Title != "" {
		line += " " + h.Title
	}
	if len(h.Tags) > 0 {
		line += " :" + strings.Join(h.Tags, ":") + ":"
	}
	// A bare star run would not re-classify as a headline; the trailing
	// space keeps an empty heading parseable.
	if line == strings.Repeat("*", h.Level) {
		line += " "
	}
	w.WriteString(line + "\n")

	writePlanning(w, h.Planning)
	writeProperties(w, h.Properties)
	for _, c := range h.Clocks {
		writeClock(w, c)
	}
	writeNodes(w, h.Body)
	for _, child := range h.Children {
		writeHeadline(w, child)
	}
}

func writePlanning(w *strings.Builder, p *Planning) {
	if p.Empty() {
		return
	}
	var parts []string
	if p.Scheduled != nil {
		parts = append(parts, "SCHEDULED: "+p.Scheduled.String())
	}
	if p.Deadline != nil {
		parts = append(parts, "DEADLINE: "+p.Deadline.String())
	}
	if p.Closed != nil {
		parts = append(parts, "CLOSED: "+p.Closed.String())
	}
	w.WriteString(strings.Join(parts, " ") + "\n")
}

func writeProperties(w *strings.Builder, d *PropertyDrawer) {
	if d == nil {
		return
	}
	w.WriteString(":PROPERTIES:\n")
	for _, p := range d.Properties {
		if p.Value == "" {
			w.WriteString(":" + p.Name + ":\n")
		} else {
			w.WriteString(":" + p.Name + ": " + p.Value + "\n")
		}
	}
	w.WriteString(":END:\n")
}

func writeClock(w *strings.Builder, c ClockEntry) {
	if c.Start == nil {
		return
	}
	if c.End != nil {
		fmt.Fprintf(w, "CLOCK: %s--%s =>  %s\n", c.Start, c.End, c.Duration)
		return
	}
	fmt.Fprintf(w, "CLOCK: %s\n", c.Start)
}

// writeNodes renders body elements separated by single blank lines.
func writeNodes(w *strings.Builder, nodes []Node) {
	for i, n := range nodes {
		if i > 0 {
			w.WriteString("\n")
		}
		writeNode(w, n)
	}
}

func writeNode(w *strings.Builder, n Node) {
	switch t := n.(type) {
	case *Paragraph:
		for _, l := range t.Lines {
			w.WriteString(l + "\n")
		}
	case *Table:
		writeTable(w, t)
	case *Block:
		writeBlock(w, t)
	case *Drawer:
		w.WriteString(":" + t.Name + ":\n")
		for _, l := range t.Lines {
			w.WriteString(l + "\n")
		}
		w.WriteString(":END:\n")
	case Keyword:
		writeKeyword(w, t)
	case Comment:
		if t.Text == "" {
			w.WriteString("#\n")
		} else {
			w.WriteString("# " + t.Text + "\n")
		}
	case *Headline:
		writeHeadline(w, t)
	case *Link:
		w.WriteString(t.String() + "\n")
	case *Timestamp:
		w.WriteString(t.String() + "\n")
	}
}

func writeBlock(w *strings.Builder, b *Block) {
	header := "#+BEGIN_" + b.Kind
	if b.Language != "" {
		header += " " + b.Language
	}
	if b.Switches != "" {
		header += " " + b.Switches
	}
	w.WriteString(header + "\n")
	if b.Verbatim() {
		if b.Value != "" {
			w.WriteString(b.Value + "\n")
		}
	} else {
		writeNodes(w, b.Children)
	}
	w.WriteString("#+END_" + b.Kind + "\n")
}

func writeTable(w *strings.Builder, t *Table) {
	widths := tableColumnWidths(t)
	for _, row := range t.Rows {
		if row.Separator {
			if len(widths) == 0 {
				w.WriteString("|---|\n")
				continue
			}
			parts := make([]string, len(widths))
			for i, wd := range widths {
				parts[i] = strings.Repeat("-", wd+2)
			}
			w.WriteString("|" + strings.Join(parts, "+") + "|\n")
			continue
		}
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			pad := 0
			if i < len(widths) {
				pad = widths[i] - utf8.RuneCountInString(c)
			}
			cells[i] = " " + c + strings.Repeat(" ", pad) + " "
		}
		w.WriteString("|" + strings.Join(cells, "|") + "|\n")
	}
}

// tableColumnWidths returns the widest cell per column, in runes.
func tableColumnWidths(t *Table) []int {
	var widths []int
	for _, row := range t.Rows {
		for i, c := range row.Cells {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			if n := utf8.RuneCountInString(c); n > widths[i] {
				widths[i] = n
			}
		}
	}
	return widths
}

func writeKeyword(w *strings.Builder, k Keyword) {
	if k.Value == "" {
		w.WriteString("#+" + k.Key + ":\n")
	} else {
		w.WriteString("#+" + k.Key + ": " + k.Value + "\n")
	}
}
