package docservice

import (
	"context"
	"errors"
	"os"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/pkg/org"
)

// OutlineItem is one headline in a document outline.
type OutlineItem struct {
	Title       string        `json:"title"`
	Level       int           `json:"level"`
	TodoKeyword string        `json:"todo_keyword,omitempty"`
	TodoType    string        `json:"todo_type,omitempty"`
	Priority    string        `json:"priority,omitempty"`
	Tags        []string      `json:"tags"`
	Scheduled   string        `json:"scheduled,omitempty"`
	Deadline    string        `json:"deadline,omitempty"`
	Children    []OutlineItem `json:"children"`
}

// ClockReport summarizes logged work time for one document.
type ClockReport struct {
	Path    string      `json:"path"`
	Minutes int         `json:"minutes"`
	Total   string      `json:"total"`
	Entries []ClockLine `json:"entries"`
}

// ClockLine is one top-level headline's share of a clock report. Minutes
// include the headline's whole subtree.
type ClockLine struct {
	Title   string `json:"title"`
	Minutes int    `json:"minutes"`
	Clocked string `json:"clocked"`
}

// Outline returns the headline tree of a document without body content.
func (s *Service) Outline(_ context.Context, path string) ([]OutlineItem, error) {
	doc, err := s.parse(path)
	if err != nil {
		return nil, err
	}
	return outlineItems(doc.Children), nil
}

// QueryHeadlines returns the headlines of one document that match the
// predicate, flattened in outline order.
func (s *Service) QueryHeadlines(_ context.Context, path string, p org.Predicate) ([]OutlineItem, error) {
	doc, err := s.parse(path)
	if err != nil {
		return nil, err
	}
	matches := org.QueryHeadlines(doc, p)
	items := make([]OutlineItem, len(matches))
	for i, h := range matches {
		items[i] = outlineItem(h)
	}
	return items, nil
}

// ExportTable renders one table from a document as JSON or CSV. An empty
// headline selects tables across the whole document; otherwise only
// tables under the named headline count. The index is zero-based in
// selection order.
func (s *Service) ExportTable(_ context.Context, path, headline string, tableIndex int, format string, headers bool) (string, error) {
	doc, err := s.parse(path)
	if err != nil {
		return "", err
	}
	var tables []*org.Table
	collect := func(n org.Node) { tables = append(tables, n.(*org.Table)) }
	if headline == "" {
		org.MapElements(doc, org.TableNode, collect)
	} else {
		h, ok := org.FindHeadline(doc, func(h *org.Headline) bool { return h.Title == headline })
		if !ok {
			return "", apperr.ErrNotFound
		}
		org.MapElementsIn(h, org.TableNode, collect)
	}
	if tableIndex < 0 || tableIndex >= len(tables) {
		return "", apperr.ErrNotFound
	}
	if format == "csv" {
		return org.TableToCSV(tables[tableIndex])
	}
	out, err := org.TableToJSON(tables[tableIndex], headers)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ClockReport totals CLOCK entries per top-level headline and for the
// document as a whole.
func (s *Service) ClockReport(_ context.Context, path string) (*ClockReport, error) {
	doc, err := s.parse(path)
	if err != nil {
		return nil, err
	}
	report := &ClockReport{Path: path, Entries: []ClockLine{}}
	for _, h := range doc.Children {
		minutes := org.TotalClockTime(h, true)
		if minutes == 0 {
			continue
		}
		report.Minutes += minutes
		report.Entries = append(report.Entries, ClockLine{
			Title:   h.Title,
			Minutes: minutes,
			Clocked: org.FormatDuration(minutes),
		})
	}
	report.Total = org.FormatDuration(report.Minutes)
	return report, nil
}

// Agenda returns scheduled and deadline entries across the vault within
// an inclusive date window (YYYY-MM-DD).
func (s *Service) Agenda(_ context.Context, from, to string) ([]index.AgendaRow, error) {
	rows, err := s.db.Agenda(from, to)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(rows), nil
}

// Todos returns open TODO headlines across the vault, optionally filtered
// to a single keyword.
func (s *Service) Todos(_ context.Context, keyword string, limit int) ([]index.HeadlineRow, error) {
	rows, err := s.db.ListTodos(keyword, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(rows), nil
}

// parse reads a document from storage and parses it.
func (s *Service) parse(path string) (*org.Document, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return org.Parse(data), nil
}

func outlineItems(hs []*org.Headline) []OutlineItem {
	items := make([]OutlineItem, len(hs))
	for i, h := range hs {
		items[i] = outlineItem(h)
		items[i].Children = outlineItems(h.Children)
	}
	return items
}

func outlineItem(h *org.Headline) OutlineItem {
	item := OutlineItem{
		Title:       h.Title,
		Level:       h.Level,
		TodoKeyword: h.TodoKeyword,
		TodoType:    string(h.TodoType),
		Priority:    h.Priority,
		Tags:        nonNilSlice(h.Tags),
		Children:    []OutlineItem{},
	}
	if ts := h.Scheduled(); ts != nil {
		item.Scheduled = ts.String()
	}
	if ts := h.Deadline(); ts != nil {
		item.Deadline = ts.String()
	}
	return item
}
