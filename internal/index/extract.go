package index

import (
	"fmt"
	"time"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/pkg/org"
)

// IndexDocument parses data and upserts the resulting rows. Shared by the
// sync pass, the watcher, and the document service.
func IndexDocument(db *DB, path string, data []byte) error {
	doc := org.Parse(data)
	m := models.Describe(path, data, doc)
	row := DocumentRow{
		Path:      path,
		Title:     m.Title,
		Checksum:  m.Checksum,
		Tags:      m.Tags,
		TodoCount: m.TodoCount,
		DoneCount: m.DoneCount,
		UpdatedAt: time.Now(),
	}
	return db.UpsertDocument(row, string(data), HeadlineRows(path, doc), m.Links)
}

// HeadlineRows flattens the outline into headlines-table rows, one per
// headline in pre-order.
func HeadlineRows(path string, doc *org.Document) []HeadlineRow {
	var rows []HeadlineRow
	for i, h := range org.AllHeadlines(doc) {
		row := HeadlineRow{
			DocPath:     path,
			Position:    i,
			Level:       h.Level,
			Title:       h.Title,
			TodoKeyword: h.TodoKeyword,
			TodoType:    string(h.TodoType),
			Priority:    h.Priority,
			Tags:        h.Tags,
		}
		row.Scheduled, row.ScheduledTime = stampColumns(h.Scheduled())
		row.Deadline, row.DeadlineTime = stampColumns(h.Deadline())
		rows = append(rows, row)
	}
	return rows
}

// stampColumns renders a planning timestamp as sortable date and time
// column values.
func stampColumns(ts *org.Timestamp) (string, string) {
	if ts == nil {
		return "", ""
	}
	date := fmt.Sprintf("%04d-%02d-%02d", ts.YearStart, ts.MonthStart, ts.DayStart)
	if !ts.HasTime {
		return date, ""
	}
	return date, fmt.Sprintf("%02d:%02d", ts.HourStart, ts.MinuteStart)
}
