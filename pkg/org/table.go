package org

import (
	"encoding/csv"
	"encoding/json"
	"strings"
)

// TableMaps converts a table to one map per data row, keyed by the header
// row (the first data row). Cells are trimmed; short rows leave missing
// columns empty, extra cells beyond the header are dropped.
func TableMaps(t *Table) []map[string]string {
	rows := t.DataRows()
	if len(rows) == 0 {
		return nil
	}
	header := rows[0]
	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := make(map[string]string, len(header))
		for i, key := range header {
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			m[strings.TrimSpace(key)] = value
		}
		out = append(out, m)
	}
	return out
}

// TableToJSON marshals the table: with headers, an array of objects keyed
// by the header row; without, an array of raw row arrays. Empty tables
// yield an empty JSON array either way.
func TableToJSON(t *Table, headers bool) ([]byte, error) {
	if headers {
		maps := TableMaps(t)
		if maps == nil {
			maps = []map[string]string{}
		}
		return json.Marshal(maps)
	}
	rows := t.DataRows()
	if rows == nil {
		rows = [][]string{}
	}
	return json.Marshal(rows)
}

// TableToCSV renders the data rows, header included and separators
// skipped, as RFC 4180 CSV: cells are trimmed and fields containing the
// delimiter, a quote, or a newline are quoted with embedded quotes
// doubled. A table without data rows yields the empty string.
func TableToCSV(t *Table) (string, error) {
	rows := t.DataRows()
	if len(rows) == 0 {
		return "", nil
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	for _, row := range rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = strings.TrimSpace(cell)
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return b.String(), nil
}
