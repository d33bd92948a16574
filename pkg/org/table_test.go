package org

import (
	"encoding/json"
	"testing"
)

func fixtureTable(t *testing.T, text string) *Table {
	t.Helper()
	doc := ParseString(text)
	tbl, ok := doc.Body[0].(*Table)
	if !ok {
		t.Fatalf("body[0] = %#v, want table", doc.Body[0])
	}
	return tbl
}

func TestTableMaps(t *testing.T) {
	tbl := fixtureTable(t, "| Name | Qty |\n|------+-----|\n| bolt | 4 |\n| nut |\n")
	maps := TableMaps(tbl)
	if len(maps) != 2 {
		t.Fatalf("maps = %d, want 2", len(maps))
	}
	if maps[0]["Name"] != "bolt" || maps[0]["Qty"] != "4" {
		t.Errorf("row 0 = %v", maps[0])
	}
	// Short rows leave missing columns empty.
	if maps[1]["Name"] != "nut" || maps[1]["Qty"] != "" {
		t.Errorf("row 1 = %v", maps[1])
	}
}

func TestTableToJSON_WithHeaders(t *testing.T) {
	tbl := fixtureTable(t, "| k | v |\n| a | 1 |\n")
	data, err := TableToJSON(tbl, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rows []map[string]string
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("invalid JSON %q: %v", data, err)
	}
	if len(rows) != 1 || rows[0]["k"] != "a" || rows[0]["v"] != "1" {
		t.Errorf("rows = %v", rows)
	}
}

func TestTableToJSON_RawRows(t *testing.T) {
	tbl := fixtureTable(t, "| a | 1 |\n|---|\n| b | 2 |\n")
	data, err := TableToJSON(tbl, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("invalid JSON %q: %v", data, err)
	}
	if len(rows) != 2 || rows[1][1] != "2" {
		t.Errorf("rows = %v", rows)
	}
}

func TestTableToCSV_Quoting(t *testing.T) {
	doc := ParseString("* H\n| name | note |\n| widget, large | say \"hi\" |\n")
	tbl := doc.Children[0].Body[0].(*Table)
	got, err := TableToCSV(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "name,note\n\"widget, large\",\"say \"\"hi\"\"\"\n"
	if got != want {
		t.Errorf("csv = %q, want %q", got, want)
	}
}

func TestTableToCSV_EmptyTable(t *testing.T) {
	tbl := &Table{Rows: []TableRow{{Separator: true}}}
	got, err := TableToCSV(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("csv = %q, want empty", got)
	}
}

func TestTableToJSON_EmptyTable(t *testing.T) {
	data, err := TableToJSON(&Table{}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("json = %q, want []", data)
	}
}
