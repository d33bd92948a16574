package index

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/ansuz/internal/models"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string
	Title     string
	Checksum  string
	Tags      []string
	TodoCount int
	DoneCount int
	UpdatedAt time.Time
}

// HeadlineRow is one flattened outline entry in the headlines table.
// Scheduled and Deadline hold sortable YYYY-MM-DD dates (empty when the
// headline has no planning stamp); the *Time fields hold HH:MM when the
// stamp carries a clock time.
type HeadlineRow struct {
	DocPath       string
	Position      int
	Level         int
	Title         string
	TodoKeyword   string
	TodoType      string
	Priority      string
	Tags          []string
	Scheduled     string
	ScheduledTime string
	Deadline      string
	DeadlineTime  string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// GraphNode is a document node in the link graph.
type GraphNode struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// GraphLink is a directed edge in the link graph.
type GraphLink struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Protocol string `json:"protocol"`
}

// AgendaRow is one planning entry inside a date window. Kind is
// "scheduled" or "deadline".
type AgendaRow struct {
	DocPath     string `json:"doc_path"`
	Title       string `json:"title"`
	TodoKeyword string `json:"todo_keyword,omitempty"`
	TodoType    string `json:"todo_type,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Kind        string `json:"kind"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
}

// UpsertDocument replaces a document, its outline rows, its links, and its
// FTS entry within a transaction.
func (db *DB) UpsertDocument(row DocumentRow, body string, headlines []HeadlineRow, links []models.Link) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(row.Tags)

	// Upsert documents table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO documents (path, title, checksum, tags, todo_count, done_count, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			todo_count = excluded.todo_count,
			done_count = excluded.done_count,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, row.Path, row.Title, row.Checksum, string(tagsJSON), row.TodoCount, row.DoneCount, body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, row.Path, row.Title, body, row.Tags); err != nil {
		return err
	}

	// Replace outline rows: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM headlines WHERE doc_path = ?`, row.Path)
	if len(headlines) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO headlines (doc_path, position, level, title, todo_keyword, todo_type,
				priority, tags, scheduled, scheduled_time, deadline, deadline_time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare headline insert: %w", err)
		}
		defer stmt.Close()
		for _, h := range headlines {
			hTags, _ := json.Marshal(h.Tags)
			if _, err := stmt.Exec(row.Path, h.Position, h.Level, h.Title, h.TodoKeyword, h.TodoType,
				h.Priority, string(hTags), h.Scheduled, h.ScheduledTime, h.Deadline, h.DeadlineTime); err != nil {
				return fmt.Errorf("index: insert headline: %w", err)
			}
		}
	}

	// Replace links: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, row.Path)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, protocol) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			if _, err := stmt.Exec(row.Path, l.Target, l.Protocol); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document, its outline rows, its links, and its FTS entry.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM headlines WHERE doc_path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// ListDocuments returns a page of documents plus the total count. tag
// filters on the file tags; sort is one of updated_at (descending),
// title, or path.
func (db *DB) ListDocuments(limit, offset int, tag, sort string) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where, args := "", []any{}
	if tag != "" {
		// Tags are stored as a JSON array, so the quoted form is an
		// exact-element match.
		where = `WHERE tags LIKE ?`
		args = append(args, `%"`+tag+`"%`)
	}

	var order string
	switch sort {
	case "title":
		order = `title ASC, path ASC`
	case "path":
		order = `path ASC`
	default:
		order = `updated_at DESC, path ASC`
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	query := `SELECT path, title, checksum, tags, todo_count, done_count, updated_at
		FROM documents ` + where + ` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var r DocumentRow
		var tagsJSON string
		if err := rows.Scan(&r.Path, &r.Title, &r.Checksum, &tagsJSON, &r.TodoCount, &r.DoneCount, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// Graph returns every document as a node and every recorded link as an edge.
func (db *DB) Graph() ([]GraphNode, []GraphLink, error) {
	nodeRows, err := db.conn.Query(`SELECT path, title FROM documents ORDER BY path`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	defer nodeRows.Close()

	var nodes []GraphNode
	for nodeRows.Next() {
		var n GraphNode
		if err := nodeRows.Scan(&n.ID, &n.Title); err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, nil, err
	}

	linkRows, err := db.conn.Query(`SELECT source, target, protocol FROM links ORDER BY source, target`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph links: %w", err)
	}
	defer linkRows.Close()

	var links []GraphLink
	for linkRows.Next() {
		var l GraphLink
		if err := linkRows.Scan(&l.Source, &l.Target, &l.Protocol); err != nil {
			return nil, nil, err
		}
		links = append(links, l)
	}
	return nodes, links, linkRows.Err()
}

// Backlinks returns all document paths that link to the given target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Agenda returns the scheduled and deadline entries whose date falls in
// [from, to], both inclusive YYYY-MM-DD, ordered by date then time.
func (db *DB) Agenda(from, to string) ([]AgendaRow, error) {
	rows, err := db.conn.Query(`
		SELECT doc_path, title, todo_keyword, todo_type, priority,
		       'scheduled' AS kind, scheduled AS stamp_date, scheduled_time AS stamp_time
		FROM headlines
		WHERE scheduled != '' AND scheduled >= ? AND scheduled <= ?
		UNION ALL
		SELECT doc_path, title, todo_keyword, todo_type, priority,
		       'deadline', deadline, deadline_time
		FROM headlines
		WHERE deadline != '' AND deadline >= ? AND deadline <= ?
		ORDER BY stamp_date, stamp_time, doc_path
	`, from, to, from, to)
	if err != nil {
		return nil, fmt.Errorf("index: agenda: %w", err)
	}
	defer rows.Close()

	var out []AgendaRow
	for rows.Next() {
		var r AgendaRow
		if err := rows.Scan(&r.DocPath, &r.Title, &r.TodoKeyword, &r.TodoType, &r.Priority, &r.Kind, &r.Date, &r.Time); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListTodos returns the open headlines across the vault, optionally
// restricted to one state word, in document order.
func (db *DB) ListTodos(keyword string, limit int) ([]HeadlineRow, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT doc_path, position, level, title, todo_keyword, todo_type, priority, tags,
		scheduled, scheduled_time, deadline, deadline_time
		FROM headlines WHERE todo_type = 'todo'`
	args := []any{}
	if keyword != "" {
		query += ` AND todo_keyword = ?`
		args = append(args, keyword)
	}
	query += ` ORDER BY doc_path, position LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list todos: %w", err)
	}
	defer rows.Close()

	var out []HeadlineRow
	for rows.Next() {
		var h HeadlineRow
		var tagsJSON string
		if err := rows.Scan(&h.DocPath, &h.Position, &h.Level, &h.Title, &h.TodoKeyword, &h.TodoType,
			&h.Priority, &tagsJSON, &h.Scheduled, &h.ScheduledTime, &h.Deadline, &h.DeadlineTime); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &h.Tags)
		out = append(out, h)
	}
	return out, rows.Err()
}

// AllPaths returns every indexed document path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns the stored checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
