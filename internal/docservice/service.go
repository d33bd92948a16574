// Package docservice coordinates vault storage, the org document model,
// and the search index behind the operations exposed over HTTP and MCP.
package docservice

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/pkg/org"
)

// DocumentDetail is the full representation of a document.
type DocumentDetail struct {
	Path      string            `json:"path"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Checksum  string            `json:"checksum"`
	Tags      []string          `json:"tags"`
	Keywords  map[string]string `json:"keywords,omitempty"`
	TodoCount int               `json:"todo_count"`
	DoneCount int               `json:"done_count"`
	Backlinks []string          `json:"backlinks"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	TodoCount int       `json:"todo_count"`
	DoneCount int       `json:"done_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store storage.Provider
	db    *index.DB
}

// NewService creates a new document service.
func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{store: store, db: db}
}

// GetDocument reads a document from storage, parses it, and enriches it
// with backlinks.
func (s *Service) GetDocument(_ context.Context, path string) (*DocumentDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildDetail(path, data)
}

// CreateDocument writes a new document and indexes it. Paths must carry
// the .org extension; anything else would be invisible to listing and to
// watcher reconciliation.
func (s *Service) CreateDocument(_ context.Context, path string, content []byte) (*DocumentDetail, error) {
	if !strings.HasSuffix(path, ".org") {
		return nil, apperr.ErrInvalidPath
	}
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, path, content); err != nil {
		return nil, err
	}
	return s.buildDetail(path, content)
}

// UpdateDocument writes updated content with optimistic concurrency.
func (s *Service) UpdateDocument(_ context.Context, path string, content []byte, ifMatch string) (*DocumentDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, path, content); err != nil {
		return nil, err
	}
	return s.buildDetail(path, content)
}

// DeleteDocument removes a document from storage and index.
func (s *Service) DeleteDocument(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.db.DeleteDocument(path)
}

// RenameDocument moves a document to a new path and reindexes it under
// the new name. Backlinks pointing at the old path are left to their
// owning documents; the index rows for the old path are dropped.
func (s *Service) RenameDocument(_ context.Context, path, newPath string) (*DocumentDetail, error) {
	if !strings.HasSuffix(newPath, ".org") {
		return nil, apperr.ErrInvalidPath
	}
	if _, err := s.store.Read(newPath); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Move(path, newPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if err := s.db.DeleteDocument(path); err != nil {
		return nil, err
	}
	data, err := s.store.Read(newPath)
	if err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, newPath, data); err != nil {
		return nil, err
	}
	return s.buildDetail(newPath, data)
}

// SetTodo rewrites the TODO state of the named headline and persists the
// document with optimistic concurrency. The headline is matched by exact
// title; an empty keyword clears the state.
func (s *Service) SetTodo(_ context.Context, path, headline, keyword, ifMatch string) (*DocumentDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(data) {
		return nil, apperr.ErrConflict
	}
	doc := org.Parse(data)
	h, ok := org.FindHeadline(doc, func(h *org.Headline) bool { return h.Title == headline })
	if !ok {
		return nil, apperr.ErrNotFound
	}
	org.SetTodo(h, keyword)
	out := []byte(doc.String())
	if err := s.store.Write(path, out); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, path, out); err != nil {
		return nil, err
	}
	return s.buildDetail(path, out)
}

// ListDocuments returns paginated documents with optional tag filter.
func (s *Service) ListDocuments(_ context.Context, limit, offset int, tag, sort string) ([]DocumentListItem, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentListItem, len(rows))
	for i, r := range rows {
		items[i] = DocumentListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			TodoCount: r.TodoCount,
			DoneCount: r.DoneCount,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Graph returns all nodes and links for graph visualization.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphLink, error) {
	return s.db.Graph()
}

// Backlinks returns all document paths that link to the given target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	return s.db.Backlinks(target)
}

// buildDetail constructs a DocumentDetail from raw data without re-reading
// the file.
func (s *Service) buildDetail(path string, data []byte) (*DocumentDetail, error) {
	doc := org.Parse(data)
	m := models.Describe(path, data, doc)
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{
		Path:      path,
		Title:     m.Title,
		Content:   string(data),
		Checksum:  m.Checksum,
		Tags:      nonNilSlice(m.Tags),
		Keywords:  keywordMap(doc),
		TodoCount: m.TodoCount,
		DoneCount: m.DoneCount,
		Backlinks: nonNilSlice(bl),
		UpdatedAt: time.Now(),
	}, nil
}

// keywordMap flattens document keywords to a map with upper-cased keys.
// Later occurrences of a key override earlier ones, matching Document.Get.
func keywordMap(doc *org.Document) map[string]string {
	if len(doc.Keywords) == 0 {
		return nil
	}
	m := make(map[string]string, len(doc.Keywords))
	for _, kw := range doc.Keywords {
		m[strings.ToUpper(kw.Key)] = kw.Value
	}
	return m
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
