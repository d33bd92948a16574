package api

import (
	"time"

	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/pkg/org"
)

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	Path    string `json:"path" example:"projects/site.org" validate:"required"`
	Content string `json:"content" example:"#+TITLE: Site\n\n* TODO Launch" validate:"required"`
}

// UpdateDocumentRequest is the request body for updating a document.
type UpdateDocumentRequest struct {
	Content string `json:"content" example:"#+TITLE: Site\n\n* DONE Launch" validate:"required"`
}

// MoveDocumentRequest is the request body for renaming a document.
type MoveDocumentRequest struct {
	NewPath string `json:"new_path" example:"archive/site.org" validate:"required"`
}

// TodoRequest is the request body for rewriting a headline's TODO state.
// An empty keyword clears the state.
type TodoRequest struct {
	Headline string `json:"headline" example:"Launch" validate:"required"`
	Keyword  string `json:"keyword" example:"DONE"`
}

// QueryRequest selects headlines of one document. Unset fields do not
// constrain the match; set fields combine with AND.
type QueryRequest struct {
	TodoKeyword   string   `json:"todo_keyword,omitempty" example:"TODO"`
	TodoType      string   `json:"todo_type,omitempty" example:"todo"`
	HasTodo       *bool    `json:"has_todo,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	AnyTag        []string `json:"any_tag,omitempty"`
	Level         int      `json:"level,omitempty" example:"2"`
	MinLevel      int      `json:"min_level,omitempty"`
	MaxLevel      int      `json:"max_level,omitempty"`
	TitleContains string   `json:"title_contains,omitempty"`
	HasProperty   string   `json:"has_property,omitempty" example:"ID"`
}

// Predicate converts the request into an org structural query.
func (q QueryRequest) Predicate() org.Predicate {
	return org.Predicate{
		TodoKeyword:   q.TodoKeyword,
		TodoType:      org.TodoType(q.TodoType),
		HasTodo:       q.HasTodo,
		Tags:          q.Tags,
		AnyTag:        q.AnyTag,
		Level:         q.Level,
		MinLevel:      q.MinLevel,
		MaxLevel:      q.MaxLevel,
		TitleContains: q.TitleContains,
		HasProperty:   q.HasProperty,
	}
}

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = docservice.DocumentDetail

// DocumentListItem is a lightweight item in a list response (aliased from the domain layer).
type DocumentListItem = docservice.DocumentListItem

// OutlineItem is one headline in an outline response (aliased from the domain layer).
type OutlineItem = docservice.OutlineItem

// ClockReport is the clocked-time summary response type (aliased from the domain layer).
type ClockReport = docservice.ClockReport

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"projects/site.org" validate:"required"`
	Title   string `json:"title" example:"Site" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// GraphNode is a node in the document graph.
type GraphNode struct {
	ID    string `json:"id" example:"projects/site.org" validate:"required"`
	Title string `json:"title,omitempty" example:"Site"`
}

// GraphLink is an edge in the document graph.
type GraphLink struct {
	Source   string `json:"source" example:"projects/site.org" validate:"required"`
	Target   string `json:"target" example:"refs/style.org" validate:"required"`
	Protocol string `json:"protocol" example:"file"`
}

// GraphResponse wraps the document graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes" validate:"required"`
	Links []GraphLink `json:"links" validate:"required"`
}

// AgendaEntry is one scheduled or deadline item in an agenda response.
type AgendaEntry struct {
	Path        string `json:"path" example:"projects/site.org"`
	Title       string `json:"title" example:"Launch"`
	TodoKeyword string `json:"todo_keyword" example:"TODO"`
	Kind        string `json:"kind" example:"scheduled"`
	Date        string `json:"date" example:"2024-04-01"`
	Time        string `json:"time,omitempty" example:"09:30"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	Filename string `json:"filename" example:"diagram.png" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	URL      string `json:"url" example:"/attachments/diagram.png" validate:"required"`
}

// DocumentListItemDTO mirrors DocumentListItem for swag.
type DocumentListItemDTO struct {
	Path      string    `json:"path" example:"projects/site.org"`
	Title     string    `json:"title" example:"Site"`
	Checksum  string    `json:"checksum" example:"abc123..."`
	Tags      []string  `json:"tags" example:"work,web"`
	TodoCount int       `json:"todo_count" example:"3"`
	DoneCount int       `json:"done_count" example:"5"`
	UpdatedAt time.Time `json:"updated_at"`
}
