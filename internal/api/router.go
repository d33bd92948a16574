package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/ansuz/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// vaultRoot is used to resolve the attachments directory.
//
// Operations addressing one document carry its vault path in the URL
// wildcard; chi cannot place a verb after a multi-segment wildcard, so
// per-document views get their own prefixes (/outline/a/b.org rather
// than /documents/a/b.org/outline).
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler, vaultRoot string) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler(vaultRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents CRUD.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.UpdateDocument)
	r.Delete("/documents/*", h.DeleteDocument)

	// Per-document views and mutations.
	r.Get("/outline/*", h.Outline)
	r.Post("/query/*", h.QueryHeadlines)
	r.Post("/todo/*", h.SetTodo)
	r.Get("/table/*", h.ExportTable)
	r.Get("/clock/*", h.ClockReport)
	r.Post("/move/*", h.MoveDocument)

	// Vault-wide views.
	r.Get("/agenda", h.Agenda)
	r.Get("/todos", h.ListTodos)
	r.Get("/search", h.Search)
	r.Get("/graph", h.Graph)

	// Attachments upload (auth-protected).
	r.Post("/attachments", ah.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
