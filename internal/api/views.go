package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

// Outline handles GET /api/outline/*.
//
//	@Summary		Get the headline tree of a document
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	map[string][]OutlineItem
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/outline/{path} [get]
func (h *Handler) Outline(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	items, err := h.svc.Outline(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("outline failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"outline": items,
	})
}

// QueryHeadlines handles POST /api/query/*.
//
//	@Summary		Query headlines of a document by structural predicate
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string			true	"Document path"
//	@Param			body	body		QueryRequest	true	"Predicate; set fields combine with AND"
//	@Success		200		{object}	map[string][]OutlineItem
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/query/{path} [post]
func (h *Handler) QueryHeadlines(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	items, err := h.svc.QueryHeadlines(r.Context(), path, req.Predicate())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("query failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matches": items,
	})
}

// SetTodo handles POST /api/todo/*.
//
//	@Summary		Rewrite the TODO state of one headline
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string		true	"Document path"
//	@Param			If-Match	header	string		false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	TodoRequest	true	"Headline title and new keyword"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/todo/{path} [post]
func (h *Handler) SetTodo(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req TodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Headline == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("headline is required"))
		return
	}
	doc, err := h.svc.SetTodo(r.Context(), path, req.Headline, req.Keyword, ifMatchHeader(r))
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		default:
			slog.Error("set todo failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ExportTable handles GET /api/table/*.
//
//	@Summary		Export one table of a document as JSON or CSV
//	@Tags			documents
//	@Produce		json
//	@Param			path		path	string	true	"Document path"
//	@Param			headline	query	string	false	"Restrict to tables under this headline"
//	@Param			index		query	int		false	"Zero-based table index"
//	@Param			format		query	string	false	"Output format"	Enums(json, csv)
//	@Param			headers		query	bool	false	"Treat first row as header (JSON objects)"
//	@Success		200
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/table/{path} [get]
func (h *Handler) ExportTable(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	q := r.URL.Query()
	idx, _ := strconv.Atoi(q.Get("index"))
	format := q.Get("format")
	headers := true
	if v := q.Get("headers"); v != "" {
		headers, _ = strconv.ParseBool(v)
	}
	out, err := h.svc.ExportTable(r.Context(), path, q.Get("headline"), idx, format, headers)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("table export failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(out)); err != nil {
		slog.Error("table write failed", slog.String("error", err.Error()))
	}
}

// ClockReport handles GET /api/clock/*.
//
//	@Summary		Summarize clocked time of a document
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	ClockReport
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clock/{path} [get]
func (h *Handler) ClockReport(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	report, err := h.svc.ClockReport(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("clock report failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// MoveDocument handles POST /api/move/*.
//
//	@Summary		Rename a document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string				true	"Current document path"
//	@Param			body	body		MoveDocumentRequest	true	"New path"
//	@Success		200		{object}	DocumentDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/move/{path} [post]
func (h *Handler) MoveDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req MoveDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.NewPath == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("new_path is required"))
		return
	}
	doc, err := h.svc.RenameDocument(r.Context(), path, req.NewPath)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrAlreadyExists):
			writeJSON(w, http.StatusConflict, errorBody("target already exists"))
		case errors.Is(err, apperr.ErrInvalidPath):
			writeJSON(w, http.StatusBadRequest, errorBody("new_path must end in .org"))
		default:
			slog.Error("move document failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Agenda handles GET /api/agenda.
//
//	@Summary		List scheduled and deadline entries in a date window
//	@Tags			agenda
//	@Produce		json
//	@Param			from	query		string	false	"Window start (YYYY-MM-DD), defaults to today"
//	@Param			to		query		string	false	"Window end (YYYY-MM-DD), defaults to a week out"
//	@Success		200		{object}	map[string][]AgendaEntry
//	@Security		BearerAuth
//	@Router			/agenda [get]
func (h *Handler) Agenda(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := q.Get("from")
	to := q.Get("to")
	if from == "" {
		from = time.Now().Format("2006-01-02")
	}
	if to == "" {
		to = time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	}
	rows, err := h.svc.Agenda(r.Context(), from, to)
	if err != nil {
		slog.Error("agenda failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":    from,
		"to":      to,
		"entries": rows,
	})
}

// ListTodos handles GET /api/todos.
//
//	@Summary		List open TODO headlines across the vault
//	@Tags			agenda
//	@Produce		json
//	@Param			keyword	query		string	false	"Restrict to one state keyword"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/todos [get]
func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	rows, err := h.svc.Todos(r.Context(), q.Get("keyword"), limit)
	if err != nil {
		slog.Error("list todos failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"todos": rows,
	})
}
