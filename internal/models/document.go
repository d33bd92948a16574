// Package models defines the domain types for Ansuz.
package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/pkg/org"
)

// Document represents a parsed Org file in the vault.
type Document struct {
	Path      string    `json:"path"`
	Content   []byte    `json:"-"`
	Title     string    `json:"title,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Links     []Link    `json:"links,omitempty"`
	TodoCount int       `json:"todo_count"`
	DoneCount int       `json:"done_count"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentMetadata is a lightweight representation returned by list operations.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link represents a directed edge from a document to a link target.
// Protocol is the scheme inferred by the org package ("file", "id",
// "internal"); external schemes are not recorded.
type Link struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Protocol string `json:"protocol"`
}

// Describe derives vault metadata from a parsed document: title, file
// tags, open/done counts, and the outgoing links that can point at other
// vault entries. CreatedAt/UpdatedAt are left for the caller, which knows
// the file times.
func Describe(path string, data []byte, doc *org.Document) Document {
	d := Document{
		Path:     path,
		Content:  data,
		Title:    DocTitle(doc, path),
		Tags:     doc.FileTags(),
		Links:    DocLinks(path, doc),
		Checksum: checksum.Sum(data),
	}
	for _, h := range org.AllHeadlines(doc) {
		switch h.TodoType {
		case org.TodoTypeTodo:
			d.TodoCount++
		case org.TodoTypeDone:
			d.DoneCount++
		}
	}
	return d
}

// DocTitle resolves the display title: the #+TITLE keyword, else the
// first headline, else the file name without extension.
func DocTitle(doc *org.Document, path string) string {
	if t, ok := doc.Get("TITLE"); ok && t != "" {
		return t
	}
	if len(doc.Children) > 0 && doc.Children[0].Title != "" {
		return doc.Children[0].Title
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DocLinks collects the vault-addressable links of a document, one edge
// per distinct target. File links are stored without the scheme so the
// target matches a vault path; id and bare internal links are stored as
// written. External schemes (http, mailto, ...) are skipped.
func DocLinks(path string, doc *org.Document) []Link {
	var out []Link
	seen := make(map[string]struct{})
	org.MapElements(doc, org.LinkNode, func(n org.Node) {
		l := n.(*org.Link)
		var target string
		switch l.Protocol {
		case "file":
			target = strings.TrimPrefix(l.Path, "file:")
		case "id", "internal":
			target = l.Path
		default:
			return
		}
		if target == "" {
			return
		}
		if _, dup := seen[target]; dup {
			return
		}
		seen[target] = struct{}{}
		out = append(out, Link{Source: path, Target: target, Protocol: l.Protocol})
	})
	return out
}
