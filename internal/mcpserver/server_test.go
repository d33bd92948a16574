package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/storage"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "ansuz-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	srv := New(docservice.NewService(store, db), store)
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so dispatch to the
	// handler functions registered in New.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_documents":
		result, err = srv.searchDocuments(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "read_outline":
		result, err = srv.readOutline(ctx, req)
	case "create_document":
		result, err = srv.createDocument(ctx, req)
	case "set_todo_state":
		result, err = srv.setTodoState(ctx, req)
	case "agenda":
		result, err = srv.agenda(ctx, req)
	case "clock_report":
		result, err = srv.clockReport(ctx, req)
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_document_contract":
		result, err = srv.getDocumentContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadDocument(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_document", map[string]interface{}{
		"path":    "test.org",
		"content": "#+TITLE: Test\n\n* Heading\nHello\n",
	})
	text := resultText(r)
	if text != "created: test.org" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_document", map[string]interface{}{
		"path": "test.org",
	})
	text = resultText(r)
	if text != "#+TITLE: Test\n\n* Heading\nHello\n" {
		t.Errorf("read result = %q", text)
	}
}

func TestCreateDocument_RejectsBadExtension(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_document", map[string]interface{}{
		"path":    "test.md",
		"content": "nope",
	})
	if !r.IsError {
		t.Fatal("expected error for non-.org path")
	}
	if !strings.Contains(resultText(r), ".org") {
		t.Errorf("error should mention .org: %q", resultText(r))
	}
}

func TestCreateDocument_AlreadyExists(t *testing.T) {
	srv, _ := testServer(t)
	args := map[string]interface{}{"path": "dup.org", "content": "* A\n"}
	_ = callTool(t, srv, "create_document", args)

	r := callTool(t, srv, "create_document", args)
	if !r.IsError {
		t.Fatal("expected error for duplicate create")
	}
}

func TestListDocuments(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("a.org", []byte("a"))
	_ = store.Write("b.org", []byte("b"))

	r := callTool(t, srv, "list_documents", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "a.org") || !strings.Contains(text, "b.org") {
		t.Errorf("list = %q", text)
	}
}

func TestReadDocumentMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_document", map[string]interface{}{"path": "nope.org"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestReadOutline(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_document", map[string]interface{}{
		"path":    "plan.org",
		"content": "#+TITLE: Plan\n\n* TODO [#A] Parent :work:\n** Child\n",
	})

	r := callTool(t, srv, "read_outline", map[string]interface{}{"path": "plan.org"})
	var items []docservice.OutlineItem
	if err := json.Unmarshal([]byte(resultText(r)), &items); err != nil {
		t.Fatalf("outline not valid JSON: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("top-level items = %d, want 1", len(items))
	}
	if items[0].Title != "Parent" || items[0].TodoKeyword != "TODO" || items[0].Priority != "A" {
		t.Errorf("item = %+v", items[0])
	}
	if len(items[0].Children) != 1 || items[0].Children[0].Title != "Child" {
		t.Errorf("children = %+v", items[0].Children)
	}
}

func TestSetTodoState(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_document", map[string]interface{}{
		"path":    "tasks.org",
		"content": "* TODO Write report\n",
	})

	r := callTool(t, srv, "set_todo_state", map[string]interface{}{
		"path":     "tasks.org",
		"headline": "Write report",
		"keyword":  "DONE",
	})
	if r.IsError {
		t.Fatalf("set_todo_state failed: %s", resultText(r))
	}

	r = callTool(t, srv, "read_document", map[string]interface{}{"path": "tasks.org"})
	if !strings.Contains(resultText(r), "* DONE Write report") {
		t.Errorf("document after update = %q", resultText(r))
	}

	// Omitting the keyword clears the state.
	r = callTool(t, srv, "set_todo_state", map[string]interface{}{
		"path":     "tasks.org",
		"headline": "Write report",
	})
	if r.IsError {
		t.Fatalf("clear failed: %s", resultText(r))
	}
	r = callTool(t, srv, "read_document", map[string]interface{}{"path": "tasks.org"})
	if !strings.Contains(resultText(r), "* Write report") {
		t.Errorf("document after clear = %q", resultText(r))
	}
}

func TestSetTodoState_MissingHeadline(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_document", map[string]interface{}{
		"path":    "tasks.org",
		"content": "* TODO Real task\n",
	})

	r := callTool(t, srv, "set_todo_state", map[string]interface{}{
		"path":     "tasks.org",
		"headline": "No such task",
		"keyword":  "DONE",
	})
	if !r.IsError {
		t.Fatal("expected error for unknown headline")
	}
}

func TestAgendaWindow(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_document", map[string]interface{}{
		"path":    "bills.org",
		"content": "* TODO Pay rent\nSCHEDULED: <2025-06-10 Tue>\n",
	})

	r := callTool(t, srv, "agenda", map[string]interface{}{
		"from": "2025-06-09",
		"to":   "2025-06-11",
	})
	if !strings.Contains(resultText(r), "Pay rent") {
		t.Errorf("agenda = %q", resultText(r))
	}

	r = callTool(t, srv, "agenda", map[string]interface{}{
		"from": "2025-07-01",
		"to":   "2025-07-07",
	})
	if !strings.Contains(resultText(r), "no scheduled or deadline entries") {
		t.Errorf("out-of-window agenda = %q", resultText(r))
	}
}

func TestClockReportTool(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_document", map[string]interface{}{
		"path":    "work.org",
		"content": "* Deep work\nCLOCK: [2025-01-18 Sat 14:00]--[2025-01-18 Sat 15:30] =>  1:30\n",
	})

	r := callTool(t, srv, "clock_report", map[string]interface{}{"path": "work.org"})
	var report docservice.ClockReport
	if err := json.Unmarshal([]byte(resultText(r)), &report); err != nil {
		t.Fatalf("report not valid JSON: %v", err)
	}
	if report.Minutes != 90 || report.Total != "1:30" {
		t.Errorf("report = %+v", report)
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_document", map[string]interface{}{
		"path":    "a.org",
		"content": "links to [[b.org]]\n",
	})

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "b.org"})
	text := resultText(r)
	if text != "a.org" {
		t.Errorf("backlinks = %q, want a.org", text)
	}
}

func TestGetDocumentContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_document_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "#+TITLE") || !strings.Contains(text, "upload_asset") {
		t.Errorf("contract missing expected sections")
	}
}
