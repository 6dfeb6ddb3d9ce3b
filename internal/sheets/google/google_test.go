package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"journal/internal/log"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc) *Resolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewWithService(svc, "sheet-123", log.Discard())
}

func TestResolverReturnsSpreadsheetURL(t *testing.T) {
	var gotPath, gotFields string
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		gotFields = req.URL.Query().Get("fields")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-123","spreadsheetUrl":"https://docs.google.com/spreadsheets/d/sheet-123/edit#gid=0"}`))
	})

	url, err := r.SpreadsheetURL(context.Background())
	if err != nil {
		t.Fatalf("SpreadsheetURL: %v", err)
	}
	if url != "https://docs.google.com/spreadsheets/d/sheet-123/edit#gid=0" {
		t.Errorf("url = %q", url)
	}
	if !strings.HasSuffix(gotPath, "/spreadsheets/sheet-123") {
		t.Errorf("path = %q", gotPath)
	}
	if gotFields != "spreadsheetUrl" {
		t.Errorf("fields = %q", gotFields)
	}
}

func TestResolverFallsBackToEditURL(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-123"}`))
	})
	url, err := r.SpreadsheetURL(context.Background())
	if err != nil || url != "https://docs.google.com/spreadsheets/d/sheet-123/edit" {
		t.Fatalf("got %q, %v", url, err)
	}
}

func TestResolverError(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	})
	if _, err := r.SpreadsheetURL(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), "  ", log.Discard()); err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("err = %v", err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), "sheet-123", log.Discard())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("err = %v", err)
	}
}
