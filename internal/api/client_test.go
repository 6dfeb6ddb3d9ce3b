package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestDoHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, WithTokenSource(staticToken("abc")))
	_, err := c.Do(context.Background(), "/api/transactions", Options{
		Headers: map[string]string{
			"X-Extra":       "1",
			"Content-Type":  "text/plain",
			"Authorization": "Basic zzz",
		},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got.Get("Authorization") != "Bearer abc" {
		t.Errorf("Authorization = %q", got.Get("Authorization"))
	}
	if got.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", got.Get("Content-Type"))
	}
	if got.Get("X-Extra") != "1" {
		t.Errorf("caller header dropped")
	}
}

func TestDoWithoutTokenSendsNoAuthorization(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, WithTokenSource(staticToken("")))
	if _, err := c.Do(context.Background(), "/auth/login", Options{Method: http.MethodPost}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if auth != "" {
		t.Fatalf("unexpected Authorization %q", auth)
	}
}

func TestDoErrorNormalization(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
		wantMsg  string
	}{
		{"json message", http.StatusBadRequest, `{"message":"bad title"}`, KindStatus, "bad title"},
		{"json without message", http.StatusInternalServerError, `{"error":true}`, KindStatus, DefaultErrorMessage},
		{"html page", http.StatusNotFound, `<html>Not Found</html>`, KindStatus, "<html>Not Found</html>"},
		{"empty body", http.StatusBadGateway, ``, KindStatus, "Server Error: 502"},
		{"unauthorized", http.StatusUnauthorized, `{"message":"Unauthorized"}`, KindUnauthorized, "Unauthorized"},
		{"forbidden is a plain status", http.StatusForbidden, `{"message":"nope"}`, KindStatus, "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Do(context.Background(), "/x", Options{})
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if apiErr.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", apiErr.Kind, tt.wantKind)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
		})
	}
}

func TestDoNonJSONSuccessIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "OK")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	list, err := c.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}

func TestDoTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, 50*time.Millisecond).Do(context.Background(), "/slow", Options{})
	if !IsTimeout(err) {
		t.Fatalf("expected timeout kind, got %v", err)
	}
}

func TestDoTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Do(context.Background(), "/x", Options{})
	if KindOf(err) != KindTransport {
		t.Fatalf("expected transport kind, got %v", err)
	}
}

func TestListTransactionsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"not":"a list"}}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).ListTransactions(context.Background())
	if KindOf(err) != KindMalformed {
		t.Fatalf("expected malformed kind, got %v", err)
	}
}

func TestListTransactionsNumericCells(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"id":"txn-1","date":"2025-01-01","title":"t","amount":"ok"},{"id":2,"date":"2025-01-02","title":"n","amount":42}]}`)
	}))
	defer srv.Close()

	txns, err := NewClient(srv.URL, time.Second).ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txns) != 2 || txns[1].ID != "2" || txns[1].Amount != "42" {
		t.Fatalf("txns = %+v", txns)
	}
}

func TestTypedEndpoints(t *testing.T) {
	type call struct {
		method, path string
		body         map[string]any
	}
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := call{method: r.Method, path: r.URL.Path}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&c.body)
		}
		calls = append(calls, c)
		switch {
		case r.URL.Path == "/auth/login":
			_, _ = io.WriteString(w, `{"token":"t0k","user":"me"}`)
		case r.URL.Path == "/api/categories" && r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"data":[{"id":"1","name":"很好笑","color_hex":"#fff"}]}`)
		case r.URL.Path == "/api/transactions" && r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"data":[{"id":"a","date":"2025-01-01","title":"t","amount":"c","category_name":"很好笑"}]}`)
		case r.URL.Path == "/api/budget":
			_, _ = io.WriteString(w, `{"data":[{"id":"b","amount":"100"}]}`)
		default:
			_, _ = io.WriteString(w, `{"message":"ok"}`)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	login, err := c.Login(ctx, "me", "pw")
	if err != nil || login.Token != "t0k" || !strings.Contains(string(login.Raw), `"user"`) {
		t.Fatalf("Login = %+v, %v", login, err)
	}
	cats, err := c.ListCategories(ctx)
	if err != nil || len(cats) != 1 || cats[0].ColorHex != "#fff" {
		t.Fatalf("ListCategories = %+v, %v", cats, err)
	}
	txns, err := c.ListTransactions(ctx)
	if err != nil || len(txns) != 1 || txns[0].CategoryName != "很好笑" {
		t.Fatalf("ListTransactions = %+v, %v", txns, err)
	}
	if err := c.CreateTransaction(ctx, NewTransaction{ID: "x", Date: "2025-01-01", Category: "c", Title: "t", Amount: "a"}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if err := c.UpdateReply(ctx, "x y", ""); err != nil {
		t.Fatalf("UpdateReply: %v", err)
	}
	if err := c.DeleteTransaction(ctx, "x"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := c.CreateCategory(ctx, "n", "#000"); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if err := c.DeleteCategory(ctx, "9"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	b, err := c.GetBudget(ctx)
	if err != nil || b.Amount.String() != "100" {
		t.Fatalf("GetBudget = %+v, %v", b, err)
	}

	login0 := calls[0]
	if login0.method != http.MethodPost || login0.body["username"] != "me" || login0.body["password"] != "pw" {
		t.Errorf("login call = %+v", login0)
	}
	create := calls[3]
	if create.method != http.MethodPost || create.body["id"] != "x" || create.body["amount"] != "a" {
		t.Errorf("create call = %+v", create)
	}
	reply := calls[4]
	if reply.method != http.MethodPut || reply.path != "/api/transactions/x y" {
		t.Errorf("reply call = %+v", reply)
	}
	if v, ok := reply.body["reply"]; !ok || v != "" || len(reply.body) != 1 {
		t.Errorf("reply body = %+v", reply.body)
	}
	if calls[5].method != http.MethodDelete || calls[5].path != "/api/transactions/x" {
		t.Errorf("delete call = %+v", calls[5])
	}
	if calls[6].body["color_hex"] != "#000" {
		t.Errorf("create category body = %+v", calls[6].body)
	}
	if calls[7].method != http.MethodDelete || calls[7].path != "/api/categories/9" {
		t.Errorf("delete category call = %+v", calls[7])
	}
}
