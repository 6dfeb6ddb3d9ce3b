package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDraftValidate(t *testing.T) {
	cases := []struct {
		name string
		d    Draft
		want error
	}{
		{"ok", Draft{Title: "lunch", Content: "cat on the table"}, nil},
		{"ok with date", Draft{Date: "2025-03-01", Title: "a", Content: "b"}, nil},
		{"empty title", Draft{Title: "  ", Content: "b"}, ErrEmptyTitle},
		{"empty content", Draft{Title: "a", Content: ""}, ErrEmptyContent},
		{"bad date", Draft{Date: "03/01/2025", Title: "a", Content: "b"}, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.d.Validate(); got != tc.want {
				t.Fatalf("Validate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDraftNormalizeDefaultsDate(t *testing.T) {
	now := time.Date(2025, 7, 4, 15, 0, 0, 0, time.UTC)
	d := Draft{Title: " t ", Content: " c "}.Normalize(now)
	if d.Date != "2025-07-04" {
		t.Fatalf("date = %q", d.Date)
	}
	if d.Title != "t" || d.Content != "c" {
		t.Fatalf("not trimmed: %+v", d)
	}
}

func TestNewTransactionIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewTransactionID()
		if !strings.HasPrefix(id, "txn-") {
			t.Fatalf("unexpected id %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestParseDate(t *testing.T) {
	if _, ok := ParseDate("2025-01-02"); !ok {
		t.Fatal("plain date not parsed")
	}
	if _, ok := ParseDate("2025-01-02T10:00:00Z"); !ok {
		t.Fatal("rfc3339 not parsed")
	}
	if _, ok := ParseDate("yesterday"); ok {
		t.Fatal("garbage parsed")
	}
	if _, ok := ParseDate(""); ok {
		t.Fatal("empty parsed")
	}
}

func TestDisplayCategory(t *testing.T) {
	if got := (Transaction{CategoryName: "很好笑", Category: "x"}).DisplayCategory(); got != "很好笑" {
		t.Fatalf("got %q", got)
	}
	if got := (Transaction{Category: "超好笑"}).DisplayCategory(); got != "超好笑" {
		t.Fatalf("got %q", got)
	}
}

func TestBudgetDecodesStringAndNumber(t *testing.T) {
	for _, raw := range []string{`{"id":"b1","amount":"12.50"}`, `{"id":"b1","amount":12.5}`} {
		var b Budget
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if b.Amount.StringFixed(2) != "12.50" {
			t.Fatalf("amount = %s", b.Amount.StringFixed(2))
		}
	}
}

func TestFallbackCategories(t *testing.T) {
	cats := FallbackCategories()
	if len(cats) != 3 || cats[0].Name != "有點好笑" || cats[2].ColorHex != "#00cec9" {
		t.Fatalf("unexpected fallback set: %+v", cats)
	}
	// callers may mutate the returned slice
	cats[0].Name = "x"
	if FallbackCategories()[0].Name != "有點好笑" {
		t.Fatal("fallback set shared between calls")
	}
}
