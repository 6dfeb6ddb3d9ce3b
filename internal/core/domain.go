package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of transaction dates.
const DateLayout = "2006-01-02"

type (
	Category struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		ColorHex string `json:"color_hex"`
	}

	// Transaction is one journal entry. Amount carries the free-text content,
	// not a number.
	Transaction struct {
		ID               string `json:"id"`
		Date             string `json:"date"`
		Title            string `json:"title"`
		Amount           string `json:"amount"`
		Category         string `json:"category,omitempty"`
		CategoryName     string `json:"category_name,omitempty"`
		CategoryColorHex string `json:"category_color_hex,omitempty"`
		Reply            string `json:"reply,omitempty"`
	}

	Budget struct {
		ID     Text            `json:"id"`
		Amount decimal.Decimal `json:"amount"`
	}

	// Draft is the input collected by the create dialog.
	Draft struct {
		Date     string
		Category string
		Title    string
		Content  string
	}
)

var (
	ErrEmptyTitle   = errors.New("empty title")
	ErrEmptyContent = errors.New("empty content")
	ErrInvalidDate  = errors.New("invalid date")
)

// DisplayCategory returns the category name as sent by the server, falling back
// to the raw category value.
func (t Transaction) DisplayCategory() string {
	if name := strings.TrimSpace(t.CategoryName); name != "" {
		return name
	}
	return strings.TrimSpace(t.Category)
}

// HasReply reports whether the entry carries a non-blank reply.
func (t Transaction) HasReply() bool {
	return strings.TrimSpace(t.Reply) != ""
}

// Validate checks the fields required before a create request is issued.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(d.Content) == "" {
		return ErrEmptyContent
	}
	if strings.TrimSpace(d.Date) != "" {
		if _, err := time.Parse(DateLayout, strings.TrimSpace(d.Date)); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}

// Normalize trims the draft and fills a blank date with today's date.
func (d Draft) Normalize(now time.Time) Draft {
	d.Date = strings.TrimSpace(d.Date)
	if d.Date == "" {
		d.Date = Today(now)
	}
	d.Category = strings.TrimSpace(d.Category)
	d.Title = strings.TrimSpace(d.Title)
	d.Content = strings.TrimSpace(d.Content)
	return d
}

// Today formats now as a transaction date.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// NewTransactionID returns a random client-side identifier for a new entry.
func NewTransactionID() string {
	return "txn-" + uuid.NewString()
}

// ParseDate parses a transaction date. Both plain dates and RFC3339
// timestamps are accepted since the sheet-backed API is not consistent.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{DateLayout, time.RFC3339, time.RFC3339Nano, "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
