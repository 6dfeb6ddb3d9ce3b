// Package sheets resolves the spreadsheet that backs the journal. In annotate
// mode structural edits (delete, category management) happen there instead of
// through the API.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"journal/internal/cache"
)

// ErrNoSpreadsheet is returned when no spreadsheet is configured.
var ErrNoSpreadsheet = errors.New("no spreadsheet configured")

// LinkResolver returns the URL where the journal can be edited by hand.
type LinkResolver interface {
	SpreadsheetURL(ctx context.Context) (string, error)
}

// Static always answers the configured URL.
type Static string

func (s Static) SpreadsheetURL(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoSpreadsheet
	}
	return string(s), nil
}

// EditURL builds the default edit link for a spreadsheet id.
func EditURL(spreadsheetID string) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit", spreadsheetID)
}

const cacheKey = "spreadsheet_url"

// Cached memoizes a resolver's successful answers. Failures are not cached.
type Cached struct {
	next  LinkResolver
	cache cache.Cache[string]
}

func NewCached(next LinkResolver, c cache.Cache[string]) *Cached {
	return &Cached{next: next, cache: c}
}

func (c *Cached) SpreadsheetURL(ctx context.Context) (string, error) {
	if url, ok := c.cache.Get(cacheKey); ok {
		return url, nil
	}
	url, err := c.next.SpreadsheetURL(ctx)
	if err != nil {
		return "", err
	}
	c.cache.Set(cacheKey, url)
	return url, nil
}

// Chain tries each resolver in order and returns the first answer.
type Chain []LinkResolver

func (c Chain) SpreadsheetURL(ctx context.Context) (string, error) {
	var errs []error
	for _, r := range c {
		url, err := r.SpreadsheetURL(ctx)
		if err == nil {
			return url, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", ErrNoSpreadsheet
	}
	return "", errors.Join(errs...)
}
