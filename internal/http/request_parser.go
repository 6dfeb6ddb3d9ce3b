// This file implements utilities for reading form input from HTMX requests.

package http

import (
	"net/http"
	"strings"
)

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// ParseFormOrFail parses the request form and returns an error response on
// failure. Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}

// FormValue returns the sanitized posted value of key, "" when absent.
func FormValue(r *http.Request, key string) string {
	return sanitizeInput(r.PostFormValue(key))
}

// OptionalFormValue distinguishes a missing field (nil) from an empty one.
// The form must already be parsed.
func OptionalFormValue(r *http.Request, key string) *string {
	if !r.PostForm.Has(key) {
		return nil
	}
	v := sanitizeInput(r.PostForm.Get(key))
	return &v
}

// sanitizeInput strips control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
