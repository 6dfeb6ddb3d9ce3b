package http

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"journal/internal/core"
	"journal/internal/journal"
	"journal/internal/render"
)

// BudgetMessage is shown instead of a budget editor.
const BudgetMessage = "Happiness is priceless."

type pageData struct {
	View       string
	Mode       string
	Username   string
	LoginError string
	Entries    entriesData
}

type entriesData struct {
	List    render.ListView
	Summary render.Summary
}

func newEntriesData(txns []core.Transaction) entriesData {
	return entriesData{
		List:    render.List(txns),
		Summary: render.Summarize(len(txns)),
	}
}

type createData struct {
	Draft      core.Draft
	Categories []render.CategoryOption
	Error      string
}

type detailData struct {
	Detail render.DetailView
}

type editData struct {
	Detail         render.DetailView
	SpreadsheetURL string
}

type replyData struct {
	ID    string
	Title string
	Reply string
}

type readOnlyData struct {
	Action         string
	SpreadsheetURL string
}

type categoriesData struct {
	Categories     []render.CategoryOption
	Full           bool
	SpreadsheetURL string
	Name           string
	Color          string
	Error          string
}

type budgetData struct {
	Message string
	Amount  string
}

func (s *Server) newPageData(username, loginError string) pageData {
	snap := s.app.Snapshot()
	return pageData{
		View:       string(snap.View),
		Mode:       string(snap.Mode),
		Username:   username,
		LoginError: loginError,
		Entries:    newEntriesData(snap.Transactions),
	}
}

func (s *Server) newCategoriesData(spreadsheetURL string) categoriesData {
	return categoriesData{
		Categories:     render.Categories(s.app.Snapshot().Categories),
		Full:           s.app.Mode() == journal.ModeFull,
		SpreadsheetURL: spreadsheetURL,
	}
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
