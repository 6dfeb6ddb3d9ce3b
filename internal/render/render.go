// Package render turns cached journal state into view models for the
// templates. Everything here is pure.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"journal/internal/core"
)

const (
	DefaultIcon       = "😐"
	DefaultBadgeColor = "#333"
	DefaultTitle      = "(untitled)"
	DefaultCategory   = "General"
	EmptyMessage      = "No entries yet. Add the first one!"
	SummaryCap        = 100
)

var icons = map[string]string{
	"有點好笑": "😏",
	"很好笑":  "😆",
	"超好笑":  "🤣",
	"笑到歪腰": "🫠",
}

// Icon maps a category name to its glyph by exact match.
func Icon(category string) string {
	if icon, ok := icons[strings.TrimSpace(category)]; ok {
		return icon
	}
	return DefaultIcon
}

// Sort returns a copy of txns ordered by date, newest first. Entries with the
// same date keep their fetch order; undated or unparseable entries go last.
func Sort(txns []core.Transaction) []core.Transaction {
	type keyed struct {
		t    core.Transaction
		at   time.Time
		okAt bool
	}
	ks := make([]keyed, len(txns))
	for i, t := range txns {
		at, ok := core.ParseDate(t.Date)
		ks[i] = keyed{t: t, at: at, okAt: ok}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].okAt != ks[j].okAt {
			return ks[i].okAt
		}
		return ks[i].at.After(ks[j].at)
	})
	out := make([]core.Transaction, len(ks))
	for i, k := range ks {
		out[i] = k.t
	}
	return out
}

// Row is one rendered list entry.
type Row struct {
	ID         string
	Icon       string
	BadgeColor string
	Category   string
	Title      string
	Meta       string
	Content    string
	Reply      string
	HasReply   bool
}

// ListView is the transaction list. Empty lists carry only the placeholder.
type ListView struct {
	Empty   bool
	Message string
	Title   string
	Rows    []Row
}

// List sorts txns and builds the list view model.
func List(txns []core.Transaction) ListView {
	if len(txns) == 0 {
		return ListView{Empty: true, Message: EmptyMessage, Title: listTitle(0)}
	}
	sorted := Sort(txns)
	rows := make([]Row, len(sorted))
	for i, t := range sorted {
		rows[i] = row(t)
	}
	return ListView{Title: listTitle(len(txns)), Rows: rows}
}

func listTitle(n int) string {
	return fmt.Sprintf("Recent entries (%d)", n)
}

func row(t core.Transaction) Row {
	category := t.DisplayCategory()
	shown := category
	if shown == "" {
		shown = DefaultCategory
	}
	color := strings.TrimSpace(t.CategoryColorHex)
	if color == "" {
		color = DefaultBadgeColor
	}
	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = DefaultTitle
	}
	return Row{
		ID:         t.ID,
		Icon:       Icon(category),
		BadgeColor: color,
		Category:   shown,
		Title:      title,
		Meta:       fmt.Sprintf("%s · %s", strings.TrimSpace(t.Date), shown),
		Content:    t.Amount,
		Reply:      strings.TrimSpace(t.Reply),
		HasReply:   t.HasReply(),
	}
}

// Summary is the gamified entry counter.
type Summary struct {
	Count        int
	Percent      int
	Level        string
	CountLabel   string
	ProgressText string
	PercentLabel string
}

// Summarize derives the counter from the number of cached entries.
func Summarize(count int) Summary {
	if count < 0 {
		count = 0
	}
	pct := count
	if pct > SummaryCap {
		pct = SummaryCap
	}
	level := ""
	switch {
	case pct < 20:
		level = "danger"
	case pct < 50:
		level = "warning"
	}
	return Summary{
		Count:        count,
		Percent:      pct,
		Level:        level,
		CountLabel:   fmt.Sprintf("%d entries", count),
		ProgressText: fmt.Sprintf("%d / %d", count, SummaryCap),
		PercentLabel: fmt.Sprintf("%d%%", pct),
	}
}

// DetailView is the content of the detail dialog.
type DetailView struct {
	Row
	Date    string
	RawDate string
}

// Detail builds the detail dialog for one entry.
func Detail(t core.Transaction) DetailView {
	date := strings.TrimSpace(t.Date)
	if at, ok := core.ParseDate(date); ok {
		date = at.Format("Mon 2 Jan 2006")
	}
	return DetailView{Row: row(t), Date: date, RawDate: t.Date}
}

// CategoryOption is a category as offered by forms and the category list.
type CategoryOption struct {
	ID    string
	Name  string
	Icon  string
	Color string
}

// Categories builds the option list for the create dialog and category screen.
func Categories(cats []core.Category) []CategoryOption {
	out := make([]CategoryOption, 0, len(cats))
	for _, c := range cats {
		color := strings.TrimSpace(c.ColorHex)
		if color == "" {
			color = DefaultBadgeColor
		}
		out = append(out, CategoryOption{ID: c.ID, Name: c.Name, Icon: Icon(c.Name), Color: color})
	}
	return out
}
