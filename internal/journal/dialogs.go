package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"journal/internal/api"
	"journal/internal/core"
	"journal/internal/events"
	"journal/internal/log"
)

// ErrNotFound is returned when an id is not in the cached list.
var ErrNotFound = errors.New("entry not found")

// ErrEmptyCategoryName is returned when creating a category without a name.
var ErrEmptyCategoryName = errors.New("category name is required")

// ValidationError wraps a draft problem. No request was made.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// ReadOnlyError is returned for actions disabled in annotate mode. The
// spreadsheet link, when known, is where the change can be made instead.
type ReadOnlyError struct {
	Action         string
	SpreadsheetURL string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("%s is not available here; edit the spreadsheet instead", e.Action)
}

// ReloadError is returned when a mutation was saved remotely but the list
// reload that follows it failed.
type ReloadError struct {
	Err error
}

func (e *ReloadError) Error() string { return "saved, but reload failed: " + e.Err.Error() }

func (e *ReloadError) Unwrap() error { return e.Err }

// IsReadOnly reports whether err is a *ReadOnlyError.
func IsReadOnly(err error) bool {
	var ro *ReadOnlyError
	return errors.As(err, &ro)
}

// DraftForm is the initial state of the create dialog.
type DraftForm struct {
	Draft      core.Draft
	Categories []core.Category
}

// NewDraft returns a create form with today's date and the category options:
// the cached names, or the dialog fallback list when nothing is cached.
func (a *App) NewDraft() DraftForm {
	a.mu.Lock()
	options := make([]core.Category, 0, len(a.categories))
	for _, c := range a.categories {
		if strings.TrimSpace(c.Name) != "" {
			options = append(options, c)
		}
	}
	a.mu.Unlock()

	if len(options) == 0 {
		options = core.DialogFallbackCategories()
	}
	return DraftForm{
		Draft:      core.Draft{Date: core.Today(a.now())},
		Categories: options,
	}
}

// Create validates d, sends it with a fresh id and reloads the list. An
// invalid draft makes no request.
func (a *App) Create(ctx context.Context, d core.Draft) (string, error) {
	d = d.Normalize(a.now())
	if err := d.Validate(); err != nil {
		return "", &ValidationError{Err: err}
	}

	id := core.NewTransactionID()
	err := a.api.CreateTransaction(ctx, api.NewTransaction{
		ID:       id,
		Date:     d.Date,
		Category: d.Category,
		Title:    d.Title,
		Amount:   d.Content,
	})
	if err != nil {
		return "", err
	}
	a.logger.InfoContext(ctx, "Transaction created", log.FieldOperation, log.OpCreate, log.FieldTransactionID, id)
	a.publish(ctx, events.TransactionCreated, id)

	if err := a.LoadTransactions(ctx); err != nil {
		return id, &ReloadError{Err: err}
	}
	return id, nil
}

// View returns the cached entry; it never fetches.
func (a *App) View(id string) (core.Transaction, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, t := range a.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, ErrNotFound
}

// Reply saves a reply on the entry. A nil reply means the editor was
// cancelled and nothing is sent; an empty string is a real update that clears
// the reply. After an update the list is reloaded and the refreshed entry is
// returned for the detail view. When only the reload fails, the cached entry
// is returned together with a *ReloadError.
func (a *App) Reply(ctx context.Context, id string, reply *string) (core.Transaction, error) {
	if reply == nil {
		return a.View(id)
	}
	if err := a.api.UpdateReply(ctx, id, *reply); err != nil {
		return core.Transaction{}, err
	}
	a.logger.InfoContext(ctx, "Reply saved", log.FieldOperation, log.OpUpdate, log.FieldTransactionID, id)
	a.publish(ctx, events.TransactionReplied, id)

	if err := a.LoadTransactions(ctx); err != nil {
		t, verr := a.View(id)
		if verr != nil {
			return core.Transaction{}, err
		}
		return t, &ReloadError{Err: err}
	}
	return a.View(id)
}

// Edit returns the cached entry for read-only display. The API only updates
// replies, so field edits always go through the spreadsheet.
func (a *App) Edit(ctx context.Context, id string) (core.Transaction, string, error) {
	t, err := a.View(id)
	if err != nil {
		return t, "", err
	}
	return t, a.SpreadsheetURL(ctx), nil
}

// Delete removes an entry in full mode. In annotate mode it returns a
// *ReadOnlyError and makes no request.
func (a *App) Delete(ctx context.Context, id string) error {
	if a.mode != ModeFull {
		return a.readOnly(ctx, "delete")
	}
	if err := a.api.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Transaction deleted", log.FieldOperation, log.OpDelete, log.FieldTransactionID, id)
	a.publish(ctx, events.TransactionDeleted, id)
	return a.LoadTransactions(ctx)
}

// CreateCategory adds a category in full mode and reloads the category list.
func (a *App) CreateCategory(ctx context.Context, name, colorHex string) error {
	if a.mode != ModeFull {
		return a.readOnly(ctx, "category management")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Err: ErrEmptyCategoryName}
	}
	if err := a.api.CreateCategory(ctx, name, strings.TrimSpace(colorHex)); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Category created", log.FieldOperation, log.OpCreate)
	a.publish(ctx, events.CategoryCreated, name)
	a.LoadCategories(ctx)
	return nil
}

// DeleteCategory removes a category in full mode and reloads the category
// list.
func (a *App) DeleteCategory(ctx context.Context, id string) error {
	if a.mode != ModeFull {
		return a.readOnly(ctx, "category management")
	}
	if err := a.api.DeleteCategory(ctx, id); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Category deleted", log.FieldOperation, log.OpDelete, log.FieldCategoryID, id)
	a.publish(ctx, events.CategoryDeleted, id)
	a.LoadCategories(ctx)
	return nil
}

func (a *App) readOnly(ctx context.Context, action string) error {
	return &ReadOnlyError{Action: action, SpreadsheetURL: a.SpreadsheetURL(ctx)}
}

// SpreadsheetURL returns the link where read-only changes are made, or "" when
// none is configured.
func (a *App) SpreadsheetURL(ctx context.Context) string {
	url, err := a.links.SpreadsheetURL(ctx)
	if err != nil {
		a.logger.DebugContext(ctx, "No spreadsheet link available", log.FieldError, err)
		return ""
	}
	return url
}
