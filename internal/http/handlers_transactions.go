package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"journal/internal/api"
	"journal/internal/core"
	"journal/internal/journal"
	"journal/internal/log"
	"journal/internal/render"
)

// handleTransactions renders the list and summary from the cache. With
// reload=1 the data is fetched first; a failed fetch keeps the cached list
// and reports the error.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := NewHTMXResponse()

	if r.URL.Query().Get("reload") == "1" {
		atomic.AddInt64(&s.appMetrics.reloads, 1)
		if err := s.app.LoadData(ctx); err != nil {
			if api.IsUnauthorized(err) {
				redirectHome(w, r)
				return
			}
			b.TriggerErrorNotification(errorMessage(err))
		}
	}

	s.writeTemplate(w, r, b, "entries", newEntriesData(s.app.Snapshot().Transactions))
}

func (s *Server) handleNewTransaction(w http.ResponseWriter, r *http.Request) {
	form := s.app.NewDraft()
	s.writeTemplate(w, r, NewHTMXResponse(), "dialog-create", createData{
		Draft:      form.Draft,
		Categories: render.Categories(form.Categories),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}
	ctx := r.Context()
	atomic.AddInt64(&s.appMetrics.actions, 1)

	draft := core.Draft{
		Date:     FormValue(r, "date"),
		Category: FormValue(r, "category"),
		Title:    FormValue(r, "title"),
		Content:  FormValue(r, "content"),
	}

	id, err := s.app.Create(ctx, draft)
	var verr *journal.ValidationError
	var rerr *journal.ReloadError
	switch {
	case errors.As(err, &verr):
		form := s.app.NewDraft()
		if draft.Date == "" {
			draft.Date = form.Draft.Date
		}
		s.writeTemplate(w, r, NewHTMXResponse().Status(http.StatusUnprocessableEntity), "dialog-create", createData{
			Draft:      draft,
			Categories: render.Categories(form.Categories),
			Error:      errorMessage(err),
		})
		return
	case errors.As(err, &rerr) && !api.IsUnauthorized(err):
		log.FromContext(ctx).WarnContext(ctx, "Reload after create failed", log.FieldTransactionID, id, log.FieldError, err)
		NewHTMXResponse().
			TriggerModalClose().
			TriggerWarningNotification("Entry saved, but the list could not be refreshed: " + errorMessage(rerr.Err)).
			Write(w)
		return
	case err != nil:
		s.actionError(w, r, log.OpCreate, err)
		return
	}

	NewHTMXResponse().
		TriggerModalClose().
		TriggerTransactionsChanged().
		TriggerSuccessNotification("Entry saved").
		Write(w)
}

func (s *Server) handleTransactionDetail(w http.ResponseWriter, r *http.Request) {
	t, err := s.app.View(r.PathValue("id"))
	if err != nil {
		s.actionError(w, r, log.OpRead, err)
		return
	}
	s.writeTemplate(w, r, NewHTMXResponse(), "dialog-detail", detailData{Detail: render.Detail(t)})
}

// handleEditTransaction shows the entry read-only with a link to where it can
// be changed.
func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	t, link, err := s.app.Edit(r.Context(), r.PathValue("id"))
	if err != nil {
		s.actionError(w, r, log.OpRead, err)
		return
	}
	s.writeTemplate(w, r, NewHTMXResponse(), "dialog-edit", editData{
		Detail:         render.Detail(t),
		SpreadsheetURL: link,
	})
}

func (s *Server) handleReplyForm(w http.ResponseWriter, r *http.Request) {
	t, err := s.app.View(r.PathValue("id"))
	if err != nil {
		s.actionError(w, r, log.OpRead, err)
		return
	}
	s.writeTemplate(w, r, NewHTMXResponse(), "dialog-reply", replyData{
		ID:    t.ID,
		Title: render.Detail(t).Title,
		Reply: t.Reply,
	})
}

// handleReply saves the posted reply. A request without the reply field is a
// cancel and only shows the detail again; an empty value clears the reply.
func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}
	reply := OptionalFormValue(r, "reply")
	if reply != nil {
		atomic.AddInt64(&s.appMetrics.actions, 1)
	}

	ctx := r.Context()
	t, err := s.app.Reply(ctx, r.PathValue("id"), reply)
	var rerr *journal.ReloadError
	b := NewHTMXResponse()
	switch {
	case errors.As(err, &rerr) && !api.IsUnauthorized(err):
		log.FromContext(ctx).WarnContext(ctx, "Reload after reply failed", log.FieldTransactionID, t.ID, log.FieldError, err)
		b.TriggerWarningNotification("Reply saved, but the list could not be refreshed: " + errorMessage(rerr.Err))
	case err != nil:
		s.actionError(w, r, log.OpUpdate, err)
		return
	case reply != nil:
		b.TriggerTransactionsChanged().TriggerSuccessNotification("Reply saved")
	}
	s.writeTemplate(w, r, b, "dialog-detail", detailData{Detail: render.Detail(t)})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&s.appMetrics.actions, 1)
	if err := s.app.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.actionError(w, r, log.OpDelete, err)
		return
	}
	NewHTMXResponse().
		TriggerModalClose().
		TriggerTransactionsChanged().
		TriggerSuccessNotification("Entry deleted").
		Write(w)
}
