package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"journal/internal/journal"
	"journal/internal/log"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.writeTemplate(w, r, NewHTMXResponse(), "dialog-categories", s.newCategoriesData(s.app.SpreadsheetURL(r.Context())))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.actions, 1)
	name := FormValue(r, "name")
	color := FormValue(r, "color_hex")

	err := s.app.CreateCategory(r.Context(), name, color)
	var verr *journal.ValidationError
	if errors.As(err, &verr) {
		data := s.newCategoriesData("")
		data.Name, data.Color, data.Error = name, color, errorMessage(err)
		s.writeTemplate(w, r, NewHTMXResponse().Status(http.StatusUnprocessableEntity), "dialog-categories", data)
		return
	}
	if err != nil {
		s.actionError(w, r, log.OpCreate, err)
		return
	}

	b := NewHTMXResponse().TriggerCategoriesChanged().TriggerSuccessNotification("Category added")
	s.writeTemplate(w, r, b, "dialog-categories", s.newCategoriesData(""))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&s.appMetrics.actions, 1)
	if err := s.app.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		s.actionError(w, r, log.OpDelete, err)
		return
	}
	b := NewHTMXResponse().TriggerCategoriesChanged().TriggerSuccessNotification("Category deleted")
	s.writeTemplate(w, r, b, "dialog-categories", s.newCategoriesData(""))
}

// handleBudget shows the budget notice. When the budget feature is on the
// recorded value is fetched and shown alongside it.
func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	data := budgetData{Message: BudgetMessage}
	if s.app.BudgetEnabled() {
		s.app.LoadBudget(r.Context())
		if b := s.app.Snapshot().Budget; b != nil {
			data.Amount = b.Amount.StringFixed(2)
		}
	}
	s.writeTemplate(w, r, NewHTMXResponse(), "dialog-budget", data)
}
