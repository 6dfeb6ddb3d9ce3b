package http

import (
	"net/http"

	"journal/internal/api"
	"journal/internal/journal"
	"journal/internal/log"
)

// handleIndex renders the current screen. Loading the page while on main
// reloads its data; a failed load still renders whatever is cached, and a
// rejected session lands on the landing screen.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.app.CurrentView() == journal.ViewMain {
		if err := s.app.ShowMain(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Page load could not refresh data",
				log.FieldOperation, log.OpLoad,
				log.FieldErrorKind, string(api.KindOf(err)),
				log.FieldError, err)
		}
	}
	s.writePage(w, r, http.StatusOK, "", "")
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	s.app.ShowLanding()
	s.writePage(w, r, http.StatusOK, "", "")
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.app.ShowLogin()
	s.writePage(w, r, http.StatusOK, "", "")
}

// handleLogin authenticates and opens the main screen. Failures re-render the
// login form with the message inline.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}
	ctx := r.Context()
	username := FormValue(r, "username")
	password := r.PostFormValue("password")

	if username == "" || password == "" {
		s.app.ShowLogin()
		s.writePage(w, r, http.StatusUnprocessableEntity, username, "Enter your username and password.")
		return
	}

	if err := s.app.Login(ctx, username, password); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Login failed",
			log.FieldOperation, log.OpLogin,
			log.FieldErrorKind, string(api.KindOf(err)),
			log.FieldError, err)
		status := http.StatusBadGateway
		if api.IsUnauthorized(err) {
			status = http.StatusUnauthorized
		}
		s.app.ShowLogin()
		s.writePage(w, r, status, username, errorMessage(err))
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "Logged in", log.FieldOperation, log.OpLogin)
	redirectHome(w, r)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.app.Logout(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Logout failed", log.FieldOperation, log.OpLogout, log.FieldError, err)
	}
	redirectHome(w, r)
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, status int, username, loginError string) {
	s.writeTemplate(w, r, NewHTMXResponse().Status(status), "index.html", s.newPageData(username, loginError))
}
