package journal

import (
	"context"
	"fmt"

	"journal/internal/log"
)

// View is one of the three mutually exclusive screens.
type View string

const (
	ViewLanding View = "landing"
	ViewLogin   View = "login"
	ViewMain    View = "main"
)

// CurrentView returns the screen being shown.
func (a *App) CurrentView() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

func (a *App) setView(v View) {
	a.mu.Lock()
	a.view = v
	a.mu.Unlock()
}

func (a *App) ShowLanding() { a.setView(ViewLanding) }

func (a *App) ShowLogin() { a.setView(ViewLogin) }

// ShowMain switches to the main screen and loads its data. A load error is
// returned but the screen only changes back to landing when the session was
// rejected.
func (a *App) ShowMain(ctx context.Context) error {
	a.setView(ViewMain)
	return a.LoadData(ctx)
}

// Init picks the starting screen: main when a valid session exists, landing
// otherwise.
func (a *App) Init(ctx context.Context) error {
	if !a.session.HasToken() {
		a.ShowLanding()
		return nil
	}
	ok, err := a.session.Validate(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "Session validation failed", log.FieldError, err)
	}
	if !ok {
		a.ShowLanding()
		return nil
	}
	return a.ShowMain(ctx)
}

// Login authenticates and, on success, opens the main screen. The view does
// not change on failure.
func (a *App) Login(ctx context.Context, username, password string) error {
	if _, err := a.session.Login(ctx, username, password); err != nil {
		return err
	}
	if err := a.ShowMain(ctx); err != nil {
		// logged in, but the first load failed; main stays visible with what we have
		a.logger.WarnContext(ctx, "Initial load after login failed", log.FieldError, err)
	}
	return nil
}

// Logout clears the session and cache and always lands on the landing screen.
func (a *App) Logout(ctx context.Context) error {
	a.reset()
	a.ShowLanding()
	if err := a.session.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
