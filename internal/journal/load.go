package journal

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"journal/internal/api"
	"journal/internal/core"
	"journal/internal/log"
)

// LoadCategories replaces the cached categories. When the endpoint fails the
// built-in fallback set is cached instead so entries can still be created.
// It never returns an error.
func (a *App) LoadCategories(ctx context.Context) {
	seq := a.begin(resCategories)
	cats, err := a.api.ListCategories(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "Category load failed, using fallback set",
			log.FieldOperation, log.OpLoad,
			log.FieldErrorKind, string(api.KindOf(err)),
			log.FieldError, err)
		cats = core.FallbackCategories()
	}
	a.commit(ctx, resCategories, seq, func() { a.categories = cats })
}

// LoadTransactions replaces the cached transactions with the server's list.
// On failure the cache is left as it was.
func (a *App) LoadTransactions(ctx context.Context) error {
	seq := a.begin(resTransactions)
	txns, err := a.api.ListTransactions(ctx)
	if err != nil {
		return err
	}
	if a.commit(ctx, resTransactions, seq, func() { a.transactions = txns }) {
		a.logger.DebugContext(ctx, "Transactions loaded", log.FieldCount, len(txns))
	}
	return nil
}

// LoadBudget fetches the budget record when the feature is enabled. The value
// is informational; failures are logged and ignored.
func (a *App) LoadBudget(ctx context.Context) {
	if !a.budget {
		return
	}
	seq := a.begin(resBudget)
	b, err := a.api.GetBudget(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "Budget load failed", log.FieldError, err)
		return
	}
	a.commit(ctx, resBudget, seq, func() { a.budgetValue = &b })
}

// LoadData loads categories and transactions concurrently. An unauthorized
// failure ends the session and routes to the landing screen; any other
// failure leaves session and cache untouched. The error is returned for the
// caller to surface.
func (a *App) LoadData(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		a.LoadCategories(ctx)
		return nil
	})
	g.Go(func() error {
		return a.LoadTransactions(ctx)
	})
	if a.budget {
		g.Go(func() error {
			a.LoadBudget(ctx)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		return nil
	}

	if api.IsUnauthorized(err) {
		a.logger.InfoContext(ctx, "Session rejected during load, logging out", log.FieldOperation, log.OpLoad)
		if lerr := a.Logout(ctx); lerr != nil {
			return errors.Join(err, lerr)
		}
		return err
	}

	a.logger.WarnContext(ctx, "Load failed, keeping cached data",
		log.FieldOperation, log.OpLoad,
		log.FieldErrorKind, string(api.KindOf(err)),
		log.FieldError, err)
	return err
}
