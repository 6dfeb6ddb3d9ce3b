// Package journal holds the client's application state: the cached
// categories and transactions, the current screen, and the actions that
// mutate the remote journal and reload the cache.
package journal

import (
	"context"
	"sync"
	"time"

	"journal/internal/api"
	"journal/internal/core"
	"journal/internal/events"
	"journal/internal/log"
	"journal/internal/sheets"
)

// Mode selects which mutations the client performs itself.
type Mode string

const (
	// ModeAnnotate allows create and reply only; deletes and category changes
	// are done in the spreadsheet.
	ModeAnnotate Mode = "annotate"
	// ModeFull enables every mutation the API offers.
	ModeFull Mode = "full"
)

// API is the remote journal as seen by the app.
type API interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, name, colorHex string) error
	DeleteCategory(ctx context.Context, id string) error
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, t api.NewTransaction) error
	UpdateReply(ctx context.Context, id, reply string) error
	DeleteTransaction(ctx context.Context, id string) error
	GetBudget(ctx context.Context) (core.Budget, error)
}

// Session is the token holder used for navigation decisions.
type Session interface {
	HasToken() bool
	Validate(ctx context.Context) (bool, error)
	Login(ctx context.Context, username, password string) (api.LoginResponse, error)
	Logout(ctx context.Context) error
}

type resource int

const (
	resCategories resource = iota
	resTransactions
	resBudget
	resourceCount
)

func (r resource) String() string {
	switch r {
	case resCategories:
		return "categories"
	case resTransactions:
		return "transactions"
	default:
		return "budget"
	}
}

// Options configures an App.
type Options struct {
	Mode          Mode
	BudgetEnabled bool
	Publisher     events.Publisher
	Links         sheets.LinkResolver
	Logger        *log.Logger
	Now           func() time.Time
}

// App is the single owner of client state. All methods are safe for
// concurrent use.
type App struct {
	api     API
	session Session
	mode    Mode
	budget  bool
	pub     events.Publisher
	links   sheets.LinkResolver
	logger  *log.Logger
	now     func() time.Time

	mu           sync.Mutex
	view         View
	categories   []core.Category
	transactions []core.Transaction
	budgetValue  *core.Budget
	issued       [resourceCount]uint64
}

// Snapshot is a copy of the cached state.
type Snapshot struct {
	View         View
	Mode         Mode
	Categories   []core.Category
	Transactions []core.Transaction
	Budget       *core.Budget
}

func New(remote API, session Session, opts Options) *App {
	if opts.Mode == "" {
		opts.Mode = ModeAnnotate
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Noop{}
	}
	if opts.Links == nil {
		opts.Links = sheets.Static("")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &App{
		api:     remote,
		session: session,
		mode:    opts.Mode,
		budget:  opts.BudgetEnabled,
		pub:     opts.Publisher,
		links:   opts.Links,
		logger:  opts.Logger.WithComponent(log.ComponentJournal),
		now:     opts.Now,
		view:    ViewLanding,
	}
}

func (a *App) Mode() Mode { return a.mode }

func (a *App) BudgetEnabled() bool { return a.budget }

// Snapshot returns copies of the cached lists.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Snapshot{
		View:         a.view,
		Mode:         a.mode,
		Categories:   append([]core.Category(nil), a.categories...),
		Transactions: append([]core.Transaction(nil), a.transactions...),
	}
	if a.budgetValue != nil {
		b := *a.budgetValue
		s.Budget = &b
	}
	return s
}

// begin issues the next sequence number for r.
func (a *App) begin(r resource) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.issued[r]++
	return a.issued[r]
}

// commit runs apply under the lock if seq is still the latest issued for r.
func (a *App) commit(ctx context.Context, r resource, seq uint64, apply func()) bool {
	a.mu.Lock()
	latest := a.issued[r]
	if seq == latest {
		apply()
	}
	a.mu.Unlock()

	if seq != latest {
		a.logger.DebugContext(ctx, "Discarding stale response",
			log.FieldResource, r.String(),
			log.FieldStale, seq,
			"latest", latest)
		return false
	}
	return true
}

// reset drops cached data and invalidates in-flight loads.
func (a *App) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.issued {
		a.issued[i]++
	}
	a.categories = nil
	a.transactions = nil
	a.budgetValue = nil
}

func (a *App) publish(ctx context.Context, t events.Type, id string) {
	if err := a.pub.Publish(ctx, events.New(t, id)); err != nil {
		a.logger.WarnContext(ctx, "Failed to publish activity event",
			"type", string(t),
			log.FieldTransactionID, id,
			log.FieldError, err)
	}
}
