package journal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"journal/internal/api"
	"journal/internal/core"
	"journal/internal/events"
)

func TestCreateValidDraft(t *testing.T) {
	remote := newFakeAPI()
	app, pub := newTestApp(remote, &fakeSession{token: "tok"}, ModeAnnotate)

	id, err := app.Create(context.Background(), core.Draft{Category: "很好笑", Title: " lunch ", Content: "the cat"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if remote.count("CreateTransaction") != 1 || remote.count("ListTransactions") != 1 {
		t.Fatalf("calls = %v", remote.calls)
	}
	if remote.total() != 2 {
		t.Fatalf("unexpected extra calls: %v", remote.calls)
	}

	sent := remote.created[0]
	if sent.ID != id || !strings.HasPrefix(id, "txn-") {
		t.Errorf("id = %q, sent %q", id, sent.ID)
	}
	if sent.Date != "2025-05-20" || sent.Title != "lunch" || sent.Amount != "the cat" || sent.Category != "很好笑" {
		t.Errorf("payload = %+v", sent)
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.TransactionCreated || pub.events[0].EntryID != id {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestCreateInvalidDraftMakesNoRequest(t *testing.T) {
	for _, d := range []core.Draft{
		{Title: "", Content: "x"},
		{Title: "x", Content: "   "},
		{Title: "", Content: ""},
		{Title: "x", Content: "y", Date: "20/05/2025"},
	} {
		remote := newFakeAPI()
		app, _ := newTestApp(remote, &fakeSession{token: "tok"}, ModeAnnotate)

		_, err := app.Create(context.Background(), d)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("draft %+v: err = %v", d, err)
		}
		if remote.total() != 0 {
			t.Fatalf("draft %+v issued requests: %v", d, remote.calls)
		}
	}
}

func TestCreateFailureSkipsReload(t *testing.T) {
	remote := newFakeAPI()
	remote.mutateErr = &api.Error{Kind: api.KindStatus, Status: 400, Message: "bad"}
	app, pub := newTestApp(remote, &fakeSession{token: "tok"}, ModeAnnotate)

	if _, err := app.Create(context.Background(), core.Draft{Title: "t", Content: "c"}); api.Message(err) != "bad" {
		t.Fatalf("err = %v", err)
	}
	if remote.count("ListTransactions") != 0 || len(pub.events) != 0 {
		t.Fatal("reload or event after failed create")
	}
}

func TestReplyEmptyStringIsAnUpdate(t *testing.T) {
	remote := newFakeAPI()
	remote.transactions = sampleTransactions()
	app, _ := newTestApp(remote, &fakeSession{token: "tok"}, ModeAnnotate)
	ctx := context.Background()
	_ = app.LoadTransactions(ctx)

	empty := ""
	remote.transactions = []core.Transaction{{ID: "b", Date: "2025-05-03", Title: "second"}}
	got, err := app.Reply(ctx, "b", &empty)
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if remote.count("UpdateReply") != 1 || remote.replies[0] != "" {
		t.Fatalf("update not sent: %v %q", remote.calls, remote.replies)
	}
	if remote.count("ListTransactions") != 2 {
		t.Fatalf("list not reloaded: %v", remote.calls)
	}
	if got.ID != "b" || got.Reply != "" {
		t.Fatalf("refreshed entry = %+v", got)
	}
}

func TestReplyWithText(t *testing.T) {
	remote := newFakeAPI()
	remote.transactions = sampleTransactions()
	app, pub := newTestApp(remote, &fakeSession{token: "tok"}, ModeAnnotate)
	ctx := context.Background()
	_ = app.LoadTransactions(ctx)

	text := "haha"
	remote.transactions = []core.Transaction{{ID: "a", Reply: "haha"}}
	got, err := app.Reply(ctx, "a", &text)
	if err != nil || got.Reply != "haha" {
		t.Fatalf("Reply = %+v, %v", got, err)
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.TransactionReplied {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestReplySavedButReloadFailed(t *testing.T) {
	remote := newFakeAPI()
	remote.transactions = sampleTransactions()
	app, pub := newTestApp(remote, &fakeSession{token: "tok"}, ModeAnnotate)
	ctx := context.Background()
	_ = app.LoadTransactions(ctx)

	remote.listErr = &api.Error{Kind: api.KindTimeout, Message: "slow"}
	text := "haha"
	got, err := app.Reply(ctx, "a", &text)
	var rerr *ReloadError
	if !errors.As(err, &rerr) || !api.IsTimeout(err) {
		t.Fatalf("expected reload error, got %v", err)
	}
	if got.ID != "a" {
		t.Fatalf("cached entry not returned: %+v", got)
	}
	if remote.count("UpdateReply") != 1 || len(pub.events) != 1 {
		t.Fatalf("reply not sent: %v %+v", remote.calls, pub.events)
	}
}

func TestCreateSavedButReloadFailed(t *testing.T) {
	remote := newFakeAPI()
	app, _ := newTestApp(remote, &fakeSession{token: "tok"}, ModeAnnotate)
	remote.listErr = &api.Error{Kind: api.KindStatus, Status: 500, Message: "boom"}

	id, err := app.Create(context.Background(), core.Draft{Title: "t", Content: "c"})
	var rerr *ReloadError
	if id == "" || !errors.As(err, &rerr) {
		t.Fatalf("Create = %q, %v", id, err)
	}
}

func TestReplyCancelMakesNoRequest(t *testing.T) {
	remote := newFakeAPI()
	remote.transactions = sampleTransactions()
	app, _ := newTestApp(remote, &fakeSession{token: "tok"}, ModeAnnotate)
	_ = app.LoadTransactions(context.Background())
	before := remote.total()

	got, err := app.Reply(context.Background(), "b", nil)
	if err != nil {
		t.Fatalf("Reply cancel: %v", err)
	}
	if got.Reply != "old reply" {
		t.Fatalf("entry = %+v", got)
	}
	if remote.total() != before {
		t.Fatalf("cancel issued requests: %v", remote.calls)
	}
}

func TestViewUsesCacheOnly(t *testing.T) {
	remote := newFakeAPI()
	remote.transactions = sampleTransactions()
	app, _ := newTestApp(remote, &fakeSession{token: "tok"}, ModeAnnotate)
	_ = app.LoadTransactions(context.Background())
	before := remote.total()

	if got, err := app.View("a"); err != nil || got.Title != "first" {
		t.Fatalf("View = %+v, %v", got, err)
	}
	if _, err := app.View("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
	if remote.total() != before {
		t.Fatal("View fetched")
	}
}

func TestAnnotateModeIsReadOnly(t *testing.T) {
	remote := newFakeAPI()
	app, _ := newTestApp(remote, &fakeSession{token: "tok"}, ModeAnnotate)
	ctx := context.Background()

	for name, action := range map[string]func() error{
		"delete":          func() error { return app.Delete(ctx, "a") },
		"create category": func() error { return app.CreateCategory(ctx, "n", "#fff") },
		"delete category": func() error { return app.DeleteCategory(ctx, "1") },
	} {
		err := action()
		var ro *ReadOnlyError
		if !errors.As(err, &ro) {
			t.Fatalf("%s: err = %v", name, err)
		}
		if ro.SpreadsheetURL != "https://docs.example.com/sheet" {
			t.Fatalf("%s: link = %q", name, ro.SpreadsheetURL)
		}
	}
	if remote.total() != 0 {
		t.Fatalf("read-only actions issued requests: %v", remote.calls)
	}
}

func TestFullModeMutations(t *testing.T) {
	remote := newFakeAPI()
	app, pub := newTestApp(remote, &fakeSession{token: "tok"}, ModeFull)
	ctx := context.Background()

	if err := app.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if remote.count("DeleteTransaction") != 1 || remote.count("ListTransactions") != 1 {
		t.Fatalf("delete calls = %v", remote.calls)
	}

	if err := app.CreateCategory(ctx, "  ", "#fff"); !errors.Is(err, ErrEmptyCategoryName) {
		t.Fatalf("blank category err = %v", err)
	}
	if err := app.CreateCategory(ctx, "新", "#123456"); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if err := app.DeleteCategory(ctx, "9"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if remote.count("CreateCategory") != 1 || remote.count("DeleteCategory") != 1 || remote.count("ListCategories") != 2 {
		t.Fatalf("category calls = %v", remote.calls)
	}
	if len(pub.events) != 3 {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestPublishFailureDoesNotFailAction(t *testing.T) {
	remote := newFakeAPI()
	app, pub := newTestApp(remote, &fakeSession{token: "tok"}, ModeFull)
	pub.err = errors.New("broker down")

	if err := app.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestEditReturnsEntryAndLink(t *testing.T) {
	remote := newFakeAPI()
	remote.transactions = sampleTransactions()
	app, _ := newTestApp(remote, &fakeSession{token: "tok"}, ModeAnnotate)
	_ = app.LoadTransactions(context.Background())

	txn, link, err := app.Edit(context.Background(), "a")
	if err != nil || txn.ID != "a" || link != "https://docs.example.com/sheet" {
		t.Fatalf("Edit = %+v %q %v", txn, link, err)
	}
}
