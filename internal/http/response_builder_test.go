package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Errorf("HX-Trigger set without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerTransactionsChanged().
		TriggerModalClose().
		TriggerSuccessNotification("Entry saved").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	for _, part := range []string{
		`"transactions:changed"`,
		`"modal:close"`,
		`"show-notification"`,
		`"type":"success"`,
		`"message":"Entry saved"`,
		`"duration":3000`,
	} {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestHTMXResponseBuilder_ErrorNotificationIsSticky(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().TriggerErrorNotification("boom").Write(w)
	if !strings.Contains(w.Header().Get("HX-Trigger"), `"duration":0`) {
		t.Errorf("error toast should stay until dismissed: %s", w.Header().Get("HX-Trigger"))
	}
}

func TestHTMXResponseBuilder_RedirectAndReswap(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Redirect("/").Reswap("none").Write(w)
	if w.Header().Get("HX-Redirect") != "/" || w.Header().Get("HX-Reswap") != "none" {
		t.Errorf("headers = %v", w.Header())
	}
}

func TestNotificationOnly(t *testing.T) {
	w := httptest.NewRecorder()
	NotificationOnly(NotificationWarning, "careful").Write(w)
	if w.Code != http.StatusOK || w.Header().Get("HX-Reswap") != "none" {
		t.Errorf("code=%d headers=%v", w.Code, w.Header())
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), `"type":"warning"`) {
		t.Errorf("trigger = %s", w.Header().Get("HX-Trigger"))
	}
}

func TestErrorResponseEscapes(t *testing.T) {
	w := httptest.NewRecorder()
	BadRequestError("<script>alert(1)</script>").Write(w)
	if w.Code != http.StatusBadRequest {
		t.Errorf("code = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<script>") {
		t.Errorf("message not escaped: %s", w.Body.String())
	}
	if w.Header().Get("Content-Type") != "text/html; charset=utf-8" {
		t.Errorf("content type = %q", w.Header().Get("Content-Type"))
	}
}
