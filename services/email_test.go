package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSendGoalInvitation(t *testing.T) {
	t.Parallel()

	var got map[string]any
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewEmailService("re_test", "noreply@example.com", "https://app.example.com")
	svc.apiURL = server.URL

	err := svc.SendGoalInvitation(context.Background(), "friend@example.com", "Olivia", "<Vacances>", baseTime)
	if err != nil {
		t.Fatalf("SendGoalInvitation() error = %v", err)
	}
	if auth != "Bearer re_test" {
		t.Fatalf("authorization = %q", auth)
	}
	to, _ := got["to"].([]any)
	if len(to) != 1 || to[0] != "friend@example.com" {
		t.Fatalf("to = %v", got["to"])
	}
	html, _ := got["html"].(string)
	if !strings.Contains(html, "&lt;Vacances&gt;") {
		t.Fatal("goal title not escaped")
	}
	if !strings.Contains(html, "https://app.example.com/invitations") {
		t.Fatal("invitation link missing")
	}
	if !strings.Contains(html, "01/02/2026") {
		t.Fatal("expiry date missing")
	}
}

func TestSendGoalInvitationErrors(t *testing.T) {
	t.Parallel()

	disabled := NewEmailService("", "noreply@example.com", "https://app.example.com")
	if disabled.Enabled() {
		t.Fatal("Enabled() = true without api key")
	}
	if err := disabled.SendGoalInvitation(context.Background(), "a@example.com", "", "x", time.Now()); err == nil {
		t.Fatal("expected error without api key")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	svc := NewEmailService("re_test", "noreply@example.com", "https://app.example.com")
	svc.apiURL = server.URL
	if err := svc.SendGoalInvitation(context.Background(), "a@example.com", "", "x", time.Now()); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
