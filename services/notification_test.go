package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/LovationAdmin/goals-api/models"
)

func newNotificationFixture() (*NotificationService, *fakeStore, *fakeBroadcaster, *testClock) {
	store := newFakeStore()
	realtime := &fakeBroadcaster{}
	clock := newTestClock()
	svc := NewNotificationService(store, realtime)
	svc.clock = clock.Now
	svc.newID = sequentialIDs("notif")
	return svc, store, realtime, clock
}

func TestEmitPersistsAndPushes(t *testing.T) {
	t.Parallel()
	svc, _, realtime, _ := newNotificationFixture()

	n, err := svc.Emit(context.Background(), models.NotificationInput{
		UserID:  "friend",
		Title:   "New goal invitation",
		Message: "Olivia invited you",
		Action:  &models.NotificationAction{Type: models.ActionGoalInvitation, InvitationID: "inv-1"},
	})
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if n.ID != "notif-1" || n.Type != models.NotificationInfo || n.Read {
		t.Fatalf("notification = %+v", n)
	}
	if !n.CreatedAt.Equal(baseTime) {
		t.Fatalf("created_at = %v, want %v", n.CreatedAt, baseTime)
	}

	if len(realtime.users) != 1 {
		t.Fatalf("pushed = %d, want 1", len(realtime.users))
	}
	pushed := realtime.users[0]
	if pushed.target != "friend" || pushed.event.Type != "notification" {
		t.Fatalf("pushed = %+v", pushed)
	}
	var decoded models.Notification
	if err := json.Unmarshal(pushed.event.Payload, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.ID != n.ID || decoded.Action == nil || decoded.Action.InvitationID != "inv-1" {
		t.Fatalf("payload = %+v", decoded)
	}
}

func TestEmitDeduplicatesByKey(t *testing.T) {
	t.Parallel()
	svc, store, realtime, _ := newNotificationFixture()
	ctx := context.Background()
	in := models.NotificationInput{UserID: "friend", Title: "Invitation expired", DedupeKey: "invitation_expired:inv-1:1"}

	first, err := svc.Emit(ctx, in)
	if err != nil {
		t.Fatalf("first Emit() error = %v", err)
	}
	second, err := svc.Emit(ctx, in)
	if err != nil {
		t.Fatalf("second Emit() error = %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second id = %q, want existing %q", second.ID, first.ID)
	}
	if len(store.notifications) != 1 {
		t.Fatalf("stored = %d, want 1", len(store.notifications))
	}
	if len(realtime.users) != 1 {
		t.Fatalf("pushed = %d, want 1", len(realtime.users))
	}

	// même clé, autre destinataire
	in.UserID = "owner"
	if _, err := svc.Emit(ctx, in); err != nil {
		t.Fatalf("Emit() for other user error = %v", err)
	}
	if len(store.notifications) != 2 {
		t.Fatalf("stored = %d, want 2", len(store.notifications))
	}
}

func TestEmitValidatesInput(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newNotificationFixture()

	tests := []models.NotificationInput{
		{Title: "missing user"},
		{UserID: "friend", Title: "  "},
	}
	for _, in := range tests {
		if _, err := svc.Emit(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Emit(%+v) error = %v, want %v", in, err, ErrInvalidInput)
		}
	}
}

func TestInboxOrderLimitAndUnread(t *testing.T) {
	t.Parallel()
	svc, _, _, clock := newNotificationFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Emit(ctx, models.NotificationInput{UserID: "friend", Title: "hello"}); err != nil {
			t.Fatalf("Emit() error = %v", err)
		}
		clock.Advance(time.Minute)
	}
	if _, err := svc.Emit(ctx, models.NotificationInput{UserID: "other", Title: "hello"}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	inbox, err := svc.ListInbox(ctx, "friend", 2)
	if err != nil {
		t.Fatalf("ListInbox() error = %v", err)
	}
	if len(inbox) != 2 || inbox[0].ID != "notif-3" || inbox[1].ID != "notif-2" {
		t.Fatalf("inbox = %+v, want notif-3 then notif-2", inbox)
	}

	all, err := svc.ListInbox(ctx, "friend", 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("default inbox = %d err = %v, want 3", len(all), err)
	}

	if err := svc.MarkRead(ctx, "notif-1", "friend"); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	count, err := svc.UnreadCount(ctx, "friend")
	if err != nil || count != 2 {
		t.Fatalf("unread = %d err = %v, want 2", count, err)
	}
}

func TestMarkReadOnlyForRecipient(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newNotificationFixture()
	ctx := context.Background()

	n, err := svc.Emit(ctx, models.NotificationInput{UserID: "friend", Title: "hello"})
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if err := svc.MarkRead(ctx, n.ID, "other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("MarkRead() by other error = %v, want %v", err, ErrNotFound)
	}
	if err := svc.MarkRead(ctx, "missing", "friend"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("MarkRead() unknown error = %v, want %v", err, ErrNotFound)
	}
}
