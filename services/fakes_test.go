package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LovationAdmin/goals-api/models"
	"github.com/LovationAdmin/goals-api/storage"
)

var baseTime = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: baseTime}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// fakeStore reproduit en mémoire la sémantique de storage.Store.
type fakeStore struct {
	mu            sync.Mutex
	profiles      map[string]models.Profile
	goals         map[string]models.Goal
	collaborators map[string]time.Time
	invitations   map[string]models.Invitation
	notifications map[string]models.Notification

	findGoalErr           map[string]error
	insertCollaboratorErr error
	listExpiredErr        error
	collaboratorInserts   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:      make(map[string]models.Profile),
		goals:         make(map[string]models.Goal),
		collaborators: make(map[string]time.Time),
		invitations:   make(map[string]models.Invitation),
		notifications: make(map[string]models.Notification),
		findGoalErr:   make(map[string]error),
	}
}

func collaboratorKey(goalID, userID string) string {
	return goalID + "|" + userID
}

func (s *fakeStore) addProfile(id, email, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[id] = models.Profile{ID: id, Email: email, Name: name, CreatedAt: baseTime}
}

func (s *fakeStore) addGoal(id, ownerID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[id] = models.Goal{
		ID:           id,
		OwnerID:      ownerID,
		Title:        title,
		TargetAmount: decimal.NewFromInt(1000),
		SavedAmount:  decimal.Zero,
		Currency:     "EUR",
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
}

func (s *fakeStore) invitation(id string) models.Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invitations[id]
}

func (s *fakeStore) invitationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invitations)
}

func (s *fakeStore) collaboratorCount(goalID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.collaborators {
		if strings.HasPrefix(key, goalID+"|") {
			n++
		}
	}
	return n
}

func (s *fakeStore) FindGoal(_ context.Context, id string) (models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.findGoalErr[id]; err != nil {
		return models.Goal{}, err
	}
	g, ok := s.goals[id]
	if !ok {
		return models.Goal{}, storage.ErrNotFound
	}
	return g, nil
}

func (s *fakeStore) FindProfile(_ context.Context, id string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return models.Profile{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) FindProfileByEmail(_ context.Context, email string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if strings.EqualFold(p.Email, strings.TrimSpace(email)) {
			return p, nil
		}
	}
	return models.Profile{}, storage.ErrNotFound
}

func (s *fakeStore) UpsertProfile(_ context.Context, p models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profiles {
		if existing.ID != p.ID && strings.EqualFold(existing.Email, p.Email) {
			return storage.ErrConflict
		}
	}
	if existing, ok := s.profiles[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	}
	s.profiles[p.ID] = p
	return nil
}

func (s *fakeStore) CollaboratorExists(_ context.Context, goalID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.collaborators[collaboratorKey(goalID, userID)]
	return ok, nil
}

func (s *fakeStore) InsertCollaborator(_ context.Context, goalID, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertCollaboratorErr != nil {
		return s.insertCollaboratorErr
	}
	s.collaboratorInserts++
	key := collaboratorKey(goalID, userID)
	if _, ok := s.collaborators[key]; !ok {
		s.collaborators[key] = now
	}
	return nil
}

func (s *fakeStore) FindInvitation(_ context.Context, id string) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[id]
	if !ok {
		return models.Invitation{}, storage.ErrNotFound
	}
	return inv, nil
}

func (s *fakeStore) FindPendingInvitation(_ context.Context, goalID, inviteeID string) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invitations {
		if inv.GoalID == goalID && inv.InviteeID == inviteeID && inv.Status == models.InvitationPending {
			return inv, nil
		}
	}
	return models.Invitation{}, storage.ErrNotFound
}

func (s *fakeStore) FindReusableInvitation(_ context.Context, goalID, inviteeID string) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *models.Invitation
	for _, inv := range s.invitations {
		if inv.GoalID != goalID || inv.InviteeID != inviteeID || !inv.Status.Reusable() {
			continue
		}
		if found == nil || inv.UpdatedAt.After(found.UpdatedAt) {
			inv := inv
			found = &inv
		}
	}
	if found == nil {
		return models.Invitation{}, storage.ErrNotFound
	}
	return *found, nil
}

func (s *fakeStore) pendingExistsLocked(goalID, inviteeID, exceptID string) bool {
	for _, inv := range s.invitations {
		if inv.ID != exceptID && inv.GoalID == goalID && inv.InviteeID == inviteeID && inv.Status == models.InvitationPending {
			return true
		}
	}
	return false
}

func (s *fakeStore) InsertInvitation(_ context.Context, inv models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.Status == models.InvitationPending && s.pendingExistsLocked(inv.GoalID, inv.InviteeID, "") {
		return storage.ErrConflict
	}
	s.invitations[inv.ID] = inv
	return nil
}

func (s *fakeStore) UpdateInvitationStatus(_ context.Context, id string, from, to models.InvitationStatus, expiresAt *time.Time, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[id]
	if !ok || inv.Status != from {
		return false, nil
	}
	if to == models.InvitationPending && s.pendingExistsLocked(inv.GoalID, inv.InviteeID, id) {
		return false, storage.ErrConflict
	}
	inv.Status = to
	inv.UpdatedAt = now
	if expiresAt != nil {
		inv.ExpiresAt = *expiresAt
	}
	s.invitations[id] = inv
	return true, nil
}

func (s *fakeStore) ListExpiredPendingInvitations(_ context.Context, now time.Time) ([]models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listExpiredErr != nil {
		return nil, s.listExpiredErr
	}
	var out []models.Invitation
	for _, inv := range s.invitations {
		if inv.Status == models.InvitationPending && inv.ExpiresAt.Before(now) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) ExpireInvitations(_ context.Context, ids []string, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []string
	for _, id := range ids {
		inv, ok := s.invitations[id]
		if !ok || inv.Status != models.InvitationPending || !inv.ExpiresAt.Before(now) {
			continue
		}
		inv.Status = models.InvitationExpired
		inv.UpdatedAt = now
		s.invitations[id] = inv
		expired = append(expired, id)
	}
	return expired, nil
}

func (s *fakeStore) ListGoalInvitations(_ context.Context, goalID string) ([]models.InvitationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.InvitationView
	for _, inv := range s.invitations {
		if inv.GoalID == goalID {
			out = append(out, models.InvitationView{
				Invitation:   inv,
				GoalTitle:    s.goals[goalID].Title,
				InviterName:  s.profiles[inv.InviterID].Name,
				InviteeEmail: s.profiles[inv.InviteeID].Email,
			})
		}
	}
	return out, nil
}

func (s *fakeStore) ListPendingInvitationsForUser(_ context.Context, userID string, now time.Time) ([]models.InvitationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.InvitationView
	for _, inv := range s.invitations {
		if inv.InviteeID == userID && inv.Status == models.InvitationPending && !inv.ExpiresAt.Before(now) {
			out = append(out, models.InvitationView{Invitation: inv, GoalTitle: s.goals[inv.GoalID].Title})
		}
	}
	return out, nil
}

func (s *fakeStore) InsertGoal(_ context.Context, g models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = g
	return nil
}

func (s *fakeStore) ListGoalsForUser(_ context.Context, userID string) ([]models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Goal
	for _, g := range s.goals {
		if _, ok := s.collaborators[collaboratorKey(g.ID, userID)]; g.OwnerID == userID || ok {
			g.IsOwner = g.OwnerID == userID
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *fakeStore) AddToSavedAmount(_ context.Context, goalID string, amount decimal.Decimal, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[goalID]
	if !ok {
		return storage.ErrNotFound
	}
	g.SavedAmount = g.SavedAmount.Add(amount)
	g.UpdatedAt = now
	s.goals[goalID] = g
	return nil
}

func (s *fakeStore) DeleteGoal(_ context.Context, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[goalID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.goals, goalID)
	for key := range s.collaborators {
		if strings.HasPrefix(key, goalID+"|") {
			delete(s.collaborators, key)
		}
	}
	for id, inv := range s.invitations {
		if inv.GoalID == goalID {
			delete(s.invitations, id)
		}
	}
	return nil
}

func (s *fakeStore) ListCollaborators(_ context.Context, goalID string) ([]models.Collaborator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Collaborator
	for key, createdAt := range s.collaborators {
		parts := strings.SplitN(key, "|", 2)
		if parts[0] != goalID {
			continue
		}
		p := s.profiles[parts[1]]
		out = append(out, models.Collaborator{GoalID: goalID, UserID: parts[1], UserName: p.Name, UserEmail: p.Email, CreatedAt: createdAt})
	}
	return out, nil
}

func (s *fakeStore) DeleteCollaborator(_ context.Context, goalID, userID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := collaboratorKey(goalID, userID)
	if _, ok := s.collaborators[key]; !ok {
		return storage.ErrNotFound
	}
	delete(s.collaborators, key)
	return nil
}

func (s *fakeStore) InsertNotification(_ context.Context, n models.Notification) (models.Notification, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.DedupeKey != "" {
		for _, existing := range s.notifications {
			if existing.UserID == n.UserID && existing.DedupeKey == n.DedupeKey {
				return existing, false, nil
			}
		}
	}
	s.notifications[n.ID] = n
	return n, true, nil
}

func (s *fakeStore) ListNotifications(_ context.Context, userID string, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) CountUnreadNotifications(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, notification := range s.notifications {
		if notification.UserID == userID && !notification.Read {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) MarkNotificationRead(_ context.Context, id, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return storage.ErrNotFound
	}
	if !n.Read {
		n.Read = true
		n.ReadAt = &now
	}
	s.notifications[id] = n
	return nil
}

// fakeNotifier enregistre les notifications émises.
type fakeNotifier struct {
	mu      sync.Mutex
	emitted []models.NotificationInput
	err     error
}

func (n *fakeNotifier) Emit(_ context.Context, in models.NotificationInput) (models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return models.Notification{}, n.err
	}
	n.emitted = append(n.emitted, in)
	return models.Notification{UserID: in.UserID, Title: in.Title, Message: in.Message}, nil
}

func (n *fakeNotifier) sent() []models.NotificationInput {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.NotificationInput(nil), n.emitted...)
}

type sentEmail struct {
	to, inviterName, goalTitle string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *fakeMailer) SendGoalInvitation(_ context.Context, to, inviterName, goalTitle string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: to, inviterName: inviterName, goalTitle: goalTitle})
	return nil
}

type pushedEvent struct {
	target string
	event  models.RealtimeEvent
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	users []pushedEvent
	goals []pushedEvent
}

func (b *fakeBroadcaster) PushToUser(userID string, event models.RealtimeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = append(b.users, pushedEvent{target: userID, event: event})
}

func (b *fakeBroadcaster) PushToGoal(goalID string, event models.RealtimeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.goals = append(b.goals, pushedEvent{target: goalID, event: event})
}
