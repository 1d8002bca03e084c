package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/LovationAdmin/goals-api/models"
	"github.com/LovationAdmin/goals-api/storage"
	"github.com/LovationAdmin/goals-api/utils"
)

// DefaultInvitationTTL est la durée de validité d'une invitation.
const DefaultInvitationTTL = 3 * 24 * time.Hour

// InvitationService gère le cycle de vie des invitations:
// pending -> accepted | declined | expired, et declined/expired -> pending
// lors d'une nouvelle invitation (la ligne est réutilisée).
type InvitationService struct {
	store    InvitationStore
	notifier Notifier
	messages *Messages
	mailer   Mailer
	realtime Broadcaster
	clock    func() time.Time
	newID    func() string
	ttl      time.Duration
}

type InvitationOption func(*InvitationService)

func WithClock(clock func() time.Time) InvitationOption {
	return func(s *InvitationService) { s.clock = clock }
}

func WithIDGenerator(newID func() string) InvitationOption {
	return func(s *InvitationService) { s.newID = newID }
}

func WithInvitationTTL(ttl time.Duration) InvitationOption {
	return func(s *InvitationService) { s.ttl = ttl }
}

func WithMailer(mailer Mailer) InvitationOption {
	return func(s *InvitationService) { s.mailer = mailer }
}

func WithBroadcaster(b Broadcaster) InvitationOption {
	return func(s *InvitationService) { s.realtime = b }
}

func NewInvitationService(store InvitationStore, notifier Notifier, messages *Messages, opts ...InvitationOption) *InvitationService {
	s := &InvitationService{
		store:    store,
		notifier: notifier,
		messages: messages,
		clock:    defaultClock,
		newID:    defaultID,
		ttl:      DefaultInvitationTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.messages == nil {
		s.messages = NewMessages("en")
	}
	return s
}

// InviteCollaborator invite l'utilisateur identifié par inviteeEmail sur un
// objectif dont inviterID est propriétaire.
func (s *InvitationService) InviteCollaborator(ctx context.Context, goalID, inviterID, inviteeEmail string) (inv models.Invitation, err error) {
	ctx, span := tracer.Start(ctx, "InvitationService.InviteCollaborator",
		trace.WithAttributes(attribute.String("goal.id", goalID)))
	defer func() { endSpan(span, err) }()

	goal, err := s.ownedGoal(ctx, goalID, inviterID)
	if err != nil {
		return models.Invitation{}, err
	}

	email := strings.TrimSpace(inviteeEmail)
	if email == "" {
		return models.Invitation{}, invalidInput("email is required")
	}

	invitee, err := s.store.FindProfileByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Invitation{}, ErrUserNotFound
	}
	if err != nil {
		return models.Invitation{}, persistenceFailure("find invitee", err)
	}
	// le propriétaire a déjà accès à son objectif
	if invitee.ID == goal.OwnerID {
		return models.Invitation{}, ErrAlreadyCollaborator
	}

	isCollaborator, err := s.store.CollaboratorExists(ctx, goal.ID, invitee.ID)
	if err != nil {
		return models.Invitation{}, persistenceFailure("check collaborator", err)
	}
	if isCollaborator {
		return models.Invitation{}, ErrAlreadyCollaborator
	}

	_, err = s.store.FindPendingInvitation(ctx, goal.ID, invitee.ID)
	if err == nil {
		return models.Invitation{}, ErrInvitationAlreadyPending
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Invitation{}, persistenceFailure("find pending invitation", err)
	}

	now := s.clock()
	expiresAt := now.Add(s.ttl)

	previous, err := s.store.FindReusableInvitation(ctx, goal.ID, invitee.ID)
	switch {
	case err == nil:
		inv, err = s.reissue(ctx, previous, expiresAt, now)
		if err != nil {
			return models.Invitation{}, err
		}
	case errors.Is(err, storage.ErrNotFound):
		inv = models.Invitation{
			ID:        s.newID(),
			GoalID:    goal.ID,
			InviterID: inviterID,
			InviteeID: invitee.ID,
			Status:    models.InvitationPending,
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: expiresAt,
		}
		err = s.store.InsertInvitation(ctx, inv)
		if errors.Is(err, storage.ErrConflict) {
			return models.Invitation{}, ErrInvitationAlreadyPending
		}
		if err != nil {
			return models.Invitation{}, persistenceFailure("insert invitation", err)
		}
	default:
		return models.Invitation{}, persistenceFailure("find previous invitation", err)
	}

	utils.LogInvitationAction("Invitation sent", inv.ID, goal.ID, inviterID)

	inviterName := s.profileName(ctx, inviterID)
	s.notifyInvitation(ctx, goal, inv, inviterName)
	s.sendInvitationEmail(ctx, invitee.Email, inviterName, goal, inv)

	return inv, nil
}

// reissue remet en pending une invitation declined/expired avec une nouvelle échéance.
func (s *InvitationService) reissue(ctx context.Context, previous models.Invitation, expiresAt, now time.Time) (models.Invitation, error) {
	updated, err := s.store.UpdateInvitationStatus(ctx, previous.ID, previous.Status, models.InvitationPending, &expiresAt, now)
	if errors.Is(err, storage.ErrConflict) {
		return models.Invitation{}, ErrInvitationAlreadyPending
	}
	if err != nil {
		return models.Invitation{}, persistenceFailure("reissue invitation", err)
	}
	if !updated {
		// une invitation concurrente a déjà remis la ligne en pending
		return models.Invitation{}, ErrInvitationAlreadyPending
	}

	inv := previous
	inv.Status = models.InvitationPending
	inv.ExpiresAt = expiresAt
	inv.UpdatedAt = now
	return inv, nil
}

// RespondToInvitation accepte ou refuse une invitation pending.
func (s *InvitationService) RespondToInvitation(ctx context.Context, invitationID, userID string, accept bool) (inv models.Invitation, err error) {
	ctx, span := tracer.Start(ctx, "InvitationService.RespondToInvitation",
		trace.WithAttributes(attribute.String("invitation.id", invitationID), attribute.Bool("accept", accept)))
	defer func() { endSpan(span, err) }()

	inv, err = s.store.FindInvitation(ctx, invitationID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Invitation{}, ErrInvitationNotFound
	}
	if err != nil {
		return models.Invitation{}, persistenceFailure("find invitation", err)
	}
	if inv.InviteeID != userID {
		return models.Invitation{}, ErrNotInvitee
	}
	if inv.Status != models.InvitationPending {
		return models.Invitation{}, InvitationAlreadyResolved(inv.Status)
	}

	now := s.clock()
	// échue mais pas encore balayée: le sweep fera la transition et les notifications
	if now.After(inv.ExpiresAt) {
		return models.Invitation{}, InvitationAlreadyResolved(models.InvitationExpired)
	}

	next := models.InvitationDeclined
	if accept {
		next = models.InvitationAccepted
	}

	updated, err := s.store.UpdateInvitationStatus(ctx, inv.ID, models.InvitationPending, next, nil, now)
	if err != nil {
		return models.Invitation{}, persistenceFailure("update invitation status", err)
	}
	if !updated {
		current, err := s.store.FindInvitation(ctx, inv.ID)
		if err != nil {
			return models.Invitation{}, persistenceFailure("reload invitation", err)
		}
		return models.Invitation{}, InvitationAlreadyResolved(current.Status)
	}

	inv.Status = next
	inv.UpdatedAt = now

	if !accept {
		utils.LogInvitationAction("Invitation declined", inv.ID, inv.GoalID, userID)
		return inv, nil
	}

	// L'invitation reste acceptée même si l'ajout du collaborateur échoue;
	// la passe de réparation recrée la ligne manquante.
	if err := s.store.InsertCollaborator(ctx, inv.GoalID, inv.InviteeID, now); err != nil {
		utils.SafeError("❌ Invitation %s accepted but collaborator insert failed: %v", inv.ID, err)
		return inv, persistenceFailure("insert collaborator", err)
	}

	utils.LogInvitationAction("Invitation accepted", inv.ID, inv.GoalID, userID)
	if s.realtime != nil {
		s.realtime.PushToGoal(inv.GoalID, models.RealtimeEvent{Type: "collaborator_joined", UserID: userID})
	}

	return inv, nil
}

// SweepResult est la réponse renvoyée au planificateur.
type SweepResult struct {
	Success        bool   `json:"success"`
	ProcessedCount int    `json:"processedCount"`
	Error          string `json:"error,omitempty"`
}

// SweepExpiredInvitations passe en expired les invitations pending échues et
// notifie l'invité et l'inviteur. Seules les lignes effectivement modifiées par
// cet appel sont notifiées; un échec de notification n'interrompt pas le lot.
func (s *InvitationService) SweepExpiredInvitations(ctx context.Context) (result SweepResult, err error) {
	ctx, span := tracer.Start(ctx, "InvitationService.SweepExpiredInvitations")
	defer func() {
		span.SetAttributes(attribute.Int("invitations.expired", result.ProcessedCount))
		endSpan(span, err)
	}()

	now := s.clock()

	candidates, err := s.store.ListExpiredPendingInvitations(ctx, now)
	if err != nil {
		err = persistenceFailure("list expired invitations", err)
		return SweepResult{Success: false, Error: err.Error()}, err
	}
	if len(candidates) == 0 {
		return SweepResult{Success: true}, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, inv := range candidates {
		ids = append(ids, inv.ID)
	}

	expiredIDs, err := s.store.ExpireInvitations(ctx, ids, now)
	if err != nil {
		err = persistenceFailure("expire invitations", err)
		return SweepResult{Success: false, Error: err.Error()}, err
	}

	expired := make(map[string]bool, len(expiredIDs))
	for _, id := range expiredIDs {
		expired[id] = true
	}

	goals := make(map[string]models.Goal)
	for _, inv := range candidates {
		if !expired[inv.ID] {
			continue
		}

		goal, ok := goals[inv.GoalID]
		if !ok {
			found, lookupErr := s.store.FindGoal(ctx, inv.GoalID)
			if lookupErr != nil {
				utils.SafeWarn("⚠️ Sweep: goal %s lookup failed for invitation %s, skipping notifications: %v", inv.GoalID, inv.ID, lookupErr)
				continue
			}
			goal = found
			goals[inv.GoalID] = goal
		}

		s.notifyExpired(ctx, goal, inv)
	}

	utils.SafeInfo("🧹 Expired %d invitation(s)", len(expiredIDs))
	return SweepResult{Success: true, ProcessedCount: len(expiredIDs)}, nil
}

// ListGoalInvitations retourne l'historique des invitations d'un objectif (propriétaire seulement).
func (s *InvitationService) ListGoalInvitations(ctx context.Context, goalID, userID string) ([]models.InvitationView, error) {
	if _, err := s.ownedGoal(ctx, goalID, userID); err != nil {
		return nil, err
	}
	invitations, err := s.store.ListGoalInvitations(ctx, goalID)
	if err != nil {
		return nil, persistenceFailure("list goal invitations", err)
	}
	return invitations, nil
}

// ListPendingInvitations retourne les invitations encore valides reçues par l'utilisateur.
func (s *InvitationService) ListPendingInvitations(ctx context.Context, userID string) ([]models.InvitationView, error) {
	invitations, err := s.store.ListPendingInvitationsForUser(ctx, userID, s.clock())
	if err != nil {
		return nil, persistenceFailure("list pending invitations", err)
	}
	return invitations, nil
}

func (s *InvitationService) ownedGoal(ctx context.Context, goalID, userID string) (models.Goal, error) {
	goal, err := s.store.FindGoal(ctx, goalID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Goal{}, ErrGoalNotFound
	}
	if err != nil {
		return models.Goal{}, persistenceFailure("find goal", err)
	}
	if goal.OwnerID != userID {
		return models.Goal{}, ErrGoalNotFound
	}
	return goal, nil
}

func (s *InvitationService) profileName(ctx context.Context, userID string) string {
	profile, err := s.store.FindProfile(ctx, userID)
	if err != nil {
		return ""
	}
	return profile.DisplayName()
}

func (s *InvitationService) notifyInvitation(ctx context.Context, goal models.Goal, inv models.Invitation, inviterName string) {
	title, body := s.messages.InvitationReceived(inviterName, goal.Title)
	s.emit(ctx, models.NotificationInput{
		UserID:  inv.InviteeID,
		Type:    models.NotificationInfo,
		Title:   title,
		Message: body,
		Action: &models.NotificationAction{
			Type:         models.ActionGoalInvitation,
			InvitationID: inv.ID,
			GoalID:       goal.ID,
			GoalTitle:    goal.Title,
		},
		DedupeKey: invitationDedupeKey("goal_invitation", inv),
	})
}

func (s *InvitationService) notifyExpired(ctx context.Context, goal models.Goal, inv models.Invitation) {
	key := invitationDedupeKey("invitation_expired", inv)
	action := &models.NotificationAction{
		Type:         models.ActionInvitationExpired,
		InvitationID: inv.ID,
		GoalID:       goal.ID,
		GoalTitle:    goal.Title,
	}

	title, body := s.messages.InvitationExpiredForInvitee(goal.Title)
	s.emit(ctx, models.NotificationInput{
		UserID:    inv.InviteeID,
		Type:      models.NotificationWarning,
		Title:     title,
		Message:   body,
		Action:    action,
		DedupeKey: key,
	})

	title, body = s.messages.InvitationExpiredForInviter(s.profileName(ctx, inv.InviteeID), goal.Title)
	s.emit(ctx, models.NotificationInput{
		UserID:    inv.InviterID,
		Type:      models.NotificationWarning,
		Title:     title,
		Message:   body,
		Action:    action,
		DedupeKey: key,
	})
}

// emit logue les échecs de notification sans les propager.
func (s *InvitationService) emit(ctx context.Context, in models.NotificationInput) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Emit(ctx, in); err != nil {
		utils.SafeWarn("⚠️ Notification to %s failed: %v", utils.MaskID(in.UserID), err)
	}
}

func (s *InvitationService) sendInvitationEmail(ctx context.Context, to, inviterName string, goal models.Goal, inv models.Invitation) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendGoalInvitation(ctx, to, inviterName, goal.Title, inv.ExpiresAt); err != nil {
		utils.SafeWarn("⚠️ Invitation email to %s failed: %v", utils.MaskEmail(to), err)
	}
}

// invitationDedupeKey change à chaque réémission (nouvelle échéance).
func invitationDedupeKey(kind string, inv models.Invitation) string {
	return fmt.Sprintf("%s:%s:%d", kind, inv.ID, inv.ExpiresAt.UnixMilli())
}
