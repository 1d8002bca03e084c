package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LovationAdmin/goals-api/models"
	"github.com/LovationAdmin/goals-api/storage"
	"github.com/LovationAdmin/goals-api/utils"
)

type GoalService struct {
	store    GoalStore
	realtime Broadcaster
	clock    func() time.Time
	newID    func() string
}

func NewGoalService(store GoalStore, realtime Broadcaster) *GoalService {
	return &GoalService{
		store:    store,
		realtime: realtime,
		clock:    defaultClock,
		newID:    defaultID,
	}
}

func (s *GoalService) CreateGoal(ctx context.Context, ownerID string, req models.CreateGoalRequest) (models.Goal, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return models.Goal{}, invalidInput("title is required")
	}
	if !req.TargetAmount.IsPositive() {
		return models.Goal{}, invalidInput("target_amount must be positive")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}

	now := s.clock()
	goal := models.Goal{
		ID:           s.newID(),
		OwnerID:      ownerID,
		Title:        title,
		TargetAmount: req.TargetAmount.Round(2),
		SavedAmount:  decimal.Zero,
		Currency:     currency,
		TargetDate:   req.TargetDate,
		Emoji:        req.Emoji,
		CreatedAt:    now,
		UpdatedAt:    now,
		IsOwner:      true,
	}
	if err := s.store.InsertGoal(ctx, goal); err != nil {
		return models.Goal{}, persistenceFailure("insert goal", err)
	}

	utils.LogGoalAction("Goal created", goal.ID, ownerID)
	return goal, nil
}

func (s *GoalService) ListGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	goals, err := s.store.ListGoalsForUser(ctx, userID)
	if err != nil {
		return nil, persistenceFailure("list goals", err)
	}
	return goals, nil
}

// GetGoal retourne l'objectif si l'utilisateur en est propriétaire ou collaborateur.
func (s *GoalService) GetGoal(ctx context.Context, goalID, userID string) (models.Goal, error) {
	goal, err := s.store.FindGoal(ctx, goalID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Goal{}, ErrGoalNotFound
	}
	if err != nil {
		return models.Goal{}, persistenceFailure("find goal", err)
	}
	if goal.OwnerID == userID {
		goal.IsOwner = true
		return goal, nil
	}
	ok, err := s.store.CollaboratorExists(ctx, goalID, userID)
	if err != nil {
		return models.Goal{}, persistenceFailure("check collaborator", err)
	}
	if !ok {
		return models.Goal{}, ErrGoalNotFound
	}
	return goal, nil
}

// CanAccess indique si l'utilisateur voit l'objectif.
func (s *GoalService) CanAccess(ctx context.Context, goalID, userID string) (bool, error) {
	_, err := s.GetGoal(ctx, goalID, userID)
	if errors.Is(err, ErrGoalNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Contribute ajoute amount au montant épargné (propriétaire ou collaborateur).
func (s *GoalService) Contribute(ctx context.Context, goalID, userID string, amount decimal.Decimal) (models.Goal, error) {
	if !amount.IsPositive() {
		return models.Goal{}, invalidInput("amount must be positive")
	}
	if _, err := s.GetGoal(ctx, goalID, userID); err != nil {
		return models.Goal{}, err
	}

	amount = amount.Round(2)
	err := s.store.AddToSavedAmount(ctx, goalID, amount, s.clock())
	if errors.Is(err, storage.ErrNotFound) {
		return models.Goal{}, ErrGoalNotFound
	}
	if err != nil {
		return models.Goal{}, persistenceFailure("add contribution", err)
	}

	goal, err := s.GetGoal(ctx, goalID, userID)
	if err != nil {
		return models.Goal{}, err
	}

	utils.SafeInfo("[Goal] Contribution of %s on %s by %s", utils.MaskAmount(amount), utils.MaskID(goalID), utils.MaskID(userID))
	if s.realtime != nil {
		payload, _ := json.Marshal(map[string]string{"amount": amount.StringFixed(2)})
		s.realtime.PushToGoal(goalID, models.RealtimeEvent{Type: "contribution", UserID: userID, Payload: payload})
	}
	return goal, nil
}

// DeleteGoal supprime l'objectif (propriétaire seulement).
func (s *GoalService) DeleteGoal(ctx context.Context, goalID, userID string) error {
	goal, err := s.GetGoal(ctx, goalID, userID)
	if err != nil {
		return err
	}
	if goal.OwnerID != userID {
		return ErrForbidden
	}
	err = s.store.DeleteGoal(ctx, goalID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrGoalNotFound
	}
	if err != nil {
		return persistenceFailure("delete goal", err)
	}
	utils.LogGoalAction("Goal deleted", goalID, userID)
	return nil
}

func (s *GoalService) ListCollaborators(ctx context.Context, goalID, userID string) ([]models.Collaborator, error) {
	if _, err := s.GetGoal(ctx, goalID, userID); err != nil {
		return nil, err
	}
	collaborators, err := s.store.ListCollaborators(ctx, goalID)
	if err != nil {
		return nil, persistenceFailure("list collaborators", err)
	}
	return collaborators, nil
}

// RemoveCollaborator retire un collaborateur (propriétaire seulement).
func (s *GoalService) RemoveCollaborator(ctx context.Context, goalID, ownerID, collaboratorID string) error {
	goal, err := s.GetGoal(ctx, goalID, ownerID)
	if err != nil {
		return err
	}
	if goal.OwnerID != ownerID {
		return ErrForbidden
	}
	err = s.store.DeleteCollaborator(ctx, goalID, collaboratorID, s.clock())
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return persistenceFailure("remove collaborator", err)
	}
	utils.LogGoalAction("Collaborator removed", goalID, collaboratorID)
	if s.realtime != nil {
		s.realtime.PushToGoal(goalID, models.RealtimeEvent{Type: "collaborator_left", UserID: collaboratorID})
	}
	return nil
}
