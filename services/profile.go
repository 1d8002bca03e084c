package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/LovationAdmin/goals-api/models"
	"github.com/LovationAdmin/goals-api/storage"
)

type ProfileService struct {
	store ProfileStore
	clock func() time.Time
}

func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{store: store, clock: defaultClock}
}

// SyncProfile crée ou met à jour le profil à partir des claims du token.
func (s *ProfileService) SyncProfile(ctx context.Context, userID, email, name string) (models.Profile, error) {
	email = strings.TrimSpace(email)
	if userID == "" || email == "" {
		return models.Profile{}, invalidInput("token must carry user id and email")
	}

	profile := models.Profile{
		ID:        userID,
		Email:     email,
		Name:      strings.TrimSpace(name),
		CreatedAt: s.clock(),
	}
	err := s.store.UpsertProfile(ctx, profile)
	if errors.Is(err, storage.ErrConflict) {
		return models.Profile{}, invalidInput("email already belongs to another profile")
	}
	if err != nil {
		return models.Profile{}, persistenceFailure("upsert profile", err)
	}

	saved, err := s.store.FindProfile(ctx, userID)
	if err != nil {
		return models.Profile{}, persistenceFailure("find profile", err)
	}
	return saved, nil
}
