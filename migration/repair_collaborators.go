// migration/repair_collaborators.go
// Passe de réparation: recrée les lignes goal_collaborators manquantes pour les
// invitations acceptées (échec partiel entre l'acceptation et l'insertion du
// collaborateur).
//
// USAGE:
// 1. Endpoint admin POST /api/v1/admin/collaborators/repair
// 2. Ou en CLI: go run ./cmd/sweep -repair

package migration

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/LovationAdmin/goals-api/models"
	"github.com/LovationAdmin/goals-api/utils"
)

// DefaultRepairWindow limite la passe aux acceptations récentes.
// Un collaborateur retiré par le propriétaire n'est jamais recréé: le retrait
// révoque l'invitation acceptée (revoked_at).
const DefaultRepairWindow = 48 * time.Hour

type Store interface {
	ListAcceptedWithoutCollaborator(ctx context.Context, since time.Time) ([]models.Invitation, error)
	InsertCollaborator(ctx context.Context, goalID, userID string, now time.Time) error
}

// RepairStats résume une exécution.
type RepairStats struct {
	Checked  int `json:"checked"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
}

// RepairCollaborators insère (idempotent) le collaborateur de chaque invitation
// acceptée depuis now-window qui n'en a pas. Une erreur d'insertion n'arrête pas la passe.
func RepairCollaborators(ctx context.Context, store Store, now time.Time, window time.Duration) (RepairStats, error) {
	if window <= 0 {
		window = DefaultRepairWindow
	}

	invitations, err := store.ListAcceptedWithoutCollaborator(ctx, now.Add(-window))
	if err != nil {
		return RepairStats{}, fmt.Errorf("list accepted invitations: %w", err)
	}

	stats := RepairStats{Checked: len(invitations)}
	for _, inv := range invitations {
		if err := store.InsertCollaborator(ctx, inv.GoalID, inv.InviteeID, now); err != nil {
			log.Printf("  ❌ Invitation %s: %v", utils.MaskID(inv.ID), err)
			stats.Failed++
			continue
		}
		utils.LogInvitationAction("Collaborator repaired", inv.ID, inv.GoalID, inv.InviteeID)
		stats.Repaired++
	}

	log.Printf("📊 Réparation: %d vérifiées, %d réparées, %d erreurs", stats.Checked, stats.Repaired, stats.Failed)
	return stats, nil
}
