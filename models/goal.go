package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Goal struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner_id"`
	Title        string          `json:"title"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	SavedAmount  decimal.Decimal `json:"saved_amount"`
	Currency     string          `json:"currency"`
	TargetDate   *time.Time      `json:"target_date,omitempty"`
	Emoji        string          `json:"emoji,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	IsOwner      bool            `json:"is_owner"`
}

// Progress retourne la part épargnée (0..1), plafonnée à 1.
func (g Goal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	p := g.SavedAmount.Div(g.TargetAmount)
	if p.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return p.Round(4)
}

type Collaborator struct {
	GoalID    string    `json:"goal_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateGoalRequest struct {
	Title        string          `json:"title" binding:"required"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	Currency     string          `json:"currency"`
	TargetDate   *time.Time      `json:"target_date"`
	Emoji        string          `json:"emoji"`
}

type ContributionRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
