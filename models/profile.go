package models

import "time"

// Profile est le profil public d'un utilisateur (créé par le fournisseur d'auth).
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName retourne le nom, ou l'email à défaut.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required"`
}
