package domain

import "github.com/google/uuid"

// Authorize is the single ownership rule: the principal must be the recorded owner.
// Records are authorized through their zone's owner.
func Authorize(p Principal, owner uuid.UUID) error {
	if p.Subject == uuid.Nil || p.Subject != owner {
		return ErrNotOwner
	}
	return nil
}

// RequireAdmin gates the user listing. It never grants access to zones or records.
func RequireAdmin(p Principal) error {
	if !p.Admin {
		return ErrAdminRequired
	}
	return nil
}
