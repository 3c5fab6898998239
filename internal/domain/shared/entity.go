package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and timestamps shared by every stored record
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity stamps a fresh identity
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch bumps UpdatedAt
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// OwnedEntity is an entity that belongs to exactly one user.
// Every lookup of an owned entity is scoped by (id, user_id).
type OwnedEntity struct {
	BaseEntity
	UserID uuid.UUID
}

// NewOwnedEntity creates a new owned entity for the given user
func NewOwnedEntity(userID uuid.UUID) OwnedEntity {
	return OwnedEntity{BaseEntity: NewBaseEntity(), UserID: userID}
}

// IsOwnedBy reports whether the entity belongs to the user
func (e *OwnedEntity) IsOwnedBy(userID uuid.UUID) bool {
	return e.UserID == userID
}
