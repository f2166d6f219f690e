package entity

import (
	"time"

	"portfolio/internal/core/id"
)

// Deletable is implemented by every record the lifecycle manager can
// soft-delete, restore and purge. Implementations are pointer types that
// embed BaseEntity.
type Deletable interface {
	GetID() id.ID
	GetVersion() int
	SetVersion(v int)
	SetUpdatedAt(t time.Time)
	Lifecycle() *LifecycleFields
}

// BaseEntity contains the fields shared by all lifecycle-managed records.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each write)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	LifecycleFields
}

// NewBaseEntity creates an active BaseEntity with a generated ID.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetID returns the primary key.
func (b *BaseEntity) GetID() id.ID {
	return b.ID
}

// GetVersion returns the optimistic locking token.
func (b *BaseEntity) GetVersion() int {
	return b.Version
}

// SetVersion updates the version number (used by stores after a write).
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

// SetUpdatedAt updates the updated_at timestamp (used by stores).
func (b *BaseEntity) SetUpdatedAt(t time.Time) {
	b.UpdatedAt = t
}

// Lifecycle exposes the soft-delete fields for in-place updates.
func (b *BaseEntity) Lifecycle() *LifecycleFields {
	return &b.LifecycleFields
}
