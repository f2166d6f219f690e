// Package audit defines the append-only log of lifecycle actions.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"portfolio/internal/core/apperror"
	"portfolio/internal/core/id"
)

// Action is the kind of lifecycle action recorded.
type Action string

const (
	ActionSoftDelete      Action = "soft_delete"
	ActionRestore         Action = "restore"
	ActionPermanentDelete Action = "permanent_delete"
)

// Entry is a persisted audit record. Entries are never updated or deleted.
type Entry struct {
	ID         id.ID           `db:"id" json:"id"`
	Action     Action          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entityType"`
	EntityID   id.ID           `db:"entity_id" json:"entityId"`
	UserID     *string         `db:"user_id" json:"userId"`
	Metadata   json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// EntryInput is what callers supply to Append.
type EntryInput struct {
	Action     Action
	EntityType string
	EntityID   id.ID
	UserID     string // optional
	Metadata   map[string]any
}

// Validate checks the required fields.
func (in EntryInput) Validate() error {
	switch {
	case in.Action == "":
		return apperror.NewValidation("audit action is required").WithDetail("field", "action")
	case in.EntityType == "":
		return apperror.NewValidation("audit entity type is required").WithDetail("field", "entityType")
	case id.IsNil(in.EntityID):
		return apperror.NewValidation("audit entity id is required").WithDetail("field", "entityId")
	}
	return nil
}

// Log is the audit collaborator of the lifecycle manager.
// There is intentionally no update or delete.
type Log interface {
	// Append generates id and created_at and persists the entry.
	Append(ctx context.Context, in EntryInput) (Entry, error)

	// QueryByEntity returns all entries of one entity, newest first.
	QueryByEntity(ctx context.Context, entityType string, entityID id.ID) ([]Entry, error)
}

// NewEntry builds an Entry from validated input, stamping id and time.
// Implementations share it so both stores produce identical records.
func NewEntry(in EntryInput, now time.Time) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:         id.New(),
		Action:     in.Action,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		CreatedAt:  now.UTC(),
	}
	if in.UserID != "" {
		uid := in.UserID
		e.UserID = &uid
	}
	if in.Metadata != nil {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return Entry{}, apperror.NewValidation("audit metadata is not serializable").WithCause(err)
		}
		e.Metadata = raw
	}
	return e, nil
}

// DecodeMetadata unmarshals the metadata payload into a map.
func (e Entry) DecodeMetadata() (map[string]any, error) {
	if len(e.Metadata) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(e.Metadata, &out); err != nil {
		return nil, err
	}
	return out, nil
}
