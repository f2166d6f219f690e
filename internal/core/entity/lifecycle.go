// Package entity provides the base types for lifecycle-managed records.
package entity

import (
	"fmt"
	"time"
)

// State is the lifecycle state of a record.
type State string

const (
	StateActive      State = "active"
	StateSoftDeleted State = "soft_deleted"
)

// LifecycleFields holds the soft-delete columns.
//
// Invariant: IsDeleted <=> DeletedAt != nil <=> RestorationEligibleUntil != nil.
// An active record has all pointer fields nil.
type LifecycleFields struct {
	IsDeleted                bool       `db:"is_deleted" json:"isDeleted"`
	DeletedAt                *time.Time `db:"deleted_at" json:"deletedAt"`
	DeletedBy                *string    `db:"deleted_by" json:"deletedBy"`
	RestorationEligibleUntil *time.Time `db:"restoration_eligible_until" json:"restorationEligibleUntil"`
}

// State derives the lifecycle state from IsDeleted.
func (l LifecycleFields) State() State {
	if l.IsDeleted {
		return StateSoftDeleted
	}
	return StateActive
}

// SoftDeletedFields returns the fields a record takes when actorID soft-deletes it at now.
func SoftDeletedFields(actorID string, now time.Time, window time.Duration) LifecycleFields {
	deletedAt := now.UTC()
	until := deletedAt.Add(window)
	actor := actorID
	return LifecycleFields{
		IsDeleted:                true,
		DeletedAt:                &deletedAt,
		DeletedBy:                &actor,
		RestorationEligibleUntil: &until,
	}
}

// WindowExpired reports whether the restoration deadline is strictly before now.
// A soft-deleted record without a deadline is treated as still restorable.
func (l LifecycleFields) WindowExpired(now time.Time) bool {
	if l.RestorationEligibleUntil == nil {
		return false
	}
	return l.RestorationEligibleUntil.Before(now)
}

// Validate checks the field invariant.
func (l LifecycleFields) Validate() error {
	if l.IsDeleted != (l.DeletedAt != nil) {
		return fmt.Errorf("lifecycle invariant violated: is_deleted=%t, deleted_at set=%t", l.IsDeleted, l.DeletedAt != nil)
	}
	if l.IsDeleted != (l.RestorationEligibleUntil != nil) {
		return fmt.Errorf("lifecycle invariant violated: is_deleted=%t, restoration_eligible_until set=%t", l.IsDeleted, l.RestorationEligibleUntil != nil)
	}
	if !l.IsDeleted && l.DeletedBy != nil {
		return fmt.Errorf("lifecycle invariant violated: deleted_by set on active record")
	}
	return nil
}

// Snapshot returns the audit metadata representation of the fields.
func (l LifecycleFields) Snapshot() map[string]any {
	return map[string]any{
		"is_deleted":                 l.IsDeleted,
		"deleted_at":                 timeOrNil(l.DeletedAt),
		"deleted_by":                 stringOrNil(l.DeletedBy),
		"restoration_eligible_until": timeOrNil(l.RestorationEligibleUntil),
	}
}

// Clone returns a deep copy.
func (l LifecycleFields) Clone() LifecycleFields {
	out := LifecycleFields{IsDeleted: l.IsDeleted}
	if l.DeletedAt != nil {
		t := *l.DeletedAt
		out.DeletedAt = &t
	}
	if l.DeletedBy != nil {
		s := *l.DeletedBy
		out.DeletedBy = &s
	}
	if l.RestorationEligibleUntil != nil {
		t := *l.RestorationEligibleUntil
		out.RestorationEligibleUntil = &t
	}
	return out
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
