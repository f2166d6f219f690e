package lifecycle

import (
	"fmt"
	"time"
)

// DefaultRestorationWindow is how long a soft-deleted record stays restorable.
const DefaultRestorationWindow = 30 * 24 * time.Hour

// AuditMode controls how the audit append relates to the entity write.
type AuditMode string

const (
	// AuditBestEffort writes the entity first; an audit failure is logged
	// and counted but does not fail the operation.
	AuditBestEffort AuditMode = "best_effort"

	// AuditTransactional writes entity and audit entry in one transaction;
	// either failure fails the operation.
	AuditTransactional AuditMode = "transactional"
)

// ParseAuditMode converts a config value to AuditMode.
func ParseAuditMode(s string) (AuditMode, error) {
	switch AuditMode(s) {
	case "", AuditBestEffort:
		return AuditBestEffort, nil
	case AuditTransactional:
		return AuditTransactional, nil
	}
	return "", fmt.Errorf("unknown audit mode %q", s)
}

// Policy holds the tunable rules of the lifecycle.
type Policy struct {
	RestorationWindow time.Duration
	AuditMode         AuditMode

	// PurgeGuard decides whether a record may be permanently deleted.
	// nil means RequireSoftDeleted.
	PurgeGuard *PurgeGuard
}

// DefaultPolicy returns the reference rules: 30-day window, best-effort audit,
// permanent deletion only after soft deletion.
func DefaultPolicy() Policy {
	return Policy{
		RestorationWindow: DefaultRestorationWindow,
		AuditMode:         AuditBestEffort,
	}
}

func (p Policy) validate() error {
	if p.RestorationWindow <= 0 {
		return fmt.Errorf("restoration window must be positive, got %s", p.RestorationWindow)
	}
	if _, err := ParseAuditMode(string(p.AuditMode)); err != nil {
		return err
	}
	return nil
}
