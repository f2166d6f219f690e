// Package portfolios provides the Portfolio record. It shares the lifecycle
// with projects.
package portfolios

import (
	"strings"

	"portfolio/internal/core/apperror"
	"portfolio/internal/core/entity"
)

const (
	EntityType  = "portfolio"
	DisplayName = "Portfolio"
)

// Portfolio groups projects under one owner.
type Portfolio struct {
	entity.BaseEntity

	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`

	// OwnerID is the opaque id of the owning user
	OwnerID string `db:"owner_id" json:"ownerId"`
}

func NewPortfolio(name, ownerID string) *Portfolio {
	return &Portfolio{
		BaseEntity: entity.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		OwnerID:    ownerID,
	}
}

func (p *Portfolio) Validate() error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.OwnerID == "" {
		return apperror.NewValidation("owner is required").WithDetail("field", "ownerId")
	}
	if err := p.LifecycleFields.Validate(); err != nil {
		return apperror.NewValidation(err.Error())
	}
	return nil
}

func (p *Portfolio) Clone() *Portfolio {
	if p == nil {
		return nil
	}
	out := *p
	out.LifecycleFields = p.LifecycleFields.Clone()
	if p.Description != nil {
		v := *p.Description
		out.Description = &v
	}
	return &out
}

func (p *Portfolio) GetName() string {
	return p.Name
}
