// Package projects provides the Project record, the primary lifecycle-managed entity.
package projects

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"portfolio/internal/core/apperror"
	"portfolio/internal/core/entity"
	"portfolio/internal/core/id"
)

// EntityType is the audit tag of projects.
const EntityType = "project"

// DisplayName is used in user-facing messages.
const DisplayName = "Project"

// Status is the delivery status of a project.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusOnHold     Status = "on_hold"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusOnHold, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Project is a unit of work, optionally grouped into a portfolio.
type Project struct {
	entity.BaseEntity

	Name string `db:"name" json:"name"`

	// PortfolioID links the project to its portfolio (nullable)
	PortfolioID *id.ID `db:"portfolio_id" json:"portfolioId,omitempty"`

	Status Status `db:"status" json:"status"`

	Budget decimal.Decimal `db:"budget" json:"budget"`

	StartDate   *time.Time `db:"start_date" json:"startDate,omitempty"`
	EndDate     *time.Time `db:"end_date" json:"endDate,omitempty"`
	Description *string    `db:"description" json:"description,omitempty"`
}

// NewProject creates an active project in planned status.
func NewProject(name string) *Project {
	return &Project{
		BaseEntity: entity.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		Status:     StatusPlanned,
		Budget:     decimal.Zero,
	}
}

// Validate checks domain fields and the lifecycle invariant.
func (p *Project) Validate() error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if !p.Status.Valid() {
		return apperror.NewValidation("invalid project status").
			WithDetail("field", "status").
			WithDetail("value", string(p.Status))
	}
	if p.Budget.IsNegative() {
		return apperror.NewValidation("budget cannot be negative").WithDetail("field", "budget")
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return apperror.NewValidation("end date is before start date").WithDetail("field", "endDate")
	}
	if err := p.LifecycleFields.Validate(); err != nil {
		return apperror.NewValidation(err.Error())
	}
	return nil
}

// Clone returns a deep copy.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	out.LifecycleFields = p.LifecycleFields.Clone()
	if p.PortfolioID != nil {
		v := *p.PortfolioID
		out.PortfolioID = &v
	}
	if p.StartDate != nil {
		v := *p.StartDate
		out.StartDate = &v
	}
	if p.EndDate != nil {
		v := *p.EndDate
		out.EndDate = &v
	}
	if p.Description != nil {
		v := *p.Description
		out.Description = &v
	}
	return &out
}

// GetName returns the display name.
func (p *Project) GetName() string {
	return p.Name
}
