package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"portfolio/internal/core/id"
	"portfolio/internal/domain/projects"
)

// CreateProjectRequest is the body of POST /projects.
type CreateProjectRequest struct {
	Name        string           `json:"name" binding:"required,max=255"`
	PortfolioID *string          `json:"portfolioId"`
	Status      projects.Status  `json:"status"`
	Budget      *decimal.Decimal `json:"budget"`
	StartDate   *time.Time       `json:"startDate"`
	EndDate     *time.Time       `json:"endDate"`
	Description *string          `json:"description"`
}

// ToEntity converts the request into a new project.
func (r CreateProjectRequest) ToEntity() (*projects.Project, error) {
	p := projects.NewProject(r.Name)
	if r.PortfolioID != nil && *r.PortfolioID != "" {
		pid, err := id.Parse(*r.PortfolioID)
		if err != nil {
			return nil, err
		}
		p.PortfolioID = &pid
	}
	if r.Status != "" {
		p.Status = r.Status
	}
	if r.Budget != nil {
		p.Budget = *r.Budget
	}
	p.StartDate = r.StartDate
	p.EndDate = r.EndDate
	p.Description = r.Description
	return p, nil
}

// ProjectResponse is the API view of a project.
type ProjectResponse struct {
	LifecycleResponse
	Name        string          `json:"name"`
	PortfolioID *string         `json:"portfolioId,omitempty"`
	Status      string          `json:"status"`
	Budget      decimal.Decimal `json:"budget"`
	StartDate   *time.Time      `json:"startDate,omitempty"`
	EndDate     *time.Time      `json:"endDate,omitempty"`
	Description *string         `json:"description,omitempty"`
}

// FromProject converts a project.
func FromProject(p *projects.Project) ProjectResponse {
	resp := ProjectResponse{
		LifecycleResponse: FromBase(p.BaseEntity),
		Name:              p.Name,
		Status:            string(p.Status),
		Budget:            p.Budget,
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		Description:       p.Description,
	}
	if p.PortfolioID != nil {
		s := p.PortfolioID.String()
		resp.PortfolioID = &s
	}
	return resp
}
