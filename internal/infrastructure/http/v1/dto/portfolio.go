package dto

import "portfolio/internal/domain/portfolios"

// CreatePortfolioRequest is the body of POST /portfolios. The owner defaults
// to the acting user.
type CreatePortfolioRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description"`
	OwnerID     string  `json:"ownerId"`
}

// ToEntity converts the request into a new portfolio.
func (r CreatePortfolioRequest) ToEntity(actorID string) *portfolios.Portfolio {
	owner := r.OwnerID
	if owner == "" {
		owner = actorID
	}
	p := portfolios.NewPortfolio(r.Name, owner)
	p.Description = r.Description
	return p
}

// PortfolioResponse is the API view of a portfolio.
type PortfolioResponse struct {
	LifecycleResponse
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	OwnerID     string  `json:"ownerId"`
}

// FromPortfolio converts a portfolio.
func FromPortfolio(p *portfolios.Portfolio) PortfolioResponse {
	return PortfolioResponse{
		LifecycleResponse: FromBase(p.BaseEntity),
		Name:              p.Name,
		Description:       p.Description,
		OwnerID:           p.OwnerID,
	}
}
