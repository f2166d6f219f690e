package handlers

import (
	"github.com/gin-gonic/gin"

	"portfolio/internal/core/apperror"
	"portfolio/internal/domain/portfolios"
	"portfolio/internal/domain/projects"
	"portfolio/internal/infrastructure/http/v1/dto"
)

// DecodeProject binds CreateProjectRequest.
func DecodeProject(c *gin.Context, _ string) (*projects.Project, error) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperror.NewValidation("invalid request body").WithDetail("error", err.Error())
	}
	p, err := req.ToEntity()
	if err != nil {
		return nil, apperror.NewValidation("invalid portfolio id").WithDetail("field", "portfolioId")
	}
	return p, nil
}

// DecodePortfolio binds CreatePortfolioRequest.
func DecodePortfolio(c *gin.Context, actorID string) (*portfolios.Portfolio, error) {
	var req dto.CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperror.NewValidation("invalid request body").WithDetail("error", err.Error())
	}
	return req.ToEntity(actorID), nil
}
