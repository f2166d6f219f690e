package record_repo

import (
	"portfolio/internal/domain/portfolios"
	"portfolio/internal/domain/projects"
	"portfolio/internal/infrastructure/storage/postgres"
)

// NewProjectRepo creates the repository of the projects table.
func NewProjectRepo(txm *postgres.TxManager) *Repo[*projects.Project] {
	return New(txm, Config[*projects.Project]{
		EntityType: projects.EntityType,
		TableName:  "projects",
		SelectCols: postgres.ExtractDBColumns[projects.Project](),
		SearchCol:  "name",
		NewFn:      func() *projects.Project { return &projects.Project{} },
	})
}

// NewPortfolioRepo creates the repository of the portfolios table.
func NewPortfolioRepo(txm *postgres.TxManager) *Repo[*portfolios.Portfolio] {
	return New(txm, Config[*portfolios.Portfolio]{
		EntityType: portfolios.EntityType,
		TableName:  "portfolios",
		SelectCols: postgres.ExtractDBColumns[portfolios.Portfolio](),
		SearchCol:  "name",
		NewFn:      func() *portfolios.Portfolio { return &portfolios.Portfolio{} },
	})
}
