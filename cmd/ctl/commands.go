package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"portfolio/internal/app"
	appctx "portfolio/internal/core/context"
	"portfolio/internal/core/id"
	"portfolio/internal/domain/auth"
	"portfolio/internal/domain/lifecycle"
	"portfolio/internal/domain/portfolios"
	"portfolio/internal/domain/projects"
)

const entityArgs = "<project|portfolio>"

// targetCmd runs fn against the target named by args[0] and, when withID is
// set, the id in args[1].
func targetCmd(withID bool, fn func(ctx context.Context, out io.Writer, t app.Target, entityID id.ID) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var entityID id.ID
		if withID {
			parsed, err := id.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[1], err)
			}
			entityID = parsed
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			t, err := a.Target(args[0])
			if err != nil {
				return err
			}
			return fn(ctx, cmd.OutOrStdout(), t, entityID)
		})
	}
}

func listCmd() *cobra.Command {
	var f lifecycle.ListFilter
	cmd := &cobra.Command{
		Use:   "list " + entityArgs,
		Short: "List records (active only by default)",
		Args:  cobra.ExactArgs(1),
		RunE: targetCmd(false, func(ctx context.Context, out io.Writer, t app.Target, _ id.ID) error {
			items, err := t.List(ctx, f)
			if err != nil {
				return err
			}
			return printRecords(out, items)
		}),
	}
	cmd.Flags().BoolVar(&f.IncludeDeleted, "include-deleted", false, "include soft-deleted records")
	cmd.Flags().BoolVar(&f.OnlyDeleted, "only-deleted", false, "show the trash only")
	cmd.Flags().StringVar(&f.Search, "search", "", "name filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max rows")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "rows to skip")
	return cmd
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get " + entityArgs + " <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: targetCmd(true, func(ctx context.Context, out io.Writer, t app.Target, entityID id.ID) error {
			rec, err := t.Get(ctx, entityID)
			if err != nil {
				return err
			}
			return printRecords(out, []app.Record{rec})
		}),
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete " + entityArgs + " <id>",
		Short: "Move a record to the trash",
		Args:  cobra.ExactArgs(2),
		RunE: targetCmd(true, func(ctx context.Context, out io.Writer, t app.Target, entityID id.ID) error {
			rec, err := t.SoftDelete(ctx, entityID, viper.GetString("actor-id"))
			if err != nil {
				return err
			}
			return printRecords(out, []app.Record{rec})
		}),
	}
}

func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore " + entityArgs + " <id>",
		Short: "Restore a record from the trash",
		Args:  cobra.ExactArgs(2),
		RunE: targetCmd(true, func(ctx context.Context, out io.Writer, t app.Target, entityID id.ID) error {
			rec, err := t.Restore(ctx, entityID, viper.GetString("actor-id"))
			if err != nil {
				return err
			}
			return printRecords(out, []app.Record{rec})
		}),
	}
}

func purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge " + entityArgs + " <id>",
		Short: "Permanently delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: targetCmd(true, func(ctx context.Context, out io.Writer, t app.Target, entityID id.ID) error {
			return t.PermanentDelete(ctx, entityID, viper.GetString("actor-id"))
		}),
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history " + entityArgs + " <id>",
		Short: "Show the audit trail of a record, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: targetCmd(true, func(ctx context.Context, out io.Writer, t app.Target, entityID id.ID) error {
			entries, err := t.History(ctx, entityID)
			if err != nil {
				return err
			}
			return printHistory(out, entries)
		}),
	}
}

func purgeExpiredCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-expired",
		Short: "Permanently delete every record past its restoration window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				var errs []error
				counts := make(map[string]int)
				for _, p := range a.Purgers() {
					n, err := p.PurgeExpired(ctx)
					counts[p.EntityType()] = n
					if err != nil {
						errs = append(errs, err)
					}
				}
				if err := printCounts(cmd.OutOrStdout(), counts); err != nil {
					return err
				}
				return errors.Join(errs...)
			})
		},
	}
}

func createCmd() *cobra.Command {
	var (
		name, description, portfolioID, owner, status, budget string
	)
	cmd := &cobra.Command{
		Use:   "create " + entityArgs,
		Short: "Create a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				actor := viper.GetString("actor-id")
				var desc *string
				if description != "" {
					desc = &description
				}

				t, err := a.Target(args[0])
				if err != nil {
					return err
				}

				switch t.EntityType {
				case projects.EntityType:
					p := projects.NewProject(name)
					p.Description = desc
					if status != "" {
						p.Status = projects.Status(status)
					}
					if budget != "" {
						b, err := decimal.NewFromString(budget)
						if err != nil {
							return fmt.Errorf("invalid budget %q: %w", budget, err)
						}
						p.Budget = b
					}
					if portfolioID != "" {
						pid, err := id.Parse(portfolioID)
						if err != nil {
							return fmt.Errorf("invalid portfolio id %q: %w", portfolioID, err)
						}
						p.PortfolioID = &pid
					}
					created, err := a.Projects.Create(ctx, p, actor)
					if err != nil {
						return err
					}
					return printRecords(cmd.OutOrStdout(), []app.Record{app.RecordOf(created)})
				default:
					if owner == "" {
						owner = actor
					}
					p := portfolios.NewPortfolio(name, owner)
					p.Description = desc
					created, err := a.Portfolios.Create(ctx, p, actor)
					if err != nil {
						return err
					}
					return printRecords(cmd.OutOrStdout(), []app.Record{app.RecordOf(created)})
				}
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name (required)")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&portfolioID, "portfolio", "", "project: portfolio id")
	cmd.Flags().StringVar(&status, "status", "", "project: status")
	cmd.Flags().StringVar(&budget, "budget", "", "project: budget")
	cmd.Flags().StringVar(&owner, "owner", "", "portfolio: owner id (default: actor)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		user        string
		permissions []string
		admin       bool
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}
			svc := auth.NewJWTService(auth.JWTConfig{
				Secret:         cfg.Auth.JWTSecret,
				Issuer:         cfg.Auth.Issuer,
				AccessTokenTTL: cfg.Auth.TokenTTL,
			})
			token, expiresAt, err := svc.GenerateAccessToken(appctx.UserContext{
				UserID:      user,
				Permissions: permissions,
				IsAdmin:     admin,
			})
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), map[string]any{"token": token, "expiresAt": expiresAt})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&user, "user", "operator", "user id")
	cmd.Flags().StringSliceVar(&permissions, "perm", nil, "permission, e.g. project:delete (repeatable)")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant all permissions")
	return cmd
}
