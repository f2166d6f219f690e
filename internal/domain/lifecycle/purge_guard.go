package lifecycle

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/cel-go/cel"

	"portfolio/internal/core/entity"
)

// RequireSoftDeleted is the default purge expression.
const RequireSoftDeleted = "is_deleted"

// PurgeGuard is a compiled CEL expression deciding whether a record may be
// permanently deleted. Available variables:
//
//	is_deleted      bool
//	expired         bool       restoration window has passed
//	deleted_by      string     "" when active
//	now             timestamp
//	eligible_until  timestamp  zero time when active
//
// Examples: "is_deleted", "is_deleted && expired", "true".
type PurgeGuard struct {
	expr string
	prg  cel.Program
}

// NewPurgeGuard compiles expr. The expression must evaluate to bool.
func NewPurgeGuard(expr string) (*PurgeGuard, error) {
	if expr == "" {
		expr = RequireSoftDeleted
	}

	env, err := cel.NewEnv(
		cel.Variable("is_deleted", cel.BoolType),
		cel.Variable("expired", cel.BoolType),
		cel.Variable("deleted_by", cel.StringType),
		cel.Variable("now", cel.TimestampType),
		cel.Variable("eligible_until", cel.TimestampType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile purge guard %q: %w", expr, iss.Err())
	}
	if !reflect.DeepEqual(ast.OutputType(), cel.BoolType) {
		return nil, fmt.Errorf("purge guard %q must return bool, got %v", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build purge guard program: %w", err)
	}

	return &PurgeGuard{expr: expr, prg: prg}, nil
}

// MustPurgeGuard is NewPurgeGuard that panics. Tests and constants only.
func MustPurgeGuard(expr string) *PurgeGuard {
	g, err := NewPurgeGuard(expr)
	if err != nil {
		panic(err)
	}
	return g
}

// Expression returns the source expression.
func (g *PurgeGuard) Expression() string {
	return g.expr
}

// Allow evaluates the guard for a record's lifecycle fields at now.
func (g *PurgeGuard) Allow(fields entity.LifecycleFields, now time.Time) (bool, error) {
	deletedBy := ""
	if fields.DeletedBy != nil {
		deletedBy = *fields.DeletedBy
	}
	var until time.Time
	if fields.RestorationEligibleUntil != nil {
		until = fields.RestorationEligibleUntil.UTC()
	}

	out, _, err := g.prg.Eval(map[string]any{
		"is_deleted":     fields.IsDeleted,
		"expired":        fields.IsDeleted && fields.WindowExpired(now),
		"deleted_by":     deletedBy,
		"now":            now.UTC(),
		"eligible_until": until,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate purge guard %q: %w", g.expr, err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("purge guard %q returned %T", g.expr, out.Value())
	}
	return allowed, nil
}
