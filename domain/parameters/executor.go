package parameters

import (
	"context"

	apperrors "piquant/internal/errors"
)

// Stage is one step applied to a parameter set. Returning an error halts the
// whole sweep; stages that want to report without halting should log and
// return nil.
type Stage func(ctx context.Context, s Set) error

// Execute runs every stage, in order, for each set in turn. The first error
// stops the sweep and is returned annotated with the set's name. Side
// effects of stages that already ran are left in place: re-running the
// sweep is the recovery path.
func (c *Catalog) Execute(ctx context.Context, sets []Set, stages ...Stage) error {
	for _, s := range sets {
		for _, stage := range stages {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := stage(ctx, s); err != nil {
				return apperrors.Wrapf(err, "parameter set %s", c.Name(s))
			}
		}
	}
	return nil
}

// ExecuteFor expands the candidates and executes the stages over every set
func (c *Catalog) ExecuteFor(ctx context.Context, cands Candidates, stages ...Stage) error {
	return c.Execute(ctx, c.Expand(cands), stages...)
}
