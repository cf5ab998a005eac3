package solver

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"tourlab/internal/model"
	"tourlab/internal/tour"
)

// Limited caps how often the wrapped solver may start a subprocess.
// Callers wait for a token until their context ends.
type Limited struct {
	next tour.ExactSolver
	lim  *rate.Limiter
}

var _ tour.ExactSolver = (*Limited)(nil)

func NewLimited(next tour.ExactSolver, rps float64, burst int) *Limited {
	return &Limited{next: next, lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *Limited) Solve(ctx context.Context, nodes model.NodeSet, scale float64) (tour.Tour, error) {
	if err := l.lim.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return l.next.Solve(ctx, nodes, scale)
}
