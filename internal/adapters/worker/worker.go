package worker

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/ucbtag/pkg/logger"
)

// Default pool configuration constants.
const (
	defaultMinPartition = 64
)

// Range is a half-open [Lo, Hi) slice of the item axis.
type Range struct {
	Lo int
	Hi int
}

// Len returns the number of items in the range.
func (r Range) Len() int { return r.Hi - r.Lo }

// Partition splits [0, n) into at most parts contiguous, non-empty ranges
// whose lengths differ by at most one. Earlier ranges take the extra item.
func Partition(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	size, extra := n/parts, n%parts
	out := make([]Range, parts)
	lo := 0
	for i := range out {
		hi := lo + size
		if i < extra {
			hi++
		}
		out[i] = Range{Lo: lo, Hi: hi}
		lo = hi
	}
	return out
}

// Task processes one partition. part is the position of r in the plan.
// Tasks of one run own disjoint ranges and must only write state that
// belongs to their range.
type Task func(ctx context.Context, part int, r Range) error

// Pool runs tasks over partitions with bounded parallelism.
type Pool struct {
	workers      int
	name         string
	minPartition int
	logger       logger.Logger
}

// NewPool creates a pool of workerCount goroutines. A count below one
// means one per CPU.
func NewPool(workerCount int, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers:      workerCount,
		name:         "worker-pool",
		minPartition: defaultMinPartition,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named(p.name)
	}
	return p
}

// Workers returns the parallelism bound.
func (p *Pool) Workers() int { return p.workers }

// Plan returns the partitions Run uses for n items.
func (p *Pool) Plan(n int) []Range {
	parts := (n + p.minPartition - 1) / p.minPartition
	if parts > p.workers {
		parts = p.workers
	}
	return Partition(n, parts)
}

// Run calls task once per partition of [0, n) and waits for all of them.
// The first failure cancels the context handed to the remaining tasks and
// is returned. A canceled ctx aborts partitions that have not started, and
// a run whose ctx is canceled before it returns reports ctx.Err() even when
// every started task succeeded.
func (p *Pool) Run(ctx context.Context, n int, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	plan := p.Plan(n)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, r := range plan {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := task(gctx, i, r); err != nil {
				return fmt.Errorf("%w: partition %d [%d, %d): %w", ErrTask, i, r.Lo, r.Hi, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.logger.Debug(ctx, "partition run aborted", logger.Int("partitions", len(plan)), logger.Error(err))
		return err
	}
	if err := ctx.Err(); err != nil {
		p.logger.Debug(ctx, "partition run canceled", logger.Int("partitions", len(plan)), logger.Error(err))
		return err
	}

	p.logger.Debug(ctx, "partition run finished",
		logger.Int("items", n),
		logger.Int("partitions", len(plan)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}
