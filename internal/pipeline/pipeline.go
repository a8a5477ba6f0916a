// Package pipeline wires the job record source, energy estimator, carbon
// intensity resolver, and emissions calculator into one run. It is the
// single configurable pipeline behind the CLI: the cache and web-query
// variants differ only in the resolver they are constructed with.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/greenhpc/jobcarbon/internal/config"
	"github.com/greenhpc/jobcarbon/internal/emissions"
	"github.com/greenhpc/jobcarbon/internal/energy"
	"github.com/greenhpc/jobcarbon/internal/intensity"
	"github.com/greenhpc/jobcarbon/internal/slurm"
)

// JobSource retrieves one job's accounting record.
type JobSource interface {
	Fetch(ctx context.Context, jobID string) (slurm.JobRecord, error)
}

// Pipeline runs the emissions estimation end to end for one job.
type Pipeline struct {
	cfg      config.Config
	source   JobSource
	resolver intensity.Resolver
	logger   zerolog.Logger
}

// New builds a Pipeline from its collaborators. The resolver decides where
// the carbon intensity comes from; everything else is fixed by cfg.
func New(cfg config.Config, source JobSource, resolver intensity.Resolver, logger zerolog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, source: source, resolver: resolver, logger: logger}
}

// Run produces the emissions report for jobID. The first failure aborts the
// run; no partial report is ever produced and no unresolved input is
// defaulted.
func (p *Pipeline) Run(ctx context.Context, jobID string) (emissions.Report, error) {
	logger := p.logger.With().Str("trace_id", uuid.NewString()).Str("job_id", jobID).Logger()

	rec, err := p.source.Fetch(ctx, jobID)
	if err != nil {
		return emissions.Report{}, fmt.Errorf("fetching accounting record: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return emissions.Report{}, err
	}

	est := energy.NewEstimator(p.cfg, logger).Estimate(rec)

	ci, err := p.resolver.Resolve(ctx, rec.Start)
	if err != nil {
		return emissions.Report{}, fmt.Errorf("resolving carbon intensity: %w", err)
	}

	rep := emissions.NewCalculator(p.cfg, logger).Calculate(rec, est, ci)
	return rep, nil
}
