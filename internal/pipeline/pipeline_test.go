package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenhpc/jobcarbon/internal/config"
	"github.com/greenhpc/jobcarbon/internal/energy"
	"github.com/greenhpc/jobcarbon/internal/intensity"
	"github.com/greenhpc/jobcarbon/internal/slurm"
)

type stubSource struct {
	rec slurm.JobRecord
	err error
}

func (s stubSource) Fetch(context.Context, string) (slurm.JobRecord, error) {
	return s.rec, s.err
}

type stubResolver struct {
	intensity float64
	err       error
}

func (s stubResolver) Resolve(context.Context, time.Time) (float64, error) {
	return s.intensity, s.err
}

func validRecord() slurm.JobRecord {
	return slurm.JobRecord{
		JobID:          "5000123",
		Start:          time.Date(2024, 3, 4, 9, 12, 45, 0, time.UTC),
		Nodes:          4,
		ElapsedSeconds: 3600,
		Account:        "z19-budget",
	}
}

func TestRun(t *testing.T) {
	cfg := config.Default()
	cfg.RenewableContract = false

	p := New(cfg, stubSource{rec: validRecord()}, stubResolver{intensity: 200}, zerolog.Nop())

	rep, err := p.Run(context.Background(), "5000123")
	require.NoError(t, err)

	assert.Equal(t, "5000123", rep.JobID)
	assert.InDelta(t, 4.0, rep.NodeHours, 1e-12)
	assert.Equal(t, energy.Estimated, rep.Energy.Provenance)
	assert.InDelta(t, 4*cfg.MeanNodePowerKW, rep.Energy.ComputeKWh, 1e-9)
	assert.InDelta(t, 200.0, rep.CarbonIntensity, 1e-9)
	assert.InDelta(t, rep.Scope2KgCO2e+rep.Scope3KgCO2e, rep.TotalKgCO2e, 1e-9)
}

func TestRunSourceFailureAborts(t *testing.T) {
	p := New(config.Default(), stubSource{err: slurm.ErrJobNotFound}, stubResolver{intensity: 200}, zerolog.Nop())

	_, err := p.Run(context.Background(), "999")
	assert.ErrorIs(t, err, slurm.ErrJobNotFound)
}

func TestRunRejectsZeroRuntime(t *testing.T) {
	rec := validRecord()
	rec.ElapsedSeconds = 0

	p := New(config.Default(), stubSource{rec: rec}, stubResolver{intensity: 200}, zerolog.Nop())

	_, err := p.Run(context.Background(), "5000123")
	assert.ErrorIs(t, err, slurm.ErrInvalidJob)
}

func TestRunResolverFailureAborts(t *testing.T) {
	// An unresolved intensity must never silently become zero.
	p := New(config.Default(), stubSource{rec: validRecord()}, stubResolver{err: intensity.ErrCacheMiss}, zerolog.Nop())

	_, err := p.Run(context.Background(), "5000123")
	assert.ErrorIs(t, err, intensity.ErrCacheMiss)
}
