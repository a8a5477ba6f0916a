// Package energy derives a job's energy consumption from its accounting
// record, falling back to a power-draw model when the scheduler's energy
// counter cannot be trusted.
package energy

import (
	"github.com/rs/zerolog"

	"github.com/greenhpc/jobcarbon/internal/config"
	"github.com/greenhpc/jobcarbon/internal/slurm"
)

// joulesPerKWh converts joules to kilowatt-hours.
const joulesPerKWh = 3_600_000.0

// Provenance marks whether an energy figure came from the scheduler's
// counter or from the estimation model.
type Provenance int

const (
	// Estimated means the counter was absent or implausible and the figure
	// is node-hours times the configured mean node power.
	Estimated Provenance = iota

	// Measured means the scheduler's energy counter was trusted.
	Measured
)

func (p Provenance) String() string {
	if p == Measured {
		return "measured"
	}
	return "estimated"
}

// Estimate is a job's derived energy consumption.
type Estimate struct {
	// ComputeKWh is the energy drawn by the compute nodes.
	ComputeKWh float64

	// OtherKWh is the apportioned energy of non-compute hardware.
	OtherKWh float64

	// OverheadKWh is the facility overhead on top of compute and other.
	OverheadKWh float64

	// TotalKWh is the sum of the three components above.
	TotalKWh float64

	// Provenance marks how ComputeKWh was obtained. The add-on components
	// are always modelled fractions regardless of provenance.
	Provenance Provenance
}

// Estimator applies the measured-vs-estimated decision and the fractional
// add-ons for non-compute hardware and facility overhead.
type Estimator struct {
	cfg    config.Config
	logger zerolog.Logger
}

// NewEstimator returns an Estimator using the given configuration.
func NewEstimator(cfg config.Config, logger zerolog.Logger) *Estimator {
	return &Estimator{cfg: cfg, logger: logger}
}

// Estimate derives the energy consumption of rec.
//
// The energy counter is trusted only when the mean power it implies exceeds
// the minimum plausible draw for an active node; a near-zero counter usually
// means the instrumentation was absent, not that the job drew no power. The
// cost of that heuristic is that a genuinely tiny measured value is treated
// as implausible and re-estimated.
//
// rec must have passed Validate: nodes >= 1 and elapsed > 0.
func (e *Estimator) Estimate(rec slurm.JobRecord) Estimate {
	impliedWatts := rec.EnergyJoules / (float64(rec.Nodes) * float64(rec.ElapsedSeconds))

	var computeKWh float64
	provenance := Estimated
	if impliedWatts > e.cfg.MinNodePowerWatts {
		computeKWh = rec.EnergyJoules / joulesPerKWh
		provenance = Measured
	} else {
		computeKWh = rec.NodeHours() * e.cfg.MeanNodePowerKW
	}

	otherKWh := computeKWh * e.cfg.OtherHardwareFraction
	overheadKWh := (computeKWh + otherKWh) * e.cfg.OverheadFraction

	est := Estimate{
		ComputeKWh:  computeKWh,
		OtherKWh:    otherKWh,
		OverheadKWh: overheadKWh,
		TotalKWh:    computeKWh + otherKWh + overheadKWh,
		Provenance:  provenance,
	}

	e.logger.Debug().
		Str("job_id", rec.JobID).
		Float64("implied_watts", impliedWatts).
		Float64("compute_kwh", est.ComputeKWh).
		Float64("total_kwh", est.TotalKWh).
		Str("provenance", est.Provenance.String()).
		Msg("energy derived")

	return est
}
