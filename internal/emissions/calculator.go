// Package emissions combines a job's resource usage, derived energy, and
// grid carbon intensity into Scope 2 / Scope 3 emissions figures.
package emissions

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/greenhpc/jobcarbon/internal/config"
	"github.com/greenhpc/jobcarbon/internal/energy"
	"github.com/greenhpc/jobcarbon/internal/slurm"
)

// Report is the final aggregate for one job. All emissions figures are
// kgCO2e; the carbon intensity is gCO2e/kWh.
//
// Two totals are carried deliberately. Under a 100%-renewable electricity
// contract the reported Scope 2 is zero and TotalKgCO2e covers Scope 3 only,
// while GridScope2KgCO2e/GridTotalKgCO2e hold the what-if figures computed
// against the actual grid intensity. Percentage shares are taken against the
// grid-equivalent total, which is the informative split even when the
// contractual Scope 2 is zero-rated.
type Report struct {
	// Job metadata, copied from the accounting record.
	JobID          string
	Account        string
	Start          time.Time
	Nodes          int
	ElapsedSeconds int

	// NodeHours is nodes x elapsed / 3600.
	NodeHours float64

	// Energy is the derived energy breakdown and its provenance.
	Energy energy.Estimate

	// CarbonIntensity is the grid intensity used, in gCO2e/kWh.
	CarbonIntensity float64

	// Scope2KgCO2e and TotalKgCO2e are the contractual figures.
	Scope2KgCO2e float64
	Scope3KgCO2e float64
	TotalKgCO2e  float64

	// GridScope2KgCO2e and GridTotalKgCO2e are the grid-equivalent figures,
	// always computed from the resolved intensity.
	GridScope2KgCO2e float64
	GridTotalKgCO2e  float64

	// Scope2Percent and Scope3Percent are shares of the grid-equivalent
	// total; both zero when that total is zero.
	Scope2Percent float64
	Scope3Percent float64

	// RenewableContract records whether the contractual Scope 2 was
	// zero-rated.
	RenewableContract bool
}

// Calculator combines the pipeline's inputs into a Report.
type Calculator struct {
	cfg    config.Config
	logger zerolog.Logger
}

// NewCalculator returns a Calculator using the given configuration.
func NewCalculator(cfg config.Config, logger zerolog.Logger) *Calculator {
	return &Calculator{cfg: cfg, logger: logger}
}

// Calculate produces the emissions report for rec. Every input must already
// be fully resolved; the calculator never substitutes defaults for missing
// values.
func (c *Calculator) Calculate(rec slurm.JobRecord, est energy.Estimate, intensityGPerKWh float64) Report {
	nodeHours := rec.NodeHours()

	gridScope2 := est.TotalKWh * intensityGPerKWh / 1000.0
	scope3 := nodeHours * c.cfg.Scope3PerNodeHour / 1000.0
	gridTotal := gridScope2 + scope3

	scope2 := gridScope2
	total := gridTotal
	if c.cfg.RenewableContract {
		scope2 = 0
		total = scope3
	}

	var scope2Pct, scope3Pct float64
	if gridTotal > 0 {
		scope2Pct = gridScope2 / gridTotal * 100.0
		scope3Pct = scope3 / gridTotal * 100.0
	}

	rep := Report{
		JobID:             rec.JobID,
		Account:           rec.Account,
		Start:             rec.Start,
		Nodes:             rec.Nodes,
		ElapsedSeconds:    rec.ElapsedSeconds,
		NodeHours:         nodeHours,
		Energy:            est,
		CarbonIntensity:   intensityGPerKWh,
		Scope2KgCO2e:      scope2,
		Scope3KgCO2e:      scope3,
		TotalKgCO2e:       total,
		GridScope2KgCO2e:  gridScope2,
		GridTotalKgCO2e:   gridTotal,
		Scope2Percent:     scope2Pct,
		Scope3Percent:     scope3Pct,
		RenewableContract: c.cfg.RenewableContract,
	}

	c.logger.Info().
		Str("job_id", rep.JobID).
		Float64("node_hours", rep.NodeHours).
		Float64("scope2_kg", rep.Scope2KgCO2e).
		Float64("scope3_kg", rep.Scope3KgCO2e).
		Float64("total_kg", rep.TotalKgCO2e).
		Float64("grid_total_kg", rep.GridTotalKgCO2e).
		Msg("emissions calculated")

	return rep
}
