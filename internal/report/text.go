package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/greenhpc/jobcarbon/internal/config"
	"github.com/greenhpc/jobcarbon/internal/emissions"
)

// Comparison table selection for the text renderer.
const (
	CompareNone  = "none"
	CompareFood  = "food"
	CompareOther = "other"
)

// Comparisons is the set of illustrative comparison tables to print.
type Comparisons struct {
	Food  bool
	Other bool
}

// ParseComparisons parses a comma-combinable selection such as
// "food,other" or "none".
func ParseComparisons(s string) (Comparisons, error) {
	var c Comparisons
	if s == "" {
		return c, nil
	}
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(part) {
		case CompareNone, "":
		case CompareFood:
			c.Food = true
		case CompareOther:
			c.Other = true
		default:
			return Comparisons{}, fmt.Errorf("unknown comparison %q (want %s, %s or %s)",
				part, CompareFood, CompareOther, CompareNone)
		}
	}
	return c, nil
}

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.Bold)
)

// RenderText renders rep as a fixed-width human-readable report with the
// selected comparison tables appended.
func RenderText(rep emissions.Report, refs config.References, cmp Comparisons) string {
	var b strings.Builder

	headerColor.Fprintf(&b, "Emissions estimate for job %s\n", rep.JobID)
	fmt.Fprintf(&b, "%-24s %s\n", "Account:", rep.Account)
	fmt.Fprintf(&b, "%-24s %s\n", "Start time:", rep.Start.Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, "%-24s %d\n", "Nodes:", rep.Nodes)
	fmt.Fprintf(&b, "%-24s %d s\n", "Elapsed:", rep.ElapsedSeconds)
	fmt.Fprintf(&b, "%-24s %10.3f\n", "Node-hours:", rep.NodeHours)
	b.WriteString("\n")

	labelColor.Fprintln(&b, "Energy")
	fmt.Fprintf(&b, "%-24s %10.3f kWh (%s)\n", "  Compute nodes:", rep.Energy.ComputeKWh, rep.Energy.Provenance)
	fmt.Fprintf(&b, "%-24s %10.3f kWh\n", "  Other hardware:", rep.Energy.OtherKWh)
	fmt.Fprintf(&b, "%-24s %10.3f kWh\n", "  Facility overhead:", rep.Energy.OverheadKWh)
	fmt.Fprintf(&b, "%-24s %10.3f kWh\n", "  Total:", rep.Energy.TotalKWh)
	b.WriteString("\n")

	labelColor.Fprintln(&b, "Emissions")
	fmt.Fprintf(&b, "%-24s %10.3f gCO2e/kWh\n", "  Carbon intensity:", rep.CarbonIntensity)
	fmt.Fprintf(&b, "%-24s %10.3f kgCO2e\n", "  Scope 2:", rep.Scope2KgCO2e)
	fmt.Fprintf(&b, "%-24s %10.3f kgCO2e\n", "  Scope 3:", rep.Scope3KgCO2e)
	fmt.Fprintf(&b, "%-24s %10.3f kgCO2e\n", "  Total:", rep.TotalKgCO2e)

	if rep.RenewableContract {
		b.WriteString("\n")
		b.WriteString("Scope 2 is zero-rated under the 100% renewable electricity contract.\n")
		b.WriteString("Grid-equivalent figures, had the job drawn grid-average electricity:\n")
		fmt.Fprintf(&b, "%-24s %10.3f kgCO2e\n", "  Scope 2 (grid):", rep.GridScope2KgCO2e)
		fmt.Fprintf(&b, "%-24s %10.3f kgCO2e\n", "  Total (grid):", rep.GridTotalKgCO2e)
	}

	if rep.GridTotalKgCO2e > 0 {
		fmt.Fprintf(&b, "%-24s %9.1f%% / %.1f%%\n", "  Scope 2/3 split:", rep.Scope2Percent, rep.Scope3Percent)
	}

	// Comparisons use the grid-equivalent total so that a zero-rated
	// contract still yields meaningful equivalences.
	if cmp.Food {
		b.WriteString("\n")
		labelColor.Fprintln(&b, "Equivalent food production (grid-equivalent total)")
		for _, food := range refs.Foods {
			grams := rep.GridTotalKgCO2e * 1000.0 / food.GramsPer100g * 100.0
			fmt.Fprintf(&b, "  %-22s %10.3f g\n", food.Name+":", grams)
		}
	}

	if cmp.Other {
		b.WriteString("\n")
		labelColor.Fprintln(&b, "Other equivalences (grid-equivalent total)")
		fmt.Fprintf(&b, "  %-22s %10.3f days\n", "household electricity:", safeRatio(rep.GridTotalKgCO2e, refs.HouseholdDailyKg))
		fmt.Fprintf(&b, "  %-22s %10.3f flights\n", "transatlantic flight:", safeRatio(rep.GridTotalKgCO2e, refs.FlightKg))
		fmt.Fprintf(&b, "  %-22s %10.3f miles\n", "driving:", safeRatio(rep.GridTotalKgCO2e, refs.DrivingPerMileKg))
	}

	return b.String()
}

// safeRatio avoids printing Inf/NaN when a reference constant is zero.
func safeRatio(total, ref float64) float64 {
	if ref == 0 {
		return 0
	}
	return total / ref
}
