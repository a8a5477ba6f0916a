// Package config holds the immutable configuration for the emissions
// pipeline: power-draw assumptions, emission factors, intensity-source
// settings, and the reference constants used by comparison tables.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// IntensitySource selects the carbon-intensity backend.
type IntensitySource string

const (
	// SourceCache reads half-hourly intensity records from local daily CSV
	// files. No remote calls are made on this path.
	SourceCache IntensitySource = "cache"

	// SourceAPI queries the regional carbon-intensity web service directly.
	SourceAPI IntensitySource = "api"
)

// FoodReference is a reference food item for the comparison table,
// expressed as gCO2e per 100 g produced.
type FoodReference struct {
	Name         string  `yaml:"name"`
	GramsPer100g float64 `yaml:"grams_per_100g"`
}

// References holds the constants the text renderer compares a job's total
// emissions against. All values are kgCO2e unless noted.
type References struct {
	// Foods are compared as gCO2e per 100 g of food produced.
	Foods []FoodReference `yaml:"foods"`

	// HouseholdDailyKg is the average daily electricity emissions of a
	// household in kgCO2e.
	HouseholdDailyKg float64 `yaml:"household_daily_kg"`

	// FlightKg is a one-way transatlantic flight per passenger in kgCO2e.
	FlightKg float64 `yaml:"flight_kg"`

	// DrivingPerMileKg is the per-mile emissions of an average car in kgCO2e.
	DrivingPerMileKg float64 `yaml:"driving_per_mile_kg"`
}

// Config is the pipeline configuration. It is constructed once (defaults,
// optionally overlaid from a YAML file) and passed by value; nothing mutates
// it after construction.
type Config struct {
	// MinNodePowerWatts is the minimum mean power draw plausible for an
	// active compute node. An energy counter implying less than this is
	// treated as missing instrumentation rather than a measurement.
	MinNodePowerWatts float64 `yaml:"min_node_power_watts"`

	// MeanNodePowerKW is the representative mean power draw per node used
	// when the energy counter cannot be trusted.
	MeanNodePowerKW float64 `yaml:"mean_node_power_kw"`

	// OtherHardwareFraction is the energy of non-compute hardware
	// (interconnect, storage) as a fraction of compute energy.
	OtherHardwareFraction float64 `yaml:"other_hardware_fraction"`

	// OverheadFraction is the facility overhead (cooling, distribution)
	// applied on top of compute plus other-hardware energy.
	OverheadFraction float64 `yaml:"overhead_fraction"`

	// Scope3PerNodeHour is the embodied/operational Scope 3 emission factor
	// in gCO2e per node-hour.
	Scope3PerNodeHour float64 `yaml:"scope3_per_node_hour"`

	// RenewableContract zero-rates the reported Scope 2 figure under a
	// 100%-renewable electricity contract. The grid-equivalent figures are
	// still computed and reported for information.
	RenewableContract bool `yaml:"renewable_contract"`

	// Postcode is the outward postcode the intensity service resolves the
	// grid region from.
	Postcode string `yaml:"postcode"`

	// APIBaseURL is the base URL of the carbon-intensity web service.
	APIBaseURL string `yaml:"api_base_url"`

	// CacheDir is the root directory of the daily intensity CSV cache.
	CacheDir string `yaml:"cache_dir"`

	// Source selects the intensity backend (cache or api).
	Source IntensitySource `yaml:"source"`

	// SacctPath is the scheduler accounting binary queried for job records.
	SacctPath string `yaml:"sacct_path"`

	// References are the comparison-table constants.
	References References `yaml:"references"`
}

// Default returns the configuration used when no overrides are given.
// Power and emission factors are representative values for a large
// air/water-cooled HPC system; intensity defaults target the UK regional
// carbon-intensity service.
func Default() Config {
	return Config{
		MinNodePowerWatts:     100,
		MeanNodePowerKW:       0.41,
		OtherHardwareFraction: 0.10,
		OverheadFraction:      0.135,
		Scope3PerNodeHour:     23.0,
		RenewableContract:     true,
		Postcode:              "EH26",
		APIBaseURL:            "https://api.carbonintensity.org.uk",
		CacheDir:              "/var/cache/jobcarbon/ci",
		Source:                SourceCache,
		SacctPath:             "sacct",
		References: References{
			Foods: []FoodReference{
				{Name: "beef", GramsPer100g: 1571},
				{Name: "cheese", GramsPer100g: 394},
				{Name: "tofu", GramsPer100g: 98},
			},
			HouseholdDailyKg: 5.9,
			FlightKg:         480,
			DrivingPerMileKg: 0.35,
		},
	}
}

// Load returns Default overlaid with the YAML file at path. Fields absent
// from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.MeanNodePowerKW <= 0 {
		return fmt.Errorf("mean_node_power_kw must be positive, got %v", c.MeanNodePowerKW)
	}
	if c.MinNodePowerWatts < 0 {
		return fmt.Errorf("min_node_power_watts must not be negative, got %v", c.MinNodePowerWatts)
	}
	if c.OtherHardwareFraction < 0 || c.OverheadFraction < 0 {
		return fmt.Errorf("hardware and overhead fractions must not be negative")
	}
	if c.Scope3PerNodeHour < 0 {
		return fmt.Errorf("scope3_per_node_hour must not be negative, got %v", c.Scope3PerNodeHour)
	}
	switch c.Source {
	case SourceCache, SourceAPI:
	default:
		return fmt.Errorf("unknown intensity source %q (want %q or %q)", c.Source, SourceCache, SourceAPI)
	}
	return nil
}
