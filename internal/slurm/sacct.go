// Package slurm retrieves the accounting record of a single batch job from
// the scheduler's sacct utility and parses it into a JobRecord.
package slurm

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Sentinel errors for accounting lookups. Both are fatal to a run.
var (
	// ErrJobNotFound means the accounting source has no entry for the job.
	ErrJobNotFound = errors.New("job not found in accounting records")

	// ErrMalformedRecord means the accounting source returned a record whose
	// fields cannot be parsed into the expected types.
	ErrMalformedRecord = errors.New("malformed accounting record")

	// ErrInvalidJob means the record parsed cleanly but describes a job the
	// pipeline cannot process (zero nodes or zero runtime).
	ErrInvalidJob = errors.New("job record not usable for emissions estimation")
)

// startLayout is the sacct timestamp format (local time, no zone).
const startLayout = "2006-01-02T15:04:05"

// sacctFields is the --format list requested from sacct, pipe-separated
// with -P and no header with -n.
const sacctFields = "JobID,Start,NNodes,ElapsedRaw,Account,ConsumedEnergyRaw"

// JobRecord is an immutable snapshot of one job's accounting facts.
type JobRecord struct {
	// JobID is the scheduler's job identifier.
	JobID string

	// Start is the job start time at second precision.
	Start time.Time

	// Nodes is the allocated node count.
	Nodes int

	// ElapsedSeconds is the wallclock runtime in seconds.
	ElapsedSeconds int

	// Account is the budget/account the job ran under.
	Account string

	// EnergyJoules is the cumulative energy counter in joules. Zero when the
	// plugin is absent or the counter could not be read; never an error.
	EnergyJoules float64
}

// NodeHours returns the job's resource consumption in node-hours.
func (r JobRecord) NodeHours() float64 {
	return float64(r.Nodes) * float64(r.ElapsedSeconds) / 3600.0
}

// Validate rejects records that would make per-node-hour or mean-power
// calculations undefined. It must pass before the record reaches the
// energy estimator.
func (r JobRecord) Validate() error {
	if r.Nodes < 1 {
		return fmt.Errorf("%w: node count %d", ErrInvalidJob, r.Nodes)
	}
	if r.ElapsedSeconds <= 0 {
		return fmt.Errorf("%w: elapsed runtime %ds", ErrInvalidJob, r.ElapsedSeconds)
	}
	return nil
}

// runner executes the accounting query and returns its stdout. Injected so
// tests can substitute canned sacct output.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client queries sacct for job records.
type Client struct {
	sacctPath string
	run       runner
	logger    zerolog.Logger
}

// NewClient returns a Client that invokes the sacct binary at sacctPath.
func NewClient(sacctPath string, logger zerolog.Logger) *Client {
	return &Client{
		sacctPath: sacctPath,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
		logger: logger,
	}
}

// Fetch returns the JobRecord for jobID.
//
// It returns ErrJobNotFound when sacct has no main record for the job and
// ErrMalformedRecord when a record is present but unparseable.
func (c *Client) Fetch(ctx context.Context, jobID string) (JobRecord, error) {
	args := []string{"-j", jobID, "-n", "-P", "--format=" + sacctFields}

	out, err := c.run(ctx, c.sacctPath, args...)
	if err != nil {
		return JobRecord{}, fmt.Errorf("querying %s: %w", c.sacctPath, err)
	}

	line, ok := mainRecordLine(string(out))
	if !ok {
		return JobRecord{}, fmt.Errorf("%w: job %s", ErrJobNotFound, jobID)
	}

	rec, err := parseRecord(line)
	if err != nil {
		return JobRecord{}, err
	}

	c.logger.Debug().
		Str("job_id", rec.JobID).
		Time("start", rec.Start).
		Int("nodes", rec.Nodes).
		Int("elapsed_s", rec.ElapsedSeconds).
		Float64("energy_j", rec.EnergyJoules).
		Msg("accounting record fetched")

	return rec, nil
}

// mainRecordLine picks the job's main record out of the sacct output,
// skipping step records (JobID values like "12345.batch" or "12345.0").
func mainRecordLine(out string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id, _, _ := strings.Cut(line, "|")
		if !strings.Contains(id, ".") {
			return line, true
		}
	}
	return "", false
}

// parseRecord parses one pipe-separated sacct line into a JobRecord.
func parseRecord(line string) (JobRecord, error) {
	fields := strings.Split(line, "|")
	if len(fields) < 6 {
		return JobRecord{}, fmt.Errorf("%w: expected 6 fields, got %d", ErrMalformedRecord, len(fields))
	}

	start, err := time.ParseInLocation(startLayout, fields[1], time.Local)
	if err != nil {
		return JobRecord{}, fmt.Errorf("%w: start time %q", ErrMalformedRecord, fields[1])
	}

	nodes, err := strconv.Atoi(fields[2])
	if err != nil {
		return JobRecord{}, fmt.Errorf("%w: node count %q", ErrMalformedRecord, fields[2])
	}

	elapsed, err := strconv.Atoi(fields[3])
	if err != nil {
		return JobRecord{}, fmt.Errorf("%w: elapsed seconds %q", ErrMalformedRecord, fields[3])
	}

	// Energy is optional: not every partition runs the energy accounting
	// plugin, so an absent or non-numeric counter normalizes to zero.
	energy, err := strconv.ParseFloat(fields[5], 64)
	if err != nil || energy < 0 {
		energy = 0
	}

	return JobRecord{
		JobID:          fields[0],
		Start:          start,
		Nodes:          nodes,
		ElapsedSeconds: elapsed,
		Account:        fields[4],
		EnergyJoules:   energy,
	}, nil
}
