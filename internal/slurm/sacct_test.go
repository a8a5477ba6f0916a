package slurm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(output string, runErr error) *Client {
	c := NewClient("sacct", zerolog.Nop())
	c.run = func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return []byte(output), runErr
	}
	return c
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    JobRecord
		wantErr error
	}{
		{
			name:   "main record with energy counter",
			output: "5000123|2024-03-04T09:12:45|4|7200|z19-budget|51840000\n",
			want: JobRecord{
				JobID:          "5000123",
				Start:          time.Date(2024, 3, 4, 9, 12, 45, 0, time.Local),
				Nodes:          4,
				ElapsedSeconds: 7200,
				Account:        "z19-budget",
				EnergyJoules:   51_840_000,
			},
		},
		{
			name: "step records are skipped",
			output: "5000123.batch|2024-03-04T09:12:45|4|7200|z19-budget|100\n" +
				"5000123.0|2024-03-04T09:12:45|4|7200|z19-budget|200\n" +
				"5000123|2024-03-04T09:12:45|4|7200|z19-budget|300\n",
			want: JobRecord{
				JobID:          "5000123",
				Start:          time.Date(2024, 3, 4, 9, 12, 45, 0, time.Local),
				Nodes:          4,
				ElapsedSeconds: 7200,
				Account:        "z19-budget",
				EnergyJoules:   300,
			},
		},
		{
			name:   "missing energy field normalizes to zero",
			output: "5000123|2024-03-04T09:12:45|4|7200|z19-budget|\n",
			want: JobRecord{
				JobID:          "5000123",
				Start:          time.Date(2024, 3, 4, 9, 12, 45, 0, time.Local),
				Nodes:          4,
				ElapsedSeconds: 7200,
				Account:        "z19-budget",
			},
		},
		{
			name:   "non-numeric energy normalizes to zero",
			output: "5000123|2024-03-04T09:12:45|4|7200|z19-budget|n/a\n",
			want: JobRecord{
				JobID:          "5000123",
				Start:          time.Date(2024, 3, 4, 9, 12, 45, 0, time.Local),
				Nodes:          4,
				ElapsedSeconds: 7200,
				Account:        "z19-budget",
			},
		},
		{
			name:    "empty output means the job is unknown",
			output:  "\n",
			wantErr: ErrJobNotFound,
		},
		{
			name:    "only step records means the job is unknown",
			output:  "5000123.batch|2024-03-04T09:12:45|4|7200|z19-budget|100\n",
			wantErr: ErrJobNotFound,
		},
		{
			name:    "non-numeric node count is malformed",
			output:  "5000123|2024-03-04T09:12:45|four|7200|z19-budget|0\n",
			wantErr: ErrMalformedRecord,
		},
		{
			name:    "unparseable start time is malformed",
			output:  "5000123|04/03/2024 09:12|4|7200|z19-budget|0\n",
			wantErr: ErrMalformedRecord,
		},
		{
			name:    "truncated record is malformed",
			output:  "5000123|2024-03-04T09:12:45|4\n",
			wantErr: ErrMalformedRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := newTestClient(tt.output, nil).Fetch(context.Background(), "5000123")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec)
		})
	}
}

func TestFetchCommandFailure(t *testing.T) {
	_, err := newTestClient("", errors.New("exec: sacct not found")).Fetch(context.Background(), "1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrJobNotFound)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     JobRecord
		wantErr bool
	}{
		{name: "usable job", rec: JobRecord{Nodes: 1, ElapsedSeconds: 1}},
		{name: "zero nodes rejected", rec: JobRecord{Nodes: 0, ElapsedSeconds: 60}, wantErr: true},
		{name: "zero runtime rejected", rec: JobRecord{Nodes: 2, ElapsedSeconds: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidJob)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNodeHours(t *testing.T) {
	rec := JobRecord{Nodes: 4, ElapsedSeconds: 3600}
	assert.InDelta(t, 4.0, rec.NodeHours(), 1e-12)

	rec = JobRecord{Nodes: 2, ElapsedSeconds: 1800}
	assert.InDelta(t, 1.0, rec.NodeHours(), 1e-12)
}
