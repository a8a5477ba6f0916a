// Package intensity resolves the historical grid carbon intensity
// (gCO2e/kWh) applicable to a job's start time, from either a local daily
// CSV cache or the regional carbon-intensity web service. The two backends
// share one contract and are selected by configuration; neither falls back
// to the other.
package intensity

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for intensity resolution. Both are fatal: an unresolved
// intensity must never silently become zero.
var (
	// ErrRemoteService means the web query failed (transport, HTTP status,
	// or response shape). There is no retry and no fallback to the cache.
	ErrRemoteService = errors.New("carbon intensity service query failed")

	// ErrCacheMiss means no cached record matches the job's date and
	// half-hour window. There is no fallback to the web service; the cache
	// path exists specifically to avoid remote calls.
	ErrCacheMiss = errors.New("no cached carbon intensity record")
)

// timestampLayout is the half-hour window timestamp format used both by the
// web service's URL template and by the cache file records.
const timestampLayout = "2006-01-02T15:04Z"

// Resolver yields the grid carbon intensity in gCO2e/kWh for the half-hour
// window anchored at a job's start time.
type Resolver interface {
	Resolve(ctx context.Context, start time.Time) (float64, error)
}

// RoundHalfHour rounds t to a half-hour boundary, dropping seconds and
// smaller components. Minutes past the half hour round forward to the next
// hour; anything else rounds back to the preceding boundary, so :29 becomes
// :00 while :31 becomes the next :00. This matches the granularity of the
// cached intensity records.
func RoundHalfHour(t time.Time) time.Time {
	hour := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	switch m := t.Minute(); {
	case m > 30:
		return hour.Add(time.Hour)
	case m == 30:
		return hour.Add(30 * time.Minute)
	default:
		return hour
	}
}
