package intensity

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CacheResolver reads half-hourly intensity records from local daily CSV
// files laid out as <root>/<YYYY>/<MM>/<YYYYMMDD>_ci.csv. Each line carries
// the window timestamp in the first field and the intensity in the second.
type CacheResolver struct {
	root   string
	logger zerolog.Logger
}

// NewCacheResolver returns a CacheResolver rooted at dir.
func NewCacheResolver(dir string, logger zerolog.Logger) *CacheResolver {
	return &CacheResolver{root: dir, logger: logger}
}

// cachePath returns the daily cache file holding records for the given date.
func (r *CacheResolver) cachePath(t time.Time) string {
	return filepath.Join(r.root, t.Format("2006"), t.Format("01"), t.Format("20060102")+"_ci.csv")
}

// Resolve looks up the record whose timestamp matches start rounded to the
// nearest half hour. A missing file or an unmatched window is ErrCacheMiss;
// this backend never falls through to the web service.
func (r *CacheResolver) Resolve(_ context.Context, start time.Time) (float64, error) {
	path := r.cachePath(start)
	rounded := RoundHalfHour(start)
	want := rounded.Format(timestampLayout)

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: opening %s: %v", ErrCacheMiss, path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 2 || fields[0] != want {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: record %q in %s has non-numeric intensity", ErrCacheMiss, line, path)
		}

		r.logger.Debug().
			Str("cache_file", path).
			Str("window", want).
			Float64("intensity_g_per_kwh", value).
			Msg("carbon intensity resolved from cache")

		return value, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("%w: reading %s: %v", ErrCacheMiss, path, err)
	}

	return 0, fmt.Errorf("%w: no record for %s in %s", ErrCacheMiss, want, path)
}
