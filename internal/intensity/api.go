package intensity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// apiResponse mirrors the regional endpoint's JSON shape. The intensity for
// the requested window is data.data[0].intensity.forecast.
type apiResponse struct {
	Data struct {
		Data []struct {
			Intensity struct {
				Forecast float64 `json:"forecast"`
			} `json:"intensity"`
		} `json:"data"`
	} `json:"data"`
}

// APIResolver queries the carbon-intensity web service for the half-hour
// window starting at the job's start time. The start time is used as-is;
// only the cache backend rounds.
type APIResolver struct {
	baseURL  string
	postcode string
	client   *http.Client
	logger   zerolog.Logger
}

// NewAPIResolver returns an APIResolver for the service at baseURL, scoped
// to the grid region of the given outward postcode.
func NewAPIResolver(baseURL, postcode string, logger zerolog.Logger) *APIResolver {
	return &APIResolver{
		baseURL:  baseURL,
		postcode: postcode,
		client:   http.DefaultClient,
		logger:   logger,
	}
}

// Resolve fetches the forecast intensity for the window [start, start+30m).
// Any transport, status, or response-shape failure is ErrRemoteService.
func (r *APIResolver) Resolve(ctx context.Context, start time.Time) (float64, error) {
	from := start.UTC().Format(timestampLayout)
	to := start.UTC().Add(30 * time.Minute).Format(timestampLayout)
	url := fmt.Sprintf("%s/regional/intensity/%s/%s/postcode/%s", r.baseURL, from, to, r.postcode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRemoteService, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRemoteService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("%w: unexpected status %s from %s", ErrRemoteService, resp.Status, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: reading response: %v", ErrRemoteService, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("%w: decoding response: %v", ErrRemoteService, err)
	}
	if len(parsed.Data.Data) == 0 {
		return 0, fmt.Errorf("%w: no intensity records in response for %s", ErrRemoteService, from)
	}

	forecast := parsed.Data.Data[0].Intensity.Forecast
	r.logger.Debug().
		Str("window_from", from).
		Str("window_to", to).
		Str("postcode", r.postcode).
		Float64("intensity_g_per_kwh", forecast).
		Msg("carbon intensity resolved from web service")

	return forecast, nil
}
