package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

// Status classifies a driving-distance lookup. Network and API failures are
// routine here, so they surface as a status rather than an error.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNotFound    Status = "not_found"
	StatusZeroResults Status = "zero_results"
	StatusError       Status = "error"
)

const (
	metersPerMile    = 1609.34
	defaultMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"
)

// DrivingResult is one driving-distance lookup. Miles and Minutes are zero
// unless Status is StatusOK.
type DrivingResult struct {
	Miles   float64 `json:"miles"`
	Minutes float64 `json:"minutes"`
	Status  Status  `json:"status"`
}

// Client calls a Distance-Matrix-style HTTP service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds a matrix client. baseURL may be empty to use the Google
// endpoint; timeout bounds each request.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultMatrixURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// matrixResponse mirrors the wire shape: rows[0].elements[0] carries the
// result for a single origin/destination pair.
type matrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value float64 `json:"value"` // meters
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"` // seconds
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// DrivingDistance looks up real driving distance and duration between two
// addresses. It never returns an error: any failure yields a zeroed result
// with the appropriate status.
func (c *Client) DrivingDistance(ctx context.Context, origin, destination string) DrivingResult {
	query := url.Values{}
	query.Set("origins", origin)
	query.Set("destinations", destination)
	query.Set("units", "imperial")
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return DrivingResult{Status: StatusError}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return DrivingResult{Status: StatusError}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return DrivingResult{Status: StatusError}
	}

	var parsed matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return DrivingResult{Status: StatusError}
	}

	if parsed.Status != "OK" || len(parsed.Rows) == 0 || len(parsed.Rows[0].Elements) == 0 {
		return DrivingResult{Status: StatusError}
	}

	element := parsed.Rows[0].Elements[0]
	switch element.Status {
	case "OK":
		return DrivingResult{
			Miles:   round2(element.Distance.Value / metersPerMile),
			Minutes: round2(element.Duration.Value / 60),
			Status:  StatusOK,
		}
	case "NOT_FOUND":
		return DrivingResult{Status: StatusNotFound}
	case "ZERO_RESULTS":
		return DrivingResult{Status: StatusZeroResults}
	default:
		return DrivingResult{Status: StatusError}
	}
}
