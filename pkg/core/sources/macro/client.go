// Package macro implements the adapter and normalizer for the macroeconomic
// time-series service. Each category fetch resolves a fixed series list and
// keeps the latest non-missing observation per series.
package macro

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"aviation_intel/pkg/core/retry"
)

const requestTimeout = 30 * time.Second

// missingValueSentinel marks absent observations in the wire format.
const missingValueSentinel = "."

// Config holds the connection settings for the time-series service.
type Config struct {
	URL    string // observations endpoint
	APIKey string
}

// Client owns wire-level interaction with the time-series service.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
		now:        time.Now,
	}
}

// Configured reports whether the required credential is present.
func (c *Client) Configured() bool {
	return c.cfg.URL != "" && c.cfg.APIKey != ""
}

// Series identifies one tracked indicator.
type Series struct {
	ID   string
	Name string
}

// Category groups series behind one fetch operation with a shared window.
type Category struct {
	Name     string
	DaysBack int
	Series   []Series
}

// Categories is the fixed catalog the orchestrator fans out across.
var Categories = []Category{
	{
		Name: "inflation", DaysBack: 120,
		Series: []Series{
			{"CPIAUCSL", "Consumer Price Index (All Urban)"},
			{"PCEPI", "PCE Price Index"},
		},
	},
	{
		Name: "interest_rates", DaysBack: 90,
		Series: []Series{
			{"FEDFUNDS", "Federal Funds Effective Rate"},
			{"DGS10", "10-Year Treasury Yield"},
		},
	},
	{
		Name: "fuel_costs", DaysBack: 60,
		Series: []Series{
			{"DJFUELUSGULF", "Jet Fuel Spot Price (US Gulf Coast)"},
			{"DCOILWTICO", "Crude Oil WTI Spot Price"},
			{"GASREGW", "Regular Gasoline Price"},
		},
	},
	{
		Name: "gdp_growth", DaysBack: 400,
		Series: []Series{
			{"GDP", "Gross Domestic Product"},
			{"A191RL1Q225SBEA", "Real GDP Growth Rate"},
		},
	},
	{
		Name: "employment", DaysBack: 90,
		Series: []Series{
			{"UNRATE", "Unemployment Rate"},
			{"PAYEMS", "Total Nonfarm Payrolls"},
		},
	},
	{
		Name: "business_confidence", DaysBack: 120,
		Series: []Series{
			{"UMCSENT", "Consumer Sentiment Index"},
		},
	},
}

// Observation is one latest data point for a series.
type Observation struct {
	SeriesID   string
	SeriesName string
	Date       time.Time
	Value      float64
	Units      string
}

// wire shapes
type observationsResponse struct {
	Units        string `json:"units"`
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// FetchCategory fetches the latest observation for every series in the
// category, skipping series whose window holds no usable data points.
func (c *Client) FetchCategory(ctx context.Context, cat Category) ([]Observation, error) {
	if !c.Configured() {
		return nil, retry.Unconfigured("macro")
	}

	var out []Observation
	for _, series := range cat.Series {
		obs, err := retry.Do(ctx, retry.MacroPolicy, func(ctx context.Context) (*Observation, error) {
			return c.fetchSeries(ctx, series, cat.DaysBack)
		})
		if err != nil {
			if retry.KindOf(err) == retry.KindParse {
				fmt.Printf("[MACRO] skipping series %s: %v\n", series.ID, err)
				continue
			}
			return nil, err
		}
		if obs != nil {
			out = append(out, *obs)
		}
	}
	return out, nil
}

// fetchSeries issues one observations request and selects the last
// non-missing observation.
func (c *Client) fetchSeries(ctx context.Context, series Series, daysBack int) (*Observation, error) {
	start := c.now().AddDate(0, 0, -daysBack).Format("2006-01-02")

	params := url.Values{}
	params.Set("series_id", series.ID)
	params.Set("api_key", c.cfg.APIKey)
	params.Set("file_type", "json")
	params.Set("observation_start", start)
	params.Set("sort_order", "asc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("macro request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Transient(err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, retry.Transient(fmt.Errorf("macro service returned %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, retry.Transient(fmt.Errorf("macro service rate limited"))
	case resp.StatusCode != http.StatusOK:
		return nil, retry.Permanent(fmt.Errorf("macro service returned %d for %s", resp.StatusCode, series.ID))
	}

	var parsed observationsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, retry.ParseErr(fmt.Errorf("macro payload for %s: %w", series.ID, err))
	}

	// Walk backwards for the latest usable observation; "." is the missing
	// value sentinel.
	for i := len(parsed.Observations) - 1; i >= 0; i-- {
		o := parsed.Observations[i]
		if o.Value == missingValueSentinel || o.Value == "" {
			continue
		}
		var value float64
		if _, err := fmt.Sscanf(o.Value, "%f", &value); err != nil {
			continue
		}
		date, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			continue
		}
		return &Observation{
			SeriesID:   series.ID,
			SeriesName: series.Name,
			Date:       date,
			Value:      value,
			Units:      parsed.Units,
		}, nil
	}

	return nil, retry.ParseErr(fmt.Errorf("no usable observations for %s", series.ID))
}
