// Package trade implements the adapter and normalizer for the structured
// trade-intervention catalog. Queries are grouped into families; each family
// POSTs one filter document and normalizes the response into a flat
// intervention list.
package trade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"aviation_intel/pkg/core/retry"
)

const requestTimeout = 30 * time.Second

// Config holds the connection settings for the trade catalog.
type Config struct {
	URL    string
	APIKey string
}

// Client owns wire-level interaction with the trade catalog.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Configured reports whether the required credential is present.
func (c *Client) Configured() bool {
	return c.cfg.URL != "" && c.cfg.APIKey != ""
}

// Intervention is the adapter-neutral raw payload for one catalog entry.
type Intervention struct {
	InterventionID   string   `json:"intervention_id"`
	Title            string   `json:"state_act_title"`
	Description      string   `json:"description"`
	InterventionType string   `json:"intervention_type"`
	Evaluation       string   `json:"gta_evaluation"`
	Implementing     []string `json:"implementing_jurisdictions"`
	Affected         []string `json:"affected_jurisdictions"`
	AffectedSectors  []string `json:"affected_sectors"`
	DateAnnounced    string   `json:"date_announced"`
	DateImplemented  string   `json:"date_implemented"`
	SourceURL        string   `json:"source"`
}

// Filter is the POSTed filter document.
type Filter struct {
	InterventionTypes []string `json:"intervention_types,omitempty"`
	Evaluations       []string `json:"gta_evaluation,omitempty"`
	AnnouncedSince    string   `json:"announced_since,omitempty"`
	SectorKeywords    []string `json:"affected_sectors,omitempty"`
	Limit             int      `json:"limit"`
}

const maxLimit = 1000

// QueryFamily names one configured filter preset.
type QueryFamily struct {
	Name     string
	DaysBack int
	Limit    int
	Build    func(since string, limit int) Filter
}

// Families lists the query presets the orchestrator fans out across.
var Families = []QueryFamily{
	{
		Name: "sanctions_export_controls", DaysBack: 90, Limit: 50,
		Build: func(since string, limit int) Filter {
			return Filter{
				InterventionTypes: []string{"Sanction", "Export ban", "Export licensing requirement"},
				AnnouncedSince:    since, Limit: limit,
			}
		},
	},
	{
		Name: "capital_controls", DaysBack: 90, Limit: 30,
		Build: func(since string, limit int) Filter {
			return Filter{
				InterventionTypes: []string{"Capital injection and equity stakes", "Financial assistance in foreign market"},
				AnnouncedSince:    since, Limit: limit,
			}
		},
	},
	{
		Name: "technology_restrictions", DaysBack: 120, Limit: 30,
		Build: func(since string, limit int) Filter {
			return Filter{
				InterventionTypes: []string{"Local content requirement", "Technology transfer requirement"},
				AnnouncedSince:    since, Limit: limit,
			}
		},
	},
	{
		Name: "aviation_sector", DaysBack: 180, Limit: 50,
		Build: func(since string, limit int) Filter {
			return Filter{
				SectorKeywords: []string{"air transport", "aircraft", "aerospace", "aviation"},
				AnnouncedSince: since, Limit: limit,
			}
		},
	},
	{
		Name: "recent_harmful", DaysBack: 30, Limit: 50,
		Build: func(since string, limit int) Filter {
			return Filter{
				Evaluations:    []string{"Red", "Harmful"},
				AnnouncedSince: since, Limit: limit,
			}
		},
	},
}

// FetchFamily runs one query family under the trade retry policy.
func (c *Client) FetchFamily(ctx context.Context, family QueryFamily) ([]Intervention, error) {
	if !c.Configured() {
		return nil, retry.Unconfigured("trade")
	}

	limit := family.Limit
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}
	since := time.Now().AddDate(0, 0, -family.DaysBack).Format("2006-01-02")
	filter := family.Build(since, limit)

	return retry.Do(ctx, retry.TradePolicy, func(ctx context.Context) ([]Intervention, error) {
		return c.post(ctx, filter)
	})
}

func (c *Client) post(ctx context.Context, filter Filter) ([]Intervention, error) {
	body, err := json.Marshal(filter)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to marshal filter: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "APIKey "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("trade request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Transient(err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, retry.Transient(fmt.Errorf("trade service returned %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, retry.Transient(fmt.Errorf("trade service rate limited"))
	case resp.StatusCode != http.StatusOK:
		return nil, retry.Permanent(fmt.Errorf("trade service returned %d: %s", resp.StatusCode, raw))
	}

	return decodeInterventions(raw)
}

// decodeInterventions accepts both response shapes (bare array and
// {data: [...]}) and falls back to json-repair for malformed payloads before
// giving up with a parse error.
func decodeInterventions(raw []byte) ([]Intervention, error) {
	if items, err := decodeEitherShape(raw); err == nil {
		return items, nil
	}

	repaired, err := jsonrepair.RepairJSON(string(raw))
	if err != nil {
		return nil, retry.ParseErr(fmt.Errorf("trade payload unparseable: %w", err))
	}
	items, err := decodeEitherShape([]byte(repaired))
	if err != nil {
		return nil, retry.ParseErr(fmt.Errorf("trade payload unparseable after repair: %w", err))
	}
	fmt.Println("[TRADE] recovered malformed catalog payload via repair")
	return items, nil
}

func decodeEitherShape(raw []byte) ([]Intervention, error) {
	var bare []Intervention
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}
	var wrapped struct {
		Data []Intervention `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}
	return nil, fmt.Errorf("unrecognized payload shape")
}
