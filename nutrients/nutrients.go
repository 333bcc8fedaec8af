// Package nutrients looks up crop nutrient profiles in USDA FoodData Central.
// Lookups are best effort: every failure is reported as "no data".
package nutrients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"nutrisyn"
)

// DefaultDataTypes limits search results to whole foods rather than branded products.
var DefaultDataTypes = []string{"Foundation", "SR Legacy"}

// Profile is the nutrient content of the best matching food.
type Profile struct {
	Food      string             `json:"food"`
	FDCID     int                `json:"fdc_id"`
	Nutrients map[string]float64 `json:"nutrients"`
	Units     map[string]string  `json:"units,omitempty"`
}

// Lookup resolves a crop name to a nutrient profile.
type Lookup interface {
	Lookup(ctx context.Context, crop string) (Profile, bool)
}

type Client struct {
	endpoint   string
	apiKey     string
	dataTypes  []string
	httpClient nutrisyn.HTTPClient
}

type ClientOpts struct {
	Endpoint   string
	APIKey     string
	DataTypes  []string
	HTTPClient nutrisyn.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("missing USDA endpoint")
	}
	if _, err := url.Parse(opts.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid USDA endpoint: %w", err)
	}
	if len(opts.DataTypes) == 0 {
		opts.DataTypes = DefaultDataTypes
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Client{
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
		dataTypes:  opts.DataTypes,
		httpClient: opts.HTTPClient,
	}, nil
}

type wireNutrient struct {
	NutrientName string  `json:"nutrientName"`
	Value        float64 `json:"value"`
	UnitName     string  `json:"unitName"`
}

type wireFood struct {
	FDCID         int            `json:"fdcId"`
	Description   string         `json:"description"`
	FoodNutrients []wireNutrient `json:"foodNutrients"`
}

type wireSearchResponse struct {
	Foods []wireFood `json:"foods"`
}

// Lookup searches for crop and returns the first food's nutrients. It returns
// false on network errors, non-200 responses, malformed bodies and empty results.
func (c *Client) Lookup(ctx context.Context, crop string) (Profile, bool) {
	q := url.Values{}
	q.Set("query", crop)
	q.Set("pageSize", "1")
	for _, dt := range c.dataTypes {
		q.Add("dataType", dt)
	}
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		slog.Warn("USDA: Failed to build request", "crop", crop, "error", err)
		return Profile{}, false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("USDA: Request failed", "crop", crop, "error", err)
		return Profile{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Warn("USDA: Non-200 response", "crop", crop, "status", resp.StatusCode, "body", string(body))
		return Profile{}, false
	}

	var wr wireSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		slog.Warn("USDA: Decode failed", "crop", crop, "error", err)
		return Profile{}, false
	}

	if len(wr.Foods) == 0 || len(wr.Foods[0].FoodNutrients) == 0 {
		slog.Info("USDA: No data", "crop", crop)
		return Profile{}, false
	}

	food := wr.Foods[0]
	p := Profile{
		Food:      food.Description,
		FDCID:     food.FDCID,
		Nutrients: make(map[string]float64, len(food.FoodNutrients)),
		Units:     make(map[string]string, len(food.FoodNutrients)),
	}
	for _, n := range food.FoodNutrients {
		if n.NutrientName == "" {
			continue
		}
		// Energy is reported in both kcal and kJ; keep the first.
		if _, seen := p.Nutrients[n.NutrientName]; seen {
			continue
		}
		p.Nutrients[n.NutrientName] = n.Value
		p.Units[n.NutrientName] = n.UnitName
	}

	slog.Info("USDA: Profile found", "crop", crop, "food", p.Food, "nutrients", len(p.Nutrients))
	return p, true
}
