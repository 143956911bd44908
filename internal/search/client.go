// Package search talks to the PartsTech catalog API for supplementary part
// and fitment data. Everything here is advisory: callers treat an empty
// result the same as a miss and never surface these failures to shoppers.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config controls the catalog client.
type Config struct {
	APIKey  string
	BaseURL string
}

// FromEnv reads PARTSTECH_API_KEY and PARTSTECH_BASE_URL. An empty key
// leaves the client unconfigured, which short-circuits every call.
func FromEnv() Config {
	cfg := Config{
		APIKey:  os.Getenv("PARTSTECH_API_KEY"),
		BaseURL: "https://api.partstech.com/v1",
	}
	if v := os.Getenv("PARTSTECH_BASE_URL"); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	return cfg
}

// Vehicle identifies the shopper's vehicle for fitment-aware searches.
type Vehicle struct {
	Year   int    `json:"year"`
	Make   string `json:"make"`
	Model  string `json:"model"`
	Engine string `json:"engine,omitempty"`
	VIN    string `json:"vin,omitempty"`
}

// Availability buckets supplier stock levels.
type Availability string

const (
	InStock    Availability = "in_stock"
	Limited    Availability = "limited"
	OutOfStock Availability = "out_of_stock"
)

// Part is one catalog search hit.
type Part struct {
	PartNumber       string       `json:"partNumber"`
	Brand            string       `json:"brand"`
	Description      string       `json:"description"`
	Price            float64      `json:"price"`
	Availability     Availability `json:"availability"`
	DeliveryEstimate string       `json:"deliveryEstimate"`
	SupplierName     string       `json:"supplierName"`
	SupplierID       string       `json:"supplierId"`
	ImageURL         string       `json:"imageUrl,omitempty"`
}

// Client is safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.cfg.APIKey != "" }

func (c *Client) request(ctx context.Context, method, endpoint string, body any, out any) error {
	if !c.Configured() {
		return fmt.Errorf("catalog client not configured, set PARTSTECH_API_KEY")
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("catalog api %s: status %d", endpoint, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type wirePart struct {
	PartNumber       string  `json:"part_number"`
	Brand            string  `json:"brand"`
	Description      string  `json:"description"`
	Price            float64 `json:"price"`
	Availability     string  `json:"availability"`
	DeliveryEstimate string  `json:"delivery_estimate"`
	SupplierName     string  `json:"supplier_name"`
	SupplierID       string  `json:"supplier_id"`
	ImageURL         string  `json:"image_url"`
}

func (w wirePart) toPart() Part {
	est := w.DeliveryEstimate
	if est == "" {
		est = "Same day"
	}
	return Part{
		PartNumber:       w.PartNumber,
		Brand:            w.Brand,
		Description:      w.Description,
		Price:            w.Price,
		Availability:     mapAvailability(w.Availability),
		DeliveryEstimate: est,
		SupplierName:     w.SupplierName,
		SupplierID:       w.SupplierID,
		ImageURL:         w.ImageURL,
	}
}

// SearchParts runs a catalog search. Unconfigured or failing calls return an
// empty slice and no error.
func (c *Client) SearchParts(ctx context.Context, query string, vehicle *Vehicle) []Part {
	if !c.Configured() {
		return nil
	}

	params := map[string]any{"query": query}
	if vehicle != nil {
		params["year"] = vehicle.Year
		params["make"] = vehicle.Make
		params["model"] = vehicle.Model
		if vehicle.Engine != "" {
			params["engine"] = vehicle.Engine
		}
		if vehicle.VIN != "" {
			params["vin"] = vehicle.VIN
		}
	}

	var result struct {
		Parts []wirePart `json:"parts"`
	}
	if err := c.request(ctx, http.MethodPost, "/parts/search", params, &result); err != nil {
		log.Printf("search: catalog search failed: %v", err)
		return nil
	}

	out := make([]Part, 0, len(result.Parts))
	for _, p := range result.Parts {
		out = append(out, p.toPart())
	}
	return out
}

// GetPartDetails looks up one part at one supplier. Returns nil on any
// failure or when the part is unknown.
func (c *Client) GetPartDetails(ctx context.Context, partNumber, supplierID string) *Part {
	if !c.Configured() {
		return nil
	}

	var result struct {
		Part *wirePart `json:"part"`
	}
	endpoint := fmt.Sprintf("/parts/%s?supplier=%s", url.PathEscape(partNumber), url.QueryEscape(supplierID))
	if err := c.request(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		log.Printf("search: part details failed: %v", err)
		return nil
	}
	if result.Part == nil {
		return nil
	}
	p := result.Part.toPart()
	return &p
}

// DecodeVIN resolves a VIN to a vehicle, or nil when it cannot.
func (c *Client) DecodeVIN(ctx context.Context, vin string) *Vehicle {
	if !c.Configured() {
		return nil
	}

	var result struct {
		Vehicle *struct {
			Year   int    `json:"year"`
			Make   string `json:"make"`
			Model  string `json:"model"`
			Engine string `json:"engine"`
		} `json:"vehicle"`
	}
	if err := c.request(ctx, http.MethodGet, "/vehicles/vin/"+url.PathEscape(vin), nil, &result); err != nil {
		log.Printf("search: vin decode failed: %v", err)
		return nil
	}
	if result.Vehicle == nil {
		return nil
	}
	return &Vehicle{
		Year:   result.Vehicle.Year,
		Make:   result.Vehicle.Make,
		Model:  result.Vehicle.Model,
		Engine: result.Vehicle.Engine,
		VIN:    vin,
	}
}

func mapAvailability(status string) Availability {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "in stock"), strings.Contains(s, "available"):
		return InStock
	case strings.Contains(s, "limited"), strings.Contains(s, "low"):
		return Limited
	default:
		return OutOfStock
	}
}
