package retailers

import (
	"context"
	"errors"
	"strings"
)

// Kind represents how a retailer participates in a comparison.
type Kind string

const (
	// KindLive retailers expose a priced product feed we can read.
	KindLive Kind = "live"
	// KindPortal retailers only offer a search page; we link into it.
	KindPortal Kind = "portal"
)

// Retailer is the base interface all retailer sources must implement.
type Retailer interface {
	// Slug returns the unique identifier for the retailer (e.g., "autozone").
	Slug() string
	// Name returns the human-readable retailer name.
	Name() string
	// Kind returns whether the retailer has a live priced feed.
	Kind() Kind
	// Color returns the retailer's brand color for presentation.
	Color() string
	// SearchURL returns the retailer's own search page for the query.
	SearchURL(q Query) string
	// Fetch returns product offers for the query. A source outage must not
	// surface as an error to the fan-out: implementations degrade to a
	// single portal-link offer or to an empty slice instead.
	Fetch(ctx context.Context, q Query) ([]Offer, error)
}

// Common errors shared across retailer sources.
var (
	ErrRetailerNotFound = errors.New("retailer not found")
	ErrParseFailed      = errors.New("failed to parse offers")
)

// Query is the full search context sent to every retailer source. All fields
// participate in the cache identity: changing any one of them is a new,
// independent request.
type Query struct {
	Text        string `json:"query"`
	PartNumber  string `json:"partNumber,omitempty"`
	Year        string `json:"year,omitempty"`
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
	Category    string `json:"category,omitempty"`
	VehicleType string `json:"vehicleType,omitempty"`
	Zip         string `json:"zipCode,omitempty"`
}

// FullText returns the query text widened with vehicle context. A year is
// only meaningful together with make and model; make+model without a year is
// still useful on its own.
func (q Query) FullText() string {
	if q.Year != "" && q.Make != "" && q.Model != "" {
		return q.Year + " " + q.Make + " " + q.Model + " " + q.Text
	}
	if q.Make != "" && q.Model != "" {
		return q.Make + " " + q.Model + " " + q.Text
	}
	return q.Text
}

// Key returns the canonical cache identity for the query.
func (q Query) Key() string {
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(q.Text)),
		strings.ToLower(strings.TrimSpace(q.PartNumber)),
		q.Year,
		strings.ToLower(strings.TrimSpace(q.Make)),
		strings.ToLower(strings.TrimSpace(q.Model)),
		strings.ToLower(strings.TrimSpace(q.Category)),
		strings.ToLower(strings.TrimSpace(q.VehicleType)),
		q.Zip,
	}, "|")
}

// HasVehicle reports whether any vehicle context is present.
func (q Query) HasVehicle() bool {
	return q.Year != "" || q.Make != "" || q.Model != ""
}

// Offer is a single product entry returned by a retailer source. Price is nil
// (or non-positive) for "no confirmed price"; such offers stay displayable as
// plain links but never enter the priced ranking.
type Offer struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Price         *float64 `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	ProductURL    string   `json:"productUrl"`
	Retailer      string   `json:"retailer"`
	RetailerSlug  string   `json:"retailerSlug"`
	RetailerColor string   `json:"retailerColor"`
	InStock       bool     `json:"inStock"`
	Shipping      string   `json:"shipping,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	ReviewCount   *int     `json:"reviewCount,omitempty"`
	PartNumber    string   `json:"partNumber,omitempty"`
	IsAffiliate   bool     `json:"isAffiliate"`
	AffiliateURL  string   `json:"affiliateUrl"`
}

// Priced reports whether the offer carries a confirmed positive price.
func (o Offer) Priced() bool {
	return o.Price != nil && *o.Price > 0
}

// Destination returns the outbound URL for the offer: the affiliate deep link
// when present, otherwise the plain product URL.
func (o Offer) Destination() string {
	if o.AffiliateURL != "" {
		return o.AffiliateURL
	}
	return o.ProductURL
}
