package compare

import (
	"time"

	"github.com/garagebot/partscout/pkg/retailers"
)

// RetailerLink is a "keep shopping" pointer to a vendor's own search page,
// rendered from the vendor directory for the current query.
type RetailerLink struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	SearchURL   string `json:"searchUrl"`
	Color       string `json:"color"`
	IsAffiliate bool   `json:"isAffiliate"`
}

// Result is one completed comparison: every offer gathered from the retailer
// sources plus the directory links, stamped with the fetch time.
type Result struct {
	Query         string            `json:"query"`
	Vehicle       string            `json:"vehicle,omitempty"`
	Products      []retailers.Offer `json:"products"`
	RetailerLinks []RetailerLink    `json:"retailerLinks"`
	Timestamp     time.Time         `json:"timestamp"`
}
