package napa

import (
	"net/url"

	"github.com/garagebot/partscout/pkg/retailers"
)

func init() {
	retailers.Register(retailers.Portal{
		RetailerSlug: "napa",
		RetailerName: "NAPA Auto Parts",
		BrandColor:   "#003DA5",
		Shipping:     "Free Same-Day Pickup",
		Affiliate:    false,
		BuildURL: func(q retailers.Query) string {
			return "https://www.napaonline.com/en/search?q=" + url.QueryEscape(q.FullText())
		},
	})
}
