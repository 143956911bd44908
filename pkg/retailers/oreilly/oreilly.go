package oreilly

import (
	"net/url"

	"github.com/garagebot/partscout/pkg/retailers"
)

func init() {
	retailers.Register(retailers.Portal{
		RetailerSlug: "oreilly",
		RetailerName: "O'Reilly Auto Parts",
		BrandColor:   "#00843D",
		Shipping:     "Free Same-Day Pickup",
		Affiliate:    false,
		BuildURL: func(q retailers.Query) string {
			return "https://www.oreillyauto.com/shop/b/" + url.QueryEscape(q.FullText())
		},
	})
}
