package advance

import (
	"net/url"

	"github.com/garagebot/partscout/pkg/retailers"
)

func init() {
	retailers.Register(retailers.Portal{
		RetailerSlug: "advance",
		RetailerName: "Advance Auto Parts",
		BrandColor:   "#CC0000",
		Shipping:     "Free Same-Day Pickup",
		Affiliate:    true,
		BuildURL: func(q retailers.Query) string {
			return "https://shop.advanceautoparts.com/web/SearchResults?searchTerm=" + url.QueryEscape(q.FullText())
		},
	})
}
