package rockauto

import (
	"net/url"

	"github.com/garagebot/partscout/pkg/retailers"
)

func init() {
	retailers.Register(retailers.Portal{
		RetailerSlug: "rockauto",
		RetailerName: "RockAuto",
		BrandColor:   "#336699",
		Shipping:     "Ships nationwide",
		Affiliate:    false,
		BuildURL: func(q retailers.Query) string {
			return "https://www.rockauto.com/en/catalog/?a=" + url.QueryEscape(q.FullText())
		},
	})
}
