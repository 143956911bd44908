package retailers

import (
	"context"
	"fmt"
)

// Portal is a link-only retailer source: no priced feed exists, so a search
// always yields exactly one unpriced "search this retailer" offer pointing at
// the retailer's own results page.
type Portal struct {
	RetailerSlug string
	RetailerName string
	BrandColor   string
	Shipping     string
	Affiliate    bool
	// BuildURL renders the retailer's search page for the query.
	BuildURL func(q Query) string
}

func (p Portal) Slug() string  { return p.RetailerSlug }
func (p Portal) Name() string  { return p.RetailerName }
func (p Portal) Kind() Kind    { return KindPortal }
func (p Portal) Color() string { return p.BrandColor }

func (p Portal) SearchURL(q Query) string { return p.BuildURL(q) }

// Fetch never touches the network and never fails.
func (p Portal) Fetch(ctx context.Context, q Query) ([]Offer, error) {
	return []Offer{p.LinkOffer(q)}, nil
}

// FallbackOffer degrades any retailer to the single search link offer a
// portal would return. Used when a live feed fails both attempts.
func FallbackOffer(r Retailer, q Query) Offer {
	u := r.SearchURL(q)
	return Offer{
		ID:            r.Slug() + "-search",
		Name:          fmt.Sprintf("Search %s for %q", r.Name(), q.Text),
		ProductURL:    u,
		Retailer:      r.Name(),
		RetailerSlug:  r.Slug(),
		RetailerColor: r.Color(),
		InStock:       true,
		AffiliateURL:  u,
	}
}

// LinkOffer builds the single unpriced offer for the query. Live retailers
// reuse this shape when their feed is unavailable.
func (p Portal) LinkOffer(q Query) Offer {
	u := p.BuildURL(q)
	return Offer{
		ID:            p.RetailerSlug + "-search",
		Name:          fmt.Sprintf("Search %s for %q", p.RetailerName, q.Text),
		Price:         nil,
		ProductURL:    u,
		Retailer:      p.RetailerName,
		RetailerSlug:  p.RetailerSlug,
		RetailerColor: p.BrandColor,
		InStock:       true,
		Shipping:      p.Shipping,
		IsAffiliate:   p.Affiliate,
		AffiliateURL:  u,
	}
}
