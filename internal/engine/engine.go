// Package engine merges retailer offers with the vendor directory into the
// single ranked view the comparison page renders.
package engine

import (
	"math"
	"sort"
	"time"

	"github.com/garagebot/partscout/internal/vendors"
	"github.com/garagebot/partscout/pkg/retailers"
)

// ViewState labels the overall shape of a built view.
type ViewState string

const (
	// StateOK means at least one offer and one vendor survived.
	StateOK ViewState = "ok"
	// StateNoVendorsMatched means the shopper's filters excluded every
	// directory vendor. Offers may still be present.
	StateNoVendorsMatched ViewState = "no_vendors_matched"
	// StateNoOffers means no source produced an offer; directory links are
	// still shown so the shopper can keep searching.
	StateNoOffers ViewState = "no_offers"
)

// Product is an offer plus its computed discount badge.
type Product struct {
	retailers.Offer
	DiscountPercent *int `json:"discountPercent,omitempty"`
}

// VendorLink is one directory vendor rendered for the current query.
type VendorLink struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	SearchURL      string `json:"searchUrl"`
	Color          string `json:"color"`
	IsAffiliate    bool   `json:"isAffiliate"`
	HasLocalPickup bool   `json:"hasLocalPickup"`
	Priority       int    `json:"priority"`
}

// View is the immutable merged result for one query. A retailer appearing in
// both Products and the vendor links is intentional: the two rows earn click
// credit separately.
type View struct {
	Query             string       `json:"query"`
	Vehicle           string       `json:"vehicle,omitempty"`
	State             ViewState    `json:"state"`
	Products          []Product    `json:"products"`
	LowestPrice       *float64     `json:"lowestPrice,omitempty"`
	HighestPrice      *float64     `json:"highestPrice,omitempty"`
	PotentialSavings  *float64     `json:"potentialSavings,omitempty"`
	AffiliatePartners []VendorLink `json:"affiliatePartners"`
	OtherVendors      []VendorLink `json:"otherVendors"`
	HiddenOtherCount  int          `json:"hiddenOtherCount"`
	GeneratedAt       time.Time    `json:"generatedAt"`
}

// Build computes a View from offers and the directory. Pure: no IO, no
// clock reads beyond the timestamp, deterministic for identical input.
func Build(q retailers.Query, filters vendors.Filters, offers []retailers.Offer, directory []vendors.VendorRecord, visibleCap int) View {
	vctx := vendors.Context{
		Query:       q.FullText(),
		Year:        q.Year,
		Make:        q.Make,
		Model:       q.Model,
		Zip:         q.Zip,
		VehicleType: q.VehicleType,
		Filters:     filters,
	}

	view := View{
		Query:       q.FullText(),
		Vehicle:     vehicleLabel(q),
		State:       StateOK,
		GeneratedAt: time.Now().UTC(),
	}

	rankable := vendors.Rankable(directory, vctx)
	ranked := vendors.Rank(rankable)
	split := vendors.Partition(ranked, visibleCap)
	view.AffiliatePartners = renderLinks(split.AffiliatePartners, vctx)
	view.OtherVendors = renderLinks(split.VisibleOthers, vctx)
	view.HiddenOtherCount = split.HiddenOtherCount

	view.Products = buildProducts(offers)

	priced := pricedOf(view.Products)
	if len(priced) > 0 {
		low := *priced[0].Price
		high := *priced[len(priced)-1].Price
		view.LowestPrice = &low
		view.HighestPrice = &high
		if high > low {
			savings := high - low
			view.PotentialSavings = &savings
		}
	}

	switch {
	case len(rankable) == 0:
		view.State = StateNoVendorsMatched
	case len(offers) == 0:
		view.State = StateNoOffers
	}
	return view
}

// buildProducts sorts priced offers ascending ahead of unpriced ones and
// attaches discount badges. The sort is stable; equal prices are broken by
// descending rating, then input order.
func buildProducts(offers []retailers.Offer) []Product {
	out := make([]Product, 0, len(offers))
	for _, o := range offers {
		out = append(out, Product{Offer: o, DiscountPercent: discountPercent(o)})
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func less(a, b Product) bool {
	ap, bp := a.Price, b.Price
	if ap == nil || bp == nil {
		return ap != nil && bp == nil
	}
	if *ap != *bp {
		return *ap < *bp
	}
	ar, br := ratingOf(a), ratingOf(b)
	return ar > br
}

func ratingOf(p Product) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

func pricedOf(products []Product) []Product {
	var out []Product
	for _, p := range products {
		if p.Priced() {
			out = append(out, p)
		}
	}
	return out
}

// discountPercent is floor((orig-price)/orig*100), shown only when the
// original price genuinely exceeds the sale price.
func discountPercent(o retailers.Offer) *int {
	if o.Price == nil || o.OriginalPrice == nil {
		return nil
	}
	orig, price := *o.OriginalPrice, *o.Price
	if orig <= price || orig <= 0 {
		return nil
	}
	pct := int(math.Floor((orig - price) / orig * 100))
	if pct <= 0 {
		return nil
	}
	return &pct
}

func renderLinks(list []vendors.VendorRecord, vctx vendors.Context) []VendorLink {
	out := make([]VendorLink, 0, len(list))
	for _, v := range list {
		u, err := vendors.RenderSearchURL(v, vctx)
		if err != nil {
			// Templates are validated at load; a failure here means the
			// record was swapped at runtime. Skip it.
			continue
		}
		out = append(out, VendorLink{
			ID:             v.ID,
			Name:           v.Name,
			Slug:           v.Slug,
			SearchURL:      u,
			Color:          v.LogoColor,
			IsAffiliate:    vendors.IsAffiliate(v),
			HasLocalPickup: v.HasLocalPickup,
			Priority:       v.Priority,
		})
	}
	return out
}

func vehicleLabel(q retailers.Query) string {
	label := ""
	for _, p := range []string{q.Year, q.Make, q.Model} {
		if p == "" {
			continue
		}
		if label != "" {
			label += " "
		}
		label += p
	}
	return label
}
