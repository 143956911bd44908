package engine

import (
	"testing"

	"github.com/garagebot/partscout/internal/vendors"
	"github.com/garagebot/partscout/pkg/retailers"
)

func fptr(v float64) *float64 { return &v }

func offer(id string, price *float64) retailers.Offer {
	return retailers.Offer{ID: id, Name: id, Price: price, Retailer: id, RetailerSlug: id, InStock: true}
}

func directory() []vendors.VendorRecord {
	return []vendors.VendorRecord{
		{
			ID: "partner", Name: "Partner", Slug: "partner",
			Categories: []string{vendors.CategoryAll}, AffiliateNetwork: "cj",
			Priority: 50, URLTemplate: "https://partner.example.com/s?q={query}",
		},
		{
			ID: "plain", Name: "Plain", Slug: "plain",
			Categories: []string{vendors.CategoryAll},
			Priority:   40, URLTemplate: "https://plain.example.com/s?q={query}",
		},
	}
}

func TestBuild_SortsPricedAscendingBeforeUnpriced(t *testing.T) {
	offers := []retailers.Offer{
		offer("link", nil),
		offer("mid", fptr(25)),
		offer("cheap", fptr(10)),
		offer("dear", fptr(90)),
	}
	view := Build(retailers.Query{Text: "brake pads"}, vendors.Filters{}, offers, directory(), 0)

	want := []string{"cheap", "mid", "dear", "link"}
	if len(view.Products) != len(want) {
		t.Fatalf("got %d products, want %d", len(view.Products), len(want))
	}
	for i, id := range want {
		if view.Products[i].ID != id {
			t.Errorf("position %d: want %s got %s", i, id, view.Products[i].ID)
		}
	}
}

func TestBuild_EqualPricesBreakByRatingThenInputOrder(t *testing.T) {
	lowRating := offer("low", fptr(20))
	lowRating.Rating = fptr(3.0)
	highRating := offer("high", fptr(20))
	highRating.Rating = fptr(4.8)
	noRatingA := offer("a", fptr(20))
	noRatingB := offer("b", fptr(20))

	view := Build(retailers.Query{Text: "x"}, vendors.Filters{},
		[]retailers.Offer{noRatingA, lowRating, highRating, noRatingB}, directory(), 0)

	want := []string{"high", "low", "a", "b"}
	for i, id := range want {
		if view.Products[i].ID != id {
			t.Fatalf("position %d: want %s got %s", i, id, view.Products[i].ID)
		}
	}
}

func TestBuild_PriceSummaryAndSavings(t *testing.T) {
	offers := []retailers.Offer{
		offer("a", fptr(12.50)),
		offer("b", fptr(40)),
		offer("c", nil),
	}
	view := Build(retailers.Query{Text: "x"}, vendors.Filters{}, offers, directory(), 0)

	if view.LowestPrice == nil || *view.LowestPrice != 12.50 {
		t.Errorf("lowest price wrong: %v", view.LowestPrice)
	}
	if view.HighestPrice == nil || *view.HighestPrice != 40 {
		t.Errorf("highest price wrong: %v", view.HighestPrice)
	}
	if view.PotentialSavings == nil || *view.PotentialSavings != 27.50 {
		t.Errorf("savings wrong: %v", view.PotentialSavings)
	}
}

func TestBuild_NoSavingsForSinglePrice(t *testing.T) {
	view := Build(retailers.Query{Text: "x"}, vendors.Filters{},
		[]retailers.Offer{offer("only", fptr(30))}, directory(), 0)
	if view.PotentialSavings != nil {
		t.Errorf("single priced offer must not expose savings, got %v", *view.PotentialSavings)
	}
}

func TestDiscountPercent(t *testing.T) {
	cases := []struct {
		price, orig float64
		want        int  // 0 means no badge
	}{
		{45, 60, 25},
		{40, 50, 20},
		{50, 40, 0},  // original below price: no badge
		{50, 50, 0},  // equal: no badge
		{29.99, 44.99, 33},
	}
	for _, c := range cases {
		o := offer("x", fptr(c.price))
		o.OriginalPrice = fptr(c.orig)
		got := discountPercent(o)
		if c.want == 0 {
			if got != nil {
				t.Errorf("price=%v orig=%v: expected no badge, got %d", c.price, c.orig, *got)
			}
			continue
		}
		if got == nil || *got != c.want {
			t.Errorf("price=%v orig=%v: want %d got %v", c.price, c.orig, c.want, got)
		}
	}
}

func TestBuild_NoVendorsMatchedState(t *testing.T) {
	view := Build(retailers.Query{Text: "x"},
		vendors.Filters{LocalPickupOnly: true},
		[]retailers.Offer{offer("a", fptr(10))}, directory(), 0)

	if view.State != StateNoVendorsMatched {
		t.Fatalf("want %s got %s", StateNoVendorsMatched, view.State)
	}
	if len(view.AffiliatePartners)+len(view.OtherVendors) != 0 {
		t.Errorf("no vendor links expected")
	}
	if len(view.Products) != 1 {
		t.Errorf("products must survive the vendor filter")
	}
}

func TestBuild_NoOffersKeepsLinks(t *testing.T) {
	view := Build(retailers.Query{Text: "x"}, vendors.Filters{}, nil, directory(), 0)
	if view.State != StateNoOffers {
		t.Fatalf("want %s got %s", StateNoOffers, view.State)
	}
	if len(view.AffiliatePartners) != 1 || len(view.OtherVendors) != 1 {
		t.Errorf("directory links must still render: partners=%d others=%d",
			len(view.AffiliatePartners), len(view.OtherVendors))
	}
}

func TestBuild_RetailerInOffersAndLinksNotDeduplicated(t *testing.T) {
	o := offer("partner-item", fptr(15))
	o.RetailerSlug = "partner"
	view := Build(retailers.Query{Text: "x"}, vendors.Filters{},
		[]retailers.Offer{o}, directory(), 0)

	if len(view.Products) != 1 {
		t.Fatalf("product missing")
	}
	found := false
	for _, l := range view.AffiliatePartners {
		if l.Slug == "partner" {
			found = true
		}
	}
	if !found {
		t.Errorf("vendor link for partner must stay even when its offer is present")
	}
}
