package retailers

import (
	"context"
	"testing"
)

func TestQueryFullText(t *testing.T) {
	cases := []struct {
		name string
		q    Query
		want string
	}{
		{"bare text", Query{Text: "brake pads"}, "brake pads"},
		{"full vehicle", Query{Text: "brake pads", Year: "2019", Make: "Honda", Model: "Civic"}, "2019 Honda Civic brake pads"},
		{"make and model only", Query{Text: "brake pads", Make: "Honda", Model: "Civic"}, "Honda Civic brake pads"},
		{"year without make is ignored", Query{Text: "brake pads", Year: "2019"}, "brake pads"},
		{"year and make without model is ignored", Query{Text: "brake pads", Year: "2019", Make: "Honda"}, "brake pads"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.q.FullText(); got != tc.want {
				t.Fatalf("FullText() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestQueryKey(t *testing.T) {
	a := Query{Text: " Brake Pads ", Make: "HONDA", Model: "Civic"}
	b := Query{Text: "brake pads", Make: "honda", Model: "civic"}
	if a.Key() != b.Key() {
		t.Fatalf("case and whitespace must not change identity: %q vs %q", a.Key(), b.Key())
	}

	c := Query{Text: "brake pads", Make: "honda", Model: "civic", Zip: "90210"}
	if a.Key() == c.Key() {
		t.Fatalf("zip must change identity")
	}
}

func TestOfferPriced(t *testing.T) {
	v := 12.5
	zero := 0.0
	if !(Offer{Price: &v}).Priced() {
		t.Errorf("positive price must count as priced")
	}
	if (Offer{Price: &zero}).Priced() {
		t.Errorf("zero price must not count as priced")
	}
	if (Offer{}).Priced() {
		t.Errorf("nil price must not count as priced")
	}
}

func TestOfferDestination(t *testing.T) {
	o := Offer{ProductURL: "https://shop.example.com/p/1"}
	if got := o.Destination(); got != "https://shop.example.com/p/1" {
		t.Fatalf("Destination() = %q", got)
	}
	o.AffiliateURL = "https://aff.example.com/r?u=1"
	if got := o.Destination(); got != "https://aff.example.com/r?u=1" {
		t.Fatalf("affiliate link must win: %q", got)
	}
}

func TestPortalLinkOffer(t *testing.T) {
	p := Portal{
		RetailerSlug: "napa",
		RetailerName: "NAPA Auto Parts",
		BrandColor:   "#003da5",
		BuildURL:     func(q Query) string { return "https://napaonline.com/search?q=" + q.Text },
	}
	offers, err := p.Fetch(context.Background(), Query{Text: "alternator"})
	if err != nil {
		t.Fatalf("portal fetch: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("got %d offers, want 1", len(offers))
	}
	o := offers[0]
	if o.ID != "napa-search" {
		t.Errorf("id = %q", o.ID)
	}
	if o.Priced() {
		t.Errorf("portal offer must be unpriced")
	}
	if o.ProductURL != "https://napaonline.com/search?q=alternator" {
		t.Errorf("product url = %q", o.ProductURL)
	}
	if o.Name != `Search NAPA Auto Parts for "alternator"` {
		t.Errorf("name = %q", o.Name)
	}
}

func TestFallbackOfferDegradesLiveRetailer(t *testing.T) {
	p := Portal{
		RetailerSlug: "flaky",
		RetailerName: "Flaky Parts",
		BuildURL:     func(q Query) string { return "https://flaky.example.com/s?q=" + q.Text },
	}
	o := FallbackOffer(p, Query{Text: "radiator"})
	if o.ID != "flaky-search" || o.Priced() {
		t.Fatalf("fallback offer mismatch: %+v", o)
	}
	if o.Destination() != "https://flaky.example.com/s?q=radiator" {
		t.Fatalf("destination = %q", o.Destination())
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate registration")
		}
	}()
	p := Portal{
		RetailerSlug: "dup-test",
		RetailerName: "Dup",
		BuildURL:     func(q Query) string { return "https://example.com/s?q=" + q.Text },
	}
	Register(p)
	Register(p)
}

func TestListSortedAndGet(t *testing.T) {
	slugs := List()
	for i := 1; i < len(slugs); i++ {
		if slugs[i-1] >= slugs[i] {
			t.Fatalf("slugs not sorted: %v", slugs)
		}
	}
	for _, s := range slugs {
		r, ok := Get(s)
		if !ok || r.Slug() != s {
			t.Fatalf("Get(%q) inconsistent with List", s)
		}
	}
	if _, ok := Get("no-such-retailer"); ok {
		t.Fatalf("Get must miss on unknown slug")
	}
}
