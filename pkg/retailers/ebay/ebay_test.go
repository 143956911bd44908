package ebay

import (
	"strings"
	"testing"

	"github.com/garagebot/partscout/pkg/retailers"
)

const listingFixture = `
<ul>
<li class="s-item placeholder"><span role="heading">Shop on eBay</span><span>$20.00</span></li>
<li class="s-item"><h3 class="s-item__title">Bosch ICON Wiper Blade 26A</h3>
  <a href="https://www.ebay.com/itm/1234567890?hash=abc">link</a>
  <img src="https://i.ebayimg.com/images/g/abc/s-l225.jpg">
  <span class="s-item__price">$24.99</span> <span class="STRIKETHROUGH">$39.99</span>
  <span>Free delivery</span></li>
<li class="s-item"><h3 class="s-item__title">Unpriced mystery part listing</h3>
  <a href="https://www.ebay.com/itm/22222">link</a></li>
<li class="s-item"><h3 class="s-item__title">ACDelco Gold Brake Pads Front Set</h3>
  <a href="https://www.ebay.com/itm/33333">link</a>
  <span class="s-item__price">$41.50</span></li>
</ul>`

func TestParseListing(t *testing.T) {
	r := New()
	offers := r.parseListing(listingFixture, retailers.Query{Text: "wiper blades"})

	if len(offers) != 2 {
		t.Fatalf("got %d offers, want 2 (placeholder and unpriced rows skipped): %+v", len(offers), offers)
	}

	first := offers[0]
	if first.Name != "Bosch ICON Wiper Blade 26A" {
		t.Errorf("name = %q", first.Name)
	}
	if first.Price == nil || *first.Price != 24.99 {
		t.Errorf("price = %v, want 24.99", first.Price)
	}
	if first.OriginalPrice == nil || *first.OriginalPrice != 39.99 {
		t.Errorf("original price = %v, want 39.99", first.OriginalPrice)
	}
	if first.ProductURL != "https://www.ebay.com/itm/1234567890?hash=abc" {
		t.Errorf("product url = %q", first.ProductURL)
	}
	if first.ImageURL != "https://i.ebayimg.com/images/g/abc/s-l225.jpg" {
		t.Errorf("image url = %q", first.ImageURL)
	}
	if first.Shipping != "Free delivery" {
		t.Errorf("shipping = %q", first.Shipping)
	}
	if !first.IsAffiliate {
		t.Errorf("listing offers must be affiliate tagged")
	}

	second := offers[1]
	if second.Name != "ACDelco Gold Brake Pads Front Set" {
		t.Errorf("second name = %q", second.Name)
	}
	if second.OriginalPrice != nil {
		t.Errorf("no strike-through price expected, got %v", *second.OriginalPrice)
	}
	if second.Shipping != "Check shipping" {
		t.Errorf("second shipping = %q", second.Shipping)
	}
}

func TestParseListing_CapsItemCount(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString(`<li class="s-item"><h3>Spark Plug NGK Iridium IX Long Reach</h3>` +
			`<a href="https://www.ebay.com/itm/555"></a><span>$9.99</span></li>`)
	}
	offers := New().parseListing(b.String(), retailers.Query{Text: "spark plug"})
	if len(offers) != maxItems {
		t.Fatalf("got %d offers, want cap of %d", len(offers), maxItems)
	}
}

func TestSearchURL(t *testing.T) {
	r := New()
	u := r.SearchURL(retailers.Query{Text: "brake pads", Year: "2019", Make: "Honda", Model: "Civic"})
	for _, want := range []string{
		"_nkw=2019+Honda+Civic+brake+pads",
		"_sacat=6000",
		"LH_BIN=1",
		"_sop=15",
	} {
		if !strings.Contains(u, want) {
			t.Errorf("search url %q missing %q", u, want)
		}
	}
}

func TestAffiliateURL(t *testing.T) {
	t.Setenv("EBAY_CAMPAIGN_ID", "9999")
	r := New()

	u := r.affiliateURL("https://www.ebay.com/itm/123?hash=x", retailers.Query{Text: "oil filter"})
	for _, want := range []string{"mkcid=1", "mkrid=711-53200-19255-0", "campid=9999", "toolid=10001"} {
		if !strings.Contains(u, want) {
			t.Errorf("affiliate url %q missing %q", u, want)
		}
	}
	if !strings.HasPrefix(u, "https://www.ebay.com/itm/123?hash=x&") {
		t.Errorf("existing query string must be extended, got %q", u)
	}

	// Non-eBay URLs fall back to a tagged search link.
	u = r.affiliateURL("", retailers.Query{Text: "oil filter"})
	if !strings.Contains(u, "/sch/i.html?_nkw=oil+filter") || !strings.Contains(u, "campid=9999") {
		t.Errorf("fallback affiliate url = %q", u)
	}
}
