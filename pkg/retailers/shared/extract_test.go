package shared

import "testing"

func TestExtractPrice(t *testing.T) {
	if p := ExtractPrice(`<span class="price">$24.99</span>`); p == nil || *p != 24.99 {
		t.Fatalf("ExtractPrice = %v, want 24.99", p)
	}
	if p := ExtractPrice(`$1,299.00 installed`); p == nil || *p != 1299.00 {
		t.Fatalf("thousands separator: got %v, want 1299", p)
	}
	if p := ExtractPrice("no price here"); p != nil {
		t.Fatalf("expected nil for priceless text, got %v", *p)
	}
}

func TestExtractPricePair(t *testing.T) {
	price, original := ExtractPricePair(`<span>$34.99</span> <s>$49.99</s>`)
	if price == nil || *price != 34.99 {
		t.Fatalf("price = %v, want 34.99", price)
	}
	if original == nil || *original != 49.99 {
		t.Fatalf("original = %v, want 49.99", original)
	}

	// A lower second amount is not a "was" price.
	price, original = ExtractPricePair(`$49.99 now $34.99`)
	if price == nil || *price != 49.99 {
		t.Fatalf("price = %v, want 49.99", price)
	}
	if original != nil {
		t.Fatalf("lower second amount must not become the original price: %v", *original)
	}

	price, original = ExtractPricePair(`single $12.50`)
	if price == nil || *price != 12.50 || original != nil {
		t.Fatalf("single amount: %v, %v", price, original)
	}

	if price, original = ExtractPricePair("none"); price != nil || original != nil {
		t.Fatalf("priceless text: %v, %v", price, original)
	}
}

func TestStripTags(t *testing.T) {
	in := `<div class="title">Bosch  &amp; Denso <b>plugs</b>&nbsp;&#39;24</div>`
	want := `Bosch & Denso plugs '24`
	if got := StripTags(in); got != want {
		t.Fatalf("StripTags = %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("alternator", 4); got != "alte" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("cap", 10); got != "cap" {
		t.Fatalf("short strings pass through: %q", got)
	}
	if got := Truncate("héllo wörld", 5); got != "héllo" {
		t.Fatalf("rune-safe truncation: %q", got)
	}
}
