package vendors

import (
	"encoding/json"
	"fmt"
	"os"
)

// VendorRecord describes one retailer search portal in the directory. The
// directory is static data: loaded once at process start and immutable
// afterwards, so it is safe to share across concurrent queries without
// locking.
type VendorRecord struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Slug                string   `json:"slug"`
	Categories          []string `json:"categories"`
	HasLocalPickup      bool     `json:"hasLocalPickup"`
	SupportsOEM         bool     `json:"supportsOem"`
	SupportsAftermarket bool     `json:"supportsAftermarket"`
	AffiliateNetwork    string   `json:"affiliateNetwork,omitempty"`
	Priority            int      `json:"priority"`
	URLTemplate         string   `json:"urlTemplate"`
	LogoColor           string   `json:"logoColor"`
}

// Context is the immutable query context a shopper's search produces. Every
// filter change builds a new Context; derived rankings are recomputed from it
// rather than mutated in place.
type Context struct {
	Query       string
	Year        string
	Make        string
	Model       string
	Zip         string
	VehicleType string
	Filters     Filters
}

// Filters are the shopper-selected capability constraints. Each one, when
// set, is a strict AND predicate over the corresponding vendor field.
type Filters struct {
	LocalPickupOnly bool
	OEMOnly         bool
	AftermarketOnly bool
}

// CategoryAll is the wildcard category: vendors carrying it service every
// vehicle type.
const CategoryAll = "all"

const vendorsEnv = "PARTSCOUT_VENDORS_JSON"

func defaultVendors() []VendorRecord {
	return []VendorRecord{
		{
			ID: "autozone", Name: "AutoZone", Slug: "autozone",
			Categories:     []string{CategoryAll},
			HasLocalPickup: true, SupportsOEM: true, SupportsAftermarket: true,
			AffiliateNetwork: "impact", Priority: 90,
			URLTemplate: "https://www.autozone.com/searchresult?searchText={query}&postalCode={zip}",
			LogoColor:   "#FF6600",
		},
		{
			ID: "advance", Name: "Advance Auto Parts", Slug: "advance",
			Categories:     []string{CategoryAll},
			HasLocalPickup: true, SupportsOEM: true, SupportsAftermarket: true,
			AffiliateNetwork: "cj", Priority: 85,
			URLTemplate: "https://shop.advanceautoparts.com/web/SearchResults?searchTerm={query}",
			LogoColor:   "#CC0000",
		},
		{
			ID: "oreilly", Name: "O'Reilly Auto Parts", Slug: "oreilly",
			Categories:     []string{CategoryAll},
			HasLocalPickup: true, SupportsOEM: true, SupportsAftermarket: true,
			Priority:    80,
			URLTemplate: "https://www.oreillyauto.com/shop/b/{query}",
			LogoColor:   "#00843D",
		},
		{
			ID: "napa", Name: "NAPA Auto Parts", Slug: "napa",
			Categories:     []string{CategoryAll},
			HasLocalPickup: true, SupportsOEM: true, SupportsAftermarket: true,
			Priority:    75,
			URLTemplate: "https://www.napaonline.com/en/search?q={query}",
			LogoColor:   "#003DA5",
		},
		{
			ID: "rockauto", Name: "RockAuto", Slug: "rockauto",
			Categories:  []string{CategoryAll},
			SupportsOEM: true, SupportsAftermarket: true,
			Priority:    70,
			URLTemplate: "https://www.rockauto.com/en/catalog/?a={query}",
			LogoColor:   "#336699",
		},
		{
			ID: "amazon", Name: "Amazon Automotive", Slug: "amazon",
			Categories:          []string{CategoryAll},
			SupportsAftermarket: true,
			AffiliateNetwork:    "associates", Priority: 65,
			URLTemplate: "https://www.amazon.com/s?k={query}&i=automotive",
			LogoColor:   "#FF9900",
		},
		{
			ID: "ebay", Name: "eBay Motors", Slug: "ebay",
			Categories:  []string{CategoryAll},
			SupportsOEM: true, SupportsAftermarket: true,
			AffiliateNetwork: "epn", Priority: 60,
			URLTemplate: "https://www.ebay.com/sch/i.html?_nkw={year}+{make}+{model}+{query}&_sacat=6000",
			LogoColor:   "#E53238",
		},
		{
			ID: "walmart", Name: "Walmart", Slug: "walmart",
			Categories:     []string{CategoryAll},
			HasLocalPickup: true, SupportsAftermarket: true,
			Priority:    55,
			URLTemplate: "https://www.walmart.com/search?q={query}&cat_id=91083",
			LogoColor:   "#0071CE",
		},
		{
			ID: "vmc", Name: "VMC Chinese Parts", Slug: "vmc",
			Categories:          []string{"atv", "powersports", "scooter"},
			SupportsAftermarket: true,
			Priority:            50,
			URLTemplate:         "https://www.vmcchineseparts.com/search.asp?keyword={query}",
			LogoColor:           "#D22630",
		},
		{
			ID: "partzilla", Name: "Partzilla", Slug: "partzilla",
			Categories:  []string{"powersports", "motorcycle", "atv"},
			SupportsOEM: true,
			AffiliateNetwork: "shareasale", Priority: 45,
			URLTemplate: "https://www.partzilla.com/search?stq={year}+{make}+{model}+{query}",
			LogoColor:   "#0B5394",
		},
		{
			ID: "rexing", Name: "Rexing", Slug: "rexing",
			Categories:          []string{CategoryAll},
			SupportsAftermarket: true,
			AffiliateNetwork:    "shareasale", Priority: 40,
			URLTemplate: "https://rexing.com/?s={query}&post_type=product&ref=5357356",
			LogoColor:   "#1A1A2E",
		},
		{
			ID: "silazane50", Name: "SILAZANE50", Slug: "silazane50",
			Categories:          []string{CategoryAll},
			SupportsAftermarket: true,
			AffiliateNetwork:    "cj", Priority: 35,
			URLTemplate: "https://www.anrdoezrs.net/click-101643977-7675405?url=https%3A%2F%2Fsilazane50usa.com%2Fcollections%2Fall%3Fq%3D{query}",
			LogoColor:   "#C4A35A",
		},
	}
}

// Load returns the vendor directory: the PARTSCOUT_VENDORS_JSON override when
// set and valid, the compiled-in defaults otherwise. Every record is
// validated; a malformed URL template is bad static data and fails the load
// rather than surfacing at query time.
func Load() ([]VendorRecord, error) {
	list := defaultVendors()
	if raw := os.Getenv(vendorsEnv); raw != "" {
		var override []VendorRecord
		if err := json.Unmarshal([]byte(raw), &override); err == nil && len(override) > 0 {
			list = override
		}
	}

	for _, v := range list {
		if err := Validate(v); err != nil {
			return nil, fmt.Errorf("vendor %q: %w", v.ID, err)
		}
	}
	return list, nil
}

// MustLoad is Load for process start, where a bad directory should stop the
// program immediately.
func MustLoad() []VendorRecord {
	list, err := Load()
	if err != nil {
		panic("vendors: " + err.Error())
	}
	return list
}

// Validate checks a single record's static data. The template must render a
// valid absolute URL both with an empty context and with every token bound.
func Validate(v VendorRecord) error {
	if v.ID == "" || v.Slug == "" {
		return fmt.Errorf("missing id or slug")
	}
	if len(v.Categories) == 0 {
		return fmt.Errorf("no categories")
	}
	if _, err := RenderSearchURL(v, Context{}); err != nil {
		return fmt.Errorf("template with empty context: %w", err)
	}
	full := Context{Query: "brake pads", Year: "2020", Make: "Toyota", Model: "Tacoma", Zip: "37013"}
	if _, err := RenderSearchURL(v, full); err != nil {
		return fmt.Errorf("template with full context: %w", err)
	}
	return nil
}

// Get finds a vendor by id in the given directory.
func Get(list []VendorRecord, id string) (VendorRecord, bool) {
	for _, v := range list {
		if v.ID == id {
			return v, true
		}
	}
	return VendorRecord{}, false
}
