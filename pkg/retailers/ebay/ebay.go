package ebay

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/garagebot/partscout/pkg/retailers"
	"github.com/garagebot/partscout/pkg/retailers/shared"
)

func init() {
	retailers.Register(New())
}

const (
	defaultCampaignID = "5339140935"
	maxItems          = 8
)

// Retailer reads the eBay Motors listing page for priced offers and decorates
// outbound item links with Partner Network campaign parameters.
type Retailer struct {
	client     *http.Client
	baseURL    string
	campaignID string
}

// New builds the retailer with the campaign id from EBAY_CAMPAIGN_ID or the
// compiled-in default.
func New() *Retailer {
	campaign := os.Getenv("EBAY_CAMPAIGN_ID")
	if campaign == "" {
		campaign = defaultCampaignID
	}
	return &Retailer{
		client:     shared.DefaultHTTPClient(),
		baseURL:    "https://www.ebay.com",
		campaignID: campaign,
	}
}

func (r *Retailer) Slug() string         { return "ebay" }
func (r *Retailer) Name() string         { return "eBay Motors" }
func (r *Retailer) Kind() retailers.Kind { return retailers.KindLive }
func (r *Retailer) Color() string        { return "#E53238" }

// SearchURL returns the buy-it-now parts listing sorted by price+shipping.
func (r *Retailer) SearchURL(q retailers.Query) string {
	return fmt.Sprintf("%s/sch/i.html?_nkw=%s&_sacat=6000&LH_BIN=1&_sop=15&rt=nc",
		r.baseURL, url.QueryEscape(q.FullText()))
}

// affiliateURL appends the Partner Network tracking parameters to an item URL.
func (r *Retailer) affiliateURL(itemURL string, q retailers.Query) string {
	params := "mkcid=1&mkrid=711-53200-19255-0&campid=" + r.campaignID + "&toolid=10001"
	if !strings.Contains(itemURL, "ebay.com") {
		return fmt.Sprintf("%s/sch/i.html?_nkw=%s&_sacat=6000&%s",
			r.baseURL, url.QueryEscape(q.FullText()), params)
	}
	sep := "?"
	if strings.Contains(itemURL, "?") {
		sep = "&"
	}
	return itemURL + sep + params
}

func (r *Retailer) Fetch(ctx context.Context, q retailers.Query) ([]retailers.Offer, error) {
	body, err := shared.GetBody(ctx, r.client, r.SearchURL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("ebay: %w", err)
	}
	return r.parseListing(string(body), q), nil
}

var (
	itemStartRe = regexp.MustCompile(`<li[^>]+class="[^"]*s-(?:item|card)[^"]*"`)
	titleRe     = regexp.MustCompile(`(?is)<(?:h3|h2)[^>]*>(.*?)</(?:h3|h2)>|<span[^>]*role="heading"[^>]*>(.*?)</span>`)
	itemHrefRe  = regexp.MustCompile(`href="(https://www\.ebay\.com/itm/[^"]+)"`)
	imageRe     = regexp.MustCompile(`<img[^>]+src="(https://i\.ebayimg\.com/[^"]+)"`)
)

// parseListing extracts priced offers from the listing page markup.
func (r *Retailer) parseListing(html string, q retailers.Query) []retailers.Offer {
	starts := itemStartRe.FindAllStringIndex(html, -1)
	var offers []retailers.Offer

	for i, loc := range starts {
		if len(offers) >= maxItems {
			break
		}
		end := len(html)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		block := html[loc[0]:end]

		name := itemTitle(block)
		if len(name) < 5 || name == "Shop on eBay" || strings.Contains(name, "Results matching") {
			continue
		}

		text := shared.StripTags(block)
		price, original := shared.ExtractPricePair(text)
		if price == nil {
			continue
		}

		itemURL := ""
		if m := itemHrefRe.FindStringSubmatch(block); len(m) > 1 {
			itemURL = m[1]
		}
		image := ""
		if m := imageRe.FindStringSubmatch(block); len(m) > 1 {
			image = m[1]
		}

		lower := strings.ToLower(text)
		shipping := "Check shipping"
		if strings.Contains(lower, "free delivery") || strings.Contains(lower, "free shipping") {
			shipping = "Free delivery"
		}

		offers = append(offers, retailers.Offer{
			ID:            fmt.Sprintf("ebay-%d", len(offers)+1),
			Name:          shared.Truncate(name, 120),
			Price:         price,
			OriginalPrice: original,
			ImageURL:      image,
			ProductURL:    itemURL,
			Retailer:      r.Name(),
			RetailerSlug:  r.Slug(),
			RetailerColor: r.Color(),
			InStock:       true,
			Shipping:      shipping,
			IsAffiliate:   true,
			AffiliateURL:  r.affiliateURL(itemURL, q),
		})
	}
	return offers
}

func itemTitle(block string) string {
	m := titleRe.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g != "" {
			return shared.StripTags(g)
		}
	}
	return ""
}
