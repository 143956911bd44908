package walmart

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/garagebot/partscout/pkg/retailers"
	"github.com/garagebot/partscout/pkg/retailers/shared"
)

func init() {
	retailers.Register(New())
}

const maxItems = 6

// Retailer reads the Walmart automotive search page. Like AutoZone, an
// unreachable or unparsable page degrades to a single search link.
type Retailer struct {
	client  *http.Client
	baseURL string
	portal  retailers.Portal
}

func New() *Retailer {
	r := &Retailer{
		client:  shared.DefaultHTTPClient(),
		baseURL: "https://www.walmart.com",
	}
	r.portal = retailers.Portal{
		RetailerSlug: r.Slug(),
		RetailerName: r.Name(),
		BrandColor:   r.Color(),
		Shipping:     "Free Pickup",
		Affiliate:    false,
		BuildURL:     r.SearchURL,
	}
	return r
}

func (r *Retailer) Slug() string         { return "walmart" }
func (r *Retailer) Name() string         { return "Walmart" }
func (r *Retailer) Kind() retailers.Kind { return retailers.KindLive }
func (r *Retailer) Color() string        { return "#0071CE" }

func (r *Retailer) SearchURL(q retailers.Query) string {
	return fmt.Sprintf("%s/search?q=%s&cat_id=91083", r.baseURL, url.QueryEscape(q.FullText()))
}

var (
	itemStartRe = regexp.MustCompile(`data-item-id="[^"]+"`)
	titleRe     = regexp.MustCompile(`(?is)data-automation-id="product-title"[^>]*>(.*?)<`)
	hrefRe      = regexp.MustCompile(`<a[^>]+link-identifier[^>]+href="([^"]+)"`)
	imageRe     = regexp.MustCompile(`<img[^>]+data-testid="productTileImage"[^>]+src="([^"]+)"`)
)

func (r *Retailer) Fetch(ctx context.Context, q retailers.Query) ([]retailers.Offer, error) {
	body, err := shared.GetBody(ctx, r.client, r.SearchURL(q), nil)
	if err != nil {
		return []retailers.Offer{r.portal.LinkOffer(q)}, nil
	}

	offers := r.parseListing(string(body))
	if len(offers) == 0 {
		return []retailers.Offer{r.portal.LinkOffer(q)}, nil
	}
	return offers, nil
}

func (r *Retailer) parseListing(html string) []retailers.Offer {
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

		name := ""
		if m := titleRe.FindStringSubmatch(block); len(m) > 1 {
			name = shared.StripTags(m[1])
		}
		if name == "" {
			continue
		}

		price := shared.ExtractPrice(shared.StripTags(block))
		if price == nil {
			continue
		}

		productURL := ""
		if m := hrefRe.FindStringSubmatch(block); len(m) > 1 {
			productURL = m[1]
			if !strings.HasPrefix(productURL, "http") {
				productURL = r.baseURL + productURL
			}
		}
		image := ""
		if m := imageRe.FindStringSubmatch(block); len(m) > 1 {
			image = m[1]
		}

		offers = append(offers, retailers.Offer{
			ID:            fmt.Sprintf("walmart-%d", len(offers)),
			Name:          shared.Truncate(name, 120),
			Price:         price,
			ImageURL:      image,
			ProductURL:    productURL,
			Retailer:      r.Name(),
			RetailerSlug:  r.Slug(),
			RetailerColor: r.Color(),
			InStock:       true,
			Shipping:      "Free Pickup",
			IsAffiliate:   false,
			AffiliateURL:  productURL,
		})
	}
	return offers
}
