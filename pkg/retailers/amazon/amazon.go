package amazon

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/garagebot/partscout/pkg/retailers"
	"github.com/garagebot/partscout/pkg/retailers/shared"
)

func init() {
	retailers.Register(New())
}

const (
	defaultAssociateTag = "garagebot0e-20"
	maxItems            = 8
)

// Retailer reads the Amazon automotive search page for priced offers. Product
// links carry the Associates tag, so the product URL doubles as the affiliate
// destination.
type Retailer struct {
	client  *http.Client
	baseURL string
	tag     string
}

// New builds the retailer with the tag from AMAZON_ASSOCIATE_ID or the
// compiled-in default.
func New() *Retailer {
	tag := os.Getenv("AMAZON_ASSOCIATE_ID")
	if tag == "" {
		tag = defaultAssociateTag
	}
	return &Retailer{
		client:  shared.DefaultHTTPClient(),
		baseURL: "https://www.amazon.com",
		tag:     tag,
	}
}

func (r *Retailer) Slug() string         { return "amazon" }
func (r *Retailer) Name() string         { return "Amazon" }
func (r *Retailer) Kind() retailers.Kind { return retailers.KindLive }
func (r *Retailer) Color() string        { return "#FF9900" }

func (r *Retailer) SearchURL(q retailers.Query) string {
	return fmt.Sprintf("%s/s?k=%s&i=automotive&tag=%s", r.baseURL, url.QueryEscape(q.FullText()), r.tag)
}

func (r *Retailer) Fetch(ctx context.Context, q retailers.Query) ([]retailers.Offer, error) {
	body, err := shared.GetBody(ctx, r.client, r.SearchURL(q), map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	})
	if err != nil {
		return nil, fmt.Errorf("amazon: %w", err)
	}
	return r.parseListing(string(body)), nil
}

var (
	resultRe   = regexp.MustCompile(`data-component-type="s-search-result"[^>]*data-asin="([A-Z0-9]{10})"|data-asin="([A-Z0-9]{10})"[^>]*data-component-type="s-search-result"`)
	titleRe    = regexp.MustCompile(`(?is)<h2[^>]*>\s*(?:<a[^>]*>)?\s*<span[^>]*>(.*?)</span>`)
	wholeRe    = regexp.MustCompile(`"a-price-whole">([\d,]+)`)
	fractionRe = regexp.MustCompile(`"a-price-fraction">(\d{2})`)
	strikeRe   = regexp.MustCompile(`a-text-price[^$]*\$([\d,]+\.\d{2})`)
	ratingRe   = regexp.MustCompile(`([\d.]+) out of 5`)
	reviewsRe  = regexp.MustCompile(`s-underline-text">([\d,]+)<`)
	imageRe    = regexp.MustCompile(`<img[^>]+class="s-image"[^>]+src="([^"]+)"`)
)

func (r *Retailer) parseListing(html string) []retailers.Offer {
	starts := resultRe.FindAllStringSubmatchIndex(html, -1)
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

		asin := asinFrom(html, loc)
		name := ""
		if m := titleRe.FindStringSubmatch(block); len(m) > 1 {
			name = shared.StripTags(m[1])
		}
		if len(name) < 5 {
			continue
		}

		price := parsePrice(block)
		if price == nil {
			continue
		}

		var original *float64
		if m := strikeRe.FindStringSubmatch(block); len(m) > 1 {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil && v > *price {
				original = &v
			}
		}

		var rating *float64
		if m := ratingRe.FindStringSubmatch(block); len(m) > 1 {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				rating = &v
			}
		}
		var reviews *int
		if m := reviewsRe.FindStringSubmatch(block); len(m) > 1 {
			if v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
				reviews = &v
			}
		}
		image := ""
		if m := imageRe.FindStringSubmatch(block); len(m) > 1 {
			image = m[1]
		}

		productURL := fmt.Sprintf("%s/dp/%s?tag=%s", r.baseURL, asin, r.tag)
		offers = append(offers, retailers.Offer{
			ID:            "amazon-" + asin,
			Name:          shared.Truncate(name, 120),
			Price:         price,
			OriginalPrice: original,
			ImageURL:      image,
			ProductURL:    productURL,
			Retailer:      r.Name(),
			RetailerSlug:  r.Slug(),
			RetailerColor: r.Color(),
			InStock:       true,
			Shipping:      "Prime eligible",
			Rating:        rating,
			ReviewCount:   reviews,
			IsAffiliate:   true,
			AffiliateURL:  productURL,
		})
	}
	return offers
}

func asinFrom(html string, loc []int) string {
	// Either capture group may have matched; the other index pair is -1.
	for g := 1; g <= 2; g++ {
		if loc[2*g] >= 0 {
			return html[loc[2*g]:loc[2*g+1]]
		}
	}
	return ""
}

func parsePrice(block string) *float64 {
	wm := wholeRe.FindStringSubmatch(block)
	if len(wm) < 2 {
		return nil
	}
	whole := strings.ReplaceAll(wm[1], ",", "")
	frac := "00"
	if fm := fractionRe.FindStringSubmatch(block); len(fm) > 1 {
		frac = fm[1]
	}
	v, err := strconv.ParseFloat(whole+"."+frac, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}
