package autozone

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/garagebot/partscout/pkg/retailers"
	"github.com/garagebot/partscout/pkg/retailers/shared"
)

func init() {
	retailers.Register(New())
}

const maxItems = 8

// Retailer reads the AutoZone search JSON API. When the API is unavailable it
// degrades to a single search-page link rather than disappearing from the
// comparison.
type Retailer struct {
	client  *http.Client
	baseURL string
	portal  retailers.Portal
}

func New() *Retailer {
	r := &Retailer{
		client:  shared.DefaultHTTPClient(),
		baseURL: "https://www.autozone.com",
	}
	r.portal = retailers.Portal{
		RetailerSlug: r.Slug(),
		RetailerName: r.Name(),
		BrandColor:   r.Color(),
		Shipping:     "Free Same-Day Pickup",
		Affiliate:    true,
		BuildURL:     r.SearchURL,
	}
	return r
}

func (r *Retailer) Slug() string         { return "autozone" }
func (r *Retailer) Name() string         { return "AutoZone" }
func (r *Retailer) Kind() retailers.Kind { return retailers.KindLive }
func (r *Retailer) Color() string        { return "#FF6600" }

func (r *Retailer) SearchURL(q retailers.Query) string {
	return fmt.Sprintf("%s/searchresult?searchText=%s", r.baseURL, url.QueryEscape(q.FullText()))
}

func (r *Retailer) apiURL(q retailers.Query) string {
	return fmt.Sprintf("%s/rest/search/v3/results?searchText=%s&pageSize=%d",
		r.baseURL, url.QueryEscape(q.FullText()), maxItems)
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       *priceBlock `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	PdpURL      string  `json:"pdpUrl"`
	Availability string `json:"availability"`
	PartNumber  string  `json:"partNumber"`
}

type priceBlock struct {
	RetailPrice float64 `json:"retailPrice"`
	SalePrice   float64 `json:"salePrice"`
}

func (r *Retailer) Fetch(ctx context.Context, q retailers.Query) ([]retailers.Offer, error) {
	body, err := shared.GetBody(ctx, r.client, r.apiURL(q), map[string]string{
		"Accept":  "application/json",
		"Referer": r.baseURL + "/",
	})
	if err != nil {
		return []retailers.Offer{r.portal.LinkOffer(q)}, nil
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return []retailers.Offer{r.portal.LinkOffer(q)}, nil
	}

	offers := r.toOffers(resp, q)
	if len(offers) == 0 {
		return []retailers.Offer{r.portal.LinkOffer(q)}, nil
	}
	return offers, nil
}

func (r *Retailer) toOffers(resp searchResponse, q retailers.Query) []retailers.Offer {
	searchPage := r.SearchURL(q)
	var offers []retailers.Offer
	for i, item := range resp.Results {
		if i >= maxItems {
			break
		}
		name := item.Name
		if name == "" {
			name = item.Description
		}
		if name == "" {
			continue
		}

		var price, original *float64
		if item.Price != nil {
			// Sale price wins; the retail price becomes the strike-through.
			switch {
			case item.Price.SalePrice > 0 && item.Price.RetailPrice > item.Price.SalePrice:
				price = shared.Float(item.Price.SalePrice)
				original = shared.Float(item.Price.RetailPrice)
			case item.Price.SalePrice > 0:
				price = shared.Float(item.Price.SalePrice)
			case item.Price.RetailPrice > 0:
				price = shared.Float(item.Price.RetailPrice)
			}
		}

		productURL := searchPage
		if item.PdpURL != "" {
			productURL = r.baseURL + item.PdpURL
		}

		offers = append(offers, retailers.Offer{
			ID:            fmt.Sprintf("autozone-%d", i),
			Name:          shared.Truncate(name, 120),
			Price:         price,
			OriginalPrice: original,
			ImageURL:      item.ImageURL,
			ProductURL:    productURL,
			Retailer:      r.Name(),
			RetailerSlug:  r.Slug(),
			RetailerColor: r.Color(),
			InStock:       !strings.EqualFold(item.Availability, "OUT_OF_STOCK"),
			Shipping:      "Free Same-Day Pickup",
			PartNumber:    item.PartNumber,
			IsAffiliate:   true,
			AffiliateURL:  productURL,
		})
	}
	return offers
}
