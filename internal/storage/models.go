package storage

import "time"

// Vendor mirrors a vendor directory record for persistence, feeding the
// affiliate dashboard. Categories are stored as a JSON-encoded array.
type Vendor struct {
	ID                  string `json:"id" gorm:"primaryKey;column:id"`
	Name                string `json:"name" gorm:"column:name"`
	Slug                string `json:"slug" gorm:"column:slug"`
	Categories          string `json:"categories" gorm:"column:categories"`
	HasLocalPickup      bool   `json:"has_local_pickup" gorm:"column:has_local_pickup"`
	SupportsOEM         bool   `json:"supports_oem" gorm:"column:supports_oem"`
	SupportsAftermarket bool   `json:"supports_aftermarket" gorm:"column:supports_aftermarket"`
	AffiliateNetwork    string `json:"affiliate_network,omitempty" gorm:"column:affiliate_network"`
	Priority            int    `json:"priority" gorm:"column:priority"`
	URLTemplate         string `json:"url_template" gorm:"column:url_template"`
	LogoColor           string `json:"logo_color" gorm:"column:logo_color"`
}

// OfferSnapshot stores a previously computed comparison payload for a query
// identity. The staleness window is enforced by readers, not here.
type OfferSnapshot struct {
	ID        uint      `json:"-" gorm:"primaryKey;column:id"`
	QueryKey  string    `json:"query_key" gorm:"column:query_key"`
	Payload   []byte    `json:"payload" gorm:"column:payload"`
	FetchedAt time.Time `json:"fetched_at" gorm:"column:fetched_at"`
}

// ClickEvent is one recorded outbound click, kept for commission
// attribution. Persistence is best-effort; a lost row is acceptable.
type ClickEvent struct {
	ID             string    `json:"id" gorm:"primaryKey;column:id"`
	PartnerID      string    `json:"partner_id" gorm:"column:partner_id"`
	ProductName    string    `json:"product_name" gorm:"column:product_name"`
	SearchQuery    string    `json:"search_query" gorm:"column:search_query"`
	SourceURL      string    `json:"source_url" gorm:"column:source_url"`
	DestinationURL string    `json:"destination_url" gorm:"column:destination_url"`
	ClickContext   string    `json:"click_context,omitempty" gorm:"column:click_context"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at"`
}

// PriceWatch is a saved query with a price threshold; the worker re-runs it
// and emails the owner when the lowest price drops below the threshold.
type PriceWatch struct {
	ID             string     `json:"id" gorm:"primaryKey;column:id"`
	Email          string     `json:"email" gorm:"column:email"`
	QueryText      string     `json:"query_text" gorm:"column:query_text"`
	Year           string     `json:"year,omitempty" gorm:"column:year"`
	Make           string     `json:"make,omitempty" gorm:"column:make"`
	Model          string     `json:"model,omitempty" gorm:"column:model"`
	VehicleType    string     `json:"vehicle_type,omitempty" gorm:"column:vehicle_type"`
	Zip            string     `json:"zip,omitempty" gorm:"column:zip"`
	ThresholdUSD   float64    `json:"threshold_usd" gorm:"column:threshold_usd"`
	CreatedAt      time.Time  `json:"created_at" gorm:"column:created_at"`
	LastNotifiedAt *time.Time `json:"last_notified_at,omitempty" gorm:"column:last_notified_at"`
}

// EmailConfig holds configuration for price-watch notifications.
type EmailConfig struct {
	ID          string    `json:"id" gorm:"primaryKey;column:id"`
	Provider    string    `json:"provider" gorm:"column:provider"` // "smtp", "sendgrid"
	Host        string    `json:"host,omitempty" gorm:"column:host"`
	Port        int       `json:"port,omitempty" gorm:"column:port"`
	Username    string    `json:"username,omitempty" gorm:"column:username"`
	Password    string    `json:"password,omitempty" gorm:"column:password"`
	FromAddress string    `json:"from_address" gorm:"column:from_address"`
	FromName    string    `json:"from_name" gorm:"column:from_name"`
	APIKey      string    `json:"api_key,omitempty" gorm:"column:api_key"`
	Encryption  string    `json:"encryption,omitempty" gorm:"column:encryption"` // "none", "ssl", "tls"
	Enabled     bool      `json:"enabled" gorm:"column:enabled"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}
