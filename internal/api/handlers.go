package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garagebot/partscout/internal/engine"
	"github.com/garagebot/partscout/internal/metrics"
	"github.com/garagebot/partscout/internal/search"
	"github.com/garagebot/partscout/internal/storage"
	"github.com/garagebot/partscout/internal/tracking"
	"github.com/garagebot/partscout/internal/vendors"
	"github.com/garagebot/partscout/pkg/retailers"
)

// Handler carries the request-path dependencies.
type Handler struct {
	directory []vendors.VendorRecord
	svc       engine.Comparer
	catalog   *search.Client
	tracker   *tracking.Tracker
	store     storage.Storage
}

// Register wires the API routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/prices/compare", instrument("/api/prices/compare", h.handleCompare))
	mux.HandleFunc("/api/search", instrument("/api/search", h.handleSearch))
	mux.HandleFunc("/api/affiliates/track", instrument("/api/affiliates/track", h.handleTrack))
	mux.HandleFunc("/api/vendors", instrument("/api/vendors", h.handleVendors))
	mux.HandleFunc("/api/watches", instrument("/api/watches", h.handleWatches))
}

// instrument wraps a handler with the request counters and duration
// histogram for its path.
func instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RequestsTotal.WithLabelValues(path).Inc()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		metrics.RequestDurationSeconds.WithLabelValues(path).Observe(time.Since(start).Seconds())
		if rec.status >= 400 {
			metrics.RequestErrorsTotal.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type compareRequest struct {
	Query       string          `json:"query"`
	PartNumber  string          `json:"partNumber"`
	Year        string          `json:"year"`
	Make        string          `json:"make"`
	Model       string          `json:"model"`
	Category    string          `json:"category"`
	VehicleType string          `json:"vehicleType"`
	ZipCode     string          `json:"zipCode"`
	Filters     vendors.Filters `json:"filters"`
}

func (req compareRequest) query() retailers.Query {
	return retailers.Query{
		Text:        strings.TrimSpace(req.Query),
		PartNumber:  req.PartNumber,
		Year:        req.Year,
		Make:        req.Make,
		Model:       req.Model,
		Category:    req.Category,
		VehicleType: req.VehicleType,
		Zip:         req.ZipCode,
	}
}

// handleCompare runs a full comparison and returns the merged view. Source
// outages are invisible here: they degrade inside the compare service.
func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	q := req.query()
	if q.Text == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	res, err := h.svc.Compare(r.Context(), q)
	if err != nil {
		log.Printf("api: compare failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	view := engine.Build(q, req.Filters, res.Products, h.directory, vendors.DefaultVisibleOthers)
	writeJSON(w, view)
}

type searchRequest struct {
	Query   string          `json:"query"`
	Vehicle *search.Vehicle `json:"vehicle"`
}

// handleSearch proxies the advisory catalog search. Unconfigured or failing
// upstreams return an empty part list, never an error.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	parts := h.catalog.SearchParts(r.Context(), req.Query, req.Vehicle)
	if parts == nil {
		parts = []search.Part{}
	}
	writeJSON(w, map[string]any{
		"parts":      parts,
		"configured": h.catalog.Configured(),
	})
}

type trackRequest struct {
	PartnerID      string `json:"partnerId"`
	ProductName    string `json:"productName"`
	SearchQuery    string `json:"searchQuery"`
	SourceURL      string `json:"sourceUrl"`
	DestinationURL string `json:"destinationUrl"`
	Context        string `json:"context"`
}

// handleTrack accepts a click event and answers 202 before anything is
// persisted. The shopper's redirect never waits on attribution.
func (h *Handler) handleTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PartnerID == "" {
		http.Error(w, "partnerId is required", http.StatusBadRequest)
		return
	}

	h.tracker.Record(tracking.Event{
		PartnerID:      req.PartnerID,
		ProductName:    req.ProductName,
		SearchQuery:    req.SearchQuery,
		SourceURL:      req.SourceURL,
		DestinationURL: req.DestinationURL,
		Context:        req.Context,
	})
	w.WriteHeader(http.StatusAccepted)
}

// handleVendors lists the directory, ranked and filtered by query params:
// vehicleType, localPickup, oem, aftermarket, q (query text for the links).
func (h *Handler) handleVendors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params := r.URL.Query()
	vctx := vendors.Context{
		Query:       params.Get("q"),
		Year:        params.Get("year"),
		Make:        params.Get("make"),
		Model:       params.Get("model"),
		Zip:         params.Get("zip"),
		VehicleType: params.Get("vehicleType"),
		Filters: vendors.Filters{
			LocalPickupOnly: params.Get("localPickup") == "true",
			OEMOnly:         params.Get("oem") == "true",
			AftermarketOnly: params.Get("aftermarket") == "true",
		},
	}

	ranked := vendors.Rank(vendors.Rankable(h.directory, vctx))
	type vendorDTO struct {
		vendors.VendorRecord
		SearchURL string `json:"searchUrl,omitempty"`
	}
	out := make([]vendorDTO, 0, len(ranked))
	for _, v := range ranked {
		dto := vendorDTO{VendorRecord: v}
		if u, err := vendors.RenderSearchURL(v, vctx); err == nil {
			dto.SearchURL = u
		}
		out = append(out, dto)
	}
	writeJSON(w, out)
}

type watchRequest struct {
	Email        string  `json:"email"`
	Query        string  `json:"query"`
	Year         string  `json:"year"`
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	VehicleType  string  `json:"vehicleType"`
	ZipCode      string  `json:"zipCode"`
	ThresholdUSD float64 `json:"thresholdUsd"`
}

// handleWatches creates (POST) or lists (GET) price watches.
func (h *Handler) handleWatches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		watches, err := h.store.ListPriceWatches(r.Context())
		if err != nil {
			log.Printf("api: list watches failed: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, watches)

	case http.MethodPost:
		var req watchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Email == "" || strings.TrimSpace(req.Query) == "" || req.ThresholdUSD <= 0 {
			http.Error(w, "email, query, and a positive thresholdUsd are required", http.StatusBadRequest)
			return
		}
		watch := storage.PriceWatch{
			ID:           uuid.NewString(),
			Email:        req.Email,
			QueryText:    strings.TrimSpace(req.Query),
			Year:         req.Year,
			Make:         req.Make,
			Model:        req.Model,
			VehicleType:  req.VehicleType,
			Zip:          req.ZipCode,
			ThresholdUSD: req.ThresholdUSD,
			CreatedAt:    time.Now().UTC(),
		}
		if err := h.store.SavePriceWatch(r.Context(), watch); err != nil {
			log.Printf("api: save watch failed: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(watch); err != nil {
			log.Printf("api: encode response failed: %v", err)
		}

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response failed: %v", err)
	}
}
