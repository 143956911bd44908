package vendors

import "sort"

// IsAffiliate reports whether the vendor participates in a revenue-sharing
// network.
func IsAffiliate(v VendorRecord) bool {
	return v.AffiliateNetwork != ""
}

// DefaultVisibleOthers caps the initial slice of non-affiliate vendors shown
// before the "show more" expansion.
const DefaultVisibleOthers = 6

// Rankable filters the directory down to vendors that qualify for the query
// context: category membership plus every active shopper filter.
func Rankable(list []VendorRecord, ctx Context) []VendorRecord {
	var out []VendorRecord
	for _, v := range list {
		if !servicesCategory(v, ctx.VehicleType) {
			continue
		}
		if ctx.Filters.LocalPickupOnly && !v.HasLocalPickup {
			continue
		}
		if ctx.Filters.OEMOnly && !v.SupportsOEM {
			continue
		}
		if ctx.Filters.AftermarketOnly && !v.SupportsAftermarket {
			continue
		}
		out = append(out, v)
	}
	return out
}

// servicesCategory: the "all" category is a wildcard. A specific vehicle type
// additionally admits vendors tagged with that type.
func servicesCategory(v VendorRecord, vehicleType string) bool {
	for _, c := range v.Categories {
		if c == CategoryAll {
			return true
		}
		if vehicleType != "" && c == vehicleType {
			return true
		}
	}
	return false
}

// Rank orders vendors by the three-level tie-break: affiliate-network
// membership first, local-pickup capability second, manual priority
// descending third. Affiliate placement funds the service and local pickup is
// the next-highest shopper value; priority is the fallback. The sort is
// stable so equal vendors keep directory order.
func Rank(list []VendorRecord) []VendorRecord {
	out := make([]VendorRecord, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := IsAffiliate(out[i]), IsAffiliate(out[j])
		if ai != aj {
			return ai
		}
		if out[i].HasLocalPickup != out[j].HasLocalPickup {
			return out[i].HasLocalPickup
		}
		return out[i].Priority > out[j].Priority
	})
	return out
}

// Split is the display contract for a ranked vendor list: all affiliate
// partners, plus a capped initial slice of the rest with an exact count of
// what "show more" would reveal.
type Split struct {
	AffiliatePartners []VendorRecord
	OtherVendors      []VendorRecord
	VisibleOthers     []VendorRecord
	HiddenOtherCount  int
}

// Partition splits a ranked list into affiliate partners and other vendors.
// visibleCap <= 0 means DefaultVisibleOthers.
func Partition(ranked []VendorRecord, visibleCap int) Split {
	if visibleCap <= 0 {
		visibleCap = DefaultVisibleOthers
	}
	var s Split
	for _, v := range ranked {
		if IsAffiliate(v) {
			s.AffiliatePartners = append(s.AffiliatePartners, v)
		} else {
			s.OtherVendors = append(s.OtherVendors, v)
		}
	}
	n := len(s.OtherVendors)
	if n > visibleCap {
		s.VisibleOthers = s.OtherVendors[:visibleCap]
		s.HiddenOtherCount = n - visibleCap
	} else {
		s.VisibleOthers = s.OtherVendors
	}
	return s
}
