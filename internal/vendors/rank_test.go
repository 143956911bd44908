package vendors

import "testing"

func rec(id string, affiliate bool, pickup bool, priority int, cats ...string) VendorRecord {
	if len(cats) == 0 {
		cats = []string{CategoryAll}
	}
	network := ""
	if affiliate {
		network = "cj"
	}
	return VendorRecord{
		ID: id, Name: id, Slug: id,
		Categories:       cats,
		HasLocalPickup:   pickup,
		AffiliateNetwork: network,
		Priority:         priority,
		URLTemplate:      "https://example.com/{query}",
	}
}

func TestRank_AffiliateOutranksEverything(t *testing.T) {
	// The non-affiliate has higher priority and pickup; affiliate still wins.
	list := []VendorRecord{
		rec("big", false, true, 99),
		rec("partner", true, false, 1),
	}
	ranked := Rank(list)
	if ranked[0].ID != "partner" {
		t.Fatalf("expected affiliate first, got %s", ranked[0].ID)
	}
}

func TestRank_PickupThenPriority(t *testing.T) {
	list := []VendorRecord{
		rec("c", false, false, 90),
		rec("b", false, true, 10),
		rec("a", false, true, 50),
	}
	ranked := Rank(list)
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if ranked[i].ID != id {
			t.Fatalf("position %d: want %s got %s (full: %v)", i, id, ranked[i].ID, ids(ranked))
		}
	}
}

func TestRank_StableForEqualVendors(t *testing.T) {
	list := []VendorRecord{
		rec("first", false, false, 50),
		rec("second", false, false, 50),
	}
	ranked := Rank(list)
	if ranked[0].ID != "first" || ranked[1].ID != "second" {
		t.Fatalf("equal vendors must keep directory order, got %v", ids(ranked))
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	list := []VendorRecord{
		rec("z", false, false, 1),
		rec("a", true, false, 1),
	}
	Rank(list)
	if list[0].ID != "z" {
		t.Fatalf("input slice was reordered")
	}
}

func TestRankable_CategoryWildcardAndVehicleType(t *testing.T) {
	list := []VendorRecord{
		rec("generic", false, false, 10, CategoryAll),
		rec("atvshop", false, false, 10, "atv", "powersports"),
	}

	got := Rankable(list, Context{})
	if len(got) != 1 || got[0].ID != "generic" {
		t.Fatalf("no vehicle type: only wildcard vendors qualify, got %v", ids(got))
	}

	got = Rankable(list, Context{VehicleType: "atv"})
	if len(got) != 2 {
		t.Fatalf("atv context should admit both, got %v", ids(got))
	}

	got = Rankable(list, Context{VehicleType: "boat"})
	if len(got) != 1 || got[0].ID != "generic" {
		t.Fatalf("unknown vehicle type should admit only wildcard, got %v", ids(got))
	}
}

func TestRankable_FiltersAreStrictAND(t *testing.T) {
	pickupOEM := rec("both", false, true, 10)
	pickupOEM.SupportsOEM = true
	pickupOnly := rec("pickup", false, true, 10)

	list := []VendorRecord{pickupOEM, pickupOnly}
	ctx := Context{Filters: Filters{LocalPickupOnly: true, OEMOnly: true}}
	got := Rankable(list, ctx)
	if len(got) != 1 || got[0].ID != "both" {
		t.Fatalf("expected only the vendor matching every filter, got %v", ids(got))
	}
}

func TestRankable_CanReturnEmpty(t *testing.T) {
	list := []VendorRecord{rec("v", false, false, 10)}
	got := Rankable(list, Context{Filters: Filters{LocalPickupOnly: true}})
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", ids(got))
	}
}

func TestPartition_CapAndHiddenCount(t *testing.T) {
	var ranked []VendorRecord
	ranked = append(ranked, rec("aff1", true, false, 10), rec("aff2", true, false, 9))
	for _, id := range []string{"o1", "o2", "o3", "o4"} {
		ranked = append(ranked, rec(id, false, false, 5))
	}

	s := Partition(ranked, 3)
	if len(s.AffiliatePartners) != 2 {
		t.Errorf("affiliate partners: want 2 got %d", len(s.AffiliatePartners))
	}
	if len(s.VisibleOthers) != 3 || s.HiddenOtherCount != 1 {
		t.Errorf("visible=%d hidden=%d, want 3/1", len(s.VisibleOthers), s.HiddenOtherCount)
	}

	s = Partition(ranked, 10)
	if s.HiddenOtherCount != 0 || len(s.VisibleOthers) != 4 {
		t.Errorf("cap above count should hide nothing, got visible=%d hidden=%d",
			len(s.VisibleOthers), s.HiddenOtherCount)
	}
}

func ids(list []VendorRecord) []string {
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = v.ID
	}
	return out
}
