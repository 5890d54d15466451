package pricing

import (
	"testing"

	"github.com/relomove/leadbot/internal/models"
)

// loadTestConfig loads the embedded catalog so tests run against the real
// numbers instead of a synthetic fixture.
func loadTestConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	return cfg
}

func assertRange(t *testing.T, est Estimate, wantMin, wantMax int) {
	t.Helper()
	if est.Min != wantMin || est.Max != wantMax {
		t.Errorf("estimate range = %d-%d, want %d-%d (breakdown %+v)",
			est.Min, est.Max, wantMin, wantMax, est.Breakdown)
	}
}

func hasGuard(est Estimate, guard string) bool {
	for _, g := range est.Breakdown.GuardsApplied {
		if g == guard {
			return true
		}
	}
	return false
}

func TestEstimateBaseOnly(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{RouteBand: "same_city"}, cfg)

	// base 350, margin 0.15: floor(297.5) / ceil(402.5)
	assertRange(t, est, 297, 403)
	if est.Currency != "ILS" {
		t.Errorf("Currency = %q, want ILS", est.Currency)
	}
	if est.Breakdown.RouteFee != 0 {
		t.Errorf("same_city RouteFee = %v, want 0", est.Breakdown.RouteFee)
	}
	if len(est.Breakdown.GuardsApplied) != 0 {
		t.Errorf("unexpected guards: %v", est.Breakdown.GuardsApplied)
	}
}

func TestEstimateFloorSurcharge(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{
		PickupFloors:  []PickupFloor{{Floor: 3, HasElevator: false}},
		DeliveryFloor: PickupFloor{Floor: 1},
		RouteBand:     "same_city",
	}, cfg)

	// (3-1)*70 = 140; delivery on the ground floor is free.
	if est.Breakdown.FloorSurcharge != 140 {
		t.Fatalf("FloorSurcharge = %v, want 140", est.Breakdown.FloorSurcharge)
	}
	assertRange(t, est, 416, 564) // mid 490
}

func TestEstimateElevatorRemovesFloorSurcharge(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{
		PickupFloors: []PickupFloor{{Floor: 9, HasElevator: true}},
		RouteBand:    "same_city",
	}, cfg)

	if est.Breakdown.FloorSurcharge != 0 {
		t.Errorf("FloorSurcharge with elevator = %v, want 0", est.Breakdown.FloorSurcharge)
	}
	assertRange(t, est, 297, 403)
}

func TestEstimateHighFloorGuard(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{
		PickupFloors: []PickupFloor{{Floor: 6, HasElevator: false}},
		RouteBand:    "same_city",
	}, cfg)

	// (6-1)*70 = 350, then the high-floor multiplier: ceil(350*1.5) = 525.
	if est.Breakdown.FloorSurcharge != 525 {
		t.Fatalf("FloorSurcharge = %v, want 525", est.Breakdown.FloorSurcharge)
	}
	if !hasGuard(est, GuardHighFloor) {
		t.Errorf("GuardsApplied = %v, want %s", est.Breakdown.GuardsApplied, GuardHighFloor)
	}
	assertRange(t, est, 743, 1007) // mid 875
}

func TestEstimateExtraPickups(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{ExtraPickups: 2, RouteBand: "same_city"}, cfg)

	if est.Breakdown.PickupFee != 300 {
		t.Fatalf("PickupFee = %v, want 300", est.Breakdown.PickupFee)
	}
	assertRange(t, est, 552, 748) // mid 650
}

func TestEstimateVolumeSurcharge(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{Volume: models.VolumeMedium, RouteBand: "same_city"}, cfg)

	if est.Breakdown.VolumeSurcharge != 250 {
		t.Fatalf("VolumeSurcharge = %v, want 250", est.Breakdown.VolumeSurcharge)
	}
	assertRange(t, est, 510, 690) // mid 600
}

func TestEstimateItems(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{
		Items: []models.ItemCount{
			{Key: "sofa", Qty: 1},
			{Key: "box", Qty: 4},
			{Key: "hovercraft", Qty: 3}, // not in the catalog, skipped
		},
		RouteBand: "same_city",
	}, cfg)

	// sofa mid 300 + 4 boxes at mid 15 = 360.
	if est.Breakdown.ItemsMid != 360 {
		t.Fatalf("ItemsMid = %v, want 360", est.Breakdown.ItemsMid)
	}
	assertRange(t, est, 603, 817) // mid 710
}

func TestEstimateItemZeroQtyCountsAsOne(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{
		Items:     []models.ItemCount{{Key: "fridge", Qty: 0}},
		RouteBand: "same_city",
	}, cfg)

	if est.Breakdown.ItemsMid != 225 {
		t.Errorf("ItemsMid = %v, want 225", est.Breakdown.ItemsMid)
	}
}

func TestEstimateExtras(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{
		Extras:    []string{"packing", "temporary_storage", "juggling"},
		RouteBand: "same_city",
	}, cfg)

	// packing 200 directly, temporary_storage aliases to storage 300,
	// juggling matches nothing.
	if est.Breakdown.ExtrasAdj != 500 {
		t.Fatalf("ExtrasAdj = %v, want 500", est.Breakdown.ExtrasAdj)
	}
	assertRange(t, est, 722, 978) // mid 850
}

func TestEstimateRouteFee(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{RouteBand: "same_metro"}, cfg)

	if est.Breakdown.RouteFee != 50 {
		t.Fatalf("RouteFee = %v, want 50", est.Breakdown.RouteFee)
	}
	assertRange(t, est, 340, 460) // mid 400
}

func TestEstimateDistanceFactor(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{RouteBand: "same_city", DistanceFactor: 1.5}, cfg)

	assertRange(t, est, 446, 604) // mid 525
}

func TestEstimateRouteMinimum(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{RouteBand: "extreme_distance"}, cfg)

	// mid 1050 gives 892-1208, both below the 1500 route minimum.
	assertRange(t, est, 1500, 1500)
	if !est.Breakdown.MinimumApplied {
		t.Error("MinimumApplied = false, want true")
	}
	if est.Breakdown.RouteMinimum != 1500 {
		t.Errorf("RouteMinimum = %v, want 1500", est.Breakdown.RouteMinimum)
	}
	// 1500 already clears the national-move floor, so the guard stays quiet.
	if hasGuard(est, GuardNationalMove) {
		t.Errorf("unexpected guard %s: %v", GuardNationalMove, est.Breakdown.GuardsApplied)
	}
}

func TestEstimateNationalMoveGuard(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{RouteBand: "inter_region_long"}, cfg)

	// Route minimum raises 552-748 to 900-900, then the national guard
	// lifts both ends to 1000.
	assertRange(t, est, 1000, 1000)
	if !est.Breakdown.MinimumApplied {
		t.Error("MinimumApplied = false, want true")
	}
	if !hasGuard(est, GuardNationalMove) {
		t.Errorf("GuardsApplied = %v, want %s", est.Breakdown.GuardsApplied, GuardNationalMove)
	}
}

func TestEstimateXLVolumeGuard(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{Volume: models.VolumeXL, RouteBand: "same_city"}, cfg)

	// mid 1250: floor(1062.5) = 1062 is under the 1200 XL floor.
	assertRange(t, est, 1200, 1438)
	if !hasGuard(est, GuardXLVolume) {
		t.Errorf("GuardsApplied = %v, want %s", est.Breakdown.GuardsApplied, GuardXLVolume)
	}
}

func TestEstimateMonotonicInItems(t *testing.T) {
	cfg := loadTestConfig(t)

	prevMin, prevMax := 0, 0
	for qty := 1; qty <= 20; qty++ {
		est := EstimatePrice(Input{
			Items:     []models.ItemCount{{Key: "box", Qty: qty}},
			RouteBand: "same_city",
		}, cfg)
		if est.Min < prevMin || est.Max < prevMax {
			t.Fatalf("estimate shrank at qty %d: %d-%d after %d-%d",
				qty, est.Min, est.Max, prevMin, prevMax)
		}
		prevMin, prevMax = est.Min, est.Max
	}
}

func TestBreakdownMapComplete(t *testing.T) {
	cfg := loadTestConfig(t)

	est := EstimatePrice(Input{RouteBand: "same_city"}, cfg)
	m := est.Breakdown.BreakdownMap()

	keys := []string{
		"base", "floor_surcharge", "pickup_fee", "volume_surcharge",
		"items_mid", "extras_adj", "distance_factor", "route_band",
		"route_fee", "route_minimum", "minimum_applied", "guards_applied",
	}
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			t.Errorf("BreakdownMap missing key %q", k)
		}
	}
	guards, ok := m["guards_applied"].([]string)
	if !ok || guards == nil {
		t.Errorf("guards_applied = %#v, want empty non-nil []string", m["guards_applied"])
	}
}
