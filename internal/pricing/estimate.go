package pricing

import (
	"log/slog"
	"math"

	"github.com/relomove/leadbot/internal/models"
)

// Guard names recorded in the breakdown when a guard fires.
const (
	GuardHighFloor    = "high_floor"
	GuardXLVolume     = "xl_volume_floor"
	GuardNationalMove = "national_move_minimum"
)

// PickupFloor is the floor information for one pickup address.
type PickupFloor struct {
	Floor       int
	HasElevator bool
}

// Input is everything EstimatePrice needs, all owned by the caller.
type Input struct {
	Items          []models.ItemCount
	Volume         models.VolumeCategory
	PickupFloors   []PickupFloor // 1..3 pickups; first is the primary origin
	DeliveryFloor  PickupFloor
	ExtraPickups   int // pickups beyond the first
	Extras         []string
	RouteBand      string
	DistanceFactor float64 // legacy coarse multiplier; 0 means 1.0
}

// Breakdown itemizes every surcharge component of an estimate. It is
// consumed by both the user-facing summary and the operator detail view and
// never drops a component.
type Breakdown struct {
	Base            float64  `json:"base"`
	FloorSurcharge  float64  `json:"floor_surcharge"`
	PickupFee       float64  `json:"pickup_fee"`
	VolumeSurcharge float64  `json:"volume_surcharge"`
	ItemsMid        float64  `json:"items_mid"`
	ExtrasAdj       float64  `json:"extras_adj"`
	DistanceFactor  float64  `json:"distance_factor"`
	RouteBand       string   `json:"route_band"`
	RouteFee        float64  `json:"route_fee"`
	RouteMinimum    float64  `json:"route_minimum"`
	MinimumApplied  bool     `json:"minimum_applied"`
	GuardsApplied   []string `json:"guards_applied"`
}

// Estimate is the price range returned to the conversation flow.
type Estimate struct {
	Min       int       `json:"estimate_min"`
	Max       int       `json:"estimate_max"`
	Currency  string    `json:"currency"`
	Breakdown Breakdown `json:"breakdown"`
}

// EstimatePrice combines base fee, floor surcharges, per-item midpoints,
// volume and extras adjustments, route fee and the underpricing guards into
// a (min, max) estimate. Pure and deterministic: same input, same estimate.
func EstimatePrice(in Input, cfg *Config) Estimate {
	bd := Breakdown{
		Base:           cfg.BaseFee,
		RouteBand:      in.RouteBand,
		DistanceFactor: in.DistanceFactor,
	}
	if bd.DistanceFactor == 0 {
		bd.DistanceFactor = 1.0
	}

	// Floor surcharge over every pickup floor plus the delivery floor.
	// Ground level (0/1) is always free; an elevator removes the charge.
	floors := append([]PickupFloor{}, in.PickupFloors...)
	floors = append(floors, in.DeliveryFloor)
	highFloorHit := false
	for _, f := range floors {
		if f.HasElevator || f.Floor <= 1 {
			continue
		}
		bd.FloorSurcharge += float64(f.Floor-1) * cfg.PerFloorRate
		if cfg.HighFloorThreshold > 0 && f.Floor >= cfg.HighFloorThreshold {
			highFloorHit = true
		}
	}
	if highFloorHit && cfg.HighFloorMultiplier > 1 {
		bd.FloorSurcharge = math.Ceil(bd.FloorSurcharge * cfg.HighFloorMultiplier)
		bd.GuardsApplied = append(bd.GuardsApplied, GuardHighFloor)
	}

	if in.ExtraPickups > 0 {
		bd.PickupFee = cfg.ExtraPickupFee * float64(in.ExtraPickups)
	}

	if in.Volume != "" {
		bd.VolumeSurcharge = cfg.VolumeSurcharges[string(in.Volume)]
	}

	for _, item := range in.Items {
		price, ok := cfg.Items[item.Key]
		if !ok {
			slog.Debug("EstimatePrice: item not in catalog, skipped", "key", item.Key)
			continue
		}
		qty := item.Qty
		if qty < 1 {
			qty = 1
		}
		bd.ItemsMid += price.Mid() * float64(qty)
	}

	for _, extra := range in.Extras {
		if adj, ok := cfg.ExtrasAdjustments[extra]; ok {
			bd.ExtrasAdj += adj
			continue
		}
		if mapped, ok := cfg.ExtrasAliases[extra]; ok {
			bd.ExtrasAdj += cfg.ExtrasAdjustments[mapped]
		}
	}

	bd.RouteFee = cfg.RouteFees[in.RouteBand]

	mid := (bd.Base + bd.FloorSurcharge + bd.PickupFee + bd.VolumeSurcharge +
		bd.ExtrasAdj + bd.RouteFee + bd.ItemsMid) * bd.DistanceFactor

	min := math.Floor(mid * (1 - cfg.Margin))
	max := math.Ceil(mid * (1 + cfg.Margin))

	// Route minimum floor.
	if routeMin, ok := cfg.RouteMinimums[in.RouteBand]; ok && routeMin > 0 {
		bd.RouteMinimum = routeMin
		if min < routeMin {
			min = routeMin
			bd.MinimumApplied = true
			if max < min {
				max = min
			}
		}
	}

	// Underpricing guards, each independently toggleable.
	if cfg.Guards.XLVolumeEnabled && in.Volume == models.VolumeXL && min < cfg.Guards.XLVolumeMin {
		min = cfg.Guards.XLVolumeMin
		if max < min {
			max = min
		}
		bd.GuardsApplied = append(bd.GuardsApplied, GuardXLVolume)
	}
	if cfg.Guards.NationalMoveEnabled && isNationalBand(in.RouteBand) && min < cfg.Guards.NationalMoveMin {
		min = cfg.Guards.NationalMoveMin
		if max < min {
			max = min
		}
		bd.GuardsApplied = append(bd.GuardsApplied, GuardNationalMove)
	}

	est := Estimate{
		Min:       int(min),
		Max:       int(max),
		Currency:  cfg.Currency,
		Breakdown: bd,
	}
	slog.Debug("EstimatePrice: computed",
		"min", est.Min, "max", est.Max, "band", in.RouteBand,
		"guards", bd.GuardsApplied, "minimumApplied", bd.MinimumApplied)
	return est
}

// isNationalBand reports whether the band counts as a national move for the
// national-move underpricing guard.
func isNationalBand(band string) bool {
	return band == "inter_region_long" || band == "extreme_distance"
}

// BreakdownMap renders the breakdown as a generic map for storage inside
// LeadData. Every component is present even when zero.
func (b Breakdown) BreakdownMap() map[string]interface{} {
	guards := b.GuardsApplied
	if guards == nil {
		guards = []string{}
	}
	return map[string]interface{}{
		"base":             b.Base,
		"floor_surcharge":  b.FloorSurcharge,
		"pickup_fee":       b.PickupFee,
		"volume_surcharge": b.VolumeSurcharge,
		"items_mid":        b.ItemsMid,
		"extras_adj":       b.ExtrasAdj,
		"distance_factor":  b.DistanceFactor,
		"route_band":       b.RouteBand,
		"route_fee":        b.RouteFee,
		"route_minimum":    b.RouteMinimum,
		"minimum_applied":  b.MinimumApplied,
		"guards_applied":   guards,
	}
}
