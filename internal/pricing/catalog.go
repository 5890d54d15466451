// Package pricing implements the multi-factor price estimation engine and
// its declarative catalog. The catalog is loaded once at startup and is
// immutable thereafter; per-request only the distance factor varies.
package pricing

import (
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// ItemPrice is the catalog (min, max) price range for one canonical item.
type ItemPrice struct {
	Min     float64  `yaml:"min"`
	Max     float64  `yaml:"max"`
	Aliases []string `yaml:"aliases"`
}

// Mid returns the midpoint of the catalog range. Item costs always use the
// midpoint so the estimate has a stable center value instead of a wide band.
func (p ItemPrice) Mid() float64 {
	return (p.Min + p.Max) / 2
}

// Guards holds the underpricing guard thresholds, each independently
// toggleable.
type Guards struct {
	XLVolumeEnabled     bool    `yaml:"xl_volume_enabled"`
	XLVolumeMin         float64 `yaml:"xl_volume_min"`
	NationalMoveEnabled bool    `yaml:"national_move_enabled"`
	NationalMoveMin     float64 `yaml:"national_move_min"`
}

// Config is the full pricing catalog. All fields are read-only after load;
// hot reload is an atomic swap of the whole value.
type Config struct {
	Currency            string               `yaml:"currency"`
	BaseFee             float64              `yaml:"base_fee"`
	PerFloorRate        float64              `yaml:"per_floor_rate"`
	ExtraPickupFee      float64              `yaml:"extra_pickup_fee"`
	Margin              float64              `yaml:"margin"`
	HighFloorThreshold  int                  `yaml:"high_floor_threshold"`
	HighFloorMultiplier float64              `yaml:"high_floor_multiplier"`
	VolumeSurcharges    map[string]float64   `yaml:"volume_surcharges"`
	Items               map[string]ItemPrice `yaml:"items"`
	ExtrasAdjustments   map[string]float64   `yaml:"extras_adjustments"`
	ExtrasAliases       map[string]string    `yaml:"extras_aliases"`
	RouteFees           map[string]float64   `yaml:"route_fees"`
	RouteMinimums       map[string]float64   `yaml:"route_minimums"`
	Guards              Guards               `yaml:"guards"`
}

// LoadConfig parses the embedded pricing catalog.
func LoadConfig() (*Config, error) {
	return ParseConfig(catalogYAML)
}

// ParseConfig parses catalog YAML from an arbitrary source, for tests and
// tenant-specific catalogs.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		slog.Error("ParseConfig: failed to parse pricing catalog", "error", err)
		return nil, fmt.Errorf("failed to parse pricing catalog: %w", err)
	}
	if cfg.BaseFee <= 0 {
		return nil, fmt.Errorf("pricing catalog has no base fee")
	}
	if cfg.Margin <= 0 || cfg.Margin >= 1 {
		return nil, fmt.Errorf("pricing margin must be in (0, 1), got %v", cfg.Margin)
	}
	slog.Debug("ParseConfig: pricing catalog loaded",
		"items", len(cfg.Items), "routeFees", len(cfg.RouteFees), "currency", cfg.Currency)
	return &cfg, nil
}

// ItemAliases returns the canonical-key to alias-list mapping for building
// the item extraction lookup.
func (c *Config) ItemAliases() map[string][]string {
	out := make(map[string][]string, len(c.Items))
	for key, item := range c.Items {
		out[key] = item.Aliases
	}
	return out
}
