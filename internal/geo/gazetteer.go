// Package geo provides the locality gazetteer, free-text locality
// resolution and route band classification for the pricing engine.
//
// All data is loaded once at startup and treated as immutable; a reload is
// a rebuild of the whole Resolver followed by an atomic pointer swap at the
// call site.
package geo

import (
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"
)

//go:embed gazetteer.yaml
var gazetteerYAML []byte

// Locality is one immutable city/town record in the static gazetteer.
type Locality struct {
	Code   int    `yaml:"code" json:"code"`
	He     string `yaml:"he" json:"he"`
	En     string `yaml:"en" json:"en"`
	Ru     string `yaml:"ru" json:"ru"`
	Region int    `yaml:"region" json:"region"`
}

// Alias maps an alternative spelling to a locality code.
type Alias struct {
	Name string `yaml:"name"`
	Code int    `yaml:"code"`
}

// Gazetteer is the parsed static reference data.
type Gazetteer struct {
	Localities   []Locality       `yaml:"localities"`
	Aliases      []Alias          `yaml:"aliases"`
	Metros       map[string][]int `yaml:"metros"`
	ExtremeCodes []int            `yaml:"extreme_codes"`
}

// LoadGazetteer parses the embedded gazetteer.
func LoadGazetteer() (*Gazetteer, error) {
	return ParseGazetteer(gazetteerYAML)
}

// ParseGazetteer parses gazetteer YAML from an arbitrary source, for tests
// and for tenant-supplied supplementary files.
func ParseGazetteer(data []byte) (*Gazetteer, error) {
	var gz Gazetteer
	if err := yaml.Unmarshal(data, &gz); err != nil {
		slog.Error("ParseGazetteer: failed to parse gazetteer", "error", err)
		return nil, fmt.Errorf("failed to parse gazetteer: %w", err)
	}
	if len(gz.Localities) == 0 {
		return nil, fmt.Errorf("gazetteer contains no localities")
	}
	slog.Debug("ParseGazetteer: gazetteer loaded", "localities", len(gz.Localities), "aliases", len(gz.Aliases), "metros", len(gz.Metros))
	return &gz, nil
}

// ByCode returns the locality with the given code, or nil.
func (gz *Gazetteer) ByCode(code int) *Locality {
	for i := range gz.Localities {
		if gz.Localities[i].Code == code {
			return &gz.Localities[i]
		}
	}
	return nil
}
