package geo

import (
	"log/slog"

	"github.com/relomove/leadbot/internal/models"
)

// RouteBand is a coarse distance-tier classification between two localities.
type RouteBand string

const (
	// BandUnknown is assigned when either endpoint cannot be resolved.
	// Pricing degrades gracefully on this band; the flow never blocks.
	BandUnknown RouteBand = "unknown"
	// BandSameCity means both endpoints resolve to the same locality.
	BandSameCity RouteBand = "same_city"
	// BandSameMetro means both endpoints sit in one metro cluster.
	BandSameMetro RouteBand = "same_metro"
	// BandInterRegionShort means both endpoints share a macro-region.
	BandInterRegionShort RouteBand = "inter_region_short"
	// BandInterRegionLong means different macro-regions, neither extreme.
	BandInterRegionLong RouteBand = "inter_region_long"
	// BandExtremeDistance means one endpoint is a designated remote locality.
	BandExtremeDistance RouteBand = "extreme_distance"
)

// Classification is the derived, ephemeral route value object. It is stored
// inside LeadData for audit/display but never persisted on its own.
type Classification struct {
	Band         RouteBand                  `json:"band"`
	FromLocality string                     `json:"from_locality,omitempty"`
	ToLocality   string                     `json:"to_locality,omitempty"`
	FromRegion   *int                       `json:"from_region,omitempty"`
	ToRegion     *int                       `json:"to_region,omitempty"`
	FromNames    map[models.Language]string `json:"from_names,omitempty"`
	ToNames      map[models.Language]string `json:"to_names,omitempty"`
}

// Classifier buckets an origin/destination pair into a route band. It is a
// deterministic pure function of its inputs with no I/O.
type Classifier struct {
	resolver    *Resolver
	metroByCode map[int]string
	extreme     map[int]bool
}

// NewClassifier builds a classifier over the resolver's gazetteer.
func NewClassifier(resolver *Resolver) *Classifier {
	c := &Classifier{
		resolver:    resolver,
		metroByCode: make(map[int]string),
		extreme:     make(map[int]bool),
	}
	for name, codes := range resolver.gz.Metros {
		for _, code := range codes {
			c.metroByCode[code] = name
		}
	}
	for _, code := range resolver.gz.ExtremeCodes {
		c.extreme[code] = true
	}
	return c
}

// Classify resolves both endpoints and assigns a band, first match wins:
// unresolved endpoint, same locality, same metro cluster, same macro-region,
// extreme locality, then inter-region long.
func (c *Classifier) Classify(fromText, toText string) Classification {
	from := c.resolver.Find(fromText)
	to := c.resolver.Find(toText)

	cls := Classification{Band: BandUnknown}
	if from != nil {
		cls.FromLocality = from.En
		region := from.Region
		cls.FromRegion = &region
		cls.FromNames = localityNames(from)
	}
	if to != nil {
		cls.ToLocality = to.En
		region := to.Region
		cls.ToRegion = &region
		cls.ToNames = localityNames(to)
	}

	switch {
	case from == nil || to == nil:
		cls.Band = BandUnknown
	case from.Code == to.Code:
		cls.Band = BandSameCity
	case c.metroByCode[from.Code] != "" && c.metroByCode[from.Code] == c.metroByCode[to.Code]:
		cls.Band = BandSameMetro
	case from.Region == to.Region:
		cls.Band = BandInterRegionShort
	case c.extreme[from.Code] || c.extreme[to.Code]:
		cls.Band = BandExtremeDistance
	default:
		cls.Band = BandInterRegionLong
	}

	slog.Debug("Classifier.Classify: route classified",
		"band", cls.Band, "from", cls.FromLocality, "to", cls.ToLocality)
	return cls
}

func localityNames(loc *Locality) map[models.Language]string {
	return map[models.Language]string{
		models.LanguageHebrew:  loc.He,
		models.LanguageEnglish: loc.En,
		models.LanguageRussian: loc.Ru,
	}
}
