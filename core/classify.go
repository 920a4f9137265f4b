package core

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"github.com/mapfoundry/cityprint/model"
)

// Classify buckets resolved elements into feature categories, projects their
// geometry into the planar frame centred on center, and estimates building
// heights. It also accumulates the height range over all buildings with a
// positive estimated height; that range is the sole input to the print
// height normalisation later on.
func Classify(elements []model.Element, center orb.Point) ([]model.ClassifiedFeature, model.HeightStats) {
	features := make([]model.ClassifiedFeature, 0, len(elements))
	stats := model.NewHeightStats()

	for _, el := range elements {
		f := model.ClassifiedFeature{
			ID:       el.ID,
			Kind:     el.Kind,
			Category: categorize(el),
			Points:   ProjectRing(el.Points, center),
		}
		if f.Category == model.CategoryBuilding {
			f.RealHeightM = estimateBuildingHeight(el.Tags)
			stats.Observe(f.RealHeightM)
		}
		features = append(features, f)
	}

	return features, stats
}

func categorize(el model.Element) model.Category {
	tags := el.Tags
	switch {
	case tags.Find("building") != "":
		return model.CategoryBuilding
	case el.Kind == model.ElementWay && tags.Find("highway") != "":
		// Every highway sub-kind collapses into one road category.
		return model.CategoryHighway
	case tags.Find("leisure") == "park":
		return model.CategoryPark
	case tags.Find("natural") == "water" || tags.Find("water") != "":
		return model.CategoryWater
	case tags.Find("natural") == "sand":
		return model.CategorySand
	default:
		return model.CategoryIgnored
	}
}

// estimateBuildingHeight derives a real-world height in metres. Precedence:
// explicit height tag, then building:levels times three metres per level,
// then a fixed default. Unparsable numeric tags fall through to the next
// rule, never fail.
func estimateBuildingHeight(tags osm.Tags) float64 {
	if h, ok := parseMeters(tags.Find("height")); ok {
		return h
	}
	if levels, ok := parseMeters(tags.Find("building:levels")); ok {
		return levels * model.MetersPerLevel
	}
	return model.DefaultBuildingHeightM
}

// parseMeters parses a numeric OSM tag value, tolerating a trailing unit
// suffix such as "12 m".
func parseMeters(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if fields := strings.Fields(raw); len(fields) > 0 {
		raw = strings.TrimSuffix(fields[0], "m")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
