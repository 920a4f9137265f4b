package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"github.com/mapfoundry/cityprint/model"
)

// Region is the resolved input for one pipeline run: the geographic
// selection bound and every way or relation inside it with its node
// references resolved to coordinates.
type Region struct {
	Bound    orb.Bound
	Elements []model.Element
}

// LoadRegion decodes an Overpass-style OSM JSON document and resolves way
// node references against the document's node set. Dangling references are
// filtered out before use; a way whose resolved geometry drops below two
// points is dropped entirely. Multipolygon relations contribute one element
// per outer member way, carrying the relation's tags.
//
// When bound is the zero bound the selection rectangle is derived from the
// extent of the resolved nodes.
func LoadRegion(r io.Reader, bound orb.Bound) (*Region, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("load region: read: %w", err)
	}

	var doc osm.OSM
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("load region: decode osm json: %w", err)
	}

	nodes := make(map[osm.NodeID]*osm.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		nodes[n.ID] = n
	}
	ways := make(map[osm.WayID]*osm.Way, len(doc.Ways))
	for _, w := range doc.Ways {
		ways[w.ID] = w
	}

	resolve := func(w *osm.Way) []orb.Point {
		pts := make([]orb.Point, 0, len(w.Nodes))
		for _, wn := range w.Nodes {
			if n, ok := nodes[wn.ID]; ok {
				pts = append(pts, orb.Point{n.Lon, n.Lat})
				continue
			}
			if wn.Lon != 0 || wn.Lat != 0 {
				// Overpass "out geom" inlines coordinates on way nodes.
				pts = append(pts, orb.Point{wn.Lon, wn.Lat})
			}
		}
		return pts
	}

	region := &Region{Bound: bound}
	for _, w := range doc.Ways {
		pts := resolve(w)
		if len(pts) < 2 {
			continue
		}
		region.Elements = append(region.Elements, model.Element{
			ID:     int64(w.ID),
			Kind:   model.ElementWay,
			Tags:   w.Tags,
			Points: pts,
		})
	}
	for _, rel := range doc.Relations {
		for _, member := range rel.Members {
			if member.Type != osm.TypeWay {
				continue
			}
			if member.Role != "outer" && member.Role != "" {
				continue
			}
			w, ok := ways[osm.WayID(member.Ref)]
			if !ok {
				continue
			}
			pts := resolve(w)
			if len(pts) < 2 {
				continue
			}
			region.Elements = append(region.Elements, model.Element{
				ID:     int64(rel.ID),
				Kind:   model.ElementRelation,
				Tags:   rel.Tags,
				Points: pts,
			})
		}
	}

	if region.Bound.IsZero() {
		region.Bound = extentOf(region.Elements)
	}
	return region, nil
}

func extentOf(elements []model.Element) orb.Bound {
	var b orb.Bound
	first := true
	for _, el := range elements {
		for _, p := range el.Points {
			if first {
				b = orb.Bound{Min: p, Max: p}
				first = false
				continue
			}
			b = b.Extend(p)
		}
	}
	return b
}
