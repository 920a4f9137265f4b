package core

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/mapfoundry/cityprint/model"
)

const overpassFixture = `{
 "version": 0.6,
 "generator": "Overpass API",
 "elements": [
  {"type": "node", "id": 1, "lat": 52.500, "lon": 13.400},
  {"type": "node", "id": 2, "lat": 52.500, "lon": 13.401},
  {"type": "node", "id": 3, "lat": 52.501, "lon": 13.401},
  {"type": "node", "id": 4, "lat": 52.501, "lon": 13.400},
  {"type": "way", "id": 10, "nodes": [1, 2, 3, 4, 1],
   "tags": {"building": "yes", "height": "21"}},
  {"type": "way", "id": 11, "nodes": [1, 3],
   "tags": {"highway": "residential"}},
  {"type": "way", "id": 12, "nodes": [1, 999],
   "tags": {"building": "yes"}},
  {"type": "way", "id": 13, "nodes": [2, 3]},
  {"type": "relation", "id": 100,
   "members": [
    {"type": "way", "ref": 13, "role": "outer"},
    {"type": "way", "ref": 11, "role": "inner"},
    {"type": "node", "ref": 1, "role": ""}
   ],
   "tags": {"natural": "water"}}
 ]
}`

func findElement(t *testing.T, region *Region, id int64, kind model.ElementKind) model.Element {
	t.Helper()
	for _, el := range region.Elements {
		if el.ID == id && el.Kind == kind {
			return el
		}
	}
	t.Fatalf("element %d (%s) not loaded", id, kind)
	return model.Element{}
}

func TestLoadRegion_ResolvesWayNodes(t *testing.T) {
	region, err := LoadRegion(strings.NewReader(overpassFixture), orb.Bound{})
	if err != nil {
		t.Fatalf("LoadRegion: %v", err)
	}

	way := findElement(t, region, 10, model.ElementWay)
	if len(way.Points) != 5 {
		t.Fatalf("way 10 resolved to %d points, want 5", len(way.Points))
	}
	if got := way.Points[0]; got != (orb.Point{13.400, 52.500}) {
		t.Errorf("way 10 first point = %v", got)
	}
	if v := way.Tags.Find("height"); v != "21" {
		t.Errorf("way 10 height tag = %q, want 21", v)
	}
}

func TestLoadRegion_DanglingReferenceDropsWay(t *testing.T) {
	region, err := LoadRegion(strings.NewReader(overpassFixture), orb.Bound{})
	if err != nil {
		t.Fatalf("LoadRegion: %v", err)
	}

	// Way 12 references node 999, which does not exist: one point survives,
	// below the two-point minimum, so the whole way is dropped.
	for _, el := range region.Elements {
		if el.ID == 12 && el.Kind == model.ElementWay {
			t.Fatalf("way 12 loaded with %d points, want dropped", len(el.Points))
		}
	}
}

func TestLoadRegion_RelationOuterMembers(t *testing.T) {
	region, err := LoadRegion(strings.NewReader(overpassFixture), orb.Bound{})
	if err != nil {
		t.Fatalf("LoadRegion: %v", err)
	}

	rel := findElement(t, region, 100, model.ElementRelation)
	if v := rel.Tags.Find("natural"); v != "water" {
		t.Errorf("relation tags = %v, want natural=water", rel.Tags)
	}
	if len(rel.Points) != 2 {
		t.Errorf("relation outer geometry has %d points, want 2 (way 13)", len(rel.Points))
	}

	// The inner-role member must not contribute a second element.
	count := 0
	for _, el := range region.Elements {
		if el.Kind == model.ElementRelation && el.ID == 100 {
			count++
		}
	}
	if count != 1 {
		t.Errorf("relation 100 contributed %d elements, want 1", count)
	}
}

func TestLoadRegion_DerivesBoundFromData(t *testing.T) {
	region, err := LoadRegion(strings.NewReader(overpassFixture), orb.Bound{})
	if err != nil {
		t.Fatalf("LoadRegion: %v", err)
	}

	if region.Bound.IsZero() {
		t.Fatal("bound not derived from node extent")
	}
	if region.Bound.Min != (orb.Point{13.400, 52.500}) {
		t.Errorf("Bound.Min = %v", region.Bound.Min)
	}
	if region.Bound.Max != (orb.Point{13.401, 52.501}) {
		t.Errorf("Bound.Max = %v", region.Bound.Max)
	}
}

func TestLoadRegion_ExplicitBoundKept(t *testing.T) {
	want := orb.Bound{Min: orb.Point{13.0, 52.0}, Max: orb.Point{14.0, 53.0}}
	region, err := LoadRegion(strings.NewReader(overpassFixture), want)
	if err != nil {
		t.Fatalf("LoadRegion: %v", err)
	}
	if region.Bound != want {
		t.Errorf("Bound = %v, want the caller's %v", region.Bound, want)
	}
}

func TestLoadRegion_RejectsMalformedInput(t *testing.T) {
	if _, err := LoadRegion(strings.NewReader("not json"), orb.Bound{}); err == nil {
		t.Fatal("malformed input accepted")
	}
}
