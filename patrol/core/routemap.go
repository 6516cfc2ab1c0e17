package core

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"guardpatrol.com/patrol/patrol/model"
)

// RoundPoint is a route checkpoint annotated with its mark in one round.
type RoundPoint struct {
	model.Checkpoint
	Marked   bool       `json:"marked"`
	MarkedAt *time.Time `json:"markedAt"`
}

// RoundMap renders a round as GeoJSON: one LineString through the located
// checkpoints in route order plus one Point per located checkpoint.
// Checkpoints without an expected coordinate are left out.
func RoundMap(round model.Round, points []RoundPoint) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	var line orb.LineString
	for i, p := range points {
		if !p.Geofenced() {
			continue
		}
		pt := orb.Point{*p.ExpectedLongitude, *p.ExpectedLatitude}
		line = append(line, pt)

		f := geojson.NewFeature(pt)
		f.ID = p.ID
		f.Properties["kind"] = "checkpoint"
		f.Properties["name"] = p.Name
		f.Properties["order"] = i + 1
		f.Properties["marked"] = p.Marked
		if p.MarkedAt != nil {
			f.Properties["markedAt"] = p.MarkedAt.Format(time.RFC3339)
		}
		if p.ToleranceRadius != nil {
			f.Properties["toleranceRadius"] = *p.ToleranceRadius
		}
		fc.Append(f)
	}

	if len(line) >= 2 {
		f := geojson.NewFeature(line)
		f.Properties["kind"] = "route"
		f.Properties["roundId"] = round.ID
		f.Properties["routeId"] = round.RouteID
		f.Properties["status"] = round.Status.String()
		fc.Features = append([]*geojson.Feature{f}, fc.Features...)
	}
	return fc
}
