package main

import (
	"fmt"
	"io"
	"strconv"

	"guardpatrol.com/patrol/patrol/model"
	"guardpatrol.com/patrol/utils"
)

func parseCheckpoints(r io.Reader) ([]model.Checkpoint, error) {
	records, err := utils.ParseCSVRecords(r)
	if err != nil {
		return nil, err
	}

	cps := make([]model.Checkpoint, 0, len(records))
	for i, rec := range records {
		line := i + 2
		routeID, err := strconv.ParseInt(rec["route_id"], 10, 32)
		if err != nil || routeID <= 0 {
			return nil, fmt.Errorf("line %d: invalid route_id %q", line, rec["route_id"])
		}
		if rec["name"] == "" {
			return nil, fmt.Errorf("line %d: missing name", line)
		}
		cp := model.Checkpoint{
			RouteID:     int32(routeID),
			Name:        rec["name"],
			Description: rec["description"],
		}
		if cp.ExpectedLatitude, err = optionalFloat(rec["latitude"]); err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", line, err)
		}
		if cp.ExpectedLongitude, err = optionalFloat(rec["longitude"]); err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", line, err)
		}
		if (cp.ExpectedLatitude == nil) != (cp.ExpectedLongitude == nil) {
			return nil, fmt.Errorf("line %d: latitude and longitude go together", line)
		}
		if cp.ToleranceRadius, err = optionalFloat(rec["tolerance"]); err != nil {
			return nil, fmt.Errorf("line %d: tolerance: %w", line, err)
		}
		if cp.ToleranceRadius != nil && *cp.ToleranceRadius < 0 {
			return nil, fmt.Errorf("line %d: tolerance must not be negative", line)
		}
		cps = append(cps, cp)
	}
	return cps, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
