// Package projection converts raw backend segment records into canonical
// view records. Every tolerance for backend field drift (snake/camel date
// names, missing checkpoints, legacy area strings) is absorbed here so the
// rest of the code sees exactly one shape.
package projection

import (
	"fmt"
	"strings"

	"supplyChainTracking/internal/lifecycle"
	"supplyChainTracking/models"
)

// UnknownSegmentID is the sentinel display id used when a raw record carries
// no usable identifier at all. Guarantees every view has a non-empty key.
const UnknownSegmentID = "unknown-segment"

// UnknownLocation is the label used when no location field resolves.
const UnknownLocation = "Unknown"

// Project builds the canonical SegmentView for a raw segment. Pure and
// idempotent: identical input yields value-equal output.
func Project(raw models.RawSegment) models.SegmentView {
	v := models.SegmentView{
		DisplayID:        displayID(raw),
		ShipmentID:       raw.ShipmentID,
		SegmentOrder:     raw.SegmentOrder,
		Status:           raw.Status,
		Stage:            string(lifecycle.Normalize(raw.Status)),
		OriginLabel:      locationLabel(raw.StartCheckpoint, raw.StartArea),
		DestinationLabel: locationLabel(raw.EndCheckpoint, raw.EndArea),
		ExpectedShipDate: raw.ExpectedShipDate,
		ArrivalDate:      arrivalDate(raw),
		TimeTolerance:    raw.TimeTolerance,
		AreaTags:         areaTags(raw),
		Actions:          raw.Actions,
	}
	if raw.AcceptedAt != nil {
		v.AcceptedAt = *raw.AcceptedAt
	}
	if raw.HandedOverAt != nil {
		v.HandedOverAt = *raw.HandedOverAt
	}
	return v
}

// ProjectAll projects a slice of raw segments, preserving order.
func ProjectAll(raws []models.RawSegment) []models.SegmentView {
	views := make([]models.SegmentView, 0, len(raws))
	for _, r := range raws {
		views = append(views, Project(r))
	}
	return views
}

// displayID prefers segmentId, then id, then a synthesized
// shipmentId-segmentOrder pair, then the sentinel.
func displayID(raw models.RawSegment) string {
	if raw.SegmentID != "" {
		return raw.SegmentID
	}
	if raw.ID != "" {
		return raw.ID
	}
	if raw.ShipmentID != "" && raw.SegmentOrder > 0 {
		return fmt.Sprintf("%s-%d", raw.ShipmentID, raw.SegmentOrder)
	}
	return UnknownSegmentID
}

// arrivalDate resolves the arrival time across the field-name variants the
// backend has shipped over time, in priority order.
func arrivalDate(raw models.RawSegment) string {
	for _, s := range []string{raw.EstimatedArrival, raw.EstimatedArrivalAlt, raw.ExpectedArrival, raw.ExpectedArrivalAlt} {
		if s != "" {
			return s
		}
	}
	return ""
}

// locationLabel resolves a human-readable label: structured checkpoint name,
// then "state, country", then the raw area string, then "Unknown".
func locationLabel(cp *models.Checkpoint, area string) string {
	if cp != nil {
		if name := strings.TrimSpace(cp.Name); name != "" {
			return name
		}
		state := strings.TrimSpace(cp.State)
		country := strings.TrimSpace(cp.Country)
		switch {
		case state != "" && country != "":
			return state + ", " + country
		case state != "":
			return state
		case country != "":
			return country
		}
	}
	if a := strings.TrimSpace(area); a != "" {
		return a
	}
	return UnknownLocation
}

// areaTags collects every non-empty location-ish string on the record,
// deduplicated, in first-seen order.
func areaTags(raw models.RawSegment) []string {
	var tags []string
	seen := map[string]struct{}{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		tags = append(tags, s)
	}
	for _, cp := range []*models.Checkpoint{raw.StartCheckpoint, raw.EndCheckpoint} {
		if cp == nil {
			continue
		}
		add(cp.Name)
		add(cp.State)
		add(cp.Country)
	}
	add(raw.StartArea)
	add(raw.EndArea)
	return tags
}
