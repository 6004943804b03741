package models

// SegmentView is the canonical, display-ready projection of a RawSegment.
// Every view has a non-empty stable DisplayID; label fields never come back
// empty (worst case "Unknown"). Produced by the projection layer, consumed
// by bucketing, authorization and the gateway.
type SegmentView struct {
	DisplayID    string `json:"displayId"`
	ShipmentID   string `json:"shipmentId,omitempty"`
	SegmentOrder int    `json:"segmentOrder,omitempty"`
	Status       string `json:"status"`
	Stage        string `json:"stage"`

	OriginLabel      string `json:"originLabel"`
	DestinationLabel string `json:"destinationLabel"`

	ExpectedShipDate string `json:"expectedShipDate,omitempty"`
	ArrivalDate      string `json:"arrivalDate,omitempty"`
	TimeTolerance    string `json:"timeTolerance,omitempty"`

	AcceptedAt   string `json:"acceptedAt,omitempty"`
	HandedOverAt string `json:"handedOverAt,omitempty"`

	// AreaTags is the deduplicated set of every non-empty location-ish
	// string found on the raw record, for free-text search and filtering.
	AreaTags []string `json:"areaTags,omitempty"`

	Actions *SegmentActions `json:"actions,omitempty"`
}
