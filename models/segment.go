package models

// Checkpoint is a named physical location used as a segment endpoint.
// Fields are immutable once the segment is created.
type Checkpoint struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// SegmentActions carries server-computed capability hints for a segment.
// Flags are advisory: a nil pointer means the server did not say, which the
// client treats as allowed.
type SegmentActions struct {
	CanAccept   *bool `json:"canAccept,omitempty"`
	CanTakeover *bool `json:"canTakeover,omitempty"`
	CanHandover *bool `json:"canHandover,omitempty"`
	CanDeliver  *bool `json:"canDeliver,omitempty"`
}

// RawSegment is one leg of a shipment's route as returned by the backend.
// Endpoint versions disagree on field naming, so date fields exist in both
// camelCase and snake_case variants; the projection layer picks the first
// non-empty one. Timestamps stay strings here because the backend is not
// consistent about formats either.
type RawSegment struct {
	SegmentID    string `json:"segmentId,omitempty"`
	ID           string `json:"id,omitempty"`
	ShipmentID   string `json:"shipmentId,omitempty"`
	SegmentOrder int    `json:"segmentOrder,omitempty"`
	Status       string `json:"status,omitempty"`

	StartCheckpoint *Checkpoint `json:"startCheckpoint,omitempty"`
	EndCheckpoint   *Checkpoint `json:"endCheckpoint,omitempty"`
	// Free-text area strings used by older endpoints instead of checkpoints.
	StartArea string `json:"startArea,omitempty"`
	EndArea   string `json:"endArea,omitempty"`

	ExpectedShipDate    string `json:"expectedShipDate,omitempty"`
	EstimatedArrival    string `json:"estimatedArrivalDate,omitempty"`
	EstimatedArrivalAlt string `json:"estimated_arrival_date,omitempty"`
	ExpectedArrival     string `json:"expectedArrivalDate,omitempty"`
	ExpectedArrivalAlt  string `json:"expected_arrival_date,omitempty"`
	TimeTolerance       string `json:"timeTolerance,omitempty"`

	AcceptedAt   *string `json:"acceptedAt,omitempty"`
	HandedOverAt *string `json:"handedOverAt,omitempty"`

	Actions *SegmentActions `json:"actions,omitempty"`
}

// Shipment is a logical consignment spanning one or more ordered segments.
type Shipment struct {
	ID             string       `json:"id,omitempty"`
	ShipmentID     string       `json:"shipmentId,omitempty"`
	Status         string       `json:"status,omitempty"`
	ManufacturerID string       `json:"manufacturerId,omitempty"`
	DestinationID  string       `json:"destinationId,omitempty"`
	TotalSegments  int          `json:"totalSegments,omitempty"`
	Segments       []RawSegment `json:"segments,omitempty"`
	PackageIDs     []string     `json:"packageIds,omitempty"`
	CreatedAt      string       `json:"createdAt,omitempty"`
}

// DisplayID returns the shipment identifier preferring the explicit
// shipmentId field over the generic id.
func (s *Shipment) DisplayID() string {
	if s.ShipmentID != "" {
		return s.ShipmentID
	}
	return s.ID
}

// RouteLeg is one leg of a shipment creation request: both checkpoint ids
// must be set for the leg to be valid.
type RouteLeg struct {
	StartCheckpointID string `json:"startCheckpointId"`
	EndCheckpointID   string `json:"endCheckpointId"`
	ExpectedShipDate  string `json:"expectedShipDate,omitempty"`
	EstimatedArrival  string `json:"estimatedArrivalDate,omitempty"`
	TimeTolerance     string `json:"timeTolerance,omitempty"`
}

// CreateShipmentRequest is the payload for the create-shipment command.
type CreateShipmentRequest struct {
	DestinationID string     `json:"destinationId"`
	PackageIDs    []string   `json:"packageIds"`
	Legs          []RouteLeg `json:"legs"`
}
