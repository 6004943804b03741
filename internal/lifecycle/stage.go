package lifecycle

import "strings"

// Stage is the canonical lifecycle stage of a shipment segment. The set is
// closed and ordered; Stages() yields the UI tab order.
type Stage string

const (
	StagePending   Stage = "PENDING"
	StageAccepted  Stage = "ACCEPTED"
	StageInTransit Stage = "IN_TRANSIT"
	StageDelivered Stage = "DELIVERED"
	StageClosed    Stage = "CLOSED"
	// StageCancelled is an absorbing side branch reachable from any
	// non-terminal stage.
	StageCancelled Stage = "CANCELLED"
)

// Stages returns all stages in display order.
func Stages() []Stage {
	return []Stage{StagePending, StageAccepted, StageInTransit, StageDelivered, StageClosed, StageCancelled}
}

// statusTable maps every backend status string (uppercased) to its canonical
// stage. The set is fixed at build time; anything outside it normalizes to
// PENDING.
var statusTable = map[string]Stage{
	"PENDING":                        StagePending,
	"PENDING_ACCEPTANCE":             StagePending,
	"PREPARING":                      StagePending,
	"AWAITING_SUPPLIER_CONFIRMATION": StagePending,
	"PENDING_SUPPLIER":               StagePending,
	"AWAITING_SUPPLIER":              StagePending,
	"ACCEPTED":                       StageAccepted,
	"IN_TRANSIT":                     StageInTransit,
	"READY_FOR_HANDOVER":             StageInTransit,
	"HANDOVER_PENDING":               StageInTransit,
	"DELIVERED":                      StageDelivered,
	"HANDOVER_READY":                 StageDelivered,
	"HANDOVER_COMPLETED":             StageDelivered,
	"COMPLETED":                      StageDelivered,
	"CLOSED":                         StageClosed,
	"CANCELLED":                      StageCancelled,
	"REJECTED":                       StageCancelled,
}

// Normalize maps a raw backend status string to its canonical stage.
// Matching is case-insensitive and ignores surrounding whitespace. Unknown
// or empty input maps to PENDING: an unrecognized status must not hide a
// segment from the pending queue. Total; never fails.
func Normalize(raw string) Stage {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if s, ok := statusTable[key]; ok {
		return s
	}
	return StagePending
}
