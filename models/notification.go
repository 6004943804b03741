package models

// Severity orders notifications by urgency.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeveritySuccess  Severity = "SUCCESS"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// Notification is an at-most-once-delivered event record. Created
// server-side; the client only flips read/dismissed (forwarded to the
// server), never deletes.
type Notification struct {
	ID          string            `db:"id" json:"id"`
	Type        string            `db:"type" json:"type"`
	Severity    Severity          `db:"severity" json:"severity"`
	Title       string            `db:"title" json:"title,omitempty"`
	Message     string            `db:"message" json:"message,omitempty"`
	Read        bool              `db:"read" json:"read"`
	Dismissed   bool              `db:"dismissed" json:"dismissed"`
	ReadAt      *string           `db:"read_at" json:"readAt,omitempty"`
	DismissedAt *string           `db:"dismissed_at" json:"dismissedAt,omitempty"`
	ShipmentID  string            `db:"shipment_id" json:"shipmentId,omitempty"`
	SegmentID   string            `db:"segment_id" json:"segmentId,omitempty"`
	PackageID   string            `db:"package_id" json:"packageId,omitempty"`
	BreachID    string            `db:"breach_id" json:"breachId,omitempty"`
	Metadata    map[string]string `db:"-" json:"metadata,omitempty"`
	CreatedAt   string            `db:"created_at" json:"createdAt,omitempty"`
}
