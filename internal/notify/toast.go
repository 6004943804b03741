package notify

import (
	"time"

	"github.com/google/uuid"

	"supplyChainTracking/models"
)

const (
	// ToastDurationCritical keeps CRITICAL notices visible longer.
	ToastDurationCritical = 10 * time.Second
	// ToastDurationDefault applies to every other severity.
	ToastDurationDefault = 5 * time.Second
)

// Toast is a transient, severity-colored user notice derived from a pushed
// notification.
type Toast struct {
	ID       string          `json:"id"`
	Severity models.Severity `json:"severity"`
	Title    string          `json:"title,omitempty"`
	Message  string          `json:"message,omitempty"`
	Duration time.Duration   `json:"durationMs"`
}

// ToastDuration returns how long a toast of the given severity stays
// visible.
func ToastDuration(s models.Severity) time.Duration {
	if s == models.SeverityCritical {
		return ToastDurationCritical
	}
	return ToastDurationDefault
}

// ToastFor builds the toast for a pushed notification.
func ToastFor(n models.Notification) Toast {
	return Toast{
		ID:       uuid.NewString(),
		Severity: n.Severity,
		Title:    n.Title,
		Message:  n.Message,
		Duration: ToastDuration(n.Severity),
	}
}
