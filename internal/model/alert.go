package model

import "time"

// Alert statuses.  A status only changes through an explicit action.
const (
	AlertActive       = "active"
	AlertAcknowledged = "acknowledged"
	AlertDismissed    = "dismissed"
	AlertEscalated    = "escalated"
)

// Alert levels assigned by the server.
const (
	AlertLevelPreventive    = 1
	AlertLevelAdaptive      = 2
	AlertLevelMedicalReview = 3
)

// ValidAlertAction reports whether action is a status an alert may be
// moved to by a user.
func ValidAlertAction(action string) bool {
	switch action {
	case AlertAcknowledged, AlertDismissed, AlertEscalated:
		return true
	}
	return false
}

// AlertFactor is one contributing reason for an alert.
type AlertFactor struct {
	Factor         string  `json:"factor,omitempty"`
	Severity       string  `json:"severity,omitempty"`
	Message        string  `json:"message"`
	DeviationSigma float64 `json:"deviation_sigma,omitempty"`
	Value          float64 `json:"value,omitempty"`
}

// Alert is a server-raised notice about a subject's condition.
type Alert struct {
	ID              string        `json:"id"`
	AstronautID     string        `json:"astronaut_id"`
	Level           int           `json:"level"`
	Message         string        `json:"message"`
	Factors         []AlertFactor `json:"factors"`
	Recommendations []string      `json:"recommendations,omitempty"`
	Status          string        `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	AcknowledgedAt  *time.Time    `json:"acknowledged_at,omitempty"`
	AcknowledgedBy  string        `json:"acknowledged_by,omitempty"`
}

// AlertList wraps GET /alerts/{id}.
type AlertList struct {
	Alerts []Alert `json:"alerts"`
}

// AlertAction is the body of POST /alerts/acknowledge.
type AlertAction struct {
	AlertID     string `json:"alert_id"`
	AstronautID string `json:"astronaut_id"`
	Action      string `json:"action"`
}

// SuccessResponse is the generic {"success": bool} reply.
type SuccessResponse struct {
	Success bool `json:"success"`
}
