package model

import "time"

// RiskAnalysis is the server's assessment of a freshly ingested sample.
type RiskAnalysis struct {
	RiskLevel       int           `json:"risk_level"`
	RiskFactors     []AlertFactor `json:"risk_factors"`
	EscalationLevel int           `json:"escalation_level"`
	Recommendations []string      `json:"recommendations"`
}

// SystemStatus is returned by GET /health.
type SystemStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	System    string    `json:"system"`
}

// Roster wraps GET /astronauts.
type Roster struct {
	Astronauts []string `json:"astronauts"`
}

// DefaultRoster is served before any telemetry has been recorded.
var DefaultRoster = []string{"AST-001", "AST-002", "AST-003"}

// SimulationResult is returned by POST /simulate/generate.
type SimulationResult struct {
	Success        bool `json:"success"`
	RecordsCreated int  `json:"records_created"`
}

// DashboardSummary bundles every slice of a subject in one response.
type DashboardSummary struct {
	Health         *VitalsSample    `json:"health"`
	Baseline       Baseline         `json:"baseline"`
	Context        MissionContext   `json:"context"`
	Timeline       []TimelineBucket `json:"timeline"`
	Alerts         []Alert          `json:"alerts"`
	FacialAnalysis *FacialAnalysis  `json:"facial_analysis"`
	Timestamp      time.Time        `json:"timestamp"`
}

// StreamEvent is pushed over the alert websocket.
type StreamEvent struct {
	Type        string    `json:"type"`
	AstronautID string    `json:"astronaut_id"`
	AlertID     string    `json:"alert_id,omitempty"`
	Level       int       `json:"level,omitempty"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Stream event types.
const (
	EventAlertRaised = "ALERT_RAISED"
	EventWelcome     = "WELCOME"
)
