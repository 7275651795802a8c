package model

import "time"

// Allowed values for the mission context fields.
var (
	MissionPhases = []string{"transit", "eva", "recovery", "high-load", "rest"}
	TimesOfDay    = []string{"morning", "afternoon", "evening", "night"}
	WorkCycles    = []string{"active", "rest", "sleep"}
	Workloads     = []string{"low", "moderate", "high", "critical"}
)

// MissionContext describes what the subject is currently doing.  Risk
// analysis reads it to soften expected stress during EVA and high-load
// phases.
type MissionContext struct {
	AstronautID     string    `json:"astronaut_id"`
	MissionPhase    string    `json:"mission_phase"`
	TimeOfDay       string    `json:"time_of_day"`
	WorkCycle       string    `json:"work_cycle"`
	DaysSinceLaunch int       `json:"days_since_launch"`
	CurrentWorkload string    `json:"current_workload"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// DefaultMissionContext is served for subjects that never saved one.
func DefaultMissionContext(astronautID string) MissionContext {
	return MissionContext{
		AstronautID:     astronautID,
		MissionPhase:    "transit",
		TimeOfDay:       "morning",
		WorkCycle:       "active",
		DaysSinceLaunch: 1,
		CurrentWorkload: "moderate",
	}
}

// Validate returns the name of the first invalid field, or "" when the
// context is acceptable.
func (m MissionContext) Validate() string {
	switch {
	case m.AstronautID == "":
		return "astronaut_id"
	case !contains(MissionPhases, m.MissionPhase):
		return "mission_phase"
	case !contains(TimesOfDay, m.TimeOfDay):
		return "time_of_day"
	case !contains(WorkCycles, m.WorkCycle):
		return "work_cycle"
	case m.DaysSinceLaunch < 1:
		return "days_since_launch"
	case !contains(Workloads, m.CurrentWorkload):
		return "current_workload"
	}
	return ""
}

// ContextUpdateResponse is returned by POST /context/update.
type ContextUpdateResponse struct {
	Success bool           `json:"success"`
	Context MissionContext `json:"context"`
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
