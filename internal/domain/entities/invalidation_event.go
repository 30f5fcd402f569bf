package entities

import (
	"time"
)

// InvalidationEvent announces that a write changed server state, so every
// console showing the listed resources should fetch them again.
type InvalidationEvent struct {
	ID        string    `json:"id"`
	ClinicID  string    `json:"clinic_id"`
	Resources []string  `json:"resources"`
	Action    string    `json:"action"`
	EntityID  string    `json:"entity_id,omitempty"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}
