package entities

import (
	"time"
)

// TokenStatus represents where a patient is in the OPD queue
type TokenStatus string

const (
	TokenStatusWaiting        TokenStatus = "waiting"
	TokenStatusCheckedIn      TokenStatus = "checked_in"
	TokenStatusCalled         TokenStatus = "called"
	TokenStatusInConsultation TokenStatus = "in_consultation"
	TokenStatusCompleted      TokenStatus = "completed"
	TokenStatusNoShow         TokenStatus = "no_show"
	TokenStatusOnHold         TokenStatus = "on_hold"
	TokenStatusTransferred    TokenStatus = "transferred"
)

// Terminal reports whether no further actions apply
func (s TokenStatus) Terminal() bool {
	return s == TokenStatusCompleted || s == TokenStatusNoShow
}

// TokenType represents the priority class of a token
type TokenType string

const (
	TokenTypeRegular   TokenType = "regular"
	TokenTypePriority  TokenType = "priority"
	TokenTypeEmergency TokenType = "emergency"
	TokenTypeVIP       TokenType = "vip"
	TokenTypeSenior    TokenType = "senior"
)

// TokenAction is a queue transition; the value is the backend path segment.
type TokenAction string

const (
	TokenActionCall     TokenAction = "call"
	TokenActionStart    TokenAction = "start"
	TokenActionComplete TokenAction = "complete"
	TokenActionNoShow   TokenAction = "no-show"
	TokenActionRecall   TokenAction = "recall"
	TokenActionHold     TokenAction = "hold"
	TokenActionResume   TokenAction = "resume"
	TokenActionTransfer TokenAction = "transfer"
)

// ParseTokenAction maps user input to a TokenAction
func ParseTokenAction(s string) (TokenAction, bool) {
	switch a := TokenAction(s); a {
	case TokenActionCall, TokenActionStart, TokenActionComplete, TokenActionNoShow,
		TokenActionRecall, TokenActionHold, TokenActionResume, TokenActionTransfer:
		return a, true
	}
	if s == "no_show" {
		return TokenActionNoShow, true
	}
	return "", false
}

// QueueToken is a patient's place in the day's OPD queue
type QueueToken struct {
	ID                string      `json:"_id"`
	TokenNumber       string      `json:"tokenNumber"`
	ClinicID          string      `json:"clinicId,omitempty"`
	Patient           *Ref        `json:"patientId,omitempty"`
	PatientName       string      `json:"patientName"`
	PatientPhone      string      `json:"patientPhone,omitempty"`
	PatientAge        int         `json:"patientAge,omitempty"`
	PatientGender     string      `json:"patientGender,omitempty"`
	Doctor            *Ref        `json:"doctorId,omitempty"`
	DoctorName        string      `json:"doctorName,omitempty"`
	Department        string      `json:"department"`
	TokenType         TokenType   `json:"tokenType,omitempty"`
	Status            TokenStatus `json:"status"`
	ChiefComplaint    string      `json:"chiefComplaint,omitempty"`
	QueuePosition     int         `json:"queuePosition,omitempty"`
	EstimatedWaitTime int         `json:"estimatedWaitTime,omitempty"`
	CallCount         int         `json:"callCount,omitempty"`
	IsVirtualQueue    bool        `json:"isVirtualQueue,omitempty"`
	IssuedAt          *time.Time  `json:"issuedAt,omitempty"`
	CalledAt          *time.Time  `json:"calledAt,omitempty"`
	StartedAt         *time.Time  `json:"startedAt,omitempty"`
	CompletedAt       *time.Time  `json:"completedAt,omitempty"`
}

// AvailableActions returns the controls staff may use for the token's status
func (t *QueueToken) AvailableActions() []TokenAction {
	var actions []TokenAction
	switch t.Status {
	case TokenStatusWaiting:
		actions = append(actions, TokenActionCall)
	case TokenStatusCalled:
		actions = append(actions, TokenActionStart, TokenActionRecall, TokenActionNoShow)
	case TokenStatusInConsultation:
		actions = append(actions, TokenActionComplete)
	case TokenStatusOnHold:
		actions = append(actions, TokenActionResume)
	}

	if t.Status.Terminal() {
		return nil
	}
	if t.Status != TokenStatusOnHold {
		actions = append(actions, TokenActionHold)
	}
	return append(actions, TokenActionTransfer)
}

// Can reports whether action is valid in the token's current status
func (t *QueueToken) Can(action TokenAction) bool {
	for _, a := range t.AvailableActions() {
		if a == action {
			return true
		}
	}
	return false
}

// DoctorLabel returns the assigned doctor's name or the placeholder
func (t *QueueToken) DoctorLabel() string {
	return t.Doctor.DisplayName(t.DoctorName)
}

// QueueSummary holds today's counts per status as computed by the backend
type QueueSummary struct {
	Total          int `json:"total"`
	Waiting        int `json:"waiting"`
	InConsultation int `json:"inConsultation"`
	Completed      int `json:"completed"`
	NoShow         int `json:"noShow"`
}

// DepartmentQueueStats is one department's row in the queue dashboard
type DepartmentQueueStats struct {
	Department  string  `json:"_id"`
	Total       int     `json:"total"`
	Waiting     int     `json:"waiting"`
	Completed   int     `json:"completed"`
	AvgWaitTime float64 `json:"avgWaitTime"`
}

// HourlyQueueStats counts tokens issued per hour of day
type HourlyQueueStats struct {
	Hour  int `json:"_id"`
	Count int `json:"count"`
}

// QueueStats is the queue dashboard payload
type QueueStats struct {
	Summary         QueueSummary           `json:"summary"`
	DepartmentStats []DepartmentQueueStats `json:"departmentStats"`
	HourlyStats     []HourlyQueueStats     `json:"hourlyStats"`
}
