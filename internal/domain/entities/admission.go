package entities

import (
	"time"
)

// AdmissionStatus represents the lifecycle of an inpatient stay
type AdmissionStatus string

const (
	AdmissionStatusAdmitted    AdmissionStatus = "admitted"
	AdmissionStatusInTreatment AdmissionStatus = "in_treatment"
	AdmissionStatusDischarged  AdmissionStatus = "discharged"
	AdmissionStatusTransferred AdmissionStatus = "transferred"
)

// AdmissionAction is an edit staff may perform on an admission
type AdmissionAction string

const (
	AdmissionActionNote          AdmissionAction = "note"
	AdmissionActionTransferBed   AdmissionAction = "transfer-bed"
	AdmissionActionDischarge     AdmissionAction = "discharge"
	AdmissionActionSignAdmission AdmissionAction = "sign-admission"
	AdmissionActionSignDischarge AdmissionAction = "sign-discharge"
	AdmissionActionLock          AdmissionAction = "lock"
)

// SignatureType selects which signature a sign request records
type SignatureType string

const (
	SignatureTypeAdmission SignatureType = "admission"
	SignatureTypeDischarge SignatureType = "discharge"
)

// ProgressNote is an append-only clinical note on an admission
type ProgressNote struct {
	Note       string    `json:"note"`
	WriterName string    `json:"writerName,omitempty"`
	WriterRole string    `json:"writerRole,omitempty"`
	Date       time.Time `json:"date"`
}

// Admission is an inpatient (IPD) stay
type Admission struct {
	ID                   string          `json:"_id"`
	AdmissionNumber      string          `json:"admissionNumber"`
	Patient              *Ref            `json:"patientId,omitempty"`
	PatientName          string          `json:"patientName"`
	PatientPhone         string          `json:"patientPhone,omitempty"`
	PatientAge           int             `json:"patientAge,omitempty"`
	PatientGender        string          `json:"patientGender,omitempty"`
	ChiefComplaint       string          `json:"chiefComplaint"`
	ProvisionalDiagnosis string          `json:"provisionalDiagnosis,omitempty"`
	FinalDiagnosis       string          `json:"finalDiagnosis,omitempty"`
	AttendingDoctor      *Ref            `json:"attendingDoctorId,omitempty"`
	AttendingDoctorName  string          `json:"attendingDoctorName,omitempty"`
	Bed                  *Ref            `json:"bedId,omitempty"`
	BedNumber            string          `json:"bedNumber,omitempty"`
	WardType             string          `json:"wardType,omitempty"`
	AdmissionType        string          `json:"admissionType,omitempty"`
	Status               AdmissionStatus `json:"status"`
	AdmissionDate        *time.Time      `json:"admissionDate,omitempty"`
	DischargeDate        *time.Time      `json:"dischargeDate,omitempty"`
	ProgressNotes        []ProgressNote  `json:"progressNotes,omitempty"`
	AdmissionSignature   *Signature      `json:"admissionSignature,omitempty"`
	DischargeSignature   *Signature      `json:"dischargeSignature,omitempty"`
	IsLocked             bool            `json:"isLocked"`
}

// Discharged reports whether the patient has left
func (a *Admission) Discharged() bool {
	return a.Status == AdmissionStatusDischarged
}

// Editable is false once the record is locked; a locked record accepts no edits
func (a *Admission) Editable() bool {
	return !a.IsLocked
}

// AvailableActions returns the edits staff may perform right now
func (a *Admission) AvailableActions() []AdmissionAction {
	if a.IsLocked {
		return nil
	}
	if !a.Discharged() {
		actions := []AdmissionAction{AdmissionActionNote, AdmissionActionTransferBed, AdmissionActionDischarge}
		if a.AdmissionSignature == nil {
			actions = append(actions, AdmissionActionSignAdmission)
		}
		return actions
	}
	var actions []AdmissionAction
	if a.DischargeSignature == nil {
		actions = append(actions, AdmissionActionSignDischarge)
	}
	return append(actions, AdmissionActionLock)
}

// Can reports whether action is currently allowed
func (a *Admission) Can(action AdmissionAction) bool {
	for _, allowed := range a.AvailableActions() {
		if allowed == action {
			return true
		}
	}
	return false
}

// DoctorLabel returns the attending doctor's name or the placeholder
func (a *Admission) DoctorLabel() string {
	return a.AttendingDoctor.DisplayName(a.AttendingDoctorName)
}

// BedLabel returns the bed number or the placeholder
func (a *Admission) BedLabel() string {
	if a.BedNumber != "" {
		return a.BedNumber
	}
	if a.Bed != nil && a.Bed.Name != "" {
		return a.Bed.Name
	}
	return Placeholder
}

// StatusCount is a {_id, count} aggregate row
type StatusCount struct {
	Key   string `json:"_id"`
	Count int    `json:"count"`
}

// IPDStats is the inpatient dashboard payload
type IPDStats struct {
	ByStatus        []StatusCount `json:"byStatus"`
	ByWard          []StatusCount `json:"byWard"`
	TodayAdmissions int           `json:"todayAdmissions"`
	TodayDischarges int           `json:"todayDischarges"`
}

// CurrentlyAdmitted sums patients still in a bed
func (s *IPDStats) CurrentlyAdmitted() int {
	total := 0
	for _, row := range s.ByStatus {
		if row.Key == string(AdmissionStatusAdmitted) || row.Key == string(AdmissionStatusInTreatment) {
			total += row.Count
		}
	}
	return total
}
