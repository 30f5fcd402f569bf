package emrapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

const ipdBase = "/api/ipd"

// AdmitRequest admits a patient
type AdmitRequest struct {
	ClinicID             string `json:"clinicId"`
	PatientID            string `json:"patientId,omitempty"`
	PatientName          string `json:"patientName"`
	PatientPhone         string `json:"patientPhone,omitempty"`
	PatientAge           int    `json:"patientAge,omitempty"`
	PatientGender        string `json:"patientGender,omitempty"`
	ChiefComplaint       string `json:"chiefComplaint"`
	ProvisionalDiagnosis string `json:"provisionalDiagnosis,omitempty"`
	AttendingDoctorID    string `json:"attendingDoctorId,omitempty"`
	AttendingDoctorName  string `json:"attendingDoctorName,omitempty"`
	BedID                string `json:"bedId,omitempty"`
	WardType             string `json:"wardType,omitempty"`
	AdmissionType        string `json:"admissionType,omitempty"`
	TreatmentPlan        string `json:"treatmentPlan,omitempty"`
}

// DischargeRequest discharges an admitted patient
type DischargeRequest struct {
	DischargeType      string `json:"dischargeType,omitempty"`
	DischargeCondition string `json:"dischargeCondition,omitempty"`
	DischargeSummary   string `json:"dischargeSummary,omitempty"`
	FinalDiagnosis     string `json:"finalDiagnosis,omitempty"`
}

// BedTransferRequest moves an admission to another bed
type BedTransferRequest struct {
	NewBedID string `json:"newBedId"`
	Reason   string `json:"reason,omitempty"`
}

// AdmissionResponse is returned by admission writes
type AdmissionResponse struct {
	Admission entities.Admission `json:"admission"`
	Message   string             `json:"message"`
}

// ListAdmissions returns admissions, optionally filtered by status
func (c *HTTPClient) ListAdmissions(ctx context.Context, clinicID, status string) ([]entities.Admission, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	q := url.Values{}
	setIf(q, "status", status)

	var out struct {
		Admissions []entities.Admission `json:"admissions"`
	}
	if err := c.doJSON(ctx, "ipd.list", http.MethodGet, ipdBase+"/clinic/"+seg(clinicID), q, nil, &out); err != nil {
		return nil, err
	}
	return out.Admissions, nil
}

// GetIPDStats returns the inpatient dashboard
func (c *HTTPClient) GetIPDStats(ctx context.Context, clinicID string) (*entities.IPDStats, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	var out struct {
		Stats entities.IPDStats `json:"stats"`
	}
	if err := c.doJSON(ctx, "ipd.stats", http.MethodGet, ipdBase+"/stats/"+seg(clinicID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Stats, nil
}

// Admit creates an admission
func (c *HTTPClient) Admit(ctx context.Context, req AdmitRequest) (*AdmissionResponse, error) {
	out := &AdmissionResponse{}
	if err := c.doJSON(ctx, "ipd.admit", http.MethodPost, ipdBase+"/admit", nil, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Discharge discharges an admission
func (c *HTTPClient) Discharge(ctx context.Context, admissionID string, req DischargeRequest) (*AdmissionResponse, error) {
	return c.admissionWrite(ctx, "ipd.discharge", admissionID, "discharge", req)
}

// AddProgressNote appends a progress note
func (c *HTTPClient) AddProgressNote(ctx context.Context, admissionID, note string) (*AdmissionResponse, error) {
	body := struct {
		Note string `json:"note"`
	}{Note: note}
	return c.admissionWrite(ctx, "ipd.progress_note", admissionID, "progress-note", body)
}

// TransferBed moves an admission to another bed
func (c *HTTPClient) TransferBed(ctx context.Context, admissionID string, req BedTransferRequest) (*AdmissionResponse, error) {
	return c.admissionWrite(ctx, "ipd.transfer_bed", admissionID, "transfer-bed", req)
}

// LockAdmission locks a record against further edits
func (c *HTTPClient) LockAdmission(ctx context.Context, admissionID string) (*AdmissionResponse, error) {
	return c.admissionWrite(ctx, "ipd.lock", admissionID, "lock", struct{}{})
}

// SignAdmission records an admission or discharge signature
func (c *HTTPClient) SignAdmission(ctx context.Context, admissionID string, signatureType entities.SignatureType) (*AdmissionResponse, error) {
	body := struct {
		SignatureType entities.SignatureType `json:"signatureType"`
	}{SignatureType: signatureType}
	return c.admissionWrite(ctx, "ipd.sign", admissionID, "sign", body)
}

func (c *HTTPClient) admissionWrite(ctx context.Context, op, admissionID, action string, body any) (*AdmissionResponse, error) {
	if err := requireID("admission", admissionID); err != nil {
		return nil, err
	}
	out := &AdmissionResponse{}
	if err := c.doJSON(ctx, op, http.MethodPost, ipdBase+"/"+seg(admissionID)+"/"+action, nil, body, out); err != nil {
		return nil, err
	}
	return out, nil
}
