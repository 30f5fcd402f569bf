package views

import (
	"context"
	"fmt"
	"sync"

	"github.com/zatekoja/clinicdesk/internal/application/resources"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/clients/emrapi"
)

// IPDAPI is the backend surface of the inpatient screen
type IPDAPI interface {
	ListAdmissions(ctx context.Context, clinicID, status string) ([]entities.Admission, error)
	GetIPDStats(ctx context.Context, clinicID string) (*entities.IPDStats, error)
	Admit(ctx context.Context, req emrapi.AdmitRequest) (*emrapi.AdmissionResponse, error)
	Discharge(ctx context.Context, admissionID string, req emrapi.DischargeRequest) (*emrapi.AdmissionResponse, error)
	AddProgressNote(ctx context.Context, admissionID, note string) (*emrapi.AdmissionResponse, error)
	TransferBed(ctx context.Context, admissionID string, req emrapi.BedTransferRequest) (*emrapi.AdmissionResponse, error)
	LockAdmission(ctx context.Context, admissionID string) (*emrapi.AdmissionResponse, error)
	SignAdmission(ctx context.Context, admissionID string, signatureType entities.SignatureType) (*emrapi.AdmissionResponse, error)
}

// AdmissionRow is one admission as displayed
type AdmissionRow struct {
	ID        string                     `json:"id"`
	Number    string                     `json:"number"`
	Patient   string                     `json:"patient"`
	Complaint string                     `json:"complaint"`
	Doctor    string                     `json:"doctor"`
	Bed       string                     `json:"bed"`
	Ward      string                     `json:"ward"`
	Status    entities.AdmissionStatus   `json:"status"`
	Notes     int                        `json:"notes"`
	Locked    bool                       `json:"locked"`
	Actions   []entities.AdmissionAction `json:"actions"`
}

// IPDView is the inpatient screen. Bed lists for admission and transfer
// come from the shared bed resources.
type IPDView struct {
	api        IPDAPI
	clinicID   string
	dispatcher *resources.Dispatcher
	beds       *BedsView

	Admissions *resources.Resource[[]entities.Admission]
	Stats      *resources.Resource[*entities.IPDStats]

	mu     sync.RWMutex
	status string
	search string
}

// NewIPDView registers the admission resources and returns the screen
func NewIPDView(deps Deps, api IPDAPI, beds *BedsView) (*IPDView, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if beds == nil {
		return nil, fmt.Errorf("views: ipd screen needs the bed screen")
	}
	v := &IPDView{api: api, clinicID: deps.ClinicID, dispatcher: deps.Dispatcher, beds: beds}
	v.Admissions = resources.Register(deps.Registry, KeyAdmissions, func(ctx context.Context) ([]entities.Admission, error) {
		return api.ListAdmissions(ctx, deps.ClinicID, "")
	}, resources.ResourceOptions{FailureMessage: "Failed to load admissions"})
	v.Stats = resources.Register(deps.Registry, KeyIPDStats, func(ctx context.Context) (*entities.IPDStats, error) {
		return api.GetIPDStats(ctx, deps.ClinicID)
	}, resources.ResourceOptions{Policy: resources.PolicySilent})
	return v, nil
}

// Keys are the resources the inpatient screen loads
func (v *IPDView) Keys() []string {
	return []string{KeyAdmissions, KeyIPDStats, KeyBeds}
}

// SetFilter narrows Rows by status and search term
func (v *IPDView) SetFilter(status, search string) {
	v.mu.Lock()
	v.status, v.search = status, search
	v.mu.Unlock()
}

// Rows projects the filtered admissions
func (v *IPDView) Rows() []AdmissionRow {
	v.mu.RLock()
	status, search := v.status, v.search
	v.mu.RUnlock()

	admissions := FilterAdmissions(v.Admissions.Get(), status, search)
	rows := make([]AdmissionRow, 0, len(admissions))
	for i := range admissions {
		a := &admissions[i]
		rows = append(rows, AdmissionRow{
			ID:        a.ID,
			Number:    entities.OrDash(a.AdmissionNumber),
			Patient:   a.Patient.DisplayName(a.PatientName),
			Complaint: entities.OrDash(a.ChiefComplaint),
			Doctor:    a.DoctorLabel(),
			Bed:       a.BedLabel(),
			Ward:      entities.OrDash(a.WardType),
			Status:    a.Status,
			Notes:     len(a.ProgressNotes),
			Locked:    a.IsLocked,
			Actions:   a.AvailableActions(),
		})
	}
	return rows
}

// AvailableBeds lists beds an admission or transfer may use
func (v *IPDView) AvailableBeds() []entities.Bed {
	return v.beds.Available()
}

// Find returns an admission by id or admission number
func (v *IPDView) Find(id string) (*entities.Admission, bool) {
	admissions := v.Admissions.Get()
	for i := range admissions {
		if admissions[i].ID == id || admissions[i].AdmissionNumber == id {
			a := admissions[i]
			return &a, true
		}
	}
	return nil, false
}

// FilterAdmissions keeps admissions with the status whose patient name or
// admission number contains search
func FilterAdmissions(admissions []entities.Admission, status, search string) []entities.Admission {
	out := make([]entities.Admission, 0, len(admissions))
	for _, a := range admissions {
		if status != "" && string(a.Status) != status {
			continue
		}
		if search != "" && !containsFold(a.Patient.DisplayName(a.PatientName), search) && !containsFold(a.AdmissionNumber, search) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// admissionKeys are refreshed after any admission write; bed moves also
// change the bed screen.
var (
	admissionKeys    = []string{KeyAdmissions, KeyIPDStats}
	admissionBedKeys = []string{KeyAdmissions, KeyIPDStats, KeyBeds, KeyBedOccupancy}
)

// guard resolves the admission and checks the action is currently allowed.
// Admissions not in the current copy are left for the backend to judge.
func (v *IPDView) guard(id string, action entities.AdmissionAction) (string, error) {
	if blank(id) {
		return "", invalid("Select an admission")
	}
	a, ok := v.Find(id)
	if !ok {
		return id, nil
	}
	if a.IsLocked {
		return "", invalid(fmt.Sprintf("Admission %s is locked", a.AdmissionNumber))
	}
	if !a.Can(action) {
		return "", invalid(fmt.Sprintf("Cannot %s admission %s while %s", action, a.AdmissionNumber, a.Status))
	}
	return a.ID, nil
}

// AdmitForm returns the admission form
func (v *IPDView) AdmitForm() *Form[AdmitDraft] {
	return newForm("ipd.admit", v.dispatcher, defaultAdmitDraft, func(ctx context.Context, d AdmitDraft, onSuccess func()) error {
		if d.BedID != "" {
			if bed, ok := v.beds.Find(d.BedID); ok {
				if bed.Status != entities.BedStatusAvailable {
					return v.dispatcher.Reject("ipd.admit", invalid(fmt.Sprintf("Bed %s is %s", bed.BedNumber, bed.Status)))
				}
				d.BedID = bed.ID
			}
		}
		return v.dispatcher.Dispatch(ctx, resources.Action{
			Name: "ipd.admit",
			Do: func(ctx context.Context) error {
				_, err := v.api.Admit(ctx, emrapi.AdmitRequest{
					ClinicID:             v.clinicID,
					PatientID:            d.PatientID,
					PatientName:          d.PatientName,
					PatientPhone:         d.PatientPhone,
					PatientAge:           d.PatientAge,
					PatientGender:        d.PatientGender,
					ChiefComplaint:       d.ChiefComplaint,
					ProvisionalDiagnosis: d.ProvisionalDiagnosis,
					AttendingDoctorID:    d.AttendingDoctorID,
					AttendingDoctorName:  d.AttendingDoctorName,
					BedID:                d.BedID,
					WardType:             d.WardType,
					AdmissionType:        d.AdmissionType,
					TreatmentPlan:        d.TreatmentPlan,
				})
				return err
			},
			Success:     "Patient admitted successfully",
			Failure:     "Failed to admit patient",
			Invalidates: admissionBedKeys,
			OnSuccess:   onSuccess,
		})
	})
}

// DischargeForm returns the discharge form for an admission
func (v *IPDView) DischargeForm(admissionID string) *Form[DischargeDraft] {
	return newForm("ipd.discharge", v.dispatcher, func() DischargeDraft {
		d := defaultDischargeDraft()
		d.AdmissionID = admissionID
		return d
	}, func(ctx context.Context, d DischargeDraft, onSuccess func()) error {
		id, err := v.guard(d.AdmissionID, entities.AdmissionActionDischarge)
		if err != nil {
			return v.dispatcher.Reject("ipd.discharge", err)
		}
		return v.dispatcher.Dispatch(ctx, resources.Action{
			Name: "ipd.discharge",
			Do: func(ctx context.Context) error {
				_, err := v.api.Discharge(ctx, id, emrapi.DischargeRequest{
					DischargeType:      d.DischargeType,
					DischargeCondition: d.DischargeCondition,
					DischargeSummary:   d.DischargeSummary,
					FinalDiagnosis:     d.FinalDiagnosis,
				})
				return err
			},
			Success:     "Patient discharged successfully",
			Failure:     "Failed to discharge patient",
			Invalidates: admissionBedKeys,
			OnSuccess:   onSuccess,
			EntityID:    id,
		})
	})
}

// NoteForm returns the progress note form for an admission
func (v *IPDView) NoteForm(admissionID string) *Form[ProgressNoteDraft] {
	return newForm("ipd.progress_note", v.dispatcher, func() ProgressNoteDraft {
		return ProgressNoteDraft{AdmissionID: admissionID}
	}, func(ctx context.Context, d ProgressNoteDraft, onSuccess func()) error {
		id, err := v.guard(d.AdmissionID, entities.AdmissionActionNote)
		if err != nil {
			return v.dispatcher.Reject("ipd.progress_note", err)
		}
		return v.dispatcher.Dispatch(ctx, resources.Action{
			Name: "ipd.progress_note",
			Do: func(ctx context.Context) error {
				_, err := v.api.AddProgressNote(ctx, id, d.Note)
				return err
			},
			Success:     "Progress note added",
			Failure:     "Failed to add note",
			Invalidates: []string{KeyAdmissions},
			OnSuccess:   onSuccess,
			EntityID:    id,
		})
	})
}

// BedTransferForm returns the bed transfer form for an admission
func (v *IPDView) BedTransferForm(admissionID string) *Form[BedTransferDraft] {
	return newForm("ipd.transfer_bed", v.dispatcher, func() BedTransferDraft {
		return BedTransferDraft{AdmissionID: admissionID}
	}, func(ctx context.Context, d BedTransferDraft, onSuccess func()) error {
		id, err := v.guard(d.AdmissionID, entities.AdmissionActionTransferBed)
		if err != nil {
			return v.dispatcher.Reject("ipd.transfer_bed", err)
		}
		bedID := d.NewBedID
		if bed, ok := v.beds.Find(d.NewBedID); ok {
			if bed.Status != entities.BedStatusAvailable {
				return v.dispatcher.Reject("ipd.transfer_bed", invalid(fmt.Sprintf("Bed %s is %s", bed.BedNumber, bed.Status)))
			}
			bedID = bed.ID
		}
		return v.dispatcher.Dispatch(ctx, resources.Action{
			Name: "ipd.transfer_bed",
			Do: func(ctx context.Context) error {
				_, err := v.api.TransferBed(ctx, id, emrapi.BedTransferRequest{NewBedID: bedID, Reason: d.Reason})
				return err
			},
			Success:     "Bed transferred successfully",
			Failure:     "Failed to transfer bed",
			Invalidates: admissionBedKeys,
			OnSuccess:   onSuccess,
			EntityID:    id,
		})
	})
}

// Sign records the admission or discharge signature
func (v *IPDView) Sign(ctx context.Context, admissionID string, signatureType entities.SignatureType) error {
	action := entities.AdmissionActionSignAdmission
	label := "Admission"
	switch signatureType {
	case entities.SignatureTypeAdmission:
	case entities.SignatureTypeDischarge:
		action, label = entities.AdmissionActionSignDischarge, "Discharge"
	default:
		return v.dispatcher.Reject("ipd.sign", invalid(fmt.Sprintf("Unknown signature type %q", signatureType)))
	}
	id, err := v.guard(admissionID, action)
	if err != nil {
		return v.dispatcher.Reject("ipd.sign", err)
	}
	return v.dispatcher.Dispatch(ctx, resources.Action{
		Name: "ipd.sign",
		Do: func(ctx context.Context) error {
			_, err := v.api.SignAdmission(ctx, id, signatureType)
			return err
		},
		Success:     label + " signed successfully",
		Failure:     "Failed to sign record",
		Invalidates: []string{KeyAdmissions},
		EntityID:    id,
	})
}

// Lock makes a discharged admission read-only
func (v *IPDView) Lock(ctx context.Context, admissionID string) error {
	id, err := v.guard(admissionID, entities.AdmissionActionLock)
	if err != nil {
		return v.dispatcher.Reject("ipd.lock", err)
	}
	return v.dispatcher.Dispatch(ctx, resources.Action{
		Name: "ipd.lock",
		Do: func(ctx context.Context) error {
			_, err := v.api.LockAdmission(ctx, id)
			return err
		},
		Success:     "Record locked",
		Failure:     "Failed to lock record",
		Invalidates: admissionKeys,
		EntityID:    id,
	})
}
