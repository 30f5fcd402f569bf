package views

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zatekoja/clinicdesk/internal/application/resources"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/clients/emrapi"
)

// BedsAPI is the backend surface of the bed management screen
type BedsAPI interface {
	ListBeds(ctx context.Context, clinicID string, filter emrapi.BedFilter) ([]entities.Bed, error)
	GetOccupancy(ctx context.Context, clinicID string) (*entities.BedOccupancy, error)
	CreateBed(ctx context.Context, req emrapi.CreateBedRequest) (*emrapi.BedResponse, error)
	BulkCreateBeds(ctx context.Context, req emrapi.BulkCreateBedsRequest) (*emrapi.BulkBedResponse, error)
	UpdateBedStatus(ctx context.Context, bedID string, req emrapi.BedStatusRequest) (*emrapi.BedResponse, error)
	DeactivateBed(ctx context.Context, bedID string) (*emrapi.MessageResponse, error)
}

// Occupancy is the occupancy summary derived from the current bed list
type Occupancy struct {
	Total       int     `json:"total"`
	Occupied    int     `json:"occupied"`
	Available   int     `json:"available"`
	Reserved    int     `json:"reserved"`
	Maintenance int     `json:"maintenance"`
	Cleaning    int     `json:"cleaning"`
	Rate        float64 `json:"rate"`
}

// WardGroup is one ward's beds
type WardGroup struct {
	WardType  string         `json:"wardType"`
	Available int            `json:"available"`
	Total     int            `json:"total"`
	Beds      []entities.Bed `json:"beds"`
}

// BedRow is one bed as displayed
type BedRow struct {
	ID       string               `json:"id"`
	Number   string               `json:"number"`
	Ward     string               `json:"ward"`
	Room     string               `json:"room"`
	Status   entities.BedStatus   `json:"status"`
	Patient  string               `json:"patient"`
	Rate     float64              `json:"rate"`
	Features string               `json:"features"`
	Options  []entities.BedStatus `json:"options"`
}

// BedsView is the bed management screen
type BedsView struct {
	api        BedsAPI
	clinicID   string
	dispatcher *resources.Dispatcher

	Beds      *resources.Resource[[]entities.Bed]
	Occupancy *resources.Resource[*entities.BedOccupancy]

	mu     sync.RWMutex
	filter emrapi.BedFilter
}

// NewBedsView registers the bed resources and returns the screen
func NewBedsView(deps Deps, api BedsAPI) (*BedsView, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	v := &BedsView{api: api, clinicID: deps.ClinicID, dispatcher: deps.Dispatcher}
	v.Beds = resources.Register(deps.Registry, KeyBeds, func(ctx context.Context) ([]entities.Bed, error) {
		return api.ListBeds(ctx, deps.ClinicID, emrapi.BedFilter{})
	}, resources.ResourceOptions{FailureMessage: "Failed to load beds"})
	v.Occupancy = resources.Register(deps.Registry, KeyBedOccupancy, func(ctx context.Context) (*entities.BedOccupancy, error) {
		return api.GetOccupancy(ctx, deps.ClinicID)
	}, resources.ResourceOptions{Policy: resources.PolicySilent})
	return v, nil
}

// Keys are the resources the bed screen loads
func (v *BedsView) Keys() []string {
	return []string{KeyBeds, KeyBedOccupancy}
}

// SetFilter narrows Rows by ward type and status
func (v *BedsView) SetFilter(f emrapi.BedFilter) {
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()
}

// Summary derives occupancy from the current bed list
func (v *BedsView) Summary() Occupancy {
	return SummarizeBeds(v.Beds.Get())
}

// Rows projects the filtered bed list
func (v *BedsView) Rows() []BedRow {
	v.mu.RLock()
	f := v.filter
	v.mu.RUnlock()

	beds := FilterBeds(v.Beds.Get(), f.WardType, f.Status)
	rows := make([]BedRow, 0, len(beds))
	for i := range beds {
		rows = append(rows, bedRow(&beds[i]))
	}
	return rows
}

// Wards groups the current beds by ward type
func (v *BedsView) Wards() []WardGroup {
	return GroupByWard(v.Beds.Get())
}

// Available returns beds free for an admission or transfer
func (v *BedsView) Available() []entities.Bed {
	return FilterBeds(v.Beds.Get(), "", string(entities.BedStatusAvailable))
}

// Find returns a bed by id or bed number from the current list
func (v *BedsView) Find(id string) (*entities.Bed, bool) {
	beds := v.Beds.Get()
	for i := range beds {
		if beds[i].ID == id || beds[i].BedNumber == id {
			b := beds[i]
			return &b, true
		}
	}
	return nil, false
}

// SummarizeBeds counts beds by status; the rate is occupied/total
func SummarizeBeds(beds []entities.Bed) Occupancy {
	o := Occupancy{Total: len(beds)}
	for _, b := range beds {
		switch b.Status {
		case entities.BedStatusOccupied:
			o.Occupied++
		case entities.BedStatusAvailable:
			o.Available++
		case entities.BedStatusReserved:
			o.Reserved++
		case entities.BedStatusMaintenance:
			o.Maintenance++
		case entities.BedStatusCleaning:
			o.Cleaning++
		}
	}
	o.Rate = entities.OccupancyRate(o.Occupied, o.Total)
	return o
}

// FilterBeds keeps beds matching the ward type and status; empty matches all
func FilterBeds(beds []entities.Bed, wardType, status string) []entities.Bed {
	out := make([]entities.Bed, 0, len(beds))
	for _, b := range beds {
		if wardType != "" && b.WardType != wardType {
			continue
		}
		if status != "" && string(b.Status) != status {
			continue
		}
		out = append(out, b)
	}
	return out
}

// GroupByWard groups beds by ward type, wards in name order
func GroupByWard(beds []entities.Bed) []WardGroup {
	index := map[string]int{}
	var groups []WardGroup
	for _, b := range beds {
		ward := entities.OrDash(b.WardType)
		i, ok := index[ward]
		if !ok {
			i = len(groups)
			index[ward] = i
			groups = append(groups, WardGroup{WardType: ward})
		}
		groups[i].Total++
		if b.Status == entities.BedStatusAvailable {
			groups[i].Available++
		}
		groups[i].Beds = append(groups[i].Beds, b)
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].WardType < groups[b].WardType })
	return groups
}

func bedRow(b *entities.Bed) BedRow {
	var features []string
	if b.HasOxygen {
		features = append(features, "O2")
	}
	if b.HasMonitor {
		features = append(features, "monitor")
	}
	if b.HasVentilator {
		features = append(features, "ventilator")
	}
	feat := entities.Placeholder
	if len(features) > 0 {
		feat = strings.Join(features, ", ")
	}
	return BedRow{
		ID:       b.ID,
		Number:   b.BedNumber,
		Ward:     entities.OrDash(b.WardType),
		Room:     entities.OrDash(string(b.RoomNumber)),
		Status:   b.Status,
		Patient:  b.PatientLabel(),
		Rate:     b.DailyRate,
		Features: feat,
		Options:  b.StaffStatusOptions(),
	}
}

var bedKeys = []string{KeyBeds, KeyBedOccupancy}

// CreateForm returns a single-bed form
func (v *BedsView) CreateForm() *Form[BedDraft] {
	return newForm("beds.create", v.dispatcher, defaultBedDraft, func(ctx context.Context, d BedDraft, onSuccess func()) error {
		return v.dispatcher.Dispatch(ctx, resources.Action{
			Name: "beds.create",
			Do: func(ctx context.Context) error {
				_, err := v.api.CreateBed(ctx, emrapi.CreateBedRequest{
					ClinicID:      v.clinicID,
					BedNumber:     d.BedNumber,
					WardType:      d.WardType,
					WardName:      d.WardName,
					RoomNumber:    d.RoomNumber,
					FloorNumber:   d.FloorNumber,
					BedType:       d.BedType,
					HasOxygen:     d.HasOxygen,
					HasMonitor:    d.HasMonitor,
					HasVentilator: d.HasVentilator,
					DailyRate:     d.DailyRate,
				})
				return err
			},
			Success:     "Bed created successfully",
			Failure:     "Failed to create bed",
			Invalidates: bedKeys,
			OnSuccess:   onSuccess,
		})
	})
}

// BulkForm returns a bulk creation form
func (v *BedsView) BulkForm() *Form[BulkBedDraft] {
	return newForm("beds.bulk_create", v.dispatcher, defaultBulkBedDraft, func(ctx context.Context, d BulkBedDraft, onSuccess func()) error {
		numbers := d.BedNumbers()
		beds := make([]emrapi.CreateBedRequest, 0, len(numbers))
		for _, n := range numbers {
			beds = append(beds, emrapi.CreateBedRequest{
				BedNumber: n,
				WardType:  d.WardType,
				WardName:  d.WardName,
				BedType:   d.BedType,
				DailyRate: d.DailyRate,
			})
		}
		return v.dispatcher.Dispatch(ctx, resources.Action{
			Name: "beds.bulk_create",
			Do: func(ctx context.Context) error {
				_, err := v.api.BulkCreateBeds(ctx, emrapi.BulkCreateBedsRequest{ClinicID: v.clinicID, Beds: beds})
				return err
			},
			Success:     fmt.Sprintf("%d beds created successfully", d.Count),
			Failure:     "Failed to create beds",
			Invalidates: bedKeys,
			OnSuccess:   onSuccess,
		})
	})
}

// SetStatus changes a bed's status directly. Only the statuses offered by
// StaffStatusOptions are accepted; occupancy follows the admission flow.
func (v *BedsView) SetStatus(ctx context.Context, bedID string, status entities.BedStatus, notes string) error {
	const name = "beds.status"
	if blank(bedID) {
		return v.dispatcher.Reject(name, invalid("Select a bed"))
	}
	if bed, ok := v.Find(bedID); ok {
		if !bed.CanSetStatus(status) {
			return v.dispatcher.Reject(name, invalid(fmt.Sprintf("Bed %s cannot be set to %s here", bed.BedNumber, status)))
		}
		bedID = bed.ID
	} else if status != entities.BedStatusAvailable && status != entities.BedStatusMaintenance && status != entities.BedStatusCleaning {
		return v.dispatcher.Reject(name, invalid(fmt.Sprintf("Status %s is set by admissions", status)))
	}

	return v.dispatcher.Dispatch(ctx, resources.Action{
		Name: name,
		Do: func(ctx context.Context) error {
			_, err := v.api.UpdateBedStatus(ctx, bedID, emrapi.BedStatusRequest{Status: status, MaintenanceNotes: notes})
			return err
		},
		Success:     "Bed status updated",
		Failure:     "Failed to update status",
		Invalidates: bedKeys,
		EntityID:    bedID,
	})
}

// Deactivate removes a bed from service; occupied beds are refused
func (v *BedsView) Deactivate(ctx context.Context, bedID string) error {
	const name = "beds.deactivate"
	if blank(bedID) {
		return v.dispatcher.Reject(name, invalid("Select a bed"))
	}
	if bed, ok := v.Find(bedID); ok {
		if !bed.CanDeactivate() {
			return v.dispatcher.Reject(name, invalid(fmt.Sprintf("Bed %s is occupied", bed.BedNumber)))
		}
		bedID = bed.ID
	}
	return v.dispatcher.Dispatch(ctx, resources.Action{
		Name: name,
		Do: func(ctx context.Context) error {
			_, err := v.api.DeactivateBed(ctx, bedID)
			return err
		},
		Success:     "Bed deactivated",
		Failure:     "Failed to deactivate bed",
		Invalidates: bedKeys,
		EntityID:    bedID,
	})
}
