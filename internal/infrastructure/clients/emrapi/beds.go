package emrapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

const bedsBase = "/api/beds"

// BedFilter narrows the bed listing
type BedFilter struct {
	WardType string
	Status   string
}

// CreateBedRequest describes a new bed
type CreateBedRequest struct {
	ClinicID      string  `json:"clinicId,omitempty"`
	BedNumber     string  `json:"bedNumber"`
	WardType      string  `json:"wardType"`
	WardName      string  `json:"wardName,omitempty"`
	RoomNumber    string  `json:"roomNumber,omitempty"`
	FloorNumber   string  `json:"floorNumber,omitempty"`
	BedType       string  `json:"bedType,omitempty"`
	HasOxygen     bool    `json:"hasOxygen,omitempty"`
	HasMonitor    bool    `json:"hasMonitor,omitempty"`
	HasVentilator bool    `json:"hasVentilator,omitempty"`
	DailyRate     float64 `json:"dailyRate,omitempty"`
}

// BulkCreateBedsRequest creates several beds at once
type BulkCreateBedsRequest struct {
	ClinicID string             `json:"clinicId"`
	Beds     []CreateBedRequest `json:"beds"`
}

// BedStatusRequest is a direct staff status change
type BedStatusRequest struct {
	Status           entities.BedStatus `json:"status"`
	MaintenanceNotes string             `json:"maintenanceNotes,omitempty"`
}

// BedResponse is returned by single-bed writes
type BedResponse struct {
	Bed     entities.Bed `json:"bed"`
	Message string       `json:"message"`
}

// BulkBedResponse is returned by bulk creation
type BulkBedResponse struct {
	Beds    []entities.Bed `json:"beds"`
	Message string         `json:"message"`
}

// MessageResponse is returned by writes with no entity in the body
type MessageResponse struct {
	Message string `json:"message"`
}

// ListBeds returns the clinic's active beds
func (c *HTTPClient) ListBeds(ctx context.Context, clinicID string, filter BedFilter) ([]entities.Bed, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	q := url.Values{}
	setIf(q, "wardType", filter.WardType)
	setIf(q, "status", filter.Status)

	var out struct {
		Beds []entities.Bed `json:"beds"`
	}
	if err := c.doJSON(ctx, "beds.list", http.MethodGet, bedsBase+"/clinic/"+seg(clinicID), q, nil, &out); err != nil {
		return nil, err
	}
	return out.Beds, nil
}

// GetOccupancy returns per-ward occupancy and totals
func (c *HTTPClient) GetOccupancy(ctx context.Context, clinicID string) (*entities.BedOccupancy, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	out := &entities.BedOccupancy{}
	if err := c.doJSON(ctx, "beds.occupancy", http.MethodGet, bedsBase+"/occupancy/"+seg(clinicID), nil, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBed adds a bed
func (c *HTTPClient) CreateBed(ctx context.Context, req CreateBedRequest) (*BedResponse, error) {
	out := &BedResponse{}
	if err := c.doJSON(ctx, "beds.create", http.MethodPost, bedsBase+"/create", nil, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// BulkCreateBeds adds several beds
func (c *HTTPClient) BulkCreateBeds(ctx context.Context, req BulkCreateBedsRequest) (*BulkBedResponse, error) {
	out := &BulkBedResponse{}
	if err := c.doJSON(ctx, "beds.bulk_create", http.MethodPost, bedsBase+"/bulk-create", nil, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateBedStatus sets a bed's status directly
func (c *HTTPClient) UpdateBedStatus(ctx context.Context, bedID string, req BedStatusRequest) (*BedResponse, error) {
	if err := requireID("bed", bedID); err != nil {
		return nil, err
	}
	out := &BedResponse{}
	if err := c.doJSON(ctx, "beds.status", http.MethodPut, bedsBase+"/"+seg(bedID)+"/status", nil, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeactivateBed removes a bed from service
func (c *HTTPClient) DeactivateBed(ctx context.Context, bedID string) (*MessageResponse, error) {
	if err := requireID("bed", bedID); err != nil {
		return nil, err
	}
	out := &MessageResponse{}
	if err := c.doJSON(ctx, "beds.deactivate", http.MethodDelete, bedsBase+"/"+seg(bedID), nil, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}
