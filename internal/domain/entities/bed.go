package entities

import (
	"fmt"
	"math"
	"strings"
)

// BedStatus represents bed availability
type BedStatus string

const (
	BedStatusAvailable   BedStatus = "available"
	BedStatusOccupied    BedStatus = "occupied"
	BedStatusReserved    BedStatus = "reserved"
	BedStatusMaintenance BedStatus = "maintenance"
	BedStatusCleaning    BedStatus = "cleaning"
)

// staffSettableStatuses are the only statuses staff may set directly;
// occupied and reserved follow admissions and reservations.
var staffSettableStatuses = []BedStatus{BedStatusAvailable, BedStatusMaintenance, BedStatusCleaning}

// Bed is an inpatient bed
type Bed struct {
	ID               string     `json:"_id"`
	BedNumber        string     `json:"bedNumber"`
	BedCode          string     `json:"bedCode,omitempty"`
	WardType         string     `json:"wardType"`
	WardName         string     `json:"wardName,omitempty"`
	RoomNumber       FlexString `json:"roomNumber,omitempty"`
	FloorNumber      FlexString `json:"floorNumber,omitempty"`
	BedType          string     `json:"bedType,omitempty"`
	Status           BedStatus  `json:"status"`
	CurrentPatient   *Ref       `json:"currentPatientId,omitempty"`
	CurrentAdmission *Ref       `json:"currentAdmissionId,omitempty"`
	HasOxygen        bool       `json:"hasOxygen,omitempty"`
	HasMonitor       bool       `json:"hasMonitor,omitempty"`
	HasVentilator    bool       `json:"hasVentilator,omitempty"`
	DailyRate        float64    `json:"dailyRate,omitempty"`
	MaintenanceNotes string     `json:"maintenanceNotes,omitempty"`
	IsActive         bool       `json:"isActive"`
}

// Validate reports an occupied bed without a current patient
func (b *Bed) Validate() error {
	if b.Status == BedStatusOccupied && b.CurrentPatient == nil && b.CurrentAdmission == nil {
		return fmt.Errorf("bed %s is occupied without a current patient", b.BedNumber)
	}
	return nil
}

// StaffStatusOptions returns the statuses offered in the staff status control.
// Occupied beds offer none.
func (b *Bed) StaffStatusOptions() []BedStatus {
	if b.Status == BedStatusOccupied {
		return nil
	}
	var out []BedStatus
	for _, s := range staffSettableStatuses {
		if s != b.Status {
			out = append(out, s)
		}
	}
	return out
}

// CanSetStatus reports whether staff may move the bed to status directly
func (b *Bed) CanSetStatus(status BedStatus) bool {
	for _, s := range b.StaffStatusOptions() {
		if s == status {
			return true
		}
	}
	return false
}

// CanDeactivate reports whether the bed may be removed from service
func (b *Bed) CanDeactivate() bool {
	return b.Status != BedStatusOccupied
}

// PatientLabel returns the occupant's name or the placeholder
func (b *Bed) PatientLabel() string {
	return b.CurrentPatient.DisplayName("")
}

// WardOccupancy is one ward's row in the occupancy report
type WardOccupancy struct {
	WardType    string `json:"_id"`
	Total       int    `json:"total"`
	Occupied    int    `json:"occupied"`
	Available   int    `json:"available"`
	Reserved    int    `json:"reserved"`
	Maintenance int    `json:"maintenance"`
}

// OccupancyTotals sums the ward rows
type OccupancyTotals struct {
	Total       int `json:"total"`
	Occupied    int `json:"occupied"`
	Available   int `json:"available"`
	Reserved    int `json:"reserved"`
	Maintenance int `json:"maintenance"`
	// OccupancyRate arrives as a formatted string ("40.0") or as 0.
	OccupancyRate any `json:"occupancyRate"`
}

// BedOccupancy is the occupancy report payload
type BedOccupancy struct {
	Stats  []WardOccupancy `json:"stats"`
	Totals OccupancyTotals `json:"totals"`
}

// OccupancyRate returns occupied/total*100 rounded to one decimal, 0 when total is 0
func OccupancyRate(occupied, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(occupied)/float64(total)*1000) / 10
}

// BulkBedNumbers generates bed numbers for a ward: GEN-1, GEN-2, ...
func BulkBedNumbers(wardType string, start, count int) []string {
	prefix := strings.ToUpper(wardType)
	if prefix == "" {
		prefix = "GEN"
	}
	if r := []rune(prefix); len(r) > 3 {
		prefix = string(r[:3])
	}
	numbers := make([]string, 0, count)
	for i := 0; i < count; i++ {
		numbers = append(numbers, fmt.Sprintf("%s-%d", prefix, start+i))
	}
	return numbers
}
