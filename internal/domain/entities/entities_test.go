package entities_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

func TestBed_StaffStatusOptions(t *testing.T) {
	tests := []struct {
		name   string
		status entities.BedStatus
		want   []entities.BedStatus
	}{
		{"available", entities.BedStatusAvailable, []entities.BedStatus{"maintenance", "cleaning"}},
		{"cleaning", entities.BedStatusCleaning, []entities.BedStatus{"available", "maintenance"}},
		{"reserved", entities.BedStatusReserved, []entities.BedStatus{"available", "maintenance", "cleaning"}},
		{"occupied", entities.BedStatusOccupied, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bed := entities.Bed{Status: tt.status}
			assert.Equal(t, tt.want, bed.StaffStatusOptions())
			assert.False(t, bed.CanSetStatus(entities.BedStatusOccupied))
		})
	}
}

func TestBed_ValidateAndDeactivate(t *testing.T) {
	occupied := entities.Bed{BedNumber: "GEN-1", Status: entities.BedStatusOccupied}
	assert.Error(t, occupied.Validate())
	assert.False(t, occupied.CanDeactivate())

	occupied.CurrentPatient = &entities.Ref{ID: "p1", Name: "Asha Rao"}
	assert.NoError(t, occupied.Validate())
	assert.Equal(t, "Asha Rao", occupied.PatientLabel())

	free := entities.Bed{Status: entities.BedStatusAvailable}
	assert.True(t, free.CanDeactivate())
	assert.Equal(t, "-", free.PatientLabel())
}

func TestBed_DecodesNumericFloor(t *testing.T) {
	var bed entities.Bed
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"b1","floorNumber":2,"roomNumber":"2A"}`), &bed))
	assert.Equal(t, entities.FlexString("2"), bed.FloorNumber)
	assert.Equal(t, entities.FlexString("2A"), bed.RoomNumber)
}

func TestOccupancyRate(t *testing.T) {
	assert.Equal(t, 40.0, entities.OccupancyRate(4, 10))
	assert.Equal(t, 33.3, entities.OccupancyRate(1, 3))
	assert.Equal(t, 0.0, entities.OccupancyRate(0, 0))
}

func TestBulkBedNumbers(t *testing.T) {
	assert.Equal(t, []string{"ICU-5", "ICU-6"}, entities.BulkBedNumbers("icu", 5, 2))
	assert.Equal(t, []string{"GEN-1"}, entities.BulkBedNumbers("general", 1, 1))
	assert.Equal(t, []string{"ÉTA-1"}, entities.BulkBedNumbers("étage", 1, 1), "prefix is cut on rune boundaries")
	assert.Equal(t, []string{"小儿科-1"}, entities.BulkBedNumbers("小儿科病房", 1, 1))
}

func TestLineItemAndTotals(t *testing.T) {
	item := entities.LineItem{Description: "Consultation", Quantity: 2, UnitPrice: 500, Discount: 100, TaxRate: 18}.Compute()
	assert.InDelta(t, 180.0, item.TaxAmount, 0.001)
	assert.InDelta(t, 1080.0, item.Total, 0.001)

	totals := entities.ComputeTotals([]entities.LineItem{
		{Quantity: 2, UnitPrice: 500, Discount: 100, TaxRate: 18},
		{Quantity: 1, UnitPrice: 250},
	})
	assert.InDelta(t, 1250.0, totals.Subtotal, 0.001)
	assert.InDelta(t, 100.0, totals.TotalDiscount, 0.001)
	assert.InDelta(t, 180.0, totals.TotalTax, 0.001)
	assert.InDelta(t, 1330.0, totals.GrandTotal, 0.001)
}

func TestBill_StateChecks(t *testing.T) {
	bill := entities.Bill{
		Subtotal: 1000, TotalDiscount: 100, TotalTax: 50, GrandTotal: 950,
		PaidAmount: 400, DueAmount: 550,
		PaymentStatus: entities.PaymentStatusPartial, Status: entities.BillStatusDraft,
	}
	assert.True(t, bill.Consistent())
	assert.True(t, bill.CanFinalize())
	assert.True(t, bill.CanPay())

	bill.Status = entities.BillStatusFinalized
	assert.False(t, bill.CanFinalize())

	bill.DueAmount = 500
	assert.False(t, bill.Consistent())
}

func TestAdmission_AvailableActions(t *testing.T) {
	active := entities.Admission{Status: entities.AdmissionStatusAdmitted}
	assert.Equal(t, []entities.AdmissionAction{"note", "transfer-bed", "discharge", "sign-admission"}, active.AvailableActions())

	discharged := entities.Admission{Status: entities.AdmissionStatusDischarged, AdmissionSignature: &entities.Signature{}}
	assert.Equal(t, []entities.AdmissionAction{"sign-discharge", "lock"}, discharged.AvailableActions())

	locked := entities.Admission{Status: entities.AdmissionStatusDischarged, IsLocked: true}
	assert.Empty(t, locked.AvailableActions())
	assert.False(t, locked.Editable())
	assert.False(t, locked.Can(entities.AdmissionActionNote))
}

func TestInventoryItem_Status(t *testing.T) {
	tests := []struct {
		name string
		item entities.InventoryItem
		want entities.StockStatus
	}{
		{"server value wins", entities.InventoryItem{StockStatus: entities.StockStatusReorder, CurrentStock: 0}, entities.StockStatusReorder},
		{"empty", entities.InventoryItem{CurrentStock: 0, MinStockLevel: 10, ReorderLevel: 20}, entities.StockStatusOutOfStock},
		{"low", entities.InventoryItem{CurrentStock: 5, MinStockLevel: 10, ReorderLevel: 20}, entities.StockStatusLowStock},
		{"reorder", entities.InventoryItem{CurrentStock: 15, MinStockLevel: 10, ReorderLevel: 20}, entities.StockStatusReorder},
		{"plenty", entities.InventoryItem{CurrentStock: 50, MinStockLevel: 10, ReorderLevel: 20}, entities.StockStatusInStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.Status())
		})
	}
}

func TestInventoryItem_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	soon := now.Add(10 * 24 * time.Hour)
	later := now.Add(60 * 24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	assert.True(t, (&entities.InventoryItem{ExpiryDate: &soon}).ExpiringSoon(now))
	assert.False(t, (&entities.InventoryItem{ExpiryDate: &later}).ExpiringSoon(now))
	assert.True(t, (&entities.InventoryItem{ExpiryDate: &past}).Expired(now))
	assert.False(t, (&entities.InventoryItem{}).ExpiringSoon(now))
}

func TestStaffSchedule_State(t *testing.T) {
	in := time.Now()
	out := in.Add(8 * time.Hour)

	scheduled := entities.StaffSchedule{}
	assert.Equal(t, entities.ShiftScheduled, scheduled.State())
	assert.Equal(t, []entities.StaffAction{entities.StaffActionCheckIn}, scheduled.AvailableActions())

	checkedIn := entities.StaffSchedule{CheckInTime: &in, Status: entities.AttendanceStatusPresent}
	assert.Equal(t, []entities.StaffAction{entities.StaffActionCheckOut}, checkedIn.AvailableActions())

	done := entities.StaffSchedule{CheckInTime: &in, CheckOutTime: &out}
	assert.Equal(t, entities.ShiftCheckedOut, done.State())
	assert.Empty(t, done.AvailableActions())

	leave := entities.StaffSchedule{Status: entities.AttendanceStatusOnLeave}
	assert.Equal(t, entities.ShiftLeave, leave.State())
}

func TestPagination_TotalPages(t *testing.T) {
	assert.Equal(t, 3, entities.Pagination{Total: 101, Limit: 50}.TotalPages())
	assert.Equal(t, 0, entities.Pagination{Total: 10}.TotalPages())
}
