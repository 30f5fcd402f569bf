package views

import (
	"strings"
	"time"

	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

const dateLayout = "2006-01-02"

// IssueTokenDraft is the walk-in token form
type IssueTokenDraft struct {
	PatientName    string
	PatientPhone   string
	PatientAge     int
	PatientGender  string
	DoctorID       string
	DoctorName     string
	Department     string
	TokenType      entities.TokenType
	ChiefComplaint string
}

func defaultIssueTokenDraft() IssueTokenDraft {
	return IssueTokenDraft{
		PatientGender: "male",
		Department:    "consultation",
		TokenType:     entities.TokenTypeRegular,
	}
}

// Validate requires patient name and phone
func (d IssueTokenDraft) Validate() error {
	if blank(d.PatientName) || blank(d.PatientPhone) {
		return invalid("Name and phone required")
	}
	return nil
}

// TransferDraft moves a token to another doctor or department
type TransferDraft struct {
	TokenID      string
	ToDoctorID   string
	ToDepartment string
	Reason       string
}

func defaultTransferDraft() TransferDraft {
	return TransferDraft{Reason: "Transferred by staff"}
}

// Validate requires a token and a destination
func (d TransferDraft) Validate() error {
	if blank(d.TokenID) {
		return invalid("Select a token to transfer")
	}
	if blank(d.ToDoctorID) && blank(d.ToDepartment) {
		return invalid("Select a doctor or department")
	}
	return nil
}

// AdmitDraft is the admission form
type AdmitDraft struct {
	PatientID            string
	PatientName          string
	PatientPhone         string
	PatientAge           int
	PatientGender        string
	ChiefComplaint       string
	ProvisionalDiagnosis string
	AttendingDoctorID    string
	AttendingDoctorName  string
	BedID                string
	WardType             string
	AdmissionType        string
	TreatmentPlan        string
}

func defaultAdmitDraft() AdmitDraft {
	return AdmitDraft{
		PatientGender: "male",
		WardType:      "general",
		AdmissionType: "planned",
	}
}

// Validate requires patient name and chief complaint
func (d AdmitDraft) Validate() error {
	if blank(d.PatientName) || blank(d.ChiefComplaint) {
		return invalid("Patient name and chief complaint are required")
	}
	return nil
}

// DischargeDraft is the discharge form
type DischargeDraft struct {
	AdmissionID        string
	DischargeType      string
	DischargeCondition string
	DischargeSummary   string
	FinalDiagnosis     string
}

func defaultDischargeDraft() DischargeDraft {
	return DischargeDraft{DischargeType: "normal", DischargeCondition: "stable"}
}

// Validate requires the admission
func (d DischargeDraft) Validate() error {
	if blank(d.AdmissionID) {
		return invalid("Select an admission to discharge")
	}
	return nil
}

// ProgressNoteDraft appends a note to an admission
type ProgressNoteDraft struct {
	AdmissionID string
	Note        string
}

// Validate requires a non-blank note
func (d ProgressNoteDraft) Validate() error {
	if blank(d.AdmissionID) {
		return invalid("Select an admission")
	}
	if blank(d.Note) {
		return invalid("Note is required")
	}
	return nil
}

// BedTransferDraft moves an admission to another bed
type BedTransferDraft struct {
	AdmissionID string
	NewBedID    string
	Reason      string
}

// Validate requires the target bed
func (d BedTransferDraft) Validate() error {
	if blank(d.AdmissionID) {
		return invalid("Select an admission")
	}
	if blank(d.NewBedID) {
		return invalid("Select a bed")
	}
	return nil
}

// BedDraft creates a single bed
type BedDraft struct {
	BedNumber     string
	WardType      string
	WardName      string
	RoomNumber    string
	FloorNumber   string
	BedType       string
	HasOxygen     bool
	HasMonitor    bool
	HasVentilator bool
	DailyRate     float64
}

func defaultBedDraft() BedDraft {
	return BedDraft{WardType: "general", BedType: "standard"}
}

// Validate requires the bed number
func (d BedDraft) Validate() error {
	if blank(d.BedNumber) {
		return invalid("Bed number is required")
	}
	if d.DailyRate < 0 {
		return invalid("Daily rate cannot be negative")
	}
	return nil
}

// MaxBulkBeds bounds a single bulk creation
const MaxBulkBeds = 100

// BulkBedDraft creates Count beds numbered from StartNumber
type BulkBedDraft struct {
	WardType    string
	WardName    string
	StartNumber int
	Count       int
	BedType     string
	DailyRate   float64
}

func defaultBulkBedDraft() BulkBedDraft {
	return BulkBedDraft{WardType: "general", StartNumber: 1, Count: 10, BedType: "standard"}
}

// Validate bounds the count to 1..MaxBulkBeds
func (d BulkBedDraft) Validate() error {
	if d.Count < 1 || d.Count > MaxBulkBeds {
		return invalid("Count must be between 1 and 100")
	}
	if d.StartNumber < 1 {
		return invalid("Start number must be at least 1")
	}
	return nil
}

// BedNumbers returns the generated bed numbers
func (d BulkBedDraft) BedNumbers() []string {
	return entities.BulkBedNumbers(d.WardType, d.StartNumber, d.Count)
}

// BillDraft is a bill under construction
type BillDraft struct {
	PatientID string
	DoctorID  string
	BillType  string
	Items     []entities.LineItem
	Notes     string
}

func defaultBillDraft() BillDraft {
	return BillDraft{BillType: "opd"}
}

// Validate requires a patient and at least one item
func (d BillDraft) Validate() error {
	if blank(d.PatientID) || len(d.Items) == 0 {
		return invalid("Select patient and add items")
	}
	return nil
}

// Totals previews the bill totals; the backend computes the stored ones
func (d BillDraft) Totals() entities.BillTotals {
	return entities.ComputeTotals(d.Items)
}

// AddItem appends a line item with its derived tax and total
func (d *BillDraft) AddItem(item entities.LineItem) error {
	if blank(item.Description) || item.UnitPrice <= 0 {
		return invalid("Fill item details")
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if item.ItemType == "" {
		item.ItemType = "consultation"
	}
	d.Items = append(d.Items, item.Compute())
	return nil
}

// RemoveItem drops the item at index i
func (d *BillDraft) RemoveItem(i int) {
	if i < 0 || i >= len(d.Items) {
		return
	}
	d.Items = append(d.Items[:i:i], d.Items[i+1:]...)
}

// PaymentDraft records a payment against a bill
type PaymentDraft struct {
	BillID        string
	Amount        float64
	PaymentMethod string
	// Due is the bill's outstanding amount at the time the form was opened.
	Due float64
}

// Validate requires 0 < amount <= due
func (d PaymentDraft) Validate() error {
	if blank(d.BillID) {
		return invalid("Select a bill")
	}
	if d.Amount <= 0 {
		return invalid("Amount must be greater than zero")
	}
	if d.Due > 0 && entities.RoundMoney(d.Amount) > entities.RoundMoney(d.Due) {
		return invalid("Amount exceeds balance due")
	}
	return nil
}

// InventoryDraft adds or, with ItemID set, updates a stock line
type InventoryDraft struct {
	ItemID               string
	MedicineName         string
	GenericName          string
	BrandName            string
	Manufacturer         string
	Category             string
	Strength             string
	Unit                 string
	CurrentStock         int
	CostPrice            float64
	SellingPrice         float64
	MRP                  float64
	GSTRate              float64
	MinStockLevel        int
	ReorderLevel         int
	ExpiryDate           string
	RequiresPrescription bool
}

func defaultInventoryDraft() InventoryDraft {
	return InventoryDraft{Category: "tablet", Unit: "strip", MinStockLevel: 10, ReorderLevel: 20, GSTRate: 12}
}

// Editing reports whether the draft updates an existing item
func (d InventoryDraft) Editing() bool {
	return d.ItemID != ""
}

// Validate requires a name and non-negative quantities
func (d InventoryDraft) Validate() error {
	if blank(d.MedicineName) {
		return invalid("Medicine name is required")
	}
	if d.CurrentStock < 0 || d.CostPrice < 0 || d.SellingPrice < 0 || d.MRP < 0 {
		return invalid("Prices and stock cannot be negative")
	}
	if d.ExpiryDate != "" {
		if _, err := time.Parse(dateLayout, d.ExpiryDate); err != nil {
			return invalid("Expiry date must be YYYY-MM-DD")
		}
	}
	return nil
}

// DraftFromItem loads an item into an edit draft
func DraftFromItem(item entities.InventoryItem) InventoryDraft {
	d := InventoryDraft{
		ItemID:               item.ID,
		MedicineName:         item.MedicineName,
		GenericName:          item.GenericName,
		BrandName:            item.BrandName,
		Manufacturer:         item.Manufacturer,
		Category:             item.Category,
		Strength:             item.Strength,
		Unit:                 item.Unit,
		CurrentStock:         item.CurrentStock,
		CostPrice:            item.CostPrice,
		SellingPrice:         item.SellingPrice,
		MRP:                  item.MRP,
		GSTRate:              item.GSTRate,
		MinStockLevel:        item.MinStockLevel,
		ReorderLevel:         item.ReorderLevel,
		RequiresPrescription: item.RequiresPrescription,
	}
	if item.ExpiryDate != nil {
		d.ExpiryDate = item.ExpiryDate.Format(dateLayout)
	}
	return d
}

// LeaveDraft is a leave application
type LeaveDraft struct {
	StaffID   string
	LeaveType string
	StartDate string
	EndDate   string
	Reason    string
}

func defaultLeaveDraft() LeaveDraft {
	return LeaveDraft{LeaveType: "casual"}
}

// Validate requires staff and a well-ordered date range
func (d LeaveDraft) Validate() error {
	if blank(d.StaffID) || blank(d.StartDate) || blank(d.EndDate) {
		return invalid("Staff and dates are required")
	}
	start, err := time.Parse(dateLayout, d.StartDate)
	if err != nil {
		return invalid("Start date must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, d.EndDate)
	if err != nil {
		return invalid("End date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return invalid("End date cannot be before start date")
	}
	if !validLeaveType(d.LeaveType) {
		return invalid("Unknown leave type " + d.LeaveType)
	}
	return nil
}

func validLeaveType(t string) bool {
	for _, lt := range entities.LeaveTypes {
		if strings.EqualFold(lt, t) {
			return true
		}
	}
	return false
}
