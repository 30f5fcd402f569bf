package entities

import (
	"math"
	"time"
)

// PaymentStatus represents how much of a bill is settled
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusOverdue   PaymentStatus = "overdue"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// BillStatus represents the document state of a bill
type BillStatus string

const (
	BillStatusDraft     BillStatus = "draft"
	BillStatusFinalized BillStatus = "finalized"
	BillStatusCancelled BillStatus = "cancelled"
)

// LineItem is a single charge on a bill
type LineItem struct {
	ItemType    string  `json:"itemType"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Discount    float64 `json:"discount"`
	TaxRate     float64 `json:"taxRate"`
	TaxAmount   float64 `json:"taxAmount"`
	Total       float64 `json:"total"`
}

// Gross is unit price times quantity
func (li LineItem) Gross() float64 {
	return li.UnitPrice * li.Quantity
}

// Compute fills TaxAmount and Total:
// tax = unitPrice*qty*taxRate/100, total = unitPrice*qty - discount + tax.
func (li LineItem) Compute() LineItem {
	li.TaxAmount = li.Gross() * li.TaxRate / 100
	li.Total = li.Gross() - li.Discount + li.TaxAmount
	return li
}

// BillTotals are the derived amounts of a bill
type BillTotals struct {
	Subtotal      float64 `json:"subtotal"`
	TotalDiscount float64 `json:"totalDiscount"`
	TotalTax      float64 `json:"totalTax"`
	GrandTotal    float64 `json:"grandTotal"`
}

// ComputeTotals derives the bill totals from its line items
func ComputeTotals(items []LineItem) BillTotals {
	var t BillTotals
	for _, item := range items {
		item = item.Compute()
		t.Subtotal += item.Gross()
		t.TotalDiscount += item.Discount
		t.TotalTax += item.TaxAmount
	}
	t.GrandTotal = t.Subtotal - t.TotalDiscount + t.TotalTax
	return t
}

// Payment is a recorded payment against a bill
type Payment struct {
	Amount        float64    `json:"amount"`
	PaymentMethod string     `json:"paymentMethod"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	TransactionID string     `json:"transactionId,omitempty"`
}

// Bill is a patient invoice
type Bill struct {
	ID            string        `json:"_id"`
	BillNumber    string        `json:"billNumber"`
	Patient       *Ref          `json:"patientId,omitempty"`
	PatientName   string        `json:"patientName"`
	Doctor        *Ref          `json:"doctorId,omitempty"`
	BillType      string        `json:"billType,omitempty"`
	Items         []LineItem    `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	TotalDiscount float64       `json:"totalDiscount"`
	TotalTax      float64       `json:"totalTax"`
	GrandTotal    float64       `json:"grandTotal"`
	PaidAmount    float64       `json:"paidAmount"`
	DueAmount     float64       `json:"dueAmount"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Status        BillStatus    `json:"status"`
	Payments      []Payment     `json:"payments,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	BillDate      *time.Time    `json:"billDate,omitempty"`
}

// CanFinalize reports whether the bill is still a draft
func (b *Bill) CanFinalize() bool {
	return b.Status == BillStatusDraft
}

// CanPay reports whether a payment may be recorded
func (b *Bill) CanPay() bool {
	return b.Status != BillStatusCancelled && b.PaymentStatus != PaymentStatusPaid &&
		b.PaymentStatus != PaymentStatusCancelled && b.DueAmount > 0
}

// Consistent checks grand = subtotal - discount + tax and paid + due = grand
// within a cent.
func (b *Bill) Consistent() bool {
	const eps = 0.01
	grand := b.Subtotal - b.TotalDiscount + b.TotalTax
	return math.Abs(grand-b.GrandTotal) < eps && math.Abs(b.PaidAmount+b.DueAmount-b.GrandTotal) < eps
}

// PatientLabel returns the patient's name or the placeholder
func (b *Bill) PatientLabel() string {
	return b.Patient.DisplayName(b.PatientName)
}

// RevenueSummary is the billing dashboard payload
type RevenueSummary struct {
	TotalRevenue   float64 `json:"totalRevenue"`
	TotalCollected float64 `json:"totalCollected"`
	TotalPending   float64 `json:"totalPending"`
	TotalBills     int     `json:"totalBills"`
}

// RoundMoney rounds to two decimals
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
