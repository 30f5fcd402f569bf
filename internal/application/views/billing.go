package views

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/zatekoja/clinicdesk/internal/application/resources"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/clients/emrapi"
)

// BillingAPI is the backend surface of the billing screen
type BillingAPI interface {
	ListBills(ctx context.Context, clinicID string) ([]entities.Bill, error)
	GetRevenueSummary(ctx context.Context, clinicID string) (*entities.RevenueSummary, error)
	CreateBill(ctx context.Context, req emrapi.CreateBillRequest) (*emrapi.BillResponse, error)
	RecordPayment(ctx context.Context, billID string, req emrapi.PaymentRequest) (*emrapi.BillResponse, error)
	FinalizeBill(ctx context.Context, billID string) (*emrapi.BillResponse, error)
}

// BillRow is one bill as displayed
type BillRow struct {
	ID            string                 `json:"id"`
	Number        string                 `json:"number"`
	Patient       string                 `json:"patient"`
	Items         int                    `json:"items"`
	GrandTotal    float64                `json:"grandTotal"`
	Paid          float64                `json:"paid"`
	Due           float64                `json:"due"`
	PaymentStatus entities.PaymentStatus `json:"paymentStatus"`
	Status        entities.BillStatus    `json:"status"`
	CanPay        bool                   `json:"canPay"`
	CanFinalize   bool                   `json:"canFinalize"`
}

// BillingView is the billing screen
type BillingView struct {
	api        BillingAPI
	clinicID   string
	dispatcher *resources.Dispatcher

	Bills   *resources.Resource[[]entities.Bill]
	Summary *resources.Resource[*entities.RevenueSummary]

	mu            sync.RWMutex
	search        string
	paymentStatus string
}

// NewBillingView registers the billing resources and returns the screen
func NewBillingView(deps Deps, api BillingAPI) (*BillingView, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	v := &BillingView{api: api, clinicID: deps.ClinicID, dispatcher: deps.Dispatcher}
	v.Bills = resources.Register(deps.Registry, KeyBills, func(ctx context.Context) ([]entities.Bill, error) {
		return api.ListBills(ctx, deps.ClinicID)
	}, resources.ResourceOptions{FailureMessage: "Failed to load bills"})
	v.Summary = resources.Register(deps.Registry, KeyRevenueSummary, func(ctx context.Context) (*entities.RevenueSummary, error) {
		return api.GetRevenueSummary(ctx, deps.ClinicID)
	}, resources.ResourceOptions{Policy: resources.PolicySilent})
	return v, nil
}

// Keys are the resources the billing screen loads
func (v *BillingView) Keys() []string {
	return []string{KeyBills, KeyRevenueSummary}
}

// SetFilter narrows Rows by search term and payment status
func (v *BillingView) SetFilter(search, paymentStatus string) {
	v.mu.Lock()
	v.search, v.paymentStatus = search, paymentStatus
	v.mu.Unlock()
}

// Rows projects the filtered bills
func (v *BillingView) Rows() []BillRow {
	v.mu.RLock()
	search, status := v.search, v.paymentStatus
	v.mu.RUnlock()

	bills := FilterBills(v.Bills.Get(), search, status)
	rows := make([]BillRow, 0, len(bills))
	for i := range bills {
		b := &bills[i]
		rows = append(rows, BillRow{
			ID:            b.ID,
			Number:        entities.OrDash(b.BillNumber),
			Patient:       b.PatientLabel(),
			Items:         len(b.Items),
			GrandTotal:    b.GrandTotal,
			Paid:          b.PaidAmount,
			Due:           b.DueAmount,
			PaymentStatus: b.PaymentStatus,
			Status:        b.Status,
			CanPay:        b.CanPay(),
			CanFinalize:   b.CanFinalize(),
		})
	}
	return rows
}

// Find returns a bill by id or bill number
func (v *BillingView) Find(id string) (*entities.Bill, bool) {
	bills := v.Bills.Get()
	for i := range bills {
		if bills[i].ID == id || bills[i].BillNumber == id {
			b := bills[i]
			return &b, true
		}
	}
	return nil, false
}

// FilterBills keeps bills whose patient name (case-insensitive) or bill
// number contains search and whose payment status matches.
func FilterBills(bills []entities.Bill, search, paymentStatus string) []entities.Bill {
	search = strings.TrimSpace(search)
	out := make([]entities.Bill, 0, len(bills))
	for _, b := range bills {
		if paymentStatus != "" && string(b.PaymentStatus) != paymentStatus {
			continue
		}
		if search != "" && !containsFold(b.PatientLabel(), search) && !strings.Contains(b.BillNumber, search) {
			continue
		}
		out = append(out, b)
	}
	return out
}

var billKeys = []string{KeyBills, KeyRevenueSummary}

// BillForm returns the new bill form
func (v *BillingView) BillForm() *Form[BillDraft] {
	return newForm("billing.create", v.dispatcher, defaultBillDraft, func(ctx context.Context, d BillDraft, onSuccess func()) error {
		totals := d.Totals()
		items := make([]entities.LineItem, len(d.Items))
		for i, item := range d.Items {
			items[i] = item.Compute()
		}
		return v.dispatcher.Dispatch(ctx, resources.Action{
			Name: "billing.create",
			Do: func(ctx context.Context) error {
				_, err := v.api.CreateBill(ctx, emrapi.CreateBillRequest{
					ClinicID:      v.clinicID,
					PatientID:     d.PatientID,
					DoctorID:      d.DoctorID,
					BillType:      d.BillType,
					Items:         items,
					Notes:         d.Notes,
					Subtotal:      entities.RoundMoney(totals.Subtotal),
					TotalDiscount: entities.RoundMoney(totals.TotalDiscount),
					TotalTax:      entities.RoundMoney(totals.TotalTax),
					GrandTotal:    entities.RoundMoney(totals.GrandTotal),
				})
				return err
			},
			Success:     "Bill created",
			Failure:     "Failed",
			Invalidates: billKeys,
			OnSuccess:   onSuccess,
		})
	})
}

// PaymentForm returns a payment form for a bill, prefilled with the amount due.
// The bill must be in the current copy so the amount can be checked against
// what is due.
func (v *BillingView) PaymentForm(billID string) *Form[PaymentDraft] {
	return newForm("billing.payment", v.dispatcher, func() PaymentDraft {
		d := PaymentDraft{BillID: billID, PaymentMethod: "cash"}
		if b, ok := v.Find(billID); ok {
			d.BillID = b.ID
			d.Amount = b.DueAmount
			d.Due = b.DueAmount
		}
		return d
	}, func(ctx context.Context, d PaymentDraft, onSuccess func()) error {
		b, ok := v.Find(d.BillID)
		if !ok {
			return v.dispatcher.Reject("billing.payment", invalid(fmt.Sprintf("Bill %s not found", d.BillID)))
		}
		if !b.CanPay() {
			return v.dispatcher.Reject("billing.payment", invalid(fmt.Sprintf("Bill %s has nothing due", b.BillNumber)))
		}
		if entities.RoundMoney(d.Amount) > entities.RoundMoney(b.DueAmount) {
			return v.dispatcher.Reject("billing.payment", invalid("Amount exceeds balance due"))
		}
		d.BillID = b.ID
		return v.dispatcher.Dispatch(ctx, resources.Action{
			Name: "billing.payment",
			Do: func(ctx context.Context) error {
				_, err := v.api.RecordPayment(ctx, d.BillID, emrapi.PaymentRequest{
					Amount:        entities.RoundMoney(d.Amount),
					PaymentMethod: d.PaymentMethod,
				})
				return err
			},
			Success:     "Payment recorded",
			Failure:     "Failed",
			Invalidates: billKeys,
			OnSuccess:   onSuccess,
			EntityID:    d.BillID,
		})
	})
}

// Finalize closes a draft bill to further edits
func (v *BillingView) Finalize(ctx context.Context, billID string) error {
	const name = "billing.finalize"
	if blank(billID) {
		return v.dispatcher.Reject(name, invalid("Select a bill"))
	}
	if b, ok := v.Find(billID); ok {
		if !b.CanFinalize() {
			return v.dispatcher.Reject(name, invalid(fmt.Sprintf("Bill %s is already %s", b.BillNumber, b.Status)))
		}
		billID = b.ID
	}
	return v.dispatcher.Dispatch(ctx, resources.Action{
		Name: name,
		Do: func(ctx context.Context) error {
			_, err := v.api.FinalizeBill(ctx, billID)
			return err
		},
		Success:     "Bill finalized",
		Failure:     "Failed",
		Invalidates: []string{KeyBills},
		EntityID:    billID,
	})
}
