package emrapi

import (
	"context"
	"net/http"

	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

const billingBase = "/api/clinic-billing"

// CreateBillRequest creates a bill; totals are precomputed for display parity
// with the server, which recomputes them.
type CreateBillRequest struct {
	ClinicID      string              `json:"clinicId"`
	PatientID     string              `json:"patientId"`
	DoctorID      string              `json:"doctorId,omitempty"`
	BillType      string              `json:"billType,omitempty"`
	Items         []entities.LineItem `json:"items"`
	Notes         string              `json:"notes,omitempty"`
	Subtotal      float64             `json:"subtotal"`
	TotalDiscount float64             `json:"totalDiscount"`
	TotalTax      float64             `json:"totalTax"`
	GrandTotal    float64             `json:"grandTotal"`
}

// PaymentRequest records a payment against a bill
type PaymentRequest struct {
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
}

// BillResponse is returned by bill writes
type BillResponse struct {
	Bill    entities.Bill `json:"bill"`
	Message string        `json:"message"`
}

// ListBills returns the clinic's bills
func (c *HTTPClient) ListBills(ctx context.Context, clinicID string) ([]entities.Bill, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	var out struct {
		Bills []entities.Bill `json:"bills"`
	}
	if err := c.doJSON(ctx, "billing.list", http.MethodGet, billingBase+"/clinic/"+seg(clinicID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Bills, nil
}

// GetRevenueSummary returns the month-to-date revenue summary
func (c *HTTPClient) GetRevenueSummary(ctx context.Context, clinicID string) (*entities.RevenueSummary, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	var out struct {
		Summary entities.RevenueSummary `json:"summary"`
	}
	if err := c.doJSON(ctx, "billing.revenue_summary", http.MethodGet, billingBase+"/clinic/"+seg(clinicID)+"/revenue-summary", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Summary, nil
}

// CreateBill creates a draft bill
func (c *HTTPClient) CreateBill(ctx context.Context, req CreateBillRequest) (*BillResponse, error) {
	out := &BillResponse{}
	if err := c.doJSON(ctx, "billing.create", http.MethodPost, billingBase+"/create", nil, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordPayment records a payment
func (c *HTTPClient) RecordPayment(ctx context.Context, billID string, req PaymentRequest) (*BillResponse, error) {
	if err := requireID("bill", billID); err != nil {
		return nil, err
	}
	out := &BillResponse{}
	if err := c.doJSON(ctx, "billing.payment", http.MethodPost, billingBase+"/bill/"+seg(billID)+"/payment", nil, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// FinalizeBill finalizes a draft bill
func (c *HTTPClient) FinalizeBill(ctx context.Context, billID string) (*BillResponse, error) {
	if err := requireID("bill", billID); err != nil {
		return nil, err
	}
	out := &BillResponse{}
	if err := c.doJSON(ctx, "billing.finalize", http.MethodPost, billingBase+"/bill/"+seg(billID)+"/finalize", nil, struct{}{}, out); err != nil {
		return nil, err
	}
	return out, nil
}
