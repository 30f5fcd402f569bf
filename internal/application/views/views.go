// Package views projects synchronized resources into display rows and
// exposes each screen's actions as validated, dispatched operations.
package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/clinicdesk/internal/application/resources"
	apperrors "github.com/zatekoja/clinicdesk/pkg/errors"
)

// Resource keys shared through the registry
const (
	KeyQueue             = "queue"
	KeyQueueStats        = "queue.stats"
	KeyBeds              = "beds"
	KeyBedOccupancy      = "beds.occupancy"
	KeyAdmissions        = "ipd.admissions"
	KeyIPDStats          = "ipd.stats"
	KeyBills             = "billing.bills"
	KeyRevenueSummary    = "billing.summary"
	KeyInventory         = "pharmacy.inventory"
	KeyPharmacySummary   = "pharmacy.summary"
	KeyAuditLogs         = "audit.logs"
	KeyAuditStats        = "audit.stats"
	KeyAttendance        = "staff.attendance"
	KeyLeaves            = "staff.leaves"
	KeyAttendanceSummary = "staff.summary"
)

// Deps are what every view needs
type Deps struct {
	ClinicID   string
	Registry   *resources.Registry
	Dispatcher *resources.Dispatcher
}

func (d Deps) validate() error {
	if strings.TrimSpace(d.ClinicID) == "" {
		return apperrors.NewValidationError("clinic id is required")
	}
	if d.Registry == nil || d.Dispatcher == nil {
		return fmt.Errorf("views: registry and dispatcher are required")
	}
	return nil
}

// Validator is a draft that can check itself before submission
type Validator interface {
	Validate() error
}

// Form holds a draft for a create or update action. The draft is reset to
// its initial shape only after the action succeeds.
type Form[D Validator] struct {
	Draft D

	name       string
	initial    func() D
	dispatcher *resources.Dispatcher
	submit     func(ctx context.Context, draft D, onSuccess func()) error
}

func newForm[D Validator](name string, d *resources.Dispatcher, initial func() D, submit func(context.Context, D, func()) error) *Form[D] {
	return &Form[D]{
		Draft:      initial(),
		name:       name,
		initial:    initial,
		dispatcher: d,
		submit:     submit,
	}
}

// Validate checks the draft without submitting it
func (f *Form[D]) Validate() error {
	return f.Draft.Validate()
}

// Reset restores the draft's default shape
func (f *Form[D]) Reset() {
	f.Draft = f.initial()
}

// Submit validates the draft and dispatches it. A draft that fails
// validation is reported and never sent.
func (f *Form[D]) Submit(ctx context.Context) error {
	if err := f.Validate(); err != nil {
		return f.dispatcher.Reject(f.name, err)
	}
	return f.submit(ctx, f.Draft, f.Reset)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func invalid(msg string) error {
	return apperrors.NewValidationError(msg)
}

func containsFold(s, term string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}

// FailureText is the operator-facing text of a failed refresh
func FailureText(err error) string {
	if msg := apperrors.UserMessage(err, ""); msg != "" {
		return msg
	}
	if apperrors.IsType(err, apperrors.ErrorTypeNetwork) {
		return "backend unreachable"
	}
	if appErr, ok := apperrors.As(err); ok && appErr.StatusCode != 0 {
		return fmt.Sprintf("backend returned status %d", appErr.StatusCode)
	}
	return "request failed"
}
