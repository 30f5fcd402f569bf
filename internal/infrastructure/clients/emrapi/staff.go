package emrapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

const staffBase = "/api/staff-management"

// AttendanceRequest is a manual check-in or check-out
type AttendanceRequest struct {
	ClinicID string `json:"clinicId"`
	StaffID  string `json:"staffId"`
	Method   string `json:"-"`
}

// LeaveApplication applies for leave on behalf of a staff member
type LeaveApplication struct {
	ClinicID  string `json:"clinicId"`
	StaffID   string `json:"staffId"`
	LeaveType string `json:"leaveType"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason,omitempty"`
}

// AttendanceResponse is returned by check-in and check-out
type AttendanceResponse struct {
	Attendance entities.StaffSchedule `json:"attendance"`
	Message    string                 `json:"message"`
}

// LeaveResponse is returned by leave writes
type LeaveResponse struct {
	Leave   entities.LeaveRequest `json:"leave"`
	Message string                `json:"message"`
}

// ListAttendance returns attendance records between from and to (YYYY-MM-DD, optional)
func (c *HTTPClient) ListAttendance(ctx context.Context, clinicID, from, to string) ([]entities.StaffSchedule, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	q := url.Values{}
	setIf(q, "startDate", from)
	setIf(q, "endDate", to)

	var out struct {
		Attendance []entities.StaffSchedule `json:"attendance"`
	}
	if err := c.doJSON(ctx, "staff.attendance", http.MethodGet, staffBase+"/attendance/clinic/"+seg(clinicID), q, nil, &out); err != nil {
		return nil, err
	}
	return out.Attendance, nil
}

// GetAttendanceSummary returns per-staff attendance aggregates
func (c *HTTPClient) GetAttendanceSummary(ctx context.Context, clinicID string) ([]entities.AttendanceSummary, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	var out struct {
		Summary []entities.AttendanceSummary `json:"summary"`
	}
	if err := c.doJSON(ctx, "staff.attendance_summary", http.MethodGet, staffBase+"/attendance/summary/"+seg(clinicID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Summary, nil
}

// ListLeaves returns the clinic's leave requests
func (c *HTTPClient) ListLeaves(ctx context.Context, clinicID string) ([]entities.LeaveRequest, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	var out struct {
		Leaves []entities.LeaveRequest `json:"leaves"`
	}
	if err := c.doJSON(ctx, "staff.leaves", http.MethodGet, staffBase+"/leave/clinic/"+seg(clinicID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Leaves, nil
}

// CheckIn records a manual check-in
func (c *HTTPClient) CheckIn(ctx context.Context, req AttendanceRequest) (*AttendanceResponse, error) {
	return c.attendanceWrite(ctx, "staff.check_in", "check-in", "checkInMethod", req)
}

// CheckOut records a manual check-out
func (c *HTTPClient) CheckOut(ctx context.Context, req AttendanceRequest) (*AttendanceResponse, error) {
	return c.attendanceWrite(ctx, "staff.check_out", "check-out", "checkOutMethod", req)
}

func (c *HTTPClient) attendanceWrite(ctx context.Context, op, action, methodField string, req AttendanceRequest) (*AttendanceResponse, error) {
	if err := requireID("staff", req.StaffID); err != nil {
		return nil, err
	}
	method := req.Method
	if method == "" {
		method = "manual"
	}
	body := map[string]string{
		"clinicId":  req.ClinicID,
		"staffId":   req.StaffID,
		methodField: method,
	}
	out := &AttendanceResponse{}
	if err := c.doJSON(ctx, op, http.MethodPost, staffBase+"/attendance/"+action, nil, body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyLeave submits a leave application
func (c *HTTPClient) ApplyLeave(ctx context.Context, req LeaveApplication) (*LeaveResponse, error) {
	out := &LeaveResponse{}
	if err := c.doJSON(ctx, "staff.apply_leave", http.MethodPost, staffBase+"/leave/apply", nil, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// LeaveAction approves or rejects a pending leave request
func (c *HTTPClient) LeaveAction(ctx context.Context, leaveID string, decision entities.LeaveDecision) (*LeaveResponse, error) {
	if err := requireID("leave", leaveID); err != nil {
		return nil, err
	}
	body := struct {
		Action entities.LeaveDecision `json:"action"`
	}{Action: decision}
	out := &LeaveResponse{}
	if err := c.doJSON(ctx, "staff.leave_action", http.MethodPost, staffBase+"/leave/"+seg(leaveID)+"/action", nil, body, out); err != nil {
		return nil, err
	}
	return out, nil
}
