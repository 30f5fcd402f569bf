package views

import (
	"context"
	"fmt"
	"time"

	"github.com/zatekoja/clinicdesk/internal/application/resources"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/clients/emrapi"
)

// StaffAPI is the backend surface of the staff screen
type StaffAPI interface {
	ListAttendance(ctx context.Context, clinicID, from, to string) ([]entities.StaffSchedule, error)
	GetAttendanceSummary(ctx context.Context, clinicID string) ([]entities.AttendanceSummary, error)
	ListLeaves(ctx context.Context, clinicID string) ([]entities.LeaveRequest, error)
	CheckIn(ctx context.Context, req emrapi.AttendanceRequest) (*emrapi.AttendanceResponse, error)
	CheckOut(ctx context.Context, req emrapi.AttendanceRequest) (*emrapi.AttendanceResponse, error)
	ApplyLeave(ctx context.Context, req emrapi.LeaveApplication) (*emrapi.LeaveResponse, error)
	LeaveAction(ctx context.Context, leaveID string, decision entities.LeaveDecision) (*emrapi.LeaveResponse, error)
}

// ShiftCounts tallies today's staff by shift state
type ShiftCounts struct {
	Total      int `json:"total"`
	Scheduled  int `json:"scheduled"`
	CheckedIn  int `json:"checkedIn"`
	CheckedOut int `json:"checkedOut"`
	Absent     int `json:"absent"`
	OnLeave    int `json:"onLeave"`
}

// AttendanceRow is one staff member's day as displayed
type AttendanceRow struct {
	ID       string                 `json:"id"`
	StaffID  string                 `json:"staffId"`
	Staff    string                 `json:"staff"`
	Role     string                 `json:"role"`
	Shift    string                 `json:"shift"`
	CheckIn  string                 `json:"checkIn"`
	CheckOut string                 `json:"checkOut"`
	Hours    float64                `json:"hours"`
	State    entities.ShiftState    `json:"state"`
	Actions  []entities.StaffAction `json:"actions"`
}

// LeaveRow is one leave request as displayed
type LeaveRow struct {
	ID     string               `json:"id"`
	Staff  string               `json:"staff"`
	Type   string               `json:"type"`
	From   string               `json:"from"`
	To     string               `json:"to"`
	Days   float64              `json:"days"`
	Reason string               `json:"reason"`
	Status entities.LeaveStatus `json:"status"`
}

// StaffView is the staff attendance and leave screen
type StaffView struct {
	api        StaffAPI
	clinicID   string
	dispatcher *resources.Dispatcher
	now        func() time.Time

	Attendance *resources.Resource[[]entities.StaffSchedule]
	Leaves     *resources.Resource[[]entities.LeaveRequest]
	Summary    *resources.Resource[[]entities.AttendanceSummary]
}

// NewStaffView registers the staff resources and returns the screen.
// Attendance is today's.
func NewStaffView(deps Deps, api StaffAPI) (*StaffView, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	v := &StaffView{api: api, clinicID: deps.ClinicID, dispatcher: deps.Dispatcher, now: time.Now}
	v.Attendance = resources.Register(deps.Registry, KeyAttendance, func(ctx context.Context) ([]entities.StaffSchedule, error) {
		today := v.now().Format(dateLayout)
		return api.ListAttendance(ctx, deps.ClinicID, today, today)
	}, resources.ResourceOptions{FailureMessage: "Failed to load attendance"})
	v.Leaves = resources.Register(deps.Registry, KeyLeaves, func(ctx context.Context) ([]entities.LeaveRequest, error) {
		return api.ListLeaves(ctx, deps.ClinicID)
	}, resources.ResourceOptions{FailureMessage: "Failed to load leave requests"})
	v.Summary = resources.Register(deps.Registry, KeyAttendanceSummary, func(ctx context.Context) ([]entities.AttendanceSummary, error) {
		return api.GetAttendanceSummary(ctx, deps.ClinicID)
	}, resources.ResourceOptions{Policy: resources.PolicySilent})
	return v, nil
}

// Keys are the resources the staff screen loads
func (v *StaffView) Keys() []string {
	return []string{KeyAttendance, KeyLeaves, KeyAttendanceSummary}
}

// Counts tallies today's attendance by shift state
func (v *StaffView) Counts() ShiftCounts {
	return CountShifts(v.Attendance.Get())
}

// CountShifts tallies schedules by shift state
func CountShifts(schedules []entities.StaffSchedule) ShiftCounts {
	c := ShiftCounts{Total: len(schedules)}
	for i := range schedules {
		switch schedules[i].State() {
		case entities.ShiftScheduled:
			c.Scheduled++
		case entities.ShiftCheckedIn:
			c.CheckedIn++
		case entities.ShiftCheckedOut:
			c.CheckedOut++
		case entities.ShiftAbsent:
			c.Absent++
		case entities.ShiftLeave:
			c.OnLeave++
		}
	}
	return c
}

func clock(t *time.Time) string {
	if t == nil {
		return entities.Placeholder
	}
	return t.Local().Format("15:04")
}

// Rows projects today's attendance
func (v *StaffView) Rows() []AttendanceRow {
	schedules := v.Attendance.Get()
	rows := make([]AttendanceRow, 0, len(schedules))
	for i := range schedules {
		s := &schedules[i]
		shift := entities.Placeholder
		if s.ShiftStart != "" {
			shift = s.ShiftStart + "-" + entities.OrDash(s.ShiftEnd)
		}
		rows = append(rows, AttendanceRow{
			ID:       s.ID,
			StaffID:  s.Staff.RefID(),
			Staff:    s.StaffLabel(),
			Role:     s.RoleLabel(),
			Shift:    shift,
			CheckIn:  clock(s.CheckInTime),
			CheckOut: clock(s.CheckOutTime),
			Hours:    s.WorkingHours,
			State:    s.State(),
			Actions:  s.AvailableActions(),
		})
	}
	return rows
}

// LeaveRows projects the leave requests
func (v *StaffView) LeaveRows() []LeaveRow {
	return leaveRows(v.Leaves.Get())
}

// PendingLeaves projects the requests awaiting a decision
func (v *StaffView) PendingLeaves() []LeaveRow {
	var pending []entities.LeaveRequest
	for _, l := range v.Leaves.Get() {
		if l.Pending() {
			pending = append(pending, l)
		}
	}
	return leaveRows(pending)
}

func leaveRows(leaves []entities.LeaveRequest) []LeaveRow {
	rows := make([]LeaveRow, 0, len(leaves))
	for _, l := range leaves {
		rows = append(rows, LeaveRow{
			ID:     l.ID,
			Staff:  l.Staff.DisplayName(""),
			Type:   l.LeaveType,
			From:   l.StartDate.Format(dateLayout),
			To:     l.EndDate.Format(dateLayout),
			Days:   l.TotalDays,
			Reason: entities.OrDash(l.Reason),
			Status: l.Status,
		})
	}
	return rows
}

// findSchedule matches a staff id against today's records
func (v *StaffView) findSchedule(staffID string) (*entities.StaffSchedule, bool) {
	schedules := v.Attendance.Get()
	for i := range schedules {
		if schedules[i].Staff.RefID() == staffID || schedules[i].ID == staffID {
			s := schedules[i]
			return &s, true
		}
	}
	return nil, false
}

var attendanceKeys = []string{KeyAttendance, KeyAttendanceSummary}

// CheckIn records a manual check-in
func (v *StaffView) CheckIn(ctx context.Context, staffID string) error {
	return v.attendance(ctx, staffID, entities.StaffActionCheckIn, v.api.CheckIn,
		"Checked in successfully", "Failed to check in")
}

// CheckOut records a manual check-out
func (v *StaffView) CheckOut(ctx context.Context, staffID string) error {
	return v.attendance(ctx, staffID, entities.StaffActionCheckOut, v.api.CheckOut,
		"Checked out successfully", "Failed to check out")
}

type attendanceCall func(context.Context, emrapi.AttendanceRequest) (*emrapi.AttendanceResponse, error)

func (v *StaffView) attendance(ctx context.Context, staffID string, action entities.StaffAction, call attendanceCall, success, failure string) error {
	name := "staff." + string(action)
	if blank(staffID) {
		return v.dispatcher.Reject(name, invalid("Select a staff member"))
	}
	if s, ok := v.findSchedule(staffID); ok {
		if !allowsStaffAction(s, action) {
			return v.dispatcher.Reject(name, invalid(fmt.Sprintf("%s cannot %s while %s", s.StaffLabel(), action, s.State())))
		}
		if id := s.Staff.RefID(); id != "" {
			staffID = id
		}
	}
	return v.dispatcher.Dispatch(ctx, resources.Action{
		Name: name,
		Do: func(ctx context.Context) error {
			_, err := call(ctx, emrapi.AttendanceRequest{ClinicID: v.clinicID, StaffID: staffID})
			return err
		},
		Success:     success,
		Failure:     failure,
		Invalidates: attendanceKeys,
		EntityID:    staffID,
	})
}

func allowsStaffAction(s *entities.StaffSchedule, action entities.StaffAction) bool {
	for _, a := range s.AvailableActions() {
		if a == action {
			return true
		}
	}
	return false
}

// LeaveForm returns the leave application form
func (v *StaffView) LeaveForm() *Form[LeaveDraft] {
	return newForm("staff.apply_leave", v.dispatcher, defaultLeaveDraft, func(ctx context.Context, d LeaveDraft, onSuccess func()) error {
		return v.dispatcher.Dispatch(ctx, resources.Action{
			Name: "staff.apply_leave",
			Do: func(ctx context.Context) error {
				_, err := v.api.ApplyLeave(ctx, emrapi.LeaveApplication{
					ClinicID:  v.clinicID,
					StaffID:   d.StaffID,
					LeaveType: d.LeaveType,
					StartDate: d.StartDate,
					EndDate:   d.EndDate,
					Reason:    d.Reason,
				})
				return err
			},
			Success:     "Leave request submitted",
			Failure:     "Failed to submit leave",
			Invalidates: []string{KeyLeaves},
			OnSuccess:   onSuccess,
		})
	})
}

var leaveDecisionMessages = map[entities.LeaveDecision]string{
	entities.LeaveApprove: "Leave approved",
	entities.LeaveReject:  "Leave rejected",
}

// DecideLeave approves or rejects a pending request
func (v *StaffView) DecideLeave(ctx context.Context, leaveID string, decision entities.LeaveDecision) error {
	const name = "staff.leave_action"
	if _, ok := leaveDecisionMessages[decision]; !ok {
		return v.dispatcher.Reject(name, invalid(fmt.Sprintf("Unknown decision %q", decision)))
	}
	if blank(leaveID) {
		return v.dispatcher.Reject(name, invalid("Select a leave request"))
	}
	for _, l := range v.Leaves.Get() {
		if l.ID == leaveID && !l.Pending() {
			return v.dispatcher.Reject(name, invalid("Leave request is already "+string(l.Status)))
		}
	}
	return v.dispatcher.Dispatch(ctx, resources.Action{
		Name: name,
		Do: func(ctx context.Context) error {
			_, err := v.api.LeaveAction(ctx, leaveID, decision)
			return err
		},
		Success:     leaveDecisionMessages[decision],
		Failure:     "Failed to process leave",
		Invalidates: []string{KeyLeaves, KeyAttendance},
		EntityID:    leaveID,
	})
}
