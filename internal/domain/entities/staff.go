package entities

import (
	"time"
)

// AttendanceStatus is the day's attendance mark recorded by the backend
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusHalfDay AttendanceStatus = "half_day"
	AttendanceStatusOnLeave AttendanceStatus = "on_leave"
)

// ShiftState is where a staff member is in their shift:
// scheduled -> checked_in -> checked_out, or absent / leave.
type ShiftState string

const (
	ShiftScheduled  ShiftState = "scheduled"
	ShiftCheckedIn  ShiftState = "checked_in"
	ShiftCheckedOut ShiftState = "checked_out"
	ShiftAbsent     ShiftState = "absent"
	ShiftLeave      ShiftState = "leave"
)

// StaffAction is a shift transition
type StaffAction string

const (
	StaffActionCheckIn  StaffAction = "check-in"
	StaffActionCheckOut StaffAction = "check-out"
)

// StaffSchedule is one staff member's attendance record for a day
type StaffSchedule struct {
	ID           string           `json:"_id"`
	Staff        *Ref             `json:"staffId,omitempty"`
	StaffName    string           `json:"staffName,omitempty"`
	Role         string           `json:"role,omitempty"`
	Date         *time.Time       `json:"date,omitempty"`
	ShiftStart   string           `json:"shiftStart,omitempty"`
	ShiftEnd     string           `json:"shiftEnd,omitempty"`
	CheckInTime  *time.Time       `json:"checkInTime,omitempty"`
	CheckOutTime *time.Time       `json:"checkOutTime,omitempty"`
	Status       AttendanceStatus `json:"status,omitempty"`
	WorkingHours float64          `json:"workingHours,omitempty"`
}

// State derives the shift state from the attendance record
func (s *StaffSchedule) State() ShiftState {
	switch {
	case s.Status == AttendanceStatusOnLeave:
		return ShiftLeave
	case s.Status == AttendanceStatusAbsent && s.CheckInTime == nil:
		return ShiftAbsent
	case s.CheckOutTime != nil:
		return ShiftCheckedOut
	case s.CheckInTime != nil:
		return ShiftCheckedIn
	default:
		return ShiftScheduled
	}
}

// AvailableActions returns the shift transitions allowed now
func (s *StaffSchedule) AvailableActions() []StaffAction {
	switch s.State() {
	case ShiftScheduled:
		return []StaffAction{StaffActionCheckIn}
	case ShiftCheckedIn:
		return []StaffAction{StaffActionCheckOut}
	}
	return nil
}

// StaffLabel returns the staff member's name or the placeholder
func (s *StaffSchedule) StaffLabel() string {
	return s.Staff.DisplayName(s.StaffName)
}

// RoleLabel returns the role, falling back to the populated staff role
func (s *StaffSchedule) RoleLabel() string {
	if s.Role != "" {
		return s.Role
	}
	if s.Staff != nil {
		return OrDash(s.Staff.Role)
	}
	return Placeholder
}

// LeaveStatus is the approval state of a leave request
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "pending"
	LeaveStatusApproved LeaveStatus = "approved"
	LeaveStatusRejected LeaveStatus = "rejected"
)

// LeaveDecision is the action taken on a pending leave request
type LeaveDecision string

const (
	LeaveApprove LeaveDecision = "approve"
	LeaveReject  LeaveDecision = "reject"
)

// LeaveTypes lists the accepted leave types
var LeaveTypes = []string{"casual", "sick", "earned", "maternity", "paternity", "unpaid"}

// LeaveRequest is a staff leave application
type LeaveRequest struct {
	ID        string      `json:"_id"`
	Staff     *Ref        `json:"staffId,omitempty"`
	LeaveType string      `json:"leaveType"`
	StartDate time.Time   `json:"startDate"`
	EndDate   time.Time   `json:"endDate"`
	TotalDays float64     `json:"totalDays,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Status    LeaveStatus `json:"status"`
}

// Pending reports whether the request still awaits a decision
func (l *LeaveRequest) Pending() bool {
	return l.Status == LeaveStatusPending
}

// AttendanceSummary is one staff member's aggregate for the period
type AttendanceSummary struct {
	Staff        *Ref    `json:"_id,omitempty"`
	StaffName    string  `json:"staffName,omitempty"`
	Present      int     `json:"present"`
	Absent       int     `json:"absent"`
	Late         int     `json:"late"`
	TotalHours   float64 `json:"totalHours"`
	TotalRecords int     `json:"totalDays"`
}
