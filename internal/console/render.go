// Package console renders view projections as aligned text tables.
package console

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/zatekoja/clinicdesk/internal/application/resources"
	"github.com/zatekoja/clinicdesk/internal/application/views"
)

// Format selects table or JSON output
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat accepts "table" or "json"
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Renderer writes projections to out
type Renderer struct {
	out    io.Writer
	format Format
}

// NewRenderer creates a renderer
func NewRenderer(out io.Writer, format Format) *Renderer {
	if format == "" {
		format = FormatTable
	}
	return &Renderer{out: out, format: format}
}

type table struct {
	tw *tabwriter.Writer
}

func (r *Renderer) table(headers ...string) *table {
	t := &table{tw: tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)}
	t.row(toAny(headers)...)
	return t
}

func (t *table) row(cells ...any) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = cell(c)
	}
	fmt.Fprintln(t.tw, strings.Join(parts, "\t"))
}

func (t *table) flush() error {
	return t.tw.Flush()
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func cell(v any) string {
	switch x := v.(type) {
	case string:
		if x == "" {
			return "-"
		}
		return x
	case float64:
		return fmt.Sprintf("%.2f", x)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case fmt.Stringer:
		return x.String()
	default:
		s := fmt.Sprint(x)
		if s == "" {
			return "-"
		}
		return s
	}
}

func join[T ~string](items []T) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = string(it)
	}
	return strings.Join(parts, ",")
}

// JSON writes v as indented JSON regardless of format
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Message prints a single line
func (r *Renderer) Message(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Queue renders the counters and the token table
func (r *Renderer) Queue(counts views.QueueCounts, rows []views.QueueRow) error {
	if r.format == FormatJSON {
		return r.JSON(struct {
			Counts views.QueueCounts `json:"counts"`
			Rows   []views.QueueRow  `json:"rows"`
		}{counts, rows})
	}
	r.Message("Total %d | Waiting %d | Called %d | In consultation %d | On hold %d | Completed %d | No show %d",
		counts.Total, counts.Waiting, counts.Called, counts.InConsultation, counts.OnHold, counts.Completed, counts.NoShow)
	t := r.table("ID", "TOKEN", "PATIENT", "DOCTOR", "DEPARTMENT", "TYPE", "WAIT", "STATUS", "ACTIONS")
	for _, row := range rows {
		t.row(row.ID, row.Token, row.Patient, row.Doctor, row.Department, string(row.Type), row.Wait, row.StatusText, join(row.Actions))
	}
	return t.flush()
}

// Board renders the waiting-room board
func (r *Renderer) Board(b views.Board) error {
	if r.format == FormatJSON {
		return r.JSON(b)
	}
	r.Message("NOW SERVING")
	t := r.table("TOKEN", "DEPARTMENT", "DOCTOR")
	for _, row := range b.NowServing {
		t.row(row.Token, row.Department, row.Doctor)
	}
	if err := t.flush(); err != nil {
		return err
	}
	r.Message("\nWAITING (%d)", b.WaitingCount)
	t = r.table("TOKEN", "DEPARTMENT", "WAIT")
	for _, row := range b.Waiting {
		t.row(row.Token, row.Department, row.Wait)
	}
	return t.flush()
}

// Beds renders occupancy and the bed table
func (r *Renderer) Beds(summary views.Occupancy, rows []views.BedRow) error {
	if r.format == FormatJSON {
		return r.JSON(struct {
			Summary views.Occupancy `json:"summary"`
			Rows    []views.BedRow  `json:"rows"`
		}{summary, rows})
	}
	r.Message("Beds %d | Occupied %d | Available %d | Reserved %d | Maintenance %d | Cleaning %d | Occupancy %.1f%%",
		summary.Total, summary.Occupied, summary.Available, summary.Reserved, summary.Maintenance, summary.Cleaning, summary.Rate)
	t := r.table("ID", "BED", "WARD", "ROOM", "STATUS", "PATIENT", "RATE", "FEATURES", "CAN SET")
	for _, row := range rows {
		t.row(row.ID, row.Number, row.Ward, row.Room, string(row.Status), row.Patient, row.Rate, row.Features, join(row.Options))
	}
	return t.flush()
}

// Wards renders the per-ward availability
func (r *Renderer) Wards(groups []views.WardGroup) error {
	if r.format == FormatJSON {
		return r.JSON(groups)
	}
	t := r.table("WARD", "AVAILABLE", "TOTAL")
	for _, g := range groups {
		t.row(g.WardType, g.Available, g.Total)
	}
	return t.flush()
}

// Admissions renders the IPD table
func (r *Renderer) Admissions(rows []views.AdmissionRow) error {
	if r.format == FormatJSON {
		return r.JSON(rows)
	}
	t := r.table("ID", "ADMISSION", "PATIENT", "COMPLAINT", "DOCTOR", "BED", "WARD", "STATUS", "NOTES", "LOCKED", "ACTIONS")
	for _, row := range rows {
		t.row(row.ID, row.Number, row.Patient, row.Complaint, row.Doctor, row.Bed, row.Ward, string(row.Status), row.Notes, row.Locked, join(row.Actions))
	}
	return t.flush()
}

// Bills renders the billing table
func (r *Renderer) Bills(rows []views.BillRow) error {
	if r.format == FormatJSON {
		return r.JSON(rows)
	}
	t := r.table("ID", "BILL", "PATIENT", "ITEMS", "TOTAL", "PAID", "DUE", "PAYMENT", "STATUS")
	for _, row := range rows {
		t.row(row.ID, row.Number, row.Patient, row.Items, row.GrandTotal, row.Paid, row.Due, string(row.PaymentStatus), string(row.Status))
	}
	return t.flush()
}

// Inventory renders stock alerts and the inventory table
func (r *Renderer) Inventory(rows []views.InventoryRow, alerts views.StockAlerts) error {
	if r.format == FormatJSON {
		return r.JSON(struct {
			Rows   []views.InventoryRow `json:"rows"`
			Alerts views.StockAlerts    `json:"alerts"`
		}{rows, alerts})
	}
	r.Message("Low stock %d | Out of stock %d | Expiring soon %d | Expired %d",
		len(alerts.LowStock), len(alerts.OutOfStock), len(alerts.ExpiringSoon), len(alerts.Expired))
	t := r.table("ID", "MEDICINE", "GENERIC", "CATEGORY", "STOCK", "PRICE", "EXPIRY", "STATUS")
	for _, row := range rows {
		expiry := row.Expiry
		switch {
		case row.Expired:
			expiry += " (expired)"
		case row.ExpiringSoon:
			expiry += " (soon)"
		}
		t.row(row.ID, row.Name, row.Generic, row.Category, row.Stock, row.Price, expiry, string(row.Status))
	}
	return t.flush()
}

// Audit renders one page of audit logs
func (r *Renderer) Audit(rows []views.AuditRow, page views.PageInfo) error {
	if r.format == FormatJSON {
		return r.JSON(struct {
			Rows []views.AuditRow `json:"rows"`
			Page views.PageInfo   `json:"page"`
		}{rows, page})
	}
	t := r.table("TIME", "USER", "ROLE", "ACTION", "ENTITY", "SEVERITY", "DESCRIPTION")
	for _, row := range rows {
		t.row(row.Time, row.User, row.Role, row.Action, row.Entity, string(row.Severity), row.Description)
	}
	if err := t.flush(); err != nil {
		return err
	}
	r.Message("Page %d of %d (%d entries)", page.Page, page.Pages, page.Total)
	return nil
}

// Attendance renders today's shift counters and attendance
func (r *Renderer) Attendance(counts views.ShiftCounts, rows []views.AttendanceRow) error {
	if r.format == FormatJSON {
		return r.JSON(struct {
			Counts views.ShiftCounts     `json:"counts"`
			Rows   []views.AttendanceRow `json:"rows"`
		}{counts, rows})
	}
	r.Message("Staff %d | Scheduled %d | Checked in %d | Checked out %d | Absent %d | On leave %d",
		counts.Total, counts.Scheduled, counts.CheckedIn, counts.CheckedOut, counts.Absent, counts.OnLeave)
	t := r.table("STAFF ID", "NAME", "ROLE", "SHIFT", "IN", "OUT", "HOURS", "STATE", "ACTIONS")
	for _, row := range rows {
		t.row(row.StaffID, row.Staff, row.Role, row.Shift, row.CheckIn, row.CheckOut, row.Hours, string(row.State), join(row.Actions))
	}
	return t.flush()
}

// Leaves renders leave requests
func (r *Renderer) Leaves(rows []views.LeaveRow) error {
	if r.format == FormatJSON {
		return r.JSON(rows)
	}
	t := r.table("ID", "STAFF", "TYPE", "FROM", "TO", "DAYS", "STATUS", "REASON")
	for _, row := range rows {
		t.row(row.ID, row.Staff, row.Type, row.From, row.To, row.Days, string(row.Status), row.Reason)
	}
	return t.flush()
}

// WatchHeader prints the refresh line of a watch screen and one error line
// per resource whose last refresh failed. The rows below it keep showing the
// last good data.
func (r *Renderer) WatchHeader(now time.Time, interval time.Duration, failures []resources.Status) {
	r.Message("%s  (refresh every %s, Ctrl-C to quit)", now.Format("15:04:05"), interval)
	for _, f := range failures {
		since := "no data yet"
		if !f.FetchedAt.IsZero() {
			since = "data from " + f.FetchedAt.Format("15:04:05")
		}
		if f.Stale {
			since = "cached data"
		}
		r.Message("! last refresh of %s failed: %s (%s)", f.Key, views.FailureText(f.Err), since)
	}
}

// Clear wipes the terminal before a redraw; JSON output is never cleared
func (r *Renderer) Clear() {
	if r.format == FormatTable {
		fmt.Fprint(r.out, "\x1b[H\x1b[2J")
	}
}
