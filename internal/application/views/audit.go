package views

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zatekoja/clinicdesk/internal/application/resources"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

// AuditAPI is the backend surface of the audit log screen
type AuditAPI interface {
	ListAuditLogs(ctx context.Context, filter entities.AuditFilter) (*entities.AuditLogPage, error)
	GetAuditStats(ctx context.Context, clinicID string) (*entities.AuditStats, error)
	ExportAuditLogs(ctx context.Context, filter entities.AuditFilter, w io.Writer) (int64, error)
}

// AuditRow is one audit entry as displayed
type AuditRow struct {
	ID          string                 `json:"id"`
	Time        string                 `json:"time"`
	User        string                 `json:"user"`
	Role        string                 `json:"role"`
	Action      string                 `json:"action"`
	Entity      string                 `json:"entity"`
	Description string                 `json:"description"`
	Severity    entities.AuditSeverity `json:"severity"`
}

// PageInfo describes the current audit page
type PageInfo struct {
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
	Total   int  `json:"total"`
	HasPrev bool `json:"hasPrev"`
	HasNext bool `json:"hasNext"`
}

// AuditView is the read-only audit log screen
type AuditView struct {
	api        AuditAPI
	clinicID   string
	dispatcher *resources.Dispatcher
	now        func() time.Time

	Logs  *resources.Resource[*entities.AuditLogPage]
	Stats *resources.Resource[*entities.AuditStats]

	mu     sync.RWMutex
	filter entities.AuditFilter
}

// NewAuditView registers the audit resources and returns the screen
func NewAuditView(deps Deps, api AuditAPI) (*AuditView, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	v := &AuditView{
		api:        api,
		clinicID:   deps.ClinicID,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
		filter:     entities.AuditFilter{Page: 1, Limit: entities.DefaultAuditPageSize},
	}
	v.Logs = resources.Register(deps.Registry, KeyAuditLogs, func(ctx context.Context) (*entities.AuditLogPage, error) {
		return api.ListAuditLogs(ctx, v.Filter())
	}, resources.ResourceOptions{Policy: resources.PolicyNotifyAlways, FailureMessage: "Failed to load audit logs"})
	v.Stats = resources.Register(deps.Registry, KeyAuditStats, func(ctx context.Context) (*entities.AuditStats, error) {
		return api.GetAuditStats(ctx, deps.ClinicID)
	}, resources.ResourceOptions{Policy: resources.PolicySilent})
	return v, nil
}

// Keys are the resources the audit screen loads
func (v *AuditView) Keys() []string {
	return []string{KeyAuditLogs, KeyAuditStats}
}

// Filter returns the current filter with the clinic filled in
func (v *AuditView) Filter() entities.AuditFilter {
	v.mu.RLock()
	f := v.filter
	v.mu.RUnlock()
	f.ClinicID = v.clinicID
	return f
}

// SetFilter replaces the filter and returns to the first page
func (v *AuditView) SetFilter(f entities.AuditFilter) {
	v.mu.Lock()
	f.Page = 1
	if f.Limit < 1 {
		f.Limit = entities.DefaultAuditPageSize
	}
	v.filter = f
	v.mu.Unlock()
}

// GoToPage selects a page; it takes effect on the next refresh of the logs
func (v *AuditView) GoToPage(page int) {
	if page < 1 {
		page = 1
	}
	if pages := v.Page().Pages; pages > 0 && page > pages {
		page = pages
	}
	v.mu.Lock()
	v.filter.Page = page
	v.mu.Unlock()
}

// Page reports where the current page sits in the result set
func (v *AuditView) Page() PageInfo {
	page := v.Logs.Get()
	if page == nil {
		return PageInfo{Page: v.Filter().Page}
	}
	p := page.Pagination
	pages := p.Pages
	if pages == 0 {
		pages = p.TotalPages()
	}
	return PageInfo{
		Page:    p.Page,
		Pages:   pages,
		Total:   p.Total,
		HasPrev: p.Page > 1,
		HasNext: p.Page < pages,
	}
}

// Rows projects the current page of entries
func (v *AuditView) Rows() []AuditRow {
	page := v.Logs.Get()
	if page == nil {
		return []AuditRow{}
	}
	rows := make([]AuditRow, 0, len(page.Logs))
	for _, e := range page.Logs {
		entity := entities.OrDash(e.EntityType)
		if e.EntityName != "" {
			entity += ": " + e.EntityName
		}
		rows = append(rows, AuditRow{
			ID:          e.ID,
			Time:        e.Timestamp.Local().Format("2006-01-02 15:04"),
			User:        e.UserID.DisplayName(e.UserName),
			Role:        entities.OrDash(e.UserRole),
			Action:      e.Action,
			Entity:      entity,
			Description: e.Description,
			Severity:    e.Severity,
		})
	}
	return rows
}

// SeverityCounts tallies the current page by severity
func (v *AuditView) SeverityCounts() map[entities.AuditSeverity]int {
	counts := map[entities.AuditSeverity]int{}
	if page := v.Logs.Get(); page != nil {
		for _, e := range page.Logs {
			counts[e.Severity]++
		}
	}
	return counts
}

// ExportFileName is the name the export is saved under for day t
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("audit-logs-%s.csv", t.Format(dateLayout))
}

// Export downloads the filtered log as CSV into dir and returns the file path.
// A failed download leaves no partial file behind.
func (v *AuditView) Export(ctx context.Context, dir string) (string, error) {
	path := filepath.Join(dir, ExportFileName(v.now()))
	filter := v.Filter()
	filter.Page, filter.Limit = 0, 0

	err := v.dispatcher.Dispatch(ctx, resources.Action{
		Name: "audit.export",
		Do: func(ctx context.Context) error {
			return writeFile(path, func(w io.Writer) error {
				_, err := v.api.ExportAuditLogs(ctx, filter, w)
				return err
			})
		},
		Success: "Logs exported",
		Failure: "Export failed",
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func writeFile(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
