package emrapi

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

const auditBase = "/api/audit-logs"

func auditQuery(f entities.AuditFilter) url.Values {
	q := url.Values{}
	setIf(q, "clinicId", f.ClinicID)
	setIf(q, "entityType", f.EntityType)
	setIf(q, "action", f.Action)
	setIf(q, "userId", f.UserID)
	setIf(q, "severity", f.Severity)
	setIf(q, "startDate", f.StartDate)
	setIf(q, "endDate", f.EndDate)
	return q
}

// ListAuditLogs returns one page of audit log entries
func (c *HTTPClient) ListAuditLogs(ctx context.Context, filter entities.AuditFilter) (*entities.AuditLogPage, error) {
	if err := requireID("clinic", filter.ClinicID); err != nil {
		return nil, err
	}
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = entities.DefaultAuditPageSize
	}
	q := auditQuery(filter)
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	out := &entities.AuditLogPage{}
	if err := c.doJSON(ctx, "audit.list", http.MethodGet, auditBase, q, nil, out); err != nil {
		return nil, err
	}
	if out.Pagination.Limit == 0 {
		out.Pagination.Limit = limit
	}
	if out.Pagination.Page == 0 {
		out.Pagination.Page = page
	}
	return out, nil
}

// GetAuditStats returns the audit dashboard
func (c *HTTPClient) GetAuditStats(ctx context.Context, clinicID string) (*entities.AuditStats, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	var out struct {
		Stats entities.AuditStats `json:"stats"`
	}
	if err := c.doJSON(ctx, "audit.stats", http.MethodGet, auditBase+"/stats/"+seg(clinicID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Stats, nil
}

// ExportAuditLogs streams the filtered audit log export (CSV) into w
func (c *HTTPClient) ExportAuditLogs(ctx context.Context, filter entities.AuditFilter, w io.Writer) (int64, error) {
	if err := requireID("clinic", filter.ClinicID); err != nil {
		return 0, err
	}
	q := auditQuery(filter)
	q.Del("clinicId")
	q.Set("format", "csv")
	return c.download(ctx, "audit.export", auditBase+"/export/"+seg(filter.ClinicID), q, w)
}
