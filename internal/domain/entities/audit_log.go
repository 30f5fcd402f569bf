package entities

import (
	"encoding/json"
	"time"
)

// AuditSeverity grades how sensitive an audited action was
type AuditSeverity string

const (
	AuditSeverityLow      AuditSeverity = "low"
	AuditSeverityMedium   AuditSeverity = "medium"
	AuditSeverityHigh     AuditSeverity = "high"
	AuditSeverityCritical AuditSeverity = "critical"
)

// AuditChanges is the before/after diff attached to an entry
type AuditChanges struct {
	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after,omitempty"`
}

// AuditLogEntry is an immutable record of who did what. Read-only.
type AuditLogEntry struct {
	ID          string        `json:"_id"`
	Timestamp   time.Time     `json:"timestamp"`
	UserID      *Ref          `json:"userId,omitempty"`
	UserName    string        `json:"userName"`
	UserRole    string        `json:"userRole"`
	Action      string        `json:"action"`
	EntityType  string        `json:"entityType"`
	EntityID    string        `json:"entityId,omitempty"`
	EntityName  string        `json:"entityName,omitempty"`
	Description string        `json:"description"`
	Severity    AuditSeverity `json:"severity"`
	Changes     *AuditChanges `json:"changes,omitempty"`
	IPAddress   string        `json:"ipAddress,omitempty"`
}

// AuditFilter narrows the audit log listing and export
type AuditFilter struct {
	ClinicID   string
	EntityType string
	Action     string
	UserID     string
	Severity   string
	StartDate  string
	EndDate    string
	Page       int
	Limit      int
}

// DefaultAuditPageSize is the page size the audit screen requests
const DefaultAuditPageSize = 50

// Pagination is the paging block of list responses
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// TotalPages computes the page count from total and limit
func (p Pagination) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// AuditLogPage is one page of audit log entries
type AuditLogPage struct {
	Logs       []AuditLogEntry `json:"logs"`
	Pagination Pagination      `json:"pagination"`
}

// AuditStats is the audit dashboard payload
type AuditStats struct {
	TotalLogs    int           `json:"totalLogs"`
	TodayLogs    int           `json:"todayLogs"`
	CriticalLogs int           `json:"criticalLogs"`
	ActiveUsers  int           `json:"activeUsers"`
	ByEntityType []StatusCount `json:"byEntityType,omitempty"`
}
