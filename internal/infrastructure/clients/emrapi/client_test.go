package emrapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/clients/emrapi"
	apperrors "github.com/zatekoja/clinicdesk/pkg/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *emrapi.HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return emrapi.NewClient(srv.URL+"/", emrapi.WithToken("secret"), emrapi.WithTimeout(2*time.Second))
}

func TestGetQueue_SendsFiltersAndDecodesTokens(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotReqID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"queue":[
			{"_id":"t1","tokenNumber":"C-001","patientName":"Asha Rao","department":"consultation","status":"waiting",
			 "doctorId":{"_id":"d1","name":"Dr. Mehta"}},
			{"_id":"t2","tokenNumber":"C-002","patientName":"Ravi","department":"consultation","status":"called","doctorId":"d2"}
		]}`)
	})

	queue, err := client.GetQueue(context.Background(), "clinic-1", emrapi.QueueFilter{Department: "consultation"})
	require.NoError(t, err)
	require.Len(t, queue, 2)

	assert.Equal(t, "/api/advanced-queue/clinic/clinic-1/queue", gotPath)
	assert.Equal(t, "department=consultation", gotQuery)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.NotEmpty(t, gotReqID)

	assert.Equal(t, "C-001", queue[0].TokenNumber)
	assert.Equal(t, "Dr. Mehta", queue[0].DoctorLabel())
	assert.Equal(t, "d2", queue[1].Doctor.RefID())
	assert.Equal(t, entities.TokenStatusCalled, queue[1].Status)
}

func TestIssueToken_PostsBody(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/advanced-queue/token/issue", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success":true,"message":"Token issued","token":{"_id":"t1","tokenNumber":"C-001","status":"waiting"}}`)
	})

	resp, err := client.IssueToken(context.Background(), emrapi.IssueTokenRequest{
		ClinicID:     "clinic-1",
		PatientName:  "Asha Rao",
		PatientPhone: "9999999999",
		Department:   "consultation",
	})
	require.NoError(t, err)
	assert.Equal(t, "C-001", resp.Token.TokenNumber)
	assert.Equal(t, "Token issued", resp.Message)
	assert.Equal(t, "Asha Rao", body["patientName"])
	assert.Equal(t, "clinic-1", body["clinicId"])
	assert.NotContains(t, body, "patientAge")
}

func TestTokenAction_UsesActionPathSegment(t *testing.T) {
	var gotPath string
	var body emrapi.TokenActionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"success":true,"token":{"_id":"t1","status":"on_hold"}}`)
	})

	resp, err := client.TokenAction(context.Background(), "t1", entities.TokenActionHold, emrapi.TokenActionRequest{Reason: "lab report"})
	require.NoError(t, err)
	assert.Equal(t, "/api/advanced-queue/token/t1/hold", gotPath)
	assert.Equal(t, "lab report", body.Reason)
	assert.Equal(t, entities.TokenStatusOnHold, resp.Token.Status)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantType      apperrors.ErrorType
		wantServerMsg string
	}{
		{"not found", http.StatusNotFound, `{"success":false,"message":"Token not found"}`, apperrors.ErrorTypeNotFound, "Token not found"},
		{"unauthorized", http.StatusUnauthorized, `{"error":"Invalid token"}`, apperrors.ErrorTypeUnauthorized, "Invalid token"},
		{"forbidden", http.StatusForbidden, `{}`, apperrors.ErrorTypeUnauthorized, ""},
		{"conflict", http.StatusConflict, `{"message":"Bed already occupied"}`, apperrors.ErrorTypeConflict, "Bed already occupied"},
		{"bad request", http.StatusBadRequest, `{"message":"Patient name is required"}`, apperrors.ErrorTypeValidation, "Patient name is required"},
		{"server", http.StatusInternalServerError, `<html>oops</html>`, apperrors.ErrorTypeServer, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.ListBeds(context.Background(), "clinic-1", emrapi.BedFilter{})
			require.Error(t, err)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, appErr.Type)
			assert.Equal(t, tt.status, appErr.StatusCode)
			assert.Equal(t, tt.wantServerMsg, appErr.ServerMessage)
		})
	}
}

func TestSuccessFalseEnvelopeIsAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"message":"Cannot finalize a paid bill"}`)
	})

	_, err := client.FinalizeBill(context.Background(), "b1")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Equal(t, "Cannot finalize a paid bill", apperrors.UserMessage(err, "Failed to finalize bill"))
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := emrapi.NewClient(url)
	_, err := client.ListBills(context.Background(), "clinic-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNetwork))
	assert.Equal(t, "Failed to load bills", apperrors.UserMessage(err, "Failed to load bills"))
}

func TestCancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"items":[]}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListInventory(ctx, "clinic-1", emrapi.InventoryFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMalformedBodyIsInternalError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"beds": "not-a-list"}`)
	})

	_, err := client.ListBeds(context.Background(), "clinic-1", emrapi.BedFilter{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestMissingIDsFailWithoutRequest(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls++ })
	ctx := context.Background()

	_, err := client.GetQueue(ctx, "", emrapi.QueueFilter{})
	assert.Error(t, err)
	_, err = client.TokenAction(ctx, " ", entities.TokenActionCall, emrapi.TokenActionRequest{})
	assert.Error(t, err)
	_, err = client.DeactivateBed(ctx, "")
	assert.Error(t, err)
	_, err = client.LockAdmission(ctx, "")
	assert.Error(t, err)
	_, err = client.ExportAuditLogs(ctx, entities.AuditFilter{}, io.Discard)
	assert.Error(t, err)

	assert.Zero(t, calls)
}

func TestBedWrites(t *testing.T) {
	type call struct{ method, path, body string }
	var calls []call
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.Method, r.URL.Path, string(raw)})
		_, _ = io.WriteString(w, `{"success":true,"message":"ok"}`)
	})
	ctx := context.Background()

	_, err := client.UpdateBedStatus(ctx, "b1", emrapi.BedStatusRequest{Status: entities.BedStatusMaintenance, MaintenanceNotes: "rail"})
	require.NoError(t, err)
	_, err = client.DeactivateBed(ctx, "b1")
	require.NoError(t, err)
	_, err = client.BulkCreateBeds(ctx, emrapi.BulkCreateBedsRequest{ClinicID: "c1", Beds: []emrapi.CreateBedRequest{{BedNumber: "ICU-1", WardType: "ICU"}}})
	require.NoError(t, err)

	require.Len(t, calls, 3)
	assert.Equal(t, http.MethodPut, calls[0].method)
	assert.Equal(t, "/api/beds/b1/status", calls[0].path)
	assert.JSONEq(t, `{"status":"maintenance","maintenanceNotes":"rail"}`, calls[0].body)
	assert.Equal(t, http.MethodDelete, calls[1].method)
	assert.Equal(t, "/api/beds/b1", calls[1].path)
	assert.Equal(t, "/api/beds/bulk-create", calls[2].path)
	assert.Contains(t, calls[2].body, `"clinicId":"c1"`)
}

func TestIPDWrites(t *testing.T) {
	tests := []struct {
		name     string
		do       func(c *emrapi.HTTPClient) error
		wantPath string
		wantBody string
	}{
		{
			name: "progress note",
			do: func(c *emrapi.HTTPClient) error {
				_, err := c.AddProgressNote(context.Background(), "a1", "Vitals stable")
				return err
			},
			wantPath: "/api/ipd/a1/progress-note",
			wantBody: `{"note":"Vitals stable"}`,
		},
		{
			name: "transfer bed",
			do: func(c *emrapi.HTTPClient) error {
				_, err := c.TransferBed(context.Background(), "a1", emrapi.BedTransferRequest{NewBedID: "b2", Reason: "ICU"})
				return err
			},
			wantPath: "/api/ipd/a1/transfer-bed",
			wantBody: `{"newBedId":"b2","reason":"ICU"}`,
		},
		{
			name: "sign",
			do: func(c *emrapi.HTTPClient) error {
				_, err := c.SignAdmission(context.Background(), "a1", entities.SignatureTypeDischarge)
				return err
			},
			wantPath: "/api/ipd/a1/sign",
			wantBody: `{"signatureType":"discharge"}`,
		},
		{
			name: "lock",
			do: func(c *emrapi.HTTPClient) error {
				_, err := c.LockAdmission(context.Background(), "a1")
				return err
			},
			wantPath: "/api/ipd/a1/lock",
			wantBody: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotBody string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				raw, _ := io.ReadAll(r.Body)
				gotPath, gotBody = r.URL.Path, string(raw)
				_, _ = io.WriteString(w, `{"success":true,"admission":{"_id":"a1"}}`)
			})

			require.NoError(t, tt.do(client))
			assert.Equal(t, tt.wantPath, gotPath)
			assert.JSONEq(t, tt.wantBody, gotBody)
		})
	}
}

func TestCheckInSendsManualMethod(t *testing.T) {
	var body map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/staff-management/attendance/check-in", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	_, err := client.CheckIn(context.Background(), emrapi.AttendanceRequest{ClinicID: "c1", StaffID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"clinicId": "c1", "staffId": "s1", "checkInMethod": "manual"}, body)
}

func TestLeaveAction(t *testing.T) {
	var body map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/staff-management/leave/l1/action", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"success":true,"leave":{"_id":"l1","status":"approved"}}`)
	})

	resp, err := client.LeaveAction(context.Background(), "l1", entities.LeaveApprove)
	require.NoError(t, err)
	assert.Equal(t, "approve", body["action"])
	assert.Equal(t, "l1", resp.Leave.ID)
}

func TestListAuditLogs_DefaultsPaging(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/audit-logs", r.URL.Path)
		gotQuery = r.URL.Query().Encode()
		_, _ = io.WriteString(w, `{"success":true,"logs":[{"_id":"l1","action":"CREATE","entityType":"Bill"}],"pagination":{"total":120}}`)
	})

	page, err := client.ListAuditLogs(context.Background(), entities.AuditFilter{ClinicID: "c1", Severity: "critical"})
	require.NoError(t, err)
	assert.Equal(t, "clinicId=c1&limit=50&page=1&severity=critical", gotQuery)
	require.Len(t, page.Logs, 1)
	assert.Equal(t, 120, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages())
}

func TestExportAuditLogs_StreamsBody(t *testing.T) {
	csv := "Timestamp,User,Action\n2026-01-01,admin,CREATE\n"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/audit-logs/export/c1", r.URL.Path)
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		assert.Equal(t, "Bill", r.URL.Query().Get("entityType"))
		assert.Empty(t, r.URL.Query().Get("clinicId"))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, csv)
	})

	var buf bytes.Buffer
	n, err := client.ExportAuditLogs(context.Background(), entities.AuditFilter{ClinicID: "c1", EntityType: "Bill"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(csv)), n)
	assert.Equal(t, csv, buf.String())
}

func TestExportAuditLogs_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Export failed"}`, http.StatusInternalServerError)
	})

	var buf bytes.Buffer
	_, err := client.ExportAuditLogs(context.Background(), entities.AuditFilter{ClinicID: "c1"}, &buf)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeServer))
	assert.Zero(t, buf.Len())
	assert.True(t, strings.Contains(apperrors.UserMessage(err, "x"), "Export failed"))
}
