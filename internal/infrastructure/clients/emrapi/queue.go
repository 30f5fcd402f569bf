package emrapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

const queueBase = "/api/advanced-queue"

// QueueFilter narrows the live queue listing
type QueueFilter struct {
	Department string
	DoctorID   string
	Status     string
}

// IssueTokenRequest is the body of a token issue call
type IssueTokenRequest struct {
	ClinicID       string             `json:"clinicId"`
	PatientID      string             `json:"patientId,omitempty"`
	PatientName    string             `json:"patientName"`
	PatientPhone   string             `json:"patientPhone"`
	PatientAge     int                `json:"patientAge,omitempty"`
	PatientGender  string             `json:"patientGender,omitempty"`
	DoctorID       string             `json:"doctorId,omitempty"`
	DoctorName     string             `json:"doctorName,omitempty"`
	Department     string             `json:"department"`
	TokenType      entities.TokenType `json:"tokenType,omitempty"`
	ChiefComplaint string             `json:"chiefComplaint,omitempty"`
	IsVirtualQueue bool               `json:"isVirtualQueue,omitempty"`
}

// TransferRequest moves a token to another doctor or department
type TransferRequest struct {
	ToDoctorID   string `json:"toDoctorId,omitempty"`
	ToDepartment string `json:"toDepartment,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// TokenResponse is returned by token issue and transitions
type TokenResponse struct {
	Token   entities.QueueToken `json:"token"`
	Message string              `json:"message"`
}

// TokenActionRequest carries the optional note of a transition: the hold
// reason or the consultation notes on complete.
type TokenActionRequest struct {
	Reason string `json:"reason,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// DisplayBoard is the waiting-room board as served by the backend
type DisplayBoard struct {
	CurrentlyServing []entities.QueueToken `json:"currentlyServing"`
	WaitingCount     int                   `json:"waitingCount"`
}

// GetQueue returns today's active tokens for a clinic
func (c *HTTPClient) GetQueue(ctx context.Context, clinicID string, filter QueueFilter) ([]entities.QueueToken, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	q := url.Values{}
	setIf(q, "department", filter.Department)
	setIf(q, "doctorId", filter.DoctorID)
	setIf(q, "status", filter.Status)

	var out struct {
		Queue []entities.QueueToken `json:"queue"`
	}
	if err := c.doJSON(ctx, "queue.list", http.MethodGet, queueBase+"/clinic/"+seg(clinicID)+"/queue", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Queue, nil
}

// GetQueueStats returns the queue dashboard
func (c *HTTPClient) GetQueueStats(ctx context.Context, clinicID string) (*entities.QueueStats, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	out := &entities.QueueStats{}
	if err := c.doJSON(ctx, "queue.stats", http.MethodGet, queueBase+"/clinic/"+seg(clinicID)+"/stats", nil, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// IssueToken issues a new queue token
func (c *HTTPClient) IssueToken(ctx context.Context, req IssueTokenRequest) (*TokenResponse, error) {
	out := &TokenResponse{}
	if err := c.doJSON(ctx, "queue.issue", http.MethodPost, queueBase+"/token/issue", nil, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// TokenAction applies a transition (call, start, complete, ...) to a token.
// Transfer requires TransferToken.
func (c *HTTPClient) TokenAction(ctx context.Context, tokenID string, action entities.TokenAction, req TokenActionRequest) (*TokenResponse, error) {
	if err := requireID("token", tokenID); err != nil {
		return nil, err
	}
	out := &TokenResponse{}
	path := queueBase + "/token/" + seg(tokenID) + "/" + string(action)
	if err := c.doJSON(ctx, "queue."+string(action), http.MethodPost, path, nil, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// TransferToken transfers a token to another doctor or department
func (c *HTTPClient) TransferToken(ctx context.Context, tokenID string, req TransferRequest) (*TokenResponse, error) {
	if err := requireID("token", tokenID); err != nil {
		return nil, err
	}
	out := &TokenResponse{}
	path := queueBase + "/token/" + seg(tokenID) + "/transfer"
	if err := c.doJSON(ctx, "queue.transfer", http.MethodPost, path, nil, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDisplayBoard returns the backend's public display board
func (c *HTTPClient) GetDisplayBoard(ctx context.Context, clinicID, department string) (*DisplayBoard, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	q := url.Values{}
	setIf(q, "department", department)
	out := &DisplayBoard{}
	if err := c.doJSON(ctx, "queue.display", http.MethodGet, queueBase+"/clinic/"+seg(clinicID)+"/display", q, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}
