package views

import (
	"context"
	"fmt"
	"sync"

	"github.com/zatekoja/clinicdesk/internal/application/resources"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/clients/emrapi"
)

// Display board limits
const (
	BoardServingLimit = 5
	BoardWaitingLimit = 12
)

// QueueAPI is the backend surface the queue screen uses
type QueueAPI interface {
	GetQueue(ctx context.Context, clinicID string, filter emrapi.QueueFilter) ([]entities.QueueToken, error)
	GetQueueStats(ctx context.Context, clinicID string) (*entities.QueueStats, error)
	IssueToken(ctx context.Context, req emrapi.IssueTokenRequest) (*emrapi.TokenResponse, error)
	TokenAction(ctx context.Context, tokenID string, action entities.TokenAction, req emrapi.TokenActionRequest) (*emrapi.TokenResponse, error)
	TransferToken(ctx context.Context, tokenID string, req emrapi.TransferRequest) (*emrapi.TokenResponse, error)
}

// QueueCounts are today's token counts by status
type QueueCounts struct {
	Total          int `json:"total"`
	Waiting        int `json:"waiting"`
	Called         int `json:"called"`
	InConsultation int `json:"inConsultation"`
	OnHold         int `json:"onHold"`
	Completed      int `json:"completed"`
	NoShow         int `json:"noShow"`
}

// QueueRow is one token as displayed
type QueueRow struct {
	ID         string                 `json:"id"`
	Token      string                 `json:"token"`
	Patient    string                 `json:"patient"`
	Doctor     string                 `json:"doctor"`
	Department string                 `json:"department"`
	Type       entities.TokenType     `json:"type"`
	Wait       string                 `json:"wait"`
	Status     entities.TokenStatus   `json:"status"`
	StatusText string                 `json:"statusText"`
	Actions    []entities.TokenAction `json:"actions"`
}

// Board is the waiting-room display
type Board struct {
	NowServing   []QueueRow `json:"nowServing"`
	Waiting      []QueueRow `json:"waiting"`
	WaitingCount int        `json:"waitingCount"`
}

// QueueView is the OPD queue screen
type QueueView struct {
	api        QueueAPI
	clinicID   string
	dispatcher *resources.Dispatcher

	Queue *resources.Resource[[]entities.QueueToken]
	Stats *resources.Resource[*entities.QueueStats]

	mu         sync.RWMutex
	filter     emrapi.QueueFilter
	lastIssued *entities.QueueToken
}

// NewQueueView registers the queue resources and returns the screen
func NewQueueView(deps Deps, api QueueAPI, filter emrapi.QueueFilter) (*QueueView, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	v := &QueueView{
		api:        api,
		clinicID:   deps.ClinicID,
		dispatcher: deps.Dispatcher,
		filter:     filter,
	}
	v.Queue = resources.Register(deps.Registry, KeyQueue, v.loadQueue, resources.ResourceOptions{
		FailureMessage: "Failed to load queue",
	})
	v.Stats = resources.Register(deps.Registry, KeyQueueStats, func(ctx context.Context) (*entities.QueueStats, error) {
		return api.GetQueueStats(ctx, deps.ClinicID)
	}, resources.ResourceOptions{Policy: resources.PolicySilent})
	return v, nil
}

func (v *QueueView) loadQueue(ctx context.Context) ([]entities.QueueToken, error) {
	return v.api.GetQueue(ctx, v.clinicID, v.Filter())
}

// Keys are the resources the queue screen polls
func (v *QueueView) Keys() []string {
	return []string{KeyQueue, KeyQueueStats}
}

// Filter returns the current department/doctor filter
func (v *QueueView) Filter() emrapi.QueueFilter {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter
}

// SetFilter changes the filter; the next refresh applies it
func (v *QueueView) SetFilter(f emrapi.QueueFilter) {
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()
}

// Counts tallies the current queue by status
func (v *QueueView) Counts() QueueCounts {
	return CountTokens(v.Queue.Get())
}

// Rows projects the current queue
func (v *QueueView) Rows() []QueueRow {
	tokens := v.Queue.Get()
	rows := make([]QueueRow, 0, len(tokens))
	for i := range tokens {
		rows = append(rows, TokenRow(&tokens[i]))
	}
	return rows
}

// Board projects the display board from the current queue
func (v *QueueView) Board() Board {
	return BuildBoard(v.Queue.Get())
}

// Find returns the token with id from the current queue
func (v *QueueView) Find(id string) (*entities.QueueToken, bool) {
	tokens := v.Queue.Get()
	for i := range tokens {
		if tokens[i].ID == id || tokens[i].TokenNumber == id {
			t := tokens[i]
			return &t, true
		}
	}
	return nil, false
}

// CountTokens tallies tokens by status
func CountTokens(tokens []entities.QueueToken) QueueCounts {
	c := QueueCounts{Total: len(tokens)}
	for _, t := range tokens {
		switch t.Status {
		case entities.TokenStatusWaiting, entities.TokenStatusCheckedIn:
			c.Waiting++
		case entities.TokenStatusCalled:
			c.Called++
		case entities.TokenStatusInConsultation:
			c.InConsultation++
		case entities.TokenStatusOnHold:
			c.OnHold++
		case entities.TokenStatusCompleted:
			c.Completed++
		case entities.TokenStatusNoShow:
			c.NoShow++
		}
	}
	return c
}

// TokenRow projects one token
func TokenRow(t *entities.QueueToken) QueueRow {
	status := string(t.Status)
	if t.CallCount > 1 {
		status = fmt.Sprintf("%s (%dx)", status, t.CallCount)
	}
	return QueueRow{
		ID:         t.ID,
		Token:      entities.OrDash(t.TokenNumber),
		Patient:    t.Patient.DisplayName(t.PatientName),
		Doctor:     t.DoctorLabel(),
		Department: entities.OrDash(t.Department),
		Type:       t.TokenType,
		Wait:       fmt.Sprintf("%d min", t.EstimatedWaitTime),
		Status:     t.Status,
		StatusText: status,
		Actions:    t.AvailableActions(),
	}
}

// BuildBoard selects the tokens being served and the head of the waiting line
func BuildBoard(tokens []entities.QueueToken) Board {
	b := Board{NowServing: []QueueRow{}, Waiting: []QueueRow{}}
	for i := range tokens {
		t := &tokens[i]
		switch t.Status {
		case entities.TokenStatusCalled, entities.TokenStatusInConsultation:
			if len(b.NowServing) < BoardServingLimit {
				b.NowServing = append(b.NowServing, TokenRow(t))
			}
		case entities.TokenStatusWaiting:
			b.WaitingCount++
			if len(b.Waiting) < BoardWaitingLimit {
				b.Waiting = append(b.Waiting, TokenRow(t))
			}
		}
	}
	return b
}

// IssueForm returns a walk-in token form bound to this screen
func (v *QueueView) IssueForm() *Form[IssueTokenDraft] {
	return newForm("queue.issue", v.dispatcher, defaultIssueTokenDraft, v.issue)
}

func (v *QueueView) issue(ctx context.Context, d IssueTokenDraft, onSuccess func()) error {
	var issued *emrapi.TokenResponse
	err := v.dispatcher.Dispatch(ctx, resources.Action{
		Name: "queue.issue",
		Do: func(ctx context.Context) error {
			resp, err := v.api.IssueToken(ctx, emrapi.IssueTokenRequest{
				ClinicID:       v.clinicID,
				PatientName:    d.PatientName,
				PatientPhone:   d.PatientPhone,
				PatientAge:     d.PatientAge,
				PatientGender:  d.PatientGender,
				DoctorID:       d.DoctorID,
				DoctorName:     d.DoctorName,
				Department:     d.Department,
				TokenType:      d.TokenType,
				ChiefComplaint: d.ChiefComplaint,
			})
			issued = resp
			return err
		},
		SuccessMessage: func() string {
			return fmt.Sprintf("Token %s issued!", issued.Token.TokenNumber)
		},
		Failure:     "Failed to issue token",
		Invalidates: []string{KeyQueue, KeyQueueStats},
		OnSuccess:   onSuccess,
	})
	if err == nil && issued != nil {
		v.mu.Lock()
		v.lastIssued = &issued.Token
		v.mu.Unlock()
	}
	return err
}

// LastIssued returns the token issued by the most recent successful IssueForm submit
func (v *QueueView) LastIssued() (*entities.QueueToken, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastIssued, v.lastIssued != nil
}

// TransferForm returns a transfer form for tokenID
func (v *QueueView) TransferForm(tokenID string) *Form[TransferDraft] {
	return newForm("queue.transfer", v.dispatcher, func() TransferDraft {
		d := defaultTransferDraft()
		d.TokenID = tokenID
		return d
	}, v.transfer)
}

func (v *QueueView) transfer(ctx context.Context, d TransferDraft, onSuccess func()) error {
	tokenID, err := v.guard(d.TokenID, entities.TokenActionTransfer)
	if err != nil {
		return v.dispatcher.Reject("queue.transfer", err)
	}
	return v.dispatcher.Dispatch(ctx, resources.Action{
		Name: "queue.transfer",
		Do: func(ctx context.Context) error {
			_, err := v.api.TransferToken(ctx, tokenID, emrapi.TransferRequest{
				ToDoctorID:   d.ToDoctorID,
				ToDepartment: d.ToDepartment,
				Reason:       d.Reason,
			})
			return err
		},
		Success:     "Token transferred",
		Failure:     "Failed to transfer token",
		Invalidates: []string{KeyQueue},
		OnSuccess:   onSuccess,
		EntityID:    tokenID,
	})
}

// tokenActionInfo is how a status transition is reported and what it invalidates
type tokenActionInfo struct {
	success   string
	withStats bool
}

var tokenActions = map[entities.TokenAction]tokenActionInfo{
	entities.TokenActionCall:     {success: "Patient called"},
	entities.TokenActionStart:    {success: "Consultation started"},
	entities.TokenActionComplete: {success: "Consultation completed", withStats: true},
	entities.TokenActionNoShow:   {success: "Marked as no-show", withStats: true},
	entities.TokenActionRecall:   {success: "Patient recalled"},
	entities.TokenActionHold:     {success: "Token on hold"},
	entities.TokenActionResume:   {success: "Token resumed"},
}

// Act applies a status transition to a token. The action must be offered for
// the token's current status; otherwise it is rejected without a request.
// Transfers go through TransferForm.
func (v *QueueView) Act(ctx context.Context, ref string, action entities.TokenAction, req emrapi.TokenActionRequest) error {
	name := "queue." + string(action)
	info, ok := tokenActions[action]
	if !ok {
		return v.dispatcher.Reject(name, invalid(fmt.Sprintf("Unsupported action %q", action)))
	}
	tokenID, err := v.guard(ref, action)
	if err != nil {
		return v.dispatcher.Reject(name, err)
	}
	if action == entities.TokenActionHold && req.Reason == "" {
		req.Reason = "Put on hold"
	}

	keys := []string{KeyQueue}
	if info.withStats {
		keys = append(keys, KeyQueueStats)
	}
	return v.dispatcher.Dispatch(ctx, resources.Action{
		Name: name,
		Do: func(ctx context.Context) error {
			_, err := v.api.TokenAction(ctx, tokenID, action, req)
			return err
		},
		Success:     info.success,
		Failure:     "Failed",
		Invalidates: keys,
		EntityID:    tokenID,
	})
}

// guard checks the action against the token as last fetched and returns the
// token's id, so a token number resolves to the id the backend expects.
// Tokens not in the current copy are left for the backend to judge.
func (v *QueueView) guard(ref string, action entities.TokenAction) (string, error) {
	if blank(ref) {
		return "", invalid("Select a token")
	}
	t, ok := v.Find(ref)
	if !ok {
		return ref, nil
	}
	if !t.Can(action) {
		return "", invalid(fmt.Sprintf("Cannot %s token %s while %s", action, t.TokenNumber, t.Status))
	}
	return t.ID, nil
}
