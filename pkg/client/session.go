package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/satnyp/spolek-rodicu/pkg/api"
)

// EditUnlockDuration is how long UnlockEditing keeps editing enabled.
const EditUnlockDuration = 10 * time.Minute

var (
	// ErrEditingLocked is returned by editor helpers while editing is locked.
	ErrEditingLocked = errors.New("editing is locked")
	// ErrReadOnly is returned when the session's role cannot edit.
	ErrReadOnly = errors.New("role cannot edit")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")
)

// Session is an open, validated sign-in. The editing lock is a local
// safeguard against accidental edits; the server does not know about it.
type Session struct {
	client *Client
	info   *api.GetSessionResponse

	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time

	mu          sync.Mutex
	lockedUntil time.Time
}

// Email returns the signed-in address.
func (s *Session) Email() string { return s.info.Email }

// Role returns the role resolved when the session was opened, one of the
// api.Role constants.
func (s *Session) Role() string { return s.info.Role }

// Info returns the GetSession response the session was opened with.
func (s *Session) Info() *api.GetSessionResponse { return s.info }

// Client returns the client the session belongs to.
func (s *Session) Client() *Client { return s.client }

// UnlockEditing enables the editor helpers until now plus EditUnlockDuration.
func (s *Session) UnlockEditing(now time.Time) (time.Time, error) {
	if !api.CanEdit(s.Role()) {
		return time.Time{}, ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockedUntil = now.Add(EditUnlockDuration)
	return s.lockedUntil, nil
}

// LockEditing disables the editor helpers immediately.
func (s *Session) LockEditing() {
	s.mu.Lock()
	s.lockedUntil = time.Time{}
	s.mu.Unlock()
}

// EditingUnlocked reports whether editing is unlocked at now.
func (s *Session) EditingUnlocked(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Before(s.lockedUntil)
}

func (s *Session) requireUnlocked() error {
	if s.ctx.Err() != nil {
		return ErrClosed
	}
	if !api.CanEdit(s.Role()) {
		return ErrReadOnly
	}
	if !s.EditingUnlocked(s.now()) {
		return ErrEditingLocked
	}
	return nil
}

// Close cancels every subscription opened by the session.
func (s *Session) Close() {
	s.cancel()
}

// Months lists month summaries, newest first.
func (s *Session) Months(ctx context.Context) ([]api.Month, error) {
	resp, err := s.client.Requests.ListMonths(ctx, connect.NewRequest(&api.ListMonthsRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Months, nil
}

// Requests lists the approved requests of a month. state may be empty or "ALL".
func (s *Session) Requests(ctx context.Context, monthKey, state, description string) ([]api.Request, error) {
	resp, err := s.client.Requests.ListRequests(ctx, connect.NewRequest(&api.ListRequestsRequest{
		MonthKey:    monthKey,
		State:       state,
		Description: description,
	}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Requests, nil
}

// Queue lists the queued requests of a month.
func (s *Session) Queue(ctx context.Context, monthKey string) ([]api.QueueItem, error) {
	resp, err := s.client.Requests.ListQueue(ctx, connect.NewRequest(&api.ListQueueRequest{MonthKey: monthKey}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Items, nil
}

// Submit creates a queue request.
func (s *Session) Submit(ctx context.Context, monthKey, description string, amount decimal.Decimal) (api.QueueItem, error) {
	resp, err := s.client.Requests.CreateQueueRequest(ctx, connect.NewRequest(&api.CreateQueueRequestRequest{
		MonthKey:    monthKey,
		Description: description,
		AmountCzk:   amount,
	}))
	if err != nil {
		return api.QueueItem{}, err
	}
	return resp.Msg.Item, nil
}

// Approve promotes a queue request and returns its number.
func (s *Session) Approve(ctx context.Context, queueID string) (*api.ApproveQueueRequestResponse, error) {
	resp, err := s.client.Requests.ApproveQueueRequest(ctx, connect.NewRequest(&api.ApproveQueueRequestRequest{QueueID: queueID}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Reject marks a queue request rejected.
func (s *Session) Reject(ctx context.Context, queueID string) error {
	_, err := s.client.Requests.RejectQueueRequest(ctx, connect.NewRequest(&api.RejectQueueRequestRequest{QueueID: queueID}))
	return err
}

// SetState changes a request's state. Refused locally while editing is locked.
func (s *Session) SetState(ctx context.Context, id, state string) error {
	if err := s.requireUnlocked(); err != nil {
		return err
	}
	_, err := s.client.Requests.UpdateRequestState(ctx, connect.NewRequest(&api.UpdateRequestStateRequest{ID: id, State: state}))
	return err
}

// SaveEditorData stores editor fields. Refused locally while editing is locked.
func (s *Session) SaveEditorData(ctx context.Context, id string, data map[string]string) error {
	if err := s.requireUnlocked(); err != nil {
		return err
	}
	_, err := s.client.Requests.SaveEditorData(ctx, connect.NewRequest(&api.SaveEditorDataRequest{ID: id, EditorData: data}))
	return err
}

// Upload attaches a file. Refused locally while editing is locked.
func (s *Session) Upload(ctx context.Context, req *api.UploadAttachmentRequest) (*api.UploadAttachmentResponse, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	resp, err := s.client.Requests.UploadAttachment(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// ExportPDF returns the PDF of a request.
func (s *Session) ExportPDF(ctx context.Context, id string) (*api.ExportRequestPDFResponse, error) {
	resp, err := s.client.Requests.ExportRequestPDF(ctx, connect.NewRequest(&api.ExportRequestPDFRequest{ID: id}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// SendBulkMail relays a message through the server's mail webhook.
func (s *Session) SendBulkMail(ctx context.Context, req *api.SendBulkMailRequest) (*api.SendBulkMailResponse, error) {
	resp, err := s.client.Mail.SendBulkMail(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
