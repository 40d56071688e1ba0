package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/satnyp/spolek-rodicu/internal/auth"
	"github.com/satnyp/spolek-rodicu/internal/imaging"
	"github.com/satnyp/spolek-rodicu/internal/metrics"
	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/objectstore"
	"github.com/satnyp/spolek-rodicu/internal/pdf"
	"github.com/satnyp/spolek-rodicu/internal/realtime"
	"github.com/satnyp/spolek-rodicu/internal/storage"
	"github.com/satnyp/spolek-rodicu/internal/voucher"
	"github.com/satnyp/spolek-rodicu/pkg/api"
)

// RequestServiceConfig wires a RequestService.
type RequestServiceConfig struct {
	Store storage.Store

	// Hub feeds the Watch streams. Publisher announces changes after each
	// commit; it defaults to Hub.
	Hub       *realtime.Hub
	Publisher realtime.Publisher

	Objects  objectstore.Store
	Exporter *pdf.Exporter
	Imaging  imaging.Options
	Metrics  *metrics.Metrics

	// Location decides the calendar day of an approval. Defaults to UTC.
	Location *time.Location
	Now      func() time.Time
}

// RequestService implements the Connect RequestService.
type RequestService struct {
	store     storage.Store
	hub       *realtime.Hub
	publisher realtime.Publisher
	objects   objectstore.Store
	exporter  *pdf.Exporter
	imaging   imaging.Options
	metrics   *metrics.Metrics
	loc       *time.Location
	now       func() time.Time
}

// NewRequestService creates a RequestService.
func NewRequestService(cfg RequestServiceConfig) *RequestService {
	s := &RequestService{
		store:     cfg.Store,
		hub:       cfg.Hub,
		publisher: cfg.Publisher,
		objects:   cfg.Objects,
		exporter:  cfg.Exporter,
		imaging:   cfg.Imaging,
		metrics:   cfg.Metrics,
		loc:       cfg.Location,
		now:       cfg.Now,
	}
	if s.hub == nil {
		s.hub = realtime.NewHub()
	}
	if s.publisher == nil {
		s.publisher = s.hub
	}
	if s.exporter == nil {
		s.exporter = pdf.NewExporterFromBytes(nil)
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func canCreate(r models.Role) bool { return r.CanCreateQueue() }
func canEdit(r models.Role) bool   { return r.CanEdit() }

// ListMonths returns month summaries, newest first.
func (s *RequestService) ListMonths(ctx context.Context, req *connect.Request[api.ListMonthsRequest]) (*connect.Response[api.ListMonthsResponse], error) {
	if _, err := caller(ctx, anyRole); err != nil {
		return nil, err
	}
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	months, err := s.months(ctx, req.Msg.Limit)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.ListMonthsResponse{Months: months}), nil
}

// ListRequests returns the approved requests of a month, optionally filtered.
func (s *RequestService) ListRequests(ctx context.Context, req *connect.Request[api.ListRequestsRequest]) (*connect.Response[api.ListRequestsResponse], error) {
	if _, err := caller(ctx, anyRole); err != nil {
		return nil, err
	}
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	requests, err := s.store.ListRequestsForMonth(ctx, req.Msg.MonthKey, req.Msg.Limit)
	if err != nil {
		slog.Error("ListRequests failed", "month", req.Msg.MonthKey, "error", err)
		return nil, connectError(err)
	}
	requests = voucher.FilterRequests(requests, voucher.Filter{
		State:       req.Msg.State,
		Description: req.Msg.Description,
	})
	return connect.NewResponse(&api.ListRequestsResponse{Requests: toAPIRequests(requests)}), nil
}

// ListQueue returns the QUEUED requests of a month, newest first.
func (s *RequestService) ListQueue(ctx context.Context, req *connect.Request[api.ListQueueRequest]) (*connect.Response[api.ListQueueResponse], error) {
	if _, err := caller(ctx, anyRole); err != nil {
		return nil, err
	}
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	items, err := s.store.ListQueuedForMonth(ctx, req.Msg.MonthKey, req.Msg.Limit)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.ListQueueResponse{Items: toAPIQueueItems(items)}), nil
}

// GetRequest returns one approved request.
func (s *RequestService) GetRequest(ctx context.Context, req *connect.Request[api.GetRequestRequest]) (*connect.Response[api.GetRequestResponse], error) {
	if _, err := caller(ctx, anyRole); err != nil {
		return nil, err
	}
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	r, err := s.store.GetRequest(ctx, req.Msg.ID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.GetRequestResponse{Request: toAPIRequest(r)}), nil
}

// CreateQueueRequest submits a request for review.
func (s *RequestService) CreateQueueRequest(ctx context.Context, req *connect.Request[api.CreateQueueRequestRequest]) (*connect.Response[api.CreateQueueRequestResponse], error) {
	p, err := caller(ctx, canCreate)
	if err != nil {
		return nil, err
	}
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	slog.Info("CreateQueueRequest received",
		"month", req.Msg.MonthKey,
		"amount", req.Msg.AmountCzk.String(),
		"email", p.Email,
	)

	q, err := s.createQueued(ctx, p, req.Msg.MonthKey, req.Msg.Description, req.Msg.AmountCzk)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.CreateQueueRequestResponse{Item: toAPIQueueItem(q)}), nil
}

func (s *RequestService) createQueued(ctx context.Context, p *auth.Principal, monthKey, description string, amount decimal.Decimal) (*models.QueueRequest, error) {
	q := &models.QueueRequest{
		MonthKey:       monthKey,
		Description:    strings.TrimSpace(description),
		AmountCzk:      amount,
		CreatedByUID:   p.UID,
		CreatedByEmail: p.Email,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.CreateQueueRequest(ctx, q); err != nil {
		slog.Error("Failed to create queue request", "month", monthKey, "error", err)
		return nil, err
	}
	s.publisher.Publish(ctx, realtime.QueueTopic(monthKey))
	return q, nil
}

// ApproveQueueRequest promotes a queued request to a numbered request.
func (s *RequestService) ApproveQueueRequest(ctx context.Context, req *connect.Request[api.ApproveQueueRequestRequest]) (*connect.Response[api.ApproveQueueRequestResponse], error) {
	p, err := caller(ctx, canEdit)
	if err != nil {
		return nil, err
	}
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	r, err := s.approve(ctx, p, req.Msg.QueueID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.ApproveQueueRequestResponse{
		RequestID: r.ID,
		VS:        r.VS,
		SeqNum:    r.SeqNum,
	}), nil
}

// approve runs the approval transaction and announces its effects.
func (s *RequestService) approve(ctx context.Context, p *auth.Principal, queueID string) (*models.Request, error) {
	r, err := s.store.ApproveQueueRequest(ctx, storage.ApprovalInput{
		QueueID:    queueID,
		ActorUID:   p.UID,
		ActorEmail: p.Email,
		Now:        s.now().In(s.loc),
	})
	if err != nil {
		slog.Warn("Approval failed", "queue_id", queueID, "email", p.Email, "error", err)
		return nil, err
	}

	s.metrics.ApprovalCommitted()
	s.publisher.Publish(ctx, realtime.TopicMonths, realtime.RequestsTopic(r.MonthKey), realtime.QueueTopic(r.MonthKey))

	slog.Info("Queue request approved",
		"queue_id", queueID,
		"request_id", r.ID,
		"vs", r.VS,
		"seq", r.SeqNum,
		"email", p.Email,
	)
	return r, nil
}

// RejectQueueRequest marks a queued request REJECTED.
func (s *RequestService) RejectQueueRequest(ctx context.Context, req *connect.Request[api.RejectQueueRequestRequest]) (*connect.Response[api.RejectQueueRequestResponse], error) {
	p, err := caller(ctx, canEdit)
	if err != nil {
		return nil, err
	}
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	q, err := s.store.GetQueueRequest(ctx, req.Msg.QueueID)
	if err != nil {
		return nil, connectError(err)
	}
	if err := s.store.RejectQueueRequest(ctx, q.ID, actorOf(p), s.now().UTC()); err != nil {
		return nil, connectError(err)
	}

	s.publisher.Publish(ctx, realtime.QueueTopic(q.MonthKey))
	slog.Info("Queue request rejected", "queue_id", q.ID, "email", p.Email)

	return connect.NewResponse(&api.RejectQueueRequestResponse{}), nil
}

// UpdateRequestState moves a request to any workflow state.
func (s *RequestService) UpdateRequestState(ctx context.Context, req *connect.Request[api.UpdateRequestStateRequest]) (*connect.Response[api.UpdateRequestStateResponse], error) {
	p, err := caller(ctx, canEdit)
	if err != nil {
		return nil, err
	}
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	r, err := s.store.GetRequest(ctx, req.Msg.ID)
	if err != nil {
		return nil, connectError(err)
	}
	state := models.RequestState(req.Msg.State)
	if err := s.store.UpdateRequestState(ctx, r.ID, state, actorOf(p)); err != nil {
		return nil, connectError(err)
	}

	recordAudit(ctx, s.store, p, models.ActionUpdateState, models.TargetRequest, r.ID, map[string]any{
		"from": string(r.State),
		"to":   string(state),
	})
	s.publisher.Publish(ctx, realtime.RequestsTopic(r.MonthKey))

	return connect.NewResponse(&api.UpdateRequestStateResponse{}), nil
}

// SaveEditorData replaces the free-form editor fields of a request.
func (s *RequestService) SaveEditorData(ctx context.Context, req *connect.Request[api.SaveEditorDataRequest]) (*connect.Response[api.SaveEditorDataResponse], error) {
	p, err := caller(ctx, canEdit)
	if err != nil {
		return nil, err
	}
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	r, err := s.store.GetRequest(ctx, req.Msg.ID)
	if err != nil {
		return nil, connectError(err)
	}
	data := req.Msg.EditorData
	if data == nil {
		data = map[string]string{}
	}
	if err := s.store.SaveEditorData(ctx, r.ID, data, actorOf(p)); err != nil {
		return nil, connectError(err)
	}

	recordAudit(ctx, s.store, p, models.ActionUpdateEditor, models.TargetRequest, r.ID, editorDiff(r.EditorData, data))
	s.publisher.Publish(ctx, realtime.RequestsTopic(r.MonthKey))

	return connect.NewResponse(&api.SaveEditorDataResponse{}), nil
}

// editorDiff lists the fields whose value changed, with their new values.
// Removed fields map to nil.
func editorDiff(before, after map[string]string) map[string]any {
	changed := make(map[string]any)
	for k, v := range after {
		if old, ok := before[k]; !ok || old != v {
			changed[k] = v
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			changed[k] = nil
		}
	}
	return map[string]any{"editorData": changed}
}

// ExportRequestPDF renders a request as a PDF document.
func (s *RequestService) ExportRequestPDF(ctx context.Context, req *connect.Request[api.ExportRequestPDFRequest]) (*connect.Response[api.ExportRequestPDFResponse], error) {
	if _, err := caller(ctx, anyRole); err != nil {
		return nil, err
	}
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	r, err := s.store.GetRequest(ctx, req.Msg.ID)
	if err != nil {
		return nil, connectError(err)
	}
	doc, err := s.exporter.Export(r)
	if err != nil {
		slog.Error("PDF export failed", "request_id", r.ID, "error", err)
		return nil, connectError(fmt.Errorf("failed to export request %s: %w", r.ID, err))
	}
	return connect.NewResponse(&api.ExportRequestPDFResponse{
		Filename:    doc.Filename,
		ContentType: "application/pdf",
		Data:        doc.Data,
	}), nil
}

func (s *RequestService) months(ctx context.Context, limit int) ([]api.Month, error) {
	months, err := s.store.ListMonths(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toAPIMonths(months), nil
}
