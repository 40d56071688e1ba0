package service

import (
	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/pkg/api"
)

func toAPIAllowlistEntry(e *models.AllowlistEntry) api.AllowlistEntry {
	return api.AllowlistEntry{
		EmailLower: e.EmailLower,
		Role:       string(e.Role),
		Active:     e.Active,
		Label:      e.Label,
		CreatedBy:  e.CreatedBy,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func toAPIMonths(months []*models.MonthSummary) []api.Month {
	out := make([]api.Month, len(months))
	for i, m := range months {
		out[i] = api.Month{
			MonthKey:  m.MonthKey,
			Label:     m.Label,
			Counts:    m.Counts,
			UpdatedAt: m.UpdatedAt,
		}
	}
	return out
}

func toAPIAttachment(a models.Attachment) api.Attachment {
	return api.Attachment{
		StoragePath:     a.StoragePath,
		Filename:        a.Filename,
		Mime:            a.Mime,
		SizeBytes:       a.SizeBytes,
		Kind:            a.Kind,
		DownloadURL:     a.DownloadURL,
		UploadedByEmail: a.UploadedByEmail,
		UploadedAt:      a.UploadedAt,
	}
}

func toAPIRequest(r *models.Request) api.Request {
	out := api.Request{
		ID:             r.ID,
		MonthKey:       r.MonthKey,
		Description:    r.Description,
		AmountCzk:      r.AmountCzk,
		State:          string(r.State),
		VS:             r.VS,
		SeqYear:        r.SeqYear,
		SeqNum:         r.SeqNum,
		EditorData:     r.EditorData,
		CreatedByEmail: r.CreatedByEmail,
		UpdatedByEmail: r.UpdatedByEmail,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	for _, a := range r.Attachments {
		out.Attachments = append(out.Attachments, toAPIAttachment(a))
	}
	return out
}

func toAPIRequests(requests []*models.Request) []api.Request {
	out := make([]api.Request, len(requests))
	for i, r := range requests {
		out[i] = toAPIRequest(r)
	}
	return out
}

func toAPIQueueItem(q *models.QueueRequest) api.QueueItem {
	return api.QueueItem{
		ID:              q.ID,
		MonthKey:        q.MonthKey,
		Description:     q.Description,
		AmountCzk:       q.AmountCzk,
		Status:          string(q.Status),
		CreatedByEmail:  q.CreatedByEmail,
		CreatedAt:       q.CreatedAt,
		ReviewedByEmail: q.ReviewedByEmail,
		ReviewedAt:      q.ReviewedAt,
	}
}

func toAPIQueueItems(items []*models.QueueRequest) []api.QueueItem {
	out := make([]api.QueueItem, len(items))
	for i, q := range items {
		out[i] = toAPIQueueItem(q)
	}
	return out
}

func toAPIAudit(entries []*models.AuditEntry) []api.AuditEntry {
	out := make([]api.AuditEntry, len(entries))
	for i, e := range entries {
		out[i] = api.AuditEntry{
			ID:         e.ID,
			TS:         e.TS,
			ActorUID:   e.ActorUID,
			ActorEmail: e.ActorEmail,
			Action:     e.Action,
			TargetType: e.TargetType,
			TargetID:   e.TargetID,
			Diff:       e.Diff,
		}
	}
	return out
}
