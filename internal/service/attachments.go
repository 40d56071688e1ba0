package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"
	"unicode"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/satnyp/spolek-rodicu/internal/imaging"
	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/realtime"
	"github.com/satnyp/spolek-rodicu/pkg/api"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// safeFilename folds diacritics and replaces anything outside [a-zA-Z0-9._-]
// with an underscore, so "Účtenka č. 1.jpg" becomes "Uctenka_c._1.jpg".
func safeFilename(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = unsafeNameChars.ReplaceAllString(folded, "_")
	if folded == "" || folded == "." || folded == ".." {
		return "file"
	}
	return folded
}

// attachmentKey is the object key of an upload: attachments/<requestId>/<uuid>_<name>.
func attachmentKey(requestID, filename string) string {
	return fmt.Sprintf("attachments/%s/%s_%s", safeFilename(requestID), uuid.NewString(), safeFilename(filename))
}

// UploadAttachment compresses images, stores the file and links it to the request.
func (s *RequestService) UploadAttachment(ctx context.Context, req *connect.Request[api.UploadAttachmentRequest]) (*connect.Response[api.UploadAttachmentResponse], error) {
	p, err := caller(ctx, canEdit)
	if err != nil {
		return nil, err
	}
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}
	if s.objects == nil {
		return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("%w: object storage not configured", ErrUpstream))
	}

	r, err := s.store.GetRequest(ctx, req.Msg.RequestID)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("UploadAttachment received",
		"request_id", r.ID,
		"filename", req.Msg.Filename,
		"content_type", req.Msg.ContentType,
		"bytes", len(req.Msg.Data),
		"email", p.Email,
	)

	res, err := imaging.Compress(req.Msg.Data, req.Msg.ContentType, req.Msg.Filename, s.imaging)
	if err != nil {
		slog.Warn("Attachment rejected", "request_id", r.ID, "error", err)
		return nil, connectError(err)
	}
	if res.Warning != "" {
		slog.Warn("Attachment above size target", "request_id", r.ID, "bytes", len(res.Data), "warning", res.Warning)
	}

	kind := req.Msg.Kind
	if kind == "" {
		kind = models.AttachmentInvoice
	}
	key := attachmentKey(r.ID, res.Filename)
	if err := s.objects.Put(ctx, key, res.Data, res.ContentType); err != nil {
		return nil, connectError(fmt.Errorf("%w: %v", ErrUpstream, err))
	}
	url, err := s.objects.DownloadURL(ctx, key)
	if err != nil {
		s.discardObject(key)
		return nil, connectError(fmt.Errorf("%w: %v", ErrUpstream, err))
	}

	attachment := models.Attachment{
		StoragePath:     key,
		Filename:        res.Filename,
		Mime:            res.ContentType,
		SizeBytes:       int64(len(res.Data)),
		UploadedByUID:   p.UID,
		UploadedByEmail: p.Email,
		UploadedAt:      s.now().UTC(),
		Kind:            kind,
		DownloadURL:     url,
	}
	if err := s.store.AppendAttachment(ctx, r.ID, attachment, actorOf(p)); err != nil {
		s.discardObject(key)
		return nil, connectError(err)
	}

	recordAudit(ctx, s.store, p, models.ActionUploadAttachment, models.TargetRequest, r.ID, map[string]any{
		"storagePath": key,
		"sizeBytes":   attachment.SizeBytes,
		"kind":        kind,
	})
	s.publisher.Publish(ctx, realtime.RequestsTopic(r.MonthKey))

	return connect.NewResponse(&api.UploadAttachmentResponse{
		Attachment:    toAPIAttachment(attachment),
		OriginalBytes: int64(len(req.Msg.Data)),
		Warning:       res.Warning,
	}), nil
}

// discardObject removes an object whose metadata could not be saved.
func (s *RequestService) discardObject(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.objects.Delete(ctx, key); err != nil {
		slog.Warn("Failed to delete orphaned object", "key", key, "error", err)
	}
}
