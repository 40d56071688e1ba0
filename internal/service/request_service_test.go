package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/pkg/api"
	"github.com/satnyp/spolek-rodicu/pkg/api/apiconnect"
)

func createQueued(t *testing.T, client apiconnect.RequestServiceClient, description string, amount int64) api.QueueItem {
	t.Helper()
	resp, err := client.CreateQueueRequest(context.Background(), connect.NewRequest(&api.CreateQueueRequestRequest{
		MonthKey:    testMonth,
		Description: description,
		AmountCzk:   decimal.NewFromInt(amount),
	}))
	require.NoError(t, err)
	return resp.Msg.Item
}

func approveNew(t *testing.T, env *testEnv, description string, amount int64) *api.ApproveQueueRequestResponse {
	t.Helper()
	item := createQueued(t, env.requestClient(requesterEmail), description, amount)
	resp, err := env.requestClient(accountantEmail).ApproveQueueRequest(context.Background(), connect.NewRequest(&api.ApproveQueueRequestRequest{QueueID: item.ID}))
	require.NoError(t, err)
	return resp.Msg
}

func TestCreateQueueRequest(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	item := createQueued(t, env.requestClient(requesterEmail), "  Výlet do ZOO ", 450)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Výlet do ZOO", item.Description)
	assert.Equal(t, "QUEUED", item.Status)
	assert.Equal(t, requesterEmail, item.CreatedByEmail)

	list, err := env.requestClient(viewerEmail).ListQueue(ctx, connect.NewRequest(&api.ListQueueRequest{MonthKey: testMonth}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Items, 1)
	assert.True(t, list.Msg.Items[0].AmountCzk.Equal(decimal.NewFromInt(450)))
}

func TestCreateQueueRequest_Rejected(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	tests := []struct {
		name  string
		email string
		req   *api.CreateQueueRequestRequest
		want  connect.Code
	}{
		{"viewer", viewerEmail, &api.CreateQueueRequestRequest{MonthKey: testMonth, Description: "x", AmountCzk: decimal.NewFromInt(1)}, connect.CodePermissionDenied},
		{"zero amount", requesterEmail, &api.CreateQueueRequestRequest{MonthKey: testMonth, Description: "x", AmountCzk: decimal.Zero}, connect.CodeInvalidArgument},
		{"negative amount", requesterEmail, &api.CreateQueueRequestRequest{MonthKey: testMonth, Description: "x", AmountCzk: decimal.NewFromInt(-5)}, connect.CodeInvalidArgument},
		{"blank description", requesterEmail, &api.CreateQueueRequestRequest{MonthKey: testMonth, Description: "   ", AmountCzk: decimal.NewFromInt(1)}, connect.CodeInvalidArgument},
		{"bad month", requesterEmail, &api.CreateQueueRequestRequest{MonthKey: "2026-13", Description: "x", AmountCzk: decimal.NewFromInt(1)}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.requestClient(tt.email).CreateQueueRequest(ctx, connect.NewRequest(tt.req))
			assert.Equal(t, tt.want, codeOf(err))
		})
	}
}

func TestApproveQueueRequest(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	accountant := env.requestClient(accountantEmail)

	first := createQueued(t, env.requestClient(requesterEmail), "Lyžák", 1500)
	second := createQueued(t, env.requestClient(requesterEmail), "Divadlo", 320)

	resp, err := accountant.ApproveQueueRequest(ctx, connect.NewRequest(&api.ApproveQueueRequestRequest{QueueID: first.ID}))
	require.NoError(t, err)
	// Approved at 00:30 on 6 March in Prague.
	assert.Equal(t, "060320261", resp.Msg.VS)
	assert.Equal(t, int64(1), resp.Msg.SeqNum)

	resp, err = accountant.ApproveQueueRequest(ctx, connect.NewRequest(&api.ApproveQueueRequestRequest{QueueID: second.ID}))
	require.NoError(t, err)
	assert.Equal(t, "060320262", resp.Msg.VS)

	got, err := accountant.GetRequest(ctx, connect.NewRequest(&api.GetRequestRequest{ID: resp.Msg.RequestID}))
	require.NoError(t, err)
	assert.Equal(t, "NEW", got.Msg.Request.State)
	assert.Equal(t, testMonth, got.Msg.Request.MonthKey)
	assert.Equal(t, 2026, got.Msg.Request.SeqYear)

	months, err := env.requestClient(viewerEmail).ListMonths(ctx, connect.NewRequest(&api.ListMonthsRequest{}))
	require.NoError(t, err)
	require.Len(t, months.Msg.Months, 1)
	assert.Equal(t, int64(2), months.Msg.Months[0].Counts[models.CountTotal])

	queue, err := accountant.ListQueue(ctx, connect.NewRequest(&api.ListQueueRequest{MonthKey: testMonth}))
	require.NoError(t, err)
	assert.Empty(t, queue.Msg.Items)
}

func TestApproveQueueRequest_Errors(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	item := createQueued(t, env.requestClient(requesterEmail), "Kroužek", 200)

	_, err := env.requestClient(requesterEmail).ApproveQueueRequest(ctx, connect.NewRequest(&api.ApproveQueueRequestRequest{QueueID: item.ID}))
	assert.Equal(t, connect.CodePermissionDenied, codeOf(err))

	_, err = env.requestClient(accountantEmail).ApproveQueueRequest(ctx, connect.NewRequest(&api.ApproveQueueRequestRequest{QueueID: "missing"}))
	assert.Equal(t, connect.CodeNotFound, codeOf(err))

	_, err = env.requestClient(accountantEmail).ApproveQueueRequest(ctx, connect.NewRequest(&api.ApproveQueueRequestRequest{QueueID: item.ID}))
	require.NoError(t, err)
	_, err = env.requestClient(adminEmail).ApproveQueueRequest(ctx, connect.NewRequest(&api.ApproveQueueRequestRequest{QueueID: item.ID}))
	assert.Equal(t, connect.CodeFailedPrecondition, codeOf(err))
}

func TestRejectQueueRequest(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	item := createQueued(t, env.requestClient(requesterEmail), "Odměny", 850)
	accountant := env.requestClient(accountantEmail)

	_, err := accountant.RejectQueueRequest(ctx, connect.NewRequest(&api.RejectQueueRequestRequest{QueueID: item.ID}))
	require.NoError(t, err)

	q, err := env.store.GetQueueRequest(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QueueRejected, q.Status)

	_, err = accountant.ApproveQueueRequest(ctx, connect.NewRequest(&api.ApproveQueueRequestRequest{QueueID: item.ID}))
	assert.Equal(t, connect.CodeFailedPrecondition, codeOf(err))
}

func TestUpdateStateAndFilter(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	paid := approveNew(t, env, "Zaplaceno", 100)
	approveNew(t, env, "Nezaplaceno", 200)
	accountant := env.requestClient(accountantEmail)

	_, err := accountant.UpdateRequestState(ctx, connect.NewRequest(&api.UpdateRequestStateRequest{ID: paid.RequestID, State: "PAID"}))
	require.NoError(t, err)

	_, err = accountant.UpdateRequestState(ctx, connect.NewRequest(&api.UpdateRequestStateRequest{ID: paid.RequestID, State: "LOST"}))
	assert.Equal(t, connect.CodeInvalidArgument, codeOf(err))

	_, err = env.requestClient(viewerEmail).UpdateRequestState(ctx, connect.NewRequest(&api.UpdateRequestStateRequest{ID: paid.RequestID, State: "NEW"}))
	assert.Equal(t, connect.CodePermissionDenied, codeOf(err))

	tests := []struct {
		state       string
		description string
		want        int
	}{
		{"", "", 2},
		{"ALL", "", 2},
		{"PAID", "", 1},
		{"NEW", "", 1},
		{"HAS_INVOICES", "", 0},
		{"ALL", "nezap", 1},
		{"PAID", "nezap", 0},
	}
	for _, tt := range tests {
		resp, err := accountant.ListRequests(ctx, connect.NewRequest(&api.ListRequestsRequest{
			MonthKey:    testMonth,
			State:       tt.state,
			Description: tt.description,
		}))
		require.NoError(t, err)
		assert.Len(t, resp.Msg.Requests, tt.want, "state=%q description=%q", tt.state, tt.description)
	}
}

func TestSaveEditorData(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	approved := approveNew(t, env, "Formulář", 300)
	accountant := env.requestClient(accountantEmail)

	data := map[string]string{"jmeno": "Jana Nováková", "trida": "3.C"}
	_, err := accountant.SaveEditorData(ctx, connect.NewRequest(&api.SaveEditorDataRequest{ID: approved.RequestID, EditorData: data}))
	require.NoError(t, err)

	got, err := env.requestClient(viewerEmail).GetRequest(ctx, connect.NewRequest(&api.GetRequestRequest{ID: approved.RequestID}))
	require.NoError(t, err)
	assert.Equal(t, data, got.Msg.Request.EditorData)
	assert.Equal(t, accountantEmail, got.Msg.Request.UpdatedByEmail)

	_, err = env.requestClient(requesterEmail).SaveEditorData(ctx, connect.NewRequest(&api.SaveEditorDataRequest{ID: approved.RequestID}))
	assert.Equal(t, connect.CodePermissionDenied, codeOf(err))

	_, err = accountant.SaveEditorData(ctx, connect.NewRequest(&api.SaveEditorDataRequest{ID: "missing", EditorData: data}))
	assert.Equal(t, connect.CodeNotFound, codeOf(err))
}

func TestUploadAttachment(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	approved := approveNew(t, env, "Faktury", 999)
	accountant := env.requestClient(accountantEmail)

	t.Run("document passes through", func(t *testing.T) {
		payload := []byte("%PDF-1.4 fake invoice")
		resp, err := accountant.UploadAttachment(ctx, connect.NewRequest(&api.UploadAttachmentRequest{
			RequestID:   approved.RequestID,
			Filename:    "Faktura č. 1.pdf",
			ContentType: "application/pdf",
			Data:        payload,
		}))
		require.NoError(t, err)
		a := resp.Msg.Attachment
		assert.True(t, strings.HasPrefix(a.StoragePath, "attachments/"+approved.RequestID+"/"), a.StoragePath)
		assert.True(t, strings.HasSuffix(a.StoragePath, "_Faktura_c._1.pdf"), a.StoragePath)
		assert.Equal(t, int64(len(payload)), a.SizeBytes)
		assert.Equal(t, models.AttachmentInvoice, a.Kind)
		assert.Contains(t, a.DownloadURL, a.StoragePath)
		assert.Empty(t, resp.Msg.Warning)
	})

	t.Run("image is recompressed", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 64, 48))
		for x := 0; x < 64; x++ {
			for y := 0; y < 48; y++ {
				img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 120, A: 255})
			}
		}
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))

		resp, err := accountant.UploadAttachment(ctx, connect.NewRequest(&api.UploadAttachmentRequest{
			RequestID:   approved.RequestID,
			Filename:    "účtenka.png",
			ContentType: "image/png",
			Kind:        models.AttachmentOther,
			Data:        buf.Bytes(),
		}))
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", resp.Msg.Attachment.Mime)
		assert.Equal(t, "účtenka.jpg", resp.Msg.Attachment.Filename)
		assert.True(t, strings.HasSuffix(resp.Msg.Attachment.StoragePath, "_uctenka.jpg"))
		assert.Equal(t, int64(buf.Len()), resp.Msg.OriginalBytes)
	})

	t.Run("undecodable image", func(t *testing.T) {
		_, err := accountant.UploadAttachment(ctx, connect.NewRequest(&api.UploadAttachmentRequest{
			RequestID:   approved.RequestID,
			Filename:    "broken.jpg",
			ContentType: "image/jpeg",
			Data:        []byte("not a jpeg"),
		}))
		assert.Equal(t, connect.CodeInvalidArgument, codeOf(err))
	})

	got, err := env.store.GetRequest(ctx, approved.RequestID)
	require.NoError(t, err)
	assert.Len(t, got.Attachments, 2)
}

func TestExportRequestPDF(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	approved := approveNew(t, env, "Export", 120)

	resp, err := env.requestClient(viewerEmail).ExportRequestPDF(ctx, connect.NewRequest(&api.ExportRequestPDFRequest{ID: approved.RequestID}))
	require.NoError(t, err)
	assert.Equal(t, "SR_"+approved.VS+".pdf", resp.Msg.Filename)
	assert.Equal(t, "application/pdf", resp.Msg.ContentType)
	assert.True(t, bytes.HasPrefix(resp.Msg.Data, []byte("%PDF")))
}

func TestWatchQueue(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := env.requestClient(viewerEmail).WatchQueue(ctx, connect.NewRequest(&api.WatchQueueRequest{MonthKey: testMonth}))
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive(), "initial snapshot: %v", stream.Err())
	assert.Empty(t, stream.Msg().Items)

	createQueued(t, env.requestClient(requesterEmail), "Nová položka", 75)

	require.True(t, stream.Receive(), "update: %v", stream.Err())
	require.Len(t, stream.Msg().Items, 1)
	assert.Equal(t, "Nová položka", stream.Msg().Items[0].Description)
}

func TestWatch_RequiresAllowlist(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := env.requestClient(strangerEmail).WatchMonths(ctx, connect.NewRequest(&api.WatchMonthsRequest{}))
	require.NoError(t, err)
	defer stream.Close()

	assert.False(t, stream.Receive())
	assert.Equal(t, connect.CodePermissionDenied, codeOf(stream.Err()))
}

func TestEditorDiff(t *testing.T) {
	diff := editorDiff(
		map[string]string{"a": "1", "b": "2", "c": "3"},
		map[string]string{"a": "1", "b": "20", "d": "4"},
	)
	assert.Equal(t, map[string]any{"editorData": map[string]any{"b": "20", "c": nil, "d": "4"}}, diff)
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Účtenka č. 1.jpg", "Uctenka_c._1.jpg"},
		{"faktura.pdf", "faktura.pdf"},
		{"../../etc/passwd", ".._.._etc_passwd"},
		{"ŽLUŤOUČKÝ kůň.png", "ZLUTOUCKY_kun.png"},
		{"", "file"},
		{"..", "file"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeFilename(tt.in), tt.in)
	}
}
