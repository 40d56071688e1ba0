package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/pkg/api"
)

// RequestServiceHandler serves months, approved requests and the review queue.
// Watch procedures stream a fresh snapshot after every change.
type RequestServiceHandler interface {
	ListMonths(context.Context, *connect.Request[api.ListMonthsRequest]) (*connect.Response[api.ListMonthsResponse], error)
	ListRequests(context.Context, *connect.Request[api.ListRequestsRequest]) (*connect.Response[api.ListRequestsResponse], error)
	ListQueue(context.Context, *connect.Request[api.ListQueueRequest]) (*connect.Response[api.ListQueueResponse], error)
	GetRequest(context.Context, *connect.Request[api.GetRequestRequest]) (*connect.Response[api.GetRequestResponse], error)
	CreateQueueRequest(context.Context, *connect.Request[api.CreateQueueRequestRequest]) (*connect.Response[api.CreateQueueRequestResponse], error)
	ApproveQueueRequest(context.Context, *connect.Request[api.ApproveQueueRequestRequest]) (*connect.Response[api.ApproveQueueRequestResponse], error)
	RejectQueueRequest(context.Context, *connect.Request[api.RejectQueueRequestRequest]) (*connect.Response[api.RejectQueueRequestResponse], error)
	UpdateRequestState(context.Context, *connect.Request[api.UpdateRequestStateRequest]) (*connect.Response[api.UpdateRequestStateResponse], error)
	SaveEditorData(context.Context, *connect.Request[api.SaveEditorDataRequest]) (*connect.Response[api.SaveEditorDataResponse], error)
	UploadAttachment(context.Context, *connect.Request[api.UploadAttachmentRequest]) (*connect.Response[api.UploadAttachmentResponse], error)
	ExportRequestPDF(context.Context, *connect.Request[api.ExportRequestPDFRequest]) (*connect.Response[api.ExportRequestPDFResponse], error)
	WatchMonths(context.Context, *connect.Request[api.WatchMonthsRequest], *connect.ServerStream[api.WatchMonthsResponse]) error
	WatchRequests(context.Context, *connect.Request[api.WatchRequestsRequest], *connect.ServerStream[api.WatchRequestsResponse]) error
	WatchQueue(context.Context, *connect.Request[api.WatchQueueRequest], *connect.ServerStream[api.WatchQueueResponse]) error
}

// NewRequestServiceHandler returns the mount path and handler of the service.
func NewRequestServiceHandler(svc RequestServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + RequestServiceName + "/", route(map[string]http.Handler{
		RequestServiceListMonthsProcedure:          connect.NewUnaryHandler(RequestServiceListMonthsProcedure, svc.ListMonths, opts...),
		RequestServiceListRequestsProcedure:        connect.NewUnaryHandler(RequestServiceListRequestsProcedure, svc.ListRequests, opts...),
		RequestServiceListQueueProcedure:           connect.NewUnaryHandler(RequestServiceListQueueProcedure, svc.ListQueue, opts...),
		RequestServiceGetRequestProcedure:          connect.NewUnaryHandler(RequestServiceGetRequestProcedure, svc.GetRequest, opts...),
		RequestServiceCreateQueueRequestProcedure:  connect.NewUnaryHandler(RequestServiceCreateQueueRequestProcedure, svc.CreateQueueRequest, opts...),
		RequestServiceApproveQueueRequestProcedure: connect.NewUnaryHandler(RequestServiceApproveQueueRequestProcedure, svc.ApproveQueueRequest, opts...),
		RequestServiceRejectQueueRequestProcedure:  connect.NewUnaryHandler(RequestServiceRejectQueueRequestProcedure, svc.RejectQueueRequest, opts...),
		RequestServiceUpdateRequestStateProcedure:  connect.NewUnaryHandler(RequestServiceUpdateRequestStateProcedure, svc.UpdateRequestState, opts...),
		RequestServiceSaveEditorDataProcedure:      connect.NewUnaryHandler(RequestServiceSaveEditorDataProcedure, svc.SaveEditorData, opts...),
		RequestServiceUploadAttachmentProcedure:    connect.NewUnaryHandler(RequestServiceUploadAttachmentProcedure, svc.UploadAttachment, opts...),
		RequestServiceExportRequestPDFProcedure:    connect.NewUnaryHandler(RequestServiceExportRequestPDFProcedure, svc.ExportRequestPDF, opts...),
		RequestServiceWatchMonthsProcedure:         connect.NewServerStreamHandler(RequestServiceWatchMonthsProcedure, svc.WatchMonths, opts...),
		RequestServiceWatchRequestsProcedure:       connect.NewServerStreamHandler(RequestServiceWatchRequestsProcedure, svc.WatchRequests, opts...),
		RequestServiceWatchQueueProcedure:          connect.NewServerStreamHandler(RequestServiceWatchQueueProcedure, svc.WatchQueue, opts...),
	})
}

// RequestServiceClient is a client for RequestService.
type RequestServiceClient interface {
	ListMonths(context.Context, *connect.Request[api.ListMonthsRequest]) (*connect.Response[api.ListMonthsResponse], error)
	ListRequests(context.Context, *connect.Request[api.ListRequestsRequest]) (*connect.Response[api.ListRequestsResponse], error)
	ListQueue(context.Context, *connect.Request[api.ListQueueRequest]) (*connect.Response[api.ListQueueResponse], error)
	GetRequest(context.Context, *connect.Request[api.GetRequestRequest]) (*connect.Response[api.GetRequestResponse], error)
	CreateQueueRequest(context.Context, *connect.Request[api.CreateQueueRequestRequest]) (*connect.Response[api.CreateQueueRequestResponse], error)
	ApproveQueueRequest(context.Context, *connect.Request[api.ApproveQueueRequestRequest]) (*connect.Response[api.ApproveQueueRequestResponse], error)
	RejectQueueRequest(context.Context, *connect.Request[api.RejectQueueRequestRequest]) (*connect.Response[api.RejectQueueRequestResponse], error)
	UpdateRequestState(context.Context, *connect.Request[api.UpdateRequestStateRequest]) (*connect.Response[api.UpdateRequestStateResponse], error)
	SaveEditorData(context.Context, *connect.Request[api.SaveEditorDataRequest]) (*connect.Response[api.SaveEditorDataResponse], error)
	UploadAttachment(context.Context, *connect.Request[api.UploadAttachmentRequest]) (*connect.Response[api.UploadAttachmentResponse], error)
	ExportRequestPDF(context.Context, *connect.Request[api.ExportRequestPDFRequest]) (*connect.Response[api.ExportRequestPDFResponse], error)
	WatchMonths(context.Context, *connect.Request[api.WatchMonthsRequest]) (*connect.ServerStreamForClient[api.WatchMonthsResponse], error)
	WatchRequests(context.Context, *connect.Request[api.WatchRequestsRequest]) (*connect.ServerStreamForClient[api.WatchRequestsResponse], error)
	WatchQueue(context.Context, *connect.Request[api.WatchQueueRequest]) (*connect.ServerStreamForClient[api.WatchQueueResponse], error)
}

// NewRequestServiceClient creates a RequestService client for baseURL.
func NewRequestServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) RequestServiceClient {
	baseURL = trimBase(baseURL)
	opts = clientOptions(opts)
	return &requestServiceClient{
		listMonths:          connect.NewClient[api.ListMonthsRequest, api.ListMonthsResponse](httpClient, baseURL+RequestServiceListMonthsProcedure, opts...),
		listRequests:        connect.NewClient[api.ListRequestsRequest, api.ListRequestsResponse](httpClient, baseURL+RequestServiceListRequestsProcedure, opts...),
		listQueue:           connect.NewClient[api.ListQueueRequest, api.ListQueueResponse](httpClient, baseURL+RequestServiceListQueueProcedure, opts...),
		getRequest:          connect.NewClient[api.GetRequestRequest, api.GetRequestResponse](httpClient, baseURL+RequestServiceGetRequestProcedure, opts...),
		createQueueRequest:  connect.NewClient[api.CreateQueueRequestRequest, api.CreateQueueRequestResponse](httpClient, baseURL+RequestServiceCreateQueueRequestProcedure, opts...),
		approveQueueRequest: connect.NewClient[api.ApproveQueueRequestRequest, api.ApproveQueueRequestResponse](httpClient, baseURL+RequestServiceApproveQueueRequestProcedure, opts...),
		rejectQueueRequest:  connect.NewClient[api.RejectQueueRequestRequest, api.RejectQueueRequestResponse](httpClient, baseURL+RequestServiceRejectQueueRequestProcedure, opts...),
		updateRequestState:  connect.NewClient[api.UpdateRequestStateRequest, api.UpdateRequestStateResponse](httpClient, baseURL+RequestServiceUpdateRequestStateProcedure, opts...),
		saveEditorData:      connect.NewClient[api.SaveEditorDataRequest, api.SaveEditorDataResponse](httpClient, baseURL+RequestServiceSaveEditorDataProcedure, opts...),
		uploadAttachment:    connect.NewClient[api.UploadAttachmentRequest, api.UploadAttachmentResponse](httpClient, baseURL+RequestServiceUploadAttachmentProcedure, opts...),
		exportRequestPDF:    connect.NewClient[api.ExportRequestPDFRequest, api.ExportRequestPDFResponse](httpClient, baseURL+RequestServiceExportRequestPDFProcedure, opts...),
		watchMonths:         connect.NewClient[api.WatchMonthsRequest, api.WatchMonthsResponse](httpClient, baseURL+RequestServiceWatchMonthsProcedure, opts...),
		watchRequests:       connect.NewClient[api.WatchRequestsRequest, api.WatchRequestsResponse](httpClient, baseURL+RequestServiceWatchRequestsProcedure, opts...),
		watchQueue:          connect.NewClient[api.WatchQueueRequest, api.WatchQueueResponse](httpClient, baseURL+RequestServiceWatchQueueProcedure, opts...),
	}
}

type requestServiceClient struct {
	listMonths          *connect.Client[api.ListMonthsRequest, api.ListMonthsResponse]
	listRequests        *connect.Client[api.ListRequestsRequest, api.ListRequestsResponse]
	listQueue           *connect.Client[api.ListQueueRequest, api.ListQueueResponse]
	getRequest          *connect.Client[api.GetRequestRequest, api.GetRequestResponse]
	createQueueRequest  *connect.Client[api.CreateQueueRequestRequest, api.CreateQueueRequestResponse]
	approveQueueRequest *connect.Client[api.ApproveQueueRequestRequest, api.ApproveQueueRequestResponse]
	rejectQueueRequest  *connect.Client[api.RejectQueueRequestRequest, api.RejectQueueRequestResponse]
	updateRequestState  *connect.Client[api.UpdateRequestStateRequest, api.UpdateRequestStateResponse]
	saveEditorData      *connect.Client[api.SaveEditorDataRequest, api.SaveEditorDataResponse]
	uploadAttachment    *connect.Client[api.UploadAttachmentRequest, api.UploadAttachmentResponse]
	exportRequestPDF    *connect.Client[api.ExportRequestPDFRequest, api.ExportRequestPDFResponse]
	watchMonths         *connect.Client[api.WatchMonthsRequest, api.WatchMonthsResponse]
	watchRequests       *connect.Client[api.WatchRequestsRequest, api.WatchRequestsResponse]
	watchQueue          *connect.Client[api.WatchQueueRequest, api.WatchQueueResponse]
}

func (c *requestServiceClient) ListMonths(ctx context.Context, req *connect.Request[api.ListMonthsRequest]) (*connect.Response[api.ListMonthsResponse], error) {
	return c.listMonths.CallUnary(ctx, req)
}

func (c *requestServiceClient) ListRequests(ctx context.Context, req *connect.Request[api.ListRequestsRequest]) (*connect.Response[api.ListRequestsResponse], error) {
	return c.listRequests.CallUnary(ctx, req)
}

func (c *requestServiceClient) ListQueue(ctx context.Context, req *connect.Request[api.ListQueueRequest]) (*connect.Response[api.ListQueueResponse], error) {
	return c.listQueue.CallUnary(ctx, req)
}

func (c *requestServiceClient) GetRequest(ctx context.Context, req *connect.Request[api.GetRequestRequest]) (*connect.Response[api.GetRequestResponse], error) {
	return c.getRequest.CallUnary(ctx, req)
}

func (c *requestServiceClient) CreateQueueRequest(ctx context.Context, req *connect.Request[api.CreateQueueRequestRequest]) (*connect.Response[api.CreateQueueRequestResponse], error) {
	return c.createQueueRequest.CallUnary(ctx, req)
}

func (c *requestServiceClient) ApproveQueueRequest(ctx context.Context, req *connect.Request[api.ApproveQueueRequestRequest]) (*connect.Response[api.ApproveQueueRequestResponse], error) {
	return c.approveQueueRequest.CallUnary(ctx, req)
}

func (c *requestServiceClient) RejectQueueRequest(ctx context.Context, req *connect.Request[api.RejectQueueRequestRequest]) (*connect.Response[api.RejectQueueRequestResponse], error) {
	return c.rejectQueueRequest.CallUnary(ctx, req)
}

func (c *requestServiceClient) UpdateRequestState(ctx context.Context, req *connect.Request[api.UpdateRequestStateRequest]) (*connect.Response[api.UpdateRequestStateResponse], error) {
	return c.updateRequestState.CallUnary(ctx, req)
}

func (c *requestServiceClient) SaveEditorData(ctx context.Context, req *connect.Request[api.SaveEditorDataRequest]) (*connect.Response[api.SaveEditorDataResponse], error) {
	return c.saveEditorData.CallUnary(ctx, req)
}

func (c *requestServiceClient) UploadAttachment(ctx context.Context, req *connect.Request[api.UploadAttachmentRequest]) (*connect.Response[api.UploadAttachmentResponse], error) {
	return c.uploadAttachment.CallUnary(ctx, req)
}

func (c *requestServiceClient) ExportRequestPDF(ctx context.Context, req *connect.Request[api.ExportRequestPDFRequest]) (*connect.Response[api.ExportRequestPDFResponse], error) {
	return c.exportRequestPDF.CallUnary(ctx, req)
}

func (c *requestServiceClient) WatchMonths(ctx context.Context, req *connect.Request[api.WatchMonthsRequest]) (*connect.ServerStreamForClient[api.WatchMonthsResponse], error) {
	return c.watchMonths.CallServerStream(ctx, req)
}

func (c *requestServiceClient) WatchRequests(ctx context.Context, req *connect.Request[api.WatchRequestsRequest]) (*connect.ServerStreamForClient[api.WatchRequestsResponse], error) {
	return c.watchRequests.CallServerStream(ctx, req)
}

func (c *requestServiceClient) WatchQueue(ctx context.Context, req *connect.Request[api.WatchQueueRequest]) (*connect.ServerStreamForClient[api.WatchQueueResponse], error) {
	return c.watchQueue.CallServerStream(ctx, req)
}
