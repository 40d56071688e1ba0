package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/pkg/api"
)

// AllowlistServiceHandler manages the allow-list and exposes the audit log.
type AllowlistServiceHandler interface {
	ListAllowlist(context.Context, *connect.Request[api.ListAllowlistRequest]) (*connect.Response[api.ListAllowlistResponse], error)
	UpsertAllowlist(context.Context, *connect.Request[api.UpsertAllowlistRequest]) (*connect.Response[api.UpsertAllowlistResponse], error)
	DeleteAllowlist(context.Context, *connect.Request[api.DeleteAllowlistRequest]) (*connect.Response[api.DeleteAllowlistResponse], error)
	ListAudit(context.Context, *connect.Request[api.ListAuditRequest]) (*connect.Response[api.ListAuditResponse], error)
}

// NewAllowlistServiceHandler returns the mount path and handler of the service.
func NewAllowlistServiceHandler(svc AllowlistServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + AllowlistServiceName + "/", route(map[string]http.Handler{
		AllowlistServiceListAllowlistProcedure:   connect.NewUnaryHandler(AllowlistServiceListAllowlistProcedure, svc.ListAllowlist, opts...),
		AllowlistServiceUpsertAllowlistProcedure: connect.NewUnaryHandler(AllowlistServiceUpsertAllowlistProcedure, svc.UpsertAllowlist, opts...),
		AllowlistServiceDeleteAllowlistProcedure: connect.NewUnaryHandler(AllowlistServiceDeleteAllowlistProcedure, svc.DeleteAllowlist, opts...),
		AllowlistServiceListAuditProcedure:       connect.NewUnaryHandler(AllowlistServiceListAuditProcedure, svc.ListAudit, opts...),
	})
}

// AllowlistServiceClient is a client for AllowlistService.
type AllowlistServiceClient interface {
	AllowlistServiceHandler
}

// NewAllowlistServiceClient creates an AllowlistService client for baseURL.
func NewAllowlistServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AllowlistServiceClient {
	baseURL = trimBase(baseURL)
	opts = clientOptions(opts)
	return &allowlistServiceClient{
		list:   connect.NewClient[api.ListAllowlistRequest, api.ListAllowlistResponse](httpClient, baseURL+AllowlistServiceListAllowlistProcedure, opts...),
		upsert: connect.NewClient[api.UpsertAllowlistRequest, api.UpsertAllowlistResponse](httpClient, baseURL+AllowlistServiceUpsertAllowlistProcedure, opts...),
		delete: connect.NewClient[api.DeleteAllowlistRequest, api.DeleteAllowlistResponse](httpClient, baseURL+AllowlistServiceDeleteAllowlistProcedure, opts...),
		audit:  connect.NewClient[api.ListAuditRequest, api.ListAuditResponse](httpClient, baseURL+AllowlistServiceListAuditProcedure, opts...),
	}
}

type allowlistServiceClient struct {
	list   *connect.Client[api.ListAllowlistRequest, api.ListAllowlistResponse]
	upsert *connect.Client[api.UpsertAllowlistRequest, api.UpsertAllowlistResponse]
	delete *connect.Client[api.DeleteAllowlistRequest, api.DeleteAllowlistResponse]
	audit  *connect.Client[api.ListAuditRequest, api.ListAuditResponse]
}

func (c *allowlistServiceClient) ListAllowlist(ctx context.Context, req *connect.Request[api.ListAllowlistRequest]) (*connect.Response[api.ListAllowlistResponse], error) {
	return c.list.CallUnary(ctx, req)
}

func (c *allowlistServiceClient) UpsertAllowlist(ctx context.Context, req *connect.Request[api.UpsertAllowlistRequest]) (*connect.Response[api.UpsertAllowlistResponse], error) {
	return c.upsert.CallUnary(ctx, req)
}

func (c *allowlistServiceClient) DeleteAllowlist(ctx context.Context, req *connect.Request[api.DeleteAllowlistRequest]) (*connect.Response[api.DeleteAllowlistResponse], error) {
	return c.delete.CallUnary(ctx, req)
}

func (c *allowlistServiceClient) ListAudit(ctx context.Context, req *connect.Request[api.ListAuditRequest]) (*connect.Response[api.ListAuditResponse], error) {
	return c.audit.CallUnary(ctx, req)
}
