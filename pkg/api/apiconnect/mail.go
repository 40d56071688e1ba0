package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/pkg/api"
)

// MailServiceHandler relays bulk mail to allow-listed recipients.
type MailServiceHandler interface {
	SendBulkMail(context.Context, *connect.Request[api.SendBulkMailRequest]) (*connect.Response[api.SendBulkMailResponse], error)
}

// NewMailServiceHandler returns the mount path and handler of the service.
func NewMailServiceHandler(svc MailServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + MailServiceName + "/", route(map[string]http.Handler{
		MailServiceSendBulkMailProcedure: connect.NewUnaryHandler(MailServiceSendBulkMailProcedure, svc.SendBulkMail, opts...),
	})
}

// MailServiceClient is a client for MailService.
type MailServiceClient interface {
	MailServiceHandler
}

// NewMailServiceClient creates a MailService client for baseURL.
func NewMailServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) MailServiceClient {
	return &mailServiceClient{
		send: connect.NewClient[api.SendBulkMailRequest, api.SendBulkMailResponse](httpClient, trimBase(baseURL)+MailServiceSendBulkMailProcedure, clientOptions(opts)...),
	}
}

type mailServiceClient struct {
	send *connect.Client[api.SendBulkMailRequest, api.SendBulkMailResponse]
}

func (c *mailServiceClient) SendBulkMail(ctx context.Context, req *connect.Request[api.SendBulkMailRequest]) (*connect.Response[api.SendBulkMailResponse], error) {
	return c.send.CallUnary(ctx, req)
}
