// Package apiconnect wires the api messages to Connect handlers and clients.
package apiconnect

import (
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/pkg/api"
)

// Fully-qualified service names.
const (
	SessionServiceName   = "spolek.v1.SessionService"
	AllowlistServiceName = "spolek.v1.AllowlistService"
	RequestServiceName   = "spolek.v1.RequestService"
	MailServiceName      = "spolek.v1.MailService"
)

// Procedure paths.
const (
	SessionServiceGetSessionProcedure    = "/spolek.v1.SessionService/GetSession"
	SessionServiceMintTestTokenProcedure = "/spolek.v1.SessionService/MintTestToken"

	AllowlistServiceListAllowlistProcedure   = "/spolek.v1.AllowlistService/ListAllowlist"
	AllowlistServiceUpsertAllowlistProcedure = "/spolek.v1.AllowlistService/UpsertAllowlist"
	AllowlistServiceDeleteAllowlistProcedure = "/spolek.v1.AllowlistService/DeleteAllowlist"
	AllowlistServiceListAuditProcedure       = "/spolek.v1.AllowlistService/ListAudit"

	RequestServiceListMonthsProcedure          = "/spolek.v1.RequestService/ListMonths"
	RequestServiceListRequestsProcedure        = "/spolek.v1.RequestService/ListRequests"
	RequestServiceListQueueProcedure           = "/spolek.v1.RequestService/ListQueue"
	RequestServiceGetRequestProcedure          = "/spolek.v1.RequestService/GetRequest"
	RequestServiceCreateQueueRequestProcedure  = "/spolek.v1.RequestService/CreateQueueRequest"
	RequestServiceApproveQueueRequestProcedure = "/spolek.v1.RequestService/ApproveQueueRequest"
	RequestServiceRejectQueueRequestProcedure  = "/spolek.v1.RequestService/RejectQueueRequest"
	RequestServiceUpdateRequestStateProcedure  = "/spolek.v1.RequestService/UpdateRequestState"
	RequestServiceSaveEditorDataProcedure      = "/spolek.v1.RequestService/SaveEditorData"
	RequestServiceUploadAttachmentProcedure    = "/spolek.v1.RequestService/UploadAttachment"
	RequestServiceExportRequestPDFProcedure    = "/spolek.v1.RequestService/ExportRequestPDF"
	RequestServiceWatchMonthsProcedure         = "/spolek.v1.RequestService/WatchMonths"
	RequestServiceWatchRequestsProcedure       = "/spolek.v1.RequestService/WatchRequests"
	RequestServiceWatchQueueProcedure          = "/spolek.v1.RequestService/WatchQueue"

	MailServiceSendBulkMailProcedure = "/spolek.v1.MailService/SendBulkMail"
)

// PublicProcedures may be called without a bearer token.
var PublicProcedures = map[string]bool{
	SessionServiceMintTestTokenProcedure: true,
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
}

// route dispatches on the exact procedure path.
func route(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

func trimBase(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}
