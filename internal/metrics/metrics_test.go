package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRPC("/spolek.v1.RequestService/ApproveQueueRequest", "ok", 20*time.Millisecond)
	m.ObserveRPC("/spolek.v1.RequestService/ApproveQueueRequest", "ok", 30*time.Millisecond)
	m.ObserveRPC("/spolek.v1.RequestService/ApproveQueueRequest", "not_found", time.Millisecond)
	m.ApprovalCommitted()
	m.MailBroadcast(ResultOK)
	m.MailBroadcast(ResultRejected)
	m.OAuthLogin(ResultDenied)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/spolek.v1.RequestService/ApproveQueueRequest", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.approvals))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mailBroadcasts.WithLabelValues(ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.oauthLogins.WithLabelValues(ResultDenied)))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ApprovalCommitted()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), MetricApprovalsTotal+" 1")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRPC("p", "ok", time.Second)
		m.ApprovalCommitted()
		m.MailBroadcast(ResultOK)
		m.OAuthLogin(ResultOK)
	})
	assert.Nil(t, m.Registry())
}
