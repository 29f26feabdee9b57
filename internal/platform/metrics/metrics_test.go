package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSignIn("success")
	c.RecordSignIn("success")
	c.RecordSignIn("rejected")
	c.RecordSignUp("invalid")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.signIn.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.signIn.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.signUp.WithLabelValues("invalid")))
}

func TestCollector_ActiveSessionsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	n := 3
	require.NoError(t, c.RegisterActiveSessions(func() int { return n }))

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() == "minitorque_active_sessions" {
			found = true
			assert.Equal(t, 3.0, mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found, "active sessions gauge not registered")

	assert.Error(t, c.RegisterActiveSessions(func() int { return 0 }), "second registration must fail")
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.ObserveRequest(http.MethodGet, "/signin", http.StatusOK, 20*time.Millisecond)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `minitorque_http_request_duration_seconds_count{method="GET",route="/signin",status_code="200"} 1`))
}
