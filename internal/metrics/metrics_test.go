package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabledReturnsNoop(t *testing.T) {
	r := Init(false)
	_, ok := r.(*NoopMetrics)
	assert.True(t, ok)
}

func TestInitEnabledIsSingleton(t *testing.T) {
	first := Init(true)
	second := Init(true)
	assert.Same(t, first, second)
}

func TestRecorderCounters(t *testing.T) {
	r := Init(true)
	m, ok := r.(*Metrics)
	require.True(t, ok)

	before := testutil.ToFloat64(m.ConnectionsAddedTotal.WithLabelValues("github"))
	r.RecordConnectionAdded("github")
	after := testutil.ToFloat64(m.ConnectionsAddedTotal.WithLabelValues("github"))
	assert.Equal(t, before+1, after)

	r.RecordHandshakeStarted("github")
	r.RecordHandshakeCompleted("github", true, 120*time.Millisecond)
	r.RecordConnectionRefresh("github", false)
	r.RecordSignIn("github", "signed_up")
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.ConnectionRefreshTotal.WithLabelValues("github", "error")))
}

func TestNoopRecorderIsSafe(t *testing.T) {
	r := NewNoopMetrics()
	r.RecordHandshakeStarted("github")
	r.RecordHandshakeCompleted("github", false, 0)
	r.RecordConnectionAdded("github")
	r.RecordConnectionRemoved("github")
	r.RecordConnectionRefresh("github", true)
	r.RecordSignIn("github", "not_found")
}

func TestHTTPMetricsMiddlewareNoopPassThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMetricsMiddleware(NewNoopMetrics()))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
