package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/target/admin-console/internal/errors"
)

func TestCollector_RecordLogin(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(nil)
	c.RecordLogin(apperrors.Auth("invalid email or password"))
	c.RecordLogin(apperrors.Auth("invalid email or password"))

	assert.InDelta(t, 1, testutil.ToFloat64(c.logins.WithLabelValues(ResultSuccess, "")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(c.logins.WithLabelValues(ResultError, "auth")), 0)
}

func TestCollector_TransitionsAndRepairs(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTransition("anonymous", "authenticating")
	c.RecordTransition("anonymous", "authenticating")
	c.RecordProfileRepair(nil)
	c.RecordProfileRepair(errors.New("boom"))

	assert.InDelta(t, 2, testutil.ToFloat64(c.transitions.WithLabelValues("anonymous", "authenticating")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.repairs.WithLabelValues(ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.repairs.WithLabelValues(ResultError)), 0)
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPRequest(http.MethodGet, "GET /api/tasks", http.StatusOK, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "console_http_request_duration_seconds_count"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
