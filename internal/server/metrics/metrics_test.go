package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := NewMetrics()

	m.RecordSettlement(OutcomeOK)
	m.RecordSettlement(OutcomeRejected)
	m.RecordSettlement(OutcomeRejected)
	m.RecordStockAdjustment(OutcomeRejected)
	m.RecordPaymentIntent(OutcomeError)
	m.RecordReconciled(3)
	m.RecordHTTPRequest("GET", "/orders/{id}", "200", 15*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.settlementsTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.settlementsTotal.WithLabelValues(OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stockAdjustmentsTotal.WithLabelValues(OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentIntentsTotal.WithLabelValues(OutcomeError)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reconciledTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/orders/{id}", "200")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSettlement(OutcomeOK)
		m.RecordStockAdjustment(OutcomeOK)
		m.RecordPaymentIntent(OutcomeOK)
		m.RecordReconciled(1)
		m.RecordHTTPRequest("GET", "/", "200", time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordSettlement(OutcomeOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `gearhub_order_settlements_total{outcome="ok"} 1`))
}
