package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservations(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSubmission("mock", "verified")
	m.ObserveSubmission("mock", "verified")
	m.ObserveUndecodable("selfie_image")
	m.ObserveProvider("real", time.Now(), errors.New("down"))
	m.ObserveProvider("real", time.Now(), nil)
	m.ObserveLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues("mock", "verified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UndecodableImages.WithLabelValues("selfie_image")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderFailures.WithLabelValues("real")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusLookups.WithLabelValues("false")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveSubmission("mock", "manual_review")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `kyc_submissions_total{provider="mock",status="manual_review"} 1`))
}
