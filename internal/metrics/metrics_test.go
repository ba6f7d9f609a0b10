package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommuteLogged(t *testing.T) {
	m := New()

	m.CommuteLogged("cycle", 10, 50)
	m.CommuteLogged("cycle", 4, 20)
	m.CommuteLogged("walk", 0, 10)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commutesLogged.WithLabelValues("cycle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commutesLogged.WithLabelValues("walk")))
	assert.Equal(t, 14.0, testutil.ToFloat64(m.co2SavedKg))
	assert.Equal(t, 80.0, testutil.ToFloat64(m.pointsAwarded))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CommuteLogged("cycle", 1, 1)
		m.ChallengeJoined()
		m.ChallengeCompleted(10)
		m.RewardRedeemed()
		m.RedemptionRejected("sold_out")
		m.ObserveRequest("GET", "/healthz", 200, time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RewardRedeemed()
	m.ObserveRequest("GET", "GET /api/rewards", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "trak_rewards_redeemed_total 1")
	assert.Contains(t, string(body), `trak_http_requests_total{code="200",method="GET",route="GET /api/rewards"} 1`)
}
