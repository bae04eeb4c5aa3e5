package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClaimDuration tracks the latency of voucher claims
	ClaimDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "voucher_claim_duration_seconds",
			Help: "Duration of voucher claim requests in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
				10.0,  // 10s
			},
		},
		[]string{"status"}, // success or failure
	)

	// SweeperRuns counts expiry sweeper runs by outcome
	SweeperRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_sweeper_runs_total",
			Help: "Number of expiry sweeper runs by outcome",
		},
		[]string{"status"},
	)

	// CampaignsExpired counts campaigns transitioned to EXPIRED by the sweeper
	CampaignsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaigns_expired_total",
			Help: "Number of campaigns expired by the sweeper",
		},
	)
)

// RecordClaimDuration records the duration of a voucher claim request
func RecordClaimDuration(status string, duration float64) {
	ClaimDuration.WithLabelValues(status).Observe(duration)
}
