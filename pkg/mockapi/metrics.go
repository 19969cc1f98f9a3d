package mockapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ptscope_mock_requests_total",
		Help: "The total number of handled HTTP requests",
	}, []string{"route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ptscope_mock_request_duration_seconds",
		Help:    "Duration of handled HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
