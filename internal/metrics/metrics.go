package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamtv_registrations_total",
			Help: "Registration attempts by outcome",
		},
		[]string{"result"}, // created|duplicate|invalid|error
	)

	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamtv_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"result"}, // success|invalid|error
	)

	QueueAddsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "streamtv_queue_adds_total",
			Help: "Shows added to customer queues",
		},
	)

	WatchRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamtv_watch_records_total",
			Help: "Watch events by outcome",
		},
		[]string{"result"}, // recorded|duplicate
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		RegistrationsTotal,
		LoginsTotal,
		QueueAddsTotal,
		WatchRecordsTotal,
	)
}
