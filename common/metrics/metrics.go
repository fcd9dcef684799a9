package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CompletionsTotal counts completion workflow invocations by result
	CompletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pkgstatus_completions_total",
		Help: "Package completion workflow invocations by result.",
	}, []string{"result"})

	// PackagesUnblocked counts dependents fully unblocked by a completion
	PackagesUnblocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pkgstatus_packages_unblocked_total",
		Help: "Dependent packages fully unblocked by cascade resolution.",
	})

	// NoticesEnqueued counts notices accepted by the notifier
	NoticesEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pkgstatus_notices_enqueued_total",
		Help: "Notices enqueued into the notifier pipeline.",
	})

	// BatchesDelivered counts merged messages delivered to the chat
	BatchesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pkgstatus_notice_batches_delivered_total",
		Help: "Merged notice batches delivered to the chat channel.",
	})

	// DeliveryFailures counts failed external sends (not retried)
	DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pkgstatus_notice_delivery_failures_total",
		Help: "Failed notice deliveries to the chat channel.",
	})
)

// Handler exposes the default registry for the /metrics route
func Handler() http.Handler {
	return promhttp.Handler()
}
