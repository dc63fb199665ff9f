package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// invocationsTotal counts join point invocations, nested ones included.
	// Labels: joinpoint (Key.String())
	invocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weft",
		Name:      "invocations_total",
		Help:      "Total join point invocations",
	}, []string{"joinpoint"})

	// adviceErrorsTotal counts errors returned by advice bodies.
	// Labels: kind (Before, After, Around, AfterThrowing)
	adviceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weft",
		Name:      "advice_errors_total",
		Help:      "Total errors returned by advice, by advice kind",
	}, []string{"kind"})

	// chainResolutionsTotal counts advice chains built from installed manifests.
	chainResolutionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "weft",
		Name:      "chain_resolutions_total",
		Help:      "Total advice chains resolved from installed manifests",
	})
)
