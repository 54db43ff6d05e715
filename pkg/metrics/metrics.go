package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionsActive is the number of Session values currently open.
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "arbiter_sessions_active",
			Help: "Number of judging sessions currently open.",
		},
	)

	ContainersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "arbiter_containers_created_total",
			Help: "Total number of sandbox containers created.",
		},
	)

	ContainerCreateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arbiter_container_create_duration_seconds",
			Help:    "Time taken to create and start the sandbox container.",
			Buckets: prometheus.DefBuckets,
		},
	)

	CompilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbiter_compiles_total",
			Help: "Total number of compile attempts by outcome.",
		},
		[]string{"outcome"}, // "success", "failure", "skipped", "error"
	)

	CompileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arbiter_compile_duration_seconds",
			Help:    "Time taken to run the compile stage.",
			Buckets: prometheus.DefBuckets,
		},
	)

	TestsRunTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "arbiter_tests_run_total",
			Help: "Total number of test cases executed across all sessions.",
		},
	)

	TestRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arbiter_test_run_duration_seconds",
			Help:    "Time taken to run a single test case inside the sandbox.",
			Buckets: prometheus.DefBuckets,
		},
	)

	VerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbiter_verdicts_total",
			Help: "Total number of test cases by verdict code.",
		},
		[]string{"verdict"},
	)

	CgroupOperationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbiter_cgroup_operation_errors_total",
			Help: "Total number of cgroup operations that failed, by operation.",
		},
		[]string{"operation"},
	)
)

// Registry is the collector registry used by this process. Exposed so
// cmd/judge can choose to register against prometheus.DefaultRegisterer
// instead when embedding in a larger binary.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		SessionsActive,
		ContainersCreated,
		ContainerCreateDuration,
		CompilesTotal,
		CompileDuration,
		TestsRunTotal,
		TestRunDuration,
		VerdictsTotal,
		CgroupOperationErrors,
	)
}

// Handler returns the HTTP handler that serves metrics in the
// Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
