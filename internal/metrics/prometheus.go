package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus records client events as Prometheus counters.
type Prometheus struct {
	requestsTotal     *prometheus.CounterVec
	acquisitionsTotal *prometheus.CounterVec
	replaysTotal      *prometheus.CounterVec
	redirectsTotal    prometheus.Counter
	silentTotal       *prometheus.CounterVec
}

// NewPrometheus registers the client collectors on reg, or on the default
// registerer when reg is nil.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &Prometheus{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanctum_client",
			Name:      "requests_total",
			Help:      "HTTP round trips by method and status code (0 for transport errors).",
		}, []string{"method", "status"}),
		acquisitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanctum_client",
			Name:      "csrf_acquisitions_total",
			Help:      "CSRF priming calls by result.",
		}, []string{"result"}),
		replaysTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanctum_client",
			Name:      "csrf_replays_total",
			Help:      "Token-mismatch handling by outcome.",
		}, []string{"outcome"}),
		redirectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sanctum_client",
			Name:      "login_redirects_total",
			Help:      "Navigations to the login route scheduled after a 401.",
		}),
		silentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanctum_client",
			Name:      "silent_errors_total",
			Help:      "Errors tagged silent by reason.",
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{
		p.requestsTotal,
		p.acquisitionsTotal,
		p.replaysTotal,
		p.redirectsTotal,
		p.silentTotal,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Prometheus) RecordRequest(method string, status int) {
	p.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (p *Prometheus) RecordAcquisition(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	p.acquisitionsTotal.WithLabelValues(result).Inc()
}

func (p *Prometheus) RecordReplay(outcome string) {
	p.replaysTotal.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) RecordRedirect() {
	p.redirectsTotal.Inc()
}

func (p *Prometheus) RecordSilent(reason string) {
	p.silentTotal.WithLabelValues(reason).Inc()
}
