package commands

import "github.com/prometheus/client_golang/prometheus"

// prometheusRegisterer is the registry every backend subcommand wires its
// metrics.Metrics against. A CLI invocation is short-lived, so the default
// global registry is fine here (no /metrics endpoint is served).
func prometheusRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}
