// Package metricskey describes the metrics published by this repo.
package metricskey

import "github.com/effective-security/metrics"

// Perf
var (
	// PerfTokenOperation is perf metric
	PerfTokenOperation = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_token",
		Help:         "perf_token provides the sample metrics of token operations",
		RequiredTags: []string{"algo", "action"},
	}

	// PerfFontOperation is perf metric
	PerfFontOperation = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_font",
		Help:         "perf_font provides the sample metrics of font operations",
		RequiredTags: []string{"family", "action"},
	}
)

// Metrics returns slice of metrics from this repo
var Metrics = []*metrics.Describe{
	&PerfTokenOperation,
	&PerfFontOperation,
}
