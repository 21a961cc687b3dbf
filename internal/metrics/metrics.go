/*
Package metrics carries the engine's prometheus collectors: per-stage
duration histograms and a parser-degradation counter. The engine never
starts an HTTP listener; collectors are gathered into a textfile dump on
request so local batch runs can still be scraped.
*/
package metrics

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registry bundles the engine collectors so concurrent pipeline runs can
// each carry their own, or share one.
type Registry struct {
	reg *prometheus.Registry

	StageDuration *prometheus.HistogramVec
	Degradations  *prometheus.CounterVec
	ReportsTotal  prometheus.Counter
}

// New builds a registry with the engine collectors registered.
func New() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}

	r.StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rlcoach",
		Name:      "stage_duration_seconds",
		Help:      "Wall time per pipeline stage.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"stage"})

	r.Degradations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rlcoach",
		Name:      "parser_degradations_total",
		Help:      "Parser degradations by error code.",
	}, []string{"error_code"})

	r.ReportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rlcoach",
		Name:      "reports_total",
		Help:      "Reports emitted.",
	})

	r.reg.MustRegister(r.StageDuration, r.Degradations, r.ReportsTotal)
	return r
}

// DumpTextfile writes the current collector state in the text exposition
// format, atomically enough for textfile-collector pickup (write then
// rename is unnecessary for node_exporter, which tolerates torn reads of
// whole files; a plain write keeps this dependency-light).
func (r *Registry) DumpTextfile(path string) error {
	families, err := r.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather: %w", err)
	}

	var b strings.Builder
	for _, mf := range families {
		writeFamily(&b, mf)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// writeFamily renders one metric family in the text exposition format.
func writeFamily(b *strings.Builder, mf *dto.MetricFamily) {
	name := mf.GetName()
	fmt.Fprintf(b, "# HELP %s %s\n", name, mf.GetHelp())
	fmt.Fprintf(b, "# TYPE %s %s\n", name, strings.ToLower(mf.GetType().String()))

	for _, m := range mf.GetMetric() {
		labels := renderLabels(m)
		switch mf.GetType() {
		case dto.MetricType_COUNTER:
			fmt.Fprintf(b, "%s%s %v\n", name, labels, m.GetCounter().GetValue())
		case dto.MetricType_GAUGE:
			fmt.Fprintf(b, "%s%s %v\n", name, labels, m.GetGauge().GetValue())
		case dto.MetricType_HISTOGRAM:
			h := m.GetHistogram()
			for _, bk := range h.GetBucket() {
				fmt.Fprintf(b, "%s_bucket%s %v\n", name, renderLabelsWith(m, "le", fmt.Sprintf("%g", bk.GetUpperBound())), bk.GetCumulativeCount())
			}
			fmt.Fprintf(b, "%s_bucket%s %v\n", name, renderLabelsWith(m, "le", "+Inf"), h.GetSampleCount())
			fmt.Fprintf(b, "%s_sum%s %v\n", name, labels, h.GetSampleSum())
			fmt.Fprintf(b, "%s_count%s %v\n", name, labels, h.GetSampleCount())
		}
	}
}

func renderLabels(m *dto.Metric) string {
	return renderLabelsWith(m, "", "")
}

func renderLabelsWith(m *dto.Metric, extraKey, extraVal string) string {
	var pairs []string
	for _, lp := range m.GetLabel() {
		pairs = append(pairs, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
	}
	if extraKey != "" {
		pairs = append(pairs, fmt.Sprintf("%s=%q", extraKey, extraVal))
	}
	if len(pairs) == 0 {
		return ""
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ",") + "}"
}
