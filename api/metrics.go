package api

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
)

// NewMetricsScope returns the root metrics scope of the service. Metrics are
// reported to the log every interval.
func NewMetricsScope(prefix string, interval time.Duration) (tally.Scope, io.Closer) {
	return tally.NewRootScope(tally.ScopeOptions{
		Prefix:   prefix,
		Reporter: &logReporter{log: logrus.WithField("prefix", "metrics")},
	}, interval)
}

// logReporter is a tally.StatsReporter writing metrics to logrus
type logReporter struct {
	log *logrus.Entry
}

func (r *logReporter) Capabilities() tally.Capabilities {
	return r
}

func (r *logReporter) Reporting() bool {
	return true
}

func (r *logReporter) Tagging() bool {
	return true
}

func (r *logReporter) Flush() {}

func (r *logReporter) ReportCounter(name string, tags map[string]string, value int64) {
	r.log.WithFields(fields(tags)).Infof("counter %s %d", name, value)
}

func (r *logReporter) ReportGauge(name string, tags map[string]string, value float64) {
	r.log.WithFields(fields(tags)).Infof("gauge %s %f", name, value)
}

func (r *logReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	r.log.WithFields(fields(tags)).Infof("timer %s %s", name, interval)
}

func (r *logReporter) ReportHistogramValueSamples(name string, tags map[string]string, _ tally.Buckets, lower, upper float64, samples int64) {
	r.log.WithFields(fields(tags)).Infof("histogram %s [%f, %f) %d", name, lower, upper, samples)
}

func (r *logReporter) ReportHistogramDurationSamples(name string, tags map[string]string, _ tally.Buckets, lower, upper time.Duration, samples int64) {
	r.log.WithFields(fields(tags)).Infof("histogram %s [%s, %s) %d", name, lower, upper, samples)
}

func fields(tags map[string]string) logrus.Fields {
	f := make(logrus.Fields, len(tags))
	for k, v := range tags {
		f[k] = v
	}
	return f
}
