// Copyright 2026 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stripelog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var _ prometheus.Collector = (*Metrics)(nil)

// Metrics collects counters for the tables sharing it. All methods are safe to call on a nil *Metrics.
type Metrics struct {
	cntStripesWritten prometheus.Counter
	cntRowsWritten    prometheus.Counter
	cntBytesWritten   prometheus.Counter
	cntStripesRead    prometheus.Counter
	cntRowsRead       prometheus.Counter
	cntCheckFailures  prometheus.Counter
	gaugeOpenStreams  prometheus.Gauge
	histWriteSession  prometheus.Histogram
}

// NewMetrics creates the stripelog metrics, each carrying |labels|.
func NewMetrics(labels prometheus.Labels) *Metrics {
	return &Metrics{
		cntStripesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "stripelog_stripes_written",
			Help:        "Count of stripes appended to stripelog tables",
			ConstLabels: labels,
		}),
		cntRowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "stripelog_rows_written",
			Help:        "Count of rows appended to stripelog tables",
			ConstLabels: labels,
		}),
		cntBytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "stripelog_bytes_written",
			Help:        "Count of compressed bytes appended to stripelog data files",
			ConstLabels: labels,
		}),
		cntStripesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "stripelog_stripes_read",
			Help:        "Count of stripes decoded by stripelog read streams",
			ConstLabels: labels,
		}),
		cntRowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "stripelog_rows_read",
			Help:        "Count of rows returned by stripelog read streams",
			ConstLabels: labels,
		}),
		cntCheckFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "stripelog_check_failures",
			Help:        "Count of table files found with an unexpected size by a data check",
			ConstLabels: labels,
		}),
		gaugeOpenStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "stripelog_open_streams",
			Help:        "Number of stripelog read streams that have not been closed or exhausted",
			ConstLabels: labels,
		}),
		histWriteSession: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "stripelog_write_session_duration",
			Help:        "Histogram of the time stripelog write sessions hold a table exclusively",
			ConstLabels: labels,
			Buckets:     []float64{0.001, 0.01, 0.1, 1.0, 10.0, 100.0}, // 1 ms to 100 secs
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.cntStripesWritten,
		m.cntRowsWritten,
		m.cntBytesWritten,
		m.cntStripesRead,
		m.cntRowsRead,
		m.cntCheckFailures,
		m.gaugeOpenStreams,
		m.histWriteSession,
	}
}

// Describe implements prometheus.Collector
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

func (m *Metrics) stripeWritten(rows, bytes int64) {
	if m == nil {
		return
	}

	m.cntStripesWritten.Inc()
	m.cntRowsWritten.Add(float64(rows))
	m.cntBytesWritten.Add(float64(bytes))
}

func (m *Metrics) stripeRead(rows int) {
	if m == nil {
		return
	}

	m.cntStripesRead.Inc()
	m.cntRowsRead.Add(float64(rows))
}

func (m *Metrics) checkFailed(n int) {
	if m == nil {
		return
	}

	m.cntCheckFailures.Add(float64(n))
}

func (m *Metrics) streamsOpened(n int) {
	if m == nil {
		return
	}

	m.gaugeOpenStreams.Add(float64(n))
}

func (m *Metrics) streamClosed() {
	if m == nil {
		return
	}

	m.gaugeOpenStreams.Dec()
}

func (m *Metrics) writeSessionDone(start time.Time) {
	if m == nil {
		return
	}

	m.histWriteSession.Observe(time.Since(start).Seconds())
}
