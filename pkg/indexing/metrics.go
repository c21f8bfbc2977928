// Copyright 2025 KrakLabs
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
//
// SPDX-License-Identifier: Apache-2.0

package indexing

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// pipelineMetrics holds Prometheus metrics for the indexing pipeline's
// five stages: parse, resolve, topology, summarize, embed.
type pipelineMetrics struct {
	once sync.Once

	filesParsed    prometheus.Counter
	parseErrors    prometheus.Counter
	functionsFound prometheus.Counter

	callsResolved   prometheus.Counter
	callsUnresolved prometheus.Counter

	sccCount   prometheus.Gauge
	levelCount prometheus.Gauge

	summariesRequested prometheus.Counter
	summariesCarried   prometheus.Counter
	summariesFailed    prometheus.Counter
	batchesSent        prometheus.Counter

	embeddingsComputed prometheus.Counter
	embeddingsSkipped  prometheus.Counter
	embeddingErrors    prometheus.Counter

	parseDuration     prometheus.Histogram
	resolveDuration   prometheus.Histogram
	topologyDuration  prometheus.Histogram
	summarizeDuration prometheus.Histogram
	embedDuration     prometheus.Histogram
}

var pipeMetrics pipelineMetrics

func (m *pipelineMetrics) init() {
	m.once.Do(func() {
		m.filesParsed = prometheus.NewCounter(prometheus.CounterOpts{Name: "aria_parse_files_total", Help: "Source files parsed"})
		m.parseErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "aria_parse_errors_total", Help: "Files that produced a syntax error"})
		m.functionsFound = prometheus.NewCounter(prometheus.CounterOpts{Name: "aria_parse_functions_total", Help: "Functions and methods discovered"})

		m.callsResolved = prometheus.NewCounter(prometheus.CounterOpts{Name: "aria_resolve_calls_resolved_total", Help: "Call sites resolved to a qualified name"})
		m.callsUnresolved = prometheus.NewCounter(prometheus.CounterOpts{Name: "aria_resolve_calls_unresolved_total", Help: "Call sites left unresolved"})

		m.sccCount = prometheus.NewGauge(prometheus.GaugeOpts{Name: "aria_topology_scc_count", Help: "Strongly connected components in the last computed topology"})
		m.levelCount = prometheus.NewGauge(prometheus.GaugeOpts{Name: "aria_topology_level_count", Help: "Summarization levels in the last computed topology"})

		m.summariesRequested = prometheus.NewCounter(prometheus.CounterOpts{Name: "aria_summarize_requested_total", Help: "Functions sent to the LLM executor for summarization"})
		m.summariesCarried = prometheus.NewCounter(prometheus.CounterOpts{Name: "aria_summarize_carried_total", Help: "Summaries preserved via cache carry-forward"})
		m.summariesFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "aria_summarize_failed_total", Help: "Summary requests whose batch invocation failed"})
		m.batchesSent = prometheus.NewCounter(prometheus.CounterOpts{Name: "aria_summarize_batches_total", Help: "Batch LLM calls issued"})

		m.embeddingsComputed = prometheus.NewCounter(prometheus.CounterOpts{Name: "aria_embed_computed_total", Help: "Embeddings computed"})
		m.embeddingsSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "aria_embed_skipped_total", Help: "Embeddings skipped (already present)"})
		m.embeddingErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "aria_embed_errors_total", Help: "Errors returned by the embedding provider"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
		m.parseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "aria_parse_seconds", Help: "Parse stage duration", Buckets: buckets})
		m.resolveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "aria_resolve_seconds", Help: "Resolve stage duration", Buckets: buckets})
		m.topologyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "aria_topology_seconds", Help: "Topology stage duration", Buckets: buckets})
		m.summarizeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "aria_summarize_seconds", Help: "Summarize stage duration", Buckets: buckets})
		m.embedDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "aria_embed_seconds", Help: "Embed stage duration", Buckets: buckets})

		prometheus.MustRegister(
			m.filesParsed, m.parseErrors, m.functionsFound,
			m.callsResolved, m.callsUnresolved,
			m.sccCount, m.levelCount,
			m.summariesRequested, m.summariesCarried, m.summariesFailed, m.batchesSent,
			m.embeddingsComputed, m.embeddingsSkipped, m.embeddingErrors,
			m.parseDuration, m.resolveDuration, m.topologyDuration, m.summarizeDuration, m.embedDuration,
		)
	})
}

func recordBatchSent() { pipeMetrics.init(); pipeMetrics.batchesSent.Inc() }

func recordSummaryFailed(count int) {
	pipeMetrics.init()
	pipeMetrics.summariesFailed.Add(float64(count))
}

func recordSummariesCarried(count int) {
	pipeMetrics.init()
	pipeMetrics.summariesCarried.Add(float64(count))
}

func recordEmbedError() { pipeMetrics.init(); pipeMetrics.embeddingErrors.Inc() }
