package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// DomainMetrics counts PayAid business events. A nil *DomainMetrics records nothing.
type DomainMetrics struct {
	leadsRouted       *Counter
	knowledgeSearches *Counter
	searchDuration    *Histogram
	searchHits        *Histogram
	documentsIngested *Counter
	aiAttempts        *Counter
	dashboardCache    *Counter
	maintenanceJobs   *Counter
	jobDuration       *Histogram
}

// NewDomainMetrics creates the instruments on meter
func NewDomainMetrics(meter metric.Meter) (*DomainMetrics, error) {
	m := &DomainMetrics{}
	var err error
	if m.leadsRouted, err = NewCounter(meter, "payaid.crm.leads_routed",
		"Lead routing decisions", "{lead}"); err != nil {
		return nil, err
	}
	if m.knowledgeSearches, err = NewCounter(meter, "payaid.knowledge.searches",
		"Knowledge base searches", "{search}"); err != nil {
		return nil, err
	}
	if m.searchDuration, err = NewHistogram(meter, "payaid.knowledge.search.duration",
		"Knowledge search latency", "s", LatencyBuckets); err != nil {
		return nil, err
	}
	if m.searchHits, err = NewHistogram(meter, "payaid.knowledge.search.hits",
		"Chunks returned per search", "{chunk}", []float64{0, 1, 2, 3, 5, 10, 20, 50}); err != nil {
		return nil, err
	}
	if m.documentsIngested, err = NewCounter(meter, "payaid.knowledge.documents_ingested",
		"Documents processed by the ingestion pipeline", "{document}"); err != nil {
		return nil, err
	}
	if m.aiAttempts, err = NewCounter(meter, "payaid.ai.attempts",
		"AI provider calls", "{attempt}"); err != nil {
		return nil, err
	}
	if m.dashboardCache, err = NewCounter(meter, "payaid.dashboard.cache",
		"Dashboard stats cache lookups", "{lookup}"); err != nil {
		return nil, err
	}
	if m.maintenanceJobs, err = NewCounter(meter, "payaid.scheduler.jobs",
		"Maintenance jobs run by the scheduler", "{job}"); err != nil {
		return nil, err
	}
	if m.jobDuration, err = NewHistogram(meter, "payaid.scheduler.job.duration",
		"Maintenance job run time", "s", LatencyBuckets); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordLeadRouted counts one routing decision
func (m *DomainMetrics) RecordLeadRouted(ctx context.Context, strategy, outcome string) {
	if m == nil {
		return
	}
	m.leadsRouted.Inc(ctx, AttrStrategy.String(strategy), AttrOutcome.String(outcome))
}

// RecordKnowledgeSearch records the mode actually served, its latency and hit count
func (m *DomainMetrics) RecordKnowledgeSearch(ctx context.Context, mode string, elapsed time.Duration, hits int) {
	if m == nil {
		return
	}
	m.knowledgeSearches.Inc(ctx, AttrMode.String(mode))
	m.searchDuration.RecordDuration(ctx, elapsed, AttrMode.String(mode))
	m.searchHits.Record(ctx, float64(hits), AttrMode.String(mode))
}

// RecordDocumentIngested counts a document reaching a terminal status
func (m *DomainMetrics) RecordDocumentIngested(ctx context.Context, sourceType, status string) {
	if m == nil {
		return
	}
	m.documentsIngested.Inc(ctx, AttrSourceType.String(sourceType), AttrStatus.String(status))
}

// RecordAIAttempt counts one provider call
func (m *DomainMetrics) RecordAIAttempt(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	m.aiAttempts.Inc(ctx, AttrProvider.String(provider), AttrOutcome.String(outcome))
}

// RecordDashboardCache counts a cache hit or miss
func (m *DomainMetrics) RecordDashboardCache(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.dashboardCache.Inc(ctx, AttrResult.String(result))
}

// RecordMaintenanceJob counts one scheduler job run and its duration
func (m *DomainMetrics) RecordMaintenanceJob(ctx context.Context, jobType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.maintenanceJobs.Inc(ctx, AttrJobType.String(jobType), AttrOutcome.String(outcome))
	m.jobDuration.RecordDuration(ctx, elapsed, AttrJobType.String(jobType))
}
