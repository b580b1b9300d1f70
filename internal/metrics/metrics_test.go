package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	_ Collector = (*PrometheusCollector)(nil)
	_ Collector = Noop{}
)

func TestPrometheusCollector_RecordAttempt(t *testing.T) {
	collector := NewCollector()
	ctx := context.Background()

	collector.RecordAttempt(ctx, "social_post", OutcomeInvalid)
	collector.RecordAttempt(ctx, "social_post", OutcomeValid)
	collector.RecordAttempt(ctx, "social_post", OutcomeInvalid)
	collector.RecordAttempt(ctx, "blog_post", OutcomeProviderError)

	if got := testutil.CollectAndCount(collector.attemptsTotal); got != 3 {
		t.Errorf("expected 3 metric series, got %d", got)
	}

	invalid := testutil.ToFloat64(collector.attemptsTotal.WithLabelValues("social_post", OutcomeInvalid))
	if invalid != 2 {
		t.Errorf("expected 2 invalid social_post attempts, got %f", invalid)
	}
}

func TestPrometheusCollector_RecordCompletion(t *testing.T) {
	collector := NewCollector()
	ctx := context.Background()

	collector.RecordCompletion(ctx, "blog_post", StatusSuccess, 3*time.Second)
	collector.RecordCompletion(ctx, "blog_post", StatusGenerationFailure, 9*time.Second)

	if got := testutil.ToFloat64(collector.completionsTotal.WithLabelValues("blog_post", StatusSuccess)); got != 1 {
		t.Errorf("expected 1 successful completion, got %f", got)
	}
	if got := testutil.CollectAndCount(collector.completionDuration); got != 2 {
		t.Errorf("expected 2 histogram series, got %d", got)
	}
}

func TestPrometheusCollector_RecordRequest(t *testing.T) {
	collector := NewCollector()
	ctx := context.Background()

	collector.RecordRequest(ctx, "/generate_post", 200, 100*time.Millisecond)
	collector.RecordRequest(ctx, "/generate_post", 500, 100*time.Millisecond)
	collector.RecordRequest(ctx, "/generate_blog", 400, time.Millisecond)

	if got := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("/generate_post", "500")); got != 1 {
		t.Errorf("expected 1 failed generate_post request, got %f", got)
	}
	if got := testutil.CollectAndCount(collector.requestDuration); got != 2 {
		t.Errorf("expected 2 latency series, got %d", got)
	}
}

func TestPrometheusCollector_Registry(t *testing.T) {
	collector := NewCollector()
	collector.RecordAttempt(context.Background(), "social_post", OutcomeValid)

	families, err := collector.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	if len(families) == 0 {
		t.Error("expected registered metric families")
	}
}
