package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"FeedCollector/internal/domain"
	"FeedCollector/internal/source"
)

func newPipeline(oracle *fakeOracle, persister *fakePersister, sources ...source.Source) *Collector {
	return NewCollector(CollectorDeps{
		Sources:    sources,
		Enricher:   NewEnricher(oracle, GenerationConfig{Temperature: 0.7, MaxTokens: 500}, nil),
		Aggregator: NewAggregator(oracle, GenerationConfig{Temperature: 0.3, MaxTokens: 1000}, nil),
		Persister:  persister,
	})
}

func TestCollectorSingleFeedEndToEnd(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{}
	persister := &fakePersister{ok: true}
	c := newPipeline(oracle, persister, &fakeSource{name: "news", records: newsRecords("A", "B", "C")})

	res := c.Run(context.Background())

	if res.Summary == nil || res.Summary.Failed() {
		t.Fatalf("expected valid summary, got %+v", res.Summary)
	}
	if res.Summary.SourceCount != 1 || res.Summary.TotalItems != 3 {
		t.Fatalf("unexpected counts %d/%d", res.Summary.SourceCount, res.Summary.TotalItems)
	}
	if len(res.Summary.Sources) != 1 || res.Summary.Sources[0] != "news-origin" {
		t.Fatalf("unexpected sources %v", res.Summary.Sources)
	}
	if oracle.callCount() != 4 {
		t.Fatalf("expected 3 enrich calls and 1 aggregate call, got %d", oracle.callCount())
	}

	if len(res.Items) != 4 || res.Items[0].Kind != domain.KindMasterSummary {
		t.Fatalf("expected master summary item first, got %+v", res.Items)
	}
	master := res.Items[0]
	if master.Title != "Master Summary" || master.Origin != domain.AllSources || master.Description != res.Summary.Text {
		t.Fatalf("unexpected master item %+v", master)
	}
	for i, title := range []string{"A", "B", "C"} {
		if res.Items[i+1].Title != title || !res.Items[i+1].HasSummary() {
			t.Fatalf("unexpected item %d: %+v", i+1, res.Items[i+1])
		}
	}

	if len(res.Envelope.Data["news"]) != 3 || res.Envelope.MasterSummary == nil {
		t.Fatalf("unexpected envelope %+v", res.Envelope)
	}
	if !res.Persisted || persister.calls != 1 {
		t.Fatalf("expected one persisted summary, got persisted=%v calls=%d", res.Persisted, persister.calls)
	}
	if persister.docs[0]["total_items"] != 3 {
		t.Fatalf("unexpected persisted document %v", persister.docs[0])
	}
	if res.RunID == "" || res.Envelope.Timestamp.IsZero() {
		t.Fatal("run id and timestamp must be set")
	}
}

func TestCollectorIsolatesFailingSource(t *testing.T) {
	t.Parallel()

	persister := &fakePersister{ok: true}
	c := newPipeline(&fakeOracle{}, persister,
		&fakeSource{name: "sourceA", records: newsRecords("one", "two")},
		&fakeSource{name: "sourceB", err: errors.New("connection refused")},
	)

	res := c.Run(context.Background())

	if got := len(res.Envelope.Data["sourceA"]); got != 2 {
		t.Fatalf("expected 2 items for sourceA, got %d", got)
	}
	itemsB, ok := res.Envelope.Data["sourceB"]
	if !ok || itemsB == nil || len(itemsB) != 0 {
		t.Fatalf("expected empty non-nil entry for sourceB, got %#v (present %v)", itemsB, ok)
	}
	if !res.Persisted {
		t.Fatal("run should still be persisted")
	}
}

func TestCollectorRecoversSourcePanic(t *testing.T) {
	t.Parallel()

	c := newPipeline(&fakeOracle{}, &fakePersister{ok: true},
		&fakeSource{name: "bad", panics: true},
		&fakeSource{name: "good", records: newsRecords("x")},
	)
	c.concurrency = 2

	res := c.Run(context.Background())

	if len(res.Envelope.Data["bad"]) != 0 || len(res.Envelope.Data["good"]) != 1 {
		t.Fatalf("unexpected envelope %+v", res.Envelope.Data)
	}
	if !res.Sources[0].Panicked || res.Sources[1].Items != 1 || res.Sources[1].Summarized != 1 {
		t.Fatalf("unexpected reports %+v", res.Sources)
	}
}

func TestCollectorSurvivesOraclePanic(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{complete: func(domain.Completion) (string, error) {
		panic("boom")
	}}
	persister := &fakePersister{ok: true}
	c := newPipeline(oracle, persister,
		&fakeSource{name: "a", records: newsRecords("x")},
		&fakeSource{name: "b", records: newsRecords("y", "z")},
	)
	c.concurrency = 2

	res := c.Run(context.Background())

	if len(res.Envelope.Data["a"]) != 1 || len(res.Envelope.Data["b"]) != 2 {
		t.Fatalf("unexpected envelope %+v", res.Envelope.Data)
	}
	for _, r := range res.Sources {
		if r.Panicked || r.Summarized != 0 {
			t.Fatalf("unexpected report %+v", r)
		}
	}
	if res.Summary == nil || !res.Summary.Failed() {
		t.Fatalf("expected error-shaped summary, got %+v", res.Summary)
	}
	if res.Persisted {
		t.Fatal("error-shaped summary must not be persisted")
	}
}

func TestCollectorAggregationFailureSkipsPersistence(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{complete: func(req domain.Completion) (string, error) {
		if strings.HasPrefix(req.Prompt, "Analyzing") {
			return "", errors.New("overloaded")
		}
		return "s", nil
	}}
	persister := &fakePersister{ok: true}
	notifier := &fakeNotifier{}
	c := newPipeline(oracle, persister, &fakeSource{name: "news", records: newsRecords("A")})
	c.notifier = notifier

	res := c.Run(context.Background())

	if res.Summary == nil || !res.Summary.Failed() {
		t.Fatalf("expected failed summary, got %+v", res.Summary)
	}
	if persister.calls != 0 || res.Persisted || len(notifier.messages) != 0 {
		t.Fatal("failed summary must not be persisted or published")
	}
	if len(res.Items) != 1 || res.Items[0].Kind == domain.KindMasterSummary {
		t.Fatalf("failed summary must not be prepended: %+v", res.Items)
	}
	if res.Envelope.MasterSummary != nil || len(res.Envelope.Data["news"]) != 1 {
		t.Fatalf("unexpected envelope %+v", res.Envelope)
	}
}

func TestCollectorWithoutPipelineOrPersister(t *testing.T) {
	t.Parallel()

	c := NewCollector(CollectorDeps{Sources: []source.Source{&fakeSource{name: "news", records: newsRecords("A", "")}}})
	res := c.Run(context.Background())

	if res.Summary != nil || res.Persisted {
		t.Fatalf("expected no summary, got %+v", res.Summary)
	}
	if len(res.Items) != 1 || res.Items[0].HasSummary() {
		t.Fatalf("unexpected items %+v", res.Items)
	}

	noStore := newPipeline(&fakeOracle{}, nil, &fakeSource{name: "news", records: newsRecords("A")})
	noStore.persister = nil
	if res := noStore.Run(context.Background()); res.Persisted || res.Summary.Failed() {
		t.Fatalf("expected valid unpersisted summary, got %+v", res)
	}

	empty := NewCollector(CollectorDeps{}).Run(context.Background())
	if empty.Items == nil || len(empty.Envelope.Data) != 0 {
		t.Fatalf("unexpected empty run %+v", empty)
	}
}

func TestCollectorNotifiesDigest(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{err: errors.New("telegram down")}
	c := newPipeline(&fakeOracle{}, &fakePersister{ok: false}, &fakeSource{name: "news", records: newsRecords("A")})
	c.notifier = notifier

	res := c.Run(context.Background())

	if res.Persisted {
		t.Fatal("persister reported failure")
	}
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "Master Summary (1 sources, 1 items)") {
		t.Fatalf("unexpected digest %v", notifier.messages)
	}
}

func TestRunResultOutput(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	summary := domain.MasterSummary{Text: "t", GeneratedAt: ts}
	res := RunResult{
		Envelope: domain.NewEnvelope(ts),
		Summary:  &summary,
		Items:    []domain.Item{summary.Item()},
	}

	if _, ok := res.Output(domain.OutputEnvelope).(domain.CollectionEnvelope); !ok {
		t.Fatal("envelope mode should return the envelope")
	}
	if got, ok := res.Output(domain.OutputSummary).(*domain.MasterSummary); !ok || got.Text != "t" {
		t.Fatal("summary mode should return the master summary")
	}
	if got, ok := res.Output(domain.OutputItems).([]domain.Item); !ok || len(got) != 1 {
		t.Fatal("items mode should return the item list")
	}

	res.Summary = nil
	if got, ok := res.Output(domain.OutputSummary).(domain.MasterSummary); !ok || !got.Failed() {
		t.Fatal("summary mode without a summary should return an error record")
	}
}
