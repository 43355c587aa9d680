package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"FeedCollector/internal/domain"
)

func newTestPersister(store *fakeStore, retries int) (*Persister, *[]time.Duration) {
	p := NewPersister(store, retries, 5*time.Second, nil)
	var slept []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return p, &slept
}

func TestPersisterRejectsEmptyDocument(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	p, slept := newTestPersister(store, 3)

	for i := 0; i < 2; i++ {
		if p.Save(context.Background(), domain.Document{}) {
			t.Fatal("empty document should not be saved")
		}
		if p.Save(context.Background(), nil) {
			t.Fatal("nil document should not be saved")
		}
	}
	if store.pings+store.inserts+store.reconnects != 0 || len(*slept) != 0 {
		t.Fatalf("store was touched: %+v", store)
	}
}

func TestPersisterRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	store := &fakeStore{insertErrs: []error{errors.New("write conflict"), errors.New("timeout")}}
	p, slept := newTestPersister(store, 3)

	if !p.Save(context.Background(), domain.Document{"master_summary": "x"}) {
		t.Fatal("expected success on third attempt")
	}
	if store.inserts != 3 || len(store.inserted) != 1 {
		t.Fatalf("expected 3 attempts and 1 stored document, got %d/%d", store.inserts, len(store.inserted))
	}
	if len(*slept) != 2 || (*slept)[0] != 5*time.Second {
		t.Fatalf("unexpected sleeps %v", *slept)
	}
}

func TestPersisterExhaustsRetries(t *testing.T) {
	t.Parallel()

	fail := errors.New("down")
	store := &fakeStore{insertErrs: []error{fail, fail, fail, fail}}
	p, slept := newTestPersister(store, 3)

	if p.Save(context.Background(), domain.Document{"k": "v"}) {
		t.Fatal("expected failure")
	}
	if store.inserts != 3 || len(*slept) != 2 {
		t.Fatalf("expected 3 attempts with 2 sleeps, got %d/%d", store.inserts, len(*slept))
	}
}

func TestPersisterReconnectsWhenPingFails(t *testing.T) {
	t.Parallel()

	store := &fakeStore{pingErr: errors.New("connection reset")}
	p, _ := newTestPersister(store, 3)

	if !p.Save(context.Background(), domain.Document{"k": "v"}) {
		t.Fatal("expected success after reconnect")
	}
	if store.reconnects != 1 {
		t.Fatalf("expected one reconnect, got %d", store.reconnects)
	}
}

func TestPersisterStampsAndSerializes(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	p, _ := newTestPersister(store, 1)

	generated := time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC)
	doc := domain.Document{
		"generated_at": generated,
		"created_at":   "2024-01-01T00:00:00Z",
		"sources":      []any{"a", "b"},
	}
	if !p.Save(context.Background(), doc) {
		t.Fatal("expected success")
	}

	stored := store.inserted[0]
	if stored["created_at"] != "2024-01-01T00:00:00Z" {
		t.Fatalf("existing created_at overwritten: %v", stored["created_at"])
	}
	if stored["updated_at"] != "2024-05-01T12:00:00Z" {
		t.Fatalf("unexpected updated_at %v", stored["updated_at"])
	}
	if stored["generated_at"] != "2024-04-30T08:00:00Z" {
		t.Fatalf("timestamp not serialized to string: %#v", stored["generated_at"])
	}
	if _, ok := doc["updated_at"]; ok {
		t.Fatal("caller document was mutated")
	}

	fresh := &fakeStore{}
	p2, _ := newTestPersister(fresh, 1)
	p2.Save(context.Background(), domain.Document{"k": "v"})
	if fresh.inserted[0]["created_at"] != "2024-05-01T12:00:00Z" {
		t.Fatalf("created_at not stamped: %v", fresh.inserted[0]["created_at"])
	}
}

func TestPersisterSerializeFailureIsRetried(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	p, slept := newTestPersister(store, 2)

	if p.Save(context.Background(), domain.Document{"bad": func() {}}) {
		t.Fatal("unserializable document should fail")
	}
	if store.inserts != 0 || len(*slept) != 1 {
		t.Fatalf("expected two failed attempts without insert, got inserts=%d sleeps=%d", store.inserts, len(*slept))
	}
}

func TestPersisterStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	store := &fakeStore{insertErrs: []error{errors.New("x"), errors.New("y")}}
	p := NewPersister(store, 3, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if p.Save(ctx, domain.Document{"k": "v"}) {
		t.Fatal("expected failure")
	}
	if store.inserts != 1 {
		t.Fatalf("expected a single attempt, got %d", store.inserts)
	}
}
