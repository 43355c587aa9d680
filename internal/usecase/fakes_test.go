package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"FeedCollector/internal/domain"
)

type fakeOracle struct {
	mu       sync.Mutex
	calls    []domain.Completion
	complete func(req domain.Completion) (string, error)
}

func (f *fakeOracle) Complete(_ context.Context, req domain.Completion) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.complete == nil {
		return "summary", nil
	}
	return f.complete(req)
}

func (f *fakeOracle) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeStore struct {
	mu         sync.Mutex
	pingErr    error
	insertErrs []error
	inserted   []domain.Document
	pings      int
	reconnects int
	inserts    int
}

func (s *fakeStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pings++
	return s.pingErr
}

func (s *fakeStore) Insert(_ context.Context, doc domain.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if len(s.insertErrs) > 0 {
		err := s.insertErrs[0]
		s.insertErrs = s.insertErrs[1:]
		if err != nil {
			return "", err
		}
	}
	s.inserted = append(s.inserted, doc)
	return fmt.Sprintf("doc-%d", len(s.inserted)), nil
}

func (s *fakeStore) Reconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	s.pingErr = nil
	return nil
}

func (s *fakeStore) Close(context.Context) error { return nil }

type fakeSource struct {
	name    string
	records []domain.RawRecord
	err     error
	panics  bool
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(context.Context) ([]domain.RawRecord, error) {
	if f.panics {
		panic("boom")
	}
	return f.records, f.err
}

func (f *fakeSource) Normalize(record domain.RawRecord, collectedAt time.Time) (domain.Item, error) {
	title, _ := record["title"].(string)
	if title == "" {
		return domain.Item{}, errors.New("missing title")
	}
	return domain.Item{
		Kind:        domain.KindNews,
		Origin:      f.name + "-origin",
		Title:       title,
		Description: "about " + title,
		CollectedAt: collectedAt,
	}, nil
}

func newsRecords(titles ...string) []domain.RawRecord {
	records := make([]domain.RawRecord, 0, len(titles))
	for _, t := range titles {
		records = append(records, domain.RawRecord{"title": t})
	}
	return records
}

type fakePersister struct {
	mu    sync.Mutex
	docs  []domain.Document
	ok    bool
	calls int
}

func (p *fakePersister) Save(_ context.Context, doc domain.Document) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.docs = append(p.docs, doc)
	return p.ok
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (n *fakeNotifier) PublishDigest(_ context.Context, digest string) error {
	n.messages = append(n.messages, digest)
	return n.err
}
