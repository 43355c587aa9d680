package ports

import (
	"context"
	"time"

	"FeedCollector/internal/domain"
)

// Oracle generates text for a prompt (OpenAI, Anthropic, Gemini, HTTP inference).
type Oracle interface {
	Complete(ctx context.Context, req domain.Completion) (string, error)
}

// DocumentStore persists schemaless documents and exposes connection upkeep.
type DocumentStore interface {
	Ping(ctx context.Context) error
	Insert(ctx context.Context, doc domain.Document) (string, error)
	Reconnect(ctx context.Context) error
	Close(ctx context.Context) error
}

// SummaryPersister durably writes the run aggregate. It reports success
// instead of returning an error.
type SummaryPersister interface {
	Save(ctx context.Context, doc domain.Document) bool
}

// Notifier streams the master summary to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// ArtifactWriter stores the run output as a file.
type ArtifactWriter interface {
	Write(payload any) (string, error)
}

// Scheduler controls when collection runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
