//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-exchange/domain"
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type IRegistry interface {
	Admit(conn domain.Conn) *domain.Peer
	Remove(id uuid.UUID)
	Snapshot() []*domain.Peer
	Len() int
}

type IBroadcaster interface {
	Broadcast(ctx context.Context, message string, recipients []*domain.Peer) domain.DeliveryReport
}

// MessageHandler consumes every inbound text message of a peer.
type MessageHandler interface {
	Handle(ctx context.Context, sender *domain.Peer, message string) error
}

// RateClient fetches the archive of a single date. Failures are reported in the result.
type RateClient interface {
	Fetch(ctx context.Context, date time.Time) domain.FetchResult
}

// RateFetcher fetches a whole DateRange and preserves index correspondence.
type RateFetcher interface {
	FetchRange(ctx context.Context, dates domain.DateRange) domain.RateQueryResult
}

// RateCache stores raw archive documents by date.
type RateCache interface {
	Get(date time.Time) ([]byte, bool, error)
	Put(date time.Time, body []byte) error
}

type AuditSink interface {
	Append(ctx context.Context, record domain.AuditRecord) error
}

type NameGenerator interface {
	Generate() string
}
