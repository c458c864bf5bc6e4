package feed

import (
	"context"

	"schedule-board/modules/schedule/entity"

	"github.com/google/uuid"
)

type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Event is one row-level change delivered on the per-organization channel.
// Record carries the new row image for inserts and updates; OldRecord carries
// the previous image for updates and deletes.
type Event struct {
	Kind      Kind                  `json:"kind"`
	Record    *entity.ScheduleEntry `json:"record,omitempty"`
	OldRecord *entity.ScheduleEntry `json:"old_record,omitempty"`
}

type State string

const (
	StateUnsubscribed State = "unsubscribed"
	StateSubscribing  State = "subscribing"
	StateLive         State = "live"
	StateError        State = "error"
)

// Callbacks receive events and transport state transitions. Both are invoked
// from the subscription's own goroutine; handlers must not block.
type Callbacks struct {
	OnEvent       func(Event)
	OnStateChange func(State, error)
}

// Subscription is a handle to one live channel subscription.
type Subscription interface {
	Close() error
}

// Feed is the consuming side of the change feed: one channel per
// organization, week filtering is the subscriber's concern.
type Feed interface {
	Subscribe(ctx context.Context, organizationID uuid.UUID, cb Callbacks) (Subscription, error)
}

// Publisher is the producing side, used by the server after committed writes.
type Publisher interface {
	Publish(ctx context.Context, organizationID uuid.UUID, event Event) error
}
