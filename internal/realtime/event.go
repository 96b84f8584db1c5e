package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goevery/gigboard/internal/model"
)

const (
	EventJoin               = "join"
	EventJobCreated         = "job:created"
	EventJobUpdated         = "job:updated"
	EventJobDeleted         = "job:deleted"
	EventApplicationNew     = "application:new"
	EventApplicationUpdated = "application:updated"
	EventPaymentInitiated   = "payment:initiated"
	EventPaymentCompleted   = "payment:completed"
	EventWorkerRegistered   = "worker:registered"
	EventWorkerUpdated      = "worker:updated"
	EventMessageNew         = "message:new"
)

// Event is a server push narrowed to the shape of its name.
type Event interface {
	Name() string
}

type JobCreated struct {
	Job model.Job
}

type JobUpdated struct {
	Job model.Job
}

type JobDeleted struct {
	JobId string
}

type ApplicationNew struct {
	Application model.Application
}

type ApplicationUpdated struct {
	Application model.Application
}

type PaymentInitiated struct {
	Payment model.Payment
}

type PaymentCompleted struct {
	Payment model.Payment
}

type WorkerRegistered struct {
	Worker model.Worker
}

type WorkerUpdated struct {
	Worker model.Worker
}

type ChatMessage struct {
	Id        string `json:"_id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

type MessageNew struct {
	Message ChatMessage
}

// Unknown carries events the client has no shape for.
type Unknown struct {
	Event string
	Data  json.RawMessage
}

func (JobCreated) Name() string         { return EventJobCreated }
func (JobUpdated) Name() string         { return EventJobUpdated }
func (JobDeleted) Name() string         { return EventJobDeleted }
func (ApplicationNew) Name() string     { return EventApplicationNew }
func (ApplicationUpdated) Name() string { return EventApplicationUpdated }
func (PaymentInitiated) Name() string   { return EventPaymentInitiated }
func (PaymentCompleted) Name() string   { return EventPaymentCompleted }
func (WorkerRegistered) Name() string   { return EventWorkerRegistered }
func (WorkerUpdated) Name() string      { return EventWorkerUpdated }
func (MessageNew) Name() string         { return EventMessageNew }
func (u Unknown) Name() string          { return u.Event }

var ErrMalformedEvent = errors.New("malformed event payload")

type payload struct {
	Job         *model.Job         `json:"job"`
	JobId       string             `json:"jobId"`
	Application *model.Application `json:"application"`
	Payment     *model.Payment     `json:"payment"`
	Worker      *model.Worker      `json:"worker"`
	Message     *ChatMessage       `json:"message"`
}

// DecodeEvent validates the payload of a named event and returns its tagged
// form.
func DecodeEvent(name string, data json.RawMessage) (Event, error) {
	switch name {
	case EventJobCreated, EventJobUpdated, EventJobDeleted,
		EventApplicationNew, EventApplicationUpdated,
		EventPaymentInitiated, EventPaymentCompleted,
		EventWorkerRegistered, EventWorkerUpdated,
		EventMessageNew:
	default:
		return Unknown{name, data}, nil
	}

	var p payload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedEvent, name, err)
		}
	}

	missing := func(field string) error {
		return fmt.Errorf("%w: %s: missing %s", ErrMalformedEvent, name, field)
	}

	switch name {
	case EventJobCreated, EventJobUpdated:
		if p.Job == nil {
			return nil, missing("job")
		}
		if name == EventJobCreated {
			return JobCreated{*p.Job}, nil
		}
		return JobUpdated{*p.Job}, nil
	case EventJobDeleted:
		if p.JobId == "" {
			return nil, missing("jobId")
		}
		return JobDeleted{p.JobId}, nil
	case EventApplicationNew, EventApplicationUpdated:
		if p.Application == nil {
			return nil, missing("application")
		}
		if name == EventApplicationNew {
			return ApplicationNew{*p.Application}, nil
		}
		return ApplicationUpdated{*p.Application}, nil
	case EventPaymentInitiated, EventPaymentCompleted:
		if p.Payment == nil {
			return nil, missing("payment")
		}
		if name == EventPaymentInitiated {
			return PaymentInitiated{*p.Payment}, nil
		}
		return PaymentCompleted{*p.Payment}, nil
	case EventWorkerRegistered, EventWorkerUpdated:
		if p.Worker == nil {
			return nil, missing("worker")
		}
		if name == EventWorkerRegistered {
			return WorkerRegistered{*p.Worker}, nil
		}
		return WorkerUpdated{*p.Worker}, nil
	default:
		if p.Message == nil {
			return nil, missing("message")
		}
		return MessageNew{*p.Message}, nil
	}
}
