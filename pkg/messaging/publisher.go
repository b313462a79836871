package messaging

import (
	"context"
)

const (
	// ProductsSubjectPrefix is the wildcard root of all product subjects.
	ProductsSubjectPrefix  = "products."
	ProductsCreatedSubject = ProductsSubjectPrefix + "created"
	ProductsUpdatedSubject = ProductsSubjectPrefix + "updated"
	ProductsDeletedSubject = ProductsSubjectPrefix + "deleted"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
