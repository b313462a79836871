package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/productapi/pkg/messaging"
	"go.opentelemetry.io/otel/propagation"
)

// ProductAction names the mutation a ProductEvent reports.
type ProductAction string

const (
	ProductCreated ProductAction = "created"
	ProductUpdated ProductAction = "updated"
	ProductDeleted ProductAction = "deleted"
)

// ProductEvent is published after a product has been created, updated or deleted.
type ProductEvent struct {
	Carrier    propagation.MapCarrier `json:"carrier,omitempty"`
	Action     ProductAction          `json:"action"`
	ProductID  string                 `json:"product_id"`
	Name       string                 `json:"name"`
	Category   string                 `json:"category"`
	Price      float64                `json:"price"`
	InStock    bool                   `json:"in_stock"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e ProductEvent) Subject() string {
	switch e.Action {
	case ProductCreated:
		return messaging.ProductsCreatedSubject
	case ProductUpdated:
		return messaging.ProductsUpdatedSubject
	case ProductDeleted:
		return messaging.ProductsDeletedSubject
	default:
		return messaging.ProductsSubjectPrefix + string(e.Action)
	}
}

func (e ProductEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
