package resilience

import (
	"context"
	"errors"
	"log/slog"

	"github.com/abgdnv/productapi/pkg/config"
	"github.com/abgdnv/productapi/pkg/messaging"
	"github.com/sony/gobreaker/v2"
)

// maxHalfOpenRequests is the number of trial publishes allowed while half-open.
const maxHalfOpenRequests = 3

// NewCircuitBreaker builds a breaker that trips on consecutive failures
// or when the failure ratio exceeds the configured percentage.
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[any] {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: maxHalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(total >= cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			// a cancelled caller says nothing about the broker
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return gobreaker.NewCircuitBreaker[any](st)
}

// BreakerPublisher guards another publisher with a circuit breaker.
// While the breaker is open, events are rejected without touching the broker.
type BreakerPublisher struct {
	next    messaging.Publisher
	breaker *gobreaker.CircuitBreaker[any]
}

func NewBreakerPublisher(next messaging.Publisher, breaker *gobreaker.CircuitBreaker[any]) *BreakerPublisher {
	return &BreakerPublisher{next: next, breaker: breaker}
}

func (p *BreakerPublisher) Publish(ctx context.Context, event messaging.Event) error {
	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.next.Publish(ctx, event)
	})
	return err
}
