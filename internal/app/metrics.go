package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/huanvu/retailpos/internal/domain/order"
)

// orderMetrics counts order lifecycle events and records completed order
// totals so sales volume is visible without querying the database.
type orderMetrics struct {
	events metric.Int64Counter
	totals metric.Float64Histogram
}

func newOrderMetrics(mp metric.MeterProvider) (*orderMetrics, error) {
	meter := mp.Meter("retailpos")

	events, err := meter.Int64Counter("pos.order.events",
		metric.WithDescription("Order lifecycle events by type"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "order events counter")
	}

	totals, err := meter.Float64Histogram("pos.order.total",
		metric.WithDescription("Grand total of completed orders"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "order total histogram")
	}

	return &orderMetrics{events: events, totals: totals}, nil
}

// Observe records the event. It satisfies the notifier subscriber signature.
func (om *orderMetrics) Observe(e order.Event) {
	ctx := context.Background()
	om.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.type", string(e.Type)),
	))
	if e.Type == order.EventCompleted {
		total, _ := e.Total.Float64()
		om.totals.Record(ctx, total)
	}
}
