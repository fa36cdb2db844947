package order

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"orderdesk/pkg/logger"
	"orderdesk/pkg/otel"
)

// Service exposes the order use cases to the console and HTTP surfaces.
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService returns a Service backed by repo.
func NewService(repo Repository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{repo: repo, log: log}
}

// AddOrder creates an order with the given line items.
func (s *Service) AddOrder(ctx context.Context, id, customer string, items []LineItem) error {
	ctx, span := otel.AddSpan(ctx, "order.AddOrder", attribute.String("order.id", id))
	defer span.End()

	if id == "" {
		return fail(span, ErrEmptyID)
	}
	for _, it := range items {
		if math.IsNaN(it.Amount) || math.IsInf(it.Amount, 0) {
			return fail(span, ErrInvalidAmount)
		}
	}
	o := Order{ID: id, Customer: customer, Items: items}
	if err := s.repo.Create(ctx, o); err != nil {
		s.log.Warn(ctx, "add order", "id", id, "error", err)
		return fail(span, err)
	}
	s.log.Info(ctx, "order added", "id", id, "items", len(items), "total", o.Total())
	return nil
}

// DeleteOrder removes the order with the given id.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	ctx, span := otel.AddSpan(ctx, "order.DeleteOrder", attribute.String("order.id", id))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Warn(ctx, "delete order", "id", id, "error", err)
		return fail(span, err)
	}
	s.log.Info(ctx, "order deleted", "id", id)
	return nil
}

// UpdateOrder replaces the customer of an existing order.
func (s *Service) UpdateOrder(ctx context.Context, id, newCustomer string) error {
	ctx, span := otel.AddSpan(ctx, "order.UpdateOrder", attribute.String("order.id", id))
	defer span.End()

	if err := s.repo.UpdateCustomer(ctx, id, newCustomer); err != nil {
		s.log.Warn(ctx, "update order", "id", id, "error", err)
		return fail(span, err)
	}
	s.log.Info(ctx, "order updated", "id", id)
	return nil
}

// GetOrder fetches a single order.
func (s *Service) GetOrder(ctx context.Context, id string) (Order, error) {
	ctx, span := otel.AddSpan(ctx, "order.GetOrder", attribute.String("order.id", id))
	defer span.End()

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, fail(span, err)
	}
	return o, nil
}

// QueryOrders returns the orders matching q, sorted ascending by total.
func (s *Service) QueryOrders(ctx context.Context, q Query) ([]Order, error) {
	ctx, span := otel.AddSpan(ctx, "order.QueryOrders", attribute.String("query.keyword", q.Keyword))
	defer span.End()

	all, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error(ctx, "list orders", "error", err)
		return nil, fail(span, err)
	}
	out := Apply(all, q)
	span.SetAttributes(attribute.Int("query.results", len(out)))
	s.log.Debug(ctx, "orders queried", "keyword", q.Keyword, "scanned", len(all), "matched", len(out))
	return out, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
