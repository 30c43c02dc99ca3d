package order

import (
	"context"
	"fmt"
	"math"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/user"
)

const instrumentationName = "github.com/xenking/coffee-shop/internal/domain/order"

const (
	// maxPriceScale is the number of fractional digits a unit price may carry;
	// money columns are NUMERIC(12,2).
	maxPriceScale = 2
	// maxQuantity matches the INTEGER quantity column.
	maxQuantity = math.MaxInt32
)

// maxAmount is the largest value a NUMERIC(12,2) money column holds.
var maxAmount = decimal.RequireFromString("9999999999.99")

// ErrEmptyItems is returned when an order request has no lines.
var ErrEmptyItems = errors.New("items required")

// DrinkNotFoundError indicates a requested drink does not exist or is inactive.
type DrinkNotFoundError struct {
	DrinkID string
}

func (e *DrinkNotFoundError) Error() string {
	return fmt.Sprintf("drink %s not found", e.DrinkID)
}

// InvalidQuantityError indicates a line item quantity outside 1..MaxInt32.
type InvalidQuantityError struct {
	DrinkID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be between 1 and %d for drink %s", maxQuantity, e.DrinkID)
}

// InvalidPriceError indicates a line item has an unusable unit price.
type InvalidPriceError struct {
	DrinkID string
	Reason  string
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price for drink %s: %s", e.DrinkID, e.Reason)
}

// ItemRequest is one requested order line.
type ItemRequest struct {
	DrinkID     string
	Quantity    int
	BeanOption  string
	MilkOption  string
	SyrupOption string
	// UnitPrice is taken from the client as-is.
	UnitPrice decimal.Decimal
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	UserID string
	Items  []ItemRequest
}

// PlaceOrderResult holds the output of a successfully placed order.
type PlaceOrderResult struct {
	Order *Order
	// Balance is the user's point balance after the order was credited.
	Balance int64
}

// Service encapsulates order placement and order history reads.
type Service struct {
	store Store
	users user.Repository

	tracer  trace.Tracer
	placed  metric.Int64Counter
	awarded metric.Int64Counter
}

type options struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures a Service.
type Option func(*options)

// WithTracerProvider sets the tracer provider used for order spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider used for order counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// NewService creates an order Service.
func NewService(store Store, users user.Repository, opts ...Option) (*Service, error) {
	o := options{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.meterProvider.Meter(instrumentationName)
	placed, err := meter.Int64Counter("coffee.orders.placed",
		metric.WithDescription("Number of orders committed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders counter")
	}
	awarded, err := meter.Int64Counter("coffee.points.awarded",
		metric.WithDescription("Loyalty points credited by orders"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create points counter")
	}

	return &Service{
		store:   store,
		users:   users,
		tracer:  o.tracerProvider.Tracer(instrumentationName),
		placed:  placed,
		awarded: awarded,
	}, nil
}

// PlaceOrder validates the request, then in a single transaction checks the
// user and drinks, stores the order with its items and credits the points.
//
// Drinks are not locked: a drink deactivated after validation but before
// commit still ends up in the order.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (_ *PlaceOrderResult, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder",
		trace.WithAttributes(
			attribute.String("user.id", req.UserID),
			attribute.Int("order.lines", len(req.Items)),
		),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	if err := validate(req.Items); err != nil {
		return nil, err
	}

	o := newOrder(req)
	var balance int64
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.EnsureUser(ctx, req.UserID); err != nil {
			return err
		}

		drinks, err := tx.ActiveDrinks(ctx, drinkIDs(req.Items))
		if err != nil {
			return errors.Wrap(err, "get drinks")
		}
		byID := make(map[string]catalog.Drink, len(drinks))
		for _, d := range drinks {
			byID[d.ID] = d
		}
		for _, item := range req.Items {
			d, ok := byID[item.DrinkID]
			if !ok {
				return &DrinkNotFoundError{DrinkID: item.DrinkID}
			}
			if item.UnitPrice.LessThan(decimal.NewFromInt(d.Price)) {
				zctx.From(ctx).Debug("Unit price below catalog price",
					zap.String("drink_id", d.ID),
					zap.Int64("catalog_price", d.Price),
					zap.Stringer("unit_price", item.UnitPrice),
				)
			}
		}

		if err := tx.Insert(ctx, o); err != nil {
			return errors.Wrap(err, "insert order")
		}

		balance, err = tx.AddPoints(ctx, req.UserID, o.PointsEarned)
		if err != nil {
			return errors.Wrap(err, "add points")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.placed.Add(ctx, 1)
	s.awarded.Add(ctx, o.PointsEarned)
	span.SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.Int64("order.points_earned", o.PointsEarned),
	)
	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", o.UserID),
		zap.Stringer("total", o.Total),
		zap.Int64("points_earned", o.PointsEarned),
		zap.Int64("balance", balance),
	)

	return &PlaceOrderResult{Order: o, Balance: balance}, nil
}

// ListByUser returns the user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	orders, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list user orders")
	}
	return orders, nil
}

// ListAll returns every order in the system, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	orders, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

func validate(items []ItemRequest) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	total := decimal.Zero
	for _, item := range items {
		if item.Quantity < 1 || item.Quantity > maxQuantity {
			return &InvalidQuantityError{DrinkID: item.DrinkID}
		}
		if item.UnitPrice.IsNegative() {
			return &InvalidPriceError{DrinkID: item.DrinkID, Reason: "must not be negative"}
		}
		if !item.UnitPrice.Equal(item.UnitPrice.Truncate(maxPriceScale)) {
			return &InvalidPriceError{DrinkID: item.DrinkID, Reason: "at most 2 decimal places"}
		}
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if line.GreaterThan(maxAmount) {
			return &InvalidPriceError{DrinkID: item.DrinkID, Reason: "line total exceeds " + maxAmount.String()}
		}
		total = total.Add(line)
		if total.GreaterThan(maxAmount) {
			return &InvalidPriceError{DrinkID: item.DrinkID, Reason: "order total exceeds " + maxAmount.String()}
		}
	}
	return nil
}

// newOrder builds the order to persist with generated ids, total and points.
func newOrder(req PlaceOrderRequest) *Order {
	o := &Order{
		ID:     uuid.New().String(),
		UserID: req.UserID,
		Items:  make([]Item, len(req.Items)),
	}
	for i, item := range req.Items {
		o.Items[i] = Item{
			ID:          uuid.New().String(),
			OrderID:     o.ID,
			DrinkID:     item.DrinkID,
			Quantity:    item.Quantity,
			BeanOption:  item.BeanOption,
			MilkOption:  item.MilkOption,
			SyrupOption: item.SyrupOption,
			Price:       item.UnitPrice,
		}
	}
	o.Total = Total(o.Items)
	o.PointsEarned = PointsFor(o.Total)
	return o
}

func drinkIDs(items []ItemRequest) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.DrinkID]; ok {
			continue
		}
		seen[item.DrinkID] = struct{}{}
		ids = append(ids, item.DrinkID)
	}
	return ids
}
