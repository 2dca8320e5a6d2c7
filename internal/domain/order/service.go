package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huanvu/retailpos/internal/domain/cart"
	"github.com/huanvu/retailpos/internal/domain/catalog"
	"github.com/huanvu/retailpos/internal/domain/discount"
	"github.com/huanvu/retailpos/internal/domain/stock"
	"github.com/huanvu/retailpos/internal/domain/tax"
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// ItemRequest is one requested order line.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// CheckoutRequest holds the input for pricing and creating an order.
type CheckoutRequest struct {
	Items         []ItemRequest
	DiscountID    string
	Manual        discount.Manual
	CustomerID    string
	PaymentMethod string
}

// Quote is the priced result of a checkout before persistence.
type Quote struct {
	Lines     []Line
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Discount  discount.Applied
	Total     decimal.Decimal
}

// Service owns the order lifecycle: pricing, the pending/completed/cancelled
// transitions, and the transition events consumed by reporting.
type Service struct {
	products  catalog.Repository
	discounts discount.Repository
	taxes     tax.Repository
	orders    Repository
	notifier  *Notifier

	now func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products catalog.Repository,
	discounts discount.Repository,
	taxes tax.Repository,
	orders Repository,
	notifier *Notifier,
) *Service {
	return &Service{
		products:  products,
		discounts: discounts,
		taxes:     taxes,
		orders:    orders,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Checkout prices a set of items: subtotal, VAT on the pre-discount subtotal,
// and the single effective discount resolved from the optional rule and
// manual inputs. It performs no persistence.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Quote, error) {
	lines, discountItems, err := s.buildLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal)
	}

	taxCfg, err := s.taxes.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get tax config")
	}
	taxAmount := tax.Compute(subtotal, taxCfg)

	// Pre-discount total is the amount payable before any discount; it is
	// the base for validating and capping the manual discount.
	preDiscount := subtotal.Add(taxAmount)

	var (
		rule       *discount.Rule
		ruleAmount = decimal.Zero
	)
	if req.DiscountID != "" {
		rule, err = s.discounts.GetByID(ctx, req.DiscountID)
		if err != nil {
			return nil, errors.Wrap(err, "get discount")
		}
		ruleAmount, err = discount.Apply(rule, discountItems)
		if err != nil {
			return nil, err
		}
	}

	manualAmount, err := discount.CalculateManual(req.Manual, preDiscount)
	if err != nil {
		return nil, err
	}

	applied := discount.Resolve(ruleAmount, rule, manualAmount)

	total := preDiscount.Sub(applied.Amount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return &Quote{
		Lines:     lines,
		Subtotal:  subtotal.Round(2),
		TaxAmount: taxAmount,
		Discount:  applied,
		Total:     total.Round(2),
	}, nil
}

// CreatePending prices the request and persists the order in pending state
// ("save for later"). Inventory is untouched until completion.
func (s *Service) CreatePending(ctx context.Context, req CheckoutRequest) (*Order, error) {
	o, err := s.buildOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	o.Status = StatusPending
	o.PaymentStatus = PaymentPending

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// CreateAndComplete is the common register path: the order is persisted
// directly in completed state, with the stock decrement for every line
// applied in the same transaction.
func (s *Service) CreateAndComplete(ctx context.Context, req CheckoutRequest) (*Order, error) {
	o, err := s.buildOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	o.Status = StatusCompleted
	o.PaymentStatus = PaymentPaid

	if err := s.orders.CreateCompleted(ctx, o); err != nil {
		return nil, err
	}

	s.notifier.Publish(Event{Type: EventCompleted, OrderID: o.ID, Total: o.Total, At: s.now()})
	return o, nil
}

// Complete transitions a pending order to completed. The status check and
// the per-line stock decrements run as one atomic repository operation, so a
// retried call fails with ErrAlreadyCompleted instead of decrementing twice.
func (s *Service) Complete(ctx context.Context, orderID, paymentMethod string) (*Order, error) {
	o, err := s.orders.Complete(ctx, orderID, paymentMethod)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(Event{Type: EventCompleted, OrderID: o.ID, Total: o.Total, At: s.now()})
	return o, nil
}

// Reopen rebuilds an editable cart from a pending order's lines. The
// persisted order is left untouched until Complete or Cancel is called.
func (s *Service) Reopen(ctx context.Context, orderID string) (*cart.Cart, *Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if o.Status != StatusPending {
		return nil, nil, ErrNotPending
	}

	items := make([]cart.Item, len(o.Items))
	for i, l := range o.Items {
		items[i] = cart.Item{
			CartItemID: uuid.New().String(),
			ProductID:  l.ProductID,
			Name:       l.Name,
			UnitPrice:  l.UnitPrice,
			Quantity:   l.Quantity,
			LineTotal:  l.LineTotal,
		}
	}
	return cart.Restore(items), o, nil
}

// Cancel transitions a pending or completed order to cancelled. A non-empty
// reason is required. Stock is never restocked automatically; a deliberate
// inbound movement is the way to return cancelled goods to the shelf.
func (s *Service) Cancel(ctx context.Context, orderID, reason string) (*Order, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrMissingReason
	}

	o, err := s.orders.Cancel(ctx, orderID, reason)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(Event{Type: EventCancelled, OrderID: o.ID, Total: o.Total, At: s.now()})
	return o, nil
}

// Get returns a single order by ID.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.orders.Get(ctx, orderID)
}

// List returns orders matching the filter, newest first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, error) {
	return s.orders.List(ctx, f)
}

// buildOrder prices the request and assembles an unsaved Order record.
func (s *Service) buildOrder(ctx context.Context, req CheckoutRequest) (*Order, error) {
	quote, err := s.Checkout(ctx, req)
	if err != nil {
		return nil, err
	}

	return &Order{
		ID:             uuid.New().String(),
		Items:          quote.Lines,
		Subtotal:       quote.Subtotal,
		TaxAmount:      quote.TaxAmount,
		DiscountAmount: quote.Discount.Amount,
		Total:          quote.Total,
		DiscountLabel:  quote.Discount.Label,
		DiscountRuleID: quote.Discount.RuleID,
		CustomerID:     req.CustomerID,
		PaymentMethod:  req.PaymentMethod,
		CreatedAt:      s.now(),
	}, nil
}

// buildLines validates quantities, batch fetches products, runs the advisory
// stock check per line, and snapshots names and prices.
func (s *Service) buildLines(ctx context.Context, items []ItemRequest) ([]Line, []discount.Item, error) {
	if len(items) == 0 {
		return nil, nil, ErrEmptyCart
	}

	ids := make([]string, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]catalog.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	lines := make([]Line, len(items))
	discountItems := make([]discount.Item, len(items))
	for i, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		if err := stock.Check(p.ID, item.Quantity, p.StockQuantity); err != nil {
			return nil, nil, err
		}

		qty := decimal.NewFromInt(int64(item.Quantity))
		lines[i] = Line{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  item.Quantity,
			UnitPrice: p.Price,
			LineTotal: p.Price.Mul(qty),
		}
		discountItems[i] = discount.Item{
			ProductID: p.ID,
			Price:     p.Price,
			Quantity:  item.Quantity,
		}
	}
	return lines, discountItems, nil
}
