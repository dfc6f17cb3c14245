package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/straye-as/minicrm/internal/domain"
	"go.uber.org/zap"
)

// AddSubscriptionToCustomer appends a subscription. Interval defaults to
// monthly, nextDue to today and active to true.
func (s *RecordStore) AddSubscriptionToCustomer(ctx context.Context, customerID string, req *domain.CreateSubscriptionRequest) (*domain.Subscription, error) {
	if err := s.validateRequest(req); err != nil {
		s.observer.Observe("add_subscription", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub := domain.Subscription{
		ID:         s.ids.NewID(domain.PrefixSubscription),
		Title:      req.Title,
		Amount:     coerceAmount(req.Amount),
		Interval:   req.Interval,
		NextDue:    req.NextDue,
		Active:     true,
		AcceptedAt: req.AcceptedAt,
		Signature:  req.Signature,
	}
	if sub.Interval == "" {
		sub.Interval = domain.IntervalMonthly
	}
	if sub.NextDue == "" {
		sub.NextDue = s.today()
	}
	if req.Active != nil {
		sub.Active = *req.Active
	}

	_, err := s.mutateCustomer(ctx, customerID, func(c *domain.Customer) error {
		c.Subscriptions = append(c.Subscriptions, sub)
		s.appendHistory(c, domain.HistoryTypeSystem, fmt.Sprintf("Subscription created: %s (%s/month), start %s",
			sub.Title, formatEuro(sub.Amount), sub.NextDue))
		return nil
	})
	s.observer.Observe("add_subscription", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription created",
		zap.String("customer_id", customerID),
		zap.String("subscription_id", sub.ID),
		zap.String("next_due", sub.NextDue),
	)
	return &sub, nil
}

// ListSubscriptions returns a customer's subscriptions
func (s *RecordStore) ListSubscriptions(ctx context.Context, customerID string) ([]domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.readCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return c.Subscriptions, nil
}

// AdvanceNextDueMonthly adds one calendar month to an ISO date (YYYY-MM-DD).
// Day overflow rolls into the following month (Jan 31 becomes Mar 3 or Mar 2).
// Unparseable input yields today's date.
func AdvanceNextDueMonthly(isoDate string, today time.Time) string {
	if len(isoDate) > 10 {
		isoDate = isoDate[:10]
	}
	d, err := time.Parse(domain.DateLayout, isoDate)
	if err != nil {
		return today.Format(domain.DateLayout)
	}
	return d.AddDate(0, 1, 0).Format(domain.DateLayout)
}

// CreateInvoiceFromSubscription bills an active subscription for its current
// due month and advances nextDue by one month. Invoice, counter and the new
// due date are persisted together.
func (s *RecordStore) CreateInvoiceFromSubscription(ctx context.Context, customerID, subID, noteExtra string) (*domain.SubscriptionInvoiceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.invoiceSubscription(ctx, customerID, subID, noteExtra)
	s.observer.Observe("invoice_subscription", err)
	return res, err
}

func (s *RecordStore) invoiceSubscription(ctx context.Context, customerID, subID, noteExtra string) (*domain.SubscriptionInvoiceResult, error) {
	c, err := s.readCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	sub := findSubscription(c, subID)
	if sub == nil || !sub.Active {
		return nil, ErrSubscriptionNotFound
	}

	month := sub.NextDue
	if len(month) > 7 {
		month = month[:7]
	}
	req := &domain.CreateInvoiceRequest{
		Title:  fmt.Sprintf("%s – %s", sub.Title, month),
		Amount: sub.Amount,
		Note:   strings.TrimSpace(fmt.Sprintf("Subscription/month: %s. %s", sub.NextDue, noteExtra)),
	}

	var billed domain.Subscription
	inv, err := s.addInvoice(ctx, customerID, req, func(c *domain.Customer, inv domain.Invoice) error {
		target := findSubscription(c, subID)
		target.NextDue = AdvanceNextDueMonthly(target.NextDue, s.now())
		s.appendHistory(c, domain.HistoryTypeSystem, fmt.Sprintf("Subscription invoice created: %s – %s", inv.Number, inv.Title))
		billed = *target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription invoiced",
		zap.String("customer_id", customerID),
		zap.String("subscription_id", subID),
		zap.String("invoice_number", inv.Number),
		zap.String("next_due", billed.NextDue),
	)
	return &domain.SubscriptionInvoiceResult{
		CustomerID:   customerID,
		Subscription: billed,
		Invoice:      *inv,
	}, nil
}

// UpdateSubscription patches the given fields of a subscription
func (s *RecordStore) UpdateSubscription(ctx context.Context, customerID, subID string, req *domain.UpdateSubscriptionRequest) (*domain.Subscription, error) {
	if err := s.validateRequest(req); err != nil {
		s.observer.Observe("update_subscription", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated domain.Subscription
	_, err := s.mutateCustomer(ctx, customerID, func(c *domain.Customer) error {
		sub := findSubscription(c, subID)
		if sub == nil {
			return ErrSubscriptionNotFound
		}
		if req.Title != nil {
			sub.Title = *req.Title
		}
		if req.Amount != nil {
			sub.Amount = coerceAmount(*req.Amount)
		}
		if req.Interval != nil {
			sub.Interval = *req.Interval
		}
		if req.NextDue != nil {
			sub.NextDue = *req.NextDue
		}
		if req.Active != nil {
			sub.Active = *req.Active
		}
		updated = *sub
		return nil
	})
	s.observer.Observe("update_subscription", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription updated",
		zap.String("customer_id", customerID),
		zap.String("subscription_id", subID),
	)
	return &updated, nil
}

// SetSubscriptionAccepted activates a subscription and stores the signature
func (s *RecordStore) SetSubscriptionAccepted(ctx context.Context, customerID, subID, signature string) (*domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accepted domain.Subscription
	_, err := s.mutateCustomer(ctx, customerID, func(c *domain.Customer) error {
		sub := findSubscription(c, subID)
		if sub == nil {
			return ErrSubscriptionNotFound
		}
		now := s.now().UTC()
		sub.Active = true
		sub.AcceptedAt = &now
		sub.Signature = optionalString(signature)
		s.appendHistory(c, domain.HistoryTypeMilestone, fmt.Sprintf("Subscription accepted: %s (%s/month)", sub.Title, formatEuro(sub.Amount)))
		accepted = *sub
		return nil
	})
	s.observer.Observe("accept_subscription", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription accepted",
		zap.String("customer_id", customerID),
		zap.String("subscription_id", subID),
	)
	return &accepted, nil
}

// BillDueSubscriptions invoices every active subscription whose nextDue is on
// or before asOf. Each subscription is billed at most once per call.
// It returns the number of invoices created.
func (s *RecordStore) BillDueSubscriptions(ctx context.Context, asOf time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.loadCustomers(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := asOf.Format(domain.DateLayout)
	billed := 0
	for _, c := range customers {
		for _, sub := range c.Subscriptions {
			if !sub.Active || sub.NextDue == "" || sub.NextDue > cutoff {
				continue
			}
			if _, err := s.invoiceSubscription(ctx, c.ID, sub.ID, ""); err != nil {
				s.observer.Observe("bill_due_subscriptions", err)
				return billed, fmt.Errorf("failed to bill subscription %s: %w", sub.ID, err)
			}
			billed++
		}
	}
	s.observer.Observe("bill_due_subscriptions", nil)
	return billed, nil
}

func findSubscription(c *domain.Customer, subID string) *domain.Subscription {
	for i := range c.Subscriptions {
		if c.Subscriptions[i].ID == subID {
			return &c.Subscriptions[i]
		}
	}
	return nil
}

func coerceAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func formatEuro(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + " €"
}
