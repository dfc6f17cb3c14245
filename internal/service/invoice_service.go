package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/straye-as/minicrm/internal/domain"
	"github.com/straye-as/minicrm/internal/metrics"
	"go.uber.org/zap"
)

// AddInvoiceToCustomer appends an open invoice with a fresh invoice number.
// The counter and the customer collection are written together.
func (s *RecordStore) AddInvoiceToCustomer(ctx context.Context, customerID string, req *domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	if err := s.validateRequest(req); err != nil {
		s.observer.Observe("add_invoice", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.addInvoice(ctx, customerID, req, nil)
	s.observer.Observe("add_invoice", err)
	return inv, err
}

// addInvoice creates the invoice. If after is non-nil it runs on the same
// in-memory customer before anything is written, so compound operations
// persist in one step. The caller must hold s.mu.
func (s *RecordStore) addInvoice(ctx context.Context, customerID string, req *domain.CreateInvoiceRequest, after func(c *domain.Customer, inv domain.Invoice) error) (*domain.Invoice, error) {
	customers, err := s.loadCustomers(ctx)
	if err != nil {
		return nil, err
	}
	idx := findCustomer(customers, customerID)
	if idx == -1 {
		return nil, ErrCustomerNotFound
	}
	counters, err := s.loadCounters(ctx)
	if err != nil {
		return nil, err
	}

	c := &customers[idx]
	inv := domain.Invoice{
		ID:        s.ids.NewID(domain.PrefixInvoice),
		Number:    s.nextInvoiceNumber(counters),
		CreatedAt: s.now().UTC(),
		Status:    domain.InvoiceStatusOpen,
		OfferID:   req.OfferID,
		Title:     req.Title,
		Amount:    req.Amount,
		Note:      req.Note,
	}
	c.Invoices = append(c.Invoices, inv)
	s.appendHistory(c, domain.HistoryTypeSystem, fmt.Sprintf("Invoice created: %s – %s", inv.Number, inv.Title))

	if after != nil {
		if err := after(c, inv); err != nil {
			return nil, err
		}
	}

	if err := s.write(ctx, map[string]interface{}{
		domain.KeyCounters:  counters,
		domain.KeyCustomers: customers,
	}); err != nil {
		return nil, err
	}
	metrics.InvoicesIssued.Inc()

	s.logger.Info("invoice created",
		zap.String("customer_id", customerID),
		zap.String("invoice_id", inv.ID),
		zap.String("number", inv.Number),
	)
	return &inv, nil
}

// SetInvoiceStatus marks an invoice as paid or reopens it
func (s *RecordStore) SetInvoiceStatus(ctx context.Context, customerID, invoiceID string, status domain.InvoiceStatus) (*domain.Invoice, error) {
	if status != domain.InvoiceStatusOpen && status != domain.InvoiceStatusPaid {
		err := fmt.Errorf("%w: unknown invoice status %q", ErrInvalidInput, status)
		s.observer.Observe("set_invoice_status", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated domain.Invoice
	_, err := s.mutateCustomer(ctx, customerID, func(c *domain.Customer) error {
		inv := findInvoice(c, invoiceID)
		if inv == nil {
			return ErrInvoiceNotFound
		}
		inv.Status = status
		if status == domain.InvoiceStatusPaid {
			now := s.now().UTC()
			inv.PaidAt = &now
			s.appendHistory(c, domain.HistoryTypeSystem, fmt.Sprintf("Invoice %s marked as paid", inv.Number))
		} else {
			inv.PaidAt = nil
			s.appendHistory(c, domain.HistoryTypeSystem, fmt.Sprintf("Invoice %s set back to 'open'", inv.Number))
		}
		updated = *inv
		return nil
	})
	s.observer.Observe("set_invoice_status", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice status changed",
		zap.String("customer_id", customerID),
		zap.String("invoice_id", invoiceID),
		zap.String("status", string(status)),
	)
	return &updated, nil
}

// GetInvoicesByOffer returns the customer's invoices referencing offerID
func (s *RecordStore) GetInvoicesByOffer(ctx context.Context, customerID, offerID string) ([]domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.readCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return invoicesByOffer(c, offerID), nil
}

// HasInvoiceWithTitle reports whether an invoice for offerID has a title starting with prefix.
// Used to detect partial invoices of a payment plan that were already issued.
func (s *RecordStore) HasInvoiceWithTitle(ctx context.Context, customerID, offerID, prefix string) (bool, error) {
	invoices, err := s.GetInvoicesByOffer(ctx, customerID, offerID)
	if err != nil {
		return false, err
	}
	for _, inv := range invoices {
		if strings.HasPrefix(inv.Title, prefix) {
			return true, nil
		}
	}
	return false, nil
}

func invoicesByOffer(c *domain.Customer, offerID string) []domain.Invoice {
	out := []domain.Invoice{}
	for _, inv := range c.Invoices {
		if inv.OfferID != nil && *inv.OfferID == offerID {
			out = append(out, inv)
		}
	}
	return out
}

func findInvoice(c *domain.Customer, invoiceID string) *domain.Invoice {
	for i := range c.Invoices {
		if c.Invoices[i].ID == invoiceID {
			return &c.Invoices[i]
		}
	}
	return nil
}
