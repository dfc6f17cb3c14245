package service

import (
	"context"
	"fmt"

	"github.com/straye-as/minicrm/internal/domain"
	"go.uber.org/zap"
)

// ListLeads returns every stored lead in insertion order
func (s *RecordStore) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLeads(ctx)
}

// AddLead validates and appends a lead. Emails are unique across leads,
// compared case-insensitively.
func (s *RecordStore) AddLead(ctx context.Context, req *domain.CreateLeadRequest) (*domain.Lead, error) {
	lead, err := s.addLead(ctx, req)
	s.observer.Observe("add_lead", err)
	return lead, err
}

func (s *RecordStore) addLead(ctx context.Context, req *domain.CreateLeadRequest) (*domain.Lead, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	leads, err := s.loadLeads(ctx)
	if err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(req.Email)
	for _, l := range leads {
		if domain.NormalizeEmail(l.Email) == email {
			return nil, ErrDuplicateEmail
		}
	}

	lead := domain.Lead{Contact: domain.Contact{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Paket:     req.Paket,
		Street:    req.Street,
		Zip:       req.Zip,
		City:      req.City,
		Country:   req.Country,
		Phone:     req.Phone,
		Instagram: req.Instagram,
		Facebook:  req.Facebook,
		LinkedIn:  req.LinkedIn,
		Website:   req.Website,
		Notes:     req.Notes,
	}}
	leads = append(leads, lead)

	if err := s.write(ctx, map[string]interface{}{domain.KeyLeads: leads}); err != nil {
		return nil, err
	}

	s.logger.Info("lead added", zap.String("email", lead.Email), zap.Int("lead_count", len(leads)))
	return &lead, nil
}

// DeleteLead removes the lead at index. An out-of-range index is reported as not found.
func (s *RecordStore) DeleteLead(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.deleteLead(ctx, index)
	s.observer.Observe("delete_lead", err)
	return err
}

func (s *RecordStore) deleteLead(ctx context.Context, index int) error {
	leads, err := s.loadLeads(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(leads) {
		return fmt.Errorf("%w: index %d", ErrLeadNotFound, index)
	}
	leads = append(leads[:index], leads[index+1:]...)
	if err := s.write(ctx, map[string]interface{}{domain.KeyLeads: leads}); err != nil {
		return err
	}
	s.logger.Info("lead deleted", zap.Int("index", index))
	return nil
}

// PromoteLeadToCustomer converts the lead at index into a customer. Lead
// removal, customer insertion and the highlight marker are written together.
func (s *RecordStore) PromoteLeadToCustomer(ctx context.Context, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.promoteLead(ctx, index)
	s.observer.Observe("promote_lead", err)
	return id, err
}

func (s *RecordStore) promoteLead(ctx context.Context, index int) (string, error) {
	leads, err := s.loadLeads(ctx)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(leads) {
		return "", fmt.Errorf("%w: index %d", ErrLeadNotFound, index)
	}
	customers, err := s.loadCustomers(ctx)
	if err != nil {
		return "", err
	}

	lead := leads[index]
	customer := NormalizeCustomer(domain.Customer{
		ID:        s.ids.NewID(domain.PrefixCustomer),
		DateAdded: s.now().UTC(),
		Contact:   lead.Contact,
	})
	s.appendHistory(&customer, domain.HistoryTypeSystem, "Converted from lead to customer")

	customers = append(customers, customer)
	leads = append(leads[:index], leads[index+1:]...)

	if err := s.write(ctx, map[string]interface{}{
		domain.KeyCustomers: customers,
		domain.KeyLeads:     leads,
		domain.KeyHighlight: customer.ID,
	}); err != nil {
		return "", err
	}

	s.logger.Info("lead promoted to customer",
		zap.String("customer_id", customer.ID),
		zap.String("email", customer.Email),
	)
	return customer.ID, nil
}
