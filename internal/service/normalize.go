package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/straye-as/minicrm/internal/domain"
	"go.uber.org/zap"
)

// NormalizeCustomer guarantees every nested collection of c is present.
// It is idempotent.
func NormalizeCustomer(c domain.Customer) domain.Customer {
	if c.Offers == nil {
		c.Offers = []domain.Offer{}
	}
	if c.Invoices == nil {
		c.Invoices = []domain.Invoice{}
	}
	if c.Subscriptions == nil {
		c.Subscriptions = []domain.Subscription{}
	}
	if c.Projects == nil {
		c.Projects = []domain.Project{}
	}
	if c.History == nil {
		c.History = []domain.HistoryEntry{}
	}
	for i := range c.Projects {
		if c.Projects[i].Milestones == nil {
			c.Projects[i].Milestones = []domain.Milestone{}
		}
		if c.Projects[i].Files == nil {
			c.Projects[i].Files = []domain.ProjectFile{}
		}
	}
	return c
}

// NormalizeAllCustomers rewrites the stored customer collection in normalized
// form. The collection is only written when the normalized form differs
// structurally from what is stored. It reports whether a write happened.
func (s *RecordStore) NormalizeAllCustomers(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.normalizeAll(ctx)
	s.observer.Observe("normalize_all", err)
	return changed, err
}

func (s *RecordStore) normalizeAll(ctx context.Context) (bool, error) {
	stored, ok, err := s.kv.Get(ctx, domain.KeyCustomers)
	if err != nil {
		return false, fmt.Errorf("failed to read customers: %w", err)
	}
	if !ok {
		return false, nil
	}

	customers, err := s.loadCustomers(ctx)
	if err != nil {
		return false, err
	}
	normalized, err := json.Marshal(customers)
	if err != nil {
		return false, fmt.Errorf("failed to encode customers: %w", err)
	}

	before, err := canonicalJSON([]byte(stored))
	if err != nil {
		before = nil
	}
	after, err := canonicalJSON(normalized)
	if err != nil {
		return false, err
	}
	if bytes.Equal(before, after) {
		s.logger.Info("customer collection already normalized", zap.Int("customers", len(customers)))
		return false, nil
	}

	if err := s.write(ctx, map[string]interface{}{domain.KeyCustomers: string(normalized)}); err != nil {
		return false, err
	}
	s.logger.Info("customer collection normalized and saved", zap.Int("customers", len(customers)))
	return true, nil
}

// canonicalJSON re-encodes data through a generic value so object keys are
// sorted and whitespace is uniform.
func canonicalJSON(data []byte) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	return json.Marshal(v)
}
