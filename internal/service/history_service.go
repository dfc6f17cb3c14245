package service

import (
	"context"

	"github.com/straye-as/minicrm/internal/domain"
	"github.com/straye-as/minicrm/internal/metrics"
	"go.uber.org/zap"
)

// appendHistory adds an entry to c and enforces the retention cap by dropping
// the oldest entries. It never fails.
func (s *RecordStore) appendHistory(c *domain.Customer, typ domain.HistoryType, message string) domain.HistoryEntry {
	if typ == "" {
		typ = domain.HistoryTypeSystem
	}
	entry := domain.HistoryEntry{
		ID:      s.ids.NewID(domain.PrefixHistory),
		Ts:      s.now().UTC(),
		Type:    typ,
		Message: message,
	}
	c.History = append(c.History, entry)
	if over := len(c.History) - domain.HistoryLimit; over > 0 {
		c.History = append([]domain.HistoryEntry(nil), c.History[over:]...)
		metrics.HistoryTrimmed.Add(float64(over))
	}
	return entry
}

// AddHistory appends an entry to a customer's timeline
func (s *RecordStore) AddHistory(ctx context.Context, customerID string, typ domain.HistoryType, message string) (*domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entry domain.HistoryEntry
	_, err := s.mutateCustomer(ctx, customerID, func(c *domain.Customer) error {
		entry = s.appendHistory(c, typ, message)
		return nil
	})
	s.observer.Observe("add_history", err)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("history entry added",
		zap.String("customer_id", customerID),
		zap.String("type", string(entry.Type)),
	)
	return &entry, nil
}

// GetHistory returns a customer's timeline, oldest first
func (s *RecordStore) GetHistory(ctx context.Context, customerID string) ([]domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.readCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return c.History, nil
}
