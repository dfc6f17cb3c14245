package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/straye-as/minicrm/internal/domain"
	"go.uber.org/zap"
)

// Invoice numbers are sequential per calendar year.
//
// Format: {YEAR}-{SEQUENCE}
// Example: 2025-0001, 2025-0042

// InvoiceCounterKey returns the counters key for year
func InvoiceCounterKey(year int) string {
	return "inv_" + strconv.Itoa(year)
}

// FormatInvoiceNumber formats an invoice number, zero-padding the sequence to 4 digits
func FormatInvoiceNumber(year, seq int) string {
	return fmt.Sprintf("%d-%04d", year, seq)
}

// nextInvoiceNumber increments the counter for the current year in counters
// and returns the formatted number. The caller persists counters.
func (s *RecordStore) nextInvoiceNumber(counters domain.Counters) string {
	year := s.now().Year()
	key := InvoiceCounterKey(year)
	counters[key]++
	return FormatInvoiceNumber(year, counters[key])
}

// NextInvoiceNumber reserves and returns the next invoice number for the
// current year. Reserved numbers are never handed out again.
func (s *RecordStore) NextInvoiceNumber(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters, err := s.loadCounters(ctx)
	if err != nil {
		return "", err
	}
	number := s.nextInvoiceNumber(counters)
	if err := s.write(ctx, map[string]interface{}{domain.KeyCounters: counters}); err != nil {
		return "", err
	}

	s.logger.Info("generated invoice number", zap.String("number", number))
	return number, nil
}

// CurrentInvoiceSequence returns the last issued sequence for year without
// incrementing it. Returns 0 if none was issued.
func (s *RecordStore) CurrentInvoiceSequence(ctx context.Context, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters, err := s.loadCounters(ctx)
	if err != nil {
		return 0, err
	}
	return counters[InvoiceCounterKey(year)], nil
}
