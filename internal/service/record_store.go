package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/straye-as/minicrm/internal/domain"
	"github.com/straye-as/minicrm/internal/metrics"
	"github.com/straye-as/minicrm/internal/repository"
	"go.uber.org/zap"
)

// RecordStore owns the lead and customer collections. Every mutator loads the
// whole collection, changes it in memory and writes it back while holding mu,
// so concurrent callers are serialized.
type RecordStore struct {
	kv       repository.KeyValueStore
	ids      domain.IDGenerator
	now      func() time.Time
	validate *validator.Validate
	logger   *zap.Logger
	observer metrics.Classifier

	mu sync.Mutex
}

// Option configures a RecordStore
type Option func(*RecordStore)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(s *RecordStore) {
		s.now = now
	}
}

// WithIDGenerator replaces the id generator
func WithIDGenerator(ids domain.IDGenerator) Option {
	return func(s *RecordStore) {
		s.ids = ids
	}
}

// NewRecordStore creates a new RecordStore backed by kv
func NewRecordStore(kv repository.KeyValueStore, logger *zap.Logger, opts ...Option) *RecordStore {
	s := &RecordStore{
		kv:       kv,
		ids:      domain.UUIDGenerator{},
		now:      time.Now,
		validate: domain.NewValidator(),
		logger:   logger,
		observer: metrics.Classifier{
			NotFound: ErrNotFound,
			Invalid:  ErrInvalidInput,
			Conflict: ErrConflict,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RecordStore) today() string {
	return s.now().Format(domain.DateLayout)
}

func (s *RecordStore) validateRequest(req interface{}) error {
	if err := s.validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make([]string, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, fmt.Sprintf("%s: %s", fe.Field(), domain.GetValidationMessage(fe.Tag())))
			}
			return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// loadList reads a JSON array stored under key. A missing key or a value that
// is not an array yields an empty list.
func loadList[T any](ctx context.Context, s *RecordStore, key string) ([]T, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	out := []T{}
	if !ok || !isArray(raw) {
		if ok && strings.TrimSpace(raw) != "" {
			s.logger.Warn("stored collection is not an array, treating as empty", zap.String("key", key))
		}
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return out, nil
}

func isArray(raw string) bool {
	trimmed := bytes.TrimSpace([]byte(raw))
	return len(trimmed) > 0 && trimmed[0] == '['
}

func (s *RecordStore) loadLeads(ctx context.Context) ([]domain.Lead, error) {
	return loadList[domain.Lead](ctx, s, domain.KeyLeads)
}

func (s *RecordStore) loadCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers, err := loadList[domain.Customer](ctx, s, domain.KeyCustomers)
	if err != nil {
		return nil, err
	}
	for i := range customers {
		customers[i] = NormalizeCustomer(customers[i])
	}
	return customers, nil
}

func (s *RecordStore) loadCounters(ctx context.Context) (domain.Counters, error) {
	raw, ok, err := s.kv.Get(ctx, domain.KeyCounters)
	if err != nil {
		return nil, fmt.Errorf("failed to read counters: %w", err)
	}
	counters := domain.Counters{}
	if !ok || strings.TrimSpace(raw) == "" {
		return counters, nil
	}
	if err := json.Unmarshal([]byte(raw), &counters); err != nil {
		s.logger.Warn("stored counters are malformed, starting fresh", zap.Error(err))
		return domain.Counters{}, nil
	}
	return counters, nil
}

// write encodes every value and stores all keys in one atomic step
func (s *RecordStore) write(ctx context.Context, values map[string]interface{}) error {
	encoded := make(map[string]string, len(values))
	for key, v := range values {
		if str, ok := v.(string); ok {
			encoded[key] = str
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		encoded[key] = string(b)
	}
	if err := s.kv.SetMany(ctx, encoded); err != nil {
		return fmt.Errorf("failed to persist records: %w", err)
	}
	return nil
}

func (s *RecordStore) saveCustomers(ctx context.Context, customers []domain.Customer) error {
	return s.write(ctx, map[string]interface{}{domain.KeyCustomers: customers})
}

func findCustomer(customers []domain.Customer, id string) int {
	for i := range customers {
		if customers[i].ID == id {
			return i
		}
	}
	return -1
}

// mutateCustomer runs fn against the customer with the given id and persists
// the collection if fn succeeds. The caller must hold s.mu.
func (s *RecordStore) mutateCustomer(ctx context.Context, customerID string, fn func(c *domain.Customer) error) (*domain.Customer, error) {
	customers, err := s.loadCustomers(ctx)
	if err != nil {
		return nil, err
	}
	idx := findCustomer(customers, customerID)
	if idx == -1 {
		return nil, ErrCustomerNotFound
	}
	if err := fn(&customers[idx]); err != nil {
		return nil, err
	}
	customers[idx] = NormalizeCustomer(customers[idx])
	if err := s.saveCustomers(ctx, customers); err != nil {
		return nil, err
	}
	return &customers[idx], nil
}

// readCustomer returns a copy of a single customer
func (s *RecordStore) readCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	customers, err := s.loadCustomers(ctx)
	if err != nil {
		return nil, err
	}
	idx := findCustomer(customers, customerID)
	if idx == -1 {
		return nil, ErrCustomerNotFound
	}
	return &customers[idx], nil
}

// ListCustomers returns every stored customer
func (s *RecordStore) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadCustomers(ctx)
}

// GetCustomer returns a customer by id
func (s *RecordStore) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCustomer(ctx, customerID)
}

// UpdateCustomer patches contact data of a customer. A note is added to the
// history when identity, phone or package changed.
func (s *RecordStore) UpdateCustomer(ctx context.Context, customerID string, req *domain.UpdateCustomerRequest) (*domain.Customer, error) {
	if err := s.validateRequest(req); err != nil {
		s.observer.Observe("update_customer", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.mutateCustomer(ctx, customerID, func(c *domain.Customer) error {
		before := c.Contact
		applyContactPatch(&c.Contact, req)

		var changed []string
		if before.FirstName != c.FirstName {
			changed = append(changed, "firstName")
		}
		if before.LastName != c.LastName {
			changed = append(changed, "lastName")
		}
		if before.Email != c.Email {
			changed = append(changed, "email")
		}
		if before.Phone != c.Phone {
			changed = append(changed, "phone")
		}
		if before.Paket != c.Paket {
			changed = append(changed, "paket")
		}
		if len(changed) > 0 {
			s.appendHistory(c, domain.HistoryTypeNote, "Data updated: "+strings.Join(changed, ", "))
		}
		return nil
	})
	s.observer.Observe("update_customer", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("customer updated", zap.String("customer_id", customerID))
	return c, nil
}

func applyContactPatch(c *domain.Contact, req *domain.UpdateCustomerRequest) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.FirstName, req.FirstName)
	set(&c.LastName, req.LastName)
	set(&c.Email, req.Email)
	set(&c.Paket, req.Paket)
	set(&c.Street, req.Street)
	set(&c.Zip, req.Zip)
	set(&c.City, req.City)
	set(&c.Country, req.Country)
	set(&c.Phone, req.Phone)
	set(&c.Instagram, req.Instagram)
	set(&c.Facebook, req.Facebook)
	set(&c.LinkedIn, req.LinkedIn)
	set(&c.Website, req.Website)
	set(&c.Notes, req.Notes)
}

// TakeHighlight returns the one-shot highlight marker and clears it.
// An empty string means no marker was set.
func (s *RecordStore) TakeHighlight(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok, err := s.kv.Get(ctx, domain.KeyHighlight)
	if err != nil {
		return "", fmt.Errorf("failed to read highlight: %w", err)
	}
	if !ok {
		return "", nil
	}
	if err := s.kv.Delete(ctx, domain.KeyHighlight); err != nil {
		return "", fmt.Errorf("failed to clear highlight: %w", err)
	}
	return id, nil
}

// ResetAll removes every lead, customer, counter and the highlight marker
func (s *RecordStore) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.kv.Delete(ctx, domain.KeyLeads, domain.KeyCustomers, domain.KeyCounters, domain.KeyHighlight)
	s.observer.Observe("reset_all", err)
	if err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	s.logger.Warn("record store reset, all leads, customers and counters removed")
	return nil
}
