// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/straye-as/minicrm/internal/domain"
	"github.com/straye-as/minicrm/internal/repository"
	"github.com/straye-as/minicrm/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SequentialIDs hands out prefix1, prefix2, ... so assertions can name ids
type SequentialIDs struct {
	n atomic.Int64
}

// NewID implements domain.IDGenerator
func (g *SequentialIDs) NewID(prefix string) string {
	return prefix + strconv.FormatInt(g.n.Add(1), 10)
}

// Clock is a settable time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock frozen at t
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Date returns 09:00 UTC on the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 9, 0, 0, 0, time.UTC)
}

// StoreFixture bundles a record store with its substrate and fakes
type StoreFixture struct {
	Store *service.RecordStore
	KV    *repository.MemoryKeyValueStore
	Clock *Clock
	IDs   *SequentialIDs
}

// NewStore creates a memory-backed record store with a fixed clock and sequential ids
func NewStore(t *testing.T) *StoreFixture {
	t.Helper()
	kv := repository.NewMemoryKeyValueStore()
	clock := NewClock(Date(2024, time.January, 15))
	ids := &SequentialIDs{}
	store := service.NewRecordStore(kv, zap.NewNop(),
		service.WithClock(clock.Now),
		service.WithIDGenerator(ids),
	)
	return &StoreFixture{Store: store, KV: kv, Clock: clock, IDs: ids}
}

// SetupSQLiteDB opens an in-memory sqlite database with the kv table migrated
func SetupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&domain.KeyValueEntry{}))
	return db
}

// LeadRequest builds a minimal valid lead request
func LeadRequest(first, last, email string) *domain.CreateLeadRequest {
	return &domain.CreateLeadRequest{FirstName: first, LastName: last, Email: email}
}

// AddCustomer stores a lead and promotes it, returning the customer id
func (f *StoreFixture) AddCustomer(t *testing.T, first, last, email string) string {
	t.Helper()
	ctx := context.Background()
	_, err := f.Store.AddLead(ctx, LeadRequest(first, last, email))
	require.NoError(t, err)
	leads, err := f.Store.ListLeads(ctx)
	require.NoError(t, err)
	id, err := f.Store.PromoteLeadToCustomer(ctx, len(leads)-1)
	require.NoError(t, err)
	return id
}
