package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/straye-as/minicrm/internal/config"
	"github.com/straye-as/minicrm/internal/jobs"
	"github.com/straye-as/minicrm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu           sync.Mutex
	normalized   int
	billedAsOf   []time.Time
	normalizeErr error
	billErr      error
}

func (f *fakeStore) NormalizeAllCustomers(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.normalized++
	return f.normalized == 1, f.normalizeErr
}

func (f *fakeStore) BillDueSubscriptions(ctx context.Context, asOf time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.billedAsOf = append(f.billedAsOf, asOf)
	return 1, f.billErr
}

func TestScheduler_AddJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("b", "0 0 3 * * *", func() {}))
	require.NoError(t, s.AddJob("a", "@every 1h", func() {}))
	assert.Equal(t, []string{"a", "b"}, s.GetJobNames())

	assert.Error(t, s.AddJob("a", "@every 1h", func() {}), "duplicate name")
	assert.Error(t, s.AddJob("c", "not a cron", func() {}))
	// five-field expressions lack the seconds field
	assert.Error(t, s.AddJob("d", "0 3 * * *", func() {}))
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	ran := make(chan struct{}, 1)
	require.NoError(t, s.AddJob("tick", "@every 1s", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))

	s.Start()
	defer func() { <-s.Stop().Done() }()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestRegisterStoreJobs(t *testing.T) {
	store := &fakeStore{}

	s := jobs.NewScheduler(zap.NewNop())
	require.NoError(t, jobs.RegisterStoreJobs(s, store, &config.JobsConfig{
		NormalizeEnabled: true,
		NormalizeCron:    "0 0 3 * * *",
		BillingEnabled:   false,
		BillingCron:      "0 0 6 * * *",
	}, zap.NewNop()))
	assert.Equal(t, []string{jobs.NormalizeJobName}, s.GetJobNames())

	s = jobs.NewScheduler(zap.NewNop())
	require.NoError(t, jobs.RegisterStoreJobs(s, store, &config.JobsConfig{
		NormalizeEnabled: true,
		NormalizeCron:    "0 0 3 * * *",
		BillingEnabled:   true,
		BillingCron:      "0 0 6 * * *",
	}, zap.NewNop()))
	assert.Equal(t, []string{jobs.BillingJobName, jobs.NormalizeJobName}, s.GetJobNames())

	s = jobs.NewScheduler(zap.NewNop())
	err := jobs.RegisterStoreJobs(s, store, &config.JobsConfig{NormalizeEnabled: true, NormalizeCron: "bogus"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNormalizeJob_Run(t *testing.T) {
	store := &fakeStore{}
	job := jobs.NewNormalizeJob(store, zap.NewNop(), time.Second)

	job.Run()
	job.Run()
	assert.Equal(t, 2, store.normalized)

	// failures are logged, not propagated
	store.normalizeErr = errors.New("boom")
	assert.NotPanics(t, job.Run)
}

func TestBillingJob_Run(t *testing.T) {
	store := &fakeStore{}
	job := jobs.NewBillingJob(store, zap.NewNop(), time.Second)

	before := time.Now()
	job.Run()
	require.Len(t, store.billedAsOf, 1)
	assert.False(t, store.billedAsOf[0].Before(before))

	store.billErr = errors.New("boom")
	assert.NotPanics(t, job.Run)
}

func TestNormalizeJob_AgainstRecordStore(t *testing.T) {
	f := testutil.NewStore(t)
	f.AddCustomer(t, "Anna", "Berg", "anna@x.de")

	job := jobs.NewNormalizeJob(f.Store, zap.NewNop(), time.Second)
	job.Run()

	customers, err := f.Store.ListCustomers(context.Background())
	require.NoError(t, err)
	assert.Len(t, customers, 1)
}
