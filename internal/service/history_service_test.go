package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/straye-as/minicrm/internal/domain"
	"github.com/straye-as/minicrm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddHistory(t *testing.T) {
	f := testutil.NewStore(t)
	ctx := context.Background()
	id := f.AddCustomer(t, "Anna", "Berg", "anna@x.de")

	entry, err := f.Store.AddHistory(ctx, id, domain.HistoryTypeNote, "Called, no answer")
	require.NoError(t, err)
	assert.Equal(t, domain.HistoryTypeNote, entry.Type)
	assert.Equal(t, f.Clock.Now(), entry.Ts)

	// empty type falls back to system
	entry, err = f.Store.AddHistory(ctx, id, "", "Imported")
	require.NoError(t, err)
	assert.Equal(t, domain.HistoryTypeSystem, entry.Type)

	history, err := f.Store.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "Converted from lead to customer", history[0].Message)
	assert.Equal(t, "Imported", history[2].Message)
}

func TestAddHistory_KeepsNewest300(t *testing.T) {
	f := testutil.NewStore(t)
	ctx := context.Background()
	id := f.AddCustomer(t, "Anna", "Berg", "anna@x.de")

	// one entry from the promotion plus 300 manual ones
	for i := 1; i <= domain.HistoryLimit; i++ {
		_, err := f.Store.AddHistory(ctx, id, domain.HistoryTypeNote, fmt.Sprintf("entry %d", i))
		require.NoError(t, err)
	}

	history, err := f.Store.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, domain.HistoryLimit)
	assert.Equal(t, "entry 1", history[0].Message)
	assert.Equal(t, fmt.Sprintf("entry %d", domain.HistoryLimit), history[len(history)-1].Message)
	for _, e := range history {
		assert.NotEqual(t, "Converted from lead to customer", e.Message)
	}
}
