package service_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/straye-as/minicrm/internal/domain"
	"github.com/straye-as/minicrm/internal/service"
	"github.com/straye-as/minicrm/internal/storage"
	"github.com/straye-as/minicrm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriteCustomersCSV(t *testing.T) {
	var buf bytes.Buffer
	err := service.WriteCustomersCSV(&buf, []domain.Customer{{
		ID:        "C1",
		DateAdded: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		Contact: domain.Contact{
			FirstName: "Anna",
			LastName:  "Berg",
			Email:     "anna@x.de",
			Street:    "Main; 1",
			City:      `Köln "Süd"`,
			Notes:     "line one\r\nline two; more",
		},
	}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id;dateAdded;firstName;lastName;email;paket;street;zip;city;country;phone;instagram;facebook;linkedin;website;notes", lines[0])
	assert.Equal(t, `C1;2024-01-15T09:00:00Z;Anna;Berg;anna@x.de;;Main, 1;;Köln "Süd";;;;;;;line one line two, more`, lines[1])
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "customers_2024-01-15.csv", service.ExportFilename(testutil.Date(2024, time.January, 15)))
}

func TestExportService(t *testing.T) {
	f := testutil.NewStore(t)
	ctx := context.Background()
	f.AddCustomer(t, "Anna", "Berg", "anna@x.de")
	f.AddCustomer(t, "Ben", "Kurz", "ben@x.de")

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exporter := service.NewExportService(f.Store, local, zap.NewNop())

	res, err := exporter.ExportCustomersCSV(ctx)
	require.NoError(t, err)
	assert.Equal(t, "customers_2024-01-15.csv", res.Filename)
	assert.Equal(t, 2, res.Customers)
	assert.Positive(t, res.Size)

	rc, err := exporter.OpenExport(ctx, res.Filename)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Len(t, data, int(res.Size))
	assert.Contains(t, string(data), "ben@x.de")

	_, err = exporter.OpenExport(ctx, "customers_1999-01-01.csv")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = exporter.OpenExport(ctx, "../secrets.csv")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
