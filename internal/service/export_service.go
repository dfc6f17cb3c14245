package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/straye-as/minicrm/internal/domain"
	"github.com/straye-as/minicrm/internal/storage"
	"go.uber.org/zap"
)

// CSVContentType is the content type of customer exports
const CSVContentType = "text/csv; charset=utf-8"

var exportHeader = []string{
	"id", "dateAdded", "firstName", "lastName", "email", "paket",
	"street", "zip", "city", "country", "phone",
	"instagram", "facebook", "linkedin", "website", "notes",
}

// ExportFilename returns the export file name for the given day
func ExportFilename(day time.Time) string {
	return "customers_" + day.Format(domain.DateLayout) + ".csv"
}

// WriteCustomersCSV writes customers as a semicolon separated table with a
// header row. Fields are never quoted: semicolons in any field become commas
// and line breaks in notes become spaces.
func WriteCustomersCSV(w io.Writer, customers []domain.Customer) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, exportHeader)
	for _, c := range customers {
		writeRow(bw, []string{
			c.ID,
			c.DateAdded.Format(time.RFC3339),
			c.FirstName,
			c.LastName,
			c.Email,
			c.Paket,
			c.Street,
			c.Zip,
			c.City,
			c.Country,
			c.Phone,
			c.Instagram,
			c.Facebook,
			c.LinkedIn,
			c.Website,
			flattenNotes(c.Notes),
		})
	}
	return bw.Flush()
}

var (
	fieldReplacer = strings.NewReplacer(";", ",")
	notesReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
)

func writeRow(bw *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			_ = bw.WriteByte(';')
		}
		_, _ = fieldReplacer.WriteString(bw, f)
	}
	_ = bw.WriteByte('\n')
}

func flattenNotes(s string) string {
	return notesReplacer.Replace(s)
}

// ExportService hands customer tables to a file storage
type ExportService struct {
	store   *RecordStore
	storage storage.Storage
	logger  *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(store *RecordStore, st storage.Storage, logger *zap.Logger) *ExportService {
	return &ExportService{store: store, storage: st, logger: logger}
}

// ExportResult describes a stored export
type ExportResult struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	Customers int    `json:"customers"`
}

// ExportCustomersCSV renders all customers and stores them as customers_YYYY-MM-DD.csv
func (e *ExportService) ExportCustomersCSV(ctx context.Context) (*ExportResult, error) {
	customers, err := e.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteCustomersCSV(&buf, customers); err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}

	name := ExportFilename(e.store.now())
	size, err := e.storage.Put(ctx, name, CSVContentType, &buf)
	e.store.observer.Observe("export_customers", err)
	if err != nil {
		return nil, fmt.Errorf("failed to store export: %w", err)
	}

	e.logger.Info("customers exported",
		zap.String("filename", name),
		zap.Int("customers", len(customers)),
		zap.Int64("size", size),
	)
	return &ExportResult{Filename: name, Size: size, Customers: len(customers)}, nil
}

// OpenExport opens a previously stored export
func (e *ExportService) OpenExport(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := e.storage.Open(ctx, name)
	switch {
	case errors.Is(err, storage.ErrFileNotFound):
		return nil, fmt.Errorf("%w: export %s", ErrNotFound, name)
	case errors.Is(err, storage.ErrInvalidName):
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	case err != nil:
		return nil, err
	}
	return rc, nil
}
