package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/straye-as/minicrm/internal/config"
	"github.com/straye-as/minicrm/internal/domain"
	"github.com/straye-as/minicrm/internal/http/handler"
	"github.com/straye-as/minicrm/internal/http/middleware"
	"github.com/straye-as/minicrm/internal/http/router"
	"github.com/straye-as/minicrm/internal/service"
	"github.com/straye-as/minicrm/internal/storage"
	"github.com/straye-as/minicrm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	handler http.Handler
	fixture *testutil.StoreFixture
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	f := testutil.NewStore(t)

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exporter := service.NewExportService(f.Store, local, logger)

	cfg := &config.Config{
		App:       config.AppConfig{Environment: "development"},
		RateLimit: config.RateLimitConfig{Enabled: false, RequestsPerMinute: 100},
	}
	handlers := router.Handlers{
		Lead:         handler.NewLeadHandler(f.Store, logger),
		Customer:     handler.NewCustomerHandler(f.Store, logger),
		Offer:        handler.NewOfferHandler(f.Store, logger),
		Invoice:      handler.NewInvoiceHandler(f.Store, logger),
		Subscription: handler.NewSubscriptionHandler(f.Store, logger),
		Project:      handler.NewProjectHandler(f.Store, logger),
		Admin:        handler.NewAdminHandler(f.Store, exporter, logger),
	}
	rt := router.NewRouter(cfg, logger, middleware.NewRateLimiter(&cfg.RateLimit, logger), handlers, nil)
	return &testServer{handler: rt.Setup(), fixture: f}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestLeadHandler_CreateAndList(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/leads", testutil.LeadRequest("Anna", "Berg", "anna@x.de"))
	require.Equal(t, http.StatusCreated, w.Code)
	lead := decode[domain.Lead](t, w)
	assert.Equal(t, "anna@x.de", lead.Email)

	w = s.do(t, http.MethodPost, "/api/v1/leads", testutil.LeadRequest("Anna", "Berg", "Anna@X.de"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	apiErr := decode[domain.APIError](t, w)
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	w = s.do(t, http.MethodGet, "/api/v1/leads", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Lead](t, w), 1)
}

func TestLeadHandler_InvalidBody(t *testing.T) {
	s := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leads", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/leads", testutil.LeadRequest("Anna", "Berg", "no-email"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadHandler_DeleteAndPromote(t *testing.T) {
	s := setupServer(t)
	s.do(t, http.MethodPost, "/api/v1/leads", testutil.LeadRequest("Anna", "Berg", "anna@x.de"))
	s.do(t, http.MethodPost, "/api/v1/leads", testutil.LeadRequest("Ben", "Kurz", "ben@x.de"))

	w := s.do(t, http.MethodDelete, "/api/v1/leads/7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/leads/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/leads/0", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/leads/0/promote", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	promoted := decode[domain.PromoteLeadResponse](t, w)
	assert.NotEmpty(t, promoted.CustomerID)

	w = s.do(t, http.MethodGet, "/api/v1/customers/"+promoted.CustomerID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	c := decode[domain.Customer](t, w)
	assert.Equal(t, "ben@x.de", c.Email)

	w = s.do(t, http.MethodPost, "/api/v1/customers/highlight", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, promoted.CustomerID, decode[domain.HighlightResponse](t, w).CustomerID)

	w = s.do(t, http.MethodPost, "/api/v1/customers/highlight", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[domain.HighlightResponse](t, w).CustomerID)
}

func TestCustomerHandler_NotFound(t *testing.T) {
	s := setupServer(t)

	for _, tc := range []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/api/v1/customers/C404", nil},
		{http.MethodPatch, "/api/v1/customers/C404", map[string]string{"city": "Berlin"}},
		{http.MethodGet, "/api/v1/customers/C404/history", nil},
		{http.MethodPost, "/api/v1/customers/C404/offers", map[string]string{"paket": "Basic"}},
		{http.MethodPost, "/api/v1/customers/C404/invoices", map[string]float64{"amount": 1}},
		{http.MethodPost, "/api/v1/customers/C404/projects", nil},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := s.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestCustomerHandler_History(t *testing.T) {
	s := setupServer(t)
	id := s.fixture.AddCustomer(t, "Anna", "Berg", "anna@x.de")

	w := s.do(t, http.MethodPost, "/api/v1/customers/"+id+"/history", domain.CreateHistoryRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/customers/"+id+"/history", domain.CreateHistoryRequest{
		Type:    domain.HistoryTypeNote,
		Message: "Sent brochure",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/customers/"+id+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]domain.HistoryEntry](t, w)
	require.Len(t, history, 2)
	assert.Equal(t, "Sent brochure", history[1].Message)
}

func TestOfferToInvoiceFlow(t *testing.T) {
	s := setupServer(t)
	id := s.fixture.AddCustomer(t, "Anna", "Berg", "anna@x.de")
	base := "/api/v1/customers/" + id

	w := s.do(t, http.MethodPost, base+"/offers", map[string]interface{}{"paket": "Premium", "preis": 1500})
	require.Equal(t, http.StatusCreated, w.Code)
	offer := decode[domain.Offer](t, w)

	w = s.do(t, http.MethodPost, base+"/offers/"+offer.ID+"/accept", domain.AcceptRequest{Signature: "data:image/png;base64,AA"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.OfferStatusAccepted, decode[domain.Offer](t, w).Status)

	w = s.do(t, http.MethodPost, base+"/invoices", domain.CreateInvoiceRequest{OfferID: &offer.ID, Title: "Down payment", Amount: 750})
	require.Equal(t, http.StatusCreated, w.Code)
	inv := decode[domain.Invoice](t, w)
	assert.Equal(t, "2024-0001", inv.Number)

	w = s.do(t, http.MethodPut, base+"/invoices/"+inv.ID+"/status", domain.SetInvoiceStatusRequest{Status: domain.InvoiceStatusPaid})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.InvoiceStatusPaid, decode[domain.Invoice](t, w).Status)

	w = s.do(t, http.MethodGet, base+"/offers/"+offer.ID+"/invoices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Invoice](t, w), 1)

	w = s.do(t, http.MethodPost, base+"/offers/"+offer.ID+"/project", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, decode[domain.Project](t, w).Milestones, 3)
}

func TestSubscriptionHandler_Invoice(t *testing.T) {
	s := setupServer(t)
	id := s.fixture.AddCustomer(t, "Anna", "Berg", "anna@x.de")
	base := "/api/v1/customers/" + id + "/subscriptions"

	w := s.do(t, http.MethodPost, base, domain.CreateSubscriptionRequest{Title: "Care", Amount: 49, NextDue: "2024-01-15"})
	require.Equal(t, http.StatusCreated, w.Code)
	sub := decode[domain.Subscription](t, w)

	w = s.do(t, http.MethodPost, base+"/"+sub.ID+"/invoice", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	res := decode[domain.SubscriptionInvoiceResult](t, w)
	assert.Equal(t, "2024-02-15", res.Subscription.NextDue)

	w = s.do(t, http.MethodPost, base+"/S999/invoice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandler_Reset(t *testing.T) {
	s := setupServer(t)
	s.fixture.AddCustomer(t, "Anna", "Berg", "anna@x.de")

	w := s.do(t, http.MethodPost, "/api/v1/admin/reset", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/customers", nil)
	assert.Len(t, decode[[]domain.Customer](t, w), 1)

	w = s.do(t, http.MethodPost, "/api/v1/admin/reset?confirm=true", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/customers", nil)
	assert.Empty(t, decode[[]domain.Customer](t, w))
}

func TestAdminHandler_ExportCustomers(t *testing.T) {
	s := setupServer(t)
	s.fixture.AddCustomer(t, "Anna", "Berg", "anna@x.de")

	w := s.do(t, http.MethodGet, "/api/v1/customers/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.CSVContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="customers_2024-01-15.csv"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "anna@x.de")

	w = s.do(t, http.MethodGet, "/api/v1/admin/exports/customers_2024-01-15.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "id;dateAdded")

	w = s.do(t, http.MethodGet, "/api/v1/admin/exports/customers_1999-01-01.csv", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandler_Normalize(t *testing.T) {
	s := setupServer(t)
	s.fixture.AddCustomer(t, "Anna", "Berg", "anna@x.de")

	w := s.do(t, http.MethodPost, "/api/v1/admin/normalize", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]bool{"rewritten": false}, decode[map[string]bool](t, w))
}

func TestHealth(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
