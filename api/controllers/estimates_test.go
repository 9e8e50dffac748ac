package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopflow-app/shopflow-backend/internal/estimates"
	"github.com/shopflow-app/shopflow-backend/internal/invoices"
	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	"github.com/shopflow-app/shopflow-backend/pkg/enums"
	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
	"github.com/shopflow-app/shopflow-backend/pkg/money"
)

type stubInvoicesService struct {
	convert func(ctx context.Context, estimateID uuid.UUID) (*invoices.ConversionResult, error)
}

func (s *stubInvoicesService) Convert(ctx context.Context, estimateID uuid.UUID) (*invoices.ConversionResult, error) {
	if s.convert != nil {
		return s.convert(ctx, estimateID)
	}
	panic("not implemented")
}

func (s *stubInvoicesService) StockWarnings(context.Context, uuid.UUID) ([]invoices.StockWarning, error) {
	panic("not implemented")
}

func (s *stubInvoicesService) Get(context.Context, uuid.UUID) (*models.Invoice, error) {
	panic("not implemented")
}

func (s *stubInvoicesService) List(context.Context) ([]models.Invoice, error) {
	panic("not implemented")
}

func (s *stubInvoicesService) MonthSummary(context.Context, time.Time) (invoices.MonthlySummary, error) {
	panic("not implemented")
}

func (s *stubInvoicesService) Notify(context.Context, uuid.UUID) (*models.Invoice, error) {
	panic("not implemented")
}

func estimateRequest(t *testing.T, handler http.HandlerFunc, method, estimateID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("estimateId", estimateID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

type createCapture struct {
	stubEstimatesService
	input estimates.CreateInput
}

func (s *createCapture) Create(_ context.Context, input estimates.CreateInput) (*models.Estimate, error) {
	s.input = input
	return &models.Estimate{
		ID:               uuid.New(),
		EstimateNumber:   "EST-0001",
		CustomerID:       input.CustomerID,
		Status:           enums.EstimateStatusDraft,
		ShopSuppliesRate: money.MustParse("0.0500"),
		TaxRate:          money.MustParse("0.0825"),
	}, nil
}

func TestEstimatesCreateDecodesAndReturns201(t *testing.T) {
	svc := &createCapture{}
	customerID := uuid.New()
	itemID := uuid.New()
	body := `{
		"customer_id": "` + customerID.String() + `",
		"lines": [{"item_type": "part", "item_id": "` + itemID.String() + `", "quantity": 2}]
	}`

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	EstimatesCreate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, customerID, svc.input.CustomerID)
	require.Len(t, svc.input.Lines, 1)
	assert.Equal(t, 2, svc.input.Lines[0].Quantity)
	assert.Contains(t, rec.Body.String(), `"estimate_number":"EST-0001"`)
}

func TestEstimatesCreateRejectsMissingLines(t *testing.T) {
	svc := &createCapture{}
	body := `{"customer_id": "` + uuid.NewString() + `", "lines": []}`

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	EstimatesCreate(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestEstimatesGetRejectsMalformedID(t *testing.T) {
	rec := estimateRequest(t, EstimatesGet(&stubEstimatesService{}, nil), http.MethodGet, "not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEstimatesConvertReturnsWarnings(t *testing.T) {
	estimateID := uuid.New()
	partID := uuid.New()
	svc := &stubInvoicesService{
		convert: func(_ context.Context, got uuid.UUID) (*invoices.ConversionResult, error) {
			require.Equal(t, estimateID, got)
			return &invoices.ConversionResult{
				Invoice: &models.Invoice{
					ID:            uuid.New(),
					InvoiceNumber: "INV-0001",
					EstimateID:    estimateID,
					Total:         money.MustParse("443.83"),
				},
				Warnings: []invoices.StockWarning{
					{PartID: partID, Name: "Brake Pad Set", SKU: "BRK-PAD-01", Requested: 3, Available: 1},
				},
			}, nil
		},
	}

	rec := estimateRequest(t, EstimatesConvert(svc, nil), http.MethodPost, estimateID.String(), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data struct {
			Invoice  map[string]any          `json:"invoice"`
			Warnings []invoices.StockWarning `json:"warnings"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "INV-0001", envelope.Data.Invoice["invoice_number"])
	require.Len(t, envelope.Data.Warnings, 1)
	assert.Equal(t, 1, envelope.Data.Warnings[0].Available)
}

func TestEstimatesConvertConflict(t *testing.T) {
	svc := &stubInvoicesService{
		convert: func(context.Context, uuid.UUID) (*invoices.ConversionResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "estimate already invoiced")
		},
	}

	rec := estimateRequest(t, EstimatesConvert(svc, nil), http.MethodPost, uuid.NewString(), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "estimate already invoiced")
}
