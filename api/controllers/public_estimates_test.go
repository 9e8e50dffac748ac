package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopflow-app/shopflow-backend/internal/estimates"
	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	"github.com/shopflow-app/shopflow-backend/pkg/enums"
	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
	"github.com/shopflow-app/shopflow-backend/pkg/money"
)

type stubEstimatesService struct {
	findByToken func(ctx context.Context, token string) (*models.Estimate, error)
	approve     func(ctx context.Context, token, clientIP string) (*estimates.ApprovalResult, error)
}

func (s *stubEstimatesService) Create(context.Context, estimates.CreateInput) (*models.Estimate, error) {
	panic("not implemented")
}

func (s *stubEstimatesService) Get(context.Context, uuid.UUID) (*models.Estimate, error) {
	panic("not implemented")
}

func (s *stubEstimatesService) List(context.Context, estimates.ListFilters) ([]models.Estimate, error) {
	panic("not implemented")
}

func (s *stubEstimatesService) Update(context.Context, uuid.UUID, estimates.UpdateInput) (*models.Estimate, error) {
	panic("not implemented")
}

func (s *stubEstimatesService) Delete(context.Context, uuid.UUID) error {
	panic("not implemented")
}

func (s *stubEstimatesService) Send(context.Context, uuid.UUID) (*models.Estimate, error) {
	panic("not implemented")
}

func (s *stubEstimatesService) FindByToken(ctx context.Context, token string) (*models.Estimate, error) {
	if s.findByToken != nil {
		return s.findByToken(ctx, token)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
}

func (s *stubEstimatesService) Approve(ctx context.Context, token, clientIP string) (*estimates.ApprovalResult, error) {
	if s.approve != nil {
		return s.approve(ctx, token, clientIP)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
}

func sentEstimate(token string) *models.Estimate {
	ip := "203.0.113.9"
	return &models.Estimate{
		ID:                 uuid.New(),
		EstimateNumber:     "EST-0001",
		CustomerID:         uuid.New(),
		Status:             enums.EstimateStatusSent,
		PublicToken:        &token,
		SubtotalParts:      money.MustParse("200.00"),
		SubtotalLabor:      money.MustParse("200.00"),
		ShopSuppliesRate:   money.MustParse("0.0500"),
		ShopSuppliesAmount: money.MustParse("10.00"),
		TaxRate:            money.MustParse("0.0825"),
		TaxAmount:          money.MustParse("33.83"),
		Total:              money.MustParse("443.83"),
		ApprovedIP:         &ip,
		Customer:           &models.Customer{Name: "Ana Reyes"},
	}
}

func publicRequest(t *testing.T, handler http.HandlerFunc, method, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("token", token)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPublicEstimateShowHidesInternalFields(t *testing.T) {
	token := uuid.NewString()
	svc := &stubEstimatesService{
		findByToken: func(_ context.Context, got string) (*models.Estimate, error) {
			require.Equal(t, token, got)
			return sentEstimate(token), nil
		},
	}

	rec := publicRequest(t, PublicEstimateShow(svc, nil), http.MethodGet, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	assert.Equal(t, "EST-0001", envelope.Data["estimate_number"])
	assert.Equal(t, "Ana Reyes", envelope.Data["customer_name"])
	assert.Equal(t, "443.83", envelope.Data["total"])
	assert.NotContains(t, envelope.Data, "approved_ip")
	assert.NotContains(t, envelope.Data, "customer_id")
	assert.NotContains(t, envelope.Data, "public_token")
}

func TestPublicEstimateShowUnknownToken(t *testing.T) {
	rec := publicRequest(t, PublicEstimateShow(&stubEstimatesService{}, nil), http.MethodGet, uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestPublicEstimateApprovePassesClientIP(t *testing.T) {
	token := uuid.NewString()
	var gotIP string
	svc := &stubEstimatesService{
		approve: func(_ context.Context, _ string, clientIP string) (*estimates.ApprovalResult, error) {
			gotIP = clientIP
			estimate := sentEstimate(token)
			estimate.Status = enums.EstimateStatusApproved
			return &estimates.ApprovalResult{Estimate: estimate}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("token", token)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rec := httptest.NewRecorder()
	PublicEstimateApprove(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "203.0.113.9", gotIP)
	assert.Contains(t, rec.Body.String(), `"status":"approved"`)
	assert.Contains(t, rec.Body.String(), `"already_approved":false`)
}

func TestPublicEstimateApproveDistinguishesRepeat(t *testing.T) {
	token := uuid.NewString()
	alreadyApproved := false
	svc := &stubEstimatesService{
		approve: func(context.Context, string, string) (*estimates.ApprovalResult, error) {
			estimate := sentEstimate(token)
			estimate.Status = enums.EstimateStatusApproved
			result := &estimates.ApprovalResult{Estimate: estimate, AlreadyApproved: alreadyApproved}
			alreadyApproved = true
			return result, nil
		},
	}

	first := publicRequest(t, PublicEstimateApprove(svc, nil), http.MethodPost, token)
	require.Equal(t, http.StatusOK, first.Code)
	repeat := publicRequest(t, PublicEstimateApprove(svc, nil), http.MethodPost, token)
	require.Equal(t, http.StatusOK, repeat.Code)

	// A replayed tap must read differently from the first acceptance.
	assert.NotEqual(t, first.Body.String(), repeat.Body.String())
	assert.Contains(t, first.Body.String(), `"already_approved":false`)
	assert.Contains(t, repeat.Body.String(), `"already_approved":true`)
	assert.Contains(t, repeat.Body.String(), "already approved")
}

func TestPublicEstimateApproveStateConflict(t *testing.T) {
	svc := &stubEstimatesService{
		approve: func(context.Context, string, string) (*estimates.ApprovalResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "estimate cannot be approved")
		},
	}

	rec := publicRequest(t, PublicEstimateApprove(svc, nil), http.MethodPost, uuid.NewString())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "STATE_CONFLICT")
}
