package invoices

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopflow-app/shopflow-backend/internal/estimates"
	"github.com/shopflow-app/shopflow-backend/internal/notifications"
	"github.com/shopflow-app/shopflow-backend/internal/settings"
	"github.com/shopflow-app/shopflow-backend/internal/testutil"
	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	"github.com/shopflow-app/shopflow-backend/pkg/enums"
	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
	"github.com/shopflow-app/shopflow-backend/pkg/logger"
	"github.com/shopflow-app/shopflow-backend/pkg/money"
)

type recordingDispatcher struct {
	invoiceReadyCalls int
	invoiceReadyErr   error
}

func (d *recordingDispatcher) EstimateSent(context.Context, *models.Estimate, *models.Customer) error {
	return nil
}

func (d *recordingDispatcher) InvoiceReady(context.Context, *models.Invoice, *models.Customer) error {
	d.invoiceReadyCalls++
	return d.invoiceReadyErr
}

type fixture struct {
	svc        *service
	estimates  estimates.Service
	db         *gorm.DB
	dispatcher *recordingDispatcher
	customer   models.Customer
	part       models.Part
	labor      models.LaborService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	runner := testutil.TxRunner{DB: db}

	settingsSvc, err := settings.NewService(db)
	require.NoError(t, err)
	dispatcher := &recordingDispatcher{}
	estimateSvc, err := estimates.NewService(estimates.NewRepository(db), runner, settingsSvc, dispatcher)
	require.NoError(t, err)

	svc, err := NewService(db, runner, dispatcher)
	require.NoError(t, err)

	email := "ana@example.com"
	customer := models.Customer{ID: uuid.New(), Name: "Ana Reyes", Email: &email}
	require.NoError(t, db.Create(&customer).Error)

	part := models.Part{
		ID:        uuid.New(),
		SKU:       "BRK-PAD-01",
		Name:      "Brake Pad Set",
		Cost:      money.MustParse("38.50"),
		SalePrice: money.MustParse("100.00"),
		Stock:     10,
		MinStock:  2,
	}
	require.NoError(t, db.Create(&part).Error)

	labor := models.LaborService{
		ID:           uuid.New(),
		Name:         "Brake Service",
		DefaultPrice: money.MustParse("100.00"),
	}
	require.NoError(t, db.Create(&labor).Error)

	return &fixture{
		svc:        svc.(*service),
		estimates:  estimateSvc,
		db:         db,
		dispatcher: dispatcher,
		customer:   customer,
		part:       part,
		labor:      labor,
	}
}

func (f *fixture) approvedEstimate(t *testing.T, partQty int) *models.Estimate {
	t.Helper()
	ctx := context.Background()

	estimate, err := f.estimates.Create(ctx, estimates.CreateInput{
		CustomerID: f.customer.ID,
		Lines: []estimates.LineInput{
			{ItemType: "part", ItemID: f.part.ID.String(), Quantity: partQty},
			{ItemType: "labor_service", ItemID: f.labor.ID.String(), Quantity: 2},
		},
	})
	require.NoError(t, err)

	sent, err := f.estimates.Send(ctx, estimate.ID)
	require.NoError(t, err)
	result, err := f.estimates.Approve(ctx, *sent.PublicToken, "203.0.113.9")
	require.NoError(t, err)
	return result.Estimate
}

func (f *fixture) partStock(t *testing.T) int {
	t.Helper()
	var part models.Part
	require.NoError(t, f.db.Where("id = ?", f.part.ID).First(&part).Error)
	return part.Stock
}

func TestConvertFreezesTotalsAndDeductsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	estimate := f.approvedEstimate(t, 2)

	result, err := f.svc.Convert(ctx, estimate.ID)
	require.NoError(t, err)
	invoice := result.Invoice

	assert.Equal(t, "INV-0001", invoice.InvoiceNumber)
	assert.Equal(t, estimate.ID, invoice.EstimateID)
	assert.Equal(t, money.String2(estimate.Total), money.String2(invoice.Total))
	assert.Equal(t, money.String4(estimate.TaxRate), money.String4(invoice.TaxRate))
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 8, f.partStock(t))

	reloaded, err := f.estimates.Get(ctx, estimate.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EstimateStatusInvoiced, reloaded.Status)
}

func TestConvertWarnsAndGoesNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Model(&models.Part{}).Where("id = ?", f.part.ID).Update("stock", 1).Error)

	estimate := f.approvedEstimate(t, 3)
	result, err := f.svc.Convert(ctx, estimate.ID)
	require.NoError(t, err)

	require.Len(t, result.Warnings, 1)
	warning := result.Warnings[0]
	assert.Equal(t, f.part.ID, warning.PartID)
	assert.Equal(t, "Brake Pad Set", warning.Name)
	assert.Equal(t, "BRK-PAD-01", warning.SKU)
	assert.Equal(t, 3, warning.Requested)
	assert.Equal(t, 1, warning.Available)
	assert.Equal(t, -2, f.partStock(t))
}

func TestConvertRequiresApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	estimate, err := f.estimates.Create(ctx, estimates.CreateInput{
		CustomerID: f.customer.ID,
		Lines: []estimates.LineInput{
			{ItemType: "part", ItemID: f.part.ID.String(), Quantity: 1},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Convert(ctx, estimate.ID)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestConvertTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	estimate := f.approvedEstimate(t, 1)

	_, err := f.svc.Convert(ctx, estimate.ID)
	require.NoError(t, err)

	_, err = f.svc.Convert(ctx, estimate.ID)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
	assert.Equal(t, 9, f.partStock(t))

	var invoiceCount int64
	require.NoError(t, f.db.Model(&models.Invoice{}).Count(&invoiceCount).Error)
	assert.EqualValues(t, 1, invoiceCount)
}

func TestConvertRollsBackOnLateFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	estimate := f.approvedEstimate(t, 2)

	boom := stdErrors.New("boom")
	f.svc.afterDeduct = func(*gorm.DB) error { return boom }

	_, err := f.svc.Convert(ctx, estimate.ID)
	require.ErrorIs(t, err, boom)

	// Nothing from the failed pipeline may remain visible.
	assert.Equal(t, 10, f.partStock(t))
	var invoiceCount int64
	require.NoError(t, f.db.Model(&models.Invoice{}).Count(&invoiceCount).Error)
	assert.Zero(t, invoiceCount)
	reloaded, err := f.estimates.Get(ctx, estimate.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EstimateStatusApproved, reloaded.Status)

	// The burned sequence slot rolls back with the transaction.
	f.svc.afterDeduct = nil
	result, err := f.svc.Convert(ctx, estimate.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", result.Invoice.InvoiceNumber)
}

func TestStockWarningsPreviewDoesNotDeduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Model(&models.Part{}).Where("id = ?", f.part.ID).Update("stock", 1).Error)

	estimate := f.approvedEstimate(t, 3)
	warnings, err := f.svc.StockWarnings(ctx, estimate.ID)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, 3, warnings[0].Requested)
	assert.Equal(t, 1, warnings[0].Available)
	assert.Equal(t, 1, f.partStock(t))
}

func TestNotifyDispatchesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	estimate := f.approvedEstimate(t, 1)

	result, err := f.svc.Convert(ctx, estimate.ID)
	require.NoError(t, err)

	notified, err := f.svc.Notify(ctx, result.Invoice.ID)
	require.NoError(t, err)
	require.NotNil(t, notified.NotifiedAt)
	assert.Equal(t, 1, f.dispatcher.invoiceReadyCalls)
	firstNotifiedAt := *notified.NotifiedAt

	again, err := f.svc.Notify(ctx, result.Invoice.ID)
	require.NoError(t, err)
	require.NotNil(t, again.NotifiedAt)
	assert.True(t, again.NotifiedAt.Equal(firstNotifiedAt))
	assert.Equal(t, 1, f.dispatcher.invoiceReadyCalls)
}

func TestNotifyReleasesClaimOnDispatchFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	estimate := f.approvedEstimate(t, 1)

	result, err := f.svc.Convert(ctx, estimate.ID)
	require.NoError(t, err)

	f.dispatcher.invoiceReadyErr = stdErrors.New("provider down")
	_, err = f.svc.Notify(ctx, result.Invoice.ID)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeDependency, appErr.Code())

	// The failed attempt leaves the invoice unclaimed for a retry.
	reloaded, err := f.svc.Get(ctx, result.Invoice.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.NotifiedAt)

	f.dispatcher.invoiceReadyErr = nil
	notified, err := f.svc.Notify(ctx, result.Invoice.ID)
	require.NoError(t, err)
	require.NotNil(t, notified.NotifiedAt)
	assert.Equal(t, 2, f.dispatcher.invoiceReadyCalls)
}

func TestLogDispatcherSatisfiesInterface(t *testing.T) {
	log := logger.New(logger.Options{ServiceName: "test"})
	dispatcher, err := notifications.NewLogDispatcher(log, "+15125550100")
	require.NoError(t, err)

	email := "ana@example.com"
	customer := &models.Customer{Name: "Ana Reyes", Email: &email}
	require.NoError(t, dispatcher.InvoiceReady(context.Background(), &models.Invoice{InvoiceNumber: "INV-0001"}, customer))
}

func TestMonthSummaryWindowsByIssueMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	estimate := f.approvedEstimate(t, 2)

	result, err := f.svc.Convert(ctx, estimate.ID)
	require.NoError(t, err)

	summary, err := f.svc.MonthSummary(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.InvoiceCount)
	assert.Equal(t, money.String2(result.Invoice.Total), summary.Revenue)

	nextMonth, err := f.svc.MonthSummary(ctx, time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(0), nextMonth.InvoiceCount)
	assert.Equal(t, "0.00", nextMonth.Revenue)
}
