package estimates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopflow-app/shopflow-backend/internal/settings"
	"github.com/shopflow-app/shopflow-backend/internal/testutil"
	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	"github.com/shopflow-app/shopflow-backend/pkg/enums"
	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
	"github.com/shopflow-app/shopflow-backend/pkg/money"
)

type recordingDispatcher struct {
	estimateSent int
}

func (d *recordingDispatcher) EstimateSent(context.Context, *models.Estimate, *models.Customer) error {
	d.estimateSent++
	return nil
}

func (d *recordingDispatcher) InvoiceReady(context.Context, *models.Invoice, *models.Customer) error {
	return nil
}

type fixture struct {
	svc        Service
	db         *gorm.DB
	dispatcher *recordingDispatcher
	customer   models.Customer
	unit       models.Unit
	part       models.Part
	labor      models.LaborService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)

	settingsSvc, err := settings.NewService(db)
	require.NoError(t, err)
	dispatcher := &recordingDispatcher{}
	svc, err := NewService(NewRepository(db), testutil.TxRunner{DB: db}, settingsSvc, dispatcher)
	require.NoError(t, err)

	email := "ana@example.com"
	customer := models.Customer{ID: uuid.New(), Name: "Ana Reyes", Email: &email}
	require.NoError(t, db.Create(&customer).Error)

	unit := models.Unit{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		VIN:        "1HGCM82633A004352",
		Make:       "Honda",
		Model:      "Accord",
	}
	require.NoError(t, db.Create(&unit).Error)

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

	return fixture{svc: svc, db: db, dispatcher: dispatcher, customer: customer, unit: unit, part: part, labor: labor}
}

func (f fixture) standardLines() []LineInput {
	return []LineInput{
		{ItemType: "part", ItemID: f.part.ID.String(), Quantity: 2},
		{ItemType: "labor_service", ItemID: f.labor.ID.String(), Quantity: 2},
	}
}

func (f fixture) create(t *testing.T) *models.Estimate {
	t.Helper()
	estimate, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID: f.customer.ID,
		UnitID:     &f.unit.ID,
		Lines:      f.standardLines(),
	})
	require.NoError(t, err)
	return estimate
}

func TestCreateAssignsNumberAndTotals(t *testing.T) {
	f := newFixture(t)
	estimate := f.create(t)

	assert.Equal(t, "EST-0001", estimate.EstimateNumber)
	assert.Equal(t, enums.EstimateStatusDraft, estimate.Status)
	assert.Nil(t, estimate.PublicToken)
	assert.Equal(t, "0.0500", money.String4(estimate.ShopSuppliesRate))
	assert.Equal(t, "0.0825", money.String4(estimate.TaxRate))
	assert.Equal(t, "200.00", money.String2(estimate.SubtotalParts))
	assert.Equal(t, "200.00", money.String2(estimate.SubtotalLabor))
	assert.Equal(t, "10.00", money.String2(estimate.ShopSuppliesAmount))
	assert.Equal(t, "33.83", money.String2(estimate.TaxAmount))
	assert.Equal(t, "443.83", money.String2(estimate.Total))

	require.Len(t, estimate.Lines, 2)
	assert.Equal(t, "Brake Pad Set", estimate.Lines[0].Description)
	assert.Equal(t, "200.00", money.String2(estimate.Lines[0].LineTotal))

	second := f.create(t)
	assert.Equal(t, "EST-0002", second.EstimateNumber)
}

func TestCreateSnapshotsLiveRates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	settingsSvc, err := settings.NewService(f.db)
	require.NoError(t, err)
	require.NoError(t, settingsSvc.Set(ctx, settings.KeyTaxRate, "0.1000"))

	estimate := f.create(t)
	assert.Equal(t, "0.1000", money.String4(estimate.TaxRate))
	assert.Equal(t, "41.00", money.String2(estimate.TaxAmount))
	assert.Equal(t, "451.00", money.String2(estimate.Total))

	// Later settings churn never touches the stored snapshot.
	require.NoError(t, settingsSvc.Set(ctx, settings.KeyTaxRate, "0.0825"))
	reloaded, err := f.svc.Get(ctx, estimate.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.1000", money.String4(reloaded.TaxRate))
}

func TestCreateRejectsForeignUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	email := "bo@example.com"
	other := models.Customer{ID: uuid.New(), Name: "Bo Chen", Email: &email}
	require.NoError(t, f.db.Create(&other).Error)

	_, err := f.svc.Create(ctx, CreateInput{
		CustomerID: other.ID,
		UnitID:     &f.unit.ID,
		Lines:      f.standardLines(),
	})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestCreateUnknownCatalogItemRollsBack(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID: f.customer.ID,
		Lines: []LineInput{
			{ItemType: "part", ItemID: uuid.NewString(), Quantity: 1},
		},
	})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())

	// The allocated number returns to the pool with the rollback.
	estimate := f.create(t)
	assert.Equal(t, "EST-0001", estimate.EstimateNumber)
}

func TestUpdateReplacesLinesAndRecalculates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	estimate := f.create(t)
	originalLineIDs := []uuid.UUID{estimate.Lines[0].ID, estimate.Lines[1].ID}

	override := "50.00"
	newLines := []LineInput{
		{ItemType: "labor_service", ItemID: f.labor.ID.String(), Quantity: 1, UnitPrice: &override},
	}
	updated, err := f.svc.Update(ctx, estimate.ID, UpdateInput{Lines: &newLines})
	require.NoError(t, err)

	require.Len(t, updated.Lines, 1)
	assert.NotContains(t, originalLineIDs, updated.Lines[0].ID)
	assert.Equal(t, "50.00", money.String2(updated.Lines[0].UnitPrice))
	assert.Equal(t, "0.00", money.String2(updated.SubtotalParts))
	assert.Equal(t, "50.00", money.String2(updated.SubtotalLabor))
	assert.Equal(t, "2.50", money.String2(updated.ShopSuppliesAmount))
	// taxable 52.50 * 0.0825 = 4.33125 -> 4.33
	assert.Equal(t, "4.33", money.String2(updated.TaxAmount))
	assert.Equal(t, "56.83", money.String2(updated.Total))

	var lineCount int64
	require.NoError(t, f.db.Model(&models.EstimateLine{}).Where("estimate_id = ?", estimate.ID).Count(&lineCount).Error)
	assert.EqualValues(t, 1, lineCount)
}

func TestSendAssignsTokenOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	estimate := f.create(t)

	sent, err := f.svc.Send(ctx, estimate.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EstimateStatusSent, sent.Status)
	require.NotNil(t, sent.PublicToken)
	token := *sent.PublicToken

	again, err := f.svc.Send(ctx, estimate.ID)
	require.NoError(t, err)
	require.NotNil(t, again.PublicToken)
	assert.Equal(t, token, *again.PublicToken)
}

func TestSendNotifiesCustomerOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	estimate := f.create(t)

	_, err := f.svc.Send(ctx, estimate.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.dispatcher.estimateSent)

	// Re-sending keeps the link stable and stays quiet.
	_, err = f.svc.Send(ctx, estimate.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.dispatcher.estimateSent)
}

func TestEditGuardsAfterApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	estimate := f.create(t)

	sent, err := f.svc.Send(ctx, estimate.ID)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, *sent.PublicToken, "203.0.113.9")
	require.NoError(t, err)

	newLines := f.standardLines()
	_, err = f.svc.Update(ctx, estimate.ID, UpdateInput{Lines: &newLines})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())

	err = f.svc.Delete(ctx, estimate.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestApproveRecordsAuditOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	estimate := f.create(t)

	sent, err := f.svc.Send(ctx, estimate.ID)
	require.NoError(t, err)
	token := *sent.PublicToken

	result, err := f.svc.Approve(ctx, token, "203.0.113.9")
	require.NoError(t, err)
	assert.False(t, result.AlreadyApproved)
	approved := result.Estimate
	assert.Equal(t, enums.EstimateStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	require.NotNil(t, approved.ApprovedIP)
	assert.Equal(t, "203.0.113.9", *approved.ApprovedIP)
	firstApprovedAt := *approved.ApprovedAt

	// Second tap on the approval button: audit untouched, replay flagged.
	repeat, err := f.svc.Approve(ctx, token, "198.51.100.7")
	require.NoError(t, err)
	assert.True(t, repeat.AlreadyApproved)
	again := repeat.Estimate
	assert.Equal(t, enums.EstimateStatusApproved, again.Status)
	require.NotNil(t, again.ApprovedAt)
	assert.True(t, again.ApprovedAt.Equal(firstApprovedAt))
	assert.Equal(t, "203.0.113.9", *again.ApprovedIP)
}

func TestApproveWithoutClientIPUsesSentinel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	estimate := f.create(t)

	sent, err := f.svc.Send(ctx, estimate.ID)
	require.NoError(t, err)

	result, err := f.svc.Approve(ctx, *sent.PublicToken, "")
	require.NoError(t, err)
	require.NotNil(t, result.Estimate.ApprovedIP)
	assert.Equal(t, "0.0.0.0", *result.Estimate.ApprovedIP)
}

func TestFindByTokenHidesDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.FindByToken(ctx, uuid.NewString())
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())

	estimate := f.create(t)
	sent, err := f.svc.Send(ctx, estimate.ID)
	require.NoError(t, err)

	found, err := f.svc.FindByToken(ctx, *sent.PublicToken)
	require.NoError(t, err)
	assert.Equal(t, estimate.ID, found.ID)
	require.NotNil(t, found.Customer)
	assert.Equal(t, "Ana Reyes", found.Customer.Name)
}

func TestListSearchesNumberAndCustomerName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t)
	second := f.create(t)

	other := models.Customer{ID: uuid.New(), Name: "Bob Okafor"}
	require.NoError(t, f.db.Create(&other).Error)
	third, err := f.svc.Create(ctx, CreateInput{
		CustomerID: other.ID,
		Lines:      f.standardLines(),
	})
	require.NoError(t, err)

	byNumber, err := f.svc.List(ctx, ListFilters{Query: second.EstimateNumber})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)
	assert.Equal(t, second.ID, byNumber[0].ID)

	byName, err := f.svc.List(ctx, ListFilters{Query: "okafor"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, third.ID, byName[0].ID)

	all, err := f.svc.List(ctx, ListFilters{Query: "est-"})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
