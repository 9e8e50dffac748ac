package units

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopflow-app/shopflow-backend/internal/testutil"
	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB, models.Customer) {
	t.Helper()
	db := testutil.OpenDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)

	email := "owner@example.com"
	customer := models.Customer{ID: uuid.New(), Name: "Ana Reyes", Email: &email}
	require.NoError(t, db.Create(&customer).Error)
	return svc, db, customer
}

func TestCreateUppercasesVIN(t *testing.T) {
	svc, _, customer := newTestService(t)

	unit, err := svc.Create(context.Background(), CreateInput{
		CustomerID: customer.ID,
		VIN:        "1hgcm82633a004352",
		Make:       "Honda",
		Model:      "Accord",
	})
	require.NoError(t, err)
	assert.Equal(t, "1HGCM82633A004352", unit.VIN)
}

func TestCreateRejectsDuplicateVIN(t *testing.T) {
	svc, _, customer := newTestService(t)
	ctx := context.Background()

	input := CreateInput{
		CustomerID: customer.ID,
		VIN:        "1HGCM82633A004352",
		Make:       "Honda",
		Model:      "Accord",
	}
	_, err := svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = svc.Create(ctx, input)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestCreateUnknownCustomer(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		CustomerID: uuid.New(),
		VIN:        "1HGCM82633A004352",
		Make:       "Honda",
		Model:      "Accord",
	})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestUpdateLeavesVINUntouched(t *testing.T) {
	svc, _, customer := newTestService(t)
	ctx := context.Background()

	unit, err := svc.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		VIN:        "1HGCM82633A004352",
		Make:       "Honda",
		Model:      "Accord",
		Mileage:    42000,
	})
	require.NoError(t, err)

	mileage := 43250
	updated, err := svc.Update(ctx, unit.ID, UpdateInput{Mileage: &mileage})
	require.NoError(t, err)
	assert.Equal(t, 43250, updated.Mileage)
	assert.Equal(t, "1HGCM82633A004352", updated.VIN)
}

func TestListByCustomer(t *testing.T) {
	svc, db, customer := newTestService(t)
	ctx := context.Background()

	email := "other@example.com"
	other := models.Customer{ID: uuid.New(), Name: "Bo Chen", Email: &email}
	require.NoError(t, db.Create(&other).Error)

	_, err := svc.Create(ctx, CreateInput{CustomerID: customer.ID, VIN: "1HGCM82633A004352", Make: "Honda", Model: "Accord"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{CustomerID: other.ID, VIN: "5YJ3E1EA7KF317000", Make: "Tesla", Model: "Model 3"})
	require.NoError(t, err)

	units, err := svc.ListByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	if assert.Len(t, units, 1) {
		assert.Equal(t, "1HGCM82633A004352", units[0].VIN)
	}
}
