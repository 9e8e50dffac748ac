package estimates

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	"github.com/shopflow-app/shopflow-backend/pkg/enums"
)

// Repository defines persistence operations for estimates and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, estimate *models.Estimate) (*models.Estimate, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	FindByToken(ctx context.Context, token string) (*models.Estimate, error)
	List(ctx context.Context, filters ListFilters) ([]models.Estimate, error)
	Save(ctx context.Context, estimate *models.Estimate) error
	ReplaceLines(ctx context.Context, estimateID uuid.UUID, lines []models.EstimateLine) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context, status enums.EstimateStatus) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an estimates repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, estimate *models.Estimate) (*models.Estimate, error) {
	if err := r.db.WithContext(ctx).Create(estimate).Error; err != nil {
		return nil, err
	}
	return estimate, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	var estimate models.Estimate
	err := r.db.WithContext(ctx).
		Preload("Lines", orderLines).
		Preload("Customer").
		Preload("Unit").
		Preload("Invoice").
		Where("id = ?", id).
		First(&estimate).Error
	if err != nil {
		return nil, err
	}
	return &estimate, nil
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.Estimate, error) {
	var estimate models.Estimate
	err := r.db.WithContext(ctx).
		Preload("Lines", orderLines).
		Preload("Customer").
		Preload("Unit").
		Where("public_token = ?", token).
		First(&estimate).Error
	if err != nil {
		return nil, err
	}
	return &estimate, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.Estimate, error) {
	query := r.db.WithContext(ctx).Model(&models.Estimate{}).Preload("Customer")
	if filters.Status != nil {
		query = query.Where("estimates.status = ?", *filters.Status)
	}
	if filters.CustomerID != nil {
		query = query.Where("estimates.customer_id = ?", *filters.CustomerID)
	}
	if filters.Query != "" {
		pattern := "%" + strings.ToLower(filters.Query) + "%"
		query = query.
			Joins("LEFT JOIN customers ON customers.id = estimates.customer_id").
			Where("LOWER(estimates.estimate_number) LIKE ? OR LOWER(customers.name) LIKE ?", pattern, pattern)
	}
	var estimates []models.Estimate
	if err := query.Order("estimates.created_at DESC").Find(&estimates).Error; err != nil {
		return nil, err
	}
	return estimates, nil
}

func (r *repository) Save(ctx context.Context, estimate *models.Estimate) error {
	// Preloaded associations are read-only here; only the estimate row moves.
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(estimate).Error
}

// ReplaceLines swaps the full line set: edits always delete and reinsert, so
// line rows never mutate in place.
func (r *repository) ReplaceLines(ctx context.Context, estimateID uuid.UUID, lines []models.EstimateLine) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("estimate_id = ?", estimateID).Delete(&models.EstimateLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return db.Create(&lines).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("estimate_id = ?", id).Delete(&models.EstimateLine{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Estimate{}, "id = ?", id).Error
}

func (r *repository) CountByStatus(ctx context.Context, status enums.EstimateStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Estimate{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}
