package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/janytree/orderdesk/internal/domain/order"
	"github.com/janytree/orderdesk/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRunRepository implements order.RunRepository using GORM
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GormRunRepository
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// Save inserts a run
func (r *GormRunRepository) Save(ctx context.Context, run *order.ReconciliationRun) error {
	if err := r.db.WithContext(ctx).Create(models.ReconciliationRunModelFromDomain(run)).Error; err != nil {
		return fmt.Errorf("failed to save reconciliation run: %w", err)
	}
	return nil
}

// FindByID finds a run by ID
func (r *GormRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.ReconciliationRun, error) {
	var model models.ReconciliationRunModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrRunNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecent returns up to limit runs, newest first
func (r *GormRunRepository) FindRecent(ctx context.Context, limit int) ([]order.ReconciliationRun, error) {
	var rows []models.ReconciliationRunModel
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	runs := make([]order.ReconciliationRun, 0, len(rows))
	for i := range rows {
		runs = append(runs, *rows[i].ToDomain())
	}
	return runs, nil
}

var _ order.RunRepository = (*GormRunRepository)(nil)
