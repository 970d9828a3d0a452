package charts

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/vizlake/vizlake-backend/internal/domain"
	pkgerrors "github.com/vizlake/vizlake-backend/internal/pkg/errors"
	"github.com/vizlake/vizlake-backend/internal/platform/dbctx"
	"github.com/vizlake/vizlake-backend/internal/platform/logger"
)

type ChartRepo interface {
	Create(dbc dbctx.Context, chart *types.Chart) (*types.Chart, error)
	GetByID(dbc dbctx.Context, chartID uuid.UUID) (*types.Chart, error)
	GetByIDs(dbc dbctx.Context, chartIDs []uuid.UUID) ([]*types.Chart, error)
	SlugExists(dbc dbctx.Context, slug string) (bool, error)
	UpdateFields(dbc dbctx.Context, chartID uuid.UUID, fields map[string]interface{}) error
	UpdateLastVersion(dbc dbctx.Context, chartID uuid.UUID, chartKind string, updatedAt time.Time, userID *uuid.UUID) error
	MoveToSpace(dbc dbctx.Context, chartID uuid.UUID, spaceID uuid.UUID) error
	FullDeleteByID(dbc dbctx.Context, chartID uuid.UUID) error
}

type chartRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChartRepo(db *gorm.DB, baseLog *logger.Logger) ChartRepo {
	repoLog := baseLog.With("repo", "ChartRepo")
	return &chartRepo{db: db, log: repoLog}
}

func (r *chartRepo) Create(dbc dbctx.Context, chart *types.Chart) (*types.Chart, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(dbc.Ctx).Create(chart).Error; err != nil {
		return nil, err
	}
	return chart, nil
}

func (r *chartRepo) GetByID(dbc dbctx.Context, chartID uuid.UUID) (*types.Chart, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var chart types.Chart
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", chartID).
		First(&chart).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("chart %s: %w", chartID, pkgerrors.ErrNotFound)
		}
		return nil, err
	}
	return &chart, nil
}

func (r *chartRepo) GetByIDs(dbc dbctx.Context, chartIDs []uuid.UUID) ([]*types.Chart, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Chart
	if len(chartIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", chartIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chartRepo) SlugExists(dbc dbctx.Context, slug string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Chart{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *chartRepo) UpdateFields(dbc dbctx.Context, chartID uuid.UUID, fields map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fields) == 0 {
		return nil
	}

	return transaction.WithContext(dbc.Ctx).
		Model(&types.Chart{}).
		Where("id = ?", chartID).
		Updates(fields).Error
}

func (r *chartRepo) UpdateLastVersion(dbc dbctx.Context, chartID uuid.UUID, chartKind string, updatedAt time.Time, userID *uuid.UUID) error {
	return r.UpdateFields(dbc, chartID, map[string]interface{}{
		"last_version_chart_kind":         chartKind,
		"last_version_updated_at":         updatedAt,
		"last_version_updated_by_user_id": userID,
	})
}

// MoveToSpace sets the space reference and clears the dashboard reference in
// one update. The chart id is unique, so anything but exactly one affected
// row is an integrity failure.
func (r *chartRepo) MoveToSpace(dbc dbctx.Context, chartID uuid.UUID, spaceID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(dbc.Ctx).
		Model(&types.Chart{}).
		Where("id = ?", chartID).
		Updates(map[string]interface{}{
			"space_id":     spaceID,
			"dashboard_id": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		r.log.Error("MoveToSpace affected unexpected row count", "chart_id", chartID, "rows", result.RowsAffected)
		return fmt.Errorf("move chart %s: affected %d rows: %w", chartID, result.RowsAffected, pkgerrors.ErrIntegrity)
	}
	return nil
}

func (r *chartRepo) FullDeleteByID(dbc dbctx.Context, chartID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(dbc.Ctx).
		Where("id = ?", chartID).
		Delete(&types.Chart{}).Error
}
