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

type ChartVersionRepo interface {
	Create(dbc dbctx.Context, version *types.ChartVersion) (*types.ChartVersion, error)
	CreateFields(dbc dbctx.Context, rows []*types.ChartVersionField) error
	CreateSorts(dbc dbctx.Context, rows []*types.ChartVersionSort) error
	CreateTableCalculations(dbc dbctx.Context, rows []*types.ChartVersionTableCalculation) error
	CreateCustomBinDimensions(dbc dbctx.Context, rows []*types.ChartVersionCustomBinDimension) error
	CreateCustomSQLDimensions(dbc dbctx.Context, rows []*types.ChartVersionCustomSQLDimension) error
	CreateAdditionalMetrics(dbc dbctx.Context, rows []*types.ChartVersionAdditionalMetric) error

	GetFields(dbc dbctx.Context, versionIDs []uuid.UUID) ([]*types.ChartVersionField, error)
	GetSorts(dbc dbctx.Context, versionIDs []uuid.UUID) ([]*types.ChartVersionSort, error)
	GetTableCalculations(dbc dbctx.Context, versionIDs []uuid.UUID) ([]*types.ChartVersionTableCalculation, error)
	GetCustomBinDimensions(dbc dbctx.Context, versionIDs []uuid.UUID) ([]*types.ChartVersionCustomBinDimension, error)
	GetCustomSQLDimensions(dbc dbctx.Context, versionIDs []uuid.UUID) ([]*types.ChartVersionCustomSQLDimension, error)
	GetAdditionalMetrics(dbc dbctx.Context, versionIDs []uuid.UUID) ([]*types.ChartVersionAdditionalMetric, error)

	GetLatest(dbc dbctx.Context, chartID uuid.UUID) (*types.ChartVersion, error)
	CountForChart(dbc dbctx.Context, chartID uuid.UUID) (int64, error)

	GetSummary(dbc dbctx.Context, chartID, versionID uuid.UUID) (*types.VersionSummary, error)
	ListSummariesInWindow(dbc dbctx.Context, chartID uuid.UUID, since time.Time, currentVersionID uuid.UUID) ([]types.VersionSummary, error)
	OldestSummaryExcluding(dbc dbctx.Context, chartID, excludeVersionID uuid.UUID) (*types.VersionSummary, error)
}

type chartVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChartVersionRepo(db *gorm.DB, baseLog *logger.Logger) ChartVersionRepo {
	repoLog := baseLog.With("repo", "ChartVersionRepo")
	return &chartVersionRepo{db: db, log: repoLog}
}

func (r *chartVersionRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *chartVersionRepo) Create(dbc dbctx.Context, version *types.ChartVersion) (*types.ChartVersion, error) {
	if err := r.handle(dbc).Create(version).Error; err != nil {
		return nil, err
	}
	return version, nil
}

func (r *chartVersionRepo) CreateFields(dbc dbctx.Context, rows []*types.ChartVersionField) error {
	if len(rows) == 0 {
		return nil
	}
	return r.handle(dbc).Create(&rows).Error
}

func (r *chartVersionRepo) CreateSorts(dbc dbctx.Context, rows []*types.ChartVersionSort) error {
	if len(rows) == 0 {
		return nil
	}
	return r.handle(dbc).Create(&rows).Error
}

func (r *chartVersionRepo) CreateTableCalculations(dbc dbctx.Context, rows []*types.ChartVersionTableCalculation) error {
	if len(rows) == 0 {
		return nil
	}
	return r.handle(dbc).Create(&rows).Error
}

func (r *chartVersionRepo) CreateCustomBinDimensions(dbc dbctx.Context, rows []*types.ChartVersionCustomBinDimension) error {
	if len(rows) == 0 {
		return nil
	}
	return r.handle(dbc).Create(&rows).Error
}

func (r *chartVersionRepo) CreateCustomSQLDimensions(dbc dbctx.Context, rows []*types.ChartVersionCustomSQLDimension) error {
	if len(rows) == 0 {
		return nil
	}
	return r.handle(dbc).Create(&rows).Error
}

func (r *chartVersionRepo) CreateAdditionalMetrics(dbc dbctx.Context, rows []*types.ChartVersionAdditionalMetric) error {
	if len(rows) == 0 {
		return nil
	}
	return r.handle(dbc).Create(&rows).Error
}

func (r *chartVersionRepo) GetFields(dbc dbctx.Context, versionIDs []uuid.UUID) ([]*types.ChartVersionField, error) {
	var results []*types.ChartVersionField
	if len(versionIDs) == 0 {
		return results, nil
	}
	if err := r.handle(dbc).
		Where("chart_version_id IN ?", versionIDs).
		Order("\"order\" ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chartVersionRepo) GetSorts(dbc dbctx.Context, versionIDs []uuid.UUID) ([]*types.ChartVersionSort, error) {
	var results []*types.ChartVersionSort
	if len(versionIDs) == 0 {
		return results, nil
	}
	if err := r.handle(dbc).
		Where("chart_version_id IN ?", versionIDs).
		Order("\"order\" ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chartVersionRepo) GetTableCalculations(dbc dbctx.Context, versionIDs []uuid.UUID) ([]*types.ChartVersionTableCalculation, error) {
	var results []*types.ChartVersionTableCalculation
	if len(versionIDs) == 0 {
		return results, nil
	}
	if err := r.handle(dbc).
		Where("chart_version_id IN ?", versionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chartVersionRepo) GetCustomBinDimensions(dbc dbctx.Context, versionIDs []uuid.UUID) ([]*types.ChartVersionCustomBinDimension, error) {
	var results []*types.ChartVersionCustomBinDimension
	if len(versionIDs) == 0 {
		return results, nil
	}
	if err := r.handle(dbc).
		Where("chart_version_id IN ?", versionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chartVersionRepo) GetCustomSQLDimensions(dbc dbctx.Context, versionIDs []uuid.UUID) ([]*types.ChartVersionCustomSQLDimension, error) {
	var results []*types.ChartVersionCustomSQLDimension
	if len(versionIDs) == 0 {
		return results, nil
	}
	if err := r.handle(dbc).
		Where("chart_version_id IN ?", versionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chartVersionRepo) GetAdditionalMetrics(dbc dbctx.Context, versionIDs []uuid.UUID) ([]*types.ChartVersionAdditionalMetric, error) {
	var results []*types.ChartVersionAdditionalMetric
	if len(versionIDs) == 0 {
		return results, nil
	}
	if err := r.handle(dbc).
		Where("chart_version_id IN ?", versionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetLatest resolves the most recent version by creation time, breaking
// exact-timestamp ties with the monotonic sequence.
func (r *chartVersionRepo) GetLatest(dbc dbctx.Context, chartID uuid.UUID) (*types.ChartVersion, error) {
	var version types.ChartVersion
	if err := r.handle(dbc).
		Where("chart_id = ?", chartID).
		Order("created_at DESC").
		Order("seq DESC").
		First(&version).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("latest version for chart %s: %w", chartID, pkgerrors.ErrNotFound)
		}
		return nil, err
	}
	return &version, nil
}

func (r *chartVersionRepo) CountForChart(dbc dbctx.Context, chartID uuid.UUID) (int64, error) {
	var count int64
	if err := r.handle(dbc).
		Model(&types.ChartVersion{}).
		Where("chart_id = ?", chartID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type versionSummaryRow struct {
	ChartID   uuid.UUID  `gorm:"column:chart_id"`
	VersionID uuid.UUID  `gorm:"column:version_id"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UserID    *uuid.UUID `gorm:"column:user_id"`
	FirstName *string    `gorm:"column:first_name"`
	LastName  *string    `gorm:"column:last_name"`
}

func (row versionSummaryRow) toSummary() types.VersionSummary {
	summary := types.VersionSummary{
		ChartID:   row.ChartID,
		VersionID: row.VersionID,
		CreatedAt: row.CreatedAt,
	}
	if row.UserID != nil {
		createdBy := types.UpdatedBy{UserID: *row.UserID}
		if row.FirstName != nil {
			createdBy.FirstName = *row.FirstName
		}
		if row.LastName != nil {
			createdBy.LastName = *row.LastName
		}
		summary.CreatedBy = &createdBy
	}
	return summary
}

func (r *chartVersionRepo) summaryQuery(dbc dbctx.Context) *gorm.DB {
	return r.handle(dbc).
		Table("chart_version").
		Select(`chart_version.chart_id AS chart_id,
			chart_version.id AS version_id,
			chart_version.created_at AS created_at,
			app_user.id AS user_id,
			app_user.first_name AS first_name,
			app_user.last_name AS last_name`).
		Joins("LEFT JOIN app_user ON app_user.id = chart_version.updated_by_user_id")
}

func (r *chartVersionRepo) GetSummary(dbc dbctx.Context, chartID, versionID uuid.UUID) (*types.VersionSummary, error) {
	var row versionSummaryRow
	result := r.summaryQuery(dbc).
		Where("chart_version.chart_id = ?", chartID).
		Where("chart_version.id = ?", versionID).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("version %s of chart %s: %w", versionID, chartID, pkgerrors.ErrNotFound)
	}
	summary := row.toSummary()
	return &summary, nil
}

// ListSummariesInWindow returns, oldest first, every version created at or
// after the window start plus the current version regardless of age.
func (r *chartVersionRepo) ListSummariesInWindow(dbc dbctx.Context, chartID uuid.UUID, since time.Time, currentVersionID uuid.UUID) ([]types.VersionSummary, error) {
	var rows []versionSummaryRow
	if err := r.summaryQuery(dbc).
		Where("chart_version.chart_id = ?", chartID).
		Where("chart_version.created_at >= ? OR chart_version.id = ?", since, currentVersionID).
		Order("chart_version.created_at ASC").
		Order("chart_version.seq ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	summaries := make([]types.VersionSummary, len(rows))
	for i, row := range rows {
		summaries[i] = row.toSummary()
	}
	return summaries, nil
}

// OldestSummaryExcluding returns the single oldest version that is not the
// given one, or nil when the chart has no other version.
func (r *chartVersionRepo) OldestSummaryExcluding(dbc dbctx.Context, chartID, excludeVersionID uuid.UUID) (*types.VersionSummary, error) {
	var rows []versionSummaryRow
	if err := r.summaryQuery(dbc).
		Where("chart_version.chart_id = ?", chartID).
		Where("chart_version.id <> ?", excludeVersionID).
		Order("chart_version.created_at ASC").
		Order("chart_version.seq ASC").
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	summary := rows[0].toSummary()
	return &summary, nil
}
