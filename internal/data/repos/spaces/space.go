package spaces

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/vizlake/vizlake-backend/internal/domain"
	pkgerrors "github.com/vizlake/vizlake-backend/internal/pkg/errors"
	"github.com/vizlake/vizlake-backend/internal/platform/dbctx"
	"github.com/vizlake/vizlake-backend/internal/platform/logger"
)

type SpaceRepo interface {
	GetByID(dbc dbctx.Context, spaceID uuid.UUID) (*types.Space, error)
	GetWithinProject(dbc dbctx.Context, spaceID, projectID uuid.UUID) (*types.Space, error)
	GetFirstAccessible(dbc dbctx.Context, projectID, userID uuid.UUID) (*types.Space, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Space, error)
}

type spaceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSpaceRepo(db *gorm.DB, baseLog *logger.Logger) SpaceRepo {
	repoLog := baseLog.With("repo", "SpaceRepo")
	return &spaceRepo{db: db, log: repoLog}
}

func (r *spaceRepo) GetByID(dbc dbctx.Context, spaceID uuid.UUID) (*types.Space, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var space types.Space
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", spaceID).
		First(&space).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("space %s: %w", spaceID, pkgerrors.ErrNotFound)
		}
		return nil, err
	}
	return &space, nil
}

func (r *spaceRepo) GetWithinProject(dbc dbctx.Context, spaceID, projectID uuid.UUID) (*types.Space, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var space types.Space
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND project_id = ?", spaceID, projectID).
		First(&space).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("space %s in project %s: %w", spaceID, projectID, pkgerrors.ErrNotFound)
		}
		return nil, err
	}
	return &space, nil
}

// GetFirstAccessible picks the oldest space in the project the user can see:
// a public space or one the user created.
func (r *spaceRepo) GetFirstAccessible(dbc dbctx.Context, projectID, userID uuid.UUID) (*types.Space, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var space types.Space
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Where("is_private = false OR created_by_user_id = ?", userID).
		Order("created_at ASC").
		First(&space).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("accessible space in project %s: %w", projectID, pkgerrors.ErrNotFound)
		}
		return nil, err
	}
	return &space, nil
}

func (r *spaceRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Space, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Space
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
