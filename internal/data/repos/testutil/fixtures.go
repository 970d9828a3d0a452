package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/vizlake/vizlake-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedOrganization(tb testing.TB, ctx context.Context, tx *gorm.DB) *types.Organization {
	tb.Helper()
	o := &types.Organization{
		ID:   uuid.New(),
		Name: "org",
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed organization: %v", err)
	}
	return o
}

func SeedColorPalette(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, colors string) *types.OrganizationColorPalette {
	tb.Helper()
	p := &types.OrganizationColorPalette{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           "palette",
		Colors:         datatypes.JSON([]byte(colors)),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed color palette: %v", err)
	}
	if err := tx.WithContext(ctx).
		Model(&types.Organization{}).
		Where("id = ?", orgID).
		Update("color_palette_id", p.ID).Error; err != nil {
		tb.Fatalf("assign color palette: %v", err)
	}
	return p
}

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID) *types.Project {
	tb.Helper()
	p := &types.Project{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           "project",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedSpace(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, name string, isPrivate bool) *types.Space {
	tb.Helper()
	s := &types.Space{
		ID:        uuid.New(),
		ProjectID: projectID,
		Name:      name,
		IsPrivate: isPrivate,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed space: %v", err)
	}
	return s
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedDashboard(tb testing.TB, ctx context.Context, tx *gorm.DB, spaceID uuid.UUID, name string) *types.Dashboard {
	tb.Helper()
	d := &types.Dashboard{
		ID:      uuid.New(),
		SpaceID: spaceID,
		Name:    name,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed dashboard: %v", err)
	}
	return d
}

// SeedDashboardVersion snapshots a dashboard layout referencing the given
// charts as tiles.
func SeedDashboardVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, dashboardID uuid.UUID, tileChartIDs ...uuid.UUID) *types.DashboardVersion {
	tb.Helper()
	v := &types.DashboardVersion{
		ID:          uuid.New(),
		DashboardID: dashboardID,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed dashboard version: %v", err)
	}
	for _, chartID := range tileChartIDs {
		tile := &types.DashboardTileChart{
			ID:                 uuid.New(),
			DashboardVersionID: v.ID,
			ChartID:            chartID,
		}
		if err := tx.WithContext(ctx).Create(tile).Error; err != nil {
			tb.Fatalf("seed dashboard tile: %v", err)
		}
	}
	return v
}

func SeedPinnedList(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID) *types.PinnedList {
	tb.Helper()
	l := &types.PinnedList{
		ID:        uuid.New(),
		ProjectID: projectID,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed pinned list: %v", err)
	}
	return l
}

func SeedPinnedChart(tb testing.TB, ctx context.Context, tx *gorm.DB, listID, chartID uuid.UUID) *types.PinnedChart {
	tb.Helper()
	p := &types.PinnedChart{
		ID:           uuid.New(),
		PinnedListID: listID,
		ChartID:      chartID,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed pinned chart: %v", err)
	}
	return p
}

func SeedChart(tb testing.TB, ctx context.Context, tx *gorm.DB, spaceID, dashboardID *uuid.UUID, name, slug string) *types.Chart {
	tb.Helper()
	c := &types.Chart{
		ID:                   uuid.New(),
		SpaceID:              spaceID,
		DashboardID:          dashboardID,
		Name:                 name,
		Slug:                 slug,
		LastVersionChartKind: types.ChartKindVerticalBar,
		LastVersionUpdatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed chart: %v", err)
	}
	return c
}

func SeedChartVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, chartID uuid.UUID, sourceTable string, createdAt time.Time) *types.ChartVersion {
	tb.Helper()
	v := &types.ChartVersion{
		ID:              uuid.New(),
		ChartID:         chartID,
		SourceTable:     sourceTable,
		RowLimit:        500,
		Filters:         datatypes.JSON([]byte(`{}`)),
		ChartType:       "cartesian",
		ChartConfig:     datatypes.JSON([]byte(`{}`)),
		PivotDimensions: datatypes.JSON([]byte(`[]`)),
		Parameters:      datatypes.JSON([]byte(`{}`)),
		CreatedAt:       createdAt,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed chart version: %v", err)
	}
	return v
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

func PtrString(v string) *string { return &v }
