package services

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/vizlake/vizlake-backend/internal/data/repos/charts"
	"github.com/vizlake/vizlake-backend/internal/data/repos/spaces"
	"github.com/vizlake/vizlake-backend/internal/data/repos/testutil"
	types "github.com/vizlake/vizlake-backend/internal/domain"
	pkgerrors "github.com/vizlake/vizlake-backend/internal/pkg/errors"
	"github.com/vizlake/vizlake-backend/internal/platform/dbctx"
)

func newChartService(t *testing.T, db *gorm.DB) ChartService {
	t.Helper()
	log := testutil.Logger(t)
	chartRepo := charts.NewChartRepo(db, log)
	versionRepo := charts.NewChartVersionRepo(db, log)
	readModel := charts.NewChartReadModelRepo(db, log)
	spaceRepo := spaces.NewSpaceRepo(db, log)
	slugs := NewSlugAllocator(log, chartRepo)
	return NewChartService(db, log, chartRepo, versionRepo, readModel, spaceRepo, slugs)
}

type chartFixture struct {
	org     *types.Organization
	project *types.Project
	space   *types.Space
	user    *types.User
}

func seedChartFixture(t *testing.T, ctx context.Context, tx *gorm.DB) chartFixture {
	t.Helper()
	org := testutil.SeedOrganization(t, ctx, tx)
	project := testutil.SeedProject(t, ctx, tx, org.ID)
	space := testutil.SeedSpace(t, ctx, tx, project.ID, "shared", false)
	user := testutil.SeedUser(t, ctx, tx, "analyst@example.com")
	return chartFixture{org: org, project: project, space: space, user: user}
}

func sampleCreateChart(fx chartFixture, slug string) types.CreateChart {
	return types.CreateChart{
		Name:    "Revenue by status",
		SpaceID: &fx.space.ID,
		Slug:    slug,
		CreateChartVersion: types.CreateChartVersion{
			SourceTable: "orders",
			MetricQuery: types.MetricQuery{
				Dimensions: []string{"orders_status"},
				Metrics:    []string{"orders_revenue_sum"},
				Filters:    json.RawMessage(`{"dimensions":{"id":"root","and":[]}}`),
				Sorts: []types.SortField{
					{FieldID: "orders_revenue_sum", Descending: true},
				},
				Limit: 500,
				MetricOverrides: types.MetricOverrides{
					"orders_revenue_sum": json.RawMessage(`{"round":2}`),
					"orders_missing":     json.RawMessage(`{"round":0}`),
				},
				TableCalculations: []types.TableCalculation{
					{Name: "running_total", DisplayName: "Running total", SQL: "SUM(${orders_revenue_sum}) OVER ()"},
				},
				AdditionalMetrics: []types.AdditionalMetric{
					{
						SourceTable:       "orders",
						Name:              "revenue_avg",
						Type:              "average",
						SQL:               "${TABLE}.revenue",
						BaseDimensionName: "revenue",
						Filters: []types.MetricFilterRule{
							{ID: "f1", Operator: "equals"},
						},
					},
				},
				CustomDimensions: []types.CustomDimension{
					{
						ID:          "orders_amount_bins",
						Name:        "Amount bins",
						Type:        types.CustomDimensionTypeBin,
						SourceTable: "orders",
						DimensionID: "orders_amount",
						BinType:     types.BinTypeFixedNumber,
						BinNumber:   intPtr(5),
					},
					{
						ID:            "orders_region_upper",
						Name:          "Region upper",
						Type:          types.CustomDimensionTypeSQL,
						SourceTable:   "orders",
						SQL:           "UPPER(${orders.region})",
						DimensionType: "string",
					},
				},
				Timezone: "UTC",
			},
			ChartConfig: types.ChartConfig{
				Type:   types.ChartTypeCartesian,
				Config: json.RawMessage(`{"layout":{"flipAxes":false}}`),
			},
			TableConfig: types.TableConfig{
				ColumnOrder: []string{
					"orders_status",
					"orders_revenue_sum",
					"running_total",
					"orders_amount_bins",
					"orders_region_upper",
				},
			},
			PivotConfig:     &types.PivotConfig{Columns: []string{"orders_status"}},
			UpdatedByUserID: &fx.user.ID,
		},
	}
}

func intPtr(v int) *int { return &v }

func timeDaysAgo(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -days)
}

func TestChartServiceRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newChartService(t, db)

	fx := seedChartFixture(t, ctx, tx)
	testutil.SeedColorPalette(t, ctx, tx, fx.org.ID, `["#111111","#222222"]`)

	input := sampleCreateChart(fx, "revenue-by-status")
	doc, err := svc.Create(dbc, fx.project.ID, fx.user.ID, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if doc.Slug != "revenue-by-status" {
		t.Fatalf("expected slug kept, got %q", doc.Slug)
	}
	if doc.SpaceID != fx.space.ID || doc.DashboardID != nil {
		t.Fatalf("expected space container, got space=%s dashboard=%v", doc.SpaceID, doc.DashboardID)
	}
	if doc.SourceTable != "orders" {
		t.Fatalf("expected source table kept, got %q", doc.SourceTable)
	}

	query := doc.MetricQuery
	if !reflect.DeepEqual(query.Dimensions, []string{"orders_status"}) {
		t.Fatalf("unexpected dimensions %v", query.Dimensions)
	}
	if !reflect.DeepEqual(query.Metrics, []string{"orders_revenue_sum"}) {
		t.Fatalf("unexpected metrics %v", query.Metrics)
	}
	if !reflect.DeepEqual(query.Sorts, input.MetricQuery.Sorts) {
		t.Fatalf("unexpected sorts %+v", query.Sorts)
	}
	if query.Limit != 500 {
		t.Fatalf("unexpected limit %d", query.Limit)
	}
	if query.Timezone != "UTC" {
		t.Fatalf("unexpected timezone %q", query.Timezone)
	}

	// The override for the absent metric is dropped at write time.
	if len(query.MetricOverrides) != 1 {
		t.Fatalf("expected 1 override, got %v", query.MetricOverrides)
	}
	if _, ok := query.MetricOverrides["orders_revenue_sum"]; !ok {
		t.Fatal("expected override for orders_revenue_sum kept")
	}

	if len(query.TableCalculations) != 1 || query.TableCalculations[0].Name != "running_total" {
		t.Fatalf("unexpected table calculations %+v", query.TableCalculations)
	}
	if len(query.CustomDimensions) != 2 {
		t.Fatalf("expected 2 custom dimensions, got %+v", query.CustomDimensions)
	}
	if len(query.AdditionalMetrics) != 1 {
		t.Fatalf("expected 1 additional metric, got %+v", query.AdditionalMetrics)
	}
	metric := query.AdditionalMetrics[0]
	if metric.BaseDimensionName != "revenue" {
		t.Fatalf("expected base dimension kept, got %+v", metric)
	}
	if len(metric.Filters) != 1 || metric.Filters[0].ID != "f1" {
		t.Fatalf("expected metric filters kept, got %+v", metric.Filters)
	}

	if !reflect.DeepEqual(doc.TableConfig.ColumnOrder, input.TableConfig.ColumnOrder) {
		t.Fatalf("expected column order %v, got %v", input.TableConfig.ColumnOrder, doc.TableConfig.ColumnOrder)
	}
	if doc.PivotConfig == nil || !reflect.DeepEqual(doc.PivotConfig.Columns, []string{"orders_status"}) {
		t.Fatalf("unexpected pivot config %+v", doc.PivotConfig)
	}

	if doc.UpdatedBy == nil || doc.UpdatedBy.UserID != fx.user.ID {
		t.Fatalf("expected author attached, got %+v", doc.UpdatedBy)
	}
	if !reflect.DeepEqual(doc.ColorPalette, []string{"#111111", "#222222"}) {
		t.Fatalf("expected org palette, got %v", doc.ColorPalette)
	}
}

func TestChartServiceOrderInvariant(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newChartService(t, db)
	fx := seedChartFixture(t, ctx, tx)

	input := types.CreateChart{
		Name:    "ordered",
		SpaceID: &fx.space.ID,
		Slug:    "ordered",
		CreateChartVersion: types.CreateChartVersion{
			SourceTable: "orders",
			MetricQuery: types.MetricQuery{
				Dimensions: []string{"a"},
				Metrics:    []string{"b"},
				Limit:      10,
			},
			ChartConfig: types.ChartConfig{Type: types.ChartTypeTable},
			TableConfig: types.TableConfig{ColumnOrder: []string{"b", "a"}},
		},
	}
	doc, err := svc.Create(dbc, fx.project.ID, fx.user.ID, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !reflect.DeepEqual(doc.TableConfig.ColumnOrder, []string{"b", "a"}) {
		t.Fatalf("expected [b a], got %v", doc.TableConfig.ColumnOrder)
	}
}

func TestChartServiceDefaultContainer(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newChartService(t, db)
	fx := seedChartFixture(t, ctx, tx)

	input := sampleCreateChart(fx, "defaulted")
	input.SpaceID = nil

	doc, err := svc.Create(dbc, fx.project.ID, fx.user.ID, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.SpaceID != fx.space.ID {
		t.Fatalf("expected first accessible space, got %s", doc.SpaceID)
	}

	// An explicit space outside the project does not resolve.
	otherProject := testutil.SeedProject(t, ctx, tx, fx.org.ID)
	foreign := testutil.SeedSpace(t, ctx, tx, otherProject.ID, "foreign", false)
	input = sampleCreateChart(fx, "foreign-space")
	input.SpaceID = &foreign.ID
	if _, err := svc.Create(dbc, fx.project.ID, fx.user.ID, input); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChartServiceContainerExclusivity(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newChartService(t, db)
	fx := seedChartFixture(t, ctx, tx)

	dashboard := testutil.SeedDashboard(t, ctx, tx, fx.space.ID, "dash")
	target := testutil.SeedSpace(t, ctx, tx, fx.project.ID, "target", false)

	input := sampleCreateChart(fx, "embedded")
	input.SpaceID = nil
	input.DashboardID = &dashboard.ID

	doc, err := svc.Create(dbc, fx.project.ID, fx.user.ID, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.DashboardID == nil || *doc.DashboardID != dashboard.ID {
		t.Fatalf("expected dashboard container, got %+v", doc.DashboardID)
	}

	if err := svc.MoveToSpace(dbc, doc.ID, &target.ID); err != nil {
		t.Fatalf("move: %v", err)
	}
	moved, err := svc.Get(dbc, doc.ID, nil)
	if err != nil {
		t.Fatalf("get after move: %v", err)
	}
	if moved.DashboardID != nil {
		t.Fatal("expected dashboard reference cleared after move")
	}
	if moved.SpaceID != target.ID {
		t.Fatalf("expected space %s, got %s", target.ID, moved.SpaceID)
	}
}

func TestChartServiceMoveRejection(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newChartService(t, db)
	fx := seedChartFixture(t, ctx, tx)

	doc, err := svc.Create(dbc, fx.project.ID, fx.user.ID, sampleCreateChart(fx, "stationary"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.MoveToSpace(dbc, doc.ID, nil); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	unchanged, err := svc.Get(dbc, doc.ID, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if unchanged.SpaceID != fx.space.ID || unchanged.DashboardID != nil {
		t.Fatalf("expected container unchanged, got %+v", unchanged)
	}

	// Cross-project move target does not resolve.
	otherProject := testutil.SeedProject(t, ctx, tx, fx.org.ID)
	foreign := testutil.SeedSpace(t, ctx, tx, otherProject.ID, "foreign", false)
	if err := svc.MoveToSpace(dbc, doc.ID, &foreign.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChartServiceVersionHistoryRetention(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newChartService(t, db)
	fx := seedChartFixture(t, ctx, tx)

	chart := testutil.SeedChart(t, ctx, tx, &fx.space.ID, nil, "stagnant", "stagnant")

	// Five versions, all outside the retention window, so only the newest
	// survives the window query. Expect the newest plus the single oldest.
	versionRepo := charts.NewChartVersionRepo(db, testutil.Logger(t))
	var newest, oldest *types.ChartVersion
	for i := 0; i < 5; i++ {
		v := testutil.SeedChartVersion(t, ctx, tx, chart.ID, "orders", timeDaysAgo(30-i))
		if i == 0 {
			oldest = v
		}
		newest = v
	}

	history, err := svc.GetVersionHistory(dbc, chart.ID)
	if err != nil {
		t.Fatalf("version history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(history), history)
	}
	if history[0].VersionID != newest.ID {
		t.Fatalf("expected newest first, got %+v", history[0])
	}
	if history[1].VersionID != oldest.ID {
		t.Fatalf("expected single oldest appended, got %+v", history[1])
	}

	// A single-version chart returns exactly that version.
	single := testutil.SeedChart(t, ctx, tx, &fx.space.ID, nil, "single", "single")
	only := testutil.SeedChartVersion(t, ctx, tx, single.ID, "orders", timeDaysAgo(40))
	history, err = svc.GetVersionHistory(dbc, single.ID)
	if err != nil {
		t.Fatalf("version history: %v", err)
	}
	if len(history) != 1 || history[0].VersionID != only.ID {
		t.Fatalf("expected exactly the only version, got %+v", history)
	}

	// Sanity: the repo still sees the seeded count.
	count, err := versionRepo.CountForChart(dbc, chart.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5 versions, got %d", count)
	}
}

func TestChartServiceCreateVersionAtomicity(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newChartService(t, db)
	fx := seedChartFixture(t, ctx, tx)

	doc, err := svc.Create(dbc, fx.project.ID, fx.user.ID, sampleCreateChart(fx, "atomic"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	versionRepo := charts.NewChartVersionRepo(db, testutil.Logger(t))
	before, err := versionRepo.CountForChart(dbc, doc.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}

	// Two bin dimensions sharing one id violate the per-version unique
	// index; the whole version write must roll back.
	bad := sampleCreateChart(fx, "unused").CreateChartVersion
	bad.MetricQuery.CustomDimensions = []types.CustomDimension{
		{
			ID: "dup", Name: "dup one", Type: types.CustomDimensionTypeBin,
			SourceTable: "orders", DimensionID: "orders_amount",
			BinType: types.BinTypeFixedNumber, BinNumber: intPtr(3),
		},
		{
			ID: "dup", Name: "dup two", Type: types.CustomDimensionTypeBin,
			SourceTable: "orders", DimensionID: "orders_amount",
			BinType: types.BinTypeFixedNumber, BinNumber: intPtr(4),
		},
	}
	if _, err := svc.CreateVersion(dbc, doc.ID, bad); err == nil {
		t.Fatal("expected version write to fail")
	}

	after, err := versionRepo.CountForChart(dbc, doc.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if after != before {
		t.Fatalf("expected version count unchanged (%d), got %d", before, after)
	}
	latest, err := versionRepo.GetLatest(dbc, doc.ID)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if latest.ID != doc.VersionID {
		t.Fatalf("expected latest version unchanged, got %s", latest.ID)
	}

	// A malformed variant tag is rejected before touching storage.
	bad.MetricQuery.CustomDimensions = []types.CustomDimension{
		{ID: "x", Name: "x", Type: "unknown", SourceTable: "orders"},
	}
	if _, err := svc.CreateVersion(dbc, doc.ID, bad); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestChartServiceUpdateAndDelete(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newChartService(t, db)
	fx := seedChartFixture(t, ctx, tx)

	doc, err := svc.Create(dbc, fx.project.ID, fx.user.ID, sampleCreateChart(fx, "mutable"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newName := "Renamed chart"
	newDescription := "now with a description"
	summary, err := svc.Update(dbc, doc.ID, types.UpdateChart{Name: &newName, Description: &newDescription})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if summary.Name != newName {
		t.Fatalf("expected renamed summary, got %q", summary.Name)
	}
	if summary.Description == nil || *summary.Description != newDescription {
		t.Fatalf("expected description set, got %v", summary.Description)
	}

	snapshot, err := svc.Delete(dbc, doc.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if snapshot.ID != doc.ID || snapshot.Name != newName {
		t.Fatalf("expected pre-delete snapshot, got %+v", snapshot)
	}
	if _, err := svc.Get(dbc, doc.ID, nil); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestChartServiceSpecificVersion(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newChartService(t, db)
	fx := seedChartFixture(t, ctx, tx)

	doc, err := svc.Create(dbc, fx.project.ID, fx.user.ID, sampleCreateChart(fx, "versioned"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	firstVersionID := doc.VersionID

	second := sampleCreateChart(fx, "unused").CreateChartVersion
	second.SourceTable = "payments"
	second.MetricQuery.Dimensions = []string{"payments_method"}
	second.MetricQuery.Metrics = []string{"payments_total"}
	second.MetricQuery.MetricOverrides = nil
	second.MetricQuery.AdditionalMetrics = nil
	second.MetricQuery.CustomDimensions = nil
	second.MetricQuery.TableCalculations = nil
	second.TableConfig.ColumnOrder = []string{"payments_method", "payments_total"}

	updated, err := svc.CreateVersion(dbc, doc.ID, second)
	if err != nil {
		t.Fatalf("create version: %v", err)
	}
	if updated.VersionID == firstVersionID {
		t.Fatal("expected a new version id")
	}
	if updated.SourceTable != "payments" {
		t.Fatalf("expected latest version returned, got %q", updated.SourceTable)
	}

	// The original version stays reachable by id.
	old, err := svc.Get(dbc, doc.ID, &firstVersionID)
	if err != nil {
		t.Fatalf("get specific version: %v", err)
	}
	if old.VersionID != firstVersionID || old.SourceTable != "orders" {
		t.Fatalf("expected the original version, got %+v", old)
	}

	vs, err := svc.GetVersionSummary(dbc, doc.ID, firstVersionID)
	if err != nil {
		t.Fatalf("get version summary: %v", err)
	}
	if vs.VersionID != firstVersionID || vs.ChartID != doc.ID {
		t.Fatalf("unexpected version summary %+v", vs)
	}
	if vs.CreatedBy == nil || vs.CreatedBy.UserID != fx.user.ID {
		t.Fatalf("expected author on version summary, got %+v", vs.CreatedBy)
	}
}
