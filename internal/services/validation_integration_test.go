package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vizlake/vizlake-backend/internal/data/repos/charts"
	"github.com/vizlake/vizlake-backend/internal/data/repos/testutil"
	types "github.com/vizlake/vizlake-backend/internal/domain"
	"github.com/vizlake/vizlake-backend/internal/platform/dbctx"
)

func newValidationService(t *testing.T, db *gorm.DB) ValidationService {
	t.Helper()
	log := testutil.Logger(t)
	readModel := charts.NewChartReadModelRepo(db, log)
	versionRepo := charts.NewChartVersionRepo(db, log)
	return NewValidationService(log, readModel, versionRepo)
}

func findSet(sets []types.ReferenceSet, chartID uuid.UUID) *types.ReferenceSet {
	for i := range sets {
		if sets[i].ChartID == chartID {
			return &sets[i]
		}
	}
	return nil
}

func TestValidationServiceReferenceAggregation(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	chartSvc := newChartService(t, db)
	svc := newValidationService(t, db)
	fx := seedChartFixture(t, ctx, tx)

	doc, err := chartSvc.Create(dbc, fx.project.ID, fx.user.ID, sampleCreateChart(fx, "validated"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sets, err := svc.FindChartsForValidation(dbc, fx.project.ID)
	if err != nil {
		t.Fatalf("find charts for validation: %v", err)
	}
	set := findSet(sets, doc.ID)
	if set == nil {
		t.Fatalf("expected chart %s in validation results", doc.ID)
	}

	assertStrings(t, "dimensions", set.Dimensions, []string{"orders_status"})
	assertStrings(t, "metrics", set.Metrics, []string{"orders_revenue_sum"})
	assertStrings(t, "table calculations", set.TableCalculations, []string{"running_total"})
	assertStrings(t, "custom metrics", set.CustomMetrics, []string{"orders_revenue_avg"})
	assertStrings(t, "custom metric base dimensions", set.CustomMetricsBaseDimensions, []string{"orders_revenue"})
	assertStrings(t, "custom bin dimensions", set.CustomBinDimensions, []string{"orders_amount_bins"})
	assertStrings(t, "custom sql dimensions", set.CustomSQLDimensions, []string{"orders_region_upper"})
	assertStrings(t, "sorts", set.Sorts, []string{"orders_revenue_sum"})
	if len(set.CustomMetricsFilters) != 1 || set.CustomMetricsFilters[0].ID != "f1" {
		t.Fatalf("expected custom metric filters flattened, got %+v", set.CustomMetricsFilters)
	}

	// ExtractReferences scoped by id yields the same projection.
	scoped, err := svc.ExtractReferences(dbc, []uuid.UUID{doc.ID})
	if err != nil {
		t.Fatalf("extract references: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ChartID != doc.ID {
		t.Fatalf("expected one scoped set, got %+v", scoped)
	}

	// Only the latest version counts: a second version replaces the
	// projection entirely.
	second := sampleCreateChart(fx, "unused").CreateChartVersion
	second.MetricQuery.Dimensions = []string{"orders_region"}
	second.MetricQuery.Metrics = []string{"orders_count"}
	second.MetricQuery.MetricOverrides = nil
	second.MetricQuery.AdditionalMetrics = nil
	second.MetricQuery.CustomDimensions = nil
	second.MetricQuery.TableCalculations = nil
	second.MetricQuery.Sorts = nil
	second.TableConfig.ColumnOrder = []string{"orders_region", "orders_count"}
	if _, err := chartSvc.CreateVersion(dbc, doc.ID, second); err != nil {
		t.Fatalf("create version: %v", err)
	}

	sets, err = svc.FindChartsForValidation(dbc, fx.project.ID)
	if err != nil {
		t.Fatalf("find charts for validation: %v", err)
	}
	set = findSet(sets, doc.ID)
	if set == nil {
		t.Fatal("expected chart still present")
	}
	assertStrings(t, "dimensions after new version", set.Dimensions, []string{"orders_region"})
	if len(set.CustomMetrics) != 0 {
		t.Fatalf("expected no custom metrics on latest version, got %v", set.CustomMetrics)
	}
}

func TestValidationServiceStaleEmbeddedChartExclusion(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	chartSvc := newChartService(t, db)
	svc := newValidationService(t, db)
	fx := seedChartFixture(t, ctx, tx)

	dashboard := testutil.SeedDashboard(t, ctx, tx, fx.space.ID, "dash")

	makeEmbedded := func(slug string) *types.ChartDocument {
		input := sampleCreateChart(fx, slug)
		input.SpaceID = nil
		input.DashboardID = &dashboard.ID
		doc, err := chartSvc.Create(dbc, fx.project.ID, fx.user.ID, input)
		if err != nil {
			t.Fatalf("create %s: %v", slug, err)
		}
		return doc
	}
	live := makeEmbedded("live-tile")
	stale := makeEmbedded("stale-tile")
	standalone, err := chartSvc.Create(dbc, fx.project.ID, fx.user.ID, sampleCreateChart(fx, "standalone"))
	if err != nil {
		t.Fatalf("create standalone: %v", err)
	}

	// First layout references both charts; the latest references only one.
	testutil.SeedDashboardVersion(t, ctx, tx, dashboard.ID, live.ID, stale.ID)
	testutil.SeedDashboardVersion(t, ctx, tx, dashboard.ID, live.ID)

	sets, err := svc.FindChartsForValidation(dbc, fx.project.ID)
	if err != nil {
		t.Fatalf("find charts for validation: %v", err)
	}
	if findSet(sets, live.ID) == nil {
		t.Error("expected live embedded chart included")
	}
	if findSet(sets, standalone.ID) == nil {
		t.Error("expected standalone chart included")
	}
	if findSet(sets, stale.ID) != nil {
		t.Error("expected stale embedded chart excluded")
	}
}

func TestValidationServiceDuplicateMetricFilters(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	chartSvc := newChartService(t, db)
	svc := newValidationService(t, db)
	fx := seedChartFixture(t, ctx, tx)

	shared := types.MetricFilterRule{ID: "shared", Operator: "equals"}
	shared.Target.FieldRef = "orders_status"
	distinct := types.MetricFilterRule{ID: "distinct", Operator: "notEquals"}
	distinct.Target.FieldRef = "orders_region"

	metric := func(name string, filters ...types.MetricFilterRule) types.AdditionalMetric {
		return types.AdditionalMetric{
			SourceTable: "orders",
			Name:        name,
			Type:        "sum",
			SQL:         "${TABLE}.amount",
			Filters:     filters,
		}
	}

	input := sampleCreateChart(fx, "filtered")
	input.MetricQuery.AdditionalMetrics = []types.AdditionalMetric{
		metric("amount_a", shared),
		metric("amount_b", shared),
		metric("amount_c", distinct),
	}
	doc, err := chartSvc.Create(dbc, fx.project.ID, fx.user.ID, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sets, err := svc.ExtractReferences(dbc, []uuid.UUID{doc.ID})
	if err != nil {
		t.Fatalf("extract references: %v", err)
	}
	set := findSet(sets, doc.ID)
	if set == nil {
		t.Fatal("expected chart in results")
	}

	// Identical filter arrays on two metrics flatten once; the distinct
	// array is kept.
	if len(set.CustomMetricsFilters) != 2 {
		t.Fatalf("expected 2 filter rules, got %+v", set.CustomMetricsFilters)
	}
	ids := map[string]bool{}
	for _, rule := range set.CustomMetricsFilters {
		ids[rule.ID] = true
	}
	if !ids["shared"] || !ids["distinct"] {
		t.Fatalf("expected shared and distinct rules, got %+v", set.CustomMetricsFilters)
	}
}

func TestValidationServiceChartCountPerField(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	chartSvc := newChartService(t, db)
	svc := newValidationService(t, db)
	fx := seedChartFixture(t, ctx, tx)

	if _, err := chartSvc.Create(dbc, fx.project.ID, fx.user.ID, sampleCreateChart(fx, "counted-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := chartSvc.Create(dbc, fx.project.ID, fx.user.ID, sampleCreateChart(fx, "counted-2")); err != nil {
		t.Fatalf("create: %v", err)
	}

	counts, err := svc.GetChartCountPerField(dbc, fx.project.ID, []string{"orders_status", "orders_absent"})
	if err != nil {
		t.Fatalf("chart count per field: %v", err)
	}
	if len(counts) != 1 {
		t.Fatalf("expected 1 counted field, got %+v", counts)
	}
	if counts[0].FieldID != "orders_status" || counts[0].Count != 2 {
		t.Fatalf("expected orders_status used by 2 charts, got %+v", counts[0])
	}
}

func TestValidationServiceFindChartsWithCustomFields(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	chartSvc := newChartService(t, db)
	svc := newValidationService(t, db)
	fx := seedChartFixture(t, ctx, tx)

	withCustom, err := chartSvc.Create(dbc, fx.project.ID, fx.user.ID, sampleCreateChart(fx, "custom-metrics"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	plainInput := sampleCreateChart(fx, "plain")
	plainInput.MetricQuery.AdditionalMetrics = nil
	plain, err := chartSvc.Create(dbc, fx.project.ID, fx.user.ID, plainInput)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sets, err := svc.FindChartsWithCustomFields(dbc, fx.project.ID)
	if err != nil {
		t.Fatalf("find charts with custom fields: %v", err)
	}
	if findSet(sets, withCustom.ID) == nil {
		t.Error("expected chart with additional metrics included")
	}
	if findSet(sets, plain.ID) != nil {
		t.Error("expected chart without additional metrics excluded")
	}
}

func assertStrings(t *testing.T, label string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: expected %v, got %v", label, want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s: expected %v, got %v", label, want, got)
		}
	}
}
