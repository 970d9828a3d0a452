package services

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/vizlake/vizlake-backend/internal/data/repos/charts"
	types "github.com/vizlake/vizlake-backend/internal/domain"
	"github.com/vizlake/vizlake-backend/internal/platform/dbctx"
	"github.com/vizlake/vizlake-backend/internal/platform/logger"
)

// customMetricIDSeparator joins table and metric name into the identifier
// the validation engine matches against the schema.
const customMetricIDSeparator = "_"

type ValidationService interface {
	FindChartsForValidation(dbc dbctx.Context, projectID uuid.UUID) ([]types.ReferenceSet, error)
	ExtractReferences(dbc dbctx.Context, chartIDs []uuid.UUID) ([]types.ReferenceSet, error)
	FindChartsWithCustomFields(dbc dbctx.Context, projectID uuid.UUID) ([]types.ReferenceSet, error)
	GetChartCountPerField(dbc dbctx.Context, projectID uuid.UUID, fieldIDs []string) ([]charts.FieldCount, error)
}

type validationService struct {
	log         *logger.Logger
	readModel   charts.ChartReadModelRepo
	versionRepo charts.ChartVersionRepo
}

func NewValidationService(baseLog *logger.Logger, readModel charts.ChartReadModelRepo, versionRepo charts.ChartVersionRepo) ValidationService {
	return &validationService{
		log:         baseLog.With("service", "ValidationService"),
		readModel:   readModel,
		versionRepo: versionRepo,
	}
}

func (s *validationService) FindChartsForValidation(dbc dbctx.Context, projectID uuid.UUID) ([]types.ReferenceSet, error) {
	rows, err := s.readModel.LastVersionPerChart(dbc, projectID)
	if err != nil {
		return nil, err
	}
	return s.buildReferenceSets(dbc, rows)
}

func (s *validationService) ExtractReferences(dbc dbctx.Context, chartIDs []uuid.UUID) ([]types.ReferenceSet, error) {
	rows, err := s.readModel.LastVersionForCharts(dbc, chartIDs)
	if err != nil {
		return nil, err
	}
	return s.buildReferenceSets(dbc, rows)
}

func (s *validationService) FindChartsWithCustomFields(dbc dbctx.Context, projectID uuid.UUID) ([]types.ReferenceSet, error) {
	sets, err := s.FindChartsForValidation(dbc, projectID)
	if err != nil {
		return nil, err
	}
	withCustom := sets[:0]
	for _, set := range sets {
		if len(set.CustomMetrics) > 0 {
			withCustom = append(withCustom, set)
		}
	}
	return withCustom, nil
}

func (s *validationService) GetChartCountPerField(dbc dbctx.Context, projectID uuid.UUID, fieldIDs []string) ([]charts.FieldCount, error) {
	rows, err := s.readModel.LastVersionPerChart(dbc, projectID)
	if err != nil {
		return nil, err
	}
	versionIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		versionIDs = append(versionIDs, row.VersionID)
	}
	return s.readModel.CountFieldUsage(dbc, versionIDs, fieldIDs)
}

// buildReferenceSets resolves the children of each latest version and
// aggregates them into per-chart reference sets. Charts embedded in a
// dashboard whose latest version no longer references them are dropped.
func (s *validationService) buildReferenceSets(dbc dbctx.Context, rows []charts.LastVersionRow) ([]types.ReferenceSet, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	var dashboardIDs []uuid.UUID
	seenDashboards := map[uuid.UUID]struct{}{}
	for _, row := range rows {
		if row.DashboardID == nil {
			continue
		}
		if _, ok := seenDashboards[*row.DashboardID]; ok {
			continue
		}
		seenDashboards[*row.DashboardID] = struct{}{}
		dashboardIDs = append(dashboardIDs, *row.DashboardID)
	}
	live, err := s.readModel.ChartsInLatestDashboardVersions(dbc, dashboardIDs)
	if err != nil {
		return nil, err
	}

	kept := make([]charts.LastVersionRow, 0, len(rows))
	for _, row := range rows {
		if row.DashboardID != nil {
			if _, ok := live[row.ChartID]; !ok {
				continue
			}
		}
		kept = append(kept, row)
	}
	if len(kept) == 0 {
		return nil, nil
	}

	versionIDs := make([]uuid.UUID, 0, len(kept))
	for _, row := range kept {
		versionIDs = append(versionIDs, row.VersionID)
	}

	fields, err := s.versionRepo.GetFields(dbc, versionIDs)
	if err != nil {
		return nil, err
	}
	sorts, err := s.versionRepo.GetSorts(dbc, versionIDs)
	if err != nil {
		return nil, err
	}
	calcs, err := s.versionRepo.GetTableCalculations(dbc, versionIDs)
	if err != nil {
		return nil, err
	}
	binDims, err := s.versionRepo.GetCustomBinDimensions(dbc, versionIDs)
	if err != nil {
		return nil, err
	}
	sqlDims, err := s.versionRepo.GetCustomSQLDimensions(dbc, versionIDs)
	if err != nil {
		return nil, err
	}
	addMetrics, err := s.versionRepo.GetAdditionalMetrics(dbc, versionIDs)
	if err != nil {
		return nil, err
	}

	builders := make(map[uuid.UUID]*referenceSetBuilder, len(kept))
	sets := make([]types.ReferenceSet, len(kept))
	for i, row := range kept {
		sets[i] = types.ReferenceSet{
			ChartID:     row.ChartID,
			Name:        row.Name,
			SourceTable: row.SourceTable,
			DashboardID: row.DashboardID,
			Filters:     json.RawMessage(row.Filters),
		}
		builders[row.VersionID] = &referenceSetBuilder{set: &sets[i]}
	}

	for _, field := range fields {
		builder, ok := builders[field.ChartVersionID]
		if !ok {
			continue
		}
		switch field.FieldType {
		case types.FieldTypeDimension:
			builder.set.Dimensions = appendUnique(builder.set.Dimensions, &builder.dimensions, field.Name)
		case types.FieldTypeMetric:
			builder.set.Metrics = appendUnique(builder.set.Metrics, &builder.metrics, field.Name)
		}
	}
	for _, sort := range sorts {
		if builder, ok := builders[sort.ChartVersionID]; ok {
			builder.set.Sorts = appendUnique(builder.set.Sorts, &builder.sorts, sort.FieldName)
		}
	}
	for _, calc := range calcs {
		if builder, ok := builders[calc.ChartVersionID]; ok {
			builder.set.TableCalculations = appendUnique(builder.set.TableCalculations, &builder.calcs, calc.Name)
		}
	}
	for _, dim := range binDims {
		if builder, ok := builders[dim.ChartVersionID]; ok {
			builder.set.CustomBinDimensions = appendUnique(builder.set.CustomBinDimensions, &builder.binDims, dim.CustomDimensionID)
		}
	}
	for _, dim := range sqlDims {
		if builder, ok := builders[dim.ChartVersionID]; ok {
			builder.set.CustomSQLDimensions = appendUnique(builder.set.CustomSQLDimensions, &builder.sqlDims, dim.CustomDimensionID)
		}
	}
	for _, metric := range addMetrics {
		builder, ok := builders[metric.ChartVersionID]
		if !ok {
			continue
		}
		metricID := metric.SourceTable + customMetricIDSeparator + metric.Name
		builder.set.CustomMetrics = appendUnique(builder.set.CustomMetrics, &builder.customMetrics, metricID)
		if metric.BaseDimensionName != nil {
			baseDimID := metric.SourceTable + customMetricIDSeparator + *metric.BaseDimensionName
			builder.set.CustomMetricsBaseDimensions = appendUnique(builder.set.CustomMetricsBaseDimensions, &builder.baseDims, baseDimID)
		}
		if len(metric.Filters) > 0 {
			// Identical filter arrays across metrics flatten once.
			raw := string(metric.Filters)
			if builder.filterSets == nil {
				builder.filterSets = map[string]struct{}{}
			}
			if _, ok := builder.filterSets[raw]; !ok {
				builder.filterSets[raw] = struct{}{}
				var filters []types.MetricFilterRule
				if err := json.Unmarshal(metric.Filters, &filters); err != nil {
					return nil, fmt.Errorf("unmarshal filters of metric %q: %w", metric.Name, err)
				}
				builder.set.CustomMetricsFilters = append(builder.set.CustomMetricsFilters, filters...)
			}
		}
	}

	return sets, nil
}

type referenceSetBuilder struct {
	set *types.ReferenceSet

	dimensions    map[string]struct{}
	metrics       map[string]struct{}
	sorts         map[string]struct{}
	calcs         map[string]struct{}
	binDims       map[string]struct{}
	sqlDims       map[string]struct{}
	customMetrics map[string]struct{}
	baseDims      map[string]struct{}
	filterSets    map[string]struct{}
}

func appendUnique(list []string, seen *map[string]struct{}, name string) []string {
	if *seen == nil {
		*seen = map[string]struct{}{}
	}
	if _, ok := (*seen)[name]; ok {
		return list
	}
	(*seen)[name] = struct{}{}
	return append(list, name)
}
