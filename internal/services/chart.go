package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vizlake/vizlake-backend/internal/data/repos/charts"
	"github.com/vizlake/vizlake-backend/internal/data/repos/spaces"
	types "github.com/vizlake/vizlake-backend/internal/domain"
	pkgerrors "github.com/vizlake/vizlake-backend/internal/pkg/errors"
	"github.com/vizlake/vizlake-backend/internal/platform/dbctx"
	"github.com/vizlake/vizlake-backend/internal/platform/envutil"
	"github.com/vizlake/vizlake-backend/internal/platform/logger"
)

type ChartService interface {
	Create(dbc dbctx.Context, projectID, userID uuid.UUID, input types.CreateChart) (*types.ChartDocument, error)
	CreateVersion(dbc dbctx.Context, chartID uuid.UUID, input types.CreateChartVersion) (*types.ChartDocument, error)
	Update(dbc dbctx.Context, chartID uuid.UUID, input types.UpdateChart) (*types.ChartSummary, error)
	UpdateMultiple(dbc dbctx.Context, updates []types.UpdateMultipleChart) ([]types.ChartSummary, error)
	Delete(dbc dbctx.Context, chartID uuid.UUID) (*types.ChartDocument, error)
	Get(dbc dbctx.Context, chartID uuid.UUID, versionID *uuid.UUID) (*types.ChartDocument, error)
	GetSummary(dbc dbctx.Context, chartID uuid.UUID) (*types.ChartSummary, error)
	Find(dbc dbctx.Context, filter charts.SummaryFilter) ([]types.ChartSummary, error)
	GetVersionSummary(dbc dbctx.Context, chartID, versionID uuid.UUID) (*types.VersionSummary, error)
	GetVersionHistory(dbc dbctx.Context, chartID uuid.UUID) ([]types.VersionSummary, error)
	MoveToSpace(dbc dbctx.Context, chartID uuid.UUID, targetSpaceID *uuid.UUID) error
}

type chartService struct {
	db          *gorm.DB
	log         *logger.Logger
	chartRepo   charts.ChartRepo
	versionRepo charts.ChartVersionRepo
	readModel   charts.ChartReadModelRepo
	spaceRepo   spaces.SpaceRepo
	slugs       SlugAllocator

	versionHistoryDays int
	paletteOverride    []string
}

func NewChartService(
	db *gorm.DB,
	baseLog *logger.Logger,
	chartRepo charts.ChartRepo,
	versionRepo charts.ChartVersionRepo,
	readModel charts.ChartReadModelRepo,
	spaceRepo spaces.SpaceRepo,
	slugs SlugAllocator,
) ChartService {
	return &chartService{
		db:          db,
		log:         baseLog.With("service", "ChartService"),
		chartRepo:   chartRepo,
		versionRepo: versionRepo,
		readModel:   readModel,
		spaceRepo:   spaceRepo,
		slugs:       slugs,

		versionHistoryDays: envutil.Int("CHART_VERSION_HISTORY_DAYS", 3),
		paletteOverride:    envutil.Strings("CHART_COLOR_PALETTE_OVERRIDE", nil),
	}
}

func (s *chartService) Create(dbc dbctx.Context, projectID, userID uuid.UUID, input types.CreateChart) (*types.ChartDocument, error) {
	var spaceID, dashboardID *uuid.UUID
	switch {
	case input.DashboardID != nil:
		// Dashboard ownership wins over any space hint.
		dashboardID = input.DashboardID
	case input.SpaceID != nil:
		space, err := s.spaceRepo.GetWithinProject(dbc, *input.SpaceID, projectID)
		if err != nil {
			return nil, err
		}
		spaceID = &space.ID
	default:
		space, err := s.spaceRepo.GetFirstAccessible(dbc, projectID, userID)
		if err != nil {
			return nil, err
		}
		spaceID = &space.ID
	}

	slug, err := s.slugs.Allocate(dbc, input.Slug, input.ForceSlug)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	chart := &types.Chart{
		ID:                         uuid.New(),
		SpaceID:                    spaceID,
		DashboardID:                dashboardID,
		Name:                       input.Name,
		Description:                input.Description,
		Slug:                       slug,
		LastVersionChartKind:       types.ChartKindFromConfig(input.ChartConfig.Type, input.ChartConfig.Config),
		LastVersionUpdatedAt:       now,
		LastVersionUpdatedByUserID: input.UpdatedByUserID,
	}

	err = s.transaction(dbc, func(txc dbctx.Context) error {
		if _, err := s.chartRepo.Create(txc, chart); err != nil {
			return fmt.Errorf("create chart: %w", err)
		}
		if _, err := s.insertVersion(txc, chart.ID, input.CreateChartVersion); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.log.Error("Create failed", "error", err)
		return nil, err
	}

	return s.Get(dbc, chart.ID, nil)
}

func (s *chartService) CreateVersion(dbc dbctx.Context, chartID uuid.UUID, input types.CreateChartVersion) (*types.ChartDocument, error) {
	if _, err := s.chartRepo.GetByID(dbc, chartID); err != nil {
		return nil, err
	}

	err := s.transaction(dbc, func(txc dbctx.Context) error {
		version, err := s.insertVersion(txc, chartID, input)
		if err != nil {
			return err
		}
		kind := types.ChartKindFromConfig(input.ChartConfig.Type, input.ChartConfig.Config)
		if err := s.chartRepo.UpdateLastVersion(txc, chartID, kind, version.CreatedAt, input.UpdatedByUserID); err != nil {
			return fmt.Errorf("update last version metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("CreateVersion failed", "chart_id", chartID, "error", err)
		return nil, err
	}

	return s.Get(dbc, chartID, nil)
}

// insertVersion decomposes one nested version definition into child rows.
// Callers must hold the transaction; any failing insert aborts the whole
// version.
func (s *chartService) insertVersion(dbc dbctx.Context, chartID uuid.UUID, def types.CreateChartVersion) (*types.ChartVersion, error) {
	columnOrder := def.TableConfig.ColumnOrder

	overrides := filterMetricOverrides(def.MetricQuery.MetricOverrides, def.MetricQuery.Metrics)
	var overridesJSON datatypes.JSON
	if len(overrides) > 0 {
		raw, err := json.Marshal(overrides)
		if err != nil {
			return nil, fmt.Errorf("marshal metric overrides: %w", err)
		}
		overridesJSON = datatypes.JSON(raw)
	}

	filters := def.MetricQuery.Filters
	if len(filters) == 0 {
		filters = json.RawMessage(`{}`)
	}

	var pivotJSON datatypes.JSON
	if def.PivotConfig != nil && len(def.PivotConfig.Columns) > 0 {
		raw, err := json.Marshal(def.PivotConfig.Columns)
		if err != nil {
			return nil, fmt.Errorf("marshal pivot columns: %w", err)
		}
		pivotJSON = datatypes.JSON(raw)
	}

	var timezone *string
	if def.MetricQuery.Timezone != "" {
		tz := def.MetricQuery.Timezone
		timezone = &tz
	}

	version := &types.ChartVersion{
		ID:              uuid.New(),
		ChartID:         chartID,
		SourceTable:     def.SourceTable,
		RowLimit:        def.MetricQuery.Limit,
		Filters:         datatypes.JSON(filters),
		MetricOverrides: overridesJSON,
		ChartType:       def.ChartConfig.Type,
		ChartConfig:     datatypes.JSON(def.ChartConfig.Config),
		PivotDimensions: pivotJSON,
		Parameters:      datatypes.JSON(def.Parameters),
		Timezone:        timezone,
		UpdatedByUserID: def.UpdatedByUserID,
	}
	if _, err := s.versionRepo.Create(dbc, version); err != nil {
		return nil, fmt.Errorf("create version: %w", err)
	}

	fields := make([]*types.ChartVersionField, 0, len(def.MetricQuery.Dimensions)+len(def.MetricQuery.Metrics))
	for _, name := range def.MetricQuery.Dimensions {
		fields = append(fields, &types.ChartVersionField{
			ID:             uuid.New(),
			ChartVersionID: version.ID,
			Name:           name,
			FieldType:      types.FieldTypeDimension,
			Order:          types.ResolveColumnOrder(columnOrder, name),
		})
	}
	for _, name := range def.MetricQuery.Metrics {
		fields = append(fields, &types.ChartVersionField{
			ID:             uuid.New(),
			ChartVersionID: version.ID,
			Name:           name,
			FieldType:      types.FieldTypeMetric,
			Order:          types.ResolveColumnOrder(columnOrder, name),
		})
	}
	if err := s.versionRepo.CreateFields(dbc, fields); err != nil {
		return nil, fmt.Errorf("create fields: %w", err)
	}

	sorts := make([]*types.ChartVersionSort, 0, len(def.MetricQuery.Sorts))
	for i, sort := range def.MetricQuery.Sorts {
		sorts = append(sorts, &types.ChartVersionSort{
			ID:             uuid.New(),
			ChartVersionID: version.ID,
			FieldName:      sort.FieldID,
			Descending:     sort.Descending,
			Order:          i,
		})
	}
	if err := s.versionRepo.CreateSorts(dbc, sorts); err != nil {
		return nil, fmt.Errorf("create sorts: %w", err)
	}

	calcs := make([]*types.ChartVersionTableCalculation, 0, len(def.MetricQuery.TableCalculations))
	for _, calc := range def.MetricQuery.TableCalculations {
		row := &types.ChartVersionTableCalculation{
			ID:                uuid.New(),
			ChartVersionID:    version.ID,
			Name:              calc.Name,
			DisplayName:       calc.DisplayName,
			CalculationRawSQL: calc.SQL,
			Order:             types.ResolveColumnOrder(columnOrder, calc.Name),
		}
		if len(calc.Format) > 0 {
			row.Format = datatypes.JSON(calc.Format)
		}
		if calc.Type != "" {
			calcType := calc.Type
			row.Type = &calcType
		}
		calcs = append(calcs, row)
	}
	if err := s.versionRepo.CreateTableCalculations(dbc, calcs); err != nil {
		return nil, fmt.Errorf("create table calculations: %w", err)
	}

	var binDims []*types.ChartVersionCustomBinDimension
	var sqlDims []*types.ChartVersionCustomSQLDimension
	for _, dim := range def.MetricQuery.CustomDimensions {
		order := types.ResolveColumnOrder(columnOrder, dim.ID)
		switch dim.Type {
		case types.CustomDimensionTypeBin:
			binDims = append(binDims, &types.ChartVersionCustomBinDimension{
				ID:                uuid.New(),
				ChartVersionID:    version.ID,
				CustomDimensionID: dim.ID,
				Name:              dim.Name,
				DimensionID:       dim.DimensionID,
				SourceTable:       dim.SourceTable,
				BinType:           dim.BinType,
				BinNumber:         dim.BinNumber,
				BinWidth:          dim.BinWidth,
				CustomRange:       datatypes.JSON(dim.CustomRange),
				Order:             order,
			})
		case types.CustomDimensionTypeSQL:
			sqlDims = append(sqlDims, &types.ChartVersionCustomSQLDimension{
				ID:                uuid.New(),
				ChartVersionID:    version.ID,
				CustomDimensionID: dim.ID,
				Name:              dim.Name,
				SourceTable:       dim.SourceTable,
				SQL:               dim.SQL,
				DimensionType:     dim.DimensionType,
				Order:             order,
			})
		default:
			return nil, fmt.Errorf("custom dimension %q has unknown type %q: %w", dim.ID, dim.Type, pkgerrors.ErrInvalidArgument)
		}
	}
	if err := s.versionRepo.CreateCustomBinDimensions(dbc, binDims); err != nil {
		return nil, fmt.Errorf("create custom bin dimensions: %w", err)
	}
	if err := s.versionRepo.CreateCustomSQLDimensions(dbc, sqlDims); err != nil {
		return nil, fmt.Errorf("create custom sql dimensions: %w", err)
	}

	metrics := make([]*types.ChartVersionAdditionalMetric, 0, len(def.MetricQuery.AdditionalMetrics))
	for _, metric := range def.MetricQuery.AdditionalMetrics {
		row := &types.ChartVersionAdditionalMetric{
			ID:             uuid.New(),
			ChartVersionID: version.ID,
			SourceTable:    metric.SourceTable,
			Name:           metric.Name,
			MetricType:     metric.Type,
			SQL:            metric.SQL,
			Hidden:         metric.Hidden,
			Round:          metric.Round,
			Percentile:     metric.Percentile,
		}
		if metric.Label != "" {
			label := metric.Label
			row.Label = &label
		}
		if metric.Description != "" {
			description := metric.Description
			row.Description = &description
		}
		if metric.Compact != "" {
			compact := metric.Compact
			row.Compact = &compact
		}
		if metric.Format != "" {
			format := metric.Format
			row.Format = &format
		}
		if len(metric.FormatOptions) > 0 {
			row.FormatOptions = datatypes.JSON(metric.FormatOptions)
		}
		if len(metric.Filters) > 0 {
			raw, err := json.Marshal(metric.Filters)
			if err != nil {
				return nil, fmt.Errorf("marshal filters of metric %q: %w", metric.Name, err)
			}
			row.Filters = datatypes.JSON(raw)
		}
		if metric.BaseDimensionName != "" {
			base := metric.BaseDimensionName
			row.BaseDimensionName = &base
		}
		metrics = append(metrics, row)
	}
	if err := s.versionRepo.CreateAdditionalMetrics(dbc, metrics); err != nil {
		return nil, fmt.Errorf("create additional metrics: %w", err)
	}

	reloaded, err := s.versionRepo.GetLatest(dbc, chartID)
	if err != nil {
		return nil, fmt.Errorf("reload version: %w", err)
	}
	return reloaded, nil
}

// filterMetricOverrides drops overrides that reference metrics absent from
// the version's metric list. They are never stored.
func filterMetricOverrides(overrides types.MetricOverrides, metrics []string) types.MetricOverrides {
	if len(overrides) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(metrics))
	for _, name := range metrics {
		known[name] = struct{}{}
	}
	filtered := types.MetricOverrides{}
	for name, override := range overrides {
		if _, ok := known[name]; ok {
			filtered[name] = override
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

func (s *chartService) Update(dbc dbctx.Context, chartID uuid.UUID, input types.UpdateChart) (*types.ChartSummary, error) {
	if _, err := s.chartRepo.GetByID(dbc, chartID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Name != nil {
		fields["name"] = *input.Name
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.SpaceID != nil {
		fields["space_id"] = *input.SpaceID
		fields["dashboard_id"] = nil
	}
	if err := s.chartRepo.UpdateFields(dbc, chartID, fields); err != nil {
		return nil, fmt.Errorf("update chart %s: %w", chartID, err)
	}
	return s.readModel.GetSummaryByID(dbc, chartID)
}

func (s *chartService) UpdateMultiple(dbc dbctx.Context, updates []types.UpdateMultipleChart) ([]types.ChartSummary, error) {
	err := s.transaction(dbc, func(txc dbctx.Context) error {
		for _, update := range updates {
			fields := map[string]interface{}{
				"name":        update.Name,
				"description": update.Description,
			}
			if update.SpaceID != nil {
				fields["space_id"] = *update.SpaceID
				fields["dashboard_id"] = nil
			}
			if err := s.chartRepo.UpdateFields(txc, update.ID, fields); err != nil {
				return fmt.Errorf("update chart %s: %w", update.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("UpdateMultiple failed", "error", err)
		return nil, err
	}

	summaries := make([]types.ChartSummary, 0, len(updates))
	for _, update := range updates {
		summary, err := s.readModel.GetSummaryByID(dbc, update.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// Delete snapshots the document before the hard delete so callers receive
// the last visible state. Versions and child rows go with the cascade.
func (s *chartService) Delete(dbc dbctx.Context, chartID uuid.UUID) (*types.ChartDocument, error) {
	doc, err := s.Get(dbc, chartID, nil)
	if err != nil {
		return nil, err
	}
	if err := s.chartRepo.FullDeleteByID(dbc, chartID); err != nil {
		return nil, fmt.Errorf("delete chart %s: %w", chartID, err)
	}
	return doc, nil
}

func (s *chartService) Get(dbc dbctx.Context, chartID uuid.UUID, versionID *uuid.UUID) (*types.ChartDocument, error) {
	detail, err := s.readModel.GetDetail(dbc, chartID, versionID)
	if err != nil {
		return nil, err
	}

	var (
		fields     []*types.ChartVersionField
		sorts      []*types.ChartVersionSort
		calcs      []*types.ChartVersionTableCalculation
		binDims    []*types.ChartVersionCustomBinDimension
		sqlDims    []*types.ChartVersionCustomSQLDimension
		addMetrics []*types.ChartVersionAdditionalMetric
	)
	versionIDs := []uuid.UUID{detail.VersionID}

	if dbc.Tx != nil {
		// One connection: load sequentially inside the transaction.
		if fields, err = s.versionRepo.GetFields(dbc, versionIDs); err != nil {
			return nil, err
		}
		if sorts, err = s.versionRepo.GetSorts(dbc, versionIDs); err != nil {
			return nil, err
		}
		if calcs, err = s.versionRepo.GetTableCalculations(dbc, versionIDs); err != nil {
			return nil, err
		}
		if binDims, err = s.versionRepo.GetCustomBinDimensions(dbc, versionIDs); err != nil {
			return nil, err
		}
		if sqlDims, err = s.versionRepo.GetCustomSQLDimensions(dbc, versionIDs); err != nil {
			return nil, err
		}
		if addMetrics, err = s.versionRepo.GetAdditionalMetrics(dbc, versionIDs); err != nil {
			return nil, err
		}
	} else {
		group, groupCtx := errgroup.WithContext(dbc.Ctx)
		groupDbc := dbctx.Context{Ctx: groupCtx}
		group.Go(func() error {
			var err error
			fields, err = s.versionRepo.GetFields(groupDbc, versionIDs)
			return err
		})
		group.Go(func() error {
			var err error
			sorts, err = s.versionRepo.GetSorts(groupDbc, versionIDs)
			return err
		})
		group.Go(func() error {
			var err error
			calcs, err = s.versionRepo.GetTableCalculations(groupDbc, versionIDs)
			return err
		})
		group.Go(func() error {
			var err error
			binDims, err = s.versionRepo.GetCustomBinDimensions(groupDbc, versionIDs)
			return err
		})
		group.Go(func() error {
			var err error
			sqlDims, err = s.versionRepo.GetCustomSQLDimensions(groupDbc, versionIDs)
			return err
		})
		group.Go(func() error {
			var err error
			addMetrics, err = s.versionRepo.GetAdditionalMetrics(groupDbc, versionIDs)
			return err
		})
		if err := group.Wait(); err != nil {
			return nil, err
		}
	}

	return s.buildDocument(detail, fields, sorts, calcs, binDims, sqlDims, addMetrics)
}

func (s *chartService) buildDocument(
	detail *charts.DetailRow,
	fields []*types.ChartVersionField,
	sorts []*types.ChartVersionSort,
	calcs []*types.ChartVersionTableCalculation,
	binDims []*types.ChartVersionCustomBinDimension,
	sqlDims []*types.ChartVersionCustomSQLDimension,
	addMetrics []*types.ChartVersionAdditionalMetric,
) (*types.ChartDocument, error) {
	var dimensions, metrics []string
	for _, field := range fields {
		switch field.FieldType {
		case types.FieldTypeDimension:
			dimensions = append(dimensions, field.Name)
		case types.FieldTypeMetric:
			metrics = append(metrics, field.Name)
		}
	}

	// Fields, calculations and custom dimensions share one order space.
	// Concatenation sequence fixes the tie-break for equal order values.
	refs := make([]types.ColumnRef, 0, len(fields)+len(calcs)+len(binDims)+len(sqlDims))
	for _, field := range fields {
		refs = append(refs, types.ColumnRef{Name: field.Name, Order: field.Order})
	}
	for _, calc := range calcs {
		refs = append(refs, types.ColumnRef{Name: calc.Name, Order: calc.Order})
	}
	for _, dim := range binDims {
		refs = append(refs, types.ColumnRef{Name: dim.CustomDimensionID, Order: dim.Order})
	}
	for _, dim := range sqlDims {
		refs = append(refs, types.ColumnRef{Name: dim.CustomDimensionID, Order: dim.Order})
	}
	columnOrder := types.MergeColumnOrder(refs)

	sortFields := make([]types.SortField, 0, len(sorts))
	for _, sort := range sorts {
		sortFields = append(sortFields, types.SortField{
			FieldID:    sort.FieldName,
			Descending: sort.Descending,
		})
	}

	calcDocs := make([]types.TableCalculation, 0, len(calcs))
	for _, calc := range calcs {
		doc := types.TableCalculation{
			Name:        calc.Name,
			DisplayName: calc.DisplayName,
			SQL:         calc.CalculationRawSQL,
		}
		if len(calc.Format) > 0 {
			doc.Format = json.RawMessage(calc.Format)
		}
		if calc.Type != nil {
			doc.Type = *calc.Type
		}
		calcDocs = append(calcDocs, doc)
	}

	dimDocs := make([]types.CustomDimension, 0, len(binDims)+len(sqlDims))
	for _, dim := range binDims {
		doc := types.CustomDimension{
			ID:          dim.CustomDimensionID,
			Name:        dim.Name,
			Type:        types.CustomDimensionTypeBin,
			SourceTable: dim.SourceTable,
			DimensionID: dim.DimensionID,
			BinType:     dim.BinType,
			BinNumber:   dim.BinNumber,
			BinWidth:    dim.BinWidth,
		}
		if len(dim.CustomRange) > 0 {
			doc.CustomRange = json.RawMessage(dim.CustomRange)
		}
		dimDocs = append(dimDocs, doc)
	}
	for _, dim := range sqlDims {
		dimDocs = append(dimDocs, types.CustomDimension{
			ID:            dim.CustomDimensionID,
			Name:          dim.Name,
			Type:          types.CustomDimensionTypeSQL,
			SourceTable:   dim.SourceTable,
			SQL:           dim.SQL,
			DimensionType: dim.DimensionType,
		})
	}

	metricDocs := make([]types.AdditionalMetric, 0, len(addMetrics))
	for _, metric := range addMetrics {
		doc, err := additionalMetricDocument(metric)
		if err != nil {
			return nil, err
		}
		metricDocs = append(metricDocs, doc)
	}

	var overrides types.MetricOverrides
	if len(detail.MetricOverrides) > 0 {
		if err := json.Unmarshal(detail.MetricOverrides, &overrides); err != nil {
			return nil, fmt.Errorf("unmarshal metric overrides: %w", err)
		}
	}

	var pivot *types.PivotConfig
	if len(detail.PivotDimensions) > 0 {
		var columns []string
		if err := json.Unmarshal(detail.PivotDimensions, &columns); err != nil {
			return nil, fmt.Errorf("unmarshal pivot dimensions: %w", err)
		}
		if len(columns) > 0 {
			pivot = &types.PivotConfig{Columns: columns}
		}
	}

	var updatedBy *types.UpdatedBy
	if detail.UserID != nil {
		updatedBy = &types.UpdatedBy{UserID: *detail.UserID}
		if detail.UserFirstName != nil {
			updatedBy.FirstName = *detail.UserFirstName
		}
		if detail.UserLastName != nil {
			updatedBy.LastName = *detail.UserLastName
		}
	}

	var orgPalette []string
	if len(detail.OrgPalette) > 0 {
		if err := json.Unmarshal(detail.OrgPalette, &orgPalette); err != nil {
			return nil, fmt.Errorf("unmarshal org palette: %w", err)
		}
	}

	timezone := ""
	if detail.Timezone != nil {
		timezone = *detail.Timezone
	}

	doc := &types.ChartDocument{
		ID:             detail.ChartID,
		VersionID:      detail.VersionID,
		ProjectID:      detail.ProjectID,
		OrganizationID: detail.OrganizationID,
		Name:           detail.Name,
		Description:    detail.Description,
		Slug:           detail.Slug,
		SourceTable:    detail.SourceTable,
		UpdatedAt:      detail.CreatedAt,
		UpdatedBy:      updatedBy,
		MetricQuery: types.MetricQuery{
			Dimensions:        dimensions,
			Metrics:           metrics,
			Filters:           json.RawMessage(detail.Filters),
			Sorts:             sortFields,
			Limit:             detail.RowLimit,
			MetricOverrides:   overrides,
			TableCalculations: calcDocs,
			AdditionalMetrics: metricDocs,
			CustomDimensions:  dimDocs,
			Timezone:          timezone,
		},
		ChartConfig: types.ChartConfig{
			Type:   detail.ChartType,
			Config: json.RawMessage(detail.ChartConfig),
		},
		TableConfig:   types.TableConfig{ColumnOrder: columnOrder},
		PivotConfig:   pivot,
		Parameters:    json.RawMessage(detail.Parameters),
		SpaceID:       detail.SpaceID,
		SpaceName:     detail.SpaceName,
		DashboardID:   detail.DashboardID,
		DashboardName: detail.DashboardName,
		PinnedListID:  detail.PinnedListID,
		ColorPalette:  types.EffectiveColorPalette(s.paletteOverride, orgPalette),
	}
	return doc, nil
}

// additionalMetricDocument converts a stored row to its document form,
// surfacing optional attributes only when they carry a value.
func additionalMetricDocument(metric *types.ChartVersionAdditionalMetric) (types.AdditionalMetric, error) {
	doc := types.AdditionalMetric{
		SourceTable: metric.SourceTable,
		Name:        metric.Name,
		Type:        metric.MetricType,
		SQL:         metric.SQL,
		Hidden:      metric.Hidden,
		Round:       metric.Round,
		Percentile:  metric.Percentile,
	}
	if metric.Label != nil {
		doc.Label = *metric.Label
	}
	if metric.Description != nil {
		doc.Description = *metric.Description
	}
	if metric.Compact != nil {
		doc.Compact = *metric.Compact
	}
	if metric.Format != nil {
		doc.Format = *metric.Format
	}
	if len(metric.FormatOptions) > 0 {
		doc.FormatOptions = json.RawMessage(metric.FormatOptions)
	}
	if len(metric.Filters) > 0 {
		var filters []types.MetricFilterRule
		if err := json.Unmarshal(metric.Filters, &filters); err != nil {
			return doc, fmt.Errorf("unmarshal filters of metric %q: %w", metric.Name, err)
		}
		doc.Filters = filters
	}
	if metric.BaseDimensionName != nil {
		doc.BaseDimensionName = *metric.BaseDimensionName
	}
	return doc, nil
}

func (s *chartService) GetSummary(dbc dbctx.Context, chartID uuid.UUID) (*types.ChartSummary, error) {
	return s.readModel.GetSummaryByID(dbc, chartID)
}

func (s *chartService) Find(dbc dbctx.Context, filter charts.SummaryFilter) ([]types.ChartSummary, error) {
	return s.readModel.FindSummaries(dbc, filter)
}

func (s *chartService) GetVersionSummary(dbc dbctx.Context, chartID, versionID uuid.UUID) (*types.VersionSummary, error) {
	return s.versionRepo.GetSummary(dbc, chartID, versionID)
}

// GetVersionHistory returns summaries inside the retention window plus the
// current version, oldest first. A single-entry result gets the oldest other
// version appended so a stagnant chart still shows one prior state.
func (s *chartService) GetVersionHistory(dbc dbctx.Context, chartID uuid.UUID) ([]types.VersionSummary, error) {
	current, err := s.versionRepo.GetLatest(dbc, chartID)
	if err != nil {
		return nil, err
	}

	since := time.Now().UTC().AddDate(0, 0, -s.versionHistoryDays)
	summaries, err := s.versionRepo.ListSummariesInWindow(dbc, chartID, since, current.ID)
	if err != nil {
		return nil, err
	}

	if len(summaries) == 1 {
		oldest, err := s.versionRepo.OldestSummaryExcluding(dbc, chartID, current.ID)
		if err != nil {
			return nil, err
		}
		if oldest != nil {
			summaries = append(summaries, *oldest)
		}
	}
	return summaries, nil
}

func (s *chartService) MoveToSpace(dbc dbctx.Context, chartID uuid.UUID, targetSpaceID *uuid.UUID) error {
	if targetSpaceID == nil {
		return fmt.Errorf("move chart %s: target space required: %w", chartID, pkgerrors.ErrInvalidArgument)
	}

	summary, err := s.readModel.GetSummaryByID(dbc, chartID)
	if err != nil {
		return err
	}
	// Scope the target to the chart's own project; cross-project moves do
	// not resolve.
	if _, err := s.spaceRepo.GetWithinProject(dbc, *targetSpaceID, summary.ProjectID); err != nil {
		return err
	}
	return s.chartRepo.MoveToSpace(dbc, chartID, *targetSpaceID)
}

func (s *chartService) transaction(dbc dbctx.Context, fn func(txc dbctx.Context) error) error {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
		})
	}
	return s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
	})
}
