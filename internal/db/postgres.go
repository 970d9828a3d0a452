package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	types "github.com/vizlake/vizlake-backend/internal/domain"
	"github.com/vizlake/vizlake-backend/internal/platform/envutil"
	"github.com/vizlake/vizlake-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := envutil.String("POSTGRES_HOST", "localhost")
	postgresPort := envutil.String("POSTGRES_PORT", "5432")
	postgresUser := envutil.String("POSTGRES_USER", "postgres")
	postgresPassword := envutil.String("POSTGRES_PASSWORD", "")
	postgresName := envutil.String("POSTGRES_NAME", "vizlake")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Organization{},
		&types.OrganizationColorPalette{},
		&types.Project{},
		&types.Space{},
		&types.User{},
		&types.Dashboard{},
		&types.DashboardVersion{},
		&types.DashboardTileChart{},
		&types.PinnedList{},
		&types.PinnedChart{},
		&types.Chart{},
		&types.ChartVersion{},
		&types.ChartVersionField{},
		&types.ChartVersionSort{},
		&types.ChartVersionTableCalculation{},
		&types.ChartVersionCustomBinDimension{},
		&types.ChartVersionCustomSQLDimension{},
		&types.ChartVersionAdditionalMetric{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	for _, fk := range cascadeConstraints {
		stmt := fmt.Sprintf(`
			ALTER TABLE %q DROP CONSTRAINT IF EXISTS %q;
			ALTER TABLE %q ADD CONSTRAINT %q
			FOREIGN KEY (%q) REFERENCES %q(%q) ON DELETE CASCADE;
		`, fk.table, fk.name, fk.table, fk.name, fk.column, fk.refTable, fk.refColumn)
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add %s: %w", fk.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

type cascadeConstraint struct {
	table     string
	name      string
	column    string
	refTable  string
	refColumn string
}

// Chart deletion cascades through versions into every child table; version
// children never outlive their version.
var cascadeConstraints = []cascadeConstraint{
	{"chart_version", "fk_chart_version_chart_id", "chart_id", "chart", "id"},
	{"chart_version_field", "fk_chart_version_field_version_id", "chart_version_id", "chart_version", "id"},
	{"chart_version_sort", "fk_chart_version_sort_version_id", "chart_version_id", "chart_version", "id"},
	{"chart_version_table_calculation", "fk_chart_version_table_calculation_version_id", "chart_version_id", "chart_version", "id"},
	{"chart_version_custom_dimension", "fk_chart_version_custom_dimension_version_id", "chart_version_id", "chart_version", "id"},
	{"chart_version_custom_sql_dimension", "fk_chart_version_custom_sql_dimension_version_id", "chart_version_id", "chart_version", "id"},
	{"chart_version_additional_metric", "fk_chart_version_additional_metric_version_id", "chart_version_id", "chart_version", "id"},
	{"pinned_chart", "fk_pinned_chart_chart_id", "chart_id", "chart", "id"},
	{"dashboard_tile_chart", "fk_dashboard_tile_chart_version_id", "dashboard_version_id", "dashboard_version", "id"},
	{"dashboard_version", "fk_dashboard_version_dashboard_id", "dashboard_id", "dashboard", "id"},
}
