package app

import (
	"github.com/vizlake/vizlake-backend/internal/platform/envutil"
	"github.com/vizlake/vizlake-backend/internal/platform/logger"
)

type Config struct {
	ListenAddr         string
	AllowOrigins       []string
	VersionHistoryDays int
	PaletteOverride    []string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		ListenAddr:         envutil.String("LISTEN_ADDR", ":8080"),
		AllowOrigins:       envutil.Strings("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),
		VersionHistoryDays: envutil.Int("CHART_VERSION_HISTORY_DAYS", 3),
		PaletteOverride:    envutil.Strings("CHART_COLOR_PALETTE_OVERRIDE", nil),
	}
	log.Info("Loaded config",
		"listen_addr", cfg.ListenAddr,
		"version_history_days", cfg.VersionHistoryDays,
		"palette_override_set", len(cfg.PaletteOverride) > 0,
	)
	return cfg
}
