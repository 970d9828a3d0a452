package domain

// DefaultColorPalette is the built-in ECharts series palette, used when
// neither an organization override nor a chart palette is configured.
var DefaultColorPalette = []string{
	"#5470c6",
	"#91cc75",
	"#fac858",
	"#ee6666",
	"#73c0de",
	"#3ba272",
	"#fc8452",
	"#9a60b4",
	"#ea7ccc",
}

// EffectiveColorPalette applies palette precedence: configured org-level
// override, then the organization's stored palette, then the default.
func EffectiveColorPalette(override, orgPalette []string) []string {
	if len(override) > 0 {
		return override
	}
	if len(orgPalette) > 0 {
		return orgPalette
	}
	return DefaultColorPalette
}
