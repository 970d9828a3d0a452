package domain

import "encoding/json"

const (
	ChartTypeCartesian = "cartesian"
	ChartTypeTable     = "table"
	ChartTypeBigNumber = "big_number"
	ChartTypePie       = "pie"
	ChartTypeFunnel    = "funnel"
	ChartTypeTreemap   = "treemap"
	ChartTypeCustom    = "custom"
)

type cartesianLayout struct {
	Layout struct {
		FlipAxes bool `json:"flipAxes"`
	} `json:"layout"`
	EChartsConfig struct {
		Series []struct {
			Type string `json:"type"`
		} `json:"series"`
	} `json:"eChartsConfig"`
}

// ChartKindFromConfig derives the denormalized listing kind from a version's
// chart type and rendering config. Cartesian charts inspect the config for
// axis flipping and series type; everything else maps one to one.
func ChartKindFromConfig(chartType string, config json.RawMessage) string {
	switch chartType {
	case ChartTypeTable:
		return ChartKindTable
	case ChartTypeBigNumber:
		return ChartKindBigNumber
	case ChartTypePie:
		return ChartKindPie
	case ChartTypeFunnel:
		return ChartKindFunnel
	case ChartTypeTreemap:
		return ChartKindTreemap
	case ChartTypeCustom:
		return ChartKindCustom
	case ChartTypeCartesian:
		var layout cartesianLayout
		if len(config) == 0 || json.Unmarshal(config, &layout) != nil {
			return ChartKindVerticalBar
		}
		seriesType := ""
		mixed := false
		for i, s := range layout.EChartsConfig.Series {
			if i == 0 {
				seriesType = s.Type
			} else if s.Type != seriesType {
				mixed = true
			}
		}
		switch {
		case mixed:
			return ChartKindMixed
		case seriesType == "line":
			return ChartKindLine
		case seriesType == "area":
			return ChartKindArea
		case seriesType == "scatter":
			return ChartKindScatter
		case layout.Layout.FlipAxes:
			return ChartKindHorizontalBar
		default:
			return ChartKindVerticalBar
		}
	default:
		return ChartKindVerticalBar
	}
}
