package services

import (
	"encoding/json"
	"reflect"
	"testing"

	"gorm.io/datatypes"

	types "github.com/vizlake/vizlake-backend/internal/domain"
)

func TestFilterMetricOverrides(t *testing.T) {
	overrides := types.MetricOverrides{
		"m1": json.RawMessage(`{"round":2}`),
		"m2": json.RawMessage(`{"round":0}`),
	}

	filtered := filterMetricOverrides(overrides, []string{"m1"})
	if len(filtered) != 1 {
		t.Fatalf("expected 1 override, got %d", len(filtered))
	}
	if _, ok := filtered["m1"]; !ok {
		t.Fatal("expected m1 kept")
	}
}

func TestFilterMetricOverridesAllAbsent(t *testing.T) {
	overrides := types.MetricOverrides{
		"m2": json.RawMessage(`{}`),
	}
	if filtered := filterMetricOverrides(overrides, []string{"m1"}); filtered != nil {
		t.Fatalf("expected nil when every override is absent, got %v", filtered)
	}
	if filtered := filterMetricOverrides(nil, []string{"m1"}); filtered != nil {
		t.Fatalf("expected nil for empty input, got %v", filtered)
	}
}

func TestAdditionalMetricDocumentDropsNulls(t *testing.T) {
	row := &types.ChartVersionAdditionalMetric{
		SourceTable: "orders",
		Name:        "revenue_sum",
		MetricType:  "sum",
		SQL:         "${TABLE}.revenue",
	}

	doc, err := additionalMetricDocument(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Label != "" || doc.Description != "" || doc.Compact != "" || doc.Format != "" {
		t.Fatalf("expected optional strings empty, got %+v", doc)
	}
	if doc.Filters != nil || doc.FormatOptions != nil || doc.BaseDimensionName != "" {
		t.Fatalf("expected optional structures dropped, got %+v", doc)
	}
	if doc.Round != nil || doc.Percentile != nil {
		t.Fatalf("expected numeric options nil, got %+v", doc)
	}
}

func TestAdditionalMetricDocumentSurfacesValues(t *testing.T) {
	label := "Revenue"
	base := "revenue"
	round := 2
	row := &types.ChartVersionAdditionalMetric{
		SourceTable:       "orders",
		Name:              "revenue_sum",
		MetricType:        "sum",
		SQL:               "${TABLE}.revenue",
		Label:             &label,
		Round:             &round,
		BaseDimensionName: &base,
		Filters:           datatypes.JSON(`[{"id":"f1","target":{"fieldRef":"orders.status"},"operator":"equals"}]`),
	}

	doc, err := additionalMetricDocument(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Label != label || doc.BaseDimensionName != base {
		t.Fatalf("expected optional values surfaced, got %+v", doc)
	}
	if doc.Round == nil || *doc.Round != round {
		t.Fatalf("expected round kept, got %+v", doc.Round)
	}
	want := []types.MetricFilterRule{{ID: "f1", Operator: "equals"}}
	want[0].Target.FieldRef = "orders.status"
	if !reflect.DeepEqual(doc.Filters, want) {
		t.Fatalf("expected filters %+v, got %+v", want, doc.Filters)
	}
}
