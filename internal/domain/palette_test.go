package domain

import (
	"reflect"
	"testing"
)

func TestEffectiveColorPalette(t *testing.T) {
	override := []string{"#000000"}
	org := []string{"#ffffff"}

	if got := EffectiveColorPalette(override, org); !reflect.DeepEqual(got, override) {
		t.Fatalf("expected override to win, got %v", got)
	}
	if got := EffectiveColorPalette(nil, org); !reflect.DeepEqual(got, org) {
		t.Fatalf("expected org palette, got %v", got)
	}
	if got := EffectiveColorPalette(nil, nil); !reflect.DeepEqual(got, DefaultColorPalette) {
		t.Fatalf("expected built-in default, got %v", got)
	}
}
