package services

import (
	"context"
	"strings"
	"testing"

	"github.com/vizlake/vizlake-backend/internal/platform/dbctx"
	"github.com/vizlake/vizlake-backend/internal/platform/logger"
)

type fakeSlugChecker struct {
	taken map[string]bool
	calls []string
}

func (f *fakeSlugChecker) SlugExists(_ dbctx.Context, slug string) (bool, error) {
	f.calls = append(f.calls, slug)
	return f.taken[slug], nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestSlugAllocatorFree(t *testing.T) {
	checker := &fakeSlugChecker{taken: map[string]bool{}}
	allocator := NewSlugAllocator(testLogger(t), checker)

	slug, err := allocator.Allocate(dbctx.Context{Ctx: context.Background()}, "my-chart", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slug != "my-chart" {
		t.Fatalf("expected desired slug kept, got %q", slug)
	}
}

func TestSlugAllocatorForceSkipsProbe(t *testing.T) {
	checker := &fakeSlugChecker{taken: map[string]bool{"my-chart": true}}
	allocator := NewSlugAllocator(testLogger(t), checker)

	slug, err := allocator.Allocate(dbctx.Context{Ctx: context.Background()}, "my-chart", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slug != "my-chart" {
		t.Fatalf("expected forced slug kept, got %q", slug)
	}
	if len(checker.calls) != 0 {
		t.Fatalf("expected no uniqueness probes, got %v", checker.calls)
	}
}

func TestSlugAllocatorCollision(t *testing.T) {
	checker := &fakeSlugChecker{taken: map[string]bool{"my-chart": true}}
	allocator := NewSlugAllocator(testLogger(t), checker)

	slug, err := allocator.Allocate(dbctx.Context{Ctx: context.Background()}, "my-chart", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slug == "my-chart" {
		t.Fatal("expected a suffixed slug on collision")
	}
	if !strings.HasPrefix(slug, "my-chart-") {
		t.Fatalf("expected desired slug as prefix, got %q", slug)
	}
	if got := len(slug); got != len("my-chart-")+slugSuffixLength {
		t.Fatalf("unexpected candidate length %d for %q", got, slug)
	}
}
