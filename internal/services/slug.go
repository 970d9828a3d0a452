package services

import (
	"fmt"
	"math/rand"

	"github.com/vizlake/vizlake-backend/internal/platform/dbctx"
	"github.com/vizlake/vizlake-backend/internal/platform/logger"
)

const (
	slugSuffixLength   = 5
	slugSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	slugMaxAttempts    = 10
)

// SlugChecker reports whether a slug is already taken within the store.
// ChartRepo satisfies it.
type SlugChecker interface {
	SlugExists(dbc dbctx.Context, slug string) (bool, error)
}

type SlugAllocator interface {
	Allocate(dbc dbctx.Context, desired string, force bool) (string, error)
}

type slugAllocator struct {
	log     *logger.Logger
	checker SlugChecker
}

func NewSlugAllocator(baseLog *logger.Logger, checker SlugChecker) SlugAllocator {
	return &slugAllocator{
		log:     baseLog.With("service", "SlugAllocator"),
		checker: checker,
	}
}

// Allocate returns the desired slug when free (or forced), otherwise probes
// random-suffixed candidates until one is free.
func (s *slugAllocator) Allocate(dbc dbctx.Context, desired string, force bool) (string, error) {
	if force {
		return desired, nil
	}

	taken, err := s.checker.SlugExists(dbc, desired)
	if err != nil {
		return "", fmt.Errorf("check slug %q: %w", desired, err)
	}
	if !taken {
		return desired, nil
	}

	for attempt := 0; attempt < slugMaxAttempts; attempt++ {
		candidate := desired + "-" + randomSlugSuffix()
		taken, err := s.checker.SlugExists(dbc, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("allocate slug for %q: no free candidate after %d attempts", desired, slugMaxAttempts)
}

func randomSlugSuffix() string {
	b := make([]byte, slugSuffixLength)
	for i := range b {
		b[i] = slugSuffixAlphabet[rand.Intn(len(slugSuffixAlphabet))]
	}
	return string(b)
}
