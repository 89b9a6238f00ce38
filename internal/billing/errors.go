package billing

import (
	"errors"
	"fmt"

	"github.com/hppanpaliya/FairShare-AI/internal/imagestore"
	"github.com/hppanpaliya/FairShare-AI/internal/metrics"
	"github.com/hppanpaliya/FairShare-AI/internal/storage"
)

// Error taxonomy. Every error returned by Service wraps exactly one of these.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrExternalService = errors.New("external service failure")
	ErrPersistence     = errors.New("persistence failure")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// storeErr classifies an error from the record or image store.
func storeErr(err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, imagestore.ErrNotFound) {
		return fmt.Errorf("%w: %s: %w", ErrNotFound, what, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, what, err)
}

// outcome is the metrics label for err.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrExternalService):
		return "external_service"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return metrics.OutcomeError
	}
}
