package replay

import (
	"ascension-server/internal/domain"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Validate проверяет всю ленту целиком и возвращает *domain.SchemaError со всеми нарушениями.
// Ничего не применяется.
func Validate(events []domain.ReplayEvent) error {
	var errs error
	if len(events) == 0 {
		return domain.NewSchemaError(errors.New("replay has no events"))
	}

	for i, ev := range events {
		if ev.V != domain.ReplayVersion {
			errs = multierr.Append(errs, fmt.Errorf("event #%d: version %d, supported %d", i, ev.V, domain.ReplayVersion))
		}

		t := ev.Type()
		if t == domain.ReplayUnknown {
			errs = multierr.Append(errs, fmt.Errorf("event #%d: unknown type %q", i, ev.T))
			continue
		}
		if i == 0 && t != domain.ReplayRunStart {
			errs = multierr.Append(errs, fmt.Errorf("event #0: replay must start with runStart, got %s", t))
		}
		if i > 0 && t == domain.ReplayRunStart {
			errs = multierr.Append(errs, fmt.Errorf("event #%d: runStart is only allowed as the first event", i))
		}

		if err := checks[t](ev.Payload); err != nil {
			errs = multierr.Append(errs, prefixed(i, t, err))
		}
	}
	return domain.NewSchemaError(errs)
}

// prefixed помечает каждое нарушение номером события
func prefixed(index int, t domain.ReplayEventType, err error) error {
	var out error
	for _, e := range multierr.Errors(err) {
		out = multierr.Append(out, fmt.Errorf("event #%d (%s): %w", index, t, e))
	}
	return out
}
