package domain

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Ошибки ввода игрока. Состояние при них не меняется.
var (
	ErrNoActiveRun           = errors.New("no active run")
	ErrRunFinished           = errors.New("run already finished")
	ErrNoOffer               = errors.New("no offer available")
	ErrInvalidChoice         = errors.New("invalid choice")
	ErrPurchaseCap           = errors.New("purchase cap reached for this shop visit")
	ErrInsufficientFragments = errors.New("not enough echo fragments")
	ErrBattleInProgress      = errors.New("battle in progress")
	ErrNoBattle              = errors.New("no battle")
	ErrWrongRoom             = errors.New("action not allowed in this room")
	ErrReplayNotStarted      = errors.New("replay not started")
	ErrReplayFinished        = errors.New("replay finished")
	ErrVersionMismatch       = errors.New("version mismatch")
)

// EnumError - значение не входит в перечисление
type EnumError struct {
	Enum  string
	Value string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Enum, e.Value)
}

// DeterminismError - перегенерированное предложение не совпало с записанным решением.
// Фатально для сессии реплея.
type DeterminismError struct {
	EventIndex int
	EventType  string
	Field      string
	Expected   string
	Actual     string
}

func (e *DeterminismError) Error() string {
	return fmt.Sprintf("determinism violation at event #%d (%s): %s expected %q, regenerated %q",
		e.EventIndex, e.EventType, e.Field, e.Expected, e.Actual)
}

// SchemaError - битый payload снапшота или реплея. Содержит ВСЕ найденные нарушения.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violations (%d): %s", len(e.Violations), strings.Join(e.Violations, "; "))
}

// NewSchemaError собирает SchemaError из накопленной multierr ошибки. nil -> nil.
func NewSchemaError(err error) error {
	if err == nil {
		return nil
	}
	errs := multierr.Errors(err)
	out := &SchemaError{Violations: make([]string, 0, len(errs))}
	for _, e := range errs {
		out.Violations = append(out.Violations, e.Error())
	}
	return out
}

// ContentError - id не нашелся в каталоге. Восстановимо: движок берет заглушку.
type ContentError struct {
	Kind string
	ID   string
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("unknown %s id %q", e.Kind, e.ID)
}

// Diagnostic - запись канала диагностики (контент, клампы числовых значений)
type Diagnostic struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}
