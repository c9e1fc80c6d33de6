package domain

import "strings"

// TurnEventKind - тип события внутри хода. Порядок событий в ходу значим.
type TurnEventKind uint8

const (
	EventUnknown TurnEventKind = iota
	EventDamage
	EventMultiHit
	EventDot
	EventPosture
	EventBreak
	EventSuperbreak
	EventPrepare // враг телеграфирует тяжелую атаку
	EventRecover // конец слома, стойка восстановлена
)

// Маппинг для конвертации JSON -> Domain
var eventStringToKind = map[string]TurnEventKind{
	"DAMAGE":     EventDamage,
	"MULTIHIT":   EventMultiHit,
	"DOT":        EventDot,
	"POSTURE":    EventPosture,
	"BREAK":      EventBreak,
	"SUPERBREAK": EventSuperbreak,
	"PREPARE":    EventPrepare,
	"RECOVER":    EventRecover,
}

// Маппинг для логов Domain -> String
var eventKindToString = map[TurnEventKind]string{
	EventDamage:     "DAMAGE",
	EventMultiHit:   "MULTIHIT",
	EventDot:        "DOT",
	EventPosture:    "POSTURE",
	EventBreak:      "BREAK",
	EventSuperbreak: "SUPERBREAK",
	EventPrepare:    "PREPARE",
	EventRecover:    "RECOVER",
}

// ParseEvent конвертирует строку из JSON в TurnEventKind
func ParseEvent(s string) TurnEventKind {
	if val, ok := eventStringToKind[strings.ToUpper(s)]; ok {
		return val
	}
	return EventUnknown
}

// String реализует интерфейс Stringer (для fmt.Printf)
func (k TurnEventKind) String() string {
	if val, ok := eventKindToString[k]; ok {
		return val
	}
	return "UNKNOWN"
}

func (k TurnEventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *TurnEventKind) UnmarshalText(b []byte) error {
	v := ParseEvent(string(b))
	if v == EventUnknown {
		return &EnumError{Enum: "turn event", Value: string(b)}
	}
	*k = v
	return nil
}

// TurnEvent - одно событие боевого лога
type TurnEvent struct {
	Turn   int           `json:"turn"`
	Kind   TurnEventKind `json:"kind"`
	Target Side          `json:"target"`
	Value  int           `json:"value,omitempty"`
	Crit   bool          `json:"crit,omitempty"`
}

// Outcome - итог боя
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeVictory
	OutcomeDefeat
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	default:
		return "none"
	}
}

// ParseOutcome конвертирует строку в Outcome
func ParseOutcome(s string) (Outcome, bool) {
	switch strings.ToLower(s) {
	case "victory":
		return OutcomeVictory, true
	case "defeat":
		return OutcomeDefeat, true
	case "none", "":
		return OutcomeNone, true
	}
	return OutcomeNone, false
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	v, ok := ParseOutcome(string(b))
	if !ok {
		return &EnumError{Enum: "outcome", Value: string(b)}
	}
	*o = v
	return nil
}
