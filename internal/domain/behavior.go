package domain

import "strings"

// Archetype - архетип поведения врага
type Archetype uint8

const (
	ArchetypeSimple Archetype = iota
	ArchetypeElite
	ArchetypeBoss
)

var archetypeStringTo = map[string]Archetype{
	"simple-auto": ArchetypeSimple,
	"elite":       ArchetypeElite,
	"boss":        ArchetypeBoss,
}

var archetypeToString = map[Archetype]string{
	ArchetypeSimple: "simple-auto",
	ArchetypeElite:  "elite",
	ArchetypeBoss:   "boss",
}

// ParseArchetype конвертирует строку из каталога в Archetype
func ParseArchetype(s string) (Archetype, bool) {
	v, ok := archetypeStringTo[strings.ToLower(s)]
	return v, ok
}

func (a Archetype) String() string {
	if v, ok := archetypeToString[a]; ok {
		return v
	}
	return "unknown"
}

func (a Archetype) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Archetype) UnmarshalText(b []byte) error {
	v, ok := ParseArchetype(string(b))
	if !ok {
		return &EnumError{Enum: "archetype", Value: string(b)}
	}
	*a = v
	return nil
}

// EnemyMove - шаг плана врага
type EnemyMove uint8

const (
	MoveAttack EnemyMove = iota
	MoveCharge           // телеграф: враг уходит в preparing
	MoveHeavy            // тяжелая атака после заряда
)

var moveStringTo = map[string]EnemyMove{
	"attack": MoveAttack,
	"charge": MoveCharge,
	"heavy":  MoveHeavy,
}

var moveToString = map[EnemyMove]string{
	MoveAttack: "attack",
	MoveCharge: "charge",
	MoveHeavy:  "heavy",
}

// ParseEnemyMove конвертирует строку в EnemyMove
func ParseEnemyMove(s string) (EnemyMove, bool) {
	v, ok := moveStringTo[strings.ToLower(s)]
	return v, ok
}

func (m EnemyMove) String() string {
	if v, ok := moveToString[m]; ok {
		return v
	}
	return "unknown"
}

func (m EnemyMove) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *EnemyMove) UnmarshalText(b []byte) error {
	v, ok := ParseEnemyMove(string(b))
	if !ok {
		return &EnumError{Enum: "enemy move", Value: string(b)}
	}
	*m = v
	return nil
}

// Шансы заряда по умолчанию для архетипов без явного плана
const (
	DefaultSimpleChargeChance = 0.15
	DefaultEliteChargeChance  = 0.30
)

// BehaviorProfile - единая машина состояний врага.
// Непустой Cycle главнее броска ChargeChance.
type BehaviorProfile struct {
	Archetype    Archetype   `json:"archetype"`
	ChargeChance float64     `json:"chargeChance"`
	Cycle        []EnemyMove `json:"cycle,omitempty"`
}

// DefaultBehavior - профиль по архетипу, когда каталог ничего не задал
func DefaultBehavior(a Archetype) BehaviorProfile {
	switch a {
	case ArchetypeBoss:
		return BehaviorProfile{
			Archetype: ArchetypeBoss,
			Cycle:     []EnemyMove{MoveAttack, MoveAttack, MoveCharge, MoveHeavy},
		}
	case ArchetypeElite:
		return BehaviorProfile{Archetype: ArchetypeElite, ChargeChance: DefaultEliteChargeChance}
	default:
		return BehaviorProfile{Archetype: ArchetypeSimple, ChargeChance: DefaultSimpleChargeChance}
	}
}
