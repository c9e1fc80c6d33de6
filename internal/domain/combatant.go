package domain

import "strings"

// Side - чья сторона в бою
type Side uint8

const (
	SidePlayer Side = iota
	SideEnemy
)

func (s Side) String() string {
	if s == SideEnemy {
		return "enemy"
	}
	return "player"
}

// Opponent возвращает противоположную сторону
func (s Side) Opponent() Side {
	if s == SidePlayer {
		return SideEnemy
	}
	return SidePlayer
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "player":
		*s = SidePlayer
	case "enemy":
		*s = SideEnemy
	default:
		return &EnumError{Enum: "side", Value: string(b)}
	}
	return nil
}

// Status - состояние бойца. Dead бывает только у врага.
type Status uint8

const (
	StatusNormal Status = iota
	StatusPreparing
	StatusBroken
	StatusSuperbroken
	StatusDead
)

var statusStringTo = map[string]Status{
	"normal":      StatusNormal,
	"preparing":   StatusPreparing,
	"broken":      StatusBroken,
	"superbroken": StatusSuperbroken,
	"dead":        StatusDead,
}

var statusToString = map[Status]string{
	StatusNormal:      "normal",
	StatusPreparing:   "preparing",
	StatusBroken:      "broken",
	StatusSuperbroken: "superbroken",
	StatusDead:        "dead",
}

// ParseStatus конвертирует строку в Status
func ParseStatus(s string) (Status, bool) {
	v, ok := statusStringTo[strings.ToLower(s)]
	return v, ok
}

func (s Status) String() string {
	if v, ok := statusToString[s]; ok {
		return v
	}
	return "unknown"
}

// IsStaggered - боец пропускает ход (сломан стойкой)
func (s Status) IsStaggered() bool {
	return s == StatusBroken || s == StatusSuperbroken
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	v, ok := ParseStatus(string(b))
	if !ok {
		return &EnumError{Enum: "status", Value: string(b)}
	}
	*s = v
	return nil
}

// Attributes - общая форма характеристик игрока и врага.
// Инвариант: 0 <= HP <= MaxHP, 0 <= Posture <= MaxPosture. Держится мутаторами.
type Attributes struct {
	MaxHP      int `json:"maxHp"`
	HP         int `json:"hp"`
	MaxPosture int `json:"maxPosture"`
	Posture    int `json:"posture"`
	MaxEnergy  int `json:"maxEnergy"` // только у игрока
	Energy     int `json:"energy"`

	Attack         float64 `json:"attack"`
	Defense        float64 `json:"defense"`
	CritChance     float64 `json:"critChance"`
	CritDamage     float64 `json:"critDamage"`
	MultiHitChance float64 `json:"multiHitChance"`
	DotChance      float64 `json:"dotChance"`
	Penetration    float64 `json:"penetration"`
	BonusHits      int     `json:"bonusHits"`

	// Проценты (10 = +10%)
	DamagePct          float64 `json:"damagePct"`
	DamageReductionPct float64 `json:"damageReductionPct"`
	HealPct            float64 `json:"healPct"`
	PostureDamagePct   float64 `json:"postureDamagePct"`
	EnergyRegenPct     float64 `json:"energyRegenPct"`
}

// DotState - текущий периодический урон. Новый стак заменяет старый целиком.
type DotState struct {
	Damage         int `json:"damage"`
	PosturePerTick int `json:"posturePerTick"`
	TicksRemaining int `json:"ticksRemaining"`
}

// Combatant - полное боевое состояние одной стороны
type Combatant struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Attrs      Attributes `json:"attrs"`
	Status     Status     `json:"status"`
	BreakTurns int        `json:"remainingBreakTurns"`
	Dot        *DotState  `json:"dot,omitempty"`

	// SkillCooldown - ходов до готовности умения (игрок)
	SkillCooldown int `json:"skillCooldown"`
}

// IsAlive - HP больше нуля и не помечен мертвым
func (c *Combatant) IsAlive() bool {
	return c.Attrs.HP > 0 && c.Status != StatusDead
}

// Clone - копия бойца без общих указателей
func (c Combatant) Clone() Combatant {
	if c.Dot != nil {
		d := *c.Dot
		c.Dot = &d
	}
	return c
}
