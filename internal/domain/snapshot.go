package domain

import "strings"

// SnapshotVersion - версия формата снапшота, которую понимает импорт
const SnapshotVersion = 1

// Phase - где находится ран
type Phase uint8

const (
	PhaseIdle     Phase = iota // рана нет
	PhaseMap                   // ждем входа на следующий этаж
	PhaseRoom                  // этаж открыт, бой еще не начат
	PhaseBattle                // идет бой
	PhaseDraft                 // после победы ждем выбор драфта
	PhaseShop                  // в магазине
	PhaseBargain               // висит сделка
	PhaseFinished              // ран закончен
)

var phaseStringTo = map[string]Phase{
	"idle":     PhaseIdle,
	"map":      PhaseMap,
	"room":     PhaseRoom,
	"battle":   PhaseBattle,
	"draft":    PhaseDraft,
	"shop":     PhaseShop,
	"bargain":  PhaseBargain,
	"finished": PhaseFinished,
}

var phaseToString = map[Phase]string{
	PhaseIdle:     "idle",
	PhaseMap:      "map",
	PhaseRoom:     "room",
	PhaseBattle:   "battle",
	PhaseDraft:    "draft",
	PhaseShop:     "shop",
	PhaseBargain:  "bargain",
	PhaseFinished: "finished",
}

// ParsePhase конвертирует строку в Phase
func ParsePhase(s string) (Phase, bool) {
	v, ok := phaseStringTo[strings.ToLower(s)]
	return v, ok
}

func (p Phase) String() string {
	if v, ok := phaseToString[p]; ok {
		return v
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	v, ok := ParsePhase(string(b))
	if !ok {
		return &EnumError{Enum: "phase", Value: string(b)}
	}
	*p = v
	return nil
}

// SkillPolicy - как игрок выбирает действие в автобою
type SkillPolicy uint8

const (
	PolicyAuto       SkillPolicy = iota // умение, как только готово
	PolicyAttackOnly                    // только автоатака (умение по QueueSkill)
)

func (p SkillPolicy) String() string {
	if p == PolicyAttackOnly {
		return "attack-only"
	}
	return "auto"
}

// ParseSkillPolicy конвертирует строку в SkillPolicy
func ParseSkillPolicy(s string) (SkillPolicy, bool) {
	switch strings.ToLower(s) {
	case "auto":
		return PolicyAuto, true
	case "attack-only":
		return PolicyAttackOnly, true
	}
	return PolicyAuto, false
}

func (p SkillPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *SkillPolicy) UnmarshalText(b []byte) error {
	v, ok := ParseSkillPolicy(string(b))
	if !ok {
		return &EnumError{Enum: "skill policy", Value: string(b)}
	}
	*p = v
	return nil
}

// BattleSnapshot - все, что нужно, чтобы продолжить бой с того же хода.
// Хранится сид боя и сырое состояние его потока, а не только сид рана.
type BattleSnapshot struct {
	Seed        uint32          `json:"battleSeed"`
	StreamState uint32          `json:"streamState"`
	StreamDraws uint64          `json:"streamDraws"`
	Turn        int             `json:"turn"`
	Actor       Side            `json:"actor"`
	EnemyID     string          `json:"enemyId"`
	Behavior    BehaviorProfile `json:"behavior"`
	CycleIndex  int             `json:"cycleIndex"`
	Policy      SkillPolicy     `json:"policy"`
	SkillQueued bool            `json:"skillQueued"`
	SkillTurns  []int           `json:"skillTurns,omitempty"`
	Outcome     Outcome         `json:"outcome"`
}

// RunSnapshot - самодостаточная сериализация рана и боя
type RunSnapshot struct {
	SnapshotVersion int      `json:"snapshotVersion"`
	Seed            uint32   `json:"seed"`
	Phase           Phase    `json:"phase"`
	FloorIndex      int      `json:"floorIndex"`
	RoomKind        RoomKind `json:"roomKind,omitempty"`

	// Policy - политика умения сессии; без нее следующие бои разойдутся с записью
	Policy SkillPolicy `json:"policy"`

	// PathLevels - сколько эха взято с каждого пути
	PathLevels map[string]int `json:"pathLevels"`

	Run AscensionRunState `json:"run"`

	Player *Combatant      `json:"player,omitempty"`
	Enemy  *Combatant      `json:"enemy,omitempty"`
	Battle *BattleSnapshot `json:"battle,omitempty"`

	Draft   *DraftOffer    `json:"draft,omitempty"`
	Shop    *ShopInventory `json:"shop,omitempty"`
	Bargain *BargainOffer  `json:"bargain,omitempty"`

	// Events - решения, записанные с начала рана
	Events []ReplayEvent `json:"events,omitempty"`
}
