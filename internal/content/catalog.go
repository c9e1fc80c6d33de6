// Package content - статические таблицы игры: персонажи, враги, снаряжение, эхо, резонансы.
// Ядро только читает их по id и никогда не мутирует.
package content

import (
	"ascension-server/internal/domain"
	"slices"
)

//go:generate go tool mockgen -destination=./mocks/catalog_mock.go -package=mocks . Catalog

// Catalog - интерфейс поиска контента по id.
// Неизвестный id - это (zero, false), а не паника: вызывающий подставляет заглушку.
type Catalog interface {
	Character(id string) (CharacterDef, bool)
	Enemy(id string) (EnemyDef, bool)
	Equipment(id string) (EquipmentDef, bool)
	Echo(id string) (EchoDef, bool)
	Resonance(id string) (ResonanceDef, bool)

	// Списки отсортированы по ID: от порядка зависит детерминизм выборок
	Echoes() []EchoDef
	Enemies() []EnemyDef
	Resonances() []ResonanceDef
}

// StatMod - прибавка к стату
type StatMod struct {
	Stat   string  `yaml:"stat" json:"stat"`
	Amount float64 `yaml:"amount" json:"amount"`
}

// StatBlock - базовые статы из таблицы
type StatBlock struct {
	MaxHP          int     `yaml:"max_hp"`
	MaxPosture     int     `yaml:"max_posture"`
	MaxEnergy      int     `yaml:"max_energy"`
	Attack         float64 `yaml:"attack"`
	Defense        float64 `yaml:"defense"`
	CritChance     float64 `yaml:"crit_chance"`
	CritDamage     float64 `yaml:"crit_damage"`
	MultiHitChance float64 `yaml:"multi_hit_chance"`
	DotChance      float64 `yaml:"dot_chance"`
	Penetration    float64 `yaml:"penetration"`
	BonusHits      int     `yaml:"bonus_hits"`

	DamagePct          float64 `yaml:"damage_pct"`
	DamageReductionPct float64 `yaml:"damage_reduction_pct"`
	HealPct            float64 `yaml:"heal_pct"`
	PostureDamagePct   float64 `yaml:"posture_damage_pct"`
	EnergyRegenPct     float64 `yaml:"energy_regen_pct"`
}

// Attributes собирает боевые атрибуты с полным HP/стойкой
func (s StatBlock) Attributes() domain.Attributes {
	return domain.Attributes{
		MaxHP:              s.MaxHP,
		HP:                 s.MaxHP,
		MaxPosture:         s.MaxPosture,
		Posture:            s.MaxPosture,
		MaxEnergy:          s.MaxEnergy,
		Attack:             s.Attack,
		Defense:            s.Defense,
		CritChance:         s.CritChance,
		CritDamage:         s.CritDamage,
		MultiHitChance:     s.MultiHitChance,
		DotChance:          s.DotChance,
		Penetration:        s.Penetration,
		BonusHits:          s.BonusHits,
		DamagePct:          s.DamagePct,
		DamageReductionPct: s.DamageReductionPct,
		HealPct:            s.HealPct,
		PostureDamagePct:   s.PostureDamagePct,
		EnergyRegenPct:     s.EnergyRegenPct,
	}
}

// CharacterDef - играбельный персонаж
type CharacterDef struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Stats     StatBlock `yaml:"stats"`
	Equipment []string  `yaml:"equipment"`
}

// BehaviorDef - описание поведения врага в таблице
type BehaviorDef struct {
	ChargeChance *float64 `yaml:"charge_chance"`
	Cycle        []string `yaml:"cycle"`
}

// EnemyDef - враг
type EnemyDef struct {
	ID        string      `yaml:"id"`
	Name      string      `yaml:"name"`
	Archetype string      `yaml:"archetype"`
	Rooms     []string    `yaml:"rooms"`
	Stats     StatBlock   `yaml:"stats"`
	Behavior  BehaviorDef `yaml:"behavior"`
}

// Profile собирает машину поведения: дефолт архетипа + переопределения из таблицы.
// Битый шаг плана пропускается.
func (e EnemyDef) Profile() domain.BehaviorProfile {
	arch, ok := domain.ParseArchetype(e.Archetype)
	if !ok {
		arch = domain.ArchetypeSimple
	}
	p := domain.DefaultBehavior(arch)
	if e.Behavior.ChargeChance != nil {
		p.ChargeChance = *e.Behavior.ChargeChance
	}
	if len(e.Behavior.Cycle) > 0 {
		cycle := make([]domain.EnemyMove, 0, len(e.Behavior.Cycle))
		for _, s := range e.Behavior.Cycle {
			if m, ok := domain.ParseEnemyMove(s); ok {
				cycle = append(cycle, m)
			}
		}
		if len(cycle) > 0 {
			p.Cycle = cycle
		}
	}
	return p
}

// AppearsIn - враг может выпасть в комнате этого типа
func (e EnemyDef) AppearsIn(kind domain.RoomKind) bool {
	for _, r := range e.Rooms {
		if domain.ParseRoomKind(r) == kind {
			return true
		}
	}
	return false
}

// EquipmentDef - предмет снаряжения персонажа
type EquipmentDef struct {
	ID   string    `yaml:"id"`
	Name string    `yaml:"name"`
	Mods []StatMod `yaml:"mods"`
}

// EchoDef - эхо: награда драфта/магазина, принадлежит одному пути
type EchoDef struct {
	ID     string        `yaml:"id"`
	Name   string        `yaml:"name"`
	PathID string        `yaml:"path"`
	Rarity domain.Rarity `yaml:"rarity"`
	Mods   []StatMod     `yaml:"mods"`
}

// ResonanceUpgradeDef - апгрейд, который предлагает сделка
type ResonanceUpgradeDef struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Stat      string  `yaml:"stat"`
	Amount    float64 `yaml:"amount"`
	HPCostPct float64 `yaml:"hp_cost_pct"`
}

// ResonanceDef - резонанс пары путей. Пустой RunPathID - подходит к любому пути забега.
type ResonanceDef struct {
	ID           string                `yaml:"id"`
	Name         string                `yaml:"name"`
	OriginPathID string                `yaml:"origin"`
	RunPathID    string                `yaml:"run"`
	Upgrades     []ResonanceUpgradeDef `yaml:"upgrades"`
}

// Matches - резонанс подходит паре путей
func (r ResonanceDef) Matches(origin, run string) bool {
	return r.OriginPathID == origin && (r.RunPathID == "" || r.RunPathID == run)
}

// --- ЗАГЛУШКИ ---
// Встроенные значения, когда id не нашелся в каталоге

const (
	FallbackCharacterID = "builtin-wanderer"
	FallbackEnemyID     = "builtin-husk"
)

// FallbackCharacter - персонаж по умолчанию
func FallbackCharacter() CharacterDef {
	return CharacterDef{
		ID:   FallbackCharacterID,
		Name: "Wanderer",
		Stats: StatBlock{
			MaxHP: 100, MaxPosture: 40, MaxEnergy: 100,
			Attack: 12, Defense: 4, CritChance: 0.1, CritDamage: 1.5,
		},
	}
}

// FallbackEnemy - враг по умолчанию
func FallbackEnemy() EnemyDef {
	return EnemyDef{
		ID:        FallbackEnemyID,
		Name:      "Husk",
		Archetype: domain.ArchetypeSimple.String(),
		Stats: StatBlock{
			MaxHP: 40, MaxPosture: 20,
			Attack: 8, Defense: 2, CritChance: 0.05, CritDamage: 1.5,
		},
	}
}

// Paths - отсортированный список путей, у которых есть эхо
func Paths(c Catalog) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range c.Echoes() {
		if e.PathID != "" && !seen[e.PathID] {
			seen[e.PathID] = true
			out = append(out, e.PathID)
		}
	}
	slices.Sort(out)
	return out
}
