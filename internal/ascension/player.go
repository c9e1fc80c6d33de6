package ascension

import (
	"ascension-server/internal/content"
	"ascension-server/internal/domain"
	"ascension-server/pkg/rng"
	"math"

	"github.com/sirupsen/logrus"
)

// Масштабирование врагов по этажам
const (
	EnemyHPPerFloor     = 0.08
	EnemyAttackPerFloor = 0.05
	ChallengeMultiplier = 1.2
)

// BuildPlayer собирает боевое состояние игрока из рана:
// база персонажа + снаряжение + эхо + апгрейды + бонусные удары резонанса.
// HP берется из рана, энергия в начале боя нулевая.
func (g *Generator) BuildPlayer(run *domain.AscensionRunState) domain.Combatant {
	char := g.character(run.CharacterID)
	attrs := char.Stats.Attributes()

	for _, eqID := range char.Equipment {
		eq, ok := g.catalog.Equipment(eqID)
		if !ok {
			g.reportMissing("equipment", eqID)
			continue
		}
		g.applyMods(&attrs, eq.Mods, eqID)
	}
	for _, id := range run.PickedEchoIDs {
		echo, ok := g.catalog.Echo(id)
		if !ok {
			continue // уже отрапортовано при взятии
		}
		g.applyMods(&attrs, echo.Mods, id)
	}
	for _, u := range run.Upgrades {
		if !domain.ApplyStat(&attrs, u.Stat, u.Amount) {
			g.reportOnce("upgrade:"+u.ID+":"+u.Stat, "content", "unknown upgrade stat ignored", logrus.Fields{"upgrade": u.ID, "stat": u.Stat})
		}
	}
	if run.ResonanceActive {
		attrs.BonusHits += run.ResonanceTier
	}

	attrs.MaxHP = run.HPMax
	attrs.HP = run.HPCurrent
	attrs.Energy = 0
	attrs.Posture = attrs.MaxPosture
	if attrs.Sanitize() {
		g.reportOnce("clamp:player:"+run.RunID, "clamp", "player attributes clamped", logrus.Fields{"run_id": run.RunID})
	}

	return domain.Combatant{ID: char.ID, Name: char.Name, Attrs: attrs}
}

// HealPct - бонус лечения игрока (для "Отдыха" и лечения в магазине)
func (g *Generator) HealPct(run *domain.AscensionRunState) float64 {
	p := g.BuildPlayer(run)
	return p.Attrs.HealPct
}

// StartingHP - макс. HP персонажа для нового рана
func (g *Generator) StartingHP(characterID string) int {
	return g.character(characterID).Stats.MaxHP
}

// PickEnemy выбирает врага для комнаты из подпотока рана.
// Пустой пул - встроенная заглушка и запись в диагностику.
func (g *Generator) PickEnemy(run *domain.AscensionRunState, kind domain.RoomKind) content.EnemyDef {
	var pool []content.EnemyDef
	for _, e := range g.catalog.Enemies() {
		if e.AppearsIn(kind) {
			pool = append(pool, e)
		}
	}
	e, ok := rng.Pick(g.stream, pool)
	g.sync(run)
	if !ok {
		g.report("content", "no enemy for room kind, using fallback", logrus.Fields{"room": kind.String()})
		return content.FallbackEnemy()
	}
	return e
}

// EnemyByID - враг по id; неизвестный id - заглушка
func (g *Generator) EnemyByID(id string) content.EnemyDef {
	if e, ok := g.catalog.Enemy(id); ok {
		return e
	}
	if id != content.FallbackEnemyID {
		g.reportMissing("enemy", id)
	}
	return content.FallbackEnemy()
}

// BuildEnemy - боевое состояние врага с масштабированием по этажу
func (g *Generator) BuildEnemy(def content.EnemyDef, floor int, kind domain.RoomKind) domain.Combatant {
	attrs := def.Stats.Attributes()
	hpMult := 1 + EnemyHPPerFloor*float64(floor)
	atkMult := 1 + EnemyAttackPerFloor*float64(floor)
	if kind == domain.RoomChallenge {
		hpMult *= ChallengeMultiplier
		atkMult *= ChallengeMultiplier
	}
	attrs.MaxHP = int(math.Round(float64(attrs.MaxHP) * hpMult))
	attrs.HP = attrs.MaxHP
	attrs.Attack *= atkMult
	attrs.MaxEnergy = 0
	attrs.Energy = 0
	if attrs.Sanitize() {
		g.report("clamp", "enemy attributes clamped", logrus.Fields{"enemy_id": def.ID})
	}
	return domain.Combatant{ID: def.ID, Name: def.Name, Attrs: attrs}
}

func (g *Generator) character(id string) content.CharacterDef {
	if c, ok := g.catalog.Character(id); ok {
		return c
	}
	if id != "" && id != content.FallbackCharacterID {
		g.reportMissing("character", id)
	}
	return content.FallbackCharacter()
}

func (g *Generator) applyMods(a *domain.Attributes, mods []content.StatMod, source string) {
	for _, m := range mods {
		if !domain.ApplyStat(a, m.Stat, m.Amount) {
			g.reportOnce("stat:"+source+":"+m.Stat, "content", "unknown stat ignored", logrus.Fields{"source": source, "stat": m.Stat})
		}
	}
}
