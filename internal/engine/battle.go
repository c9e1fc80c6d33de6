package engine

import (
	"ascension-server/internal/domain"
	"ascension-server/internal/systems"
	"ascension-server/pkg/logger"
	"ascension-server/pkg/rng"
	"math"

	"github.com/sirupsen/logrus"
)

// Параметры боя
const (
	MaxBattleTurns = 200 // дальше - поражение, чтобы вырожденный бой не вешал реплей

	SkillEnergyCost  = 40
	SkillAttackMult  = 1.8
	SkillPostureMult = 1.5
	SkillCooldown    = 3
	BaseEnergyRegen  = 10
)

// Battle - пошаговый бой игрока с одним врагом.
// Один вызов Advance = один ход одной стороны (игрок -> враг -> игрок -> ...).
// Никаких таймеров: темп задает хост.
type Battle struct {
	Seed    uint32
	EnemyID string
	Player  *domain.Combatant
	Enemy   *domain.Combatant
	Policy  domain.SkillPolicy

	stream      *rng.Stream
	brain       systems.EnemyBrain
	skillQueued bool
	skillTurns  []int
	turn        int
	actor       domain.Side
	outcome     domain.Outcome
	log         []domain.TurnEvent
	logger      *logrus.Entry
}

// NewBattle создает бой. Поток должен быть свежим потоком от сида боя.
func NewBattle(stream *rng.Stream, player, enemy domain.Combatant, enemyID string, behavior domain.BehaviorProfile) *Battle {
	p := player.Clone()
	e := enemy.Clone()
	p.Attrs.Sanitize()
	e.Attrs.Sanitize()

	b := &Battle{
		Seed:    stream.Seed(),
		EnemyID: enemyID,
		Player:  &p,
		Enemy:   &e,
		stream:  stream,
		brain:   systems.EnemyBrain{Profile: behavior},
		actor:   domain.SidePlayer,
	}
	b.logger = logger.Log.WithFields(logrus.Fields{
		"component":   "battle_engine",
		"battle_seed": b.Seed,
		"enemy_id":    enemyID,
	})
	return b
}

// RestoreBattle поднимает бой из снапшота, продолжая поток с сохраненного состояния
func RestoreBattle(snap domain.BattleSnapshot, player, enemy domain.Combatant) *Battle {
	stream := rng.FromState(snap.Seed, snap.StreamState, snap.StreamDraws)
	b := NewBattle(stream, player, enemy, snap.EnemyID, snap.Behavior)
	b.brain.CycleIndex = snap.CycleIndex
	b.Policy = snap.Policy
	b.skillQueued = snap.SkillQueued
	b.skillTurns = append([]int(nil), snap.SkillTurns...)
	b.turn = snap.Turn
	b.actor = snap.Actor
	b.outcome = snap.Outcome
	return b
}

// Snapshot - бухгалтерия боя; сами бойцы берутся из Player/Enemy
func (b *Battle) Snapshot() domain.BattleSnapshot {
	return domain.BattleSnapshot{
		Seed:        b.Seed,
		StreamState: b.stream.State(),
		StreamDraws: b.stream.Draws(),
		Turn:        b.turn,
		Actor:       b.actor,
		EnemyID:     b.EnemyID,
		Behavior:    b.brain.Profile,
		CycleIndex:  b.brain.CycleIndex,
		Policy:      b.Policy,
		SkillQueued: b.skillQueued,
		SkillTurns:  b.SkillTurns(),
		Outcome:     b.outcome,
	}
}

func (b *Battle) Turn() int { return b.turn }
func (b *Battle) Outcome() domain.Outcome { return b.outcome }
func (b *Battle) Finished() bool { return b.outcome != domain.OutcomeNone }
func (b *Battle) NextActor() domain.Side { return b.actor }
func (b *Battle) Log() []domain.TurnEvent { return append([]domain.TurnEvent(nil), b.log...) }

// QueueSkill - одноразовый приказ использовать умение в ближайший ход игрока.
// Ход приказа запоминается, чтобы реплей мог его повторить.
func (b *Battle) QueueSkill() {
	if b.Finished() {
		return
	}
	b.skillQueued = true
	b.skillTurns = append(b.skillTurns, b.turn)
}

// SkillTurns - ходы, после которых игрок приказал применить умение
func (b *Battle) SkillTurns() []int {
	if len(b.skillTurns) == 0 {
		return nil
	}
	return append([]int(nil), b.skillTurns...)
}

// SkillReady - умение можно применить
func (b *Battle) SkillReady() bool {
	return b.Player.SkillCooldown == 0 && b.Player.Attrs.Energy >= SkillEnergyCost
}

// Advance проводит один ход текущей стороны и возвращает его события.
// После завершения боя - no-op.
func (b *Battle) Advance() []domain.TurnEvent {
	if b.Finished() {
		return nil
	}
	b.turn++

	actorSide := b.actor
	actor, target := b.Player, b.Enemy
	if actorSide == domain.SideEnemy {
		actor, target = b.Enemy, b.Player
	}
	targetSide := actorSide.Opponent()

	var events []domain.TurnEvent

	// (a) бухгалтерия
	if actorSide == domain.SidePlayer {
		if actor.SkillCooldown > 0 {
			actor.SkillCooldown--
		}
		actor.Attrs.RestoreEnergy(energyRegen(&actor.Attrs))
	}

	// (b) слом - пропуск хода
	if actor.Status.IsStaggered() {
		if systems.TickBreak(actor) {
			events = append(events, domain.TurnEvent{Kind: domain.EventRecover, Target: actorSide, Value: actor.Attrs.Posture})
		}
	} else {
		// (c) действие
		if actorSide == domain.SidePlayer {
			events = append(events, b.playerAction()...)
		} else {
			events = append(events, b.enemyAction()...)
		}
		if b.checkOutcome() {
			return b.commit(events)
		}
		// (d) пассивный реген стойки
		systems.RegenPosture(actor)
	}

	// Периодический урон цели тикает в конце хода того, кто его наложил
	events = append(events, systems.TickDot(target, targetSide)...)
	if b.checkOutcome() {
		return b.commit(events)
	}

	if b.turn >= MaxBattleTurns {
		b.logger.WithField("turns", b.turn).Warn("Battle hit turn cap, counting as defeat.")
		b.finish(domain.OutcomeDefeat)
		return b.commit(events)
	}

	b.actor = targetSide
	return b.commit(events)
}

// RunToEnd крутит Advance до исхода (автобой, тесты)
func (b *Battle) RunToEnd() domain.Outcome {
	return b.RunScripted(nil)
}

// RunScripted доигрывает бой, повторяя приказы умения на записанных ходах.
// Ходы, которые уже прошли, пропускаются.
func (b *Battle) RunScripted(skillTurns []int) domain.Outcome {
	next := 0
	for !b.Finished() {
		for next < len(skillTurns) && skillTurns[next] <= b.turn {
			if skillTurns[next] == b.turn {
				b.QueueSkill()
			}
			next++
		}
		b.Advance()
	}
	return b.outcome
}

func (b *Battle) playerAction() []domain.TurnEvent {
	spec := systems.ActionSpec{Target: domain.SideEnemy, AttackMult: 1, PostureMult: 1}

	wantSkill := b.Policy == domain.PolicyAuto || b.skillQueued
	if wantSkill && b.SkillReady() {
		b.Player.Attrs.SpendEnergy(SkillEnergyCost)
		b.Player.SkillCooldown = SkillCooldown
		b.skillQueued = false
		spec.AttackMult = SkillAttackMult
		spec.PostureMult = SkillPostureMult
		b.logger.WithField("turn", b.turn).Debug("Player uses skill.")
	}

	return b.resolve(b.Player, b.Enemy, spec)
}

func (b *Battle) enemyAction() []domain.TurnEvent {
	spec := systems.ActionSpec{Target: domain.SidePlayer, AttackMult: 1, PostureMult: 1}

	switch b.brain.NextMove(b.Enemy.Status, b.stream) {
	case domain.MoveCharge:
		b.Enemy.Status = domain.StatusPreparing
		return []domain.TurnEvent{{Kind: domain.EventPrepare, Target: domain.SideEnemy}}
	case domain.MoveHeavy:
		b.Enemy.Status = domain.StatusNormal
		spec.AttackMult = systems.HeavyAttackMult
		spec.PostureMult = systems.HeavyPostureMult
	}

	return b.resolve(b.Enemy, b.Player, spec)
}

// resolve делает броски действия в фиксированном порядке: крит, доп. удар, DoT
func (b *Battle) resolve(attacker, target *domain.Combatant, spec systems.ActionSpec) []domain.TurnEvent {
	a := &attacker.Attrs
	spec.Crit = b.stream.Chance(a.CritChance)
	spec.Hits = 1 + a.BonusHits
	if b.stream.Chance(a.MultiHitChance) {
		spec.Hits++
	}
	spec.ApplyDot = b.stream.Chance(a.DotChance)

	res := systems.ResolveAction(attacker, target, spec)
	if res.Killed && target == b.Enemy {
		b.Enemy.Status = domain.StatusDead
	}
	return res.Events
}

// checkOutcome: сначала победа, потом поражение
func (b *Battle) checkOutcome() bool {
	switch {
	case b.Enemy.Attrs.HP <= 0:
		b.Enemy.Status = domain.StatusDead
		b.finish(domain.OutcomeVictory)
	case b.Player.Attrs.HP <= 0:
		b.finish(domain.OutcomeDefeat)
	}
	return b.Finished()
}

func (b *Battle) finish(o domain.Outcome) {
	b.outcome = o
	systems.NormalizeAfterBattle(b.Player)
	b.logger.WithFields(logrus.Fields{
		"outcome":  o.String(),
		"turns":    b.turn,
		"hp_after": b.Player.Attrs.HP,
	}).Info("Battle finished.")
}

func (b *Battle) commit(events []domain.TurnEvent) []domain.TurnEvent {
	for i := range events {
		events[i].Turn = b.turn
	}
	b.log = append(b.log, events...)
	return events
}

func energyRegen(a *domain.Attributes) int {
	pct := a.EnergyRegenPct
	if math.IsNaN(pct) || pct < -100 {
		pct = -100
	}
	return int(math.Round(BaseEnergyRegen * (1 + pct/100)))
}
