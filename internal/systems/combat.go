package systems

import (
	"ascension-server/internal/domain"
	"ascension-server/pkg/logger"
	"math"

	"github.com/sirupsen/logrus"
)

// Константы боевой математики
const (
	DamageReductionCap = 0.90 // потолок снижения урона: бессмертным стать нельзя
	PostureOverkillCap = 0.35 // доля стойки до действия, которую можно "перебить" сверх нуля
	BasePostureRatio   = 0.5  // урон стойке от эффективной атаки
	DefaultCritDamage  = 1.5

	BrokenDamageMult      = 1.25
	SuperbrokenDamageMult = 1.5
	BrokenTurns           = 1
	SuperbrokenTurns      = 2

	PostureRegenFraction = 0.08

	DotDamageRatio  = 0.2
	DotPostureRatio = 0.1
	DotTicks        = 3
)

// Таблицы убывающих множителей для дополнительных ударов.
// Индекс - номер удара внутри действия, за концом таблицы берется последний элемент.
var (
	HPScalars      = []float64{1.00, 0.40, 0.30, 0.20, 0.15}
	PostureScalars = []float64{1.00, 0.60, 0.45, 0.35, 0.30}
)

// Scalar возвращает множитель удара i из таблицы
func Scalar(table []float64, i int) float64 {
	if len(table) == 0 {
		return 1
	}
	if i < 0 {
		i = 0
	}
	if i >= len(table) {
		i = len(table) - 1
	}
	return table[i]
}

// ActionSpec - параметры одного действия. Все броски уже сделаны вызывающим.
type ActionSpec struct {
	Target      domain.Side
	AttackMult  float64
	PostureMult float64
	Hits        int  // всего ударов, минимум 1
	Crit        bool // один бросок на все действие
	ApplyDot    bool
}

// ActionResult - итог действия
type ActionResult struct {
	Events       []domain.TurnEvent
	TotalDamage  int
	TotalPosture int
	HitsLanded   int
	Broke        bool
	Superbroke   bool
	Killed       bool
	DotApplied   bool
}

// EffectiveAttack = max(1, attack*mult - defense*(1-penetration))
func EffectiveAttack(attacker, target *domain.Attributes, attackMult float64) float64 {
	atk := nonNeg(attacker.Attack)
	def := nonNeg(target.Defense)
	pen := clampF(attacker.Penetration, 0, 1)
	mult := nonNeg(attackMult)
	return math.Max(1, atk*mult-def*(1-pen))
}

// ReduceDamage применяет снижение урона с потолком. Положительный урон никогда не падает до 0.
func ReduceDamage(raw float64, damageReductionPct float64) int {
	if !(raw > 0) {
		return 0
	}
	// Считаем в процентах: raw*(1-0.9) дает 9.999.. и теряет единицу на полу
	pct := clampF(damageReductionPct, 0, DamageReductionCap*100)
	out := int(math.Floor(raw * (100 - pct) / 100))
	if out < 1 {
		out = 1
	}
	return out
}

// CritMultiplier - множитель крита; мусорное значение <= 1 заменяется дефолтом
func CritMultiplier(a *domain.Attributes) float64 {
	if a.CritDamage > 1 && !math.IsInf(a.CritDamage, 0) {
		return a.CritDamage
	}
	return DefaultCritDamage
}

// StaggerMultiplier - бонус урона по сломанной цели
func StaggerMultiplier(s domain.Status) float64 {
	switch s {
	case domain.StatusBroken:
		return BrokenDamageMult
	case domain.StatusSuperbroken:
		return SuperbrokenDamageMult
	}
	return 1
}

// PostureBudget - сколько урона стойке можно засчитать за одно действие
func PostureBudget(startPosture int) int {
	if startPosture <= 0 {
		return 0
	}
	return startPosture + int(math.Round(float64(startPosture)*PostureOverkillCap))
}

// ResolveAction проводит одно действие attacker -> target.
// Порядок событий: на каждый удар DAMAGE/MULTIHIT, затем POSTURE, затем BREAK/SUPERBREAK в момент обнуления.
func ResolveAction(attacker, target *domain.Combatant, spec ActionSpec) ActionResult {
	combatLogger := logger.Log.WithFields(logrus.Fields{
		"component":   "combat_system",
		"attacker_id": attacker.ID,
		"target_id":   target.ID,
	})

	var res ActionResult
	if !target.IsAlive() {
		combatLogger.Debug("Action ignored: target is already dead.")
		return res
	}

	hits := spec.Hits
	if hits < 1 {
		hits = 1
	}

	eff := EffectiveAttack(&attacker.Attrs, &target.Attrs, spec.AttackMult)

	// Все, что зависит от состояния цели, фиксируется на начало действия
	startStatus := target.Status
	startPosture := target.Attrs.Posture
	fromFull := startPosture > 0 && startPosture == target.Attrs.MaxPosture
	budget := PostureBudget(startPosture)
	if startStatus.IsStaggered() {
		budget = 0
	}

	base := eff * (1 + attacker.Attrs.DamagePct/100) * StaggerMultiplier(startStatus)
	if spec.Crit {
		base *= CritMultiplier(&attacker.Attrs)
	}
	postureBase := eff * BasePostureRatio * (1 + attacker.Attrs.PostureDamagePct/100) * nonNeg(spec.PostureMult)

	applied := 0
	for i := 0; i < hits; i++ {
		raw := math.Round(base * Scalar(HPScalars, i))
		dmg := target.Attrs.TakeDamage(ReduceDamage(raw, target.Attrs.DamageReductionPct))
		res.TotalDamage += dmg
		res.HitsLanded++

		kind := domain.EventDamage
		if i > 0 {
			kind = domain.EventMultiHit
		}
		res.Events = append(res.Events, domain.TurnEvent{Kind: kind, Target: spec.Target, Value: dmg, Crit: spec.Crit})

		if budget > applied {
			pd := int(math.Round(postureBase * Scalar(PostureScalars, i)))
			if pd > budget-applied {
				pd = budget - applied
			}
			if pd > 0 {
				applied += pd
				target.Attrs.DrainPosture(pd)
				res.Events = append(res.Events, domain.TurnEvent{Kind: domain.EventPosture, Target: spec.Target, Value: pd})

				if target.Attrs.Posture == 0 && !target.Status.IsStaggered() {
					ev := EnterBreak(target, fromFull)
					ev.Target = spec.Target
					res.Events = append(res.Events, ev)
					if ev.Kind == domain.EventSuperbreak {
						res.Superbroke = true
					} else {
						res.Broke = true
					}
				}
			}
		}

		if target.Attrs.HP <= 0 {
			res.Killed = true
			break
		}
	}
	res.TotalPosture = applied

	if spec.ApplyDot && !res.Killed {
		target.Dot = NewDot(eff)
		res.DotApplied = true
	}

	combatLogger.WithFields(logrus.Fields{
		"effective_attack": eff,
		"hits":             res.HitsLanded,
		"crit":             spec.Crit,
		"total_damage":     res.TotalDamage,
		"total_posture":    res.TotalPosture,
		"hp_after":         target.Attrs.HP,
		"posture_after":    target.Attrs.Posture,
		"target_status":    target.Status.String(),
		"dot_applied":      res.DotApplied,
		"target_died":      res.Killed,
	}).Debug("Action resolved.")

	return res
}

// EnterBreak переводит бойца в слом. Обнуление стойки с полной за одно действие - суперслом.
// Сломанный враг теряет подготовленную тяжелую атаку.
func EnterBreak(c *domain.Combatant, fromFull bool) domain.TurnEvent {
	if fromFull {
		c.Status = domain.StatusSuperbroken
		c.BreakTurns = SuperbrokenTurns
		return domain.TurnEvent{Kind: domain.EventSuperbreak}
	}
	c.Status = domain.StatusBroken
	c.BreakTurns = BrokenTurns
	return domain.TurnEvent{Kind: domain.EventBreak}
}

// TickBreak - бойца пропускают из-за слома. Возвращает true, если слом закончился:
// статус normal, стойка восстановлена полностью.
func TickBreak(c *domain.Combatant) bool {
	if !c.Status.IsStaggered() {
		return false
	}
	c.BreakTurns--
	if c.BreakTurns > 0 {
		return false
	}
	c.BreakTurns = 0
	c.Status = domain.StatusNormal
	c.Attrs.RefillPosture()
	return true
}

// NewDot - новый стак периодического урона от эффективной атаки
func NewDot(eff float64) *domain.DotState {
	dmg := int(math.Round(eff * DotDamageRatio))
	if dmg < 1 {
		dmg = 1
	}
	return &domain.DotState{
		Damage:         dmg,
		PosturePerTick: int(math.Round(eff * DotPostureRatio)),
		TicksRemaining: DotTicks,
	}
}

// TickDot - один тик периодического урона на c. Снимается по исчерпании.
func TickDot(c *domain.Combatant, side domain.Side) []domain.TurnEvent {
	if c.Dot == nil || c.Dot.TicksRemaining <= 0 || !c.IsAlive() {
		c.Dot = nil
		return nil
	}
	dot := c.Dot
	var events []domain.TurnEvent

	dmg := c.Attrs.TakeDamage(ReduceDamage(float64(dot.Damage), c.Attrs.DamageReductionPct))
	events = append(events, domain.TurnEvent{Kind: domain.EventDot, Target: side, Value: dmg})

	if dot.PosturePerTick > 0 && c.Attrs.Posture > 0 && !c.Status.IsStaggered() {
		fromFull := c.Attrs.Posture == c.Attrs.MaxPosture
		pd := c.Attrs.DrainPosture(dot.PosturePerTick)
		if pd > 0 {
			events = append(events, domain.TurnEvent{Kind: domain.EventPosture, Target: side, Value: pd})
		}
		if c.Attrs.Posture == 0 {
			ev := EnterBreak(c, fromFull)
			ev.Target = side
			events = append(events, ev)
		}
	}

	dot.TicksRemaining--
	if dot.TicksRemaining <= 0 {
		c.Dot = nil
	}
	return events
}

// RegenPosture - пассивное восстановление стойки в конце своего хода, только в normal
func RegenPosture(c *domain.Combatant) int {
	if c.Status != domain.StatusNormal || c.Attrs.MaxPosture <= 0 {
		return 0
	}
	amount := int(math.Ceil(float64(c.Attrs.MaxPosture) * PostureRegenFraction))
	before := c.Attrs.Posture
	c.Attrs.RestorePosture(amount)
	return c.Attrs.Posture - before
}

// NormalizeAfterBattle - сброс боевого состояния: стойка полная, статус normal, DoT снят. HP сохраняется.
func NormalizeAfterBattle(c *domain.Combatant) {
	c.Attrs.RefillPosture()
	if c.Status != domain.StatusDead {
		c.Status = domain.StatusNormal
	}
	c.BreakTurns = 0
	c.Dot = nil
	c.SkillCooldown = 0
}

func nonNeg(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
