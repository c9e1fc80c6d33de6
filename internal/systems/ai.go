package systems

import (
	"ascension-server/internal/domain"
	"ascension-server/pkg/rng"
)

// Множители тяжелой атаки врага
const (
	HeavyAttackMult  = 2.0
	HeavyPostureMult = 1.5
)

// EnemyBrain - машина поведения врага: профиль архетипа + позиция в плане
type EnemyBrain struct {
	Profile    domain.BehaviorProfile
	CycleIndex int
}

// NextMove решает, что враг делает в этот ход.
//
//	preparing          -> heavy (и шаг heavy из плана считается выполненным)
//	есть план          -> следующий шаг; heavy без заряда понижается до attack
//	нет плана          -> бросок ChargeChance: charge или attack
func (b *EnemyBrain) NextMove(status domain.Status, s *rng.Stream) domain.EnemyMove {
	cycle := b.Profile.Cycle

	if status == domain.StatusPreparing {
		if len(cycle) > 0 && cycle[b.CycleIndex%len(cycle)] == domain.MoveHeavy {
			b.CycleIndex++
		}
		return domain.MoveHeavy
	}

	if len(cycle) > 0 {
		m := cycle[b.CycleIndex%len(cycle)]
		b.CycleIndex++
		if m == domain.MoveHeavy {
			// заряд сорвали сломом
			return domain.MoveAttack
		}
		return m
	}

	if s.Chance(b.Profile.ChargeChance) {
		return domain.MoveCharge
	}
	return domain.MoveAttack
}
